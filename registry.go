package veldt

import (
	"strconv"

	"github.com/samber/lo"
)

// RouteEntry is one registered route: identity, metadata and the composed
// handler the dispatcher invokes. Entries are created once at registration
// and never mutated or removed; the registry is append-only for the lifetime
// of the instance tree.
type RouteEntry struct {
	ID             string
	Method         string
	Path           string
	Name           string
	RequestSchema  any
	ResponseSchema any
	Meta           map[string]any

	handler composedHandler
}

// RouteDefinition is the externally consumable projection of a [RouteEntry],
// used by documentation generators.
type RouteDefinition struct {
	Method         string
	Path           string
	Name           string
	RequestSchema  any
	ResponseSchema any
	Meta           map[string]any
}

// registry is the append-only route store shared by a whole instance tree.
type registry struct {
	entries []*RouteEntry
	byID    map[string]*RouteEntry
	byName  map[string]*RouteEntry
}

func newRegistry() *registry {
	return &registry{
		byID:   make(map[string]*RouteEntry),
		byName: make(map[string]*RouteEntry),
	}
}

// register assigns a fresh identifier and appends the entry. Registration is
// unconditional; path validation happens upstream in the instance tree.
func (r *registry) register(entry *RouteEntry) string {
	entry.ID = "route-" + strconv.Itoa(len(r.entries))
	r.entries = append(r.entries, entry)
	r.byID[entry.ID] = entry
	if entry.Name != "" {
		r.byName[entry.Name] = entry
	}

	return entry.ID
}

// all returns the entries in registration order.
func (r *registry) all() []*RouteEntry {
	return r.entries
}

// definitions projects the entries, in registration order.
func (r *registry) definitions() []RouteDefinition {
	return lo.Map(r.entries, func(e *RouteEntry, _ int) RouteDefinition {
		return RouteDefinition{
			Method:         e.Method,
			Path:           e.Path,
			Name:           e.Name,
			RequestSchema:  e.RequestSchema,
			ResponseSchema: e.ResponseSchema,
			Meta:           e.Meta,
		}
	})
}
