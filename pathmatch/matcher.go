package pathmatch

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrCompiled is returned by AddRoute after Compile has been called.
var ErrCompiled = errors.New("pathmatch: matcher already compiled")

// Matcher accumulates route registrations until Compile turns them into an
// immutable [Compiled] matcher. The zero value is not usable; use [New].
type Matcher struct {
	routes   []registration
	compiled bool
}

type registration struct {
	method  string
	tmpl    *Template
	routeID string
}

// New inits an empty matcher.
func New() *Matcher {
	return &Matcher{}
}

// AddRoute registers a (method, path template, route id) triple. Adding
// routes after Compile fails with [ErrCompiled].
func (m *Matcher) AddRoute(method, path, routeID string) error {
	if m.compiled {
		return ErrCompiled
	}

	tmpl, err := ParseTemplate(path)
	if err != nil {
		return fmt.Errorf("parse route path: %w", err)
	}

	m.routes = append(m.routes, registration{
		method:  strings.ToUpper(method),
		tmpl:    tmpl,
		routeID: routeID,
	})

	return nil
}

// Compile freezes the registrations into an immutable matcher. Routes are
// ordered most-specific first per method: more static segments win, and
// wildcard routes sort last.
func (m *Matcher) Compile() (*Compiled, error) {
	m.compiled = true

	byMethod := make(map[string][]registration)
	for _, reg := range m.routes {
		byMethod[reg.method] = append(byMethod[reg.method], reg)
	}

	for _, regs := range byMethod {
		sort.SliceStable(regs, func(i, j int) bool {
			return specificity(regs[i].tmpl) > specificity(regs[j].tmpl)
		})
	}

	return &Compiled{byMethod: byMethod}, nil
}

// specificity ranks templates so that static segments beat parameters and
// wildcards sort last.
func specificity(t *Template) int {
	score := 0
	for _, seg := range t.segs {
		switch seg.kind {
		case segStatic:
			score += 3
		case segParam, segOptionalParam:
			score += 2
		case segWildcard:
			score -= 10
		}
	}

	return score
}

// Result is a successful route lookup.
type Result struct {
	RouteID string
	Params  map[string]string
}

// Compiled is the immutable compiled form of a [Matcher]. It is safe for
// concurrent use.
type Compiled struct {
	byMethod map[string][]registration
}

// Lookup resolves a method and concrete path to a route.
func (c *Compiled) Lookup(method, path string) (Result, bool) {
	segs := splitPath(path)
	for _, reg := range c.byMethod[strings.ToUpper(method)] {
		if params, ok := matchSegments(reg.tmpl, segs); ok {
			return Result{RouteID: reg.routeID, Params: params}, true
		}
	}

	return Result{}, false
}

// AllowedMethods returns, in sorted order, every method for which the path
// matches some route. Used to distinguish 404 from 405 and to populate the
// Allow header.
func (c *Compiled) AllowedMethods(path string) []string {
	segs := splitPath(path)

	var allowed []string
	for method, regs := range c.byMethod {
		for _, reg := range regs {
			if _, ok := matchSegments(reg.tmpl, segs); ok {
				allowed = append(allowed, method)
				break
			}
		}
	}

	sort.Strings(allowed)

	return allowed
}

// matchSegments walks a template against concrete path segments, extracting
// parameter values. A trailing optional parameter matches its own absence;
// a wildcard consumes the remainder (possibly empty) under the "*" key.
func matchSegments(t *Template, segs []string) (map[string]string, bool) {
	var params map[string]string
	set := func(name, val string) {
		if params == nil {
			params = make(map[string]string)
		}
		params[name] = val
	}

	i := 0
	for _, seg := range t.segs {
		switch seg.kind {
		case segStatic:
			if i >= len(segs) || segs[i] != seg.value {
				return nil, false
			}
			i++
		case segParam:
			if i >= len(segs) || segs[i] == "" {
				return nil, false
			}
			set(seg.value, segs[i])
			i++
		case segOptionalParam:
			if i < len(segs) {
				set(seg.value, segs[i])
				i++
			}
		case segWildcard:
			set("*", strings.Join(segs[i:], "/"))
			i = len(segs)
		}
	}

	if i != len(segs) {
		return nil, false
	}

	return params, true
}
