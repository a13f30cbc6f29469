package veldt

import "github.com/veldt-go/veldt/pathmatch"

// MatchKind discriminates the outcome of a route lookup.
type MatchKind int

const (
	MatchFound MatchKind = iota
	MatchNotFound
	MatchMethodNotAllowed
)

// Match is the result of resolving (method, path) against the compiled
// matcher.
type Match struct {
	Kind    MatchKind
	RouteID string
	Params  map[string]string
	Allow   []string // populated for MatchMethodNotAllowed
}

// RouteMatcher is the matching engine contract the framework consumes. The
// framework only feeds registrations before Compile and queries the compiled
// result after; it never re-derives matching logic itself. Compilation
// happens exactly once, at Generate time; AddRoute afterwards must fail with
// [ErrMatcherCompiled] (or the engine's equivalent).
type RouteMatcher interface {
	AddRoute(method, path, routeID string) error
	Compile() (CompiledMatcher, error)
}

// CompiledMatcher is the immutable, concurrency-safe result of compiling a
// [RouteMatcher].
type CompiledMatcher interface {
	Match(method, path string) Match
}

// defaultMatcher adapts the pathmatch engine to the [RouteMatcher] contract.
type defaultMatcher struct {
	m *pathmatch.Matcher
}

func newDefaultMatcher() RouteMatcher {
	return &defaultMatcher{m: pathmatch.New()}
}

func (d *defaultMatcher) AddRoute(method, path, routeID string) error {
	return d.m.AddRoute(method, path, routeID)
}

func (d *defaultMatcher) Compile() (CompiledMatcher, error) {
	compiled, err := d.m.Compile()
	if err != nil {
		return nil, err
	}

	return compiledDefaultMatcher{compiled}, nil
}

type compiledDefaultMatcher struct {
	c *pathmatch.Compiled
}

func (d compiledDefaultMatcher) Match(method, path string) Match {
	if res, ok := d.c.Lookup(method, path); ok {
		return Match{Kind: MatchFound, RouteID: res.RouteID, Params: res.Params}
	}

	if allowed := d.c.AllowedMethods(path); len(allowed) > 0 {
		return Match{Kind: MatchMethodNotAllowed, Allow: allowed}
	}

	return Match{Kind: MatchNotFound}
}
