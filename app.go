package veldt

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/veldt-go/veldt/pathmatch"
	"github.com/veldt-go/veldt/vlog"
)

// sharedState is the part of an instance tree every instance shares: the
// registry, the matching engine and the tree-wide configuration. Children
// created with [App.CreateChild] point at the same sharedState as their
// root.
type sharedState struct {
	registry *registry
	matcher  RouteMatcher

	validator Validator
	logs      *vlog.Factory

	root      *App
	generated atomic.Bool

	compileOnce sync.Once
	compiled    CompiledMatcher
	compileErr  error
}

// App is one instance in the instance tree: the root created by [New], or a
// child created by [App.CreateChild]. All instances share one registry and
// matcher; each instance owns its path prefix and its hook chains.
//
// An App is a builder. It is not safe for concurrent registration; once
// [App.Generate] has been called the tree is frozen and further registration
// panics.
type App struct {
	shared *sharedState

	prefix   string
	parent   *App
	children []*App

	startHooks   []StartHook
	requestHooks []RequestHook
	errorHooks   []ErrorHook

	failureHandler ValidationFailureHandler
}

// Option configures the root instance.
type Option func(*appConfig)

type appConfig struct {
	matcher RouteMatcher
	valid   Validator
	logs    *vlog.Factory
	failure ValidationFailureHandler
}

// WithMatcher swaps in a custom matching engine. The default engine supports
// ":name" parameters, trailing ":name?" optional parameters and "*"
// wildcards.
func WithMatcher(m RouteMatcher) Option {
	return func(c *appConfig) { c.matcher = m }
}

// WithValidator enables the validation gate for routes that declare schemas.
// Without a validator, schemas are carried as metadata only.
func WithValidator(v Validator) Option {
	return func(c *appConfig) { c.valid = v }
}

// WithLogger sets the logging factory. The default writes JSON to stderr at
// info level.
func WithLogger(f *vlog.Factory) Option {
	return func(c *appConfig) { c.logs = f }
}

// WithValidationFailureHandler sets the tree-root's instance-level failure
// handler. Route-level handlers still take precedence.
func WithValidationFailureHandler(h ValidationFailureHandler) Option {
	return func(c *appConfig) { c.failure = h }
}

// New inits the root instance of a fresh tree.
func New(opts ...Option) *App {
	cfg := appConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.matcher == nil {
		cfg.matcher = newDefaultMatcher()
	}
	if cfg.logs == nil {
		cfg.logs = vlog.NewFactory()
	}

	shared := &sharedState{
		registry:  newRegistry(),
		matcher:   cfg.matcher,
		validator: cfg.valid,
		logs:      cfg.logs,
	}

	app := &App{shared: shared, failureHandler: cfg.failure}
	shared.root = app

	return app
}

// mustBeBuilding panics when the tree has already been generated. All
// builder methods call it; registering anything against a generated tree is
// a programming error.
func (a *App) mustBeBuilding(action string) {
	if a.shared.generated.Load() {
		panic("veldt: cannot " + action + " after the tree has been generated")
	}
}

// RouteOption configures one route registration.
type RouteOption func(*routeConfig)

type routeConfig struct {
	name      string
	reqSchema any
	resSchema any
	meta      map[string]any
	failure   ValidationFailureHandler
}

// WithName names the route for reversal via [App.Reverse].
func WithName(name string) RouteOption {
	return func(c *routeConfig) { c.name = name }
}

// WithRequestSchema declares the request schema. Its concrete type is
// whatever the configured [Validator] understands.
func WithRequestSchema(schema any) RouteOption {
	return func(c *routeConfig) { c.reqSchema = schema }
}

// WithResponseSchema declares the response schema, checked against JSON
// response bodies.
func WithResponseSchema(schema any) RouteOption {
	return func(c *routeConfig) { c.resSchema = schema }
}

// WithMeta attaches free-form metadata to the route, surfaced through
// [App.RouteDefinitions]. Plugins use it to tag the routes they register.
func WithMeta(key string, value any) RouteOption {
	return func(c *routeConfig) {
		if c.meta == nil {
			c.meta = make(map[string]any)
		}
		c.meta[key] = value
	}
}

// WithFailureHandler sets a route-level validation failure handler, taking
// precedence over the instance-level one.
func WithFailureHandler(h ValidationFailureHandler) RouteOption {
	return func(c *routeConfig) { c.failure = h }
}

// Route registers a handler for an explicit method and path. The path is
// joined onto the instance's prefix and validated against the matching
// engine's template syntax; an invalid template is a definition error and
// panics.
func (a *App) Route(method, path string, h Handler, opts ...RouteOption) *App {
	a.mustBeBuilding("register a route")

	cfg := routeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	full := joinPrefix(a.prefix, path)
	if err := pathmatch.ValidateTemplate(full); err != nil {
		panic(fmt.Sprintf("veldt: invalid route path %q: %v", full, err))
	}

	entry := &RouteEntry{
		Method:         strings.ToUpper(method),
		Path:           full,
		Name:           cfg.name,
		RequestSchema:  cfg.reqSchema,
		ResponseSchema: cfg.resSchema,
		Meta:           cfg.meta,
	}
	entry.handler = a.composed(h, cfg.failure)

	id := a.shared.registry.register(entry)
	if err := a.shared.matcher.AddRoute(entry.Method, full, id); err != nil {
		panic(fmt.Sprintf("veldt: register route %s %s: %v", entry.Method, full, err))
	}

	return a
}

// Get registers a GET route.
func (a *App) Get(path string, h Handler, opts ...RouteOption) *App {
	return a.Route(http.MethodGet, path, h, opts...)
}

// Post registers a POST route.
func (a *App) Post(path string, h Handler, opts ...RouteOption) *App {
	return a.Route(http.MethodPost, path, h, opts...)
}

// Put registers a PUT route.
func (a *App) Put(path string, h Handler, opts ...RouteOption) *App {
	return a.Route(http.MethodPut, path, h, opts...)
}

// Patch registers a PATCH route.
func (a *App) Patch(path string, h Handler, opts ...RouteOption) *App {
	return a.Route(http.MethodPatch, path, h, opts...)
}

// Delete registers a DELETE route.
func (a *App) Delete(path string, h Handler, opts ...RouteOption) *App {
	return a.Route(http.MethodDelete, path, h, opts...)
}

// Head registers a HEAD route.
func (a *App) Head(path string, h Handler, opts ...RouteOption) *App {
	return a.Route(http.MethodHead, path, h, opts...)
}

// Options registers an OPTIONS route.
func (a *App) Options(path string, h Handler, opts ...RouteOption) *App {
	return a.Route(http.MethodOptions, path, h, opts...)
}

// composed binds a handler to this instance. The pipeline reads the
// instance's hook chains when the request arrives, so hooks registered after
// the route but before generation still apply.
func (a *App) composed(h Handler, routeFailure ValidationFailureHandler) composedHandler {
	return func(c *Ctx) error {
		requestFailure := routeFailure
		if requestFailure == nil {
			requestFailure = a.failureHandler
		}
		if requestFailure == nil {
			requestFailure = defaultRequestFailureHandler
		}

		responseFailure := routeFailure
		if responseFailure == nil {
			responseFailure = a.failureHandler
		}
		if responseFailure == nil {
			responseFailure = defaultResponseFailureHandler
		}

		p := pipeline{
			handler:         h,
			requestHooks:    a.requestHooks,
			errorHooks:      a.errorHooks,
			validator:       a.shared.validator,
			requestFailure:  requestFailure,
			responseFailure: responseFailure,
		}

		return p.run(c)
	}
}

// OnStart registers a start hook, run exactly once per generated fetch
// handler before it serves its first request.
func (a *App) OnStart(h StartHook) *App {
	a.mustBeBuilding("register a start hook")
	a.startHooks = append(a.startHooks, h)

	return a
}

// OnRequest registers a request hook on this instance.
func (a *App) OnRequest(h RequestHook) *App {
	a.mustBeBuilding("register a request hook")
	a.requestHooks = append(a.requestHooks, h)

	return a
}

// OnError registers an error hook on this instance.
func (a *App) OnError(h ErrorHook) *App {
	a.mustBeBuilding("register an error hook")
	a.errorHooks = append(a.errorHooks, h)

	return a
}

// Plugin extends an instance: it may register hooks, routes and metadata. A
// plugin must not retain the instance beyond the Apply call.
type Plugin interface {
	Apply(app *App) *App
}

// PluginFunc adapts a function to the [Plugin] interface.
type PluginFunc func(app *App) *App

func (f PluginFunc) Apply(app *App) *App { return f(app) }

// Apply runs a plugin against this instance.
func (a *App) Apply(p Plugin) *App {
	a.mustBeBuilding("apply a plugin")

	return p.Apply(a)
}

// CreateChild spawns a sub-instance. The child shares the tree's registry
// and matcher, joins its prefix onto the parent's, and snapshots the
// parent's current request and error hooks as its inherited baseline. Hooks
// the parent gains afterwards do not reach the child.
func (a *App) CreateChild(prefix string) *App {
	a.mustBeBuilding("create a child")

	child := &App{
		shared:         a.shared,
		prefix:         joinPrefix(a.prefix, prefix),
		parent:         a,
		requestHooks:   slices.Clone(a.requestHooks),
		errorHooks:     slices.Clone(a.errorHooks),
		failureHandler: a.failureHandler,
	}
	a.children = append(a.children, child)

	return child
}

// Reverse builds a concrete path for a named route from parameter values.
func (a *App) Reverse(name string, params map[string]string) (string, error) {
	entry, ok := a.shared.registry.byName[name]
	if !ok {
		return "", ErrRouteNotNamed
	}

	return pathmatch.BuildPath(entry.Path, params)
}

// RouteDefinitions enumerates every registered route in registration order,
// for documentation generators and introspection.
func (a *App) RouteDefinitions() []RouteDefinition {
	return a.shared.registry.definitions()
}

// collectStartHooks walks the subtree in creation order, parents before
// children.
func (a *App) collectStartHooks() []StartHook {
	hooks := slices.Clone(a.startHooks)
	for _, child := range a.children {
		hooks = append(hooks, child.collectStartHooks()...)
	}

	return hooks
}

// joinPrefix joins an instance prefix and a route path into one normalized
// template path.
func joinPrefix(prefix, path string) string {
	prefix = strings.TrimSuffix(prefix, "/")
	if path == "" || path == "/" {
		if prefix == "" {
			return "/"
		}

		return prefix
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return prefix + path
}
