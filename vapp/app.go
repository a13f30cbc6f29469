package vapp

import (
	"context"

	"go.uber.org/fx"

	"github.com/veldt-go/veldt"
)

// App wraps an fx.App for lifecycle management.
type App struct {
	app *fx.App
}

// AppConfig holds configuration for the app.
type AppConfig struct {
	ServerConfig
	FxOptions []fx.Option
}

// Option configures the App.
type Option func(*AppConfig)

// WithFx adds fx options for dependency injection.
func WithFx(fxOpts ...fx.Option) Option {
	return func(c *AppConfig) {
		c.FxOptions = append(c.FxOptions, fxOpts...)
	}
}

// WithHealthHandler sets a custom health check handler. If not set, a
// default handler returning 200 "ok" is used.
func WithHealthHandler(h veldt.Handler) Option {
	return func(c *AppConfig) {
		c.HealthHandler = h
	}
}

// WithRouterOptions passes extra options to the routing tree, such as a
// custom matcher or validator.
func WithRouterOptions(opts ...veldt.Option) Option {
	return func(c *AppConfig) {
		c.RouterOptions = append(c.RouterOptions, opts...)
	}
}

// FxOptions builds the full dependency graph. It is exported so the test
// helper package can construct the identical graph under fxtest.
func FxOptions[E Environment](routing any, opts ...Option) []fx.Option {
	var cfg AppConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	baseOpts := make([]fx.Option, 0, 14+len(cfg.FxOptions))
	baseOpts = append(baseOpts, []fx.Option{
		fx.NopLogger,
		fx.Provide(ParseEnv[E]()),
		fx.Provide(func(e E) Environment { return e }),
		fx.Provide(NewLogger),
		fx.Provide(NewLogFactory),
		fx.Provide(NewRouter),
		fx.Provide(NewTracerProvider),
		fx.Provide(NewPropagator),
		fx.Provide(NewHTTPTransport),
		fx.Provide(NewHTTPClient),
		fx.Provide(NewRequestBuilder),
		fx.Supply(cfg.ServerConfig),
		fx.Provide(NewServer),
		// Routing must run before the server provider generates the tree.
		fx.Invoke(routing),
		fx.Invoke(startServerHook),
	}...)

	baseOpts = append(baseOpts, cfg.FxOptions...)
	return baseOpts
}

// NewApp creates a batteries-included app with dependency injection.
//
// The routing function can request any types that are provided via fx
// options. At minimum, it should accept *veldt.App for routing.
//
// Example:
//
//	vapp.NewApp[Env](func(app *veldt.App, h *Handlers) {
//	    app.Get("/items", h.ListItems)
//	},
//	    vapp.WithFx(fx.Provide(NewHandlers)),
//	).Run()
func NewApp[E Environment](routing any, opts ...Option) *App {
	return &App{app: fx.New(FxOptions[E](routing, opts...)...)}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() {
	a.app.Run()
}

// Start starts the application with the given context and blocks until the
// context is done, then shuts down within the fx stop timeout.
func (a *App) Start(ctx context.Context) error {
	if err := a.app.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.app.StopTimeout())
	defer cancel()

	return a.app.Stop(stopCtx)
}
