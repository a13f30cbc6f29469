package vapp

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/veldt-go/veldt"
	"github.com/veldt-go/veldt/validators/playground"
	"github.com/veldt-go/veldt/vlog"
)

// Server timeouts are fixed outer bounds; per-request deadlines, if needed,
// belong to the transport or a request hook.
const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 2 * time.Minute
)

// ServerConfig holds optional configuration for the HTTP server.
type ServerConfig struct {
	HealthHandler veldt.Handler
	RouterOptions []veldt.Option
}

// ServerParams holds the dependencies for creating an HTTP server.
type ServerParams struct {
	fx.In

	Env        Environment
	Router     *veldt.App
	Logger     *zap.Logger
	TracerProv trace.TracerProvider
	Propagator propagation.TextMapPropagator
}

// NewRouter creates the routing tree the application registers against. It
// carries the shared log factory and schema validation via
// go-playground/validator.
func NewRouter(f *vlog.Factory, cfg ServerConfig) *veldt.App {
	opts := append([]veldt.Option{
		veldt.WithLogger(f),
		veldt.WithValidator(playground.New()),
	}, cfg.RouterOptions...)

	return veldt.New(opts...)
}

// NewServer generates the routing tree into a handler and wraps it with
// tracing and, when enabled, h2c. The health check endpoint is registered
// at the path from VELDT_HEALTH_PATH; tracing is disabled for it so
// liveness polling does not flood the trace exporter.
func NewServer(params ServerParams, cfg ServerConfig) (*http.Server, error) {
	healthPath := params.Env.healthPath()
	healthHandler := cfg.HealthHandler
	if healthHandler == nil {
		healthHandler = defaultHealthHandler
	}
	params.Router.Get(healthPath, healthHandler)

	handler, err := params.Router.Generate()
	if err != nil {
		return nil, err
	}

	wrapped := withTracing(params.TracerProv, params.Propagator, params.Env.serviceName(), healthPath)(handler)
	if params.Env.h2c() {
		wrapped = h2c.NewHandler(wrapped, &http2.Server{})
	}

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", params.Env.port()),
		Handler:           wrapped,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}, nil
}

// startServerHook registers lifecycle hooks for the HTTP server.
func startServerHook(lc fx.Lifecycle, server *http.Server, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting server", zap.String("addr", server.Addr))
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping server")
			return server.Shutdown(ctx)
		},
	})
}

func defaultHealthHandler(c *veldt.Ctx) error {
	c.Response().Text("ok")
	return nil
}
