// Package vapptest provides test helpers for vapp applications.
//
// It constructs the identical DI graph as [vapp.NewApp] but uses
// [fxtest.App], which fails the test immediately on DI errors.
//
//	vapptest.SetBaseEnv(t, 18081)
//	app := vapptest.New[TestEnv](t, routing)
//	app.RequireStart()
//	t.Cleanup(app.RequireStop)
package vapptest

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"go.uber.org/fx/fxtest"

	"github.com/veldt-go/veldt"
	"github.com/veldt-go/veldt/vapp"
	"github.com/veldt-go/veldt/vlog"
)

// App embeds *fxtest.App for testing vapp applications.
type App struct {
	*fxtest.App
}

// New creates a test app with the same DI graph as [vapp.NewApp].
func New[E vapp.Environment](t testing.TB, routing any, opts ...vapp.Option) *App {
	return &App{App: fxtest.New(t, vapp.FxOptions[E](routing, opts...)...)}
}

// Env provides a chainable builder for overriding [vapp.BaseEnvironment]
// env vars via t.Setenv. Create one with [SetBaseEnv].
type Env struct {
	t testing.TB
}

// SetBaseEnv sets all [vapp.BaseEnvironment] env vars to sensible test
// defaults. Port is required because each test must use a unique port to
// avoid collisions.
func SetBaseEnv(t testing.TB, port int) *Env {
	t.Helper()
	t.Setenv("VELDT_PORT", strconv.Itoa(port))
	t.Setenv("VELDT_SERVICE_NAME", "test")
	t.Setenv("VELDT_HEALTH_PATH", "/healthz")
	t.Setenv("VELDT_LOG_LEVEL", "error")
	t.Setenv("OTEL_SDK_DISABLED", "true")
	return &Env{t: t}
}

// ServiceName overrides VELDT_SERVICE_NAME.
func (e *Env) ServiceName(name string) *Env {
	e.t.Helper()
	e.t.Setenv("VELDT_SERVICE_NAME", name)
	return e
}

// HealthPath overrides VELDT_HEALTH_PATH.
func (e *Env) HealthPath(path string) *Env {
	e.t.Helper()
	e.t.Setenv("VELDT_HEALTH_PATH", path)
	return e
}

// LogLevel overrides VELDT_LOG_LEVEL.
func (e *Env) LogLevel(level string) *Env {
	e.t.Helper()
	e.t.Setenv("VELDT_LOG_LEVEL", level)
	return e
}

// H2C overrides VELDT_H2C.
func (e *Env) H2C(enabled bool) *Env {
	e.t.Helper()
	e.t.Setenv("VELDT_H2C", strconv.FormatBool(enabled))
	return e
}

// Call invokes a single handler through a throwaway routing tree and returns
// the recorded response. It handles the boilerplate of registering the
// handler, generating the tree and running the request through it.
func Call(t testing.TB, h veldt.Handler, r *http.Request) *httptest.ResponseRecorder {
	t.Helper()

	app := veldt.New(veldt.WithLogger(vlog.NewNop()))
	app.Route(r.Method, r.URL.Path, h)

	rec := httptest.NewRecorder()
	app.MustGenerate().ServeHTTP(rec, r)
	return rec
}
