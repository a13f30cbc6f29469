package veldt

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/veldt-go/veldt/vlog"
)

// Generate freezes the instance tree and returns a fetch handler for it.
// The matcher is compiled exactly once per tree no matter how often
// Generate is called; each call returns an independent handler with its own
// start-hook initialization, all bound to the same registry and compiled
// matcher.
func (a *App) Generate() (http.Handler, error) {
	shared := a.shared
	shared.generated.Store(true)

	shared.compileOnce.Do(func() {
		shared.compiled, shared.compileErr = shared.matcher.Compile()
	})
	if shared.compileErr != nil {
		return nil, errors.Wrap(shared.compileErr, "compile route matcher")
	}

	return &fetchHandler{
		shared:     shared,
		startHooks: shared.root.collectStartHooks(),
		log:        shared.logs.Channel("veldt.dispatch"),
	}, nil
}

// MustGenerate is [App.Generate] that panics on error, for servers wired at
// process startup.
func (a *App) MustGenerate() http.Handler {
	h, err := a.Generate()
	if err != nil {
		panic("veldt: " + err.Error())
	}

	return h
}

// fetchHandler is the generated request entry point. It lazily runs the
// tree's start hooks exactly once before serving its first request.
type fetchHandler struct {
	shared     *sharedState
	startHooks []StartHook
	log        *vlog.Logger

	startOnce sync.Once
	startErr  error
}

// Start runs the collected start hooks, in tree order, exactly once. It is
// called implicitly on the first request; callers that want initialization
// failures before binding a listener can call it explicitly.
func (f *fetchHandler) Start(ctx context.Context) error {
	f.startOnce.Do(func() {
		for _, hook := range f.startHooks {
			if err := hook(ctx); err != nil {
				f.startErr = errors.Wrap(err, "run start hook")

				return
			}
		}
	})

	return f.startErr
}

func (f *fetchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := f.Start(r.Context()); err != nil {
		f.log.Error("start hooks failed", vlog.Fields(zap.Error(err)))
		f.write(w, NewResponse().InternalError().Build())

		return
	}

	match := f.shared.compiled.Match(r.Method, r.URL.Path)
	switch match.Kind {
	case MatchNotFound:
		f.write(w, NewResponse().NotFound().Build())

		return
	case MatchMethodNotAllowed:
		res := NewResponse().
			Header("Allow", strings.Join(match.Allow, ", ")).
			MethodNotAllowed()
		f.write(w, res.Build())

		return
	}

	entry := f.shared.registry.byID[match.RouteID]
	c := newCtx(r, entry, match.Params, f.log)

	if err := entry.handler(c); err != nil {
		// No error hook produced a response. Log the detail here and render
		// the fault ourselves so internals never leak to the client.
		f.log.Error("unhandled fault", vlog.Fields(
			zap.String("route", entry.ID),
			zap.String("method", entry.Method),
			zap.String("path", entry.Path),
			zap.Error(err),
		))
		f.write(w, faultResponse(err).Build())

		return
	}

	f.write(w, c.Response().Build())
}

// faultResponse shapes the wire response for a fault no error hook handled.
// A typed [*Error] renders the structured body for its type, with only the
// client-visible message and details, never the underlying cause. Anything
// else stays a generic 500.
func faultResponse(err error) *Response {
	verr, ok := asError(err)
	if !ok {
		return NewResponse().InternalError()
	}

	opts := []ErrorOption{WithMessage(verr.Message())}
	if verr.Details() != nil {
		opts = append(opts, WithDetails(verr.Details()))
	}

	return NewResponse().Fault(verr.Type(), opts...)
}

func (f *fetchHandler) write(w http.ResponseWriter, built *BuiltResponse) {
	if err := built.Write(w); err != nil {
		f.log.Error("write response", vlog.Fields(zap.Error(err)))
	}
}
