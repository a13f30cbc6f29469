package veldt

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/veldt-go/veldt/vlog"
)

// Handler is a route handler. It shapes the response through the context and
// returns an error only for faults; expected failures (a missing record, a
// rejected input) are responses, not errors.
type Handler func(c *Ctx) error

// composedHandler is a handler with its owning instance's hook chains and
// validation configuration bound in. The pipeline reads the instance's hook
// lists at call time; they are read-only once a fetch handler has been
// generated, so no locking is needed.
type composedHandler func(c *Ctx) error

// pipeline is the per-route execution plan.
type pipeline struct {
	handler      Handler
	requestHooks []RequestHook
	errorHooks   []ErrorHook

	validator       Validator
	requestFailure  ValidationFailureHandler
	responseFailure ValidationFailureHandler
}

// run executes the pipeline: request hooks, request validation, the handler,
// response validation. Any fault, panics included, is routed through the
// error hook chain; the returned error is non-nil only when no hook handled
// it.
func (p pipeline) run(c *Ctx) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = p.fault(c, errors.Newf("recovered panic: %v", rec))
		}
	}()

	if err := p.serve(c); err != nil {
		return p.fault(c, err)
	}

	return nil
}

func (p pipeline) serve(c *Ctx) error {
	for _, hook := range p.requestHooks {
		if err := hook(c); err != nil {
			return err
		}
		if c.Response().Decided() {
			// A hook produced the response; the rest of the pipeline,
			// the handler included, is skipped.
			return nil
		}
	}

	if err := p.validateRequest(c); err != nil {
		return err
	}
	if c.Response().Decided() {
		return nil
	}

	if err := p.handler(c); err != nil {
		return err
	}

	return p.validateResponse(c)
}

// validateRequest runs the route's request schema, if any, against the
// parsed body. Failures go to the resolved failure handler, which by default
// shapes the structured 400.
func (p pipeline) validateRequest(c *Ctx) error {
	if p.validator == nil || c.route == nil || c.route.RequestSchema == nil {
		return nil
	}

	value, err := c.Body().Parse()
	if err != nil {
		return NewError(ErrorTypeBadRequest, err)
	}

	verr := p.validator.Validate(c.route.RequestSchema, value)
	if verr == nil {
		return nil
	}

	return p.requestFailure(c, &ValidationFailure{
		Phase:  ValidationPhaseRequest,
		Vendor: p.validator.Vendor(),
		Err:    verr,
	})
}

// validateResponse checks a JSON response body against the route's response
// schema. Only JSON bodies are checkable; other kinds pass through.
func (p pipeline) validateResponse(c *Ctx) error {
	if p.validator == nil || c.route == nil || c.route.ResponseSchema == nil {
		return nil
	}
	if c.Response().kind != BodyJSON {
		return nil
	}

	verr := p.validator.Validate(c.route.ResponseSchema, c.Response().jsonVal)
	if verr == nil {
		return nil
	}

	return p.responseFailure(c, &ValidationFailure{
		Phase:  ValidationPhaseResponse,
		Vendor: p.validator.Vendor(),
		Err:    verr,
	})
}

// fault runs the error hook chain. The partially shaped response is
// discarded first so the fault response is authoritative. The first hook
// that sets a body handles the fault; an error returned by a hook replaces
// the fault for the hooks after it. An unhandled fault is returned to the
// dispatcher.
func (p pipeline) fault(c *Ctx, ferr error) error {
	c.res = &Response{}

	for _, hook := range p.errorHooks {
		if herr := hook(c, ferr); herr != nil {
			ferr = herr
		}
		if c.Response().Decided() {
			return nil
		}
	}

	return ferr
}

// defaultResponseFailureHandler logs the mismatch and lets the response
// through unchanged. Substituting a 500 for an otherwise valid response over
// a contract drift would turn a documentation bug into an outage.
func defaultResponseFailureHandler(c *Ctx, f *ValidationFailure) error {
	c.Logger().Error("response validation failed", vlog.Fields(
		zap.String("provider", f.Vendor),
		zap.String("route", routeIDOf(c)),
		zap.Any("issues", f.Issues()),
	))

	return nil
}

func routeIDOf(c *Ctx) string {
	if c.route == nil {
		return ""
	}

	return c.route.ID
}
