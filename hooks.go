package veldt

import "context"

// StartHook runs exactly once when a generated handler initializes, before
// it serves its first request. Start hooks are collected transitively from
// the whole instance tree at Generate time.
type StartHook func(ctx context.Context) error

// RequestHook runs for every dispatched request, in definition order, before
// validation and the route handler. A hook may extend the per-request
// context via [Ctx.Set] or short-circuit the rest of the pipeline by setting
// a response body.
type RequestHook func(c *Ctx) error

// ErrorHook runs when a later hook, validation or the handler faults. Hooks
// run in definition order; the first one that sets a response body handles
// the fault and stops the chain. A fault no hook handles falls back to the
// dispatcher, which renders a typed [*Error] as its structured response and
// anything else as a generic 500 without internal detail.
type ErrorHook func(c *Ctx, err error) error
