package veldt

import (
	"context"
	"net/http"

	"github.com/veldt-go/veldt/cookies"
	"github.com/veldt-go/veldt/vlog"
)

// Ctx carries everything a handler needs for one request: the matched route,
// path parameters, the lazily-parsed body, the response under construction
// and a small per-request extension map for hooks to communicate through.
// A Ctx is only valid for the duration of its request.
type Ctx struct {
	req    *http.Request
	res    *Response
	body   *Body
	route  *RouteEntry
	params map[string]string
	logger *vlog.Logger

	parsedCookies []cookies.Cookie
	cookiesParsed bool

	ext map[string]any
}

func newCtx(req *http.Request, route *RouteEntry, params map[string]string, logger *vlog.Logger) *Ctx {
	return &Ctx{
		req:    req,
		res:    &Response{},
		body:   newBody(req.Body, req.Header.Get("Content-Type")),
		route:  route,
		params: params,
		logger: logger,
	}
}

// Request returns the underlying request.
func (c *Ctx) Request() *http.Request { return c.req }

// Context returns the request's context.
func (c *Ctx) Context() context.Context { return c.req.Context() }

// Response returns the response builder. The same builder is visible to all
// hooks and the handler.
func (c *Ctx) Response() *Response { return c.res }

// Body returns the request body reader.
func (c *Ctx) Body() *Body { return c.body }

// Route returns the matched route entry. The dispatcher only builds a Ctx
// for a matched route, so it is non-nil in hooks and handlers.
func (c *Ctx) Route() *RouteEntry { return c.route }

// Logger returns the request-scoped logger.
func (c *Ctx) Logger() *vlog.Logger { return c.logger }

// Param returns the named path parameter, empty when absent. Optional
// parameters that did not match and wildcard remainders under "*" follow the
// same lookup.
func (c *Ctx) Param(name string) string { return c.params[name] }

// Params returns all captured path parameters.
func (c *Ctx) Params() map[string]string { return c.params }

// Set stores a value in the per-request extension map. Hooks use it to pass
// derived state (an authenticated user, a tenant) to later hooks and the
// handler.
func (c *Ctx) Set(key string, value any) {
	if c.ext == nil {
		c.ext = make(map[string]any)
	}
	c.ext[key] = value
}

// Get reads a value from the extension map.
func (c *Ctx) Get(key string) (any, bool) {
	v, ok := c.ext[key]

	return v, ok
}

// Cookies parses the request's Cookie header once and returns the result.
func (c *Ctx) Cookies() []cookies.Cookie {
	if !c.cookiesParsed {
		c.parsedCookies = cookies.Parse(c.req.Header.Get("Cookie"))
		c.cookiesParsed = true
	}

	return c.parsedCookies
}

// Cookie returns the named request cookie.
func (c *Ctx) Cookie(name string) (cookies.Cookie, bool) {
	return cookies.Lookup(c.Cookies(), name)
}

// SetCookie serializes the cookie and adds a Set-Cookie header to the
// response. Constraint violations are returned, not silently dropped.
func (c *Ctx) SetCookie(ck cookies.Cookie) error {
	serialized, err := cookies.Serialize(ck)
	if err != nil {
		return err
	}

	c.res.AddHeader("Set-Cookie", serialized)

	return nil
}
