package veldt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// BodyKind discriminates the body representation of a [Response] under
// construction.
type BodyKind int

const (
	BodyNone BodyKind = iota
	BodyJSON
	BodyText
	BodyHTML
	BodyEmpty
	BodyStream
)

// contentTypeFor returns the canonical default Content-Type for a body kind,
// or "" when the kind carries none.
func contentTypeFor(kind BodyKind) string {
	switch kind {
	case BodyJSON:
		return "application/json; charset=utf-8"
	case BodyText:
		return "text/plain; charset=utf-8"
	case BodyHTML:
		return "text/html; charset=utf-8"
	case BodyStream:
		return "application/octet-stream"
	}

	return ""
}

// defaultHeaders holds one shared, immutable header set per body kind. A
// response that never had its headers touched references one of these at
// build time instead of allocating its own.
var defaultHeaders = func() map[BodyKind]http.Header {
	m := make(map[BodyKind]http.Header)
	for _, kind := range []BodyKind{BodyNone, BodyJSON, BodyText, BodyHTML, BodyEmpty, BodyStream} {
		h := http.Header{}
		if ct := contentTypeFor(kind); ct != "" {
			h.Set("Content-Type", ct)
		}
		m[kind] = h
	}
	return m
}()

// Response is the mutable representation of one HTTP response under
// construction. It is created per request by the dispatcher and mutated by
// request hooks and the route handler, then finalized exactly once with
// [Response.Build].
//
// Mutating a built response, or building it a second time, panics: both can
// only happen through a handler bug and silently ignoring them would hide it.
//
// All mutators return the response for chaining:
//
//	c.Response().Status(http.StatusCreated).JSON(user)
type Response struct {
	status  int
	header  http.Header // nil until the first Header call
	kind    BodyKind
	jsonVal any
	textVal string
	stream  io.Reader
	built   bool
}

// NewResponse inits an empty response in its uninitialized state.
func NewResponse() *Response {
	return &Response{}
}

func (r *Response) mustNotBeBuilt() {
	if r.built {
		panic("veldt: response already built")
	}
}

// Status sets an explicit status code. An explicit status always wins over
// the body kind's default.
func (r *Response) Status(code int) *Response {
	r.mustNotBeBuilt()
	r.status = code

	return r
}

// StatusCode returns the explicit status code, or 0 when none was set.
func (r *Response) StatusCode() int { return r.status }

// Header sets a response header. The first call copies the shared default
// header set into a private one.
func (r *Response) Header(key, value string) *Response {
	r.mustNotBeBuilt()
	r.ensureOwnHeader()
	r.header.Set(key, value)

	return r
}

// AddHeader appends a response header value instead of replacing it.
func (r *Response) AddHeader(key, value string) *Response {
	r.mustNotBeBuilt()
	r.ensureOwnHeader()
	r.header.Add(key, value)

	return r
}

// ensureOwnHeader switches from the shared default header set to a private
// copy on first mutation.
func (r *Response) ensureOwnHeader() {
	if r.header == nil {
		r.header = http.Header{}
	}
}

// setBody records a new body, overwriting any previous one. Explicitly set
// headers survive, the previous kind's default Content-Type does not (it was
// never stored on the private header set).
func (r *Response) setBody(kind BodyKind) {
	r.mustNotBeBuilt()
	r.kind = kind
	r.jsonVal = nil
	r.textVal = ""
	r.stream = nil
}

// JSON sets a JSON body. The value is serialized at build time; a value that
// cannot be marshalled is a programming error and faults the build.
func (r *Response) JSON(v any) *Response {
	r.setBody(BodyJSON)
	r.jsonVal = v

	return r
}

// Text sets a plain-text body.
func (r *Response) Text(s string) *Response {
	r.setBody(BodyText)
	r.textVal = s

	return r
}

// HTML sets an HTML body.
func (r *Response) HTML(s string) *Response {
	r.setBody(BodyHTML)
	r.textVal = s

	return r
}

// Empty sets an explicitly empty body. Unless a status was set, the response
// builds as 204 No Content.
func (r *Response) Empty() *Response {
	r.setBody(BodyEmpty)

	return r
}

// Stream sets a streaming body. The reader is stored verbatim and emitted
// as-is at build time; the dispatcher does not buffer it.
func (r *Response) Stream(rd io.Reader) *Response {
	r.setBody(BodyStream)
	r.stream = rd

	return r
}

// Decided reports whether a body-setting call has happened. Request hooks
// that set a body short-circuit the rest of the pipeline.
func (r *Response) Decided() bool { return r.kind != BodyNone }

// Built reports whether the response was finalized.
func (r *Response) Built() bool { return r.built }

// ErrorOption customizes the error-response helpers.
type ErrorOption func(*errorBody)

type errorBody struct {
	typ     ErrorType
	message string
	details any
	asText  bool
}

// WithMessage overrides the error kind's default message.
func WithMessage(msg string) ErrorOption {
	return func(b *errorBody) { b.message = msg }
}

// WithDetails attaches detail data to the structured error body.
func WithDetails(details any) ErrorOption {
	return func(b *errorBody) { b.details = details }
}

// AsText renders the error as a plain-text message instead of the structured
// JSON object.
func AsText() ErrorOption {
	return func(b *errorBody) { b.asText = true }
}

// Fault sets the response to the structured error body for the given type:
// status from the type, body {"error":{"type":...,"message":...,"details":?}}
// unless [AsText] switches to a plain-text message.
func (r *Response) Fault(t ErrorType, opts ...ErrorOption) *Response {
	body := errorBody{typ: t, message: t.DefaultMessage()}
	for _, opt := range opts {
		opt(&body)
	}

	r.Status(t.Status())
	if body.asText {
		return r.Text(body.message)
	}

	payload := map[string]any{
		"type":    string(body.typ),
		"message": body.message,
	}
	if body.details != nil {
		payload["details"] = body.details
	}

	return r.JSON(map[string]any{"error": payload})
}

// BadRequest sets a 400 error response.
func (r *Response) BadRequest(opts ...ErrorOption) *Response {
	return r.Fault(ErrorTypeBadRequest, opts...)
}

// Unauthorized sets a 401 error response.
func (r *Response) Unauthorized(opts ...ErrorOption) *Response {
	return r.Fault(ErrorTypeUnauthorized, opts...)
}

// Forbidden sets a 403 error response.
func (r *Response) Forbidden(opts ...ErrorOption) *Response {
	return r.Fault(ErrorTypeForbidden, opts...)
}

// NotFound sets a 404 error response.
func (r *Response) NotFound(opts ...ErrorOption) *Response {
	return r.Fault(ErrorTypeNotFound, opts...)
}

// MethodNotAllowed sets a 405 error response.
func (r *Response) MethodNotAllowed(opts ...ErrorOption) *Response {
	return r.Fault(ErrorTypeMethodNotAllowed, opts...)
}

// UnsupportedMediaType sets a 415 error response.
func (r *Response) UnsupportedMediaType(opts ...ErrorOption) *Response {
	return r.Fault(ErrorTypeUnsupportedMediaType, opts...)
}

// Timeout sets a 504 error response. It shapes the response only; aborting
// in-flight work is up to the transport wrapping the handler.
func (r *Response) Timeout(opts ...ErrorOption) *Response {
	return r.Fault(ErrorTypeTimeout, opts...)
}

// InternalError sets a 500 error response.
func (r *Response) InternalError(opts ...ErrorOption) *Response {
	return r.Fault(ErrorTypeInternal, opts...)
}

// BuiltResponse is the immutable result of [Response.Build], ready to be
// written to the wire.
type BuiltResponse struct {
	Status int
	Header http.Header
	Body   io.Reader
}

// Build finalizes the response. Calling it a second time panics, as does any
// mutation afterwards.
//
// Status resolution: an explicit Status call wins; otherwise Empty bodies
// default to 204 and everything else, including a response with no body at
// all, to 200. A default Content-Type for the body kind is injected only
// when the caller never set one.
func (r *Response) Build() *BuiltResponse {
	r.mustNotBeBuilt()
	r.built = true

	status := r.status
	if status == 0 {
		if r.kind == BodyEmpty {
			status = http.StatusNoContent
		} else {
			status = http.StatusOK
		}
	}

	header := r.header
	if header == nil {
		// Untouched headers: clone the shared per-kind default set, since
		// the built header is exposed and callers may mutate it.
		header = defaultHeaders[r.kind].Clone()
	} else if header.Get("Content-Type") == "" {
		if ct := contentTypeFor(r.kind); ct != "" {
			header.Set("Content-Type", ct)
		}
	}

	var body io.Reader
	switch r.kind {
	case BodyJSON:
		buf, err := json.Marshal(r.jsonVal)
		if err != nil {
			panic(fmt.Sprintf("veldt: marshal json response body: %v", err))
		}
		body = bytes.NewReader(buf)
	case BodyText, BodyHTML:
		body = bytes.NewReader([]byte(r.textVal))
	case BodyStream:
		body = r.stream
	case BodyNone, BodyEmpty:
		body = nil
	}

	return &BuiltResponse{Status: status, Header: header, Body: body}
}

// Write emits the built response on a standard library writer.
func (b *BuiltResponse) Write(w http.ResponseWriter) error {
	for key, vals := range b.Header {
		for _, v := range vals {
			w.Header().Add(key, v)
		}
	}

	w.WriteHeader(b.Status)

	if b.Body == nil {
		return nil
	}
	if _, err := io.Copy(w, b.Body); err != nil {
		return fmt.Errorf("copy response body: %w", err)
	}

	return nil
}
