package veldt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/url"
	"strings"
)

// commitKind records which representation has consumed the underlying
// stream.
type commitKind int

const (
	commitNone commitKind = iota
	commitStream
	commitParsed
)

// defaultMultipartMemory bounds in-memory parsing of multipart bodies, same
// default the standard library uses for ParseMultipartForm.
const defaultMultipartMemory = 32 << 20

// FormData holds decoded form fields. Files is populated for multipart
// bodies only.
type FormData struct {
	Values url.Values
	Files  map[string][]*multipart.FileHeader
}

// Body is the lazy, cached view over a request's single-use byte stream.
//
// The parsing accessors ([Body.JSON], [Body.Text], [Body.FormData],
// [Body.Bytes] and [Body.Parse]) drain the stream into a cached byte slice
// on first use and derive their representation from it, so they are
// idempotent and freely mixable with each other. [Body.Stream] instead hands
// out the raw stream: once that happened the parsing accessors return
// [ErrBodyConsumed], and vice versa. This is the documented permissiveness
// contract; there is no mode in which a second consumer silently observes an
// empty body.
//
// A Body belongs to exactly one request's processing flow and is not safe
// for concurrent use.
type Body struct {
	rc          io.ReadCloser
	contentType string
	committed   commitKind

	raw     []byte
	readErr error

	jsonVal  any
	jsonErr  error
	jsonDone bool

	textVal  string
	textDone bool

	formVal  *FormData
	formErr  error
	formDone bool
}

// newBody wraps a request stream. A nil ReadCloser models a bodyless
// request.
func newBody(rc io.ReadCloser, contentType string) *Body {
	return &Body{rc: rc, contentType: contentType}
}

// ContentType returns the request's declared Content-Type header value.
func (b *Body) ContentType() string { return b.contentType }

// Stream returns the raw request stream, committing the body to direct
// stream access. A bodyless request yields nil. Repeated calls return the
// same stream; the stream itself is single-reader by construction.
func (b *Body) Stream() (io.Reader, error) {
	if b.committed == commitParsed {
		return nil, ErrBodyConsumed
	}
	if b.rc == nil {
		return nil, nil
	}
	b.committed = commitStream

	return b.rc, nil
}

// Bytes drains the stream into a cached byte slice and returns it. The
// returned slice is shared across calls and must not be mutated.
func (b *Body) Bytes() ([]byte, error) {
	if err := b.consume(); err != nil {
		return nil, err
	}

	return b.raw, nil
}

// consume drains the underlying stream into b.raw exactly once. A failed
// read is cached too, so later calls repeat the error instead of presenting
// the partial read as an empty body.
func (b *Body) consume() error {
	if b.committed == commitStream {
		return ErrBodyConsumed
	}
	if b.committed == commitParsed {
		return b.readErr
	}

	b.committed = commitParsed
	if b.rc == nil {
		b.raw = nil
		return nil
	}

	defer b.rc.Close()
	raw, err := io.ReadAll(b.rc)
	if err != nil {
		b.readErr = fmt.Errorf("read request body: %w", err)
		return b.readErr
	}
	b.raw = raw

	return nil
}

// JSON decodes the body as JSON into a generic value. Repeated calls return
// the cached result, including a cached decode error.
func (b *Body) JSON() (any, error) {
	if b.jsonDone {
		return b.jsonVal, b.jsonErr
	}
	if err := b.consume(); err != nil {
		return nil, err
	}

	b.jsonDone = true
	if err := json.Unmarshal(b.raw, &b.jsonVal); err != nil {
		b.jsonErr = fmt.Errorf("parse json body: %w", err)
		b.jsonVal = nil
	}

	return b.jsonVal, b.jsonErr
}

// DecodeJSON decodes the body into dst. It derives from the cached bytes so
// it composes with the other parsing accessors.
func (b *Body) DecodeJSON(dst any) error {
	if err := b.consume(); err != nil {
		return err
	}
	if err := json.Unmarshal(b.raw, dst); err != nil {
		return fmt.Errorf("parse json body: %w", err)
	}

	return nil
}

// Text decodes the body as a UTF-8 string.
func (b *Body) Text() (string, error) {
	if b.textDone {
		return b.textVal, nil
	}
	if err := b.consume(); err != nil {
		return "", err
	}

	b.textDone = true
	b.textVal = string(b.raw)

	return b.textVal, nil
}

// FormData decodes the body as application/x-www-form-urlencoded or
// multipart/form-data, depending on the declared Content-Type.
func (b *Body) FormData() (*FormData, error) {
	if b.formDone {
		return b.formVal, b.formErr
	}
	if err := b.consume(); err != nil {
		return nil, err
	}

	b.formDone = true
	b.formVal, b.formErr = b.parseForm()

	return b.formVal, b.formErr
}

func (b *Body) parseForm() (*FormData, error) {
	mediaType, params, err := mime.ParseMediaType(b.contentType)
	if err != nil {
		return nil, fmt.Errorf("parse content type %q: %w", b.contentType, err)
	}

	if mediaType == "multipart/form-data" {
		boundary, ok := params["boundary"]
		if !ok {
			return nil, fmt.Errorf("multipart body without boundary")
		}

		form, err := multipart.NewReader(bytes.NewReader(b.raw), boundary).ReadForm(defaultMultipartMemory)
		if err != nil {
			return nil, fmt.Errorf("parse multipart body: %w", err)
		}

		return &FormData{Values: url.Values(form.Value), Files: form.File}, nil
	}

	vals, err := url.ParseQuery(string(b.raw))
	if err != nil {
		return nil, fmt.Errorf("parse urlencoded body: %w", err)
	}

	return &FormData{Values: vals}, nil
}

// Parse dispatches to the accessor matching the declared Content-Type:
// JSON for application/json or an absent Content-Type, text for text/*,
// form data for multipart/form-data and application/x-www-form-urlencoded,
// bytes for application/octet-stream, and text as the fallback for anything
// unrecognized.
func (b *Body) Parse() (any, error) {
	mediaType := b.contentType
	if mediaType != "" {
		if mt, _, err := mime.ParseMediaType(b.contentType); err == nil {
			mediaType = mt
		}
	}

	switch {
	case mediaType == "" || mediaType == "application/json":
		return b.JSON()
	case strings.HasPrefix(mediaType, "text/"):
		return b.Text()
	case mediaType == "multipart/form-data" || mediaType == "application/x-www-form-urlencoded":
		return b.FormData()
	case mediaType == "application/octet-stream":
		return b.Bytes()
	default:
		return b.Text()
	}
}
