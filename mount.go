package veldt

import (
	"bytes"
	"net/http"
)

// mountMethods are the methods a mounted handler is reachable under.
var mountMethods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodOptions,
}

// Mount grafts a standard library handler under a path prefix. The mounted
// handler sees the request with the prefix stripped, rooted at "/". Its
// output is captured and re-emitted through the response builder, so
// request hooks and error hooks still apply to mounted traffic.
func (a *App) Mount(prefix string, h http.Handler) *App {
	handler := func(c *Ctx) error {
		sub := c.Request().Clone(c.Context())
		sub.URL.Path = "/" + c.Param("*")
		sub.URL.RawPath = ""

		mw := &mountWriter{header: http.Header{}}
		h.ServeHTTP(mw, sub)

		res := c.Response()
		for key, vals := range mw.header {
			for _, v := range vals {
				res.AddHeader(key, v)
			}
		}
		res.Status(mw.statusCode()).Stream(bytes.NewReader(mw.body.Bytes()))

		return nil
	}

	for _, method := range mountMethods {
		a.Route(method, joinPrefix(prefix, "/*"), handler, WithMeta("mounted", prefix))
	}

	return a
}

// mountWriter captures a mounted handler's output so it can flow through
// the response builder like any other response.
type mountWriter struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func (w *mountWriter) Header() http.Header { return w.header }

func (w *mountWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
}

func (w *mountWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	return w.body.Write(p)
}

func (w *mountWriter) statusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}

	return w.status
}
