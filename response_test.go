package veldt_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/veldt-go/veldt"
)

func bodyString(t *testing.T, built *veldt.BuiltResponse) string {
	t.Helper()
	if built.Body == nil {
		return ""
	}

	raw, err := io.ReadAll(built.Body)
	require.NoError(t, err)
	return string(raw)
}

func TestResponseStatusDefaults(t *testing.T) {
	t.Run("no body defaults to 200", func(t *testing.T) {
		built := veldt.NewResponse().Build()
		assert.Equal(t, http.StatusOK, built.Status)
		assert.Nil(t, built.Body)
	})

	t.Run("empty body defaults to 204", func(t *testing.T) {
		built := veldt.NewResponse().Empty().Build()
		assert.Equal(t, http.StatusNoContent, built.Status)
		assert.Nil(t, built.Body)
	})

	t.Run("explicit status wins", func(t *testing.T) {
		built := veldt.NewResponse().Status(http.StatusAccepted).Empty().Build()
		assert.Equal(t, http.StatusAccepted, built.Status)
	})

	t.Run("json defaults to 200", func(t *testing.T) {
		built := veldt.NewResponse().JSON(map[string]string{"a": "b"}).Build()
		assert.Equal(t, http.StatusOK, built.Status)
	})
}

func TestResponseContentTypes(t *testing.T) {
	for _, tt := range []struct {
		name  string
		shape func(r *veldt.Response) *veldt.Response
		want  string
	}{
		{"json", func(r *veldt.Response) *veldt.Response { return r.JSON(1) }, "application/json; charset=utf-8"},
		{"text", func(r *veldt.Response) *veldt.Response { return r.Text("hi") }, "text/plain; charset=utf-8"},
		{"html", func(r *veldt.Response) *veldt.Response { return r.HTML("<p>") }, "text/html; charset=utf-8"},
		{"stream", func(r *veldt.Response) *veldt.Response { return r.Stream(strings.NewReader("x")) }, "application/octet-stream"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			built := tt.shape(veldt.NewResponse()).Build()
			assert.Equal(t, tt.want, built.Header.Get("Content-Type"))
		})
	}

	t.Run("caller content type wins", func(t *testing.T) {
		built := veldt.NewResponse().
			Header("Content-Type", "application/problem+json").
			JSON(1).
			Build()
		assert.Equal(t, "application/problem+json", built.Header.Get("Content-Type"))
	})

	t.Run("custom header still gets default content type", func(t *testing.T) {
		built := veldt.NewResponse().
			Header("X-Custom", "1").
			JSON(1).
			Build()
		assert.Equal(t, "application/json; charset=utf-8", built.Header.Get("Content-Type"))
		assert.Equal(t, "1", built.Header.Get("X-Custom"))
	})
}

func TestResponseSharedDefaultHeaders(t *testing.T) {
	// Two untouched responses of the same kind build the same default
	// header set.
	first := veldt.NewResponse().JSON(1).Build()
	second := veldt.NewResponse().JSON(2).Build()
	assert.Equal(t, first.Header, second.Header)

	// Touching headers on a third response must not leak into the shared set.
	veldt.NewResponse().Header("X-Leak", "no").JSON(3).Build()
	assert.Empty(t, veldt.NewResponse().JSON(4).Build().Header.Get("X-Leak"))

	// Neither must mutating a built header after exposure.
	built := veldt.NewResponse().JSON(5).Build()
	built.Header.Set("X-Leak", "no")
	assert.Empty(t, veldt.NewResponse().JSON(6).Build().Header.Get("X-Leak"))
}

func TestResponseBuildTwicePanics(t *testing.T) {
	res := veldt.NewResponse().Text("once")
	res.Build()

	assert.PanicsWithValue(t, "veldt: response already built", func() { res.Build() })
}

func TestResponseMutateAfterBuildPanics(t *testing.T) {
	res := veldt.NewResponse().Text("done")
	res.Build()

	assert.Panics(t, func() { res.Status(http.StatusTeapot) })
	assert.Panics(t, func() { res.Header("X", "y") })
	assert.Panics(t, func() { res.JSON(1) })
}

func TestResponseBodyOverwrite(t *testing.T) {
	built := veldt.NewResponse().JSON(map[string]string{"a": "b"}).Text("plain").Build()
	assert.Equal(t, "plain", bodyString(t, built))
	assert.Equal(t, "text/plain; charset=utf-8", built.Header.Get("Content-Type"))
}

func TestResponseErrorHelpers(t *testing.T) {
	t.Run("structured json body", func(t *testing.T) {
		built := veldt.NewResponse().NotFound().Build()
		assert.Equal(t, http.StatusNotFound, built.Status)

		body := bodyString(t, built)
		assert.Equal(t, "NOT_FOUND", gjson.Get(body, "error.type").String())
		assert.Equal(t, "Not Found", gjson.Get(body, "error.message").String())
		assert.False(t, gjson.Get(body, "error.details").Exists())
	})

	t.Run("message and details overrides", func(t *testing.T) {
		built := veldt.NewResponse().BadRequest(
			veldt.WithMessage("name is required"),
			veldt.WithDetails(map[string]any{"field": "name"}),
		).Build()
		assert.Equal(t, http.StatusBadRequest, built.Status)

		body := bodyString(t, built)
		assert.Equal(t, "name is required", gjson.Get(body, "error.message").String())
		assert.Equal(t, "name", gjson.Get(body, "error.details.field").String())
	})

	t.Run("as text", func(t *testing.T) {
		built := veldt.NewResponse().Forbidden(veldt.AsText()).Build()
		assert.Equal(t, http.StatusForbidden, built.Status)
		assert.Equal(t, "Forbidden", bodyString(t, built))
		assert.Equal(t, "text/plain; charset=utf-8", built.Header.Get("Content-Type"))
	})

	t.Run("status mapping", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, veldt.NewResponse().Unauthorized().Build().Status)
		assert.Equal(t, http.StatusMethodNotAllowed, veldt.NewResponse().MethodNotAllowed().Build().Status)
		assert.Equal(t, http.StatusUnsupportedMediaType, veldt.NewResponse().UnsupportedMediaType().Build().Status)
		assert.Equal(t, http.StatusGatewayTimeout, veldt.NewResponse().Timeout().Build().Status)
		assert.Equal(t, http.StatusInternalServerError, veldt.NewResponse().InternalError().Build().Status)
	})
}

func TestBuiltResponseWrite(t *testing.T) {
	built := veldt.NewResponse().
		Status(http.StatusCreated).
		AddHeader("X-Multi", "a").
		AddHeader("X-Multi", "b").
		JSON(map[string]string{"ok": "yes"}).
		Build()

	rec := httptest.NewRecorder()
	require.NoError(t, built.Write(rec))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []string{"a", "b"}, rec.Header().Values("X-Multi"))
	assert.Equal(t, "yes", gjson.Get(rec.Body.String(), "ok").String())
}
