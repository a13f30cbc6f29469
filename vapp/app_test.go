package vapp_test

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldt-go/veldt"
	"github.com/veldt-go/veldt/vapp"
	"github.com/veldt-go/veldt/vapp/vapptest"
)

type testEnv struct {
	vapp.BaseEnvironment
}

// waitGet retries until the server goroutine is accepting connections.
func waitGet(t *testing.T, url string) *http.Response {
	t.Helper()

	var lastErr error
	for range 50 {
		resp, err := http.Get(url)
		if err == nil {
			return resp
		}
		lastErr = err
		time.Sleep(20 * time.Millisecond)
	}

	t.Fatalf("server never came up: %v", lastErr)
	return nil
}

func TestAppServesRoutesAndHealth(t *testing.T) {
	const port = 18093
	vapptest.SetBaseEnv(t, port)

	app := vapptest.New[testEnv](t, func(router *veldt.App) {
		router.Get("/ping", func(c *veldt.Ctx) error {
			c.Response().Text("pong")
			return nil
		})
	})
	app.RequireStart()
	t.Cleanup(app.RequireStop)

	resp := waitGet(t, fmt.Sprintf("http://localhost:%d/ping", port))
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pong", string(body))

	health := waitGet(t, fmt.Sprintf("http://localhost:%d/healthz", port))
	defer health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestAppCustomHealthHandler(t *testing.T) {
	const port = 18094
	vapptest.SetBaseEnv(t, port)

	app := vapptest.New[testEnv](t,
		func(router *veldt.App) {},
		vapp.WithHealthHandler(func(c *veldt.Ctx) error {
			c.Response().JSON(map[string]string{"status": "healthy"})
			return nil
		}))
	app.RequireStart()
	t.Cleanup(app.RequireStop)

	resp := waitGet(t, fmt.Sprintf("http://localhost:%d/healthz", port))
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "healthy")
}

func TestCallHelper(t *testing.T) {
	rec := vapptest.Call(t, func(c *veldt.Ctx) error {
		c.Response().Status(http.StatusCreated).Text("made")
		return nil
	}, httptest.NewRequest(http.MethodPost, "/things", nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "made", rec.Body.String())
}
