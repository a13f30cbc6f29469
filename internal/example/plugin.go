// Package example implements an example plugin in an outside package.
package example

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/veldt-go/veldt"
)

// extKey scopes the values this plugin stores on the request context.
const extKey = "example.request_id"

// RequestID returns a plugin that tags every request with a generated id,
// stored on the per-request context and echoed as a response header.
func RequestID() veldt.Plugin {
	return veldt.PluginFunc(func(app *veldt.App) *veldt.App {
		return app.OnRequest(func(c *veldt.Ctx) error {
			id := newID()
			c.Set(extKey, id)
			c.Response().Header("X-Request-Id", id)

			return nil
		})
	})
}

// ID reads the request id stored by the [RequestID] hook, empty when the
// hook did not run.
func ID(c *veldt.Ctx) string {
	v, _ := c.Get(extKey)
	id, _ := v.(string)

	return id
}

func newID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)

	return hex.EncodeToString(buf)
}
