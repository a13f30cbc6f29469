// Package veldt implements a small routing and request processing framework
// on top of net/http. Applications are built as an instance tree: a root
// [App] and optional children that share one route registry and matching
// engine while owning their own path prefixes and hook chains. Calling
// [App.Generate] freezes the tree and returns a plain [net/http.Handler].
//
// The pieces compose as follows, per request:
//
//   - the compiled matcher resolves (method, path) to a route and its path
//     parameters, or to a structured 404 or 405
//   - the instance's request hooks run in definition order; any of them may
//     short-circuit by setting a response body
//   - if the route declares a request schema and a [Validator] is
//     configured, the parsed body is validated; failures go through the
//     route-level, then instance-level, then default failure handler
//   - the route handler shapes the response through [Ctx]
//   - a declared response schema is checked against JSON bodies; by default
//     a mismatch is logged without replacing the response
//   - faults from any step run the instance's error hooks; a fault no hook
//     handles is rendered by the dispatcher: the structured response for a
//     typed [*Error], a generic 500 for anything else, never the cause
//
// Handlers return errors instead of writing to the wire directly. The
// [Response] builder buffers status, headers and body until the dispatcher
// finalizes it exactly once, so a handler that fails halfway never leaks a
// partial response.
//
//	app := veldt.New()
//	app.Get("/users/:id", func(c *veldt.Ctx) error {
//		user, err := store.Load(c.Context(), c.Param("id"))
//		if err != nil {
//			return err
//		}
//		c.Response().JSON(user)
//		return nil
//	})
//	http.ListenAndServe(":8080", app.MustGenerate())
//
// Definition errors, such as invalid route templates or registering against
// a generated tree, panic. They can only be reached through code changes,
// never through request traffic.
package veldt
