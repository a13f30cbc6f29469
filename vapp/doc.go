// Package vapp assembles a veldt routing tree into a runnable service:
// environment parsing, zap logging, OpenTelemetry tracing, an instrumented
// outbound HTTP client and a graceful http.Server, wired together with fx
// dependency injection.
//
// Applications embed [BaseEnvironment] in their own environment struct,
// write a routing function against *veldt.App and hand both to [NewApp].
package vapp
