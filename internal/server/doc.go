// Package server provides the loopback HTTP server used by the terminal client.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [ChiRouter] implementation uses a chi mux internally, which provides method
// routing and path parameters such as /preview/{id}.
//
// # Routes
//
//   - GET /preview/{id}: bytes of a live local preview; 404 once revoked
//   - GET /compare: before/after page with a range slider over the current result
//   - GET /metrics: Prometheus exposition of upload counters
//   - GET /healthz: liveness
//
// Terminals cannot render images, so the TUI opens /compare in the browser.
// The before image is the local preview served by this server, which is why
// the preview store's base is set to the server URL once it is listening.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
