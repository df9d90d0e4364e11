// Package server provides HTTP routing, middleware and JSON handlers over the mimo core.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Middleware
//
//   - [RequestID] : assigns a uuid to every request (X-Request-ID) and stores it in the request context
//   - [Logging] : logs method, path, status and duration with the request id
//   - [Recovery] : converts panics into 500 responses
//
// # API Handler
//
// [APIHandler] exposes search, trending, playback and history over JSON.
// It depends only on the [Core] interface, which app.App satisfies.
//
// Errors are written as {"error": {"message": "..."}}:
//   - [shared.ErrInvalidInput], [shared.ErrInvalidArgument] : 400
//   - [shared.ErrAllProvidersFailed] : 502
//   - anything else : 500
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
