// Package http implements the REST and WebSocket surface of the service.
//
// Handlers are thin: they parse query parameters and bodies, call a
// service, and render the result with go-chi/render. Service errors are
// mapped to API errors in one place (errors.go) and rendered as RFC 7807
// problem details by the shared ErrorHandler.
//
// Routes:
//
//	GET  /healthz, /readyz, /metrics
//	GET  /api/data/records?week=&category=&market=&limit=
//	GET  /api/data/weeks, /api/data/categories
//	GET  /api/data/summary/{weekly,categories,markets,growth}
//	GET  /api/data/insights, /api/data/ports
//	POST /api/operations/start
//	GET  /api/operations, /api/operations/types, /api/operations/{id}
//	POST /api/operations/{id}/cancel
//	GET  /ws
package http
