package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "seafoodpulse/internal/errors"
	customMiddleware "seafoodpulse/internal/middleware"
	handlers "seafoodpulse/internal/transport/http"
	ws "seafoodpulse/internal/websocket"
)

// setupRouter builds the middleware chain and mounts every route
func (a *Application) setupRouter() {
	logger := a.Logger
	errorHandler := apierrors.NewErrorHandler(logger, a.Config.Logging.Development)
	validator := customMiddleware.NewValidationMiddleware(logger, errorHandler)

	r := chi.NewRouter()
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics, logger).Handler)
	r.Use(customMiddleware.StructuredLogger(logger))
	r.Use(customMiddleware.Recoverer(errorHandler))
	r.Use(customMiddleware.SecurityHeaders)

	if rl := a.Config.Security.RateLimit; rl.Enabled {
		r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, logger, errorHandler).Handler)
	}

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	health := handlers.NewHealthHandler(a.HealthService, logger)
	r.Get("/healthz", health.HealthCheck)
	r.Get("/readyz", health.ReadinessCheck)
	r.Method(http.MethodGet, "/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, errorHandler))

	r.Route("/api", func(r chi.Router) {
		r.Use(customMiddleware.Timeout(a.Config.Server.WriteTimeout))
		r.Mount("/data", handlers.NewDataHandler(a.DataService, validator, logger, errorHandler).Routes())
		r.Mount("/operations", handlers.NewOperationsHandler(a.OperationService, validator, logger, errorHandler).Routes())
	})

	r.Get("/ws", ws.Handler(a.WebSocketHub, a.Config.WebSocket, a.Config.Security.AllowedOrigins))

	a.Router = r
}
