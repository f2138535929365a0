package http

import (
	"net/http"

	apierrors "seafoodpulse/internal/errors"
)

// MetricsHandler exposes the Prometheus scrape endpoint
type MetricsHandler struct {
	exporter     http.Handler
	errorHandler *apierrors.ErrorHandler
}

// NewMetricsHandler wraps the exporter handler. A nil exporter answers 503,
// which is the case when metrics are disabled.
func NewMetricsHandler(exporter http.Handler, errorHandler *apierrors.ErrorHandler) *MetricsHandler {
	return &MetricsHandler{exporter: exporter, errorHandler: errorHandler}
}

// ServeHTTP handles GET /metrics
func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(http.StatusServiceUnavailable,
			"SERVICE_UNAVAILABLE", "Metrics are disabled", "telemetry.metric_exporter is none"))
		return
	}
	h.exporter.ServeHTTP(w, r)
}
