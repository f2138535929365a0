package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apierrors "seafoodpulse/internal/errors"
	"seafoodpulse/internal/middleware"
	"seafoodpulse/internal/operations"
)

// OperationsHandler starts, inspects and cancels pipeline operations
type OperationsHandler struct {
	service      OperationServiceInterface
	validator    *middleware.ValidationMiddleware
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewOperationsHandler creates a new operations handler
func NewOperationsHandler(service OperationServiceInterface, validator *middleware.ValidationMiddleware, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *OperationsHandler {
	if service == nil {
		panic("service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OperationsHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("handler", "operations")),
		errorHandler: errorHandler,
	}
}

// Routes returns the operation routes
func (h *OperationsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.ListOperations)
	r.Get("/types", h.GetOperationTypes)
	r.With(h.validator.LimitBody).Post("/start", h.StartOperation)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.GetOperation)
		r.Post("/cancel", h.CancelOperation)
	})
	return r
}

// StartOperation handles POST /api/operations/start
func (h *OperationsHandler) StartOperation(w http.ResponseWriter, r *http.Request) {
	var req operations.OperationRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	snap, err := h.service.Start(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, toAPIError(err))
		return
	}

	trace.SpanFromContext(r.Context()).SetAttributes(
		attribute.String("operation.id", snap.ID),
		attribute.String("operation.step", req.Step()))
	h.logger.InfoContext(r.Context(), "operation accepted",
		slog.String("operation_id", snap.ID),
		slog.String("request_id", middleware.GetReqID(r.Context())))

	w.Header().Set("Location", "/api/operations/"+snap.ID)
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, snap)
}

// ListOperations handles GET /api/operations
func (h *OperationsHandler) ListOperations(w http.ResponseWriter, r *http.Request) {
	ops := h.service.List(r.Context())
	render.JSON(w, r, map[string]interface{}{"data": ops, "count": len(ops)})
}

// GetOperation handles GET /api/operations/{id}
func (h *OperationsHandler) GetOperation(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, toAPIError(err))
		return
	}
	render.JSON(w, r, snap)
}

// CancelOperation handles POST /api/operations/{id}/cancel
func (h *OperationsHandler) CancelOperation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Cancel(r.Context(), id); err != nil {
		h.errorHandler.HandleError(w, r, toAPIError(err))
		return
	}
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, map[string]interface{}{"operation_id": id, "status": "cancelling"})
}

// GetOperationTypes handles GET /api/operations/types
func (h *OperationsHandler) GetOperationTypes(w http.ResponseWriter, r *http.Request) {
	types := h.service.Types(r.Context())
	render.JSON(w, r, map[string]interface{}{"data": types, "count": len(types)})
}
