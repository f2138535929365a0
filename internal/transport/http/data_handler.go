package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"seafoodpulse/internal/dataprocessing"
	apierrors "seafoodpulse/internal/errors"
	"seafoodpulse/internal/middleware"
	"seafoodpulse/pkg/contracts/domain"
)

const (
	defaultRecordLimit = 1000
	maxRecordLimit     = 10000
	maxMarketLimit     = 500
)

// DataHandler serves the processed market dataset
type DataHandler struct {
	service      DataServiceInterface
	validator    *middleware.ValidationMiddleware
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDataHandler creates a new data handler
func NewDataHandler(service DataServiceInterface, validator *middleware.ValidationMiddleware, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DataHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DataHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("component", "data_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the data routes
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/records", h.GetRecords)
	r.Get("/weeks", h.GetWeeks)
	r.Get("/categories", h.GetCategories)
	r.Route("/summary", func(r chi.Router) {
		r.Get("/weekly", h.GetWeeklySummary)
		r.Get("/categories", h.GetCategorySummary)
		r.Get("/markets", h.GetMarketSummary)
		r.Get("/growth", h.GetGrowth)
	})
	r.Get("/insights", h.GetInsights)
	r.Get("/ports", h.GetPorts)
	return r
}

// GetRecords handles GET /api/data/records?week=&category=&market=&limit=
func (h *DataHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	week, err := middleware.QueryInt(r, "week", 1, 53, 0)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	category, err := middleware.QueryCategory(r, "category")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	limit, err := middleware.QueryInt(r, "limit", 1, maxRecordLimit, defaultRecordLimit)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	filter := domain.MarketFilter{
		Week:     week,
		Category: category,
		Market:   strings.TrimSpace(r.URL.Query().Get("market")),
		Limit:    limit,
	}
	if err := h.validator.ValidateStruct(filter); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	records, err := h.service.Records(r.Context(), filter)
	if err != nil {
		h.fail(w, r, "records", err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"data":   records,
		"count":  len(records),
		"filter": filter,
	})
}

// GetWeeks handles GET /api/data/weeks
func (h *DataHandler) GetWeeks(w http.ResponseWriter, r *http.Request) {
	weeks, err := h.service.Weeks(r.Context())
	if err != nil {
		h.fail(w, r, "weeks", err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"data": weeks, "count": len(weeks)})
}

// GetCategories handles GET /api/data/categories
func (h *DataHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.service.Categories(r.Context())
	if err != nil {
		h.fail(w, r, "categories", err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"data": cats, "count": len(cats)})
}

// GetWeeklySummary handles GET /api/data/summary/weekly
func (h *DataHandler) GetWeeklySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.WeeklySummary(r.Context())
	if err != nil {
		h.fail(w, r, "weekly summary", err)
		return
	}
	render.JSON(w, r, summary)
}

// GetCategorySummary handles GET /api/data/summary/categories
func (h *DataHandler) GetCategorySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.CategorySummary(r.Context())
	if err != nil {
		h.fail(w, r, "category summary", err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"data": summary, "count": len(summary)})
}

// GetMarketSummary handles GET /api/data/summary/markets?limit=
func (h *DataHandler) GetMarketSummary(w http.ResponseWriter, r *http.Request) {
	limit, err := middleware.QueryInt(r, "limit", 1, maxMarketLimit, dataprocessing.DefaultTopMarkets)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	summary, err := h.service.MarketSummary(r.Context(), limit)
	if err != nil {
		h.fail(w, r, "market summary", err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"data": summary, "count": len(summary)})
}

// GetGrowth handles GET /api/data/summary/growth
func (h *DataHandler) GetGrowth(w http.ResponseWriter, r *http.Request) {
	growth, err := h.service.Growth(r.Context())
	if err != nil {
		h.fail(w, r, "growth", err)
		return
	}
	render.JSON(w, r, growth)
}

// GetInsights handles GET /api/data/insights
func (h *DataHandler) GetInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := h.service.Insights(r.Context())
	if err != nil {
		h.fail(w, r, "insights", err)
		return
	}
	render.JSON(w, r, insights)
}

// GetPorts handles GET /api/data/ports
func (h *DataHandler) GetPorts(w http.ResponseWriter, r *http.Request) {
	ports, err := h.service.Ports(r.Context())
	if err != nil {
		h.fail(w, r, "ports", err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"data": ports, "count": len(ports)})
}

func (h *DataHandler) fail(w http.ResponseWriter, r *http.Request, what string, err error) {
	h.logger.DebugContext(r.Context(), "data query failed",
		slog.String("query", what),
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.GetReqID(r.Context())))
	h.errorHandler.HandleError(w, r, toAPIError(err))
}
