package middleware

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "seafoodpulse/internal/errors"
	"seafoodpulse/pkg/contracts/domain"
)

const defaultMaxBodySize = 1 << 20

// ValidationMiddleware decodes and validates JSON bodies and query
// parameters, reporting failures as problem details.
type ValidationMiddleware struct {
	validator    *validator.Validate
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	maxBodySize  int64
}

// NewValidationMiddleware creates a validator using JSON field names in
// its messages
func NewValidationMiddleware(logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ValidationMiddleware {
	v := validator.New()
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return domain.Category(fl.Field().String()).Valid()
	})
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if logger == nil {
		logger = slog.Default()
	}
	return &ValidationMiddleware{
		validator:    v,
		logger:       logger.With(slog.String("component", "validation_middleware")),
		errorHandler: errorHandler,
		maxBodySize:  defaultMaxBodySize,
	}
}

// LimitBody caps request bodies so decoding cannot exhaust memory
func (m *ValidationMiddleware) LimitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > m.maxBodySize {
			m.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				http.StatusRequestEntityTooLarge,
				"PAYLOAD_TOO_LARGE",
				"Request body exceeds maximum allowed size",
				map[string]int64{"max_size": m.maxBodySize, "size": r.ContentLength},
			))
			return
		}
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, m.maxBodySize)
		}
		next.ServeHTTP(w, r)
	})
}

// DecodeJSON decodes the request body into v and validates it. An empty
// body leaves v untouched.
func (m *ValidationMiddleware) DecodeJSON(r *http.Request, v interface{}) error {
	if r.Body != nil && r.ContentLength != 0 {
		if err := render.DecodeJSON(r.Body, v); err != nil && !errors.Is(err, io.EOF) {
			m.logger.DebugContext(r.Context(), "invalid request body", slog.String("error", err.Error()))
			return apierrors.InvalidRequestWithError(err)
		}
	}
	return m.ValidateStruct(v)
}

// ValidateStruct validates v against its struct tags
func (m *ValidationMiddleware) ValidateStruct(v interface{}) error {
	err := m.validator.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apierrors.InvalidRequestWithError(err)
	}

	details := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: formatValidationError(fe),
		})
	}
	return apierrors.NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", details)
}

func formatValidationError(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "category":
		return fmt.Sprintf("%s must be a known product category", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// QueryInt parses an integer query parameter. Missing values yield def.
func QueryInt(r *http.Request, param string, min, max, def int) (int, error) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, apierrors.ErrValidation(param, fmt.Sprintf("%s must be a valid integer", param))
	}
	if n < min || n > max {
		return 0, apierrors.ErrValidation(param, fmt.Sprintf("%s must be between %d and %d", param, min, max))
	}
	return n, nil
}

// QueryCategory parses an optional category parameter, accepting either
// the enum value or the hyphenated slug
func QueryCategory(r *http.Request, param string) (domain.Category, error) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return "", nil
	}
	c, ok := domain.ParseCategory(raw)
	if !ok {
		names := make([]string, 0, 4)
		for _, c := range domain.AllCategories() {
			names = append(names, string(c))
		}
		return "", apierrors.ErrValidation(param, fmt.Sprintf("%s must be one of: %s", param, strings.Join(names, ", ")))
	}
	return c, nil
}
