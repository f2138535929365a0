package middleware

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "seafoodpulse/internal/errors"
	"seafoodpulse/internal/infrastructure"
	"seafoodpulse/pkg/contracts/domain"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRequestID(t *testing.T) {
	var seen, trace string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetReqID(r.Context())
		trace = infrastructure.GetTraceID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, trace)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)
}

func TestRateLimiter(t *testing.T) {
	errs := apierrors.NewErrorHandler(quietLogger(), false)
	rl := NewRateLimiter(0.001, 2, quietLogger(), errs)
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 3)
	for i := range codes {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/data/weeks", nil))
		codes[i] = rec.Code
		if rec.Code == http.StatusTooManyRequests {
			assert.NotEmpty(t, rec.Header().Get("Retry-After"))
		}
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}

func TestRecovererWritesProblem(t *testing.T) {
	errs := apierrors.NewErrorHandler(quietLogger(), false)
	h := RequestID(Recoverer(errs)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(500), body["status"])
	assert.NotEmpty(t, body["trace_id"])
}

func TestTimeoutSetsDeadline(t *testing.T) {
	var deadline time.Time
	var ok bool
	h := Timeout(time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)

	Timeout(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok = r.Context().Deadline()
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)
}

func TestStructuredLoggerPassesThrough(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := StructuredLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/brew", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Contains(t, buf.String(), `"status":418`)
	assert.Contains(t, buf.String(), `"path":"/brew"`)
}

type startRequest struct {
	Mode     string          `json:"mode" validate:"omitempty,oneof=full partial"`
	Category domain.Category `json:"category" validate:"omitempty,category"`
}

func TestDecodeJSON(t *testing.T) {
	v := NewValidationMiddleware(quietLogger(), apierrors.NewErrorHandler(quietLogger(), false))

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"empty body", "", ""},
		{"valid", `{"mode":"partial","category":"laks_og_orret"}`, ""},
		{"bad json", `{"mode":`, "INVALID_REQUEST"},
		{"bad mode", `{"mode":"sometimes"}`, "VALIDATION_FAILED"},
		{"bad category", `{"category":"shellfish"}`, "VALIDATION_FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var got startRequest
			err := v.DecodeJSON(req, &got)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var apiErr *apierrors.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.wantErr, apiErr.ErrorCode)
		})
	}
}

func TestValidationMessagesUseJSONNames(t *testing.T) {
	v := NewValidationMiddleware(nil, nil)
	err := v.ValidateStruct(startRequest{Mode: "never"})

	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	details, ok := apiErr.Details.([]apierrors.ValidationError)
	require.True(t, ok)
	require.Len(t, details, 1)
	assert.Equal(t, "mode", details[0].Field)
	assert.Equal(t, "mode must be one of: full, partial", details[0].Message)
}

func TestLimitBody(t *testing.T) {
	errs := apierrors.NewErrorHandler(quietLogger(), false)
	v := NewValidationMiddleware(quietLogger(), errs)
	v.maxBodySize = 8

	h := v.LimitBody(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"mode":"full"}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestQueryHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?week=36&limit=abc&category=sild-og-makrell&bad=x", nil)

	week, err := QueryInt(req, "week", 1, 53, 0)
	require.NoError(t, err)
	assert.Equal(t, 36, week)

	def, err := QueryInt(req, "missing", 1, 10, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, def)

	_, err = QueryInt(req, "limit", 1, 100, 10)
	assert.Error(t, err)

	_, err = QueryInt(httptest.NewRequest(http.MethodGet, "/?week=60", nil), "week", 1, 53, 0)
	assert.Error(t, err)

	c, err := QueryCategory(req, "category")
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryHerringMackerel, c)

	_, err = QueryCategory(req, "bad")
	assert.Error(t, err)
}

func TestOTelMiddlewareRecordsStatus(t *testing.T) {
	metrics, err := infrastructure.CreateBusinessMetrics(nil)
	require.NoError(t, err)
	m := NewOTelMiddleware(nil, metrics, quietLogger())

	h := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("nope"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil).WithContext(context.Background()))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "nope", rec.Body.String())
}
