package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewNetworkError("fetch archive page", cause)

	assert.Equal(t, "[NETWORK] fetch archive page: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsType(fmt.Errorf("wrapped: %w", err), ErrTypeNetwork))
	assert.False(t, IsType(err, ErrTypeParsing))
	assert.False(t, IsType(cause, ErrTypeNetwork))

	assert.True(t, errors.Is(err, &AppError{Type: ErrTypeNetwork}))
	assert.False(t, errors.Is(err, &AppError{Type: ErrTypeFile}))
}

func TestNewFileError(t *testing.T) {
	err := NewFileError("/tmp/uke-36.xlsx", errors.New("permission denied"))

	assert.Equal(t, ErrTypeFile, err.Type)
	assert.Equal(t, "/tmp/uke-36.xlsx", err.Context["path"])
	assert.Contains(t, err.Error(), "permission denied")
}

func newHandler() *ErrorHandler {
	return NewErrorHandler(slog.New(slog.NewJSONHandler(io.Discard, nil)), false)
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{name: "validation app error", err: NewValidationError("week out of range"), wantStatus: http.StatusBadRequest, wantType: TypeValidation},
		{name: "not found app error", err: NewNotFoundError("operation"), wantStatus: http.StatusNotFound, wantType: TypeNotFound},
		{name: "network app error", err: NewNetworkError("archive down", nil), wantStatus: http.StatusBadGateway, wantType: TypeUpstream},
		{name: "api error", err: ErrNoData, wantStatus: http.StatusNotFound, wantType: TypeDataNotFound},
		{name: "wrapped api error", err: fmt.Errorf("lookup: %w", ErrOperationNotFound), wantStatus: http.StatusNotFound, wantType: TypeOperationNotFound},
		{name: "deadline", err: context.DeadlineExceeded, wantStatus: http.StatusGatewayTimeout, wantType: TypeTimeout},
		{name: "plain error", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantType: TypeInternal},
	}

	h := newHandler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/data/records", nil)

			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			assert.Equal(t, "/api/data/records", body["instance"])
		})
	}
}

func TestRecoverer(t *testing.T) {
	h := newHandler()
	handler := h.Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("unexpected")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), TypeInternal)
	assert.NotContains(t, rec.Body.String(), "stack")
}

func TestProblemDetailsExtensions(t *testing.T) {
	pd := NewProblemDetails(http.StatusConflict, TypeOperationRunning, "Conflict", "already running", "/api/operations/start").
		WithExtension("operation_id", "op-1")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "op-1", body["operation_id"])
	assert.Equal(t, TypeOperationRunning, body["type"])
}
