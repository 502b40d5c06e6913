package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/BaSui01/assetflow/types"
)

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, map[string]string{"asset_id": "a-1"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	resp := decodeEnvelope(t, w)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
	assert.Equal(t, "a-1", resp.Data.(map[string]any)["asset_id"])
	assert.False(t, resp.Timestamp.IsZero())
}

func TestWriteAccepted_EchoesRequestID(t *testing.T) {
	w := httptest.NewRecorder()
	w.Header().Set("X-Request-ID", "req-42")
	WriteAccepted(w, map[string]string{"id": "job-1"})

	assert.Equal(t, http.StatusAccepted, w.Code)
	resp := decodeEnvelope(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "req-42", resp.RequestID)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code types.ErrorCode
		want int
	}{
		{types.ErrInvalidRequest, http.StatusBadRequest},
		{types.ErrConfiguration, http.StatusBadRequest},
		{types.ErrUnsupportedModality, http.StatusUnprocessableEntity},
		{types.ErrUnauthorized, http.StatusUnauthorized},
		{types.ErrNotFound, http.StatusNotFound},
		{types.ErrInvalidState, http.StatusConflict},
		{types.ErrRateLimited, http.StatusTooManyRequests},
		{types.ErrTimeout, http.StatusGatewayTimeout},
		{types.ErrInternalError, http.StatusInternalServerError},
		{types.ErrorCode("SOMETHING_NEW"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(types.NewError(tt.code, "x")))
		})
	}

	explicit := types.NewError(types.ErrInvalidRequest, "x").WithHTTPStatus(http.StatusRequestEntityTooLarge)
	assert.Equal(t, http.StatusRequestEntityTooLarge, StatusFor(explicit))
}

func TestWriteError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	w := httptest.NewRecorder()
	WriteError(w, types.NewError(types.ErrRateLimited, "job queue is full").WithRetryable(true), logger)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	resp := decodeEnvelope(t, w)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "RATE_LIMITED", resp.Error.Code)
	assert.Equal(t, "job queue is full", resp.Error.Message)
	assert.True(t, resp.Error.Retryable)

	w = httptest.NewRecorder()
	WriteError(w, types.NewError(types.ErrTimeout, "generation timed out"), logger)
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "generation timed out", entries[1].Message)
}

func TestWriteError_NilLogger(t *testing.T) {
	w := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		WriteError(w, types.NewError(types.ErrNotFound, "job not found"), nil)
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWriteAnyError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteAnyError(w, types.NewUnsupportedModalityError("text-to-sound"), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = httptest.NewRecorder()
	WriteAnyError(w, errors.New("redis: connection refused"), nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeEnvelope(t, w)
	assert.Equal(t, "INTERNAL_ERROR", resp.Error.Code)
	assert.Equal(t, "internal error", resp.Error.Message, "cause is not exposed")
}

func TestDecodeRequest(t *testing.T) {
	type payload struct {
		Prompt string `json:"prompt"`
		Width  int    `json:"width"`
	}

	tests := []struct {
		name        string
		contentType string
		body        string
		wantOK      bool
		wantMessage string
	}{
		{name: "valid", contentType: "application/json", body: `{"prompt":"a castle","width":256}`, wantOK: true},
		{name: "charset and case", contentType: "Application/JSON; Charset=UTF-8", body: `{"prompt":"x"}`, wantOK: true},
		{name: "missing content type", body: `{"prompt":"x"}`, wantMessage: "Content-Type must be application/json"},
		{name: "wrong content type", contentType: "text/plain", body: `{"prompt":"x"}`, wantMessage: "Content-Type must be application/json"},
		{name: "malformed", contentType: "application/json", body: `{"prompt":`, wantMessage: "invalid JSON body"},
		{name: "unknown field", contentType: "application/json", body: `{"prompt":"x","seed":7}`, wantMessage: "invalid JSON body"},
		{name: "empty", contentType: "application/json", body: ``, wantMessage: "invalid JSON body"},
		{
			name:        "too large",
			contentType: "application/json",
			body:        `{"prompt":"` + strings.Repeat("a", maxBodyBytes) + `"}`,
			wantMessage: "request body too large",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/v1/models/generate", strings.NewReader(tt.body))
			if tt.contentType != "" {
				r.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()

			var dst payload
			ok := DecodeRequest(w, r, &dst, nil)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.NotEmpty(t, dst.Prompt)
				return
			}
			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeEnvelope(t, w)
			assert.Equal(t, "INVALID_REQUEST", resp.Error.Code)
			assert.Equal(t, tt.wantMessage, resp.Error.Message)
		})
	}
}

func TestDecodeRequest_NilBody(t *testing.T) {
	r := &http.Request{Method: http.MethodPost, Header: http.Header{"Content-Type": {"application/json"}}}
	w := httptest.NewRecorder()
	var dst map[string]any
	assert.False(t, DecodeRequest(w, r, &dst, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
