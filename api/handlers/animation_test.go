package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/BaSui01/assetflow/types"
)

func TestAnimationHandler_HandlePlay(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		want       map[string]any
	}{
		{
			name:       "walk loop",
			body:       `{"action":"walk","loop":true}`,
			wantStatus: http.StatusOK,
			want:       map[string]any{"action": "walk", "loop": true, "description": "Animation 'walk' played"},
		},
		{
			name:       "custom action",
			body:       `{"action":"Wave"}`,
			wantStatus: http.StatusOK,
			want:       map[string]any{"action": "wave", "loop": false, "description": "Animation 'wave' played"},
		},
		{name: "missing action", body: `{"loop":true}`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewAnimationHandler(false, nil)
			w := httptest.NewRecorder()
			handler.HandlePlay(w, postJSON("/v1/animations/play", tt.body))
			require.Equal(t, tt.wantStatus, w.Code)

			resp := decodeResponse(t, w)
			if tt.want == nil {
				assert.Equal(t, string(types.ErrConfiguration), resp.Error.Code)
				return
			}
			assert.Equal(t, tt.want, resp.Data)
		})
	}
}

func TestAnimationHandler_DebugLogs(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	handler := NewAnimationHandler(true, zap.New(core))

	w := httptest.NewRecorder()
	handler.HandlePlay(w, postJSON("/v1/animations/play", `{"action":"idle"}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, logs.FilterMessage("playing animation").Len())
}
