package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/loginauth/pkg/api"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler_Health(t *testing.T) {
	tests := []struct {
		pinger     Pinger
		name       string
		wantStatus string
		wantCode   int
	}{
		{name: "no pinger", wantStatus: "ok", wantCode: http.StatusOK},
		{
			name:       "store reachable",
			pinger:     pingerFunc(func(context.Context) error { return nil }),
			wantStatus: "ok",
			wantCode:   http.StatusOK,
		},
		{
			name:       "store down",
			pinger:     pingerFunc(func(context.Context) error { return errors.New("down") }),
			wantStatus: "unavailable",
			wantCode:   http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(setupTestLogger(), "1.2.3", tt.pinger)

			req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
			w := httptest.NewRecorder()

			handler.Health(w, req)

			resp := w.Result()
			defer func() {
				err := resp.Body.Close()
				assert.NoError(t, err)
			}()

			assert.Equal(t, tt.wantCode, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

			var healthResp api.HealthResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&healthResp))
			assert.Equal(t, tt.wantStatus, healthResp.Status)
			assert.Equal(t, "1.2.3", healthResp.Version)
		})
	}
}
