package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDMiddleware(t *testing.T) {
	existing := uuid.NewString()

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{name: "generated when absent"},
		{name: "kept when valid", incoming: existing, keep: true},
		{name: "replaced when not a uuid", incoming: "<script>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = RequestIDFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			_, err := uuid.Parse(seen)
			require.NoError(t, err)
			assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
			if tt.keep {
				assert.Equal(t, tt.incoming, seen)
			}
		})
	}
}

func TestRequestIDFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, RequestIDFromContext(req.Context()))
}
