package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iudanet/loginauth/internal/crypto"
	"github.com/iudanet/loginauth/internal/metrics"
	"github.com/iudanet/loginauth/internal/server/auth"
	"github.com/iudanet/loginauth/internal/server/jwt"
	"github.com/iudanet/loginauth/internal/server/storage/memory"
	"github.com/iudanet/loginauth/pkg/api"
)

// fakeClock общее управляемое время для сервиса и валидатора
type fakeClock struct {
	now time.Time
	mu  sync.Mutex
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	handler  http.Handler
	clock    *fakeClock
	provider *metrics.Provider
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := &fakeClock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	signing := jwt.SigningConfig{
		SecretKey:        []byte("0123456789abcdef0123456789abcdef"),
		Issuer:           "loginauth",
		Audience:         "loginauth",
		ValidityDuration: jwt.DefaultValidity,
	}

	provider, err := metrics.NewProvider("loginauth_test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	bm, err := metrics.NewBusinessMetrics(provider.MeterProvider(), provider.Namespace())
	require.NoError(t, err)

	store := memory.New(crypto.NewBcryptHasher(bcrypt.MinCost))
	svc := auth.NewService(store, jwt.NewIssuer(signing), logger,
		auth.WithClock(clock.Now), auth.WithMetrics(bm))

	handler := NewRouter(Deps{
		Logger:          logger,
		Auth:            svc,
		Validator:       jwt.NewValidator(signing, jwt.WithClock(clock.Now)),
		Metrics:         provider,
		BusinessMetrics: bm,
		Version:         "test",
	})

	return &testEnv{handler: handler, clock: clock, provider: provider}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func TestRouter_AliceScenario(t *testing.T) {
	env := setupEnv(t)

	// Регистрация
	w := env.do(t, http.MethodPost, "/api/auth/register",
		api.RegisterRequest{Email: "alice@example.com", Password: "Secret123", FirstName: "Alice"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"User created successfully"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	// Вход
	issuedAt := env.clock.Now()
	w = env.do(t, http.MethodPost, "/api/auth/login",
		api.LoginRequest{Email: "alice@example.com", Password: "Secret123"}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var tokenResp api.TokenResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&tokenResp))
	require.NotEmpty(t, tokenResp.Token)

	claims := &jwt.Claims{}
	_, _, err := gojwt.NewParser().ParseUnverified(tokenResp.Token, claims)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, 3*time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
	assert.True(t, issuedAt.Equal(claims.IssuedAt.Time))

	// Неверный пароль
	w = env.do(t, http.MethodPost, "/api/auth/login",
		api.LoginRequest{Email: "alice@example.com", Password: "WrongPass"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Bad Request","message":"Invalid credentials"}`, w.Body.String())

	// Токен работает до истечения срока
	w = env.do(t, http.MethodGet, "/api/auth/me", nil, tokenResp.Token)
	require.Equal(t, http.StatusOK, w.Code)
	var me api.MeResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&me))
	assert.Equal(t, "alice@example.com", me.Email)
	assert.Equal(t, claims.ID, me.TokenID)

	// После истечения срока токен отклоняется
	env.clock.Advance(3*time.Hour + time.Second)
	w = env.do(t, http.MethodGet, "/api/auth/me", nil, tokenResp.Token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "expired")

	// Метрики отражают сценарий
	w = env.do(t, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Regexp(t, `token_rejections_total\{[^}]*reason="expired"`, w.Body.String())
	assert.Regexp(t, `http_requests_total\{[^}]*route="POST /api/auth/login"`, w.Body.String())
}

func TestRouter_RoutesAndMethods(t *testing.T) {
	env := setupEnv(t)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{name: "health", method: http.MethodGet, path: "/api/health", wantStatus: http.StatusOK},
		{name: "openapi document", method: http.MethodGet, path: "/api/openapi.yaml", wantStatus: http.StatusOK},
		{name: "openapi with POST", method: http.MethodPost, path: "/api/openapi.yaml", wantStatus: http.StatusMethodNotAllowed},
		{name: "me without token", method: http.MethodGet, path: "/api/auth/me", wantStatus: http.StatusUnauthorized},
		{name: "login with GET", method: http.MethodGet, path: "/api/auth/login", wantStatus: http.StatusMethodNotAllowed},
		{name: "unknown path", method: http.MethodGet, path: "/api/unknown", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, tt.method, tt.path, nil, "")
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestServer_StartShutdown(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New("127.0.0.1:0", http.NotFoundHandler(), logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.NoError(t, <-errCh)
}
