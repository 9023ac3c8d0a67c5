package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/loginauth/pkg/api"
)

// TestNewClient проверяет создание нового клиента
func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080/")

	assert.NotNil(t, client)
	assert.Equal(t, "http://localhost:8080", client.BaseURL())
	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
}

// TestClient_Register проверяет успешную регистрацию
func TestClient_Register(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/register", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req api.RegisterRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "alice@example.com", req.Email)
		assert.Equal(t, "Secret123", req.Password)
		assert.Equal(t, "Alice", req.FirstName)

		_ = json.NewEncoder(w).Encode(api.MessageResponse{Message: "User created successfully"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	resp, err := client.Register(context.Background(), api.RegisterRequest{
		Email:     "alice@example.com",
		Password:  "Secret123",
		FirstName: "Alice",
	})

	require.NoError(t, err)
	assert.Equal(t, "User created successfully", resp.Message)
}

// TestClient_Register_IdentityErrors проверяет разбор списка ошибок регистрации
func TestClient_Register_IdentityErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode([]api.IdentityError{
			{Code: "DuplicateEmail", Description: "Email 'alice@example.com' is already taken."},
			{Code: "PasswordRequiresDigit", Description: "Passwords must have at least one digit ('0'-'9')."},
		})
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Register(context.Background(), api.RegisterRequest{Email: "alice@example.com"})
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Len(t, apiErr.Identity, 2)
	assert.Equal(t, "DuplicateEmail", apiErr.Identity[0].Code)
	assert.Contains(t, err.Error(), "already taken")
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

// TestClient_Login проверяет вход и ошибку неверных учетных данных
func TestClient_Login(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)

		var req api.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if req.Password != "Secret123" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: "Bad Request", Message: "Invalid credentials"})
			return
		}
		_ = json.NewEncoder(w).Encode(api.TokenResponse{Token: "token-123"})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	t.Run("success", func(t *testing.T) {
		resp, err := client.Login(context.Background(), api.LoginRequest{Email: "alice@example.com", Password: "Secret123"})
		require.NoError(t, err)
		assert.Equal(t, "token-123", resp.Token)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		_, err := client.Login(context.Background(), api.LoginRequest{Email: "alice@example.com", Password: "WrongPass"})
		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "Invalid credentials", apiErr.Message)
	})
}

// TestClient_Me проверяет передачу bearer токена
func TestClient_Me(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: "Unauthorized", Message: "expired"})
			return
		}
		_ = json.NewEncoder(w).Encode(api.MeResponse{Email: "alice@example.com", TokenID: "jti-1"})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	me, err := client.Me(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", me.Email)

	_, err = client.Me(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, err.Error(), "expired")
}

// TestClient_NonJSONError проверяет ответ без JSON
func TestClient_NonJSONError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Login(context.Background(), api.LoginRequest{})
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "bad gateway", apiErr.Message)
}

// TestClient_ConnectionError проверяет недоступный сервер
func TestClient_ConnectionError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewClient(url).Login(context.Background(), api.LoginRequest{})
	require.Error(t, err)
	var apiErr *Error
	assert.False(t, errors.As(err, &apiErr))
}
