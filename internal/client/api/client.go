// Package api is the HTTP client for the login service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iudanet/loginauth/pkg/api"
)

// ErrUnauthorized возвращается, если сервер отклонил токен
var ErrUnauthorized = errors.New("unauthorized")

// Error описывает неуспешный ответ сервера
type Error struct {
	Message    string
	Identity   []api.IdentityError
	StatusCode int
}

func (e *Error) Error() string {
	if len(e.Identity) > 0 {
		descriptions := make([]string, 0, len(e.Identity))
		for _, ie := range e.Identity {
			descriptions = append(descriptions, ie.Description)
		}
		return fmt.Sprintf("server error (%d): %s", e.StatusCode, strings.Join(descriptions, "; "))
	}
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// Unwrap позволяет проверять 401 через errors.Is(err, ErrUnauthorized)
func (e *Error) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient создает новый API клиент
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// BaseURL возвращает адрес сервера без завершающего слеша
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Register регистрирует нового пользователя
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*api.MessageResponse, error) {
	var resp api.MessageResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/auth/register", "", req, &resp); err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	return &resp, nil
}

// Login выполняет аутентификацию пользователя
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/auth/login", "", req, &resp); err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return &resp, nil
}

// Me возвращает владельца токена
func (c *Client) Me(ctx context.Context, token string) (*api.MeResponse, error) {
	var resp api.MeResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/auth/me", token, nil, &resp); err != nil {
		return nil, fmt.Errorf("me request failed: %w", err)
	}
	return &resp, nil
}

// doRequest выполняет HTTP запрос
func (c *Client) doRequest(ctx context.Context, method, path, token string, body, result any) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	// Проверяем статус код
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseError(resp.StatusCode, respBody)
	}

	// Декодируем успешный ответ
	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// parseError разбирает оба формата ошибок сервера: объект и список ошибок регистрации
func parseError(statusCode int, body []byte) error {
	apiErr := &Error{StatusCode: statusCode}

	var list []api.IdentityError
	if err := json.Unmarshal(body, &list); err == nil && len(list) > 0 {
		apiErr.Identity = list
		return apiErr
	}

	var errResp api.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && (errResp.Message != "" || errResp.Error != "") {
		apiErr.Message = errResp.Message
		if apiErr.Message == "" {
			apiErr.Message = errResp.Error
		}
		return apiErr
	}

	apiErr.Message = strings.TrimSpace(string(body))
	return apiErr
}
