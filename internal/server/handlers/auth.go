package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/iudanet/loginauth/internal/server/auth"
	"github.com/iudanet/loginauth/internal/server/storage"
	"github.com/iudanet/loginauth/pkg/api"
)

// maxBodySize ограничение размера тела запроса
const maxBodySize = 1 << 20

// Authenticator is the part of auth.Service the handlers use.
type Authenticator interface {
	Register(ctx context.Context, in auth.RegisterInput) error
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
}

// AuthHandler обрабатывает запросы авторизации
type AuthHandler struct {
	logger  *slog.Logger
	service Authenticator
}

// NewAuthHandler создает новый handler для авторизации
func NewAuthHandler(logger *slog.Logger, service Authenticator) *AuthHandler {
	return &AuthHandler{
		logger:  logger,
		service: service,
	}
}

// Register обрабатывает POST /api/auth/register
// Регистрация не выдает токен
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Парсим request body
	var req api.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode register request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	err := h.service.Register(ctx, auth.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.handleError(ctx, w, err)
		return
	}

	sendJSON(h.logger, w, api.MessageResponse{Message: "User created successfully"}, http.StatusOK)
}

// Login обрабатывает POST /api/auth/login
// Аутентификация пользователя
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Парсим request body
	var req api.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode login request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.handleError(ctx, w, err)
		return
	}

	sendJSON(h.logger, w, api.TokenResponse{Token: result.Token}, http.StatusOK)
}

// Me обрабатывает GET /api/auth/me
// Доступен только после проверки токена в middleware
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := GetClaims(r.Context())
	if !ok {
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	resp := api.MeResponse{
		Email:   claims.Email,
		Subject: claims.Subject,
		TokenID: claims.ID,
	}
	if claims.IssuedAt != nil {
		resp.IssuedAt = claims.IssuedAt.UTC()
	}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.UTC()
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// handleError переводит ошибки сервиса в HTTP ответы
func (h *AuthHandler) handleError(ctx context.Context, w http.ResponseWriter, err error) {
	var verrs storage.ValidationErrors

	switch {
	case errors.As(err, &verrs):
		list := make([]api.IdentityError, 0, len(verrs))
		for _, e := range verrs {
			list = append(list, api.IdentityError{Code: e.Code, Description: e.Description})
		}
		sendJSON(h.logger, w, list, http.StatusBadRequest)
	case errors.Is(err, auth.ErrInvalidCredentials):
		// Одинаковый ответ для неизвестного email и неверного пароля
		sendError(h.logger, w, "Invalid credentials", http.StatusBadRequest)
	case errors.Is(err, storage.ErrStoreUnavailable):
		h.logger.ErrorContext(ctx, "credential store unavailable", slog.Any("error", err))
		sendError(h.logger, w, "service temporarily unavailable", http.StatusServiceUnavailable)
	default:
		h.logger.ErrorContext(ctx, "internal error", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	return json.NewDecoder(r.Body).Decode(dst)
}

// sendJSON отправляет JSON ответ
func sendJSON(logger *slog.Logger, w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError отправляет JSON ответ с ошибкой
func sendError(logger *slog.Logger, w http.ResponseWriter, message string, statusCode int) {
	resp := api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}
	sendJSON(logger, w, resp, statusCode)
}
