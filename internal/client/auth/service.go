// Package auth implements the client side of registration and login.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iudanet/loginauth/internal/client/api"
	"github.com/iudanet/loginauth/internal/client/storage"
	"github.com/iudanet/loginauth/internal/validation"
	pkgapi "github.com/iudanet/loginauth/pkg/api"
)

var (
	// ErrNotLoggedIn возвращается, если локальной сессии нет
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrSessionExpired возвращается, если токен истек или сервер его отклонил
	ErrSessionExpired = errors.New("session expired, please login again")
)

// ValidationError описывает ошибки ввода, найденные до обращения к серверу
type ValidationError struct {
	Violations []validation.Violation
}

func (e *ValidationError) Error() string {
	descriptions := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		descriptions = append(descriptions, v.Description)
	}
	return "invalid input: " + strings.Join(descriptions, "; ")
}

// RegisterInput содержит данные для регистрации
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// tokenClaims достаточно, чтобы прочитать email и срок действия токена
type tokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// AuthService реализует Service поверх HTTP клиента и локального хранилища
type AuthService struct {
	apiClient APIClient
	sessions  *SessionStore
	logger    *slog.Logger
	now       func() time.Time
}

var _ Service = (*AuthService)(nil)

// Option configures AuthService
type Option func(*AuthService)

// WithClock подменяет источник времени
func WithClock(now func() time.Time) Option {
	return func(s *AuthService) {
		s.now = now
	}
}

// NewService создает новый сервис авторизации
func NewService(apiClient APIClient, store storage.AuthStorage, logger *slog.Logger, opts ...Option) *AuthService {
	s := &AuthService{
		apiClient: apiClient,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sessions = NewSessionStore(store, s.now)
	return s
}

// Register проверяет ввод локально и регистрирует пользователя на сервере
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (string, error) {
	email := strings.TrimSpace(input.Email)

	// Те же правила, что на сервере, чтобы не гонять заведомо плохой запрос
	var violations []validation.Violation
	violations = append(violations, validation.CheckRequired(email, input.Password)...)
	if len(violations) == 0 {
		if v := validation.ValidateEmail(email); v != nil {
			violations = append(violations, *v)
		}
		violations = append(violations, validation.ValidatePassword(input.Password, validation.DefaultPasswordPolicy)...)
	}
	if len(violations) > 0 {
		return "", &ValidationError{Violations: violations}
	}

	resp, err := s.apiClient.Register(ctx, pkgapi.RegisterRequest{
		Email:     email,
		Password:  input.Password,
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
	})
	if err != nil {
		return "", fmt.Errorf("registration failed: %w", err)
	}

	s.logger.Debug("registered", slog.String("email", email))

	return resp.Message, nil
}

// Login получает токен и сохраняет сессию
func (s *AuthService) Login(ctx context.Context, email, password string) (*storage.AuthData, error) {
	email = strings.TrimSpace(email)
	if violations := validation.CheckRequired(email, password); len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	resp, err := s.apiClient.Login(ctx, pkgapi.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	// Подпись проверяет только сервер, клиенту нужен срок действия
	var claims tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(resp.Token, &claims); err != nil {
		return nil, fmt.Errorf("server returned malformed token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("server returned token without expiry")
	}

	// Email в токене уже в каноническом виде, сохраняем его
	if claims.Email != "" {
		email = claims.Email
	}

	auth := &storage.AuthData{
		Email:     email,
		Token:     resp.Token,
		ServerURL: s.apiClient.BaseURL(),
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if err := s.sessions.Save(ctx, auth); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.logger.Debug("logged in",
		slog.String("email", email),
		slog.Time("expires_at", auth.ExpiresAt),
	)

	return auth, nil
}

// Logout удаляет локальную сессию. Сервер токены не отзывает
func (s *AuthService) Logout(ctx context.Context) error {
	return s.sessions.Clear(ctx)
}

// Status возвращает сохраненную сессию
func (s *AuthService) Status(ctx context.Context) (*storage.AuthData, error) {
	return s.sessions.Load(ctx)
}

// WhoAmI проверяет сохраненный токен на сервере
func (s *AuthService) WhoAmI(ctx context.Context) (*pkgapi.MeResponse, error) {
	auth, err := s.sessions.Active(ctx)
	if err != nil {
		return nil, err
	}

	me, err := s.apiClient.Me(ctx, auth.Token)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			// Токен больше не принимается, локальная копия бесполезна
			if clearErr := s.sessions.Clear(ctx); clearErr != nil && !errors.Is(clearErr, ErrNotLoggedIn) {
				s.logger.Warn("failed to clear rejected session", slog.Any("error", clearErr))
			}
			return nil, ErrSessionExpired
		}
		return nil, fmt.Errorf("whoami failed: %w", err)
	}

	return me, nil
}
