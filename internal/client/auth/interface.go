package auth

import (
	"context"

	"github.com/iudanet/loginauth/internal/client/storage"
	pkgapi "github.com/iudanet/loginauth/pkg/api"
)

//go:generate moq -out service_mock.go . Service

// Service defines the client-side authentication operations.
// The session (token and its expiry) is kept in local storage between runs.
type Service interface {
	// Register создает учетную запись на сервере, токен не выдается
	Register(ctx context.Context, input RegisterInput) (string, error)

	// Login получает токен и сохраняет сессию локально
	Login(ctx context.Context, email, password string) (*storage.AuthData, error)

	// Logout удаляет локальную сессию
	// Returns ErrNotLoggedIn if there is no session
	Logout(ctx context.Context) error

	// Status возвращает сохраненную сессию без обращения к серверу
	// Returns ErrNotLoggedIn if there is no session
	Status(ctx context.Context) (*storage.AuthData, error)

	// WhoAmI проверяет токен на сервере
	// Returns ErrSessionExpired if the server no longer accepts the token
	WhoAmI(ctx context.Context) (*pkgapi.MeResponse, error)
}

// APIClient is the subset of the HTTP client the service needs.
type APIClient interface {
	BaseURL() string
	Register(ctx context.Context, req pkgapi.RegisterRequest) (*pkgapi.MessageResponse, error)
	Login(ctx context.Context, req pkgapi.LoginRequest) (*pkgapi.TokenResponse, error)
	Me(ctx context.Context, token string) (*pkgapi.MeResponse, error)
}
