package api

import "time"

// RegisterRequest представляет запрос на регистрацию нового пользователя
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// MessageResponse представляет ответ на успешную регистрацию
type MessageResponse struct {
	Message string `json:"message"`
}

// LoginRequest представляет запрос на аутентификацию
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse представляет ответ с токеном доступа
type TokenResponse struct {
	Token string `json:"token"` // JWT access token
}

// IdentityError описывает одну ошибку регистрации
type IdentityError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// MeResponse описывает владельца токена
type MeResponse struct {
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	TokenID   string    `json:"token_id"`
}

// HealthResponse ответ health check
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}
