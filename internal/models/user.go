package models

import (
	"strings"
	"time"
)

// User представляет пользователя в системе
type User struct {
	CreatedAt       time.Time  `json:"created_at"`       // время создания
	LastLogin       *time.Time `json:"last_login"`       // время последнего входа
	ID              string     `json:"id"`               // UUID пользователя
	Email           string     `json:"email"`            // email в том виде, в котором его ввели
	NormalizedEmail string     `json:"normalized_email"` // уникальный ключ поиска
	PasswordHash    string     `json:"-"`                // PHC строка хеша пароля
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
}

// NormalizeEmail returns the lookup key for an email address.
// Emails are unique case-insensitively, so the key is trimmed and lower-cased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
