// Package jwt issues and validates HS256 bearer tokens.
package jwt

import (
	"time"

	validation "github.com/jellydator/validation"
)

// MinSecretSize минимальная длина ключа HMAC в байтах (256 бит)
const MinSecretSize = 32

// DefaultValidity срок действия токена по умолчанию
const DefaultValidity = 3 * time.Hour

// SigningConfig holds the token signing parameters.
// It is built once at startup and passed by value.
type SigningConfig struct {
	Issuer           string
	Audience         string
	SecretKey        []byte
	ValidityDuration time.Duration
}

// Validate checks that the configuration can produce verifiable tokens.
func (c SigningConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.SecretKey,
			validation.Required,
			validation.Length(MinSecretSize, 0).Error("must be at least 32 bytes"),
		),
		validation.Field(&c.Issuer, validation.Required),
		validation.Field(&c.Audience, validation.Required),
		validation.Field(&c.ValidityDuration, validation.Required, validation.Min(time.Second)),
	)
}
