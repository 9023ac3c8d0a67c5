package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/iudanet/loginauth/internal/models"
)

// Claims represents JWT claims
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Issuer signs access tokens. Safe for concurrent use.
type Issuer struct {
	cfg SigningConfig
}

// NewIssuer creates a new token issuer
func NewIssuer(cfg SigningConfig) *Issuer {
	return &Issuer{cfg: cfg}
}

// Issue creates a signed token for the user, valid from now for the configured duration.
// Each token carries a fresh random jti, so two tokens are never equal.
func (i *Issuer) Issue(user *models.User, now time.Time) (string, time.Time, error) {
	if user == nil || user.Email == "" {
		return "", time.Time{}, fmt.Errorf("cannot issue token: user email is empty")
	}

	claims := Claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.cfg.ValidityDuration)),
			Issuer:    i.cfg.Issuer,
			Audience:  jwt.ClaimStrings{i.cfg.Audience},
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.cfg.SecretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return token, claims.ExpiresAt.Time, nil
}
