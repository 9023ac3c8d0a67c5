package jwt

import (
	"errors"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ValidatorOption configures a Validator
type ValidatorOption func(*Validator)

// WithClock подменяет источник текущего времени
func WithClock(now func() time.Time) ValidatorOption {
	return func(v *Validator) {
		v.now = now
	}
}

// Validator checks bearer tokens. Safe for concurrent use.
type Validator struct {
	now    func() time.Time
	parser *jwt.Parser
	cfg    SigningConfig
}

// NewValidator creates a validator bound to the signing configuration
func NewValidator(cfg SigningConfig, opts ...ValidatorOption) *Validator {
	v := &Validator{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}

	v.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(func() time.Time { return v.now() }),
	)

	return v
}

// Validate parses the token and returns its claims when it is well formed,
// correctly signed, issued for this service and not expired.
// Any other outcome is a *RejectionError.
func (v *Validator) Validate(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(token, claims, v.keyFunc)

	// Порядок проверок: структура, подпись, iss/aud, срок действия
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return nil, reject(ReasonMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return nil, reject(ReasonInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing), errors.Is(err, jwt.ErrInvalidType):
		return nil, reject(ReasonMalformed, err)
	}

	// Подпись проверена, claims заполнены
	if claims.Issuer != v.cfg.Issuer || !slices.Contains(claims.Audience, v.cfg.Audience) {
		return nil, reject(ReasonInvalidIssuerOrAudience, nil)
	}

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, reject(ReasonExpired, err)
		}
		return nil, reject(ReasonMalformed, err)
	}

	return claims, nil
}

func (v *Validator) keyFunc(_ *jwt.Token) (any, error) {
	return v.cfg.SecretKey, nil
}
