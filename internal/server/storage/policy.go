package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iudanet/loginauth/internal/crypto"
	"github.com/iudanet/loginauth/internal/models"
	"github.com/iudanet/loginauth/internal/validation"
)

// PrepareNewUser applies the store policy to a registration and fills the
// derived fields (NormalizedEmail, PasswordHash, CreatedAt).
// Every backend calls it before its atomic insert.
// Returns ValidationErrors when the email or password is rejected and an
// ErrPasswordHashing error when the hasher fails for any other reason.
func PrepareNewUser(user *models.User, password string, hasher crypto.Hasher) error {
	user.Email = strings.TrimSpace(user.Email)

	if errs := CheckNewUser(user.Email, password, validation.DefaultPasswordPolicy); errs != nil {
		return errs
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		// bcrypt режет пароли длиннее 72 байт, это ошибка ввода
		if errors.Is(err, crypto.ErrPasswordTooLong) {
			return PasswordTooLong(crypto.BcryptMaxPasswordBytes)
		}
		return fmt.Errorf("%w: %w", ErrPasswordHashing, err)
	}

	user.NormalizedEmail = models.NormalizeEmail(user.Email)
	user.PasswordHash = hash
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	return nil
}

// VerifyUserPassword checks password against the user's stored hash.
func VerifyUserPassword(user *models.User, password string, hasher crypto.Hasher) (bool, error) {
	if user == nil || user.PasswordHash == "" {
		return false, nil
	}
	ok, err := hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return false, fmt.Errorf("failed to verify password for user %s: %w", user.ID, err)
	}
	return ok, nil
}
