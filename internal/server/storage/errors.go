package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iudanet/loginauth/internal/validation"
)

// Common storage errors
var (
	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrStoreUnavailable indicates that the underlying persistence could not be reached.
	// It is a transient infrastructure fault and must never be reported as a credential error.
	ErrStoreUnavailable = errors.New("credential store unavailable")

	// ErrPasswordHashing indicates that the hasher failed for a reason the client cannot fix.
	// It is an internal fault, distinct from ErrStoreUnavailable.
	ErrPasswordHashing = errors.New("failed to hash password")
)

// Identity error codes returned by credential stores and registration checks.
const (
	CodeEmailRequired         = validation.CodeEmailRequired
	CodePasswordRequired      = validation.CodePasswordRequired
	CodeInvalidEmail          = validation.CodeInvalidEmail
	CodePasswordTooShort      = validation.CodePasswordTooShort
	CodePasswordRequiresDigit = validation.CodePasswordRequiresDigit
	CodePasswordRequiresLower = validation.CodePasswordRequiresLower
	CodePasswordRequiresUpper = validation.CodePasswordRequiresUpper
	CodePasswordTooLong       = validation.CodePasswordTooLong
	CodeDuplicateEmail        = "DuplicateEmail"
)

// IdentityError is a single client-correctable registration failure.
type IdentityError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// ValidationErrors is the structured error list a store returns when it
// refuses to create a user. The list is returned to the client verbatim.
type ValidationErrors []IdentityError

func (v ValidationErrors) Error() string {
	descriptions := make([]string, 0, len(v))
	for _, e := range v {
		descriptions = append(descriptions, e.Description)
	}
	return "validation failed: " + strings.Join(descriptions, "; ")
}

// Has reports whether the list contains an error with the given code.
func (v ValidationErrors) Has(code string) bool {
	for _, e := range v {
		if e.Code == code {
			return true
		}
	}
	return false
}

// DuplicateEmail builds the error list returned when the email is already registered.
func DuplicateEmail(email string) ValidationErrors {
	return ValidationErrors{{
		Code:        CodeDuplicateEmail,
		Description: "Email '" + email + "' is already taken.",
	}}
}

// PasswordTooLong builds the error list returned when the hasher cannot accept
// a password of that length.
func PasswordTooLong(maxBytes int) ValidationErrors {
	return ValidationErrors{{
		Code:        CodePasswordTooLong,
		Description: fmt.Sprintf("Passwords must be at most %d bytes.", maxBytes),
	}}
}

// FromViolations converts policy violations into the registration error list.
func FromViolations(violations []validation.Violation) ValidationErrors {
	if len(violations) == 0 {
		return nil
	}
	errs := make(ValidationErrors, 0, len(violations))
	for _, v := range violations {
		errs = append(errs, IdentityError{Code: v.Code, Description: v.Description})
	}
	return errs
}

// CheckNewUser applies the email and password policy every store enforces
// before hashing. Returns nil when the credentials are acceptable.
func CheckNewUser(email, password string, policy validation.PasswordPolicy) ValidationErrors {
	var violations []validation.Violation
	if v := validation.ValidateEmail(email); v != nil {
		violations = append(violations, *v)
	}
	violations = append(violations, validation.ValidatePassword(password, policy)...)
	return FromViolations(violations)
}

// Unavailable wraps an infrastructure error so that callers can match it with
// errors.Is(err, ErrStoreUnavailable) while keeping the cause.
func Unavailable(err error) error {
	if err == nil || errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return errors.Join(ErrStoreUnavailable, err)
}
