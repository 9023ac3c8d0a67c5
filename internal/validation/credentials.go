package validation

import (
	"fmt"
	"regexp"

	validation "github.com/jellydator/validation"
)

// Коды нарушений, совпадают с кодами ошибок регистрации
const (
	CodeEmailRequired         = "EmailRequired"
	CodePasswordRequired      = "PasswordRequired"
	CodeInvalidEmail          = "InvalidEmail"
	CodePasswordTooShort      = "PasswordTooShort"
	CodePasswordRequiresDigit = "PasswordRequiresDigit"
	CodePasswordRequiresLower = "PasswordRequiresLower"
	CodePasswordRequiresUpper = "PasswordRequiresUpper"
	CodePasswordTooLong       = "PasswordTooLong"
)

// Violation описывает одно нарушенное правило для учетных данных
type Violation struct {
	Code        string
	Description string
}

// PasswordPolicy определяет требования к сложности пароля
type PasswordPolicy struct {
	MinLength    int
	RequireDigit bool
	RequireLower bool
	RequireUpper bool
}

// DefaultPasswordPolicy: минимум 6 символов, цифра, строчная и заглавная буква.
// Спецсимвол не требуется.
var DefaultPasswordPolicy = PasswordPolicy{
	MinLength:    6,
	RequireDigit: true,
	RequireLower: true,
	RequireUpper: true,
}

var (
	// emailPattern только проверяет формат, без DNS запросов
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	digitPattern = regexp.MustCompile(`[0-9]`)
	lowerPattern = regexp.MustCompile(`\p{Ll}`)
	upperPattern = regexp.MustCompile(`\p{Lu}`)
)

// CheckRequired проверяет наличие email и пароля.
// Правила сложности пароля здесь не проверяются, это делает хранилище.
func CheckRequired(email, password string) []Violation {
	var violations []Violation

	if err := validation.Validate(email, validation.Required); err != nil {
		violations = append(violations, Violation{
			Code:        CodeEmailRequired,
			Description: "Email is required.",
		})
	}

	if err := validation.Validate(password, validation.Required); err != nil {
		violations = append(violations, Violation{
			Code:        CodePasswordRequired,
			Description: "Password is required.",
		})
	}

	return violations
}

// ValidateEmail проверяет формат email
func ValidateEmail(email string) *Violation {
	err := validation.Validate(email,
		validation.Required,
		validation.Length(3, 256),
		validation.Match(emailPattern),
	)
	if err != nil {
		return &Violation{
			Code:        CodeInvalidEmail,
			Description: fmt.Sprintf("Email '%s' is invalid.", email),
		}
	}
	return nil
}

// ValidatePassword возвращает все нарушенные правила политики, а не только первое
func ValidatePassword(password string, policy PasswordPolicy) []Violation {
	type check struct {
		rule    validation.Rule
		code    string
		enabled bool
	}

	tooShort := fmt.Sprintf("Passwords must be at least %d characters.", policy.MinLength)

	checks := []check{
		{
			code:    CodePasswordTooShort,
			rule:    validation.Length(policy.MinLength, 0).Error(tooShort),
			enabled: policy.MinLength > 0,
		},
		{
			code:    CodePasswordRequiresDigit,
			rule:    validation.Match(digitPattern).Error("Passwords must have at least one digit ('0'-'9')."),
			enabled: policy.RequireDigit,
		},
		{
			code:    CodePasswordRequiresLower,
			rule:    validation.Match(lowerPattern).Error("Passwords must have at least one lowercase ('a'-'z')."),
			enabled: policy.RequireLower,
		},
		{
			code:    CodePasswordRequiresUpper,
			rule:    validation.Match(upperPattern).Error("Passwords must have at least one uppercase ('A'-'Z')."),
			enabled: policy.RequireUpper,
		},
	}

	// Пустой пароль правила Length/Match пропускают
	if password == "" {
		return []Violation{{Code: CodePasswordTooShort, Description: tooShort}}
	}

	var violations []Violation
	for _, c := range checks {
		if !c.enabled {
			continue
		}
		if err := validation.Validate(password, c.rule); err != nil {
			violations = append(violations, Violation{Code: c.code, Description: err.Error()})
		}
	}

	return violations
}
