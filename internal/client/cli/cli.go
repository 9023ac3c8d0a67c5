// Package cli implements the client commands on top of the auth service.
package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/iudanet/loginauth/internal/client/auth"
	"github.com/iudanet/loginauth/internal/client/iocli"
)

// PasswordEnvVar переопределяет все остальные источники пароля
const PasswordEnvVar = "LOGINAUTH_PASSWORD"

// Passwords описывает неинтерактивные источники пароля
type Passwords struct {
	FromFile string
	FromArgs string
}

type Cli struct {
	io          iocli.IO
	authService auth.Service
	now         func() time.Time
}

func New(io iocli.IO, authService auth.Service) *Cli {
	return &Cli{
		io:          io,
		authService: authService,
		now:         time.Now,
	}
}

// getPassword retrieves the password from various sources with priority:
// 1. Environment variable LOGINAUTH_PASSWORD
// 2. File specified in passwords.FromFile
// 3. Command-line parameter passwords.FromArgs
// 4. Interactive prompt (fallback)
func (c *Cli) getPassword(passwords Passwords, prompt string) (string, error) {
	// Priority 1: Environment variable
	if envPassword := os.Getenv(PasswordEnvVar); envPassword != "" {
		return envPassword, nil
	}

	// Priority 2: File
	if passwords.FromFile != "" {
		content, err := os.ReadFile(passwords.FromFile)
		if err != nil {
			return "", fmt.Errorf("failed to read password file: %w", err)
		}
		// Убираем trailing newline/whitespace
		password := strings.TrimSpace(string(content))
		if password == "" {
			return "", fmt.Errorf("password file is empty")
		}
		return password, nil
	}

	// Priority 3: CLI parameter
	if passwords.FromArgs != "" {
		return passwords.FromArgs, nil
	}

	// Priority 4: Interactive prompt (fallback)
	password, err := c.io.ReadPassword(prompt)
	if err != nil {
		return "", fmt.Errorf("failed to read password from stdin: %w", err)
	}
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}

	return password, nil
}

// readEmail возвращает email из аргумента или спрашивает его
func (c *Cli) readEmail(email string) (string, error) {
	if email != "" {
		return email, nil
	}
	email, err := c.io.ReadInput("Email: ")
	if err != nil {
		return "", fmt.Errorf("failed to read email: %w", err)
	}
	return email, nil
}
