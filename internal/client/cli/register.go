package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/iudanet/loginauth/internal/client/api"
	"github.com/iudanet/loginauth/internal/client/auth"
)

// RegisterOptions содержит аргументы команды register
type RegisterOptions struct {
	Passwords Passwords
	Email     string
	FirstName string
	LastName  string
}

func (c *Cli) RunRegister(ctx context.Context, opts RegisterOptions) error {
	c.io.Println("=== Registration ===")
	c.io.Println()

	email, err := c.readEmail(opts.Email)
	if err != nil {
		return err
	}

	password, err := c.getPassword(opts.Passwords, "Password: ")
	if err != nil {
		return err
	}

	// Подтверждение нужно только при интерактивном вводе
	if opts.Passwords.FromFile == "" && opts.Passwords.FromArgs == "" && !passwordFromEnv() {
		confirm, err := c.io.ReadPassword("Confirm password: ")
		if err != nil {
			return fmt.Errorf("failed to read password confirmation: %w", err)
		}
		if confirm != password {
			return fmt.Errorf("passwords do not match")
		}
	}

	msg, err := c.authService.Register(ctx, auth.RegisterInput{
		Email:     email,
		Password:  password,
		FirstName: opts.FirstName,
		LastName:  opts.LastName,
	})
	if err != nil {
		c.printRegisterErrors(err)
		return err
	}

	c.io.Println()
	c.io.Printf("✓ %s\n", msg)
	c.io.Println("Run 'loginauth login' to get a token.")

	return nil
}

// printRegisterErrors выводит каждую ошибку отдельной строкой
func (c *Cli) printRegisterErrors(err error) {
	var verr *auth.ValidationError
	if errors.As(err, &verr) {
		for _, v := range verr.Violations {
			c.io.Printf("  - [%s] %s\n", v.Code, v.Description)
		}
		return
	}

	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		for _, ie := range apiErr.Identity {
			c.io.Printf("  - [%s] %s\n", ie.Code, ie.Description)
		}
	}
}

func passwordFromEnv() bool {
	return os.Getenv(PasswordEnvVar) != ""
}
