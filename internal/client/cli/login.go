package cli

import (
	"context"
	"time"
)

func (c *Cli) RunLogin(ctx context.Context, email string, passwords Passwords) error {
	c.io.Println("=== Login ===")
	c.io.Println()

	email, err := c.readEmail(email)
	if err != nil {
		return err
	}

	password, err := c.getPassword(passwords, "Password: ")
	if err != nil {
		return err
	}

	authData, err := c.authService.Login(ctx, email, password)
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("✓ Login successful!")
	c.io.Printf("Email: %s\n", authData.Email)
	c.io.Printf("Token expires: %s\n", authData.ExpiresAt.Format(time.RFC3339))

	return nil
}
