package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/loginauth/internal/client/auth"
)

func (c *Cli) RunStatus(ctx context.Context) error {
	c.io.Println("=== Authentication Status ===")
	c.io.Println()

	authData, err := c.authService.Status(ctx)
	if err != nil {
		if errors.Is(err, auth.ErrNotLoggedIn) {
			c.io.Println("Status: Not authenticated")
			c.io.Println()
			c.io.Println("Run 'loginauth login' to authenticate.")
			return nil
		}
		return fmt.Errorf("failed to check authentication: %w", err)
	}

	now := c.now()
	if authData.Expired(now) {
		c.io.Println("Status: Expired")
	} else {
		c.io.Println("Status: Authenticated")
	}
	c.io.Printf("Email: %s\n", authData.Email)
	if authData.ServerURL != "" {
		c.io.Printf("Server: %s\n", authData.ServerURL)
	}
	c.io.Printf("Token expires: %s\n", authData.ExpiresAt.Format(time.RFC3339))

	if remaining := authData.ExpiresAt.Sub(now); remaining > 0 {
		c.io.Printf("Time remaining: %s\n", remaining.Round(time.Second))
	} else {
		c.io.Println("⚠️  Token has expired. Please login again.")
	}

	return nil
}
