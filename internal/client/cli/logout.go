package cli

import (
	"context"
	"errors"

	"github.com/iudanet/loginauth/internal/client/auth"
)

func (c *Cli) RunLogout(ctx context.Context) error {
	if err := c.authService.Logout(ctx); err != nil {
		if errors.Is(err, auth.ErrNotLoggedIn) {
			c.io.Println("Not logged in.")
			return nil
		}
		return err
	}

	c.io.Println("✓ Logged out. Local session removed.")
	return nil
}
