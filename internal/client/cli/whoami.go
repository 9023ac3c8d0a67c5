package cli

import (
	"context"
	"time"
)

func (c *Cli) RunWhoAmI(ctx context.Context) error {
	me, err := c.authService.WhoAmI(ctx)
	if err != nil {
		return err
	}

	c.io.Printf("Email: %s\n", me.Email)
	c.io.Printf("Subject: %s\n", me.Subject)
	c.io.Printf("Token ID: %s\n", me.TokenID)
	c.io.Printf("Issued at: %s\n", me.IssuedAt.Format(time.RFC3339))
	c.io.Printf("Expires at: %s\n", me.ExpiresAt.Format(time.RFC3339))

	return nil
}
