package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// ProviderClient ends sessions at the identity provider.
type ProviderClient struct {
	signOutURL string
	timeout    time.Duration
}

// NewProviderClient builds a client. An empty URL disables the provider call.
func NewProviderClient(signOutURL string, timeout time.Duration) *ProviderClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ProviderClient{signOutURL: signOutURL, timeout: timeout}
}

// Enabled reports whether a provider sign-out endpoint is configured.
func (p *ProviderClient) Enabled() bool {
	return p != nil && p.signOutURL != ""
}

// SignOut posts the bearer token to the provider's sign-out endpoint.
func (p *ProviderClient) SignOut(ctx context.Context, token string) error {
	if !p.Enabled() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	agent := fiber.Post(p.signOutURL)
	agent.Set(fiber.HeaderAuthorization, "Bearer "+token)
	agent.Timeout(p.timeout)
	status, _, errs := agent.Bytes()
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if status >= fiber.StatusBadRequest {
		return fmt.Errorf("provider sign-out returned status %d", status)
	}
	return nil
}
