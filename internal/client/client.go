package client

import (
	"context"
	"errors"
	"time"

	"github.com/dineflow/hookbridge/internal/provider"
)

// ErrNotFound is returned when no configuration exists for a client+provider pair.
var ErrNotFound = errors.New("client configuration not found")

// Config holds everything the gateway needs to accept and forward webhooks
// for one client on one provider. Secret is the shared credential used by the
// provider-specific validation strategy: an HMAC secret for careem and
// deliveroo, the provisioned API key for talabat, the bearer token for jahez.
type Config struct {
	ClientID      string            `json:"client_id"`
	Provider      provider.Provider `json:"provider"`
	Secret        string            `json:"secret"`
	ForwardURL    string            `json:"forward_url"`
	ForwardSecret string            `json:"forward_secret,omitempty"`
	AllowedIPs    []string          `json:"allowed_ips,omitempty"` // IPs or CIDRs; empty means no IP gating
	RateLimit     int               `json:"rate_limit,omitempty"`  // requests per RateWindow; 0 means the gateway default
	RateWindow    time.Duration     `json:"rate_window,omitempty"`
	Events        []string          `json:"events,omitempty"` // subscribed event actions; empty means all
	CreatedAt     time.Time         `json:"created_at"`
}

// Subscribed reports whether the client wants the given coarse action.
func (c *Config) Subscribed(action string) bool {
	if len(c.Events) == 0 {
		return true
	}
	for _, e := range c.Events {
		if e == action {
			return true
		}
	}
	return false
}

// Store is the read path used by validation and dispatch, plus the small
// admin write surface. Lookups are read-only on the hot path.
type Store interface {
	Get(ctx context.Context, p provider.Provider, clientID string) (*Config, error)
	Put(ctx context.Context, cfg *Config) error
	List(ctx context.Context, p provider.Provider) ([]*Config, error)
}
