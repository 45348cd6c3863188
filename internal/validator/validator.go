// Package validator implements per-provider webhook authentication plus the
// cross-cutting gates (rate limiting, IP allow-listing) that run before any
// signature work. Validation never returns an error to the caller: every
// outcome is a Result value the gateway turns into a provider-shaped ack.
package validator

import (
	"context"
	"net/http"
	"time"

	"github.com/dineflow/hookbridge/internal/client"
	"github.com/dineflow/hookbridge/internal/logging"
	"github.com/dineflow/hookbridge/internal/metrics"
	"github.com/dineflow/hookbridge/internal/provider"
)

// Rejection reasons, recorded in logs and metrics but never exposed to the
// provider beyond the generic unauthorized ack.
const (
	ReasonUnknownClient    = "unknown_client"
	ReasonIPBlocked        = "ip_blocked"
	ReasonRateLimited      = "rate_limited"
	ReasonMissingSignature = "missing_signature"
	ReasonBadSignature     = "bad_signature"
	ReasonMissingAPIKey    = "missing_api_key"
	ReasonBadAPIKey        = "bad_api_key"
	ReasonMissingTimestamp = "missing_timestamp"
	ReasonStaleTimestamp   = "stale_timestamp"
	ReasonMissingToken     = "missing_token"
	ReasonBadToken         = "bad_token"
	ReasonMissingRequestID = "missing_request_id"
	ReasonDuplicateRequest = "duplicate_request"
	ReasonInternal         = "internal_error"
)

// Result is the validation outcome for one inbound request. Produced once,
// never mutated.
type Result struct {
	Accepted bool
	Reason   string
}

func accept() Result              { return Result{Accepted: true} }
func reject(reason string) Result { return Result{Accepted: false, Reason: reason} }

// Request carries the pieces of an inbound HTTP request a strategy may
// inspect. Body is the exact raw bytes as received; strategies that hash must
// hash these bytes, never a re-serialized form.
type Request struct {
	ClientID string
	Headers  http.Header
	Body     []byte
	RemoteIP string
	Now      time.Time
}

// Strategy authenticates a request against one provider's scheme.
type Strategy interface {
	Validate(ctx context.Context, cfg *client.Config, req Request) Result
}

// Options tune the cross-cutting checks and the freshness/dedup strategies.
type Options struct {
	FreshnessWindow   time.Duration
	DedupRetention    time.Duration
	DefaultRateLimit  int
	DefaultRateWindow time.Duration
}

// Validator resolves the client configuration, applies the cross-cutting
// gates, then delegates to the provider strategy.
type Validator struct {
	clients    client.Store
	limiters   *RateLimiters
	strategies map[provider.Provider]Strategy
	log        *logging.Logger
}

// New wires the standard strategy per provider.
func New(clients client.Store, dedup DedupStore, opts Options) *Validator {
	if opts.FreshnessWindow <= 0 {
		opts.FreshnessWindow = 5 * time.Minute
	}
	if opts.DedupRetention <= 0 {
		opts.DedupRetention = 24 * time.Hour
	}
	return &Validator{
		clients:  clients,
		limiters: NewRateLimiters(opts.DefaultRateLimit, opts.DefaultRateWindow),
		strategies: map[provider.Provider]Strategy{
			provider.Careem:    &HMACHex{Header: "X-Careem-Signature"},
			provider.Deliveroo: &HMACBase64{Header: "X-Deliveroo-Hmac-Sha256"},
			provider.Talabat:   &SharedKey{Header: "X-Talabat-Api-Key", Freshness: opts.FreshnessWindow},
			provider.Jahez:     &BearerToken{Dedup: dedup, Retention: opts.DedupRetention},
		},
		log: logging.New("validator"),
	}
}

// Validate runs the full pipeline for one request. The client config lookup
// is read-only; no shared state is mutated apart from the rate limiter and
// dedup bookkeeping.
func (v *Validator) Validate(ctx context.Context, p provider.Provider, req Request) Result {
	cfg, err := v.clients.Get(ctx, p, req.ClientID)
	if err != nil {
		if err != client.ErrNotFound {
			v.log.WithContext(ctx).WithProvider(p.String()).WithClient(req.ClientID).
				WithError(err).Error("client config lookup failed")
		}
		return v.rejected(ctx, p, req.ClientID, ReasonUnknownClient)
	}

	// Cross-cutting gates short-circuit before any signature work.
	if !ipAllowed(cfg.AllowedIPs, req.RemoteIP) {
		return v.rejected(ctx, p, req.ClientID, ReasonIPBlocked)
	}
	if !v.limiters.Allow(p, req.ClientID, cfg.RateLimit, cfg.RateWindow) {
		return v.rejected(ctx, p, req.ClientID, ReasonRateLimited)
	}

	strategy, ok := v.strategies[p]
	if !ok {
		return v.rejected(ctx, p, req.ClientID, ReasonUnknownClient)
	}
	res := strategy.Validate(ctx, cfg, req)
	if !res.Accepted {
		return v.rejected(ctx, p, req.ClientID, res.Reason)
	}
	return res
}

func (v *Validator) rejected(ctx context.Context, p provider.Provider, clientID, reason string) Result {
	metrics.RecordRejection(p.String(), reason)
	v.log.WithContext(ctx).WithProvider(p.String()).WithClient(clientID).
		WithField("reason", reason).Warn("webhook rejected")
	return reject(reason)
}
