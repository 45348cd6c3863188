package client

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dineflow/hookbridge/internal/provider"
)

// PostgresStore is the system of record for client configuration.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Get(ctx context.Context, p provider.Provider, clientID string) (*Config, error) {
	cfg := Config{Provider: p, ClientID: clientID}
	var rateWindowSecs int64
	err := s.pool.QueryRow(ctx, `
		SELECT secret, forward_url, COALESCE(forward_secret, ''), allowed_ips,
		       rate_limit, rate_window_seconds, events, created_at
		FROM hookbridge.clients
		WHERE provider = $1 AND client_id = $2`,
		string(p), clientID,
	).Scan(&cfg.Secret, &cfg.ForwardURL, &cfg.ForwardSecret, &cfg.AllowedIPs,
		&cfg.RateLimit, &rateWindowSecs, &cfg.Events, &cfg.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	cfg.RateWindow = time.Duration(rateWindowSecs) * time.Second
	return &cfg, nil
}

func (s *PostgresStore) Put(ctx context.Context, cfg *Config) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO hookbridge.clients(
			provider, client_id, secret, forward_url, forward_secret,
			allowed_ips, rate_limit, rate_window_seconds, events)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (provider, client_id) DO UPDATE SET
			secret = EXCLUDED.secret,
			forward_url = EXCLUDED.forward_url,
			forward_secret = EXCLUDED.forward_secret,
			allowed_ips = EXCLUDED.allowed_ips,
			rate_limit = EXCLUDED.rate_limit,
			rate_window_seconds = EXCLUDED.rate_window_seconds,
			events = EXCLUDED.events,
			updated_at = now()`,
		string(cfg.Provider), cfg.ClientID, cfg.Secret, cfg.ForwardURL, cfg.ForwardSecret,
		cfg.AllowedIPs, cfg.RateLimit, int64(cfg.RateWindow/time.Second), cfg.Events,
	)
	return err
}

func (s *PostgresStore) List(ctx context.Context, p provider.Provider) ([]*Config, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT client_id, secret, forward_url, COALESCE(forward_secret, ''), allowed_ips,
		       rate_limit, rate_window_seconds, events, created_at
		FROM hookbridge.clients
		WHERE provider = $1
		ORDER BY client_id`,
		string(p),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Config
	for rows.Next() {
		cfg := Config{Provider: p}
		var rateWindowSecs int64
		if err := rows.Scan(&cfg.ClientID, &cfg.Secret, &cfg.ForwardURL, &cfg.ForwardSecret,
			&cfg.AllowedIPs, &cfg.RateLimit, &rateWindowSecs, &cfg.Events, &cfg.CreatedAt); err != nil {
			return nil, err
		}
		cfg.RateWindow = time.Duration(rateWindowSecs) * time.Second
		out = append(out, &cfg)
	}
	return out, rows.Err()
}
