// Package logsink appends an audit record for every inbound webhook outcome
// and every delivery attempt. The analytics layer reads these rows; nothing
// in the pipeline ever reads them back, and a failed write never surfaces
// past a log line.
package logsink

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dineflow/hookbridge/internal/logging"
	"github.com/dineflow/hookbridge/internal/provider"
	"github.com/dineflow/hookbridge/internal/queue"
)

type Sink struct {
	pool *pgxpool.Pool
	log  *logging.Logger
}

func New(pool *pgxpool.Pool) *Sink {
	return &Sink{pool: pool, log: logging.New("logsink")}
}

// RecordInbound logs the validation outcome of one webhook request.
func (s *Sink) RecordInbound(ctx context.Context, p provider.Provider, clientID, eventID string, accepted bool, reason string) {
	if s == nil || s.pool == nil {
		return
	}
	outcome := "accepted"
	if !accepted {
		outcome = "rejected"
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO hookbridge.webhook_logs(kind, provider, client_id, event_id, outcome, reason)
		VALUES ('inbound', $1, $2, $3, $4, $5)`,
		p.String(), clientID, nullable(eventID), outcome, nullable(reason),
	)
	if err != nil {
		s.log.WithContext(ctx).WithProvider(p.String()).WithClient(clientID).
			WithError(err).Error("inbound log write failed")
	}
}

// RecordAttempt implements queue.AttemptRecorder.
func (s *Sink) RecordAttempt(ctx context.Context, rec queue.AttemptRecord) {
	if s == nil || s.pool == nil {
		return
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO hookbridge.webhook_logs(
			kind, client_id, event_id, job_id, outcome, attempt, http_status, error, latency_ms, created_at)
		VALUES ('attempt', $1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.OwnerID, nullable(rec.EventID), rec.JobID, rec.Outcome,
		rec.Attempt, rec.HTTPStatus, nullable(rec.Error), rec.LatencyMS, rec.At,
	)
	if err != nil {
		s.log.WithContext(ctx).WithJob(rec.JobID).WithError(err).Error("attempt log write failed")
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
