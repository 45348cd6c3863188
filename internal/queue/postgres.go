package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore mirrors queue state into Postgres. The row layout is enough
// to fully rebuild the in-memory index after a restart.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) UpsertItem(ctx context.Context, item *Item) error {
	jobJSON, err := json.Marshal(item.Job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	cfgJSON, err := json.Marshal(item.Config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO hookbridge.retry_queue(
			job_id, job, attempt_count, next_retry_at, created_at, last_error, priority, config)
		VALUES ($1, $2::jsonb, $3, $4, $5, $6, $7, $8::jsonb)
		ON CONFLICT (job_id) DO UPDATE SET
			attempt_count = EXCLUDED.attempt_count,
			next_retry_at = EXCLUDED.next_retry_at,
			last_error = EXCLUDED.last_error,
			priority = EXCLUDED.priority,
			updated_at = now()`,
		item.JobID, string(jobJSON), item.AttemptCount, item.NextRetryAt,
		item.CreatedAt, item.LastError, item.Priority.String(), string(cfgJSON),
	)
	return err
}

func (s *PostgresStore) RemoveItem(ctx context.Context, jobID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM hookbridge.retry_queue WHERE job_id = $1`, jobID)
	return err
}

func (s *PostgresStore) AppendDeadLetter(ctx context.Context, dl *DeadLetter) error {
	jobJSON, err := json.Marshal(dl.Job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO hookbridge.dead_letters(
			job_id, job, attempt_count, last_error, http_status, reason, priority, created_at, dead_at)
		VALUES ($1, $2::jsonb, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (job_id) DO NOTHING`,
		dl.JobID, string(jobJSON), dl.AttemptCount, dl.LastError, dl.HTTPStatus,
		dl.Reason, dl.Priority.String(), dl.CreatedAt, dl.DeadAt,
	)
	return err
}

func (s *PostgresStore) PurgeDeadLetters(ctx context.Context, before time.Time) (int64, error) {
	ct, err := s.pool.Exec(ctx, `DELETE FROM hookbridge.dead_letters WHERE dead_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

func (s *PostgresStore) LoadActive(ctx context.Context, since time.Time) ([]*Item, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT job_id, job::text, attempt_count, next_retry_at, created_at, last_error, priority, config::text
		FROM hookbridge.retry_queue
		WHERE created_at >= $1
		ORDER BY next_retry_at`,
		since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Item
	for rows.Next() {
		var (
			item     Item
			jobJSON  string
			cfgJSON  string
			priority string
		)
		if err := rows.Scan(&item.JobID, &jobJSON, &item.AttemptCount, &item.NextRetryAt,
			&item.CreatedAt, &item.LastError, &priority, &cfgJSON); err != nil {
			return nil, err
		}
		var job Job
		if err := json.Unmarshal([]byte(jobJSON), &job); err != nil {
			return nil, fmt.Errorf("unmarshal job %s: %w", item.JobID, err)
		}
		if err := json.Unmarshal([]byte(cfgJSON), &item.Config); err != nil {
			return nil, fmt.Errorf("unmarshal config %s: %w", item.JobID, err)
		}
		item.Job = &job
		item.Priority = ParsePriority(priority)
		out = append(out, &item)
	}
	return out, rows.Err()
}
