package queue

import (
	"context"
	"time"
)

// Store is the durable mirror of the in-memory indices. Every mutation of
// the retry index is mirrored here keyed by job id; mirror failures are
// logged and swallowed so a storage hiccup never breaks request handling.
type Store interface {
	UpsertItem(ctx context.Context, item *Item) error
	RemoveItem(ctx context.Context, jobID string) error
	AppendDeadLetter(ctx context.Context, dl *DeadLetter) error
	PurgeDeadLetters(ctx context.Context, before time.Time) (int64, error)
	// LoadActive returns retry items created at or after since, so a restart
	// does not silently lose in-flight retries.
	LoadActive(ctx context.Context, since time.Time) ([]*Item, error)
}

// NopStore discards all mirror writes. Used in tests and when running
// without a database.
type NopStore struct{}

func (NopStore) UpsertItem(context.Context, *Item) error             { return nil }
func (NopStore) RemoveItem(context.Context, string) error            { return nil }
func (NopStore) AppendDeadLetter(context.Context, *DeadLetter) error { return nil }
func (NopStore) PurgeDeadLetters(context.Context, time.Time) (int64, error) {
	return 0, nil
}
func (NopStore) LoadActive(context.Context, time.Time) ([]*Item, error) {
	return nil, nil
}
