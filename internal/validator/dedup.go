package validator

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DedupStore remembers request ids long enough to reject replays. Seen marks
// the id and reports whether it had already been marked within the retention
// window.
type DedupStore interface {
	Seen(ctx context.Context, provider, clientID, requestID string, retention time.Duration) (bool, error)
}

// RedisDedup backs the dedup check with SET NX + TTL so the window survives
// restarts and is shared across gateway replicas.
type RedisDedup struct {
	client *redis.Client
}

func NewRedisDedup(client *redis.Client) *RedisDedup {
	return &RedisDedup{client: client}
}

func (d *RedisDedup) Seen(ctx context.Context, provider, clientID, requestID string, retention time.Duration) (bool, error) {
	key := "hookbridge:dedup:" + provider + ":" + clientID + ":" + requestID
	set, err := d.client.SetNX(ctx, key, 1, retention).Result()
	if err != nil {
		return false, err
	}
	return !set, nil
}

// MemoryDedup is the single-process fallback. A janitor goroutine sweeps
// expired ids so the map stays bounded.
type MemoryDedup struct {
	mu   sync.Mutex
	seen map[string]time.Time // id -> expiry
	done chan struct{}
	once sync.Once
}

func NewMemoryDedup() *MemoryDedup {
	d := &MemoryDedup{
		seen: make(map[string]time.Time),
		done: make(chan struct{}),
	}
	go d.janitor()
	return d
}

func (d *MemoryDedup) Seen(_ context.Context, provider, clientID, requestID string, retention time.Duration) (bool, error) {
	key := provider + ":" + clientID + ":" + requestID
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()
	if exp, ok := d.seen[key]; ok && exp.After(now) {
		return true, nil
	}
	d.seen[key] = now.Add(retention)
	return false, nil
}

// Close stops the janitor.
func (d *MemoryDedup) Close() {
	d.once.Do(func() { close(d.done) })
}

func (d *MemoryDedup) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-d.done:
			return
		case now := <-ticker.C:
			d.mu.Lock()
			for key, exp := range d.seen {
				if exp.Before(now) {
					delete(d.seen, key)
				}
			}
			d.mu.Unlock()
		}
	}
}
