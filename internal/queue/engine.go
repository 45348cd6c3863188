package queue

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dineflow/hookbridge/internal/logging"
	"github.com/dineflow/hookbridge/internal/metrics"
	"github.com/dineflow/hookbridge/internal/tracing"
)

// DeliveryError wraps a failed attempt's HTTP status so the retry path can
// classify it without re-reaching the network layer.
type DeliveryError struct {
	Status int
	Err    error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("unexpected status %d", e.Status)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// AttemptRecord is the per-attempt audit row handed to the log sink.
type AttemptRecord struct {
	JobID      string
	OwnerID    string
	EventID    string
	Attempt    int
	Outcome    string // delivered, failed, dead, dropped
	HTTPStatus int
	Error      string
	LatencyMS  int64
	At         time.Time
}

// AttemptRecorder receives every attempt outcome. Implemented by the log
// sink; failures there never propagate into queue state.
type AttemptRecorder interface {
	RecordAttempt(ctx context.Context, rec AttemptRecord)
}

// DeadLetterPublisher mirrors exhausted jobs onto an external topic.
type DeadLetterPublisher interface {
	Publish(ctx context.Context, dl *DeadLetter) error
}

// Options configure an Engine. Zero values fall back to the documented
// defaults.
type Options struct {
	Defaults        RetryConfig
	SweepInterval   time.Duration
	BatchSize       int
	DeliveryTimeout time.Duration
	ReloadWindow    time.Duration
	DLQRetention    time.Duration
	Store           Store
	Recorder        AttemptRecorder     // optional
	DLQPublisher    DeadLetterPublisher // optional
	HTTPClient      *http.Client        // optional
}

// Engine owns all retry and dead-letter state. The in-memory indices are
// authoritative for the process lifetime; the Store is a durable mirror.
// Invariants: one Item per job id, at most one in-flight attempt per job id,
// and no lock held across network I/O.
type Engine struct {
	mu       sync.Mutex
	items    map[string]*Item
	inflight map[string]bool
	dead     []*DeadLetter

	delivered atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64

	opts   Options
	client *http.Client
	log    *logging.Logger
	now    func() time.Time
}

// NewEngine creates an idle engine; call Run to start the sweeps.
func NewEngine(opts Options) *Engine {
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = 30 * time.Second
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 5
	}
	if opts.DeliveryTimeout <= 0 {
		opts.DeliveryTimeout = 30 * time.Second
	}
	if opts.ReloadWindow <= 0 {
		opts.ReloadWindow = 24 * time.Hour
	}
	if opts.DLQRetention <= 0 {
		opts.DLQRetention = 7 * 24 * time.Hour
	}
	if opts.Store == nil {
		opts.Store = NopStore{}
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.DeliveryTimeout}
	}
	return &Engine{
		items:    make(map[string]*Item),
		inflight: make(map[string]bool),
		opts:     opts,
		client:   client,
		log:      logging.New("queue"),
		now:      time.Now,
	}
}

// Submit attempts immediate delivery of a new job; on failure the job enters
// the retry path. Submitting a job id that is already queued or in flight is
// a no-op, which keeps duplicate submissions from creating parallel series.
func (e *Engine) Submit(ctx context.Context, job *Job, prio Priority) {
	e.mu.Lock()
	if e.inflight[job.ID] || e.items[job.ID] != nil {
		e.mu.Unlock()
		e.log.WithContext(ctx).WithJob(job.ID).Debug("duplicate submit ignored")
		return
	}
	e.inflight[job.ID] = true
	e.mu.Unlock()

	// The inbound request never waits on delivery; detach from its
	// cancellation but keep trace context.
	go e.attempt(context.WithoutCancel(ctx), job, prio, e.opts.Defaults)
}

// QueueForRetry records a failed attempt: it reschedules the job with the
// next backoff delay, or dead-letters it when the series is exhausted.
func (e *Engine) QueueForRetry(ctx context.Context, job *Job, lastErr error, prio Priority, cfg *RetryConfig) {
	config := e.opts.Defaults
	if cfg != nil {
		config = *cfg
	}
	now := e.now()

	e.mu.Lock()
	attempts, createdAt := 0, now
	if existing := e.items[job.ID]; existing != nil {
		attempts = existing.AttemptCount
		createdAt = existing.CreatedAt
		prio = existing.Priority
		config = existing.Config // config is immutable for the series
	}
	next := attempts + 1
	if next > config.MaxRetries {
		dl := e.killLocked(job, attempts, lastErr, prio, createdAt, config, "retries exhausted")
		e.mu.Unlock()
		e.afterKill(ctx, dl, job, config)
		return
	}
	delay := nextDelay(next, config)
	item := &Item{
		JobID:        job.ID,
		Job:          job,
		AttemptCount: next,
		NextRetryAt:  now.Add(delay),
		CreatedAt:    createdAt,
		LastError:    errString(lastErr),
		Priority:     prio,
		Config:       config,
	}
	e.items[job.ID] = item
	delete(e.inflight, job.ID)
	e.updateDepthLocked()
	e.mu.Unlock()

	e.mirror(ctx, item)
	reason := classifyReason(unwrapDelivery(lastErr))
	metrics.RecordRetry(reason)
	e.log.WithContext(ctx).WithJob(job.ID).WithFields(map[string]any{
		"attempt": next,
		"delay":   delay.String(),
		"reason":  reason,
	}).Info("delivery scheduled for retry")
}

// ProcessDue dispatches every item whose retry time has arrived and that is
// not already in flight: critical and high priority first, then oldest retry
// time first, in bounded concurrent batches so one hung endpoint delays only
// its own batch.
func (e *Engine) ProcessDue(ctx context.Context) {
	now := e.now()

	e.mu.Lock()
	var due []*Item
	for id, item := range e.items {
		if e.inflight[id] || item.NextRetryAt.After(now) {
			continue
		}
		due = append(due, item)
	}
	// Claim before unlocking so a concurrent sweep or manual retry skips them.
	for _, item := range due {
		e.inflight[item.JobID] = true
	}
	e.mu.Unlock()

	if len(due) == 0 {
		return
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].Priority != due[j].Priority {
			return due[i].Priority < due[j].Priority
		}
		return due[i].NextRetryAt.Before(due[j].NextRetryAt)
	})

	for start := 0; start < len(due); start += e.opts.BatchSize {
		end := start + e.opts.BatchSize
		if end > len(due) {
			end = len(due)
		}
		var wg sync.WaitGroup
		for _, item := range due[start:end] {
			wg.Add(1)
			go func(item *Item) {
				defer wg.Done()
				e.attempt(ctx, item.Job, item.Priority, item.Config)
			}(item)
		}
		wg.Wait()
	}
}

// Retry triggers an out-of-band attempt for a queued job. Returns false when
// the job is unknown or an attempt is already in flight.
func (e *Engine) Retry(ctx context.Context, jobID string) bool {
	e.mu.Lock()
	item, ok := e.items[jobID]
	if !ok || e.inflight[jobID] {
		e.mu.Unlock()
		return false
	}
	e.inflight[jobID] = true
	e.mu.Unlock()

	go e.attempt(context.WithoutCancel(ctx), item.Job, item.Priority, item.Config)
	return true
}

// Run drives the scheduled sweep and the dead-letter purge until the context
// is cancelled. Sweeps run detached so a slow batch never blocks the timer.
func (e *Engine) Run(ctx context.Context) {
	sweep := time.NewTicker(e.opts.SweepInterval)
	defer sweep.Stop()
	purge := time.NewTicker(time.Hour)
	defer purge.Stop()

	e.log.Plain().WithField("sweep_interval", e.opts.SweepInterval.String()).Info("queue engine started")
	for {
		select {
		case <-ctx.Done():
			e.log.Plain().Info("queue engine stopped")
			return
		case <-sweep.C:
			go e.ProcessDue(ctx)
		case <-purge.C:
			e.purgeDeadLetters(ctx)
		}
	}
}

// Reload restores unexpired retry items from the durable mirror so a restart
// does not lose in-flight retries.
func (e *Engine) Reload(ctx context.Context) error {
	since := e.now().Add(-e.opts.ReloadWindow)
	items, err := e.opts.Store.LoadActive(ctx, since)
	if err != nil {
		return fmt.Errorf("load retry queue: %w", err)
	}
	e.mu.Lock()
	for _, item := range items {
		if _, exists := e.items[item.JobID]; !exists {
			e.items[item.JobID] = item
		}
	}
	e.updateDepthLocked()
	e.mu.Unlock()
	e.log.Plain().WithField("items", len(items)).Info("retry queue reloaded")
	return nil
}

// List returns every queued item ordered by next retry time.
func (e *Engine) List() []*Item {
	return e.list(func(*Item) bool { return true })
}

// ListByOwner returns the queued items belonging to one owner.
func (e *Engine) ListByOwner(ownerID string) []*Item {
	return e.list(func(it *Item) bool { return it.Job != nil && it.Job.OwnerID == ownerID })
}

// ListByPriority returns the queued items at one priority.
func (e *Engine) ListByPriority(p Priority) []*Item {
	return e.list(func(it *Item) bool { return it.Priority == p })
}

// DeadLetters returns a snapshot of the dead-letter index.
func (e *Engine) DeadLetters() []*DeadLetter {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*DeadLetter, len(e.dead))
	copy(out, e.dead)
	return out
}

// Stats returns aggregate queue counts.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	byPriority := make(map[string]int)
	for _, item := range e.items {
		byPriority[item.Priority.String()]++
	}
	st := Stats{
		Retrying:    len(e.items),
		InFlight:    len(e.inflight),
		DeadLetters: len(e.dead),
		ByPriority:  byPriority,
	}
	e.mu.Unlock()

	st.Delivered = e.delivered.Load()
	st.Failed = e.failed.Load()
	st.Dropped = e.dropped.Load()
	return st
}

// --- internals ---

func (e *Engine) list(keep func(*Item) bool) []*Item {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []*Item
	for _, item := range e.items {
		if keep(item) {
			cp := *item
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextRetryAt.Before(out[j].NextRetryAt) })
	return out
}

// attempt performs one outbound delivery. The caller must have claimed the
// job id in the inflight set.
func (e *Engine) attempt(ctx context.Context, job *Job, prio Priority, cfg RetryConfig) {
	ctx, span := tracing.StartSpan(ctx, "queue.deliver",
		attribute.String("job_id", job.ID),
		attribute.String("owner_id", job.OwnerID),
		attribute.String("priority", prio.String()),
	)
	defer span.End()

	// Attempt number of this try: 0 for the initial submit, the retry count
	// otherwise. Snapshotted before the network call; no lock is held during it.
	e.mu.Lock()
	attemptNo := 0
	if existing := e.items[job.ID]; existing != nil {
		attemptNo = existing.AttemptCount
	}
	e.mu.Unlock()

	metrics.InFlightDeliveries.Inc()
	start := e.now()
	status, err := e.deliver(ctx, job)
	latency := time.Since(start)
	metrics.InFlightDeliveries.Dec()

	span.SetAttributes(
		attribute.Int("http.status_code", status),
		attribute.Int64("http.latency_ms", latency.Milliseconds()),
	)

	if err == nil && status >= 200 && status < 300 {
		e.finish(ctx, job, attemptNo, status, latency)
		return
	}

	tracing.SetSpanError(ctx, err)
	e.failed.Add(1)
	metrics.RecordDelivery("failed")
	e.record(ctx, job, attemptNo, attemptOutcome{outcome: "failed", status: status, err: err, latency: latency})

	derr := &DeliveryError{Status: status, Err: err}
	if retryable(err, status) {
		e.QueueForRetry(ctx, job, derr, prio, &cfg)
		return
	}

	// Terminal response: straight to the dead-letter index, no retry.
	e.mu.Lock()
	attempts, createdAt := 0, e.now()
	if existing := e.items[job.ID]; existing != nil {
		attempts = existing.AttemptCount
		createdAt = existing.CreatedAt
		prio = existing.Priority
		cfg = existing.Config
	}
	dl := e.killLocked(job, attempts, derr, prio, createdAt, cfg, "non-retryable response")
	e.mu.Unlock()
	e.afterKill(ctx, dl, job, cfg)
}

// deliver issues the outbound HTTP call. No engine lock is held here.
func (e *Engine) deliver(ctx context.Context, job *Job) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.DeliveryTimeout)
	defer cancel()

	method := job.Method
	if method == "" {
		method = http.MethodPost
	}
	req, err := http.NewRequestWithContext(ctx, method, job.TargetURL, bytes.NewReader(job.Body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range job.Headers {
		req.Header.Set(k, v)
	}
	if traceID := tracing.GetTraceID(ctx); traceID != "" {
		req.Header.Set("X-Trace-Id", traceID)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return 0, err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}

func (e *Engine) finish(ctx context.Context, job *Job, attemptNo, status int, latency time.Duration) {
	e.mu.Lock()
	delete(e.items, job.ID)
	delete(e.inflight, job.ID)
	e.updateDepthLocked()
	e.mu.Unlock()

	if err := e.opts.Store.RemoveItem(ctx, job.ID); err != nil {
		e.log.WithContext(ctx).WithJob(job.ID).WithError(err).Error("mirror remove failed")
	}
	e.delivered.Add(1)
	metrics.RecordDelivery("delivered")
	e.record(ctx, job, attemptNo, attemptOutcome{outcome: "delivered", status: status, latency: latency})
	e.log.WithContext(ctx).WithJob(job.ID).WithField("http_status", status).Info("delivered")
}

// killLocked moves a job from the retry index into the dead-letter index in
// one critical section, so the job is never present in both. Caller holds mu.
func (e *Engine) killLocked(job *Job, attempts int, lastErr error, prio Priority, createdAt time.Time, cfg RetryConfig, reason string) *DeadLetter {
	delete(e.items, job.ID)
	delete(e.inflight, job.ID)
	e.updateDepthLocked()

	dl := &DeadLetter{
		JobID:        job.ID,
		Job:          job,
		AttemptCount: attempts,
		LastError:    errString(lastErr),
		HTTPStatus:   statusOf(lastErr),
		Reason:       reason,
		Priority:     prio,
		CreatedAt:    createdAt,
		DeadAt:       e.now(),
	}
	if cfg.DeadLetterEnabled {
		e.dead = append(e.dead, dl)
	}
	return dl
}

// afterKill performs the I/O half of dead-lettering outside the lock.
func (e *Engine) afterKill(ctx context.Context, dl *DeadLetter, job *Job, cfg RetryConfig) {
	if err := e.opts.Store.RemoveItem(ctx, job.ID); err != nil {
		e.log.WithContext(ctx).WithJob(job.ID).WithError(err).Error("mirror remove failed")
	}

	if !cfg.DeadLetterEnabled {
		e.dropped.Add(1)
		e.record(ctx, job, dl.AttemptCount, attemptOutcome{outcome: "dropped", status: dl.HTTPStatus})
		e.log.WithContext(ctx).WithJob(job.ID).WithFields(map[string]any{
			"attempts":   dl.AttemptCount,
			"reason":     dl.Reason,
			"last_error": dl.LastError,
		}).Warn("job dropped, dead-lettering disabled")
		return
	}

	if err := e.opts.Store.AppendDeadLetter(ctx, dl); err != nil {
		e.log.WithContext(ctx).WithJob(job.ID).WithError(err).Error("mirror dead-letter failed")
	}
	if e.opts.DLQPublisher != nil {
		if err := e.opts.DLQPublisher.Publish(ctx, dl); err != nil {
			e.log.WithContext(ctx).WithJob(job.ID).WithError(err).Error("dlq publish failed")
		}
	}
	metrics.RecordDLQ()
	e.record(ctx, job, dl.AttemptCount, attemptOutcome{outcome: "dead", status: dl.HTTPStatus})
	e.log.WithContext(ctx).WithJob(job.ID).WithFields(map[string]any{
		"attempts":   dl.AttemptCount,
		"reason":     dl.Reason,
		"last_error": dl.LastError,
	}).Warn("job dead-lettered")
}

func (e *Engine) purgeDeadLetters(ctx context.Context) {
	cutoff := e.now().Add(-e.opts.DLQRetention)

	e.mu.Lock()
	kept := e.dead[:0]
	removed := 0
	for _, dl := range e.dead {
		if dl.DeadAt.After(cutoff) {
			kept = append(kept, dl)
		} else {
			removed++
		}
	}
	e.dead = kept
	e.mu.Unlock()

	purged, err := e.opts.Store.PurgeDeadLetters(ctx, cutoff)
	if err != nil {
		e.log.WithContext(ctx).WithError(err).Error("dead-letter purge failed")
	}
	if removed > 0 || purged > 0 {
		e.log.WithContext(ctx).WithFields(map[string]any{
			"memory": removed,
			"store":  purged,
		}).Info("dead letters purged")
	}
}

func (e *Engine) mirror(ctx context.Context, item *Item) {
	if err := e.opts.Store.UpsertItem(ctx, item); err != nil {
		// In-memory state stays authoritative; a mirror hiccup must not fail
		// the request path.
		e.log.WithContext(ctx).WithJob(item.JobID).WithError(err).Error("mirror upsert failed")
	}
}

type attemptOutcome struct {
	outcome string
	status  int
	err     error
	latency time.Duration
}

func (e *Engine) record(ctx context.Context, job *Job, attempt int, out attemptOutcome) {
	if e.opts.Recorder == nil {
		return
	}
	e.opts.Recorder.RecordAttempt(ctx, AttemptRecord{
		JobID:      job.ID,
		OwnerID:    job.OwnerID,
		EventID:    job.OriginalEventID,
		Attempt:    attempt,
		Outcome:    out.outcome,
		HTTPStatus: out.status,
		Error:      errString(out.err),
		LatencyMS:  out.latency.Milliseconds(),
		At:         e.now(),
	})
}

func (e *Engine) updateDepthLocked() {
	metrics.RetryQueueDepth.Set(float64(len(e.items)))
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func statusOf(err error) int {
	var derr *DeliveryError
	if errors.As(err, &derr) {
		return derr.Status
	}
	return 0
}

func unwrapDelivery(err error) (error, int) {
	var derr *DeliveryError
	if errors.As(err, &derr) {
		return derr.Err, derr.Status
	}
	return err, 0
}
