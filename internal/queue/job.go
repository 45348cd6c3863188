package queue

import (
	"time"
)

// Priority orders competing due items: critical and high drain before normal
// and low, regardless of how long the others have waited.
type Priority int

const (
	PriorityCritical Priority = iota
	PriorityHigh
	PriorityNormal
	PriorityLow
)

var priorityNames = map[Priority]string{
	PriorityCritical: "critical",
	PriorityHigh:     "high",
	PriorityNormal:   "normal",
	PriorityLow:      "low",
}

func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return "normal"
}

// ParsePriority maps an API string to a Priority, defaulting to normal.
func ParsePriority(s string) Priority {
	for p, name := range priorityNames {
		if name == s {
			return p
		}
	}
	return PriorityNormal
}

// Job is one outbound delivery series. ID doubles as the idempotency key
// across every retry of the series.
type Job struct {
	ID              string            `json:"id"`
	TargetURL       string            `json:"target_url"`
	Method          string            `json:"method"`
	Headers         map[string]string `json:"headers,omitempty"`
	Body            []byte            `json:"body"`
	OwnerID         string            `json:"owner_id"`
	OriginalEventID string            `json:"original_event_id,omitempty"`
}

// RetryConfig governs one job's retry series. Immutable for the lifetime of
// the series.
type RetryConfig struct {
	MaxRetries        int           `json:"max_retries"`
	BaseDelay         time.Duration `json:"base_delay"`
	MaxDelay          time.Duration `json:"max_delay"`
	Multiplier        float64       `json:"multiplier"`
	Jitter            time.Duration `json:"jitter"`
	DeadLetterEnabled bool          `json:"dead_letter_enabled"`
}

// Item is one entry in the retry index. Exactly one exists per job id;
// AttemptCount only grows, and NextRetryAt is always in the future relative
// to the item's last write.
type Item struct {
	JobID        string      `json:"job_id"`
	Job          *Job        `json:"job"`
	AttemptCount int         `json:"attempt_count"`
	NextRetryAt  time.Time   `json:"next_retry_at"`
	CreatedAt    time.Time   `json:"created_at"`
	LastError    string      `json:"last_error,omitempty"`
	Priority     Priority    `json:"priority"`
	Config       RetryConfig `json:"config"`
}

// DeadLetter is the terminal record of an exhausted or terminally failed
// series. Append-only; purged after the retention window.
type DeadLetter struct {
	JobID        string    `json:"job_id"`
	Job          *Job      `json:"job"`
	AttemptCount int       `json:"attempt_count"`
	LastError    string    `json:"last_error,omitempty"`
	HTTPStatus   int       `json:"http_status,omitempty"`
	Reason       string    `json:"reason"`
	Priority     Priority  `json:"priority"`
	CreatedAt    time.Time `json:"created_at"` // first failure of the series
	DeadAt       time.Time `json:"dead_lettered_at"`
}

// Stats is the aggregate queue view exposed to the admin API.
type Stats struct {
	Retrying    int            `json:"retrying"`
	InFlight    int            `json:"in_flight"`
	DeadLetters int            `json:"dead_letters"`
	ByPriority  map[string]int `json:"by_priority"`
	Delivered   uint64         `json:"delivered"`
	Failed      uint64         `json:"failed"`
	Dropped     uint64         `json:"dropped"`
}
