package validator

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"strconv"
	"time"

	"github.com/dineflow/hookbridge/internal/client"
)

// SharedKey authenticates providers that send their provisioned API key in a
// header (talabat-class). The key match alone is replayable, so the payload
// must also carry a timestamp inside the freshness window.
type SharedKey struct {
	Header    string
	Freshness time.Duration
}

func (s *SharedKey) Validate(_ context.Context, cfg *client.Config, req Request) Result {
	got := req.Headers.Get(s.Header)
	if got == "" {
		return reject(ReasonMissingAPIKey)
	}
	if subtle.ConstantTimeCompare([]byte(got), []byte(cfg.Secret)) != 1 {
		return reject(ReasonBadAPIKey)
	}

	ts, ok := payloadTimestamp(req.Body)
	if !ok {
		return reject(ReasonMissingTimestamp)
	}
	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}
	age := now.Sub(ts)
	if age < 0 {
		age = -age
	}
	if age > s.Freshness {
		return reject(ReasonStaleTimestamp)
	}
	return accept()
}

// payloadTimestamp pulls the event timestamp out of the payload, trying the
// field names providers actually use, accepting unix seconds, unix millis and
// RFC3339.
func payloadTimestamp(body []byte) (time.Time, bool) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return time.Time{}, false
	}
	for _, key := range []string{"timestamp", "event_time", "created_at", "time"} {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case float64:
			return fromUnix(int64(v)), true
		case string:
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				return t, true
			}
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				return fromUnix(n), true
			}
		}
	}
	return time.Time{}, false
}

// fromUnix treats values past the year-33000 mark in seconds as milliseconds.
func fromUnix(n int64) time.Time {
	if n > 1e12 {
		return time.UnixMilli(n)
	}
	return time.Unix(n, 0)
}
