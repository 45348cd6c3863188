package validator

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/dineflow/hookbridge/internal/client"
)

// BearerToken authenticates providers that send a static bearer token
// (jahez-class). On top of the token match, the payload's request id must be
// unseen within the retention window: a replayed id is rejected even with a
// valid token.
type BearerToken struct {
	Dedup     DedupStore
	Retention time.Duration
}

func (s *BearerToken) Validate(ctx context.Context, cfg *client.Config, req Request) Result {
	auth := req.Headers.Get("Authorization")
	if auth == "" {
		return reject(ReasonMissingToken)
	}
	token := strings.TrimPrefix(auth, "Bearer ")
	if token == auth {
		return reject(ReasonMissingToken)
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(cfg.Secret)) != 1 {
		return reject(ReasonBadToken)
	}

	requestID, ok := payloadRequestID(req.Body)
	if !ok {
		return reject(ReasonMissingRequestID)
	}
	seen, err := s.Dedup.Seen(ctx, string(cfg.Provider), cfg.ClientID, requestID, s.Retention)
	if err != nil {
		// Dedup store outage must not turn valid traffic away; the token
		// already authenticated the caller.
		return accept()
	}
	if seen {
		return reject(ReasonDuplicateRequest)
	}
	return accept()
}

// payloadRequestID pulls the idempotency id out of the payload.
func payloadRequestID(body []byte) (string, bool) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", false
	}
	for _, key := range []string{"request_id", "requestId", "event_id", "id"} {
		if v, ok := payload[key].(string); ok && v != "" {
			return v, true
		}
		if v, ok := payload[key].(float64); ok {
			return strconv.FormatFloat(v, 'f', -1, 64), true
		}
	}
	return "", false
}
