// Package dispatch routes validated webhook events to a handler keyed by
// (provider, coarse action), maps the provider payload to a canonical event
// through the per-provider fallback tables, and hands the result to the
// delivery queue engine. No I/O retries happen here; dispatch returns as soon
// as the job is submitted and failures are picked up asynchronously by the
// engine.
package dispatch

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/dineflow/hookbridge/internal/client"
	"github.com/dineflow/hookbridge/internal/event"
	"github.com/dineflow/hookbridge/internal/logging"
	"github.com/dineflow/hookbridge/internal/metrics"
	"github.com/dineflow/hookbridge/internal/provider"
	"github.com/dineflow/hookbridge/internal/queue"
	"github.com/dineflow/hookbridge/internal/tracing"
)

// HandlerFunc maps one provider-shaped payload to a canonical event.
type HandlerFunc func(in *event.Inbound, payload map[string]any) *event.Canonical

type handlerKey struct {
	p      provider.Provider
	action string
}

// ForwardOptions name the headers stamped on outbound jobs.
type ForwardOptions struct {
	SignatureHeader string
	TimestampHeader string
}

// Dispatcher is the normalization pipeline between validation and delivery.
type Dispatcher struct {
	clients  client.Store
	engine   *queue.Engine
	handlers map[handlerKey]HandlerFunc
	fwd      ForwardOptions
	log      *logging.Logger
}

func New(clients client.Store, engine *queue.Engine, fwd ForwardOptions) *Dispatcher {
	d := &Dispatcher{
		clients:  clients,
		engine:   engine,
		handlers: make(map[handlerKey]HandlerFunc),
		fwd:      fwd,
		log:      logging.New("dispatch"),
	}
	registerCareem(d)
	registerDeliveroo(d)
	registerTalabat(d)
	registerJahez(d)
	return d
}

func (d *Dispatcher) register(p provider.Provider, action string, h HandlerFunc) {
	d.handlers[handlerKey{p: p, action: action}] = h
}

// Dispatch normalizes one validated event and submits the forwarding job.
// Unknown actions are logged and dropped; the inbound request was already
// acknowledged and must not fail because of them.
func (d *Dispatcher) Dispatch(ctx context.Context, in *event.Inbound) {
	ctx, span := tracing.StartSpan(ctx, "dispatch.event",
		attribute.String("provider", in.Provider.String()),
		attribute.String("client_id", in.ClientID),
		attribute.String("event_id", in.ID),
	)
	defer span.End()

	var payload map[string]any
	if err := json.Unmarshal(in.RawPayload, &payload); err != nil {
		metrics.RecordDropped(in.Provider.String(), "bad_payload")
		d.log.WithContext(ctx).WithProvider(in.Provider.String()).WithClient(in.ClientID).
			WithError(err).Warn("payload not JSON, event dropped")
		return
	}

	action := coarseAction(in.Provider, payload)
	if action == "" {
		metrics.RecordDropped(in.Provider.String(), "unknown_action")
		d.log.WithContext(ctx).WithProvider(in.Provider.String()).WithClient(in.ClientID).
			WithField("event_type", in.EventType).Warn("unknown action, event dropped")
		return
	}
	span.SetAttributes(attribute.String("action", action))

	if action == event.ActionConnectionTest {
		// Connection tests prove the route and credentials; nothing to forward.
		metrics.RecordNormalized(in.Provider.String(), action)
		d.log.WithContext(ctx).WithProvider(in.Provider.String()).WithClient(in.ClientID).
			Info("connection test received")
		return
	}

	handler, ok := d.handlers[handlerKey{p: in.Provider, action: action}]
	if !ok {
		metrics.RecordDropped(in.Provider.String(), "unknown_action")
		d.log.WithContext(ctx).WithProvider(in.Provider.String()).WithClient(in.ClientID).
			WithField("action", action).Warn("no handler registered, event dropped")
		return
	}

	canonical := handler(in, payload)
	canonical.EventID = in.ID
	canonical.Provider = in.Provider
	canonical.ClientID = in.ClientID
	canonical.Action = action
	canonical.ReceivedAt = in.ReceivedAt
	canonical.OriginalPayload = payload
	metrics.RecordNormalized(in.Provider.String(), action)

	cfg, err := d.clients.Get(ctx, in.Provider, in.ClientID)
	if err != nil {
		metrics.RecordDropped(in.Provider.String(), "no_client_config")
		d.log.WithContext(ctx).WithProvider(in.Provider.String()).WithClient(in.ClientID).
			WithError(err).Error("client config lookup failed, event dropped")
		return
	}
	if cfg.ForwardURL == "" {
		metrics.RecordDropped(in.Provider.String(), "no_forward_url")
		d.log.WithContext(ctx).WithProvider(in.Provider.String()).WithClient(in.ClientID).
			Warn("no forward URL configured, event dropped")
		return
	}
	if !cfg.Subscribed(action) {
		metrics.RecordDropped(in.Provider.String(), "not_subscribed")
		d.log.WithContext(ctx).WithProvider(in.Provider.String()).WithClient(in.ClientID).
			WithField("action", action).Debug("client not subscribed, event dropped")
		return
	}

	job, err := d.buildJob(canonical, cfg)
	if err != nil {
		metrics.RecordDropped(in.Provider.String(), "build_job")
		d.log.WithContext(ctx).WithProvider(in.Provider.String()).WithClient(in.ClientID).
			WithError(err).Error("job build failed, event dropped")
		return
	}
	d.engine.Submit(ctx, job, priorityFor(action))
}

// buildJob serializes the canonical event and signs the outbound body with
// the client's forwarding secret: sha256 over body||timestamp.
func (d *Dispatcher) buildJob(canonical *event.Canonical, cfg *client.Config) (*queue.Job, error) {
	body, err := json.Marshal(canonical)
	if err != nil {
		return nil, err
	}
	headers := map[string]string{}
	if cfg.ForwardSecret != "" {
		ts := strconv.FormatInt(time.Now().Unix(), 10)
		mac := hmac.New(sha256.New, []byte(cfg.ForwardSecret))
		mac.Write(body)
		mac.Write([]byte(ts))
		headers[d.fwd.SignatureHeader] = "sha256=" + hex.EncodeToString(mac.Sum(nil))
		headers[d.fwd.TimestampHeader] = ts
	}
	return &queue.Job{
		ID:              uuid.NewString(),
		TargetURL:       cfg.ForwardURL,
		Method:          http.MethodPost,
		Headers:         headers,
		Body:            body,
		OwnerID:         cfg.ClientID,
		OriginalEventID: canonical.EventID,
	}, nil
}

// priorityFor ranks actions for the retry sweep: order lifecycle ahead of
// catalog noise.
func priorityFor(action string) queue.Priority {
	switch action {
	case event.ActionOrderCreated, event.ActionOrderCancelled:
		return queue.PriorityHigh
	case event.ActionOrderUpdated, event.ActionOrderDelivered:
		return queue.PriorityNormal
	default:
		return queue.PriorityLow
	}
}

// coarseAction extracts the provider's own action vocabulary and maps it to
// the canonical action set. Each provider names the discriminator field
// differently; the candidate list covers all of them.
func coarseAction(p provider.Provider, payload map[string]any) string {
	raw := event.FirstString(payload, "event_type", "eventType", "event", "action", "type", "status")
	if raw == "" {
		return ""
	}
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer("-", "_", ".", "_", " ", "_").Replace(key)
	if table, ok := actionTables[p]; ok {
		if action, ok := table[key]; ok {
			return action
		}
	}
	return ""
}
