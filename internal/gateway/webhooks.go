package gateway

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/dineflow/hookbridge/internal/event"
	"github.com/dineflow/hookbridge/internal/metrics"
	"github.com/dineflow/hookbridge/internal/provider"
	"github.com/dineflow/hookbridge/internal/tracing"
	"github.com/dineflow/hookbridge/internal/validator"
)

// ack is one provider's response vocabulary. Each provider's platform
// expects its own body shape back, so these are deliberately not unified.
type ack struct {
	received     string
	unauthorized string
}

var acks = map[provider.Provider]ack{
	provider.Careem:    {received: `{"status":"received"}`, unauthorized: `{"status":"unauthorized"}`},
	provider.Deliveroo: {received: `{"success":true}`, unauthorized: `{"success":false,"error":"unauthorized"}`},
	provider.Talabat:   {received: `{"result":"ok"}`, unauthorized: `{"result":"unauthorized"}`},
	provider.Jahez:     {received: `{"success":true}`, unauthorized: `{"success":false}`},
}

// handleWebhook validates and acknowledges one inbound provider webhook.
// The ack never waits on normalization or delivery; those run detached.
func (g *Gateway) handleWebhook(w http.ResponseWriter, r *http.Request) {
	p, err := provider.Parse(chi.URLParam(r, "provider"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, `{"error":"unknown provider"}`)
		return
	}
	clientID := chi.URLParam(r, "clientID")

	ctx, span := tracing.StartSpan(r.Context(), "gateway.webhook",
		attribute.String("provider", p.String()),
		attribute.String("client_id", clientID),
	)
	defer span.End()

	body, err := io.ReadAll(io.LimitReader(r.Body, g.maxBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, `{"error":"unreadable body"}`)
		return
	}
	metrics.RecordWebhookReceived(p.String())

	res := g.validator.Validate(ctx, p, validator.Request{
		ClientID: clientID,
		Headers:  r.Header,
		Body:     body,
		RemoteIP: r.RemoteAddr,
		Now:      time.Now(),
	})

	eventID := uuid.NewString()
	if g.sink != nil {
		g.sink.RecordInbound(ctx, p, clientID, eventID, res.Accepted, res.Reason)
	}

	if !res.Accepted {
		writeJSON(w, http.StatusUnauthorized, acks[p].unauthorized)
		return
	}

	in := &event.Inbound{
		ID:         eventID,
		Provider:   p,
		ClientID:   clientID,
		EventType:  r.Header.Get("X-Event-Type"),
		RawPayload: body,
		Headers:    r.Header.Clone(),
		ReceivedAt: time.Now().UTC(),
	}
	// The provider gets its ack now; normalization and delivery continue
	// detached from the request lifetime.
	go g.dispatcher.Dispatch(context.WithoutCancel(ctx), in)

	writeJSON(w, http.StatusOK, acks[p].received)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
