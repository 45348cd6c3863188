package event

import (
	"net/http"
	"time"

	"github.com/dineflow/hookbridge/internal/provider"
)

// Inbound is a webhook request that passed validation. Immutable from that
// point on; ClientID scopes every secret and gating rule that applied to it.
type Inbound struct {
	ID         string            `json:"id"`
	Provider   provider.Provider `json:"provider"`
	ClientID   string            `json:"client_id"`
	EventType  string            `json:"event_type"`
	RawPayload []byte            `json:"-"`
	Headers    http.Header       `json:"-"`
	ReceivedAt time.Time         `json:"received_at"`
}

// LineItem is one ordered product inside a canonical order event.
type LineItem struct {
	Name      string  `json:"name,omitempty"`
	SKU       string  `json:"sku,omitempty"`
	Quantity  int     `json:"quantity,omitempty"`
	UnitPrice float64 `json:"unit_price,omitempty"`
	Total     float64 `json:"total,omitempty"`
}

// Customer carries whatever contact fields the provider exposed.
type Customer struct {
	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// Canonical is the provider-independent event forwarded downstream. It is
// derived, never the system of record; OriginalPayload keeps the untouched
// provider body for audit.
type Canonical struct {
	EventID         string            `json:"event_id"`
	Provider        provider.Provider `json:"provider"`
	ClientID        string            `json:"client_id"`
	Action          string            `json:"action"`
	OrderID         string            `json:"order_id,omitempty"`
	Status          string            `json:"status,omitempty"`
	Customer        *Customer         `json:"customer,omitempty"`
	Items           []LineItem        `json:"items,omitempty"`
	Subtotal        float64           `json:"subtotal,omitempty"`
	Total           float64           `json:"total,omitempty"`
	Currency        string            `json:"currency,omitempty"`
	OccurredAt      time.Time         `json:"occurred_at,omitempty"`
	ReceivedAt      time.Time         `json:"received_at"`
	OriginalPayload map[string]any    `json:"original_payload,omitempty"`
}

// Coarse actions a provider event can normalize to.
const (
	ActionOrderCreated        = "order.created"
	ActionOrderUpdated        = "order.updated"
	ActionOrderCancelled      = "order.cancelled"
	ActionOrderDelivered      = "order.delivered"
	ActionMenuUpdated         = "menu.updated"
	ActionAvailabilityChanged = "availability.changed"
	ActionConnectionTest      = "connection.test"
)
