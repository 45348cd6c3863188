package dispatch

import (
	"github.com/dineflow/hookbridge/internal/event"
	"github.com/dineflow/hookbridge/internal/provider"
)

var careemActions = map[string]string{
	"order_created":       event.ActionOrderCreated,
	"order_placed":        event.ActionOrderCreated,
	"order_updated":       event.ActionOrderUpdated,
	"order_status_update": event.ActionOrderUpdated,
	"order_cancelled":     event.ActionOrderCancelled,
	"order_canceled":      event.ActionOrderCancelled,
	"order_delivered":     event.ActionOrderDelivered,
	"menu_updated":        event.ActionMenuUpdated,
	"item_availability":   event.ActionAvailabilityChanged,
	"ping":                event.ActionConnectionTest,
	"connection_test":     event.ActionConnectionTest,
}

func registerCareem(d *Dispatcher) {
	for _, action := range []string{
		event.ActionOrderCreated,
		event.ActionOrderUpdated,
		event.ActionOrderCancelled,
		event.ActionOrderDelivered,
	} {
		d.register(provider.Careem, action, careemOrder)
	}
	d.register(provider.Careem, event.ActionMenuUpdated, careemMenu)
	d.register(provider.Careem, event.ActionAvailabilityChanged, careemMenu)
}

// careemOrder maps a careem order payload onto the canonical shape. Careem
// nests the order under "order" on newer event types and inlines it on older
// ones, so every field is tried both ways.
func careemOrder(_ *event.Inbound, payload map[string]any) *event.Canonical {
	c := &event.Canonical{
		OrderID:  event.FirstString(payload, "order.id", "order_id", "orderId", "id"),
		Status:   event.FirstString(payload, "order.status", "status", "order_status"),
		Currency: event.FirstString(payload, "order.currency", "currency", "price.currency"),
		Subtotal: event.FirstNumber(payload, "order.subtotal", "subtotal", "price.subtotal"),
		Total:    event.FirstNumber(payload, "order.total", "total", "price.total", "total_price"),
	}
	if cust := event.FirstMap(payload, "order.customer", "customer"); cust != nil {
		c.Customer = &event.Customer{
			Name:    event.FirstString(cust, "name", "full_name"),
			Phone:   event.FirstString(cust, "phone", "phone_number", "mobile"),
			Address: event.FirstString(cust, "address", "delivery_address"),
		}
	}
	for _, raw := range event.FirstSlice(payload, "order.items", "items", "order_items") {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		c.Items = append(c.Items, event.LineItem{
			Name:      event.FirstString(item, "name", "title"),
			SKU:       event.FirstString(item, "sku", "id", "item_id"),
			Quantity:  int(event.FirstNumber(item, "quantity", "qty", "count")),
			UnitPrice: event.FirstNumber(item, "unit_price", "price"),
			Total:     event.FirstNumber(item, "total", "total_price"),
		})
	}
	return c
}

func careemMenu(_ *event.Inbound, payload map[string]any) *event.Canonical {
	return &event.Canonical{
		OrderID: event.FirstString(payload, "menu_id", "item_id", "id"),
		Status:  event.FirstString(payload, "availability", "status"),
	}
}
