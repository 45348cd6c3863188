package dispatch

import (
	"github.com/dineflow/hookbridge/internal/event"
	"github.com/dineflow/hookbridge/internal/provider"
)

var deliverooActions = map[string]string{
	"order_created":        event.ActionOrderCreated,
	"order_new":            event.ActionOrderCreated,
	"new_order":            event.ActionOrderCreated,
	"order_status_update":  event.ActionOrderUpdated,
	"order_updated":        event.ActionOrderUpdated,
	"order_cancelled":      event.ActionOrderCancelled,
	"order_rejected":       event.ActionOrderCancelled,
	"order_delivered":      event.ActionOrderDelivered,
	"order_completed":      event.ActionOrderDelivered,
	"menu_published":       event.ActionMenuUpdated,
	"menu_updated":         event.ActionMenuUpdated,
	"site_availability":    event.ActionAvailabilityChanged,
	"availability_changed": event.ActionAvailabilityChanged,
	"webhook_test":         event.ActionConnectionTest,
}

func registerDeliveroo(d *Dispatcher) {
	for _, action := range []string{
		event.ActionOrderCreated,
		event.ActionOrderUpdated,
		event.ActionOrderCancelled,
		event.ActionOrderDelivered,
	} {
		d.register(provider.Deliveroo, action, deliverooOrder)
	}
	d.register(provider.Deliveroo, event.ActionMenuUpdated, deliverooMenu)
	d.register(provider.Deliveroo, event.ActionAvailabilityChanged, deliverooMenu)
}

// deliverooOrder maps a deliveroo order payload. Deliveroo wraps the order in
// "body.order" on v2 webhooks and in "order" on v1.
func deliverooOrder(_ *event.Inbound, payload map[string]any) *event.Canonical {
	order := event.FirstMap(payload, "body.order", "order")
	if order == nil {
		order = payload
	}
	c := &event.Canonical{
		OrderID:  event.FirstString(order, "id", "order_id", "display_id"),
		Status:   event.FirstString(order, "status", "state"),
		Currency: event.FirstString(order, "currency", "total_price.currency"),
		Subtotal: event.FirstNumber(order, "subtotal.fractional", "subtotal"),
		Total:    event.FirstNumber(order, "total_price.fractional", "total_price", "total"),
	}
	if cust := event.FirstMap(order, "customer", "consumer"); cust != nil {
		c.Customer = &event.Customer{
			Name:    event.FirstString(cust, "first_name", "name"),
			Phone:   event.FirstString(cust, "contact_number", "phone"),
			Address: event.FirstString(cust, "address", "contact_address"),
		}
	}
	for _, raw := range event.FirstSlice(order, "items", "line_items") {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		c.Items = append(c.Items, event.LineItem{
			Name:      event.FirstString(item, "name"),
			SKU:       event.FirstString(item, "pos_item_id", "id"),
			Quantity:  int(event.FirstNumber(item, "quantity")),
			UnitPrice: event.FirstNumber(item, "unit_price.fractional", "unit_price"),
			Total:     event.FirstNumber(item, "total_price.fractional", "total_price"),
		})
	}
	return c
}

func deliverooMenu(_ *event.Inbound, payload map[string]any) *event.Canonical {
	return &event.Canonical{
		OrderID: event.FirstString(payload, "menu_id", "site_id", "id"),
		Status:  event.FirstString(payload, "status", "availability"),
	}
}
