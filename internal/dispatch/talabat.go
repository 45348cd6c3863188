package dispatch

import (
	"github.com/dineflow/hookbridge/internal/event"
	"github.com/dineflow/hookbridge/internal/provider"
)

var talabatActions = map[string]string{
	"order_created":       event.ActionOrderCreated,
	"new_order":           event.ActionOrderCreated,
	"order_accepted":      event.ActionOrderUpdated,
	"order_updated":       event.ActionOrderUpdated,
	"order_status_change": event.ActionOrderUpdated,
	"order_cancelled":     event.ActionOrderCancelled,
	"order_canceled":      event.ActionOrderCancelled,
	"order_delivered":     event.ActionOrderDelivered,
	"order_picked_up":     event.ActionOrderDelivered,
	"catalog_updated":     event.ActionMenuUpdated,
	"menu_updated":        event.ActionMenuUpdated,
	"branch_availability": event.ActionAvailabilityChanged,
	"store_status":        event.ActionAvailabilityChanged,
	"test":                event.ActionConnectionTest,
	"ping":                event.ActionConnectionTest,
}

func registerTalabat(d *Dispatcher) {
	for _, action := range []string{
		event.ActionOrderCreated,
		event.ActionOrderUpdated,
		event.ActionOrderCancelled,
		event.ActionOrderDelivered,
	} {
		d.register(provider.Talabat, action, talabatOrder)
	}
	d.register(provider.Talabat, event.ActionMenuUpdated, talabatMenu)
	d.register(provider.Talabat, event.ActionAvailabilityChanged, talabatMenu)
}

func talabatOrder(_ *event.Inbound, payload map[string]any) *event.Canonical {
	order := event.FirstMap(payload, "order", "data")
	if order == nil {
		order = payload
	}
	c := &event.Canonical{
		OrderID:  event.FirstString(order, "token", "order_id", "orderId", "id", "short_code"),
		Status:   event.FirstString(order, "status", "order_status"),
		Currency: event.FirstString(order, "currency", "price.currency"),
		Subtotal: event.FirstNumber(order, "price.subtotal", "subtotal"),
		Total:    event.FirstNumber(order, "price.grand_total", "grand_total", "total"),
	}
	if cust := event.FirstMap(order, "customer"); cust != nil {
		c.Customer = &event.Customer{
			Name:    event.FirstString(cust, "name", "first_name"),
			Phone:   event.FirstString(cust, "mobile_phone", "phone"),
			Address: event.FirstString(cust, "delivery_address", "address"),
		}
	}
	for _, raw := range event.FirstSlice(order, "products", "items") {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		c.Items = append(c.Items, event.LineItem{
			Name:      event.FirstString(item, "name"),
			SKU:       event.FirstString(item, "remote_code", "sku", "id"),
			Quantity:  int(event.FirstNumber(item, "quantity")),
			UnitPrice: event.FirstNumber(item, "unit_price", "price"),
			Total:     event.FirstNumber(item, "total_price", "total"),
		})
	}
	return c
}

func talabatMenu(_ *event.Inbound, payload map[string]any) *event.Canonical {
	return &event.Canonical{
		OrderID: event.FirstString(payload, "catalog_id", "branch_id", "id"),
		Status:  event.FirstString(payload, "status", "availability_state"),
	}
}
