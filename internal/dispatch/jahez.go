package dispatch

import (
	"github.com/dineflow/hookbridge/internal/event"
	"github.com/dineflow/hookbridge/internal/provider"
)

var jahezActions = map[string]string{
	"order_created":        event.ActionOrderCreated,
	"new":                  event.ActionOrderCreated,
	"n":                    event.ActionOrderCreated,
	"order_updated":        event.ActionOrderUpdated,
	"accepted":             event.ActionOrderUpdated,
	"a":                    event.ActionOrderUpdated,
	"order_cancelled":      event.ActionOrderCancelled,
	"cancelled":            event.ActionOrderCancelled,
	"c":                    event.ActionOrderCancelled,
	"r":                    event.ActionOrderCancelled,
	"order_delivered":      event.ActionOrderDelivered,
	"delivered":            event.ActionOrderDelivered,
	"d":                    event.ActionOrderDelivered,
	"menu_updated":         event.ActionMenuUpdated,
	"product_availability": event.ActionAvailabilityChanged,
	"branch_status":        event.ActionAvailabilityChanged,
	"ping":                 event.ActionConnectionTest,
}

func registerJahez(d *Dispatcher) {
	for _, action := range []string{
		event.ActionOrderCreated,
		event.ActionOrderUpdated,
		event.ActionOrderCancelled,
		event.ActionOrderDelivered,
	} {
		d.register(provider.Jahez, action, jahezOrder)
	}
	d.register(provider.Jahez, event.ActionMenuUpdated, jahezMenu)
	d.register(provider.Jahez, event.ActionAvailabilityChanged, jahezMenu)
}

// jahez sends status updates as a bare {jahezOrderId, status} pair and
// full orders on creation, so every field here is optional.
func jahezOrder(_ *event.Inbound, payload map[string]any) *event.Canonical {
	c := &event.Canonical{
		OrderID:  event.FirstString(payload, "jahezOrderId", "jahez_order_id", "order_id", "id"),
		Status:   event.FirstString(payload, "status", "state"),
		Currency: event.FirstString(payload, "currency"),
		Subtotal: event.FirstNumber(payload, "price", "subtotal"),
		Total:    event.FirstNumber(payload, "final_price", "finalPrice", "total"),
	}
	if cust := event.FirstMap(payload, "customer", "client"); cust != nil {
		c.Customer = &event.Customer{
			Name:    event.FirstString(cust, "name"),
			Phone:   event.FirstString(cust, "phone", "mobile"),
			Address: event.FirstString(cust, "address"),
		}
	}
	for _, raw := range event.FirstSlice(payload, "products", "items") {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		c.Items = append(c.Items, event.LineItem{
			Name:      event.FirstString(item, "name", "product_name"),
			SKU:       event.FirstString(item, "product_id", "productId", "sku"),
			Quantity:  int(event.FirstNumber(item, "quantity")),
			UnitPrice: event.FirstNumber(item, "original_price", "price"),
			Total:     event.FirstNumber(item, "final_price", "total"),
		})
	}
	return c
}

func jahezMenu(_ *event.Inbound, payload map[string]any) *event.Canonical {
	return &event.Canonical{
		OrderID: event.FirstString(payload, "branch_id", "branchId", "product_id", "id"),
		Status:  event.FirstString(payload, "status", "availability"),
	}
}
