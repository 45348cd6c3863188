package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dineflow/hookbridge/internal/provider"
)

func TestMemoryStoreGetPut(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	cfg := &Config{
		ClientID:   "restaurant-1",
		Provider:   provider.Careem,
		Secret:     "hmac-secret",
		ForwardURL: "https://pos.example.com/events",
		CreatedAt:  time.Now(),
	}

	if err := store.Put(ctx, cfg); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := store.Get(ctx, provider.Careem, "restaurant-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Secret != "hmac-secret" || got.ForwardURL != "https://pos.example.com/events" {
		t.Errorf("Get() returned wrong config: %+v", got)
	}

	// Returned config is a copy; mutating it must not affect the store.
	got.Secret = "tampered"
	again, err := store.Get(ctx, provider.Careem, "restaurant-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if again.Secret != "hmac-secret" {
		t.Error("Get() returned shared config instance, mutation leaked into store")
	}
}

func TestMemoryStoreGetNotFound(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx, provider.Jahez, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreSameClientIDAcrossProviders(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Put(ctx, &Config{ClientID: "restaurant-1", Provider: provider.Careem, Secret: "careem-secret"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := store.Put(ctx, &Config{ClientID: "restaurant-1", Provider: provider.Talabat, Secret: "talabat-key"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	careem, err := store.Get(ctx, provider.Careem, "restaurant-1")
	if err != nil {
		t.Fatalf("Get(careem) error = %v", err)
	}
	talabat, err := store.Get(ctx, provider.Talabat, "restaurant-1")
	if err != nil {
		t.Fatalf("Get(talabat) error = %v", err)
	}
	if careem.Secret != "careem-secret" || talabat.Secret != "talabat-key" {
		t.Error("configs for the same client ID on different providers collided")
	}
}

func TestMemoryStoreList(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for _, cfg := range []*Config{
		{ClientID: "r1", Provider: provider.Deliveroo},
		{ClientID: "r2", Provider: provider.Deliveroo},
		{ClientID: "r3", Provider: provider.Jahez},
	} {
		if err := store.Put(ctx, cfg); err != nil {
			t.Fatalf("Put(%s) error = %v", cfg.ClientID, err)
		}
	}

	got, err := store.List(ctx, provider.Deliveroo)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("List(deliveroo) returned %d configs, want 2", len(got))
	}

	empty, err := store.List(ctx, provider.Careem)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("List(careem) returned %d configs, want 0", len(empty))
	}
}

func TestConfigSubscribed(t *testing.T) {
	tests := []struct {
		name     string
		events   []string
		action   string
		expected bool
	}{
		{name: "empty list subscribes to everything", events: nil, action: "order.created", expected: true},
		{name: "listed action", events: []string{"order.created", "order.cancelled"}, action: "order.cancelled", expected: true},
		{name: "unlisted action", events: []string{"order.created"}, action: "menu.updated", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Events: tt.events}
			if got := cfg.Subscribed(tt.action); got != tt.expected {
				t.Errorf("Subscribed(%q) = %v, want %v", tt.action, got, tt.expected)
			}
		})
	}
}
