package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dineflow/hookbridge/internal/client"
	"github.com/dineflow/hookbridge/internal/dispatch"
	"github.com/dineflow/hookbridge/internal/provider"
	"github.com/dineflow/hookbridge/internal/queue"
	"github.com/dineflow/hookbridge/internal/validator"
)

func signHex(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func signBase64(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

type fixture struct {
	gateway *Gateway
	clients client.Store
	engine  *queue.Engine
	server  *httptest.Server
}

func newFixture(t *testing.T, configs ...*client.Config) *fixture {
	t.Helper()
	store := client.NewMemoryStore()
	for _, cfg := range configs {
		if err := store.Put(context.Background(), cfg); err != nil {
			t.Fatalf("Put(%s) error = %v", cfg.ClientID, err)
		}
	}
	dedup := validator.NewMemoryDedup()
	t.Cleanup(dedup.Close)
	v := validator.New(store, dedup, validator.Options{
		FreshnessWindow: 5 * time.Minute,
		DedupRetention:  time.Hour,
	})
	engine := queue.NewEngine(queue.Options{
		Defaults: queue.RetryConfig{MaxRetries: 1, MaxDelay: time.Second, Multiplier: 2.0},
	})
	d := dispatch.New(store, engine, dispatch.ForwardOptions{
		SignatureHeader: "X-Hookbridge-Signature",
		TimestampHeader: "X-Hookbridge-Timestamp",
	})
	g := New(Options{
		Validator:  v,
		Dispatcher: d,
		Clients:    store,
		Engine:     engine,
	})
	srv := httptest.NewServer(g.Router())
	t.Cleanup(srv.Close)
	return &fixture{gateway: g, clients: store, engine: engine, server: srv}
}

func (f *fixture) post(t *testing.T, path string, body []byte, headers map[string]string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, f.server.URL+path, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp, strings.TrimSpace(string(b))
}

func (f *fixture) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(f.server.URL + path)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp, strings.TrimSpace(string(b))
}

func TestWebhookAcceptedPerProvider(t *testing.T) {
	now := time.Now()
	secret := "provider-secret"

	tests := []struct {
		name     string
		p        provider.Provider
		body     []byte
		headers  func(body []byte) map[string]string
		wantBody string
	}{
		{
			name: "careem hex signature",
			p:    provider.Careem,
			body: []byte(`{"event_type":"order_created","order_id":"c-1"}`),
			headers: func(body []byte) map[string]string {
				return map[string]string{"X-Careem-Signature": signHex(secret, body)}
			},
			wantBody: `{"status":"received"}`,
		},
		{
			name: "deliveroo base64 signature",
			p:    provider.Deliveroo,
			body: []byte(`{"event":"order_new","body":{"order":{"id":"d-1"}}}`),
			headers: func(body []byte) map[string]string {
				return map[string]string{"X-Deliveroo-Hmac-Sha256": signBase64(secret, body)}
			},
			wantBody: `{"success":true}`,
		},
		{
			name: "talabat shared key",
			p:    provider.Talabat,
			body: []byte(fmt.Sprintf(`{"event_type":"new_order","timestamp":%d,"order":{"token":"t-1"}}`, now.Unix())),
			headers: func([]byte) map[string]string {
				return map[string]string{"X-Talabat-Api-Key": secret}
			},
			wantBody: `{"result":"ok"}`,
		},
		{
			name: "jahez bearer token",
			p:    provider.Jahez,
			body: []byte(`{"request_id":"req-1","status":"n","jahezOrderId":"j-1"}`),
			headers: func([]byte) map[string]string {
				return map[string]string{"Authorization": "Bearer " + secret}
			},
			wantBody: `{"success":true}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, &client.Config{
				ClientID: "r1", Provider: tt.p, Secret: secret,
			})

			resp, body := f.post(t, "/webhooks/"+tt.p.String()+"/r1", tt.body, tt.headers(tt.body))
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want 200 (body %s)", resp.StatusCode, body)
			}
			if body != tt.wantBody {
				t.Errorf("ack body = %s, want %s", body, tt.wantBody)
			}
			if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
		})
	}
}

func TestWebhookRejectedAckShape(t *testing.T) {
	tests := []struct {
		p        provider.Provider
		wantBody string
	}{
		{provider.Careem, `{"status":"unauthorized"}`},
		{provider.Deliveroo, `{"success":false,"error":"unauthorized"}`},
		{provider.Talabat, `{"result":"unauthorized"}`},
		{provider.Jahez, `{"success":false}`},
	}

	for _, tt := range tests {
		t.Run(tt.p.String(), func(t *testing.T) {
			f := newFixture(t, &client.Config{
				ClientID: "r1", Provider: tt.p, Secret: "secret",
			})

			// No credentials at all.
			resp, body := f.post(t, "/webhooks/"+tt.p.String()+"/r1", []byte(`{}`), nil)
			if resp.StatusCode != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", resp.StatusCode)
			}
			if body != tt.wantBody {
				t.Errorf("ack body = %s, want %s", body, tt.wantBody)
			}
		})
	}
}

func TestWebhookInvalidSignatureNotDispatched(t *testing.T) {
	var forwarded atomic.Int64
	downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		forwarded.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer downstream.Close()

	f := newFixture(t, &client.Config{
		ClientID: "r1", Provider: provider.Careem, Secret: "secret", ForwardURL: downstream.URL,
	})

	body := []byte(`{"event_type":"order_created","order_id":"c-1"}`)
	resp, _ := f.post(t, "/webhooks/careem/r1", body, map[string]string{
		"X-Careem-Signature": signHex("wrong-secret", body),
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}

	time.Sleep(100 * time.Millisecond)
	if forwarded.Load() != 0 {
		t.Error("rejected webhook was forwarded downstream")
	}
	if st := f.engine.Stats(); st.Retrying != 0 || st.Delivered != 0 {
		t.Errorf("rejected webhook reached the queue: %+v", st)
	}
}

func TestWebhookAcceptedIsForwarded(t *testing.T) {
	var forwarded atomic.Int64
	downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		forwarded.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer downstream.Close()

	f := newFixture(t, &client.Config{
		ClientID: "r1", Provider: provider.Careem, Secret: "secret", ForwardURL: downstream.URL,
	})

	body := []byte(`{"event_type":"order_created","order":{"id":"c-1"}}`)
	resp, _ := f.post(t, "/webhooks/careem/r1", body, map[string]string{
		"X-Careem-Signature": signHex("secret", body),
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	deadline := time.Now().Add(2 * time.Second)
	for forwarded.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if forwarded.Load() != 1 {
		t.Errorf("downstream received %d events, want 1", forwarded.Load())
	}
}

func TestWebhookUnknownProvider(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.post(t, "/webhooks/ubereats/r1", []byte(`{}`), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.get(t, "/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestAdminRetryUnknownJob(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.post(t, "/webhooks/retry/nope", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestAdminQueueStats(t *testing.T) {
	f := newFixture(t)

	resp, body := f.get(t, "/admin/queue/stats")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var st queue.Stats
	if err := json.Unmarshal([]byte(body), &st); err != nil {
		t.Fatalf("stats body not JSON: %v", err)
	}
	if st.Retrying != 0 || st.InFlight != 0 {
		t.Errorf("empty engine stats = %+v", st)
	}
}

func TestAdminQueueListEmpty(t *testing.T) {
	f := newFixture(t)

	resp, body := f.get(t, "/admin/queue")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var out struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		t.Fatalf("queue body not JSON: %v", err)
	}
	if out.Count != 0 {
		t.Errorf("count = %d, want 0", out.Count)
	}
}

func TestAdminClientLifecycle(t *testing.T) {
	f := newFixture(t)

	payload := `{"client_id":"r9","provider":"talabat","secret":"api-key","forward_url":"https://pos.example.com/events"}`
	resp, body := f.post(t, "/admin/clients", []byte(payload), map[string]string{"Content-Type": "application/json"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upsert status = %d, want 201 (body %s)", resp.StatusCode, body)
	}
	var created client.Config
	if err := json.Unmarshal([]byte(body), &created); err != nil {
		t.Fatalf("upsert response not JSON: %v", err)
	}
	if created.Secret != "" || created.ForwardSecret != "" {
		t.Error("credentials not redacted in the upsert response")
	}
	if created.CreatedAt.IsZero() {
		t.Error("CreatedAt not defaulted")
	}

	// Stored with the secret intact.
	stored, err := f.clients.Get(context.Background(), provider.Talabat, "r9")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.Secret != "api-key" {
		t.Errorf("stored secret = %q, want api-key", stored.Secret)
	}

	resp, body = f.get(t, "/admin/clients?provider=talabat")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d, want 200", resp.StatusCode)
	}
	var listed struct {
		Clients []*client.Config `json:"clients"`
		Count   int              `json:"count"`
	}
	if err := json.Unmarshal([]byte(body), &listed); err != nil {
		t.Fatalf("list response not JSON: %v", err)
	}
	if listed.Count != 1 || len(listed.Clients) != 1 {
		t.Fatalf("list count = %d, want 1", listed.Count)
	}
	if listed.Clients[0].Secret != "" {
		t.Error("secret not redacted in the list response")
	}
}

func TestAdminClientUpsertValidation(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "invalid JSON", payload: `{not json`},
		{name: "unknown provider", payload: `{"client_id":"r1","provider":"ubereats","secret":"s"}`},
		{name: "missing client id", payload: `{"provider":"careem","secret":"s"}`},
		{name: "missing secret", payload: `{"client_id":"r1","provider":"careem"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			resp, _ := f.post(t, "/admin/clients", []byte(tt.payload), nil)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestAdminClientListRequiresProvider(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.get(t, "/admin/clients")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestAdminDeadLettersEmpty(t *testing.T) {
	f := newFixture(t)

	resp, body := f.get(t, "/admin/dlq")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var out struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		t.Fatalf("dlq body not JSON: %v", err)
	}
	if out.Count != 0 {
		t.Errorf("count = %d, want 0", out.Count)
	}
}
