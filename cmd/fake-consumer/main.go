// fake-consumer is a local stand-in for a client's order system. It verifies
// the forwarded signature, optionally fails the first N requests to exercise
// the retry path, and prints each canonical event it receives.
package main

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dineflow/hookbridge/internal/config"
)

var reqCount atomic.Int64

func main() {
	full := config.FromEnv()
	cfg := full.FakeConsumer

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`{"ok":true}`)) })
	mux.HandleFunc("/events", handleEvents(full))

	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	log.Printf("fake-consumer listening on %s", cfg.Port)
	log.Fatal(srv.ListenAndServe())
}

func handleEvents(full config.Config) http.HandlerFunc {
	cfg := full.FakeConsumer
	leeway := time.Duration(cfg.LeewaySeconds) * time.Second
	return func(w http.ResponseWriter, r *http.Request) {
		n := reqCount.Add(1)
		b, _ := io.ReadAll(r.Body)
		defer r.Body.Close()

		if cfg.ForwardSecret != "" {
			ts := r.Header.Get(full.Forwarding.TimestampHeader)
			sig := r.Header.Get(full.Forwarding.SignatureHeader)
			if ok, msg := verifySignature(cfg.ForwardSecret, b, ts, sig, leeway); !ok {
				log.Printf("fake-consumer signature check failed: %s", msg)
				http.Error(w, "invalid signature: "+msg, http.StatusUnauthorized)
				return
			}
		}

		if cfg.ResponseDelayMS > 0 {
			time.Sleep(time.Duration(cfg.ResponseDelayMS) * time.Millisecond)
		}

		// Simulate flakiness: first N requests -> 500
		if n <= int64(cfg.FailFirstN) {
			log.Printf("FAILING (%d/%d) body=%s", n, cfg.FailFirstN, truncate(string(b), 160))
			http.Error(w, "temporary failure", http.StatusInternalServerError)
			return
		}

		var ev struct {
			EventID  string `json:"event_id"`
			Provider string `json:"provider"`
			ClientID string `json:"client_id"`
			Action   string `json:"action"`
			OrderID  string `json:"order_id"`
		}
		if err := json.Unmarshal(b, &ev); err == nil {
			log.Printf("fake-consumer OK event=%s provider=%s client=%s action=%s order=%s",
				ev.EventID, ev.Provider, ev.ClientID, ev.Action, ev.OrderID)
		} else {
			log.Printf("fake-consumer OK body=%q", truncate(string(b), 160))
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`ok`))
	}
}

func verifySignature(secret string, body []byte, ts, sig string, leeway time.Duration) (bool, string) {
	if ts == "" || sig == "" {
		return false, "missing headers"
	}
	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false, "invalid timestamp"
	}
	now := time.Now().Unix()
	if abs64(now-unix) > int64(leeway.Seconds()) {
		return false, "timestamp too far from now (outside leeway)"
	}
	got := strings.TrimPrefix(sig, "sha256=")
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	mac.Write([]byte(ts))
	want := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(got), []byte(want)) {
		return false, "sig mismatch"
	}
	return true, ""
}

func abs64(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...", s[:n])
}
