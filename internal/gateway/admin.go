package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dineflow/hookbridge/internal/client"
	"github.com/dineflow/hookbridge/internal/provider"
	"github.com/dineflow/hookbridge/internal/queue"
)

// handleRetry forces an immediate delivery attempt for one queued job.
func (g *Gateway) handleRetry(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if !g.engine.Retry(r.Context(), jobID) {
		writeJSON(w, http.StatusNotFound, `{"error":"job not found or already in flight"}`)
		return
	}
	g.log.WithContext(r.Context()).WithJob(jobID).Info("manual retry triggered")
	writeJSON(w, http.StatusAccepted, `{"retried":true}`)
}

func (g *Gateway) handleQueueList(w http.ResponseWriter, r *http.Request) {
	var items []*queue.Item
	switch {
	case r.URL.Query().Get("owner") != "":
		items = g.engine.ListByOwner(r.URL.Query().Get("owner"))
	case r.URL.Query().Get("priority") != "":
		items = g.engine.ListByPriority(queue.ParsePriority(r.URL.Query().Get("priority")))
	default:
		items = g.engine.List()
	}
	encode(w, map[string]any{"items": items, "count": len(items)})
}

func (g *Gateway) handleQueueStats(w http.ResponseWriter, r *http.Request) {
	encode(w, g.engine.Stats())
}

func (g *Gateway) handleDeadLetters(w http.ResponseWriter, r *http.Request) {
	letters := g.engine.DeadLetters()
	encode(w, map[string]any{"dead_letters": letters, "count": len(letters)})
}

func (g *Gateway) handleClientList(w http.ResponseWriter, r *http.Request) {
	p, err := provider.Parse(r.URL.Query().Get("provider"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, `{"error":"provider query parameter required"}`)
		return
	}
	configs, err := g.clients.List(r.Context(), p)
	if err != nil {
		g.log.WithContext(r.Context()).WithProvider(p.String()).WithError(err).Error("client list failed")
		writeJSON(w, http.StatusInternalServerError, `{"error":"list failed"}`)
		return
	}
	for _, cfg := range configs {
		redact(cfg)
	}
	encode(w, map[string]any{"clients": configs, "count": len(configs)})
}

func (g *Gateway) handleClientUpsert(w http.ResponseWriter, r *http.Request) {
	var cfg client.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, `{"error":"invalid JSON body"}`)
		return
	}
	if _, err := provider.Parse(cfg.Provider.String()); err != nil {
		writeJSON(w, http.StatusBadRequest, `{"error":"unknown provider"}`)
		return
	}
	if cfg.ClientID == "" || cfg.Secret == "" {
		writeJSON(w, http.StatusBadRequest, `{"error":"client_id and secret are required"}`)
		return
	}
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = time.Now().UTC()
	}
	if err := g.clients.Put(r.Context(), &cfg); err != nil {
		g.log.WithContext(r.Context()).WithProvider(cfg.Provider.String()).WithClient(cfg.ClientID).
			WithError(err).Error("client upsert failed")
		writeJSON(w, http.StatusInternalServerError, `{"error":"store failed"}`)
		return
	}
	g.log.WithContext(r.Context()).WithProvider(cfg.Provider.String()).WithClient(cfg.ClientID).
		Info("client configuration stored")
	redact(&cfg)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(&cfg)
}

// redact blanks credentials before a config leaves the admin API.
func redact(cfg *client.Config) {
	cfg.Secret = ""
	cfg.ForwardSecret = ""
}

func encode(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
