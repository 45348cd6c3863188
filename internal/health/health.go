package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dineflow/hookbridge/internal/provider"
)

type Status struct {
	OK        bool              `json:"ok"`
	Message   string            `json:"message,omitempty"`
	Database  bool              `json:"database,omitempty"`
	Providers map[string]string `json:"providers,omitempty"`
}

// HTTPHandler returns an HTTP handler that reports liveness plus the static
// per-provider webhook status expected by the admin health check
func HTTPHandler(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := Status{OK: true, Message: "ok", Database: true, Providers: providerStatuses()}

		if pool != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
			defer cancel()
			if err := pool.Ping(ctx); err != nil {
				st.OK = false
				st.Message = "db ping failed"
				st.Database = false
				w.WriteHeader(http.StatusServiceUnavailable)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(st)
	}
}

// providerStatuses lists every known provider as active. Webhook routes are
// always mounted, so the status is static until a provider is removed.
func providerStatuses() map[string]string {
	out := make(map[string]string, len(provider.All()))
	for _, p := range provider.All() {
		out[p.String()] = "active"
	}
	return out
}
