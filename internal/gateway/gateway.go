// Package gateway is the HTTP surface: the per-provider webhook routes, the
// admin API, and the operational endpoints. Handlers stay thin; validation,
// normalization and delivery all live behind the validator, dispatch and
// queue packages.
package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dineflow/hookbridge/internal/auth"
	"github.com/dineflow/hookbridge/internal/client"
	"github.com/dineflow/hookbridge/internal/dispatch"
	"github.com/dineflow/hookbridge/internal/health"
	"github.com/dineflow/hookbridge/internal/logging"
	"github.com/dineflow/hookbridge/internal/logsink"
	"github.com/dineflow/hookbridge/internal/queue"
	"github.com/dineflow/hookbridge/internal/validator"
)

// Options wires the gateway's collaborators. Pool, Sink, Auth and Registry
// are optional; a nil Auth leaves the admin API open, which is only
// acceptable in dev.
type Options struct {
	Validator  *validator.Validator
	Dispatcher *dispatch.Dispatcher
	Clients    client.Store
	Engine     *queue.Engine
	Sink       *logsink.Sink
	Pool       *pgxpool.Pool
	Auth       *auth.JWTValidator
	Registry   *prometheus.Registry
	MaxBody    int64
}

type Gateway struct {
	validator  *validator.Validator
	dispatcher *dispatch.Dispatcher
	clients    client.Store
	engine     *queue.Engine
	sink       *logsink.Sink
	pool       *pgxpool.Pool
	auth       *auth.JWTValidator
	registry   *prometheus.Registry
	maxBody    int64
	log        *logging.Logger
}

func New(opts Options) *Gateway {
	if opts.MaxBody <= 0 {
		opts.MaxBody = 1 << 20
	}
	return &Gateway{
		validator:  opts.Validator,
		dispatcher: opts.Dispatcher,
		clients:    opts.Clients,
		engine:     opts.Engine,
		sink:       opts.Sink,
		pool:       opts.Pool,
		auth:       opts.Auth,
		registry:   opts.Registry,
		maxBody:    opts.MaxBody,
		log:        logging.New("gateway"),
	}
}

// Router mounts every route. Static segments like /webhooks/retry win over
// the {provider} param route, so the admin paths never shadow a provider.
func (g *Gateway) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(g.accessLog)

	r.Get("/healthz", health.HTTPHandler(g.pool))
	if g.registry != nil {
		r.Method(http.MethodGet, "/metrics",
			promhttp.HandlerFor(g.registry, promhttp.HandlerOpts{}))
	}

	r.Post("/webhooks/{provider}/{clientID}", g.handleWebhook)

	r.Group(func(r chi.Router) {
		r.Use(g.auth.HTTPMiddleware)
		r.Post("/webhooks/retry/{jobID}", g.handleRetry)
		r.Get("/webhooks/health", health.HTTPHandler(g.pool))
		r.Route("/admin", func(r chi.Router) {
			r.Get("/queue", g.handleQueueList)
			r.Get("/queue/stats", g.handleQueueStats)
			r.Get("/dlq", g.handleDeadLetters)
			r.Get("/clients", g.handleClientList)
			r.Post("/clients", g.handleClientUpsert)
		})
	})

	return r
}
