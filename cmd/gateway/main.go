package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/dineflow/hookbridge/internal/auth"
	"github.com/dineflow/hookbridge/internal/client"
	"github.com/dineflow/hookbridge/internal/config"
	"github.com/dineflow/hookbridge/internal/db"
	"github.com/dineflow/hookbridge/internal/dispatch"
	"github.com/dineflow/hookbridge/internal/gateway"
	"github.com/dineflow/hookbridge/internal/logging"
	"github.com/dineflow/hookbridge/internal/logsink"
	"github.com/dineflow/hookbridge/internal/metrics"
	"github.com/dineflow/hookbridge/internal/queue"
	"github.com/dineflow/hookbridge/internal/tracing"
	"github.com/dineflow/hookbridge/internal/validator"
)

func main() {
	cfg := config.FromEnv()
	ctx := context.Background()

	logger := logging.New("hookbridge-gateway")

	shutdown, err := tracing.InitTracing(ctx, "hookbridge-gateway")
	if err != nil {
		logger.Plain().WithError(err).Fatal("tracing init failed")
	}
	defer shutdown()

	// DB connect
	pool, err := db.Connect(ctx, cfg.DSN())
	if err != nil {
		logger.Plain().WithError(err).Fatal("db connect failed")
	}
	defer pool.Close()

	clients := client.NewPostgresStore(pool)
	sink := logsink.New(pool)

	// Dedup store: redis when configured, in-process otherwise
	var dedup validator.DedupStore
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Pass})
		defer rdb.Close()
		dedup = validator.NewRedisDedup(rdb)
	} else {
		mem := validator.NewMemoryDedup()
		defer mem.Close()
		dedup = mem
	}

	v := validator.New(clients, dedup, validator.Options{
		FreshnessWindow:   cfg.Validation.FreshnessWindow,
		DedupRetention:    cfg.Validation.DedupRetention,
		DefaultRateLimit:  cfg.Validation.RateLimitCount,
		DefaultRateWindow: cfg.Validation.RateLimitWindow,
	})

	// Optional NSQ dead-letter topic
	var dlqPub queue.DeadLetterPublisher
	if cfg.NSQ.PublishDLQ {
		pub, err := queue.NewNSQDeadLetterPublisher(cfg.NSQ.NsqdTCPAddr, cfg.NSQ.DLQTopic)
		if err != nil {
			logger.Plain().WithError(err).Fatal("nsq producer for DLQ creation failed")
		}
		defer pub.Stop()
		dlqPub = pub
	}

	engine := queue.NewEngine(queue.Options{
		Defaults: queue.RetryConfig{
			MaxRetries:        cfg.Retry.MaxRetries,
			BaseDelay:         cfg.Retry.BaseDelay,
			MaxDelay:          cfg.Retry.MaxDelay,
			Multiplier:        cfg.Retry.Multiplier,
			Jitter:            cfg.Retry.Jitter,
			DeadLetterEnabled: cfg.Retry.DeadLetterEnabled,
		},
		SweepInterval:   cfg.Retry.SweepInterval,
		BatchSize:       cfg.Retry.BatchSize,
		DeliveryTimeout: cfg.Retry.DeliveryTimeout,
		ReloadWindow:    cfg.Retry.ReloadWindow,
		DLQRetention:    cfg.Retry.DLQRetention,
		Store:           queue.NewPostgresStore(pool),
		Recorder:        sink,
		DLQPublisher:    dlqPub,
	})
	if err := engine.Reload(ctx); err != nil {
		logger.Plain().WithError(err).Error("retry queue reload failed, starting empty")
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go engine.Run(runCtx)

	disp := dispatch.New(clients, engine, dispatch.ForwardOptions{
		SignatureHeader: cfg.Forwarding.SignatureHeader,
		TimestampHeader: cfg.Forwarding.TimestampHeader,
	})

	// Admin auth is optional; without a key the admin API is open (dev only)
	var jwtValidator *auth.JWTValidator
	if cfg.Admin.JWTPublicKeyPEM != "" {
		jwtValidator, err = auth.NewJWTValidator(cfg.Admin.JWTPublicKeyPEM, cfg.Admin.JWTIssuer, cfg.Admin.JWTAudience)
		if err != nil {
			logger.Plain().WithError(err).Fatal("admin JWT key parse failed")
		}
	} else {
		logger.Plain().Warn("no admin JWT key configured, admin API is unauthenticated")
	}

	reg := prometheus.NewRegistry()
	metrics.MustRegister(reg)

	gw := gateway.New(gateway.Options{
		Validator:  v,
		Dispatcher: disp,
		Clients:    clients,
		Engine:     engine,
		Sink:       sink,
		Pool:       pool,
		Auth:       jwtValidator,
		Registry:   reg,
	})

	httpSrv := &http.Server{Addr: cfg.HTTPPort, Handler: gw.Router()}
	go func() {
		logger.Plain().WithField("addr", httpSrv.Addr).Info("gateway HTTP server starting")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Plain().WithError(err).Fatal("gateway HTTP server failed")
		}
	}()

	// Graceful stop
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	<-stop

	logger.Plain().Info("shutting down gateway")
	cancel()
	_ = httpSrv.Shutdown(context.Background())
	logger.Plain().Info("gateway stopped")
}
