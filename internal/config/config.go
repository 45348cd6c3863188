package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type DB struct {
	User string
	Pass string
	Host string
	Port string
	Name string
}

type Redis struct {
	Addr    string // e.g. redis:6379
	Pass    string
	Enabled bool // when false the in-memory dedup store is used
}

type NSQ struct {
	NsqdTCPAddr string // e.g. nsqd:4150
	DLQTopic    string // dead letter topic
	PublishDLQ  bool   // whether exhausted jobs are mirrored to the DLQ topic
}

type Retry struct {
	MaxRetries        int           // retries after the initial attempt
	BaseDelay         time.Duration // first retry delay before jitter
	MaxDelay          time.Duration // cap on any computed delay
	Multiplier        float64       // exponential backoff multiplier
	Jitter            time.Duration // uniform random addition to each delay
	DeadLetterEnabled bool          // exhausted jobs go to the DLQ instead of being dropped
	SweepInterval     time.Duration // how often due items are dispatched
	BatchSize         int           // concurrent deliveries per sweep batch
	DeliveryTimeout   time.Duration // per outbound call
	ReloadWindow      time.Duration // items newer than this reload on startup
	DLQRetention      time.Duration // dead letters older than this are purged
}

type Validation struct {
	FreshnessWindow time.Duration // max signed-timestamp skew for shared-key providers
	DedupRetention  time.Duration // how long request IDs are remembered
	RateLimitCount  int           // default requests per interval per client+provider
	RateLimitWindow time.Duration // default rate limit interval
}

type Admin struct {
	JWTPublicKeyPEM string // RSA public key for admin API tokens
	JWTIssuer       string
	JWTAudience     string
}

type Forwarding struct {
	SignatureHeader string // header carrying the outbound HMAC signature
	TimestampHeader string // header carrying the outbound signing timestamp
}

type FakeConsumer struct {
	FailFirstN      int           // number of requests to fail initially
	ForwardSecret   string        // secret for outbound signature verification
	LeewaySeconds   int           // allowed timestamp skew in seconds
	ResponseDelayMS int           // simulated response delay in milliseconds
	Port            string        // server listen port
	ReadTimeout     time.Duration // HTTP read timeout
	WriteTimeout    time.Duration // HTTP write timeout
	IdleTimeout     time.Duration // HTTP idle timeout
}

type Config struct {
	AppName      string
	HTTPPort     string // :8080
	DB           DB
	Redis        Redis
	NSQ          NSQ
	Retry        Retry
	Validation   Validation
	Admin        Admin
	Forwarding   Forwarding
	FakeConsumer FakeConsumer
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func FromEnv() Config {
	return Config{
		AppName:  getenv("APP_NAME", "hookbridge"),
		HTTPPort: getenv("HTTP_PORT", ":8080"),
		DB: DB{
			User: getenv("DB_USER", "postgres"),
			Pass: getenv("DB_PASS", "postgres"),
			Host: getenv("DB_HOST", "postgres"),
			Port: getenv("DB_PORT", "5432"),
			Name: getenv("DB_NAME", "hookbridge"),
		},
		Redis: Redis{
			Addr:    getenv("REDIS_ADDR", "redis:6379"),
			Pass:    getenv("REDIS_PASS", ""),
			Enabled: getenvBool("REDIS_ENABLED", false),
		},
		NSQ: NSQ{
			NsqdTCPAddr: getenv("NSQD_TCP_ADDR", "nsqd:4150"),
			DLQTopic:    getenv("NSQ_DLQ_TOPIC", "webhooks_dlq"),
			PublishDLQ:  getenvBool("PUBLISH_DLQ_TOPIC", false),
		},
		Retry: Retry{
			MaxRetries:        getenvInt("RETRY_MAX_RETRIES", 5),
			BaseDelay:         getenvDuration("RETRY_BASE_DELAY", 30*time.Second),
			MaxDelay:          getenvDuration("RETRY_MAX_DELAY", time.Hour),
			Multiplier:        getenvFloat("RETRY_MULTIPLIER", 2.0),
			Jitter:            getenvDuration("RETRY_JITTER", 10*time.Second),
			DeadLetterEnabled: getenvBool("RETRY_DEAD_LETTER_ENABLED", true),
			SweepInterval:     getenvDuration("RETRY_SWEEP_INTERVAL", 30*time.Second),
			BatchSize:         getenvInt("RETRY_BATCH_SIZE", 5),
			DeliveryTimeout:   getenvDuration("DELIVERY_TIMEOUT", 30*time.Second),
			ReloadWindow:      getenvDuration("RETRY_RELOAD_WINDOW", 24*time.Hour),
			DLQRetention:      getenvDuration("DLQ_RETENTION", 7*24*time.Hour),
		},
		Validation: Validation{
			FreshnessWindow: getenvDuration("FRESHNESS_WINDOW", 5*time.Minute),
			DedupRetention:  getenvDuration("DEDUP_RETENTION", 24*time.Hour),
			RateLimitCount:  getenvInt("RATE_LIMIT_COUNT", 60),
			RateLimitWindow: getenvDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Admin: Admin{
			JWTPublicKeyPEM: getenv("ADMIN_JWT_PUBLIC_KEY", ""),
			JWTIssuer:       getenv("ADMIN_JWT_ISSUER", "hookbridge"),
			JWTAudience:     getenv("ADMIN_JWT_AUDIENCE", "hookbridge-admin"),
		},
		Forwarding: Forwarding{
			SignatureHeader: getenv("FORWARD_SIGNATURE_HEADER", "X-HookBridge-Signature"),
			TimestampHeader: getenv("FORWARD_TIMESTAMP_HEADER", "X-HookBridge-Timestamp"),
		},
		FakeConsumer: FakeConsumer{
			FailFirstN:      getenvInt("FAIL_FIRST_N", 0),
			ForwardSecret:   getenv("FORWARD_SECRET", ""),
			LeewaySeconds:   getenvInt("SIGNING_LEEWAY_SECONDS", 300),
			ResponseDelayMS: getenvInt("RESPONSE_DELAY_MS", 0),
			Port:            getenv("FAKE_CONSUMER_PORT", ":8081"),
			ReadTimeout:     getenvDuration("FAKE_CONSUMER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getenvDuration("FAKE_CONSUMER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:     getenvDuration("FAKE_CONSUMER_IDLE_TIMEOUT", 60*time.Second),
		},
	}
}

func (c Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DB.User, c.DB.Pass, c.DB.Host, c.DB.Port, c.DB.Name)
}
