package tracing

import (
	"context"
	"os"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	oteltrace "go.opentelemetry.io/otel/trace"
)

func TestGetVersion(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		expected string
	}{
		{
			name:     "with SERVICE_VERSION set",
			envValue: "v1.2.3",
			expected: "v1.2.3",
		},
		{
			name:     "with SERVICE_VERSION not set",
			envValue: "",
			expected: "dev",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv("SERVICE_VERSION", tt.envValue)
				defer os.Unsetenv("SERVICE_VERSION")
			} else {
				os.Unsetenv("SERVICE_VERSION")
			}

			result := getVersion()
			if result != tt.expected {
				t.Errorf("getVersion() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestGetInstanceID(t *testing.T) {
	tests := []struct {
		name        string
		hostnameEnv string
		podNameEnv  string
		expected    string
	}{
		{
			name:        "with HOSTNAME set",
			hostnameEnv: "web-server-01",
			podNameEnv:  "",
			expected:    "web-server-01",
		},
		{
			name:        "with POD_NAME set (no HOSTNAME)",
			hostnameEnv: "",
			podNameEnv:  "hookbridge-gateway-abc123",
			expected:    "hookbridge-gateway-abc123",
		},
		{
			name:        "with both set (HOSTNAME takes precedence)",
			hostnameEnv: "web-server-01",
			podNameEnv:  "hookbridge-gateway-abc123",
			expected:    "web-server-01",
		},
		{
			name:        "with neither set",
			hostnameEnv: "",
			podNameEnv:  "",
			expected:    "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Unsetenv("HOSTNAME")
			os.Unsetenv("POD_NAME")

			if tt.hostnameEnv != "" {
				os.Setenv("HOSTNAME", tt.hostnameEnv)
				defer os.Unsetenv("HOSTNAME")
			}
			if tt.podNameEnv != "" {
				os.Setenv("POD_NAME", tt.podNameEnv)
				defer os.Unsetenv("POD_NAME")
			}

			result := getInstanceID()
			if result != tt.expected {
				t.Errorf("getInstanceID() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestGetOTLPEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		expected string
	}{
		{
			name:     "with http:// prefix",
			envValue: "http://tempo:4318",
			expected: "tempo:4318",
		},
		{
			name:     "with https:// prefix",
			envValue: "https://tempo:4318",
			expected: "tempo:4318",
		},
		{
			name:     "without protocol prefix",
			envValue: "tempo:4318",
			expected: "tempo:4318",
		},
		{
			name:     "empty environment variable",
			envValue: "",
			expected: "tempo:4318",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", tt.envValue)
				defer os.Unsetenv("OTEL_EXPORTER_OTLP_ENDPOINT")
			} else {
				os.Unsetenv("OTEL_EXPORTER_OTLP_ENDPOINT")
			}

			result := getOTLPEndpoint()
			if result != tt.expected {
				t.Errorf("getOTLPEndpoint() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestStartSpan(t *testing.T) {
	tests := []struct {
		name     string
		spanName string
		attrs    []attribute.KeyValue
	}{
		{
			name:     "simple span without attributes",
			spanName: "test-operation",
			attrs:    nil,
		},
		{
			name:     "span with single attribute",
			spanName: "validate-webhook",
			attrs:    []attribute.KeyValue{attribute.String("provider", "careem")},
		},
		{
			name:     "span with multiple attributes",
			spanName: "deliver-event",
			attrs: []attribute.KeyValue{
				attribute.String("job_id", "job-1"),
				attribute.String("target_url", "https://example.com/events"),
				attribute.Int("attempt", 2),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			newCtx, span := StartSpan(ctx, tt.spanName, tt.attrs...)

			if newCtx == nil {
				t.Error("StartSpan() returned nil context")
			}
			if span == nil {
				t.Fatal("StartSpan() returned nil span")
			}

			spanFromCtx := oteltrace.SpanFromContext(newCtx)
			if spanFromCtx == nil {
				t.Error("StartSpan() span not found in returned context")
			}

			span.End()
		})
	}
}

func TestAddSpanEventAndSetSpanError(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := trace.NewTracerProvider(trace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)

	tests := []struct {
		name    string
		hasSpan bool
	}{
		{name: "with span in context", hasSpan: true},
		{name: "without span in context", hasSpan: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()

			if tt.hasSpan {
				var span oteltrace.Span
				ctx, span = StartSpan(ctx, "test-span")
				defer span.End()
			}

			// Neither call may panic regardless of whether a span exists
			AddSpanEvent(ctx, "retry-scheduled", attribute.Int("attempt", 3))
			SetSpanError(ctx, context.DeadlineExceeded)
			SetSpanError(ctx, nil)
		})
	}
}

func TestGetTraceID(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := trace.NewTracerProvider(trace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)

	tests := []struct {
		name    string
		hasSpan bool
	}{
		{name: "context with valid span", hasSpan: true},
		{name: "context without span", hasSpan: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()

			if tt.hasSpan {
				var span oteltrace.Span
				ctx, span = StartSpan(ctx, "test-span")
				defer span.End()
			}

			traceID := GetTraceID(ctx)

			if tt.hasSpan {
				if traceID == "" {
					t.Error("GetTraceID() returned empty string for context with span")
				}
				if len(traceID) != 32 {
					t.Errorf("GetTraceID() length = %d, want 32", len(traceID))
				}
			} else if traceID != "" {
				t.Errorf("GetTraceID() = %q for context without span, want empty string", traceID)
			}
		})
	}
}

func TestInjectMap(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := trace.NewTracerProvider(trace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	ctx, span := StartSpan(context.Background(), "test-span")
	defer span.End()

	headers := InjectMap(ctx)
	if headers == nil {
		t.Fatal("InjectMap() returned nil headers")
	}
	if len(headers) == 0 {
		t.Fatal("InjectMap() returned empty headers for context with span")
	}

	found := false
	for key := range headers {
		if strings.Contains(strings.ToLower(key), "trace") {
			found = true
			break
		}
	}
	if !found {
		t.Error("InjectMap() did not include trace context headers")
	}
}

func TestExtractMap(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := trace.NewTracerProvider(trace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	tests := []struct {
		name    string
		headers map[string]string
	}{
		{
			name:    "empty headers",
			headers: map[string]string{},
		},
		{
			name: "headers with trace context",
			headers: map[string]string{
				"traceparent": "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01",
			},
		},
		{
			name: "headers with invalid trace context",
			headers: map[string]string{
				"traceparent": "invalid-trace-context",
			},
		},
		{
			name:    "nil headers",
			headers: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Must not panic regardless of header content
			newCtx := ExtractMap(context.Background(), tt.headers)
			if newCtx == nil {
				t.Error("ExtractMap() returned nil context")
			}
		})
	}
}

func TestTraceRoundTrip(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := trace.NewTracerProvider(trace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	ctx, span := StartSpan(context.Background(), "test-operation")
	defer span.End()

	originalTraceID := GetTraceID(ctx)
	if originalTraceID == "" {
		t.Fatal("Failed to get trace ID from original context")
	}

	headers := InjectMap(ctx)
	if len(headers) == 0 {
		t.Fatal("InjectMap() returned empty headers")
	}

	newCtx := ExtractMap(context.Background(), headers)
	newCtx, childSpan := StartSpan(newCtx, "child-operation")
	defer childSpan.End()

	extractedTraceID := GetTraceID(newCtx)
	if extractedTraceID != originalTraceID {
		t.Errorf("Trace ID changed during round-trip: original=%s, extracted=%s", originalTraceID, extractedTraceID)
	}
}

func TestTracerNameConstant(t *testing.T) {
	expected := "github.com/dineflow/hookbridge"
	if TracerName != expected {
		t.Errorf("TracerName constant = %q, want %q", TracerName, expected)
	}
}
