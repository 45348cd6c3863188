package logsink

import (
	"context"
	"testing"
	"time"

	"github.com/dineflow/hookbridge/internal/provider"
	"github.com/dineflow/hookbridge/internal/queue"
)

func TestSinkNilPoolIsNoOp(t *testing.T) {
	// Running without a database must not panic or block the pipeline.
	s := New(nil)
	ctx := context.Background()

	s.RecordInbound(ctx, provider.Careem, "r1", "evt-1", true, "")
	s.RecordInbound(ctx, provider.Jahez, "r1", "evt-2", false, "bad_token")
	s.RecordAttempt(ctx, queue.AttemptRecord{
		JobID:   "job-1",
		OwnerID: "r1",
		Outcome: "delivered",
		At:      time.Now(),
	})

	var nilSink *Sink
	nilSink.RecordInbound(ctx, provider.Careem, "r1", "evt-3", true, "")
	nilSink.RecordAttempt(ctx, queue.AttemptRecord{JobID: "job-2"})
}
