package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nsqio/go-nsq"

	"github.com/dineflow/hookbridge/internal/tracing"
)

const DLQType = "delivery.dlq"

// DeadLetterEnvelope is the message published to the dead-letter topic so
// external tooling can inspect or replay exhausted jobs.
type DeadLetterEnvelope struct {
	Type         string            `json:"type"`    // "delivery.dlq"
	Version      string            `json:"version"` // schema version
	At           string            `json:"at"`      // RFC3339 time the DLQ was emitted
	Reason       string            `json:"reason"`  // human/debug text
	Attempt      int               `json:"attempt"` // attempt count when DLQ'd
	HTTPStatus   int               `json:"http_status,omitempty"`
	LastError    string            `json:"last_error,omitempty"`
	Job          *Job              `json:"job"` // full delivery snapshot
	TraceHeaders map[string]string `json:"trace_headers,omitempty"`
}

// NSQDeadLetterPublisher mirrors dead letters onto an NSQ topic.
type NSQDeadLetterPublisher struct {
	producer *nsq.Producer
	topic    string
}

func NewNSQDeadLetterPublisher(nsqdAddr, topic string) (*NSQDeadLetterPublisher, error) {
	producer, err := nsq.NewProducer(nsqdAddr, nsq.NewConfig())
	if err != nil {
		return nil, err
	}
	return &NSQDeadLetterPublisher{producer: producer, topic: topic}, nil
}

func (p *NSQDeadLetterPublisher) Publish(ctx context.Context, dl *DeadLetter) error {
	env := DeadLetterEnvelope{
		Type:         DLQType,
		Version:      "v1",
		At:           time.Now().UTC().Format(time.RFC3339Nano),
		Reason:       dl.Reason,
		Attempt:      dl.AttemptCount,
		HTTPStatus:   dl.HTTPStatus,
		LastError:    dl.LastError,
		Job:          dl.Job,
		TraceHeaders: tracing.InjectMap(ctx),
	}
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return p.producer.Publish(p.topic, b)
}

// Stop flushes and shuts down the underlying producer.
func (p *NSQDeadLetterPublisher) Stop() {
	p.producer.Stop()
}
