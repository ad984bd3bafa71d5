// Package events implements the append-only pipeline event log on top
// of embedded NATS JetStream. Every significant action in a run (stage
// boundaries, artifact writes, agent calls, review, pack) is recorded
// as one event; the log is the audit trail a failed run is diagnosed
// from.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/xid"
	"github.com/syntax-syndicate/cogflow/internal/logger"
	"github.com/syntax-syndicate/cogflow/internal/nats"
)

// Event is one record in the append-only log.
type Event struct {
	ID            string          `json:"id"`
	Kind          string          `json:"kind"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload,omitempty"`
}

// Sink is the narrow append interface stages and the artifact store
// depend on. The JetStream-backed Log implements it; tests use Memory.
type Sink interface {
	Append(ctx context.Context, kind, correlationID string, payload any) error
}

// Log is the JetStream-backed event log for one run.
type Log struct {
	js     jetstream.JetStream
	stream jetstream.Stream
	run    string
}

// NewLog creates an event log publishing under the given run name. The
// run name must be subject-safe (the orchestrator slugifies it).
func NewLog(js jetstream.JetStream, stream jetstream.Stream, run string) *Log {
	return &Log{js: js, stream: stream, run: run}
}

// Run returns the run name this log publishes under.
func (l *Log) Run() string { return l.run }

// Append publishes one event. The payload is marshaled to JSON; a nil
// payload is allowed for marker events such as stage boundaries.
func (l *Log) Append(ctx context.Context, kind, correlationID string, payload any) error {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal event payload: %w", err)
		}
		raw = data
	}

	ev := Event{
		ID:            xid.New().String(),
		Kind:          kind,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Payload:       raw,
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := nats.SubjectForEvent(l.run, kind)
	logger.Debug("Publishing event: run=%s kind=%s correlation=%s", l.run, kind, correlationID)

	if _, err := l.js.Publish(ctx, subject, data); err != nil {
		logger.Error("Failed to publish event to subject %s: %v", subject, err)
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// List replays the run's full event history in publish order. Malformed
// records are skipped with a warning rather than failing the replay, so
// one bad event cannot make the log unreadable.
func (l *Log) List(ctx context.Context) ([]Event, error) {
	consumer, err := l.stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		FilterSubject: nats.SubjectForRun(l.run),
		DeliverPolicy: jetstream.DeliverAllPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	var out []Event
	const batchSize = 1000
	malformed := 0
	for {
		msgs, err := consumer.FetchNoWait(batchSize)
		if err != nil {
			if len(out) == 0 {
				return nil, fmt.Errorf("failed to fetch events: %w", err)
			}
			logger.Warn("Event fetch stopped early for run %s after %d events: %v", l.run, len(out), err)
			break
		}

		count := 0
		for msg := range msgs.Messages() {
			count++
			var ev Event
			if err := json.Unmarshal(msg.Data(), &ev); err != nil {
				malformed++
				msg.Ack()
				continue
			}
			out = append(out, ev)
			msg.Ack()
		}

		if count < batchSize {
			break
		}
	}

	if malformed > 0 {
		logger.Warn("Skipped %d malformed events while replaying run %s", malformed, l.run)
	}
	return out, nil
}

// Memory is an in-memory Sink for unit tests of components that only
// need to observe appended events.
type Memory struct {
	Events []Event
}

// Append records the event in memory.
func (m *Memory) Append(_ context.Context, kind, correlationID string, payload any) error {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		raw = data
	}
	m.Events = append(m.Events, Event{
		ID:            xid.New().String(),
		Kind:          kind,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Payload:       raw,
	})
	return nil
}

// Kinds returns the kinds of all recorded events in order.
func (m *Memory) Kinds() []string {
	kinds := make([]string, len(m.Events))
	for i, ev := range m.Events {
		kinds[i] = ev.Kind
	}
	return kinds
}
