package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Strob0t/MenuForge/internal/logger"
	"github.com/Strob0t/MenuForge/internal/port/messagequeue"
)

// Publisher sends catalog events after the writing transaction committed.
// A nil queue turns every publish into a no-op. Publishing is best effort.
type Publisher struct {
	queue messagequeue.Queue
	log   *slog.Logger
}

// NewPublisher creates a Publisher. queue may be nil.
func NewPublisher(queue messagequeue.Queue, log *slog.Logger) *Publisher {
	return &Publisher{queue: queue, log: log}
}

type event struct {
	subject string
	payload any
}

// outbox collects events produced inside a transaction. It is flushed only
// once the transaction committed, so observers never see rolled-back rows.
type outbox struct {
	events []event
}

func (o *outbox) add(subject string, payload any) {
	o.events = append(o.events, event{subject: subject, payload: payload})
}

// Flush publishes every collected event in order.
func (p *Publisher) Flush(ctx context.Context, o *outbox) {
	if p == nil || p.queue == nil || o == nil {
		return
	}
	for _, e := range o.events {
		p.publish(ctx, e.subject, e.payload)
	}
	o.events = nil
}

func (p *Publisher) publish(ctx context.Context, subject string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.FromContext(ctx, p.log).Warn("marshal event", "subject", subject, "error", err)
		return
	}
	if err := p.queue.Publish(ctx, subject, data); err != nil {
		logger.FromContext(ctx, p.log).Warn("publish event", "subject", subject, "error", err)
	}
}
