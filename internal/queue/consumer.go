package queue

import (
	"context"
	"log"

	"cloud.google.com/go/pubsub"
	"github.com/google/uuid"

	"github.com/minutescript/MinScript-Backend/internal/domain"
)

// Handler processes one decoded job request to completion.
type Handler interface {
	Execute(ctx context.Context, req domain.JobRequest) error
}

// Consumer pulls job messages from one Pub/Sub subscription and hands
// each to the handler. Messages are acked on receipt: delivery is
// at-most-once, so a crashed job is abandoned rather than re-run against
// half-written state. Redelivery policy belongs to the publisher side.
type Consumer struct {
	sub     *pubsub.Subscription
	handler Handler
}

// NewConsumer wraps a subscription. maxInFlight bounds concurrent
// handler invocations; the default of one serializes job processing.
func NewConsumer(sub *pubsub.Subscription, handler Handler, maxInFlight int) *Consumer {
	if maxInFlight <= 0 {
		maxInFlight = 1
	}
	sub.ReceiveSettings.MaxOutstandingMessages = maxInFlight

	return &Consumer{sub: sub, handler: handler}
}

// Run blocks consuming messages until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	log.Printf("listening for jobs on %s", c.sub.String())

	return c.sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		m.Ack()

		id := uuid.NewString()
		req, err := DecodeJobMessage(m.Data)
		if err != nil {
			log.Printf("job %s: dropping message: %v", id, err)
			return
		}

		log.Printf("job %s: received user=%s file=%s lang=%s diarize=%t",
			id, req.UserID, req.FileName, req.MainLanguage, req.Diarize)

		if err := c.handler.Execute(ctx, req); err != nil {
			log.Printf("job %s: failed: %v", id, err)
			return
		}
		log.Printf("job %s: completed", id)
	})
}
