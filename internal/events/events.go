package events

import "context"

// Topics emitted by the order state machine.
const (
	TopicOrderCheckout  = "order.checkout"
	TopicOrderConfirmed = "order.confirmed"
	TopicOrderRejected  = "order.rejected"
	TopicOrderFulfilled = "order.fulfilled"
)

// Publisher emits domain events after state transitions are persisted.
// Publish failures never roll a transition back.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// NopPublisher drops all events. Used in tests and when no broker is
// configured.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, topic string, payload any) error { return nil }
