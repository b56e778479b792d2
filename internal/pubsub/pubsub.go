package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
)

// Message is the structure passed between components on the bus.
type Message struct {
	// Topic identifies the channel the message belongs to (e.g., "session.changed").
	Topic string
	// Key identifies the entity the message is about, such as a session id.
	Key string
	// Payload contains the raw message data, usually JSON.
	Payload []byte
	// Metadata can contain arbitrary key-value pairs for context.
	Metadata map[string]string
}

// Handler defines the function signature for processing a received message.
type Handler func(ctx context.Context, msg Message) error

// Publisher defines the contract for sending messages to the bus.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber defines the contract for receiving messages from the bus.
type Subscriber interface {
	// Subscribe starts delivering messages on topic to handler. It returns
	// once the subscription is active; delivery continues until ctx is
	// canceled or the subscriber is closed.
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}

// PublishJSON encodes v as the payload of a message on topic.
func PublishJSON(ctx context.Context, pub Publisher, topic, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s message: %w", topic, err)
	}
	return pub.Publish(ctx, Message{Topic: topic, Key: key, Payload: payload})
}
