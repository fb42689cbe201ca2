// Package pubsub delivers run notifications over Google Cloud Pub/Sub.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
)

// Config identifies the topic notifications are published to.
type Config struct {
	ProjectID string
	TopicID   string
}

// publisher is the subset of the Pub/Sub publisher API the notifier uses.
type publisher interface {
	Publish(ctx context.Context, msg *pubsub.Message) *pubsub.PublishResult
}

// Notifier publishes completion messages as JSON Pub/Sub messages.
type Notifier struct {
	publisher publisher
	client    *pubsub.Client
}

type payload struct {
	Message string `json:"message"`
}

// New connects to Pub/Sub and returns a Notifier publishing to the configured
// topic. Close releases the client.
func New(ctx context.Context, cfg Config) (*Notifier, error) {
	if cfg.ProjectID == "" || cfg.TopicID == "" {
		return nil, fmt.Errorf("pubsub project and topic are required")
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	return &Notifier{
		publisher: client.Publisher(cfg.TopicID),
		client:    client,
	}, nil
}

// NewWithPublisher builds a Notifier over an existing publisher (used in tests).
func NewWithPublisher(p publisher) *Notifier {
	return &Notifier{publisher: p}
}

// Notify publishes the message and waits for the server acknowledgment.
func (n *Notifier) Notify(ctx context.Context, message string) error {
	data, err := json.Marshal(payload{Message: message})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	result := n.publisher.Publish(ctx, &pubsub.Message{Data: data})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// Close releases the underlying client, if this notifier owns one.
func (n *Notifier) Close() error {
	if n.client == nil {
		return nil
	}
	if err := n.client.Close(); err != nil {
		return fmt.Errorf("close pubsub client: %w", err)
	}
	return nil
}
