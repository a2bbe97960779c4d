package messaging

import (
	"context"

	"github.com/feral-file/ff-ticket-market/internal/domain"
)

// Publisher defines the interface for publishing market events to the message broker
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishEvent publishes a committed market event
	PublishEvent(ctx context.Context, event *domain.Event) error
	// Close closes the connection
	Close()
}

// NopPublisher drops every event; used when no broker is configured
type NopPublisher struct{}

func (NopPublisher) PublishEvent(ctx context.Context, event *domain.Event) error { return nil }

func (NopPublisher) Close() {}
