package messaging

import (
	"context"

	"github.com/feral-file/ff-tier-pass/internal/domain"
)

// Publisher defines the interface for publishing lifecycle events to message queue
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishEvent publishes a lifecycle event to the message broker
	PublishEvent(ctx context.Context, event *domain.LifecycleEvent) error
	// Close closes the connection
	Close()
}
