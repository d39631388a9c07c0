package ports

import "context"

const (
	// AnyTopic subscribes to every published event.
	AnyTopic = "*"
	// UnspecifiedTopic matches the subscriptions of all topics when listing.
	UnspecifiedTopic = ""
)

// Subscription is a webhook registered for a topic. Its secret never leaves
// the PubSub.
type Subscription struct {
	ID       string
	Topic    string
	Endpoint string
	Secured  bool
}

// PubSub delivers published messages to the webhooks subscribed to their
// topic. Subscriptions survive restarts.
type PubSub interface {
	Subscribe(ctx context.Context, topic, endpoint, secret string) (string, error)
	Unsubscribe(ctx context.Context, id string) error
	ListSubscriptionsForTopic(ctx context.Context, topic string) ([]Subscription, error)
	Publish(ctx context.Context, topic string, message []byte) error
	Close() error
}
