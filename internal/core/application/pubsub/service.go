package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tdex-network/notewallet/internal/core/domain"
	"github.com/tdex-network/notewallet/internal/core/ports"
)

const (
	EventTransactionCompleted = "TRANSACTION_COMPLETED"
	EventTransactionFailed    = "TRANSACTION_FAILED"
	EventRecordsFound         = "RECORDS_FOUND"
	EventStateUpdated         = "STATE_UPDATED"
)

var events = map[string]bool{
	EventTransactionCompleted: true,
	EventTransactionFailed:    true,
	EventRecordsFound:         true,
	EventStateUpdated:         true,
	ports.AnyTopic:            true,
}

// WebhookInfo ...
type WebhookInfo struct {
	ID       string `json:"id"`
	Event    string `json:"event"`
	Endpoint string `json:"endpoint"`
	Secured  bool   `json:"secured"`
}

// Service publishes the wallet events to the registered webhooks.
type Service struct {
	pubsub ports.PubSub
}

func NewService(pubsub ports.PubSub) (*Service, error) {
	if pubsub == nil {
		return nil, fmt.Errorf("missing pubsub")
	}
	return &Service{pubsub}, nil
}

func (s *Service) AddWebhook(
	ctx context.Context, event, endpoint, secret string,
) (string, error) {
	if !events[event] {
		return "", fmt.Errorf("invalid webhook event type %q", event)
	}
	return s.pubsub.Subscribe(ctx, event, endpoint, secret)
}

func (s *Service) RemoveWebhook(ctx context.Context, id string) error {
	return s.pubsub.Unsubscribe(ctx, id)
}

// ListWebhooks returns the webhooks notified for the given event, or all of
// them if event is empty.
func (s *Service) ListWebhooks(
	ctx context.Context, event string,
) ([]WebhookInfo, error) {
	if event != ports.UnspecifiedTopic && !events[event] {
		return nil, fmt.Errorf("invalid webhook event type %q", event)
	}
	subs, err := s.pubsub.ListSubscriptionsForTopic(ctx, event)
	if err != nil {
		return nil, err
	}
	webhooks := make([]WebhookInfo, 0, len(subs))
	for _, sub := range subs {
		webhooks = append(webhooks, WebhookInfo{
			ID:       sub.ID,
			Event:    sub.Topic,
			Endpoint: sub.Endpoint,
			Secured:  sub.Secured,
		})
	}
	return webhooks, nil
}

// PublishTransactionEvent notifies a completed or failed transaction. Other
// statuses are ignored.
func (s *Service) PublishTransactionEvent(
	ctx context.Context, tx domain.QueuedTransaction,
) error {
	var event string
	switch tx.Status {
	case domain.TransactionStatusCompleted:
		event = EventTransactionCompleted
	case domain.TransactionStatusFailed:
		event = EventTransactionFailed
	default:
		return nil
	}

	transaction := map[string]interface{}{
		"id":                 tx.ID,
		"type":               tx.Type,
		"account_public_key": tx.AccountPublicKey,
		"created_at":         tx.CreatedAt,
	}
	if tx.TxHash != "" {
		transaction["tx_hash"] = tx.TxHash
	}
	if tx.Error != "" {
		transaction["error"] = tx.Error
	}
	return s.publish(ctx, event, map[string]interface{}{
		"transaction": transaction,
	})
}

func (s *Service) PublishRecordsFoundEvent(
	ctx context.Context, records []domain.OwnedRecord,
) error {
	if len(records) <= 0 {
		return nil
	}
	list := make([]map[string]interface{}, 0, len(records))
	for _, r := range records {
		list = append(list, map[string]interface{}{
			"id":            r.ID,
			"address":       r.Address,
			"transition_id": r.TransitionID,
			"output_index":  r.OutputIndex,
			"block_height":  r.BlockHeight,
		})
	}
	return s.publish(ctx, EventRecordsFound, map[string]interface{}{
		"records": list,
	})
}

func (s *Service) PublishStateUpdatedEvent(
	ctx context.Context, state domain.FrontState,
) error {
	payload := map[string]interface{}{
		"status":   state.Status,
		"accounts": len(state.Accounts),
	}
	if state.CurrentAccount != nil {
		payload["current_account"] = state.CurrentAccount.PublicKey
	}
	return s.publish(ctx, EventStateUpdated, payload)
}

func (s *Service) Close() error {
	return s.pubsub.Close()
}

func (s *Service) publish(
	ctx context.Context, event string, payload map[string]interface{},
) error {
	payload["event"] = event
	payload["timestamp"] = time.Now().Unix()
	message, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.pubsub.Publish(ctx, event, message)
}
