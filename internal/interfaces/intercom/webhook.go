package intercominterface

import (
	"context"

	"github.com/tdex-network/notewallet/internal/core/application/pubsub"
	"github.com/tdex-network/notewallet/pkg/intercom"
)

type webhookHandler struct {
	svc *pubsub.Service
}

func NewWebhookHandler(svc *pubsub.Service) intercom.RequestHandler {
	h := &webhookHandler{svc}
	return withStats(h.handle)
}

func (h *webhookHandler) handle(
	ctx context.Context, req Request,
) (*Response, error) {
	switch req.Type {
	case AddWebhookRequest:
		id, err := h.svc.AddWebhook(ctx, req.Event, req.Endpoint, req.Secret)
		if err != nil {
			return nil, err
		}
		return &Response{Type: AddWebhookResponse, WebhookID: id}, nil
	case RemoveWebhookRequest:
		if err := h.svc.RemoveWebhook(ctx, req.ID); err != nil {
			return nil, err
		}
		return &Response{Type: RemoveWebhookResponse}, nil
	case ListWebhooksRequest:
		hooks, err := h.svc.ListWebhooks(ctx, req.Event)
		if err != nil {
			return nil, err
		}
		return &Response{Type: ListWebhooksResponse, Webhooks: hooks}, nil
	default:
		return nil, nil
	}
}
