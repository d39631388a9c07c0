package intercominterface

import (
	"context"

	"github.com/tdex-network/notewallet/internal/core/application/background"
	"github.com/tdex-network/notewallet/internal/core/application/records"
	"github.com/tdex-network/notewallet/pkg/intercom"
)

type recordsHandler struct {
	svc     *records.Service
	syncer  *records.Syncer
	actions *background.Actions
}

// NewRecordsHandler returns the intercom handler of the owned records. Both
// requests require the wallet to be unlocked.
func NewRecordsHandler(
	svc *records.Service, syncer *records.Syncer, actions *background.Actions,
) intercom.RequestHandler {
	h := &recordsHandler{svc, syncer, actions}
	return withStats(h.handle)
}

func (h *recordsHandler) handle(
	ctx context.Context, req Request,
) (*Response, error) {
	switch req.Type {
	case GetOwnedRecordsRequest:
		if err := h.actions.EnsureReady(ctx); err != nil {
			return nil, err
		}
		list, err := h.svc.GetOwnedRecords(ctx, req.Address)
		if err != nil {
			return nil, err
		}
		return &Response{Type: GetOwnedRecordsResponse, Records: list}, nil
	case SyncRecordsRequest:
		if err := h.actions.EnsureReady(ctx); err != nil {
			return nil, err
		}
		h.syncer.Trigger()
		return &Response{Type: SyncRecordsResponse}, nil
	default:
		return nil, nil
	}
}
