package intercominterface

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/notewallet/internal/core/application/pipeline"
	"github.com/tdex-network/notewallet/pkg/intercom"
)

type transactionHandler struct {
	svc     *pipeline.Service
	monitor *pipeline.Monitor
}

// NewTransactionHandler returns the intercom handler of the transaction
// queue. Queuing a transaction (re)starts the monitor.
func NewTransactionHandler(
	svc *pipeline.Service, monitor *pipeline.Monitor,
) intercom.RequestHandler {
	h := &transactionHandler{svc, monitor}
	return withStats(h.handle)
}

func (h *transactionHandler) handle(
	ctx context.Context, req Request,
) (*Response, error) {
	switch req.Type {
	case QueueTransactionRequest:
		return h.queueTransaction(ctx, req)
	case GetTransactionsRequest:
		return h.getTransactions(ctx, req)
	case CancelTransactionRequest:
		return h.cancelTransaction(ctx, req)
	case GetTransactionMonitorRequest:
		state := h.monitor.State()
		return &Response{Type: GetTransactionMonitorResponse, Monitor: &state}, nil
	default:
		return nil, nil
	}
}

func (h *transactionHandler) queueTransaction(
	ctx context.Context, req Request,
) (*Response, error) {
	tx, err := h.svc.QueueTransaction(
		ctx, req.TxType, req.AccountPublicKey, req.TxPayload,
	)
	if err != nil {
		return nil, err
	}

	if err := h.monitor.Start(ctx); err != nil {
		if !errors.Is(err, pipeline.ErrMonitorRunning) {
			log.WithError(err).Warn("failed to start transaction monitor")
		}
		h.monitor.Trigger()
	}
	return &Response{Type: QueueTransactionResponse, Transaction: tx}, nil
}

func (h *transactionHandler) getTransactions(
	ctx context.Context, req Request,
) (*Response, error) {
	txs, err := h.svc.ListTransactions(ctx, req.OutstandingOnly)
	if err != nil {
		return nil, err
	}
	return &Response{Type: GetTransactionsResponse, Transactions: txs}, nil
}

func (h *transactionHandler) cancelTransaction(
	ctx context.Context, req Request,
) (*Response, error) {
	if err := h.svc.CancelTransaction(ctx, req.ID); err != nil {
		return nil, err
	}
	return &Response{Type: CancelTransactionResponse}, nil
}
