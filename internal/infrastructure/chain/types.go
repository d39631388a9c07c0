package chain

import (
	"encoding/json"

	"github.com/tdex-network/notewallet/internal/core/domain"
	"github.com/tdex-network/notewallet/internal/core/ports"
)

type blockHeightResponse struct {
	Height int64 `json:"height"`
}

type recordsResponse struct {
	Records []domain.RecordMetadata `json:"records"`
}

type latestRecordResponse struct {
	ID int64 `json:"id"`
}

type tagRequest struct {
	Tag   string `json:"tag"`
	Proof string `json:"proof"`
}

type buildRequest struct {
	ID               string          `json:"id"`
	Type             string          `json:"type"`
	AccountPublicKey string          `json:"account_public_key"`
	Payload          json.RawMessage `json:"payload,omitempty"`
}

type proveRequest struct {
	Transaction ports.UnsignedTransaction `json:"transaction"`
	Signature   string                    `json:"signature"`
}

type submitResponse struct {
	TxHash string `json:"tx_hash"`
}

type errorResponse struct {
	Error string `json:"error"`
}
