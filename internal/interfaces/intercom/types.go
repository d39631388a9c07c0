package intercominterface

import (
	"encoding/json"

	"github.com/tdex-network/notewallet/internal/core/application/pipeline"
	"github.com/tdex-network/notewallet/internal/core/application/pubsub"
	"github.com/tdex-network/notewallet/internal/core/domain"
)

// WalletMessageType is the type of every message exchanged between the
// daemon and its front contexts.
type WalletMessageType string

const (
	// Notifications
	StateUpdated WalletMessageType = "STATE_UPDATED"

	// Request-Response pairs
	GetStateRequest               WalletMessageType = "GET_STATE_REQUEST"
	GetStateResponse              WalletMessageType = "GET_STATE_RESPONSE"
	NewWalletRequest              WalletMessageType = "NEW_WALLET_REQUEST"
	NewWalletResponse             WalletMessageType = "NEW_WALLET_RESPONSE"
	UnlockRequest                 WalletMessageType = "UNLOCK_REQUEST"
	UnlockResponse                WalletMessageType = "UNLOCK_RESPONSE"
	LockRequest                   WalletMessageType = "LOCK_REQUEST"
	LockResponse                  WalletMessageType = "LOCK_RESPONSE"
	ChangePasswordRequest         WalletMessageType = "CHANGE_PASSWORD_REQUEST"
	ChangePasswordResponse        WalletMessageType = "CHANGE_PASSWORD_RESPONSE"
	CreateAccountRequest          WalletMessageType = "CREATE_ACCOUNT_REQUEST"
	CreateAccountResponse         WalletMessageType = "CREATE_ACCOUNT_RESPONSE"
	UpdateCurrentAccountRequest   WalletMessageType = "UPDATE_CURRENT_ACCOUNT_REQUEST"
	UpdateCurrentAccountResponse  WalletMessageType = "UPDATE_CURRENT_ACCOUNT_RESPONSE"
	RevealViewKeyRequest          WalletMessageType = "REVEAL_VIEW_KEY_REQUEST"
	RevealViewKeyResponse         WalletMessageType = "REVEAL_VIEW_KEY_RESPONSE"
	RevealMnemonicRequest         WalletMessageType = "REVEAL_MNEMONIC_REQUEST"
	RevealMnemonicResponse        WalletMessageType = "REVEAL_MNEMONIC_RESPONSE"
	RemoveAccountRequest          WalletMessageType = "REMOVE_ACCOUNT_REQUEST"
	RemoveAccountResponse         WalletMessageType = "REMOVE_ACCOUNT_RESPONSE"
	EditAccountRequest            WalletMessageType = "EDIT_ACCOUNT_REQUEST"
	EditAccountResponse           WalletMessageType = "EDIT_ACCOUNT_RESPONSE"
	ImportAccountRequest          WalletMessageType = "IMPORT_ACCOUNT_REQUEST"
	ImportAccountResponse         WalletMessageType = "IMPORT_ACCOUNT_RESPONSE"
	ImportMnemonicAccountRequest  WalletMessageType = "IMPORT_MNEMONIC_ACCOUNT_REQUEST"
	ImportMnemonicAccountResponse WalletMessageType = "IMPORT_MNEMONIC_ACCOUNT_RESPONSE"
	UpdateSettingsRequest         WalletMessageType = "UPDATE_SETTINGS_REQUEST"
	UpdateSettingsResponse        WalletMessageType = "UPDATE_SETTINGS_RESPONSE"
	SignTransactionRequest        WalletMessageType = "SIGN_TRANSACTION_REQUEST"
	SignTransactionResponse       WalletMessageType = "SIGN_TRANSACTION_RESPONSE"
	GetAuthSecretKeyRequest       WalletMessageType = "GET_AUTH_SECRET_KEY_REQUEST"
	GetAuthSecretKeyResponse      WalletMessageType = "GET_AUTH_SECRET_KEY_RESPONSE"
	PageRequest                   WalletMessageType = "PAGE_REQUEST"
	PageResponse                  WalletMessageType = "PAGE_RESPONSE"
	DAppGetAllSessionsRequest     WalletMessageType = "DAPP_GET_ALL_SESSIONS_REQUEST"
	DAppGetAllSessionsResponse    WalletMessageType = "DAPP_GET_ALL_SESSIONS_RESPONSE"
	DAppRemoveSessionRequest      WalletMessageType = "DAPP_REMOVE_SESSION_REQUEST"
	DAppRemoveSessionResponse     WalletMessageType = "DAPP_REMOVE_SESSION_RESPONSE"
	QueueTransactionRequest       WalletMessageType = "QUEUE_TRANSACTION_REQUEST"
	QueueTransactionResponse      WalletMessageType = "QUEUE_TRANSACTION_RESPONSE"
	GetTransactionsRequest        WalletMessageType = "GET_TRANSACTIONS_REQUEST"
	GetTransactionsResponse       WalletMessageType = "GET_TRANSACTIONS_RESPONSE"
	CancelTransactionRequest      WalletMessageType = "CANCEL_TRANSACTION_REQUEST"
	CancelTransactionResponse     WalletMessageType = "CANCEL_TRANSACTION_RESPONSE"
	GetTransactionMonitorRequest  WalletMessageType = "GET_TRANSACTION_MONITOR_REQUEST"
	GetTransactionMonitorResponse WalletMessageType = "GET_TRANSACTION_MONITOR_RESPONSE"
	GetOwnedRecordsRequest        WalletMessageType = "GET_OWNED_RECORDS_REQUEST"
	GetOwnedRecordsResponse       WalletMessageType = "GET_OWNED_RECORDS_RESPONSE"
	SyncRecordsRequest            WalletMessageType = "SYNC_RECORDS_REQUEST"
	SyncRecordsResponse           WalletMessageType = "SYNC_RECORDS_RESPONSE"
	AddWebhookRequest             WalletMessageType = "ADD_WEBHOOK_REQUEST"
	AddWebhookResponse            WalletMessageType = "ADD_WEBHOOK_RESPONSE"
	RemoveWebhookRequest          WalletMessageType = "REMOVE_WEBHOOK_REQUEST"
	RemoveWebhookResponse         WalletMessageType = "REMOVE_WEBHOOK_RESPONSE"
	ListWebhooksRequest           WalletMessageType = "LIST_WEBHOOKS_REQUEST"
	ListWebhooksResponse          WalletMessageType = "LIST_WEBHOOKS_RESPONSE"
)

// Request is the union of the fields of every request of the catalog. Only
// the ones relevant for Type are read.
type Request struct {
	Type WalletMessageType `json:"type"`

	Password         string            `json:"password,omitempty"`
	NewPassword      string            `json:"newPassword,omitempty"`
	Mnemonic         string            `json:"mnemonic,omitempty"`
	OwnMnemonic      bool              `json:"ownMnemonic,omitempty"`
	DerivationPath   string            `json:"derivationPath,omitempty"`
	PrivateKey       string            `json:"privateKey,omitempty"`
	WalletType       domain.WalletType `json:"walletType,omitempty"`
	Name             string            `json:"name,omitempty"`
	AccountPublicKey string            `json:"accountPublicKey,omitempty"`
	Settings         domain.Settings   `json:"settings,omitempty"`
	SigningInputs    string            `json:"signingInputs,omitempty"`
	Key              string            `json:"key,omitempty"`

	// Page requests
	Origin  string          `json:"origin,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`

	// Transactions
	ID              string                 `json:"id,omitempty"`
	TxType          domain.TransactionType `json:"txType,omitempty"`
	TxPayload       json.RawMessage        `json:"txPayload,omitempty"`
	OutstandingOnly bool                   `json:"outstandingOnly,omitempty"`

	// Records
	Address string `json:"address,omitempty"`

	// Webhooks
	Event    string `json:"event,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
	Secret   string `json:"secret,omitempty"`
}

// Response is the union of the fields of every response of the catalog.
type Response struct {
	Type WalletMessageType `json:"type"`

	State        *domain.FrontState         `json:"state,omitempty"`
	Accounts     []domain.Account           `json:"accounts,omitempty"`
	Account      *domain.Account            `json:"account,omitempty"`
	Settings     domain.Settings            `json:"settings,omitempty"`
	ViewKey      string                     `json:"viewKey,omitempty"`
	Mnemonic     string                     `json:"mnemonic,omitempty"`
	Signature    string                     `json:"signature,omitempty"`
	SecretKey    string                     `json:"secretKey,omitempty"`
	Payload      interface{}                `json:"payload,omitempty"`
	Sessions     []domain.DAppSession       `json:"sessions,omitempty"`
	Transaction  *domain.QueuedTransaction  `json:"transaction,omitempty"`
	Transactions []domain.QueuedTransaction `json:"transactions,omitempty"`
	Monitor      *pipeline.MonitorState     `json:"monitor,omitempty"`
	Records      []domain.OwnedRecord       `json:"records,omitempty"`
	Skipped      bool                       `json:"skipped,omitempty"`
	WebhookID    string                     `json:"webhookId,omitempty"`
	Webhooks     []pubsub.WebhookInfo       `json:"webhooks,omitempty"`
}

// Notification is broadcast to every connected front context. It carries
// no state, front contexts fetch it with GET_STATE.
type Notification struct {
	Type WalletMessageType `json:"type"`
}
