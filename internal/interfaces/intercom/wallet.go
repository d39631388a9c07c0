package intercominterface

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tdex-network/notewallet/internal/core/application/background"
	"github.com/tdex-network/notewallet/pkg/intercom"
)

type walletHandler struct {
	actions *background.Actions
}

// NewWalletHandler returns the intercom handler of the wallet actions.
func NewWalletHandler(actions *background.Actions) intercom.RequestHandler {
	h := &walletHandler{actions}
	return withStats(h.handle)
}

func (h *walletHandler) handle(
	ctx context.Context, req Request,
) (*Response, error) {
	switch req.Type {
	case GetStateRequest:
		return h.getState(ctx)
	case NewWalletRequest:
		return h.newWallet(ctx, req)
	case UnlockRequest:
		return h.unlock(ctx, req)
	case LockRequest:
		return h.lock(ctx)
	case ChangePasswordRequest:
		return h.changePassword(ctx, req)
	case CreateAccountRequest:
		return h.createAccount(ctx, req)
	case UpdateCurrentAccountRequest:
		return h.updateCurrentAccount(ctx, req)
	case RevealViewKeyRequest:
		return h.revealViewKey(ctx, req)
	case RevealMnemonicRequest:
		return h.revealMnemonic(ctx, req)
	case RemoveAccountRequest:
		return h.removeAccount(ctx, req)
	case EditAccountRequest:
		return h.editAccount(ctx, req)
	case ImportAccountRequest:
		return h.importAccount(ctx, req)
	case ImportMnemonicAccountRequest:
		return h.importMnemonicAccount(ctx, req)
	case UpdateSettingsRequest:
		return h.updateSettings(ctx, req)
	case SignTransactionRequest:
		return h.signTransaction(ctx, req)
	case GetAuthSecretKeyRequest:
		return h.getAuthSecretKey(ctx, req)
	case PageRequest:
		return h.page(ctx, req)
	case DAppGetAllSessionsRequest:
		return h.getDAppSessions(ctx)
	case DAppRemoveSessionRequest:
		return h.removeDAppSession(ctx, req)
	default:
		return nil, nil
	}
}

func (h *walletHandler) getState(ctx context.Context) (*Response, error) {
	state, err := h.actions.GetFrontState(ctx)
	if err != nil {
		return nil, err
	}
	return &Response{Type: GetStateResponse, State: &state}, nil
}

func (h *walletHandler) newWallet(ctx context.Context, req Request) (*Response, error) {
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}
	if err := h.actions.RegisterNewWallet(
		ctx, req.Password, req.Mnemonic, req.OwnMnemonic,
	); err != nil {
		return nil, err
	}
	return &Response{Type: NewWalletResponse}, nil
}

func (h *walletHandler) unlock(ctx context.Context, req Request) (*Response, error) {
	if err := h.actions.Unlock(ctx, req.Password); err != nil {
		return nil, err
	}
	return &Response{Type: UnlockResponse}, nil
}

func (h *walletHandler) lock(ctx context.Context) (*Response, error) {
	if err := h.actions.Lock(ctx); err != nil {
		return nil, err
	}
	return &Response{Type: LockResponse}, nil
}

func (h *walletHandler) changePassword(
	ctx context.Context, req Request,
) (*Response, error) {
	if err := validatePassword(req.NewPassword); err != nil {
		return nil, err
	}
	if err := h.actions.ChangePassword(ctx, req.Password, req.NewPassword); err != nil {
		return nil, err
	}
	return &Response{Type: ChangePasswordResponse}, nil
}

func (h *walletHandler) createAccount(
	ctx context.Context, req Request,
) (*Response, error) {
	accounts, err := h.actions.CreateHDAccount(ctx, req.WalletType, req.Name)
	if err != nil {
		return nil, err
	}
	return &Response{Type: CreateAccountResponse, Accounts: accounts}, nil
}

func (h *walletHandler) updateCurrentAccount(
	ctx context.Context, req Request,
) (*Response, error) {
	account, err := h.actions.UpdateCurrentAccount(ctx, req.AccountPublicKey)
	if err != nil {
		return nil, err
	}
	return &Response{Type: UpdateCurrentAccountResponse, Account: account}, nil
}

func (h *walletHandler) revealViewKey(
	ctx context.Context, req Request,
) (*Response, error) {
	viewKey, err := h.actions.RevealViewKey(ctx, req.AccountPublicKey, req.Password)
	if err != nil {
		return nil, err
	}
	return &Response{Type: RevealViewKeyResponse, ViewKey: viewKey}, nil
}

func (h *walletHandler) revealMnemonic(
	ctx context.Context, req Request,
) (*Response, error) {
	mnemonic, err := h.actions.RevealMnemonic(ctx, req.Password)
	if err != nil {
		return nil, err
	}
	return &Response{Type: RevealMnemonicResponse, Mnemonic: mnemonic}, nil
}

func (h *walletHandler) removeAccount(
	ctx context.Context, req Request,
) (*Response, error) {
	accounts, err := h.actions.RemoveAccount(ctx, req.AccountPublicKey, req.Password)
	if err != nil {
		return nil, err
	}
	return &Response{Type: RemoveAccountResponse, Accounts: accounts}, nil
}

func (h *walletHandler) editAccount(
	ctx context.Context, req Request,
) (*Response, error) {
	accounts, err := h.actions.EditAccount(ctx, req.AccountPublicKey, req.Name)
	if err != nil {
		return nil, err
	}
	return &Response{Type: EditAccountResponse, Accounts: accounts}, nil
}

func (h *walletHandler) importAccount(
	ctx context.Context, req Request,
) (*Response, error) {
	accounts, err := h.actions.ImportAccount(
		ctx, req.PrivateKey, req.WalletType, req.Name,
	)
	if err != nil {
		return nil, err
	}
	return &Response{Type: ImportAccountResponse, Accounts: accounts}, nil
}

func (h *walletHandler) importMnemonicAccount(
	ctx context.Context, req Request,
) (*Response, error) {
	accounts, err := h.actions.ImportMnemonicAccount(
		ctx, req.Mnemonic, req.DerivationPath, req.WalletType, req.Name,
	)
	if err != nil {
		return nil, err
	}
	return &Response{Type: ImportMnemonicAccountResponse, Accounts: accounts}, nil
}

func (h *walletHandler) updateSettings(
	ctx context.Context, req Request,
) (*Response, error) {
	settings, err := h.actions.UpdateSettings(ctx, req.Settings)
	if err != nil {
		return nil, err
	}
	return &Response{Type: UpdateSettingsResponse, Settings: settings}, nil
}

func (h *walletHandler) signTransaction(
	ctx context.Context, req Request,
) (*Response, error) {
	sig, err := h.actions.SignTransaction(ctx, req.AccountPublicKey, req.SigningInputs)
	if err != nil {
		return nil, err
	}
	return &Response{Type: SignTransactionResponse, Signature: sig}, nil
}

func (h *walletHandler) getAuthSecretKey(
	ctx context.Context, req Request,
) (*Response, error) {
	secret, err := h.actions.GetAuthSecretKey(ctx, req.Key)
	if err != nil {
		return nil, err
	}
	return &Response{Type: GetAuthSecretKeyResponse, SecretKey: secret}, nil
}

// page handles the messages relayed from a web page. The payload is either
// the PING string or a DApp request.
func (h *walletHandler) page(ctx context.Context, req Request) (*Response, error) {
	var ping string
	if err := json.Unmarshal(req.Payload, &ping); err == nil {
		pong, ok := h.actions.Ping(ping)
		if !ok {
			return nil, background.ErrDAppInvalidRequest
		}
		return &Response{Type: PageResponse, Payload: pong}, nil
	}

	dappReq := background.DAppRequest{}
	if err := json.Unmarshal(req.Payload, &dappReq); err != nil {
		return nil, background.ErrDAppInvalidRequest
	}
	res, err := h.actions.ProcessDApp(ctx, req.Origin, dappReq)
	if err != nil {
		return nil, err
	}
	return &Response{Type: PageResponse, Payload: res}, nil
}

func (h *walletHandler) getDAppSessions(ctx context.Context) (*Response, error) {
	sessions, err := h.actions.GetDAppSessions(ctx)
	if err != nil {
		return nil, err
	}
	return &Response{Type: DAppGetAllSessionsResponse, Sessions: sessions}, nil
}

func (h *walletHandler) removeDAppSession(
	ctx context.Context, req Request,
) (*Response, error) {
	if req.Origin == "" {
		return nil, fmt.Errorf("missing origin")
	}
	if err := h.actions.RemoveDAppSession(ctx, req.Origin); err != nil {
		return nil, err
	}
	return &Response{Type: DAppRemoveSessionResponse}, nil
}
