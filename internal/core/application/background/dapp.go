package background

import (
	"context"
	"errors"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/notewallet/internal/core/domain"
)

// DAppMessageType is the type of a message exchanged with a web page.
type DAppMessageType string

const (
	DAppGetCurrentPermissionRequest  DAppMessageType = "GET_CURRENT_PERMISSION_REQUEST"
	DAppGetCurrentPermissionResponse DAppMessageType = "GET_CURRENT_PERMISSION_RESPONSE"
	DAppPermissionRequest            DAppMessageType = "PERMISSION_REQUEST"
	DAppPermissionResponse           DAppMessageType = "PERMISSION_RESPONSE"
	DAppDisconnectRequest            DAppMessageType = "DISCONNECT_REQUEST"
	DAppDisconnectResponse           DAppMessageType = "DISCONNECT_RESPONSE"

	// PageRequestPing is sent by a page to check the wallet is reachable.
	PageRequestPing = "PING"
	// PageResponsePong is the answer to PageRequestPing.
	PageResponsePong = "PONG"
)

const (
	PrivateDataPermissionUponRequest = "UPON_REQUEST"
	PrivateDataPermissionAuto        = "AUTO"
)

var (
	ErrDAppNotFound          = errors.New("NOT_FOUND")
	ErrDAppInvalidParams     = errors.New("INVALID_PARAMS")
	ErrDAppNetworkNotGranted = errors.New("NETWORK_NOT_GRANTED")
	ErrDAppInvalidRequest    = errors.New("INVALID_REQUEST")
)

// DAppRequest is a message sent by a web page.
type DAppRequest struct {
	Type                  DAppMessageType `json:"type"`
	AppName               string          `json:"appName,omitempty"`
	Network               string          `json:"network,omitempty"`
	Force                 bool            `json:"force,omitempty"`
	PrivateDataPermission string          `json:"privateDataPermission,omitempty"`
}

// DAppPermission is the permission currently granted to a page.
type DAppPermission struct {
	AccountID             string `json:"accountId"`
	Network               string `json:"network"`
	PrivateDataPermission string `json:"privateDataPermission"`
}

// DAppResponse is the reply to a DAppRequest.
type DAppResponse struct {
	Type                  DAppMessageType `json:"type"`
	AccountID             string          `json:"accountId,omitempty"`
	PublicKey             string          `json:"publicKey,omitempty"`
	Network               string          `json:"network,omitempty"`
	PrivateDataPermission string          `json:"privateDataPermission,omitempty"`
	Permission            *DAppPermission `json:"permission,omitempty"`
}

// Ping answers the reachability check of a page.
func (a *Actions) Ping(payload string) (string, bool) {
	if payload != PageRequestPing {
		return "", false
	}
	return PageResponsePong, true
}

// ProcessDApp handles a request sent by the page with the given origin.
func (a *Actions) ProcessDApp(
	ctx context.Context, origin string, req DAppRequest,
) (*DAppResponse, error) {
	origin = strings.TrimSpace(origin)
	if len(origin) <= 0 {
		return nil, ErrDAppInvalidParams
	}

	switch req.Type {
	case DAppGetCurrentPermissionRequest:
		return a.getCurrentPermission(ctx, origin)
	case DAppPermissionRequest:
		return a.requestPermission(ctx, origin, req)
	case DAppDisconnectRequest:
		return a.requestDisconnect(ctx, origin)
	default:
		return nil, ErrDAppInvalidRequest
	}
}

// GetDAppSessions returns all the granted sessions.
func (a *Actions) GetDAppSessions(ctx context.Context) ([]domain.DAppSession, error) {
	return a.sessions.GetAllSessions(ctx)
}

// RemoveDAppSession revokes the session of the given origin for the current
// account.
func (a *Actions) RemoveDAppSession(ctx context.Context, origin string) error {
	account, err := a.GetCurrentAccount(ctx)
	if err != nil {
		return err
	}
	return a.sessions.DeleteSession(ctx, origin, account.PublicKey)
}

func (a *Actions) getCurrentPermission(
	ctx context.Context, origin string,
) (*DAppResponse, error) {
	res := &DAppResponse{Type: DAppGetCurrentPermissionResponse}

	account, err := a.GetCurrentAccount(ctx)
	if err != nil {
		// A locked or brand new wallet has no permission to show.
		if errors.Is(err, domain.ErrLocked) || errors.Is(err, domain.ErrInvalidState) {
			return res, nil
		}
		return nil, err
	}

	session, err := a.sessions.GetSession(ctx, origin, account.PublicKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return res, nil
		}
		return nil, err
	}

	res.Permission = &DAppPermission{
		AccountID:             session.AccountPublicKey,
		Network:               session.Network,
		PrivateDataPermission: session.PrivateDataPermission,
	}
	return res, nil
}

func (a *Actions) requestPermission(
	ctx context.Context, origin string, req DAppRequest,
) (*DAppResponse, error) {
	appName := strings.TrimSpace(req.AppName)
	if len(appName) <= 0 {
		return nil, ErrDAppInvalidParams
	}
	if !a.networks[req.Network] {
		return nil, ErrDAppNetworkNotGranted
	}

	privateDataPermission := req.PrivateDataPermission
	switch privateDataPermission {
	case "":
		privateDataPermission = PrivateDataPermissionUponRequest
	case PrivateDataPermissionUponRequest, PrivateDataPermissionAuto:
	default:
		return nil, ErrDAppInvalidParams
	}

	account, err := a.GetCurrentAccount(ctx)
	if err != nil {
		return nil, err
	}

	session, err := a.sessions.GetSession(ctx, origin, account.PublicKey)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	if session == nil || req.Force || session.AppName != appName ||
		session.Network != req.Network {
		session = &domain.DAppSession{
			Origin:                origin,
			AppName:               appName,
			AccountPublicKey:      account.PublicKey,
			Network:               req.Network,
			PrivateDataPermission: privateDataPermission,
			GrantedAt:             time.Now().Unix(),
		}
		if err := a.sessions.AddSession(ctx, *session); err != nil {
			return nil, err
		}
		log.WithFields(log.Fields{
			"origin":  origin,
			"network": req.Network,
		}).Info("dapp permission granted")
	}

	return &DAppResponse{
		Type:                  DAppPermissionResponse,
		AccountID:             session.AccountPublicKey,
		PublicKey:             session.AccountPublicKey,
		Network:               session.Network,
		PrivateDataPermission: session.PrivateDataPermission,
	}, nil
}

func (a *Actions) requestDisconnect(
	ctx context.Context, origin string,
) (*DAppResponse, error) {
	account, err := a.GetCurrentAccount(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := a.sessions.GetSession(ctx, origin, account.PublicKey); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrDAppNotFound
		}
		return nil, err
	}
	if err := a.sessions.DeleteSession(ctx, origin, account.PublicKey); err != nil {
		return nil, err
	}
	return &DAppResponse{Type: DAppDisconnectResponse}, nil
}

func (a *Actions) removeSessionsForAccount(ctx context.Context, publicKey string) {
	sessions, err := a.sessions.GetAllSessions(ctx)
	if err != nil {
		log.WithError(err).Warn("failed to fetch dapp sessions")
		return
	}
	for _, s := range sessions {
		if s.AccountPublicKey != publicKey {
			continue
		}
		if err := a.sessions.DeleteSession(ctx, s.Origin, s.AccountPublicKey); err != nil {
			log.WithError(err).Warnf("failed to remove dapp session for %s", s.Origin)
		}
	}
}
