package domain

import "context"

// DAppSession is the permission granted to a web page to interact with one of
// the wallet's accounts. A page can hold one session per account.
type DAppSession struct {
	Origin                string `json:"origin"`
	AppName               string `json:"appName"`
	AccountPublicKey      string `json:"accountPublicKey"`
	Network               string `json:"network"`
	PrivateDataPermission string `json:"privateDataPermission"`
	GrantedAt             int64  `json:"grantedAt"`
}

// Key uniquely identifies the session.
func (s DAppSession) Key() string {
	return DAppSessionKey(s.Origin, s.AccountPublicKey)
}

func DAppSessionKey(origin, accountPublicKey string) string {
	return origin + "|" + accountPublicKey
}

// DAppSessionRepository persists the granted DApp sessions.
type DAppSessionRepository interface {
	// AddSession adds the given session or replaces the existing one for the
	// same origin and account.
	AddSession(ctx context.Context, session DAppSession) error
	GetSession(
		ctx context.Context, origin, accountPublicKey string,
	) (*DAppSession, error)
	GetAllSessions(ctx context.Context) ([]DAppSession, error)
	DeleteSession(ctx context.Context, origin, accountPublicKey string) error
}
