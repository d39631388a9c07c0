package pubsub

import (
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"github.com/tdex-network/notewallet/internal/core/ports"
)

// webhook is the persisted form of a subscription.
type webhook struct {
	ID       string `json:"id"`
	Event    string `json:"event"`
	Endpoint string `json:"endpoint"`
	// Secret signs the bearer token sent along with every notification.
	Secret string `json:"secret,omitempty"`
}

type webhooks []webhook

func newWebhook(event, endpoint, secret string) (*webhook, error) {
	if len(event) <= 0 {
		return nil, fmt.Errorf("missing event")
	}
	u, err := url.ParseRequestURI(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("invalid webhook endpoint, must be an http(s) URL")
	}
	return &webhook{
		ID:       uuid.New().String(),
		Event:    event,
		Endpoint: endpoint,
		Secret:   secret,
	}, nil
}

// notifies returns whether the webhook must be called for the given event.
// Webhooks of any event are notified of everything but explicit wildcard
// publications, and the unspecified event matches all webhooks.
func (w webhook) notifies(event string) bool {
	switch {
	case event == ports.UnspecifiedTopic, w.Event == event:
		return true
	default:
		return w.Event == ports.AnyTopic && event != ports.AnyTopic
	}
}

func (w webhook) isSecured() bool {
	return len(w.Secret) > 0
}

// bearerToken returns an HS256 jwt signed with the webhook secret, with the
// event as subject.
func (w webhook) bearerToken(issuedAt time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		Subject:  w.Event,
		IssuedAt: issuedAt.Unix(),
	})
	return token.SignedString([]byte(w.Secret))
}

func (w webhooks) toSubscriptions() []ports.Subscription {
	subs := make([]ports.Subscription, 0, len(w))
	for _, hook := range w {
		subs = append(subs, ports.Subscription{
			ID:       hook.ID,
			Topic:    hook.Event,
			Endpoint: hook.Endpoint,
			Secured:  hook.isSecured(),
		})
	}
	return subs
}
