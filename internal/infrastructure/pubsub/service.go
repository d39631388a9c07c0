package pubsub

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/tdex-network/notewallet/internal/core/ports"
	"github.com/tdex-network/notewallet/pkg/circuitbreaker"
	"github.com/tdex-network/notewallet/pkg/securestore"
	"github.com/tdex-network/notewallet/pkg/util"
	"golang.org/x/sync/errgroup"
)

// DefaultRequestTimeout ...
const DefaultRequestTimeout = 15 * time.Second

type service struct {
	store      store
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker
	lock       *sync.Mutex
}

// NewService returns a webhook ports.PubSub persisting its subscriptions in
// the given secure store.
func NewService(secureStore securestore.SecureStorage) (ports.PubSub, error) {
	if secureStore == nil {
		return nil, fmt.Errorf("missing secure store")
	}

	return &service{
		store:      store{secureStore},
		httpClient: &http.Client{Timeout: DefaultRequestTimeout},
		cb:         circuitbreaker.New(circuitbreaker.Settings{Service: "webhooks"}),
		lock:       &sync.Mutex{},
	}, nil
}

func (ws *service) Subscribe(
	ctx context.Context, topic, endpoint, secret string,
) (string, error) {
	hook, err := newWebhook(topic, endpoint, secret)
	if err != nil {
		return "", err
	}

	ws.lock.Lock()
	defer ws.lock.Unlock()

	hooks, err := ws.store.getWebhooks(ctx)
	if err != nil {
		return "", err
	}
	for _, h := range hooks {
		if h.Event == hook.Event && h.Endpoint == hook.Endpoint {
			return h.ID, nil
		}
	}
	hooks = append(hooks, *hook)
	if err := ws.store.setWebhooks(ctx, hooks); err != nil {
		return "", err
	}
	return hook.ID, nil
}

func (ws *service) Unsubscribe(ctx context.Context, id string) error {
	ws.lock.Lock()
	defer ws.lock.Unlock()

	hooks, err := ws.store.getWebhooks(ctx)
	if err != nil {
		return err
	}
	for i, h := range hooks {
		if h.ID == id {
			hooks = append(hooks[:i], hooks[i+1:]...)
			return ws.store.setWebhooks(ctx, hooks)
		}
	}
	return fmt.Errorf("webhook not found")
}

func (ws *service) ListSubscriptionsForTopic(
	ctx context.Context, topic string,
) ([]ports.Subscription, error) {
	hooks, err := ws.listWebhooks(ctx, topic)
	if err != nil {
		return nil, err
	}
	return hooks.toSubscriptions(), nil
}

func (ws *service) Publish(
	ctx context.Context, topic string, message []byte,
) error {
	hooks, err := ws.listWebhooks(ctx, topic)
	if err != nil {
		return err
	}

	eg, ctx := errgroup.WithContext(ctx)
	for i := range hooks {
		hook := hooks[i]
		eg.Go(func() error { return ws.notify(ctx, hook, message) })
	}
	return eg.Wait()
}

func (ws *service) Close() error {
	return ws.store.Close()
}

func (ws *service) listWebhooks(
	ctx context.Context, topic string,
) (webhooks, error) {
	ws.lock.Lock()
	all, err := ws.store.getWebhooks(ctx)
	ws.lock.Unlock()
	if err != nil {
		return nil, err
	}

	hooks := make(webhooks, 0, len(all))
	for _, h := range all {
		if h.notifies(topic) {
			hooks = append(hooks, h)
		}
	}
	sort.SliceStable(hooks, func(i, j int) bool {
		return hooks[i].ID < hooks[j].ID
	})
	return hooks, nil
}

func (ws *service) notify(
	ctx context.Context, hook webhook, payload []byte,
) error {
	_, err := ws.cb.Execute(func() (interface{}, error) {
		headers := map[string]string{}
		if hook.isSecured() {
			token, err := hook.bearerToken(time.Now())
			if err != nil {
				return nil, err
			}
			headers["Authorization"] = fmt.Sprintf("Bearer %s", token)
		}

		status, resp, err := util.NewHTTPRequest(
			ctx, ws.httpClient, http.MethodPost, hook.Endpoint, payload, headers,
		)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("webhook %s: %s", hook.ID, string(resp))
		}
		return nil, nil
	})
	if err != nil {
		log.WithError(err).Debugf("failed to notify webhook %s", hook.ID)
	}
	return err
}
