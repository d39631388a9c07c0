package pubsub

import (
	"context"
	"encoding/json"

	"github.com/tdex-network/notewallet/pkg/securestore"
)

const webhooksKey = "pubsub.webhooks"

type store struct {
	store securestore.SecureStorage
}

func (s store) getWebhooks(ctx context.Context) (webhooks, error) {
	items, err := s.store.Get(ctx, []string{webhooksKey})
	if err != nil {
		return nil, err
	}
	hooks := webhooks{}
	raw, ok := items[webhooksKey]
	if !ok || raw == "" {
		return hooks, nil
	}
	if err := json.Unmarshal([]byte(raw), &hooks); err != nil {
		return nil, err
	}
	return hooks, nil
}

func (s store) setWebhooks(ctx context.Context, hooks webhooks) error {
	if len(hooks) <= 0 {
		return s.store.Remove(ctx, []string{webhooksKey})
	}
	buf, err := json.Marshal(hooks)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, map[string]string{webhooksKey: string(buf)})
}

func (s store) Close() error {
	return s.store.Close()
}
