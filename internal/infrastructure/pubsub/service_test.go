package pubsub_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/notewallet/internal/core/ports"
	"github.com/tdex-network/notewallet/internal/infrastructure/pubsub"
	"github.com/tdex-network/notewallet/pkg/securestore"
	inmemorystore "github.com/tdex-network/notewallet/pkg/securestore/inmemory"
)

const (
	topicCompleted = "TRANSACTION_COMPLETED"
	topicFailed    = "TRANSACTION_FAILED"
	secret         = "secret"
	testMessage    = `{"event":"TRANSACTION_COMPLETED","transaction":{"id":"tx"}}`
)

var ctx = context.Background()

type received struct {
	path  string
	body  string
	token string
}

func newTestWebServer(t *testing.T) (*httptest.Server, func() []received) {
	lock := &sync.Mutex{}
	calls := make([]received, 0)

	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			lock.Lock()
			calls = append(calls, received{
				path:  r.URL.Path,
				body:  string(body),
				token: strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "),
			})
			lock.Unlock()
			w.WriteHeader(http.StatusOK)
		},
	))
	t.Cleanup(server.Close)

	return server, func() []received {
		lock.Lock()
		defer lock.Unlock()
		return append([]received{}, calls...)
	}
}

func newTestService(t *testing.T) (ports.PubSub, securestore.SecureStorage) {
	secureStore, err := securestore.NewAdapter(inmemorystore.NewStore())
	require.NoError(t, err)
	svc, err := pubsub.NewService(secureStore)
	require.NoError(t, err)
	return svc, secureStore
}

func TestSubscribe(t *testing.T) {
	svc, secureStore := newTestService(t)

	tests := []struct {
		name     string
		topic    string
		endpoint string
	}{
		{"missing topic", "", "http://localhost/hook"},
		{"invalid endpoint", topicCompleted, "not an url"},
		{"unsupported scheme", topicCompleted, "ftp://localhost/hook"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Subscribe(ctx, tt.topic, tt.endpoint, "")
			require.Error(t, err)
		})
	}

	id, err := svc.Subscribe(ctx, topicCompleted, "http://localhost/hook", "")
	require.NoError(t, err)
	sameID, err := svc.Subscribe(ctx, topicCompleted, "http://localhost/hook", "")
	require.NoError(t, err)
	require.Equal(t, id, sameID)

	anyID, err := svc.Subscribe(ctx, ports.AnyTopic, "http://localhost/all", secret)
	require.NoError(t, err)

	subs, err := svc.ListSubscriptionsForTopic(ctx, topicCompleted)
	require.NoError(t, err)
	require.Len(t, subs, 2)

	subs, err = svc.ListSubscriptionsForTopic(ctx, topicFailed)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	require.Equal(t, anyID, subs[0].ID)
	require.Equal(t, ports.AnyTopic, subs[0].Topic)
	require.True(t, subs[0].Secured)

	// Subscriptions are persisted in the secure store.
	reloaded, err := pubsub.NewService(secureStore)
	require.NoError(t, err)
	subs, err = reloaded.ListSubscriptionsForTopic(ctx, ports.UnspecifiedTopic)
	require.NoError(t, err)
	require.Len(t, subs, 2)

	require.NoError(t, svc.Unsubscribe(ctx, id))
	require.Error(t, svc.Unsubscribe(ctx, id))
	subs, err = svc.ListSubscriptionsForTopic(ctx, ports.UnspecifiedTopic)
	require.NoError(t, err)
	require.Len(t, subs, 1)
}

func TestPublish(t *testing.T) {
	svc, _ := newTestService(t)
	server, calls := newTestWebServer(t)

	_, err := svc.Subscribe(ctx, topicCompleted, server.URL+"/completed", "")
	require.NoError(t, err)
	_, err = svc.Subscribe(ctx, ports.AnyTopic, server.URL+"/all", secret)
	require.NoError(t, err)

	require.NoError(t, svc.Publish(ctx, topicCompleted, []byte(testMessage)))
	require.NoError(t, svc.Publish(ctx, topicFailed, []byte(`{}`)))

	list := calls()
	require.Len(t, list, 3)

	byPath := map[string][]received{}
	for _, c := range list {
		byPath[c.path] = append(byPath[c.path], c)
	}
	require.Len(t, byPath["/completed"], 1)
	require.Equal(t, testMessage, byPath["/completed"][0].body)
	require.Empty(t, byPath["/completed"][0].token)

	require.Len(t, byPath["/all"], 2)
	for _, c := range byPath["/all"] {
		token, err := jwt.Parse(c.token, func(*jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})
		require.NoError(t, err)
		require.True(t, token.Valid)
	}
}

func TestPublishFailure(t *testing.T) {
	svc, _ := newTestService(t)
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
	))
	defer server.Close()

	_, err := svc.Subscribe(ctx, topicCompleted, server.URL, "")
	require.NoError(t, err)
	require.Error(t, svc.Publish(ctx, topicCompleted, []byte(testMessage)))
}
