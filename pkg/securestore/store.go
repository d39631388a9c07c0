package securestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrStorage wraps every failure coming from the underlying platform store.
var ErrStorage = errors.New("storage error")

// Provider interface defines the methods for a platform key/value store.
// Implementations never interpret keys nor values.
type Provider interface {
	// Get returns the values of the given keys. Missing keys are omitted from
	// the returned map.
	Get(ctx context.Context, keys []string) (map[string]string, error)
	// Set adds or overwrites all the given pairs at once.
	Set(ctx context.Context, items map[string]string) error
	// Remove deletes the given keys. Missing keys are ignored.
	Remove(ctx context.Context, keys []string) error
	// Close closes the connection to the store.
	Close() error
}

// SecureStorage is the key/value store seen by the rest of the wallet.
type SecureStorage interface {
	Get(ctx context.Context, keys []string) (map[string]string, error)
	Set(ctx context.Context, items map[string]string) error
	Remove(ctx context.Context, keys []string) error
	Close() error
}

// Adapter is a SecureStorage that replaces every key with its SHA-256 hex
// digest before handing it to the Provider. The provider never sees the
// plaintext key names.
type Adapter struct {
	provider Provider
}

// NewAdapter returns a SecureStorage on top of the given provider.
func NewAdapter(provider Provider) (*Adapter, error) {
	if provider == nil {
		return nil, fmt.Errorf("missing storage provider")
	}
	return &Adapter{provider}, nil
}

// WrapKey returns the storage key actually used for the given key name.
func WrapKey(key string) string {
	buf := sha256.Sum256([]byte(key))
	return hex.EncodeToString(buf[:])
}

func (a *Adapter) Get(
	ctx context.Context, keys []string,
) (map[string]string, error) {
	wrappedKeys := make([]string, 0, len(keys))
	keysByWrapped := make(map[string]string, len(keys))
	for _, k := range keys {
		wk := WrapKey(k)
		wrappedKeys = append(wrappedKeys, wk)
		keysByWrapped[wk] = k
	}

	items, err := a.provider.Get(ctx, wrappedKeys)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrStorage, err)
	}

	res := make(map[string]string, len(items))
	for wk, v := range items {
		if k, ok := keysByWrapped[wk]; ok {
			res[k] = v
		}
	}
	return res, nil
}

func (a *Adapter) Set(ctx context.Context, items map[string]string) error {
	wrapped := make(map[string]string, len(items))
	for k, v := range items {
		wrapped[WrapKey(k)] = v
	}
	if err := a.provider.Set(ctx, wrapped); err != nil {
		return fmt.Errorf("%w: %s", ErrStorage, err)
	}
	return nil
}

func (a *Adapter) Remove(ctx context.Context, keys []string) error {
	wrapped := make([]string, 0, len(keys))
	for _, k := range keys {
		wrapped = append(wrapped, WrapKey(k))
	}
	if err := a.provider.Remove(ctx, wrapped); err != nil {
		return fmt.Errorf("%w: %s", ErrStorage, err)
	}
	return nil
}

func (a *Adapter) Close() error {
	return a.provider.Close()
}
