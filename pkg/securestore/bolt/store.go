package boltsecurestore

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/tdex-network/notewallet/pkg/securestore"
	bolt "go.etcd.io/bbolt"
)

const (
	// DefaultDBTimeout is the time waited to acquire the file lock of the db.
	DefaultDBTimeout = 10 * time.Second
)

var (
	// RootBucketName is the name of the bucket holding all pairs.
	RootBucketName = []byte("storage")
)

type boltStorage struct {
	db *bolt.DB
}

// NewStore creates a bolt instance of the securestore.Provider interface.
// This is the provider used when running as browser extension background,
// where the bolt file plays the role of the extension local storage.
func NewStore(datadir, filename string) (securestore.Provider, error) {
	if _, err := os.Stat(datadir); os.IsNotExist(err) {
		if err := os.MkdirAll(datadir, os.ModeDir|0755); err != nil {
			return nil, err
		}
	}

	db, err := bolt.Open(
		filepath.Join(datadir, filename), 0600,
		&bolt.Options{Timeout: DefaultDBTimeout},
	)
	if err != nil {
		return nil, err
	}

	// If the store's bucket doesn't exist, create it.
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(RootBucketName)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &boltStorage{db}, nil
}

func (s *boltStorage) Get(
	_ context.Context, keys []string,
) (map[string]string, error) {
	res := make(map[string]string)
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(RootBucketName)
		if bucket == nil {
			return ErrRootBucketNotFound
		}
		for _, k := range keys {
			if v := bucket.Get([]byte(k)); v != nil {
				res[k] = string(v)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *boltStorage) Set(_ context.Context, items map[string]string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(RootBucketName)
		if bucket == nil {
			return ErrRootBucketNotFound
		}
		for k, v := range items {
			if len(k) <= 0 {
				return ErrMissingDataKey
			}
			if err := bucket.Put([]byte(k), []byte(v)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *boltStorage) Remove(_ context.Context, keys []string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(RootBucketName)
		if bucket == nil {
			return ErrRootBucketNotFound
		}
		for _, k := range keys {
			if err := bucket.Delete([]byte(k)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *boltStorage) Close() error {
	return s.db.Close()
}
