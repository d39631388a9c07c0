package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tdex-network/notewallet/pkg/securestore"
)

const (
	storeFilename = "storage.json"
)

// store persists all pairs in a single JSON file that is atomically rewritten
// at every change. It's the provider used by mobile builds where the file
// lives inside the keystore-protected app sandbox.
type store struct {
	lock     *sync.Mutex
	filePath string
}

// NewStore returns a file-backed storage provider rooted at datadir.
func NewStore(datadir string) (securestore.Provider, error) {
	if len(datadir) <= 0 {
		return nil, fmt.Errorf("missing datadir")
	}
	if err := makeDirectoryIfNotExists(datadir); err != nil {
		return nil, fmt.Errorf("failed to initialize datadir: %s", err)
	}

	s := &store{&sync.Mutex{}, filepath.Join(datadir, storeFilename)}
	if _, err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *store) Get(_ context.Context, keys []string) (map[string]string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	data, err := s.open()
	if err != nil {
		return nil, err
	}

	res := make(map[string]string)
	for _, k := range keys {
		if v, ok := data[k]; ok {
			res[k] = v
		}
	}
	return res, nil
}

func (s *store) Set(_ context.Context, items map[string]string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	data, err := s.open()
	if err != nil {
		return err
	}
	for k, v := range items {
		data[k] = v
	}
	return s.write(data)
}

func (s *store) Remove(_ context.Context, keys []string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	data, err := s.open()
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(data, k)
	}
	return s.write(data)
}

func (s *store) Close() error { return nil }

func (s *store) open() (map[string]string, error) {
	file, err := os.ReadFile(s.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to open store: %s", err)
		}
		data := map[string]string{}
		if err := s.write(data); err != nil {
			return nil, fmt.Errorf("failed to initialize store: %s", err)
		}
		return data, nil
	}

	data := map[string]string{}
	if err := json.Unmarshal(file, &data); err != nil {
		return nil, fmt.Errorf("failed to read file store: %s", err)
	}
	return data, nil
}

func (s *store) write(data map[string]string) error {
	buf, err := json.Marshal(data)
	if err != nil {
		return err
	}

	tmpPath := s.filePath + ".tmp"
	if err := os.WriteFile(tmpPath, buf, 0600); err != nil {
		return err
	}
	return os.Rename(tmpPath, s.filePath)
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
