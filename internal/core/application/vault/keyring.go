package vault

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/notewallet/pkg/passworder"
)

type derivation int

const (
	derivationCurrent derivation = iota
	derivationLegacyRounds
	derivationLegacyKey
)

// keyring holds the password derived material of an unlocked vault. New
// entries are sealed with the session salt; entries with other salts or
// written with legacy parameters are opened by deriving the matching key on
// demand.
type keyring struct {
	passKey       passworder.KeyMaterial
	legacyPassKey passworder.KeyMaterial
	iterations    int
	legacyRounds  int

	salt    []byte
	sealKey *passworder.DerivedKey

	lock  *sync.Mutex
	cache map[string]*passworder.DerivedKey
}

func newKeyring(password string, salt []byte, opts Options) (*keyring, error) {
	if len(salt) <= 0 {
		var err error
		if salt, err = passworder.GenerateSalt(passworder.DefaultSaltSize); err != nil {
			return nil, err
		}
	}

	k := &keyring{
		passKey:       passworder.GenerateKey(password),
		legacyPassKey: passworder.GenerateKeyLegacy(password),
		iterations:    opts.iterations(),
		legacyRounds:  opts.legacyIterations(),
		salt:          salt,
		lock:          &sync.Mutex{},
		cache:         map[string]*passworder.DerivedKey{},
	}
	sealKey, err := k.derive(salt, derivationCurrent)
	if err != nil {
		return nil, err
	}
	k.sealKey = sealKey
	return k, nil
}

func (k *keyring) seal(value interface{}) (string, error) {
	payload, err := passworder.Encrypt(value, k.sealKey)
	if err != nil {
		return "", err
	}
	return blob{blobV2, k.salt, payload}.encode()
}

// open decrypts the given entry into out. It returns whether a legacy
// format or derivation was needed.
func (k *keyring) open(str string, out interface{}) (bool, error) {
	b, err := decodeBlob(str)
	if err != nil {
		return false, err
	}
	if b.version == blobV1 {
		log.Debug("vault: decoding entry with legacy layout")
	}

	for _, d := range []derivation{
		derivationCurrent, derivationLegacyRounds, derivationLegacyKey,
	} {
		key, err := k.derive(b.salt, d)
		if err != nil {
			return false, err
		}
		err = passworder.Decrypt(b.payload, key, out)
		if err == nil {
			legacy := b.version == blobV1 || d != derivationCurrent
			if d != derivationCurrent {
				log.Debug("vault: entry decrypted with legacy key derivation")
			}
			return legacy, nil
		}
		if !errors.Is(err, passworder.ErrDecrypt) {
			return false, err
		}
	}
	return false, passworder.ErrDecrypt
}

func (k *keyring) derive(salt []byte, d derivation) (*passworder.DerivedKey, error) {
	cacheKey := fmt.Sprintf("%s:%d", hex.EncodeToString(salt), d)

	k.lock.Lock()
	defer k.lock.Unlock()

	if key, ok := k.cache[cacheKey]; ok {
		return key, nil
	}

	passKey, rounds := k.passKey, k.iterations
	switch d {
	case derivationLegacyRounds:
		rounds = k.legacyRounds
	case derivationLegacyKey:
		passKey, rounds = k.legacyPassKey, k.legacyRounds
	}

	key, err := passworder.DeriveKey(passKey, salt, rounds)
	if err != nil {
		return nil, err
	}
	k.cache[cacheKey] = key
	return key, nil
}

func (k *keyring) matches(password string) bool {
	other := passworder.GenerateKey(password)
	return subtle.ConstantTimeCompare(k.passKey, other) == 1
}

func (k *keyring) wipe() {
	k.lock.Lock()
	defer k.lock.Unlock()

	for i := range k.passKey {
		k.passKey[i] = 0
	}
	for i := range k.legacyPassKey {
		k.legacyPassKey[i] = 0
	}
	k.cache = map[string]*passworder.DerivedKey{}
	k.sealKey = nil
}
