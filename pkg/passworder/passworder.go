package passworder

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultIterations is the PBKDF2 round count used for every new encryption.
	DefaultIterations = 1310000
	// LegacyIterations is the round count of vaults written by older releases.
	// It is only ever used to decrypt.
	LegacyIterations = 310000
	// DefaultSaltSize is the length in bytes of a freshly generated salt.
	DefaultSaltSize = 32

	// IVSize is the length of the AES-GCM nonce.
	IVSize  = 16
	keySize = 32
)

var (
	// ErrDecrypt is returned when a payload can't be opened, either because
	// it was tampered, the key is wrong or it's malformed.
	ErrDecrypt = errors.New("failed to decrypt payload")
	// ErrEncrypt is returned if sealing a value fails.
	ErrEncrypt = errors.New("failed to encrypt payload")
	// ErrNullPassword ...
	ErrNullPassword = errors.New("password must not be null")
	// ErrNullSalt ...
	ErrNullSalt = errors.New("salt must not be null")
	// ErrInvalidIterations ...
	ErrInvalidIterations = errors.New("iterations must be a positive number")
)

// KeyMaterial is the un-salted secret obtained from a password. It must be
// stretched with DeriveKey before it can be used to encrypt or decrypt.
type KeyMaterial []byte

// GenerateKey returns the SHA-256 digest of the password. The same password
// always results in the same key material.
func GenerateKey(password string) KeyMaterial {
	buf := sha256.Sum256([]byte(password))
	return KeyMaterial(buf[:])
}

// GenerateKeyLegacy returns the key material used by older vaults, that is a
// 32-byte buffer filled by repeating the password bytes.
func GenerateKeyLegacy(password string) KeyMaterial {
	buf := make([]byte, keySize)
	if len(password) <= 0 {
		return KeyMaterial(buf)
	}
	for i := range buf {
		buf[i] = password[i%len(password)]
	}
	return KeyMaterial(buf)
}

// GenerateSalt returns size cryptographically random bytes. A non positive
// size defaults to DefaultSaltSize.
func GenerateSalt(size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSaltSize
	}
	salt := make([]byte, size)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// DerivedKey is an AES-256-GCM key obtained by stretching some KeyMaterial
// with PBKDF2-HMAC-SHA256.
type DerivedKey struct {
	aead cipher.AEAD
}

// DeriveKey stretches the given key material with the given salt and number
// of iterations.
func DeriveKey(
	key KeyMaterial, salt []byte, iterations int,
) (*DerivedKey, error) {
	if len(key) <= 0 {
		return nil, ErrNullPassword
	}
	if len(salt) <= 0 {
		return nil, ErrNullSalt
	}
	if iterations <= 0 {
		return nil, ErrInvalidIterations
	}

	raw := pbkdf2.Key(key, salt, iterations, keySize, sha256.New)
	block, err := aes.NewCipher(raw)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCMWithNonceSize(block, IVSize)
	if err != nil {
		return nil, err
	}
	return &DerivedKey{aead}, nil
}

// Payload is the result of an encryption. When serialized to JSON both fields
// are base64 encoded as {"iv": ..., "dt": ...}.
type Payload struct {
	IV   []byte `json:"iv"`
	Data []byte `json:"dt"`
}

// Encrypt serializes value to JSON and seals it with a fresh random IV.
func Encrypt(value interface{}, key *DerivedKey) (*Payload, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: missing key", ErrEncrypt)
	}

	plaintext, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrEncrypt, err)
	}

	iv := make([]byte, IVSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrEncrypt, err)
	}

	return &Payload{
		IV:   iv,
		Data: key.aead.Seal(nil, iv, plaintext, nil),
	}, nil
}

// Decrypt opens the payload and unmarshals the resulting JSON into out.
func Decrypt(payload *Payload, key *DerivedKey, out interface{}) error {
	if payload == nil || key == nil {
		return ErrDecrypt
	}
	if len(payload.IV) != IVSize {
		return fmt.Errorf("%w: invalid iv length %d", ErrDecrypt, len(payload.IV))
	}

	plaintext, err := key.aead.Open(nil, payload.IV, payload.Data, nil)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrDecrypt, err)
	}
	if err := json.Unmarshal(plaintext, out); err != nil {
		return fmt.Errorf("%w: %s", ErrDecrypt, err)
	}
	return nil
}
