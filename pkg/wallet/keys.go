package wallet

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

var viewKeyTag = []byte("view-key")

// Account holds the key material of a single wallet account: the signing
// private key and the view key used to detect owned records.
type Account struct {
	privKey *btcec.PrivateKey
	viewKey btcec.ModNScalar
}

// NewAccountFromPrivateKey returns the account for the given hex encoded
// private key. It's used to import accounts not derived from the mnemonic.
func NewAccountFromPrivateKey(privKeyHex string) (*Account, error) {
	if len(privKeyHex) <= 0 {
		return nil, ErrNullPrivateKey
	}
	buf, err := hex.DecodeString(privKeyHex)
	if err != nil || len(buf) != 32 {
		return nil, ErrInvalidPrivateKey
	}

	var scalar btcec.ModNScalar
	if overflow := scalar.SetByteSlice(buf); overflow || scalar.IsZero() {
		return nil, ErrInvalidPrivateKey
	}
	return newAccount(btcec.PrivKeyFromScalar(&scalar))
}

func newAccount(privKey *btcec.PrivateKey) (*Account, error) {
	privKeyBytes := privKey.Serialize()
	defer zero(privKeyBytes)

	h := sha256.New()
	h.Write(viewKeyTag)
	h.Write(privKeyBytes)

	var viewKey btcec.ModNScalar
	viewKey.SetByteSlice(h.Sum(nil))
	if viewKey.IsZero() {
		return nil, fmt.Errorf("derived view key is zero")
	}

	return &Account{privKey, viewKey}, nil
}

// PrivateKey returns the hex encoded private key.
func (a *Account) PrivateKey() string {
	return hex.EncodeToString(a.privKey.Serialize())
}

// PublicKey returns the hex encoded compressed public key, used as unique
// identifier of the account.
func (a *Account) PublicKey() string {
	return hex.EncodeToString(a.privKey.PubKey().SerializeCompressed())
}

// ViewKey returns the hex encoded view key.
func (a *Account) ViewKey() string {
	buf := a.viewKey.Bytes()
	return hex.EncodeToString(buf[:])
}

// Address returns the hex encoded compressed point viewKey*G. Records sent to
// this address can be detected with the account's view key.
func (a *Account) Address() string {
	return addressFromScalar(&a.viewKey)
}

// Sign returns the BIP-340 schnorr signature of the SHA-256 digest of the
// given signing inputs.
func (a *Account) Sign(signingInputs []byte) ([]byte, error) {
	hash := sha256.Sum256(signingInputs)
	sig, err := schnorr.Sign(a.privKey, hash[:])
	if err != nil {
		return nil, err
	}
	return sig.Serialize(), nil
}

// AuthSecret returns a secret bound to both the account and the given opaque
// key, HMAC-SHA256(privateKey, key).
func (a *Account) AuthSecret(key string) string {
	privKeyBytes := a.privKey.Serialize()
	defer zero(privKeyBytes)

	mac := hmac.New(sha256.New, privKeyBytes)
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

// Zero wipes the private material of the account from memory.
func (a *Account) Zero() {
	a.privKey.Zero()
	a.viewKey.Zero()
}

// VerifySignature checks a signature produced by Account.Sign against the
// hex encoded compressed public key.
func VerifySignature(pubKeyHex string, signingInputs, sig []byte) (bool, error) {
	buf, err := hex.DecodeString(pubKeyHex)
	if err != nil {
		return false, ErrInvalidPublicKey
	}
	pubKey, err := btcec.ParsePubKey(buf)
	if err != nil {
		return false, ErrInvalidPublicKey
	}
	signature, err := schnorr.ParseSignature(sig)
	if err != nil {
		return false, err
	}
	hash := sha256.Sum256(signingInputs)
	return signature.Verify(hash[:], pubKey), nil
}

// AddressFromViewKey returns the address matching the given hex encoded view
// key.
func AddressFromViewKey(viewKeyHex string) (string, error) {
	viewKey, err := parseViewKey(viewKeyHex)
	if err != nil {
		return "", err
	}
	return addressFromScalar(viewKey), nil
}

func parseViewKey(viewKeyHex string) (*btcec.ModNScalar, error) {
	if len(viewKeyHex) <= 0 {
		return nil, ErrNullViewKey
	}
	buf, err := hex.DecodeString(viewKeyHex)
	if err != nil || len(buf) != 32 {
		return nil, ErrInvalidViewKey
	}
	var viewKey btcec.ModNScalar
	if overflow := viewKey.SetByteSlice(buf); overflow || viewKey.IsZero() {
		return nil, ErrInvalidViewKey
	}
	return &viewKey, nil
}

func addressFromScalar(k *btcec.ModNScalar) string {
	var point btcec.JacobianPoint
	btcec.ScalarBaseMultNonConst(k, &point)
	point.ToAffine()
	pubKey := btcec.NewPublicKey(&point.X, &point.Y)
	return hex.EncodeToString(pubKey.SerializeCompressed())
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
