package wallet

import (
	"crypto/sha256"
	"encoding/hex"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
)

var (
	// FieldModulus is the prime of the base field the record owner field is
	// encoded in.
	FieldModulus = btcec.S256().P

	ownerMaskTag = []byte("record-owner")
)

// OwnershipKey is the precomputed form of an (address, view key) pair used to
// test record ownership.
type OwnershipKey struct {
	address  string
	addressX *big.Int
	viewKey  btcec.ModNScalar
}

// NewOwnershipKey parses the given address and view key. The address must be
// the one matching the view key.
func NewOwnershipKey(address, viewKeyHex string) (*OwnershipKey, error) {
	viewKey, err := parseViewKey(viewKeyHex)
	if err != nil {
		return nil, err
	}
	if addressFromScalar(viewKey) != address {
		return nil, ErrInvalidAddress
	}
	pubKey, err := parseAddress(address)
	if err != nil {
		return nil, err
	}
	return &OwnershipKey{address, pubKey.X(), *viewKey}, nil
}

// Address returns the address of the key.
func (k *OwnershipKey) Address() string {
	return k.address
}

// Owns returns whether the record with the given nonce coordinates and owner
// field belongs to the key. The test always runs the same operations whether
// or not the record is owned: a scalar multiplication, a hash and a field
// subtraction.
func (k *OwnershipKey) Owns(nonceX, nonceY, ownerX string) (bool, error) {
	nonce, err := parseNonce(nonceX, nonceY)
	if err != nil {
		return false, err
	}
	owner, err := parseFieldElement(ownerX)
	if err != nil {
		return false, err
	}

	rvk := recordViewKey(&k.viewKey, nonce)
	candidate := new(big.Int).Sub(owner, ownerMask(rvk))
	candidate.Mod(candidate, FieldModulus)

	return candidate.Cmp(k.addressX) == 0, nil
}

// SealRecordOwner returns the nonce coordinates and the owner field of a new
// record addressed to the given address. It is the operation a sender runs
// when creating an output record.
func SealRecordOwner(address string) (nonceX, nonceY, ownerX string, err error) {
	pubKey, err := parseAddress(address)
	if err != nil {
		return "", "", "", err
	}

	r, err := btcec.NewPrivateKey()
	if err != nil {
		return "", "", "", err
	}
	defer r.Zero()

	nonce := r.PubKey()

	var addressPoint, shared btcec.JacobianPoint
	pubKey.AsJacobian(&addressPoint)
	btcec.ScalarMultNonConst(&r.Key, &addressPoint, &shared)
	shared.ToAffine()
	rvk := fieldToBig(&shared.X)

	owner := new(big.Int).Add(pubKey.X(), ownerMask(rvk))
	owner.Mod(owner, FieldModulus)

	return nonce.X().String(), nonce.Y().String(), owner.String(), nil
}

func recordViewKey(viewKey *btcec.ModNScalar, nonce *btcec.PublicKey) *big.Int {
	var point, result btcec.JacobianPoint
	nonce.AsJacobian(&point)
	btcec.ScalarMultNonConst(viewKey, &point, &result)
	result.ToAffine()
	return fieldToBig(&result.X)
}

func ownerMask(rvk *big.Int) *big.Int {
	buf := make([]byte, 32)
	rvk.FillBytes(buf)

	h := sha256.New()
	h.Write(ownerMaskTag)
	h.Write(buf)
	mask := new(big.Int).SetBytes(h.Sum(nil))
	return mask.Mod(mask, FieldModulus)
}

func parseAddress(address string) (*btcec.PublicKey, error) {
	buf, err := hex.DecodeString(address)
	if err != nil {
		return nil, ErrInvalidAddress
	}
	pubKey, err := btcec.ParsePubKey(buf)
	if err != nil {
		return nil, ErrInvalidAddress
	}
	return pubKey, nil
}

func parseNonce(nonceX, nonceY string) (*btcec.PublicKey, error) {
	x, err := parseFieldElement(nonceX)
	if err != nil {
		return nil, err
	}
	y, err := parseFieldElement(nonceY)
	if err != nil {
		return nil, err
	}

	var fx, fy btcec.FieldVal
	fx.SetByteSlice(x.Bytes())
	fy.SetByteSlice(y.Bytes())
	nonce := btcec.NewPublicKey(&fx, &fy)
	if !nonce.IsOnCurve() {
		return nil, ErrInvalidNonce
	}
	return nonce, nil
}

func parseFieldElement(str string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(str, 10)
	if !ok || n.Sign() < 0 || n.Cmp(FieldModulus) >= 0 {
		return nil, ErrInvalidFieldElement
	}
	return n, nil
}

func fieldToBig(f *btcec.FieldVal) *big.Int {
	f.Normalize()
	buf := f.Bytes()
	return new(big.Int).SetBytes(buf[:])
}
