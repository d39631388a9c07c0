package wallet

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

const (
	tagPrefix    = "leo-wallet-tag"
	tagDelimiter = "-"
)

// ScalarFieldModulus is the order of the scalar field tags are reduced to so
// that they are representable in the tagging circuit.
var ScalarFieldModulus, _ = new(big.Int).SetString(
	"8444461749428370424248824938781546531375899335154063827935233455917409239041", 10,
)

// TagPreimage returns the string hashed to obtain the tag with the given
// index for the given view key.
func TagPreimage(viewKey string, index uint64) string {
	return fmt.Sprintf(
		"%s%s%s%s%s%d",
		tagPrefix, tagDelimiter, tagDelimiter, viewKey, tagDelimiter, index,
	)
}

// DeriveTag returns the decimal representation of
// SHA-256(TagPreimage(viewKey, index)) mod ScalarFieldModulus.
func DeriveTag(viewKey string, index uint64) string {
	hash := sha256.Sum256([]byte(TagPreimage(viewKey, index)))
	tag := new(big.Int).SetBytes(hash[:])
	return tag.Mod(tag, ScalarFieldModulus).String()
}

var tagProofTag = []byte("record-tag-proof")

// ProveTag returns the hex encoded schnorr signature, made with the view key,
// binding the tag to the record with the given id and owner field. The record
// must be owned by the address of the view key.
func ProveTag(
	viewKeyHex, tag string, recordID int64, nonceX, nonceY, ownerX string,
) (string, error) {
	viewKey, err := parseViewKey(viewKeyHex)
	if err != nil {
		return "", err
	}
	defer viewKey.Zero()

	key, err := NewOwnershipKey(addressFromScalar(viewKey), viewKeyHex)
	if err != nil {
		return "", err
	}
	owned, err := key.Owns(nonceX, nonceY, ownerX)
	if err != nil {
		return "", err
	}
	if !owned {
		return "", ErrRecordNotOwned
	}

	buf := viewKey.Bytes()
	defer zero(buf[:])
	privKey, _ := btcec.PrivKeyFromBytes(buf[:])
	defer privKey.Zero()

	sig, err := schnorr.Sign(privKey, tagProofDigest(tag, recordID, ownerX))
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sig.Serialize()), nil
}

// VerifyTagProof checks a proof produced by ProveTag against the address.
func VerifyTagProof(
	address, tag string, recordID int64, ownerX, proofHex string,
) (bool, error) {
	pubKey, err := parseAddress(address)
	if err != nil {
		return false, err
	}
	buf, err := hex.DecodeString(proofHex)
	if err != nil {
		return false, ErrInvalidTagProof
	}
	sig, err := schnorr.ParseSignature(buf)
	if err != nil {
		return false, ErrInvalidTagProof
	}
	return sig.Verify(tagProofDigest(tag, recordID, ownerX), pubKey), nil
}

func tagProofDigest(tag string, recordID int64, ownerX string) []byte {
	h := sha256.New()
	h.Write(tagProofTag)
	fmt.Fprintf(h, "%s:%d:%s", tag, recordID, ownerX)
	return h.Sum(nil)
}
