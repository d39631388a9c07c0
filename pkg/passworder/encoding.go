package passworder

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Hex returns the payload in the hex convention: iv (32 hex chars) followed
// by the ciphertext.
func (p Payload) Hex() string {
	return hex.EncodeToString(p.IV) + hex.EncodeToString(p.Data)
}

// ParseHexPayload is the inverse of Payload.Hex.
func ParseHexPayload(str string) (*Payload, error) {
	if len(str) <= IVSize*2 {
		return nil, fmt.Errorf("%w: payload too short", ErrDecrypt)
	}
	iv, err := hex.DecodeString(str[:IVSize*2])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid iv: %s", ErrDecrypt, err)
	}
	data, err := hex.DecodeString(str[IVSize*2:])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid ciphertext: %s", ErrDecrypt, err)
	}
	return &Payload{iv, data}, nil
}

// EncryptHex encrypts value and returns it in the hex convention.
func EncryptHex(value interface{}, key *DerivedKey) (string, error) {
	payload, err := Encrypt(value, key)
	if err != nil {
		return "", err
	}
	return payload.Hex(), nil
}

// DecryptHex decrypts a payload in the hex convention into out.
func DecryptHex(str string, key *DerivedKey, out interface{}) error {
	payload, err := ParseHexPayload(str)
	if err != nil {
		return err
	}
	return Decrypt(payload, key, out)
}

// EncryptJSON encrypts value and returns it in the base64 convention, a JSON
// object {"iv": <base64>, "dt": <base64>}.
func EncryptJSON(value interface{}, key *DerivedKey) (string, error) {
	payload, err := Encrypt(value, key)
	if err != nil {
		return "", err
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrEncrypt, err)
	}
	return string(buf), nil
}

// DecryptJSON decrypts a payload in the base64 convention into out.
func DecryptJSON(str string, key *DerivedKey, out interface{}) error {
	payload := &Payload{}
	if err := json.Unmarshal([]byte(str), payload); err != nil {
		return fmt.Errorf("%w: malformed payload: %s", ErrDecrypt, err)
	}
	return Decrypt(payload, key, out)
}
