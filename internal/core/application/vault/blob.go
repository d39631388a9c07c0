package vault

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tdex-network/notewallet/pkg/passworder"
)

const (
	blobV1 = 1
	blobV2 = 2

	legacySaltHexLen = 64
	legacyIVHexLen   = 32
)

// blob is an encrypted storage entry.
//
// V2 is the current format, a JSON object
// {"salt": <hex>, "iv": <base64>, "dt": <base64>}.
// V1 is the legacy format, a single string made of the salt (64 hex chars),
// the iv (32 hex chars) and the ciphertext in hex.
type blob struct {
	version int
	salt    []byte
	payload *passworder.Payload
}

type blobV2JSON struct {
	Salt string `json:"salt"`
	IV   []byte `json:"iv"`
	Data []byte `json:"dt"`
}

func (b blob) encode() (string, error) {
	buf, err := json.Marshal(blobV2JSON{
		Salt: hex.EncodeToString(b.salt),
		IV:   b.payload.IV,
		Data: b.payload.Data,
	})
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// decodeBlob tries the current format first and falls back to the legacy one.
func decodeBlob(str string) (*blob, error) {
	if strings.HasPrefix(strings.TrimSpace(str), "{") {
		b := blobV2JSON{}
		if err := json.Unmarshal([]byte(str), &b); err != nil {
			return nil, fmt.Errorf("%w: malformed blob: %s", passworder.ErrDecrypt, err)
		}
		salt, err := hex.DecodeString(b.Salt)
		if err != nil || len(salt) <= 0 {
			return nil, fmt.Errorf("%w: invalid blob salt", passworder.ErrDecrypt)
		}
		return &blob{blobV2, salt, &passworder.Payload{IV: b.IV, Data: b.Data}}, nil
	}

	if len(str) <= legacySaltHexLen+legacyIVHexLen {
		return nil, fmt.Errorf("%w: blob too short", passworder.ErrDecrypt)
	}
	salt, err := hex.DecodeString(str[:legacySaltHexLen])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid legacy blob salt", passworder.ErrDecrypt)
	}
	payload, err := passworder.ParseHexPayload(str[legacySaltHexLen:])
	if err != nil {
		return nil, err
	}
	return &blob{blobV1, salt, payload}, nil
}

// encodeLegacyBlob returns the V1 representation of the given blob. Only
// used to exercise the read path of vaults written by older releases.
func encodeLegacyBlob(b blob) string {
	return hex.EncodeToString(b.salt) + b.payload.Hex()
}
