package intercom

import (
	"encoding/json"
	"errors"
)

// MessageType is the kind of an intercom message.
type MessageType string

const (
	// MessageTypeReq is a request expecting exactly one Res or Err reply with
	// the same request id.
	MessageTypeReq MessageType = "req"
	MessageTypeRes MessageType = "res"
	MessageTypeErr MessageType = "err"
	// MessageTypeSub is a fire-and-forget notification.
	MessageTypeSub MessageType = "sub"
)

// NotFoundMessage is the Err reply for requests no handler took care of.
const NotFoundMessage = "Not Found"

var (
	// ErrTimeout is returned when no reply arrives in time.
	ErrTimeout = errors.New("intercom request timed out")
	// ErrClosed is returned when using a closed port or client.
	ErrClosed = errors.New("intercom port is closed")
)

// Message is the frame exchanged over a Port.
type Message struct {
	Type   MessageType     `json:"type"`
	ReqID  string          `json:"reqId,omitempty"`
	Origin string          `json:"origin,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// RemoteError is the error returned by the server for a request.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

type errorData struct {
	Message string `json:"message"`
}

func encodeData(data interface{}) (json.RawMessage, error) {
	if data == nil {
		return nil, nil
	}
	if raw, ok := data.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(data)
}
