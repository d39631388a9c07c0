package intercom

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultRequestTimeout bounds the wait for a reply when the context has no
// deadline.
const DefaultRequestTimeout = 30 * time.Second

// Client sends requests over a port and dispatches the notifications it
// receives to subscribers.
type Client struct {
	port    Port
	timeout time.Duration

	lock      *sync.Mutex
	pending   map[string]chan Message
	listeners map[string]func(data json.RawMessage)
	closed    bool
	done      chan struct{}
}

// ClientOption customizes a Client.
type ClientOption func(c *Client)

// WithRequestTimeout overrides DefaultRequestTimeout.
func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// NewClient returns a client on top of the given port and starts reading
// from it.
func NewClient(port Port, opts ...ClientOption) *Client {
	c := &Client{
		port:      port,
		timeout:   DefaultRequestTimeout,
		lock:      &sync.Mutex{},
		pending:   make(map[string]chan Message),
		listeners: make(map[string]func(json.RawMessage)),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.listen()
	return c
}

// Request sends payload and decodes the reply data into out, if not nil.
// An Err reply is returned as *RemoteError.
func (c *Client) Request(
	ctx context.Context, payload interface{}, out interface{},
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encodeData(payload)
	if err != nil {
		return err
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	reqID := uuid.New().String()
	replyCh := make(chan Message, 1)

	c.lock.Lock()
	if c.closed {
		c.lock.Unlock()
		return ErrClosed
	}
	c.pending[reqID] = replyCh
	c.lock.Unlock()

	defer func() {
		c.lock.Lock()
		delete(c.pending, reqID)
		c.lock.Unlock()
	}()

	if err := c.port.Send(Message{
		Type:   MessageTypeReq,
		ReqID:  reqID,
		Origin: c.port.Origin(),
		Data:   data,
	}); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return ErrTimeout
		}
		return ctx.Err()
	case <-c.done:
		return ErrClosed
	case reply := <-replyCh:
		if reply.Type == MessageTypeErr {
			e := errorData{}
			if err := json.Unmarshal(reply.Data, &e); err != nil {
				return &RemoteError{string(reply.Data)}
			}
			return &RemoteError{e.Message}
		}
		if out == nil || len(reply.Data) <= 0 {
			return nil
		}
		return json.Unmarshal(reply.Data, out)
	}
}

// Subscribe registers fn to be called with the data of every notification
// until the returned function is called.
func (c *Client) Subscribe(fn func(data json.RawMessage)) func() {
	id := uuid.New().String()

	c.lock.Lock()
	c.listeners[id] = fn
	c.lock.Unlock()

	return func() {
		c.lock.Lock()
		defer c.lock.Unlock()
		delete(c.listeners, id)
	}
}

// Done is closed when the underlying port disconnects.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) Close() error {
	return c.port.Close()
}

func (c *Client) listen() {
	defer func() {
		c.lock.Lock()
		c.closed = true
		c.lock.Unlock()
		close(c.done)
	}()

	for msg := range c.port.Receive() {
		switch msg.Type {
		case MessageTypeRes, MessageTypeErr:
			c.lock.Lock()
			ch, ok := c.pending[msg.ReqID]
			c.lock.Unlock()
			if ok {
				select {
				case ch <- msg:
				default:
				}
			}
		case MessageTypeSub:
			c.lock.Lock()
			listeners := make([]func(json.RawMessage), 0, len(c.listeners))
			for _, fn := range c.listeners {
				listeners = append(listeners, fn)
			}
			c.lock.Unlock()

			for _, fn := range listeners {
				fn(msg.Data)
			}
		}
	}
}
