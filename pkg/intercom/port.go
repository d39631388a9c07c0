package intercom

import (
	"sync"

	"github.com/google/uuid"
)

// Port is one end of a bidirectional message channel between the background
// context and a front context.
type Port interface {
	// ID uniquely identifies the port.
	ID() string
	// Origin is the logical origin of the peer, used to ignore foreign
	// messages on shared transports.
	Origin() string
	Send(msg Message) error
	// Receive returns the channel of incoming messages. It's closed when the
	// port disconnects.
	Receive() <-chan Message
	Close() error
}

type pipeEnd struct {
	id     string
	origin string

	in    chan Message
	peer  *pipeEnd
	lock  *sync.RWMutex
	once  *sync.Once
	close chan struct{}
}

// NewPipe returns the two connected ends of an in-process channel. Closing
// any end disconnects both.
func NewPipe(origin string) (Port, Port) {
	lock := &sync.RWMutex{}
	once := &sync.Once{}
	closeCh := make(chan struct{})

	a := &pipeEnd{
		id: uuid.New().String(), origin: origin, in: make(chan Message, 64),
		lock: lock, once: once, close: closeCh,
	}
	b := &pipeEnd{
		id: uuid.New().String(), origin: origin, in: make(chan Message, 64),
		lock: lock, once: once, close: closeCh,
	}
	a.peer, b.peer = b, a
	return a, b
}

func (p *pipeEnd) ID() string {
	return p.id
}

func (p *pipeEnd) Origin() string {
	return p.origin
}

func (p *pipeEnd) Send(msg Message) error {
	p.lock.RLock()
	defer p.lock.RUnlock()

	select {
	case <-p.close:
		return ErrClosed
	default:
	}

	select {
	case p.peer.in <- msg:
		return nil
	case <-p.close:
		return ErrClosed
	}
}

func (p *pipeEnd) Receive() <-chan Message {
	return p.in
}

func (p *pipeEnd) Close() error {
	p.once.Do(func() {
		close(p.close)
		// Wait for in-flight sends before closing the inbound channels.
		p.lock.Lock()
		defer p.lock.Unlock()
		close(p.in)
		close(p.peer.in)
	})
	return nil
}
