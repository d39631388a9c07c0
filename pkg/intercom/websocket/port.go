package websocketport

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/notewallet/pkg/intercom"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// OriginHeader carries the logical origin of a front context.
const OriginHeader = "X-Intercom-Origin"

type port struct {
	id     string
	origin string
	conn   *websocket.Conn

	in        chan intercom.Message
	writeLock *sync.Mutex
	once      *sync.Once
	quit      chan struct{}
}

// NewPort wraps a websocket connection into an intercom.Port. Messages are
// JSON text frames.
func NewPort(conn *websocket.Conn, origin string) intercom.Port {
	p := &port{
		id:        uuid.New().String(),
		origin:    origin,
		conn:      conn,
		in:        make(chan intercom.Message, 64),
		writeLock: &sync.Mutex{},
		once:      &sync.Once{},
		quit:      make(chan struct{}),
	}
	go p.read()
	go p.keepAlive()
	return p
}

// Dial connects to the intercom endpoint at url.
func Dial(ctx context.Context, url, origin string) (intercom.Port, error) {
	header := http.Header{}
	header.Set(OriginHeader, origin)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, err
	}
	return NewPort(conn, origin), nil
}

// Handler upgrades incoming HTTP connections and serves them with server.
func Handler(server *intercom.Server) http.Handler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.WithError(err).Debug("intercom: failed to upgrade connection")
			return
		}
		server.Serve(NewPort(conn, r.Header.Get(OriginHeader)))
	})
}

func (p *port) ID() string {
	return p.id
}

func (p *port) Origin() string {
	return p.origin
}

func (p *port) Send(msg intercom.Message) error {
	select {
	case <-p.quit:
		return intercom.ErrClosed
	default:
	}

	p.writeLock.Lock()
	// nolint
	p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	err := p.conn.WriteJSON(msg)
	p.writeLock.Unlock()

	if err != nil {
		// nolint
		p.Close()
		return err
	}
	return nil
}

func (p *port) Receive() <-chan intercom.Message {
	return p.in
}

func (p *port) Close() error {
	var err error
	p.once.Do(func() {
		close(p.quit)

		p.writeLock.Lock()
		// nolint
		p.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait),
		)
		p.writeLock.Unlock()

		err = p.conn.Close()
	})
	return err
}

func (p *port) read() {
	defer close(p.in)
	// nolint
	defer p.Close()

	// nolint
	p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msg := intercom.Message{}
		if err := p.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(
				err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure,
			) {
				log.WithError(err).Debug("intercom: connection dropped")
			}
			return
		}

		select {
		case p.in <- msg:
		case <-p.quit:
			return
		}
	}
}

func (p *port) keepAlive() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-p.quit:
			return
		case <-ticker.C:
			p.writeLock.Lock()
			err := p.conn.WriteControl(
				websocket.PingMessage, nil, time.Now().Add(writeWait),
			)
			p.writeLock.Unlock()
			if err != nil {
				// nolint
				p.Close()
				return
			}
		}
	}
}
