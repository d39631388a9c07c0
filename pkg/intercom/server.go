package intercom

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// RequestHandler handles the data of a request received on the given port.
// Returning a nil result and a nil error means the request is not handled
// and the next handler is queried.
type RequestHandler func(
	ctx context.Context, port Port, data json.RawMessage,
) (interface{}, error)

type handlerEntry struct {
	id      string
	handler RequestHandler
}

// Server serves requests coming from any number of connected ports and
// broadcasts notifications to all of them.
type Server struct {
	origin string

	lock     *sync.RWMutex
	handlers []handlerEntry
	ports    map[string]Port
	onChange func(connected int)

	ctx    context.Context
	cancel context.CancelFunc
	wg     *sync.WaitGroup
}

// NewServer returns a server accepting messages of the given origin only.
// An empty origin accepts any message.
func NewServer(origin string) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		origin: origin,
		lock:   &sync.RWMutex{},
		ports:  make(map[string]Port),
		ctx:    ctx,
		cancel: cancel,
		wg:     &sync.WaitGroup{},
	}
}

// OnConnectionsChange registers a callback invoked with the number of
// connected ports every time one connects or disconnects.
func (s *Server) OnConnectionsChange(fn func(connected int)) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.onChange = fn
}

// OnRequest adds a handler. Handlers are queried in registration order and
// the first non-nil result wins. The returned function unregisters it.
func (s *Server) OnRequest(handler RequestHandler) func() {
	id := uuid.New().String()

	s.lock.Lock()
	s.handlers = append(s.handlers, handlerEntry{id, handler})
	s.lock.Unlock()

	return func() {
		s.lock.Lock()
		defer s.lock.Unlock()
		for i, h := range s.handlers {
			if h.id == id {
				s.handlers = append(s.handlers[:i:i], s.handlers[i+1:]...)
				return
			}
		}
	}
}

// Serve starts handling the messages of the given port until it
// disconnects.
func (s *Server) Serve(port Port) {
	s.lock.Lock()
	s.ports[port.ID()] = port
	count := len(s.ports)
	onChange := s.onChange
	s.lock.Unlock()

	if onChange != nil {
		onChange(count)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.evict(port)

		for {
			select {
			case <-s.ctx.Done():
				return
			case msg, ok := <-port.Receive():
				if !ok {
					return
				}
				s.handleMessage(port, msg)
			}
		}
	}()
}

// IsConnected returns whether the port is still served.
func (s *Server) IsConnected(port Port) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	_, ok := s.ports[port.ID()]
	return ok
}

// Broadcast sends a Sub message with the given data to every connected
// port of the server origin. Unreachable ports are evicted silently.
func (s *Server) Broadcast(data interface{}) error {
	raw, err := encodeData(data)
	if err != nil {
		return err
	}

	s.lock.RLock()
	ports := make([]Port, 0, len(s.ports))
	for _, p := range s.ports {
		if !s.accepts(p.Origin()) {
			continue
		}
		ports = append(ports, p)
	}
	s.lock.RUnlock()

	for _, p := range ports {
		if err := p.Send(Message{Type: MessageTypeSub, Data: raw}); err != nil {
			s.evict(p)
		}
	}
	return nil
}

// Notify sends a Sub message to the given port only.
func (s *Server) Notify(port Port, data interface{}) error {
	if !s.IsConnected(port) {
		return ErrClosed
	}
	raw, err := encodeData(data)
	if err != nil {
		return err
	}
	if err := port.Send(Message{Type: MessageTypeSub, Data: raw}); err != nil {
		s.evict(port)
		return err
	}
	return nil
}

// Close disconnects all ports and waits for in-flight requests.
func (s *Server) Close() {
	s.cancel()

	s.lock.RLock()
	ports := make([]Port, 0, len(s.ports))
	for _, p := range s.ports {
		ports = append(ports, p)
	}
	s.lock.RUnlock()

	for _, p := range ports {
		// nolint
		p.Close()
	}
	s.wg.Wait()
}

func (s *Server) handleMessage(port Port, msg Message) {
	origin := msg.Origin
	if origin == "" {
		origin = port.Origin()
	}
	if !s.accepts(origin) {
		log.Debugf("intercom: ignoring message from foreign origin %s", origin)
		return
	}
	if msg.Type != MessageTypeReq {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		reply := s.handleRequest(port, msg)
		if err := port.Send(reply); err != nil {
			s.evict(port)
		}
	}()
}

func (s *Server) handleRequest(port Port, msg Message) Message {
	s.lock.RLock()
	handlers := make([]handlerEntry, len(s.handlers))
	copy(handlers, s.handlers)
	s.lock.RUnlock()

	for _, h := range handlers {
		res, err := h.handler(s.ctx, port, msg.Data)
		if err != nil {
			return errorReply(msg.ReqID, err.Error())
		}
		if res == nil {
			continue
		}

		data, err := encodeData(res)
		if err != nil {
			return errorReply(msg.ReqID, err.Error())
		}
		return Message{Type: MessageTypeRes, ReqID: msg.ReqID, Data: data}
	}

	return errorReply(msg.ReqID, NotFoundMessage)
}

func (s *Server) accepts(origin string) bool {
	return s.origin == "" || origin == s.origin
}

func (s *Server) evict(port Port) {
	s.lock.Lock()
	_, ok := s.ports[port.ID()]
	delete(s.ports, port.ID())
	count := len(s.ports)
	onChange := s.onChange
	s.lock.Unlock()

	if ok && onChange != nil {
		onChange(count)
	}
}

func errorReply(reqID, message string) Message {
	data, _ := json.Marshal(errorData{message})
	return Message{Type: MessageTypeErr, ReqID: reqID, Data: data}
}
