package devserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/go-drift/viewbridge/pkg/core"
	"github.com/go-drift/viewbridge/pkg/platform"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
	sendBuffer     = 256
)

// session is one connected remote host. Views it shows live until it
// disposes them or the connection drops.
type session struct {
	id       string
	conn     *websocket.Conn
	send     chan []byte
	registry *platform.ViewRegistry
	logger   *zap.Logger

	// UI thread only.
	scopes map[string]*core.Scope
	closed bool
}

func newSession(id string, conn *websocket.Conn, registry *platform.ViewRegistry, logger *zap.Logger) *session {
	return &session{
		id:       id,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		registry: registry,
		logger:   logger.With(zap.String("session", id)),
		scopes:   make(map[string]*core.Scope),
	}
}

// readPump handles requests until the connection fails or closes, then
// disposes every view the session showed.
func (s *session) readPump() {
	defer func() {
		platform.DispatchAndWait(s.disposeAll)
		close(s.send)
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("host connection lost", zap.Error(err))
			}
			return
		}

		var req hostRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			s.fail("", fmt.Errorf("malformed request: %w", err))
			continue
		}
		if req.Name == "" {
			s.fail("", fmt.Errorf("%s: missing view name", req.Op))
			continue
		}
		platform.DispatchAndWait(func() {
			if err := s.handle(req); err != nil {
				s.fail(req.Name, err)
			}
		})
	}
}

func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handle runs on the UI thread.
func (s *session) handle(req hostRequest) error {
	switch req.Op {
	case opShow:
		s.show(req.Name)
		return nil
	case opDispose:
		s.dispose(req.Name)
		return nil
	case opSetDataInteger:
		v, err := decodeNumber(req.Value, "an integer", platform.IntegerValue)
		if err != nil {
			return err
		}
		s.registry.SetDataInteger(req.Name, v)
	case opSetDataFloat:
		v, err := decodeNumber(req.Value, "a number", platform.FloatValue)
		if err != nil {
			return err
		}
		s.registry.SetDataFloat(req.Name, v)
	case opSetDataBool:
		v, err := decodeValue[bool](req.Value, "a boolean")
		if err != nil {
			return err
		}
		s.registry.SetDataBool(req.Name, v)
	case opSetDataString:
		v, err := decodeValue[string](req.Value, "a string")
		if err != nil {
			return err
		}
		s.registry.SetDataString(req.Name, v)
	case opSetDataObject:
		s.registry.SetDataObject(req.Name, jsonText(req.Value))
	case opSetDataArray:
		s.registry.SetDataArray(req.Name, jsonText(req.Value))
	default:
		return fmt.Errorf("unknown op %q", req.Op)
	}
	return nil
}

func (s *session) show(name string) {
	s.dispose(name)

	scope := core.NewScope()
	if _, err := s.registry.Instantiate(name, scope, s.callbacks(name)); err != nil {
		scope.Dispose()
		if errors.Is(err, platform.ErrViewNotFound) {
			s.push(hostMessage{Type: typePlaceholder, Name: name, Value: platform.PlaceholderText(name)})
			return
		}
		s.fail(name, err)
		return
	}
	s.scopes[name] = scope
	s.logger.Debug("view shown", zap.String("view", name))
}

func (s *session) dispose(name string) {
	scope, ok := s.scopes[name]
	if !ok {
		return
	}
	delete(s.scopes, name)
	scope.Dispose()
}

func (s *session) disposeAll() {
	s.closed = true
	for name := range s.scopes {
		s.dispose(name)
	}
}

func (s *session) callbacks(name string) platform.Callbacks {
	value := func(typ string, v any) {
		s.push(hostMessage{Type: typ, Name: name, Value: v})
	}
	return platform.Callbacks{
		OnInteger: func(v int64) { value(typeInteger, v) },
		OnFloat:   func(v float64) { value(typeFloat, v) },
		OnBool:    func(v bool) { value(typeBool, v) },
		OnString:  func(v string) { value(typeString, v) },
		OnObject:  func(v string) { value(typeObject, v) },
		OnArray:   func(v string) { value(typeArray, v) },
		OnEvent: func(key, v string) {
			s.push(hostMessage{Type: typeEvent, Name: name, Key: key, Value: v})
		},
	}
}

func (s *session) fail(name string, err error) {
	s.push(hostMessage{Type: typeError, Name: name, Value: err.Error()})
}

// push queues msg for the host. A host that stops reading loses messages
// rather than stalling the UI thread.
func (s *session) push(msg hostMessage) {
	if s.closed {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Warn("dropping unencodable message", zap.String("type", msg.Type), zap.Error(err))
		return
	}
	select {
	case s.send <- data:
	default:
		s.logger.Warn("host send buffer full, dropping message", zap.String("type", msg.Type))
	}
}
