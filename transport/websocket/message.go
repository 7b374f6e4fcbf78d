package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-arena/internal/gateway"
)

// ackEventName marks acknowledgement frames; AckID correlates them with the
// request they answer.
const ackEventName = "ack"

// envelope is the wire format: a named event with an optional payload and
// an optional acknowledgement correlation id.
type envelope struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload,omitempty"`
	AckID   *uint64         `json:"ackId,omitempty"`
}

// connection adapts one gorilla websocket connection to gateway.Conn.
// Writes are serialized with a mutex; reads happen on a single goroutine.
type connection struct {
	id        string
	sessionID string
	logger    *slog.Logger

	ws       *websocket.Conn
	dispatch gateway.HandlerFunc

	writeMu sync.Mutex

	listenersMu sync.RWMutex
	listeners   map[string]gateway.HandlerFunc

	closeOnce sync.Once
}

func newConnection(id, sessionID string, ws *websocket.Conn, dispatch gateway.HandlerFunc, logger *slog.Logger) *connection {
	return &connection{
		id:        id,
		sessionID: sessionID,
		logger:    logger.With("connection", id),
		ws:        ws,
		dispatch:  dispatch,
		listeners: make(map[string]gateway.HandlerFunc),
	}
}

func (that *connection) ID() string {
	return that.id
}

func (that *connection) SessionID() string {
	return that.sessionID
}

func (that *connection) Send(name string, payload any) error {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		raw = data
	}

	return that.write(envelope{Name: name, Payload: raw})
}

func (that *connection) On(name string, handler gateway.HandlerFunc) {
	that.listenersMu.Lock()
	defer that.listenersMu.Unlock()

	that.listeners[name] = handler
}

func (that *connection) Close() error {
	var err error
	that.closeOnce.Do(func() {
		err = that.ws.Close()
	})

	if err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}

	return nil
}

func (that *connection) write(env envelope) error {
	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	if err := that.ws.WriteJSON(env); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

// readLoop - decodes envelopes and routes them until the connection drops.
// Connection-scoped listeners win over the server-wide dispatcher.
func (that *connection) readLoop(ctx context.Context) {
	for {
		_, data, err := that.ws.ReadMessage()
		if err != nil {
			return
		}

		var env envelope
		if err = json.Unmarshal(data, &env); err != nil {
			that.logger.Error("failed to unmarshal message", "error", err)
			continue
		}

		event := gateway.Event{
			Name:     env.Name,
			SenderID: that.id,
			Payload:  env.Payload,
		}

		that.listenersMu.RLock()
		handler, ok := that.listeners[env.Name]
		that.listenersMu.RUnlock()

		if !ok {
			handler = that.dispatch
		}

		handler(ctx, event, that.makeAck(env.AckID))
	}
}

// makeAck builds the one-shot acknowledger for a request, or nil when the
// client did not ask for one.
func (that *connection) makeAck(ackID *uint64) gateway.AckFunc {
	if ackID == nil {
		return nil
	}

	var once sync.Once

	return func(payload any) {
		once.Do(func() {
			raw, err := json.Marshal(payload)
			if err != nil {
				that.logger.Error("failed to marshal ack payload", "error", err)
				return
			}

			if err = that.write(envelope{Name: ackEventName, Payload: raw, AckID: ackID}); err != nil {
				that.logger.Error("failed to send ack", "error", err)
			}
		})
	}
}
