// Package gateway defines the boundary between the session layer and the
// underlying bidirectional transport. The transport notifies the session
// layer about connects and disconnects, carries named events inbound, and
// lets the server push named events outbound. The session layer never
// touches the wire directly.
package gateway

import (
	"context"
	"encoding/json"
)

// Event is the envelope every inbound message arrives in. SenderID is the
// connection identity of the client that sent it.
type Event struct {
	Name     string          `json:"name"`
	SenderID string          `json:"id"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// AckFunc returns a result to the sender over the same logical request.
// It may be invoked at most once; later invocations are no-ops.
type AckFunc func(payload any)

// HandlerFunc processes a named event. Handlers are free to call ack zero
// times (fire-and-forget) or exactly once (request/response).
type HandlerFunc func(ctx context.Context, event Event, ack AckFunc)

// Conn is a single client connection as seen by the session layer.
type Conn interface {
	// ID - connection identity, unique per live connection.
	ID() string

	// SessionID - identity that survives reconnects. The transport derives
	// it from the client (cookie or query parameter) and mints a fresh one
	// for first-time clients.
	SessionID() string

	// Send - pushes a named event to the client.
	Send(name string, payload any) error

	// On - registers a connection-scoped listener for a named event.
	// Connection-scoped listeners take precedence over the server-wide
	// dispatcher.
	On(name string, handler HandlerFunc)

	// Close - severs the connection.
	Close() error
}

// Handler receives connection lifecycle notifications from the transport.
type Handler interface {
	HandleConnect(ctx context.Context, conn Conn)
	HandleDisconnect(ctx context.Context, conn Conn)
}
