// Package dispatcher routes inbound named events to registered handlers.
package dispatcher

import (
	"context"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/tictactoe-arena/internal/gateway"
)

type Dispatcher struct {
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[string]gateway.HandlerFunc
}

func New(logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		logger:   logger.With("component", "dispatcher"),
		handlers: make(map[string]gateway.HandlerFunc),
	}
}

// Register - maps an event name to its handler. Later registrations for the
// same name replace earlier ones.
func (that *Dispatcher) Register(name string, handler gateway.HandlerFunc) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.handlers[name] = handler
}

// HandleEvent - looks up the handler by event name and invokes it. Events
// with no registered handler are dropped; only a debug log records them.
func (that *Dispatcher) HandleEvent(ctx context.Context, event gateway.Event, ack gateway.AckFunc) {
	that.mu.RLock()
	handler, ok := that.handlers[event.Name]
	that.mu.RUnlock()

	if !ok {
		that.logger.Debug("dropping unknown event", "event", event.Name, "sender", event.SenderID)
		return
	}

	handler(ctx, event, ack)
}
