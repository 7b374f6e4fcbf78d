package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-arena/internal/gateway"
)

const sessionCookieName = "user_session"

// Server upgrades HTTP requests to websocket connections and hands them to
// the session layer as gateway.Conn values.
type Server struct {
	logger   *slog.Logger
	handler  gateway.Handler
	dispatch gateway.HandlerFunc

	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[string]*connection
}

func New(logger *slog.Logger, handler gateway.Handler, dispatch gateway.HandlerFunc) *Server {
	return &Server{
		logger:   logger.With("component", "websocket"),
		handler:  handler,
		dispatch: dispatch,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// the session layer decides who may play; the transport does not
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: make(map[string]*connection),
	}
}

// Start - starts the websocket server and blocks until ctx is canceled or
// the listener fails.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveConnection(ctx, w, r)
	})

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down websocket server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// serveConnection - upgrades the request and runs the connection until it
// drops, notifying the session layer on both ends of the lifecycle.
func (that *Server) serveConnection(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "serveConnection")

	sessionID, header := that.sessionFor(req)

	ws, err := that.upgrader.Upgrade(writer, req, header)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	conn := newConnection(uuid.NewString(), sessionID, ws, that.dispatch, that.logger)

	that.mu.Lock()
	that.conns[conn.ID()] = conn
	that.mu.Unlock()

	log.Info("websocket connection established", "connection", conn.ID(), "session", sessionID)

	that.handler.HandleConnect(ctx, conn)

	conn.readLoop(ctx)

	that.handler.HandleDisconnect(ctx, conn)

	that.mu.Lock()
	delete(that.conns, conn.ID())
	that.mu.Unlock()

	if err = conn.Close(); err != nil {
		log.Error("failed to close connection", "error", err)
	}

	log.Info("websocket connection closed", "connection", conn.ID())
}

// sessionFor - reads the session cookie, or mints a new session id and the
// Set-Cookie header carrying it back on the upgrade response.
func (that *Server) sessionFor(req *http.Request) (string, http.Header) {
	log := that.logger.With("method", "sessionFor")

	if cookie, err := req.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		log.Debug("session cookie found", "session", cookie.Value)
		return cookie.Value, nil
	}

	sessionID := uuid.NewString()
	cookie := &http.Cookie{
		Name:    sessionCookieName,
		Value:   sessionID,
		Expires: time.Now().Add(24 * time.Hour),
		Path:    "/ws",
	}

	log.Debug("session cookie not found, new one created", "session", sessionID)

	return sessionID, http.Header{"Set-Cookie": []string{cookie.String()}}
}
