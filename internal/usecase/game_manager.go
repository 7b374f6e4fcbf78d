package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rocketscienceinc/tictactoe-arena/internal/config"
	"github.com/rocketscienceinc/tictactoe-arena/internal/entity"
	"github.com/rocketscienceinc/tictactoe-arena/internal/gateway"
	"github.com/rocketscienceinc/tictactoe-arena/internal/matchmaking"
	"github.com/rocketscienceinc/tictactoe-arena/internal/registry"
	"github.com/rocketscienceinc/tictactoe-arena/internal/repository"
	"github.com/rocketscienceinc/tictactoe-arena/internal/room"
)

const lobbyRoomName = "Lobby"

type sessionRepo interface {
	CreateOrUpdate(ctx context.Context, session *repository.Session) error
	GetByID(ctx context.Context, id string) (*repository.Session, error)
	DeleteByID(ctx context.Context, id string) error
}

type eventRegistry interface {
	Register(name string, handler gateway.HandlerFunc)
}

// match ties one game to its broadcast room and its outstanding timers.
// Each match owns its own grace timer and must cancel it on teardown.
type match struct {
	game *entity.Game
	room *room.Room

	graceTimer          *time.Timer
	disconnectedID      string
	disconnectedSession string
}

// GameManager is the session layer: it owns the player registry bindings,
// the lobby room, the matchmaking queue, all live matches and every timer
// attached to them.
type GameManager struct {
	logger   *slog.Logger
	conf     config.Game
	registry *registry.Registry
	queue    *matchmaking.Queue
	sessions sessionRepo
	lobby    *room.Room

	mu            sync.Mutex
	matches       map[string]*match // game id -> match
	playerMatches map[string]string // player id -> game id
	requeueTimers map[string]*time.Timer
	nextPlayerNum int
}

func NewGameManager(logger *slog.Logger, conf config.Game, players *registry.Registry, sessions sessionRepo, events eventRegistry) *GameManager {
	manager := &GameManager{
		logger:   logger.With("component", "game_manager"),
		conf:     conf,
		registry: players,
		sessions: sessions,
		lobby:    room.New(uuid.NewString(), lobbyRoomName, logger),

		matches:       make(map[string]*match),
		playerMatches: make(map[string]string),
		requeueTimers: make(map[string]*time.Timer),
		nextPlayerNum: 1,
	}

	manager.queue = matchmaking.New(logger, manager.startMatch)

	events.Register(ActionListPlayers, manager.handleListPlayers)
	events.Register(ActionRename, manager.handleRename)
	events.Register(ActionMirror, manager.handleMirror)
	events.Register(ActionMark, manager.handleMark)
	events.Register(ActionJoinQueue, manager.handleJoinQueue)
	events.Register(ActionLeaveGame, manager.handleLeaveGame)

	// every lobby member, present and future, can ask for the room name
	manager.lobby.AddListenerToAll(func(conn gateway.Conn) {
		conn.On(ActionRoomName, func(_ context.Context, _ gateway.Event, ack gateway.AckFunc) {
			if ack != nil {
				ack(manager.lobby.GetRoomName())
			}
		})
	})

	return manager
}

// HandleConnect - registers the new connection as a player, announces its
// session info, and resumes a match if the session disconnected from one
// inside the grace window.
func (that *GameManager) HandleConnect(ctx context.Context, conn gateway.Conn) {
	log := that.logger.With("method", "HandleConnect", "player", conn.ID())

	session := that.loadSession(ctx, conn.SessionID())

	that.mu.Lock()
	name := session.Name
	if name == "" {
		name = fmt.Sprintf("Player %d", that.nextPlayerNum)
		that.nextPlayerNum++
	}
	that.mu.Unlock()

	player := entity.NewPlayer(conn, name)

	if err := that.registry.AddPlayer(player); err != nil {
		log.Error("failed to register player", "error", err)

		if err = conn.Close(); err != nil {
			log.Error("failed to close connection", "error", err)
		}
		return
	}

	that.lobby.AddPlayer(player)

	session.Name = name
	that.saveSession(ctx, session)

	resumed := that.resumeMatch(ctx, session, player)

	info := ManagerResponse{
		Type: ResponseTypePlayerInfo,
		Payload: PlayerInfoPayload{
			ID:     player.ID,
			Name:   player.Name,
			InGame: resumed,
		},
	}
	if err := conn.Send(EventManagerResponse, info); err != nil {
		log.Error("failed to send player info", "error", err)
	}

	log.Info("player connected", "name", name, "resumed", resumed)
}

// HandleDisconnect - tears the player out of the registry, lobby and queue.
// A player who drops mid-match gets a grace window to come back before the
// match is forcibly resolved.
func (that *GameManager) HandleDisconnect(ctx context.Context, conn gateway.Conn) {
	log := that.logger.With("method", "HandleDisconnect", "player", conn.ID())

	playerID := conn.ID()

	that.registry.RemovePlayer(playerID)
	that.lobby.RemovePlayer(playerID)
	that.queue.LeaveQueue(playerID)

	that.mu.Lock()
	defer that.mu.Unlock()

	if timer, ok := that.requeueTimers[playerID]; ok {
		timer.Stop()
		delete(that.requeueTimers, playerID)
	}

	gameID, ok := that.playerMatches[playerID]
	if !ok {
		log.Info("player disconnected")
		return
	}

	currentMatch, ok := that.matches[gameID]
	if !ok || !currentMatch.game.IsInProgress() {
		return
	}

	if currentMatch.disconnectedID != "" {
		// the other participant is already inside their grace window; with
		// both sides gone there is nobody left to wait for, so the match is
		// dropped and its timer stopped instead of replaced
		firstSession := currentMatch.disconnectedSession
		currentMatch.game.Abandon("")
		that.removeMatchLocked(currentMatch)

		that.clearSessionGame(ctx, firstSession)
		that.clearSessionGame(ctx, conn.SessionID())

		log.Info("both players disconnected, match dropped", "game", gameID)
		return
	}

	currentMatch.disconnectedID = playerID
	currentMatch.disconnectedSession = conn.SessionID()
	currentMatch.graceTimer = time.AfterFunc(that.conf.GracePeriod, func() {
		that.resolveAbandoned(gameID)
	})

	log.Info("player disconnected mid-match, grace timer started", "game", gameID, "grace", that.conf.GracePeriod)
}

// resumeMatch rebinds a reconnecting session to its interrupted game.
// Returns true when the player is back in a live match.
func (that *GameManager) resumeMatch(ctx context.Context, session *repository.Session, player *entity.Player) bool {
	log := that.logger.With("method", "resumeMatch", "player", player.ID)

	if session.GameID == "" {
		return false
	}

	that.mu.Lock()

	currentMatch, ok := that.matches[session.GameID]
	if !ok || currentMatch.disconnectedSession != session.ID {
		that.mu.Unlock()

		// the match is gone or belongs to someone else; forget the binding
		session.GameID = ""
		that.saveSession(ctx, session)
		return false
	}

	currentMatch.graceTimer.Stop()
	currentMatch.graceTimer = nil

	oldID := currentMatch.disconnectedID
	currentMatch.disconnectedID = ""
	currentMatch.disconnectedSession = ""

	game := currentMatch.game
	mark, ok := game.MarkOf(oldID)
	if !ok {
		that.mu.Unlock()
		log.Error("disconnected player not found in game", "game", game.ID)
		return false
	}
	game.Players[mark] = player

	delete(that.playerMatches, oldID)
	that.playerMatches[player.ID] = game.ID

	gameRoom := currentMatch.room
	board := append([]string(nil), game.Board...)
	turn := game.Turn
	that.mu.Unlock()

	gameRoom.RemovePlayer(oldID)
	gameRoom.AddPlayer(player)

	// both sides get the current board so the rejoiner can redraw
	gameRoom.Broadcast(EventGameUpdate, GameUpdate{
		Type: UpdateTypeMark,
		Payload: MarkPayload{
			Board: board,
			Turn:  turn,
		},
	})

	log.Info("player resumed match", "game", game.ID)

	return true
}

// startMatch - creates a game for two freshly paired players. The earlier
// enqueued player gets X, and X moves first.
func (that *GameManager) startMatch(first, second *entity.Player) {
	log := that.logger.With("method", "startMatch")

	gameID := uuid.NewString()
	game := entity.NewGame(gameID, that.conf.BoardWidth, that.conf.BoardHeight, that.conf.WinLength, first, second)

	gameRoom := room.New(gameID, "Game "+gameID, that.logger)
	gameRoom.AddPlayer(first)
	gameRoom.AddPlayer(second)

	that.mu.Lock()
	that.matches[gameID] = &match{game: game, room: gameRoom}
	that.playerMatches[first.ID] = gameID
	that.playerMatches[second.ID] = gameID
	that.mu.Unlock()

	ctx := context.Background()
	that.bindSessionToGame(ctx, first, gameID)
	that.bindSessionToGame(ctx, second, gameID)

	gameRoom.Broadcast(EventGameUpdate, GameUpdate{
		Type: UpdateTypeStart,
		Payload: StartPayload{
			Size: Size{X: game.Width, Y: game.Height},
			O:    entity.PlayerO,
			Turn: game.Turn,
		},
	})

	log.Info("match started", "game", gameID, "x", first.ID, "o", second.ID)
}

// resolveAbandoned fires when a grace timer elapses without a reconnect:
// the match is abandoned, the remaining player wins by disconnect and is
// re-queued after the requeue delay.
func (that *GameManager) resolveAbandoned(gameID string) {
	log := that.logger.With("method", "resolveAbandoned", "game", gameID)

	that.mu.Lock()

	currentMatch, ok := that.matches[gameID]
	if !ok || currentMatch.disconnectedID == "" || !currentMatch.game.IsInProgress() {
		// resumed or already resolved; the timer has nothing to do
		that.mu.Unlock()
		return
	}

	game := currentMatch.game
	survivor, ok := game.Opponent(currentMatch.disconnectedID)
	if !ok {
		that.mu.Unlock()
		log.Error("no remaining player in abandoned game")
		return
	}

	survivorMark, _ := game.MarkOf(survivor.ID)
	game.Abandon(survivorMark)

	disconnectedSession := currentMatch.disconnectedSession
	that.removeMatchLocked(currentMatch)

	that.requeueTimers[survivor.ID] = time.AfterFunc(that.conf.RequeueDelay, func() {
		that.requeue(survivor.ID)
	})
	that.mu.Unlock()

	ctx := context.Background()
	that.bindSessionToGame(ctx, survivor, "")
	that.clearSessionGame(ctx, disconnectedSession)

	if err := currentMatch.room.Send(survivor, EventGameUpdate, GameUpdate{Type: UpdateTypeWinDisconnect}); err != nil {
		log.Error("failed to send win disconnect", "player", survivor.ID, "error", err)
	}

	log.Info("match abandoned", "winner", survivor.ID)
}

// requeue puts a disconnect winner back into matchmaking, if still here.
func (that *GameManager) requeue(playerID string) {
	that.mu.Lock()
	delete(that.requeueTimers, playerID)
	that.mu.Unlock()

	player := that.registry.GetPlayerByID(playerID)
	if player == nil {
		return
	}

	that.queue.JoinQueue(player)
}

// Shutdown - closes every room and cancels all outstanding timers so no
// late callback acts on torn-down state.
func (that *GameManager) Shutdown() {
	that.mu.Lock()
	matches := make([]*match, 0, len(that.matches))
	for _, currentMatch := range that.matches {
		matches = append(matches, currentMatch)
	}
	that.matches = make(map[string]*match)
	that.playerMatches = make(map[string]string)

	for id, timer := range that.requeueTimers {
		timer.Stop()
		delete(that.requeueTimers, id)
	}
	that.mu.Unlock()

	for _, currentMatch := range matches {
		if currentMatch.graceTimer != nil {
			currentMatch.graceTimer.Stop()
		}
		currentMatch.room.Close()
	}

	that.lobby.Close()
}

// --- event handlers ---

func (that *GameManager) handleListPlayers(_ context.Context, _ gateway.Event, ack gateway.AckFunc) {
	if ack == nil {
		return
	}

	ack(that.registry.GetNames())
}

func (that *GameManager) handleRename(ctx context.Context, event gateway.Event, ack gateway.AckFunc) {
	log := that.logger.With("method", "handleRename", "player", event.SenderID)

	var newName string
	if err := json.Unmarshal(event.Payload, &newName); err != nil {
		log.Error("failed to unmarshal name payload", "error", err)
		return
	}

	player := that.registry.GetPlayerByID(event.SenderID)
	if player == nil {
		log.Error("rename from unregistered player")
		return
	}

	player.Name = newName

	if player.Conn != nil {
		session := that.loadSession(ctx, player.Conn.SessionID())
		session.Name = newName
		that.saveSession(ctx, session)
	}

	if ack != nil {
		ack(nil)
	}
}

func (that *GameManager) handleMirror(_ context.Context, event gateway.Event, ack gateway.AckFunc) {
	if ack == nil {
		return
	}

	ack(event)
}

func (that *GameManager) handleJoinQueue(_ context.Context, event gateway.Event, _ gateway.AckFunc) {
	player := that.registry.GetPlayerByID(event.SenderID)
	if player == nil {
		return
	}

	that.mu.Lock()
	_, inMatch := that.playerMatches[player.ID]
	that.mu.Unlock()

	if inMatch {
		return
	}

	that.queue.JoinQueue(player)
}

func (that *GameManager) handleLeaveGame(ctx context.Context, event gateway.Event, _ gateway.AckFunc) {
	log := that.logger.With("method", "handleLeaveGame", "player", event.SenderID)

	that.mu.Lock()
	gameID, ok := that.playerMatches[event.SenderID]
	if !ok {
		that.mu.Unlock()
		return
	}

	currentMatch := that.matches[gameID]
	if currentMatch == nil {
		that.mu.Unlock()
		return
	}

	game := currentMatch.game

	// leaving a live match concedes it; the opponent hears the same
	// terminal update a disconnect win produces
	opponent, hasOpponent := game.Opponent(event.SenderID)
	conceded := game.IsInProgress() && hasOpponent
	if conceded {
		opponentMark, _ := game.MarkOf(opponent.ID)
		game.Abandon(opponentMark)
	}

	that.removeMatchLocked(currentMatch)
	that.mu.Unlock()

	for _, player := range game.Players {
		that.bindSessionToGame(ctx, player, "")
	}

	if conceded {
		if err := currentMatch.room.Send(opponent, EventGameUpdate, GameUpdate{Type: UpdateTypeWinDisconnect}); err != nil {
			log.Error("failed to send win disconnect", "player", opponent.ID, "error", err)
		}
	}

	log.Info("player left match", "game", gameID)
}

func (that *GameManager) handleMark(_ context.Context, event gateway.Event, _ gateway.AckFunc) {
	log := that.logger.With("method", "handleMark", "player", event.SenderID)

	var request MarkRequest
	if err := json.Unmarshal(event.Payload, &request); err != nil {
		log.Error("failed to unmarshal mark payload", "error", err)
		return
	}

	that.mu.Lock()

	gameID, ok := that.playerMatches[event.SenderID]
	if !ok {
		that.mu.Unlock()
		that.sendInvalidMark(event.SenderID, "you are not in a match")
		return
	}

	currentMatch := that.matches[gameID]
	game := currentMatch.game

	if err := game.Mark(event.SenderID, request.X, request.Y); err != nil {
		that.mu.Unlock()
		log.Debug("rejected move", "reason", err)
		that.sendInvalidMark(event.SenderID, err.Error())
		return
	}

	// snapshot the board under the lock: the payload outlives it and the
	// next move must not show through an already-built broadcast
	board := append([]string(nil), game.Board...)

	var update GameUpdate
	switch game.Status {
	case entity.StatusWon:
		update = GameUpdate{
			Type: UpdateTypeWin,
			Payload: WinPayload{
				Winner:         game.Winner,
				Board:          board,
				Mark:           game.Winner,
				WinningSquares: game.WinningLine,
			},
		}
		that.removeMatchLocked(currentMatch)
	case entity.StatusTied:
		update = GameUpdate{
			Type:    UpdateTypeTie,
			Payload: TiePayload{Board: board},
		}
		that.removeMatchLocked(currentMatch)
	default:
		update = GameUpdate{
			Type: UpdateTypeMark,
			Payload: MarkPayload{
				Board: board,
				Turn:  game.Turn,
			},
		}
	}
	that.mu.Unlock()

	currentMatch.room.Broadcast(EventGameUpdate, update)

	if game.IsTerminal() {
		ctx := context.Background()
		for _, player := range game.Players {
			that.bindSessionToGame(ctx, player, "")
		}
		log.Info("match finished", "game", game.ID, "status", game.Status, "winner", game.Winner)
	}
}

// --- helpers ---

// removeMatchLocked drops the match and its player bindings and stops any
// outstanding grace timer. Caller holds that.mu.
func (that *GameManager) removeMatchLocked(currentMatch *match) {
	if currentMatch == nil {
		return
	}

	if currentMatch.graceTimer != nil {
		currentMatch.graceTimer.Stop()
		currentMatch.graceTimer = nil
	}

	delete(that.matches, currentMatch.game.ID)
	for _, player := range currentMatch.game.Players {
		if player != nil {
			delete(that.playerMatches, player.ID)
		}
	}
	if currentMatch.disconnectedID != "" {
		delete(that.playerMatches, currentMatch.disconnectedID)
	}
}

func (that *GameManager) sendInvalidMark(playerID, reason string) {
	player := that.registry.GetPlayerByID(playerID)
	if player == nil || player.Conn == nil {
		return
	}

	update := GameUpdate{
		Type:  UpdateTypeInvalidMark,
		Error: reason,
	}
	if err := player.Conn.Send(EventGameUpdate, update); err != nil {
		that.logger.Error("failed to send invalid mark", "player", playerID, "error", err)
	}
}

// loadSession returns the stored session or a fresh one. Session storage is
// best-effort: a repository failure degrades to a fresh session.
func (that *GameManager) loadSession(ctx context.Context, sessionID string) *repository.Session {
	session, err := that.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, repository.ErrSessionNotFound) {
			that.logger.Error("failed to load session", "session", sessionID, "error", err)
		}
		return &repository.Session{ID: sessionID}
	}

	return session
}

func (that *GameManager) saveSession(ctx context.Context, session *repository.Session) {
	if err := that.sessions.CreateOrUpdate(ctx, session); err != nil {
		that.logger.Error("failed to save session", "session", session.ID, "error", err)
	}
}

// clearSessionGame drops the game binding of a session whose player is no
// longer connected.
func (that *GameManager) clearSessionGame(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}

	session := that.loadSession(ctx, sessionID)
	session.GameID = ""
	that.saveSession(ctx, session)
}

func (that *GameManager) bindSessionToGame(ctx context.Context, player *entity.Player, gameID string) {
	if player == nil || player.Conn == nil {
		return
	}

	session := that.loadSession(ctx, player.Conn.SessionID())
	session.Name = player.Name
	session.GameID = gameID
	that.saveSession(ctx, session)
}
