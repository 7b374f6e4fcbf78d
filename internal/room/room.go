// Package room groups players into a shared broadcast scope with a single
// host. The host is always the earliest-joined remaining member.
package room

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/tictactoe-arena/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-arena/internal/entity"
	"github.com/rocketscienceinc/tictactoe-arena/internal/gateway"
)

// Registrar applies event listeners to a member's connection. Registrars
// added via AddListenerToAll are replayed onto every later joiner so late
// members get the same listeners as founding members.
type Registrar func(conn gateway.Conn)

type Room struct {
	ID   string
	Name string

	logger *slog.Logger

	mu         sync.Mutex
	members    []*entity.Player // insertion order
	host       *entity.Player
	registrars []Registrar
}

func New(id, name string, logger *slog.Logger) *Room {
	return &Room{
		ID:     id,
		Name:   name,
		logger: logger.With("component", "room", "room", name),
	}
}

// AddPlayer - appends the player to the member list. The first member of an
// empty room becomes host. Previously added registrars are applied to the
// new member's connection.
func (that *Room) AddPlayer(player *entity.Player) {
	that.mu.Lock()

	that.members = append(that.members, player)
	if that.host == nil {
		that.host = player
	}

	registrars := append([]Registrar(nil), that.registrars...)
	that.mu.Unlock()

	if player.Conn != nil {
		for _, registrar := range registrars {
			registrar(player.Conn)
		}
	}
}

// RemovePlayer - removes the member with that id, or returns nil if absent.
// Removing the host promotes the earliest-joined remaining member; the last
// removal leaves the room hostless.
func (that *Room) RemovePlayer(id string) *entity.Player {
	that.mu.Lock()
	defer that.mu.Unlock()

	for i, member := range that.members {
		if member.ID != id {
			continue
		}

		that.members = append(that.members[:i], that.members[i+1:]...)

		if that.host != nil && that.host.ID == id {
			if len(that.members) > 0 {
				that.host = that.members[0]
			} else {
				that.host = nil
			}
		}

		return member
	}

	return nil
}

// GetHost - returns the host, or ErrNoHost naming the room when empty.
func (that *Room) GetHost() (*entity.Player, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.host == nil {
		return nil, fmt.Errorf("%w: %s", apperror.ErrNoHost, that.Name)
	}

	return that.host, nil
}

func (that *Room) GetRoomName() string {
	return that.Name
}

// GetPlayerNames - member names in join order.
func (that *Room) GetPlayerNames() []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	names := make([]string, 0, len(that.members))
	for _, member := range that.members {
		names = append(names, member.Name)
	}

	return names
}

// AddListenerToAll - applies the registrar to every current member's
// connection and remembers it for members added afterward.
func (that *Room) AddListenerToAll(registrar Registrar) {
	that.mu.Lock()
	that.registrars = append(that.registrars, registrar)
	members := append([]*entity.Player(nil), that.members...)
	that.mu.Unlock()

	for _, member := range members {
		if member.Conn != nil {
			registrar(member.Conn)
		}
	}
}

// Broadcast - sends a named event to every member.
func (that *Room) Broadcast(name string, payload any) {
	that.mu.Lock()
	members := append([]*entity.Player(nil), that.members...)
	that.mu.Unlock()

	for _, member := range members {
		if member.Conn == nil {
			continue
		}

		if err := that.Send(member, name, payload); err != nil {
			that.logger.Error("failed to send broadcast", "player", member.ID, "error", err)
		}
	}
}

// Send - sends a named event to a single member.
func (that *Room) Send(player *entity.Player, name string, payload any) error {
	if err := player.Conn.Send(name, payload); err != nil {
		return fmt.Errorf("failed to send %q: %w", name, err)
	}

	return nil
}

// Close - forcibly disconnects every member and clears membership. The room
// is hostless afterwards and GetHost fails with ErrNoHost.
func (that *Room) Close() {
	that.mu.Lock()
	members := that.members
	that.members = nil
	that.host = nil
	that.registrars = nil
	that.mu.Unlock()

	for _, member := range members {
		if member.Conn == nil {
			continue
		}

		if err := member.Conn.Close(); err != nil {
			that.logger.Error("failed to close member connection", "player", member.ID, "error", err)
		}
	}
}
