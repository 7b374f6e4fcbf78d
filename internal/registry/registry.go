// Package registry holds the authoritative process-wide mapping from
// connection identity to player.
package registry

import (
	"fmt"
	"sync"

	"github.com/rocketscienceinc/tictactoe-arena/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-arena/internal/entity"
)

type Registry struct {
	mu      sync.Mutex
	players map[string]*entity.Player
}

func New() *Registry {
	return &Registry{
		players: make(map[string]*entity.Player),
	}
}

// AddPlayer - registers a player. Registering an id twice is a programming
// error and fails with ErrDuplicatePlayer.
func (that *Registry) AddPlayer(player *entity.Player) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.players[player.ID]; ok {
		return fmt.Errorf("%w: id %s", apperror.ErrDuplicatePlayer, player.ID)
	}

	that.players[player.ID] = player

	return nil
}

// RemovePlayer - removes and returns the player, or nil if already gone.
// "Already gone" is an expected race with disconnects, not an error.
func (that *Registry) RemovePlayer(id string) *entity.Player {
	that.mu.Lock()
	defer that.mu.Unlock()

	player, ok := that.players[id]
	if !ok {
		return nil
	}

	delete(that.players, id)

	return player
}

// GetPlayerByID - returns the player or nil.
func (that *Registry) GetPlayerByID(id string) *entity.Player {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.players[id]
}

// GetNames - snapshot of registered names, order not significant.
func (that *Registry) GetNames() []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	names := make([]string, 0, len(that.players))
	for _, player := range that.players {
		names = append(names, player.Name)
	}

	return names
}

// GetIDs - snapshot of registered ids, order not significant.
func (that *Registry) GetIDs() []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	ids := make([]string, 0, len(that.players))
	for id := range that.players {
		ids = append(ids, id)
	}

	return ids
}

func (that *Registry) GetCount() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.players)
}
