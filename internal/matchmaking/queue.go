// Package matchmaking pairs waiting players FIFO, two at a time.
package matchmaking

import (
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/tictactoe-arena/internal/entity"
)

// PairFunc starts a match for two dequeued players. The first argument is
// the earlier-enqueued player.
type PairFunc func(first, second *entity.Player)

type Queue struct {
	logger *slog.Logger
	onPair PairFunc

	mu      sync.Mutex
	waiting []*entity.Player
}

func New(logger *slog.Logger, onPair PairFunc) *Queue {
	return &Queue{
		logger: logger.With("component", "matchmaking"),
		onPair: onPair,
	}
}

// JoinQueue - enqueues a waiting player. When two players are available the
// two earliest entries are dequeued atomically and handed to the pair
// callback; a player is never left half-paired. Re-queueing after a match
// or a disconnect uses this same entry point.
func (that *Queue) JoinQueue(player *entity.Player) {
	that.mu.Lock()

	for _, waiting := range that.waiting {
		if waiting.ID == player.ID {
			that.mu.Unlock()
			return
		}
	}

	that.waiting = append(that.waiting, player)

	if len(that.waiting) < 2 {
		that.mu.Unlock()
		that.logger.Debug("player waiting for opponent", "player", player.ID)
		return
	}

	first, second := that.waiting[0], that.waiting[1]
	that.waiting = that.waiting[2:]
	that.mu.Unlock()

	that.logger.Debug("paired players", "first", first.ID, "second", second.ID)
	that.onPair(first, second)
}

// LeaveQueue - removes the player if still waiting. No-op when the player
// is not queued, e.g. already paired.
func (that *Queue) LeaveQueue(id string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	for i, waiting := range that.waiting {
		if waiting.ID == id {
			that.waiting = append(that.waiting[:i], that.waiting[i+1:]...)
			return
		}
	}
}

// Waiting - current queue length.
func (that *Queue) Waiting() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.waiting)
}
