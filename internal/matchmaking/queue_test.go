package matchmaking

import (
	"io"
	"log/slog"
	"testing"

	"github.com/rocketscienceinc/tictactoe-arena/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type pair struct {
	first, second string
}

func TestQueue_JoinQueue(t *testing.T) {
	t.Run("single player waits", func(t *testing.T) {
		// Given: an empty queue
		var pairs []pair
		queue := New(testLogger(), func(first, second *entity.Player) {
			pairs = append(pairs, pair{first.ID, second.ID})
		})

		// When: one player joins
		queue.JoinQueue(&entity.Player{ID: "a"})

		// Then: no pairing happens
		require.Empty(t, pairs)
		require.Equal(t, 1, queue.Waiting())
	})

	t.Run("two players are paired FIFO", func(t *testing.T) {
		// Given: an empty queue
		var pairs []pair
		queue := New(testLogger(), func(first, second *entity.Player) {
			pairs = append(pairs, pair{first.ID, second.ID})
		})

		// When: two players join in order
		queue.JoinQueue(&entity.Player{ID: "a"})
		queue.JoinQueue(&entity.Player{ID: "b"})

		// Then: exactly one pair, earliest first, queue drained
		require.Equal(t, []pair{{"a", "b"}}, pairs)
		require.Equal(t, 0, queue.Waiting())
	})

	t.Run("four players form two FIFO pairs", func(t *testing.T) {
		// Given: an empty queue
		var pairs []pair
		queue := New(testLogger(), func(first, second *entity.Player) {
			pairs = append(pairs, pair{first.ID, second.ID})
		})

		// When: four players join in order
		for _, id := range []string{"a", "b", "c", "d"} {
			queue.JoinQueue(&entity.Player{ID: id})
		}

		// Then: pairing preserved arrival order
		require.Equal(t, []pair{{"a", "b"}, {"c", "d"}}, pairs)
	})

	t.Run("joining twice does not double-queue", func(t *testing.T) {
		// Given: a queue holding one player
		var pairs []pair
		queue := New(testLogger(), func(first, second *entity.Player) {
			pairs = append(pairs, pair{first.ID, second.ID})
		})
		queue.JoinQueue(&entity.Player{ID: "a"})

		// When: the same player joins again
		queue.JoinQueue(&entity.Player{ID: "a"})

		// Then: the player is not paired with themselves
		require.Empty(t, pairs)
		require.Equal(t, 1, queue.Waiting())
	})
}

func TestQueue_LeaveQueue(t *testing.T) {
	t.Run("leaving removes a waiting player", func(t *testing.T) {
		// Given: a queue holding one player
		queue := New(testLogger(), func(_, _ *entity.Player) {})
		queue.JoinQueue(&entity.Player{ID: "a"})

		// When: the player leaves
		queue.LeaveQueue("a")

		// Then: the queue is empty and a later joiner keeps waiting
		require.Equal(t, 0, queue.Waiting())
		queue.JoinQueue(&entity.Player{ID: "b"})
		require.Equal(t, 1, queue.Waiting())
	})

	t.Run("leaving when not queued is a no-op", func(t *testing.T) {
		// Given: an empty queue
		queue := New(testLogger(), func(_, _ *entity.Player) {})

		// When/Then: leaving does nothing
		queue.LeaveQueue("ghost")
		assert.Equal(t, 0, queue.Waiting())
	})
}
