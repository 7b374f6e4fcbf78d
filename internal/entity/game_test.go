package entity

import (
	"testing"

	"github.com/rocketscienceinc/tictactoe-arena/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGame(t *testing.T, width, height, winLength int) *Game {
	t.Helper()

	playerX := &Player{ID: "player-x", Name: "Player 1"}
	playerO := &Player{ID: "player-o", Name: "Player 2"}

	return NewGame("game-1", width, height, winLength, playerX, playerO)
}

func TestNewGame(t *testing.T) {
	// Given: a new 3x3 match
	game := newTestGame(t, 3, 3, 3)

	// Then: the game starts in progress with X to move and an empty board
	require.Equal(t, StatusInProgress, game.Status)
	require.Equal(t, PlayerX, game.Turn)
	require.Len(t, game.Board, 9)
	for _, cell := range game.Board {
		require.Equal(t, EmptyCell, cell)
	}

	// Then: both marks map to distinct players
	require.Equal(t, "player-x", game.Players[PlayerX].ID)
	require.Equal(t, "player-o", game.Players[PlayerO].ID)
}

func TestGame_Mark(t *testing.T) {
	t.Run("turn alternates between marks", func(t *testing.T) {
		// Given: a new game
		game := newTestGame(t, 3, 3, 3)

		// When: X and O move alternately
		require.NoError(t, game.Mark("player-x", 0, 0))
		require.Equal(t, PlayerO, game.Turn)

		require.NoError(t, game.Mark("player-o", 1, 1))
		require.Equal(t, PlayerX, game.Turn)

		require.NoError(t, game.Mark("player-x", 1, 0))

		// Then: the board reflects every applied move
		require.Equal(t, PlayerX, game.Board[0])
		require.Equal(t, PlayerO, game.Board[4])
		require.Equal(t, PlayerX, game.Board[1])
	})

	t.Run("error on playing out of turn", func(t *testing.T) {
		// Given: a new game where X moves first
		game := newTestGame(t, 3, 3, 3)

		// When: O tries to move out of turn
		err := game.Mark("player-o", 0, 0)

		// Then: the move is rejected and the board is unchanged
		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
		require.Equal(t, EmptyCell, game.Board[0])
		require.Equal(t, PlayerX, game.Turn)
	})

	t.Run("error on out of bounds cell", func(t *testing.T) {
		// Given: a new game
		game := newTestGame(t, 3, 3, 3)

		// When: X marks outside the board
		err := game.Mark("player-x", 3, 0)

		// Then: ErrOutOfBounds and no state change
		require.ErrorIs(t, err, apperror.ErrOutOfBounds)
		require.Equal(t, PlayerX, game.Turn)

		// When: a negative coordinate is used
		err = game.Mark("player-x", 0, -1)

		// Then: ErrOutOfBounds again
		require.ErrorIs(t, err, apperror.ErrOutOfBounds)
	})

	t.Run("error on occupied cell", func(t *testing.T) {
		// Given: a game where X already holds (0, 0)
		game := newTestGame(t, 3, 3, 3)
		require.NoError(t, game.Mark("player-x", 0, 0))

		// When: O marks the same cell
		err := game.Mark("player-o", 0, 0)

		// Then: ErrCellOccupied, the cell keeps its mark, still O's turn
		require.ErrorIs(t, err, apperror.ErrCellOccupied)
		require.Equal(t, PlayerX, game.Board[0])
		require.Equal(t, PlayerO, game.Turn)
	})

	t.Run("error on move after game is won", func(t *testing.T) {
		// Given: a finished game
		game := newTestGame(t, 3, 3, 3)
		playWinningRow(t, game)
		require.Equal(t, StatusWon, game.Status)

		boardBefore := append([]string(nil), game.Board...)

		// When: O tries to keep playing
		err := game.Mark("player-o", 2, 2)

		// Then: ErrGameNotInProgress and the board stays frozen
		require.ErrorIs(t, err, apperror.ErrGameNotInProgress)
		require.Equal(t, boardBefore, game.Board)
	})

	t.Run("unknown player cannot move", func(t *testing.T) {
		// Given: a new game
		game := newTestGame(t, 3, 3, 3)

		// When: someone who is not a participant marks
		err := game.Mark("stranger", 0, 0)

		// Then: rejected as not their turn
		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
	})
}

// playWinningRow drives the scripted 3x3 scenario: X completes the y=0 row.
func playWinningRow(t *testing.T, game *Game) {
	t.Helper()

	require.NoError(t, game.Mark("player-x", 0, 0))
	require.NoError(t, game.Mark("player-o", 1, 1))
	require.NoError(t, game.Mark("player-x", 1, 0))
	require.NoError(t, game.Mark("player-o", 2, 2))
	require.NoError(t, game.Mark("player-x", 2, 0))
}

func TestGame_WinDetection(t *testing.T) {
	t.Run("row win reports exact winning line", func(t *testing.T) {
		// Given: a 3x3 game
		game := newTestGame(t, 3, 3, 3)

		// When: X completes the top row (0,0), (1,0), (2,0)
		playWinningRow(t, game)

		// Then: the game is won by X with the exact run coordinates
		require.Equal(t, StatusWon, game.Status)
		require.Equal(t, PlayerX, game.Winner)
		require.Equal(t, []Cell{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}}, game.WinningLine)
		require.Equal(t, "", game.Turn)
	})

	t.Run("column win", func(t *testing.T) {
		// Given: a 3x3 game
		game := newTestGame(t, 3, 3, 3)

		// When: X completes the x=0 column
		require.NoError(t, game.Mark("player-x", 0, 0))
		require.NoError(t, game.Mark("player-o", 1, 0))
		require.NoError(t, game.Mark("player-x", 0, 1))
		require.NoError(t, game.Mark("player-o", 2, 0))
		require.NoError(t, game.Mark("player-x", 0, 2))

		// Then: won with the column as the winning line
		require.Equal(t, StatusWon, game.Status)
		require.Equal(t, []Cell{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 0, Y: 2}}, game.WinningLine)
	})

	t.Run("diagonal win", func(t *testing.T) {
		// Given: a 3x3 game
		game := newTestGame(t, 3, 3, 3)

		// When: X completes the main diagonal
		require.NoError(t, game.Mark("player-x", 0, 0))
		require.NoError(t, game.Mark("player-o", 1, 0))
		require.NoError(t, game.Mark("player-x", 1, 1))
		require.NoError(t, game.Mark("player-o", 2, 0))
		require.NoError(t, game.Mark("player-x", 2, 2))

		// Then: won with the diagonal as the winning line
		require.Equal(t, StatusWon, game.Status)
		require.Equal(t, []Cell{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}}, game.WinningLine)
	})

	t.Run("anti-diagonal win", func(t *testing.T) {
		// Given: a 3x3 game
		game := newTestGame(t, 3, 3, 3)

		// When: X completes the anti-diagonal
		require.NoError(t, game.Mark("player-x", 2, 0))
		require.NoError(t, game.Mark("player-o", 0, 0))
		require.NoError(t, game.Mark("player-x", 1, 1))
		require.NoError(t, game.Mark("player-o", 1, 0))
		require.NoError(t, game.Mark("player-x", 0, 2))

		// Then: won with the anti-diagonal run, ordered from its far end
		require.Equal(t, StatusWon, game.Status)
		require.Equal(t, []Cell{{X: 0, Y: 2}, {X: 1, Y: 1}, {X: 2, Y: 0}}, game.WinningLine)
	})

	t.Run("arbitrary geometry win", func(t *testing.T) {
		// Given: a 5x4 board with win length 4
		game := newTestGame(t, 5, 4, 4)

		// When: X builds a 4-run in row y=2 while O scatters
		require.NoError(t, game.Mark("player-x", 1, 2))
		require.NoError(t, game.Mark("player-o", 0, 0))
		require.NoError(t, game.Mark("player-x", 2, 2))
		require.NoError(t, game.Mark("player-o", 1, 0))
		require.NoError(t, game.Mark("player-x", 4, 2))
		require.NoError(t, game.Mark("player-o", 2, 0))
		require.NoError(t, game.Mark("player-x", 3, 2))

		// Then: the contiguous run (1..4, 2) wins, no 3x3 special-casing
		require.Equal(t, StatusWon, game.Status)
		require.Equal(t, []Cell{{X: 1, Y: 2}, {X: 2, Y: 2}, {X: 3, Y: 2}, {X: 4, Y: 2}}, game.WinningLine)
	})

	t.Run("run shorter than win length does not win", func(t *testing.T) {
		// Given: a 4x4 board requiring 4 in a row
		game := newTestGame(t, 4, 4, 4)

		// When: X has only three in a row
		require.NoError(t, game.Mark("player-x", 0, 0))
		require.NoError(t, game.Mark("player-o", 0, 1))
		require.NoError(t, game.Mark("player-x", 1, 0))
		require.NoError(t, game.Mark("player-o", 1, 1))
		require.NoError(t, game.Mark("player-x", 2, 0))

		// Then: the game continues
		require.Equal(t, StatusInProgress, game.Status)
		require.Equal(t, PlayerO, game.Turn)
	})
}

func TestGame_Tie(t *testing.T) {
	// Given: a 3x3 game
	game := newTestGame(t, 3, 3, 3)

	// When: the board fills with no qualifying run
	//   X O X
	//   X O O
	//   O X X
	moves := []struct {
		playerID string
		x, y     int
	}{
		{"player-x", 0, 0}, {"player-o", 1, 0},
		{"player-x", 2, 0}, {"player-o", 1, 1},
		{"player-x", 0, 1}, {"player-o", 2, 1},
		{"player-x", 1, 2}, {"player-o", 0, 2},
		{"player-x", 2, 2},
	}
	for _, move := range moves {
		require.NoError(t, game.Mark(move.playerID, move.x, move.y))
	}

	// Then: the game is tied with no winner
	assert.Equal(t, StatusTied, game.Status)
	assert.Equal(t, "", game.Winner)
	assert.Equal(t, "", game.Turn)
}

func TestGame_Abandon(t *testing.T) {
	t.Run("abandoning an in-progress game records the winner", func(t *testing.T) {
		// Given: an in-progress game
		game := newTestGame(t, 3, 3, 3)
		require.NoError(t, game.Mark("player-x", 0, 0))

		// When: the match is abandoned in O's favor
		game.Abandon(PlayerO)

		// Then: terminal state with O as the de-facto winner
		require.Equal(t, StatusAbandoned, game.Status)
		require.Equal(t, PlayerO, game.Winner)
	})

	t.Run("abandon is a no-op on a terminal game", func(t *testing.T) {
		// Given: a game X already won
		game := newTestGame(t, 3, 3, 3)
		playWinningRow(t, game)

		// When: abandon fires late (e.g. a stale grace timer)
		game.Abandon(PlayerO)

		// Then: the original result stands
		require.Equal(t, StatusWon, game.Status)
		require.Equal(t, PlayerX, game.Winner)
	})
}

func TestGame_Opponent(t *testing.T) {
	// Given: a game with two players
	game := newTestGame(t, 3, 3, 3)

	// When: asking for X's opponent
	opponent, ok := game.Opponent("player-x")

	// Then: O's player is returned
	require.True(t, ok)
	require.Equal(t, "player-o", opponent.ID)

	// When: asking with an unknown id, any participant qualifies as "other"
	_, ok = game.MarkOf("stranger")
	require.False(t, ok)
}
