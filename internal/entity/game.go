package entity

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-arena/internal/apperror"
)

const (
	StatusInProgress = "in_progress"
	StatusWon        = "won"
	StatusTied       = "tied"
	StatusAbandoned  = "abandoned"

	PlayerX = "X"
	PlayerO = "O"

	EmptyCell = ""
)

// Cell is a board coordinate. The board is stored row-major: index y*Width+x.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Game is the turn-based state machine for one match. Once Status leaves
// StatusInProgress the board is immutable.
type Game struct {
	ID        string             `json:"id"`
	Width     int                `json:"width"`
	Height    int                `json:"height"`
	WinLength int                `json:"win_length"`
	Board     []string           `json:"board"`
	Turn      string             `json:"turn"`
	Players   map[string]*Player `json:"-"`
	Status    string             `json:"status"`
	Winner    string             `json:"winner,omitempty"`

	// WinningLine holds the exact coordinates of the qualifying run, in
	// board order, once Status is StatusWon.
	WinningLine []Cell `json:"winning_line,omitempty"`
}

// NewGame - creates a match with both marks assigned and X to move.
func NewGame(id string, width, height, winLength int, playerX, playerO *Player) *Game {
	board := make([]string, width*height)
	for i := range board {
		board[i] = EmptyCell
	}

	return &Game{
		ID:        id,
		Width:     width,
		Height:    height,
		WinLength: winLength,
		Board:     board,
		Turn:      PlayerX,
		Players: map[string]*Player{
			PlayerX: playerX,
			PlayerO: playerO,
		},
		Status: StatusInProgress,
	}
}

// Mark - applies a validated move for the player owning the current turn.
// Validation order: game in progress, turn ownership, bounds, empty cell.
// A failed validation returns the specific reason and leaves the game
// unchanged.
func (that *Game) Mark(playerID string, x, y int) error {
	if !that.IsInProgress() {
		return fmt.Errorf("%w: status %s", apperror.ErrGameNotInProgress, that.Status)
	}

	mark, ok := that.MarkOf(playerID)
	if !ok || mark != that.Turn {
		return apperror.ErrNotYourTurn
	}

	if x < 0 || x >= that.Width || y < 0 || y >= that.Height {
		return fmt.Errorf("%w: (%d, %d)", apperror.ErrOutOfBounds, x, y)
	}

	if that.Board[y*that.Width+x] != EmptyCell {
		return fmt.Errorf("%w: (%d, %d)", apperror.ErrCellOccupied, x, y)
	}

	that.Board[y*that.Width+x] = mark

	if line, won := that.findWinningRun(x, y, mark); won {
		that.Status = StatusWon
		that.Winner = mark
		that.WinningLine = line
		that.Turn = ""
		return nil
	}

	if that.isBoardFull() {
		that.Status = StatusTied
		that.Turn = ""
		return nil
	}

	that.Turn = toggleMark(mark)

	return nil
}

// Abandon - forcibly resolves an in-progress match in favor of the
// remaining player. No-op once the game is already terminal.
func (that *Game) Abandon(winnerMark string) {
	if !that.IsInProgress() {
		return
	}

	that.Status = StatusAbandoned
	that.Winner = winnerMark
	that.Turn = ""
}

// MarkOf - returns the mark assigned to the given player.
func (that *Game) MarkOf(playerID string) (string, bool) {
	for mark, player := range that.Players {
		if player != nil && player.ID == playerID {
			return mark, true
		}
	}
	return "", false
}

// Opponent - returns the other participant.
func (that *Game) Opponent(playerID string) (*Player, bool) {
	for _, player := range that.Players {
		if player != nil && player.ID != playerID {
			return player, true
		}
	}
	return nil, false
}

func (that *Game) IsInProgress() bool {
	return that.Status == StatusInProgress
}

func (that *Game) IsTerminal() bool {
	return !that.IsInProgress()
}

// findWinningRun - scans the four line directions through the placed cell
// for a contiguous run of at least WinLength same marks. Any new win must
// pass through the last placed cell, so scanning the whole board is
// unnecessary. Works for arbitrary rectangular boards and win lengths.
func (that *Game) findWinningRun(x, y int, mark string) ([]Cell, bool) {
	directions := [4][2]int{
		{1, 0},  // horizontal
		{0, 1},  // vertical
		{1, 1},  // diagonal
		{1, -1}, // anti-diagonal
	}

	for _, dir := range directions {
		dx, dy := dir[0], dir[1]

		// walk to the far negative end of the run
		startX, startY := x, y
		for that.sameMark(startX-dx, startY-dy, mark) {
			startX -= dx
			startY -= dy
		}

		var run []Cell
		cx, cy := startX, startY
		for that.sameMark(cx, cy, mark) {
			run = append(run, Cell{X: cx, Y: cy})
			cx += dx
			cy += dy
		}

		if len(run) >= that.WinLength {
			return run, true
		}
	}

	return nil, false
}

func (that *Game) sameMark(x, y int, mark string) bool {
	if x < 0 || x >= that.Width || y < 0 || y >= that.Height {
		return false
	}
	return that.Board[y*that.Width+x] == mark
}

func (that *Game) isBoardFull() bool {
	for _, cell := range that.Board {
		if cell == EmptyCell {
			return false
		}
	}
	return true
}

func toggleMark(currentMark string) string {
	if currentMark == PlayerX {
		return PlayerO
	}
	return PlayerX
}
