package apperror

import "errors"

var (
	ErrDuplicatePlayer = errors.New("player is already registered")
	ErrNoHost          = errors.New("room has no host")

	ErrGameNotInProgress = errors.New("game is not in progress")
	ErrNotYourTurn       = errors.New("it's not your turn")
	ErrOutOfBounds       = errors.New("cell is out of bounds")
	ErrCellOccupied      = errors.New("cell is already occupied")
)
