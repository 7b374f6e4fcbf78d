package usecase

import "github.com/rocketscienceinc/tictactoe-arena/internal/entity"

// Event names carried over the gateway.
const (
	EventGameUpdate      = "game update"
	EventManagerResponse = "manager response"

	ActionListPlayers = "get player list"
	ActionRename      = "update player name"
	ActionMirror      = "mirror"
	ActionMark        = "tictactoe mark"
	ActionJoinQueue   = "join queue"
	ActionLeaveGame   = "leave game"
	ActionRoomName    = "room name"
)

// Discriminators for the "game update" broadcast.
const (
	UpdateTypeStart         = "start success"
	UpdateTypeMark          = "mark"
	UpdateTypeWin           = "win"
	UpdateTypeTie           = "tie"
	UpdateTypeWinDisconnect = "win disconnect"
	UpdateTypeInvalidMark   = "invalid mark"
)

const ResponseTypePlayerInfo = "player info"

// GameUpdate is the discriminated match broadcast. Exactly one of Payload
// and Error is set; Error is the negative branch carrying an invalid-move
// reason back to the sender.
type GameUpdate struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ManagerResponse carries player and session level info, distinct from
// in-match updates.
type ManagerResponse struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type Size struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type StartPayload struct {
	Size Size   `json:"size"`
	O    string `json:"o"`
	Turn string `json:"turn"`
}

type MarkPayload struct {
	Board []string `json:"board"`
	Turn  string   `json:"turn"`
}

type WinPayload struct {
	Winner         string        `json:"winner"`
	Board          []string      `json:"board"`
	Mark           string        `json:"mark"`
	WinningSquares []entity.Cell `json:"winningSquares"`
}

type TiePayload struct {
	Board []string `json:"board"`
}

type PlayerInfoPayload struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	InGame bool   `json:"inGame"`
}

// MarkRequest is the inbound "tictactoe mark" payload.
type MarkRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
}
