package entity

import "github.com/rocketscienceinc/tictactoe-arena/internal/gateway"

// Player binds a connection identity to a display name. The registry owns
// player lifetime; rooms and games only hold references.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	Conn gateway.Conn `json:"-"`
}

func NewPlayer(conn gateway.Conn, name string) *Player {
	return &Player{
		ID:   conn.ID(),
		Name: name,
		Conn: conn,
	}
}
