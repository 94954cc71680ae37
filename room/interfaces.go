package room

import (
	"context"

	"github.com/wfunc/clueserver/game"
)

// Broadcaster delivers room events. It is defined here so that the room
// package does not depend on the transport.
type Broadcaster interface {
	BroadcastToRoom(roomID string, msgID uint16, data []byte) error
	SendToPlayer(roomID, playerID string, msgID uint16, data []byte) error
}

// Recorder keeps the history of finished games.
type Recorder interface {
	RecordGame(ctx context.Context, st *game.State, sol *game.Solution) error
}
