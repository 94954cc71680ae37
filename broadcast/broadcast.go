// broadcast/broadcast.go
package broadcast

import (
	"github.com/wfunc/clueserver/logger"
	"github.com/wfunc/clueserver/session"
)

// 广播接口
type Broadcaster interface {
	BroadcastToRoom(roomID string, msgID uint16, data []byte) error
	SendToPlayer(roomID, playerID string, msgID uint16, data []byte) error
	BroadcastToAll(msgID uint16, data []byte) error
}

// RoomBroadcaster fans messages out to the sessions of a game. A room id is
// a game id.
type RoomBroadcaster struct {
	sessionManager *session.Manager
}

func NewRoomBroadcaster(sessionManager *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{sessionManager: sessionManager}
}

func (b *RoomBroadcaster) BroadcastToRoom(roomID string, msgID uint16, data []byte) error {
	b.send(b.sessionManager.GetByGame(roomID), msgID, data)
	return nil
}

// SendToPlayer delivers a private message to every session of one seat.
// Nobody connected is not an error; the player reads the state on reconnect.
func (b *RoomBroadcaster) SendToPlayer(roomID, playerID string, msgID uint16, data []byte) error {
	b.send(b.sessionManager.GetByPlayer(roomID, playerID), msgID, data)
	return nil
}

func (b *RoomBroadcaster) BroadcastToAll(msgID uint16, data []byte) error {
	b.send(b.sessionManager.All(), msgID, data)
	return nil
}

func (b *RoomBroadcaster) send(sessions []*session.Session, msgID uint16, data []byte) {
	for _, s := range sessions {
		if err := s.Send(msgID, data); err != nil {
			// 发送失败的连接由读循环负责清理
			logger.Log.Warnw("send failed", "session_id", s.ID, "game_id", s.GameID, "error", err)
			continue
		}
	}
}
