// session/session.go
package session

import (
	"sync"
	"time"

	"github.com/wfunc/clueserver/network"
)

// Session is one connection bound to a seat in a game.
type Session struct {
	ID         string
	Conn       network.Connection
	GameID     string
	PlayerID   string
	CreatedAt  time.Time
	lastActive time.Time
	mutex      sync.RWMutex
}

func NewSession(id string, conn network.Connection, gameID, playerID string) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		GameID:     gameID,
		PlayerID:   playerID,
		CreatedAt:  now,
		lastActive: now,
	}
}

func (s *Session) Touch() {
	s.mutex.Lock()
	s.lastActive = time.Now()
	s.mutex.Unlock()
}

func (s *Session) LastActive() time.Time {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.lastActive
}

func (s *Session) Send(msgID uint16, data []byte) error {
	s.Touch()
	return s.Conn.Send(msgID, data)
}

func (s *Session) GetID() string {
	return s.ID
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Session管理器
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

// All returns a snapshot of every session.
func (m *Manager) All() []*Session {
	return m.filter(func(*Session) bool { return true })
}

// GetByGame returns every session watching a game.
func (m *Manager) GetByGame(gameID string) []*Session {
	return m.filter(func(s *Session) bool { return s.GameID == gameID })
}

// GetByPlayer returns the sessions of one seat; a player may have several
// tabs open.
func (m *Manager) GetByPlayer(gameID, playerID string) []*Session {
	return m.filter(func(s *Session) bool {
		return s.GameID == gameID && s.PlayerID == playerID
	})
}

func (m *Manager) filter(keep func(*Session) bool) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Session
	for _, session := range m.sessions {
		if keep(session) {
			result = append(result, session)
		}
	}
	return result
}
