package room

import (
	"context"
	"sync"
	"time"

	"github.com/wfunc/clueserver/game"
	"github.com/wfunc/clueserver/logger"
	"github.com/wfunc/clueserver/timer"
)

// Manager owns the live rooms, one per game.
type Manager struct {
	rooms       map[string]*Room
	mutex       sync.RWMutex
	engine      *game.Engine
	broadcaster Broadcaster
	settings    settings
	timers      *timer.TimerManager
}

func NewRoomManager(engine *game.Engine, broadcaster Broadcaster, opts ...Option) *Manager {
	return &Manager{
		rooms:       make(map[string]*Room),
		engine:      engine,
		broadcaster: broadcaster,
		settings:    newSettings(opts),
	}
}

func (m *Manager) Engine() *game.Engine {
	return m.engine
}

// CreateGame creates a new game and its room.
func (m *Manager) CreateGame(ctx context.Context) (*Room, *game.State, error) {
	st, err := m.engine.Create(ctx)
	if err != nil {
		return nil, nil, err
	}

	m.mutex.Lock()
	room := m.newRoom(st.GameID)
	m.rooms[st.GameID] = room
	count := len(m.rooms)
	m.mutex.Unlock()

	m.settings.monitor.SetActiveGames(count)
	logger.Log.Infow("game created", "game_id", st.GameID)
	return room, st, nil
}

func (m *Manager) newRoom(id string) *Room {
	s := m.settings
	s.seed ^= uint64(time.Now().UnixNano())
	return newRoom(id, m.engine, m.broadcaster, s)
}

// GetRoom returns a live room without touching storage.
func (m *Manager) GetRoom(id string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	room, exists := m.rooms[id]
	return room, exists
}

// Room returns the room for a stored game, starting one if the game has no
// live room yet. Unknown games fail with game.ErrNotFound. A room that is
// shutting down is waited out so two loops never drive the same game.
func (m *Manager) Room(ctx context.Context, id string) (*Room, error) {
	if room, ok := m.GetRoom(id); ok && !room.closing() {
		return room, nil
	}
	if _, err := m.engine.GetState(ctx, id); err != nil {
		return nil, err
	}

	for {
		m.mutex.Lock()
		room, exists := m.rooms[id]
		if exists && room.closing() {
			m.mutex.Unlock()
			select {
			case <-room.Done():
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			m.mutex.Lock()
			if m.rooms[id] == room {
				delete(m.rooms, id)
			}
			m.mutex.Unlock()
			continue
		}
		if !exists {
			room = m.newRoom(id)
			m.rooms[id] = room
		}
		count := len(m.rooms)
		m.mutex.Unlock()

		m.settings.monitor.SetActiveGames(count)
		return room, nil
	}
}

// RemoveRoom closes a room, waits for its loop to exit and forgets it. The
// stored game is kept.
func (m *Manager) RemoveRoom(id string) {
	room, exists := m.GetRoom(id)
	if !exists {
		return
	}
	room.Close()
	<-room.Done()

	m.mutex.Lock()
	if m.rooms[id] == room {
		delete(m.rooms, id)
	}
	count := len(m.rooms)
	m.mutex.Unlock()

	m.settings.monitor.SetActiveGames(count)
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}

// Sweep drops finished rooms and rooms idle for longer than the idle TTL.
// It returns how many were dropped.
func (m *Manager) Sweep() int {
	now := time.Now()
	m.mutex.RLock()
	var stale []string
	for id, room := range m.rooms {
		if room.Finished() || now.Sub(room.LastActive()) > m.settings.idleTTL {
			stale = append(stale, id)
		}
	}
	m.mutex.RUnlock()

	for _, id := range stale {
		m.RemoveRoom(id)
	}
	if len(stale) > 0 {
		logger.Log.Infow("rooms swept", "count", len(stale))
	}
	return len(stale)
}

// StartSweeper runs Sweep every interval until Close.
func (m *Manager) StartSweeper(interval time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.timers != nil {
		return
	}
	m.timers = timer.NewTimerManager()
	m.timers.AddTimer(interval, interval, func() { m.Sweep() })
}

// Close stops the sweeper and every room.
func (m *Manager) Close() {
	m.mutex.Lock()
	rooms := m.rooms
	m.rooms = make(map[string]*Room)
	timers := m.timers
	m.timers = nil
	m.mutex.Unlock()

	if timers != nil {
		timers.Stop()
	}
	for _, room := range rooms {
		room.Close()
	}
	for _, room := range rooms {
		<-room.Done()
	}
	m.settings.monitor.SetActiveGames(0)
}
