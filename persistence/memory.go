// persistence/memory.go
package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/wfunc/clueserver/models"
)

type memValue struct {
	data    []byte
	expires *time.Time
}

type memList struct {
	items   [][]byte
	expires *time.Time
}

// MemoryStore keeps everything in process memory. Games survive for the
// life of the process, which is all a single session needs.
type MemoryStore struct {
	values  map[string]memValue
	lists   map[string]*memList
	records []models.GameRecord
	now     func() time.Time
	mutex   sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string]memValue),
		lists:  make(map[string]*memList),
		now:    time.Now,
	}
}

func (m *MemoryStore) expired(t *time.Time) bool {
	return t != nil && !m.now().Before(*t)
}

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	v, ok := m.values[key]
	if !ok || m.expired(v.expires) {
		return nil, ErrRecordNotFound
	}
	return append([]byte(nil), v.data...), nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.values[key] = memValue{
		data:    append([]byte(nil), value...),
		expires: expiry(m.now(), ttl),
	}
	return nil
}

func (m *MemoryStore) ListAppend(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	l, ok := m.lists[key]
	if !ok || m.expired(l.expires) {
		l = &memList{}
		m.lists[key] = l
	}
	l.items = append(l.items, append([]byte(nil), value...))
	l.expires = expiry(m.now(), ttl)
	return nil
}

func (m *MemoryStore) ListRange(ctx context.Context, key string) ([][]byte, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	l, ok := m.lists[key]
	if !ok || m.expired(l.expires) {
		return [][]byte{}, nil
	}
	out := make([][]byte, len(l.items))
	for i, item := range l.items {
		out[i] = append([]byte(nil), item...)
	}
	return out, nil
}

// Purge drops expired keys and lists.
func (m *MemoryStore) Purge() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	n := 0
	for k, v := range m.values {
		if m.expired(v.expires) {
			delete(m.values, k)
			n++
		}
	}
	for k, l := range m.lists {
		if m.expired(l.expires) {
			delete(m.lists, k)
			n++
		}
	}
	return n
}

func (m *MemoryStore) SaveGameRecord(ctx context.Context, record *models.GameRecord) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	rec := *record
	rec.Participants = append([]models.ParticipantRecord(nil), record.Participants...)
	m.records = append(m.records, rec)
	return nil
}

func (m *MemoryStore) GetPlayerStats(ctx context.Context, playerName string) (*models.PlayerStats, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	stats := &models.PlayerStats{PlayerName: playerName}
	for _, rec := range m.records {
		for _, p := range rec.Participants {
			if p.PlayerName != playerName {
				continue
			}
			stats.TotalGames++
			if p.Won {
				stats.Wins++
			} else {
				stats.Losses++
			}
			if p.Eliminated {
				stats.Eliminated++
			}
		}
	}
	if stats.TotalGames == 0 {
		return nil, ErrRecordNotFound
	}
	return stats, nil
}

func (m *MemoryStore) Close() error {
	return nil
}
