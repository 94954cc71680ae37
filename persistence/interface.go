// persistence/interface.go
package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/wfunc/clueserver/models"
)

// Store is the keyed blob storage the game engine runs on. A ttl <= 0 means
// the value never expires. Every call is atomic per key; nothing here
// serialises read-modify-write cycles for callers.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// ListAppend appends to the list at key and refreshes the list's expiry.
	ListAppend(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// ListRange returns the whole list in append order; a missing list is empty.
	ListRange(ctx context.Context, key string) ([][]byte, error)
	Close() error
}

// RecordStore keeps finished-game history.
type RecordStore interface {
	SaveGameRecord(ctx context.Context, record *models.GameRecord) error
	GetPlayerStats(ctx context.Context, playerName string) (*models.PlayerStats, error)
}

// Database is implemented by every backend.
type Database interface {
	Store
	RecordStore
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)

func expiry(now time.Time, ttl time.Duration) *time.Time {
	if ttl <= 0 {
		return nil
	}
	t := now.Add(ttl)
	return &t
}

var (
	_ Database = (*MemoryStore)(nil)
	_ Database = (*PostgreSQL)(nil)
	_ Database = (*GormPostgreSQL)(nil)
)
