package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wfunc/clueserver/models"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore() (*MemoryStore, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	store := NewMemoryStore()
	store.now = clock.now
	return store, clock
}

func TestMemoryStore_GetSet(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("Expected ErrRecordNotFound, got %v", err)
	}

	value := []byte("hello")
	if err := store.Set(ctx, "k", value, 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	value[0] = 'j'

	got, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("Expected stored value to be isolated from caller, got %q", got)
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	store, clock := newTestStore()
	ctx := context.Background()

	store.Set(ctx, "k", []byte("v"), time.Minute)
	store.ListAppend(ctx, "l", []byte("a"), time.Minute)

	clock.advance(30 * time.Second)
	if _, err := store.Get(ctx, "k"); err != nil {
		t.Fatalf("Expected key to be live before its ttl, got %v", err)
	}

	clock.advance(31 * time.Second)
	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("Expected expired key to be gone, got %v", err)
	}
	items, _ := store.ListRange(ctx, "l")
	if len(items) != 0 {
		t.Errorf("Expected expired list to be empty, got %d items", len(items))
	}

	if n := store.Purge(); n != 2 {
		t.Errorf("Expected Purge to drop 2 entries, got %d", n)
	}
}

func TestMemoryStore_ListAppendRefreshesExpiry(t *testing.T) {
	store, clock := newTestStore()
	ctx := context.Background()

	store.ListAppend(ctx, "l", []byte("a"), time.Minute)
	clock.advance(50 * time.Second)
	store.ListAppend(ctx, "l", []byte("b"), time.Minute)
	clock.advance(50 * time.Second)

	items, err := store.ListRange(ctx, "l")
	if err != nil {
		t.Fatalf("ListRange failed: %v", err)
	}
	if len(items) != 2 || string(items[0]) != "a" || string(items[1]) != "b" {
		t.Errorf("Expected [a b] in append order, got %q", items)
	}
}

func TestMemoryStore_MissingListIsEmpty(t *testing.T) {
	store, _ := newTestStore()

	items, err := store.ListRange(context.Background(), "nothing")
	if err != nil {
		t.Fatalf("Expected no error for a missing list, got %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Errorf("Expected an empty non-nil list, got %v", items)
	}
}

func TestMemoryStore_PlayerStats(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	if _, err := store.GetPlayerStats(ctx, "alice"); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("Expected ErrRecordNotFound for an unknown player, got %v", err)
	}

	records := []models.GameRecord{
		{GameID: "g1", Participants: []models.ParticipantRecord{
			{PlayerName: "alice", Won: true},
			{PlayerName: "bob", Eliminated: true},
		}},
		{GameID: "g2", Participants: []models.ParticipantRecord{
			{PlayerName: "alice", Eliminated: true},
			{PlayerName: "bob", Won: true},
		}},
	}
	for i := range records {
		if err := store.SaveGameRecord(ctx, &records[i]); err != nil {
			t.Fatalf("SaveGameRecord failed: %v", err)
		}
	}

	stats, err := store.GetPlayerStats(ctx, "alice")
	if err != nil {
		t.Fatalf("GetPlayerStats failed: %v", err)
	}
	if stats.TotalGames != 2 || stats.Wins != 1 || stats.Losses != 1 || stats.Eliminated != 1 {
		t.Errorf("Unexpected stats for alice: %+v", stats)
	}
}
