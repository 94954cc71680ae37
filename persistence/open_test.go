package persistence

import (
	"testing"

	"github.com/wfunc/clueserver/config"
)

func TestOpen(t *testing.T) {
	db, err := Open(config.StorageConfig{Driver: "memory"})
	if err != nil {
		t.Fatalf("Open(memory) failed: %v", err)
	}
	if _, ok := db.(*MemoryStore); !ok {
		t.Errorf("Expected *MemoryStore, got %T", db)
	}

	if _, err := Open(config.StorageConfig{Driver: "redis"}); err == nil {
		t.Error("Expected an error for an unknown driver")
	}
}
