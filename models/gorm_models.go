// models/gorm_models.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// KVEntry backs the keyed blob store.
type KVEntry struct {
	Key       string     `gorm:"primaryKey;size:255"`
	Value     []byte     `gorm:"not null"`
	ExpiresAt *time.Time `gorm:"index"`
	UpdatedAt time.Time
}

func (KVEntry) TableName() string { return "kv_entries" }

// ListItem is one element of an append-only list; ID gives the order.
type ListItem struct {
	ID        uint       `gorm:"primaryKey"`
	Key       string     `gorm:"index;size:255;not null"`
	Value     []byte     `gorm:"not null"`
	ExpiresAt *time.Time `gorm:"index"`
	CreatedAt time.Time
}

func (ListItem) TableName() string { return "list_items" }

// GormGameRecord 游戏记录模型
type GormGameRecord struct {
	gorm.Model
	GameID       string `gorm:"uniqueIndex;not null"`
	Winner       string `gorm:"not null"`
	WinnerName   string
	Suspect      string `gorm:"not null"`
	Weapon       string `gorm:"not null"`
	Room         string `gorm:"not null"`
	Turns        int    `gorm:"default:0"`
	FinishedAt   time.Time
	Participants []GormParticipant `gorm:"foreignKey:GameRecordID"`
}

func (GormGameRecord) TableName() string { return "game_records" }

// GormParticipant 玩家参与记录
type GormParticipant struct {
	ID           uint   `gorm:"primaryKey"`
	GameRecordID uint   `gorm:"index;not null"`
	PlayerID     string `gorm:"not null"`
	PlayerName   string `gorm:"index;not null"`
	PlayerType   string `gorm:"not null"`
	Character    string `gorm:"column:character_name;not null"`
	Eliminated   bool
	Won          bool
}

func (GormParticipant) TableName() string { return "game_participants" }
