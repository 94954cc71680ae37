// models/models.go
package models

import (
	"time"
)

// GameRecord summarises one finished game.
type GameRecord struct {
	GameID       string              `json:"game_id"`
	Winner       string              `json:"winner"`
	WinnerName   string              `json:"winner_name"`
	Suspect      string              `json:"suspect"`
	Weapon       string              `json:"weapon"`
	Room         string              `json:"room"`
	Turns        int                 `json:"turns"`
	Participants []ParticipantRecord `json:"participants"`
	FinishedAt   time.Time           `json:"finished_at"`
}

// ParticipantRecord is one seat of a finished game.
type ParticipantRecord struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	PlayerType string `json:"player_type"`
	Character  string `json:"character"`
	Eliminated bool   `json:"eliminated"`
	Won        bool   `json:"won"`
}

// PlayerStats aggregates finished games by player name.
type PlayerStats struct {
	PlayerName string `json:"player_name"`
	TotalGames int    `json:"total_games"`
	Wins       int    `json:"wins"`
	Losses     int    `json:"losses"`
	Eliminated int    `json:"eliminated"`
}
