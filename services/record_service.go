package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wfunc/clueserver/game"
	"github.com/wfunc/clueserver/logger"
	"github.com/wfunc/clueserver/models"
	"github.com/wfunc/clueserver/persistence"
)

// ErrUnfinishedGame is returned when asked to record a game without a winner.
var ErrUnfinishedGame = errors.New("game has no winner")

// RecordService turns finished games into history rows and answers
// per-player statistics.
type RecordService struct {
	db  persistence.RecordStore
	now func() time.Time
}

func NewRecordService(db persistence.RecordStore) *RecordService {
	return &RecordService{db: db, now: time.Now}
}

// BuildRecord summarises a finished game. Wanderers are left out of the
// participant list.
func BuildRecord(st *game.State, sol *game.Solution, finishedAt time.Time) (*models.GameRecord, error) {
	if st.Winner == "" || sol == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnfinishedGame, st.GameID)
	}
	record := &models.GameRecord{
		GameID:     st.GameID,
		Winner:     st.Winner,
		Suspect:    sol.Suspect,
		Weapon:     sol.Weapon,
		Room:       sol.Room,
		Turns:      st.TurnNumber,
		FinishedAt: finishedAt.UTC(),
	}
	for _, p := range st.Players {
		if p.Type == game.Wanderer {
			continue
		}
		won := p.ID == st.Winner
		if won {
			record.WinnerName = p.Name
		}
		record.Participants = append(record.Participants, models.ParticipantRecord{
			PlayerID:   p.ID,
			PlayerName: p.Name,
			PlayerType: string(p.Type),
			Character:  p.Character,
			Eliminated: !p.Active,
			Won:        won,
		})
	}
	return record, nil
}

// RecordGame stores a finished game.
func (s *RecordService) RecordGame(ctx context.Context, st *game.State, sol *game.Solution) error {
	record, err := BuildRecord(st, sol, s.now())
	if err != nil {
		return err
	}
	if err := s.db.SaveGameRecord(ctx, record); err != nil {
		return fmt.Errorf("save game record %s: %w", st.GameID, err)
	}
	logger.Log.Infow("game recorded", "game_id", st.GameID, "winner", record.WinnerName, "turns", record.Turns)
	return nil
}

// GetPlayerStats returns the totals for a player name.
func (s *RecordService) GetPlayerStats(ctx context.Context, playerName string) (*models.PlayerStats, error) {
	playerName = strings.TrimSpace(playerName)
	if playerName == "" {
		return nil, fmt.Errorf("%w: empty player name", game.ErrInvalidAction)
	}
	stats, err := s.db.GetPlayerStats(ctx, playerName)
	if errors.Is(err, persistence.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: no games for %s", game.ErrNotFound, playerName)
	}
	return stats, err
}
