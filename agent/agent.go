// Package agent holds the automated players a room drives on behalf of seats
// that have no human behind them.
package agent

import (
	"math/rand/v2"

	"github.com/wfunc/clueserver/game"
)

// Player is what the room driver needs from an automated seat. The driver
// reports what the seat learns and asks it for decisions; the engine never
// calls a Player directly.
type Player interface {
	ObserveOwnCards(cards []string)
	ObserveShownCard(card, shownBy string)
	ObserveSuggestionNoShow(suspect, weapon, room string)
	DecideAction(st *game.State, me *game.PlayerState) game.Action
	DecideShowCard(matching []string, suggestingPlayerID string) string
}

// New returns the automated player for a seat type, or nil for humans.
func New(typ game.PlayerType, rng *rand.Rand) Player {
	switch typ {
	case game.Agent:
		return NewRuleAgent(rng)
	case game.Wanderer:
		return NewWanderer(rng)
	default:
		return nil
	}
}

func pick[T any](rng *rand.Rand, items []T) T {
	return items[rng.IntN(len(items))]
}
