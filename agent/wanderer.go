package agent

import (
	"math/rand/v2"
	"slices"

	"github.com/wfunc/clueserver/game"
)

// Wanderer fills an unclaimed character. It walks towards a random room and
// ends its turn; it never suggests or accuses.
type Wanderer struct {
	target string
	rng    *rand.Rand
}

func NewWanderer(rng *rand.Rand) *Wanderer {
	return &Wanderer{rng: rng}
}

func (w *Wanderer) ObserveOwnCards(cards []string)                       {}
func (w *Wanderer) ObserveShownCard(card, shownBy string)                {}
func (w *Wanderer) ObserveSuggestionNoShow(suspect, weapon, room string) {}

func (w *Wanderer) DecideAction(st *game.State, me *game.PlayerState) game.Action {
	if !slices.Contains(me.AvailableActions, game.ActionMove) {
		return game.EndTurn{}
	}
	current := st.CurrentRoom[me.YourPlayerID]
	if w.target == "" || w.target == current {
		w.target = pick(w.rng, filter(game.Rooms, func(r string) bool { return r != current }))
	}
	return game.Move{Room: w.target}
}

// DecideShowCard is only reachable if a wanderer somehow holds cards.
func (w *Wanderer) DecideShowCard(matching []string, suggestingPlayerID string) string {
	if len(matching) == 0 {
		return ""
	}
	return matching[0]
}
