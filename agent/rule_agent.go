package agent

import (
	"math/rand/v2"
	"slices"

	"github.com/wfunc/clueserver/game"
	"github.com/wfunc/clueserver/logger"
	"github.com/zyedidia/generic/mapset"
)

// RuleAgent plays by elimination. Every card it holds or is shown cannot be
// in the solution; it accuses once each category is down to one card.
type RuleAgent struct {
	seen        mapset.Set[string]
	shownTo     map[string]mapset.Set[string]
	suggestedIn mapset.Set[string]
	unrefuted   []game.Solution
	rng         *rand.Rand
}

func NewRuleAgent(rng *rand.Rand) *RuleAgent {
	return &RuleAgent{
		seen:        mapset.New[string](),
		shownTo:     make(map[string]mapset.Set[string]),
		suggestedIn: mapset.New[string](),
		rng:         rng,
	}
}

func (a *RuleAgent) ObserveOwnCards(cards []string) {
	for _, c := range cards {
		a.seen.Put(c)
	}
}

func (a *RuleAgent) ObserveShownCard(card, shownBy string) {
	a.seen.Put(card)
	logger.Log.Debugw("card shown to agent", "card", card, "shown_by", shownBy, "seen", a.seen.Size())
}

func (a *RuleAgent) ObserveSuggestionNoShow(suspect, weapon, room string) {
	a.unrefuted = append(a.unrefuted, game.Solution{Suspect: suspect, Weapon: weapon, Room: room})
}

// Unrefuted lists the agent's own suggestions nobody could answer.
func (a *RuleAgent) Unrefuted() []game.Solution {
	return a.unrefuted
}

// Unknown returns the cards of a category the agent has not ruled out.
func (a *RuleAgent) Unknown(category []string) []string {
	var out []string
	for _, c := range category {
		if !a.seen.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

func (a *RuleAgent) DecideAction(st *game.State, me *game.PlayerState) game.Action {
	a.ObserveOwnCards(me.YourCards)
	available := me.AvailableActions
	can := func(t game.ActionType) bool { return slices.Contains(available, t) }

	suspects := a.Unknown(game.Suspects)
	weapons := a.Unknown(game.Weapons)
	rooms := a.Unknown(game.Rooms)

	if len(suspects) == 1 && len(weapons) == 1 && len(rooms) == 1 && can(game.ActionAccuse) {
		return game.Accuse{Suspect: suspects[0], Weapon: weapons[0], Room: rooms[0]}
	}

	current := st.CurrentRoom[me.YourPlayerID]
	if !st.DiceRolled && can(game.ActionMove) {
		return game.Move{Room: a.targetRoom(rooms, current)}
	}
	if current != "" && can(game.ActionSuggest) {
		a.suggestedIn.Put(current)
		return game.Suggest{
			Suspect: a.unknownOrAny(suspects, game.Suspects),
			Weapon:  a.unknownOrAny(weapons, game.Weapons),
			Room:    current,
		}
	}
	return game.EndTurn{}
}

// targetRoom prefers unknown rooms not yet suggested in, then any unknown
// room, then rooms not yet suggested in, then anything but the current room.
func (a *RuleAgent) targetRoom(unknown []string, current string) string {
	tiers := [][]string{
		filter(unknown, func(r string) bool { return r != current && !a.suggestedIn.Has(r) }),
		filter(unknown, func(r string) bool { return r != current }),
		filter(game.Rooms, func(r string) bool { return r != current && !a.suggestedIn.Has(r) }),
		filter(game.Rooms, func(r string) bool { return r != current }),
	}
	for _, tier := range tiers {
		if len(tier) > 0 {
			return pick(a.rng, tier)
		}
	}
	return pick(a.rng, game.Rooms)
}

func (a *RuleAgent) unknownOrAny(unknown, all []string) string {
	if len(unknown) > 0 {
		return pick(a.rng, unknown)
	}
	return pick(a.rng, all)
}

// DecideShowCard re-shows a card the suggester has already seen when it can,
// so they learn nothing new.
func (a *RuleAgent) DecideShowCard(matching []string, suggestingPlayerID string) string {
	known, ok := a.shownTo[suggestingPlayerID]
	if !ok {
		known = mapset.New[string]()
		a.shownTo[suggestingPlayerID] = known
	}
	for _, c := range matching {
		if known.Has(c) {
			return c
		}
	}
	card := pick(a.rng, matching)
	known.Put(card)
	return card
}

func filter(items []string, keep func(string) bool) []string {
	var out []string
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}
