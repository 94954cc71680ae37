package game

import (
	"context"
	"fmt"
	"slices"

	"github.com/wfunc/clueserver/board"
	"github.com/wfunc/clueserver/logger"
	"github.com/wfunc/clueserver/state"
)

// ProcessAction applies one action for playerID. Every handler validates
// before it mutates, so a rejected action leaves the stored game unchanged.
func (e *Engine) ProcessAction(ctx context.Context, gameID, playerID string, action Action) (*Result, error) {
	if chat, ok := action.(Chat); ok {
		msg, err := e.AddChat(ctx, gameID, playerID, chat.Text)
		if err != nil {
			return nil, err
		}
		return &Result{Type: ActionChat, PlayerID: playerID, Text: msg.Text}, nil
	}

	st, err := e.load(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if st.Status != state.Playing {
		return nil, fmt.Errorf("%w: game is %s", ErrInvalidPhase, st.Status)
	}
	if _, ok := st.Player(playerID); !ok {
		return nil, fmt.Errorf("%w: player %s", ErrNotFound, playerID)
	}
	if !slices.Contains(AvailableActions(st, playerID), action.Type()) {
		err := fmt.Errorf("%w: %s", ErrActionUnavailable, action.Type())
		logger.Log.Warnw("action rejected", "game_id", gameID, "player_id", playerID, "action", action.Type(), "error", err)
		return nil, err
	}

	result := &Result{Type: action.Type(), PlayerID: playerID}
	var entries []LogEntry
	switch a := action.(type) {
	case Move:
		entries, err = e.handleMove(st, playerID, a, result)
	case Suggest:
		entries, err = e.handleSuggest(ctx, st, playerID, a, result)
	case ShowCard:
		entries, err = e.handleShowCard(st, playerID, a, result)
	case Accuse:
		entries, err = e.handleAccuse(ctx, st, playerID, a, result)
	case EndTurn:
		entries, err = e.handleEndTurn(st, playerID, result)
	default:
		err = fmt.Errorf("%w: %T", ErrInvalidAction, action)
	}
	if err != nil {
		logger.Log.Warnw("action rejected", "game_id", gameID, "player_id", playerID, "action", action.Type(), "error", err)
		return nil, err
	}

	if err := e.save(ctx, st); err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if err := e.appendLog(ctx, gameID, entry); err != nil {
			return nil, err
		}
	}
	logger.Log.Infow("action processed", "game_id", gameID, "player_id", playerID, "action", action.Type(), "turn", st.TurnNumber)
	return result, nil
}

// node returns the graph square a player currently stands on.
func (e *Engine) node(st *State, playerID string) (int, error) {
	if name, ok := st.CurrentRoom[playerID]; ok {
		r, ok := board.ParseRoom(name)
		if !ok {
			return 0, fmt.Errorf("corrupt room %q for player %s", name, playerID)
		}
		return e.graph.RoomNode(r), nil
	}
	pos := st.PlayerPositions[playerID]
	id, ok := e.graph.At(pos.Row, pos.Col)
	if !ok {
		return 0, fmt.Errorf("player %s is off the board at %v", playerID, pos)
	}
	return id, nil
}

func (e *Engine) place(st *State, playerID string, room board.RoomID) {
	st.CurrentRoom[playerID] = room.String()
	st.PlayerPositions[playerID] = e.graph.RoomCenter(room)
}

func (e *Engine) handleMove(st *State, playerID string, a Move, result *Result) ([]LogEntry, error) {
	target, ok := board.ParseRoom(a.Room)
	if !ok {
		return nil, fmt.Errorf("%w: room %q", ErrInvalidCard, a.Room)
	}
	start, err := e.node(st, playerID)
	if err != nil {
		return nil, err
	}

	dice := e.dice()
	dest, reached := e.graph.MoveTowards(start, target, dice)
	sq := e.graph.Square(dest)
	if sq.Type == board.RoomSquare {
		// Passing the target by can still leave the piece inside another room.
		e.place(st, playerID, sq.Room)
		result.Room = sq.Room.String()
	} else {
		delete(st.CurrentRoom, playerID)
		st.PlayerPositions[playerID] = sq.At
	}
	pos := st.PlayerPositions[playerID]

	st.DiceRolled = true
	st.LastRoll = dice
	result.Dice = dice
	result.Reached = reached
	result.Position = &pos

	return []LogEntry{{
		Type:     "move",
		PlayerID: playerID,
		Dice:     dice,
		Room:     result.Room,
		Position: &pos,
	}}, nil
}

// disclosureOrder lists the other active players, starting with the seat
// after the suggester and wrapping around.
func disclosureOrder(st *State, playerID string) []Player {
	idx := st.seat(playerID)
	var order []Player
	for i := 1; i < len(st.Players); i++ {
		p := st.Players[(idx+i)%len(st.Players)]
		if p.Active {
			order = append(order, p)
		}
	}
	return order
}

func (e *Engine) handleSuggest(ctx context.Context, st *State, playerID string, a Suggest, result *Result) ([]LogEntry, error) {
	if err := validateTriple(a.Suspect, a.Weapon, a.Room); err != nil {
		return nil, err
	}
	if st.CurrentRoom[playerID] != a.Room {
		return nil, fmt.Errorf("%w: must suggest the room you are in, not %q", ErrInvalidCard, a.Room)
	}
	room, _ := board.ParseRoom(a.Room)

	var pending *PendingShowCard
	for _, other := range disclosureOrder(st, playerID) {
		cards, err := e.loadHand(ctx, st.GameID, other)
		if err != nil {
			return nil, err
		}
		var matching []string
		for _, c := range cards {
			if c == a.Suspect || c == a.Weapon || c == a.Room {
				matching = append(matching, c)
			}
		}
		if len(matching) > 0 {
			pending = &PendingShowCard{
				PlayerID:           other.ID,
				SuggestingPlayerID: playerID,
				Suspect:            a.Suspect,
				Weapon:             a.Weapon,
				Room:               a.Room,
				MatchingCards:      matching,
			}
			break
		}
	}

	for _, p := range st.Players {
		if p.Character == a.Suspect && p.ID != playerID {
			e.place(st, p.ID, room)
			result.MovedSuspectPlayer = p.ID
			break
		}
	}

	suggestion := Suggestion{
		SuggestingPlayerID: playerID,
		Suspect:            a.Suspect,
		Weapon:             a.Weapon,
		Room:               a.Room,
	}
	if pending != nil {
		suggestion.ShownBy = pending.PlayerID
		result.PendingShowBy = pending.PlayerID
	}
	st.SuggestionsThisTurn = append(st.SuggestionsThisTurn, suggestion)
	st.PendingShowCard = pending

	result.Suspect = a.Suspect
	result.Weapon = a.Weapon
	result.Room = a.Room

	return []LogEntry{{
		Type:     "suggestion",
		PlayerID: playerID,
		Suspect:  a.Suspect,
		Weapon:   a.Weapon,
		Room:     a.Room,
		ShownBy:  suggestion.ShownBy,
	}}, nil
}

func (e *Engine) handleShowCard(st *State, playerID string, a ShowCard, result *Result) ([]LogEntry, error) {
	pending := st.PendingShowCard
	if pending == nil {
		return nil, fmt.Errorf("%w: no card is owed", ErrNotFound)
	}
	if pending.PlayerID != playerID {
		return nil, fmt.Errorf("%w: %s owes the card", ErrActionUnavailable, pending.PlayerID)
	}
	if !slices.Contains(pending.MatchingCards, a.Card) {
		return nil, fmt.Errorf("%w: %q does not match the suggestion", ErrInvalidCard, a.Card)
	}

	st.PendingShowCard = nil
	result.Card = a.Card
	result.SuggestingPlayerID = pending.SuggestingPlayerID

	return []LogEntry{{
		Type:     "show_card",
		PlayerID: playerID,
		ShownTo:  pending.SuggestingPlayerID,
	}}, nil
}

func (e *Engine) handleAccuse(ctx context.Context, st *State, playerID string, a Accuse, result *Result) ([]LogEntry, error) {
	if err := validateTriple(a.Suspect, a.Weapon, a.Room); err != nil {
		return nil, err
	}
	sol, err := e.loadSolution(ctx, st.GameID)
	if err != nil {
		return nil, err
	}

	correct := sol.Matches(a.Suspect, a.Weapon, a.Room)
	result.Suspect = a.Suspect
	result.Weapon = a.Weapon
	result.Room = a.Room
	result.Correct = correct

	entries := []LogEntry{{
		Type:     "accusation",
		PlayerID: playerID,
		Suspect:  a.Suspect,
		Weapon:   a.Weapon,
		Room:     a.Room,
		Correct:  &correct,
	}}

	winner := ""
	if correct {
		winner = playerID
	} else {
		p, _ := st.Player(playerID)
		p.Active = false
		if left := st.Contenders(); len(left) == 1 {
			winner = left[0].ID
		}
	}

	if winner == "" {
		// The eliminated player can no longer act, so the turn moves on.
		next := e.advanceTurn(st)
		result.NextPlayerID = next
		logger.Log.Infow("player eliminated", "game_id", st.GameID, "player_id", playerID, "next", next)
		return append(entries, LogEntry{Type: "end_turn", PlayerID: playerID, NextPlayerID: next}), nil
	}

	finished, err := e.lifecycle.Transition(st.Status, state.Finished)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPhase, err)
	}
	st.Status = finished
	st.Winner = winner
	result.Winner = winner
	result.Solution = &sol
	result.GameOver = true
	logger.Log.Infow("game over", "game_id", st.GameID, "winner", winner, "correct", correct)

	return append(entries, LogEntry{Type: "game_over", Winner: winner}), nil
}

func (e *Engine) handleEndTurn(st *State, playerID string, result *Result) ([]LogEntry, error) {
	if st.PendingShowCard != nil {
		return nil, fmt.Errorf("%w: a card must be shown first", ErrActionUnavailable)
	}
	next := e.advanceTurn(st)
	result.NextPlayerID = next
	return []LogEntry{{
		Type:         "end_turn",
		PlayerID:     playerID,
		NextPlayerID: next,
	}}, nil
}

// advanceTurn hands the turn to the next active seat. Wanderers keep their
// turns; only eliminated players are skipped.
func (e *Engine) advanceTurn(st *State) string {
	idx := st.seat(st.WhoseTurn)
	for i := 1; i <= len(st.Players); i++ {
		p := st.Players[(idx+i)%len(st.Players)]
		if p.Active {
			st.WhoseTurn = p.ID
			break
		}
	}
	st.TurnNumber++
	st.DiceRolled = false
	st.LastRoll = 0
	st.SuggestionsThisTurn = []Suggestion{}
	return st.WhoseTurn
}

func validateTriple(suspect, weapon, room string) error {
	if !IsSuspect(suspect) {
		return fmt.Errorf("%w: suspect %q", ErrInvalidCard, suspect)
	}
	if !IsWeapon(weapon) {
		return fmt.Errorf("%w: weapon %q", ErrInvalidCard, weapon)
	}
	if !IsRoom(room) {
		return fmt.Errorf("%w: room %q", ErrInvalidCard, room)
	}
	return nil
}
