package game

import (
	"slices"

	"github.com/wfunc/clueserver/board"
	"github.com/wfunc/clueserver/state"
)

// PlayerType says who drives a seat.
type PlayerType string

const (
	Human PlayerType = "human"
	Agent PlayerType = "agent"
	// Wanderer seats fill unclaimed characters. They hold no cards and only
	// move or end their turn.
	Wanderer PlayerType = "wanderer"
)

func (t PlayerType) Valid() bool {
	return t == Human || t == Agent || t == Wanderer
}

type Player struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Type      PlayerType `json:"type"`
	Character string     `json:"character"`
	Active    bool       `json:"active"`
}

// Suggestion is one suggestion made during the current turn. ShownBy is empty
// when nobody could refute it.
type Suggestion struct {
	SuggestingPlayerID string `json:"suggesting_player_id"`
	Suspect            string `json:"suspect"`
	Weapon             string `json:"weapon"`
	Room               string `json:"room"`
	ShownBy            string `json:"shown_by,omitempty"`
}

// PendingShowCard records who owes the suggester a card. MatchingCards is
// private to the owing player and is stripped from public views.
type PendingShowCard struct {
	PlayerID           string   `json:"player_id"`
	SuggestingPlayerID string   `json:"suggesting_player_id"`
	Suspect            string   `json:"suspect"`
	Weapon             string   `json:"weapon"`
	Room               string   `json:"room"`
	MatchingCards      []string `json:"matching_cards,omitempty"`
}

// State is the public, persisted view of one game.
type State struct {
	GameID              string                 `json:"game_id"`
	Status              state.Status           `json:"status"`
	Players             []Player               `json:"players"`
	WhoseTurn           string                 `json:"whose_turn,omitempty"`
	TurnNumber          int                    `json:"turn_number"`
	CurrentRoom         map[string]string      `json:"current_room"`
	PlayerPositions     map[string]board.Point `json:"player_positions"`
	SuggestionsThisTurn []Suggestion           `json:"suggestions_this_turn"`
	Winner              string                 `json:"winner,omitempty"`
	DiceRolled          bool                   `json:"dice_rolled"`
	LastRoll            int                    `json:"last_roll,omitempty"`
	PendingShowCard     *PendingShowCard       `json:"pending_show_card"`
}

// Player returns the seat with the given id.
func (s *State) Player(id string) (*Player, bool) {
	i := s.seat(id)
	if i < 0 {
		return nil, false
	}
	return &s.Players[i], true
}

func (s *State) seat(id string) int {
	return slices.IndexFunc(s.Players, func(p Player) bool { return p.ID == id })
}

// ActivePlayers returns the players still in the game, wanderers included.
func (s *State) ActivePlayers() []Player {
	var out []Player
	for _, p := range s.Players {
		if p.Active {
			out = append(out, p)
		}
	}
	return out
}

// Contenders are the active players who can still win.
func (s *State) Contenders() []Player {
	var out []Player
	for _, p := range s.Players {
		if p.Active && p.Type != Wanderer {
			out = append(out, p)
		}
	}
	return out
}

// PlayerState is a game as one player sees it.
type PlayerState struct {
	State
	YourPlayerID     string       `json:"your_player_id"`
	YourCards        []string     `json:"your_cards"`
	AvailableActions []ActionType `json:"available_actions"`
}

// Result describes what an accepted action did. Fields not touched by the
// action are left empty.
type Result struct {
	Type     ActionType `json:"type"`
	PlayerID string     `json:"player_id"`

	Dice     int          `json:"dice,omitempty"`
	Reached  bool         `json:"reached,omitempty"`
	Room     string       `json:"room,omitempty"`
	Position *board.Point `json:"position,omitempty"`

	Suspect            string `json:"suspect,omitempty"`
	Weapon             string `json:"weapon,omitempty"`
	PendingShowBy      string `json:"pending_show_by,omitempty"`
	MovedSuspectPlayer string `json:"moved_suspect_player,omitempty"`

	Card               string `json:"card,omitempty"`
	SuggestingPlayerID string `json:"suggesting_player_id,omitempty"`

	Correct  bool      `json:"correct,omitempty"`
	Winner   string    `json:"winner,omitempty"`
	Solution *Solution `json:"solution,omitempty"`
	GameOver bool      `json:"game_over,omitempty"`

	NextPlayerID string `json:"next_player_id,omitempty"`
	Text         string `json:"text,omitempty"`
}

// LogEntry is one line of the append-only action log.
type LogEntry struct {
	Type         string       `json:"type"`
	PlayerID     string       `json:"player_id,omitempty"`
	Dice         int          `json:"dice,omitempty"`
	Room         string       `json:"room,omitempty"`
	Position     *board.Point `json:"position,omitempty"`
	Suspect      string       `json:"suspect,omitempty"`
	Weapon       string       `json:"weapon,omitempty"`
	ShownBy      string       `json:"shown_by,omitempty"`
	ShownTo      string       `json:"shown_to,omitempty"`
	Correct      *bool        `json:"correct,omitempty"`
	NextPlayerID string       `json:"next_player_id,omitempty"`
	Winner       string       `json:"winner,omitempty"`
	Timestamp    string       `json:"timestamp"`
}

type ChatMessage struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Text       string `json:"text"`
	Timestamp  string `json:"timestamp"`
}

// AvailableActions derives what playerID may do right now.
func AvailableActions(s *State, playerID string) []ActionType {
	chatOnly := []ActionType{ActionChat}
	if s.Status != state.Playing {
		return chatOnly
	}
	if s.PendingShowCard != nil {
		if s.PendingShowCard.PlayerID == playerID {
			return []ActionType{ActionShowCard, ActionChat}
		}
		return chatOnly
	}
	if s.WhoseTurn != playerID {
		return chatOnly
	}
	p, ok := s.Player(playerID)
	if !ok || !p.Active {
		return chatOnly
	}

	var actions []ActionType
	if !s.DiceRolled {
		actions = append(actions, ActionMove)
	}
	if p.Type == Wanderer {
		return append(actions, ActionEndTurn, ActionChat)
	}
	if _, inRoom := s.CurrentRoom[playerID]; inRoom && len(s.SuggestionsThisTurn) == 0 {
		actions = append(actions, ActionSuggest)
	}
	return append(actions, ActionAccuse, ActionEndTurn, ActionChat)
}
