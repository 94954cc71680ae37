package game

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ActionType names an action on the wire.
type ActionType string

const (
	ActionMove     ActionType = "move"
	ActionSuggest  ActionType = "suggest"
	ActionAccuse   ActionType = "accuse"
	ActionShowCard ActionType = "show_card"
	ActionEndTurn  ActionType = "end_turn"
	ActionChat     ActionType = "chat"
)

// Action is one of Move, Suggest, Accuse, ShowCard, EndTurn or Chat.
type Action interface {
	Type() ActionType
}

// Move rolls the die and walks towards Room.
type Move struct {
	Room string
}

type Suggest struct {
	Suspect string
	Weapon  string
	Room    string
}

type Accuse struct {
	Suspect string
	Weapon  string
	Room    string
}

// ShowCard answers the pending disclosure.
type ShowCard struct {
	Card string
}

type EndTurn struct{}

type Chat struct {
	Text string
}

func (Move) Type() ActionType     { return ActionMove }
func (Suggest) Type() ActionType  { return ActionSuggest }
func (Accuse) Type() ActionType   { return ActionAccuse }
func (ShowCard) Type() ActionType { return ActionShowCard }
func (EndTurn) Type() ActionType  { return ActionEndTurn }
func (Chat) Type() ActionType     { return ActionChat }

// Payload is the flat JSON shape actions arrive in.
type Payload struct {
	Type    ActionType `json:"type"`
	Room    string     `json:"room,omitempty"`
	Suspect string     `json:"suspect,omitempty"`
	Weapon  string     `json:"weapon,omitempty"`
	Card    string     `json:"card,omitempty"`
	Text    string     `json:"text,omitempty"`
}

// Action converts the payload into its typed variant. Only the fields the
// variant needs are carried over.
func (p Payload) Action() (Action, error) {
	switch p.Type {
	case ActionMove:
		return Move{Room: p.Room}, nil
	case ActionSuggest:
		return Suggest{Suspect: p.Suspect, Weapon: p.Weapon, Room: p.Room}, nil
	case ActionAccuse:
		return Accuse{Suspect: p.Suspect, Weapon: p.Weapon, Room: p.Room}, nil
	case ActionShowCard:
		return ShowCard{Card: p.Card}, nil
	case ActionEndTurn:
		return EndTurn{}, nil
	case ActionChat:
		if strings.TrimSpace(p.Text) == "" {
			return nil, fmt.Errorf("%w: empty chat message", ErrInvalidAction)
		}
		return Chat{Text: p.Text}, nil
	default:
		return nil, fmt.Errorf("%w: unknown action type %q", ErrInvalidAction, p.Type)
	}
}

// PayloadOf is the inverse of Payload.Action.
func PayloadOf(a Action) Payload {
	switch a := a.(type) {
	case Move:
		return Payload{Type: ActionMove, Room: a.Room}
	case Suggest:
		return Payload{Type: ActionSuggest, Suspect: a.Suspect, Weapon: a.Weapon, Room: a.Room}
	case Accuse:
		return Payload{Type: ActionAccuse, Suspect: a.Suspect, Weapon: a.Weapon, Room: a.Room}
	case ShowCard:
		return Payload{Type: ActionShowCard, Card: a.Card}
	case Chat:
		return Payload{Type: ActionChat, Text: a.Text}
	default:
		return Payload{Type: a.Type()}
	}
}

// ParseAction decodes a JSON action.
func ParseAction(data []byte) (Action, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAction, err)
	}
	return p.Action()
}
