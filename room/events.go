package room

import (
	"encoding/json"

	"github.com/wfunc/clueserver/logger"
	"github.com/wfunc/clueserver/network"
)

// Event types pushed to clients.
const (
	EventPlayerJoined    = "player_joined"
	EventGameStarted     = "game_started"
	EventYourCards       = "your_cards"
	EventPlayerMoved     = "player_moved"
	EventSuggestionMade  = "suggestion_made"
	EventShowCardRequest = "show_card_request"
	EventCardShown       = "card_shown"
	EventCardShownPublic = "card_shown_public"
	EventAccusationMade  = "accusation_made"
	EventGameOver        = "game_over"
	EventGameState       = "game_state"
	EventChatMessage     = "chat_message"
	EventServerShutdown  = "server_shutdown"
)

// Event is the body of every MsgTypeGameEvent packet.
type Event struct {
	Type   string `json:"type"`
	GameID string `json:"game_id"`
	Data   any    `json:"data,omitempty"`
}

func (r *Room) encode(eventType string, data any) ([]byte, bool) {
	raw, err := json.Marshal(Event{Type: eventType, GameID: r.ID, Data: data})
	if err != nil {
		logger.Log.Errorw("encode event failed", "game_id", r.ID, "event", eventType, "error", err)
		return nil, false
	}
	return raw, true
}

// Broadcast sends an event to everybody watching the game.
func (r *Room) Broadcast(eventType string, data any) {
	if r.broadcaster == nil {
		return
	}
	raw, ok := r.encode(eventType, data)
	if !ok {
		return
	}
	if err := r.broadcaster.BroadcastToRoom(r.ID, network.MsgTypeGameEvent, raw); err != nil {
		logger.Log.Warnw("broadcast failed", "game_id", r.ID, "event", eventType, "error", err)
	}
}

// SendTo sends a private event to one seat.
func (r *Room) SendTo(playerID, eventType string, data any) {
	if r.broadcaster == nil {
		return
	}
	raw, ok := r.encode(eventType, data)
	if !ok {
		return
	}
	if err := r.broadcaster.SendToPlayer(r.ID, playerID, network.MsgTypeGameEvent, raw); err != nil {
		logger.Log.Warnw("send failed", "game_id", r.ID, "player_id", playerID, "event", eventType, "error", err)
	}
}
