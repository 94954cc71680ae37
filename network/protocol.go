package network

import "encoding/json"

// Message ids. Requests go client -> server; the server answers with the
// same id, or MsgTypeError, and pushes game events on MsgTypeGameEvent.
const (
	MsgTypeHeartbeat = 1

	MsgTypeStartGame = 101
	MsgTypeGetState  = 102

	MsgTypeGameAction = 201
	MsgTypeChat       = 202

	MsgTypeGameEvent   = 301
	MsgTypePlayerState = 302

	MsgTypeError = 400
)

// ErrorReply is the body of a MsgTypeError packet.
type ErrorReply struct {
	Request uint16 `json:"request"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// ChatRequest is the body of a MsgTypeChat packet.
type ChatRequest struct {
	Text string `json:"text"`
}

// SendJSON encodes v and sends it as one packet.
func SendJSON(conn Connection, msgID uint16, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.Send(msgID, data)
}
