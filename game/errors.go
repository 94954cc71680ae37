package game

import "errors"

// Every rejection is caller-correctable and leaves the game untouched.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidPhase      = errors.New("invalid game phase")
	ErrActionUnavailable = errors.New("action not available")
	ErrInvalidCard       = errors.New("invalid card")
	ErrCapacity          = errors.New("game is full")

	ErrDuplicatePlayer = errors.New("player already joined")
	ErrInvalidAction   = errors.New("invalid action")
)

// ErrHandMissing reports a started game whose stored hands have expired. It
// is a storage fault, not a rejection.
var ErrHandMissing = errors.New("hand missing")

// ErrNotYourTurn is reported through the available-actions check, so it is
// the same error as ErrActionUnavailable.
var ErrNotYourTurn = ErrActionUnavailable

// IsRejection reports whether err is a validation failure rather than a
// storage or internal error.
func IsRejection(err error) bool {
	reason := ReasonOf(err)
	return reason != "" && reason != "internal"
}

// ReasonOf names the rejection category of err for metrics and logs.
func ReasonOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidPhase):
		return "invalid_phase"
	case errors.Is(err, ErrActionUnavailable):
		return "action_unavailable"
	case errors.Is(err, ErrInvalidCard):
		return "invalid_card"
	case errors.Is(err, ErrCapacity):
		return "capacity"
	case errors.Is(err, ErrDuplicatePlayer):
		return "duplicate_player"
	case errors.Is(err, ErrInvalidAction):
		return "invalid_action"
	default:
		return "internal"
	}
}
