package cribbage

import "errors"

var (
	ErrInvalidStage         = errors.New("action not valid in current stage")
	ErrNotYourTurn          = errors.New("not your turn")
	ErrIllegalCardSelection = errors.New("illegal card selection")
	ErrGameOver             = errors.New("game already over")
	ErrMatchOver            = errors.New("match already over")
	ErrSeatEmpty            = errors.New("seat empty")
	ErrSeatTaken            = errors.New("seat taken")
)

// FailureKind maps an action error onto its stable wire code.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidStage):
		return "invalid-stage"
	case errors.Is(err, ErrNotYourTurn):
		return "not-your-turn"
	case errors.Is(err, ErrIllegalCardSelection):
		return "illegal-card-selection"
	case errors.Is(err, ErrGameOver):
		return "game-already-over"
	case errors.Is(err, ErrMatchOver):
		return "match-already-over"
	case errors.Is(err, ErrSeatEmpty):
		return "seat-empty"
	case errors.Is(err, ErrSeatTaken):
		return "seat-taken"
	default:
		return "internal"
	}
}
