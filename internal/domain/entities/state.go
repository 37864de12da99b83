package entities

// State represents the scheduling state of a card.
type State string

const (
	StateNew        State = "new"        // never graded
	StateLearning   State = "learning"   // walking the short learning steps
	StateReview     State = "review"     // in the long-term review cycle
	StateRelearning State = "relearning" // lapsed, walking the relearning steps
)

// States lists every valid state.
var States = []State{StateNew, StateLearning, StateReview, StateRelearning}

// IsValid reports whether s is one of the four card states.
func (s State) IsValid() bool {
	switch s {
	case StateNew, StateLearning, StateReview, StateRelearning:
		return true
	default:
		return false
	}
}

func (s State) String() string {
	return string(s)
}
