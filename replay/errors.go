package replay

import "fmt"

// ReplayError pins a failed script to the step that broke it. StepIndex is -1 for
// problems found before the first action.
type ReplayError struct {
	StepIndex int      `json:"step_index"`
	Reason    string   `json:"reason"`
	Message   string   `json:"message"`
	Expected  *Pending `json:"expected,omitempty"`
}

// Pending is what the table was waiting for when a step was rejected.
type Pending struct {
	Stage string   `json:"stage"`
	Turn  string   `json:"turn,omitempty"`
	Legal []string `json:"legal,omitempty"`
}

func (e *ReplayError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("replay error(step=%d reason=%s): %s", e.StepIndex, e.Reason, e.Message)
}
