package types

import "fmt"

// State is the stage of a submission
type State int

// States of a submission, Completed and Failed are final
const (
	StateReceived State = iota + 1
	StatePreparing
	StateExecuting
	StateCompleted
	StateFailed
)

var stateToString = []string{
	"Invalid",
	"Received",
	"Preparing",
	"Executing",
	"Completed",
	"Failed",
}

func (s State) String() string {
	si := int(s)
	if si < 0 || si >= len(stateToString) {
		return stateToString[0]
	}
	return stateToString[si]
}

// MarshalJSON convert state into string
func (s State) MarshalJSON() ([]byte, error) {
	return []byte("\"" + s.String() + "\""), nil
}

// UnmarshalJSON convert string into state
func (s *State) UnmarshalJSON(b []byte) error {
	str := string(b)
	if len(str) < 2 {
		return fmt.Errorf("invalid state: %s", str)
	}
	for i, n := range stateToString[1:] {
		if n == str[1:len(str)-1] {
			*s = State(i + 1)
			return nil
		}
	}
	return fmt.Errorf("invalid state: %s", str)
}

// Final reports whether no further transition follows
func (s State) Final() bool {
	return s == StateCompleted || s == StateFailed
}

// Progress reports a transition of a submission. Case is set while executing
// after a test case verdict was recorded.
type Progress struct {
	ID    string
	State State
	Case  *TestCaseResult
}
