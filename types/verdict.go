package types

import (
	"fmt"
)

// Verdict defines the classification of a test case or a submission
type Verdict int

// Defines verdicts
const (
	// not initialized verdict (as error)
	VerdictInvalid Verdict = iota

	VerdictAccepted
	VerdictWrongAnswer
	VerdictCompilationError
	VerdictRuntimeError
	VerdictTimeLimitExceeded
	VerdictMemoryLimitExceeded

	// internal fault, not caused by the program under test
	VerdictSystemError
)

var verdictToString = []string{
	"Invalid",
	"Accepted",
	"WrongAnswer",
	"CompilationError",
	"RuntimeError",
	"TimeLimitExceeded",
	"MemoryLimitExceeded",
	"SystemError",
}

var stringToVerdict = make(map[string]Verdict)

func (v Verdict) String() string {
	vi := int(v)
	if vi < 0 || vi >= len(verdictToString) {
		return verdictToString[0] // invalid
	}
	return verdictToString[vi]
}

// StringToVerdict convert string to Verdict
func StringToVerdict(s string) (Verdict, error) {
	v, ok := stringToVerdict[s]
	if !ok {
		return 0, fmt.Errorf("invalid verdict: %s", s)
	}
	return v, nil
}

// MarshalJSON convert verdict into string
func (v Verdict) MarshalJSON() ([]byte, error) {
	return []byte("\"" + v.String() + "\""), nil
}

// UnmarshalJSON convert string into verdict
func (v *Verdict) UnmarshalJSON(b []byte) error {
	str := string(b)
	if len(str) < 2 {
		return fmt.Errorf("invalid verdict: %s", str)
	}
	r, err := StringToVerdict(str[1 : len(str)-1])
	if err != nil {
		return err
	}
	*v = r
	return nil
}

// WithDetails reports whether the diagnostics of the program belong in the
// result of a submission with this verdict
func (v Verdict) WithDetails() bool {
	return v == VerdictCompilationError || v == VerdictRuntimeError
}

func init() {
	for i, v := range verdictToString {
		stringToVerdict[v] = Verdict(i)
	}
}
