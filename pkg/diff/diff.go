// Package diff decides whether the output of a program matches the expected
// answer.
//
// The default strategy compares normalized text: surrounding white space of
// the whole text and of every line is ignored, line endings are canonical and
// inner blank lines are kept.
package diff

import (
	"bufio"
	"fmt"
	"strings"
)

// Comparator decides whether actual output is accepted for expected
type Comparator interface {
	Compare(expected, actual string) bool
}

// Names of the comparison strategies
const (
	NameText       = "text"
	NameStructural = "structural"
)

// New returns the comparator by name, empty selects the text comparator
func New(name string) (Comparator, error) {
	switch strings.ToLower(name) {
	case "", NameText:
		return Text{}, nil
	case NameStructural:
		return Structural{}, nil
	default:
		return nil, fmt.Errorf("unknown comparator %q", name)
	}
}

// Text compares the normalized forms for exact equality
type Text struct{}

// Compare implements Comparator
func (Text) Compare(expected, actual string) bool {
	return Normalize(expected) == Normalize(actual)
}

// Normalize trims the whole text, then trims every line and joins them with
// a single "\n". Normalize(Normalize(x)) == Normalize(x).
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.Join(lines, "\n")
}

// Explain describes the first line where the normalized forms differ, empty
// if they are the same
func Explain(expected, actual string) string {
	expScan := bufio.NewScanner(strings.NewReader(Normalize(expected)))
	actScan := bufio.NewScanner(strings.NewReader(Normalize(actual)))

	for line := 1; ; line++ {
		hasExp := expScan.Scan()
		hasAct := actScan.Scan()

		// EOF at the same time
		if !hasExp && !hasAct {
			return ""
		}
		exp, act := expScan.Text(), actScan.Text()
		switch {
		case !hasAct:
			return fmt.Sprintf("at line %d, expected: %v, actual output ended", line, exp)
		case !hasExp:
			return fmt.Sprintf("at line %d, actual has more content: %v", line, act)
		case exp != act:
			return fmt.Sprintf("at line %d, expected: %v, actual: %v", line, exp, act)
		}
	}
}
