package diff

import (
	"encoding/json"
	"reflect"
	"strconv"
	"strings"
)

// Structural parses both sides as JSON, or as white space separated tokens
// when that fails, and compares the values. Numeric tokens compare as numbers
// and the tokens true / false as booleans, so "1.0" equals "1" but "1" does
// not equal "true".
type Structural struct{}

// Compare implements Comparator
func (Structural) Compare(expected, actual string) bool {
	return reflect.DeepEqual(parseValue(expected), parseValue(actual))
}

func parseValue(s string) any {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\r", ""))

	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v
	}

	fields := strings.Fields(s)
	tokens := make([]any, 0, len(fields))
	for _, f := range fields {
		tokens = append(tokens, parseToken(f))
	}
	if len(tokens) == 1 {
		return tokens[0]
	}
	return tokens
}

// parseToken returns float64 and bool for the token kinds json.Unmarshal
// would produce so both parse paths compare alike
func parseToken(t string) any {
	switch t {
	case "true":
		return true
	case "false":
		return false
	}
	if f, err := strconv.ParseFloat(t, 64); err == nil {
		return f
	}
	return t
}
