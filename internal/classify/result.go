package classify

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Result is the backend's response body, unmodified.
type Result json.RawMessage

// MarshalJSON embeds the raw response as-is.
func (r Result) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return []byte(r), nil
}

// UnmarshalJSON stores a copy of the raw bytes.
func (r *Result) UnmarshalJSON(data []byte) error {
	if r == nil {
		return errors.New("classify.Result: UnmarshalJSON on nil pointer")
	}
	*r = append((*r)[0:0], data...)
	return nil
}

// Summary is a loose view over both response shapes the backend has used:
// {"correct_count": n, "results": [...]} and {"result": n, "test_number": n}.
type Summary struct {
	CorrectCount *int     `json:"correct_count,omitempty"`
	Results      []string `json:"results,omitempty"`
	Result       *int     `json:"result,omitempty"`
	TestNumber   *int     `json:"test_number,omitempty"`
}

// Summary decodes the response for display. Unknown fields are ignored and
// missing ones stay nil; the shape is not validated.
func (r Result) Summary() (Summary, error) {
	var s Summary
	if err := json.Unmarshal(r, &s); err != nil {
		return Summary{}, fmt.Errorf("decode classification result: %w", err)
	}
	return s, nil
}

// Score returns the correct count under either response shape.
func (s Summary) Score() (int, bool) {
	switch {
	case s.CorrectCount != nil:
		return *s.CorrectCount, true
	case s.Result != nil:
		return *s.Result, true
	default:
		return 0, false
	}
}
