// Package runid generates and validates run identifiers.
//
// A run id names one capture run end to end: it is the last path segment of
// the assessment page (/test-N/{uuid}) and of the classification endpoint
// (/classify-gestures/{uuid}), so it is always a canonical UUID string.
package runid

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// New returns a fresh random run id.
func New() string {
	return uuid.NewString()
}

// Parse validates s and returns it in canonical lowercase form.
// Braced, urn:uuid: and upper-case inputs are accepted.
func Parse(s string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid run id %q: %w", s, err)
	}
	return id.String(), nil
}

// OrNew returns Parse(s) when s is set, otherwise a fresh id.
func OrNew(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return New(), nil
	}
	return Parse(s)
}
