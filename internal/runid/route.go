package runid

import "strings"

// Current is the path alias for whichever run is active.
const Current = "current"

// ParseRoute extracts the run reference and optional action from a URL path
// like /api/runs/{id}/{action}. The reference is either Current or a
// canonical run id; ok is false when the path has no reference or the
// reference is not a valid id.
func ParseRoute(path, apiPrefix string) (ref, action string, ok bool) {
	parts := strings.SplitN(strings.TrimPrefix(path, apiPrefix), "/", 2)
	if parts[0] == "" {
		return "", "", false
	}
	if len(parts) == 2 {
		action = strings.Trim(parts[1], "/")
	}
	if parts[0] == Current {
		return Current, action, true
	}
	id, err := Parse(parts[0])
	if err != nil {
		return "", "", false
	}
	return id, action, true
}
