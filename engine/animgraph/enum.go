package animgraph

import "fmt"

// enumString returns names[v], or "unknown" when v is out of range.
func enumString(names []string, v int) string {
	if v >= 0 && v < len(names) {
		return names[v]
	}
	return "unknown"
}

// parseEnum returns the index of b in names.
func parseEnum(names []string, kind string, b []byte) (int, error) {
	for i, n := range names {
		if n == string(b) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("animgraph: unknown %s %q", kind, b)
}
