package normalize

import (
	"strings"
)

// ResolvePath walks a nested mapping by splitting path on "." and returns
// the leaf value. The second return is false when any segment along the
// walk is absent or not a mapping. A malformed path never panics, it just
// fails to resolve.
func ResolvePath(data map[string]any, path string) (any, bool) {
	if data == nil || path == "" {
		return nil, false
	}

	segments := strings.Split(path, ".")
	current := any(data)
	for _, segment := range segments {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// SetPath writes value at the dot-notation path, creating intermediate
// mappings as needed. An existing non-mapping intermediate blocks the write
// and SetPath returns false.
func SetPath(data map[string]any, path string, value any) bool {
	if data == nil || path == "" {
		return false
	}

	segments := strings.Split(path, ".")
	current := data
	for _, segment := range segments[:len(segments)-1] {
		next, ok := current[segment]
		if !ok {
			child := make(map[string]any)
			current[segment] = child
			current = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return false
		}
		current = child
	}
	current[segments[len(segments)-1]] = value
	return true
}

// IsMissingValue reports whether a resolved leaf value counts as missing:
// nil, empty string, or empty array.
func IsMissingValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []any:
		return len(val) == 0
	case []string:
		return len(val) == 0
	}
	return false
}
