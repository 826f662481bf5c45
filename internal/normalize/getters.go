package normalize

import (
	"strconv"
	"strings"
	"time"
)

// Typed accessors over the raw nested mappings. The parse collaborators
// produce JSON-decoded payloads, so numbers arrive as float64 and sometimes
// as plain numeric strings; all accessors degrade to the zero value instead
// of failing.

func getString(data map[string]any, path string) string {
	value, ok := ResolvePath(data, path)
	if !ok {
		return ""
	}
	s, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func getFloat(data map[string]any, path string) float64 {
	value, ok := ResolvePath(data, path)
	if !ok {
		return 0
	}
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

func getBool(data map[string]any, path string) bool {
	value, ok := ResolvePath(data, path)
	if !ok {
		return false
	}
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true")
	}
	return false
}

func getDate(data map[string]any, path string) time.Time {
	date, ok := parseEventDate(getString(data, path))
	if !ok {
		return time.Time{}
	}
	return date
}

func getSlice(data map[string]any, path string) []any {
	value, ok := ResolvePath(data, path)
	if !ok {
		return nil
	}
	s, ok := value.([]any)
	if !ok {
		return nil
	}
	return s
}
