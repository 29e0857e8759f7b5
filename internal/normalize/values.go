package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// firstNonEmpty returns the first pointer holding a non-blank string, trimmed.
func firstNonEmpty(ps ...*string) (string, bool) {
	for _, p := range ps {
		if p == nil {
			continue
		}
		if s := strings.TrimSpace(*p); s != "" {
			return s, true
		}
	}
	return "", false
}

func ptrStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

// stringsFrom flattens the many ways a list of strings has been stored:
// []any with strings or {url|src} objects, []string, or a JSON-encoded array.
// A plain string becomes one element, or one element per line when splitLines is set.
// The result is never nil.
func stringsFrom(v any, splitLines bool) []string {
	out := []string{}
	switch t := v.(type) {
	case nil:
	case []string:
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, it := range t {
			switch e := it.(type) {
			case string:
				if s := strings.TrimSpace(e); s != "" {
					out = append(out, s)
				}
			case map[string]any:
				for _, k := range []string{"url", "src"} {
					if s, ok := e[k].(string); ok && strings.TrimSpace(s) != "" {
						out = append(out, strings.TrimSpace(s))
						break
					}
				}
			}
		}
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return out
		}
		if strings.HasPrefix(s, "[") {
			var arr []any
			if err := json.Unmarshal([]byte(s), &arr); err == nil {
				return stringsFrom(arr, splitLines)
			}
		}
		if !splitLines {
			return append(out, s)
		}
		for _, line := range strings.Split(s, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				out = append(out, line)
			}
		}
	case json.RawMessage:
		var arr any
		if err := json.Unmarshal(t, &arr); err == nil {
			return stringsFrom(arr, splitLines)
		}
	}
	return out
}

// idString renders legacy numeric ids without exponent or fraction.
func idString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []byte:
		return strings.TrimSpace(string(t))
	case json.Number:
		return t.String()
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	}
	return fmt.Sprint(v)
}

// intFlexible reads a day number from float64/int/json.Number/string.
func intFlexible(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return int(t), true
	case int:
		return t, true
	case int64:
		return int(t), true
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n), true
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n, true
		}
	}
	return 0, false
}
