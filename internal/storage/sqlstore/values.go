package sqlstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func valBool(p *bool) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

// valJSON stores v as JSON text; nil stays NULL and strings are stored verbatim.
func valJSON(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return t
	case json.RawMessage:
		return string(t)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return string(b)
}

// valPrice keeps numeric prices as plain digits and unknown prices as whatever was stored.
func valPrice(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	}
	return fmt.Sprint(v)
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func boolPtr(nb sql.NullBool) *bool {
	if !nb.Valid {
		return nil
	}
	b := nb.Bool
	return &b
}

var rePlainNumber = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// decodePrice hands plain numeric text to the normalizer as a number so that
// fractional amounts round instead of losing their decimal point.
func decodePrice(ns sql.NullString) any {
	if !ns.Valid {
		return nil
	}
	s := strings.TrimSpace(ns.String)
	if rePlainNumber.MatchString(s) {
		return json.Number(s)
	}
	return ns.String
}

// decodeJSONColumn decodes JSON text columns permissively. Double-encoded JSON
// (a JSON string holding JSON) is unwrapped once; anything that does not parse
// is returned as the raw string.
func decodeJSONColumn(ns sql.NullString) any {
	if !ns.Valid {
		return nil
	}
	s := strings.TrimSpace(ns.String)
	if s == "" || s == "null" {
		return nil
	}
	for i := 0; i < 2; i++ {
		if !strings.HasPrefix(s, "[") && !strings.HasPrefix(s, "{") && !strings.HasPrefix(s, `"`) {
			return s
		}
		var v any
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return ns.String
		}
		inner, ok := v.(string)
		if !ok {
			return v
		}
		s = strings.TrimSpace(inner)
	}
	return s
}

// dbTime scans DATETIME columns from either driver.
type dbTime struct{ time.Time }

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v.UTC()
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	}
	return fmt.Errorf("dbTime: unsupported type %T", src)
}

func (t *dbTime) parse(s string) error {
	for _, l := range timeLayouts {
		if ts, err := time.Parse(l, s); err == nil {
			t.Time = ts.UTC()
			return nil
		}
	}
	return fmt.Errorf("dbTime: cannot parse %q", s)
}
