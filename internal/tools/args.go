package tools

import (
	"fmt"
	"regexp"
	"time"

	"zenledger/internal/core"
)

// Args is the untyped argument bag a tool call arrives with, decoded
// from JSON. Numbers therefore show up as float64 and lists as []any;
// the getters below normalize the common shapes.
type Args map[string]any

func (a Args) str(key string) (string, bool) {
	v, ok := a[key].(string)
	return v, ok && v != ""
}

func (a Args) strOr(key, def string) string {
	if v, ok := a.str(key); ok {
		return v
	}
	return def
}

func (a Args) num(key string) (float64, bool) {
	switch v := a[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func (a Args) intOr(key string, def int) int {
	if v, ok := a.num(key); ok {
		return int(v)
	}
	return def
}

func (a Args) boolOr(key string, def bool) bool {
	if v, ok := a[key].(bool); ok {
		return v
	}
	return def
}

func (a Args) strings(key string) []string {
	switch v := a[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func (a Args) ints(key string) []int {
	switch v := a[key].(type) {
	case []int:
		return v
	case []any:
		out := make([]int, 0, len(v))
		for _, e := range v {
			if f, ok := e.(float64); ok {
				out = append(out, int(f))
			}
		}
		return out
	}
	return nil
}

// has reports whether the caller passed the key at all, which matters
// for update tools that only touch the fields present in the call.
func (a Args) has(key string) bool {
	_, ok := a[key]
	return ok
}

var (
	uuidRe  = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	monthRe = regexp.MustCompile(`^\d{4}-\d{2}$`)
)

func validateUUID(v, field string) error {
	if !uuidRe.MatchString(v) {
		return fmt.Errorf("invalid UUID for %s: %s", field, v)
	}
	return nil
}

func validateDate(v, field string) error {
	if err := core.Day(v).Validate(); err != nil {
		return fmt.Errorf("invalid date for %s: %s, expected yyyy-MM-dd", field, v)
	}
	return nil
}

func validateMonth(v, field string) error {
	if !monthRe.MatchString(v) {
		return fmt.Errorf("invalid month for %s: %s, expected yyyy-MM", field, v)
	}
	return nil
}

func validatePositive(v float64, field string) error {
	if v < 0 {
		return fmt.Errorf("%s must be non-negative, got %v", field, v)
	}
	return nil
}

// billingPeriod resolves the current billing window around now: it
// starts on startDay of the current month when that day has been
// reached, otherwise on startDay of the previous month, and always ends
// the day before the next period starts.
func billingPeriod(now time.Time, startDay int) (from, to core.Day) {
	if startDay < 1 {
		startDay = 1
	}
	y, m, d := now.Date()
	start := time.Date(y, m, startDay, 0, 0, 0, 0, time.UTC)
	if d < startDay {
		start = start.AddDate(0, -1, 0)
	}
	end := start.AddDate(0, 1, 0).AddDate(0, 0, -1)
	return core.DayOf(start), core.DayOf(end)
}
