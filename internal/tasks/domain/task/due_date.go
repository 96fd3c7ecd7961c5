package task

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical rendering of a due date.
const DateLayout = "2006-01-02"

// lenientLayouts are tried in order after the canonical layout.
var lenientLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"2006/1/2",
	"01/02/2006",
	"1/2/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	time.RFC1123Z,
	time.RFC1123,
}

// DueDate is an optional calendar date. The zero value means no date.
type DueDate struct {
	value string
}

// NoDueDate is the absent due date.
var NoDueDate = DueDate{}

// DueDateOf returns the due date for a calendar day.
func DueDateOf(t time.Time) DueDate {
	return DueDate{value: t.Format(DateLayout)}
}

// ParseDueDate normalizes loosely formatted input into a due date.
// Input that cannot be read as a date yields NoDueDate rather than an error.
// Accepted values are strings, JSON numbers holding Unix milliseconds and nil.
func ParseDueDate(v any) DueDate {
	switch value := v.(type) {
	case nil:
		return NoDueDate
	case string:
		return parseDueDateString(value)
	case *string:
		if value == nil {
			return NoDueDate
		}
		return parseDueDateString(*value)
	case float64:
		return fromUnixMillis(value)
	case int64:
		return fromUnixMillis(float64(value))
	case int:
		return fromUnixMillis(float64(value))
	case json.Number:
		f, err := value.Float64()
		if err != nil {
			return NoDueDate
		}
		return fromUnixMillis(f)
	case time.Time:
		if value.IsZero() {
			return NoDueDate
		}
		return DueDateOf(value.UTC())
	default:
		return NoDueDate
	}
}

func parseDueDateString(s string) DueDate {
	s = strings.TrimSpace(s)
	if s == "" {
		return NoDueDate
	}

	// Plain dates pass through when they name a real day. A value of the
	// right shape naming an impossible day (2024-02-30) is not a date.
	if len(s) == len(DateLayout) && s[4] == '-' && s[7] == '-' {
		if _, err := time.Parse(DateLayout, s); err != nil {
			return NoDueDate
		}
		return DueDate{value: s}
	}

	for _, layout := range lenientLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DueDateOf(t.UTC())
		}
	}

	if ms, err := strconv.ParseFloat(s, 64); err == nil {
		return fromUnixMillis(ms)
	}

	return NoDueDate
}

func fromUnixMillis(ms float64) DueDate {
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return NoDueDate
	}
	// Same range as a JavaScript Date: +/- 8.64e15 ms.
	if math.Abs(ms) > 8.64e15 {
		return NoDueDate
	}
	return DueDateOf(time.UnixMilli(int64(ms)).UTC())
}

// IsZero reports whether no due date is set.
func (d DueDate) IsZero() bool {
	return d.value == ""
}

// String returns the YYYY-MM-DD form, or "" when unset.
func (d DueDate) String() string {
	return d.value
}

// Ptr returns the date as a *string, nil when unset.
func (d DueDate) Ptr() *string {
	if d.IsZero() {
		return nil
	}
	v := d.value
	return &v
}

// Time returns the date at midnight UTC.
func (d DueDate) Time() (time.Time, bool) {
	if d.IsZero() {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, d.value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
