// Package calendar holds the naive wall-clock date helpers shared by the
// scheduling code: the canonical weekday enumeration, clock/date parsing,
// half-open windows and weekly recurrence expansion.
package calendar

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Weekday is the single weekday enumeration used across scheduling,
// conflict reporting and capacity bookkeeping. Values match time.Weekday.
type Weekday int

const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var weekdayNames = [...]string{"SUNDAY", "MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY"}

// Weekdays lists every weekday in canonical order.
func Weekdays() []Weekday {
	return []Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}
}

// WeekdayOf returns the weekday of t.
func WeekdayOf(t time.Time) Weekday {
	return Weekday(t.Weekday())
}

// Valid reports whether w is within SUNDAY..SATURDAY.
func (w Weekday) Valid() bool {
	return w >= Sunday && w <= Saturday
}

func (w Weekday) String() string {
	if !w.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(w))
	}
	return weekdayNames[w]
}

// ParseWeekday accepts full names, three-letter abbreviations (any case) and
// numeric values 0-6.
func ParseWeekday(raw string) (Weekday, error) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	if value == "" {
		return 0, fmt.Errorf("weekday is empty")
	}
	if n, err := strconv.Atoi(value); err == nil {
		w := Weekday(n)
		if !w.Valid() {
			return 0, fmt.Errorf("weekday %d out of range", n)
		}
		return w, nil
	}
	for i, name := range weekdayNames {
		if value == name || (len(value) == 3 && strings.HasPrefix(name, value)) {
			return Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", raw)
}

// MarshalText renders the upper-case weekday name.
func (w Weekday) MarshalText() ([]byte, error) {
	if !w.Valid() {
		return nil, fmt.Errorf("invalid weekday %d", int(w))
	}
	return []byte(w.String()), nil
}

// UnmarshalText parses any form accepted by ParseWeekday.
func (w *Weekday) UnmarshalText(text []byte) error {
	parsed, err := ParseWeekday(string(text))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// Value stores the weekday as its numeric index.
func (w Weekday) Value() (driver.Value, error) {
	if !w.Valid() {
		return nil, fmt.Errorf("invalid weekday %d", int(w))
	}
	return int64(w), nil
}

// Scan reads numeric or textual weekday columns.
func (w *Weekday) Scan(src interface{}) error {
	switch v := src.(type) {
	case int64:
		parsed := Weekday(v)
		if !parsed.Valid() {
			return fmt.Errorf("weekday %d out of range", v)
		}
		*w = parsed
		return nil
	case []byte:
		return w.UnmarshalText(v)
	case string:
		return w.UnmarshalText([]byte(v))
	default:
		return fmt.Errorf("cannot scan %T into Weekday", src)
	}
}
