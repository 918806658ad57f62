package calendar

import "time"

// FirstOnOrAfter returns the first date >= start falling on weekday w.
func FirstOnOrAfter(start time.Time, w Weekday) time.Time {
	start = DateOnly(start)
	offset := (int(w) - int(WeekdayOf(start)) + 7) % 7
	return AddDays(start, offset)
}

// ExpandDates lists every date in the closed range [start, end] that falls on
// weekday w, in increasing order. Both endpoints are inclusive.
func ExpandDates(start, end time.Time, w Weekday) []time.Time {
	start, end = DateOnly(start), DateOnly(end)
	if !w.Valid() || end.Before(start) {
		return nil
	}
	var dates []time.Time
	for d := FirstOnOrAfter(start, w); !d.After(end); d = AddDays(d, 7) {
		dates = append(dates, d)
	}
	return dates
}

// Expand turns a weekly recurrence into concrete windows, one per matching
// weekday inside [start, end].
func Expand(start, end time.Time, w Weekday, from, to Clock) []Window {
	dates := ExpandDates(start, end, w)
	if len(dates) == 0 {
		return nil
	}
	windows := make([]Window, 0, len(dates))
	for _, d := range dates {
		windows = append(windows, Window{Start: from.On(d), End: to.On(d)})
	}
	return windows
}

// CountOccurrences returns how many times weekday w occurs in [start, end].
func CountOccurrences(start, end time.Time, w Weekday) int {
	start, end = DateOnly(start), DateOnly(end)
	if !w.Valid() || end.Before(start) {
		return 0
	}
	first := FirstOnOrAfter(start, w)
	if first.After(end) {
		return 0
	}
	return DaysBetween(first, end)/7 + 1
}
