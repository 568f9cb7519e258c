package console

import (
	"sort"
	"strings"

	"vetadmin/internal/records"
	"vetadmin/internal/slots"
)

// All is the filter value that disables a select filter.
const All = "all"

// DateRange is an inclusive range of calendar days. Empty bounds are open.
type DateRange struct {
	Start string
	End   string
}

// Contains compares on the calendar-day part only, so stored timestamps never
// shift across a boundary because of the server's time zone.
func (r DateRange) Contains(raw string) bool {
	if r.Start == "" && r.End == "" {
		return true
	}
	day := slots.DayKey(raw)
	if len(day) != len(slots.DayLayout) {
		return false
	}
	if r.Start != "" && day < slots.DayKey(r.Start) {
		return false
	}
	if r.End != "" && day > slots.DayKey(r.End) {
		return false
	}
	return true
}

func matchesSelect(filter, value string) bool {
	return filter == "" || filter == All || filter == value
}

// matchesQuery reports whether any field contains q, case-insensitively.
func matchesQuery(q string, fields ...string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func filter[T any](rows []T, keep func(T) bool) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// newestFirst sorts rows by a timestamp, most recent first. Unparseable
// timestamps sort last.
func newestFirst[T any](rows []T, at func(T) string) {
	sort.SliceStable(rows, func(i, j int) bool {
		ti, _ := records.ParseTimestamp(at(rows[i]))
		tj, _ := records.ParseTimestamp(at(rows[j]))
		return ti.After(tj)
	})
}
