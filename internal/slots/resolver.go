package slots

import (
	"fmt"
	"strings"

	"vetadmin/internal/records"
)

// Policy decides how a whole-day block interacts with time blocks stored on the same date.
type Policy string

const (
	// PolicyCoexist keeps time rows visible under a whole-day block so they can still be removed.
	PolicyCoexist Policy = "coexist"
	// PolicySupersede hides time rows under a whole-day block and refuses to toggle them.
	PolicySupersede Policy = "supersede"
)

// ParsePolicy maps a config value to a Policy. Empty means PolicyCoexist.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyCoexist:
		return PolicyCoexist, nil
	case PolicySupersede:
		return PolicySupersede, nil
	default:
		return "", fmt.Errorf("unknown slot policy %q", s)
	}
}

// IsDateBlocked reports whether date has a whole-day block.
// A block on a single time of that date does not count.
func IsDateBlocked(date string, slots []records.BlockedSlot) bool {
	day := DayKey(date)
	for _, s := range slots {
		if s.Time == nil && DayKey(s.Date) == day {
			return true
		}
	}
	return false
}

// IsTimeBlocked reports whether the given time on date cannot be booked.
func IsTimeBlocked(date, tm string, slots []records.BlockedSlot) bool {
	if IsDateBlocked(date, slots) {
		return true
	}
	_, ok := findExact(date, &tm, slots)
	return ok
}

// HasAnyBlock reports whether date has any block at all, whole-day or partial.
func HasAnyBlock(date string, slots []records.BlockedSlot) bool {
	day := DayKey(date)
	for _, s := range slots {
		if DayKey(s.Date) == day {
			return true
		}
	}
	return false
}

// Matching returns every row for exactly (date, tm). A nil tm matches only whole-day rows.
func Matching(date string, tm *string, slots []records.BlockedSlot) []records.BlockedSlot {
	day := DayKey(date)
	var out []records.BlockedSlot
	for _, s := range slots {
		if DayKey(s.Date) != day {
			continue
		}
		if sameTime(s.Time, tm) {
			out = append(out, s)
		}
	}
	return out
}

func findExact(date string, tm *string, slots []records.BlockedSlot) (records.BlockedSlot, bool) {
	m := Matching(date, tm, slots)
	if len(m) == 0 {
		return records.BlockedSlot{}, false
	}
	return m[0], true
}

func sameTime(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return timeKey(*a) == timeKey(*b)
}

// TimeState is the rendered state of one time control on a selected day.
type TimeState struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Period   Period `json:"period"`
	Blocked  bool   `json:"blocked"`
	Disabled bool   `json:"disabled"`
}

// DayState is the rendered state of a selected day.
type DayState struct {
	Date     string      `json:"date"`
	WholeDay bool        `json:"whole_day"`
	AnyBlock bool        `json:"any_block"`
	Times    []TimeState `json:"times"`
}

// Resolver renders slot state under a configured policy and time grid.
type Resolver struct {
	policy Policy
	grid   Grid
}

func NewResolver(policy Policy, grid Grid) *Resolver {
	if policy == "" {
		policy = PolicyCoexist
	}
	if len(grid.Times) == 0 {
		grid = DefaultGrid()
	}
	return &Resolver{policy: policy, grid: grid}
}

func (r *Resolver) Policy() Policy { return r.policy }
func (r *Resolver) Grid() Grid     { return r.grid }

// Day builds the state of every time control for date.
func (r *Resolver) Day(date string, slots []records.BlockedSlot) DayState {
	day := DayKey(date)
	wholeDay := IsDateBlocked(day, slots)

	state := DayState{
		Date:     day,
		WholeDay: wholeDay,
		AnyBlock: HasAnyBlock(day, slots),
		Times:    make([]TimeState, 0, len(r.grid.Times)),
	}
	for _, opt := range r.grid.Times {
		value := opt.Value
		_, exact := findExact(day, &value, slots)

		ts := TimeState{
			Value:   opt.Value,
			Label:   opt.Label,
			Period:  opt.Period,
			Blocked: wholeDay || exact,
		}
		switch r.policy {
		case PolicySupersede:
			ts.Disabled = wholeDay
		default:
			ts.Disabled = wholeDay && !exact
		}
		state.Times = append(state.Times, ts)
	}
	return state
}
