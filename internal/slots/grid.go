package slots

import (
	"fmt"
	"strconv"
	"strings"
)

// Period groups times into the morning and afternoon columns staff see.
type Period string

const (
	PeriodAM Period = "AM"
	PeriodPM Period = "PM"
)

// TimeOption is one bookable time of day.
type TimeOption struct {
	Value  string `json:"value"` // "13:00:00"
	Label  string `json:"label"` // "01:00"
	Period Period `json:"period"`
}

// Grid is the ordered list of bookable times in a day.
type Grid struct {
	Times []TimeOption
}

// DefaultGrid is the clinic's hourly grid, 09:00 through 21:00.
func DefaultGrid() Grid {
	g, err := GenerateGrid("09:00", "21:00", 60)
	if err != nil {
		panic(err)
	}
	return g
}

// GenerateGrid builds a grid from start to end inclusive, every stepMinutes.
func GenerateGrid(start, end string, stepMinutes int) (Grid, error) {
	if stepMinutes <= 0 {
		stepMinutes = 60
	}
	from, err := minutesOf(start)
	if err != nil {
		return Grid{}, fmt.Errorf("parse start time: %w", err)
	}
	to, err := minutesOf(end)
	if err != nil {
		return Grid{}, fmt.Errorf("parse end time: %w", err)
	}
	if to < from {
		return Grid{}, fmt.Errorf("end time %s before start time %s", end, start)
	}

	var times []string
	for cursor := from; cursor <= to; cursor += stepMinutes {
		times = append(times, fmt.Sprintf("%02d:%02d", cursor/60, cursor%60))
	}
	return GridFromTimes(times)
}

// GridFromTimes builds a grid from explicit "HH:MM" values, keeping their order.
func GridFromTimes(times []string) (Grid, error) {
	g := Grid{Times: make([]TimeOption, 0, len(times))}
	seen := make(map[string]bool, len(times))
	for _, raw := range times {
		value, err := NormalizeTime(raw)
		if err != nil {
			return Grid{}, err
		}
		if seen[value] {
			return Grid{}, fmt.Errorf("duplicate time %s in grid", raw)
		}
		seen[value] = true
		g.Times = append(g.Times, optionFor(value))
	}
	return g, nil
}

// ByPeriod returns the times of one period in grid order.
func (g Grid) ByPeriod(p Period) []TimeOption {
	var out []TimeOption
	for _, t := range g.Times {
		if t.Period == p {
			out = append(out, t)
		}
	}
	return out
}

// Contains reports whether tm is one of the grid's times.
func (g Grid) Contains(tm string) bool {
	key := timeKey(tm)
	for _, t := range g.Times {
		if t.Value == key {
			return true
		}
	}
	return false
}

func optionFor(value string) TimeOption {
	hour, _ := strconv.Atoi(value[:2])
	period := PeriodAM
	if hour >= 12 {
		period = PeriodPM
	}
	h12 := hour % 12
	if h12 == 0 {
		h12 = 12
	}
	return TimeOption{
		Value:  value,
		Label:  fmt.Sprintf("%02d:%s", h12, value[3:5]),
		Period: period,
	}
}

func minutesOf(s string) (int, error) {
	n, err := NormalizeTime(s)
	if err != nil {
		return 0, err
	}
	parts := strings.Split(n, ":")
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	return h*60 + m, nil
}
