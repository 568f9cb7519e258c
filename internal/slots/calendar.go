package slots

import (
	"time"

	"vetadmin/internal/records"
)

// CalendarDay is one cell of the month view.
type CalendarDay struct {
	Date     string `json:"date"`
	Day      int    `json:"day"`
	HasBlock bool   `json:"has_block"`
	WholeDay bool   `json:"whole_day"`
}

// Month is a Sunday-first month grid. Leading is the number of blank cells
// before the first day.
type Month struct {
	Year    int           `json:"year"`
	Month   time.Month    `json:"month"`
	Leading int           `json:"leading"`
	Days    []CalendarDay `json:"days"`
}

// BuildMonth marks every day of the month that carries any block.
func BuildMonth(year int, month time.Month, slots []records.BlockedSlot) Month {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	byDay := make(map[string][]records.BlockedSlot)
	for _, s := range slots {
		key := DayKey(s.Date)
		byDay[key] = append(byDay[key], s)
	}

	m := Month{
		Year:    year,
		Month:   month,
		Leading: int(first.Weekday()),
		Days:    make([]CalendarDay, 0, last.Day()),
	}
	for d := 1; d <= last.Day(); d++ {
		date := DayString(time.Date(year, month, d, 0, 0, 0, 0, time.UTC))
		rows := byDay[date]
		m.Days = append(m.Days, CalendarDay{
			Date:     date,
			Day:      d,
			HasBlock: len(rows) > 0,
			WholeDay: IsDateBlocked(date, rows),
		})
	}
	return m
}

// ParseMonth parses "YYYY-MM".
func ParseMonth(s string) (int, time.Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, 0, err
	}
	return t.Year(), t.Month(), nil
}
