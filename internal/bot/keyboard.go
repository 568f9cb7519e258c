package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"vetadmin/internal/slots"
)

const (
	cbNoop   = "noop"
	cbMonth  = "month:"
	cbDay    = "day:"
	cbToggle = "tgl:"

	blockedMark = "⛔ "
	timesPerRow = 3
)

var weekdays = []string{"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"}

func noopButton(label string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(label, cbNoop)
}

// monthKeyboard renders the Sunday-first month grid. Days with a whole-day
// block carry the blocked mark, days with only timed blocks a dot.
func monthKeyboard(m slots.Month) tgbotapi.InlineKeyboardMarkup {
	first := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
	prev := first.AddDate(0, -1, 0).Format("2006-01")
	next := first.AddDate(0, 1, 0).Format("2006-01")

	var rows [][]tgbotapi.InlineKeyboardButton
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("«", cbMonth+prev),
		noopButton(first.Format("January 2006")),
		tgbotapi.NewInlineKeyboardButtonData("»", cbMonth+next),
	))

	header := make([]tgbotapi.InlineKeyboardButton, 0, len(weekdays))
	for _, wd := range weekdays {
		header = append(header, noopButton(wd))
	}
	rows = append(rows, header)

	row := make([]tgbotapi.InlineKeyboardButton, 0, 7)
	for i := 0; i < m.Leading; i++ {
		row = append(row, noopButton(" "))
	}
	for _, d := range m.Days {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(dayLabel(d), cbDay+d.Date))
		if len(row) == 7 {
			rows = append(rows, row)
			row = make([]tgbotapi.InlineKeyboardButton, 0, 7)
		}
	}
	if len(row) > 0 {
		for len(row) < 7 {
			row = append(row, noopButton(" "))
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func dayLabel(d slots.CalendarDay) string {
	label := strconv.Itoa(d.Day)
	switch {
	case d.WholeDay:
		return blockedMark + label
	case d.HasBlock:
		return label + "•"
	default:
		return label
	}
}

// dayKeyboard renders the whole-day control followed by the AM and PM times.
// Disabled times are shown but do nothing when tapped.
func dayKeyboard(day slots.DayState) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	whole := "Block whole day"
	if day.WholeDay {
		whole = blockedMark + "Unblock whole day"
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(whole, toggleData(day.Date, "")),
	))

	for _, period := range []slots.Period{slots.PeriodAM, slots.PeriodPM} {
		var row []tgbotapi.InlineKeyboardButton
		for _, ts := range day.Times {
			if ts.Period != period {
				continue
			}
			row = append(row, timeButton(day.Date, ts))
			if len(row) == timesPerRow {
				rows = append(rows, row)
				row = nil
			}
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Back to month", cbMonth+day.Date[:len("2006-01")]),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func timeButton(date string, ts slots.TimeState) tgbotapi.InlineKeyboardButton {
	label := ts.Label + " " + string(ts.Period)
	if ts.Blocked {
		label = blockedMark + label
	}
	if ts.Disabled {
		return noopButton(label)
	}
	return tgbotapi.NewInlineKeyboardButtonData(label, toggleData(date, ts.Value))
}

// toggleData encodes a toggle as "tgl:YYYY-MM-DD" or "tgl:YYYY-MM-DD|HH:MM:SS".
func toggleData(date, tm string) string {
	if tm == "" {
		return cbToggle + date
	}
	return cbToggle + date + "|" + tm
}

func parseToggleData(data string) (string, *string, error) {
	rest := strings.TrimPrefix(data, cbToggle)
	date, tm, found := strings.Cut(rest, "|")
	if date == "" {
		return "", nil, fmt.Errorf("malformed toggle callback %q", data)
	}
	if !found {
		return date, nil, nil
	}
	return date, &tm, nil
}

func dayText(day slots.DayState, policy slots.Policy) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 %s\n", day.Date)
	switch {
	case day.WholeDay:
		sb.WriteString("Whole day is blocked.")
	case day.AnyBlock:
		sb.WriteString("Some times are blocked.")
	default:
		sb.WriteString("No blocks.")
	}
	if policy == slots.PolicySupersede && day.WholeDay {
		sb.WriteString("\nUnblock the day to change single times.")
	}
	return sb.String()
}
