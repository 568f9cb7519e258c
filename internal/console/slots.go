package console

import (
	"context"
	"fmt"

	"vetadmin/internal/backend"
	"vetadmin/internal/events"
	"vetadmin/internal/records"
	"vetadmin/internal/slots"
)

// SlotsScreen is the month calendar plus the state of the selected day.
type SlotsScreen struct {
	Policy   slots.Policy          `json:"policy"`
	Month    slots.Month           `json:"month"`
	Day      *slots.DayState       `json:"day,omitempty"`
	Blocked  []records.BlockedSlot `json:"blocked"`
	Selected string                `json:"selected,omitempty"`
}

// BlockedSlots reads every blocked slot, bypassing the page cache.
func (s *Service) BlockedSlots(ctx context.Context) ([]records.BlockedSlot, error) {
	rows, err := backend.FetchEvery[records.BlockedSlot](backend.WithoutCache(ctx), s.client)
	if err := s.loaded("blocked_slots", err); err != nil {
		return nil, err
	}
	return rows, nil
}

// Slots renders month ("YYYY-MM", empty for the current month) and, when date
// is set, the time controls of that day.
func (s *Service) Slots(ctx context.Context, month, date string) (*SlotsScreen, error) {
	if date != "" {
		if _, err := slots.ParseDay(date, s.loc); err != nil {
			return nil, &records.ValidationError{Fields: []string{"Date"}, Reason: err.Error()}
		}
	}
	if month == "" {
		month = s.Today()
		if date != "" {
			month = slots.DayKey(date)
		}
		month = month[:len("2006-01")]
	}
	year, mon, err := slots.ParseMonth(month)
	if err != nil {
		return nil, &records.ValidationError{Fields: []string{"Month"}, Reason: fmt.Sprintf("invalid month %q; expected YYYY-MM", month)}
	}

	blocked, err := s.BlockedSlots(ctx)
	if err != nil {
		return nil, err
	}

	resolver := s.Resolver()
	screen := &SlotsScreen{
		Policy:  resolver.Policy(),
		Month:   slots.BuildMonth(year, mon, blocked),
		Blocked: blocked,
	}
	if date != "" {
		day := resolver.Day(date, blocked)
		screen.Day = &day
		screen.Selected = day.Date
	}
	return screen, nil
}

// ToggleSlot blocks or unblocks a slot and returns the re-read slot list.
func (s *Service) ToggleSlot(ctx context.Context, form records.SlotToggleForm) (*slots.ToggleResult, error) {
	if err := records.Validate(form); err != nil {
		return nil, err
	}
	if form.Time != nil {
		if _, err := slots.NormalizeTime(*form.Time); err != nil {
			return nil, &records.ValidationError{Fields: []string{"Time"}, Reason: err.Error()}
		}
		if !s.Resolver().Grid().Contains(*form.Time) {
			s.logger.Debug().Str("time", *form.Time).Msg("toggling time outside the grid")
		}
	}

	res, err := s.toggler.Toggle(ctx, form.Date, form.Time)
	if err != nil {
		return nil, err
	}

	err = s.bus.Publish(events.Event{
		Type:    events.SlotToggled,
		Table:   records.TableBlockedSlots,
		Action:  string(res.Action),
		Payload: res,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("date", res.Date).Msg("slot toggled handler")
	}
	return res, nil
}

// SlotToggleInFlight reports whether a toggle of the slot is running.
func (s *Service) SlotToggleInFlight(date string, tm *string) bool {
	return s.toggler.InFlight(date, tm)
}
