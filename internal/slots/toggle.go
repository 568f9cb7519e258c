package slots

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"vetadmin/internal/metrics"
	"vetadmin/internal/records"
)

var (
	// ErrToggleInProgress is returned while another toggle of the same slot is running.
	ErrToggleInProgress = errors.New("slot toggle already in progress")
	// ErrDaySuperseded is returned under PolicySupersede when a time is toggled on a whole-day-blocked date.
	ErrDaySuperseded = errors.New("whole day is blocked; unblock the day first")
)

// Store reads and writes blocked-slot rows in the backend.
type Store interface {
	BlockedSlots(ctx context.Context) ([]records.BlockedSlot, error)
	BlockSlot(ctx context.Context, date string, tm *string) (records.BlockedSlot, error)
	UnblockSlots(ctx context.Context, ids []int64) error
}

type Action string

const (
	ActionBlocked   Action = "blocked"
	ActionUnblocked Action = "unblocked"
)

// ToggleResult describes a completed toggle. Slots is the list re-read after
// the write; it is nil when that re-read failed.
type ToggleResult struct {
	Action Action                `json:"action"`
	Date   string                `json:"date"`
	Time   *string               `json:"time"`
	Slots  []records.BlockedSlot `json:"slots,omitempty"`
}

// Toggler flips blocked slots. State is read from the store before each
// decision and never changed locally ahead of the backend.
type Toggler struct {
	store  Store
	policy Policy
	logger *zerolog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewToggler(store Store, policy Policy, logger *zerolog.Logger) *Toggler {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if policy == "" {
		policy = PolicyCoexist
	}
	return &Toggler{
		store:    store,
		policy:   policy,
		logger:   logger,
		inflight: make(map[string]struct{}),
	}
}

// Toggle blocks (date, tm) if no row matches it and unblocks it otherwise.
// A nil tm targets the whole day.
func (t *Toggler) Toggle(ctx context.Context, date string, tm *string) (*ToggleResult, error) {
	if _, err := ParseDay(date, nil); err != nil {
		return nil, err
	}
	day := DayKey(date)

	var timeVal *string
	if tm != nil {
		n, err := NormalizeTime(*tm)
		if err != nil {
			return nil, err
		}
		timeVal = &n
	}

	key := slotKey(day, timeVal)
	if !t.acquire(key) {
		return nil, ErrToggleInProgress
	}
	defer t.release(key)

	current, err := t.store.BlockedSlots(ctx)
	if err != nil {
		return nil, fmt.Errorf("load blocked slots: %w", err)
	}

	if timeVal != nil && t.Policy() == PolicySupersede && IsDateBlocked(day, current) {
		return nil, ErrDaySuperseded
	}

	res := &ToggleResult{Date: day, Time: timeVal}
	if existing := Matching(day, timeVal, current); len(existing) > 0 {
		ids := make([]int64, 0, len(existing))
		for _, s := range existing {
			ids = append(ids, s.ID)
		}
		if err := t.store.UnblockSlots(ctx, ids); err != nil {
			metrics.IncSlotToggle("failed")
			return nil, fmt.Errorf("unblock %s: %w", key, err)
		}
		res.Action = ActionUnblocked
	} else {
		if _, err := t.store.BlockSlot(ctx, day, timeVal); err != nil {
			metrics.IncSlotToggle("failed")
			return nil, fmt.Errorf("block %s: %w", key, err)
		}
		res.Action = ActionBlocked
	}
	metrics.IncSlotToggle(string(res.Action))

	t.logger.Info().
		Str("date", day).
		Str("time", displayTime(timeVal)).
		Str("action", string(res.Action)).
		Msg("slot toggled")

	refreshed, err := t.store.BlockedSlots(ctx)
	if err != nil {
		t.logger.Warn().Err(err).Str("slot", key).Msg("reload blocked slots after toggle")
		return res, nil
	}
	res.Slots = refreshed
	return res, nil
}

// Policy returns the overlap policy applied to toggles.
func (t *Toggler) Policy() Policy {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.policy
}

// SetPolicy swaps the overlap policy, e.g. after a config reload.
func (t *Toggler) SetPolicy(p Policy) {
	if p == "" {
		p = PolicyCoexist
	}
	t.mu.Lock()
	t.policy = p
	t.mu.Unlock()
}

// InFlight reports whether a toggle of (date, tm) is running.
func (t *Toggler) InFlight(date string, tm *string) bool {
	var timeVal *string
	if tm != nil {
		n := timeKey(*tm)
		timeVal = &n
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.inflight[slotKey(DayKey(date), timeVal)]
	return ok
}

func (t *Toggler) acquire(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, busy := t.inflight[key]; busy {
		return false
	}
	t.inflight[key] = struct{}{}
	return true
}

func (t *Toggler) release(key string) {
	t.mu.Lock()
	delete(t.inflight, key)
	t.mu.Unlock()
}

func slotKey(day string, tm *string) string {
	return day + " " + displayTime(tm)
}

func displayTime(tm *string) string {
	if tm == nil {
		return "all-day"
	}
	return *tm
}
