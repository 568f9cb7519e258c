// Package console implements the admin screens: each load fetches the flat
// collections it needs in parallel, assembles the views, then filters them.
package console

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"vetadmin/internal/backend"
	"vetadmin/internal/events"
	"vetadmin/internal/metrics"
	"vetadmin/internal/records"
	"vetadmin/internal/slots"
)

const DefaultPageSize = 10

// ErrNotFound is returned when an edited record no longer exists.
var ErrNotFound = errors.New("record not found")

// PageRequest selects the page of the screen's main table.
type PageRequest struct {
	Page  int
	Limit int
}

func (r PageRequest) normalize() PageRequest {
	if r.Page <= 0 {
		r.Page = 1
	}
	if r.Limit <= 0 {
		r.Limit = DefaultPageSize
	}
	return r
}

// Screen is one loaded page after filtering. Pagination describes the
// backend page; filters narrow the rows of that page only.
type Screen[T any] struct {
	Rows       []T                `json:"data"`
	Pagination records.Pagination `json:"pagination"`
}

type Service struct {
	client   *backend.Client
	toggler  *slots.Toggler
	resolver atomic.Pointer[slots.Resolver]
	bus      *events.Bus
	logger   *zerolog.Logger
	loc      *time.Location
	now      func() time.Time
}

// NewService wires the screens to the backend. bus may be nil.
func NewService(client *backend.Client, resolver *slots.Resolver, bus *events.Bus, logger *zerolog.Logger) *Service {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if resolver == nil {
		resolver = slots.NewResolver(slots.PolicyCoexist, slots.DefaultGrid())
	}
	s := &Service{
		client:  client,
		toggler: slots.NewToggler(backend.NewSlotStore(client), resolver.Policy(), logger),
		bus:     bus,
		logger:  logger,
		loc:     time.Local,
		now:     time.Now,
	}
	s.resolver.Store(resolver)
	return s
}

// SetLocation sets the clinic time zone used for "today".
func (s *Service) SetLocation(loc *time.Location) {
	if loc != nil {
		s.loc = loc
	}
}

// ApplySlotConfig swaps the slot policy and grid, e.g. after slots.yaml changes.
func (s *Service) ApplySlotConfig(policy slots.Policy, grid slots.Grid) {
	s.resolver.Store(slots.NewResolver(policy, grid))
	s.toggler.SetPolicy(policy)
	s.logger.Info().Str("policy", string(policy)).Int("times", len(grid.Times)).Msg("slot config applied")
}

func (s *Service) Resolver() *slots.Resolver { return s.resolver.Load() }

// Today is the current calendar day in the clinic's time zone.
func (s *Service) Today() string {
	return slots.DayString(s.now().In(s.loc))
}

// loaded records the outcome of a screen load.
func (s *Service) loaded(screen string, err error) error {
	if err != nil {
		metrics.IncScreenLoad(screen, "error")
		s.logger.Error().Err(err).Str("screen", screen).Msg("screen load failed")
		return fmt.Errorf("load %s: %w", screen, err)
	}
	metrics.IncScreenLoad(screen, "ok")
	return nil
}

func (s *Service) changed(table records.Table, action string, ids ...int64) {
	s.logger.Info().Str("table", table.String()).Str("action", action).Ints64("ids", ids).Msg("records changed")
	if err := s.bus.Publish(events.Event{Type: events.RecordsChanged, Table: table, Action: action, IDs: ids}); err != nil {
		s.logger.Warn().Err(err).Str("table", table.String()).Msg("records changed handler")
	}
}

// Delete removes rows from table after validating the id list.
func (s *Service) Delete(ctx context.Context, table records.Table, form records.DeleteForm) (*records.DeleteResult, error) {
	if err := records.Validate(form); err != nil {
		return nil, err
	}
	res, err := s.client.Delete(ctx, table, form.IDs)
	if err != nil {
		return nil, err
	}
	s.changed(table, "delete", form.IDs...)
	return res, nil
}

// Ping reports whether the backend is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}
