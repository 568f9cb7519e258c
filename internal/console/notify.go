package console

import (
	"context"

	"golang.org/x/sync/errgroup"

	"vetadmin/internal/assemble"
	"vetadmin/internal/backend"
	"vetadmin/internal/events"
	"vetadmin/internal/records"
)

type EventFilter struct {
	Query string // title, owner name, owner email or pet name
}

func (f EventFilter) keep(v assemble.EventView) bool {
	return matchesQuery(f.Query, v.Title, v.UserName, v.UserEmail, v.PetName)
}

func (s *Service) Events(ctx context.Context, req PageRequest, f EventFilter) (*Screen[assemble.EventView], error) {
	req = req.normalize()

	var (
		page  *records.Page[records.UpcomingEvent]
		users []records.User
		pets  []records.Pet
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		page, err = backend.List[records.UpcomingEvent](gctx, s.client, req.Page, req.Limit)
		return err
	})
	g.Go(func() (err error) {
		users, err = backend.FetchAll[records.User](gctx, s.client)
		return err
	})
	g.Go(func() (err error) {
		pets, err = backend.FetchAll[records.Pet](gctx, s.client)
		return err
	})
	if err := s.loaded("upcoming_events", g.Wait()); err != nil {
		return nil, err
	}

	views := filter(assemble.EventViews(page.Data, users, pets), f.keep)
	return &Screen[assemble.EventView]{Rows: views, Pagination: page.Pagination}, nil
}

// NotifyEvent pushes a reminder for one upcoming event to its owner's devices.
func (s *Service) NotifyEvent(ctx context.Context, eventID int64) (*records.NotificationResult, error) {
	if eventID <= 0 {
		return nil, &records.ValidationError{Fields: []string{"EventID"}, Reason: "event id is required"}
	}
	res, err := s.client.SendEventNotification(ctx, eventID)
	if err != nil {
		s.logger.Error().Err(err).Int64("event_id", eventID).Msg("event notification failed")
		return nil, err
	}
	s.notified("event", res, eventID)
	return res, nil
}

// Broadcast pushes a custom notification to every registered device.
func (s *Service) Broadcast(ctx context.Context, form records.BroadcastForm) (*records.NotificationResult, error) {
	res, err := s.client.SendBulk(ctx, form)
	if err != nil {
		s.logger.Error().Err(err).Str("title", form.Title).Msg("broadcast failed")
		return nil, err
	}
	s.notified("broadcast", res)
	return res, nil
}

func (s *Service) notified(kind string, res *records.NotificationResult, ids ...int64) {
	s.logger.Info().
		Str("kind", kind).
		Int("success", res.SuccessCount).
		Int("failure", res.FailureCount).
		Msg("notification sent")
	err := s.bus.Publish(events.Event{Type: events.NotificationSent, Table: records.TableUpcomingEvents, Action: kind, IDs: ids, Payload: res})
	if err != nil {
		s.logger.Warn().Err(err).Str("kind", kind).Msg("notification handler")
	}
}
