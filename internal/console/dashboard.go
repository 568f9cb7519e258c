package console

import (
	"context"

	"golang.org/x/sync/errgroup"

	"vetadmin/internal/assemble"
	"vetadmin/internal/backend"
	"vetadmin/internal/records"
)

// Dashboard loads the first page of each summarized table at the fetch limit.
// Totals come from pagination; charts and the activity feed use the loaded rows.
func (s *Service) Dashboard(ctx context.Context) (*assemble.Dashboard, error) {
	limit := s.client.FetchLimit()

	var src assemble.DashboardSource
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return firstPage(gctx, s.client, limit, &src.Pets) })
	g.Go(func() error { return firstPage(gctx, s.client, limit, &src.Users) })
	g.Go(func() error { return firstPage(gctx, s.client, limit, &src.Appointments) })
	g.Go(func() error { return firstPage(gctx, s.client, limit, &src.MedicalRecords) })
	g.Go(func() error { return firstPage(gctx, s.client, limit, &src.VaccineRecords) })
	g.Go(func() (err error) {
		src.Links, err = backend.FetchAll[records.AppointmentPetLink](gctx, s.client)
		return err
	})
	if err := s.loaded("dashboard", g.Wait()); err != nil {
		return nil, err
	}

	d := assemble.BuildDashboard(src, s.now())
	return &d, nil
}

func firstPage[T records.Record](ctx context.Context, c *backend.Client, limit int, dst *records.Page[T]) error {
	page, err := backend.List[T](ctx, c, 1, limit)
	if err != nil {
		return err
	}
	*dst = *page
	return nil
}

// SidebarCounts are the badge totals shown next to each navigation entry.
type SidebarCounts struct {
	Pets           int `json:"pets"`
	Appointments   int `json:"appointments"`
	MedicalRecords int `json:"medicalRecords"`
	VaccineRecords int `json:"vaccineRecords"`
	Users          int `json:"users"`
	Events         int `json:"events"`
}

// Sidebar reads every badge total in parallel. Any failure fails the whole set.
func (s *Service) Sidebar(ctx context.Context) (*SidebarCounts, error) {
	var counts SidebarCounts
	targets := []struct {
		table records.Table
		dst   *int
	}{
		{records.TablePets, &counts.Pets},
		{records.TableAppointments, &counts.Appointments},
		{records.TableMedicalRecords, &counts.MedicalRecords},
		{records.TableVaccineRecords, &counts.VaccineRecords},
		{records.TableUsers, &counts.Users},
		{records.TableUpcomingEvents, &counts.Events},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range targets {
		g.Go(func() (err error) {
			*t.dst, err = s.client.Count(gctx, t.table)
			return err
		})
	}
	if err := s.loaded("sidebar", g.Wait()); err != nil {
		return nil, err
	}
	return &counts, nil
}
