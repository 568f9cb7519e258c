package console

import (
	"context"

	"golang.org/x/sync/errgroup"

	"vetadmin/internal/assemble"
	"vetadmin/internal/backend"
	"vetadmin/internal/records"
)

type VaccineRecordFilter struct {
	Query       string // vaccine name or pet name
	PetID       int64
	VaccineType string
}

func (f VaccineRecordFilter) keep(v assemble.VaccineRecordView) bool {
	return matchesQuery(f.Query, v.VaccineName, v.PetName) &&
		(f.PetID == 0 || v.PetID == f.PetID) &&
		matchesSelect(f.VaccineType, v.VaccineType)
}

type VaccineRecordsScreen struct {
	Screen[assemble.VaccineRecordView]
	Pets []records.Pet `json:"pets"`
}

func (s *Service) VaccineRecords(ctx context.Context, req PageRequest, f VaccineRecordFilter) (*VaccineRecordsScreen, error) {
	req = req.normalize()

	var (
		page    *records.Page[records.VaccineRecord]
		pets    []records.Pet
		images  []records.VaccineRecordImage
		history []records.VaccineHistory
		photos  []records.VaccineHistoryPhoto
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		page, err = backend.List[records.VaccineRecord](gctx, s.client, req.Page, req.Limit)
		return err
	})
	g.Go(func() (err error) {
		pets, err = backend.FetchAll[records.Pet](gctx, s.client)
		return err
	})
	g.Go(func() (err error) {
		images, err = backend.FetchAll[records.VaccineRecordImage](gctx, s.client)
		return err
	})
	g.Go(func() (err error) {
		history, err = backend.FetchAll[records.VaccineHistory](gctx, s.client)
		return err
	})
	g.Go(func() (err error) {
		photos, err = backend.FetchAll[records.VaccineHistoryPhoto](gctx, s.client)
		return err
	})
	if err := s.loaded("vaccine_records", g.Wait()); err != nil {
		return nil, err
	}

	views := filter(assemble.VaccineRecordViews(page.Data, images, history, photos, pets), f.keep)
	return &VaccineRecordsScreen{
		Screen: Screen[assemble.VaccineRecordView]{Rows: views, Pagination: page.Pagination},
		Pets:   pets,
	}, nil
}

// AddVaccineHistory records an administration of vaccine record recordID,
// then stores its photos.
func (s *Service) AddVaccineHistory(ctx context.Context, recordID int64, form records.VaccineHistoryForm) (assemble.VaccineHistoryView, error) {
	if err := form.Check(); err != nil {
		return assemble.VaccineHistoryView{}, err
	}
	h, err := backend.Create[records.VaccineHistory](ctx, s.client, map[string]any{
		"vaccine_id":        recordID,
		"pet_id":            form.PetID,
		"date_administered": form.DateAdministered,
		"treatment_info":    form.TreatmentInfo,
	})
	if err != nil {
		return assemble.VaccineHistoryView{}, err
	}

	view := assemble.VaccineHistoryView{VaccineHistory: h, Photos: []records.VaccineHistoryPhoto{}}
	for _, p := range form.Photos {
		photo, err := backend.Create[records.VaccineHistoryPhoto](ctx, s.client, map[string]any{
			"vaccine_history_id": h.ID,
			"type":               p.Type,
			"image_url":          p.ImageData,
		})
		if err != nil {
			return view, err
		}
		view.Photos = append(view.Photos, photo)
	}
	s.changed(records.TableVaccineHistory, "create", h.ID)
	return view, nil
}
