package console

import (
	"context"

	"golang.org/x/sync/errgroup"

	"vetadmin/internal/assemble"
	"vetadmin/internal/backend"
	"vetadmin/internal/records"
)

type MedicalRecordFilter struct {
	Query string // title or pet name
	PetID int64
	Dates DateRange
}

func (f MedicalRecordFilter) keep(v assemble.MedicalRecordView) bool {
	return matchesQuery(f.Query, v.Title, v.PetName) &&
		(f.PetID == 0 || v.PetID == f.PetID) &&
		f.Dates.Contains(v.Date)
}

// MedicalRecordsScreen carries the pet list for the pet filter.
type MedicalRecordsScreen struct {
	Screen[assemble.MedicalRecordView]
	Pets []records.Pet `json:"pets"`
}

func (s *Service) MedicalRecords(ctx context.Context, req PageRequest, f MedicalRecordFilter) (*MedicalRecordsScreen, error) {
	req = req.normalize()

	var (
		page   *records.Page[records.MedicalRecord]
		pets   []records.Pet
		photos []records.MedicalRecordPhoto
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		page, err = backend.List[records.MedicalRecord](gctx, s.client, req.Page, req.Limit)
		return err
	})
	g.Go(func() (err error) {
		pets, err = backend.FetchAll[records.Pet](gctx, s.client)
		return err
	})
	g.Go(func() (err error) {
		photos, err = backend.FetchAll[records.MedicalRecordPhoto](gctx, s.client)
		return err
	})
	if err := s.loaded("medical_records", g.Wait()); err != nil {
		return nil, err
	}

	views := filter(assemble.MedicalRecordViews(page.Data, photos, pets), f.keep)
	return &MedicalRecordsScreen{
		Screen: Screen[assemble.MedicalRecordView]{Rows: views, Pagination: page.Pagination},
		Pets:   pets,
	}, nil
}

// UpdateMedicalRecord sets the hospital details and attaches new hospital photos.
func (s *Service) UpdateMedicalRecord(ctx context.Context, id int64, form records.MedicalRecordForm) (records.MedicalRecord, error) {
	if err := records.Validate(form); err != nil {
		return records.MedicalRecord{}, err
	}
	rec, err := backend.Update[records.MedicalRecord](ctx, s.client, id, map[string]any{
		"hospital_details": form.HospitalDetails,
	})
	if err != nil {
		return records.MedicalRecord{}, err
	}
	for _, img := range form.Photos {
		if _, err := s.addMedicalPhoto(ctx, id, img); err != nil {
			return rec, err
		}
	}
	s.changed(records.TableMedicalRecords, "update", id)
	return rec, nil
}
