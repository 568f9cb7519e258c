package console

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"vetadmin/internal/assemble"
	"vetadmin/internal/backend"
	"vetadmin/internal/records"
)

type AppointmentFilter struct {
	Query  string // matches the client's full name
	Status string
	Dates  DateRange
}

func (f AppointmentFilter) keep(v assemble.AppointmentView) bool {
	return matchesQuery(f.Query, v.MemberName()) &&
		matchesSelect(f.Status, v.Status) &&
		f.Dates.Contains(v.Date)
}

// Appointments loads a page of appointments with their pets, newest first.
func (s *Service) Appointments(ctx context.Context, req PageRequest, f AppointmentFilter) (*Screen[assemble.AppointmentView], error) {
	req = req.normalize()

	var (
		page  *records.Page[records.Appointment]
		links []records.AppointmentPetLink
		pets  []records.Pet
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		page, err = backend.List[records.Appointment](gctx, s.client, req.Page, req.Limit)
		return err
	})
	g.Go(func() (err error) {
		links, err = backend.FetchAll[records.AppointmentPetLink](gctx, s.client)
		return err
	})
	g.Go(func() (err error) {
		pets, err = backend.FetchAll[records.Pet](gctx, s.client)
		return err
	})
	if err := s.loaded("appointments", g.Wait()); err != nil {
		return nil, err
	}

	views := filter(assemble.AppointmentViews(page.Data, links, pets), f.keep)
	newestFirst(views, func(v assemble.AppointmentView) string { return v.CreatedAt })
	return &Screen[assemble.AppointmentView]{Rows: views, Pagination: page.Pagination}, nil
}

func (s *Service) UpdateAppointmentStatus(ctx context.Context, id int64, form records.AppointmentStatusForm) (records.Appointment, error) {
	if err := records.Validate(form); err != nil {
		return records.Appointment{}, err
	}
	appt, err := backend.Update[records.Appointment](ctx, s.client, id, form)
	if err != nil {
		return records.Appointment{}, err
	}
	s.changed(records.TableAppointments, "update", id)
	return appt, nil
}

// CreatedMedicalRecord is a record created from an appointment with the photos attached to it.
type CreatedMedicalRecord struct {
	Record records.MedicalRecord        `json:"record"`
	Photos []records.MedicalRecordPhoto `json:"photos"`
}

// CreateMedicalRecords turns per-pet drafts of an appointment into medical
// records. Drafts with neither hospital details nor photos are skipped, and
// every other draft must name a pet linked to the appointment. Photos are
// stored as uploaded by the hospital. The first failure stops the batch;
// records created before it, including one whose photos failed, are returned
// with the error.
func (s *Service) CreateMedicalRecords(ctx context.Context, appointmentID int64, drafts []records.MedicalRecordDraft) ([]CreatedMedicalRecord, error) {
	for i, d := range drafts {
		if d.Empty() {
			continue
		}
		if err := records.Validate(d); err != nil {
			return nil, fmt.Errorf("draft %d: %w", i+1, err)
		}
	}

	links, err := backend.FetchEvery[records.AppointmentPetLink](backend.WithoutCache(ctx), s.client)
	if err := s.loaded(string(records.TableAppointmentPetLinks), err); err != nil {
		return nil, err
	}
	linked := make(map[int64]bool)
	for _, l := range links {
		if l.AppointmentID == appointmentID && l.PetID != nil {
			linked[*l.PetID] = true
		}
	}
	for i, d := range drafts {
		if !d.Empty() && !linked[d.PetID] {
			return nil, &records.ValidationError{
				Fields: []string{"PetID"},
				Reason: fmt.Sprintf("draft %d: pet %d is not on appointment %d", i+1, d.PetID, appointmentID),
			}
		}
	}

	var out []CreatedMedicalRecord
	for _, d := range drafts {
		if d.Empty() {
			continue
		}
		rec, err := backend.Create[records.MedicalRecord](ctx, s.client, map[string]any{
			"pet_id":           d.PetID,
			"title":            d.Title,
			"date":             d.Date,
			"hospital_details": d.HospitalDetails,
		})
		if err != nil {
			return out, err
		}
		s.changed(records.TableMedicalRecords, "create", rec.ID)
		created := CreatedMedicalRecord{Record: rec, Photos: []records.MedicalRecordPhoto{}}
		for _, img := range d.Photos {
			photo, err := s.addMedicalPhoto(ctx, rec.ID, img)
			if err != nil {
				return append(out, created), fmt.Errorf("photo for medical record %d: %w", rec.ID, err)
			}
			created.Photos = append(created.Photos, photo)
		}
		out = append(out, created)
	}
	return out, nil
}

func (s *Service) addMedicalPhoto(ctx context.Context, recordID int64, imageData string) (records.MedicalRecordPhoto, error) {
	return backend.Create[records.MedicalRecordPhoto](ctx, s.client, map[string]any{
		"medical_record_id": recordID,
		"image_data":        imageData,
		"uploaded_by":       records.UploadedByHospital,
	})
}
