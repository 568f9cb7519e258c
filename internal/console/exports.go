package console

import (
	"context"
	"fmt"

	"vetadmin/internal/assemble"
	"vetadmin/internal/export"
	"vetadmin/internal/records"
	"vetadmin/internal/slots"
)

// ExportScreen names a screen whose filtered rows can be exported.
type ExportScreen string

const (
	ExportAppointments   ExportScreen = "appointments"
	ExportPets           ExportScreen = "pets"
	ExportMedicalRecords ExportScreen = "medical-records"
	ExportVaccineRecords ExportScreen = "vaccine-records"
	ExportUsers          ExportScreen = "users"
)

var exportFiles = map[ExportScreen]string{
	ExportAppointments:   "Appointment_Records",
	ExportPets:           "Pet_Records",
	ExportMedicalRecords: "Medical_Records",
	ExportVaccineRecords: "Vaccine_Records",
	ExportUsers:          "Pet_Parents_Records",
}

func ParseExportScreen(s string) (ExportScreen, bool) {
	e := ExportScreen(s)
	_, ok := exportFiles[e]
	return e, ok
}

// FileName is the workbook name offered for download.
func (e ExportScreen) FileName() string { return export.FileName(exportFiles[e]) }

// Filters is the union of every screen's filter inputs, as read from a query
// string or CLI flags. Each screen uses the fields it understands.
type Filters struct {
	Query       string
	Status      string
	Type        string
	Gender      string
	Neutered    string
	State       string
	VaccineType string
	PetID       int64
	Dates       DateRange
}

func (f Filters) Appointments() AppointmentFilter {
	return AppointmentFilter{Query: f.Query, Status: f.Status, Dates: f.Dates}
}

func (f Filters) Pets() PetFilter {
	return PetFilter{Query: f.Query, Type: f.Type, Gender: f.Gender, Neutered: f.Neutered}
}

func (f Filters) MedicalRecords() MedicalRecordFilter {
	return MedicalRecordFilter{Query: f.Query, PetID: f.PetID, Dates: f.Dates}
}

func (f Filters) VaccineRecords() VaccineRecordFilter {
	return VaccineRecordFilter{Query: f.Query, PetID: f.PetID, VaccineType: f.VaccineType}
}

func (f Filters) Users() UserFilter {
	return UserFilter{Query: f.Query, State: f.State}
}

func (f Filters) Events() EventFilter {
	return EventFilter{Query: f.Query}
}

// Export builds the sheet of a screen's filtered rows. Rows come from the
// first page read at the fetch limit. A sheet with no rows yields export.ErrNoData.
func (s *Service) Export(ctx context.Context, screen ExportScreen, f Filters) (export.Sheet, error) {
	req := PageRequest{Page: 1, Limit: s.client.FetchLimit()}

	var (
		sheet export.Sheet
		err   error
	)
	switch screen {
	case ExportAppointments:
		var sc *Screen[assemble.AppointmentView]
		if sc, err = s.Appointments(ctx, req, f.Appointments()); err == nil {
			sheet = appointmentSheet(sc.Rows)
		}
	case ExportPets:
		var sc *PetsScreen
		if sc, err = s.Pets(ctx, req, f.Pets()); err == nil {
			sheet = petSheet(sc.Rows)
		}
	case ExportMedicalRecords:
		var sc *MedicalRecordsScreen
		if sc, err = s.MedicalRecords(ctx, req, f.MedicalRecords()); err == nil {
			sheet = medicalSheet(sc.Rows)
		}
	case ExportVaccineRecords:
		var sc *VaccineRecordsScreen
		if sc, err = s.VaccineRecords(ctx, req, f.VaccineRecords()); err == nil {
			sheet = vaccineSheet(sc.Rows)
		}
	case ExportUsers:
		var sc *Screen[assemble.UserView]
		if sc, err = s.Users(ctx, req, f.Users()); err == nil {
			sheet = userSheet(sc.Rows)
		}
	default:
		return export.Sheet{}, fmt.Errorf("%w: unknown export %q", records.ErrInvalidForm, screen)
	}
	if err != nil {
		return export.Sheet{}, err
	}
	if len(sheet.Rows) == 0 {
		return sheet, export.ErrNoData
	}
	s.logger.Info().Str("screen", string(screen)).Int("rows", len(sheet.Rows)).Msg("export built")
	return sheet, nil
}

func appointmentSheet(rows []assemble.AppointmentView) export.Sheet {
	return export.Sheet{
		Name:    "Sheet1",
		Columns: []string{"ID", "Client Name", "Client Phone", "Date", "Time", "Status", "# of Pets"},
		Rows: assemble.Map(rows, func(a assemble.AppointmentView) []any {
			return []any{a.ID, a.MemberName(), a.MemberPhone, slots.DayKey(a.Date), a.Time + " " + a.TimeSlot, a.Status, a.NumberOfPets}
		}),
	}
}

func petSheet(rows []records.Pet) export.Sheet {
	return export.Sheet{
		Name:    "Sheet1",
		Columns: []string{"ID", "Pet Name", "Species", "Breed", "Birthday", "Gender", "Neutered", "Owner ID", "Created At"},
		Rows: assemble.Map(rows, func(p records.Pet) []any {
			return []any{p.ID, p.Name, p.Type, p.Breed, dayOr(p.Birthday), p.Gender, yesNo(p.IsNeutered), p.UserID, stamp(p.CreatedAt)}
		}),
	}
}

func medicalSheet(rows []assemble.MedicalRecordView) export.Sheet {
	return export.Sheet{
		Name:    "Sheet1",
		Columns: []string{"Record ID", "Pet Name", "Title", "Date", "User Details", "Hospital Details"},
		Rows: assemble.Map(rows, func(m assemble.MedicalRecordView) []any {
			return []any{m.ID, orNA(m.PetName), m.Title, slots.DayKey(m.Date), deref(m.UserDetails), deref(m.HospitalDetails)}
		}),
	}
}

func vaccineSheet(rows []assemble.VaccineRecordView) export.Sheet {
	return export.Sheet{
		Name:    "Sheet1",
		Columns: []string{"Record ID", "Pet Name", "Vaccine Name", "Vaccination Date", "Due Date", "Veterinarian"},
		Rows: assemble.Map(rows, func(v assemble.VaccineRecordView) []any {
			return []any{v.ID, orNA(v.PetName), v.VaccineName, slots.DayKey(v.VaccinationDate), dayOr(deref(v.DueDate)), deref(v.Veterinarian)}
		}),
	}
}

func userSheet(rows []assemble.UserView) export.Sheet {
	return export.Sheet{
		Name:    "Sheet1",
		Columns: []string{"ID", "First Name", "Last Name", "Email", "Phone", "State", "Pets Count", "Registration Date"},
		Rows: assemble.Map(rows, func(u assemble.UserView) []any {
			return []any{u.ID, u.FirstName, u.LastName, u.Email, u.Phone, u.State, u.PetsCount, stamp(u.CreatedAt)}
		}),
	}
}

func dayOr(raw string) string {
	if raw == "" {
		return "N/A"
	}
	return slots.DayKey(raw)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func stamp(raw string) string {
	t, ok := records.ParseTimestamp(raw)
	if !ok {
		return raw
	}
	return t.Format("2006-01-02 15:04:05")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
