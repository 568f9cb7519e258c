package records

// Table names a backend collection. Every record variant belongs to exactly one table.
type Table string

const (
	TableAppointments         Table = "appointments"
	TableAppointmentPetLinks  Table = "appointment_pet_links"
	TablePets                 Table = "pets"
	TableBreeds               Table = "breeds"
	TableMedicalRecords       Table = "medical_records"
	TableMedicalRecordPhotos  Table = "medical_record_photos"
	TableVaccineRecords       Table = "vaccine_records"
	TableVaccineRecordImages  Table = "vaccine_record_images"
	TableVaccineHistory       Table = "vaccine_history"
	TableVaccineHistoryPhotos Table = "vaccine_history_photos"
	TableBlockedSlots         Table = "blocked_slot"
	TableUsers                Table = "users"
	TableUpcomingEvents       Table = "upcoming_events"
	TableVaccineTypes         Table = "vaccine_types"
	TableVaccineNames         Table = "vaccine_names"
)

// AllTables lists every table the backend serves.
var AllTables = []Table{
	TableAppointments,
	TableAppointmentPetLinks,
	TablePets,
	TableBreeds,
	TableMedicalRecords,
	TableMedicalRecordPhotos,
	TableVaccineRecords,
	TableVaccineRecordImages,
	TableVaccineHistory,
	TableVaccineHistoryPhotos,
	TableBlockedSlots,
	TableUsers,
	TableUpcomingEvents,
	TableVaccineTypes,
	TableVaccineNames,
}

func (t Table) String() string { return string(t) }

// ParseTable maps a raw table name to a known Table.
func ParseTable(s string) (Table, bool) {
	for _, t := range AllTables {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Record is implemented by every table row type.
type Record interface {
	Table() Table
	RecordID() int64
}

func (Appointment) Table() Table         { return TableAppointments }
func (AppointmentPetLink) Table() Table  { return TableAppointmentPetLinks }
func (Pet) Table() Table                 { return TablePets }
func (Breed) Table() Table               { return TableBreeds }
func (MedicalRecord) Table() Table       { return TableMedicalRecords }
func (MedicalRecordPhoto) Table() Table  { return TableMedicalRecordPhotos }
func (VaccineRecord) Table() Table       { return TableVaccineRecords }
func (VaccineRecordImage) Table() Table  { return TableVaccineRecordImages }
func (VaccineHistory) Table() Table      { return TableVaccineHistory }
func (VaccineHistoryPhoto) Table() Table { return TableVaccineHistoryPhotos }
func (BlockedSlot) Table() Table         { return TableBlockedSlots }
func (User) Table() Table                { return TableUsers }
func (UpcomingEvent) Table() Table       { return TableUpcomingEvents }
func (VaccineType) Table() Table         { return TableVaccineTypes }
func (VaccineName) Table() Table         { return TableVaccineNames }

func (r Appointment) RecordID() int64         { return r.ID }
func (r AppointmentPetLink) RecordID() int64  { return r.ID }
func (r Pet) RecordID() int64                 { return r.ID }
func (r Breed) RecordID() int64               { return r.ID }
func (r MedicalRecord) RecordID() int64       { return r.ID }
func (r MedicalRecordPhoto) RecordID() int64  { return r.ID }
func (r VaccineRecord) RecordID() int64       { return r.ID }
func (r VaccineRecordImage) RecordID() int64  { return r.ID }
func (r VaccineHistory) RecordID() int64      { return r.ID }
func (r VaccineHistoryPhoto) RecordID() int64 { return r.ID }
func (r BlockedSlot) RecordID() int64         { return r.ID }
func (r User) RecordID() int64                { return r.ID }
func (r UpcomingEvent) RecordID() int64       { return r.ID }
func (r VaccineType) RecordID() int64         { return r.ID }
func (r VaccineName) RecordID() int64         { return r.ID }
