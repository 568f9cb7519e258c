package records

import (
	"strings"
	"time"
)

type Appointment struct {
	ID              int64  `json:"id"`
	UserID          *int64 `json:"user_id"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	TimeSlot        string `json:"time_slot"` // AM or PM
	NumberOfPets    int    `json:"number_of_pets"`
	MemberFirstName string `json:"member_first_name"`
	MemberLastName  string `json:"member_last_name"`
	MemberPhone     string `json:"member_phone"`
	Status          string `json:"status"` // draft, booked
	CreatedAt       string `json:"created_at"`
}

// MemberName is the client's display name.
func (a Appointment) MemberName() string {
	return strings.TrimSpace(a.MemberFirstName + " " + a.MemberLastName)
}

const (
	AppointmentDraft  = "draft"
	AppointmentBooked = "booked"
)

// AppointmentPetLink ties a pet to an appointment. PetID is nil for walk-ins,
// in which case Name and Type carry the only known details.
type AppointmentPetLink struct {
	ID             int64   `json:"id"`
	AppointmentID  int64   `json:"appointment_id"`
	PetID          *int64  `json:"pet_id"`
	PurposeOfVisit string  `json:"purpose_of_visit"`
	Memo           string  `json:"memo"`
	Name           *string `json:"name"`
	Type           *string `json:"type"`
}

type Pet struct {
	ID         int64  `json:"id"`
	UserID     int64  `json:"user_id"`
	Name       string `json:"name"`
	Type       string `json:"type"` // Dog, Cat
	Gender     string `json:"gender"`
	IsNeutered bool   `json:"is_neutered"`
	Breed      string `json:"breed"`
	Birthday   string `json:"birthday"`
	Image      string `json:"image"`
	CreatedAt  string `json:"created_at"`
}

const (
	SpeciesDog = "Dog"
	SpeciesCat = "Cat"
)

type Breed struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type MedicalRecord struct {
	ID              int64   `json:"id"`
	PetID           int64   `json:"pet_id"`
	Title           string  `json:"title"`
	Date            string  `json:"date"`
	UserDetails     *string `json:"user_details"`
	HospitalDetails *string `json:"hospital_details"`
	CreatedAt       string  `json:"created_at"`
}

type MedicalRecordPhoto struct {
	ID              int64  `json:"id"`
	MedicalRecordID int64  `json:"medical_record_id"`
	ImageData       string `json:"image_data"`
	UploadedBy      string `json:"uploaded_by"` // user, hospital
}

const (
	UploadedByUser     = "user"
	UploadedByHospital = "hospital"
)

type VaccineRecord struct {
	ID              int64   `json:"id"`
	PetID           int64   `json:"pet_id"`
	VaccineType     string  `json:"vaccine_type"`
	VaccineName     string  `json:"vaccine_name"`
	VaccinationDate string  `json:"vaccination_date"`
	DueDate         *string `json:"due_date"`
	Veterinarian    *string `json:"veterinarian"`
	Notes           *string `json:"notes"`
}

type VaccineRecordImage struct {
	ID              int64  `json:"id"`
	VaccineRecordID int64  `json:"vaccine_record_id"`
	ImageData       string `json:"image_data"`
}

// VaccineHistory is one administration of a vaccine. VaccineID references VaccineRecord.ID.
type VaccineHistory struct {
	ID               int64  `json:"id"`
	VaccineID        int64  `json:"vaccine_id"`
	PetID            int64  `json:"pet_id"`
	TreatmentInfo    string `json:"treatment_info"`
	DateAdministered string `json:"date_administered"`
}

type VaccineHistoryPhoto struct {
	ID               int64  `json:"id"`
	VaccineHistoryID int64  `json:"vaccine_history_id"`
	Type             string `json:"type"`
	ImageURL         string `json:"image_url"`
}

// BlockedSlot marks a date, or a single time on that date, as unavailable.
// A nil Time blocks the whole day.
type BlockedSlot struct {
	ID     int64   `json:"id"`
	Date   string  `json:"date"`
	Time   *string `json:"time"`
	Reason string  `json:"reason,omitempty"`
}

// WholeDay reports whether the row blocks every time on its date.
func (s BlockedSlot) WholeDay() bool { return s.Time == nil }

type User struct {
	ID           int64  `json:"id"`
	ShopifyID    int64  `json:"shopify_id"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Phone        string `json:"phone"`
	State        string `json:"state"`
	TotalSpent   string `json:"total_spent"`
	OrdersCount  int    `json:"orders_count"`
	Tags         string `json:"tags"`
	ProfileImage string `json:"profile_image"`
	CreatedAt    string `json:"created_at"`
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

type UpcomingEvent struct {
	ID          int64   `json:"id"`
	UserID      int64   `json:"user_id"`
	PetID       *int64  `json:"pet_id,omitempty"`
	EventType   string  `json:"event_type"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	EventDate   string  `json:"event_date"`
	EventTime   *string `json:"event_time,omitempty"`
	Status      string  `json:"status"`
}

type VaccineType struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type VaccineName struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses the timestamp shapes the backend emits.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
