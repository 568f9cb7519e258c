package records

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidForm is matched by every form validation failure.
var ErrInvalidForm = errors.New("invalid form")

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidationError lists the failed fields of a form.
type ValidationError struct {
	Fields []string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return "validation failed: " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidForm }

// Validate runs struct-tag validation on a form.
func Validate(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
		}
		return &ValidationError{Fields: fields}
	}
	return fmt.Errorf("%w: %v", ErrInvalidForm, err)
}

// AppointmentStatusForm edits an appointment's status.
type AppointmentStatusForm struct {
	Status string `json:"status" validate:"required,oneof=draft booked"`
}

// PetForm is a partial pet update; nil fields are left untouched.
type PetForm struct {
	Name       *string `json:"name,omitempty" validate:"omitempty,min=1"`
	Type       *string `json:"type,omitempty" validate:"omitempty,oneof=Dog Cat"`
	Gender     *string `json:"gender,omitempty"`
	IsNeutered *bool   `json:"is_neutered,omitempty"`
	Breed      *string `json:"breed,omitempty"`
	Birthday   *string `json:"birthday,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// UserForm edits a user's identity fields. Empty fields keep the current value.
type UserForm struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email" validate:"omitempty,email"`
}

// UserUpdate is the body sent to the backend for a user edit.
type UserUpdate struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// Merge fills blank form fields from the current user.
func (f UserForm) Merge(current User) UserUpdate {
	pick := func(v, fallback string) string {
		if v != "" {
			return v
		}
		return fallback
	}
	return UserUpdate{
		FirstName: pick(f.FirstName, current.FirstName),
		LastName:  pick(f.LastName, current.LastName),
		Email:     pick(f.Email, current.Email),
	}
}

// MedicalRecordForm updates the hospital side of a medical record and attaches new photos.
type MedicalRecordForm struct {
	HospitalDetails *string  `json:"hospital_details"`
	Photos          []string `json:"photos" validate:"dive,required"`
}

// MedicalRecordDraft is a record created by staff from an appointment.
type MedicalRecordDraft struct {
	PetID           int64    `json:"pet_id" validate:"required"`
	Title           string   `json:"title" validate:"required"`
	Date            string   `json:"date" validate:"required,datetime=2006-01-02"`
	HospitalDetails string   `json:"hospital_details"`
	Photos          []string `json:"photos" validate:"dive,required"`
}

// Empty reports whether the draft carries nothing worth saving.
func (d MedicalRecordDraft) Empty() bool {
	return d.HospitalDetails == "" && len(d.Photos) == 0
}

// VaccineHistoryForm adds an administration entry to a vaccine record.
type VaccineHistoryForm struct {
	PetID            int64              `json:"pet_id" validate:"required"`
	DateAdministered string             `json:"date_administered"`
	TreatmentInfo    string             `json:"treatment_info"`
	Photos           []HistoryPhotoForm `json:"photos" validate:"dive"`
}

type HistoryPhotoForm struct {
	Type      string `json:"type" validate:"required"`
	ImageData string `json:"image_data" validate:"required"`
}

// Check validates the form, with the message staff see when date or treatment is missing.
func (f VaccineHistoryForm) Check() error {
	if strings.TrimSpace(f.DateAdministered) == "" || strings.TrimSpace(f.TreatmentInfo) == "" {
		return &ValidationError{
			Fields: []string{"DateAdministered", "TreatmentInfo"},
			Reason: "Please provide both a date and treatment information.",
		}
	}
	return Validate(f)
}

// CatalogForm edits a vaccine type or vaccine name.
type CatalogForm struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// BreedForm edits a breed.
type BreedForm struct {
	Name string `json:"name" validate:"required"`
	Type string `json:"type" validate:"required,oneof=Dog Cat"`
}

// BroadcastForm is a custom push notification to every device.
type BroadcastForm struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

func (f BroadcastForm) Check() error {
	if strings.TrimSpace(f.Title) == "" && strings.TrimSpace(f.Message) == "" {
		return &ValidationError{Fields: []string{"Title", "Message"}, Reason: "Title or message is required."}
	}
	return nil
}

// SlotToggleForm names the slot to flip. A nil Time targets the whole day.
type SlotToggleForm struct {
	Date string  `json:"date" validate:"required,datetime=2006-01-02"`
	Time *string `json:"time"`
}

// DeleteForm is a bulk delete request.
type DeleteForm struct {
	IDs []int64 `json:"ids" validate:"required,min=1,dive,gt=0"`
}
