package records

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestParseTable(t *testing.T) {
	tbl, ok := ParseTable("blocked_slot")
	require.True(t, ok)
	assert.Equal(t, TableBlockedSlots, tbl)

	_, ok = ParseTable("nope")
	assert.False(t, ok)
	assert.Len(t, AllTables, 15)
}

func TestRecordVariants(t *testing.T) {
	var rows = []Record{
		Appointment{ID: 1},
		BlockedSlot{ID: 2},
		VaccineHistoryPhoto{ID: 3},
	}
	assert.Equal(t, TableAppointments, rows[0].Table())
	assert.Equal(t, TableBlockedSlots, rows[1].Table())
	assert.Equal(t, int64(3), rows[2].RecordID())
}

func TestParseTimestamp(t *testing.T) {
	for _, s := range []string{"2024-06-01T10:00:00.000Z", "2024-06-01T10:00:00", "2024-06-01 10:00:00", "2024-06-01"} {
		ts, ok := ParseTimestamp(s)
		require.True(t, ok, s)
		assert.Equal(t, 2024, ts.Year())
	}
	_, ok := ParseTimestamp("")
	assert.False(t, ok)
	_, ok = ParseTimestamp("yesterday")
	assert.False(t, ok)
}

func TestValidate_AppointmentStatus(t *testing.T) {
	assert.NoError(t, Validate(AppointmentStatusForm{Status: "booked"}))

	err := Validate(AppointmentStatusForm{Status: "cancelled"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidForm))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields[0], "Status")
}

func TestValidate_PetForm(t *testing.T) {
	assert.NoError(t, Validate(PetForm{}))
	assert.NoError(t, Validate(PetForm{Type: strPtr("Cat"), Birthday: strPtr("2020-02-29")}))
	assert.Error(t, Validate(PetForm{Type: strPtr("Parrot")}))
	assert.Error(t, Validate(PetForm{Birthday: strPtr("29/02/2020")}))
}

func TestUserForm_Merge(t *testing.T) {
	current := User{FirstName: "Ann", LastName: "Lee", Email: "ann@example.com"}
	got := UserForm{LastName: "Park"}.Merge(current)
	assert.Equal(t, UserUpdate{FirstName: "Ann", LastName: "Park", Email: "ann@example.com"}, got)

	assert.Error(t, Validate(UserForm{Email: "not-an-email"}))
}

func TestVaccineHistoryForm_Check(t *testing.T) {
	err := VaccineHistoryForm{PetID: 1, DateAdministered: "2024-06-01"}.Check()
	require.Error(t, err)
	assert.EqualError(t, err, "Please provide both a date and treatment information.")

	ok := VaccineHistoryForm{PetID: 1, DateAdministered: "2024-06-01", TreatmentInfo: "booster"}
	assert.NoError(t, ok.Check())

	bad := ok
	bad.Photos = []HistoryPhotoForm{{Type: "X-Ray"}}
	assert.Error(t, bad.Check())
}

func TestBroadcastForm_Check(t *testing.T) {
	assert.EqualError(t, BroadcastForm{}.Check(), "Title or message is required.")
	assert.NoError(t, BroadcastForm{Message: "Clinic closed on Monday"}.Check())
}

func TestMedicalRecordDraft_Empty(t *testing.T) {
	assert.True(t, MedicalRecordDraft{PetID: 1, Title: "Check-up"}.Empty())
	assert.False(t, MedicalRecordDraft{Photos: []string{"data:image/png;base64,AA"}}.Empty())
}

func TestValidate_SlotToggleAndDelete(t *testing.T) {
	assert.NoError(t, Validate(SlotToggleForm{Date: "2024-06-01"}))
	assert.Error(t, Validate(SlotToggleForm{Date: "06/01/2024"}))
	assert.Error(t, Validate(DeleteForm{}))
	assert.NoError(t, Validate(DeleteForm{IDs: []int64{1, 2}}))
}
