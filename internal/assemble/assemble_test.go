package assemble

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vetadmin/internal/records"
)

func i64(v int64) *int64   { return &v }
func str(s string) *string { return &s }

type parent struct{ ID int64 }
type child struct {
	ParentID int64
	Tag      string
}

func TestAttach_OrphansDropped(t *testing.T) {
	parents := []parent{{ID: 1}, {ID: 2}}
	children := []child{{ParentID: 1, Tag: "a"}, {ParentID: 1, Tag: "b"}, {ParentID: 99, Tag: "orphan"}}

	type view struct {
		ID   int64
		Kids []child
	}
	out := Attach(parents, func(p parent) int64 { return p.ID }, children,
		func(c child) int64 { return c.ParentID },
		func(p parent, cs []child) view { return view{ID: p.ID, Kids: cs} })

	require.Len(t, out, 2)
	assert.Equal(t, []child{{1, "a"}, {1, "b"}}, out[0].Kids)
	assert.NotNil(t, out[1].Kids)
	assert.Empty(t, out[1].Kids)
	for _, v := range out {
		for _, c := range v.Kids {
			assert.NotEqual(t, "orphan", c.Tag)
		}
	}
}

func TestAttach_KeepsChildOrder(t *testing.T) {
	parents := []parent{{ID: 7}}
	children := []child{{7, "z"}, {7, "a"}, {7, "m"}}

	out := Attach(parents, func(p parent) int64 { return p.ID }, children,
		func(c child) int64 { return c.ParentID },
		func(_ parent, cs []child) []child { return cs })

	assert.Equal(t, children, out[0])
}

func TestAttach_DoesNotModifyInputs(t *testing.T) {
	parents := []parent{{ID: 1}}
	children := []child{{1, "a"}, {2, "b"}}
	before := append([]child(nil), children...)

	Attach(parents, func(p parent) int64 { return p.ID }, children,
		func(c child) int64 { return c.ParentID },
		func(_ parent, cs []child) int { return len(cs) })

	assert.Equal(t, before, children)
}

func TestGroupByOptional(t *testing.T) {
	links := []records.AppointmentPetLink{
		{ID: 1, PetID: i64(5)},
		{ID: 2, PetID: nil},
		{ID: 3, PetID: i64(5)},
	}
	got := GroupByOptional(links, func(l records.AppointmentPetLink) (int64, bool) {
		if l.PetID == nil {
			return 0, false
		}
		return *l.PetID, true
	})
	require.Len(t, got, 1)
	assert.Len(t, got[5], 2)
}

func TestIndex_FirstWins(t *testing.T) {
	idx := Index([]records.Pet{{ID: 1, Name: "first"}, {ID: 1, Name: "second"}}, recordKey[records.Pet])
	assert.Equal(t, "first", idx[1].Name)
}

func TestAppointmentViews_WalkInFallback(t *testing.T) {
	appts := []records.Appointment{{ID: 10, MemberFirstName: "Ann"}, {ID: 11}}
	pets := []records.Pet{{ID: 5, Name: "Rex", Type: records.SpeciesDog}}
	links := []records.AppointmentPetLink{
		{ID: 100, AppointmentID: 10, PetID: i64(5), PurposeOfVisit: "checkup", Name: str("Old name")},
		{ID: 101, AppointmentID: 10, PetID: nil, Name: str("Milo"), Type: str(records.SpeciesCat)},
		{ID: 102, AppointmentID: 10, PetID: nil},
		{ID: 103, AppointmentID: 10, PetID: i64(77), Name: str("Ghost")},
		{ID: 104, AppointmentID: 999, PetID: i64(5)},
	}

	views := AppointmentViews(appts, links, pets)
	require.Len(t, views, 2)
	got := views[0].Pets
	require.Len(t, got, 4)

	assert.Equal(t, AppointmentPet{ID: 5, Name: "Rex", Type: "Dog", Purpose: "checkup", Registered: true}, got[0])
	assert.Equal(t, AppointmentPet{ID: 101, Name: "Milo", Type: "Cat"}, got[1])
	assert.Equal(t, AppointmentPet{ID: 102, Name: UnregisteredPet, Type: UnknownType}, got[2])
	assert.Equal(t, AppointmentPet{ID: 77, Name: "Ghost", Type: UnknownType}, got[3])

	assert.Empty(t, views[1].Pets)
}

func TestVaccineRecordViews_BottomUp(t *testing.T) {
	recs := []records.VaccineRecord{{ID: 1, PetID: 5, VaccineName: "Rabies"}, {ID: 2, PetID: 6}}
	images := []records.VaccineRecordImage{{ID: 1, VaccineRecordID: 1}, {ID: 2, VaccineRecordID: 42}}
	history := []records.VaccineHistory{
		{ID: 10, VaccineID: 1, TreatmentInfo: "first"},
		{ID: 11, VaccineID: 1, TreatmentInfo: "second"},
		{ID: 12, VaccineID: 99},
	}
	photos := []records.VaccineHistoryPhoto{
		{ID: 1, VaccineHistoryID: 11, ImageURL: "b.png"},
		{ID: 2, VaccineHistoryID: 10, ImageURL: "a.png"},
		{ID: 3, VaccineHistoryID: 12},
		{ID: 4, VaccineHistoryID: 500},
	}
	pets := []records.Pet{{ID: 5, Name: "Rex"}}

	views := VaccineRecordViews(recs, images, history, photos, pets)
	require.Len(t, views, 2)

	first := views[0]
	assert.Equal(t, "Rex", first.PetName)
	require.Len(t, first.Images, 1)
	require.Len(t, first.History, 2)
	assert.Equal(t, "first", first.History[0].TreatmentInfo)
	require.Len(t, first.History[0].Photos, 1)
	assert.Equal(t, "a.png", first.History[0].Photos[0].ImageURL)
	assert.Equal(t, "b.png", first.History[1].Photos[0].ImageURL)

	second := views[1]
	assert.Empty(t, second.PetName)
	assert.NotNil(t, second.History)
	assert.Empty(t, second.History)
	assert.Empty(t, second.Images)
}

func TestMedicalRecordViews(t *testing.T) {
	recs := []records.MedicalRecord{{ID: 1, PetID: 5}, {ID: 2, PetID: 8}}
	photos := []records.MedicalRecordPhoto{
		{ID: 1, MedicalRecordID: 1, UploadedBy: records.UploadedByUser},
		{ID: 2, MedicalRecordID: 1, UploadedBy: records.UploadedByHospital},
		{ID: 3, MedicalRecordID: 3},
	}
	views := MedicalRecordViews(recs, photos, []records.Pet{{ID: 5, Name: "Rex"}})

	require.Len(t, views, 2)
	assert.Len(t, views[0].Photos, 2)
	assert.Len(t, views[0].PhotosBy(records.UploadedByHospital), 1)
	assert.Equal(t, "Rex", views[0].PetName)
	assert.Empty(t, views[1].Photos)
}

func TestUserViews_CountsPets(t *testing.T) {
	users := []records.User{{ID: 1}, {ID: 2}}
	pets := []records.Pet{{ID: 1, UserID: 1}, {ID: 2, UserID: 1}, {ID: 3, UserID: 3}}

	views := UserViews(users, pets)
	assert.Equal(t, 2, views[0].PetsCount)
	assert.Equal(t, 0, views[1].PetsCount)
}

func TestEventViews_Placeholders(t *testing.T) {
	events := []records.UpcomingEvent{
		{ID: 1, UserID: 1, PetID: i64(5)},
		{ID: 2, UserID: 9},
		{ID: 3, UserID: 1, PetID: i64(77)},
	}
	users := []records.User{{ID: 1, FirstName: "Ann", LastName: "Lee", Email: "ann@example.com"}}
	pets := []records.Pet{{ID: 5, Name: "Rex"}}

	views := EventViews(events, users, pets)
	require.Len(t, views, 3)
	assert.Equal(t, "Ann Lee", views[0].UserName)
	assert.Equal(t, "ann@example.com", views[0].UserEmail)
	assert.Equal(t, "Rex", views[0].PetName)
	assert.Equal(t, UnknownUser, views[1].UserName)
	assert.Equal(t, UnknownEmail, views[1].UserEmail)
	assert.Equal(t, NoPet, views[1].PetName)
	assert.Equal(t, NoPet, views[2].PetName)
}

func TestViews_Idempotent(t *testing.T) {
	appts := []records.Appointment{{ID: 1}, {ID: 2}}
	links := []records.AppointmentPetLink{{ID: 1, AppointmentID: 1, PetID: i64(3)}, {ID: 2, AppointmentID: 2}}
	pets := []records.Pet{{ID: 3, Name: "Rex"}}

	assert.Equal(t, AppointmentViews(appts, links, pets), AppointmentViews(appts, links, pets))

	recs := []records.VaccineRecord{{ID: 1}}
	hist := []records.VaccineHistory{{ID: 1, VaccineID: 1}}
	photos := []records.VaccineHistoryPhoto{{ID: 1, VaccineHistoryID: 1}}
	assert.Equal(t,
		VaccineRecordViews(recs, nil, hist, photos, pets),
		VaccineRecordViews(recs, nil, hist, photos, pets))
}

func TestBuildDashboard(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	src := DashboardSource{
		Pets: records.Page[records.Pet]{
			Data: []records.Pet{
				{ID: 1, UserID: 1, Name: "Rex", Type: "Dog", Breed: "Beagle", CreatedAt: "2024-06-10T11:00:00Z"},
				{ID: 2, Type: "Cat", CreatedAt: "2024-06-01T00:00:00Z"},
				{ID: 3, Type: "Dog", CreatedAt: "2023-01-01T00:00:00Z"},
			},
			Pagination: records.Pagination{Total: 30},
		},
		Users: records.Page[records.User]{
			Data:       []records.User{{ID: 1, FirstName: "Ann", LastName: "Lee", CreatedAt: "2024-06-10T11:55:00Z"}},
			Pagination: records.Pagination{Total: 4},
		},
		Appointments: records.Page[records.Appointment]{
			Data: []records.Appointment{
				{ID: 1, Status: "booked", MemberFirstName: "Bo", CreatedAt: "2024-06-09T12:00:00Z"},
				{ID: 2, Status: "draft", CreatedAt: "2024-05-01T00:00:00Z"},
				{ID: 3, Status: "draft", CreatedAt: "2024-04-01T00:00:00Z"},
				{ID: 4, Status: "draft", CreatedAt: "2024-03-01T00:00:00Z"},
			},
			Pagination: records.Pagination{Total: 4},
		},
		VaccineRecords: records.Page[records.VaccineRecord]{
			Data: []records.VaccineRecord{
				{VaccineName: "A"}, {VaccineName: "B"}, {VaccineName: "B"},
				{VaccineName: "C"}, {VaccineName: "D"}, {VaccineName: "E"}, {VaccineName: "F"},
			},
			Pagination: records.Pagination{Total: 7},
		},
		Links: []records.AppointmentPetLink{{AppointmentID: 1, PetID: i64(1)}},
	}

	d := BuildDashboard(src, now)

	assert.Equal(t, 30, d.Totals.Pets)
	assert.Equal(t, 7, d.Totals.Vaccines)
	assert.Equal(t, []Count{{"Dogs", 2}, {"Cats", 1}}, d.PetTypes)
	assert.Equal(t, []Count{{"Completed", 1}, {"Pending", 3}}, d.AppointmentStatus)
	assert.Equal(t, []Count{{"B", 2}, {"A", 1}, {"C", 1}, {"D", 1}, {"E", 1}}, d.TopVaccines)

	require.Len(t, d.Activity, 6)
	assert.Equal(t, "user-1", d.Activity[0].ID)
	assert.Equal(t, "5 minutes ago", d.Activity[0].Ago)
	assert.Equal(t, "pet-1", d.Activity[1].ID)
	assert.Equal(t, `Beagle "Rex" registered`, d.Activity[1].Description)
	assert.Equal(t, "Ann Lee", d.Activity[1].User)
	assert.Equal(t, "appt-1", d.Activity[2].ID)
	assert.Equal(t, `Booking for "Rex"`, d.Activity[2].Description)
	assert.Equal(t, "1 day ago", d.Activity[2].Ago)
}

func TestTimeAgo(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "0 minutes ago", TimeAgo(now, now))
	assert.Equal(t, "1 minute ago", TimeAgo(now.Add(-time.Minute), now))
	assert.Equal(t, "2 hours ago", TimeAgo(now.Add(-2*time.Hour), now))
	assert.Equal(t, "2 months ago", TimeAgo(now.AddDate(0, 0, -65), now))
	assert.Equal(t, "1 year ago", TimeAgo(now.AddDate(-1, 0, -1), now))
	assert.Empty(t, TimeAgo(time.Time{}, now))
}
