package assemble

import (
	"fmt"
	"sort"
	"time"

	"vetadmin/internal/records"
)

const (
	activityLimit   = 6
	topVaccineLimit = 5
)

// DashboardSource is what the dashboard is built from: the first page of each
// table (totals come from pagination) plus appointment pet links.
type DashboardSource struct {
	Pets           records.Page[records.Pet]
	Users          records.Page[records.User]
	Appointments   records.Page[records.Appointment]
	MedicalRecords records.Page[records.MedicalRecord]
	VaccineRecords records.Page[records.VaccineRecord]
	Links          []records.AppointmentPetLink
}

type Totals struct {
	Pets           int `json:"pets"`
	Users          int `json:"users"`
	Appointments   int `json:"appointments"`
	MedicalRecords int `json:"medicalRecords"`
	Vaccines       int `json:"vaccines"`
}

type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type ActivityKind string

const (
	ActivityPet         ActivityKind = "registration"
	ActivityUser        ActivityKind = "user"
	ActivityAppointment ActivityKind = "appointment"
)

type Activity struct {
	ID          string       `json:"id"`
	Kind        ActivityKind `json:"type"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	At          time.Time    `json:"at"`
	Ago         string       `json:"timestamp"`
	User        string       `json:"user,omitempty"`
	Pet         string       `json:"pet,omitempty"`
}

type Dashboard struct {
	Totals            Totals     `json:"totals"`
	PetTypes          []Count    `json:"petTypes"`
	AppointmentStatus []Count    `json:"appointmentStatus"`
	TopVaccines       []Count    `json:"topVaccines"`
	Activity          []Activity `json:"activity"`
}

// BuildDashboard computes stats cards, charts and the recent activity feed.
func BuildDashboard(src DashboardSource, now time.Time) Dashboard {
	d := Dashboard{
		Totals: Totals{
			Pets:           src.Pets.Pagination.Total,
			Users:          src.Users.Pagination.Total,
			Appointments:   src.Appointments.Pagination.Total,
			MedicalRecords: src.MedicalRecords.Pagination.Total,
			Vaccines:       src.VaccineRecords.Pagination.Total,
		},
	}

	dogs, cats := 0, 0
	for _, p := range src.Pets.Data {
		switch p.Type {
		case records.SpeciesDog:
			dogs++
		case records.SpeciesCat:
			cats++
		}
	}
	d.PetTypes = []Count{{Name: "Dogs", Count: dogs}, {Name: "Cats", Count: cats}}

	completed, pending := 0, 0
	for _, a := range src.Appointments.Data {
		if a.Status == records.AppointmentBooked {
			completed++
		} else {
			pending++
		}
	}
	d.AppointmentStatus = []Count{{Name: "Completed", Count: completed}, {Name: "Pending", Count: pending}}

	d.TopVaccines = topVaccines(src.VaccineRecords.Data, topVaccineLimit)
	d.Activity = recentActivity(src, now)
	return d
}

// topVaccines counts records per vaccine name. Ties keep first-seen order.
func topVaccines(recs []records.VaccineRecord, limit int) []Count {
	idx := make(map[string]int)
	var counts []Count
	for _, r := range recs {
		i, ok := idx[r.VaccineName]
		if !ok {
			i = len(counts)
			idx[r.VaccineName] = i
			counts = append(counts, Count{Name: r.VaccineName})
		}
		counts[i].Count++
	}
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	if len(counts) > limit {
		counts = counts[:limit]
	}
	if counts == nil {
		counts = []Count{}
	}
	return counts
}

func recentActivity(src DashboardSource, now time.Time) []Activity {
	userByID := Index(src.Users.Data, recordKey[records.User])
	petByID := Index(src.Pets.Data, recordKey[records.Pet])
	firstPet := make(map[int64]int64)
	for _, l := range src.Links {
		if l.PetID == nil {
			continue
		}
		if _, seen := firstPet[l.AppointmentID]; !seen {
			firstPet[l.AppointmentID] = *l.PetID
		}
	}

	var feed []Activity
	for _, p := range src.Pets.Data {
		owner := userByID[p.UserID]
		feed = append(feed, Activity{
			ID:          fmt.Sprintf("pet-%d", p.ID),
			Kind:        ActivityPet,
			Title:       "New Pet Registered",
			Description: fmt.Sprintf("%s %q registered", p.Breed, p.Name),
			At:          timestamp(p.CreatedAt),
			Pet:         p.Name,
			User:        owner.FullName(),
		})
	}
	for _, u := range src.Users.Data {
		feed = append(feed, Activity{
			ID:          fmt.Sprintf("user-%d", u.ID),
			Kind:        ActivityUser,
			Title:       "New User Registration",
			Description: u.FullName() + " joined",
			At:          timestamp(u.CreatedAt),
			User:        u.FullName(),
		})
	}
	for _, a := range src.Appointments.Data {
		petLabel := "a pet"
		var pet string
		if id, ok := firstPet[a.ID]; ok {
			if p, ok := petByID[id]; ok {
				pet = p.Name
				petLabel = p.Name
			}
		}
		feed = append(feed, Activity{
			ID:          fmt.Sprintf("appt-%d", a.ID),
			Kind:        ActivityAppointment,
			Title:       "Appointment " + a.Status,
			Description: fmt.Sprintf("Booking for %q", petLabel),
			At:          timestamp(a.CreatedAt),
			Pet:         pet,
			User:        a.MemberName(),
		})
	}

	sort.SliceStable(feed, func(i, j int) bool { return feed[i].At.After(feed[j].At) })
	if len(feed) > activityLimit {
		feed = feed[:activityLimit]
	}
	for i := range feed {
		feed[i].Ago = TimeAgo(feed[i].At, now)
	}
	if feed == nil {
		feed = []Activity{}
	}
	return feed
}

func timestamp(s string) time.Time {
	t, _ := records.ParseTimestamp(s)
	return t
}

// TimeAgo renders the distance from t to now in the largest whole unit.
func TimeAgo(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	diff := now.Sub(t)
	if diff < 0 {
		diff = 0
	}
	minutes := int(diff / time.Minute)
	hours := minutes / 60
	days := hours / 24
	months := days / 30
	years := days / 365

	switch {
	case years > 0:
		return plural(years, "year")
	case months > 0:
		return plural(months, "month")
	case days > 0:
		return plural(days, "day")
	case hours > 0:
		return plural(hours, "hour")
	default:
		return plural(minutes, "minute")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
