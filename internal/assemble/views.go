package assemble

import (
	"vetadmin/internal/records"
)

const (
	UnregisteredPet = "Unregistered Pet"
	UnknownType     = "N/A"
	UnknownUser     = "Unknown User"
	UnknownEmail    = "N/A"
	NoPet           = "—"
)

func recordKey[R records.Record](r R) int64 { return r.RecordID() }

// AppointmentPet is one pet on an appointment, resolved against the pets table
// when the link names a registered pet.
type AppointmentPet struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Purpose    string `json:"purpose_of_visit"`
	Memo       string `json:"memo"`
	Registered bool   `json:"registered"`
}

type AppointmentView struct {
	records.Appointment
	Pets []AppointmentPet `json:"pets"`
}

// AppointmentViews attaches pet links to appointments. A link whose pet_id is
// null or unknown falls back to the name and type stored on the link.
func AppointmentViews(appts []records.Appointment, links []records.AppointmentPetLink, pets []records.Pet) []AppointmentView {
	petByID := Index(pets, recordKey[records.Pet])
	return Attach(appts, recordKey[records.Appointment], links,
		func(l records.AppointmentPetLink) int64 { return l.AppointmentID },
		func(a records.Appointment, ls []records.AppointmentPetLink) AppointmentView {
			view := AppointmentView{Appointment: a, Pets: make([]AppointmentPet, 0, len(ls))}
			for _, l := range ls {
				view.Pets = append(view.Pets, resolveLink(l, petByID))
			}
			return view
		})
}

func resolveLink(l records.AppointmentPetLink, petByID map[int64]records.Pet) AppointmentPet {
	ap := AppointmentPet{
		ID:      l.ID,
		Purpose: l.PurposeOfVisit,
		Memo:    l.Memo,
	}
	var pet *records.Pet
	if l.PetID != nil {
		ap.ID = *l.PetID
		if p, ok := petByID[*l.PetID]; ok {
			pet = &p
			ap.Registered = true
		}
	}
	ap.Name = firstNonEmpty(petName(pet), deref(l.Name), UnregisteredPet)
	ap.Type = firstNonEmpty(petType(pet), deref(l.Type), UnknownType)
	return ap
}

func petName(p *records.Pet) string {
	if p == nil {
		return ""
	}
	return p.Name
}

func petType(p *records.Pet) string {
	if p == nil {
		return ""
	}
	return p.Type
}

type MedicalRecordView struct {
	records.MedicalRecord
	Photos  []records.MedicalRecordPhoto `json:"photos"`
	PetName string                       `json:"pet_name,omitempty"`
}

// PhotosBy returns the photos uploaded by one side, "user" or "hospital".
func (v MedicalRecordView) PhotosBy(uploader string) []records.MedicalRecordPhoto {
	var out []records.MedicalRecordPhoto
	for _, p := range v.Photos {
		if p.UploadedBy == uploader {
			out = append(out, p)
		}
	}
	return out
}

func MedicalRecordViews(recs []records.MedicalRecord, photos []records.MedicalRecordPhoto, pets []records.Pet) []MedicalRecordView {
	petByID := Index(pets, recordKey[records.Pet])
	return Attach(recs, recordKey[records.MedicalRecord], photos,
		func(p records.MedicalRecordPhoto) int64 { return p.MedicalRecordID },
		func(r records.MedicalRecord, ps []records.MedicalRecordPhoto) MedicalRecordView {
			return MedicalRecordView{
				MedicalRecord: r,
				Photos:        ps,
				PetName:       petByID[r.PetID].Name,
			}
		})
}

type VaccineHistoryView struct {
	records.VaccineHistory
	Photos []records.VaccineHistoryPhoto `json:"photos"`
}

type VaccineRecordView struct {
	records.VaccineRecord
	Images  []records.VaccineRecordImage `json:"images"`
	History []VaccineHistoryView         `json:"history"`
	PetName string                       `json:"pet_name,omitempty"`
}

// VaccineRecordViews joins bottom-up: photos into history entries first, then
// images and the enriched history into records.
func VaccineRecordViews(
	recs []records.VaccineRecord,
	images []records.VaccineRecordImage,
	history []records.VaccineHistory,
	photos []records.VaccineHistoryPhoto,
	pets []records.Pet,
) []VaccineRecordView {
	enriched := Attach(history, recordKey[records.VaccineHistory], photos,
		func(p records.VaccineHistoryPhoto) int64 { return p.VaccineHistoryID },
		func(h records.VaccineHistory, ps []records.VaccineHistoryPhoto) VaccineHistoryView {
			return VaccineHistoryView{VaccineHistory: h, Photos: ps}
		})

	historyByRecord := GroupBy(enriched, func(h VaccineHistoryView) int64 { return h.VaccineID })
	petByID := Index(pets, recordKey[records.Pet])

	return Attach(recs, recordKey[records.VaccineRecord], images,
		func(i records.VaccineRecordImage) int64 { return i.VaccineRecordID },
		func(r records.VaccineRecord, imgs []records.VaccineRecordImage) VaccineRecordView {
			hs := historyByRecord[r.ID]
			if hs == nil {
				hs = []VaccineHistoryView{}
			}
			return VaccineRecordView{
				VaccineRecord: r,
				Images:        imgs,
				History:       hs,
				PetName:       petByID[r.PetID].Name,
			}
		})
}

type UserView struct {
	records.User
	Pets      []records.Pet `json:"pets"`
	PetsCount int           `json:"petsCount"`
}

func UserViews(users []records.User, pets []records.Pet) []UserView {
	return Attach(users, recordKey[records.User], pets,
		func(p records.Pet) int64 { return p.UserID },
		func(u records.User, ps []records.Pet) UserView {
			return UserView{User: u, Pets: ps, PetsCount: len(ps)}
		})
}

type EventView struct {
	records.UpcomingEvent
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`
	PetName   string `json:"petName"`
}

// EventViews resolves the owner and pet of each event. Missing references get
// placeholder text instead of being dropped.
func EventViews(events []records.UpcomingEvent, users []records.User, pets []records.Pet) []EventView {
	userByID := Index(users, recordKey[records.User])
	petByID := Index(pets, recordKey[records.Pet])
	return Map(events, func(e records.UpcomingEvent) EventView {
		v := EventView{
			UpcomingEvent: e,
			UserName:      UnknownUser,
			UserEmail:     UnknownEmail,
			PetName:       NoPet,
		}
		if u, ok := userByID[e.UserID]; ok {
			v.UserName = u.FullName()
			v.UserEmail = u.Email
		}
		if e.PetID != nil {
			if p, ok := petByID[*e.PetID]; ok {
				v.PetName = p.Name
			}
		}
		return v
	})
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
