package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"vetadmin/internal/console"
	"vetadmin/internal/export"
	"vetadmin/internal/records"
)

func (s *HTTPServer) handleSidebar(w http.ResponseWriter, r *http.Request) {
	counts, err := s.svc.Sidebar(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (s *HTTPServer) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Dashboard(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// GET /api/appointments?page&limit&q&status&start&end
func (s *HTTPServer) handleAppointments(w http.ResponseWriter, r *http.Request) {
	f, err := filters(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sc, err := s.svc.Appointments(r.Context(), pageRequest(r), f.Appointments())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (s *HTTPServer) handleAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var form records.AppointmentStatusForm
	if err := decode(w, r, &form); err != nil {
		s.fail(w, r, err)
		return
	}
	appt, err := s.svc.UpdateAppointmentStatus(r.Context(), id, form)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// POST /api/appointments/{id}/medical-records with one draft per pet.
func (s *HTTPServer) handleCreateMedicalRecords(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var drafts []records.MedicalRecordDraft
	if err := decode(w, r, &drafts); err != nil {
		s.fail(w, r, err)
		return
	}
	created, err := s.svc.CreateMedicalRecords(r.Context(), id, drafts)
	if created == nil {
		created = []console.CreatedMedicalRecord{}
	}
	if err != nil {
		if len(created) == 0 {
			s.fail(w, r, err)
			return
		}
		// The records already written are reported so a retry can leave them out.
		s.logger.Error().Err(err).Int64("appointment_id", id).Int("created", len(created)).Msg("medical records partially created")
		writeJSON(w, statusOf(err), map[string]any{"error": err.Error(), "data": created})
		return
	}
	s.logger.Info().Int64("appointment_id", id).Int("records", len(created)).Msg("medical records created from appointment")
	writeJSON(w, http.StatusCreated, map[string]any{"data": created})
}

// GET /api/pets?page&limit&q&type&gender&neutered
func (s *HTTPServer) handlePets(w http.ResponseWriter, r *http.Request) {
	f, err := filters(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sc, err := s.svc.Pets(r.Context(), pageRequest(r), f.Pets())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (s *HTTPServer) handleBreeds(w http.ResponseWriter, r *http.Request) {
	breeds, err := s.svc.BreedsFor(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": breeds})
}

func (s *HTTPServer) handleUpdatePet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var form records.PetForm
	if err := decode(w, r, &form); err != nil {
		s.fail(w, r, err)
		return
	}
	pet, err := s.svc.UpdatePet(r.Context(), id, form)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pet)
}

// GET /api/medical-records?page&limit&q&pet_id&start&end
func (s *HTTPServer) handleMedicalRecords(w http.ResponseWriter, r *http.Request) {
	f, err := filters(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sc, err := s.svc.MedicalRecords(r.Context(), pageRequest(r), f.MedicalRecords())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (s *HTTPServer) handleUpdateMedicalRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var form records.MedicalRecordForm
	if err := decode(w, r, &form); err != nil {
		s.fail(w, r, err)
		return
	}
	rec, err := s.svc.UpdateMedicalRecord(r.Context(), id, form)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// GET /api/vaccine-records?page&limit&q&pet_id&vaccine_type
func (s *HTTPServer) handleVaccineRecords(w http.ResponseWriter, r *http.Request) {
	f, err := filters(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sc, err := s.svc.VaccineRecords(r.Context(), pageRequest(r), f.VaccineRecords())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (s *HTTPServer) handleAddVaccineHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var form records.VaccineHistoryForm
	if err := decode(w, r, &form); err != nil {
		s.fail(w, r, err)
		return
	}
	h, err := s.svc.AddVaccineHistory(r.Context(), id, form)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h)
}

// GET /api/users?page&limit&q&state
func (s *HTTPServer) handleUsers(w http.ResponseWriter, r *http.Request) {
	f, err := filters(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sc, err := s.svc.Users(r.Context(), pageRequest(r), f.Users())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (s *HTTPServer) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var form records.UserForm
	if err := decode(w, r, &form); err != nil {
		s.fail(w, r, err)
		return
	}
	u, err := s.svc.UpdateUser(r.Context(), id, form)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// GET /api/events?page&limit&q
func (s *HTTPServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	f, err := filters(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sc, err := s.svc.Events(r.Context(), pageRequest(r), f.Events())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (s *HTTPServer) handleNotifyEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.NotifyEvent(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *HTTPServer) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	var form records.BroadcastForm
	if err := decode(w, r, &form); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.Broadcast(r.Context(), form)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleDelete removes the ids in the body from table.
func (s *HTTPServer) handleDelete(table records.Table) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form records.DeleteForm
		if err := decode(w, r, &form); err != nil {
			s.fail(w, r, err)
			return
		}
		res, err := s.svc.Delete(r.Context(), table, form)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func catalogKind(r *http.Request) (console.CatalogKind, error) {
	raw := chi.URLParam(r, "kind")
	kind, ok := console.ParseCatalogKind(raw)
	if !ok {
		return "", fmt.Errorf("%w: unknown catalog %q", console.ErrNotFound, raw)
	}
	return kind, nil
}

func (s *HTTPServer) handleCatalog(w http.ResponseWriter, r *http.Request) {
	kind, err := catalogKind(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	items, err := s.svc.Catalog(r.Context(), kind)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": items})
}

// handleSaveCatalog creates on POST and updates on PUT /{id}.
func (s *HTTPServer) handleSaveCatalog(w http.ResponseWriter, r *http.Request) {
	kind, err := catalogKind(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var id int64
	if chi.URLParam(r, "id") != "" {
		if id, err = pathID(r); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	var item console.CatalogItem
	if err := decode(w, r, &item); err != nil {
		s.fail(w, r, err)
		return
	}
	saved, err := s.svc.SaveCatalogItem(r.Context(), kind, id, item)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	status := http.StatusOK
	if id == 0 {
		status = http.StatusCreated
	}
	writeJSON(w, status, saved)
}

func (s *HTTPServer) handleDeleteCatalog(w http.ResponseWriter, r *http.Request) {
	kind, err := catalogKind(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var form records.DeleteForm
	if err := decode(w, r, &form); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.DeleteCatalogItems(r.Context(), kind, form)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /api/slots?month=YYYY-MM&date=YYYY-MM-DD
func (s *HTTPServer) handleSlots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sc, err := s.svc.Slots(r.Context(), q.Get("month"), q.Get("date"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (s *HTTPServer) handleToggleSlot(w http.ResponseWriter, r *http.Request) {
	var form records.SlotToggleForm
	if err := decode(w, r, &form); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.svc.ToggleSlot(r.Context(), form)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /api/export/{screen} with the screen's filters; responds with an xlsx file.
func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "screen")
	screen, ok := console.ParseExportScreen(raw)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown export %q", raw))
		return
	}
	f, err := filters(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sheet, err := s.svc.Export(r.Context(), screen, f)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, sheet); err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", screen.FileName()))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
