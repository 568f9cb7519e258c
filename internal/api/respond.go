package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"vetadmin/internal/backend"
	"vetadmin/internal/console"
	"vetadmin/internal/export"
	"vetadmin/internal/records"
	"vetadmin/internal/slots"
)

const maxBodyBytes = 8 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusOf maps a service error onto the HTTP status shown to the console.
func statusOf(err error) int {
	var herr *backend.HTTPError
	switch {
	case errors.Is(err, records.ErrInvalidForm), errors.Is(err, export.ErrNoData):
		return http.StatusBadRequest
	case errors.Is(err, console.ErrNotFound),
		errors.As(err, &herr) && herr.StatusCode == http.StatusNotFound:
		return http.StatusNotFound
	case errors.Is(err, slots.ErrToggleInProgress), errors.Is(err, slots.ErrDaySuperseded):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

func (s *HTTPServer) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeError(w, status, err.Error())
}

// decode reads a JSON body into v, rejecting unknown fields.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", records.ErrInvalidForm, err)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", records.ErrInvalidForm, chi.URLParam(r, "id"))
	}
	return id, nil
}

func pageRequest(r *http.Request) console.PageRequest {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return console.PageRequest{Page: page, Limit: limit}
}

// filters reads every screen filter from the query string.
func filters(r *http.Request) (console.Filters, error) {
	q := r.URL.Query()
	f := console.Filters{
		Query:       strings.TrimSpace(q.Get("q")),
		Status:      q.Get("status"),
		Type:        q.Get("type"),
		Gender:      q.Get("gender"),
		Neutered:    q.Get("neutered"),
		State:       q.Get("state"),
		VaccineType: q.Get("vaccine_type"),
		Dates:       console.DateRange{Start: q.Get("start"), End: q.Get("end")},
	}
	if raw := q.Get("pet_id"); raw != "" && raw != console.All {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return f, fmt.Errorf("%w: invalid pet_id %q", records.ErrInvalidForm, raw)
		}
		f.PetID = id
	}
	return f, nil
}
