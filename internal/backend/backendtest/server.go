// Package backendtest runs an in-memory admin backend for tests.
package backendtest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"vetadmin/internal/records"
)

type row = map[string]any

// Server is a fake backend holding every table in memory.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	tables   map[string][]row
	nextID   int64
	failing  map[string]int
	requests []Request
	bulk     []records.BroadcastForm
	notified []int64
}

// Request is one call the server received.
type Request struct {
	Method    string
	Path      string
	Query     string
	Auth      string
	RequestID string
	Body      []byte
}

// New starts a fake backend. Close it with Server.Close.
func New() *Server {
	s := &Server{
		tables:  make(map[string][]row),
		nextID:  1000,
		failing: make(map[string]int),
	}

	r := chi.NewRouter()
	r.Use(s.record)
	r.Get("/admin/{table}", s.list)
	r.Post("/admin/{table}", s.create)
	r.Put("/admin/{table}/{id}", s.update)
	r.Delete("/admin/{table}", s.delete)
	r.Post("/fcm/send/{id}", s.sendEvent)
	r.Post("/fcm/send-bulk", s.sendBulk)

	s.Server = httptest.NewServer(r)
	return s
}

// Seed appends rows to a table. Rows are stored in their JSON form.
func (s *Server) Seed(table records.Table, rows ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		data, err := json.Marshal(r)
		if err != nil {
			panic(err)
		}
		var m row
		if err := json.Unmarshal(data, &m); err != nil {
			panic(err)
		}
		s.tables[table.String()] = append(s.tables[table.String()], m)
	}
}

// Rows decodes the current contents of table into out (a pointer to a slice).
func (s *Server) Rows(table records.Table, out any) {
	s.mu.Lock()
	data, err := json.Marshal(s.tables[table.String()])
	s.mu.Unlock()
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		panic(err)
	}
}

// Fail makes the next n requests touching name (a table or "fcm") return 500.
func (s *Server) Fail(name string, n int) {
	s.mu.Lock()
	s.failing[name] = n
	s.mu.Unlock()
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// CountRequests counts received requests with the given method and path.
func (s *Server) CountRequests(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func (s *Server) Notified() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.notified...)
}

func (s *Server) Broadcasts() []records.BroadcastForm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]records.BroadcastForm(nil), s.bulk...)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
		}
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:    r.Method,
			Path:      r.URL.Path,
			Query:     r.URL.RawQuery,
			Auth:      r.Header.Get("Authorization"),
			RequestID: r.Header.Get("X-Request-ID"),
			Body:      body,
		})
		s.mu.Unlock()
		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

// shouldFail consumes one injected failure for name. Caller holds mu.
func (s *Server) shouldFail(name string) bool {
	if s.failing[name] > 0 {
		s.failing[name]--
		return true
	}
	return false
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	if _, ok := records.ParseTable(table); !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "unknown table " + table})
		return
	}
	page := intParam(r, "page", 1)
	limit := intParam(r, "limit", 10)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shouldFail(table) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "boom"})
		return
	}
	rows := s.tables[table]
	total := len(rows)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	totalPages := (total + limit - 1) / limit

	writeJSON(w, http.StatusOK, map[string]any{
		"data": append([]row{}, rows[start:end]...),
		"pagination": records.Pagination{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: totalPages,
		},
	})
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	var in row
	if err := json.Unmarshal(bodyFrom(r), &in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shouldFail(table) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "insert failed"})
		return
	}
	s.nextID++
	in["id"] = float64(s.nextID)
	s.tables[table] = append(s.tables[table], in)
	writeJSON(w, http.StatusCreated, in)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid id"})
		return
	}
	var in row
	if err := json.Unmarshal(bodyFrom(r), &in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shouldFail(table) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "update failed"})
		return
	}
	for _, existing := range s.tables[table] {
		if idOf(existing) == id {
			for k, v := range in {
				existing[k] = v
			}
			writeJSON(w, http.StatusOK, existing)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "record not found"})
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	var in struct {
		IDs []int64 `json:"ids"`
	}
	if err := json.Unmarshal(bodyFrom(r), &in); err != nil || len(in.IDs) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "ids required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shouldFail(table) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "delete failed"})
		return
	}
	drop := make(map[int64]bool, len(in.IDs))
	for _, id := range in.IDs {
		drop[id] = true
	}
	kept := make([]row, 0, len(s.tables[table]))
	removed := 0
	for _, existing := range s.tables[table] {
		if drop[idOf(existing)] {
			removed++
			continue
		}
		kept = append(kept, existing)
	}
	s.tables[table] = kept
	writeJSON(w, http.StatusOK, records.DeleteResult{Message: fmt.Sprintf("%d record(s) deleted", removed)})
}

func (s *Server) sendEvent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid id"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shouldFail("fcm") {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "No device tokens found"})
		return
	}
	s.notified = append(s.notified, id)
	writeJSON(w, http.StatusOK, records.NotificationResult{Message: "sent", SuccessCount: 1})
}

func (s *Server) sendBulk(w http.ResponseWriter, r *http.Request) {
	var in records.BroadcastForm
	if err := json.Unmarshal(bodyFrom(r), &in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shouldFail("fcm") {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "fcm unavailable"})
		return
	}
	s.bulk = append(s.bulk, in)
	devices := len(s.tables[records.TableUsers.String()])
	writeJSON(w, http.StatusOK, records.NotificationResult{Message: "broadcast sent", SuccessCount: devices})
}

// SortedIDs returns the ids of table in ascending order.
func (s *Server) SortedIDs(table records.Table) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.tables[table.String()]))
	for _, r := range s.tables[table.String()] {
		ids = append(ids, idOf(r))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func bodyFrom(r *http.Request) []byte {
	data, _ := io.ReadAll(r.Body)
	return data
}

func idOf(r row) int64 {
	switch v := r["id"].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case json.Number:
		n, _ := v.Int64()
		return n
	}
	return 0
}

func intParam(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
