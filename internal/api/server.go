// Package api serves the admin console over HTTP.
package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"vetadmin/internal/console"
	"vetadmin/internal/metrics"
	"vetadmin/internal/records"
)

// Options configures an HTTPServer. Redis is pinged by /readyz when set.
// An empty APIKeys list disables authentication.
type Options struct {
	APIKeys []string
	Redis   *redis.Client
	Logger  *zerolog.Logger
}

type HTTPServer struct {
	svc     *console.Service
	redis   *redis.Client
	apiKeys []string
	logger  *zerolog.Logger
	handler http.Handler
}

func NewHTTPServer(svc *console.Service, opts Options) *HTTPServer {
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	s := &HTTPServer{
		svc:     svc,
		redis:   opts.Redis,
		apiKeys: opts.APIKeys,
		logger:  logger,
	}
	s.handler = s.routes()
	return s
}

func (s *HTTPServer) Handler() http.Handler { return s.handler }

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()

	s.logger.Info().Str("addr", addr).Msg("console api listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(s.accessLog)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireAPIKey)

		r.Get("/sidebar", s.handleSidebar)
		r.Get("/dashboard", s.handleDashboard)

		r.Route("/appointments", func(r chi.Router) {
			r.Get("/", s.handleAppointments)
			r.Delete("/", s.handleDelete(records.TableAppointments))
			r.Put("/{id}/status", s.handleAppointmentStatus)
			r.Post("/{id}/medical-records", s.handleCreateMedicalRecords)
		})
		r.Route("/pets", func(r chi.Router) {
			r.Get("/", s.handlePets)
			r.Get("/breeds", s.handleBreeds)
			r.Put("/{id}", s.handleUpdatePet)
			r.Delete("/", s.handleDelete(records.TablePets))
		})
		r.Route("/medical-records", func(r chi.Router) {
			r.Get("/", s.handleMedicalRecords)
			r.Put("/{id}", s.handleUpdateMedicalRecord)
			r.Delete("/", s.handleDelete(records.TableMedicalRecords))
		})
		r.Route("/vaccine-records", func(r chi.Router) {
			r.Get("/", s.handleVaccineRecords)
			r.Post("/{id}/history", s.handleAddVaccineHistory)
			r.Delete("/", s.handleDelete(records.TableVaccineRecords))
		})
		r.Route("/users", func(r chi.Router) {
			r.Get("/", s.handleUsers)
			r.Put("/{id}", s.handleUpdateUser)
			r.Delete("/", s.handleDelete(records.TableUsers))
		})
		r.Route("/events", func(r chi.Router) {
			r.Get("/", s.handleEvents)
			r.Post("/{id}/notify", s.handleNotifyEvent)
		})
		r.Post("/notifications/broadcast", s.handleBroadcast)

		r.Route("/catalog/{kind}", func(r chi.Router) {
			r.Get("/", s.handleCatalog)
			r.Post("/", s.handleSaveCatalog)
			r.Put("/{id}", s.handleSaveCatalog)
			r.Delete("/", s.handleDeleteCatalog)
		})

		r.Get("/slots", s.handleSlots)
		r.Post("/slots/toggle", s.handleToggleSlot)

		r.Get("/export/{screen}", s.handleExport)
	})
	return r
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.svc.Ping(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("backend not ready")
		writeError(w, http.StatusServiceUnavailable, "backend not ready")
		return
	}
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("redis not ready")
			writeError(w, http.StatusServiceUnavailable, "redis not ready")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// requireAPIKey accepts the key as "Authorization: Bearer <key>" or "X-API-Key".
func (s *HTTPServer) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(s.apiKeys) == 0 {
			next.ServeHTTP(w, r)
			return
		}
		key := r.Header.Get("X-API-Key")
		if key == "" {
			key = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		}
		for _, k := range s.apiKeys {
			if key != "" && subtle.ConstantTimeCompare([]byte(key), []byte(k)) == 1 {
				next.ServeHTTP(w, r)
				return
			}
		}
		writeError(w, http.StatusUnauthorized, "unauthorized")
	})
}

func (s *HTTPServer) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.IncHTTP(route, status)

		ev := s.logger.Debug()
		if status >= http.StatusInternalServerError {
			ev = s.logger.Warn()
		}
		ev.Str("request_id", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("route", route).
			Int("status", status).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	})
}
