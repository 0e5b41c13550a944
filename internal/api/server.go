package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"wanderbook/internal/config"
	"wanderbook/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server exposes the booking flow over HTTP.
type Server struct {
	cfg      config.APIConfig
	catalog  *service.CatalogService
	promos   *service.PromoService
	bookings *service.BookingService
	checkout *service.CheckoutService
	auth     *HTTPAuth
	logger   *zerolog.Logger
	server   *http.Server
}

func NewServer(
	cfg config.APIConfig,
	catalog *service.CatalogService,
	promos *service.PromoService,
	bookings *service.BookingService,
	checkout *service.CheckoutService,
	logger *zerolog.Logger,
) *Server {
	s := &Server{
		cfg:      cfg,
		catalog:  catalog,
		promos:   promos,
		bookings: bookings,
		checkout: checkout,
		auth:     NewHTTPAuth(cfg),
		logger:   logger,
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return s
}

// Routes builds the router. Exposed separately for httptest.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.loggingMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.auth.Wrap)

		r.Get("/experiences", s.handleListExperiences)
		r.Get("/experiences/{id}", s.handleGetExperience)
		r.Get("/experiences/{id}/slots", s.handleSlots)
		r.Get("/experiences/{id}/availability", s.handleAvailability)

		r.Post("/promos/validate", s.handleValidatePromo)

		r.Post("/bookings", s.handleCreateBooking)
		r.Get("/bookings/{id}", s.handleGetBooking)

		r.Post("/checkout", s.handleStartCheckout)
		r.Get("/checkout/{sessionID}", s.handleGetCheckout)
		r.Patch("/checkout/{sessionID}", s.handleUpdateCheckout)
		r.Delete("/checkout/{sessionID}", s.handleClearCheckout)
	})

	return r
}

func (s *Server) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
