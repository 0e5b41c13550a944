package api

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"wanderbook/internal/database"
	"wanderbook/internal/metrics"
	"wanderbook/internal/models"
	"wanderbook/internal/pricing"
	"wanderbook/internal/service"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListExperiences(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("list_experiences")

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	category := strings.TrimSpace(r.URL.Query().Get("category"))

	experiences, err := s.catalog.ListExperiences(r.Context(), query, category)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"experiences": experiences})
}

func (s *Server) handleGetExperience(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("get_experience")

	experience, err := s.catalog.GetExperience(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, experience)
}

func (s *Server) handleSlots(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("get_slots")

	dateStr := strings.TrimSpace(r.URL.Query().Get("date"))
	if dateStr == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	slots, err := s.catalog.GetSlotsForDate(r.Context(), chi.URLParam(r, "id"), date)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"slots": slots})
}

func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("get_availability")

	start := time.Now()
	if raw := strings.TrimSpace(r.URL.Query().Get("start")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start format; expected YYYY-MM-DD")
			return
		}
		start = parsed
	}

	days := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("days")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid days")
			return
		}
		days = parsed
	}

	window, err := s.catalog.GetAvailabilityWindow(r.Context(), chi.URLParam(r, "id"), start, days)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"availability": window})
}

type validatePromoRequest struct {
	Code         string `json:"code"`
	ExperienceID string `json:"experience_id,omitempty"`
	Guests       int64  `json:"guests,omitempty"`
}

type validatePromoResponse struct {
	Code    string         `json:"code"`
	Verdict string         `json:"verdict"`
	Valid   bool           `json:"valid"`
	Promo   *promoPreview  `json:"promo,omitempty"`
	Quote   *pricing.Quote `json:"quote,omitempty"`
}

type promoPreview struct {
	DiscountType  string  `json:"discount_type"`
	DiscountValue float64 `json:"discount_value"`
}

func (s *Server) handleValidatePromo(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("validate_promo")

	var body validatePromoRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(body.Code) == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	promo, verdict, err := s.promos.Validate(r.Context(), body.Code, time.Now())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	resp := validatePromoResponse{
		Code:    strings.ToUpper(strings.TrimSpace(body.Code)),
		Verdict: string(verdict),
		Valid:   verdict == models.PromoValid,
	}

	if promo != nil {
		resp.Promo = &promoPreview{
			DiscountType:  promo.DiscountType,
			DiscountValue: promo.DiscountValue,
		}

		// Опциональный расчет предварительной цены
		if body.ExperienceID != "" && body.Guests > 0 {
			experience, err := s.catalog.GetExperience(r.Context(), body.ExperienceID)
			if err != nil {
				s.writeServiceError(w, err)
				return
			}
			quote, err := pricing.Calculate(experience.Price, body.Guests, promo)
			if err != nil {
				s.writeServiceError(w, err)
				return
			}
			rounded := quote.Rounded()
			resp.Quote = &rounded
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("create_booking")

	var req service.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.IdempotencyKey = strings.TrimSpace(r.Header.Get("Idempotency-Key"))

	booking, err := s.bookings.CreateBooking(r.Context(), &req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, booking)
}

func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("get_booking")

	details, err := s.bookings.GetBookingDetails(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, details)
}

type startCheckoutRequest struct {
	ExperienceID string `json:"experience_id"`
	SlotID       string `json:"slot_id"`
	Guests       int64  `json:"guests"`
}

func (s *Server) handleStartCheckout(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("start_checkout")

	if !s.allowCheckout(w, r, remoteHost(r)) {
		return
	}

	var body startCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.ExperienceID == "" || body.SlotID == "" {
		writeError(w, http.StatusBadRequest, "experience_id and slot_id are required")
		return
	}

	state, err := s.checkout.StartCheckout(r.Context(), body.ExperienceID, body.SlotID, body.Guests)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, state)
}

func (s *Server) handleGetCheckout(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("get_checkout")

	sessionID := chi.URLParam(r, "sessionID")
	state, err := s.checkout.GetCheckout(r.Context(), sessionID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if state == nil {
		writeError(w, http.StatusNotFound, "checkout session not found")
		return
	}

	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleUpdateCheckout(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("update_checkout")

	sessionID := chi.URLParam(r, "sessionID")
	if !s.allowCheckout(w, r, sessionID) {
		return
	}

	var patch models.CheckoutState
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	state, err := s.checkout.UpdateCheckout(r.Context(), sessionID, func(cur *models.CheckoutState) {
		if patch.Guests > 0 {
			cur.Guests = patch.Guests
		}
		if patch.PromoCode != "" {
			cur.PromoCode = patch.PromoCode
		}
		if patch.CustomerName != "" {
			cur.CustomerName = patch.CustomerName
		}
		if patch.CustomerEmail != "" {
			cur.CustomerEmail = patch.CustomerEmail
		}
		if patch.CustomerPhone != "" {
			cur.CustomerPhone = patch.CustomerPhone
		}
		if !patch.SelectedDate.IsZero() {
			cur.SelectedDate = patch.SelectedDate
		}
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleClearCheckout(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("clear_checkout")

	if err := s.checkout.ClearCheckout(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		s.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) allowCheckout(w http.ResponseWriter, r *http.Request, key string) bool {
	allowed, err := s.checkout.AllowRequest(r.Context(), key)
	if err != nil {
		s.writeServiceError(w, err)
		return false
	}
	if !allowed {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return false
	}
	return true
}

// writeServiceError maps domain failures onto HTTP status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	var promoRejected *service.PromoRejectedError

	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, database.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &promoRejected):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error":   "promo code rejected",
			"verdict": string(promoRejected.Verdict),
		})
	case errors.Is(err, database.ErrInsufficientCapacity):
		writeError(w, http.StatusConflict, "not enough spots available")
	case errors.Is(err, database.ErrPromoExhausted):
		writeError(w, http.StatusConflict, "promo code exhausted")
	default:
		s.logger.Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return clientKeyUnknown
}
