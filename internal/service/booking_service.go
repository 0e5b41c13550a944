package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"wanderbook/internal/database"
	"wanderbook/internal/domain"
	"wanderbook/internal/events"
	"wanderbook/internal/metrics"
	"wanderbook/internal/models"
	"wanderbook/internal/pricing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CreateBookingRequest carries checkout form input. Totals are never part of
// the request: the server recomputes the price from catalog state.
type CreateBookingRequest struct {
	SlotID         string `json:"slot_id"`
	ExperienceID   string `json:"experience_id"`
	CustomerName   string `json:"customer_name"`
	CustomerEmail  string `json:"customer_email"`
	CustomerPhone  string `json:"customer_phone"`
	NumberOfGuests int64  `json:"number_of_guests"`
	PromoCode      string `json:"promo_code,omitempty"`
	IdempotencyKey string `json:"-"`
}

// PromoRejectedError is returned when the promo supplied at commit fails
// server-side re-validation.
type PromoRejectedError struct {
	Code    string
	Verdict models.PromoVerdict
}

func (e *PromoRejectedError) Error() string {
	return fmt.Sprintf("promo code %s rejected: %s", e.Code, e.Verdict)
}

type BookingService struct {
	store        domain.Store
	promos       *PromoService
	eventBus     domain.EventPublisher
	reportWorker domain.ReportWorker
	minGuests    int64
	maxGuests    int64
	logger       *zerolog.Logger
}

func NewBookingService(store domain.Store, promos *PromoService, eventBus domain.EventPublisher, reportWorker domain.ReportWorker, minGuests, maxGuests int64, logger *zerolog.Logger) *BookingService {
	if minGuests <= 0 {
		minGuests = models.MinGuests
	}
	if maxGuests < minGuests {
		maxGuests = models.MaxGuests
	}
	return &BookingService{
		store:        store,
		promos:       promos,
		eventBus:     eventBus,
		reportWorker: reportWorker,
		minGuests:    minGuests,
		maxGuests:    maxGuests,
		logger:       logger,
	}
}

func (s *BookingService) ValidateRequest(req *CreateBookingRequest) error {
	if req.SlotID == "" {
		return fmt.Errorf("%w: slot_id is required", database.ErrValidation)
	}
	if req.ExperienceID == "" {
		return fmt.Errorf("%w: experience_id is required", database.ErrValidation)
	}
	if len(strings.TrimSpace(req.CustomerName)) < models.MinNameLen {
		return fmt.Errorf("%w: customer_name must be at least %d characters", database.ErrValidation, models.MinNameLen)
	}
	if _, err := mail.ParseAddress(req.CustomerEmail); err != nil {
		return fmt.Errorf("%w: customer_email is not a valid address", database.ErrValidation)
	}
	if countDigits(req.CustomerPhone) < models.MinPhoneDigits {
		return fmt.Errorf("%w: customer_phone must contain at least %d digits", database.ErrValidation, models.MinPhoneDigits)
	}
	if req.NumberOfGuests < s.minGuests || req.NumberOfGuests > s.maxGuests {
		return fmt.Errorf("%w: number_of_guests must be between %d and %d", database.ErrValidation, s.minGuests, s.maxGuests)
	}
	return nil
}

// CreateBooking commits a booking atomically: capacity decrement, ledger
// insert and promo redemption happen in one transaction or not at all.
func (s *BookingService) CreateBooking(ctx context.Context, req *CreateBookingRequest) (*models.Booking, error) {
	if err := s.ValidateRequest(req); err != nil {
		metrics.IncBookingCommit("validation_error")
		return nil, err
	}

	// Повтор с тем же ключом возвращает исходную бронь
	if req.IdempotencyKey != "" {
		existing, err := s.store.GetBookingByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil && !errors.Is(err, database.ErrNotFound) {
			return nil, err
		}
		if existing != nil {
			metrics.IncBookingCommit("replayed")
			s.logger.Info().
				Str("booking_id", existing.ID).
				Str("idempotency_key", req.IdempotencyKey).
				Msg("idempotent replay, returning original booking")
			return existing, nil
		}
	}

	slot, err := s.store.GetSlot(ctx, req.SlotID)
	if err != nil {
		return nil, err
	}
	if slot.ExperienceID != req.ExperienceID {
		metrics.IncBookingCommit("validation_error")
		return nil, fmt.Errorf("%w: slot does not belong to experience", database.ErrValidation)
	}

	experience, err := s.store.GetExperience(ctx, req.ExperienceID)
	if err != nil {
		return nil, err
	}

	// Промокод перепроверяется по свежему состоянию, клиенту не доверяем
	var promo *models.PromoCode
	if req.PromoCode != "" {
		validated, verdict, err := s.promos.Validate(ctx, req.PromoCode, time.Now())
		if err != nil {
			return nil, err
		}
		if verdict != models.PromoValid {
			metrics.IncBookingCommit("promo_rejected")
			return nil, &PromoRejectedError{Code: req.PromoCode, Verdict: verdict}
		}
		promo = validated
	}

	quote, err := pricing.Calculate(experience.Price, req.NumberOfGuests, promo)
	if err != nil {
		metrics.IncBookingCommit("validation_error")
		return nil, err
	}
	rounded := quote.Rounded()

	booking := &models.Booking{
		ID:             uuid.NewString(),
		SlotID:         slot.ID,
		ExperienceID:   experience.ID,
		CustomerName:   strings.TrimSpace(req.CustomerName),
		CustomerEmail:  strings.TrimSpace(req.CustomerEmail),
		CustomerPhone:  strings.TrimSpace(req.CustomerPhone),
		NumberOfGuests: req.NumberOfGuests,
		TotalPrice:     rounded.Total,
		DiscountAmount: rounded.Discount,
		Status:         models.StatusConfirmed,
		IdempotencyKey: req.IdempotencyKey,
	}
	var promoID string
	if promo != nil {
		booking.PromoCode = promo.Code
		promoID = promo.ID
	}

	if err := s.store.CommitBooking(ctx, booking, promoID); err != nil {
		switch {
		case errors.Is(err, database.ErrInsufficientCapacity):
			metrics.IncBookingCommit("insufficient_capacity")
		case errors.Is(err, database.ErrPromoExhausted):
			metrics.IncBookingCommit("promo_exhausted")
		default:
			metrics.IncBookingCommit("error")
		}
		return nil, err
	}

	metrics.IncBookingCommit("confirmed")
	s.logger.Info().
		Str("booking_id", booking.ID).
		Str("slot_id", booking.SlotID).
		Int64("guests", booking.NumberOfGuests).
		Float64("total", booking.TotalPrice).
		Msg("booking confirmed")

	s.publishBookingConfirmed(booking)
	if promo != nil {
		s.publishPromoRedeemed(promo, booking)
	}
	s.enqueueReport(ctx, booking)

	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return s.store.GetBooking(ctx, id)
}

func (s *BookingService) GetBookingDetails(ctx context.Context, id string) (*models.BookingDetails, error) {
	return s.store.GetBookingDetails(ctx, id)
}

func (s *BookingService) GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error) {
	return s.store.GetBookingsByDateRange(ctx, start, end)
}

func (s *BookingService) publishBookingConfirmed(booking *models.Booking) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:      booking.ID,
		SlotID:         booking.SlotID,
		ExperienceID:   booking.ExperienceID,
		CustomerName:   booking.CustomerName,
		NumberOfGuests: booking.NumberOfGuests,
		TotalPrice:     booking.TotalPrice,
		PromoCode:      booking.PromoCode,
		DiscountAmount: booking.DiscountAmount,
		Status:         booking.Status,
		CreatedAt:      booking.CreatedAt,
	}

	if err := s.eventBus.PublishJSON(events.EventBookingConfirmed, payload); err != nil {
		s.logger.Error().Err(err).Str("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *BookingService) publishPromoRedeemed(promo *models.PromoCode, booking *models.Booking) {
	if s.eventBus == nil {
		return
	}

	payload := events.PromoEventPayload{
		PromoID:   promo.ID,
		Code:      promo.Code,
		BookingID: booking.ID,
	}

	if err := s.eventBus.PublishJSON(events.EventPromoRedeemed, payload); err != nil {
		s.logger.Error().Err(err).Str("promo_id", promo.ID).Msg("publish event error")
	}
}

func (s *BookingService) enqueueReport(ctx context.Context, booking *models.Booking) {
	if s.reportWorker == nil {
		return
	}

	// Конец окна отчета привязан к моменту создания брони
	end := booking.CreatedAt
	if end.IsZero() {
		end = time.Now()
	}

	if err := s.reportWorker.EnqueueReport(ctx, time.Time{}, end); err != nil {
		s.logger.Error().Err(err).Str("booking_id", booking.ID).Msg("report enqueue error")
	}
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
