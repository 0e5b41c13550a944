package domain

import (
	"context"
	"time"

	"wanderbook/internal/models"
)

// Store is the persistence capability handle passed into each service. It is
// injected explicitly so the core stays testable without a live database.
type Store interface {
	// Catalog reads
	GetExperience(ctx context.Context, id string) (*models.Experience, error)
	ListExperiences(ctx context.Context, query, category string) ([]*models.Experience, error)
	GetSlot(ctx context.Context, id string) (*models.Slot, error)
	GetSlotsForDate(ctx context.Context, experienceID string, date time.Time) ([]*models.Slot, error)
	GetAvailabilityWindow(ctx context.Context, experienceID string, startDate time.Time, days int) ([]*models.DayAvailability, error)

	// Promo reads
	GetPromoByCode(ctx context.Context, code string) (*models.PromoCode, error)
	GetPromoByID(ctx context.Context, id string) (*models.PromoCode, error)

	// Booking ledger
	CommitBooking(ctx context.Context, booking *models.Booking, promoID string) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	GetBookingByIdempotencyKey(ctx context.Context, key string) (*models.Booking, error)
	GetBookingDetails(ctx context.Context, id string) (*models.BookingDetails, error)
	GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error)
}

// StateRepository persists in-progress checkout sessions.
type StateRepository interface {
	GetState(ctx context.Context, sessionID string) (*models.CheckoutState, error)
	SetState(ctx context.Context, state *models.CheckoutState) error
	ClearState(ctx context.Context, sessionID string) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// EventPublisher pushes domain events to in-process subscribers.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// ReportWorker schedules booking-report regeneration.
type ReportWorker interface {
	EnqueueReport(ctx context.Context, start, end time.Time) error
}
