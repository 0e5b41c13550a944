package service

import (
	"context"
	"time"

	"wanderbook/internal/domain"
	"wanderbook/internal/models"

	"github.com/rs/zerolog"
)

type CatalogService struct {
	store            domain.Store
	availabilityDays int
	logger           *zerolog.Logger
}

func NewCatalogService(store domain.Store, availabilityDays int, logger *zerolog.Logger) *CatalogService {
	if availabilityDays <= 0 {
		availabilityDays = models.DefaultAvailabilityDays
	}
	return &CatalogService{
		store:            store,
		availabilityDays: availabilityDays,
		logger:           logger,
	}
}

func (s *CatalogService) GetExperience(ctx context.Context, id string) (*models.Experience, error) {
	return s.store.GetExperience(ctx, id)
}

// ListExperiences filters by substring query (title, location, category) and
// an optional exact category. Empty arguments return the whole catalog.
func (s *CatalogService) ListExperiences(ctx context.Context, query, category string) ([]*models.Experience, error) {
	return s.store.ListExperiences(ctx, query, category)
}

func (s *CatalogService) GetSlot(ctx context.Context, id string) (*models.Slot, error) {
	return s.store.GetSlot(ctx, id)
}

func (s *CatalogService) GetSlotsForDate(ctx context.Context, experienceID string, date time.Time) ([]*models.Slot, error) {
	return s.store.GetSlotsForDate(ctx, experienceID, date)
}

// GetAvailabilityWindow returns per-day open capacity starting at startDate.
// days <= 0 falls back to the configured window.
func (s *CatalogService) GetAvailabilityWindow(ctx context.Context, experienceID string, startDate time.Time, days int) ([]*models.DayAvailability, error) {
	if days <= 0 {
		days = s.availabilityDays
	}
	return s.store.GetAvailabilityWindow(ctx, experienceID, startDate, days)
}
