package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"wanderbook/internal/database"
	"wanderbook/internal/domain"
	"wanderbook/internal/metrics"
	"wanderbook/internal/models"

	"github.com/rs/zerolog"
)

type PromoService struct {
	store          domain.Store
	rejectUpcoming bool
	logger         *zerolog.Logger
}

func NewPromoService(store domain.Store, rejectUpcoming bool, logger *zerolog.Logger) *PromoService {
	return &PromoService{
		store:          store,
		rejectUpcoming: rejectUpcoming,
		logger:         logger,
	}
}

// Validate checks a promo code against current state and returns a verdict.
// Read-only: current_uses is incremented only inside the booking commit
// transaction. A Valid verdict here is advisory and can still lose the race
// at commit time.
func (s *PromoService) Validate(ctx context.Context, code string, now time.Time) (*models.PromoCode, models.PromoVerdict, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		metrics.IncPromoValidation(string(models.PromoNotFound))
		return nil, models.PromoNotFound, nil
	}

	promo, err := s.store.GetPromoByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			metrics.IncPromoValidation(string(models.PromoNotFound))
			return nil, models.PromoNotFound, nil
		}
		return nil, "", err
	}

	verdict := s.verdict(promo, now)
	metrics.IncPromoValidation(string(verdict))
	if verdict != models.PromoValid {
		s.logger.Debug().
			Str("code", normalized).
			Str("verdict", string(verdict)).
			Msg("promo rejected")
		return nil, verdict, nil
	}

	return promo, models.PromoValid, nil
}

func (s *PromoService) verdict(promo *models.PromoCode, now time.Time) models.PromoVerdict {
	if !promo.IsActive {
		return models.PromoInactive
	}
	if !promo.ValidUntil.IsZero() && now.After(promo.ValidUntil) {
		return models.PromoExpired
	}
	if s.rejectUpcoming && !promo.ValidFrom.IsZero() && now.Before(promo.ValidFrom) {
		return models.PromoUpcoming
	}
	if promo.Exhausted() {
		return models.PromoExhausted
	}
	return models.PromoValid
}
