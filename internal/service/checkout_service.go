package service

import (
	"context"
	"fmt"
	"time"

	"wanderbook/internal/domain"
	"wanderbook/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CheckoutService keeps in-progress checkout form state. Sessions are
// ephemeral: nothing here reserves capacity, and an abandoned session simply
// expires.
type CheckoutService struct {
	stateRepo  domain.StateRepository
	rateLimit  int
	rateWindow time.Duration
	logger     *zerolog.Logger
}

func NewCheckoutService(stateRepo domain.StateRepository, rateLimit int, rateWindowSeconds int, logger *zerolog.Logger) *CheckoutService {
	if rateLimit <= 0 {
		rateLimit = models.RateLimitRequests
	}
	if rateWindowSeconds <= 0 {
		rateWindowSeconds = models.RateLimitWindow
	}
	return &CheckoutService{
		stateRepo:  stateRepo,
		rateLimit:  rateLimit,
		rateWindow: time.Duration(rateWindowSeconds) * time.Second,
		logger:     logger,
	}
}

// StartCheckout creates a fresh session for the given slot selection.
func (s *CheckoutService) StartCheckout(ctx context.Context, experienceID, slotID string, guests int64) (*models.CheckoutState, error) {
	state := &models.CheckoutState{
		SessionID:    uuid.NewString(),
		ExperienceID: experienceID,
		SlotID:       slotID,
		Guests:       guests,
		UpdatedAt:    time.Now(),
	}
	if err := s.stateRepo.SetState(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to start checkout session: %w", err)
	}
	return state, nil
}

func (s *CheckoutService) GetCheckout(ctx context.Context, sessionID string) (*models.CheckoutState, error) {
	state, err := s.stateRepo.GetState(ctx, sessionID)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to get checkout state")
		return nil, err
	}
	return state, nil
}

// UpdateCheckout applies mutate to the current state (or a new blank one) and
// persists the result with a refreshed UpdatedAt.
func (s *CheckoutService) UpdateCheckout(ctx context.Context, sessionID string, mutate func(*models.CheckoutState)) (*models.CheckoutState, error) {
	state, err := s.stateRepo.GetState(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = &models.CheckoutState{SessionID: sessionID}
	}

	mutate(state)
	state.UpdatedAt = time.Now()

	if err := s.stateRepo.SetState(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *CheckoutService) ClearCheckout(ctx context.Context, sessionID string) error {
	return s.stateRepo.ClearState(ctx, sessionID)
}

// AllowRequest enforces the per-session request budget.
func (s *CheckoutService) AllowRequest(ctx context.Context, key string) (bool, error) {
	return s.stateRepo.CheckRateLimit(ctx, key, s.rateLimit, s.rateWindow)
}
