package repository

import (
	"context"
	"sync"
	"time"

	"wanderbook/internal/models"
)

type MemoryStateRepository struct {
	states     sync.Map
	rateLimits sync.Map
	ttl        time.Duration
}

func NewMemoryStateRepository(ttl time.Duration) *MemoryStateRepository {
	return &MemoryStateRepository{
		ttl: ttl,
	}
}

func (r *MemoryStateRepository) GetState(ctx context.Context, sessionID string) (*models.CheckoutState, error) {
	val, ok := r.states.Load(sessionID)
	if !ok {
		return nil, nil
	}
	entry := val.(*stateEntry)
	if time.Now().After(entry.expiresAt) {
		r.states.Delete(sessionID)
		return nil, nil
	}
	return entry.state, nil
}

func (r *MemoryStateRepository) SetState(ctx context.Context, state *models.CheckoutState) error {
	r.states.Store(state.SessionID, &stateEntry{
		state:     state,
		expiresAt: time.Now().Add(r.ttl),
	})
	return nil
}

func (r *MemoryStateRepository) ClearState(ctx context.Context, sessionID string) error {
	r.states.Delete(sessionID)
	return nil
}

type stateEntry struct {
	state     *models.CheckoutState
	expiresAt time.Time
}

// rateLimitEntry is shared by every request for the same key, so its fields
// are guarded by the entry mutex.
type rateLimitEntry struct {
	mu        sync.Mutex
	count     int
	expiresAt time.Time
}

func (r *MemoryStateRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	val, _ := r.rateLimits.LoadOrStore(key, &rateLimitEntry{})
	entry := val.(*rateLimitEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := time.Now()
	if now.After(entry.expiresAt) {
		entry.count = 0
		entry.expiresAt = now.Add(window)
	}
	entry.count++
	return entry.count <= limit, nil
}
