package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"greendrake/blast/internal/db"
	"greendrake/blast/internal/models"
)

// MemoryCodeStore is a mutex guarded CodeStore.
type MemoryCodeStore struct {
	mu    sync.Mutex
	codes map[string]IssuedCode
	now   func() time.Time
}

func NewMemoryCodeStore() *MemoryCodeStore {
	return &MemoryCodeStore{codes: make(map[string]IssuedCode), now: time.Now}
}

func (s *MemoryCodeStore) Put(_ context.Context, agentID string, code IssuedCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[agentID] = code
	return nil
}

func (s *MemoryCodeStore) Get(_ context.Context, agentID string) (IssuedCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.live(agentID)
	if !ok {
		return IssuedCode{}, ErrNotFound
	}
	return code, nil
}

func (s *MemoryCodeStore) ReserveAttempt(_ context.Context, agentID string, max int) (IssuedCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.live(agentID)
	if !ok {
		return IssuedCode{}, ErrNotFound
	}
	if max > 0 && code.Attempts >= max {
		delete(s.codes, agentID)
		return IssuedCode{}, ErrNotFound
	}
	code.Attempts++
	s.codes[agentID] = code
	return code, nil
}

func (s *MemoryCodeStore) Consume(_ context.Context, agentID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.live(agentID)
	if !ok || code.Hash != hash {
		return ErrNotFound
	}
	delete(s.codes, agentID)
	return nil
}

func (s *MemoryCodeStore) Delete(_ context.Context, agentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, agentID)
	return nil
}

// live returns the code for agentID, evicting it if expired. Caller holds mu.
func (s *MemoryCodeStore) live(agentID string) (IssuedCode, bool) {
	code, ok := s.codes[agentID]
	if !ok {
		return IssuedCode{}, false
	}
	if !code.ExpiresAt.IsZero() && !s.now().Before(code.ExpiresAt) {
		delete(s.codes, agentID)
		return IssuedCode{}, false
	}
	return code, true
}

// MemoryCampaignStore is a mutex guarded CampaignStore.
type MemoryCampaignStore struct {
	mu        sync.RWMutex
	campaigns map[string]models.Campaign
}

func NewMemoryCampaignStore() *MemoryCampaignStore {
	return &MemoryCampaignStore{campaigns: make(map[string]models.Campaign)}
}

func (s *MemoryCampaignStore) Create(_ context.Context, c models.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.campaigns[c.ID]; exists {
		return fmt.Errorf("campaign %s: %w", c.ID, db.ErrDuplicateKey)
	}
	s.campaigns[c.ID] = c
	return nil
}

func (s *MemoryCampaignStore) Get(_ context.Context, id string) (models.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.campaigns[id]
	if !ok {
		return models.Campaign{}, ErrNotFound
	}
	return c, nil
}

func (s *MemoryCampaignStore) UpdateStatus(_ context.Context, id string, status models.CampaignStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return ErrNotFound
	}
	c.Status = status
	s.campaigns[id] = c
	return nil
}

// MemoryIdempotencyStore holds cached responses keyed by idempotency key.
type MemoryIdempotencyStore struct {
	mu      sync.RWMutex
	entries map[string]CachedResponse
	ttl     time.Duration
}

// NewMemoryIdempotencyStore creates the store and starts a cleanup loop that
// ends with ctx.
func NewMemoryIdempotencyStore(ctx context.Context, ttl time.Duration) *MemoryIdempotencyStore {
	s := &MemoryIdempotencyStore{
		entries: make(map[string]CachedResponse),
		ttl:     ttl,
	}
	go s.cleanup(ctx)
	return s
}

func (s *MemoryIdempotencyStore) cleanup(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			for k, v := range s.entries {
				if time.Since(v.CachedAt) > s.ttl {
					delete(s.entries, k)
				}
			}
			s.mu.Unlock()
		}
	}
}

func (s *MemoryIdempotencyStore) Check(_ context.Context, key string) (*CachedResponse, bool) {
	s.mu.RLock()
	cached, exists := s.entries[key]
	s.mu.RUnlock()

	if exists && time.Since(cached.CachedAt) < s.ttl {
		return &cached, true
	}
	return nil, false
}

func (s *MemoryIdempotencyStore) Set(_ context.Context, key string, resp CachedResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if resp.CachedAt.IsZero() {
		resp.CachedAt = time.Now()
	}
	s.entries[key] = resp
}
