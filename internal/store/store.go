// Package store holds the ephemeral session state of the mock server:
// issued verification codes, created campaigns and idempotent responses.
// Each concern has an in-memory implementation and a Redis one.
package store

import (
	"context"
	"errors"
	"net/http"
	"time"

	"greendrake/blast/internal/models"
)

// ErrNotFound is returned when a key is absent or expired.
var ErrNotFound = errors.New("not found")

// IssuedCode is a verification code as kept at rest. Only its hash is stored.
type IssuedCode struct {
	Hash      string    `json:"hash"`
	Attempts  int       `json:"attempts"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// CodeStore keeps at most one outstanding code per agent.
type CodeStore interface {
	// Put replaces any code previously issued to agentID.
	Put(ctx context.Context, agentID string, code IssuedCode) error
	Get(ctx context.Context, agentID string) (IssuedCode, error)
	// ReserveAttempt counts a check against the code before it is compared
	// and returns the code with the new count. Once max checks were counted
	// the code is deleted and ErrNotFound returned, so no more than max
	// checks ever see the hash. max <= 0 means unlimited.
	ReserveAttempt(ctx context.Context, agentID string, max int) (IssuedCode, error)
	// Consume deletes the code only if its hash is still hash, so a code
	// validates at most once even under concurrent checks.
	Consume(ctx context.Context, agentID, hash string) error
	Delete(ctx context.Context, agentID string) error
}

// CampaignStore keeps campaigns for the lifetime of a session.
type CampaignStore interface {
	// Create fails with db.ErrDuplicateKey if the id is already taken.
	Create(ctx context.Context, c models.Campaign) error
	Get(ctx context.Context, id string) (models.Campaign, error)
	UpdateStatus(ctx context.Context, id string, status models.CampaignStatus) error
}

// CachedResponse is a response replayed for a repeated idempotency key.
// Fingerprint identifies the request that produced it.
type CachedResponse struct {
	StatusCode  int         `json:"statusCode"`
	Headers     http.Header `json:"headers"`
	Body        []byte      `json:"body"`
	Fingerprint string      `json:"fingerprint"`
	CachedAt    time.Time   `json:"cachedAt"`
}

// IdempotencyStore caches the first successful response per key.
type IdempotencyStore interface {
	Check(ctx context.Context, key string) (*CachedResponse, bool)
	Set(ctx context.Context, key string, resp CachedResponse)
}
