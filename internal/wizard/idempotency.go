package wizard

import (
	"crypto/sha256"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// RequestKeys hands out Idempotency-Key values for one mutating step. The
// same request gets the same key until Clear, and a changed request gets a
// fresh one. Callers that rebuild forms on retry keep one RequestKeys per
// step and pass it to each new form.
type RequestKeys struct {
	mu   sync.Mutex
	key  string
	last [sha256.Size]byte
}

func NewRequestKeys() *RequestKeys {
	return &RequestKeys{}
}

// For returns the key to send with req.
func (k *RequestKeys) For(req any) string {
	raw, err := json.Marshal(req)
	if err != nil {
		// Unencodable requests never match a previous one.
		return uuid.NewString()
	}
	sum := sha256.Sum256(raw)

	k.mu.Lock()
	defer k.mu.Unlock()
	if k.key == "" || sum != k.last {
		k.key = uuid.NewString()
		k.last = sum
	}
	return k.key
}

// Clear forgets the current key, so the next request gets a new one even if
// it repeats the last.
func (k *RequestKeys) Clear() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.key = ""
	k.last = [sha256.Size]byte{}
}
