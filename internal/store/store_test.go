package store_test

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greendrake/blast/internal/db"
	"greendrake/blast/internal/models"
	"greendrake/blast/internal/store"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func codeStores(t *testing.T) map[string]store.CodeStore {
	_, client := newRedis(t)
	return map[string]store.CodeStore{
		"memory": store.NewMemoryCodeStore(),
		"redis":  store.NewRedisCodeStore(client),
	}
}

func TestCodeStore_Contract(t *testing.T) {
	ctx := context.Background()
	for name, s := range codeStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "agent_001")
			assert.ErrorIs(t, err, store.ErrNotFound)

			_, err = s.ReserveAttempt(ctx, "agent_001", 0)
			assert.ErrorIs(t, err, store.ErrNotFound)

			expires := time.Now().Add(time.Minute).UTC().Truncate(time.Millisecond)
			require.NoError(t, s.Put(ctx, "agent_001", store.IssuedCode{Hash: "h1", ExpiresAt: expires}))

			reserved, err := s.ReserveAttempt(ctx, "agent_001", 0)
			require.NoError(t, err)
			assert.Equal(t, 1, reserved.Attempts)
			assert.Equal(t, "h1", reserved.Hash)
			assert.True(t, expires.Equal(reserved.ExpiresAt))

			got, err := s.Get(ctx, "agent_001")
			require.NoError(t, err)
			assert.Equal(t, "h1", got.Hash)
			assert.Equal(t, 1, got.Attempts)
			assert.True(t, expires.Equal(got.ExpiresAt))

			// A new code replaces the old one and resets attempts.
			require.NoError(t, s.Put(ctx, "agent_001", store.IssuedCode{Hash: "h2", ExpiresAt: expires}))
			got, err = s.Get(ctx, "agent_001")
			require.NoError(t, err)
			assert.Equal(t, "h2", got.Hash)
			assert.Equal(t, 0, got.Attempts)

			// Consume only removes the code it was asked about.
			assert.ErrorIs(t, s.Consume(ctx, "agent_001", "h1"), store.ErrNotFound)
			require.NoError(t, s.Consume(ctx, "agent_001", "h2"))
			assert.ErrorIs(t, s.Consume(ctx, "agent_001", "h2"), store.ErrNotFound)

			require.NoError(t, s.Put(ctx, "agent_001", store.IssuedCode{Hash: "h3", ExpiresAt: expires}))
			require.NoError(t, s.Delete(ctx, "agent_001"))
			_, err = s.Get(ctx, "agent_001")
			assert.ErrorIs(t, err, store.ErrNotFound)
		})
	}
}

func TestMemoryCodeStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryCodeStore()
	require.NoError(t, s.Put(ctx, "agent_001", store.IssuedCode{Hash: "h", ExpiresAt: time.Now().Add(-time.Second)}))

	_, err := s.Get(ctx, "agent_001")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRedisCodeStore_Expiry(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	s := store.NewRedisCodeStore(client)

	require.NoError(t, s.Put(ctx, "agent_001", store.IssuedCode{Hash: "h", ExpiresAt: time.Now().Add(30 * time.Second)}))
	mr.FastForward(31 * time.Second)

	_, err := s.Get(ctx, "agent_001")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.ReserveAttempt(ctx, "agent_001", 3)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.False(t, mr.Exists("blast:code:agent_001"))
}

func TestCodeStore_ReserveAttemptLimit(t *testing.T) {
	ctx := context.Background()
	for name, s := range codeStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put(ctx, "agent_001", store.IssuedCode{Hash: "h", ExpiresAt: time.Now().Add(time.Minute)}))

			var granted atomic.Int32
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, err := s.ReserveAttempt(ctx, "agent_001", 3); err == nil {
						granted.Add(1)
					} else {
						assert.ErrorIs(t, err, store.ErrNotFound)
					}
				}()
			}
			wg.Wait()

			assert.Equal(t, int32(3), granted.Load())
			_, err := s.Get(ctx, "agent_001")
			assert.ErrorIs(t, err, store.ErrNotFound)
		})
	}
}

func TestCampaignStore_Contract(t *testing.T) {
	ctx := context.Background()
	_, client := newRedis(t)
	stores := map[string]store.CampaignStore{
		"memory": store.NewMemoryCampaignStore(),
		"redis":  store.NewRedisCampaignStore(client, time.Hour),
	}
	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			c := models.Campaign{ID: "campaign_1", Status: models.CampaignStatusPending, TotalCost: 316, Taxes: 27.14, FinalAmount: 343.14}
			require.NoError(t, s.Create(ctx, c))

			err := s.Create(ctx, c)
			assert.ErrorIs(t, err, db.ErrDuplicateKey)

			require.NoError(t, s.UpdateStatus(ctx, "campaign_1", models.CampaignStatusActive))
			got, err := s.Get(ctx, "campaign_1")
			require.NoError(t, err)
			assert.Equal(t, models.CampaignStatusActive, got.Status)
			assert.Equal(t, 343.14, got.FinalAmount)

			_, err = s.Get(ctx, "campaign_404")
			assert.ErrorIs(t, err, store.ErrNotFound)
			assert.ErrorIs(t, s.UpdateStatus(ctx, "campaign_404", models.CampaignStatusActive), store.ErrNotFound)
		})
	}
}

func TestIdempotencyStore_Contract(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, client := newRedis(t)
	stores := map[string]store.IdempotencyStore{
		"memory": store.NewMemoryIdempotencyStore(ctx, time.Hour),
		"redis":  store.NewRedisIdempotencyStore(client, time.Hour),
	}
	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			_, ok := s.Check(ctx, "k1")
			assert.False(t, ok)

			headers := http.Header{"Content-Type": []string{"application/json"}}
			s.Set(ctx, "k1", store.CachedResponse{StatusCode: 200, Headers: headers, Body: []byte(`{"orderId":"order_1"}`)})

			got, ok := s.Check(ctx, "k1")
			require.True(t, ok)
			assert.Equal(t, 200, got.StatusCode)
			assert.Equal(t, "application/json", got.Headers.Get("Content-Type"))
			assert.JSONEq(t, `{"orderId":"order_1"}`, string(got.Body))
		})
	}
}

func TestRedisIdempotencyStore_FirstWriteWins(t *testing.T) {
	ctx := context.Background()
	_, client := newRedis(t)
	s := store.NewRedisIdempotencyStore(client, time.Hour)

	s.Set(ctx, "k", store.CachedResponse{StatusCode: 200, Body: []byte("first")})
	s.Set(ctx, "k", store.CachedResponse{StatusCode: 200, Body: []byte("second")})

	got, ok := s.Check(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "first", string(got.Body))
}

func TestMemoryIdempotencyStore_Expired(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := store.NewMemoryIdempotencyStore(ctx, time.Minute)
	s.Set(ctx, "k", store.CachedResponse{StatusCode: 200, CachedAt: time.Now().Add(-2 * time.Minute)})

	_, ok := s.Check(ctx, "k")
	assert.False(t, ok)
}
