package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"greendrake/blast/internal/db"
	"greendrake/blast/internal/models"
)

const (
	codeKeyPrefix        = "blast:code:"
	campaignKeyPrefix    = "blast:campaign:"
	idempotencyKeyPrefix = "blast:idem:"
)

// RedisCodeStore keeps each issued code in a hash that expires with the code.
type RedisCodeStore struct {
	client *redis.Client
}

func NewRedisCodeStore(client *redis.Client) *RedisCodeStore {
	return &RedisCodeStore{client: client}
}

// reserveAttempt bumps the attempt counter and returns the hash fields. It
// never resurrects an expired key and deletes a code that used up max.
var reserveAttempt = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return false
end
local max = tonumber(ARGV[1])
local attempts = tonumber(redis.call("HGET", KEYS[1], "attempts") or "0")
if max > 0 and attempts >= max then
	redis.call("DEL", KEYS[1])
	return false
end
redis.call("HINCRBY", KEYS[1], "attempts", 1)
return redis.call("HGETALL", KEYS[1])
`)

var consumeIfHash = redis.NewScript(`
if redis.call("HGET", KEYS[1], "hash") == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (s *RedisCodeStore) Put(ctx context.Context, agentID string, code IssuedCode) error {
	key := codeKeyPrefix + agentID
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			"hash", code.Hash,
			"attempts", code.Attempts,
			"expiresAt", code.ExpiresAt.UTC().Format(time.RFC3339Nano),
		)
		if !code.ExpiresAt.IsZero() {
			pipe.PExpireAt(ctx, key, code.ExpiresAt)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store verification code for %s: %w", agentID, err)
	}
	return nil
}

func (s *RedisCodeStore) Get(ctx context.Context, agentID string) (IssuedCode, error) {
	fields, err := s.client.HGetAll(ctx, codeKeyPrefix+agentID).Result()
	if err != nil {
		return IssuedCode{}, fmt.Errorf("failed to read verification code for %s: %w", agentID, err)
	}
	if len(fields) == 0 {
		return IssuedCode{}, ErrNotFound
	}
	return parseIssuedCode(agentID, fields)
}

func (s *RedisCodeStore) ReserveAttempt(ctx context.Context, agentID string, max int) (IssuedCode, error) {
	pairs, err := reserveAttempt.Run(ctx, s.client, []string{codeKeyPrefix + agentID}, max).StringSlice()
	if errors.Is(err, redis.Nil) {
		return IssuedCode{}, ErrNotFound
	}
	if err != nil {
		return IssuedCode{}, fmt.Errorf("failed to record attempt for %s: %w", agentID, err)
	}
	fields := make(map[string]string, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		fields[pairs[i]] = pairs[i+1]
	}
	return parseIssuedCode(agentID, fields)
}

func parseIssuedCode(agentID string, fields map[string]string) (IssuedCode, error) {
	code := IssuedCode{Hash: fields["hash"]}
	var err error
	if code.Attempts, err = strconv.Atoi(fields["attempts"]); err != nil {
		return IssuedCode{}, fmt.Errorf("corrupt attempts for %s: %w", agentID, err)
	}
	if code.ExpiresAt, err = time.Parse(time.RFC3339Nano, fields["expiresAt"]); err != nil {
		return IssuedCode{}, fmt.Errorf("corrupt expiry for %s: %w", agentID, err)
	}
	return code, nil
}

func (s *RedisCodeStore) Consume(ctx context.Context, agentID, hash string) error {
	n, err := consumeIfHash.Run(ctx, s.client, []string{codeKeyPrefix + agentID}, hash).Int()
	if err != nil {
		return fmt.Errorf("failed to consume verification code for %s: %w", agentID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisCodeStore) Delete(ctx context.Context, agentID string) error {
	if err := s.client.Del(ctx, codeKeyPrefix+agentID).Err(); err != nil {
		return fmt.Errorf("failed to delete verification code for %s: %w", agentID, err)
	}
	return nil
}

// RedisCampaignStore keeps campaigns as JSON strings with a session TTL.
type RedisCampaignStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCampaignStore(client *redis.Client, ttl time.Duration) *RedisCampaignStore {
	return &RedisCampaignStore{client: client, ttl: ttl}
}

func (s *RedisCampaignStore) Create(ctx context.Context, c models.Campaign) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal campaign: %w", err)
	}
	ok, err := s.client.SetNX(ctx, campaignKeyPrefix+c.ID, data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to store campaign %s: %w", c.ID, err)
	}
	if !ok {
		return fmt.Errorf("campaign %s: %w", c.ID, db.ErrDuplicateKey)
	}
	return nil
}

func (s *RedisCampaignStore) Get(ctx context.Context, id string) (models.Campaign, error) {
	data, err := s.client.Get(ctx, campaignKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Campaign{}, ErrNotFound
	}
	if err != nil {
		return models.Campaign{}, fmt.Errorf("failed to read campaign %s: %w", id, err)
	}
	var c models.Campaign
	if err := json.Unmarshal(data, &c); err != nil {
		return models.Campaign{}, fmt.Errorf("corrupt campaign %s: %w", id, err)
	}
	return c, nil
}

func (s *RedisCampaignStore) UpdateStatus(ctx context.Context, id string, status models.CampaignStatus) error {
	c, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	c.Status = status
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal campaign: %w", err)
	}
	if err := s.client.Set(ctx, campaignKeyPrefix+id, data, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("failed to update campaign %s: %w", id, err)
	}
	return nil
}

// RedisIdempotencyStore shares cached responses between server replicas.
type RedisIdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisIdempotencyStore(client *redis.Client, ttl time.Duration) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client, ttl: ttl}
}

func (s *RedisIdempotencyStore) Check(ctx context.Context, key string) (*CachedResponse, bool) {
	data, err := s.client.Get(ctx, idempotencyKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("idempotency lookup failed", "key", key, "error", err)
		}
		return nil, false
	}
	var cached CachedResponse
	if err := json.Unmarshal(data, &cached); err != nil {
		slog.Warn("corrupt idempotency entry", "key", key, "error", err)
		return nil, false
	}
	return &cached, true
}

// Set keeps the first response stored under key.
func (s *RedisIdempotencyStore) Set(ctx context.Context, key string, resp CachedResponse) {
	if resp.CachedAt.IsZero() {
		resp.CachedAt = time.Now()
	}
	data, err := json.Marshal(resp)
	if err != nil {
		slog.Warn("failed to marshal idempotency entry", "key", key, "error", err)
		return
	}
	if err := s.client.SetNX(ctx, idempotencyKeyPrefix+key, data, s.ttl).Err(); err != nil {
		slog.Warn("failed to store idempotency entry", "key", key, "error", err)
	}
}
