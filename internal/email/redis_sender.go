package email

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// MockMessageTTL is how long mock messages stay readable in Redis.
const MockMessageTTL = 5 * time.Minute

// RedisSender stores messages in Redis instead of delivering them, so tests
// and the service API can read them back.
type RedisSender struct {
	client *redis.Client
	from   string
}

func NewRedisSender(client *redis.Client, from string) *RedisSender {
	return &RedisSender{client: client, from: from}
}

// MockEmailKey is the Redis key of the last mock email of kind sent to addr.
func MockEmailKey(addr string, kind Kind) string {
	return fmt.Sprintf("mockemail:%s:%s", addr, kind)
}

// MockSMSKey is the Redis key of the last mock text message sent to phone.
func MockSMSKey(phone string) string {
	return "mocksms:" + phone
}

func (s *RedisSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	primaryTo := ""
	if len(to) > 0 {
		primaryTo = to[0]
	}
	kind := KindForSubject(subject)

	emailData := map[string]interface{}{
		"to":      strings.Join(to, ", "),
		"from":    s.from,
		"subject": subject,
		"body":    string(rawMessage),
		"sent_at": time.Now().UTC().Format(time.RFC3339Nano),
		"kind":    kind,
	}
	return s.store(ctx, MockEmailKey(primaryTo, kind), emailData)
}

func (s *RedisSender) SendSMS(ctx context.Context, to, body string) error {
	return s.store(ctx, MockSMSKey(to), map[string]interface{}{
		"to":      to,
		"body":    body,
		"sent_at": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (s *RedisSender) store(ctx context.Context, key string, data map[string]interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal mock message: %w", err)
	}
	if err := s.client.Set(ctx, key, jsonData, MockMessageTTL).Err(); err != nil {
		return fmt.Errorf("failed to store mock message in Redis key '%s': %w", key, err)
	}
	slog.InfoContext(ctx, "mock message stored in Redis", "key", key, "ttl", MockMessageTTL)
	return nil
}
