package email

import (
	"context"
	"log/slog"
)

// SMSSender delivers short text messages to a phone number.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// LoggingSMSSender only logs text messages. There is no real SMS gateway.
type LoggingSMSSender struct{}

func (LoggingSMSSender) SendSMS(ctx context.Context, to, body string) error {
	slog.InfoContext(ctx, "sms (logged)", "to", to, "body", body)
	return nil
}

// VerificationSMS is the text sent for phone verification.
func VerificationSMS(code string) string {
	return "Your Blast verification code is " + code
}
