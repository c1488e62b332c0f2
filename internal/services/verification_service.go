package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"greendrake/blast/internal/auth"
	"greendrake/blast/internal/config"
	"greendrake/blast/internal/fixtures"
	"greendrake/blast/internal/metrics"
	"greendrake/blast/internal/models"
	"greendrake/blast/internal/store"
	"greendrake/blast/internal/tasks"
)

// IVerificationService proves an agent controls their MLS identity.
type IVerificationService interface {
	VerifyAgent(ctx context.Context, mlsID, agentID string) (models.AgentSummary, error)
	// SendCode issues a fresh code, replacing any earlier one, and returns it.
	SendCode(ctx context.Context, agentID string, method models.VerificationMethod) (string, error)
	// VerifyCode consumes the code on success.
	VerifyCode(ctx context.Context, agentID, code string) error
}

type verificationService struct {
	fixtures    *fixtures.Store
	codes       store.CodeStore
	dispatcher  tasks.Dispatcher
	ttl         time.Duration
	maxAttempts int
	bcryptCost  int
	now         func() time.Time
	generate    func() (string, error)
}

func NewVerificationService(cfg *config.Config, fx *fixtures.Store, codes store.CodeStore, dispatcher tasks.Dispatcher) IVerificationService {
	return &verificationService{
		fixtures:    fx,
		codes:       codes,
		dispatcher:  dispatcher,
		ttl:         cfg.VerificationCodeTTL,
		maxAttempts: cfg.VerificationMaxAttempts,
		bcryptCost:  cfg.BcryptCost,
		now:         time.Now,
		generate:    auth.GenerateCode,
	}
}

func (s *verificationService) VerifyAgent(_ context.Context, mlsID, agentID string) (models.AgentSummary, error) {
	agent, ok := s.fixtures.FindAgent(mlsID, agentID)
	if !ok {
		return models.AgentSummary{}, notFound(MsgAgentNotFound)
	}
	return agent.Summary(), nil
}

func (s *verificationService) SendCode(ctx context.Context, agentID string, method models.VerificationMethod) (string, error) {
	if !method.Valid() {
		return "", invalid(fmt.Sprintf("Unknown verification method %q", method))
	}
	agent, ok := s.fixtures.AgentByID(agentID)
	if !ok {
		return "", notFound(MsgAgentNotFound)
	}

	code, err := s.generate()
	if err != nil {
		return "", err
	}
	hash, err := auth.HashCode(code, s.bcryptCost)
	if err != nil {
		return "", err
	}

	// Keyed by the agentId the client sent so verify-code finds it the same way.
	if err := s.codes.Put(ctx, agentID, store.IssuedCode{Hash: hash, ExpiresAt: s.now().Add(s.ttl)}); err != nil {
		return "", err
	}

	err = s.dispatcher.DispatchVerification(ctx, tasks.VerificationPayload{
		AgentID:   agent.ID,
		Name:      agent.Name,
		Method:    method,
		Email:     agent.Email,
		Phone:     agent.Phone,
		Code:      code,
		ExpiresIn: s.ttl,
	})
	if err != nil {
		return "", fmt.Errorf("failed to dispatch verification code: %w", err)
	}

	metrics.CodesIssued.WithLabelValues(string(method)).Inc()
	slog.InfoContext(ctx, "verification code issued", "agent_id", agent.ID, "method", method)
	return code, nil
}

func (s *verificationService) VerifyCode(ctx context.Context, agentID, code string) error {
	// The attempt is counted before the comparison, so concurrent guesses
	// cannot exceed the limit between a read and an increment.
	issued, err := s.codes.ReserveAttempt(ctx, agentID, s.maxAttempts)
	if errors.Is(err, store.ErrNotFound) {
		metrics.CodeChecks.WithLabelValues(metrics.OutcomeMissing).Inc()
		return invalid(MsgInvalidCode)
	}
	if err != nil {
		return err
	}

	if !auth.CheckCodeHash(code, issued.Hash) {
		return s.recordMismatch(ctx, agentID, issued.Attempts)
	}

	// A concurrent check or a newer code may have won the race.
	if err := s.codes.Consume(ctx, agentID, issued.Hash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.CodeChecks.WithLabelValues(metrics.OutcomeMissing).Inc()
			return invalid(MsgInvalidCode)
		}
		return err
	}
	metrics.CodeChecks.WithLabelValues(metrics.OutcomeVerified).Inc()
	slog.InfoContext(ctx, "verification code accepted", "agent_id", agentID)
	return nil
}

func (s *verificationService) recordMismatch(ctx context.Context, agentID string, attempts int) error {
	if s.maxAttempts > 0 && attempts >= s.maxAttempts {
		if err := s.codes.Delete(ctx, agentID); err != nil {
			return err
		}
		metrics.CodeChecks.WithLabelValues(metrics.OutcomeExhausted).Inc()
		slog.WarnContext(ctx, "verification code invalidated after too many attempts", "agent_id", agentID, "attempts", attempts)
		return invalid(MsgInvalidCode)
	}
	metrics.CodeChecks.WithLabelValues(metrics.OutcomeMismatch).Inc()
	return invalid(MsgInvalidCode)
}
