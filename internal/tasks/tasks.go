package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"greendrake/blast/internal/cache"
	"greendrake/blast/internal/config"
	"greendrake/blast/internal/email"
	"greendrake/blast/internal/models"
)

// TaskType defines the type of a background task.
const (
	TypeVerificationDelivery = "blast:verification:deliver"
	TypeOrderConfirmation    = "blast:order:confirm"
)

const (
	queueCritical = "critical"
	queueDefault  = "default"
)

// --- Task Client (Enqueuing tasks) ---

func NewClient(rdb *redis.Client) *asynq.Client {
	return asynq.NewClient(cache.AsynqOpt(rdb))
}

// VerificationPayload carries an issued code to the agent. Code is the
// plaintext value, it never touches the code store.
type VerificationPayload struct {
	AgentID   string                    `json:"agent_id"`
	Name      string                    `json:"name"`
	Method    models.VerificationMethod `json:"method"`
	Email     string                    `json:"email"`
	Phone     string                    `json:"phone"`
	Code      string                    `json:"code"`
	ExpiresIn time.Duration             `json:"expires_in"`
}

// OrderConfirmationPayload describes a processed checkout.
type OrderConfirmationPayload struct {
	OrderID    string  `json:"order_id"`
	CampaignID string  `json:"campaign_id"`
	FirstName  string  `json:"first_name"`
	Email      string  `json:"email"`
	Amount     float64 `json:"amount"`
}

func NewVerificationDeliveryTask(p VerificationPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal verification payload: %w", err)
	}
	// A code is worthless after it expires, so is a retry.
	return asynq.NewTask(TypeVerificationDelivery, payload,
		asynq.Queue(queueCritical), asynq.MaxRetry(3), asynq.Timeout(30*time.Second)), nil
}

func NewOrderConfirmationTask(p OrderConfirmationPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order confirmation payload: %w", err)
	}
	return asynq.NewTask(TypeOrderConfirmation, payload,
		asynq.Queue(queueDefault), asynq.MaxRetry(10)), nil
}

// --- Dispatch ---

// Dispatcher hands deliveries off, either to the queue or straight to a
// TaskProcessor when no Redis is configured.
type Dispatcher interface {
	DispatchVerification(ctx context.Context, p VerificationPayload) error
	DispatchOrderConfirmation(ctx context.Context, p OrderConfirmationPayload) error
}

type queueDispatcher struct {
	client *asynq.Client
}

// NewQueueDispatcher enqueues deliveries for the bg worker.
func NewQueueDispatcher(client *asynq.Client) Dispatcher {
	return &queueDispatcher{client: client}
}

func (d *queueDispatcher) DispatchVerification(ctx context.Context, p VerificationPayload) error {
	task, err := NewVerificationDeliveryTask(p)
	if err != nil {
		return err
	}
	return d.enqueue(ctx, task)
}

func (d *queueDispatcher) DispatchOrderConfirmation(ctx context.Context, p OrderConfirmationPayload) error {
	task, err := NewOrderConfirmationTask(p)
	if err != nil {
		return err
	}
	return d.enqueue(ctx, task)
}

func (d *queueDispatcher) enqueue(ctx context.Context, task *asynq.Task) error {
	info, err := d.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to enqueue %s task: %w", task.Type(), err)
	}
	slog.DebugContext(ctx, "task enqueued", "type", task.Type(), "id", info.ID, "queue", info.Queue)
	return nil
}

type inlineDispatcher struct {
	processor *TaskProcessor
}

// NewInlineDispatcher runs deliveries synchronously on the caller's goroutine.
func NewInlineDispatcher(processor *TaskProcessor) Dispatcher {
	return &inlineDispatcher{processor: processor}
}

func (d *inlineDispatcher) DispatchVerification(ctx context.Context, p VerificationPayload) error {
	return d.processor.DeliverVerification(ctx, p)
}

func (d *inlineDispatcher) DispatchOrderConfirmation(ctx context.Context, p OrderConfirmationPayload) error {
	return d.processor.ConfirmOrder(ctx, p)
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks.
type TaskProcessor struct {
	from        string
	emailSender email.Sender
	smsSender   email.SMSSender
	now         func() time.Time
}

func NewTaskProcessor(cfg *config.Config, emailSender email.Sender, smsSender email.SMSSender) *TaskProcessor {
	from := cfg.SmtpFromAddress
	if from == "" {
		from = "noreply@blast.example.com"
	}
	return &TaskProcessor{
		from:        from,
		emailSender: emailSender,
		smsSender:   smsSender,
		now:         time.Now,
	}
}

// SetupServer configures an Asynq server. The caller runs and stops it.
func SetupServer(rdb *redis.Client, concurrency int) *asynq.Server {
	return asynq.NewServer(
		cache.AsynqOpt(rdb),
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				queueCritical: 6,
				queueDefault:  3,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				slog.ErrorContext(ctx, "task failed", "type", task.Type(), "error", err)
			}),
		},
	)
}

// NewServeMux registers every task handler of processor.
func NewServeMux(processor *TaskProcessor) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeVerificationDelivery, processor.HandleVerificationDeliveryTask)
	mux.HandleFunc(TypeOrderConfirmation, processor.HandleOrderConfirmationTask)
	return mux
}

// --- Task Handlers ---

func (p *TaskProcessor) HandleVerificationDeliveryTask(ctx context.Context, t *asynq.Task) error {
	var payload VerificationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal verification payload: %v: %w", err, asynq.SkipRetry)
	}
	if !payload.Method.Valid() {
		return fmt.Errorf("unknown verification method %q: %w", payload.Method, asynq.SkipRetry)
	}
	return p.DeliverVerification(ctx, payload)
}

func (p *TaskProcessor) HandleOrderConfirmationTask(ctx context.Context, t *asynq.Task) error {
	var payload OrderConfirmationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal order confirmation payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.Email == "" {
		return fmt.Errorf("order %s has no confirmation address: %w", payload.OrderID, asynq.SkipRetry)
	}
	return p.ConfirmOrder(ctx, payload)
}

// DeliverVerification sends the code by the agent's chosen method.
func (p *TaskProcessor) DeliverVerification(ctx context.Context, payload VerificationPayload) error {
	switch payload.Method {
	case models.VerificationMethodPhone:
		if err := p.smsSender.SendSMS(ctx, payload.Phone, email.VerificationSMS(payload.Code)); err != nil {
			return fmt.Errorf("failed to text verification code to agent %s: %w", payload.AgentID, err)
		}
	case models.VerificationMethodEmail:
		subject, body, err := email.Render(email.KindVerificationCode, email.VerificationCodeData{
			Name:      payload.Name,
			Code:      payload.Code,
			ExpiresIn: payload.ExpiresIn,
		})
		if err != nil {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		raw := email.BuildMessage(p.from, payload.Email, subject, body, p.now())
		if err := p.emailSender.Send(ctx, []string{payload.Email}, subject, raw); err != nil {
			return fmt.Errorf("failed to email verification code to agent %s: %w", payload.AgentID, err)
		}
	default:
		return fmt.Errorf("unknown verification method %q", payload.Method)
	}
	slog.InfoContext(ctx, "verification code delivered", "agent_id", payload.AgentID, "method", payload.Method)
	return nil
}

// ConfirmOrder emails the order receipt.
func (p *TaskProcessor) ConfirmOrder(ctx context.Context, payload OrderConfirmationPayload) error {
	subject, body, err := email.Render(email.KindOrderConfirmation, email.OrderConfirmationData{
		FirstName:  payload.FirstName,
		OrderID:    payload.OrderID,
		CampaignID: payload.CampaignID,
		Amount:     payload.Amount,
	})
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	raw := email.BuildMessage(p.from, payload.Email, subject, body, p.now())
	if err := p.emailSender.Send(ctx, []string{payload.Email}, subject, raw); err != nil {
		return fmt.Errorf("failed to send confirmation for order %s: %w", payload.OrderID, err)
	}
	slog.InfoContext(ctx, "order confirmation sent", "order_id", payload.OrderID, "to", payload.Email)
	return nil
}
