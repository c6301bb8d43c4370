package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/transfa/paylater-service/internal/domain"
	"github.com/transfa/paylater-service/pkg/crcclient"
)

// Retry policy for transient bureau failures.
const (
	DefaultMaxCheckAttempts = 5
	DefaultRetryDelay       = 60 * time.Second

	// Must comfortably exceed the bureau client timeout so a slow call is
	// classified by the client, not cut off mid-transaction.
	checkJobTimeout = 90 * time.Second
)

// CheckScheduler enqueues credit check jobs. The production implementation
// publishes to RabbitMQ; the state machine guarantees do not depend on which
// broker delivers the job, or on delivery happening at most once.
type CheckScheduler interface {
	EnqueueCheck(ctx context.Context, job domain.CreditCheckJob) error
}

// Alerter raises operational alerts for failures that need operator attention.
type Alerter interface {
	RaiseOperationalAlert(ctx context.Context, alert domain.OperationalAlert)
}

// CreditCheckConsumer adapts broker deliveries into credit check runs and owns
// the retry policy for transient bureau failures.
type CreditCheckConsumer struct {
	worker      CheckRunner
	scheduler   CheckScheduler
	alerter     Alerter
	logger      *slog.Logger
	maxAttempts int
	retryDelay  time.Duration
}

// CheckRunner is the worker contract the consumer drives.
type CheckRunner interface {
	RunCheck(ctx context.Context, job domain.CreditCheckJob) error
}

// NewCreditCheckConsumer wires a consumer with the default retry policy.
func NewCreditCheckConsumer(worker CheckRunner, scheduler CheckScheduler, alerter Alerter, logger *slog.Logger) *CreditCheckConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &CreditCheckConsumer{
		worker:      worker,
		scheduler:   scheduler,
		alerter:     alerter,
		logger:      logger,
		maxAttempts: DefaultMaxCheckAttempts,
		retryDelay:  DefaultRetryDelay,
	}
}

// SetRetryPolicy overrides the attempt limit and inter-attempt delay.
func (c *CreditCheckConsumer) SetRetryPolicy(maxAttempts int, retryDelay time.Duration) {
	if maxAttempts > 0 {
		c.maxAttempts = maxAttempts
	}
	if retryDelay >= 0 {
		c.retryDelay = retryDelay
	}
}

// HandleMessage processes one credit check delivery. It returns true when the
// delivery should be acknowledged. Requeueing via the broker is never used for
// retries: the consumer re-enqueues a fresh job with an incremented attempt
// counter after the retry delay, so the attempt count survives redelivery and
// the policy stays broker-agnostic.
func (c *CreditCheckConsumer) HandleMessage(body []byte) bool {
	var job domain.CreditCheckJob
	if err := json.Unmarshal(body, &job); err != nil {
		c.logger.Error("failed to unmarshal credit check job; dropping", "error", err)
		return true
	}
	if job.ApplicationID == uuid.Nil {
		c.logger.Error("credit check job missing application id; dropping")
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), checkJobTimeout)
	defer cancel()

	err := c.worker.RunCheck(ctx, job)
	if err == nil {
		return true
	}

	if crcclient.IsTransient(err) {
		c.handleTransientFailure(ctx, job, err)
		return true
	}

	// Programming or data error: report and leave the application in its last
	// committed state. Retrying a deterministic bug wastes cycles and risks
	// corrupting the audit trail.
	c.logger.Error("credit check failed with non-retryable error",
		"application_id", job.ApplicationID, "attempt", job.Attempt, "error", err)
	return true
}

func (c *CreditCheckConsumer) handleTransientFailure(ctx context.Context, job domain.CreditCheckJob, cause error) {
	attemptsUsed := job.Attempt + 1
	if attemptsUsed >= c.maxAttempts {
		c.logger.Error("credit check retries exhausted; application needs operator attention",
			"application_id", job.ApplicationID, "attempts", attemptsUsed, "error", cause)
		c.alerter.RaiseOperationalAlert(ctx, domain.OperationalAlert{
			ApplicationID: job.ApplicationID,
			Code:          domain.AlertCodeRetriesExhausted,
			Detail:        cause.Error(),
			Attempts:      attemptsUsed,
			RaisedAt:      time.Now().UTC(),
		})
		return
	}

	c.logger.Warn("transient bureau failure; scheduling retry",
		"application_id", job.ApplicationID, "attempt", job.Attempt,
		"retry_in", c.retryDelay.String(), "error", cause)

	next := domain.CreditCheckJob{
		ApplicationID: job.ApplicationID,
		Attempt:       job.Attempt + 1,
		EnqueuedAt:    time.Now().UTC(),
	}
	c.scheduleRetry(next)
}

// scheduleRetry re-enqueues the job after the configured delay. The delay timer
// is in-process; if the service restarts while a retry is pending, the
// stuck-application sweep surfaces the application instead.
func (c *CreditCheckConsumer) scheduleRetry(job domain.CreditCheckJob) {
	enqueue := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := c.scheduler.EnqueueCheck(ctx, job); err != nil {
			c.logger.Error("failed to re-enqueue credit check",
				"application_id", job.ApplicationID, "attempt", job.Attempt, "error", err)
			c.alerter.RaiseOperationalAlert(ctx, domain.OperationalAlert{
				ApplicationID: job.ApplicationID,
				Code:          domain.AlertCodeEnqueueFailed,
				Detail:        err.Error(),
				Attempts:      job.Attempt,
				RaisedAt:      time.Now().UTC(),
			})
		}
	}

	if c.retryDelay == 0 {
		enqueue()
		return
	}
	time.AfterFunc(c.retryDelay, enqueue)
}
