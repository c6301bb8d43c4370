package domain

import (
	"time"

	"github.com/google/uuid"
)

// Exchange and routing keys for Pay Later events on the message broker.
const (
	EventsExchange        = "paylater.events"
	CheckRequestedKey     = "paylater.check.requested"
	OperationalAlertKey   = "paylater.ops.alert"
	DefaultCheckQueueName = "paylater_service.credit_checks"
)

// CreditCheckJob is the message payload that requests one credit check run for
// an application. Delivery is at-least-once; the row lock plus the terminal
// no-op guard make duplicate execution safe.
type CreditCheckJob struct {
	ApplicationID uuid.UUID `json:"application_id"`
	Attempt       int       `json:"attempt"`
	EnqueuedAt    time.Time `json:"enqueued_at"`
}

// OperationalAlert is published when the workflow needs operator attention,
// e.g. retry exhaustion leaving an application stuck in PENDING_CRC_CHECK.
type OperationalAlert struct {
	ApplicationID uuid.UUID `json:"application_id"`
	Code          string    `json:"code"`
	Detail        string    `json:"detail"`
	Attempts      int       `json:"attempts,omitempty"`
	RaisedAt      time.Time `json:"raised_at"`
}

// Alert codes.
const (
	AlertCodeRetriesExhausted = "credit_check_retries_exhausted"
	AlertCodeEnqueueFailed    = "credit_check_enqueue_failed"
	AlertCodeStuckApplication = "application_stuck_in_check"
)
