package app

import (
	"context"
	"log/slog"

	"github.com/transfa/paylater-service/internal/domain"
	"github.com/transfa/paylater-service/pkg/rabbitmq"
)

// EventCheckScheduler publishes credit check jobs to the Pay Later event
// exchange. The check queue is bound to the same routing key, so every publish
// is one at-least-once job delivery.
type EventCheckScheduler struct {
	producer rabbitmq.Publisher
}

func NewEventCheckScheduler(producer rabbitmq.Publisher) *EventCheckScheduler {
	return &EventCheckScheduler{producer: producer}
}

func (s *EventCheckScheduler) EnqueueCheck(ctx context.Context, job domain.CreditCheckJob) error {
	return s.producer.Publish(ctx, domain.EventsExchange, domain.CheckRequestedKey, job)
}

// EventAlerter publishes operational alerts to the event exchange and mirrors
// them into the log, so an alert is never lost to a broker outage alone.
type EventAlerter struct {
	producer rabbitmq.Publisher
	logger   *slog.Logger
}

func NewEventAlerter(producer rabbitmq.Publisher, logger *slog.Logger) *EventAlerter {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventAlerter{producer: producer, logger: logger}
}

func (a *EventAlerter) RaiseOperationalAlert(ctx context.Context, alert domain.OperationalAlert) {
	a.logger.Error("operational alert",
		"code", alert.Code,
		"application_id", alert.ApplicationID,
		"detail", alert.Detail,
		"attempts", alert.Attempts)

	if err := a.producer.Publish(ctx, domain.EventsExchange, domain.OperationalAlertKey, alert); err != nil {
		a.logger.Error("failed to publish operational alert",
			"code", alert.Code, "application_id", alert.ApplicationID, "error", err)
	}
}
