/**
 * @description
 * Scheduled operational jobs for the paylater-service.
 */
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/transfa/paylater-service/internal/domain"
	"github.com/transfa/paylater-service/internal/store"
)

// Jobs contains the logic for all scheduled tasks.
type Jobs struct {
	repo           store.Repository
	alerter        Alerter
	logger         *slog.Logger
	stuckThreshold time.Duration
}

// NewJobs creates a new Jobs runner.
func NewJobs(repo store.Repository, alerter Alerter, logger *slog.Logger, stuckThreshold time.Duration) *Jobs {
	if logger == nil {
		logger = slog.Default()
	}
	return &Jobs{
		repo:           repo,
		alerter:        alerter,
		logger:         logger,
		stuckThreshold: stuckThreshold,
	}
}

// SweepStuckApplications raises an operational alert for every application that
// has sat in PENDING_CRC_CHECK beyond the threshold. The sweep never re-runs
// checks itself: an application that exhausted its retries stays stuck until an
// operator intervenes.
func (j *Jobs) SweepStuckApplications() {
	j.logger.Info("starting stuck application sweep")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	apps, err := j.repo.FindStuckApplications(ctx, j.stuckThreshold)
	if err != nil {
		j.logger.Error("failed to list stuck applications", "error", err)
		return
	}

	if len(apps) == 0 {
		j.logger.Info("no stuck applications found")
		return
	}

	j.logger.Warn("found applications stuck in credit check", "count", len(apps))

	for _, app := range apps {
		j.alerter.RaiseOperationalAlert(ctx, domain.OperationalAlert{
			ApplicationID: app.ID,
			Code:          domain.AlertCodeStuckApplication,
			Detail:        "application stuck in PENDING_CRC_CHECK since " + app.UpdatedAt.UTC().Format(time.RFC3339),
			RaisedAt:      time.Now().UTC(),
		})
	}

	j.logger.Info("stuck application sweep finished", "alerted", len(apps))
}
