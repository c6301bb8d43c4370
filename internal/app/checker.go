/**
 * @description
 * This file contains the credit check workflow itself: one run of the
 * asynchronous job that takes an application from SUBMITTED_KYC through
 * PENDING_CRC_CHECK to a terminal decision, under the exclusive row lock.
 *
 * Key properties:
 * - Idempotent re-entry: a job redelivered for a terminal application exits as
 *   a no-op without calling the external bureau again.
 * - The row lock is held for the full duration of the external call. Simpler
 *   reasoning, at the cost of holding the lock for a few seconds.
 * - A bureau failure still commits the PENDING_CRC_CHECK marker, so the status
 *   endpoint and the stuck-application sweep can see the check is outstanding.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/transfa/paylater-service/internal/domain"
	"github.com/transfa/paylater-service/internal/store"
	"github.com/transfa/paylater-service/pkg/crcclient"
)

// CreditChecker is the narrow view of the bureau client the worker needs.
type CreditChecker interface {
	CheckCredit(ctx context.Context, req crcclient.CreditCheckRequest) (*crcclient.CreditResult, error)
}

// CreditCheckWorker executes credit check jobs against the application store.
type CreditCheckWorker struct {
	repo   store.Repository
	crc    CreditChecker
	logger *slog.Logger
}

// NewCreditCheckWorker creates a worker bound to a repository and bureau client.
func NewCreditCheckWorker(repo store.Repository, crc CreditChecker, logger *slog.Logger) *CreditCheckWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &CreditCheckWorker{repo: repo, crc: crc, logger: logger}
}

// RunCheck performs one credit check run for the application named by job.
//
// Error contract for the caller:
//   - nil: the run is complete. Either a decision was committed or the
//     application was already terminal and the run was a no-op. A missing
//     application also returns nil after a warning, since retrying cannot
//     bring the row back.
//   - error satisfying crcclient.IsTransient: the bureau was unreachable; the
//     application is left in PENDING_CRC_CHECK and the job may be retried.
//   - any other error: a definitive bureau error or a programming/data error;
//     the application is left in its last committed state and the job must not
//     be retried.
func (w *CreditCheckWorker) RunCheck(ctx context.Context, job domain.CreditCheckJob) error {
	var bureauErr error

	err := w.repo.WithApplicationForUpdate(ctx, job.ApplicationID, func(ctx context.Context, app *domain.Application, tx store.ApplicationTx) error {
		if app.Status.Terminal() {
			w.logger.Info("application already processed; skipping credit check",
				"application_id", app.ID, "status", string(app.Status), "attempt", job.Attempt)
			return nil
		}

		// Mark in flight. Re-entering PENDING_CRC_CHECK on a retried job is
		// legal; only the first entry is a machine transition.
		if app.Status != domain.StatusPendingCRCCheck {
			if err := domain.ValidateTransition(app.Status, domain.StatusPendingCRCCheck); err != nil {
				return err
			}
		}
		if err := tx.UpdateStatus(ctx, app.ID, domain.StatusPendingCRCCheck); err != nil {
			return fmt.Errorf("mark application in flight: %w", err)
		}

		result, err := w.crc.CheckCredit(ctx, buildCreditCheckRequest(app))
		if err != nil {
			// Return nil so the in-flight marker commits; the bureau failure
			// is surfaced to the caller out of band.
			bureauErr = err
			return nil
		}

		decision := EvaluateCreditResult(*result)
		if err := tx.ApplyDecision(ctx, app.ID, decision); err != nil {
			return fmt.Errorf("apply decision: %w", err)
		}

		w.logger.Info("credit check completed",
			"application_id", app.ID,
			"status", string(domain.StatusForDecision(decision)),
			"score", result.Score,
			"attempt", job.Attempt)
		return nil
	})

	if errors.Is(err, store.ErrApplicationNotFound) {
		// A dispatched job referencing a missing row indicates a data
		// consistency problem, not a retryable condition.
		w.logger.Warn("application not found for credit check", "application_id", job.ApplicationID)
		return nil
	}
	if err != nil {
		return err
	}
	return bureauErr
}

func buildCreditCheckRequest(app *domain.Application) crcclient.CreditCheckRequest {
	return crcclient.CreditCheckRequest{
		NationalID:    app.NationalIDNumber,
		FullName:      app.FullName,
		DateOfBirth:   app.DateOfBirth.Format("2006-01-02"),
		Address:       app.Address,
		PhoneNumber:   app.PhoneNumber,
		MonthlyIncome: app.MonthlyIncome,
	}
}
