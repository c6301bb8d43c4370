/**
 * @description
 * This file contains the synchronous business logic for the paylater-service:
 * application submission, status lookup, and the order eligibility gate that the
 * order subsystem consults at order-creation time.
 *
 * Key features:
 * - Submission persists the application and dispatches exactly one asynchronous
 *   credit check job; the response never blocks on the external bureau.
 * - The order gate is read-only and reflects the latest committed decision.
 *
 * @dependencies
 * - context, errors, fmt, log, time: Standard Go libraries.
 * - github.com/google/uuid: For UUID generation.
 * - github.com/shopspring/decimal: For order totals and credit limits.
 * - internal/domain, internal/store: For domain models and data access.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/transfa/paylater-service/internal/domain"
	"github.com/transfa/paylater-service/internal/store"
)

var (
	ErrInvalidSubmission   = errors.New("submission is missing required kyc fields")
	ErrInvalidOrderAmount  = errors.New("order amount must be greater than zero")
	ErrSubmissionRateLimit = errors.New("too many submission attempts; try again later")
)

// RateLimiter gates submission attempts per user. A nil limiter disables the check.
type RateLimiter interface {
	ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (count int, retryAfterSeconds int, err error)
}

// Service provides the synchronous Pay Later use cases.
type Service struct {
	repo      store.Repository
	scheduler CheckScheduler
	alerter   Alerter

	rateLimiter     RateLimiter
	submissionLimit int
	rateWindow      time.Duration
}

// NewService creates a new Pay Later service instance.
func NewService(repo store.Repository, scheduler CheckScheduler, alerter Alerter) *Service {
	return &Service{
		repo:      repo,
		scheduler: scheduler,
		alerter:   alerter,
	}
}

// SetSubmissionRateLimiter enables per-user rate limiting of submission attempts.
func (s *Service) SetSubmissionRateLimiter(limiter RateLimiter, perMinute int) {
	s.rateLimiter = limiter
	s.submissionLimit = perMinute
	s.rateWindow = time.Minute
}

// SubmitApplication creates the user's Pay Later application and dispatches the
// asynchronous credit check. The record is created at PENDING_SUBMISSION and
// moved to SUBMITTED_KYC synchronously, before any external call, so the status
// endpoint reflects SUBMITTED_KYC the moment this returns.
func (s *Service) SubmitApplication(ctx context.Context, userID uuid.UUID, submission domain.KYCSubmission) (*domain.Application, error) {
	if err := validateSubmission(submission); err != nil {
		return nil, err
	}
	if err := s.checkSubmissionRate(ctx, userID); err != nil {
		return nil, err
	}

	app := &domain.Application{
		ID:               uuid.New(),
		UserID:           userID,
		Status:           domain.StatusPendingSubmission,
		FullName:         strings.TrimSpace(submission.FullName),
		NationalIDNumber: strings.TrimSpace(submission.NationalIDNumber),
		DateOfBirth:      submission.DateOfBirth,
		Address:          strings.TrimSpace(submission.Address),
		PhoneNumber:      strings.TrimSpace(submission.PhoneNumber),
		EmploymentStatus: submission.EmploymentStatus,
		MonthlyIncome:    submission.MonthlyIncome,
	}

	if err := domain.ValidateTransition(app.Status, domain.StatusSubmittedKYC); err != nil {
		return nil, err
	}
	app.Status = domain.StatusSubmittedKYC

	if err := s.repo.CreateApplication(ctx, app); err != nil {
		return nil, err
	}

	job := domain.CreditCheckJob{
		ApplicationID: app.ID,
		Attempt:       0,
		EnqueuedAt:    time.Now().UTC(),
	}
	if err := s.scheduler.EnqueueCheck(ctx, job); err != nil {
		// The application is already committed at SUBMITTED_KYC. Raise an
		// alert rather than failing the submission; the stuck-application
		// sweep will surface it if nobody re-dispatches.
		log.Printf("level=error component=paylater_service msg=\"credit check enqueue failed\" application_id=%s err=%v", app.ID, err)
		s.alerter.RaiseOperationalAlert(ctx, domain.OperationalAlert{
			ApplicationID: app.ID,
			Code:          domain.AlertCodeEnqueueFailed,
			Detail:        err.Error(),
			RaisedAt:      time.Now().UTC(),
		})
	}

	return app, nil
}

// GetApplicationStatus returns the eligibility summary for the user's application.
func (s *Service) GetApplicationStatus(ctx context.Context, userID uuid.UUID) (*domain.EligibilitySummary, error) {
	app, err := s.repo.FindApplicationByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := app.Summary()
	return &summary, nil
}

// EvaluateOrderEligibility is the deferred-payment gate consumed by the order
// subsystem at order-creation time. It is read-only: Denied unless the user
// holds an APPROVED_ELIGIBLE application whose limit covers the order total.
func (s *Service) EvaluateOrderEligibility(ctx context.Context, userID uuid.UUID, totalAmount decimal.Decimal) (domain.OrderEligibility, error) {
	if totalAmount.LessThanOrEqual(decimal.Zero) {
		return domain.OrderEligibility{}, ErrInvalidOrderAmount
	}

	app, err := s.repo.FindApprovedApplicationByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrApplicationNotFound) {
			return domain.DeniedOrder(domain.DenialReasonNotEligible), nil
		}
		return domain.OrderEligibility{}, fmt.Errorf("lookup approved application: %w", err)
	}

	if app.ApprovedCreditLimit.Valid && totalAmount.GreaterThan(app.ApprovedCreditLimit.Decimal) {
		return domain.DeniedOrder(domain.DenialReasonExceedsLimit), nil
	}

	return domain.AllowedOrder(), nil
}

func (s *Service) checkSubmissionRate(ctx context.Context, userID uuid.UUID) error {
	if s.rateLimiter == nil || s.submissionLimit <= 0 {
		return nil
	}
	count, _, err := s.rateLimiter.ConsumeRateLimit(ctx, "paylater_submission", userID.String(), s.submissionLimit, s.rateWindow)
	if err != nil {
		// Rate limiting is best-effort; a limiter outage must not block submissions.
		log.Printf("level=warn component=paylater_service msg=\"rate limiter unavailable; allowing submission\" user_id=%s err=%v", userID, err)
		return nil
	}
	if count > s.submissionLimit {
		return ErrSubmissionRateLimit
	}
	return nil
}

func validateSubmission(sub domain.KYCSubmission) error {
	if strings.TrimSpace(sub.FullName) == "" ||
		strings.TrimSpace(sub.NationalIDNumber) == "" ||
		strings.TrimSpace(sub.Address) == "" ||
		strings.TrimSpace(sub.PhoneNumber) == "" ||
		sub.DateOfBirth.IsZero() {
		return ErrInvalidSubmission
	}
	if sub.MonthlyIncome.Valid && sub.MonthlyIncome.Decimal.IsNegative() {
		return ErrInvalidSubmission
	}
	return nil
}
