/**
 * @description
 * This file defines the core domain models for the paylater-service: the Pay Later
 * application record, its status state machine, and the credit decision value that
 * the asynchronous check workflow produces.
 *
 * @notes
 * - Statuses are a closed typed enum rather than free-form strings so that an
 *   invalid status can never be represented, and every transition goes through
 *   ValidateTransition.
 * - Monetary values (monthly income, approved credit limit) use shopspring/decimal
 *   to avoid floating-point inaccuracies with financial data.
 */

package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a Pay Later application.
type Status string

const (
	StatusPendingSubmission  Status = "PENDING_SUBMISSION"
	StatusSubmittedKYC       Status = "SUBMITTED_KYC"
	StatusPendingCRCCheck    Status = "PENDING_CRC_CHECK"
	StatusApprovedEligible   Status = "APPROVED_ELIGIBLE"
	StatusRejectedIneligible Status = "REJECTED_INELIGIBLE"

	// Reserved for a two-phase check (automated pre-screen + manual review) that
	// is not wired up. No transition enters or leaves these states.
	StatusCRCApproved Status = "CRC_APPROVED"
	StatusCRCRejected Status = "CRC_REJECTED"
)

// ErrInvalidTransition is returned when a status transition is not part of the
// application lifecycle.
var ErrInvalidTransition = errors.New("invalid application status transition")

// transitions is the closed set of legal status transitions.
var transitions = map[Status][]Status{
	StatusPendingSubmission: {StatusSubmittedKYC},
	StatusSubmittedKYC:      {StatusPendingCRCCheck},
	StatusPendingCRCCheck:   {StatusApprovedEligible, StatusRejectedIneligible},
}

// Terminal reports whether no further automatic transition occurs from s.
func (s Status) Terminal() bool {
	return s == StatusApprovedEligible || s == StatusRejectedIneligible
}

// Valid reports whether s is a member of the closed status enum.
func (s Status) Valid() bool {
	switch s {
	case StatusPendingSubmission, StatusSubmittedKYC, StatusPendingCRCCheck,
		StatusApprovedEligible, StatusRejectedIneligible, StatusCRCApproved, StatusCRCRejected:
		return true
	}
	return false
}

// ValidateTransition returns ErrInvalidTransition unless from -> to is a legal
// lifecycle transition.
func ValidateTransition(from, to Status) error {
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// Application represents one user's Pay Later credit application. Exactly one
// application exists per user, and the national id number is globally unique.
// This struct maps directly to the `pay_later_applications` table.
type Application struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
	Status Status    `json:"status"`

	// KYC details, immutable after submission.
	FullName         string              `json:"full_name"`
	NationalIDNumber string              `json:"national_id_number"`
	DateOfBirth      time.Time           `json:"date_of_birth"`
	Address          string              `json:"address"`
	PhoneNumber      string              `json:"phone_number"`
	EmploymentStatus *string             `json:"employment_status,omitempty"`
	MonthlyIncome    decimal.NullDecimal `json:"monthly_income,omitempty"`

	// Decision details, populated atomically by the asynchronous credit check.
	CreditScore         *int                `json:"credit_score,omitempty"`
	CRCDecisionData     json.RawMessage     `json:"crc_decision_data,omitempty"` // raw bureau response, retained for audit
	ApprovedCreditLimit decimal.NullDecimal `json:"approved_credit_limit,omitempty"`
	IsEligible          bool                `json:"is_eligible"`
	EligibilityReason   *string             `json:"eligibility_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Decision is the normalized outcome of one credit check. All fields are written
// together within the locked transaction; no partial decision state persists.
type Decision struct {
	IsEligible          bool
	CreditScore         *int
	ApprovedCreditLimit decimal.NullDecimal
	EligibilityReason   string
	RawDecision         json.RawMessage
}

// StatusForDecision returns the terminal status a decision resolves to.
func StatusForDecision(d Decision) Status {
	if d.IsEligible {
		return StatusApprovedEligible
	}
	return StatusRejectedIneligible
}

// KYCSubmission is the DTO for an incoming Pay Later application submission.
type KYCSubmission struct {
	FullName         string              `json:"full_name"`
	NationalIDNumber string              `json:"national_id_number"`
	DateOfBirth      time.Time           `json:"date_of_birth"`
	Address          string              `json:"address"`
	PhoneNumber      string              `json:"phone_number"`
	EmploymentStatus *string             `json:"employment_status,omitempty"`
	MonthlyIncome    decimal.NullDecimal `json:"monthly_income,omitempty"`
}

// EligibilitySummary is the read model exposed by the status endpoint.
type EligibilitySummary struct {
	Status              Status              `json:"status"`
	IsEligible          bool                `json:"is_eligible"`
	EligibilityReason   *string             `json:"eligibility_reason,omitempty"`
	ApprovedCreditLimit decimal.NullDecimal `json:"approved_credit_limit,omitempty"`
}

// Summary projects the fields the status endpoint exposes.
func (a *Application) Summary() EligibilitySummary {
	return EligibilitySummary{
		Status:              a.Status,
		IsEligible:          a.IsEligible,
		EligibilityReason:   a.EligibilityReason,
		ApprovedCreditLimit: a.ApprovedCreditLimit,
	}
}

// Order eligibility denial reasons returned by the order gate.
const (
	DenialReasonNotEligible  = "not eligible"
	DenialReasonExceedsLimit = "exceeds limit"
)

// OrderEligibility is the result of the deferred-payment gate consulted at
// order-creation time.
type OrderEligibility struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// AllowedOrder marks an order as eligible for deferred payment.
func AllowedOrder() OrderEligibility {
	return OrderEligibility{Allowed: true}
}

// DeniedOrder marks an order as ineligible with a reason.
func DeniedOrder(reason string) OrderEligibility {
	return OrderEligibility{Allowed: false, Reason: reason}
}
