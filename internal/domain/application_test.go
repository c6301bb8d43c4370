package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateTransition_LegalPath(t *testing.T) {
	steps := []struct {
		from Status
		to   Status
	}{
		{StatusPendingSubmission, StatusSubmittedKYC},
		{StatusSubmittedKYC, StatusPendingCRCCheck},
		{StatusPendingCRCCheck, StatusApprovedEligible},
		{StatusPendingCRCCheck, StatusRejectedIneligible},
	}
	for _, step := range steps {
		if err := ValidateTransition(step.from, step.to); err != nil {
			t.Errorf("expected %s -> %s to be legal, got %v", step.from, step.to, err)
		}
	}
}

func TestValidateTransition_RejectsIllegalMoves(t *testing.T) {
	steps := []struct {
		from Status
		to   Status
	}{
		{StatusPendingSubmission, StatusPendingCRCCheck},
		{StatusPendingSubmission, StatusApprovedEligible},
		{StatusSubmittedKYC, StatusApprovedEligible},
		{StatusApprovedEligible, StatusRejectedIneligible},
		{StatusRejectedIneligible, StatusPendingCRCCheck},
		{StatusApprovedEligible, StatusPendingSubmission},
		{StatusPendingCRCCheck, StatusSubmittedKYC},
	}
	for _, step := range steps {
		err := ValidateTransition(step.from, step.to)
		if err == nil {
			t.Errorf("expected %s -> %s to be rejected", step.from, step.to)
			continue
		}
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("expected ErrInvalidTransition for %s -> %s, got %v", step.from, step.to, err)
		}
	}
}

func TestValidateTransition_ReservedStatesAreDeadEnds(t *testing.T) {
	for _, reserved := range []Status{StatusCRCApproved, StatusCRCRejected} {
		if err := ValidateTransition(StatusPendingCRCCheck, reserved); err == nil {
			t.Errorf("expected no transition into %s", reserved)
		}
		if err := ValidateTransition(reserved, StatusApprovedEligible); err == nil {
			t.Errorf("expected no transition out of %s", reserved)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	terminal := map[Status]bool{
		StatusPendingSubmission:  false,
		StatusSubmittedKYC:       false,
		StatusPendingCRCCheck:    false,
		StatusApprovedEligible:   true,
		StatusRejectedIneligible: true,
		StatusCRCApproved:        false,
		StatusCRCRejected:        false,
	}
	for status, want := range terminal {
		if got := status.Terminal(); got != want {
			t.Errorf("Terminal(%s) = %v, want %v", status, got, want)
		}
	}
}

func TestStatusForDecision(t *testing.T) {
	if got := StatusForDecision(Decision{IsEligible: true}); got != StatusApprovedEligible {
		t.Errorf("expected APPROVED_ELIGIBLE for eligible decision, got %s", got)
	}
	if got := StatusForDecision(Decision{IsEligible: false}); got != StatusRejectedIneligible {
		t.Errorf("expected REJECTED_INELIGIBLE for ineligible decision, got %s", got)
	}
}

func TestSummaryProjectsDecisionFields(t *testing.T) {
	reason := "Approved based on credit history."
	limit := decimal.NewNullDecimal(decimal.NewFromInt(100000))
	app := &Application{
		Status:              StatusApprovedEligible,
		IsEligible:          true,
		EligibilityReason:   &reason,
		ApprovedCreditLimit: limit,
		FullName:            "Ada Obi",
		NationalIDNumber:    "NG-1234",
	}

	summary := app.Summary()
	if summary.Status != StatusApprovedEligible {
		t.Errorf("unexpected status %s", summary.Status)
	}
	if !summary.IsEligible {
		t.Error("expected summary to be eligible")
	}
	if summary.EligibilityReason == nil || *summary.EligibilityReason != reason {
		t.Errorf("unexpected reason %v", summary.EligibilityReason)
	}
	if !summary.ApprovedCreditLimit.Valid || !summary.ApprovedCreditLimit.Decimal.Equal(limit.Decimal) {
		t.Errorf("unexpected limit %v", summary.ApprovedCreditLimit)
	}
}
