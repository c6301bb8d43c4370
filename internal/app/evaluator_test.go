package app

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/transfa/paylater-service/internal/domain"
	"github.com/transfa/paylater-service/pkg/crcclient"
)

func TestEvaluateCreditResult_Approved(t *testing.T) {
	raw := json.RawMessage(`{"status":"approved","score":720}`)
	limit := decimal.NewNullDecimal(decimal.NewFromInt(250000))
	res := crcclient.CreditResult{
		Approved:       true,
		Score:          720,
		ApprovedLimit:  limit,
		DecisionReason: "Good credit history.",
		Raw:            raw,
	}

	decision := EvaluateCreditResult(res)
	if !decision.IsEligible {
		t.Fatal("expected eligible decision")
	}
	if decision.CreditScore == nil || *decision.CreditScore != 720 {
		t.Fatalf("unexpected score %v", decision.CreditScore)
	}
	if !decision.ApprovedCreditLimit.Valid || !decision.ApprovedCreditLimit.Decimal.Equal(limit.Decimal) {
		t.Fatalf("unexpected limit %v", decision.ApprovedCreditLimit)
	}
	if decision.EligibilityReason != "Good credit history." {
		t.Fatalf("unexpected reason %q", decision.EligibilityReason)
	}
	if string(decision.RawDecision) != string(raw) {
		t.Fatal("expected raw bureau response to be retained verbatim")
	}
	if domain.StatusForDecision(decision) != domain.StatusApprovedEligible {
		t.Fatal("expected decision to resolve to APPROVED_ELIGIBLE")
	}
}

func TestEvaluateCreditResult_RejectionClearsLimit(t *testing.T) {
	// Even when the bureau payload carries a limit, a rejection must never
	// leave a spendable limit on the application.
	res := crcclient.CreditResult{
		Approved:      false,
		Score:         480,
		ApprovedLimit: decimal.NewNullDecimal(decimal.NewFromInt(50000)),
	}

	decision := EvaluateCreditResult(res)
	if decision.IsEligible {
		t.Fatal("expected ineligible decision")
	}
	if decision.ApprovedCreditLimit.Valid {
		t.Fatalf("expected limit to be cleared on rejection, got %v", decision.ApprovedCreditLimit.Decimal)
	}
	if domain.StatusForDecision(decision) != domain.StatusRejectedIneligible {
		t.Fatal("expected decision to resolve to REJECTED_INELIGIBLE")
	}
}

func TestEvaluateCreditResult_DefaultReasons(t *testing.T) {
	approved := EvaluateCreditResult(crcclient.CreditResult{Approved: true, Score: 700})
	if approved.EligibilityReason != defaultApprovedReason {
		t.Fatalf("unexpected approved fallback reason %q", approved.EligibilityReason)
	}

	rejected := EvaluateCreditResult(crcclient.CreditResult{Approved: false, Score: 500})
	if rejected.EligibilityReason != defaultRejectedReason {
		t.Fatalf("unexpected rejected fallback reason %q", rejected.EligibilityReason)
	}
}
