package app

import (
	"github.com/shopspring/decimal"
	"github.com/transfa/paylater-service/internal/domain"
	"github.com/transfa/paylater-service/pkg/crcclient"
)

// Fallback reasons when the bureau response carries no decision message.
const (
	defaultApprovedReason = "Approved based on credit history."
	defaultRejectedReason = "Rejected based on credit history."
)

// EvaluateCreditResult maps a definitive bureau verdict to the decision that is
// persisted on the application. It is a pure function with no I/O, so the
// mapping rules are unit-testable in isolation.
//
// Normalization: the approved credit limit is cleared whenever the verdict is
// not an approval, regardless of what the raw result contains. A rejected
// application must never carry a spendable limit.
func EvaluateCreditResult(res crcclient.CreditResult) domain.Decision {
	score := res.Score
	decision := domain.Decision{
		IsEligible:        res.Approved,
		CreditScore:       &score,
		EligibilityReason: res.DecisionReason,
		RawDecision:       res.Raw,
	}

	if res.Approved {
		decision.ApprovedCreditLimit = res.ApprovedLimit
		if decision.EligibilityReason == "" {
			decision.EligibilityReason = defaultApprovedReason
		}
	} else {
		decision.ApprovedCreditLimit = decimal.NullDecimal{}
		if decision.EligibilityReason == "" {
			decision.EligibilityReason = defaultRejectedReason
		}
	}

	return decision
}
