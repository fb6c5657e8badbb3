package pricing

import "time"

// RefundTier classifies the outcome of a refund evaluation.
type RefundTier string

const (
	RefundTierFull    RefundTier = "full"
	RefundTierPartial RefundTier = "partial"
	RefundTierDenied  RefundTier = "denied"
)

// RefundDecision is the pure output of the policy evaluator; it is stored
// on the booking, never persisted on its own.
type RefundDecision struct {
	RefundCents int64
	FeeCents    int64
	Tier        RefundTier
}

// PolicyName selects the fee model.
type PolicyName string

const (
	PolicyTiered PolicyName = "tiered"
	PolicyFlat   PolicyName = "flat"
)

const fullRefundWindow = 24 * time.Hour

// EvaluateTiered applies the tiered 100%/50%/0% model:
// at least 24h before the event a full refund, inside 24h a 50% refund,
// after the event start no refund.
func EvaluateTiered(totalAmountCents int64, untilEvent time.Duration) RefundDecision {
	switch {
	case untilEvent >= fullRefundWindow:
		return RefundDecision{RefundCents: totalAmountCents, FeeCents: 0, Tier: RefundTierFull}
	case untilEvent >= 0:
		fee := totalAmountCents * 50 / 100
		return RefundDecision{RefundCents: totalAmountCents - fee, FeeCents: fee, Tier: RefundTierPartial}
	default:
		return RefundDecision{RefundCents: 0, FeeCents: 0, Tier: RefundTierDenied}
	}
}

// EvaluateFlat applies the flat-fee model: a 10% fee capped at capCents,
// only when the cancellation happens at least 24h before the event.
func EvaluateFlat(totalAmountCents int64, untilEvent time.Duration, capCents int64) RefundDecision {
	if untilEvent < fullRefundWindow {
		return RefundDecision{RefundCents: 0, FeeCents: 0, Tier: RefundTierDenied}
	}
	fee := totalAmountCents * 10 / 100
	if fee > capCents {
		fee = capCents
	}
	return RefundDecision{RefundCents: totalAmountCents - fee, FeeCents: fee, Tier: RefundTierFull}
}

// Evaluate dispatches to the configured policy. Unknown names fall back to
// the tiered model.
func Evaluate(policy PolicyName, totalAmountCents int64, untilEvent time.Duration, capCents int64) RefundDecision {
	if policy == PolicyFlat {
		return EvaluateFlat(totalAmountCents, untilEvent, capCents)
	}
	return EvaluateTiered(totalAmountCents, untilEvent)
}
