package builder

import "math/big"

// Outcome is the build orchestrator's result, a closed sum over
// Better/Aborted/Cancelled: exactly one of the three shapes is populated.
type Outcome struct {
	Better    *BetterOutcome
	Aborted   *AbortedOutcome
	Cancelled bool
}

// BetterOutcome carries a sealed payload that strictly beat the prior best.
// CachedReads travels back alongside it so the next attempt against the same
// parent keeps the warmed read cache.
type BetterOutcome struct {
	Payload     *BuiltPayload
	CachedReads StateProvider
}

// AbortedOutcome is returned when an attempt did not beat best_prior.fees;
// cached_reads travels back to the caller for reuse on the next attempt.
type AbortedOutcome struct {
	Fees        *big.Int
	CachedReads StateProvider
}

// betterThan is the revenue gate: strict inequality only, so a tie
// is not an improvement and does not replace the existing best. With no
// prior attempt to beat, the first attempt always wins.
func betterThan(totalFees *big.Int, prior *BestPayload) bool {
	if prior == nil || prior.Fees == nil {
		return true
	}
	return totalFees.Cmp(prior.Fees) > 0
}
