package metacog

// #region imports
import (
	"fmt"
	"strings"
)

// #endregion

// #region evaluate

// Evaluate scores data quality, decision complexity, and historical
// precedent into a confidence score, collects uncertainty sources, and
// flags whether a human should review before execution. Pure function.
func Evaluate(in Input) Result {
	var sources []string

	dq := dataQuality(in, &sources)
	cx := complexity(in, &sources)
	pr := precedent(in, &sources)

	confidence := clamp01(weightDataQuality*dq + weightComplexity*cx + weightPrecedent*pr)
	if confidence < lowConfidenceFlag {
		sources = append(sources, "Overall confidence is low; evaluator inputs are thin")
	}

	override := confidence < overrideConfidenceFloor ||
		len(sources) > overrideSourceCeiling ||
		in.Request.Amount > overrideAmountCeiling

	return Result{
		Confidence:               confidence,
		DataQuality:              dq,
		Complexity:               cx,
		Precedent:                pr,
		UncertaintySources:       sources,
		ReasoningChain:           reasoningChain(in),
		HumanOverrideRecommended: override,
	}
}

// #endregion

// #region data-quality

func dataQuality(in Input, sources *[]string) float32 {
	score := float32(0.80)

	if in.Profile == nil {
		score -= 0.15
		*sources = append(*sources, "No archetype profile on record for this donor")
	}
	if !in.HasMoralVector {
		score -= 0.10
		*sources = append(*sources, "No moral vector available")
	}
	if !in.HasRecommendationProfile {
		score -= 0.10
		*sources = append(*sources, "Recommendation carries no psychological profile")
	}
	if len(in.Request.Proposed) == 0 {
		score -= 0.30
		*sources = append(*sources, "Proposal contains no allocation line items")
	}
	for _, p := range in.Request.Proposed {
		if len(p.Reasoning) <= 20 {
			score -= 0.05
			*sources = append(*sources, fmt.Sprintf("Allocation %s has thin reasoning", p.CauseID))
			break
		}
	}
	if in.Fund.TotalAUM == 0 {
		score -= 0.20
		*sources = append(*sources, "Fund AUM is zero")
	}
	if in.Fund.CurrentHF == 0 {
		score -= 0.10
		*sources = append(*sources, "Health factor is zero")
	}

	return clamp01(score)
}

// #endregion

// #region complexity

func complexity(in Input, sources *[]string) float32 {
	score := float32(0.90)

	switch items := len(in.Request.Proposed); {
	case items > 5:
		score -= 0.20
		*sources = append(*sources, fmt.Sprintf("Proposal spans %d line items", items))
	case items > 3:
		score -= 0.10
		*sources = append(*sources, fmt.Sprintf("Proposal spans %d line items", items))
	}

	switch amount := in.Request.Amount; {
	case amount > 100_000:
		score -= 0.10
		*sources = append(*sources, "Amount exceeds 100,000")
	case amount > 50_000:
		score -= 0.05
		*sources = append(*sources, "Amount exceeds 50,000")
	}

	hasGrant, hasYield := false, false
	for _, p := range in.Request.Proposed {
		if p.IsYield() {
			hasYield = true
		} else {
			hasGrant = true
		}
	}
	if hasGrant && hasYield {
		score -= 0.05
		*sources = append(*sources, "Proposal mixes grant and yield allocations")
	}

	return clamp01(score)
}

// #endregion

// #region precedent

func precedent(in Input, sources *[]string) float32 {
	score := float32(0.70)

	if len(in.Request.Proposed) > 0 {
		known := 0
		for _, p := range in.Request.Proposed {
			if _, ok := in.Fund.CurrentAllocation[p.CauseID]; ok {
				known++
			}
		}
		switch {
		case known == len(in.Request.Proposed):
			score += 0.20
		case known == 0:
			score -= 0.15
			*sources = append(*sources, "No proposed category exists in the current allocation")
		}
	}

	if in.Profile == nil || in.Profile.Confidence == 0 {
		score -= 0.10
		*sources = append(*sources, "First-time donor with no prior archetype confidence")
	}

	return clamp01(score)
}

// #endregion

// #region reasoning-chain

// reasoningChain builds the fixed 5-step audit narrative. It restates
// inputs for the decision log; it never gates control flow.
func reasoningChain(in Input) []ReasoningStep {
	causes := in.Request.Preferences.Causes
	if len(causes) > 3 {
		causes = causes[:3]
	}
	causeText := "none declared"
	if len(causes) > 0 {
		causeText = strings.Join(causes, ", ")
	}

	tolerance := in.Request.Preferences.RiskTolerance
	if tolerance == "" {
		tolerance = "unspecified"
	}
	toleranceImplication := map[string]string{
		"low":    "capital preservation outweighs reach",
		"medium": "a balanced grant/yield split is acceptable",
		"high":   "larger or less proven positions are acceptable",
	}[tolerance]
	if toleranceImplication == "" {
		toleranceImplication = "a conservative default posture applies"
	}

	var liquidityRatio float32
	if in.Fund.LiquidityAvailable > 0 {
		liquidityRatio = float32(in.Request.Amount) / float32(in.Fund.LiquidityAvailable)
	}
	liquidityConclusion := "within the 50% liquidity comfort band"
	if liquidityRatio > 0.5 {
		liquidityConclusion = "exceeds 50% of available liquidity"
	}

	band := "high"
	switch {
	case in.RecommendationConfidence < 0.5:
		band = "low"
	case in.RecommendationConfidence < 0.75:
		band = "moderate"
	}

	return []ReasoningStep{
		{
			Step:       1,
			Premise:    fmt.Sprintf("Donor declared causes: %s", causeText),
			Conclusion: "Proposal should trace back to these declared priorities",
		},
		{
			Step:       2,
			Premise:    fmt.Sprintf("Donor risk tolerance is %s", tolerance),
			Conclusion: fmt.Sprintf("For this donor, %s", toleranceImplication),
		},
		{
			Step:       3,
			Premise:    fmt.Sprintf("Requested amount is %.0f%% of available liquidity", liquidityRatio*100),
			Conclusion: fmt.Sprintf("The request %s", liquidityConclusion),
		},
		{
			Step:       4,
			Premise:    fmt.Sprintf("Upstream recommendation confidence is %.2f", in.RecommendationConfidence),
			Conclusion: fmt.Sprintf("Upstream confidence band is %s", band),
		},
		{
			Step:       5,
			Premise:    fmt.Sprintf("Proposal totals %d across %d line items", in.Request.Amount, len(in.Request.Proposed)),
			Conclusion: "Proceed to consensus check",
		},
	}
}

// #endregion

// #region helpers

// clamp01 restricts v to [0, 1].
func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion
