package metacog

import (
	"math"
	"strings"
	"testing"

	"github.com/kincholabs/daf-controller/internal/alloc"
	"github.com/kincholabs/daf-controller/internal/profile"
)

func richInput() Input {
	return Input{
		Request: alloc.Request{
			ID:     "req-1",
			UserID: "user-1",
			Amount: 10_000,
			Preferences: alloc.UserPreferences{
				Causes:        []string{"global_health", "education", "climate_action", "poverty_relief"},
				RiskTolerance: "medium",
			},
			Proposed: []alloc.SuggestedAllocation{
				{CauseID: "global_health", CauseName: "Global Health", Amount: 4_000, Percentage: 40, Reasoning: "strong affinity signal from questionnaire"},
				{CauseID: "education", CauseName: "Education", Amount: 3_000, Percentage: 30, Reasoning: "secondary affinity signal from questionnaire"},
				{CauseID: "yield_reserve", CauseName: "Yield Reserve", Amount: 3_000, Percentage: 30, Reasoning: "standing 30% yield reserve line item"},
			},
		},
		Fund: alloc.FundState{
			TotalAUM: 1_000_000,
			CurrentAllocation: map[string]float32{
				"global_health": 0.10,
				"education":     0.05,
				"yield_reserve": 0.20,
			},
			CurrentHF:          3.0,
			LiquidityAvailable: 500_000,
		},
		Profile: &profile.ArchetypeProfile{
			Primary:    profile.ArchetypeImpactMaximizer,
			Confidence: 0.6,
		},
		HasMoralVector:           true,
		HasRecommendationProfile: true,
		RecommendationConfidence: 0.8,
	}
}

func TestEvaluateConfidenceIsExactWeightedSum(t *testing.T) {
	res := Evaluate(richInput())

	want := 0.40*res.DataQuality + 0.30*res.Complexity + 0.30*res.Precedent
	if math.Abs(float64(res.Confidence-want)) > 1e-6 {
		t.Fatalf("confidence = %.6f, want %.6f", res.Confidence, want)
	}
	for name, v := range map[string]float32{
		"data quality": res.DataQuality,
		"complexity":   res.Complexity,
		"precedent":    res.Precedent,
		"confidence":   res.Confidence,
	} {
		if v < 0 || v > 1 {
			t.Errorf("%s = %.4f, want in [0,1]", name, v)
		}
	}
}

func TestEvaluateRichInputSubScores(t *testing.T) {
	res := Evaluate(richInput())

	// No penalties apply: full bases, plus the every-category precedent bonus.
	if math.Abs(float64(res.DataQuality-0.80)) > 1e-6 {
		t.Errorf("data quality = %.4f, want 0.80", res.DataQuality)
	}
	// Mixed grant/yield proposal costs 0.05 on the 0.90 base.
	if math.Abs(float64(res.Complexity-0.85)) > 1e-6 {
		t.Errorf("complexity = %.4f, want 0.85", res.Complexity)
	}
	if math.Abs(float64(res.Precedent-0.90)) > 1e-6 {
		t.Errorf("precedent = %.4f, want 0.90", res.Precedent)
	}
}

func TestEvaluateLargeAmountForcesOverride(t *testing.T) {
	in := richInput()
	in.Request.Amount = 150_000
	in.Request.Proposed = []alloc.SuggestedAllocation{
		{CauseID: "global_health", CauseName: "Global Health", Amount: 150_000, Percentage: 100, Reasoning: "strong affinity signal from questionnaire"},
	}

	res := Evaluate(in)

	if !res.HumanOverrideRecommended {
		t.Fatal("amount 150,000 alone must trigger human override")
	}
}

func TestEvaluateDataQualityPenalties(t *testing.T) {
	in := richInput()
	in.Profile = nil
	in.HasMoralVector = false

	res := Evaluate(in)

	// 0.80 − 0.15 (no profile) − 0.10 (no vector) = 0.55
	if math.Abs(float64(res.DataQuality-0.55)) > 1e-6 {
		t.Errorf("data quality = %.4f, want 0.55", res.DataQuality)
	}
}

func TestEvaluateEmptyProposalPenalty(t *testing.T) {
	in := richInput()
	in.Request.Proposed = nil

	res := Evaluate(in)

	// 0.80 − 0.30 = 0.50
	if math.Abs(float64(res.DataQuality-0.50)) > 1e-6 {
		t.Errorf("data quality = %.4f, want 0.50", res.DataQuality)
	}
}

func TestEvaluateUncertaintySourceOrdering(t *testing.T) {
	in := Input{
		Request: alloc.Request{ID: "r", UserID: "u", Amount: 120_000},
		Fund:    alloc.FundState{},
	}

	res := Evaluate(in)

	// Data-quality flags first, then complexity, then precedent.
	var dqIdx, cxIdx, prIdx = -1, -1, -1
	for i, s := range res.UncertaintySources {
		switch {
		case strings.Contains(s, "archetype profile") && dqIdx == -1:
			dqIdx = i
		case strings.Contains(s, "exceeds 100,000"):
			cxIdx = i
		case strings.Contains(s, "First-time donor"):
			prIdx = i
		}
	}
	if dqIdx == -1 || cxIdx == -1 || prIdx == -1 {
		t.Fatalf("missing expected sources: %v", res.UncertaintySources)
	}
	if !(dqIdx < cxIdx && cxIdx < prIdx) {
		t.Fatalf("ordering wrong: dq=%d cx=%d pr=%d", dqIdx, cxIdx, prIdx)
	}
	if !res.HumanOverrideRecommended {
		t.Fatal("low confidence with many sources must recommend override")
	}
}

func TestEvaluateReasoningChainShape(t *testing.T) {
	in := richInput()
	in.Request.Amount = 300_000 // 60% of liquidity

	res := Evaluate(in)

	if len(res.ReasoningChain) != 5 {
		t.Fatalf("chain has %d steps, want 5", len(res.ReasoningChain))
	}
	for i, step := range res.ReasoningChain {
		if step.Step != i+1 {
			t.Errorf("step %d numbered %d", i, step.Step)
		}
		if step.Premise == "" || step.Conclusion == "" {
			t.Errorf("step %d missing premise or conclusion", step.Step)
		}
	}
	if !strings.Contains(res.ReasoningChain[2].Conclusion, "exceeds 50%") {
		t.Errorf("step 3 conclusion = %q, want liquidity breach statement", res.ReasoningChain[2].Conclusion)
	}
	if res.ReasoningChain[4].Conclusion != "Proceed to consensus check" {
		t.Errorf("step 5 conclusion = %q", res.ReasoningChain[4].Conclusion)
	}
	// Top-3 restatement truncates the declared causes.
	if strings.Contains(res.ReasoningChain[0].Premise, "poverty_relief") {
		t.Errorf("step 1 should restate only the top 3 causes: %q", res.ReasoningChain[0].Premise)
	}
}
