package risk

// #region imports
import (
	"fmt"
	"strings"

	"github.com/kincholabs/daf-controller/internal/alloc"
)

// #endregion

// #region evaluate

// Evaluate scores a proposed allocation against fund state across four
// risk dimensions plus three compliance checks. hasProfile indicates
// whether the donor has an archetype profile on record. Pure function:
// a deny verdict is a normal policy outcome, never an error.
func Evaluate(req alloc.Request, fund alloc.FundState, hasProfile bool) Result {
	a := Assessment{
		MarketRisk:      marketRisk(req, fund),
		CreditRisk:      creditRisk(req),
		LiquidityRisk:   liquidityRisk(req, fund),
		OperationalRisk: operationalRisk(req, fund, hasProfile),
		Compliance:      complianceChecks(req, fund),
	}
	a.AggregateRisk = clamp01(weightMarket*a.MarketRisk +
		weightCredit*a.CreditRisk +
		weightLiquidity*a.LiquidityRisk +
		weightOperational*a.OperationalRisk)

	approved := a.AggregateRisk <= approvalCeiling && a.Compliance.AllPass()

	return Result{
		Approved:   approved,
		Assessment: a,
		Reasoning:  buildReasoning(a),
	}
}

// #endregion

// #region market

func marketRisk(req alloc.Request, fund alloc.FundState) float32 {
	score := float32(0.10)

	if fund.TotalAUM > 0 {
		ratio := float32(req.Amount) / float32(fund.TotalAUM)
		if ratio > 0.20 {
			score += 0.20
		} else if ratio > 0.10 {
			score += 0.10
		}
	}

	hasYield, hasVolatile := false, false
	for _, p := range req.Proposed {
		id := strings.ToLower(p.CauseID)
		if strings.Contains(id, "yield") {
			hasYield = true
		}
		if strings.Contains(id, "defi") || strings.Contains(id, "crypto") {
			hasVolatile = true
		}
	}
	if hasYield {
		score += 0.10
	}
	if hasVolatile {
		score += 0.15
	}

	return clamp01(score)
}

// #endregion

// #region credit

func creditRisk(req alloc.Request) float32 {
	score := float32(0.05)

	switch distinct := req.DistinctCauses(); {
	case distinct == 1:
		score += 0.15
	case distinct <= 3:
		score += 0.05
	}

	for _, p := range req.Proposed {
		if req.Amount > 0 && float32(p.Amount) > 0.70*float32(req.Amount) {
			score += 0.10
			break
		}
	}

	for _, p := range req.Proposed {
		name := strings.ToLower(p.CauseName)
		if strings.Contains(name, "new") || strings.Contains(name, "startup") {
			score += 0.10
			break
		}
	}

	return clamp01(score)
}

// #endregion

// #region liquidity

func liquidityRisk(req alloc.Request, fund alloc.FundState) float32 {
	score := float32(0.05)

	if fund.LiquidityAvailable > 0 {
		ratio := float32(req.Amount) / float32(fund.LiquidityAvailable)
		switch {
		case ratio > 0.8:
			score += 0.30
		case ratio > 0.5:
			score += 0.15
		case ratio > 0.3:
			score += 0.05
		}
	}

	if fund.CurrentHF < 2 {
		score += 0.20
	}

	if req.Amount > 0 && float32(req.GrantAmount()) > 0.90*float32(req.Amount) {
		score += 0.10
	}

	return clamp01(score)
}

// #endregion

// #region operational

func operationalRisk(req alloc.Request, fund alloc.FundState, hasProfile bool) float32 {
	score := float32(0.05)

	if !hasProfile {
		score += 0.10
	}
	if len(req.Proposed) > 5 {
		score += 0.10
	}
	if fund.TotalAUM > 0 && float32(req.Amount) > 0.10*float32(fund.TotalAUM) {
		score += 0.05
	}

	return clamp01(score)
}

// #endregion

// #region compliance

func complianceChecks(req alloc.Request, fund alloc.FundState) ComplianceChecks {
	checks := ComplianceChecks{
		ConcentrationLimit: true,
		// Reserved for future sector-level limits; always passes.
		SectorLimit:          true,
		LiquidityRequirement: true,
	}

	postAUM := float32(fund.TotalAUM + req.Amount)
	if postAUM > 0 {
		for _, p := range req.Proposed {
			existing := fund.CurrentAllocation[p.CauseID] * float32(fund.TotalAUM)
			if (existing+float32(p.Amount))/postAUM > concentrationCeiling {
				checks.ConcentrationLimit = false
				break
			}
		}
	}

	if float32(fund.LiquidityAvailable-req.Amount) < liquidityFloor*postAUM {
		checks.LiquidityRequirement = false
	}

	return checks
}

// #endregion

// #region reasoning

func buildReasoning(a Assessment) []string {
	var out []string

	if a.AggregateRisk <= approvalCeiling {
		out = append(out, fmt.Sprintf("Overall risk is within tolerance at %.2f.", a.AggregateRisk))
	} else {
		out = append(out, fmt.Sprintf("Overall risk is elevated at %.2f, above the %.2f approval ceiling.", a.AggregateRisk, float32(approvalCeiling)))
	}

	if a.MarketRisk > marketReasonThreshold {
		out = append(out, fmt.Sprintf("Market risk %.2f reflects position size or volatile venue exposure.", a.MarketRisk))
	}
	if a.CreditRisk > creditReasonThreshold {
		out = append(out, fmt.Sprintf("Credit risk %.2f reflects concentration in few or unproven counterparties.", a.CreditRisk))
	}
	if a.LiquidityRisk > liquidityReasonThreshold {
		out = append(out, fmt.Sprintf("Liquidity risk %.2f reflects thin available liquidity or collateral health.", a.LiquidityRisk))
	}

	if !a.Compliance.ConcentrationLimit {
		out = append(out, "Concentration limit breached: a category would exceed 30% of post-trade AUM.")
	}
	if !a.Compliance.SectorLimit {
		out = append(out, "Sector limit breached.")
	}
	if !a.Compliance.LiquidityRequirement {
		out = append(out, "Liquidity requirement breached: remaining liquidity would fall below 20% of post-trade AUM.")
	}

	return out
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
