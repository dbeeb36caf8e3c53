package finance

// #region imports
import (
	"context"
	"fmt"

	"github.com/kincholabs/daf-controller/internal/alloc"
	"github.com/kincholabs/daf-controller/internal/consensus"
	"github.com/kincholabs/daf-controller/internal/profile"
)

// #endregion

// #region analyzer

// HeuristicAnalyzer is the default financial analyzer: a weighted fit of
// cause alignment, diversification, and liquidity headroom. No model call.
type HeuristicAnalyzer struct{}

// NewHeuristicAnalyzer creates the default analyzer.
func NewHeuristicAnalyzer() *HeuristicAnalyzer {
	return &HeuristicAnalyzer{}
}

// Fit weights and the approval floor.
const (
	weightAlignment       = 0.40
	weightDiversification = 0.30
	weightHeadroom        = 0.30

	fitApprovalFloor = 0.50
)

// #endregion

// #region analyze

// Analyze scores how well a proposal fits the donor profile and the
// fund's current position. Approved requires the fit floor and an amount
// covered by available liquidity.
func (h *HeuristicAnalyzer) Analyze(ctx context.Context, req alloc.Request, fund alloc.FundState, prof *profile.ArchetypeProfile) (consensus.FinancialResult, error) {
	if err := ctx.Err(); err != nil {
		return consensus.FinancialResult{}, err
	}

	alignment := alignmentScore(req, prof)
	diversification := diversificationScore(req)
	headroom := headroomScore(req, fund)

	fit := clamp01(weightAlignment*alignment +
		weightDiversification*diversification +
		weightHeadroom*headroom)

	covered := req.Amount <= fund.LiquidityAvailable
	approved := fit >= fitApprovalFloor && covered

	reasoning := fmt.Sprintf(
		"Financial fit %.2f (alignment %.2f, diversification %.2f, liquidity headroom %.2f).",
		fit, alignment, diversification, headroom)
	if !covered {
		reasoning += " Requested amount exceeds available liquidity."
	}

	return consensus.FinancialResult{
		Approved:  approved,
		FitScore:  fit,
		Reasoning: reasoning,
	}, nil
}

// #endregion

// #region alignment

// alignmentScore averages the profile's cause alignment over the proposed
// grant line items. Without a profile the score is a neutral 0.5.
func alignmentScore(req alloc.Request, prof *profile.ArchetypeProfile) float32 {
	if prof == nil || len(prof.CauseAlignment) == 0 {
		return 0.5
	}
	var sum float32
	count := 0
	for _, p := range req.Proposed {
		if p.IsYield() {
			continue
		}
		sum += prof.CauseAlignment[p.CauseID]
		count++
	}
	if count == 0 {
		return 0.5
	}
	return clamp01(sum / float32(count))
}

// #endregion

// #region diversification

// diversificationScore rewards spreading across distinct causes, saturating
// at four.
func diversificationScore(req alloc.Request) float32 {
	distinct := req.DistinctCauses()
	if distinct >= 4 {
		return 1
	}
	return float32(distinct) / 4
}

// #endregion

// #region headroom

// headroomScore rewards requests small relative to available liquidity.
func headroomScore(req alloc.Request, fund alloc.FundState) float32 {
	if fund.LiquidityAvailable <= 0 {
		return 0
	}
	ratio := float32(req.Amount) / float32(fund.LiquidityAvailable)
	return clamp01(1 - ratio)
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
