package finance

import (
	"context"
	"math"
	"testing"

	"github.com/kincholabs/daf-controller/internal/alloc"
	"github.com/kincholabs/daf-controller/internal/profile"
)

func TestAnalyzeFitScoreRange(t *testing.T) {
	a := NewHeuristicAnalyzer()
	fund := alloc.FundState{TotalAUM: 1_000_000, CurrentHF: 3, LiquidityAvailable: 500_000}

	tests := []struct {
		name string
		req  alloc.Request
		prof *profile.ArchetypeProfile
	}{
		{"no-profile", alloc.Request{ID: "r", UserID: "u", Amount: 10_000, Proposed: []alloc.SuggestedAllocation{
			{CauseID: "education", CauseName: "Education", Amount: 10_000, Percentage: 100, Reasoning: "single grant line"},
		}}, nil},
		{"aligned-profile", alloc.Request{ID: "r", UserID: "u", Amount: 10_000, Proposed: []alloc.SuggestedAllocation{
			{CauseID: "global_health", CauseName: "Global Health", Amount: 7_000, Percentage: 70, Reasoning: "aligned grant line"},
			{CauseID: "yield_reserve", CauseName: "Yield Reserve", Amount: 3_000, Percentage: 30, Reasoning: "yield reserve line"},
		}}, &profile.ArchetypeProfile{
			Primary:        profile.ArchetypeImpactMaximizer,
			Confidence:     0.6,
			CauseAlignment: map[string]float32{"global_health": 0.9},
		}},
		{"empty-proposal", alloc.Request{ID: "r", UserID: "u", Amount: 10_000}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := a.Analyze(context.Background(), tt.req, fund, tt.prof)
			if err != nil {
				t.Fatalf("Analyze: %v", err)
			}
			if res.FitScore < 0 || res.FitScore > 1 {
				t.Errorf("fit = %.4f, want in [0,1]", res.FitScore)
			}
			if res.Reasoning == "" {
				t.Error("expected reasoning")
			}
		})
	}
}

func TestAnalyzeAlignedProfileScoresHigher(t *testing.T) {
	a := NewHeuristicAnalyzer()
	fund := alloc.FundState{TotalAUM: 1_000_000, CurrentHF: 3, LiquidityAvailable: 500_000}
	req := alloc.Request{ID: "r", UserID: "u", Amount: 10_000, Proposed: []alloc.SuggestedAllocation{
		{CauseID: "global_health", CauseName: "Global Health", Amount: 10_000, Percentage: 100, Reasoning: "aligned grant line"},
	}}
	aligned := &profile.ArchetypeProfile{
		Primary:        profile.ArchetypeImpactMaximizer,
		Confidence:     0.6,
		CauseAlignment: map[string]float32{"global_health": 0.9},
	}

	with, err := a.Analyze(context.Background(), req, fund, aligned)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	without, err := a.Analyze(context.Background(), req, fund, nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if with.FitScore <= without.FitScore {
		t.Fatalf("aligned fit %.2f should beat neutral fit %.2f", with.FitScore, without.FitScore)
	}
}

func TestAnalyzeRejectsUncoveredAmount(t *testing.T) {
	a := NewHeuristicAnalyzer()
	fund := alloc.FundState{TotalAUM: 1_000_000, CurrentHF: 3, LiquidityAvailable: 5_000}
	req := alloc.Request{ID: "r", UserID: "u", Amount: 10_000, Proposed: []alloc.SuggestedAllocation{
		{CauseID: "education", CauseName: "Education", Amount: 10_000, Percentage: 100, Reasoning: "single grant line"},
	}}

	res, err := a.Analyze(context.Background(), req, fund, nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Approved {
		t.Fatal("amount beyond available liquidity must not approve")
	}
}

func TestAnalyzeDiversificationSaturates(t *testing.T) {
	req := alloc.Request{ID: "r", UserID: "u", Amount: 5, Proposed: []alloc.SuggestedAllocation{
		{CauseID: "a", Amount: 1}, {CauseID: "b", Amount: 1}, {CauseID: "c", Amount: 1},
		{CauseID: "d", Amount: 1}, {CauseID: "e", Amount: 1},
	}}
	if got := diversificationScore(req); math.Abs(float64(got-1)) > 1e-6 {
		t.Errorf("diversification = %.2f, want saturated 1.0", got)
	}
}
