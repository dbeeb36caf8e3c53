package replay

import (
	"context"

	"github.com/kincholabs/daf-controller/internal/consensus"
	"github.com/kincholabs/daf-controller/internal/finance"
)

// #region types
// Result captures the outcome of replaying one case through the full
// consensus pipeline.
type Result struct {
	Name    string
	Outcome consensus.Outcome
	Reason  string

	Confidence    float32
	HumanOverride bool

	// Whether the replayed verdict matches the recorded expectation.
	Matched bool
}

// Summary provides aggregate stats from a replay run.
type Summary struct {
	TotalCases int
	Matched    int
	Approved   int
	Modified   int
	Rejected   int
}

// #endregion types

// #region replay
// Replay runs every fixture case through the evaluator fan-out and voting
// rule. Operates entirely in-memory; nothing is persisted.
func Replay(ctx context.Context, fixture *Fixture) ([]Result, error) {
	coord := consensus.NewCoordinator(finance.NewHeuristicAnalyzer(), nil)
	if fixture.Config.MinApproveConfidence > 0 {
		coord.SetMinApproveConfidence(fixture.Config.MinApproveConfidence)
	}

	results := make([]Result, 0, len(fixture.Cases))
	for _, c := range fixture.Cases {
		dec, err := coord.Decide(ctx, c.Request, fixture.Fund, c.Analysis)
		if err != nil {
			return nil, err
		}

		matched := string(dec.Outcome) == c.Expected.Outcome &&
			dec.HumanOverrideRequired == c.Expected.HumanOverride
		results = append(results, Result{
			Name:          c.Name,
			Outcome:       dec.Outcome,
			Reason:        dec.Reasoning,
			Confidence:    dec.Confidence,
			HumanOverride: dec.HumanOverrideRequired,
			Matched:       matched,
		})
	}
	return results, nil
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []Result) Summary {
	s := Summary{TotalCases: len(results)}
	for _, r := range results {
		if r.Matched {
			s.Matched++
		}
		switch r.Outcome {
		case consensus.OutcomeApproved:
			s.Approved++
		case consensus.OutcomeModified:
			s.Modified++
		case consensus.OutcomeRejected:
			s.Rejected++
		}
	}
	return s
}

// #endregion replay
