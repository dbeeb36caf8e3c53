package consensus

// #region imports
import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kincholabs/daf-controller/internal/alloc"
	"github.com/kincholabs/daf-controller/internal/metacog"
	"github.com/kincholabs/daf-controller/internal/profile"
	"github.com/kincholabs/daf-controller/internal/risk"
)

// #endregion

// #region coordinator

// Coordinator runs the three evaluators concurrently, combines their
// verdicts into one decision, and persists the result.
type Coordinator struct {
	analyzer             FinancialAnalyzer
	store                DecisionStore // nil = evaluate without persistence
	minApproveConfidence float32
	now                  func() time.Time
}

// defaultMinApproveConfidence gates approval on meta-cognitive confidence.
const defaultMinApproveConfidence = 0.70

// NewCoordinator creates a coordinator. store may be nil for standalone
// gating (the lend path) where nothing is persisted.
func NewCoordinator(analyzer FinancialAnalyzer, store DecisionStore) *Coordinator {
	return &Coordinator{
		analyzer:             analyzer,
		store:                store,
		minApproveConfidence: defaultMinApproveConfidence,
		now:                  time.Now,
	}
}

// SetMinApproveConfidence overrides the approval confidence floor.
func (c *Coordinator) SetMinApproveConfidence(v float32) {
	c.minApproveConfidence = v
}

// SetClock overrides the decision timestamp source (tests).
func (c *Coordinator) SetClock(now func() time.Time) {
	c.now = now
}

// #endregion

// #region decide

// Decide validates the request, fans the evaluators out concurrently,
// combines verdicts, and persists exactly one decision with the request's
// terminal status. Validation failure is an invariant violation returned
// before any evaluator runs.
func (c *Coordinator) Decide(ctx context.Context, req alloc.Request, fund alloc.FundState, analysis *profile.Analysis) (Decision, error) {
	if err := req.Validate(); err != nil {
		return Decision{}, err
	}

	if c.store != nil {
		if err := c.store.MarkProcessing(req.ID); err != nil {
			return Decision{}, fmt.Errorf("mark processing: %w", err)
		}
	}

	cons, err := c.Deliberate(ctx, req, fund, analysis)
	if err != nil {
		return Decision{}, err
	}

	dec := c.buildDecision(req, cons)

	if c.store != nil {
		if err := c.store.SaveDecision(dec, alloc.Status(dec.Outcome)); err != nil {
			return Decision{}, fmt.Errorf("save decision: %w", err)
		}
	}

	log.Printf("[CONS] request=%s decision=%s consensus=%v confidence=%.2f override=%v",
		req.ID, dec.Outcome, cons.HasConsensus, dec.Confidence, dec.HumanOverrideRequired)

	return dec, nil
}

// #endregion

// #region deliberate

// Deliberate runs the three evaluators concurrently and combines their
// verdicts. No persistence; used directly by the replay harness and the
// lend gate. The evaluators have no data dependency on one another, so
// only the join order matters.
func (c *Coordinator) Deliberate(ctx context.Context, req alloc.Request, fund alloc.FundState, analysis *profile.Analysis) (SubagentConsensus, error) {
	var prof *profile.ArchetypeProfile
	hasVector := false
	if analysis != nil {
		p := analysis.Archetype
		prof = &p
		hasVector = analysis.Vector != (profile.MoralVector{})
	}

	var (
		fin  FinancialResult
		rk   risk.Result
		meta metacog.Result
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		fin, err = c.analyzer.Analyze(gctx, req, fund, prof)
		if err != nil {
			return fmt.Errorf("financial analysis: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		rk = risk.Evaluate(req, fund, prof != nil)
		return nil
	})
	g.Go(func() error {
		meta = metacog.Evaluate(metacog.Input{
			Request:                  req,
			Fund:                     fund,
			Profile:                  prof,
			HasMoralVector:           hasVector,
			HasRecommendationProfile: prof != nil,
			RecommendationConfidence: profileConfidence(prof),
		})
		return nil
	})
	if err := g.Wait(); err != nil {
		return SubagentConsensus{}, err
	}

	outcome := decideOutcome(fin, rk, meta, c.minApproveConfidence)

	return SubagentConsensus{
		Financial:         fin,
		Risk:              rk,
		MetaCognition:     meta,
		HasConsensus:      fin.Approved == rk.Approved,
		ConsensusDecision: &outcome,
	}, nil
}

// #endregion

// #region voting-rule

// decideOutcome is the conservative voting rule: reject if the financial
// or risk evaluator rejects; approve only when both approve and
// meta-cognitive confidence clears the floor; otherwise modified.
func decideOutcome(fin FinancialResult, rk risk.Result, meta metacog.Result, confidenceFloor float32) Outcome {
	if !fin.Approved || !rk.Approved {
		return OutcomeRejected
	}
	if meta.Confidence >= confidenceFloor {
		return OutcomeApproved
	}
	return OutcomeModified
}

// #endregion

// #region build-decision

func (c *Coordinator) buildDecision(req alloc.Request, cons SubagentConsensus) Decision {
	outcome := *cons.ConsensusDecision

	var allocations []alloc.SuggestedAllocation
	if outcome != OutcomeRejected {
		allocations = req.Proposed
	}

	var reasons []string
	reasons = append(reasons, cons.Financial.Reasoning)
	reasons = append(reasons, cons.Risk.Reasoning...)
	if outcome == OutcomeModified {
		reasons = append(reasons, "Confidence below approval floor; allocation held for review.")
	}

	return Decision{
		ID:          uuid.New().String(),
		RequestID:   req.ID,
		Outcome:     outcome,
		Allocations: allocations,
		KinchoAnalysis: Analysis{
			FitScore:       cons.Financial.FitScore,
			RiskAssessment: cons.Risk.Assessment,
			MetaCognition:  cons.MetaCognition,
		},
		Confidence:            cons.MetaCognition.Confidence,
		Reasoning:             strings.Join(reasons, " "),
		HumanOverrideRequired: cons.MetaCognition.HumanOverrideRecommended,
		DecidedAt:             c.now().UTC(),
	}
}

// #endregion

// #region lend-gate

// GateLend runs the same consensus over a minimal single-line request
// built from a lend instruction. Nothing is persisted; the caller uses the
// decision to gate an on-chain transfer.
func (c *Coordinator) GateLend(ctx context.Context, target string, amount int64, reasoning string, fund alloc.FundState) (Decision, error) {
	req := alloc.Request{
		ID:     uuid.New().String(),
		UserID: "lend",
		Amount: amount,
		Proposed: []alloc.SuggestedAllocation{{
			CauseID:    "yield_lend",
			CauseName:  target,
			Amount:     amount,
			Percentage: 100,
			Reasoning:  reasoning,
		}},
		Status:    alloc.StatusPending,
		CreatedAt: c.now().UTC(),
	}
	if err := req.Validate(); err != nil {
		return Decision{}, err
	}

	cons, err := c.Deliberate(ctx, req, fund, nil)
	if err != nil {
		return Decision{}, err
	}
	return c.buildDecision(req, cons), nil
}

// #endregion

// #region helpers

func profileConfidence(prof *profile.ArchetypeProfile) float32 {
	if prof == nil {
		return 0
	}
	return prof.Confidence
}

// #endregion
