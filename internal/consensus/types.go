package consensus

// #region imports
import (
	"context"
	"time"

	"github.com/kincholabs/daf-controller/internal/alloc"
	"github.com/kincholabs/daf-controller/internal/metacog"
	"github.com/kincholabs/daf-controller/internal/profile"
	"github.com/kincholabs/daf-controller/internal/risk"
)

// #endregion

// #region outcome

// Outcome is the terminal consensus verdict.
type Outcome string

const (
	OutcomeApproved Outcome = "approved"
	OutcomeModified Outcome = "modified"
	OutcomeRejected Outcome = "rejected"
)

// #endregion

// #region financial-analyzer

// FinancialResult is the financial analyzer's verdict on a proposal.
type FinancialResult struct {
	Approved  bool    `json:"approved"`
	FitScore  float32 `json:"fit_score"`
	Reasoning string  `json:"reasoning"`
}

// FinancialAnalyzer is the external financial-analysis collaborator.
type FinancialAnalyzer interface {
	Analyze(ctx context.Context, req alloc.Request, fund alloc.FundState, prof *profile.ArchetypeProfile) (FinancialResult, error)
}

// #endregion

// #region subagent-consensus

// SubagentConsensus aggregates the three evaluator outputs.
// ConsensusDecision is nil only when evaluation never completed.
type SubagentConsensus struct {
	Financial     FinancialResult `json:"financial"`
	Risk          risk.Result     `json:"risk"`
	MetaCognition metacog.Result  `json:"meta_cognition"`

	HasConsensus      bool     `json:"has_consensus"`
	ConsensusDecision *Outcome `json:"consensus_decision"`
}

// #endregion

// #region analysis

// Analysis is the evaluator bundle attached to a decision row.
type Analysis struct {
	FitScore       float32         `json:"fit_score"`
	RiskAssessment risk.Assessment `json:"risk_assessment"`
	MetaCognition  metacog.Result  `json:"meta_cognition"`
}

// #endregion

// #region decision

// Decision is the immutable outcome of one consensus run. Exactly one
// decision exists per request; re-evaluation creates a new request.
type Decision struct {
	ID                    string                      `json:"id"`
	RequestID             string                      `json:"request_id"`
	Outcome               Outcome                     `json:"decision"`
	Allocations           []alloc.SuggestedAllocation `json:"allocations,omitempty"` // nil when rejected
	KinchoAnalysis        Analysis                    `json:"kincho_analysis"`
	Confidence            float32                     `json:"confidence"`
	Reasoning             string                      `json:"reasoning"`
	HumanOverrideRequired bool                        `json:"human_override_required"`
	DecidedAt             time.Time                   `json:"decided_at"`
}

// #endregion

// #region store

// DecisionStore persists a decision and advances the parent request's
// status atomically. Implemented by internal/store.
type DecisionStore interface {
	MarkProcessing(requestID string) error
	SaveDecision(dec Decision, status alloc.Status) error
}

// #endregion
