package audit

import "time"

// #region entry
// Entry is a single row in the decision_log table.
type Entry struct {
	RequestID   string
	UserID      string
	TriggerType string
	RecordJSON  string
	Verdict     string // "approved" | "modified" | "rejected"
	Reason      string
	CreatedAt   time.Time
}

// #endregion entry

// #region decision-record
// DecisionRecord captures the evaluator outputs behind one consensus
// verdict. Serialized as JSON into decision_log.record_json so a verdict
// can be re-derived without the live pipeline.
type DecisionRecord struct {
	RequestID string `json:"request_id"`
	Amount    int64  `json:"amount"`

	// Exact evaluator outputs as computed at runtime
	FitScore      float32 `json:"fit_score"`
	AggregateRisk float32 `json:"aggregate_risk"`
	Confidence    float32 `json:"confidence"`
	OverrideFlag  bool    `json:"override_flag"`

	// Consensus output
	Verdict string `json:"verdict"`
	Reason  string `json:"reason"`
}

// #endregion decision-record
