package alloc

// #region imports
import (
	"fmt"
	"strings"
	"time"
)

// #endregion

// #region status

// Status tracks the lifecycle of an allocation request.
// Transitions are monotonic: pending → processing → one terminal status.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusApproved   Status = "approved"
	StatusModified   Status = "modified"
	StatusRejected   Status = "rejected"
)

// Terminal reports whether a status ends the request lifecycle.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusModified || s == StatusRejected
}

// #endregion

// #region suggested-allocation

// SuggestedAllocation is one proposed line item of a capital allocation.
// Amount is in whole currency units; Percentage is the share of the
// request total.
type SuggestedAllocation struct {
	CauseID    string  `json:"cause_id"`
	CauseName  string  `json:"cause_name"`
	Amount     int64   `json:"amount"`
	Percentage float32 `json:"percentage"`
	Reasoning  string  `json:"reasoning"`
}

// IsYield reports whether the line item routes capital into a yield
// position rather than a grant.
func (a SuggestedAllocation) IsYield() bool {
	return strings.Contains(strings.ToLower(a.CauseID), "yield")
}

// #endregion

// #region preferences

// UserPreferences carries the donor-declared inputs that shaped a proposal.
type UserPreferences struct {
	Causes        []string `json:"causes"`
	RiskTolerance string   `json:"risk_tolerance"` // "low" | "medium" | "high"
}

// #endregion

// #region request

// Request is a proposed allocation awaiting a consensus decision.
type Request struct {
	ID             string                `json:"id"`
	DepositID      string                `json:"deposit_id,omitempty"`
	UserID         string                `json:"user_id"`
	ConversationID string                `json:"conversation_id,omitempty"`
	Amount         int64                 `json:"amount"`
	Preferences    UserPreferences       `json:"preferences"`
	Proposed       []SuggestedAllocation `json:"proposed"`
	Status         Status                `json:"status"`
	CreatedAt      time.Time             `json:"created_at"`
}

// DistinctCauses returns the number of distinct cause IDs across line items.
func (r Request) DistinctCauses() int {
	seen := make(map[string]struct{}, len(r.Proposed))
	for _, p := range r.Proposed {
		seen[p.CauseID] = struct{}{}
	}
	return len(seen)
}

// GrantAmount returns the total routed to grant-type (non-yield) line items.
func (r Request) GrantAmount() int64 {
	var total int64
	for _, p := range r.Proposed {
		if !p.IsYield() {
			total += p.Amount
		}
	}
	return total
}

// #endregion

// #region fund-state

// FundState is a snapshot of the fund used by the evaluators.
// CurrentAllocation maps category ID → fraction of AUM already deployed.
// CurrentHF is the collateralization health factor of the underlying
// lending position; lower is riskier.
type FundState struct {
	TotalAUM           int64              `json:"total_aum"`
	CurrentAllocation  map[string]float32 `json:"current_allocation"`
	CurrentHF          float32            `json:"current_hf"`
	LiquidityAvailable int64              `json:"liquidity_available"`
}

// #endregion

// #region validation

// Validate rejects malformed requests before any evaluator runs.
// A failed validation is an invariant violation, not a policy rejection.
func (r Request) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("request: missing id")
	}
	if r.UserID == "" {
		return fmt.Errorf("request %s: missing user id", r.ID)
	}
	if r.Amount <= 0 {
		return fmt.Errorf("request %s: non-positive amount %d", r.ID, r.Amount)
	}
	var sum int64
	for i, p := range r.Proposed {
		if p.CauseID == "" {
			return fmt.Errorf("request %s: line %d missing cause id", r.ID, i)
		}
		if p.Amount < 0 {
			return fmt.Errorf("request %s: line %d negative amount", r.ID, i)
		}
		sum += p.Amount
	}
	if len(r.Proposed) > 0 && sum != r.Amount {
		return fmt.Errorf("request %s: line items sum %d != amount %d", r.ID, sum, r.Amount)
	}
	return nil
}

// #endregion
