package audit

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"github.com/kincholabs/daf-controller/internal/alloc"
	"github.com/kincholabs/daf-controller/internal/consensus"
)

// #region decorated-store
// Store decorates a DecisionStore so every persisted decision also lands
// in the decision_log table. A failed audit write is logged, never fatal;
// the decision itself is the source of truth.
type Store struct {
	inner consensus.DecisionStore
	db    *sql.DB
}

// NewStore wraps inner with audit logging against db.
func NewStore(inner consensus.DecisionStore, db *sql.DB) *Store {
	return &Store{inner: inner, db: db}
}

// MarkProcessing delegates to the wrapped store.
func (s *Store) MarkProcessing(requestID string) error {
	return s.inner.MarkProcessing(requestID)
}

// SaveDecision persists the decision, then appends the audit entry.
func (s *Store) SaveDecision(dec consensus.Decision, status alloc.Status) error {
	if err := s.inner.SaveDecision(dec, status); err != nil {
		return err
	}

	var amount int64
	for _, a := range dec.Allocations {
		amount += a.Amount
	}
	record := DecisionRecord{
		RequestID:     dec.RequestID,
		Amount:        amount,
		FitScore:      dec.KinchoAnalysis.FitScore,
		AggregateRisk: dec.KinchoAnalysis.RiskAssessment.AggregateRisk,
		Confidence:    dec.Confidence,
		OverrideFlag:  dec.HumanOverrideRequired,
		Verdict:       string(dec.Outcome),
		Reason:        dec.Reasoning,
	}
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}

	var userID string
	s.db.QueryRow(`SELECT user_id FROM allocation_requests WHERE id = ?`, dec.RequestID).Scan(&userID)

	entry := Entry{
		RequestID:   dec.RequestID,
		UserID:      userID,
		TriggerType: "consensus",
		RecordJSON:  string(recordJSON),
		Verdict:     string(dec.Outcome),
		Reason:      dec.Reasoning,
		CreatedAt:   dec.DecidedAt,
	}
	if err := LogDecision(s.db, entry); err != nil {
		log.Printf("[AUDIT] log failed for request %s: %v", dec.RequestID, err)
	}
	return nil
}

// #endregion decorated-store
