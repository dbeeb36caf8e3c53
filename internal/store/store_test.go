package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/kincholabs/daf-controller/internal/alloc"
	"github.com/kincholabs/daf-controller/internal/consensus"
	"github.com/kincholabs/daf-controller/internal/conversation"
	"github.com/kincholabs/daf-controller/internal/profile"
)

func tempDB(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := NewStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetOrCreateConversation(t *testing.T) {
	s := tempDB(t)

	conv, err := s.GetOrCreateConversation("c1", "u1")
	if err != nil {
		t.Fatalf("GetOrCreateConversation: %v", err)
	}
	if conv.State != conversation.StateIdle {
		t.Fatalf("new conversation state = %s, want idle", conv.State)
	}

	if err := s.UpdateConversationState("c1", conversation.StateQuestionnaire); err != nil {
		t.Fatalf("UpdateConversationState: %v", err)
	}

	again, err := s.GetOrCreateConversation("c1", "u1")
	if err != nil {
		t.Fatal(err)
	}
	if again.State != conversation.StateQuestionnaire {
		t.Fatalf("reloaded state = %s, want questionnaire_in_progress", again.State)
	}

	if err := s.UpdateConversationState("missing", conversation.StateIdle); err == nil {
		t.Error("updating a missing conversation should fail")
	}
}

func TestMessagesRoundTrip(t *testing.T) {
	s := tempDB(t)
	if _, err := s.GetOrCreateConversation("c1", "u1"); err != nil {
		t.Fatal(err)
	}

	for _, m := range []struct{ role, content string }{
		{conversation.RoleDonor, "hello"},
		{conversation.RoleAgent, "welcome"},
		{conversation.RoleDonor, "deposit 100 usdc"},
	} {
		if err := s.SaveMessage("c1", m.role, m.content); err != nil {
			t.Fatalf("SaveMessage: %v", err)
		}
	}

	entries, err := s.Messages("c1", 10)
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d messages, want 3", len(entries))
	}
	if entries[0].Content != "hello" || entries[2].Content != "deposit 100 usdc" {
		t.Fatalf("messages out of order: %+v", entries)
	}

	limited, err := s.Messages("c1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 || limited[1].Content != "deposit 100 usdc" {
		t.Fatalf("limit should keep the newest messages, got %+v", limited)
	}
}

func TestSaveResponseUpserts(t *testing.T) {
	s := tempDB(t)

	if err := s.SaveResponse("u1", "r1", "low"); err != nil {
		t.Fatalf("SaveResponse: %v", err)
	}
	if err := s.SaveResponse("u1", "r1", "high, actually"); err != nil {
		t.Fatalf("SaveResponse upsert: %v", err)
	}
	if err := s.SaveResponse("u1", "v1", "Honoring tradition and faith"); err != nil {
		t.Fatal(err)
	}

	responses, err := s.Responses("u1")
	if err != nil {
		t.Fatalf("Responses: %v", err)
	}
	if len(responses) != 2 {
		t.Fatalf("got %d responses, want 2", len(responses))
	}
	for _, r := range responses {
		if r.QuestionID == "r1" && r.Answer != "high, actually" {
			t.Errorf("r1 = %q, want the replacement answer", r.Answer)
		}
	}

	other, err := s.Responses("u2")
	if err != nil {
		t.Fatal(err)
	}
	if len(other) != 0 {
		t.Fatalf("u2 should have no responses, got %d", len(other))
	}
}

func TestAnalysisSnapshots(t *testing.T) {
	s := tempDB(t)

	if a, err := s.LatestAnalysis("u1"); err != nil || a != nil {
		t.Fatalf("empty store: analysis = %v, err = %v, want nil/nil", a, err)
	}

	first := profile.Analysis{
		UserID:     "u1",
		Vector:     profile.MoralVector{Care: 0.8},
		Archetype:  profile.ArchetypeProfile{Primary: profile.ArchetypeImpactMaximizer, Confidence: 0.5},
		AnalyzedAt: time.Now().UTC(),
	}
	if err := s.SaveAnalysis(first); err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}

	second := first
	second.Archetype.Primary = profile.ArchetypeCommunityBuilder
	second.AnalyzedAt = first.AnalyzedAt.Add(time.Minute)
	if err := s.SaveAnalysis(second); err != nil {
		t.Fatal(err)
	}

	got, err := s.LatestAnalysis("u1")
	if err != nil {
		t.Fatalf("LatestAnalysis: %v", err)
	}
	if got == nil || got.Archetype.Primary != profile.ArchetypeCommunityBuilder {
		t.Fatalf("latest snapshot should win, got %+v", got)
	}
	if got.Vector.Care != 0.8 {
		t.Errorf("vector lost in round trip: %+v", got.Vector)
	}
}

func sampleRequest() alloc.Request {
	return alloc.Request{
		ID:             "req-1",
		DepositID:      "dep-1",
		UserID:         "u1",
		ConversationID: "c1",
		Amount:         1000,
		Preferences:    alloc.UserPreferences{Causes: []string{"global_health"}, RiskTolerance: "medium"},
		Proposed: []alloc.SuggestedAllocation{
			{CauseID: "global_health", CauseName: "Global Health", Amount: 700, Percentage: 70, Reasoning: "top affinity"},
			{CauseID: "yield_reserve", CauseName: "Yield Reserve", Amount: 300, Percentage: 30, Reasoning: "standing reserve"},
		},
		Status:    alloc.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

func TestRequestLifecycle(t *testing.T) {
	s := tempDB(t)
	req := sampleRequest()

	if err := s.CreateRequest(req); err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}

	got, err := s.GetRequest("req-1")
	if err != nil {
		t.Fatalf("GetRequest: %v", err)
	}
	if got.Amount != 1000 || len(got.Proposed) != 2 || got.Preferences.RiskTolerance != "medium" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.Status != alloc.StatusPending {
		t.Fatalf("status = %s, want pending", got.Status)
	}

	if err := s.MarkProcessing("req-1"); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}
	if err := s.MarkProcessing("req-1"); err == nil {
		t.Error("second MarkProcessing should fail, request is no longer pending")
	}

	got, err = s.GetRequest("req-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != alloc.StatusProcessing {
		t.Fatalf("status = %s, want processing", got.Status)
	}
}

func TestSaveDecisionAtomicity(t *testing.T) {
	s := tempDB(t)
	req := sampleRequest()
	if err := s.CreateRequest(req); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkProcessing("req-1"); err != nil {
		t.Fatal(err)
	}

	dec := consensus.Decision{
		ID:          "dec-1",
		RequestID:   "req-1",
		Outcome:     consensus.OutcomeApproved,
		Allocations: req.Proposed,
		KinchoAnalysis: consensus.Analysis{
			FitScore: 0.7,
		},
		Confidence: 0.82,
		Reasoning:  "all evaluators cleared",
		DecidedAt:  time.Now().UTC(),
	}
	if err := s.SaveDecision(dec, alloc.StatusApproved); err != nil {
		t.Fatalf("SaveDecision: %v", err)
	}

	got, err := s.GetDecision("req-1")
	if err != nil {
		t.Fatalf("GetDecision: %v", err)
	}
	if got.Outcome != consensus.OutcomeApproved || got.Confidence != 0.82 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if len(got.Allocations) != 2 {
		t.Fatalf("allocations lost: %+v", got.Allocations)
	}

	reqAfter, err := s.GetRequest("req-1")
	if err != nil {
		t.Fatal(err)
	}
	if reqAfter.Status != alloc.StatusApproved {
		t.Fatalf("request status = %s, want approved", reqAfter.Status)
	}

	// The unique constraint keeps decisions one-per-request.
	dup := dec
	dup.ID = "dec-2"
	if err := s.SaveDecision(dup, alloc.StatusApproved); err == nil {
		t.Error("second decision for the same request should fail")
	}
}

func TestRejectedDecisionHasNilAllocations(t *testing.T) {
	s := tempDB(t)
	if err := s.CreateRequest(sampleRequest()); err != nil {
		t.Fatal(err)
	}

	dec := consensus.Decision{
		ID:         "dec-1",
		RequestID:  "req-1",
		Outcome:    consensus.OutcomeRejected,
		Confidence: 0.3,
		Reasoning:  "risk ceiling exceeded",
		DecidedAt:  time.Now().UTC(),
	}
	if err := s.SaveDecision(dec, alloc.StatusRejected); err != nil {
		t.Fatalf("SaveDecision: %v", err)
	}

	got, err := s.GetDecision("req-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Allocations != nil {
		t.Fatalf("rejected decision should carry no allocations, got %+v", got.Allocations)
	}

	decisions, err := s.ListDecisions(10)
	if err != nil {
		t.Fatalf("ListDecisions: %v", err)
	}
	if len(decisions) != 1 || decisions[0].RequestID != "req-1" {
		t.Fatalf("ListDecisions = %+v", decisions)
	}
}
