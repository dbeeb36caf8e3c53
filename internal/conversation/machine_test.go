package conversation

// #region imports
import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kincholabs/daf-controller/internal/alloc"
	"github.com/kincholabs/daf-controller/internal/consensus"
	"github.com/kincholabs/daf-controller/internal/profile"
	"github.com/kincholabs/daf-controller/internal/questionnaire"
)

// #endregion

// #region fakes

type fakeStore struct {
	convs     map[string]Conversation
	messages  []string
	responses map[string][]profile.Response
	analyses  map[string]profile.Analysis
	requests  []alloc.Request
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		convs:     map[string]Conversation{},
		responses: map[string][]profile.Response{},
		analyses:  map[string]profile.Analysis{},
	}
}

func (f *fakeStore) GetOrCreateConversation(id, userID string) (Conversation, error) {
	if c, ok := f.convs[id]; ok {
		return c, nil
	}
	c := Conversation{ID: id, UserID: userID, State: StateIdle}
	f.convs[id] = c
	return c, nil
}

func (f *fakeStore) UpdateConversationState(id string, state State) error {
	c, ok := f.convs[id]
	if !ok {
		return errors.New("conversation not found")
	}
	c.State = state
	f.convs[id] = c
	return nil
}

func (f *fakeStore) SaveMessage(conversationID, role, content string) error {
	f.messages = append(f.messages, role+": "+content)
	return nil
}

func (f *fakeStore) SaveResponse(userID, questionID, answer string) error {
	for i, r := range f.responses[userID] {
		if r.QuestionID == questionID {
			f.responses[userID][i].Answer = answer
			return nil
		}
	}
	f.responses[userID] = append(f.responses[userID], profile.Response{QuestionID: questionID, Answer: answer})
	return nil
}

func (f *fakeStore) Responses(userID string) ([]profile.Response, error) {
	return f.responses[userID], nil
}

func (f *fakeStore) SaveAnalysis(a profile.Analysis) error {
	f.analyses[a.UserID] = a
	return nil
}

func (f *fakeStore) LatestAnalysis(userID string) (*profile.Analysis, error) {
	if a, ok := f.analyses[userID]; ok {
		return &a, nil
	}
	return nil, nil
}

func (f *fakeStore) CreateRequest(req alloc.Request) error {
	f.requests = append(f.requests, req)
	return nil
}

type fakeDecider struct {
	outcome consensus.Outcome
	err     error
	got     alloc.Request
}

func (d *fakeDecider) Decide(ctx context.Context, req alloc.Request, fund alloc.FundState, analysis *profile.Analysis) (consensus.Decision, error) {
	d.got = req
	if d.err != nil {
		return consensus.Decision{}, d.err
	}
	return consensus.Decision{
		ID:          "dec-1",
		RequestID:   req.ID,
		Outcome:     d.outcome,
		Allocations: req.Proposed,
		Confidence:  0.8,
		Reasoning:   "Fit, risk and confidence all cleared.",
	}, nil
}

func staticFund(fund alloc.FundState) FundFunc {
	return func(ctx context.Context) (alloc.FundState, error) { return fund, nil }
}

// #endregion

// #region helpers

func newTestMachine(store *fakeStore, decider Decider) *Machine {
	return NewMachine(store, questionnaire.Default(), profile.NewEngine(), decider,
		staticFund(alloc.FundState{TotalAUM: 1_000_000, CurrentHF: 3.0, LiquidityAvailable: 500_000}), nil)
}

func answerAll(t *testing.T, m *Machine, store *fakeStore) string {
	t.Helper()
	ctx := context.Background()

	reply, err := m.HandleMessage(ctx, "conv1", "user1", "hi")
	if err != nil {
		t.Fatalf("first contact: %v", err)
	}
	if !strings.Contains(reply, "What matters most") {
		t.Fatalf("expected first question, got %q", reply)
	}

	answers := []string{
		"Helping people who cannot help themselves",
		"Care for the most vulnerable",
		"Protecting the weak is a duty",
		"Seeing direct impact on specific individuals",
		"Evidence and measurable outcomes",
		"I care about malaria prevention and vaccines in poor countries",
		"Medium, I think",
	}
	var last string
	for _, a := range answers {
		last, err = m.HandleMessage(ctx, "conv1", "user1", a)
		if err != nil {
			t.Fatalf("answer %q: %v", a, err)
		}
	}
	return last
}

// #endregion

// #region tests

func TestQuestionnaireFlowEndsInSuggestions(t *testing.T) {
	store := newFakeStore()
	m := newTestMachine(store, &fakeDecider{outcome: consensus.OutcomeApproved})

	last := answerAll(t, m, store)

	if store.convs["conv1"].State != StateInvestmentSuggestions {
		t.Fatalf("state = %s, want %s", store.convs["conv1"].State, StateInvestmentSuggestions)
	}
	if !strings.Contains(last, "impact maximizer") {
		t.Errorf("suggestions should name the archetype, got %q", last)
	}
	if !strings.Contains(last, "Global Health") {
		t.Errorf("suggestions should surface the mentioned cause, got %q", last)
	}
	if len(store.responses["user1"]) != 7 {
		t.Errorf("stored %d responses, want 7", len(store.responses["user1"]))
	}
	if _, ok := store.analyses["user1"]; !ok {
		t.Error("analysis snapshot was not persisted")
	}
}

func TestDepositIntentTransitions(t *testing.T) {
	store := newFakeStore()
	m := newTestMachine(store, &fakeDecider{outcome: consensus.OutcomeApproved})
	answerAll(t, m, store)
	ctx := context.Background()

	// A partial instruction asks for the missing field and parks in
	// deposit_intent.
	reply, err := m.HandleMessage(ctx, "conv1", "user1", "I'd like to deposit 5000")
	if err != nil {
		t.Fatal(err)
	}
	if store.convs["conv1"].State != StateDepositIntent {
		t.Fatalf("state = %s, want %s", store.convs["conv1"].State, StateDepositIntent)
	}
	if !strings.Contains(reply, "Which asset") {
		t.Errorf("expected asset prompt, got %q", reply)
	}

	// Completing the instruction moves to deposit_pending.
	reply, err = m.HandleMessage(ctx, "conv1", "user1", "5000 usdc please")
	if err != nil {
		t.Fatal(err)
	}
	if store.convs["conv1"].State != StateDepositPending {
		t.Fatalf("state = %s, want %s", store.convs["conv1"].State, StateDepositPending)
	}
	if !strings.Contains(reply, "5000 USDC") {
		t.Errorf("confirmation should echo the instruction, got %q", reply)
	}

	// While pending, messages get a holding reply and no state change.
	reply, err = m.HandleMessage(ctx, "conv1", "user1", "did it go through?")
	if err != nil {
		t.Fatal(err)
	}
	if store.convs["conv1"].State != StateDepositPending {
		t.Fatalf("pending state should hold, got %s", store.convs["conv1"].State)
	}
	if !strings.Contains(reply, "pending") {
		t.Errorf("expected holding reply, got %q", reply)
	}
}

func TestConfirmDepositApprovedAdvancesState(t *testing.T) {
	store := newFakeStore()
	decider := &fakeDecider{outcome: consensus.OutcomeApproved}
	m := newTestMachine(store, decider)
	answerAll(t, m, store)
	ctx := context.Background()

	if _, err := m.HandleMessage(ctx, "conv1", "user1", "deposit 5000 usdc"); err != nil {
		t.Fatal(err)
	}

	reply, err := m.ConfirmDeposit(ctx, "conv1", "user1", "dep-1", 5000)
	if err != nil {
		t.Fatal(err)
	}
	if store.convs["conv1"].State != StateDepositConfirmed {
		t.Fatalf("state = %s, want %s", store.convs["conv1"].State, StateDepositConfirmed)
	}
	if !strings.Contains(reply, "approved") {
		t.Errorf("reply should report the outcome, got %q", reply)
	}
	if len(store.requests) != 1 {
		t.Fatalf("created %d requests, want 1", len(store.requests))
	}
	if decider.got.Amount != 5000 {
		t.Errorf("decided amount = %d, want 5000", decider.got.Amount)
	}
	if decider.got.Preferences.RiskTolerance != "medium" {
		t.Errorf("tolerance = %q, want medium from r1", decider.got.Preferences.RiskTolerance)
	}
}

func TestConfirmDepositRejectionHoldsState(t *testing.T) {
	store := newFakeStore()
	m := newTestMachine(store, &fakeDecider{outcome: consensus.OutcomeRejected})
	answerAll(t, m, store)
	ctx := context.Background()

	if _, err := m.HandleMessage(ctx, "conv1", "user1", "deposit 5000 usdc"); err != nil {
		t.Fatal(err)
	}

	reply, err := m.ConfirmDeposit(ctx, "conv1", "user1", "dep-1", 5000)
	if err != nil {
		t.Fatal(err)
	}
	if store.convs["conv1"].State != StateDepositPending {
		t.Fatalf("rejection must not advance state, got %s", store.convs["conv1"].State)
	}
	if !strings.Contains(reply, "rejected") {
		t.Errorf("reply should report the rejection, got %q", reply)
	}
}

func TestConfirmDepositErrors(t *testing.T) {
	store := newFakeStore()
	m := newTestMachine(store, &fakeDecider{err: errors.New("db down")})
	answerAll(t, m, store)
	ctx := context.Background()

	if _, err := m.ConfirmDeposit(ctx, "conv1", "user1", "dep-1", 0); err == nil {
		t.Error("zero amount should be refused")
	}
	if _, err := m.ConfirmDeposit(ctx, "conv1", "user1", "dep-1", 5000); err == nil {
		t.Error("decider failure should surface")
	}
}

// #endregion
