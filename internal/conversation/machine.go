package conversation

// #region imports
import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/kincholabs/daf-controller/internal/chat"
	"github.com/kincholabs/daf-controller/internal/consensus"
	"github.com/kincholabs/daf-controller/internal/profile"
	"github.com/kincholabs/daf-controller/internal/questionnaire"
)

// #endregion

// #region machine

// Machine sequences the donor flow: questionnaire → profile analysis →
// suggestions → deposit intent → consensus decision. Exactly one pipeline
// stage is active per conversation at any instant.
type Machine struct {
	store   Store
	def     *questionnaire.Definition
	engine  *profile.Engine
	decider Decider
	fund    FundFunc
	chat    chat.Completer // optional; nil = static replies only
}

// NewMachine wires a state machine. chat may be nil.
func NewMachine(store Store, def *questionnaire.Definition, engine *profile.Engine, decider Decider, fund FundFunc, completer chat.Completer) *Machine {
	return &Machine{
		store:   store,
		def:     def,
		engine:  engine,
		decider: decider,
		fund:    fund,
		chat:    completer,
	}
}

// #endregion

// #region handle-message

// HandleMessage processes one inbound donor message and returns the agent
// reply. Each call is one independent unit of work.
func (m *Machine) HandleMessage(ctx context.Context, conversationID, userID, text string) (string, error) {
	conv, err := m.store.GetOrCreateConversation(conversationID, userID)
	if err != nil {
		return "", fmt.Errorf("load conversation: %w", err)
	}
	if err := m.store.SaveMessage(conversationID, RoleDonor, text); err != nil {
		return "", fmt.Errorf("save message: %w", err)
	}

	var reply string
	switch conv.State {
	case StateIdle:
		reply, err = m.handleFirstContact(conversationID)
	case StateQuestionnaire:
		reply, err = m.handleQuestionnaireAnswer(conversationID, userID, text)
	case StateInvestmentSuggestions, StateDepositIntent:
		reply, err = m.handleDepositTalk(ctx, conv, text)
	case StateDepositPending:
		reply = "Your deposit is pending on-chain confirmation. I'll run the allocation review the moment it lands."
	case StateDepositConfirmed:
		reply = m.advisoryReply(ctx, text,
			"Your fund is active. Ask me anytime how your allocation is doing, or tell me about a new deposit.")
	default:
		// questionnaire_complete is transitional and never observed here.
		reply, err = m.handleQuestionnaireAnswer(conversationID, userID, text)
	}
	if err != nil {
		return "", err
	}

	if err := m.store.SaveMessage(conversationID, RoleAgent, reply); err != nil {
		return "", fmt.Errorf("save reply: %w", err)
	}
	return reply, nil
}

// #endregion

// #region first-contact

func (m *Machine) handleFirstContact(conversationID string) (string, error) {
	if err := m.store.UpdateConversationState(conversationID, StateQuestionnaire); err != nil {
		return "", fmt.Errorf("advance state: %w", err)
	}
	first := m.def.FirstUnanswered(map[string]bool{})
	if first == nil {
		return "Welcome back! Your profile is already complete.", nil
	}
	return "Welcome! I'm Vince. I'll ask a few questions to understand what you care about, then propose how your fund could give.\n\n" +
		first.Render(), nil
}

// #endregion

// #region questionnaire

// handleQuestionnaireAnswer saves the message as the answer to the first
// unanswered question, then either asks the next question or completes
// the questionnaire and produces suggestions.
func (m *Machine) handleQuestionnaireAnswer(conversationID, userID, text string) (string, error) {
	responses, err := m.store.Responses(userID)
	if err != nil {
		return "", fmt.Errorf("load responses: %w", err)
	}
	answered := answeredSet(responses)

	pending := m.def.FirstUnanswered(answered)
	if pending != nil {
		if err := m.store.SaveResponse(userID, pending.ID, text); err != nil {
			return "", fmt.Errorf("save response: %w", err)
		}
		answered[pending.ID] = true
	}

	if next := m.def.FirstUnanswered(answered); next != nil {
		return next.Render(), nil
	}

	// Questionnaire complete: analyze, persist the snapshot, and move to
	// suggestions. questionnaire_complete is recorded so no state is
	// skipped, then immediately superseded.
	if err := m.store.UpdateConversationState(conversationID, StateQuestionnaireComplete); err != nil {
		return "", fmt.Errorf("advance state: %w", err)
	}

	responses, err = m.store.Responses(userID)
	if err != nil {
		return "", fmt.Errorf("reload responses: %w", err)
	}
	analysis := m.engine.AnalyzeResponses(userID, responses)
	if err := m.store.SaveAnalysis(analysis); err != nil {
		return "", fmt.Errorf("save analysis: %w", err)
	}
	log.Printf("[CONV] user=%s archetype=%s confidence=%.2f affinities=%d",
		userID, analysis.Archetype.Primary, analysis.Archetype.Confidence, len(analysis.Affinities))

	if err := m.store.UpdateConversationState(conversationID, StateInvestmentSuggestions); err != nil {
		return "", fmt.Errorf("advance state: %w", err)
	}
	return m.suggestionsMessage(analysis), nil
}

// #endregion

// #region deposit-talk

// handleDepositTalk scans for a deposit instruction. A complete
// instruction moves to deposit_pending; a partial intent moves to
// deposit_intent and asks for the missing field. Detection never blocks.
func (m *Machine) handleDepositTalk(ctx context.Context, conv Conversation, text string) (string, error) {
	intent := DetectDepositIntent(text)

	switch {
	case intent.Complete:
		if err := m.store.UpdateConversationState(conv.ID, StateDepositPending); err != nil {
			return "", fmt.Errorf("advance state: %w", err)
		}
		return fmt.Sprintf(
			"Great, %d %s it is. Send the deposit whenever you're ready; once it confirms on-chain I'll run the full allocation review.",
			intent.Amount, strings.ToUpper(intent.Token)), nil

	case intent.Partial:
		if conv.State == StateInvestmentSuggestions {
			if err := m.store.UpdateConversationState(conv.ID, StateDepositIntent); err != nil {
				return "", fmt.Errorf("advance state: %w", err)
			}
		}
		if intent.Amount > 0 {
			return fmt.Sprintf("Got it, %d. Which asset would you like to deposit: USDC, USDT, DAI, or ETH?", intent.Amount), nil
		}
		if intent.Token != "" {
			return fmt.Sprintf("Understood, %s. How much would you like to deposit?", strings.ToUpper(intent.Token)), nil
		}
		return "Happy to set that up. How much would you like to deposit, and in which asset (USDC, USDT, DAI, or ETH)?", nil

	default:
		return m.advisoryReply(ctx, text,
			"Whenever you're ready, tell me an amount and an asset and I'll prepare the allocation."), nil
	}
}

// #endregion

// #region confirm-deposit

// ConfirmDeposit consumes the external deposit-confirmation event: it
// builds an allocation request from the donor's stored affinities, runs
// the consensus pipeline, relays the decision into the conversation, and
// advances to deposit_confirmed only on an approved or modified decision.
func (m *Machine) ConfirmDeposit(ctx context.Context, conversationID, userID, depositID string, amount int64) (string, error) {
	if amount <= 0 {
		return "", fmt.Errorf("confirm deposit %s: non-positive amount %d", depositID, amount)
	}

	analysis, err := m.store.LatestAnalysis(userID)
	if err != nil {
		return "", fmt.Errorf("load analysis: %w", err)
	}

	tolerance, err := m.riskTolerance(userID)
	if err != nil {
		return "", err
	}

	req := BuildRequest(userID, conversationID, depositID, amount, analysis, tolerance)
	if err := m.store.CreateRequest(req); err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	fund, err := m.fund(ctx)
	if err != nil {
		return "", fmt.Errorf("fund snapshot: %w", err)
	}

	dec, err := m.decider.Decide(ctx, req, fund, analysis)
	if err != nil {
		return "", fmt.Errorf("consensus: %w", err)
	}

	reply := decisionMessage(dec)
	if err := m.store.SaveMessage(conversationID, RoleAgent, reply); err != nil {
		return "", fmt.Errorf("save decision message: %w", err)
	}

	if dec.Outcome == consensus.OutcomeApproved || dec.Outcome == consensus.OutcomeModified {
		if err := m.store.UpdateConversationState(conversationID, StateDepositConfirmed); err != nil {
			return "", fmt.Errorf("advance state: %w", err)
		}
	}
	return reply, nil
}

// #endregion

// #region messages

func (m *Machine) suggestionsMessage(analysis profile.Analysis) string {
	var b strings.Builder
	b.WriteString("Thank you, I have a clear picture now.\n")
	fmt.Fprintf(&b, "Your giving profile reads as %s", displayArchetype(analysis.Archetype.Primary))
	if len(analysis.Archetype.SecondaryTraits) > 0 {
		traits := make([]string, len(analysis.Archetype.SecondaryTraits))
		for i, tr := range analysis.Archetype.SecondaryTraits {
			traits[i] = displayArchetype(tr)
		}
		fmt.Fprintf(&b, " with %s leanings", strings.Join(traits, " and "))
	}
	b.WriteString(".\n\nSuggested focus:\n")
	shown := 0
	for _, aff := range analysis.Affinities {
		if aff.AffinityScore <= 0 || shown == 3 {
			continue
		}
		shown++
		fmt.Fprintf(&b, "  %d. %s: %s\n", shown, causeDisplayName(aff.CauseID), aff.Reasoning)
	}
	if shown == 0 {
		b.WriteString("  A balanced general-impact allocation to start.\n")
	}
	b.WriteString("\nWhen you make a deposit, 70% goes to your causes and 30% to a yield reserve that keeps the fund growing. Tell me an amount and an asset when you're ready.")
	return b.String()
}

func decisionMessage(dec consensus.Decision) string {
	var b strings.Builder
	switch dec.Outcome {
	case consensus.OutcomeApproved:
		b.WriteString("Kincho approved the allocation.\n")
	case consensus.OutcomeModified:
		b.WriteString("Kincho accepted the allocation with modifications pending review.\n")
	default:
		b.WriteString("Kincho rejected the allocation; your deposit stays liquid.\n")
	}
	for _, a := range dec.Allocations {
		fmt.Fprintf(&b, "  - %s: %d (%.0f%%)\n", a.CauseName, a.Amount, a.Percentage)
	}
	fmt.Fprintf(&b, "Confidence %.2f. %s", dec.Confidence, dec.Reasoning)
	if dec.HumanOverrideRequired {
		b.WriteString("\nA human reviewer will confirm before any funds move.")
	}
	return b.String()
}

// advisoryReply asks the generative collaborator for color, falling back
// to static text. Never gates any state transition.
func (m *Machine) advisoryReply(ctx context.Context, text, fallback string) string {
	return chat.CompleteOrFallback(ctx, m.chat,
		"You are Vince, a warm donor-advised-fund assistant. Reply briefly and never promise returns.",
		[]chat.Message{{Role: "user", Content: text}},
		fallback)
}

// #endregion

// #region helpers

func answeredSet(responses []profile.Response) map[string]bool {
	set := make(map[string]bool, len(responses))
	for _, r := range responses {
		set[r.QuestionID] = true
	}
	return set
}

// riskTolerance reads the donor's r1 answer, defaulting to medium.
func (m *Machine) riskTolerance(userID string) (string, error) {
	responses, err := m.store.Responses(userID)
	if err != nil {
		return "", fmt.Errorf("load responses: %w", err)
	}
	for _, r := range responses {
		if r.QuestionID != "r1" {
			continue
		}
		lower := strings.ToLower(r.Answer)
		for _, level := range []string{"low", "medium", "high"} {
			if strings.Contains(lower, level) {
				return level, nil
			}
		}
	}
	return "medium", nil
}

func displayArchetype(a profile.Archetype) string {
	return strings.ReplaceAll(string(a), "_", " ")
}

// #endregion
