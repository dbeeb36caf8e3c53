package conversation

// #region imports
import (
	"context"
	"time"

	"github.com/kincholabs/daf-controller/internal/alloc"
	"github.com/kincholabs/daf-controller/internal/consensus"
	"github.com/kincholabs/daf-controller/internal/profile"
)

// #endregion

// #region state

// State is the conversation's position in the donor flow. A conversation
// holds exactly one state at a time and no state is skipped.
type State string

const (
	StateIdle                  State = "idle"
	StateQuestionnaire         State = "questionnaire_in_progress"
	StateQuestionnaireComplete State = "questionnaire_complete"
	StateInvestmentSuggestions State = "investment_suggestions"
	StateDepositIntent         State = "deposit_intent"
	StateDepositPending        State = "deposit_pending"
	StateDepositConfirmed      State = "deposit_confirmed"
)

// #endregion

// #region conversation

// Conversation is the persisted conversation entity.
type Conversation struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	State         State     `json:"state"`
	StartedAt     time.Time `json:"started_at"`
	LastMessageAt time.Time `json:"last_message_at"`
}

// Message roles.
const (
	RoleDonor = "donor"
	RoleAgent = "agent"
)

// #endregion

// #region store

// Store is the persistence surface the state machine consumes.
// Implemented by internal/store.
type Store interface {
	GetOrCreateConversation(id, userID string) (Conversation, error)
	UpdateConversationState(id string, state State) error
	SaveMessage(conversationID, role, content string) error

	SaveResponse(userID, questionID, answer string) error
	Responses(userID string) ([]profile.Response, error)

	SaveAnalysis(a profile.Analysis) error
	LatestAnalysis(userID string) (*profile.Analysis, error)

	CreateRequest(req alloc.Request) error
}

// #endregion

// #region collaborators

// Decider runs the consensus pipeline for a built request.
// Implemented by *consensus.Coordinator.
type Decider interface {
	Decide(ctx context.Context, req alloc.Request, fund alloc.FundState, analysis *profile.Analysis) (consensus.Decision, error)
}

// FundFunc supplies the current fund snapshot for evaluation.
type FundFunc func(ctx context.Context) (alloc.FundState, error)

// #endregion
