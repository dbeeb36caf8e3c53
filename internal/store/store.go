package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/kincholabs/daf-controller/internal/alloc"
	"github.com/kincholabs/daf-controller/internal/consensus"
	"github.com/kincholabs/daf-controller/internal/conversation"
	"github.com/kincholabs/daf-controller/internal/profile"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	id              TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL,
	state           TEXT NOT NULL,
	started_at      TEXT NOT NULL,
	last_message_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	conversation_id TEXT NOT NULL,
	role            TEXT NOT NULL,
	content         TEXT NOT NULL,
	created_at      TEXT NOT NULL,
	FOREIGN KEY (conversation_id) REFERENCES conversations(id)
);

CREATE TABLE IF NOT EXISTS questionnaire_responses (
	user_id     TEXT NOT NULL,
	question_id TEXT NOT NULL,
	answer      TEXT NOT NULL,
	answered_at TEXT NOT NULL,
	PRIMARY KEY (user_id, question_id)
);

CREATE TABLE IF NOT EXISTS donor_profiles (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id       TEXT NOT NULL,
	analysis_json TEXT NOT NULL,
	analyzed_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS allocation_requests (
	id                TEXT PRIMARY KEY,
	deposit_id        TEXT NOT NULL,
	user_id           TEXT NOT NULL,
	conversation_id   TEXT,
	amount            INTEGER NOT NULL,
	preferences_json  TEXT NOT NULL,
	proposed_json     TEXT NOT NULL,
	status            TEXT NOT NULL,
	created_at        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS allocation_decisions (
	id                      TEXT PRIMARY KEY,
	request_id              TEXT NOT NULL UNIQUE,
	decision                TEXT NOT NULL,
	allocations_json        TEXT,
	analysis_json           TEXT NOT NULL,
	confidence              REAL NOT NULL,
	reasoning               TEXT NOT NULL,
	human_override_required INTEGER NOT NULL,
	decided_at              TEXT NOT NULL,
	FOREIGN KEY (request_id) REFERENCES allocation_requests(id)
);

CREATE TABLE IF NOT EXISTS decision_log (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id   TEXT NOT NULL,
	user_id      TEXT NOT NULL,
	trigger_type TEXT NOT NULL,
	record_json  TEXT,
	verdict      TEXT NOT NULL,
	reason       TEXT,
	created_at   TEXT NOT NULL
);
`

// #endregion schema

// #region store-struct
// Store persists conversations, donor profiles, allocation requests and
// consensus decisions in SQLite. It satisfies conversation.Store and
// consensus.DecisionStore.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. audit).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion constructor

// #region conversations
// GetOrCreateConversation loads a conversation, creating it in the idle
// state on first contact.
func (s *Store) GetOrCreateConversation(id, userID string) (conversation.Conversation, error) {
	var conv conversation.Conversation
	var state, startedStr, lastStr string
	err := s.db.QueryRow(
		`SELECT id, user_id, state, started_at, last_message_at FROM conversations WHERE id = ?`, id,
	).Scan(&conv.ID, &conv.UserID, &state, &startedStr, &lastStr)
	switch {
	case err == sql.ErrNoRows:
		now := time.Now().UTC()
		conv = conversation.Conversation{
			ID:            id,
			UserID:        userID,
			State:         conversation.StateIdle,
			StartedAt:     now,
			LastMessageAt: now,
		}
		_, err = s.db.Exec(
			`INSERT INTO conversations (id, user_id, state, started_at, last_message_at)
			 VALUES (?, ?, ?, ?, ?)`,
			id, userID, string(conv.State), now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
		)
		if err != nil {
			return conversation.Conversation{}, fmt.Errorf("create conversation: %w", err)
		}
		return conv, nil
	case err != nil:
		return conversation.Conversation{}, fmt.Errorf("get conversation: %w", err)
	}

	conv.State = conversation.State(state)
	conv.StartedAt, _ = time.Parse(time.RFC3339Nano, startedStr)
	conv.LastMessageAt, _ = time.Parse(time.RFC3339Nano, lastStr)
	return conv, nil
}

// UpdateConversationState advances a conversation to a new state.
func (s *Store) UpdateConversationState(id string, state conversation.State) error {
	res, err := s.db.Exec(
		`UPDATE conversations SET state = ?, last_message_at = ? WHERE id = ?`,
		string(state), time.Now().UTC().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return fmt.Errorf("update state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update state: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("conversation %s not found", id)
	}
	return nil
}

// SaveMessage appends one message to a conversation's transcript.
func (s *Store) SaveMessage(conversationID, role, content string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO messages (conversation_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		conversationID, role, content, now,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	_, err = tx.Exec(
		`UPDATE conversations SET last_message_at = ? WHERE id = ?`, now, conversationID,
	)
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	return tx.Commit()
}

// Messages returns a conversation's transcript in chronological order.
func (s *Store) Messages(conversationID string, limit int) ([]TranscriptEntry, error) {
	rows, err := s.db.Query(
		`SELECT role, content, created_at FROM messages
		 WHERE conversation_id = ? ORDER BY id DESC LIMIT ?`,
		conversationID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var entries []TranscriptEntry
	for rows.Next() {
		var e TranscriptEntry
		var createdStr string
		if err := rows.Scan(&e.Role, &e.Content, &createdStr); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	// Query is newest-first for the LIMIT; flip back to reading order.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, rows.Err()
}

// #endregion conversations

// #region responses
// SaveResponse upserts one questionnaire answer. Re-answering a question
// replaces the prior answer.
func (s *Store) SaveResponse(userID, questionID, answer string) error {
	_, err := s.db.Exec(
		`INSERT INTO questionnaire_responses (user_id, question_id, answer, answered_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, question_id) DO UPDATE SET
		   answer = excluded.answer, answered_at = excluded.answered_at`,
		userID, questionID, answer, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save response: %w", err)
	}
	return nil
}

// Responses returns a donor's stored answers ordered by question ID.
func (s *Store) Responses(userID string) ([]profile.Response, error) {
	rows, err := s.db.Query(
		`SELECT question_id, answer FROM questionnaire_responses
		 WHERE user_id = ? ORDER BY question_id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	var responses []profile.Response
	for rows.Next() {
		var r profile.Response
		if err := rows.Scan(&r.QuestionID, &r.Answer); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		responses = append(responses, r)
	}
	return responses, rows.Err()
}

// #endregion responses

// #region profiles
// SaveAnalysis appends a profile snapshot. Snapshots are never updated;
// newer rows supersede older ones.
func (s *Store) SaveAnalysis(a profile.Analysis) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO donor_profiles (user_id, analysis_json, analyzed_at) VALUES (?, ?, ?)`,
		a.UserID, string(payload), a.AnalyzedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// LatestAnalysis returns the newest profile snapshot for a donor, or nil
// when none exists.
func (s *Store) LatestAnalysis(userID string) (*profile.Analysis, error) {
	var payload string
	err := s.db.QueryRow(
		`SELECT analysis_json FROM donor_profiles
		 WHERE user_id = ? ORDER BY id DESC LIMIT 1`, userID,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis: %w", err)
	}
	var a profile.Analysis
	if err := json.Unmarshal([]byte(payload), &a); err != nil {
		return nil, fmt.Errorf("unmarshal analysis: %w", err)
	}
	return &a, nil
}

// #endregion profiles

// #region requests
// CreateRequest inserts a new allocation request in its initial status.
func (s *Store) CreateRequest(req alloc.Request) error {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	prefJSON, err := json.Marshal(req.Preferences)
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}
	propJSON, err := json.Marshal(req.Proposed)
	if err != nil {
		return fmt.Errorf("marshal proposed: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO allocation_requests
		 (id, deposit_id, user_id, conversation_id, amount, preferences_json, proposed_json, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.DepositID, req.UserID, req.ConversationID, req.Amount,
		string(prefJSON), string(propJSON), string(req.Status),
		req.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

// GetRequest retrieves an allocation request by ID.
func (s *Store) GetRequest(id string) (alloc.Request, error) {
	var req alloc.Request
	var prefJSON, propJSON, status, createdStr string
	err := s.db.QueryRow(
		`SELECT id, deposit_id, user_id, conversation_id, amount, preferences_json, proposed_json, status, created_at
		 FROM allocation_requests WHERE id = ?`, id,
	).Scan(&req.ID, &req.DepositID, &req.UserID, &req.ConversationID, &req.Amount,
		&prefJSON, &propJSON, &status, &createdStr)
	if err != nil {
		return alloc.Request{}, fmt.Errorf("get request %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(prefJSON), &req.Preferences); err != nil {
		return alloc.Request{}, fmt.Errorf("unmarshal preferences: %w", err)
	}
	if err := json.Unmarshal([]byte(propJSON), &req.Proposed); err != nil {
		return alloc.Request{}, fmt.Errorf("unmarshal proposed: %w", err)
	}
	req.Status = alloc.Status(status)
	req.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return req, nil
}

// MarkProcessing moves a pending request into processing.
func (s *Store) MarkProcessing(requestID string) error {
	res, err := s.db.Exec(
		`UPDATE allocation_requests SET status = ? WHERE id = ? AND status = ?`,
		string(alloc.StatusProcessing), requestID, string(alloc.StatusPending),
	)
	if err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("request %s is not pending", requestID)
	}
	return nil
}

// #endregion requests

// #region decisions
// SaveDecision inserts the decision and advances the parent request's
// status in one transaction. The UNIQUE constraint on request_id keeps
// decisions one-per-request.
func (s *Store) SaveDecision(dec consensus.Decision, status alloc.Status) error {
	analysisJSON, err := json.Marshal(dec.KinchoAnalysis)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}

	var allocPtr interface{}
	if dec.Allocations != nil {
		allocJSON, err := json.Marshal(dec.Allocations)
		if err != nil {
			return fmt.Errorf("marshal allocations: %w", err)
		}
		allocPtr = string(allocJSON)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	override := 0
	if dec.HumanOverrideRequired {
		override = 1
	}
	_, err = tx.Exec(
		`INSERT INTO allocation_decisions
		 (id, request_id, decision, allocations_json, analysis_json, confidence, reasoning, human_override_required, decided_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		dec.ID, dec.RequestID, string(dec.Outcome), allocPtr, string(analysisJSON),
		dec.Confidence, dec.Reasoning, override, dec.DecidedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}

	_, err = tx.Exec(
		`UPDATE allocation_requests SET status = ? WHERE id = ?`,
		string(status), dec.RequestID,
	)
	if err != nil {
		return fmt.Errorf("update request status: %w", err)
	}

	return tx.Commit()
}

// GetDecision retrieves the decision for a request, if one exists.
func (s *Store) GetDecision(requestID string) (consensus.Decision, error) {
	var dec consensus.Decision
	var outcome, analysisJSON, decidedStr string
	var allocJSON sql.NullString
	var override int
	err := s.db.QueryRow(
		`SELECT id, request_id, decision, allocations_json, analysis_json, confidence, reasoning, human_override_required, decided_at
		 FROM allocation_decisions WHERE request_id = ?`, requestID,
	).Scan(&dec.ID, &dec.RequestID, &outcome, &allocJSON, &analysisJSON,
		&dec.Confidence, &dec.Reasoning, &override, &decidedStr)
	if err != nil {
		return consensus.Decision{}, fmt.Errorf("get decision for %s: %w", requestID, err)
	}
	dec.Outcome = consensus.Outcome(outcome)
	if allocJSON.Valid {
		if err := json.Unmarshal([]byte(allocJSON.String), &dec.Allocations); err != nil {
			return consensus.Decision{}, fmt.Errorf("unmarshal allocations: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(analysisJSON), &dec.KinchoAnalysis); err != nil {
		return consensus.Decision{}, fmt.Errorf("unmarshal analysis: %w", err)
	}
	dec.HumanOverrideRequired = override != 0
	dec.DecidedAt, _ = time.Parse(time.RFC3339Nano, decidedStr)
	return dec, nil
}

// ListDecisions returns the most recent decisions.
func (s *Store) ListDecisions(limit int) ([]consensus.Decision, error) {
	rows, err := s.db.Query(
		`SELECT request_id FROM allocation_decisions ORDER BY decided_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var decisions []consensus.Decision
	for _, id := range ids {
		dec, err := s.GetDecision(id)
		if err != nil {
			return nil, err
		}
		decisions = append(decisions, dec)
	}
	return decisions, nil
}

// #endregion decisions

// #region transcript
// TranscriptEntry is one message of a conversation transcript.
type TranscriptEntry struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// #endregion transcript
