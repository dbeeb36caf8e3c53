// Package server exposes the evaluation pipeline and donor conversation
// over HTTP JSON.
package server

// #region imports
import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/kincholabs/daf-controller/internal/alloc"
	"github.com/kincholabs/daf-controller/internal/consensus"
	"github.com/kincholabs/daf-controller/internal/conversation"
	"github.com/kincholabs/daf-controller/internal/metacog"
	"github.com/kincholabs/daf-controller/internal/profile"
	"github.com/kincholabs/daf-controller/internal/risk"
)

// #endregion

// #region ports

// Conversational is the donor-conversation surface the server exposes.
// Implemented by *conversation.Machine.
type Conversational interface {
	HandleMessage(ctx context.Context, conversationID, userID, text string) (string, error)
	ConfirmDeposit(ctx context.Context, conversationID, userID, depositID string, amount int64) (string, error)
}

// DecisionRunner runs the consensus pipeline for an explicit request.
// Implemented by *consensus.Coordinator.
type DecisionRunner interface {
	Decide(ctx context.Context, req alloc.Request, fund alloc.FundState, analysis *profile.Analysis) (consensus.Decision, error)
	GateLend(ctx context.Context, target string, amount int64, reasoning string, fund alloc.FundState) (consensus.Decision, error)
}

// AnalysisSource loads stored donor profiles. Implemented by *store.Store.
type AnalysisSource interface {
	LatestAnalysis(userID string) (*profile.Analysis, error)
}

// #endregion

// #region server

// Server is the HTTP front end.
type Server struct {
	machine  Conversational
	decider  DecisionRunner
	profiles AnalysisSource
	engine   *profile.Engine
	fund     conversation.FundFunc
	addr     string
}

// NewServer wires the HTTP front end.
func NewServer(machine Conversational, decider DecisionRunner, profiles AnalysisSource, engine *profile.Engine, fund conversation.FundFunc, addr string) *Server {
	return &Server{
		machine:  machine,
		decider:  decider,
		profiles: profiles,
		engine:   engine,
		fund:     fund,
		addr:     addr,
	}
}

// Handler returns the routed handler, exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/api/deposits/confirm", s.handleDepositConfirm)
	mux.HandleFunc("/api/analyze", s.handleAnalyze)
	mux.HandleFunc("/api/risk", s.handleRisk)
	mux.HandleFunc("/api/metacognition", s.handleMetaCognition)
	mux.HandleFunc("/api/allocations/decide", s.handleDecide)
	mux.HandleFunc("/api/lend/gate", s.handleLendGate)
	mux.HandleFunc("/api/health", s.handleHealth)
	return loggingMiddleware(mux)
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	log.Printf("[HTTP] listening on %s", s.addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	return server.ListenAndServe()
}

// #endregion

// #region chat

type chatRequest struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	Message        string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodePost(w, r, &req) {
		return
	}
	if req.ConversationID == "" || req.UserID == "" || req.Message == "" {
		httpError(w, http.StatusBadRequest, "conversation_id, user_id and message are required")
		return
	}

	reply, err := s.machine.HandleMessage(r.Context(), req.ConversationID, req.UserID, req.Message)
	if err != nil {
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}

// #endregion

// #region deposit-confirm

type depositConfirmRequest struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	DepositID      string `json:"deposit_id"`
	Amount         int64  `json:"amount"`
}

func (s *Server) handleDepositConfirm(w http.ResponseWriter, r *http.Request) {
	var req depositConfirmRequest
	if !decodePost(w, r, &req) {
		return
	}
	if req.ConversationID == "" || req.UserID == "" || req.DepositID == "" {
		httpError(w, http.StatusBadRequest, "conversation_id, user_id and deposit_id are required")
		return
	}
	if req.Amount <= 0 {
		httpError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	reply, err := s.machine.ConfirmDeposit(r.Context(), req.ConversationID, req.UserID, req.DepositID, req.Amount)
	if err != nil {
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}

// #endregion

// #region analyze

type analyzeRequest struct {
	UserID    string             `json:"user_id"`
	Responses []profile.Response `json:"responses"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !decodePost(w, r, &req) {
		return
	}
	if req.UserID == "" {
		httpError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if len(req.Responses) == 0 {
		httpError(w, http.StatusBadRequest, "responses must not be empty")
		return
	}

	writeJSON(w, http.StatusOK, s.engine.AnalyzeResponses(req.UserID, req.Responses))
}

// #endregion

// #region risk

type riskRequest struct {
	Request    alloc.Request    `json:"request"`
	Fund       *alloc.FundState `json:"fund,omitempty"`
	HasProfile bool             `json:"has_profile"`
}

func (s *Server) handleRisk(w http.ResponseWriter, r *http.Request) {
	var req riskRequest
	if !decodePost(w, r, &req) {
		return
	}
	if err := req.Request.Validate(); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	fund, ok := s.resolveFund(w, r, req.Fund)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, risk.Evaluate(req.Request, fund, req.HasProfile))
}

// #endregion

// #region metacognition

func (s *Server) handleMetaCognition(w http.ResponseWriter, r *http.Request) {
	var in metacog.Input
	if !decodePost(w, r, &in) {
		return
	}
	if err := in.Request.Validate(); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, metacog.Evaluate(in))
}

// #endregion

// #region decide

type decideRequest struct {
	Request alloc.Request    `json:"request"`
	Fund    *alloc.FundState `json:"fund,omitempty"`
}

func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	var req decideRequest
	if !decodePost(w, r, &req) {
		return
	}
	if err := req.Request.Validate(); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	fund, ok := s.resolveFund(w, r, req.Fund)
	if !ok {
		return
	}

	analysis, err := s.profiles.LatestAnalysis(req.Request.UserID)
	if err != nil {
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}

	dec, err := s.decider.Decide(r.Context(), req.Request, fund, analysis)
	if err != nil {
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dec)
}

// #endregion

// #region lend-gate

type lendGateRequest struct {
	Target    string           `json:"target"`
	Amount    int64            `json:"amount"`
	Reasoning string           `json:"reasoning"`
	Fund      *alloc.FundState `json:"fund,omitempty"`
}

func (s *Server) handleLendGate(w http.ResponseWriter, r *http.Request) {
	var req lendGateRequest
	if !decodePost(w, r, &req) {
		return
	}
	if req.Target == "" {
		httpError(w, http.StatusBadRequest, "target is required")
		return
	}
	if req.Amount <= 0 {
		httpError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	fund, ok := s.resolveFund(w, r, req.Fund)
	if !ok {
		return
	}

	dec, err := s.decider.GateLend(r.Context(), req.Target, req.Amount, req.Reasoning, fund)
	if err != nil {
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dec)
}

// #endregion

// #region health

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// #endregion

// #region helpers

// resolveFund uses the caller-supplied snapshot when present, otherwise
// the configured fund feed.
func (s *Server) resolveFund(w http.ResponseWriter, r *http.Request, override *alloc.FundState) (alloc.FundState, bool) {
	if override != nil {
		return *override, true
	}
	fund, err := s.fund(r.Context())
	if err != nil {
		httpError(w, http.StatusInternalServerError, err.Error())
		return alloc.FundState{}, false
	}
	return fund, true
}

func decodePost(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httpError(w, http.StatusBadRequest, "malformed JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("[HTTP] %s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// #endregion
