package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"github.com/kincholabs/daf-controller/internal/audit"
	"github.com/kincholabs/daf-controller/internal/consensus"
	"github.com/kincholabs/daf-controller/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to daf_controller.db")
	last := flag.Int("last", 20, "show N most recent decisions")
	request := flag.String("request", "", "show single decision detail by request ID")
	conversationID := flag.String("conversation", "", "show a conversation transcript")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/daf_controller.db [--last N] [--request id] [--conversation id] [--json]")
		os.Exit(2)
	}

	st, err := store.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	switch {
	case *request != "":
		err = runDetailMode(st, *request, *jsonOut)
	case *conversationID != "":
		err = runTranscriptMode(st, *conversationID, *last, *jsonOut)
	default:
		err = runListMode(st, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	RequestID  string  `json:"request_id"`
	Decision   string  `json:"decision"`
	Confidence float32 `json:"confidence"`
	FitScore   float32 `json:"fit_score"`
	Aggregate  float32 `json:"aggregate_risk"`
	Override   bool    `json:"override"`
	DecidedAt  string  `json:"decided_at"`
}

func runListMode(st *store.Store, last int, jsonOut bool) error {
	decisions, err := st.ListDecisions(last)
	if err != nil {
		return err
	}
	if len(decisions) == 0 {
		fmt.Fprintln(os.Stderr, "no decisions found")
		return nil
	}

	rows := make([]listRow, len(decisions))
	for i, dec := range decisions {
		rows[i] = listRow{
			RequestID:  dec.RequestID,
			Decision:   string(dec.Outcome),
			Confidence: dec.Confidence,
			FitScore:   dec.KinchoAnalysis.FitScore,
			Aggregate:  dec.KinchoAnalysis.RiskAssessment.AggregateRisk,
			Override:   dec.HumanOverrideRequired,
			DecidedAt:  dec.DecidedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-12s  %-8s  %10s  %6s  %6s  %-8s  %s\n",
		"Request", "Decision", "Confidence", "Fit", "Risk", "Override", "Time")
	fmt.Printf("%-12s+-%-8s+-%10s+-%6s+-%6s+-%-8s+-%s\n",
		"------------", "--------", "----------", "------", "------", "--------", "--------------------")
	for _, r := range rows {
		fmt.Printf("%-12s  %-8s  %10.2f  %6.2f  %6.2f  %-8v  %s\n",
			shortID(r.RequestID), r.Decision, r.Confidence, r.FitScore, r.Aggregate, r.Override, r.DecidedAt)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	Decision consensus.Decision `json:"decision"`
	Audit    *audit.Entry       `json:"audit,omitempty"`
}

func runDetailMode(st *store.Store, requestID string, jsonOut bool) error {
	dec, err := st.GetDecision(requestID)
	if err != nil {
		return err
	}

	out := detailOutput{Decision: dec}
	if entries, err := audit.Recent(st.DB(), 100); err == nil {
		for i := range entries {
			if entries[i].RequestID == requestID {
				out.Audit = &entries[i]
				break
			}
		}
	}

	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("Request:    %s\n", dec.RequestID)
	fmt.Printf("Decision:   %s\n", dec.Outcome)
	fmt.Printf("Confidence: %.2f\n", dec.Confidence)
	fmt.Printf("Fit:        %.2f\n", dec.KinchoAnalysis.FitScore)
	fmt.Printf("Aggregate:  %.2f\n", dec.KinchoAnalysis.RiskAssessment.AggregateRisk)
	fmt.Printf("Override:   %v\n", dec.HumanOverrideRequired)
	fmt.Printf("Decided:    %s\n", dec.DecidedAt.Format("2006-01-02T15:04:05Z"))
	fmt.Printf("Reasoning:  %s\n", dec.Reasoning)

	if len(dec.Allocations) > 0 {
		fmt.Printf("\nAllocations:\n")
		for _, a := range dec.Allocations {
			fmt.Printf("  %-24s %12d  (%5.1f%%)\n", a.CauseName, a.Amount, a.Percentage)
		}
	}

	if len(dec.KinchoAnalysis.MetaCognition.ReasoningChain) > 0 {
		fmt.Printf("\nReasoning chain:\n")
		for _, step := range dec.KinchoAnalysis.MetaCognition.ReasoningChain {
			fmt.Printf("  %d. %s -> %s\n", step.Step, step.Premise, step.Conclusion)
		}
	}

	return nil
}

// #endregion detail-mode

// #region transcript-mode

func runTranscriptMode(st *store.Store, conversationID string, last int, jsonOut bool) error {
	entries, err := st.Messages(conversationID, last)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "no messages found")
		return nil
	}

	if jsonOut {
		return printJSON(entries)
	}

	for _, e := range entries {
		fmt.Printf("[%s] %-5s  %s\n", e.CreatedAt.Format("15:04:05"), e.Role, e.Content)
	}
	return nil
}

// #endregion transcript-mode

// #region output

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
