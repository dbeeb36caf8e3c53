package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"github.com/kincholabs/daf-controller/internal/alloc"
	"github.com/kincholabs/daf-controller/internal/config"
	"github.com/kincholabs/daf-controller/internal/replay"
	"github.com/kincholabs/daf-controller/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to daf_controller.db (DB mode)")
	fixturePath := flag.String("fixture", "", "path to fixture JSON (fixture mode)")
	configPath := flag.String("config", "", "path to YAML config (DB mode fund snapshot)")
	last := flag.Int("last", 50, "replay N most recent decisions (DB mode)")
	flag.Parse()

	if (*dbPath == "" && *fixturePath == "") || (*dbPath != "" && *fixturePath != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --db path/to/daf_controller.db [--config cfg.yaml] [--last N]")
		fmt.Fprintln(os.Stderr, "       replay --fixture path/to/fixture.json")
		os.Exit(2)
	}

	var exitCode int
	if *fixturePath != "" {
		exitCode = runFixtureMode(*fixturePath)
	} else {
		exitCode = runDBMode(*dbPath, *configPath, *last)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region fixture-mode

func runFixtureMode(path string) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}

	results, err := replay.Replay(context.Background(), f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		return 2
	}
	return printComparison(results)
}

// #endregion fixture-mode

// #region db-mode

// runDBMode rebuilds fixture cases from persisted requests, decisions and
// profile snapshots, then re-runs the pipeline against them. The recorded
// verdict is the expectation; a diverging replay means the pipeline or
// its tunables changed since the decision was made.
func runDBMode(dbPath, configPath string, last int) int {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 2
	}

	st, err := store.NewStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 2
	}
	defer st.Close()

	decisions, err := st.ListDecisions(last)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list decisions: %v\n", err)
		return 2
	}
	if len(decisions) == 0 {
		fmt.Fprintln(os.Stderr, "no decisions found")
		return 2
	}

	fixture := &replay.Fixture{
		Description: fmt.Sprintf("rebuilt from %s", dbPath),
		Fund:        cfg.FundState(),
		Config: replay.FixtureConfig{
			MinApproveConfidence: cfg.Consensus.MinApproveConfidence,
		},
	}
	for _, dec := range decisions {
		req, err := st.GetRequest(dec.RequestID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "get request %s: %v\n", dec.RequestID, err)
			return 2
		}
		// Stored requests carry their terminal status; reset for the re-run.
		req.Status = alloc.StatusPending

		analysis, err := st.LatestAnalysis(req.UserID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "get analysis for %s: %v\n", req.UserID, err)
			return 2
		}

		fixture.Cases = append(fixture.Cases, replay.FixtureCase{
			Name:     dec.RequestID,
			Request:  req,
			Analysis: analysis,
			Expected: replay.FixtureExpected{
				Outcome:       string(dec.Outcome),
				HumanOverride: dec.HumanOverrideRequired,
			},
		})
	}

	results, err := replay.Replay(context.Background(), fixture)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		return 2
	}
	return printComparison(results)
}

// #endregion db-mode

// #region output

// printComparison outputs a comparison table and returns the exit code.
func printComparison(results []replay.Result) int {
	fmt.Printf("%-24s| %-10s| %-9s| %s\n", "Case", "Replayed", "Override", "Match")
	fmt.Printf("%-24s+%-11s+%-10s+%s\n",
		"------------------------", "-----------", "----------", "------")

	for _, r := range results {
		match := "DIFF"
		if r.Matched {
			match = "OK"
		}
		fmt.Printf("%-24s| %-10s| %-9v| %s\n", shortName(r.Name), r.Outcome, r.HumanOverride, match)
	}

	s := replay.Summarize(results)
	diverge := s.TotalCases - s.Matched
	fmt.Printf("\nSummary: %d total, %d match, %d diverge (%d approved, %d modified, %d rejected)\n",
		s.TotalCases, s.Matched, diverge, s.Approved, s.Modified, s.Rejected)

	if diverge > 0 {
		return 1
	}
	return 0
}

func shortName(name string) string {
	if len(name) > 24 {
		return name[:24]
	}
	return name
}

// #endregion output
