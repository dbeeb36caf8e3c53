package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"github.com/kincholabs/daf-controller/internal/alloc"
	"github.com/kincholabs/daf-controller/internal/config"
	"github.com/kincholabs/daf-controller/internal/consensus"
	"github.com/kincholabs/daf-controller/internal/replay"
	"github.com/kincholabs/daf-controller/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to daf_controller.db")
	configPath := flag.String("config", "", "path to YAML config for the fund snapshot")
	last := flag.Int("last", 10, "number of most recent decisions to export")
	outPath := flag.String("out", "", "output fixture JSON path")
	flag.Parse()

	if *dbPath == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/db --out path/to/fixture.json [--config cfg.yaml] [--last N]")
		os.Exit(2)
	}

	if err := run(*dbPath, *configPath, *last, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region extract

func run(dbPath, configPath string, last int, outPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err := store.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer st.Close()

	decisions, err := st.ListDecisions(last)
	if err != nil {
		return fmt.Errorf("list decisions: %w", err)
	}
	if len(decisions) == 0 {
		return fmt.Errorf("no decisions found in %s", dbPath)
	}

	fixture, err := buildFixture(st, cfg, decisions)
	if err != nil {
		return err
	}

	fmt.Printf("Found %d decisions\n", len(fixture.Cases))

	return writeFixture(fixture, outPath)
}

// #endregion extract

// #region output

// buildFixture pairs each recorded decision with its request and the donor
// profile snapshot it was judged against. Requests are reset to pending so
// the replay harness can re-run them.
func buildFixture(st *store.Store, cfg config.Config, decisions []consensus.Decision) (replay.Fixture, error) {
	fixture := replay.Fixture{
		Description: fmt.Sprintf("Production export: %d decisions", len(decisions)),
		Fund:        cfg.FundState(),
		Config: replay.FixtureConfig{
			MinApproveConfidence: cfg.Consensus.MinApproveConfidence,
		},
	}

	for _, dec := range decisions {
		req, err := st.GetRequest(dec.RequestID)
		if err != nil {
			return replay.Fixture{}, fmt.Errorf("get request %s: %w", dec.RequestID, err)
		}
		req.Status = alloc.StatusPending

		analysis, err := st.LatestAnalysis(req.UserID)
		if err != nil {
			return replay.Fixture{}, fmt.Errorf("get analysis for %s: %w", req.UserID, err)
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

	return fixture, nil
}

func writeFixture(fixture replay.Fixture, outPath string) error {
	data, err := json.MarshalIndent(fixture, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}

	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}

	fmt.Printf("Wrote fixture to %s (%d bytes, %d cases)\n", outPath, len(data), len(fixture.Cases))
	return nil
}

// #endregion output
