package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kincholabs/daf-controller/internal/alloc"
	"github.com/kincholabs/daf-controller/internal/profile"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture: one fund
// snapshot and a sequence of recorded allocation requests with their
// expected verdicts.
type Fixture struct {
	Description string          `json:"description"`
	Fund        alloc.FundState `json:"fund"`
	Config      FixtureConfig   `json:"config"`
	Cases       []FixtureCase   `json:"cases"`
}

// FixtureConfig bundles the coordinator tunables for a replay run.
type FixtureConfig struct {
	MinApproveConfidence float32 `json:"min_approve_confidence"`
}

// FixtureCase is a single recorded request plus the verdict the pipeline
// produced when it ran live.
type FixtureCase struct {
	Name     string            `json:"name"`
	Request  alloc.Request     `json:"request"`
	Analysis *profile.Analysis `json:"analysis,omitempty"`
	Expected FixtureExpected   `json:"expected"`
}

// FixtureExpected captures the expected verdict per case.
type FixtureExpected struct {
	Outcome       string `json:"outcome"`
	HumanOverride bool   `json:"human_override"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if len(f.Cases) == 0 {
		return nil, fmt.Errorf("fixture %s has no cases", path)
	}
	return &f, nil
}

// #endregion fixture-loader
