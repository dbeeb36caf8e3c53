package replay

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFixtureRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.json")

	payload, err := json.MarshalIndent(testFixture(), "", "  ")
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	if len(f.Cases) != 2 {
		t.Fatalf("got %d cases, want 2", len(f.Cases))
	}
	if f.Cases[0].Request.Amount != 10_000 {
		t.Errorf("amount lost in round trip: %d", f.Cases[0].Request.Amount)
	}
	if f.Cases[0].Analysis == nil || f.Cases[0].Analysis.Archetype.CauseAlignment["global_health"] != 0.9 {
		t.Errorf("analysis lost in round trip: %+v", f.Cases[0].Analysis)
	}
	if f.Cases[1].Analysis != nil {
		t.Errorf("absent analysis should stay nil, got %+v", f.Cases[1].Analysis)
	}
	if f.Fund.CurrentAllocation["global_health"] != 0.10 {
		t.Errorf("fund allocation lost: %+v", f.Fund.CurrentAllocation)
	}
}

func TestLoadFixtureErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadFixture(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("missing file should fail")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFixture(bad); err == nil {
		t.Error("malformed JSON should fail")
	}

	empty := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(empty, []byte(`{"description":"x","cases":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFixture(empty); err == nil {
		t.Error("fixture with no cases should fail")
	}
}
