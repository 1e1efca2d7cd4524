// Package testutil provides shared test infrastructure for the simulator:
// the end-to-end scenario dataset and fixture path helpers.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// ScenarioDataset represents the structure of testdata/scenarios.json.
type ScenarioDataset struct {
	Tests []ScenarioCase `json:"tests"`
}

// ScenarioCase is one end-to-end run with its expected outcome.
// Counts are indexed by handler id.
type ScenarioCase struct {
	Name           string  `json:"name"`
	Input          string  `json:"input"` // file name under testdata/
	Rounds         int     `json:"rounds"`
	Relief         string  `json:"relief"`
	Representation string  `json:"representation"`
	Counts         []int64 `json:"counts"`
	TopK           int     `json:"top_k"`
	Business       uint64  `json:"business"`
}

// TestdataDir returns the repo root testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func TestdataDir(t *testing.T) string {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata")
}

// FixturePath returns the path of a file under the repo root testdata directory.
func FixturePath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(TestdataDir(t), name)
}

// LoadScenarioDataset loads the scenario dataset from the testdata directory.
func LoadScenarioDataset(t *testing.T) *ScenarioDataset {
	t.Helper()

	data, err := os.ReadFile(FixturePath(t, "scenarios.json"))
	if err != nil {
		t.Fatalf("Failed to read scenario dataset: %v", err)
	}

	var dataset ScenarioDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse scenario dataset: %v", err)
	}

	return &dataset
}
