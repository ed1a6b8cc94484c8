package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dyike/PromptBench/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	run := RunRecord{ID: "run-1", Mode: "quick", Date: "2024-01-15"}
	if err := store.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	ret := 0.05
	results := []*models.EvaluationResult{
		{
			TestCaseID:        "abc12345",
			PromptVersion:     "original",
			Ticker:            "600519.SH",
			Date:              "2024-01-15",
			CompletenessScore: 0.75,
			FormatCompliance:  0.8,
			DataAccuracy:      0.5,
			InputTokens:       120,
			OutputTokens:      420,
			ResponseTimeMs:    2300,
			Recommendation:    "买入",
			Confidence:        0.8,
			ActualReturn5d:    &ret,
		},
		{
			TestCaseID:     "def67890",
			PromptVersion:  "optimized",
			Ticker:         "600519.SH",
			Date:           "2024-01-15",
			Recommendation: "持有",
			Confidence:     0.5,
		},
	}

	if err := store.SaveResults(ctx, run.ID, results); err != nil {
		t.Fatalf("SaveResults: %v", err)
	}

	loaded, err := store.ListResults(ctx, run.ID)
	if err != nil {
		t.Fatalf("ListResults: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d results, want 2", len(loaded))
	}

	first := loaded[0]
	if first.PromptVersion != "optimized" {
		t.Errorf("results not ordered by version: %s", first.PromptVersion)
	}
	if first.ActualReturn5d != nil {
		t.Errorf("unset return should stay nil")
	}

	second := loaded[1]
	if second.TestCaseID != "abc12345" || second.Recommendation != "买入" {
		t.Errorf("unexpected result: %+v", second)
	}
	if second.ActualReturn5d == nil || *second.ActualReturn5d != 0.05 {
		t.Errorf("5d return not persisted")
	}
}

func TestStoreUpsertResult(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.CreateRun(ctx, RunRecord{ID: "run-1", Mode: "quick", Date: "2024-01-15"}); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	r := &models.EvaluationResult{
		TestCaseID:    "abc12345",
		PromptVersion: "original",
		Ticker:        "600519.SH",
		Date:          "2024-01-15",
	}
	if err := store.SaveResult(ctx, "run-1", r); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}

	// backtest enrichment re-saves the same row with returns filled in
	ret := -0.02
	r.ActualReturn10d = &ret
	if err := store.SaveResult(ctx, "run-1", r); err != nil {
		t.Fatalf("SaveResult upsert: %v", err)
	}

	loaded, err := store.ListResults(ctx, "run-1")
	if err != nil {
		t.Fatalf("ListResults: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("upsert created duplicate rows: %d", len(loaded))
	}
	if loaded[0].ActualReturn10d == nil || *loaded[0].ActualReturn10d != -0.02 {
		t.Fatalf("10d return not updated")
	}
}

func TestListRuns(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"run-1", "run-2"} {
		if err := store.CreateRun(ctx, RunRecord{ID: id, Mode: "deep", Date: "2024-01-15"}); err != nil {
			t.Fatalf("CreateRun %s: %v", id, err)
		}
	}

	runs, err := store.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
}
