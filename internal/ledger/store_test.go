package ledger_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"autolist/internal/ledger"
	"autolist/internal/logging"
	"autolist/internal/testsupport"
)

func TestRecordAndGetRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	entry := ledger.Entry{
		TrackID:    "t1",
		Outcome:    ledger.OutcomeSorted,
		PlaylistID: "pl1",
		Reason:     "matched jazz",
		TrackName:  "Blue in Green",
		Artists:    []string{"Miles Davis", "Bill Evans"},
	}
	if err := store.Record(ctx, entry); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	got, err := store.Get(ctx, "t1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected entry, got nil")
	}
	if got.Outcome != ledger.OutcomeSorted || got.PlaylistID != "pl1" {
		t.Fatalf("unexpected entry: %#v", got)
	}
	if len(got.Artists) != 2 || got.Artists[0] != "Miles Davis" {
		t.Fatalf("artists not preserved: %#v", got.Artists)
	}
	if got.ProcessedAt.IsZero() {
		t.Fatal("expected processed_at to be stamped")
	}

	contains, err := store.Contains(ctx, "t1")
	if err != nil || !contains {
		t.Fatalf("Contains = %v, %v; want true", contains, err)
	}
	contains, err = store.Contains(ctx, "absent")
	if err != nil || contains {
		t.Fatalf("Contains(absent) = %v, %v; want false", contains, err)
	}
}

func TestRecordIsWriteOnce(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := ledger.Entry{TrackID: "t1", Outcome: ledger.OutcomeSkipped, Reason: "no rule match"}
	if err := store.Record(ctx, first); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	second := ledger.Entry{TrackID: "t1", Outcome: ledger.OutcomeSorted, PlaylistID: "pl1"}
	if err := store.Record(ctx, second); err != nil {
		t.Fatalf("second Record should be a no-op, got: %v", err)
	}

	got, err := store.Get(ctx, "t1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Outcome != ledger.OutcomeSkipped {
		t.Fatalf("original entry should win, got %s", got.Outcome)
	}
}

func TestRecordValidatesOutcomePairing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	sortedWithout := ledger.Entry{TrackID: "t1", Outcome: ledger.OutcomeSorted}
	if err := store.Record(ctx, sortedWithout); err == nil {
		t.Fatal("sorted entry without playlist id should be rejected")
	}
	baselineWith := ledger.Entry{TrackID: "t2", Outcome: ledger.OutcomeBaseline, PlaylistID: "pl1"}
	if err := store.Record(ctx, baselineWith); err == nil {
		t.Fatal("baseline entry with playlist id should be rejected")
	}
	skippedWith := ledger.Entry{TrackID: "t3", Outcome: ledger.OutcomeSkipped, PlaylistID: "pl1"}
	if err := store.Record(ctx, skippedWith); err == nil {
		t.Fatal("skipped entry with playlist id should be rejected")
	}
}

func TestBaselineMarkerSetsAtMostOnce(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	set, err := store.SetBaselineDate(ctx, "2024-01-02")
	if err != nil || !set {
		t.Fatalf("first SetBaselineDate = %v, %v; want true", set, err)
	}
	set, err = store.SetBaselineDate(ctx, "2025-01-01")
	if err != nil || set {
		t.Fatalf("second SetBaselineDate = %v, %v; want false", set, err)
	}
	set, err = store.SetBaselineIndex(ctx, 10)
	if err != nil || set {
		t.Fatalf("SetBaselineIndex after date baseline = %v, %v; want false", set, err)
	}

	meta, err := store.Meta(ctx)
	if err != nil {
		t.Fatalf("Meta failed: %v", err)
	}
	if !meta.HasBaseline() || meta.BaselineDate != "2024-01-02" || meta.BaselineIndex != nil {
		t.Fatalf("unexpected meta: %#v", meta)
	}
}

func TestFinishRunBumpsCounter(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	now := time.Now()
	if err := store.FinishRun(ctx, now); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}
	if err := store.FinishRun(ctx, now.Add(time.Minute)); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	meta, err := store.Meta(ctx)
	if err != nil {
		t.Fatalf("Meta failed: %v", err)
	}
	if meta.TotalRuns != 2 {
		t.Fatalf("expected 2 runs, got %d", meta.TotalRuns)
	}
	if meta.LastRun == nil {
		t.Fatal("expected last run to be set")
	}
}

func TestForgetRemovesEntry(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	entry := ledger.Entry{TrackID: "t1", Outcome: ledger.OutcomeError, Reason: "write failed"}
	if err := store.Record(ctx, entry); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	removed, err := store.Forget(ctx, "t1")
	if err != nil || !removed {
		t.Fatalf("Forget = %v, %v; want true", removed, err)
	}
	removed, err = store.Forget(ctx, "t1")
	if err != nil || removed {
		t.Fatalf("second Forget = %v, %v; want false", removed, err)
	}
	contains, err := store.Contains(ctx, "t1")
	if err != nil || contains {
		t.Fatalf("entry should be gone, Contains = %v, %v", contains, err)
	}
}

func TestExportRoundTripsState(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	entries := []ledger.Entry{
		{TrackID: "t1", Outcome: ledger.OutcomeSorted, PlaylistID: "pl1", Reason: "matched", TrackName: "One"},
		{TrackID: "t2", Outcome: ledger.OutcomeSkipped, Reason: "no rule match", TrackName: "Two"},
		{TrackID: "t3", Outcome: ledger.OutcomeBaseline, Reason: "baseline", TrackName: "Three"},
	}
	for _, entry := range entries {
		if err := store.Record(ctx, entry); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	if _, err := store.SetBaselineDate(ctx, "2024-05-01"); err != nil {
		t.Fatalf("SetBaselineDate failed: %v", err)
	}
	if err := store.FinishRun(ctx, time.Now()); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	state, err := store.Export(ctx)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	data, err := json.Marshal(state)
	if err != nil {
		t.Fatalf("marshal state: %v", err)
	}

	var restored ledger.State
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	if len(restored.ProcessedItems) != 3 {
		t.Fatalf("expected 3 items, got %d", len(restored.ProcessedItems))
	}
	if restored.ProcessedItems["t1"].Outcome != ledger.OutcomeSorted {
		t.Fatalf("outcome lost in round trip: %#v", restored.ProcessedItems["t1"])
	}
	if restored.ProcessedItems["t2"].PlaylistID != nil {
		t.Fatal("skipped entry must have null playlist id")
	}
	if restored.BaselineDate == nil || *restored.BaselineDate != "2024-05-01" {
		t.Fatalf("baseline date lost: %#v", restored.BaselineDate)
	}
	if restored.TotalRuns != 1 {
		t.Fatalf("total runs lost: %d", restored.TotalRuns)
	}
}

func TestOpenRecoversFromCorruptDatabase(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	if err := os.WriteFile(cfg.LedgerPath(), []byte("not a database"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	store, err := ledger.Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("Open should recover from corruption: %v", err)
	}
	defer store.Close()

	count, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty ledger after recovery, got %d entries", count)
	}
}

func TestSummaryCountsOutcomes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	for i, outcome := range []ledger.Outcome{
		ledger.OutcomeSkipped, ledger.OutcomeSkipped, ledger.OutcomeError,
	} {
		entry := ledger.Entry{TrackID: string(rune('a' + i)), Outcome: outcome, Reason: "x"}
		if err := store.Record(ctx, entry); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	summary, err := store.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if summary[ledger.OutcomeSkipped] != 2 || summary[ledger.OutcomeError] != 1 {
		t.Fatalf("unexpected summary: %#v", summary)
	}
}
