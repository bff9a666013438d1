package indexdb

import (
	"bytes"
	"context"
	"database/sql"
	"log"
	"path/filepath"
	"strings"
	"testing"

	"coastercraft.ai/internal/sim/catalogs"
	"coastercraft.ai/internal/sim/tuning"
)

func TestSQLiteIndex_QueueDropStats(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}
	s.ch <- req{kind: reqRun}

	s.RecordRun(RunRow{RunID: "r2"})
	s.RecordSegment(SegmentRow{RunID: "r2"})

	st := s.Stats()
	if st.DropRunTotal != 1 || st.DropSegmentTotal != 1 {
		t.Fatalf("drops: %+v", st)
	}
	if st.QueueDepth != 1 || st.QueueCapacity != 1 {
		t.Fatalf("queue stats mismatch: depth=%d cap=%d", st.QueueDepth, st.QueueCapacity)
	}
}

func TestSQLiteIndex_RunsAndSegments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.sqlite")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	idx.RecordSegment(SegmentRow{RunID: "run-a", Index: 0, Op: "straight", DeltaLength: 7, EndZ: -5, Facing: "north"})
	idx.RecordSegment(SegmentRow{RunID: "run-a", Index: 1, Op: "turn", DeltaLength: 3, EndX: -2, EndZ: -6, Facing: "west"})
	idx.RecordRun(RunRow{
		RunID: "run-a", Name: "demo", StartedAt: "2026-01-01T00:00:00Z", FinishedAt: "2026-01-01T00:00:01Z",
		Steps: 2, TotalLength: 10, TotalPoweredRails: 1, Blocks: 40,
	})
	idx.RecordRun(RunRow{
		RunID: "run-b", Name: "broken", StartedAt: "2026-01-01T00:01:00Z", FinishedAt: "2026-01-01T00:01:01Z",
		Err: "step 0 (free_fall): invalid parameter",
	})
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	idx, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx.Close()

	runs, err := idx.Runs(context.Background(), 10)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != "run-b" || runs[0].Err == "" {
		t.Fatalf("runs: %+v", runs)
	}
	if runs[1].TotalLength != 10 || runs[1].Blocks != 40 {
		t.Fatalf("run-a: %+v", runs[1])
	}
	segs, err := idx.Segments(context.Background(), "run-a")
	if err != nil {
		t.Fatalf("Segments: %v", err)
	}
	if len(segs) != 2 || segs[1].Op != "turn" || segs[1].Facing != "west" {
		t.Fatalf("segments: %+v", segs)
	}
}

func TestSQLiteIndex_UpsertCatalogs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.sqlite")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := idx.UpsertCatalogs("", catalogs.Builtin(), tuning.Defaults()); err != nil {
		t.Fatalf("UpsertCatalogs: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatal(err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM catalogs WHERE name IN ('blocks_palette','items_palette','tuning')`).Scan(&n); err != nil {
		t.Fatalf("query: %v", err)
	}
	if n != 3 {
		t.Fatalf("catalog rows: got %d want 3", n)
	}
}

func TestSQLiteIndex_WriteFailuresAreLogged(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "index.sqlite")
	idx, err := OpenSQLite(path, WithLogger(log.New(&buf, "", 0)))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if _, err := idx.db.Exec(`DROP TABLE segments`); err != nil {
		t.Fatalf("drop: %v", err)
	}
	idx.RecordSegment(SegmentRow{RunID: "run-x", Index: 0, Op: "straight", Facing: "north"})
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "indexdb:") || !strings.Contains(out, "segment") {
		t.Fatalf("expected a logged segment failure, got %q", out)
	}
}

func TestOpenSQLite_NilLoggerKeepsDefault(t *testing.T) {
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "index.sqlite"), WithLogger(nil))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer idx.Close()
	if idx.log == nil {
		t.Fatalf("logger should default to discard")
	}
}
