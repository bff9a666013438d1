package log

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"coastercraft.ai/internal/script"
	"coastercraft.ai/internal/sim/blocks"
	"coastercraft.ai/internal/sim/world/terrain/store"
	"coastercraft.ai/internal/track"
	"coastercraft.ai/internal/voxel"
)

func TestJournal_WriteAndRead(t *testing.T) {
	dir := t.TempDir()
	j := NewJournal(dir)
	change := store.Change{Pos: voxel.P(1, 2, 3), From: blocks.Air, To: blocks.Rail}
	if err := j.WriteBlock("run-1", change); err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}
	if err := j.WriteStep("run-1", script.StepReport{Index: 0, Op: "rail", Delta: track.Stats{TotalLength: 1}}); err != nil {
		t.Fatalf("WriteStep: %v", err)
	}
	if err := j.WriteRunDone("run-1", track.Stats{TotalLength: 1}, errors.New("boom")); err != nil {
		t.Fatalf("WriteRunDone: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var got []Entry
	if err := ReadDir(filepath.Join(dir, "journal"), func(e Entry) error {
		got = append(got, e)
		return nil
	}); err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("entries: got %d want 3", len(got))
	}
	if got[0].Kind != KindBlock || got[0].Block == nil || *got[0].Block != change {
		t.Fatalf("block entry: %+v", got[0])
	}
	if got[1].Kind != KindStep || got[1].Step.Op != "rail" {
		t.Fatalf("step entry: %+v", got[1])
	}
	if got[2].Kind != KindRunDone || got[2].Err != "boom" || got[2].Stats.TotalLength != 1 {
		t.Fatalf("done entry: %+v", got[2])
	}
	for i, e := range got {
		if e.Seq != uint64(i+1) {
			t.Fatalf("seq %d: got %d", i, e.Seq)
		}
	}
}

func TestWriter_RotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := newPartWriter(dir, "journal", 0)
	at := time.Date(2026, 3, 1, 10, 59, 0, 0, time.UTC)
	if err := w.write(Entry{Kind: KindStep, Run: "a", Time: at}); err != nil {
		t.Fatal(err)
	}
	if err := w.write(Entry{Kind: KindStep, Run: "b", Time: at.Add(2 * time.Minute)}); err != nil {
		t.Fatal(err)
	}
	if err := w.close(); err != nil {
		t.Fatal(err)
	}
	files, err := ListFiles(dir, "journal")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("files: %v", files)
	}
	if filepath.Base(files[0]) != "journal-2026-03-01-10-000.jsonl.zst" {
		t.Fatalf("first file: %s", files[0])
	}
}

func TestWriter_SplitsFullParts(t *testing.T) {
	dir := t.TempDir()
	// Small enough that every entry needs its own part.
	w := newPartWriter(dir, "journal", 16)
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if err := w.write(Entry{Kind: KindStep, Run: "r", Seq: uint64(i + 1), Time: at}); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.close(); err != nil {
		t.Fatal(err)
	}
	files, err := ListFiles(dir, "journal")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 || filepath.Base(files[2]) != "journal-2026-03-01-10-002.jsonl.zst" {
		t.Fatalf("files: %v", files)
	}
	var seqs []uint64
	if err := ReadDir(dir, func(e Entry) error { seqs = append(seqs, e.Seq); return nil }); err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(seqs) != 3 || seqs[0] != 1 || seqs[2] != 3 {
		t.Fatalf("entries out of order across parts: %v", seqs)
	}
}

func TestWriter_AppendsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		w := newPartWriter(dir, "journal", 0)
		if err := w.write(Entry{Kind: KindStep, Run: "r", Time: fixed}); err != nil {
			t.Fatal(err)
		}
		if err := w.close(); err != nil {
			t.Fatal(err)
		}
	}
	files, err := ListFiles(dir, "journal")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Fatalf("reopen should append to the open part: %v", files)
	}
	n := 0
	if err := ReadDir(dir, func(Entry) error { n++; return nil }); err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if n != 2 {
		t.Fatalf("entries across two zstd frames: got %d want 2", n)
	}
}
