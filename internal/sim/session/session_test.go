package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"coastercraft.ai/internal/persistence/indexdb"
	persistlog "coastercraft.ai/internal/persistence/log"
	"coastercraft.ai/internal/script"
	"coastercraft.ai/internal/sim/blocks"
	"coastercraft.ai/internal/sim/catalogs"
	"coastercraft.ai/internal/sim/tuning"
	"coastercraft.ai/internal/telemetry"
	"coastercraft.ai/internal/track"
)

func intp(v int) *int { return &v }

func fixedClock() func() time.Time {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return t0.Add(time.Duration(n) * time.Second)
	}
}

func newTestSession(t *testing.T, cfg Config) *Session {
	t.Helper()
	if cfg.Catalogs == nil {
		cfg.Catalogs = catalogs.Builtin()
	}
	if cfg.Tuning == (tuning.Tuning{}) {
		cfg.Tuning = tuning.Defaults()
	}
	if cfg.Now == nil {
		cfg.Now = fixedClock()
	}
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func straightScript(name string, length int) *script.Script {
	return &script.Script{
		Name: name,
		Steps: []script.Step{
			{Op: "start", At: []int{0, 70, 0}, Facing: "north"},
			{Op: "straight", Length: intp(length), Power: "normal"},
		},
	}
}

func TestBuild_ReportsToEverySink(t *testing.T) {
	dir := t.TempDir()
	j := persistlog.NewJournal(dir)
	idx, err := indexdb.OpenSQLite(filepath.Join(dir, "index.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	rec, err := telemetry.New(nil)
	if err != nil {
		t.Fatalf("telemetry: %v", err)
	}
	s := newTestSession(t, Config{Journal: j, Index: idx, Telemetry: rec})

	res, err := s.Build(context.Background(), straightScript("line", 10))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if res.Delta.TotalLength <= 0 || res.Blocks == 0 {
		t.Fatalf("empty result: %+v", res)
	}
	if len(res.Report.Steps) != 2 {
		t.Fatalf("steps: %d", len(res.Report.Steps))
	}
	if s.Inventory().Count(track.LocalPlayer, blocks.Minecart) != 1 {
		t.Fatalf("start should grant a minecart")
	}
	if got := rec.Totals(); got.Builds != 1 || got.BlocksChanged != int64(res.Blocks) {
		t.Fatalf("telemetry totals: %+v blocks=%d", got, res.Blocks)
	}

	if err := j.Close(); err != nil {
		t.Fatalf("journal close: %v", err)
	}
	var blocksSeen, steps, done int
	if err := persistlog.ReadDir(filepath.Join(dir, "journal"), func(e persistlog.Entry) error {
		if e.Run != res.RunID {
			t.Fatalf("entry run %q want %q", e.Run, res.RunID)
		}
		switch e.Kind {
		case persistlog.KindBlock:
			blocksSeen++
		case persistlog.KindStep:
			steps++
		case persistlog.KindRunDone:
			done++
		}
		return nil
	}); err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if blocksSeen != res.Blocks || steps != 2 || done != 1 {
		t.Fatalf("journal: blocks=%d steps=%d done=%d", blocksSeen, steps, done)
	}

	if err := idx.Close(); err != nil {
		t.Fatalf("index close: %v", err)
	}
	idx, err = indexdb.OpenSQLite(filepath.Join(dir, "index.sqlite"))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx.Close()
	runs, err := idx.Runs(context.Background(), 10)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != res.RunID || runs[0].TotalLength != res.Delta.TotalLength {
		t.Fatalf("runs: %+v", runs)
	}
	segs, err := idx.Segments(context.Background(), res.RunID)
	if err != nil {
		t.Fatalf("Segments: %v", err)
	}
	if len(segs) != 2 || segs[1].Op != "straight" {
		t.Fatalf("segments: %+v", segs)
	}
}

func TestBuild_ContinuesFromPreviousCursor(t *testing.T) {
	s := newTestSession(t, Config{})
	first, err := s.Build(context.Background(), straightScript("a", 4))
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := s.Build(context.Background(), &script.Script{
		Name:  "b",
		Steps: []script.Step{{Op: "straight", Length: intp(3), Power: "no"}},
	})
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first.RunID == second.RunID {
		t.Fatalf("run ids should differ: %s", first.RunID)
	}
	if second.Report.End.Z >= first.Report.End.Z {
		t.Fatalf("second build should extend north: first end %s second end %s", first.Report.End, second.Report.End)
	}
	if got := s.Stats().TotalLength; got != first.Delta.TotalLength+second.Delta.TotalLength {
		t.Fatalf("running length %d, deltas %d + %d", got, first.Delta.TotalLength, second.Delta.TotalLength)
	}
	last, ok := s.Last()
	if !ok || last.RunID != second.RunID {
		t.Fatalf("last: %+v ok=%v", last, ok)
	}
}

func TestBuild_FailureIsRecorded(t *testing.T) {
	rec, err := telemetry.New(nil)
	if err != nil {
		t.Fatalf("telemetry: %v", err)
	}
	s := newTestSession(t, Config{Telemetry: rec})
	_, err = s.Build(context.Background(), &script.Script{
		Name:  "bad",
		Steps: []script.Step{{Op: "free_fall", Height: intp(1)}},
	})
	if !errors.Is(err, track.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
	last, ok := s.Last()
	if !ok || last.Err == "" {
		t.Fatalf("failed build should be recorded: %+v", last)
	}
	if rec.Totals().FailedBuilds != 1 {
		t.Fatalf("telemetry: %+v", rec.Totals())
	}
}

func TestTryBuild_Busy(t *testing.T) {
	s := newTestSession(t, Config{})
	s.mu.Lock()
	_, err := s.TryBuild(context.Background(), straightScript("x", 1))
	s.mu.Unlock()
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
}

func TestNew_RejectsUnknownRailBase(t *testing.T) {
	tu := tuning.Defaults()
	tu.Track.RailBase = "NOT_A_BLOCK"
	if _, err := New(Config{Catalogs: catalogs.Builtin(), Tuning: tu}); err == nil {
		t.Fatalf("expected error for unknown rail base")
	}
}

func TestStats_ReadableWhileBuilding(t *testing.T) {
	var (
		s     *Session
		calls int
		seen  track.Stats
		ok    bool
	)
	clock := fixedClock()
	// The second clock read happens after the last step, with the build lock held.
	s = newTestSession(t, Config{Now: func() time.Time {
		calls++
		if calls == 2 {
			seen = s.Stats()
			_, ok = s.Last()
		}
		return clock()
	}})

	done := make(chan error, 1)
	go func() {
		_, err := s.Build(context.Background(), straightScript("line", 10))
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Stats blocked behind the running build")
	}
	if seen.TotalLength == 0 {
		t.Fatalf("mid-build stats should include finished steps: %+v", seen)
	}
	if seen != s.Stats() {
		t.Fatalf("mid-build %+v, final %+v", seen, s.Stats())
	}
	if ok {
		t.Fatalf("Last should be empty until the first build finishes")
	}
}

func TestStats_DoesNotWaitForBuildLock(t *testing.T) {
	s := newTestSession(t, Config{})
	if _, err := s.Build(context.Background(), straightScript("line", 5)); err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := s.Stats()

	s.mu.Lock()
	defer s.mu.Unlock()
	got := make(chan track.Stats, 1)
	go func() { got <- s.Stats() }()
	select {
	case st := <-got:
		if st != want {
			t.Fatalf("stats: got %+v want %+v", st, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Stats waited for the build lock")
	}
}
