// Package session owns one build world: the chunk store, the cursor and
// the track builder, plus the sinks every build run reports to.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"coastercraft.ai/internal/persistence/indexdb"
	persistlog "coastercraft.ai/internal/persistence/log"
	"coastercraft.ai/internal/script"
	"coastercraft.ai/internal/sim/catalogs"
	"coastercraft.ai/internal/sim/tuning"
	"coastercraft.ai/internal/sim/world/builder"
	"coastercraft.ai/internal/sim/world/terrain/store"
	"coastercraft.ai/internal/telemetry"
	"coastercraft.ai/internal/track"
	"coastercraft.ai/internal/transport/observer"
)

// ErrBusy is returned by TryBuild while another build holds the session.
var ErrBusy = errors.New("session: build in progress")

// Config wires a session. Catalogs and Tuning are required; every sink is
// optional.
type Config struct {
	Tuning   tuning.Tuning
	Catalogs *catalogs.Catalogs
	Logger   *log.Logger

	Journal   *persistlog.Journal
	Index     *indexdb.SQLiteIndex
	Observer  *observer.Server
	Telemetry *telemetry.Recorder

	// Now defaults to time.Now.
	Now func() time.Time
}

type Session struct {
	cfg Config
	log *log.Logger

	world   *store.ChunkStore
	cursor  *builder.Cursor
	inv     *builder.Inventory
	builder *track.Builder

	mu     sync.Mutex
	seq    uint64
	active *run

	// snapMu guards the copies readers get while a build holds mu.
	snapMu sync.RWMutex
	stats  track.Stats
	last   *Result
}

// run is the per-build state the store listener feeds.
type run struct {
	id      string
	blocks  int
	obs     *observer.Run
	jerrors int
}

// Result summarizes one build.
type Result struct {
	RunID      string        `json:"run_id"`
	Report     script.Report `json:"report"`
	Delta      track.Stats   `json:"delta"`
	Blocks     int           `json:"blocks"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Err        string        `json:"err,omitempty"`
}

func New(cfg Config) (*Session, error) {
	if cfg.Catalogs == nil {
		return nil, fmt.Errorf("session: nil catalogs")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	trackCfg, err := cfg.Tuning.TrackConfig()
	if err != nil {
		return nil, fmt.Errorf("track config: %w", err)
	}
	facing, err := cfg.Tuning.StartFacing()
	if err != nil {
		return nil, fmt.Errorf("start facing: %w", err)
	}
	if err := cfg.Catalogs.Require(trackCfg.RailBase); err != nil {
		return nil, err
	}

	w, err := store.NewChunkStore(cfg.Tuning.WorldGen(), &cfg.Catalogs.Blocks)
	if err != nil {
		return nil, err
	}
	cur := builder.New(w, cfg.Tuning.StartPos(), facing)
	inv := builder.NewInventory(cfg.Catalogs.Items.Palette...)
	b, err := track.New(w, cur,
		track.WithConfig(trackCfg),
		track.WithLogger(logger),
		track.WithPlayers(inv, track.LocalPlayer),
	)
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:     cfg,
		log:     logger,
		world:   w,
		cursor:  cur,
		inv:     inv,
		builder: b,
		stats:   b.Stats(),
	}
	w.OnChange(s.onChange)
	if cfg.Telemetry != nil {
		w.OnChange(cfg.Telemetry.OnChange)
	}
	return s, nil
}

func (s *Session) World() *store.ChunkStore { return s.world }

func (s *Session) Inventory() *builder.Inventory { return s.inv }

// Stats are the builder's running totals across every build, as of the
// last finished step. It does not wait for a build in progress.
func (s *Session) Stats() track.Stats {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	return s.stats
}

// Last returns the most recent build result, if any.
func (s *Session) Last() (Result, bool) {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	if s.last == nil {
		return Result{}, false
	}
	return *s.last, true
}

// publish copies the builder totals (and res, when set) for readers.
// Callers hold mu.
func (s *Session) publish(res *Result) {
	st := s.builder.Stats()
	s.snapMu.Lock()
	s.stats = st
	if res != nil {
		s.last = res
	}
	s.snapMu.Unlock()
}

// Build runs sc to completion, waiting for any build already in progress.
// The track continues from wherever the previous build left the cursor.
func (s *Session) Build(ctx context.Context, sc *script.Script) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buildLocked(ctx, sc)
}

// TryBuild is Build without waiting.
func (s *Session) TryBuild(ctx context.Context, sc *script.Script) (Result, error) {
	if !s.mu.TryLock() {
		return Result{}, ErrBusy
	}
	defer s.mu.Unlock()
	return s.buildLocked(ctx, sc)
}

func (s *Session) buildLocked(ctx context.Context, sc *script.Script) (Result, error) {
	s.seq++
	started := s.cfg.Now()
	r := &run{id: fmt.Sprintf("%s-%04d", started.UTC().Format("20060102T150405"), s.seq)}
	if s.cfg.Observer != nil {
		r.obs = s.cfg.Observer.StartRun(r.id)
	}
	s.active = r
	defer func() { s.active = nil }()

	before := s.builder.Stats()
	rep, runErr := script.Run(ctx, s.builder, sc, script.Options{
		OnStep: func(sr script.StepReport) { s.onStep(r, sr) },
	})
	delta := s.builder.Stats().Sub(before)

	res := Result{
		RunID:      r.id,
		Report:     rep,
		Delta:      delta,
		Blocks:     r.blocks,
		StartedAt:  started,
		FinishedAt: s.cfg.Now(),
	}
	if runErr != nil {
		res.Err = runErr.Error()
	}
	s.finish(r, sc, res, runErr)
	s.publish(&res)

	if runErr != nil {
		s.log.Printf("build %s (%s) failed after %d steps: %v", r.id, sc.Name, len(rep.Steps), runErr)
		return res, runErr
	}
	s.log.Printf("build %s (%s): steps=%d blocks=%d length=+%d powered=+%d end=%s facing=%s",
		r.id, sc.Name, len(rep.Steps), r.blocks, delta.TotalLength, delta.TotalPoweredRails, rep.End, rep.Facing)
	return res, nil
}

func (s *Session) onChange(c store.Change) {
	r := s.active
	if r == nil {
		return
	}
	r.blocks++
	if r.obs != nil {
		r.obs.OnChange(c)
	}
	if s.cfg.Journal != nil {
		if err := s.cfg.Journal.WriteBlock(r.id, c); err != nil {
			s.journalError(r, err)
		}
	}
}

func (s *Session) onStep(r *run, sr script.StepReport) {
	s.publish(nil)
	if r.obs != nil {
		r.obs.Step(sr)
	}
	if s.cfg.Journal != nil {
		if err := s.cfg.Journal.WriteStep(r.id, sr); err != nil {
			s.journalError(r, err)
		}
	}
	s.cfg.Index.RecordSegment(indexdb.SegmentRow{
		RunID:        r.id,
		Index:        sr.Index,
		Op:           sr.Op,
		DeltaLength:  sr.Delta.TotalLength,
		DeltaPowered: sr.Delta.TotalPoweredRails,
		EndX:         sr.End.X,
		EndY:         sr.End.Y,
		EndZ:         sr.End.Z,
		Facing:       sr.Facing,
	})
}

func (s *Session) finish(r *run, sc *script.Script, res Result, runErr error) {
	if r.obs != nil {
		r.obs.Done(res.Delta, runErr)
	}
	if s.cfg.Journal != nil {
		if err := s.cfg.Journal.WriteRunDone(r.id, res.Delta, runErr); err != nil {
			s.journalError(r, err)
		}
	}
	s.cfg.Index.RecordRun(indexdb.RunRow{
		RunID:             r.id,
		Name:              sc.Name,
		StartedAt:         res.StartedAt.UTC().Format(time.RFC3339Nano),
		FinishedAt:        res.FinishedAt.UTC().Format(time.RFC3339Nano),
		Steps:             len(res.Report.Steps),
		TotalLength:       res.Delta.TotalLength,
		TotalPoweredRails: res.Delta.TotalPoweredRails,
		Blocks:            res.Blocks,
		Err:               res.Err,
	})
	if s.cfg.Telemetry != nil {
		s.cfg.Telemetry.BuildDone(res.Delta, runErr)
	}
}

// journalError logs the first journal failure of a run; the build goes on.
func (s *Session) journalError(r *run, err error) {
	r.jerrors++
	if r.jerrors == 1 {
		s.log.Printf("journal %s: %v", r.id, err)
	}
}
