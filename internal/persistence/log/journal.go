package log

import (
	"path/filepath"
	"sync/atomic"
	"time"

	"coastercraft.ai/internal/script"
	"coastercraft.ai/internal/sim/world/terrain/store"
	"coastercraft.ai/internal/track"
)

const (
	KindBlock   = "BLOCK"
	KindStep    = "STEP"
	KindRunDone = "RUN_DONE"
)

// Entry is one journal line. Exactly one of Block, Step or Stats is set,
// according to Kind.
type Entry struct {
	Kind  string             `json:"kind"`
	Run   string             `json:"run"`
	Seq   uint64             `json:"seq"`
	Time  time.Time          `json:"time"`
	Block *store.Change      `json:"block,omitempty"`
	Step  *script.StepReport `json:"step,omitempty"`
	Stats *track.Stats       `json:"stats,omitempty"`
	Err   string             `json:"err,omitempty"`
}

// Journal records the block changes and steps of build runs. It is a
// diagnostic trail; builds are never replayed from it.
type Journal struct {
	w   *partWriter
	now func() time.Time
	seq atomic.Uint64
}

// NewJournal writes under dir/journal with DefaultPartBytes parts.
func NewJournal(dir string) *Journal {
	return &Journal{w: newPartWriter(filepath.Join(dir, "journal"), "journal", DefaultPartBytes), now: time.Now}
}

func (j *Journal) write(e Entry) error {
	e.Seq = j.seq.Add(1)
	e.Time = j.now().UTC()
	return j.w.write(e)
}

func (j *Journal) WriteBlock(run string, c store.Change) error {
	return j.write(Entry{Kind: KindBlock, Run: run, Block: &c})
}

func (j *Journal) WriteStep(run string, sr script.StepReport) error {
	return j.write(Entry{Kind: KindStep, Run: run, Step: &sr})
}

// WriteRunDone closes a run; runErr is the build error, if any.
func (j *Journal) WriteRunDone(run string, stats track.Stats, runErr error) error {
	e := Entry{Kind: KindRunDone, Run: run, Stats: &stats}
	if runErr != nil {
		e.Err = runErr.Error()
	}
	if err := j.write(e); err != nil {
		return err
	}
	return j.w.flush()
}

func (j *Journal) Close() error { return j.w.close() }
