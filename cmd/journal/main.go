package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	persistlog "coastercraft.ai/internal/persistence/log"
)

func main() {
	var (
		dataDir = flag.String("data", "./data", "runtime data directory (journal files live in <data>/journal)")
		runID   = flag.String("run", "", "only summarize this run (optional)")
		steps   = flag.Bool("steps", false, "print every step")
	)
	flag.Parse()

	dir := filepath.Join(*dataDir, "journal")
	files, err := persistlog.ListFiles(dir, "journal")
	if err != nil {
		fmt.Fprintln(os.Stderr, "list journal:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no journal files found in", dir)
		os.Exit(1)
	}

	sum := newSummary(*runID)
	for _, path := range files {
		if err := persistlog.ReadFile(path, sum.add); err != nil {
			fmt.Fprintln(os.Stderr, "read journal:", err)
			os.Exit(1)
		}
	}
	sum.print(os.Stdout, *steps)
}

type runSummary struct {
	id       string
	blocks   int
	steps    []persistlog.Entry
	placed   map[string]int
	done     bool
	length   int
	powered  int
	err      string
	firstSeq uint64
}

type summary struct {
	only string
	runs map[string]*runSummary
}

func newSummary(only string) *summary {
	return &summary{only: only, runs: map[string]*runSummary{}}
}

func (s *summary) add(e persistlog.Entry) error {
	if s.only != "" && e.Run != s.only {
		return nil
	}
	r := s.runs[e.Run]
	if r == nil {
		r = &runSummary{id: e.Run, placed: map[string]int{}, firstSeq: e.Seq}
		s.runs[e.Run] = r
	}
	switch e.Kind {
	case persistlog.KindBlock:
		if e.Block == nil {
			return fmt.Errorf("seq %d: block entry without change", e.Seq)
		}
		r.blocks++
		r.placed[string(e.Block.To)]++
	case persistlog.KindStep:
		r.steps = append(r.steps, e)
	case persistlog.KindRunDone:
		r.done = true
		if e.Stats != nil {
			r.length = e.Stats.TotalLength
			r.powered = e.Stats.TotalPoweredRails
		}
		r.err = e.Err
	default:
		return fmt.Errorf("seq %d: unknown kind %q", e.Seq, e.Kind)
	}
	return nil
}

func (s *summary) ordered() []*runSummary {
	out := make([]*runSummary, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].firstSeq < out[j].firstSeq })
	return out
}

func (s *summary) print(w io.Writer, withSteps bool) {
	for _, r := range s.ordered() {
		status := "ok"
		switch {
		case !r.done:
			status = "incomplete"
		case r.err != "":
			status = "failed: " + r.err
		}
		fmt.Fprintf(w, "run %s: steps=%d blocks=%d length=%d powered=%d %s\n",
			r.id, len(r.steps), r.blocks, r.length, r.powered, status)

		mats := make([]string, 0, len(r.placed))
		for m := range r.placed {
			mats = append(mats, m)
		}
		sort.Strings(mats)
		for _, m := range mats {
			fmt.Fprintf(w, "  %-16s %d\n", m, r.placed[m])
		}
		if !withSteps {
			continue
		}
		for _, e := range r.steps {
			st := e.Step
			fmt.Fprintf(w, "  step %3d %-20s +len=%-4d end=%s facing=%s\n",
				st.Index, st.Op, st.Delta.TotalLength, st.End, st.Facing)
		}
	}
}
