package observer

import (
	"encoding/json"

	"coastercraft.ai/internal/observerproto"
	"coastercraft.ai/internal/script"
	"coastercraft.ai/internal/sim/world/terrain/store"
	"coastercraft.ai/internal/track"
)

// Run collects the block changes of one build and publishes them with
// every step.
type Run struct {
	s       *Server
	id      string
	pending []observerproto.BlockChange
}

func (s *Server) StartRun(id string) *Run {
	return &Run{s: s, id: id}
}

// OnChange buffers a block change until the next step. It is meant to be
// registered as a store listener and runs on the building goroutine.
func (r *Run) OnChange(c store.Change) {
	r.pending = append(r.pending, observerproto.BlockChange{
		Pos:  c.Pos.Array(),
		From: string(c.From),
		To:   string(c.To),
	})
}

func (r *Run) Step(sr script.StepReport) {
	r.flush()
	r.s.publish(observerproto.StepMsg{
		Type:            "STEP",
		ProtocolVersion: observerproto.Version,
		Run:             r.id,
		Index:           sr.Index,
		Op:              sr.Op,
		DeltaLength:     sr.Delta.TotalLength,
		DeltaPowered:    sr.Delta.TotalPoweredRails,
		End:             sr.End.Array(),
		Facing:          sr.Facing,
	})
}

func (r *Run) Done(stats track.Stats, runErr error) {
	r.flush()
	msg := observerproto.BuildDoneMsg{
		Type:              "BUILD_DONE",
		ProtocolVersion:   observerproto.Version,
		Run:               r.id,
		TotalLength:       stats.TotalLength,
		TotalPoweredRails: stats.TotalPoweredRails,
	}
	if runErr != nil {
		msg.Err = runErr.Error()
	}
	r.s.publish(msg)
}

func (r *Run) flush() {
	if len(r.pending) == 0 {
		return
	}
	changes := r.pending
	r.pending = nil

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, ss := range r.s.sessions {
		if !ss.blocks.Load() {
			continue
		}
		batch := int(ss.maxBatch.Load())
		for i := 0; i < len(changes); i += batch {
			end := min(i+batch, len(changes))
			b, err := json.Marshal(observerproto.BlockDeltaMsg{
				Type:            "BLOCK_DELTA",
				ProtocolVersion: observerproto.Version,
				Run:             r.id,
				Changes:         changes[i:end],
			})
			if err != nil {
				continue
			}
			r.s.send(ss, b)
		}
	}
}

func (s *Server) publish(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ss := range s.sessions {
		s.send(ss, b)
	}
}

func (s *Server) send(ss *session, b []byte) {
	select {
	case ss.out <- b:
	default:
		s.dropped.Add(1)
	}
}
