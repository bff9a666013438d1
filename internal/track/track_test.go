package track

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"

	"coastercraft.ai/internal/sim/blocks"
	"coastercraft.ai/internal/sim/world/terrain/store"
	"coastercraft.ai/internal/voxel"
)

func TestNew_RejectsInvalidConfig(t *testing.T) {
	h := newHarness(t)
	cfg := DefaultConfig()
	cfg.PowerInterval = 0
	if _, err := New(h.w, h.c, WithConfig(cfg)); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
	if _, err := New(nil, h.c); err == nil {
		t.Fatalf("expected nil world error")
	}
}

func TestValidation_FailsBeforeMutating(t *testing.T) {
	cases := []struct {
		name string
		run  func(b *Builder) error
	}{
		{"power interval low", func(b *Builder) error { return b.SetPowerInterval(0) }},
		{"power interval high", func(b *Builder) error { return b.SetPowerInterval(9) }},
		{"base air", func(b *Builder) error { return b.SetBaseBlock(blocks.Air) }},
		{"base unknown", func(b *Builder) error { return b.SetBaseBlock("NOT_A_BLOCK") }},
		{"base water", func(b *Builder) error { return b.SetBaseBlock(blocks.Water) }},
		{"base flowing lava", func(b *Builder) error { return b.SetBaseBlock(blocks.FlowingLava) }},
		{"base rail", func(b *Builder) error { return b.SetBaseBlock(blocks.PoweredRail) }},
		{"base torch", func(b *Builder) error { return b.SetBaseBlock(blocks.Torch) }},
		{"base wire", func(b *Builder) error { return b.SetBaseBlock(blocks.RedstoneWire) }},
		{"decoration", func(b *Builder) error { return b.SetDecorationStyle(DecorationStyle(42)) }},
		{"station heading", func(b *Builder) error { return b.PlaceTrackStart(voxel.P(10, 5, 10), voxel.Compass(42)) }},
		{"station heading negative", func(b *Builder) error { return b.PlaceTrackStart(voxel.P(10, 5, 10), voxel.Compass(-1)) }},
		{"straight length", func(b *Builder) error { return b.AddStraightLine(-1, PowerNo) }},
		{"straight power", func(b *Builder) error { return b.AddStraightLine(3, PowerLevel(9)) }},
		{"ramp distance", func(b *Builder) error { return b.AddRamp(Up, -1, 1) }},
		{"ramp horiz", func(b *Builder) error { return b.AddRamp(Down, 3, 0) }},
		{"turn", func(b *Builder) error { return b.AddTurn(Turn(7)) }},
		{"u-turn width", func(b *Builder) error { return b.AddUTurn(Left, 3, PowerNormal) }},
		{"bank low", func(b *Builder) error { return b.AddBankedTurn(Left, 0) }},
		{"bank high", func(b *Builder) error { return b.AddBankedTurn(Right, 6) }},
		{"spiral width", func(b *Builder) error { return b.AddSpiral(Up, Right, 10, 2) }},
		{"spiral height", func(b *Builder) error { return b.AddSpiral(Down, Right, 0, 3) }},
		{"free fall low", func(b *Builder) error { return b.AddFreeFall(3) }},
		{"free fall high", func(b *Builder) error { return b.AddFreeFall(385) }},
		{"speed boost", func(b *Builder) error { return b.AddSpeedBoost(11) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			before := h.b.Config()
			err := tc.run(h.b)
			if !errors.Is(err, ErrInvalidParameter) {
				t.Fatalf("expected ErrInvalidParameter, got %v", err)
			}
			if h.w.mutations() != 0 {
				t.Fatalf("world mutated %d times", h.w.mutations())
			}
			if h.c.Position() != voxel.P(0, 0, 0) {
				t.Fatalf("cursor moved to %s", h.c.Position())
			}
			if h.b.Config() != before {
				t.Fatalf("config changed: %+v", h.b.Config())
			}
		})
	}
}

func TestNew_RejectsBadRailBase(t *testing.T) {
	h := newHarness(t)
	for _, m := range []blocks.Material{"NOT_A_BLOCK", blocks.Water, blocks.Rail} {
		cfg := DefaultConfig()
		cfg.RailBase = m
		if _, err := New(h.w, h.c, WithConfig(cfg)); !errors.Is(err, ErrInvalidParameter) {
			t.Fatalf("%s: expected ErrInvalidParameter, got %v", m, err)
		}
	}
	if h.w.mutations() != 0 {
		t.Fatalf("world mutated %d times", h.w.mutations())
	}
}

func TestSetBaseBlock_AcceptsSolids(t *testing.T) {
	h := newHarness(t)
	for _, m := range []blocks.Material{blocks.Stone, blocks.Glass, blocks.RedstoneBlock, blocks.PinkConcrete} {
		if err := h.b.SetBaseBlock(m); err != nil {
			t.Fatalf("%s: %v", m, err)
		}
		if h.b.Config().RailBase != m {
			t.Fatalf("rail base: got %s want %s", h.b.Config().RailBase, m)
		}
	}
}

func TestWorldFailureIsWrapped(t *testing.T) {
	h := newHarnessGen(t, store.WorldGen{MinY: -16, MaxY: 16, GroundY: -17, BoundaryR: 3})
	err := h.b.AddStraightLine(10, PowerNo)
	if !errors.Is(err, ErrWorldMutation) {
		t.Fatalf("expected ErrWorldMutation, got %v", err)
	}
	if !errors.Is(err, store.ErrOutOfBounds) {
		t.Fatalf("expected the store error to be kept, got %v", err)
	}
	if got := h.b.TotalTrackLength(); got != 4 {
		t.Fatalf("rails before the boundary: got %d want 4", got)
	}
}

func TestProtection_OffSkipsReplace(t *testing.T) {
	h := newHarness(t, WithConfig(noProtection()))
	if err := h.b.AddStraightLine(5, PowerNormal); err != nil {
		t.Fatal(err)
	}
	if err := h.b.AddTurn(Left); err != nil {
		t.Fatal(err)
	}
	if err := h.b.AddFreeFall(4); err != nil {
		t.Fatal(err)
	}
	if h.w.replaces != 0 {
		t.Fatalf("replace calls: got %d want 0", h.w.replaces)
	}
}

func TestProtection_SwapsFluidsForGlass(t *testing.T) {
	h := newHarness(t)
	water := voxel.P(1, 1, 0)
	lava := voxel.P(-1, 4, -1)
	if err := h.w.Place(blocks.Water, water); err != nil {
		t.Fatal(err)
	}
	if err := h.w.Place(blocks.FlowingLava, lava); err != nil {
		t.Fatal(err)
	}
	if err := h.b.AddRail(); err != nil {
		t.Fatal(err)
	}
	for _, p := range []voxel.Pos{water, lava} {
		if got := h.w.Get(p); got != blocks.Glass {
			t.Fatalf("%s: got %s want GLASS", p, got)
		}
	}
	// Flowing and still for each fluid.
	if h.w.replaces != 4 {
		t.Fatalf("replace calls: got %d want 4", h.w.replaces)
	}

	h.b.SetLavaProtection(false)
	h.w.replaces = 0
	h.c.Move(voxel.Forward, 1)
	if err := h.b.AddRail(); err != nil {
		t.Fatal(err)
	}
	if h.w.replaces != 2 {
		t.Fatalf("water only: got %d replace calls", h.w.replaces)
	}
}

func TestRail_ClearsHeadroom(t *testing.T) {
	h := newHarness(t)
	for y := 1; y <= 4; y++ {
		if err := h.w.Place(blocks.Stone, voxel.P(0, y, 0)); err != nil {
			t.Fatal(err)
		}
	}
	if err := h.b.AddRail(); err != nil {
		t.Fatal(err)
	}
	if got := h.w.Get(voxel.P(0, 1, 0)); got != blocks.Rail {
		t.Fatalf("rail: got %s", got)
	}
	for y := 2; y <= 3; y++ {
		if got := h.w.Get(voxel.P(0, y, 0)); got != blocks.Air {
			t.Fatalf("headroom y=%d: got %s", y, got)
		}
	}
	if got := h.w.Get(voxel.P(0, 4, 0)); got != blocks.Stone {
		t.Fatalf("above headroom: got %s", got)
	}
}

func TestDebugModeLogsGenerators(t *testing.T) {
	var buf bytes.Buffer
	h := newHarness(t, WithLogger(log.New(&buf, "", 0)))
	if err := h.b.AddTurn(Left); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Fatalf("logged without debug: %q", buf.String())
	}
	h.b.SetDebugMode(true)
	if err := h.b.AddTurn(Right); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "turn right") || !strings.Contains(buf.String(), "facing north") {
		t.Fatalf("unexpected debug output: %q", buf.String())
	}
}
