package track

import (
	"testing"

	"coastercraft.ai/internal/sim/blocks"
	"coastercraft.ai/internal/voxel"
)

func TestAddFreeFall(t *testing.T) {
	h := newHarness(t)
	if err := h.b.AddFreeFall(10); err != nil {
		t.Fatalf("AddFreeFall: %v", err)
	}
	h.mustPos(t, voxel.P(0, -10, -2))
	h.mustFacing(t, voxel.CompassNorth)

	if got := h.railAt(voxel.P(0, 0, 0)); got != blocks.Rail {
		t.Fatalf("edge rail: got %s", got)
	}
	for y := 0; y <= 2; y++ {
		if got := h.w.Get(voxel.P(0, y, -2)); got != blocks.PlanksOak {
			t.Fatalf("stop wall y=%d: got %s", y, got)
		}
	}
	landing := []struct {
		base voxel.Pos
		want blocks.Material
	}{
		{voxel.P(0, -8, 0), blocks.PlanksOak},
		{voxel.P(0, -9, -1), blocks.RedstoneBlock},
		{voxel.P(0, -10, -2), blocks.PlanksOak},
	}
	for _, l := range landing {
		if got := h.w.Get(l.base); got != l.want {
			t.Fatalf("landing base %s: got %s want %s", l.base, got, l.want)
		}
		if got := h.railAt(l.base); got != blocks.PoweredRail {
			t.Fatalf("landing rail over %s: got %s", l.base, got)
		}
	}
	if st := h.b.Stats(); st.TotalLength != 3 || st.TotalPoweredRails != 1 {
		t.Fatalf("stats: %+v", st)
	}
}

func TestAddFreeFall_ClearsShaft(t *testing.T) {
	h := newHarness(t)
	for y := -5; y <= 2; y++ {
		if err := h.w.Place(blocks.Stone, voxel.P(0, y, -1)); err != nil {
			t.Fatal(err)
		}
	}
	if err := h.b.AddFreeFall(6); err != nil {
		t.Fatalf("AddFreeFall: %v", err)
	}
	// The landing ramp reoccupies y=-5 and -4.
	for y := -3; y <= 2; y++ {
		if got := h.w.Get(voxel.P(0, y, -1)); got != blocks.Air {
			t.Fatalf("shaft y=%d: got %s", y, got)
		}
	}
}
