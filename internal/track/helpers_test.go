package track

import (
	"testing"

	"coastercraft.ai/internal/sim/blocks"
	"coastercraft.ai/internal/sim/catalogs"
	"coastercraft.ai/internal/sim/world/builder"
	"coastercraft.ai/internal/sim/world/terrain/store"
	"coastercraft.ai/internal/voxel"
)

// countingWorld counts calls into the chunk store.
type countingWorld struct {
	*store.ChunkStore
	places   int
	replaces int
	fills    int
}

func (w *countingWorld) Place(m blocks.Material, p voxel.Pos) error {
	w.places++
	return w.ChunkStore.Place(m, p)
}

func (w *countingWorld) PlaceWithData(m blocks.Material, data int, p voxel.Pos) error {
	w.places++
	return w.ChunkStore.PlaceWithData(m, data, p)
}

func (w *countingWorld) Replace(to, from blocks.Material, c1, c2 voxel.Pos) error {
	w.replaces++
	return w.ChunkStore.Replace(to, from, c1, c2)
}

func (w *countingWorld) Fill(m blocks.Material, c1, c2 voxel.Pos, mode blocks.FillMode) error {
	w.fills++
	return w.ChunkStore.Fill(m, c1, c2, mode)
}

func (w *countingWorld) mutations() int { return w.places + w.replaces + w.fills }

type harness struct {
	w   *countingWorld
	c   *builder.Cursor
	b   *Builder
	inv *builder.Inventory
}

// newHarness builds on an empty world (no terrain) with the cursor at the
// origin facing north.
func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	return newHarnessGen(t, store.WorldGen{MinY: -400, MaxY: 400, GroundY: -401}, opts...)
}

func newHarnessGen(t *testing.T, gen store.WorldGen, opts ...Option) *harness {
	t.Helper()
	s, err := store.NewChunkStore(gen, &catalogs.Builtin().Blocks)
	if err != nil {
		t.Fatalf("NewChunkStore: %v", err)
	}
	w := &countingWorld{ChunkStore: s}
	c := builder.New(w, voxel.P(0, 0, 0), voxel.CompassNorth)
	inv := builder.NewInventory()
	opts = append([]Option{WithPlayers(inv, LocalPlayer)}, opts...)
	b, err := New(w, c, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &harness{w: w, c: c, b: b, inv: inv}
}

func noProtection() Config {
	c := DefaultConfig()
	c.WaterProtection = false
	c.LavaProtection = false
	return c
}

// railAt returns the rail material sitting on base cell p.
func (h *harness) railAt(p voxel.Pos) blocks.Material {
	return h.w.Get(p.Up(1))
}

func (h *harness) mustPos(t *testing.T, want voxel.Pos) {
	t.Helper()
	if got := h.c.Position(); got != want {
		t.Fatalf("cursor: got %s want %s", got, want)
	}
}

func (h *harness) mustFacing(t *testing.T, want voxel.Compass) {
	t.Helper()
	if got := h.c.Facing(); got != want {
		t.Fatalf("facing: got %s want %s", got, want)
	}
}

func (h *harness) countRails(lo, hi voxel.Pos) (plain, powered int) {
	for y := lo.Y; y <= hi.Y; y++ {
		for z := lo.Z; z <= hi.Z; z++ {
			for x := lo.X; x <= hi.X; x++ {
				switch h.w.Get(voxel.P(x, y, z)) {
				case blocks.Rail:
					plain++
				case blocks.PoweredRail:
					powered++
				}
			}
		}
	}
	return plain, powered
}
