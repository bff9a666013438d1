package render

import (
	"bytes"
	"errors"
	"image/png"
	"path/filepath"
	"testing"

	"coastercraft.ai/internal/sim/blocks"
	"coastercraft.ai/internal/voxel"
)

// column world: one material per (x,z), at y=0.
type flatWorld struct {
	cells map[[2]int]blocks.Material
	lo    voxel.Pos
	hi    voxel.Pos
}

func (f *flatWorld) set(x, z int, m blocks.Material) {
	if f.cells == nil {
		f.cells = map[[2]int]blocks.Material{}
		f.lo, f.hi = voxel.P(x, 0, z), voxel.P(x, 0, z)
	}
	f.cells[[2]int{x, z}] = m
	f.lo.X, f.lo.Z = min(f.lo.X, x), min(f.lo.Z, z)
	f.hi.X, f.hi.Z = max(f.hi.X, x), max(f.hi.Z, z)
}

func (f *flatWorld) Touched() (voxel.Pos, voxel.Pos, bool) {
	return f.lo, f.hi, f.cells != nil
}

func (f *flatWorld) TopBlock(x, z, fromY, toY int) (blocks.Material, int, bool) {
	m, ok := f.cells[[2]int{x, z}]
	if !ok || fromY < 0 || toY > 0 {
		return blocks.Air, 0, false
	}
	return m, 0, true
}

func TestTopDown_Empty(t *testing.T) {
	if _, err := TopDown(&flatWorld{}, Options{}); !errors.Is(err, ErrNothingTouched) {
		t.Fatalf("expected ErrNothingTouched, got %v", err)
	}
}

func TestTopDown_PixelsFollowBlocks(t *testing.T) {
	w := &flatWorld{}
	w.set(0, 0, blocks.Rail)
	w.set(1, 0, blocks.PoweredRail)
	w.set(0, -2, blocks.Water)

	img, err := TopDown(w, Options{Scale: 2, Margin: 1})
	if err != nil {
		t.Fatalf("TopDown: %v", err)
	}
	// Box x in [-1,2], z in [-3,1] -> 4x5 blocks.
	if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 10 {
		t.Fatalf("bounds: %v", b)
	}

	at := func(x, z int) [3]uint8 {
		px := (x + 1) * 2
		py := (z + 3) * 2
		r, g, b, _ := img.At(px, py).RGBA()
		return [3]uint8{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)}
	}
	want := func(m blocks.Material) [3]uint8 {
		c := Color(m)
		return [3]uint8{c.R, c.G, c.B}
	}
	if got := at(0, 0); got != want(blocks.Rail) {
		t.Fatalf("rail pixel: %v", got)
	}
	if got := at(1, 0); got != want(blocks.PoweredRail) {
		t.Fatalf("powered rail pixel: %v", got)
	}
	if got := at(0, -2); got != want(blocks.Water) {
		t.Fatalf("water pixel: %v", got)
	}
	if _, _, _, a := img.At(0, 0).RGBA(); a != 0 {
		t.Fatalf("margin should be transparent, alpha=%d", a)
	}
}

func TestColor_Fallback(t *testing.T) {
	if Color("SANDSTONE") != fallback {
		t.Fatalf("catalog-only material should use the fallback color")
	}
}

func TestWritePNG_Decodes(t *testing.T) {
	w := &flatWorld{}
	w.set(3, 4, blocks.Stone)

	var buf bytes.Buffer
	if err := WritePNG(&buf, w, Options{Scale: 3}); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 3 {
		t.Fatalf("bounds: %v", b)
	}

	path := filepath.Join(t.TempDir(), "map.png")
	if err := SavePNG(path, w, Options{Marks: []voxel.Pos{voxel.P(3, 0, 4)}}); err != nil {
		t.Fatalf("SavePNG: %v", err)
	}
}
