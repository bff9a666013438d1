package track

import (
	"coastercraft.ai/internal/sim/blocks"
	"coastercraft.ai/internal/voxel"
)

const (
	MinFreeFall     = 4
	MaxFreeFall     = 384
	DefaultFreeFall = 10
)

// AddFreeFall drops the track height blocks. It clears a shaft from two
// blocks above the cursor down past the landing, puts a rail at the edge
// with a stop wall two blocks ahead, and lands on a three rail ramp
// (unpowered, powered, unpowered) that gets the cart moving again. The
// cursor ends on the last landing rail.
func (b *Builder) AddFreeFall(height int) error {
	if err := checkRange("free fall height", height, MinFreeFall, MaxFreeFall); err != nil {
		return err
	}
	start := b.cursor.Position()
	c := b.cursor

	c.Move(voxel.Above, 2)
	c.Mark()
	protect := b.cfg.WaterProtection || b.cfg.LavaProtection
	var lo, hi voxel.Pos
	if protect {
		c.Shift(-1, 1, 1)
		lo = c.Position()
		c.Shift(1, -1, -1)
	}
	c.Shift(2, -height-2, 0)
	if protect {
		c.Shift(1, -1, -1)
		hi = c.Position()
		c.Shift(-1, 1, 1)
		if err := b.protectFluids(lo, hi); err != nil {
			return err
		}
	}
	if err := mutation("clear free fall shaft", c.Fill(blocks.Air, blocks.FillReplace)); err != nil {
		return err
	}
	c.TeleportTo(start)

	if err := b.AddRail(); err != nil {
		return err
	}
	c.Move(voxel.Forward, 2)
	c.Mark()
	c.Move(voxel.Above, 2)
	if err := mutation("free fall stop wall", c.Fill(b.cfg.RailBase, blocks.FillKeep)); err != nil {
		return err
	}

	c.Move(voxel.Back, 2)
	c.Move(voxel.Below, height)
	if err := b.addUnpoweredPoweredRail(); err != nil {
		return err
	}
	c.Move(voxel.Forward, 1)
	c.Move(voxel.Below, 1)
	if err := b.AddPoweredRail(); err != nil {
		return err
	}
	c.Move(voxel.Forward, 1)
	c.Move(voxel.Below, 1)
	if err := b.addUnpoweredPoweredRail(); err != nil {
		return err
	}
	b.debugf("free fall height=%d", height)
	return nil
}
