package track

import (
	"coastercraft.ai/internal/sim/blocks"
	"coastercraft.ai/internal/voxel"
)

// Start station materials.
const (
	stationButtonWall = blocks.PinkConcrete
	stationWall       = blocks.BlockOfQuartz
	stationRamp       = blocks.QuartzSlab
	stationButton     = blocks.WarpedButton
	stationWallHeight = 4
)

// buttonFacing is the aux data value that orients a button for a station
// facing c. Diagonal headings have no button orientation.
func buttonFacing(c voxel.Compass) int {
	switch c {
	case voxel.CompassNorth:
		return 5
	case voxel.CompassEast:
		return 3
	case voxel.CompassSouth:
		return 4
	case voxel.CompassWest:
		return 2
	}
	return 0
}

// PlaceTrackStart builds a boarding station at pos heading dir: three
// entry rails, a slab walkway, a button wall with redstone, and gives the
// player a minecart. The cursor ends one block past the third entry rail.
func (b *Builder) PlaceTrackStart(pos voxel.Pos, dir voxel.Compass) error {
	if !dir.Valid() {
		return invalidf("unknown station heading %d", int(dir))
	}
	c := b.cursor
	c.TeleportTo(pos)
	c.Face(dir)

	if err := b.addUnpoweredPoweredRail(); err != nil {
		return err
	}
	c.Move(voxel.Forward, 1)
	if err := b.addUnpoweredPoweredRail(); err != nil {
		return err
	}
	c.Move(voxel.Forward, 1)
	if err := b.AddRail(); err != nil {
		return err
	}

	// Walkway on the right of the entry rails, back to front.
	c.Move(voxel.RightSide, 1)
	if err := b.floorStrip(stationRamp, 3); err != nil {
		return err
	}

	// Plain wall behind the walkway.
	c.Move(voxel.Back, 1)
	c.Mark()
	c.Move(voxel.LeftSide, 1)
	if err := mutation("station wall", c.RaiseWall(stationWall, stationWallHeight)); err != nil {
		return err
	}

	// Button wall: behind the rails and along their left side.
	c.Move(voxel.LeftSide, 1)
	c.Mark()
	c.Move(voxel.LeftSide, 1)
	if err := mutation("station wall", c.RaiseWall(stationButtonWall, stationWallHeight)); err != nil {
		return err
	}
	c.Mark()
	c.Move(voxel.Forward, 3)
	if err := mutation("station wall", c.RaiseWall(stationButtonWall, stationWallHeight)); err != nil {
		return err
	}
	c.Move(voxel.RightSide, 1)
	if err := b.floorStrip(stationButtonWall, 3); err != nil {
		return err
	}

	c.Move(voxel.Above, 1)
	if err := b.cursorPlace(blocks.RedstoneWire); err != nil {
		return err
	}
	c.Move(voxel.Above, 1)
	if err := mutation("station button", c.PlaceWithData(stationButton, buttonFacing(dir))); err != nil {
		return err
	}

	if b.players != nil {
		if err := b.players.Give(b.target, blocks.Minecart, 1); err != nil {
			b.log.Printf("give minecart to %s: %v", b.target, err)
		}
	}

	c.Shift(3, -2, -1)
	b.debugf("track start at %s heading %s", pos, dir)
	return nil
}

// floorStrip places m at the cursor and the n-1 cells behind it, clearing
// head room over each. The cursor ends on the last cell.
func (b *Builder) floorStrip(m blocks.Material, n int) error {
	for i := 0; i < n; i++ {
		if i > 0 {
			b.cursor.Move(voxel.Back, 1)
		}
		if err := b.cursorPlace(m); err != nil {
			return err
		}
		if err := b.clearAirAbove(b.cursor.Position(), 1, headroom); err != nil {
			return err
		}
	}
	return nil
}

// PlaceTrackEnd closes the track with a rail and a two block buffer stop.
// The cursor ends two blocks past the closing rail.
func (b *Builder) PlaceTrackEnd() error {
	c := b.cursor
	if err := b.AddRail(); err != nil {
		return err
	}
	c.Move(voxel.Forward, 1)
	if err := b.cursorPlace(b.cfg.RailBase); err != nil {
		return err
	}
	c.Move(voxel.Above, 1)
	if err := b.cursorPlace(b.cfg.RailBase); err != nil {
		return err
	}
	c.Shift(1, -1, 0)
	b.debugf("track end")
	return nil
}
