package track

import "coastercraft.ai/internal/voxel"

const (
	MinSpeedBoost = 1
	MaxSpeedBoost = 10
)

// AddStraightLine lays length rails ahead of the cursor. With normal or full
// power every PowerInterval-th rail (starting with the first) is powered;
// full power uses unpowered powered rails in between so the whole run has
// the same rail shape. The cursor ends one block past the last rail.
func (b *Builder) AddStraightLine(length int, power PowerLevel) error {
	if err := checkMin("length", length, 0); err != nil {
		return err
	}
	if !power.valid() {
		return invalidf("unknown power level %d", int(power))
	}
	for i := 0; i < length; i++ {
		var err error
		switch {
		case power != PowerNo && i%b.cfg.PowerInterval == 0:
			err = b.AddPoweredRail()
		case power == PowerFull:
			err = b.addUnpoweredPoweredRail()
		default:
			err = b.AddRail()
		}
		if err != nil {
			return err
		}
		b.forward(1)
	}
	b.debugf("straight length=%d power=%s", length, power)
	return nil
}

// AddSpeedBoost lays count powered rails in a row. With a decoration style
// set, a light is placed two blocks to the left of where the boost ends.
func (b *Builder) AddSpeedBoost(count int) error {
	if err := checkRange("speed boost count", count, MinSpeedBoost, MaxSpeedBoost); err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		if err := b.AddPoweredRail(); err != nil {
			return err
		}
		b.forward(1)
	}
	if b.cfg.Decoration != DecorationNone {
		side := b.cursor.Facing().Offset(voxel.LeftSide).Scale(2)
		if err := b.placeDecoration(b.cursor.Position().Add(side)); err != nil {
			return err
		}
	}
	b.debugf("speed boost count=%d", count)
	return nil
}
