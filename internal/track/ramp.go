package track

import "coastercraft.ai/internal/voxel"

// Uphill runs get a powered rail every rampBoostEvery rails, independent of
// the configured power interval.
const rampBoostEvery = 8

// AddRamp climbs or descends distance blocks, changing one block vertically
// every horizSpace blocks forward. The cursor ends one block past the last
// rail at the final height.
func (b *Builder) AddRamp(dir Vertical, distance, horizSpace int) error {
	if !dir.valid() {
		return invalidf("unknown vertical direction %d", int(dir))
	}
	if err := checkMin("ramp distance", distance, 0); err != nil {
		return err
	}
	if err := checkMin("horizontal space", horizSpace, 1); err != nil {
		return err
	}
	var err error
	if dir == Up {
		err = b.rampUp(distance, horizSpace)
	} else {
		err = b.rampDown(distance, horizSpace)
	}
	if err != nil {
		return err
	}
	b.debugf("ramp %s distance=%d horiz=%d", dir, distance, horizSpace)
	return nil
}

// rampUp places height+1 levels of horizSpace rails each.
func (b *Builder) rampUp(height, horizSpace int) error {
	sinceBoost := rampBoostEvery // first rail is powered
	for level := 0; level <= height; level++ {
		for h := 0; h < horizSpace; h++ {
			var err error
			if sinceBoost >= rampBoostEvery {
				err = b.AddPoweredRail()
				sinceBoost = 0
			} else {
				err = b.addUnpoweredPoweredRail()
				sinceBoost++
			}
			if err != nil {
				return err
			}
			b.forward(1)
		}
		b.cursor.Move(voxel.Above, 1)
	}
	// The last climb has no rail on it.
	b.cursor.Move(voxel.Below, 1)
	return nil
}

// rampDown mirrors rampUp. Only the first level may start with a powered
// rail (when it is at least one power interval long); lower levels get
// momentum from the slope and use the regular cadence offset by one.
func (b *Builder) rampDown(distance, horizSpace int) error {
	interval := b.cfg.PowerInterval
	for level := 0; level <= distance; level++ {
		offset := 1
		if level == 0 && horizSpace >= interval {
			offset = 0
		}
		for h := 0; h < horizSpace; h++ {
			var err error
			if (h+offset)%interval == 0 {
				err = b.AddPoweredRail()
			} else {
				err = b.AddRail()
			}
			if err != nil {
				return err
			}
			b.forward(1)
		}
		b.cursor.Move(voxel.Below, 1)
	}
	// The last descent has no rail on it.
	b.cursor.Move(voxel.Above, 1)
	return nil
}
