package track

import (
	"fmt"

	"coastercraft.ai/internal/voxel"
)

const (
	MinSpiralWidth      = 3
	DefaultSpiralWidth  = 3
	MinSpiralHeight     = 1
	DefaultSpiralHeight = 10
)

// spiralSteps splits height into the per-leg height changes of a spiral.
// The first climbing leg rises width-1, later legs width-2 since they
// start one block into the corner. The last leg is clamped to the
// remaining height.
func spiralSteps(dir Vertical, height, width int) ([]int, error) {
	var steps []int
	total := 0
	for total < height {
		delta := width - 2
		if dir == Up && total == 0 {
			delta = width - 1
		}
		if total+delta > height {
			delta = height - total
		}
		if delta <= 0 {
			return nil, fmt.Errorf("%w: spiral leg %d has no height change (height=%d width=%d)",
				ErrDegenerateGeometry, len(steps), height, width)
		}
		steps = append(steps, delta)
		total += delta
	}
	return steps, nil
}

// AddSpiral ramps height blocks in dir, turning after every leg but the
// last so the track leaves the spiral straight. Climbing legs end on a
// plain rail, since a powered rail cannot take the corner.
func (b *Builder) AddSpiral(dir Vertical, t Turn, height, width int) error {
	if !dir.valid() {
		return invalidf("unknown vertical direction %d", int(dir))
	}
	if !t.Valid() {
		return invalidf("unknown turn %d", int(t))
	}
	if err := checkMin("spiral height", height, MinSpiralHeight); err != nil {
		return err
	}
	if err := checkMin("spiral width", width, MinSpiralWidth); err != nil {
		return err
	}
	steps, err := spiralSteps(dir, height, width)
	if err != nil {
		return err
	}

	for i, delta := range steps {
		if dir == Up {
			err = b.rampUp(delta, 1)
		} else {
			err = b.rampDown(delta, 1)
		}
		if err != nil {
			return err
		}
		if dir == Up {
			b.cursor.Move(voxel.Back, 1)
			if err := b.AddRail(); err != nil {
				return err
			}
		}
		if i < len(steps)-1 {
			b.cursor.Turn(t)
		}
		if dir == Up {
			b.forward(1)
		}
	}
	b.debugf("spiral %s %s height=%d width=%d legs=%d", dir, t, height, width, len(steps))
	return nil
}
