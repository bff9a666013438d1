// Package builder holds the cursor that walks the world while track is laid.
package builder

import (
	"errors"
	"fmt"

	"coastercraft.ai/internal/sim/blocks"
	"coastercraft.ai/internal/voxel"
)

var ErrNoMark = errors.New("cursor: no mark set")

// Blocks is the subset of the chunk store the cursor writes through.
type Blocks interface {
	PlaceWithData(m blocks.Material, data int, p voxel.Pos) error
	Fill(m blocks.Material, c1, c2 voxel.Pos, mode blocks.FillMode) error
}

type Cursor struct {
	w      Blocks
	pos    voxel.Pos
	facing voxel.Compass

	mark    voxel.Pos
	hasMark bool
}

func New(w Blocks, pos voxel.Pos, facing voxel.Compass) *Cursor {
	return &Cursor{w: w, pos: pos, facing: facing}
}

func (c *Cursor) Position() voxel.Pos    { return c.pos }
func (c *Cursor) Facing() voxel.Compass  { return c.facing }
func (c *Cursor) Face(f voxel.Compass)   { c.facing = f }
func (c *Cursor) TeleportTo(p voxel.Pos) { c.pos = p }
func (c *Cursor) Turn(t voxel.Turn)      { c.facing = c.facing.Rotate(t) }

func (c *Cursor) Move(d voxel.Rel, n int) {
	c.pos = c.pos.Add(c.facing.Offset(d).Scale(n))
}

// Shift moves forward, up and left relative to the facing. Negative
// values go the other way.
func (c *Cursor) Shift(forward, up, left int) {
	c.pos = c.pos.
		Add(c.facing.Offset(voxel.Forward).Scale(forward)).
		Add(c.facing.Offset(voxel.Above).Scale(up)).
		Add(c.facing.Offset(voxel.LeftSide).Scale(left))
}

func (c *Cursor) Mark() {
	c.mark = c.pos
	c.hasMark = true
}

func (c *Cursor) Place(m blocks.Material) error {
	return c.w.PlaceWithData(m, 0, c.pos)
}

func (c *Cursor) PlaceWithData(m blocks.Material, data int) error {
	return c.w.PlaceWithData(m, data, c.pos)
}

// Fill writes m across the box between the mark and the cursor.
func (c *Cursor) Fill(m blocks.Material, mode blocks.FillMode) error {
	if !c.hasMark {
		return ErrNoMark
	}
	return c.w.Fill(m, c.mark, c.pos, mode)
}

// RaiseWall fills from the mark to a point height-1 blocks above the cursor.
func (c *Cursor) RaiseWall(m blocks.Material, height int) error {
	if !c.hasMark {
		return ErrNoMark
	}
	if height < 1 {
		return fmt.Errorf("cursor: wall height %d", height)
	}
	return c.w.Fill(m, c.mark, c.pos.Up(height-1), blocks.FillReplace)
}
