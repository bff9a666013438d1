package voxel

import (
	"fmt"
	"strings"
)

// Pos is a block coordinate. North is -Z, East is +X, Up is +Y.
type Pos struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

func P(x, y, z int) Pos { return Pos{X: x, Y: y, Z: z} }

func (p Pos) Add(o Pos) Pos {
	return Pos{X: p.X + o.X, Y: p.Y + o.Y, Z: p.Z + o.Z}
}

func (p Pos) Scale(n int) Pos {
	return Pos{X: p.X * n, Y: p.Y * n, Z: p.Z * n}
}

// Move returns p moved n blocks along the world axis d.
func (p Pos) Move(d Axis, n int) Pos {
	return p.Add(d.Unit().Scale(n))
}

func (p Pos) Up(n int) Pos { return p.Move(Up, n) }

func (p Pos) Array() [3]int { return [3]int{p.X, p.Y, p.Z} }

func (p Pos) String() string { return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z) }

// Box returns the min and max corners of the axis-aligned box spanned by a and b.
func Box(a, b Pos) (lo, hi Pos) {
	lo = Pos{X: min(a.X, b.X), Y: min(a.Y, b.Y), Z: min(a.Z, b.Z)}
	hi = Pos{X: max(a.X, b.X), Y: max(a.Y, b.Y), Z: max(a.Z, b.Z)}
	return lo, hi
}

// Axis is one of the six world-fixed directions.
type Axis int

const (
	North Axis = iota
	East
	South
	West
	Up
	Down
)

func (a Axis) Unit() Pos {
	switch a {
	case North:
		return Pos{Z: -1}
	case East:
		return Pos{X: 1}
	case South:
		return Pos{Z: 1}
	case West:
		return Pos{X: -1}
	case Up:
		return Pos{Y: 1}
	case Down:
		return Pos{Y: -1}
	}
	return Pos{}
}

// Turn is a 90 degree rotation relative to the current facing.
type Turn int

const (
	Left Turn = iota
	Right
)

func (t Turn) String() string {
	if t == Right {
		return "right"
	}
	return "left"
}

func (t Turn) Valid() bool { return t == Left || t == Right }

func ParseTurn(s string) (Turn, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	}
	return Left, fmt.Errorf("unknown turn %q", s)
}

// Rel is a direction relative to a facing.
type Rel int

const (
	Forward Rel = iota
	Back
	LeftSide
	RightSide
	Above
	Below
)
