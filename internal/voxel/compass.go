package voxel

import (
	"fmt"
	"strings"
)

// Compass is an 8-point heading, clockwise from North.
type Compass int

const (
	CompassNorth Compass = iota
	CompassNorthEast
	CompassEast
	CompassSouthEast
	CompassSouth
	CompassSouthWest
	CompassWest
	CompassNorthWest
)

var compassNames = [...]string{"north", "northeast", "east", "southeast", "south", "southwest", "west", "northwest"}

// (dx, dz) per heading, indexed by Compass.
var compassVec = [...][2]int{
	{0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1},
}

func (c Compass) norm() Compass {
	m := int(c) % 8
	if m < 0 {
		m += 8
	}
	return Compass(m)
}

// Valid reports whether c is one of the eight named headings.
func (c Compass) Valid() bool { return c >= CompassNorth && c <= CompassNorthWest }

func (c Compass) String() string { return compassNames[c.norm()] }

func (c Compass) Diagonal() bool { return c.norm()%2 == 1 }

// Rotate turns c by a quarter turn.
func (c Compass) Rotate(t Turn) Compass {
	if t == Right {
		return (c + 2).norm()
	}
	return (c - 2).norm()
}

func (c Compass) vec() Pos {
	v := compassVec[c.norm()]
	return Pos{X: v[0], Z: v[1]}
}

// Offset is the unit step for r when facing c.
func (c Compass) Offset(r Rel) Pos {
	switch r {
	case Forward:
		return c.vec()
	case Back:
		return c.vec().Scale(-1)
	case LeftSide:
		return c.Rotate(Left).vec()
	case RightSide:
		return c.Rotate(Right).vec()
	case Above:
		return Up.Unit()
	case Below:
		return Down.Unit()
	}
	return Pos{}
}

func ParseCompass(s string) (Compass, error) {
	s = strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(s))
	for i, n := range compassNames {
		if n == s {
			return Compass(i), nil
		}
	}
	return CompassNorth, fmt.Errorf("unknown compass direction %q", s)
}
