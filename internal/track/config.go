package track

import (
	"fmt"
	"strings"

	"coastercraft.ai/internal/sim/blocks"
	"coastercraft.ai/internal/voxel"
)

const (
	DefaultPowerInterval = 5
	MinPowerInterval     = 1
	// Longer gaps let a loaded minecart stall between powered rails.
	MaxPowerInterval = 8
)

type PowerLevel int

const (
	PowerFull PowerLevel = iota
	PowerNormal
	PowerNo
)

func (p PowerLevel) String() string {
	switch p {
	case PowerFull:
		return "full"
	case PowerNormal:
		return "normal"
	case PowerNo:
		return "no"
	}
	return fmt.Sprintf("PowerLevel(%d)", int(p))
}

func (p PowerLevel) valid() bool { return p >= PowerFull && p <= PowerNo }

func ParsePowerLevel(s string) (PowerLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal":
		return PowerNormal, nil
	case "full":
		return PowerFull, nil
	case "no", "none":
		return PowerNo, nil
	}
	return PowerNormal, invalidf("unknown power level %q", s)
}

// Turn is a quarter turn relative to the current facing.
type Turn = voxel.Turn

const (
	Left  = voxel.Left
	Right = voxel.Right
)

type Vertical int

const (
	Up Vertical = iota
	Down
)

func (v Vertical) String() string {
	if v == Down {
		return "down"
	}
	return "up"
}

func (v Vertical) valid() bool { return v == Up || v == Down }

func ParseVertical(s string) (Vertical, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	}
	return Up, invalidf("unknown vertical direction %q", s)
}

type DecorationStyle int

const (
	DecorationNone DecorationStyle = iota
	DecorationTorches
	DecorationLanterns
	DecorationGlowstone
)

func (d DecorationStyle) String() string {
	switch d {
	case DecorationNone:
		return "none"
	case DecorationTorches:
		return "torches"
	case DecorationLanterns:
		return "lanterns"
	case DecorationGlowstone:
		return "glowstone"
	}
	return fmt.Sprintf("DecorationStyle(%d)", int(d))
}

func (d DecorationStyle) valid() bool { return d >= DecorationNone && d <= DecorationGlowstone }

// Block is the material placed for the style. DecorationNone has none.
func (d DecorationStyle) Block() (blocks.Material, bool) {
	switch d {
	case DecorationTorches:
		return blocks.Torch, true
	case DecorationLanterns:
		return blocks.Lantern, true
	case DecorationGlowstone:
		return blocks.Glowstone, true
	}
	return "", false
}

func ParseDecorationStyle(s string) (DecorationStyle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return DecorationNone, nil
	case "torches", "torch":
		return DecorationTorches, nil
	case "lanterns", "lantern":
		return DecorationLanterns, nil
	case "glowstone":
		return DecorationGlowstone, nil
	}
	return DecorationNone, invalidf("unknown decoration style %q", s)
}

// Config parameterizes every generator of a Builder.
type Config struct {
	// RailBase is placed under plain rails and used for ramp and wall filler.
	RailBase blocks.Material
	// PowerInterval is the rail spacing between powered rails on normal-power runs.
	PowerInterval int
	Decoration    DecorationStyle

	// Fluid protection swaps water/lava next to new track for glass.
	// Either can be disabled to save world queries.
	WaterProtection bool
	LavaProtection  bool

	// Debug logs one line per generator call.
	Debug bool
}

func DefaultConfig() Config {
	return Config{
		RailBase:        blocks.PlanksOak,
		PowerInterval:   DefaultPowerInterval,
		Decoration:      DecorationNone,
		WaterProtection: true,
		LavaProtection:  true,
	}
}

// checkBase rejects materials that cannot carry a rail: air, fluids, rails,
// decorations and the non-solid redstone parts. Catalog-only materials pass.
func checkBase(m blocks.Material) error {
	if m == "" {
		return invalidf("rail base must be a solid block, got %q", m)
	}
	switch m.Family() {
	case blocks.FamilyAir, blocks.FamilyFluid, blocks.FamilyRail, blocks.FamilyDecoration:
		return invalidf("rail base must be a solid block, got %q", m)
	}
	if m == blocks.RedstoneWire || m == blocks.WarpedButton {
		return invalidf("rail base must be a solid block, got %q", m)
	}
	return nil
}

func (c Config) Validate() error {
	if err := checkBase(c.RailBase); err != nil {
		return err
	}
	if err := checkRange("power interval", c.PowerInterval, MinPowerInterval, MaxPowerInterval); err != nil {
		return err
	}
	if !c.Decoration.valid() {
		return invalidf("unknown decoration style %d", int(c.Decoration))
	}
	return nil
}

// Stats counts placed track. A plain rail adds 1 to TotalLength, a powered
// rail adds 2 and bumps TotalPoweredRails.
type Stats struct {
	TotalLength       int `json:"total_length"`
	TotalPoweredRails int `json:"total_powered_rails"`
}

func (s Stats) Sub(o Stats) Stats {
	return Stats{
		TotalLength:       s.TotalLength - o.TotalLength,
		TotalPoweredRails: s.TotalPoweredRails - o.TotalPoweredRails,
	}
}
