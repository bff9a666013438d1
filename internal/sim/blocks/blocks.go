// Package blocks names the materials the track builder places or inspects.
package blocks

import (
	"sort"
	"strings"
)

// Material is a block id as it appears in the block catalog.
type Material string

const (
	Air Material = "AIR"

	// Structure.
	PlanksOak     Material = "PLANKS_OAK"
	Glass         Material = "GLASS"
	PinkConcrete  Material = "PINK_CONCRETE"
	BlockOfQuartz Material = "BLOCK_OF_QUARTZ"
	QuartzSlab    Material = "QUARTZ_SLAB"

	// Terrain.
	Grass Material = "GRASS"
	Dirt  Material = "DIRT"
	Stone Material = "STONE"

	// Rails.
	Rail        Material = "RAIL"
	PoweredRail Material = "POWERED_RAIL"

	// Redstone.
	RedstoneBlock Material = "REDSTONE_BLOCK"
	RedstoneWire  Material = "REDSTONE_WIRE"
	WarpedButton  Material = "WARPED_BUTTON"

	// Fluids. The still and flowing variants are separate block ids.
	Water        Material = "WATER"
	FlowingWater Material = "FLOWING_WATER"
	Lava         Material = "LAVA"
	FlowingLava  Material = "FLOWING_LAVA"

	// Decorations.
	Torch     Material = "TORCH"
	Lantern   Material = "LANTERN"
	Glowstone Material = "GLOWSTONE"
)

type Family int

const (
	FamilyUnknown Family = iota
	FamilyAir
	FamilyStructure
	FamilyTerrain
	FamilyRail
	FamilyRedstone
	FamilyFluid
	FamilyDecoration
)

func (f Family) String() string {
	switch f {
	case FamilyAir:
		return "air"
	case FamilyStructure:
		return "structure"
	case FamilyTerrain:
		return "terrain"
	case FamilyRail:
		return "rail"
	case FamilyRedstone:
		return "redstone"
	case FamilyFluid:
		return "fluid"
	case FamilyDecoration:
		return "decoration"
	}
	return "unknown"
}

var families = map[Material]Family{
	Air:           FamilyAir,
	PlanksOak:     FamilyStructure,
	Glass:         FamilyStructure,
	PinkConcrete:  FamilyStructure,
	BlockOfQuartz: FamilyStructure,
	QuartzSlab:    FamilyStructure,
	Grass:         FamilyTerrain,
	Dirt:          FamilyTerrain,
	Stone:         FamilyTerrain,
	Rail:          FamilyRail,
	PoweredRail:   FamilyRail,
	RedstoneBlock: FamilyRedstone,
	RedstoneWire:  FamilyRedstone,
	WarpedButton:  FamilyRedstone,
	Water:         FamilyFluid,
	FlowingWater:  FamilyFluid,
	Lava:          FamilyFluid,
	FlowingLava:   FamilyFluid,
	Torch:         FamilyDecoration,
	Lantern:       FamilyDecoration,
	Glowstone:     FamilyDecoration,
}

// Family reports the family of a known material; catalog-only materials
// (custom base blocks) are FamilyUnknown.
func (m Material) Family() Family { return families[m] }

func (m Material) Known() bool {
	_, ok := families[m]
	return ok
}

// Normalize upper-cases a user supplied block id.
func Normalize(s string) Material {
	return Material(strings.ToUpper(strings.TrimSpace(s)))
}

// All returns every known material, AIR first.
func All() []Material {
	out := []Material{Air}
	for m := range families {
		if m != Air {
			out = append(out, m)
		}
	}
	rest := out[1:]
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	return out
}

type Fluid int

const (
	FluidWater Fluid = iota
	FluidLava
)

// Variants lists every block id a fluid can appear as: the flowing (levelled)
// variant first, then the still block.
func (f Fluid) Variants() []Material {
	if f == FluidLava {
		return []Material{FlowingLava, Lava}
	}
	return []Material{FlowingWater, Water}
}

// FillMode controls how a box fill treats occupied cells.
type FillMode int

const (
	FillReplace FillMode = iota
	// FillKeep only writes cells that are currently air.
	FillKeep
)

// Item is an inventory item id.
type Item string

const Minecart Item = "MINECART"
