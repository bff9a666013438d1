package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"coastercraft.ai/internal/sim/blocks"
	"coastercraft.ai/internal/sim/world/terrain/store"
	"coastercraft.ai/internal/track"
	"coastercraft.ai/internal/voxel"
)

type Tuning struct {
	Track TrackTuning `yaml:"track"`
	World WorldTuning `yaml:"world"`
	Start StartTuning `yaml:"start"`
}

type TrackTuning struct {
	RailBase        string `yaml:"rail_base"`
	PowerInterval   int    `yaml:"power_interval"`
	Decoration      string `yaml:"decoration"`
	WaterProtection bool   `yaml:"water_protection"`
	LavaProtection  bool   `yaml:"lava_protection"`
	Debug           bool   `yaml:"debug"`
}

type WorldTuning struct {
	Seed          int64 `yaml:"seed"`
	BoundaryR     int   `yaml:"boundary_r"`
	MinY          int   `yaml:"min_y"`
	MaxY          int   `yaml:"max_y"`
	GroundY       int   `yaml:"ground_y"`
	PocketDepth   int   `yaml:"pocket_depth"`
	WaterPermille int   `yaml:"water_permille"`
	LavaPermille  int   `yaml:"lava_permille"`
}

// StartTuning is where a fresh cursor is put before a script runs.
type StartTuning struct {
	X      int    `yaml:"x"`
	Y      int    `yaml:"y"`
	Z      int    `yaml:"z"`
	Facing string `yaml:"facing"`
}

func Defaults() Tuning {
	c := track.DefaultConfig()
	return Tuning{
		Track: TrackTuning{
			RailBase:        string(c.RailBase),
			PowerInterval:   c.PowerInterval,
			Decoration:      c.Decoration.String(),
			WaterProtection: c.WaterProtection,
			LavaProtection:  c.LavaProtection,
		},
		World: WorldTuning{
			BoundaryR:     4096,
			MinY:          -64,
			MaxY:          319,
			GroundY:       63,
			PocketDepth:   3,
			WaterPermille: 40,
			LavaPermille:  15,
		},
		Start: StartTuning{Y: 70, Facing: "north"},
	}
}

// Load reads path over Defaults(); keys missing from the file keep their default.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if _, err := t.TrackConfig(); err != nil {
		return err
	}
	if t.World.MaxY < t.World.MinY {
		return fmt.Errorf("world: max_y %d below min_y %d", t.World.MaxY, t.World.MinY)
	}
	if t.World.BoundaryR < 0 {
		return fmt.Errorf("world: boundary_r %d", t.World.BoundaryR)
	}
	if t.World.PocketDepth < 0 {
		return fmt.Errorf("world: pocket_depth %d", t.World.PocketDepth)
	}
	if _, err := t.StartFacing(); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	return nil
}

func (t Tuning) TrackConfig() (track.Config, error) {
	deco, err := track.ParseDecorationStyle(t.Track.Decoration)
	if err != nil {
		return track.Config{}, err
	}
	c := track.Config{
		RailBase:        blocks.Normalize(t.Track.RailBase),
		PowerInterval:   t.Track.PowerInterval,
		Decoration:      deco,
		WaterProtection: t.Track.WaterProtection,
		LavaProtection:  t.Track.LavaProtection,
		Debug:           t.Track.Debug,
	}
	return c, c.Validate()
}

func (t Tuning) WorldGen() store.WorldGen {
	w := t.World
	return store.WorldGen{
		Seed:          w.Seed,
		BoundaryR:     w.BoundaryR,
		MinY:          w.MinY,
		MaxY:          w.MaxY,
		GroundY:       w.GroundY,
		PocketDepth:   w.PocketDepth,
		WaterPermille: w.WaterPermille,
		LavaPermille:  w.LavaPermille,
	}
}

func (t Tuning) StartPos() voxel.Pos {
	return voxel.P(t.Start.X, t.Start.Y, t.Start.Z)
}

func (t Tuning) StartFacing() (voxel.Compass, error) {
	return voxel.ParseCompass(t.Start.Facing)
}
