package script

import (
	"context"
	"fmt"

	"coastercraft.ai/internal/sim/blocks"
	"coastercraft.ai/internal/track"
	"coastercraft.ai/internal/voxel"
)

// StepReport is what one step added to the track and where it left the cursor.
type StepReport struct {
	Index  int         `json:"index"`
	Op     string      `json:"op"`
	Delta  track.Stats `json:"delta"`
	End    voxel.Pos   `json:"end"`
	Facing string      `json:"facing"`
}

type Report struct {
	Name   string       `json:"name"`
	Steps  []StepReport `json:"steps"`
	Stats  track.Stats  `json:"stats"`
	End    voxel.Pos    `json:"end"`
	Facing string       `json:"facing"`
}

type Options struct {
	// OnStep is called after every successful step.
	OnStep func(StepReport)
}

// Run applies the script's config patch and then each step in order. It
// stops at the first failing step; the report covers the steps that ran.
func Run(ctx context.Context, b *track.Builder, s *Script, opts Options) (Report, error) {
	rep := Report{Name: s.Name}
	finish := func() {
		rep.Stats = b.Stats()
		rep.End = b.Cursor().Position()
		rep.Facing = b.Cursor().Facing().String()
	}
	if s.Config != nil {
		if err := applyConfig(b, s.Config); err != nil {
			finish()
			return rep, fmt.Errorf("config: %w", err)
		}
	}
	for i, st := range s.Steps {
		if err := ctx.Err(); err != nil {
			finish()
			return rep, err
		}
		before := b.Stats()
		if err := apply(b, st); err != nil {
			finish()
			return rep, fmt.Errorf("step %d (%s): %w", i, st.Op, err)
		}
		sr := StepReport{
			Index:  i,
			Op:     st.Op,
			Delta:  b.Stats().Sub(before),
			End:    b.Cursor().Position(),
			Facing: b.Cursor().Facing().String(),
		}
		rep.Steps = append(rep.Steps, sr)
		if opts.OnStep != nil {
			opts.OnStep(sr)
		}
	}
	finish()
	return rep, nil
}

func applyConfig(b *track.Builder, p *ConfigPatch) error {
	if p.RailBase != nil {
		if err := b.SetBaseBlock(blocks.Normalize(*p.RailBase)); err != nil {
			return err
		}
	}
	if p.PowerInterval != nil {
		if err := b.SetPowerInterval(*p.PowerInterval); err != nil {
			return err
		}
	}
	if p.Decoration != nil {
		d, err := track.ParseDecorationStyle(*p.Decoration)
		if err != nil {
			return err
		}
		if err := b.SetDecorationStyle(d); err != nil {
			return err
		}
	}
	if p.WaterProtection != nil {
		b.SetWaterProtection(*p.WaterProtection)
	}
	if p.LavaProtection != nil {
		b.SetLavaProtection(*p.LavaProtection)
	}
	if p.Debug != nil {
		b.SetDebugMode(*p.Debug)
	}
	return nil
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func apply(b *track.Builder, st Step) error {
	switch st.Op {
	case "start":
		pos := b.Cursor().Position()
		if len(st.At) == 3 {
			pos = voxel.P(st.At[0], st.At[1], st.At[2])
		}
		facing := b.Cursor().Facing()
		if st.Facing != "" {
			f, err := voxel.ParseCompass(st.Facing)
			if err != nil {
				return fmt.Errorf("%w: %v", track.ErrInvalidParameter, err)
			}
			facing = f
		}
		return b.PlaceTrackStart(pos, facing)
	case "end":
		return b.PlaceTrackEnd()
	case "rail":
		if err := b.AddRail(); err != nil {
			return err
		}
		b.Cursor().Move(voxel.Forward, 1)
		return nil
	case "powered_rail":
		if err := b.AddPoweredRail(); err != nil {
			return err
		}
		b.Cursor().Move(voxel.Forward, 1)
		return nil
	case "straight":
		power, err := track.ParsePowerLevel(st.Power)
		if err != nil {
			return err
		}
		return b.AddStraightLine(intOr(st.Length, 0), power)
	case "ramp":
		dir, err := track.ParseVertical(st.Direction)
		if err != nil {
			return err
		}
		return b.AddRamp(dir, intOr(st.Distance, 0), intOr(st.HorizSpace, 1))
	case "turn":
		t, err := parseTurn(st.Turn)
		if err != nil {
			return err
		}
		return b.AddTurn(t)
	case "banked_turn":
		t, err := parseTurn(st.Turn)
		if err != nil {
			return err
		}
		return b.AddBankedTurn(t, intOr(st.Height, track.DefaultBankHeight))
	case "u_turn":
		t, err := parseTurn(st.Turn)
		if err != nil {
			return err
		}
		power, err := track.ParsePowerLevel(st.Power)
		if err != nil {
			return err
		}
		return b.AddUTurn(t, intOr(st.Width, track.DefaultUTurnWidth), power)
	case "spiral":
		dir, err := track.ParseVertical(st.Direction)
		if err != nil {
			return err
		}
		t, err := parseTurn(st.Turn)
		if err != nil {
			return err
		}
		return b.AddSpiral(dir, t, intOr(st.Height, track.DefaultSpiralHeight), intOr(st.Width, track.DefaultSpiralWidth))
	case "free_fall":
		return b.AddFreeFall(intOr(st.Height, track.DefaultFreeFall))
	case "speed_boost":
		return b.AddSpeedBoost(intOr(st.Count, track.MinSpeedBoost))
	case "set_base":
		return b.SetBaseBlock(blocks.Normalize(st.Block))
	case "set_power_interval":
		return b.SetPowerInterval(intOr(st.Interval, track.DefaultPowerInterval))
	case "set_water_protection":
		b.SetWaterProtection(st.Enabled != nil && *st.Enabled)
		return nil
	case "set_lava_protection":
		b.SetLavaProtection(st.Enabled != nil && *st.Enabled)
		return nil
	case "set_decoration":
		d, err := track.ParseDecorationStyle(st.Style)
		if err != nil {
			return err
		}
		return b.SetDecorationStyle(d)
	case "set_debug":
		b.SetDebugMode(st.Enabled != nil && *st.Enabled)
		return nil
	case "reset_stats":
		b.ResetTrackStatistics()
		return nil
	}
	return fmt.Errorf("%w: unknown op %q", track.ErrInvalidParameter, st.Op)
}

func parseTurn(s string) (track.Turn, error) {
	t, err := voxel.ParseTurn(s)
	if err != nil {
		return t, fmt.Errorf("%w: %v", track.ErrInvalidParameter, err)
	}
	return t, nil
}
