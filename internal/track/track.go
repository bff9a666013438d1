// Package track lays out minecart roller-coaster track in a block world.
//
// A Builder owns the track configuration and statistics and drives two
// collaborators owned by the caller: a World that mutates blocks and a
// Cursor that carries the current write position and facing. Every
// generator leaves the cursor where the next piece of track attaches.
package track

import (
	"fmt"
	"io"
	"log"

	"coastercraft.ai/internal/sim/blocks"
	"coastercraft.ai/internal/voxel"
)

// World is the block-level view of the game world.
type World interface {
	Place(m blocks.Material, p voxel.Pos) error
	Test(m blocks.Material, p voxel.Pos) bool
	// Replace swaps every `from` cell in the box spanned by c1 and c2 for `to`.
	Replace(to, from blocks.Material, c1, c2 voxel.Pos) error
	Fill(m blocks.Material, c1, c2 voxel.Pos, mode blocks.FillMode) error
	// Known reports whether the world can hold m.
	Known(m blocks.Material) bool
}

// Cursor is the movable write head. Moves never fail; placements go
// through the cursor's own world.
type Cursor interface {
	Position() voxel.Pos
	Facing() voxel.Compass
	Move(d voxel.Rel, n int)
	Turn(t voxel.Turn)
	Face(c voxel.Compass)
	TeleportTo(p voxel.Pos)
	// Mark remembers the current position as the first corner for Fill and RaiseWall.
	Mark()
	// Shift moves relative to the facing: forward, up and to the left.
	Shift(forward, up, left int)
	Place(m blocks.Material) error
	PlaceWithData(m blocks.Material, data int) error
	Fill(m blocks.Material, mode blocks.FillMode) error
	RaiseWall(m blocks.Material, height int) error
}

// Players hands out items. Grants are fire-and-forget.
type Players interface {
	Give(target string, item blocks.Item, count int) error
}

const LocalPlayer = "LOCAL_PLAYER"

type Builder struct {
	world   World
	cursor  Cursor
	players Players
	target  string
	log     *log.Logger

	cfg   Config
	stats Stats
}

type Option func(*Builder)

func WithConfig(c Config) Option {
	return func(b *Builder) { b.cfg = c }
}

func WithLogger(l *log.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.log = l
		}
	}
}

// WithPlayers enables the minecart grant of PlaceTrackStart.
func WithPlayers(p Players, target string) Option {
	return func(b *Builder) {
		b.players = p
		b.target = target
	}
}

func New(w World, c Cursor, opts ...Option) (*Builder, error) {
	if w == nil || c == nil {
		return nil, fmt.Errorf("track: nil world or cursor")
	}
	b := &Builder{
		world:  w,
		cursor: c,
		target: LocalPlayer,
		log:    log.New(io.Discard, "", 0),
		cfg:    DefaultConfig(),
	}
	for _, o := range opts {
		o(b)
	}
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}
	if err := b.checkKnown(b.cfg.RailBase); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Builder) Cursor() Cursor { return b.cursor }

func (b *Builder) Config() Config { return b.cfg }

func (b *Builder) SetBaseBlock(m blocks.Material) error {
	if err := checkBase(m); err != nil {
		return err
	}
	if err := b.checkKnown(m); err != nil {
		return err
	}
	b.cfg.RailBase = m
	return nil
}

func (b *Builder) checkKnown(m blocks.Material) error {
	if !b.world.Known(m) {
		return invalidf("rail base %q is not a known block", m)
	}
	return nil
}

func (b *Builder) SetPowerInterval(n int) error {
	if err := checkRange("power interval", n, MinPowerInterval, MaxPowerInterval); err != nil {
		return err
	}
	b.cfg.PowerInterval = n
	return nil
}

func (b *Builder) SetWaterProtection(on bool) { b.cfg.WaterProtection = on }

func (b *Builder) SetLavaProtection(on bool) { b.cfg.LavaProtection = on }

func (b *Builder) SetDecorationStyle(d DecorationStyle) error {
	if !d.valid() {
		return invalidf("unknown decoration style %d", int(d))
	}
	b.cfg.Decoration = d
	return nil
}

func (b *Builder) SetDebugMode(on bool) { b.cfg.Debug = on }

func (b *Builder) Stats() Stats { return b.stats }

func (b *Builder) TotalTrackLength() int { return b.stats.TotalLength }

func (b *Builder) TotalPoweredRails() int { return b.stats.TotalPoweredRails }

func (b *Builder) ResetTrackStatistics() { b.stats = Stats{} }

func (b *Builder) debugf(format string, args ...any) {
	if !b.cfg.Debug {
		return
	}
	b.log.Printf(format+" -> at %s facing %s", append(args, b.cursor.Position(), b.cursor.Facing())...)
}
