// Package render draws a top-down map of the area a build touched.
package render

import (
	"errors"
	"image"
	"image/color"
	"io"

	"github.com/fogleman/gg"

	"coastercraft.ai/internal/sim/blocks"
	"coastercraft.ai/internal/voxel"
)

// Columns is the read side of the world the map is drawn from.
type Columns interface {
	Touched() (lo, hi voxel.Pos, ok bool)
	TopBlock(x, z, fromY, toY int) (blocks.Material, int, bool)
}

var ErrNothingTouched = errors.New("render: nothing touched")

type Options struct {
	// Scale is the edge of one block in pixels.
	Scale int
	// Margin is the number of blocks drawn around the touched box.
	Margin int
	// Depth is how far below the touched box a column is scanned.
	Depth int
	// Marks are drawn as rings, e.g. the cursor's final position.
	Marks []voxel.Pos
}

func (o Options) withDefaults() Options {
	if o.Scale <= 0 {
		o.Scale = 4
	}
	if o.Margin < 0 {
		o.Margin = 0
	}
	if o.Depth <= 0 {
		o.Depth = 8
	}
	return o
}

var palette = map[blocks.Material]color.RGBA{
	blocks.PlanksOak:     {162, 130, 78, 255},
	blocks.Glass:         {200, 230, 240, 255},
	blocks.PinkConcrete:  {214, 101, 143, 255},
	blocks.BlockOfQuartz: {235, 229, 222, 255},
	blocks.QuartzSlab:    {225, 219, 212, 255},
	blocks.Grass:         {95, 159, 53, 255},
	blocks.Dirt:          {134, 96, 67, 255},
	blocks.Stone:         {125, 125, 125, 255},
	blocks.Rail:          {60, 60, 60, 255},
	blocks.PoweredRail:   {220, 170, 40, 255},
	blocks.RedstoneBlock: {175, 24, 5, 255},
	blocks.RedstoneWire:  {200, 0, 0, 255},
	blocks.WarpedButton:  {43, 104, 99, 255},
	blocks.Water:         {63, 118, 228, 255},
	blocks.FlowingWater:  {80, 135, 235, 255},
	blocks.Lava:          {207, 92, 20, 255},
	blocks.FlowingLava:   {220, 110, 30, 255},
	blocks.Torch:         {255, 214, 90, 255},
	blocks.Lantern:       {255, 190, 70, 255},
	blocks.Glowstone:     {250, 220, 120, 255},
}

var (
	background = color.RGBA{0, 0, 0, 0}
	fallback   = color.RGBA{170, 80, 170, 255}
	markColor  = color.RGBA{255, 255, 255, 255}
)

// Color is the map color for a material. Catalog-only materials share a
// fallback color.
func Color(m blocks.Material) color.RGBA {
	if c, ok := palette[m]; ok {
		return c
	}
	return fallback
}

// TopDown renders the touched box. North is up and X grows to the right.
func TopDown(w Columns, opts Options) (image.Image, error) {
	lo, hi, ok := w.Touched()
	if !ok {
		return nil, ErrNothingTouched
	}
	o := opts.withDefaults()
	lo.X, lo.Z = lo.X-o.Margin, lo.Z-o.Margin
	hi.X, hi.Z = hi.X+o.Margin, hi.Z+o.Margin

	cols := hi.X - lo.X + 1
	rows := hi.Z - lo.Z + 1
	s := float64(o.Scale)
	dc := gg.NewContextForRGBA(image.NewRGBA(image.Rect(0, 0, cols*o.Scale, rows*o.Scale)))
	dc.SetColor(background)
	dc.Clear()

	for z := lo.Z; z <= hi.Z; z++ {
		for x := lo.X; x <= hi.X; x++ {
			m, _, found := w.TopBlock(x, z, hi.Y+1, lo.Y-o.Depth)
			if !found {
				continue
			}
			dc.SetColor(Color(m))
			dc.DrawRectangle(float64(x-lo.X)*s, float64(z-lo.Z)*s, s, s)
			dc.Fill()
		}
	}

	dc.SetColor(markColor)
	dc.SetLineWidth(1)
	for _, p := range o.Marks {
		if p.X < lo.X || p.X > hi.X || p.Z < lo.Z || p.Z > hi.Z {
			continue
		}
		cx := (float64(p.X-lo.X) + 0.5) * s
		cz := (float64(p.Z-lo.Z) + 0.5) * s
		dc.DrawCircle(cx, cz, s/2)
		dc.Stroke()
	}
	return dc.Image(), nil
}

// WritePNG renders the map and encodes it to out.
func WritePNG(out io.Writer, w Columns, opts Options) error {
	img, err := TopDown(w, opts)
	if err != nil {
		return err
	}
	return EncodePNG(out, img)
}

func EncodePNG(out io.Writer, img image.Image) error {
	return gg.NewContextForImage(img).EncodePNG(out)
}

// SavePNG renders the map to a file.
func SavePNG(path string, w Columns, opts Options) error {
	img, err := TopDown(w, opts)
	if err != nil {
		return err
	}
	return gg.SavePNG(path, img)
}
