package pattern

import (
	"math/rand/v2"
	"time"

	"github.com/lixenwraith/fluxel/render"
)

func init() {
	register("fire", func(rng *rand.Rand) Pattern {
		return &firePattern{rng: rng}
	})
}

// Heat-to-glyph ramp, cold to hot
var fireGlyphs = []rune(" .:=*#%@")

// Fixed simulation step; rendering interpolates nothing, the sim just
// runs at its own cadence independent of the frame rate
const fireStep = time.Second / 30

type firePreset struct {
	name    string
	cooling float64 // Heat lost per propagation step
	spark   float64 // Chance a base cell ignites per step
}

var firePresets = []firePreset{
	{name: "calm", cooling: 0.055, spark: 0.25},
	{name: "roaring", cooling: 0.035, spark: 0.45},
	{name: "inferno", cooling: 0.018, spark: 0.70},
}

type firePattern struct {
	rng    *rand.Rand
	width  int
	height int
	heat   []float64
	preset int
	last   time.Duration // Last simulated step in pattern time
}

func (p *firePattern) Name() string { return "fire" }

func (p *firePattern) Presets() []string {
	out := make([]string, len(firePresets))
	for i, pr := range firePresets {
		out[i] = pr.name
	}
	return out
}

func (p *firePattern) Preset() string {
	return firePresets[p.preset].name
}

func (p *firePattern) NextPreset() string {
	p.preset = (p.preset + 1) % len(firePresets)
	return firePresets[p.preset].name
}

func (p *firePattern) Reset() {
	p.width = 0
	p.height = 0
	p.last = 0
}

func (p *firePattern) ensure(w, h int) {
	if w == p.width && h == p.height {
		return
	}
	p.width = w
	p.height = h
	p.heat = make([]float64, w*h)
}

// step advances the heat field one fixed tick: seed the base row, then
// propagate upward with neighbor averaging and cooling
func (p *firePattern) step() {
	pr := firePresets[p.preset]
	w, h := p.width, p.height

	base := (h - 1) * w
	for x := 0; x < w; x++ {
		if p.rng.Float64() < pr.spark {
			p.heat[base+x] = 0.85 + p.rng.Float64()*0.15
		} else {
			p.heat[base+x] *= 0.6
		}
	}

	for y := 0; y < h-1; y++ {
		row := y * w
		below := row + w
		for x := 0; x < w; x++ {
			left, right := x-1, x+1
			if left < 0 {
				left = 0
			}
			if right >= w {
				right = w - 1
			}
			sum := p.heat[below+left] + p.heat[below+x] + p.heat[below+right]
			if y+2 < h {
				sum += p.heat[below+w+x]
			} else {
				sum += p.heat[below+x]
			}
			v := sum/4 - pr.cooling
			if v < 0 {
				v = 0
			}
			p.heat[row+x] = v
		}
	}
}

func (p *firePattern) Render(ctx Context, buf *render.FrameBuffer) {
	if ctx.Width <= 0 || ctx.Height <= 0 {
		return
	}
	p.ensure(ctx.Width, ctx.Height)

	if ctx.Elapsed < p.last {
		p.last = ctx.Elapsed
	}
	// Catch up to pattern time in fixed steps, bounded per frame
	steps := 0
	for p.last+fireStep <= ctx.Elapsed && steps < 8 {
		p.step()
		p.last += fireStep
		steps++
	}
	if steps == 8 {
		p.last = ctx.Elapsed
	}

	for y := 0; y < p.height; y++ {
		row := y * p.width
		for x := 0; x < p.width; x++ {
			heat := p.heat[row+x]
			if heat < 0.04 {
				continue
			}
			if heat > 1 {
				heat = 1
			}
			g := int(heat * float64(len(fireGlyphs)-1))
			buf.SetRune(x, y, fireGlyphs[g], ctx.Theme.At(heat))
		}
	}
}
