package pattern

import (
	"math/rand/v2"
	"time"

	"github.com/lixenwraith/fluxel/render"
)

func init() {
	register("sparkle", func(rng *rand.Rand) Pattern {
		return &sparklePattern{rng: rng}
	})
}

const (
	sparkLife = 650 * time.Millisecond
	sparkCap  = 1024
)

type spark struct {
	x, y  int
	birth time.Duration
}

type sparklePattern struct {
	rng    *rand.Rand
	sparks []spark
	accum  float64
	last   time.Duration
}

func (p *sparklePattern) Name() string { return "sparkle" }

func (p *sparklePattern) Reset() {
	p.sparks = p.sparks[:0]
	p.accum = 0
	p.last = 0
}

func (p *sparklePattern) Render(ctx Context, buf *render.FrameBuffer) {
	if ctx.Width <= 0 || ctx.Height <= 0 {
		return
	}
	dt := (ctx.Elapsed - p.last).Seconds()
	p.last = ctx.Elapsed
	if dt < 0 {
		dt = 0
	}
	if dt > 0.25 {
		dt = 0.25
	}

	// Spawn rate scales with area so density stays constant across sizes
	rate := float64(ctx.Width*ctx.Height) / 10
	p.accum += rate * dt
	for p.accum >= 1 && len(p.sparks) < sparkCap {
		p.accum--
		p.sparks = append(p.sparks, spark{
			x:     p.rng.IntN(ctx.Width),
			y:     p.rng.IntN(ctx.Height),
			birth: ctx.Elapsed,
		})
	}
	if p.accum > 4 {
		p.accum = 4
	}

	alive := p.sparks[:0]
	for _, s := range p.sparks {
		age := ctx.Elapsed - s.birth
		if age >= sparkLife {
			continue
		}
		alive = append(alive, s)

		fade := 1.0 - float64(age)/float64(sparkLife)
		var glyph rune
		switch {
		case fade > 0.66:
			glyph = '*'
		case fade > 0.33:
			glyph = '+'
		default:
			glyph = '.'
		}
		buf.SetRune(s.x, s.y, glyph, ctx.Theme.At(0.2+fade*0.8))
	}
	p.sparks = alive
}
