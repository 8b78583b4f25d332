package pattern

import (
	"math"
	"math/rand/v2"

	"github.com/lixenwraith/fluxel/render"
)

func init() {
	register("waves", func(rng *rand.Rand) Pattern {
		return &wavesPattern{phase: rng.Float64() * 2 * math.Pi}
	})
}

// wavesPattern draws two interfering traveling sines with a fading wake
type wavesPattern struct {
	phase float64
}

func (p *wavesPattern) Name() string { return "waves" }

func (p *wavesPattern) Render(ctx Context, buf *render.FrameBuffer) {
	if ctx.Width <= 0 || ctx.Height <= 0 {
		return
	}
	t := ctx.Elapsed.Seconds()
	mid := float64(ctx.Height) / 2
	amp := float64(ctx.Height) * 0.32

	for x := 0; x < ctx.Width; x++ {
		fx := float64(x)

		a := math.Sin(fx*0.11+t*1.6+p.phase) * 0.6
		b := math.Sin(fx*0.047-t*0.9) * 0.4
		crest := mid + (a+b)*amp

		cy := int(crest)
		for dy := -3; dy <= 3; dy++ {
			y := cy + dy
			if y < 0 || y >= ctx.Height {
				continue
			}
			dist := math.Abs(crest - float64(y))
			if dist > 3 {
				continue
			}
			intensity := 1.0 - dist/3.5
			var glyph rune
			switch {
			case dist < 0.8:
				glyph = '~'
			case dist < 2:
				glyph = '-'
			default:
				glyph = '.'
			}
			buf.SetRune(x, y, glyph, ctx.Theme.At(intensity))
		}
	}
}
