package pattern

import (
	"math"
	"math/rand/v2"

	"github.com/lixenwraith/fluxel/render"
)

func init() {
	register("spiral", func(rng *rand.Rand) Pattern {
		return &spiralPattern{
			arms:  2 + rng.IntN(3), // 2..4 arms
			phase: rng.Float64() * 2 * math.Pi,
		}
	})
}

var spiralGlyphs = []rune(".oO@")

// spiralPattern traces rotating logarithmic spiral arms
type spiralPattern struct {
	arms  int
	phase float64
}

func (p *spiralPattern) Name() string { return "spiral" }

func (p *spiralPattern) Render(ctx Context, buf *render.FrameBuffer) {
	if ctx.Width <= 0 || ctx.Height <= 0 {
		return
	}
	t := ctx.Elapsed.Seconds()
	cx := float64(ctx.Width) / 2
	cy := float64(ctx.Height) / 2
	rMax := math.Hypot(cx, cy*2)
	rotation := t*0.8 + p.phase

	armStep := 2 * math.Pi / float64(p.arms)
	for arm := 0; arm < p.arms; arm++ {
		armAngle := rotation + float64(arm)*armStep

		// March outward along r = e^(b*theta)
		for theta := 0.0; ; theta += 0.07 {
			r := 0.8 * math.Exp(theta*0.22)
			if r > rMax {
				break
			}
			angle := armAngle + theta
			x := int(cx + r*math.Cos(angle))
			y := int(cy + r*math.Sin(angle)*0.5)
			if x < 0 || x >= ctx.Width || y < 0 || y >= ctx.Height {
				continue
			}

			intensity := 1.0 - r/rMax*0.75
			g := int((1 - r/rMax) * float64(len(spiralGlyphs)-1))
			buf.SetRune(x, y, spiralGlyphs[g], ctx.Theme.At(intensity))
		}
	}
}
