package pattern

import (
	"math"
	"math/rand/v2"

	"github.com/lixenwraith/fluxel/render"
)

func init() {
	register("plasma", func(rng *rand.Rand) Pattern {
		// Random phase offsets decouple instances started with different seeds
		return &plasmaPattern{
			phase1: rng.Float64() * 2 * math.Pi,
			phase2: rng.Float64() * 2 * math.Pi,
		}
	})
}

var plasmaGlyphs = []rune("·:+*#@")

// plasmaPattern sums drifting sine fields; no simulation state
type plasmaPattern struct {
	phase1 float64
	phase2 float64
}

func (p *plasmaPattern) Name() string { return "plasma" }

func (p *plasmaPattern) Render(ctx Context, buf *render.FrameBuffer) {
	if ctx.Width <= 0 || ctx.Height <= 0 {
		return
	}
	t := ctx.Elapsed.Seconds()
	cx := float64(ctx.Width) / 2
	cy := float64(ctx.Height) / 2

	for y := 0; y < ctx.Height; y++ {
		// Cells are ~2x taller than wide; scale y to keep shapes round
		fy := float64(y) * 2
		for x := 0; x < ctx.Width; x++ {
			fx := float64(x)

			v := math.Sin(fx*0.10 + t + p.phase1)
			v += math.Sin(fy*0.06 - t*0.7 + p.phase2)
			v += math.Sin((fx+fy)*0.05 + t*0.4)
			dx, dy := fx-cx, fy-cy*2
			v += math.Sin(math.Sqrt(dx*dx+dy*dy)*0.11 - t*1.1)

			// v in [-4, 4]
			intensity := (v + 4) / 8
			g := int(intensity * float64(len(plasmaGlyphs)-1))
			buf.SetRune(x, y, plasmaGlyphs[g], ctx.Theme.At(intensity))
		}
	}
}
