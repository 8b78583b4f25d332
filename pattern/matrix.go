package pattern

import (
	"math/rand/v2"
	"time"

	"github.com/lixenwraith/fluxel/render"
)

func init() {
	register("matrix", func(rng *rand.Rand) Pattern {
		return &matrixPattern{rng: rng}
	})
}

// Halfwidth katakana plus digits, all single-column
var matrixGlyphs = []rune("ｱｲｳｴｵｶｷｸｹｺｻｼｽｾｿﾀﾁﾂﾃﾄﾅﾆﾇﾈﾉﾊﾋﾌﾍﾎﾏﾐﾑﾒﾓﾔﾕﾖﾗﾘﾙﾚﾛﾜﾝ0123456789")

type matrixColumn struct {
	head   float64 // Fractional row of the stream head
	speed  float64 // Rows per second
	length int
	wait   float64 // Seconds until the column respawns
}

type matrixPattern struct {
	rng    *rand.Rand
	width  int
	height int
	cols   []matrixColumn
	glyphs []rune // Per-cell glyph slab, churned slowly
	last   time.Duration
}

func (p *matrixPattern) Name() string { return "matrix" }

func (p *matrixPattern) Reset() {
	p.width = 0
	p.height = 0
	p.last = 0
}

func (p *matrixPattern) ensure(w, h int) {
	if w == p.width && h == p.height {
		return
	}
	p.width = w
	p.height = h
	p.cols = make([]matrixColumn, w)
	p.glyphs = make([]rune, w*h)
	for i := range p.glyphs {
		p.glyphs[i] = matrixGlyphs[p.rng.IntN(len(matrixGlyphs))]
	}
	for i := range p.cols {
		p.respawn(&p.cols[i], true)
	}
}

func (p *matrixPattern) respawn(c *matrixColumn, initial bool) {
	c.head = -p.rng.Float64() * float64(p.height)
	c.speed = 6 + p.rng.Float64()*18
	c.length = 4 + p.rng.IntN(p.height/2+4)
	if initial {
		c.wait = p.rng.Float64() * 1.5
	} else {
		c.wait = p.rng.Float64() * 0.8
	}
}

func (p *matrixPattern) Render(ctx Context, buf *render.FrameBuffer) {
	if ctx.Width <= 0 || ctx.Height <= 0 {
		return
	}
	p.ensure(ctx.Width, ctx.Height)

	dt := (ctx.Elapsed - p.last).Seconds()
	p.last = ctx.Elapsed
	if dt < 0 {
		dt = 0
	}
	if dt > 0.25 {
		dt = 0.25
	}

	for x := range p.cols {
		c := &p.cols[x]
		if c.wait > 0 {
			c.wait -= dt
			continue
		}
		c.head += c.speed * dt

		head := int(c.head)
		if head-c.length > p.height {
			p.respawn(c, false)
			continue
		}

		for i := 0; i <= c.length; i++ {
			y := head - i
			if y < 0 || y >= p.height {
				continue
			}
			idx := y*p.width + x
			// Slow glyph churn keeps the rain shimmering
			if p.rng.Float64() < 4*dt/float64(c.length+1) {
				p.glyphs[idx] = matrixGlyphs[p.rng.IntN(len(matrixGlyphs))]
			}

			intensity := 1.0 - float64(i)/float64(c.length+1)
			if i == 0 {
				intensity = 1.0
			} else {
				intensity *= 0.8
			}
			buf.SetRune(x, y, p.glyphs[idx], ctx.Theme.At(intensity))
		}
	}
}
