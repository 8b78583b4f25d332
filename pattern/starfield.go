package pattern

import (
	"math/rand/v2"
	"time"

	"github.com/lixenwraith/fluxel/render"
)

func init() {
	register("starfield", func(rng *rand.Rand) Pattern {
		return &starfieldPattern{rng: rng}
	})
}

var starGlyphs = []rune(".+*@")

type star struct {
	x, y  float64 // Position in the unit plane, origin center
	z     float64 // Depth, 1 far to 0 at the viewer
	speed float64
}

type starfieldPattern struct {
	rng    *rand.Rand
	width  int
	height int
	stars  []star
	last   time.Duration
}

func (p *starfieldPattern) Name() string { return "starfield" }

func (p *starfieldPattern) Reset() {
	p.width = 0
	p.height = 0
	p.last = 0
}

func (p *starfieldPattern) ensure(w, h int) {
	if w == p.width && h == p.height {
		return
	}
	p.width = w
	p.height = h

	count := w * h / 16
	if count < 16 {
		count = 16
	}
	if count > 768 {
		count = 768
	}
	p.stars = make([]star, count)
	for i := range p.stars {
		p.spawn(&p.stars[i], true)
	}
}

func (p *starfieldPattern) spawn(s *star, anyDepth bool) {
	s.x = p.rng.Float64()*2 - 1
	s.y = p.rng.Float64()*2 - 1
	if anyDepth {
		s.z = 0.1 + p.rng.Float64()*0.9
	} else {
		s.z = 1.0
	}
	s.speed = 0.15 + p.rng.Float64()*0.35
}

func (p *starfieldPattern) Render(ctx Context, buf *render.FrameBuffer) {
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

	cx := float64(p.width) / 2
	cy := float64(p.height) / 2

	for i := range p.stars {
		s := &p.stars[i]
		s.z -= s.speed * dt
		if s.z <= 0.05 {
			p.spawn(s, false)
		}

		// Perspective projection, y compressed for cell aspect
		px := int(cx + s.x/s.z*cx*0.8)
		py := int(cy + s.y/s.z*cy*0.8)
		if px < 0 || px >= p.width || py < 0 || py >= p.height {
			continue
		}

		brightness := 1.0 - s.z
		g := int(brightness * float64(len(starGlyphs)-1))
		buf.SetRune(px, py, starGlyphs[g], ctx.Theme.At(0.25+brightness*0.75))
	}
}
