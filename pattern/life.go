package pattern

import (
	"math/rand/v2"
	"time"

	"github.com/lixenwraith/fluxel/render"
)

func init() {
	register("life", func(rng *rand.Rand) Pattern {
		return &lifePattern{rng: rng}
	})
}

const (
	lifeStep        = 120 * time.Millisecond
	lifeSeedDensity = 0.30
	// Generations of constant population before assuming the board locked
	// into still lifes and oscillators
	lifeStagnantLimit = 60
)

type lifePattern struct {
	rng    *rand.Rand
	width  int
	height int
	grid   []bool
	next   []bool
	age    []uint16
	last   time.Duration

	lastPop  int
	stagnant int
}

func (p *lifePattern) Name() string { return "life" }

func (p *lifePattern) Reset() {
	p.width = 0
	p.height = 0
	p.last = 0
}

func (p *lifePattern) ensure(w, h int) {
	if w == p.width && h == p.height {
		return
	}
	p.width = w
	p.height = h
	p.grid = make([]bool, w*h)
	p.next = make([]bool, w*h)
	p.age = make([]uint16, w*h)
	p.seed()
}

func (p *lifePattern) seed() {
	for i := range p.grid {
		p.grid[i] = p.rng.Float64() < lifeSeedDensity
		p.age[i] = 0
	}
	p.lastPop = -1
	p.stagnant = 0
}

// neighbors counts live cells around (x, y) on a toroidal board
func (p *lifePattern) neighbors(x, y int) int {
	n := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx := (x + dx + p.width) % p.width
			ny := (y + dy + p.height) % p.height
			if p.grid[ny*p.width+nx] {
				n++
			}
		}
	}
	return n
}

func (p *lifePattern) step() {
	pop := 0
	for y := 0; y < p.height; y++ {
		row := y * p.width
		for x := 0; x < p.width; x++ {
			idx := row + x
			n := p.neighbors(x, y)
			alive := p.grid[idx]
			switch {
			case alive && (n == 2 || n == 3):
				p.next[idx] = true
				if p.age[idx] < 0xFFFF {
					p.age[idx]++
				}
			case !alive && n == 3:
				p.next[idx] = true
				p.age[idx] = 0
			default:
				p.next[idx] = false
			}
			if p.next[idx] {
				pop++
			}
		}
	}
	p.grid, p.next = p.next, p.grid

	if pop == p.lastPop {
		p.stagnant++
	} else {
		p.stagnant = 0
		p.lastPop = pop
	}
	if pop == 0 || p.stagnant >= lifeStagnantLimit {
		p.seed()
	}
}

func (p *lifePattern) Render(ctx Context, buf *render.FrameBuffer) {
	if ctx.Width <= 0 || ctx.Height <= 0 {
		return
	}
	p.ensure(ctx.Width, ctx.Height)

	if ctx.Elapsed < p.last {
		p.last = ctx.Elapsed
	}
	steps := 0
	for p.last+lifeStep <= ctx.Elapsed && steps < 4 {
		p.step()
		p.last += lifeStep
		steps++
	}
	if steps == 4 {
		p.last = ctx.Elapsed
	}

	for y := 0; y < p.height; y++ {
		row := y * p.width
		for x := 0; x < p.width; x++ {
			idx := row + x
			if !p.grid[idx] {
				continue
			}
			// Newborns glow, settlers dim toward the ramp middle
			intensity := 1.0 / (1.0 + float64(p.age[idx])*0.12)
			if intensity < 0.35 {
				intensity = 0.35
			}
			glyph := 'o'
			if p.age[idx] >= 4 {
				glyph = 'O'
			}
			buf.SetRune(x, y, glyph, ctx.Theme.At(intensity))
		}
	}
}
