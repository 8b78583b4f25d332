package pattern

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/lixenwraith/fluxel/render"
)

func init() {
	register("ripple", func(rng *rand.Rand) Pattern {
		return &ripplePattern{rng: rng}
	})
}

const (
	rippleLife    = 5 * time.Second
	rippleMax     = 16
	rippleSpeed   = 14.0 // Cells per second wavefront expansion
	rippleAmbient = 2200 * time.Millisecond
)

type ripple struct {
	cx, cy float64
	birth  time.Duration
}

// ripplePattern expands damped rings from click points. Clicks arrive on
// the input goroutine, so the drop list is mutex-guarded; without recent
// clicks it seeds ambient drops on its own.
type ripplePattern struct {
	mu      sync.Mutex
	rng     *rand.Rand
	drops   []ripple
	ambient time.Duration // Last ambient drop in pattern time
	pending []ripple      // Clicks waiting for the next frame's timestamp
}

func (p *ripplePattern) Name() string { return "ripple" }

func (p *ripplePattern) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.drops = p.drops[:0]
	p.pending = p.pending[:0]
	p.ambient = 0
}

// OnClick queues a drop at the click position. Birth time is assigned on
// the next rendered frame since pattern time lives on the render side.
func (p *ripplePattern) OnClick(x, y int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, ripple{cx: float64(x), cy: float64(y)})
}

func (p *ripplePattern) Render(ctx Context, buf *render.FrameBuffer) {
	if ctx.Width <= 0 || ctx.Height <= 0 {
		return
	}

	p.mu.Lock()
	for _, d := range p.pending {
		d.birth = ctx.Elapsed
		p.drops = append(p.drops, d)
	}
	p.pending = p.pending[:0]

	// Expire old drops
	alive := p.drops[:0]
	for _, d := range p.drops {
		if ctx.Elapsed-d.birth < rippleLife {
			alive = append(alive, d)
		}
	}
	p.drops = alive

	// Keep the surface moving when nobody clicks
	if len(p.drops) == 0 || ctx.Elapsed-p.ambient > rippleAmbient {
		p.drops = append(p.drops, ripple{
			cx:    p.rng.Float64() * float64(ctx.Width),
			cy:    p.rng.Float64() * float64(ctx.Height),
			birth: ctx.Elapsed,
		})
		p.ambient = ctx.Elapsed
	}
	if len(p.drops) > rippleMax {
		p.drops = p.drops[len(p.drops)-rippleMax:]
	}
	drops := make([]ripple, len(p.drops))
	copy(drops, p.drops)
	p.mu.Unlock()

	for y := 0; y < ctx.Height; y++ {
		fy := float64(y) * 2
		for x := 0; x < ctx.Width; x++ {
			fx := float64(x)

			v := 0.0
			for _, d := range drops {
				age := (ctx.Elapsed - d.birth).Seconds()
				dx := fx - d.cx
				dy := fy - d.cy*2
				dist := math.Sqrt(dx*dx + dy*dy)

				front := age * rippleSpeed
				offset := dist - front
				// Ring contribution: oscillation damped by distance from
				// the wavefront and by drop age
				v += math.Cos(offset*0.9) *
					math.Exp(-math.Abs(offset)*0.25) *
					math.Exp(-age*0.6)
			}

			mag := math.Abs(v)
			if mag < 0.06 {
				continue
			}
			if mag > 1 {
				mag = 1
			}
			var glyph rune
			switch {
			case mag > 0.7:
				glyph = 'O'
			case mag > 0.4:
				glyph = 'o'
			case mag > 0.2:
				glyph = '~'
			default:
				glyph = '.'
			}
			buf.SetRune(x, y, glyph, ctx.Theme.At(mag))
		}
	}
}
