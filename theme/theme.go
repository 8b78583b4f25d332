// Package theme provides named color ramps for pattern rendering.
// Ramps are built from a handful of control stops blended in Luv space,
// which keeps perceived brightness monotonic across the ramp, then
// sampled into a fixed lookup table so per-cell color reads stay cheap.
package theme

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/lixenwraith/fluxel/terminal"
)

const lutSize = 256

// Theme maps a normalized intensity to a color
type Theme struct {
	name string
	lut  [lutSize]terminal.RGB
}

// Name returns the theme identifier
func (t *Theme) Name() string {
	return t.name
}

// At returns the ramp color for intensity v in [0, 1].
// Values outside the range clamp to the ramp ends.
func (t *Theme) At(v float64) terminal.RGB {
	if v <= 0 {
		return t.lut[0]
	}
	if v >= 1 {
		return t.lut[lutSize-1]
	}
	return t.lut[int(v*(lutSize-1))]
}

// newTheme builds a ramp through the given stops
func newTheme(name string, stops ...terminal.RGB) *Theme {
	t := &Theme{name: name}

	cs := make([]colorful.Color, len(stops))
	for i, s := range stops {
		cs[i] = colorful.Color{
			R: float64(s.R) / 255.0,
			G: float64(s.G) / 255.0,
			B: float64(s.B) / 255.0,
		}
	}

	segments := len(cs) - 1
	for i := 0; i < lutSize; i++ {
		pos := float64(i) / float64(lutSize-1) * float64(segments)
		seg := int(pos)
		if seg >= segments {
			seg = segments - 1
		}
		frac := pos - float64(seg)

		c := cs[seg].BlendLuv(cs[seg+1], frac).Clamped()
		r, g, b := c.RGB255()
		t.lut[i] = terminal.RGB{R: r, G: g, B: b}
	}
	return t
}

// Built-in ramps, dark to bright
var (
	themes = map[string]*Theme{}
	order  []string
)

func register(t *Theme) {
	themes[t.name] = t
	order = append(order, t.name)
}

func init() {
	register(newTheme("ember",
		terminal.Black, terminal.Oxblood, terminal.FlameOrange,
		terminal.Amber, terminal.Gold, terminal.Cream))
	register(newTheme("matrix",
		terminal.Black, terminal.BlackGreen, terminal.DarkGreen,
		terminal.EmeraldGreen, terminal.NeonGreen, terminal.PaleMint))
	register(newTheme("ocean",
		terminal.Black, terminal.DeepNavy, terminal.NavyBlue,
		terminal.DodgerBlue, terminal.SkyTeal, terminal.IceCyan))
	register(newTheme("neon",
		terminal.Black, terminal.DeepPurple, terminal.DarkViolet,
		terminal.ElectricViolet, terminal.HotMagenta, terminal.IceCyan))
	register(newTheme("aurora",
		terminal.Black, terminal.DeepForest, terminal.EmeraldGreen,
		terminal.SkyTeal, terminal.ElectricViolet, terminal.PaleMint))
	register(newTheme("mono",
		terminal.Black, terminal.Gunmetal, terminal.DimGray,
		terminal.Gray, terminal.Silver, terminal.White))
}

// Default returns the startup theme
func Default() *Theme {
	return themes["ember"]
}

// Get looks up a theme by name
func Get(name string) (*Theme, error) {
	t, ok := themes[name]
	if !ok {
		return nil, fmt.Errorf("unknown theme %q (available: %v)", name, Names())
	}
	return t, nil
}

// Names returns registered theme names in registration order
func Names() []string {
	out := make([]string, len(order))
	copy(out, order)
	return out
}

// Next returns the theme following the given one in registration order,
// wrapping at the end. Unknown names return the default.
func Next(name string) *Theme {
	for i, n := range order {
		if n == name {
			return themes[order[(i+1)%len(order)]]
		}
	}
	return Default()
}
