// Package pattern contains the animation generators. A pattern redraws
// the full animated layer every frame from a per-frame context; stateful
// patterns keep their own simulation grids and resize them lazily.
package pattern

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/lixenwraith/fluxel/render"
	"github.com/lixenwraith/fluxel/theme"
)

// Context carries the per-frame inputs a pattern renders from
type Context struct {
	Elapsed time.Duration // Time since the pattern became active
	Width   int
	Height  int

	MouseX      int
	MouseY      int
	MouseActive bool // Pointer inside the grid with reporting enabled

	Theme *theme.Theme
}

// Pattern renders one animation frame into the buffer's animated layer.
// The scheduler clears the layer before every call; a pattern draws only
// the cells it wants lit.
type Pattern interface {
	Name() string
	Render(ctx Context, buf *render.FrameBuffer)
}

// Resettable patterns drop accumulated simulation state. The scheduler
// resets a pattern when it becomes active and after a terminal resize.
type Resettable interface {
	Reset()
}

// MouseReactive patterns respond to mouse clicks. OnClick may be called
// from a different goroutine than Render.
type MouseReactive interface {
	OnClick(x, y int)
}

// PresetProvider patterns expose named tuning variants
type PresetProvider interface {
	Presets() []string
	Preset() string
	NextPreset() string
}

// Factory builds a pattern instance with its own random source
type Factory func(rng *rand.Rand) Pattern

var factories = map[string]Factory{}

func register(name string, f Factory) {
	factories[name] = f
}

// DefaultName is the pattern shown when none is requested
const DefaultName = "matrix"

// New builds the named pattern seeded deterministically from seed
func New(name string, seed uint64) (Pattern, error) {
	f, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown pattern %q (available: %v)", name, Names())
	}
	return f(rand.New(rand.NewPCG(seed, seed))), nil
}

// Names returns registered pattern names, sorted
func Names() []string {
	out := make([]string, 0, len(factories))
	for name := range factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Next returns the pattern name after the given one in sorted order
func Next(name string) string {
	names := Names()
	for i, n := range names {
		if n == name {
			return names[(i+1)%len(names)]
		}
	}
	return DefaultName
}

// Prev returns the pattern name before the given one in sorted order
func Prev(name string) string {
	names := Names()
	for i, n := range names {
		if n == name {
			return names[(i-1+len(names))%len(names)]
		}
	}
	return DefaultName
}
