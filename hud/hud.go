// Package hud draws the status line, transient toasts and the help panel
// into the frame buffer's overlay layer. Nothing here writes to the
// terminal; overlay cells ride the normal diff cycle and mask the
// animation underneath until cleared.
package hud

import (
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/lixenwraith/fluxel/engine"
	"github.com/lixenwraith/fluxel/render"
	"github.com/lixenwraith/fluxel/telemetry"
	"github.com/lixenwraith/fluxel/terminal"
)

const (
	// statusInterval rate-limits status line rebuilds; the measured FPS
	// display does not need frame-rate precision
	statusInterval = 250 * time.Millisecond

	toastDuration = 1500 * time.Millisecond

	separator = " │ "
)

// Source provides the live values the HUD displays
type Source interface {
	Stats() telemetry.Stats
	FPS() int
	Paused() bool
	PatternName() string
	ThemeName() string
	PresetName() string // Empty when the pattern has no variants
}

// section is one status line segment; lower priority segments are
// dropped first when the terminal is too narrow
type section struct {
	text     string
	fg       terminal.RGB
	priority int
}

type span struct {
	x, y, w int
}

// HUD owns the overlay UI state. Update runs on the scheduler goroutine
// after each frame; the toggle and toast methods arrive from the input
// goroutine, so all state is mutex-guarded.
type HUD struct {
	fb    *render.FrameBuffer
	src   Source
	clock engine.TimeSource

	mu          sync.Mutex
	visible     bool
	helpVisible bool

	lastW, lastH int
	lastStatus   time.Time
	lastLine     string
	dirty        bool

	toastText  string
	toastSpan  span
	toastGen   int
	toastTimer *time.Timer

	helpRect span // w is width, help height tracked separately
	helpH    int
}

// New creates a HUD over the given buffer. The status line starts visible.
func New(fb *render.FrameBuffer, src Source, clock engine.TimeSource) *HUD {
	return &HUD{
		fb:      fb,
		src:     src,
		clock:   clock,
		visible: true,
		dirty:   true,
	}
}

// Update refreshes the overlay widgets. Called after every frame; cheap
// when nothing visible changed.
func (h *HUD) Update() {
	now := h.clock.Now()

	h.mu.Lock()
	defer h.mu.Unlock()

	w, ht := h.fb.Size()
	if w != h.lastW || ht != h.lastH {
		// Resize wiped the whole overlay; everything must redraw
		h.lastW, h.lastH = w, ht
		h.dirty = true
		h.lastLine = ""
		h.toastSpan = span{}
		if h.helpVisible {
			h.drawHelpLocked(w, ht)
		}
		if h.toastText != "" {
			h.drawToastLocked(w, ht)
		}
	}

	if !h.visible {
		return
	}
	if !h.dirty && now.Sub(h.lastStatus) < statusInterval {
		return
	}
	h.lastStatus = now
	h.dirty = false
	h.drawStatusLocked(w, ht)
}

// Toggle flips status line visibility and returns the new state
func (h *HUD) Toggle() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.visible = !h.visible
	if h.visible {
		h.dirty = true
	} else if h.lastH > 0 {
		h.fb.ClearOverlayRow(h.lastH - 1)
		h.lastLine = ""
	}
	return h.visible
}

// Visible reports whether the status line is shown
func (h *HUD) Visible() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.visible
}

// ShowToast displays a short-lived message in the top-right corner.
// Replaces any toast already showing and restarts the expiry clock.
func (h *HUD) ShowToast(text string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clearToastLocked()
	h.toastText = text
	h.toastGen++

	gen := h.toastGen
	if h.toastTimer != nil {
		h.toastTimer.Stop()
	}
	h.toastTimer = time.AfterFunc(toastDuration, func() {
		h.expireToast(gen)
	})

	w, ht := h.fb.Size()
	h.drawToastLocked(w, ht)
}

// expireToast removes the toast if no newer one replaced it. Runs on
// the timer goroutine; the cleared row reaches the terminal on the
// next emitted frame or paused overlay flush.
func (h *HUD) expireToast(gen int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if gen != h.toastGen {
		return
	}
	h.clearToastLocked()
}

// Refresh redraws the status line immediately, bypassing the rate
// limit. Call after a state change the status line displays.
func (h *HUD) Refresh() {
	h.mu.Lock()
	h.dirty = true
	h.mu.Unlock()
	h.Update()
}

// ToggleHelp shows or hides the key binding panel
func (h *HUD) ToggleHelp() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.helpVisible {
		h.clearHelpLocked()
		h.helpVisible = false
	} else {
		w, ht := h.fb.Size()
		h.drawHelpLocked(w, ht)
		h.helpVisible = true
	}
	return h.helpVisible
}

// HelpVisible reports whether the help panel is shown
func (h *HUD) HelpVisible() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.helpVisible
}

// ============================================================================
// Status Line
// ============================================================================

func (h *HUD) drawStatusLocked(w, ht int) {
	if w < 8 || ht < 1 {
		return
	}
	row := ht - 1

	stats := h.src.Stats()

	sections := []section{
		{text: h.src.PatternName(), fg: terminal.IceCyan, priority: 7},
		{text: h.src.ThemeName(), fg: terminal.DimSilver, priority: 2},
		{text: fmt.Sprintf("%d fps", h.src.FPS()), fg: terminal.Silver, priority: 5},
	}
	if preset := h.src.PresetName(); preset != "" {
		sections = append(sections, section{text: preset, fg: terminal.DimSilver, priority: 1})
	}
	if stats.Samples > 0 {
		sections = append(sections,
			section{text: fmt.Sprintf("%.1f avg", stats.FPS), fg: terminal.Silver, priority: 4},
			section{text: fmt.Sprintf("%.1f min", stats.MinFPS), fg: terminal.DimSilver, priority: 1},
			section{text: fmt.Sprintf("%.1fms", float64(stats.FrameTime)/float64(time.Millisecond)), fg: terminal.DimSilver, priority: 3},
			section{text: fmt.Sprintf("%d cells", stats.LastCells), fg: terminal.DimSilver, priority: 1},
			section{text: fmt.Sprintf("%d drop", stats.DroppedWindow), fg: dropColor(stats.DroppedWindow), priority: 3},
		)
	}
	if h.src.Paused() {
		sections = append(sections, section{text: "PAUSED", fg: terminal.Amber, priority: 8})
	}

	// Drop lowest-priority sections until the line fits
	avail := w - 2
	for len(sections) > 1 && lineWidth(sections) > avail {
		minIdx := 0
		for i, s := range sections {
			if s.priority < sections[minIdx].priority {
				minIdx = i
			}
		}
		sections = append(sections[:minIdx], sections[minIdx+1:]...)
	}

	// Skip the repaint when the rendered text is unchanged
	line := ""
	for i, s := range sections {
		if i > 0 {
			line += separator
		}
		line += s.text
	}
	if line == h.lastLine {
		return
	}
	h.lastLine = line

	h.fb.ClearOverlayRow(row)

	x := w - 1 - lineWidth(sections)
	if x < 1 {
		x = 1
	}
	for i, s := range sections {
		if i > 0 {
			h.fb.SetOverlayText(x, row, separator, terminal.IronGray)
			x += runewidth.StringWidth(separator)
		}
		h.fb.SetOverlayText(x, row, s.text, s.fg)
		x += runewidth.StringWidth(s.text)
	}
}

func lineWidth(sections []section) int {
	w := 0
	for i, s := range sections {
		if i > 0 {
			w += runewidth.StringWidth(separator)
		}
		w += runewidth.StringWidth(s.text)
	}
	return w
}

func dropColor(dropped int) terminal.RGB {
	if dropped > 0 {
		return terminal.Amber
	}
	return terminal.DimGray
}

// ============================================================================
// Toast
// ============================================================================

func (h *HUD) drawToastLocked(w, ht int) {
	if h.toastText == "" || w < 8 || ht < 3 {
		return
	}

	text := h.toastText
	tw := runewidth.StringWidth(text)
	if tw > w-4 {
		text = runewidth.Truncate(text, w-4, "…")
		tw = runewidth.StringWidth(text)
	}

	x := w - tw - 2
	h.fb.SetOverlayText(x, 0, text, terminal.Gold)
	h.toastSpan = span{x: x, y: 0, w: tw}
}

func (h *HUD) clearToastLocked() {
	if h.toastSpan.w > 0 {
		h.fb.ClearOverlayArea(h.toastSpan.x, h.toastSpan.y, h.toastSpan.w, 1)
	}
	h.toastText = ""
	h.toastSpan = span{}
}

// ============================================================================
// Help Panel
// ============================================================================

var helpLines = []string{
	" q / esc   quit        ",
	" space     pause       ",
	" n / p     pattern     ",
	" t         theme       ",
	" c         variant     ",
	" + / -     speed       ",
	" d         status line ",
	" r         reset stats ",
	" h         this panel  ",
	" click     interact    ",
}

func (h *HUD) drawHelpLocked(w, ht int) {
	inner := 0
	for _, l := range helpLines {
		if lw := runewidth.StringWidth(l); lw > inner {
			inner = lw
		}
	}
	boxW := inner + 2
	boxH := len(helpLines) + 2
	if boxW > w || boxH > ht {
		// Terminal too small for the panel
		h.helpRect = span{}
		h.helpH = 0
		return
	}

	x := (w - boxW) / 2
	y := (ht - boxH) / 2
	border := terminal.SkyTeal
	textFg := terminal.LightGray

	// Top border with title
	title := "─ fluxel "
	h.fb.SetOverlayText(x, y, "┌"+title, border)
	for cx := x + 1 + runewidth.StringWidth(title); cx < x+boxW-1; cx++ {
		h.fb.SetOverlayText(cx, y, "─", border)
	}
	h.fb.SetOverlayText(x+boxW-1, y, "┐", border)

	for i, l := range helpLines {
		row := y + 1 + i
		h.fb.SetOverlayText(x, row, "│", border)
		h.fb.SetOverlayText(x+1, row, l, textFg)
		// Pad short lines so the panel interior fully masks animation
		for cx := x + 1 + runewidth.StringWidth(l); cx < x+boxW-1; cx++ {
			h.fb.SetOverlayText(cx, row, " ", textFg)
		}
		h.fb.SetOverlayText(x+boxW-1, row, "│", border)
	}

	bottom := y + boxH - 1
	h.fb.SetOverlayText(x, bottom, "└", border)
	for cx := x + 1; cx < x+boxW-1; cx++ {
		h.fb.SetOverlayText(cx, bottom, "─", border)
	}
	h.fb.SetOverlayText(x+boxW-1, bottom, "┘", border)

	h.helpRect = span{x: x, y: y, w: boxW}
	h.helpH = boxH
}

func (h *HUD) clearHelpLocked() {
	if h.helpRect.w > 0 {
		h.fb.ClearOverlayArea(h.helpRect.x, h.helpRect.y, h.helpRect.w, h.helpH)
	}
	h.helpRect = span{}
	h.helpH = 0
}
