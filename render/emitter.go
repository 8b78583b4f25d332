package render

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/lixenwraith/fluxel/terminal"
)

// Console is the terminal surface the emitter writes frames to.
// *terminal.Console satisfies it; tests substitute a recording fake.
type Console interface {
	Init(mouse terminal.MouseMode) error
	Fini()
	Size() (width, height int)
	ColorMode() terminal.ColorMode
	WriteFrame(p []byte) error
	Clear() error
}

// Emitter turns frame buffer diffs into ANSI byte streams. Each frame is
// assembled into a reused scratch buffer and handed to the console as a
// single write, so a frame can never interleave with anything else or
// tear mid-escape.
type Emitter struct {
	console Console
	buffer  *FrameBuffer

	scratch []byte

	mu          sync.Mutex
	initialized bool
	finalized   bool
}

// NewEmitter creates an emitter over the given console. The frame buffer
// is allocated during Init once the terminal size is known.
func NewEmitter(console Console) *Emitter {
	return &Emitter{
		console: console,
		scratch: make([]byte, 0, 32*1024),
	}
}

// Init puts the terminal into frame-output state (raw mode, alternate
// screen, hidden cursor, cleared screen) and sizes the frame buffer to
// match it.
func (e *Emitter) Init(mouse terminal.MouseMode) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return fmt.Errorf("emitter already initialized")
	}
	if err := e.console.Init(mouse); err != nil {
		return fmt.Errorf("console init: %w", err)
	}
	w, h := e.console.Size()
	e.buffer = NewFrameBuffer(w, h)
	e.initialized = true
	return nil
}

// Buffer returns the frame buffer patterns and overlay writers draw into
func (e *Emitter) Buffer() *FrameBuffer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buffer
}

// Emit diffs the frame buffer and writes the resulting repaint to the
// terminal in one call. Returns the number of changed cells.
//
// When the console size no longer matches the buffer the frame is dropped
// without diffing; a pending resize will realign the two before the next
// frame. Dropping before the diff keeps the change records intact.
func (e *Emitter) Emit() (int, error) {
	bw, bh := e.buffer.Size()
	cw, ch := e.console.Size()
	if cw != bw || ch != bh {
		return 0, nil
	}

	changes := e.buffer.Changes()
	if len(changes) == 0 {
		return 0, nil
	}

	mode := e.console.ColorMode()
	buf := e.scratch[:0]
	for _, c := range changes {
		r := c.Cell.Rune
		if r == wideGap {
			// Covered by the double-width glyph in the cell to the left
			continue
		}
		if r < ' ' {
			r = ' '
		}
		buf = terminal.AppendCursorPos(buf, c.X, c.Y)
		if c.Cell.HasFg {
			buf = terminal.AppendFg(buf, c.Cell.Fg, mode)
		} else {
			buf = terminal.AppendDefaultFg(buf)
		}
		buf = utf8.AppendRune(buf, r)
		buf = terminal.AppendReset(buf)
	}
	e.scratch = buf

	if err := e.console.WriteFrame(buf); err != nil {
		return 0, fmt.Errorf("write frame: %w", err)
	}
	return len(changes), nil
}

// HandleResize rebuilds the frame buffer at the new dimensions and clears
// the physical screen so no stale content survives outside the new grid
func (e *Emitter) HandleResize(width, height int) {
	e.buffer.Resize(width, height)
	_ = e.console.Clear()
}

// Cleanup restores the terminal. Safe to call more than once; only the
// first call does anything.
func (e *Emitter) Cleanup() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized || e.finalized {
		return
	}
	e.finalized = true
	e.console.Fini()
}
