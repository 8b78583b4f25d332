package terminal

import (
	"io"
	"os"
	"sync"
)

// ResizeEvent represents a terminal resize
type ResizeEvent struct {
	Width  int
	Height int
}

// Console owns the physical terminal: raw mode, alternate screen, cursor
// visibility, mouse reporting and input decoding. It performs no drawing
// of its own; callers assemble complete ANSI frames and hand them to
// WriteFrame, which issues exactly one write syscall per frame.
type Console struct {
	backend   Backend
	colorMode ColorMode

	input    *inputReader
	resizeCh chan ResizeEvent

	mu          sync.Mutex
	initialized bool
	finalized   bool
	mouseMode   MouseMode
}

// New creates a Console. Color capability is detected from the
// environment unless explicitly given.
func New(colorMode ...ColorMode) *Console {
	c := DetectColorMode()
	if len(colorMode) > 0 {
		c = colorMode[0]
	}

	return &Console{
		backend:   newBackend(),
		colorMode: c,
		resizeCh:  make(chan ResizeEvent, 1),
	}
}

// Init enters raw mode, switches to the alternate screen, hides the
// cursor, disables auto-wrap, clears the screen and enables the given
// mouse reporting mode. Idempotent.
func (c *Console) Init(mouse MouseMode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return nil
	}

	if err := c.backend.Init(); err != nil {
		return err
	}

	c.input = newInputReader(c.backend)

	c.backend.SetResizeHandler(func(w, h int) {
		// Non-blocking send; drain and replace so the latest size is pending
		select {
		case c.resizeCh <- ResizeEvent{Width: w, Height: h}:
		default:
			select {
			case <-c.resizeCh:
			default:
			}
			select {
			case c.resizeCh <- ResizeEvent{Width: w, Height: h}:
			default:
			}
		}
	})

	c.backend.Write(csiAltScreenEnter)
	c.backend.Write(csiCursorHide)

	// DISABLE AUTO-WRAP
	// Prevents terminal scroll/wrap on bottom-right corner write
	c.backend.Write(csiAutoWrapOff)

	c.backend.Write(csiSGR0)
	c.backend.Write(csiClear)

	if mouse != MouseModeNone {
		c.writeMouseMode(MouseModeNone, mouse)
	}
	c.mouseMode = mouse

	c.input.start()

	c.initialized = true
	return nil
}

// Fini restores terminal state. Safe to call multiple times.
func (c *Console) Fini() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized || c.finalized {
		return
	}

	// Disable mouse before other cleanup
	if c.mouseMode != MouseModeNone {
		c.writeMouseMode(c.mouseMode, MouseModeNone)
		c.mouseMode = MouseModeNone
	}

	if c.input != nil {
		c.input.stop()
	}

	c.backend.Write(csiCursorShow)
	c.backend.Write(csiAltScreenExit)

	// Re-enable auto-wrap AFTER exiting alt screen so the main buffer has wrap enabled
	c.backend.Write(csiAutoWrapOn)
	c.backend.Write(csiSGR0)

	c.backend.Fini()

	c.finalized = true
}

// Size returns current terminal dimensions
func (c *Console) Size() (int, int) {
	return c.backend.Size()
}

// ResizeChan returns the channel receiving resize events.
// Delivery is latest-wins: a pending unread event is replaced, never queued.
func (c *Console) ResizeChan() <-chan ResizeEvent {
	return c.resizeCh
}

// ColorMode returns the color capability in use
func (c *Console) ColorMode() ColorMode {
	return c.colorMode
}

// WriteFrame writes one assembled ANSI frame in a single write call.
// The caller owns the frame contents; p is not retained.
func (c *Console) WriteFrame(p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized || c.finalized {
		return nil
	}
	if len(p) == 0 {
		return nil
	}
	return c.backend.Write(p)
}

// Clear erases the screen and homes the cursor
func (c *Console) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized || c.finalized {
		return nil
	}
	if err := c.backend.Write(csiSGR0); err != nil {
		return err
	}
	return c.backend.Write(csiClear)
}

// SetMouseMode switches mouse event reporting.
// Modes can be combined: MouseModeClick | MouseModeMotion.
func (c *Console) SetMouseMode(mode MouseMode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized || c.finalized {
		return nil
	}

	c.writeMouseMode(c.mouseMode, mode)
	c.mouseMode = mode
	return nil
}

// writeMouseMode emits the transitions between two mouse modes.
// Caller holds c.mu.
func (c *Console) writeMouseMode(old, mode MouseMode) {
	// Disable modes no longer needed (reverse order of enable)
	if old&MouseModeMotion != 0 && mode&MouseModeMotion == 0 {
		c.backend.Write(csiMouseMotionOff)
	}
	if old&MouseModeDrag != 0 && mode&MouseModeDrag == 0 {
		c.backend.Write(csiMouseDragOff)
	}
	if old&MouseModeClick != 0 && mode&MouseModeClick == 0 {
		c.backend.Write(csiMouseClickOff)
	}

	if mode == MouseModeNone && old != MouseModeNone {
		c.backend.Write(csiMouseSGROff)
	}

	// Enable SGR coordinates before any tracking mode
	if mode != MouseModeNone && old == MouseModeNone {
		c.backend.Write(csiMouseSGROn)
	}

	if mode&MouseModeClick != 0 && old&MouseModeClick == 0 {
		c.backend.Write(csiMouseClickOn)
	}
	if mode&MouseModeDrag != 0 && old&MouseModeDrag == 0 {
		c.backend.Write(csiMouseDragOn)
	}
	if mode&MouseModeMotion != 0 && old&MouseModeMotion == 0 {
		c.backend.Write(csiMouseMotionOn)
	}
}

// PollEvent blocks until the next key or mouse event.
// Resize events are NOT delivered here; they arrive only on ResizeChan,
// so a resize can never interleave with a frame cycle consuming it.
func (c *Console) PollEvent() Event {
	c.mu.Lock()
	in := c.input
	c.mu.Unlock()

	if in == nil {
		return Event{Type: EventClosed}
	}
	return <-in.events()
}

// EmergencyReset attempts to restore the terminal to a sane state.
// Call from panic recovery when Fini cannot run normally.
func EmergencyReset(w io.Writer) {
	// Disable mouse tracking
	w.Write(csiMouseMotionOff)
	w.Write(csiMouseDragOff)
	w.Write(csiMouseClickOff)
	w.Write(csiMouseSGROff)

	w.Write(csiCursorShow)
	w.Write(csiAltScreenExit)
	w.Write(csiSGR0)
	w.Write(csiAutoWrapOn)
	w.Write(csiRIS)

	if f, ok := w.(*os.File); ok {
		f.Sync()
	}

	// Escape sequences alone don't restore termios; best-effort, ignore errors
	resetTerminalMode()
}
