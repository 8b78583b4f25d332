package render

import (
	"sync"

	"github.com/mattn/go-runewidth"

	"github.com/lixenwraith/fluxel/terminal"
)

// Point identifies a cell position, used as the overlay store key
type Point struct {
	X, Y int
}

// Change is one cell that must be repainted on the physical terminal
type Change struct {
	X, Y int
	Cell terminal.Cell
}

// wideGap marks the column shadowed by a double-width rune to its left.
// Gap cells occupy the overlay for compositing but the emitter writes
// nothing for them; the wide glyph already covers the column.
const wideGap rune = 0xFFFF

// FrameBuffer is a double-buffered cell grid with a sparse overlay layer.
//
// The animated layer (current) is cleared and redrawn every frame by a
// pattern. The overlay holds UI cells keyed by position; during diffing a
// cell's final value is the overlay entry when present, the animated cell
// otherwise. Diffing is row-granular: a row is inspected when any animated
// cell in it changed or when the overlay in it was mutated since the last
// diff. Overlay-mutated rows are re-emitted in full, which keeps the
// physical screen converged even where the previous grid no longer matches
// what was actually sent (Swap copies the animated layer over it,
// discarding composited values).
//
// All methods are safe for concurrent use; overlay writers may run on a
// different goroutine than the frame cycle.
type FrameBuffer struct {
	mu sync.Mutex

	width  int
	height int

	current  []terminal.Cell // Animated layer, row-major: cells[y*width+x]
	previous []terminal.Cell // What diffing last reconciled against

	overlay     map[Point]terminal.Cell
	overlayRows map[int]struct{} // Rows with overlay mutations since last Changes

	rowFlags []bool   // Scratch: rows to inspect this diff pass
	changes  []Change // Scratch: reused result slice
}

// NewFrameBuffer creates a buffer with the specified dimensions
func NewFrameBuffer(width, height int) *FrameBuffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &FrameBuffer{
		width:       width,
		height:      height,
		current:     make([]terminal.Cell, width*height),
		previous:    make([]terminal.Cell, width*height),
		overlay:     make(map[Point]terminal.Cell),
		overlayRows: make(map[int]struct{}),
		rowFlags:    make([]bool, height),
	}
}

// Size returns buffer dimensions
func (b *FrameBuffer) Size() (width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

// inBounds returns true if the position is inside the grid.
// Caller holds b.mu.
func (b *FrameBuffer) inBounds(x, y int) bool {
	return x >= 0 && x < b.width && y >= 0 && y < b.height
}

// ============================================================================
// Animated layer
// ============================================================================

// Clear blanks the animated layer. The overlay and the previous grid are
// not touched; patterns call this at the start of every frame.
func (b *FrameBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.current) == 0 {
		return
	}
	b.current[0] = terminal.Blank
	// Exponential copy
	for filled := 1; filled < len(b.current); filled *= 2 {
		copy(b.current[filled:], b.current[:filled])
	}
}

// Set writes one animated cell. Out-of-bounds writes are silently ignored
// so patterns can draw shapes that extend past the edges.
func (b *FrameBuffer) Set(x, y int, c terminal.Cell) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.inBounds(x, y) {
		return
	}
	b.current[y*b.width+x] = c
}

// SetRune writes an animated glyph with a foreground color
func (b *FrameBuffer) SetRune(x, y int, r rune, fg terminal.RGB) {
	b.Set(x, y, terminal.Cell{Rune: r, Fg: fg, HasFg: true})
}

// SetPlain writes an animated glyph in the terminal default foreground
func (b *FrameBuffer) SetPlain(x, y int, r rune) {
	b.Set(x, y, terminal.Cell{Rune: r})
}

// Cell returns the animated cell at the position, Blank when out of bounds
func (b *FrameBuffer) Cell(x, y int) terminal.Cell {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.inBounds(x, y) {
		return terminal.Blank
	}
	return b.current[y*b.width+x]
}

// ============================================================================
// Overlay layer
// ============================================================================

// overlaySetLocked writes one overlay cell and marks its row when the
// overlay state actually changed. Caller holds b.mu.
func (b *FrameBuffer) overlaySetLocked(x, y int, c terminal.Cell) {
	if !b.inBounds(x, y) {
		return
	}
	p := Point{X: x, Y: y}
	if existing, ok := b.overlay[p]; ok && existing == c {
		return
	}
	b.overlay[p] = c
	b.overlayRows[y] = struct{}{}
}

// SetOverlay writes one overlay cell. The cell masks the animated layer
// at its position until cleared.
func (b *FrameBuffer) SetOverlay(x, y int, c terminal.Cell) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.overlaySetLocked(x, y, c)
}

// SetOverlayText writes a string into the overlay starting at (x, y),
// advancing by display width. Double-width runes occupy two cells; the
// shadowed cell is filled with a gap marker so the animated layer cannot
// bleed through the glyph's right half. Zero-width runes are skipped.
func (b *FrameBuffer) SetOverlayText(x, y int, text string, fg terminal.RGB) {
	b.mu.Lock()
	defer b.mu.Unlock()

	col := x
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		b.overlaySetLocked(col, y, terminal.Cell{Rune: r, Fg: fg, HasFg: true})
		if w == 2 {
			b.overlaySetLocked(col+1, y, terminal.Cell{Rune: wideGap})
		}
		col += w
	}
}

// ClearOverlayArea removes overlay cells in the given rectangle.
// Rows are marked only when something was actually removed.
func (b *FrameBuffer) ClearOverlayArea(x, y, w, h int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for p := range b.overlay {
		if p.X >= x && p.X < x+w && p.Y >= y && p.Y < y+h {
			delete(b.overlay, p)
			b.overlayRows[p.Y] = struct{}{}
		}
	}
}

// ClearOverlayRow removes all overlay cells on one row
func (b *FrameBuffer) ClearOverlayRow(y int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for p := range b.overlay {
		if p.Y == y {
			delete(b.overlay, p)
			b.overlayRows[y] = struct{}{}
		}
	}
}

// ClearAllOverlay removes every overlay cell
func (b *FrameBuffer) ClearAllOverlay() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for p := range b.overlay {
		b.overlayRows[p.Y] = struct{}{}
		delete(b.overlay, p)
	}
}

// OverlayLen returns the number of overlay cells (diagnostics)
func (b *FrameBuffer) OverlayLen() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.overlay)
}

// Width returns the buffer width
func (b *FrameBuffer) Width() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width
}

// Height returns the buffer height
func (b *FrameBuffer) Height() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.height
}

// ============================================================================
// Diffing
// ============================================================================

// Changes computes the cells that must be repainted since the last call.
//
// A row is inspected when any animated cell in it differs from the
// previous grid, or when its overlay was mutated. Within an inspected row
// each cell's final value composites overlay over animation; a record is
// produced when the final value differs from the previous grid, or
// unconditionally for overlay-mutated rows. Produced records are written
// back to the previous grid, so an immediate second call yields nothing.
//
// The returned slice is reused by the next call; callers must consume it
// before touching the buffer again.
func (b *FrameBuffer) Changes() []Change {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.changes = b.changes[:0]
	if b.width == 0 || b.height == 0 {
		clear(b.overlayRows)
		return b.changes
	}

	for i := range b.rowFlags {
		b.rowFlags[i] = false
	}

	// Rows where the animated layer moved
	for y := 0; y < b.height; y++ {
		row := y * b.width
		for x := 0; x < b.width; x++ {
			if !b.current[row+x].Equal(b.previous[row+x]) {
				b.rowFlags[y] = true
				break
			}
		}
	}

	// Rows with overlay mutations
	for y := range b.overlayRows {
		if y >= 0 && y < b.height {
			b.rowFlags[y] = true
		}
	}

	// Composite and diff the flagged rows
	for y := 0; y < b.height; y++ {
		if !b.rowFlags[y] {
			continue
		}
		_, forced := b.overlayRows[y]
		row := y * b.width
		for x := 0; x < b.width; x++ {
			idx := row + x
			final := b.current[idx]
			if oc, ok := b.overlay[Point{X: x, Y: y}]; ok {
				final = oc
			}
			if forced || !final.Equal(b.previous[idx]) {
				b.changes = append(b.changes, Change{X: x, Y: y, Cell: final})
				b.previous[idx] = final
			}
		}
	}

	clear(b.overlayRows)
	return b.changes
}

// Swap copies the animated layer over the previous grid. Runs
// unconditionally every frame, after emission. Composited overlay values
// written by Changes are discarded here; overlay-row re-emission on the
// next mutation compensates.
func (b *FrameBuffer) Swap() {
	b.mu.Lock()
	defer b.mu.Unlock()
	copy(b.previous, b.current)
}

// Resize reallocates both grids blank and drops all overlay state.
// The first Changes after a resize reports nothing; content reappears
// once a pattern draws into the new grid.
func (b *FrameBuffer) Resize(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}

	size := width * height
	if cap(b.current) < size {
		b.current = make([]terminal.Cell, size)
		b.previous = make([]terminal.Cell, size)
	} else {
		b.current = b.current[:size]
		b.previous = b.previous[:size]
		for i := 0; i < size; i++ {
			b.current[i] = terminal.Blank
			b.previous[i] = terminal.Blank
		}
	}
	if cap(b.rowFlags) < height {
		b.rowFlags = make([]bool, height)
	} else {
		b.rowFlags = b.rowFlags[:height]
	}

	b.width = width
	b.height = height

	clear(b.overlay)
	clear(b.overlayRows)
}
