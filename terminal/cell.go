package terminal

// Cell represents a single terminal cell.
// The zero value is a blank cell: rune 0 renders as a space in the
// terminal's default foreground color.
type Cell struct {
	Rune  rune
	Fg    RGB
	HasFg bool // false = terminal default foreground
}

// Blank is the empty cell value.
var Blank = Cell{}

// Equal reports whether two cells would render identically.
// Blank runes compare equal regardless of color since no glyph is visible.
func (c Cell) Equal(other Cell) bool {
	if blankRune(c.Rune) && blankRune(other.Rune) {
		return true
	}
	if c.Rune != other.Rune {
		return false
	}
	if c.HasFg != other.HasFg {
		return false
	}
	if !c.HasFg {
		return true
	}
	return c.Fg == other.Fg
}

// blankRune reports whether a rune renders as empty space
func blankRune(r rune) bool {
	return r == 0 || r == ' '
}
