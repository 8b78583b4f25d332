package terminal

// Pre-allocated ANSI sequence fragments (avoid allocations during emission)
var (
	// CSI sequences
	csi      = []byte("\x1b[")
	csiRIS   = []byte("\x1bc") // Reset to Initial State (emergency)
	csiSGR0  = []byte("\x1b[0m")
	csiClear = []byte("\x1b[2J\x1b[H")

	// Cursor control
	csiCursorHide = []byte("\x1b[?25l")
	csiCursorShow = []byte("\x1b[?25h")

	// Screen modes
	csiAltScreenEnter = []byte("\x1b[?1049h")
	csiAltScreenExit  = []byte("\x1b[?1049l")
	// DECAWM: Auto-Wrap Mode
	// ?7l disables wrapping (cursor sticks at right edge), preventing scroll when writing to bottom-right corner
	csiAutoWrapOn  = []byte("\x1b[?7h")
	csiAutoWrapOff = []byte("\x1b[?7l")

	// Color prefixes
	csiFg256     = []byte("\x1b[38;5;") // followed by N;m
	csiFgRGB     = []byte("\x1b[38;2;") // followed by R;G;B;m
	csiDefaultFg = []byte("\x1b[39m")

	// Mouse reporting (xterm private modes)
	// 1000: press/release, 1002: press/release + drag, 1003: all motion
	// 1006: SGR extended coordinates, required for terminals wider than 223 cols
	csiMouseClickOn   = []byte("\x1b[?1000h")
	csiMouseClickOff  = []byte("\x1b[?1000l")
	csiMouseDragOn    = []byte("\x1b[?1002h")
	csiMouseDragOff   = []byte("\x1b[?1002l")
	csiMouseMotionOn  = []byte("\x1b[?1003h")
	csiMouseMotionOff = []byte("\x1b[?1003l")
	csiMouseSGROn     = []byte("\x1b[?1006h")
	csiMouseSGROff    = []byte("\x1b[?1006l")
)

// appendInt appends a non-negative integer without allocation
// Optimized for terminal values (0-255 common, 0-999 typical max)
func appendInt(b []byte, n int) []byte {
	if n < 0 {
		n = 0
	}
	if n < 10 {
		return append(b, byte(n)+'0')
	}
	if n < 100 {
		return append(b, byte(n/10)+'0', byte(n%10)+'0')
	}
	if n < 1000 {
		return append(b, byte(n/100)+'0', byte(n/10%10)+'0', byte(n%10)+'0')
	}
	// Fallback for >999 (rare)
	var buf [5]byte
	i := 4
	for n > 0 {
		buf[i] = byte(n%10) + '0'
		n /= 10
		i--
	}
	return append(b, buf[i+1:]...)
}

// AppendCursorPos appends a cursor positioning sequence (0-indexed input)
func AppendCursorPos(b []byte, x, y int) []byte {
	b = append(b, csi...)
	b = appendInt(b, y+1)
	b = append(b, ';')
	b = appendInt(b, x+1)
	return append(b, 'H')
}

// AppendFg appends a foreground color sequence for the given color mode
func AppendFg(b []byte, fg RGB, mode ColorMode) []byte {
	if mode == ColorModeTrueColor {
		b = append(b, csiFgRGB...)
		b = appendInt(b, int(fg.R))
		b = append(b, ';')
		b = appendInt(b, int(fg.G))
		b = append(b, ';')
		b = appendInt(b, int(fg.B))
		return append(b, 'm')
	}
	b = append(b, csiFg256...)
	b = appendInt(b, int(RGBTo256(fg)))
	return append(b, 'm')
}

// AppendDefaultFg appends the default foreground color sequence
func AppendDefaultFg(b []byte) []byte {
	return append(b, csiDefaultFg...)
}

// AppendReset appends a full style reset sequence
func AppendReset(b []byte) []byte {
	return append(b, csiSGR0...)
}
