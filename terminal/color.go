package terminal

import (
	"os"
	"strings"
)

// ColorMode indicates terminal color capability
type ColorMode uint8

const (
	ColorMode256       ColorMode = iota // xterm-256 palette
	ColorModeTrueColor                  // 24-bit RGB
)

// String returns the mode name as used in config and flags
func (m ColorMode) String() string {
	if m == ColorModeTrueColor {
		return "truecolor"
	}
	return "256"
}

// RGB represents a 24-bit color
type RGB struct {
	R, G, B uint8
}

// RGBBlack is the zero value black color
var RGBBlack = RGB{0, 0, 0}

// Equal returns true if colors match
func (c RGB) Equal(other RGB) bool {
	return c.R == other.R && c.G == other.G && c.B == other.B
}

// ClampRGB builds an RGB from int channels, clamping each to [0, 255].
// Color math in patterns and themes overshoots freely and clamps here.
func ClampRGB(r, g, b int) RGB {
	return RGB{clampChannel(r), clampChannel(g), clampChannel(b)}
}

func clampChannel(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// Scale multiplies each channel by f, clamped to [0, 255]
func (c RGB) Scale(f float64) RGB {
	return ClampRGB(int(float64(c.R)*f), int(float64(c.G)*f), int(float64(c.B)*f))
}

// Color cube values for 6x6x6 palette (indices 16-231)
// Levels: 0, 95, 135, 175, 215, 255
var cubeValues = [6]uint8{0, 95, 135, 175, 215, 255}

// cubeIndex maps 0-255 to nearest cube index 0-5
// Pre-computed at init time
var cubeIndex [256]uint8

// grayscaleStart is the first grayscale index (232-255 = 24 shades)
const grayscaleStart = 232

func init() {
	for i := 0; i < 256; i++ {
		best := 0
		bestDist := abs(i - int(cubeValues[0]))
		for j := 1; j < 6; j++ {
			d := abs(i - int(cubeValues[j]))
			if d < bestDist {
				bestDist = d
				best = j
			}
		}
		cubeIndex[i] = uint8(best)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// RGBTo256 finds the nearest 256-color palette index for an RGB value
func RGBTo256(c RGB) uint8 {
	r, g, b := c.R, c.G, c.B

	// Check if grayscale is a better match (when r ≈ g ≈ b)
	// Grayscale ramp: 232-255 maps to luminance 8, 18, 28, ..., 238
	gray := (int(r) + int(g) + int(b)) / 3
	maxDiff := max(abs(int(r)-gray), abs(int(g)-gray), abs(int(b)-gray))

	if maxDiff < 10 {
		if gray < 4 {
			return 16 // Cube black beats first gray (luminance 8)
		}
		if gray > 243 {
			return 231 // Cube white beats last gray (luminance 238)
		}
		grayIdx := grayscaleStart + (gray-8)/10
		if grayIdx > 255 {
			grayIdx = 255
		}

		// Compare grayscale match vs color cube match
		grayLevel := 8 + (grayIdx-grayscaleStart)*10
		grayDist := abs(int(r)-grayLevel) + abs(int(g)-grayLevel) + abs(int(b)-grayLevel)

		cubeR := cubeIndex[r]
		cubeG := cubeIndex[g]
		cubeB := cubeIndex[b]
		cubeDist := abs(int(r)-int(cubeValues[cubeR])) +
			abs(int(g)-int(cubeValues[cubeG])) +
			abs(int(b)-int(cubeValues[cubeB]))

		if grayDist < cubeDist {
			return uint8(grayIdx)
		}
	}

	// Use color cube
	return 16 + 36*cubeIndex[r] + 6*cubeIndex[g] + cubeIndex[b]
}

// DetectColorMode determines terminal color capability from environment
func DetectColorMode() ColorMode {
	// COLORTERM is the highest priority signal, set by modern terminals
	colorterm := os.Getenv("COLORTERM")
	if colorterm == "truecolor" || colorterm == "24bit" {
		return ColorModeTrueColor
	}

	// Terminal-specific env vars
	if os.Getenv("KITTY_WINDOW_ID") != "" ||
		os.Getenv("KONSOLE_VERSION") != "" ||
		os.Getenv("ITERM_SESSION_ID") != "" ||
		os.Getenv("ALACRITTY_WINDOW_ID") != "" ||
		os.Getenv("ALACRITTY_LOG") != "" ||
		os.Getenv("WEZTERM_PANE") != "" {
		return ColorModeTrueColor
	}

	// TERM values advertising direct color
	term := strings.ToLower(os.Getenv("TERM"))
	if strings.Contains(term, "truecolor") ||
		strings.Contains(term, "24bit") ||
		strings.Contains(term, "direct") {
		return ColorModeTrueColor
	}

	return ColorMode256
}
