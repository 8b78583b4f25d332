package terminal

// Named TrueColor values used by themes and the HUD.
//
// Naming: standard color names where RGB closely matches (CSS, X11,
// Pantone-adjacent), descriptive compound names otherwise. Ordered
// dark-to-light within each hue group.

var (
	// --- Achromatic ---
	Black     = RGB{0, 0, 0}
	Obsidian  = RGB{20, 20, 30} // Blue-black
	Gunmetal  = RGB{26, 27, 38} // Blue-tinted near-black
	DimGray   = RGB{55, 55, 55}
	IronGray  = RGB{80, 80, 80}
	Gray      = RGB{120, 120, 120}
	DimSilver = RGB{155, 155, 155}
	Silver    = RGB{180, 180, 180}
	LightGray = RGB{200, 200, 200}
	White     = RGB{255, 255, 255}

	// --- Red / Orange / Yellow ---
	Oxblood     = RGB{100, 20, 20}
	BrightRed   = RGB{255, 60, 60}
	FlameOrange = RGB{240, 100, 30}
	Amber       = RGB{180, 120, 0}
	Gold        = RGB{255, 215, 0}
	Cream       = RGB{255, 255, 200}

	// --- Green ---
	BlackGreen   = RGB{0, 40, 0}
	DeepForest   = RGB{25, 80, 35}
	DarkGreen    = RGB{15, 130, 15}
	EmeraldGreen = RGB{60, 220, 100}
	NeonGreen    = RGB{50, 255, 50}
	PaleMint     = RGB{150, 255, 180}

	// --- Cyan / Blue ---
	Cyan       = RGB{0, 255, 255}
	SkyTeal    = RGB{80, 200, 220}
	IceCyan    = RGB{240, 255, 255}
	DeepNavy   = RGB{15, 25, 50}
	NavyBlue   = RGB{30, 60, 120}
	DodgerBlue = RGB{40, 180, 255}

	// --- Purple / Pink ---
	DeepPurple     = RGB{60, 20, 80}
	DarkViolet     = RGB{120, 40, 180}
	ElectricViolet = RGB{180, 130, 255}
	HotMagenta     = RGB{255, 60, 200}
)
