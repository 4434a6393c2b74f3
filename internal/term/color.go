package term

// ColorKind discriminates the variants of Color.
type ColorKind uint8

const (
	// ColorDefault means "the terminal's default foreground/background",
	// not a specific RGB value.
	ColorDefault ColorKind = iota
	ColorIndexed
	ColorRGB
)

// Color is a tagged variant over the three ways a cell's foreground or
// background can be specified (spec §3): Default, a 0-255 palette index,
// or a direct RGB triple. It is kept small and comparable so Cell stays
// packable and diffable by value.
type Color struct {
	Kind ColorKind
	V    [3]uint8 // Indexed: V[0] is the palette index. RGB: V[0..2] = r,g,b.
}

// DefaultColor is the zero-value Color, meaning "terminal default".
var DefaultColor = Color{Kind: ColorDefault}

// Indexed builds a Color selecting palette entry idx (0-255).
func Indexed(idx uint8) Color {
	return Color{Kind: ColorIndexed, V: [3]uint8{idx, 0, 0}}
}

// RGB builds a direct-color Color.
func RGB(r, g, b uint8) Color {
	return Color{Kind: ColorRGB, V: [3]uint8{r, g, b}}
}

// Index returns the palette index for an Indexed color (0 otherwise).
func (c Color) Index() uint8 { return c.V[0] }

// RGBValues returns the r, g, b components for an RGB color (0,0,0 otherwise).
func (c Color) RGBValues() (r, g, b uint8) { return c.V[0], c.V[1], c.V[2] }

// cubeStops are the six intensity levels used by the 16-231 color cube
// (spec §3: "stops {0, 95, 135, 175, 215, 255}").
var cubeStops = [6]uint8{0, 95, 135, 175, 215, 255}

// ToRGB resolves any Color variant to a concrete 24-bit value, using a
// fixed light grey (229,229,229) foreground or black background for
// ColorDefault and the standard xterm 256-color
// palette rules for ColorIndexed (0-15 fixed ANSI colors, 16-231 the 6x6x6
// cube, 232-255 a grayscale ramp).
func (c Color) ToRGB(isForeground bool) (r, g, b uint8) {
	switch c.Kind {
	case ColorRGB:
		return c.V[0], c.V[1], c.V[2]
	case ColorIndexed:
		return indexedToRGB(c.V[0])
	default:
		if isForeground {
			return 229, 229, 229
		}
		return 0, 0, 0
	}
}

func indexedToRGB(idx uint8) (r, g, b uint8) {
	if idx < 16 {
		return ansi16[idx][0], ansi16[idx][1], ansi16[idx][2]
	}
	if idx < 232 {
		n := idx - 16
		ri := n / 36
		gi := (n % 36) / 6
		bi := n % 6
		return cubeStops[ri], cubeStops[gi], cubeStops[bi]
	}
	level := 8 + (idx-232)*10
	return level, level, level
}

// ansi16 is the fixed ANSI 16-color palette (indices 0-7 normal, 8-15 bright).
var ansi16 = [16][3]uint8{
	{0, 0, 0}, {205, 0, 0}, {0, 205, 0}, {205, 205, 0},
	{0, 0, 238}, {205, 0, 205}, {0, 205, 205}, {229, 229, 229},
	{127, 127, 127}, {255, 0, 0}, {0, 255, 0}, {255, 255, 0},
	{92, 92, 255}, {255, 0, 255}, {0, 255, 255}, {255, 255, 255},
}
