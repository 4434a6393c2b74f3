package term

// Attrs is a bitset of the SGR rendering attributes a Cell can carry.
type Attrs uint16

const (
	AttrBold Attrs = 1 << iota
	AttrDim
	AttrItalic
	AttrUnderline
	AttrBlink
	AttrInverse
	AttrInvisible
	AttrStrikethrough
	// attrContinuation marks the trailing cell of a wide glyph. It is an
	// internal bookkeeping bit, not part of the SGR attribute set.
	attrContinuation
)

// Cell is a single glyph position: rune, foreground/background color,
// attribute bitset, and display width. Kept at or near 16 bytes per the
// data model so a full grid stays cheap to diff and copy.
type Cell struct {
	Rune  rune
	Fg    Color
	Bg    Color
	Attrs Attrs
	Width uint8
}

// BlankCell is a default space cell with the given SGR template applied;
// used to fill rows created by scrolling, clearing, or resize.
func BlankCell(fg, bg Color, attrs Attrs) Cell {
	return Cell{Rune: ' ', Fg: fg, Bg: bg, Attrs: attrs & sgrAttrsMask, Width: 1}
}

// sgrAttrsMask excludes internal bookkeeping bits from attributes a blank
// template or SGR dispatch is allowed to set directly.
const sgrAttrsMask = AttrBold | AttrDim | AttrItalic | AttrUnderline |
	AttrBlink | AttrInverse | AttrInvisible | AttrStrikethrough

// IsContinuation reports whether this cell is the trailing half of a wide
// glyph placed in the preceding column.
func (c Cell) IsContinuation() bool { return c.Attrs&attrContinuation != 0 }

// Has reports whether all bits of mask are set.
func (a Attrs) Has(mask Attrs) bool { return a&mask == mask }
