package muxtree

// Rect is a (x, y, width, height) region in cell coordinates.
type Rect struct {
	X, Y, Width, Height int
}

// SplitHorizontal divides r into a left and right rect at ratio, reserving
// one border column between them (spec §3). ok is false if either side
// would end up with width < 1.
func (r Rect) SplitHorizontal(ratio float64) (left, right Rect, ok bool) {
	leftW := int(float64(r.Width) * ratio)
	rightW := r.Width - leftW - 1
	if leftW < 1 || rightW < 1 {
		return Rect{}, Rect{}, false
	}
	left = Rect{X: r.X, Y: r.Y, Width: leftW, Height: r.Height}
	right = Rect{X: r.X + leftW + 1, Y: r.Y, Width: rightW, Height: r.Height}
	return left, right, true
}

// SplitVertical divides r into a top and bottom rect, reserving one border
// row between them.
func (r Rect) SplitVertical(ratio float64) (top, bottom Rect, ok bool) {
	topH := int(float64(r.Height) * ratio)
	bottomH := r.Height - topH - 1
	if topH < 1 || bottomH < 1 {
		return Rect{}, Rect{}, false
	}
	top = Rect{X: r.X, Y: r.Y, Width: r.Width, Height: topH}
	bottom = Rect{X: r.X, Y: r.Y + topH + 1, Width: r.Width, Height: bottomH}
	return top, bottom, true
}
