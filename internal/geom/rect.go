package geom

// Rect is an axis-aligned rectangle in points with a bottom-left origin,
// matching PDF user space. X grows right, Y grows up.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// NewRect creates a rectangle from its bottom-left corner and size.
func NewRect(x, y, w, h float64) Rect {
	return Rect{X: x, Y: y, Width: w, Height: h}
}

// Left returns the minimum X coordinate.
func (r Rect) Left() float64 { return r.X }

// Right returns the maximum X coordinate.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the minimum Y coordinate.
func (r Rect) Bottom() float64 { return r.Y }

// Top returns the maximum Y coordinate.
func (r Rect) Top() float64 { return r.Y + r.Height }

// Contains reports whether inner lies entirely within r.
// Shared edges count as contained.
func (r Rect) Contains(inner Rect) bool {
	return inner.Left() >= r.Left()-epsilon &&
		inner.Right() <= r.Right()+epsilon &&
		inner.Bottom() >= r.Bottom()-epsilon &&
		inner.Top() <= r.Top()+epsilon
}

// Intersects reports whether r and other overlap with positive area.
// Touching edges do not intersect.
func (r Rect) Intersects(other Rect) bool {
	return r.Left() < other.Right()-epsilon &&
		other.Left() < r.Right()-epsilon &&
		r.Bottom() < other.Top()-epsilon &&
		other.Bottom() < r.Top()-epsilon
}

// Inset returns a copy of r shrunk by d on every side. A negative d grows
// the rectangle.
func (r Rect) Inset(d float64) Rect {
	return Rect{
		X:      r.X + d,
		Y:      r.Y + d,
		Width:  r.Width - 2*d,
		Height: r.Height - 2*d,
	}
}

// Tolerance for float comparisons; placements computed from the same
// constraint arithmetic land exactly on cell boundaries.
const epsilon = 1e-6
