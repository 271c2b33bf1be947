package engine

import (
	"fmt"
	"iter"
)

// Fixed is a rectangular grid addressable by signed coordinates within a
// fixed inclusive range on each axis. Storage is dense, row by row:
// index = (y-minY)*width + (x-minX).
type Fixed[T any] struct {
	minX, maxX int
	minY, maxY int
	width      int
	height     int
	def        T
	cells      []T
}

// NewFixed allocates a grid covering xRange × yRange filled with def
func NewFixed[T any](def T, xRange, yRange Range) (*Fixed[T], error) {
	if xRange.Min > xRange.Max || yRange.Min > yRange.Max {
		return nil, fmt.Errorf("%w: x[%d,%d] y[%d,%d]", ErrInvalidRange,
			xRange.Min, xRange.Max, yRange.Min, yRange.Max)
	}

	w, okW := rangeLen(xRange.Min, xRange.Max)
	h, okH := rangeLen(yRange.Min, yRange.Max)
	if !okW || !okH {
		return nil, fmt.Errorf("%w: extent of x[%d,%d] y[%d,%d]", ErrCoordinateOverflow,
			xRange.Min, xRange.Max, yRange.Min, yRange.Max)
	}
	area, ok := mulChecked(w, h)
	if !ok {
		return nil, fmt.Errorf("%w: area %dx%d", ErrCoordinateOverflow, w, h)
	}

	cells := make([]T, area)
	for i := range cells {
		cells[i] = def
	}

	return &Fixed[T]{
		minX:   xRange.Min,
		maxX:   xRange.Max,
		minY:   yRange.Min,
		maxY:   yRange.Max,
		width:  w,
		height: h,
		def:    def,
		cells:  cells,
	}, nil
}

func (g *Fixed[T]) MinX() int   { return g.minX }
func (g *Fixed[T]) MaxX() int   { return g.maxX }
func (g *Fixed[T]) MinY() int   { return g.minY }
func (g *Fixed[T]) MaxY() int   { return g.maxY }
func (g *Fixed[T]) Width() int  { return g.width }
func (g *Fixed[T]) Height() int { return g.height }
func (g *Fixed[T]) Default() T  { return g.def }

// Bounds returns the inclusive coordinate rectangle
func (g *Fixed[T]) Bounds() Rect {
	return Rect{MinX: g.minX, MaxX: g.maxX, MinY: g.minY, MaxY: g.maxY}
}

func (g *Fixed[T]) XInBound(x int) bool { return x >= g.minX && x <= g.maxX }
func (g *Fixed[T]) YInBound(y int) bool { return y >= g.minY && y <= g.maxY }

// InBounds reports whether (x,y) maps to a storage cell
func (g *Fixed[T]) InBounds(x, y int) bool {
	return g.XInBound(x) && g.YInBound(y)
}

func (g *Fixed[T]) PointInBound(p Point) bool { return g.InBounds(p.X, p.Y) }

func (g *Fixed[T]) TopLeft() Point     { return Point{X: g.minX, Y: g.maxY} }
func (g *Fixed[T]) TopRight() Point    { return Point{X: g.maxX, Y: g.maxY} }
func (g *Fixed[T]) BottomLeft() Point  { return Point{X: g.minX, Y: g.minY} }
func (g *Fixed[T]) BottomRight() Point { return Point{X: g.maxX, Y: g.minY} }

// Center returns the integer midpoint, rounding toward minus infinity
func (g *Fixed[T]) Center() Point {
	return Point{X: floorMid(g.minX, g.maxX), Y: floorMid(g.minY, g.maxY)}
}

func floorMid(a, b int) int {
	return a + (b-a)/2
}

// index assumes (x,y) is in bounds
func (g *Fixed[T]) index(x, y int) int {
	return (y-g.minY)*g.width + (x - g.minX)
}

// Get returns the value at (x,y)
func (g *Fixed[T]) Get(x, y int) (T, error) {
	if !g.InBounds(x, y) {
		var zero T
		return zero, fmt.Errorf("%w: (%d,%d) not in %s", ErrOutOfBounds, x, y, g.Bounds())
	}
	return g.cells[g.index(x, y)], nil
}

// Set stores v at (x,y)
func (g *Fixed[T]) Set(x, y int, v T) error {
	if !g.InBounds(x, y) {
		return fmt.Errorf("%w: (%d,%d) not in %s", ErrOutOfBounds, x, y, g.Bounds())
	}
	g.cells[g.index(x, y)] = v
	return nil
}

// Points yields every in-bounds coordinate, x outer and y inner
func (g *Fixed[T]) Points() iter.Seq[Point] {
	return func(yield func(Point) bool) {
		for dx := 0; dx < g.width; dx++ {
			for dy := 0; dy < g.height; dy++ {
				if !yield(Point{X: g.minX + dx, Y: g.minY + dy}) {
					return
				}
			}
		}
	}
}

// AreaSquareAround yields in-bounds coordinates within Chebyshev distance r of
// center, center included
func (g *Fixed[T]) AreaSquareAround(center Point, r int) iter.Seq[Point] {
	return func(yield func(Point) bool) {
		if r < 0 {
			return
		}
		x0, x1, ok := clampSpan(center.X, r, g.minX, g.maxX)
		if !ok {
			return
		}
		y0, y1, ok := clampSpan(center.Y, r, g.minY, g.maxY)
		if !ok {
			return
		}
		for dx := 0; dx <= x1-x0; dx++ {
			for dy := 0; dy <= y1-y0; dy++ {
				if !yield(Point{X: x0 + dx, Y: y0 + dy}) {
					return
				}
			}
		}
	}
}

// AreaAround yields in-bounds coordinates within Manhattan distance r of
// center, center included
func (g *Fixed[T]) AreaAround(center Point, r int) iter.Seq[Point] {
	return func(yield func(Point) bool) {
		if r < 0 {
			return
		}
		x0, x1, ok := clampSpan(center.X, r, g.minX, g.maxX)
		if !ok {
			return
		}
		for dx := 0; dx <= x1-x0; dx++ {
			x := x0 + dx
			rem := r - abs(x-center.X)
			y0, y1, ok := clampSpan(center.Y, rem, g.minY, g.maxY)
			if !ok {
				continue
			}
			for dy := 0; dy <= y1-y0; dy++ {
				if !yield(Point{X: x, Y: y0 + dy}) {
					return
				}
			}
		}
	}
}

// ColumnIndexes yields x from minX to maxX
func (g *Fixed[T]) ColumnIndexes() iter.Seq[int] {
	return func(yield func(int) bool) {
		for dx := 0; dx < g.width; dx++ {
			if !yield(g.minX + dx) {
				return
			}
		}
	}
}

// RowIndexes yields y from minY to maxY
func (g *Fixed[T]) RowIndexes() iter.Seq[int] {
	return func(yield func(int) bool) {
		for dy := 0; dy < g.height; dy++ {
			if !yield(g.minY + dy) {
				return
			}
		}
	}
}

// AddGrid copies data so that its first cell lands at (leftX, bottomY).
// The whole target rectangle must fit; otherwise nothing is written.
func (g *Fixed[T]) AddGrid(leftX, bottomY int, data [][]T, axes Axes) error {
	w, h, err := arrayDims(data, axes)
	if err != nil {
		return err
	}
	if w == 0 || h == 0 {
		return nil
	}

	right, okR := addChecked(leftX, w-1)
	top, okT := addChecked(bottomY, h-1)
	if !okR || !okT {
		return fmt.Errorf("%w: %dx%d array at (%d,%d)", ErrCoordinateOverflow, w, h, leftX, bottomY)
	}
	if !g.InBounds(leftX, bottomY) || !g.InBounds(right, top) {
		return fmt.Errorf("%w: %dx%d array at (%d,%d) exceeds %s", ErrOutOfBounds, w, h, leftX, bottomY, g.Bounds())
	}

	for dx := 0; dx < w; dx++ {
		for dy := 0; dy < h; dy++ {
			g.cells[g.index(leftX+dx, bottomY+dy)] = arrayAt(data, axes, dx, dy)
		}
	}
	return nil
}

// ToArray exports the grid as a dense array in the requested axis order.
// Index 0 on each axis corresponds to minX / minY.
func (g *Fixed[T]) ToArray(axes Axes) [][]T {
	outer, inner := g.width, g.height
	if axes == AxesYX {
		outer, inner = g.height, g.width
	}

	out := make([][]T, outer)
	for i := range out {
		out[i] = make([]T, inner)
	}

	for dy := 0; dy < g.height; dy++ {
		row := g.cells[dy*g.width : (dy+1)*g.width]
		for dx, v := range row {
			if axes == AxesYX {
				out[dy][dx] = v
			} else {
				out[dx][dy] = v
			}
		}
	}
	return out
}

// copyFrom copies every cell of src into g at the same coordinates.
// src must lie entirely inside g.
func (g *Fixed[T]) copyFrom(src *Fixed[T]) {
	for dy := 0; dy < src.height; dy++ {
		srcRow := src.cells[dy*src.width : (dy+1)*src.width]
		start := g.index(src.minX, src.minY+dy)
		copy(g.cells[start:start+src.width], srcRow)
	}
}

// clampSpan intersects [c-r, c+r] with [lo, hi], saturating at the int limits
func clampSpan(c, r, lo, hi int) (int, int, bool) {
	from, ok := subChecked(c, r)
	if !ok || from < lo {
		from = lo
	}
	to, ok := addChecked(c, r)
	if !ok || to > hi {
		to = hi
	}
	return from, to, from <= to
}

// arrayDims returns the x and y extents of a rectangular dense array
func arrayDims[T any](data [][]T, axes Axes) (int, int, error) {
	if len(data) == 0 {
		return 0, 0, nil
	}
	inner := len(data[0])
	for i, row := range data {
		if len(row) != inner {
			return 0, 0, fmt.Errorf("%w: row %d has %d cells, want %d", ErrRaggedArray, i, len(row), inner)
		}
	}
	if axes == AxesYX {
		return inner, len(data), nil
	}
	return len(data), inner, nil
}

func arrayAt[T any](data [][]T, axes Axes, dx, dy int) T {
	if axes == AxesYX {
		return data[dy][dx]
	}
	return data[dx][dy]
}
