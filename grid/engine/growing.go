package engine

import (
	"fmt"
	"iter"
)

// Option configures a Growing grid
type Option func(*growingOptions)

type growingOptions struct {
	growsOnRead  bool
	growsOnWrite bool
	counts       GrowthCounts
}

// WithGrowsOnRead controls whether Get expands the grid. When disabled, reading
// outside the bounds returns ErrOutOfBounds.
func WithGrowsOnRead(on bool) Option {
	return func(o *growingOptions) { o.growsOnRead = on }
}

// WithGrowsOnWrite controls whether Set expands the grid. When disabled, writing
// outside the bounds returns ErrOutOfBounds.
func WithGrowsOnWrite(on bool) Option {
	return func(o *growingOptions) { o.growsOnWrite = on }
}

// WithGrowthCounts seeds the direction counters, used when restoring a grid
func WithGrowthCounts(c GrowthCounts) Option {
	return func(o *growingOptions) { o.counts = c }
}

// Growing wraps a Fixed grid and replaces it with a larger one whenever an
// access lands outside the current bounds. Values are preserved across
// replacements and coordinates stay absolute.
//
// A Growing is not safe for concurrent use.
type Growing[T any] struct {
	def          T
	increment    int
	growsOnRead  bool
	growsOnWrite bool
	counts       GrowthCounts

	grid *Fixed[T]

	listeners []*listener[T]
}

type listener[T any] struct {
	fn func(GrowthEvent[T])
}

// NewGrowing creates a grid covering xRange × yRange filled with def
func NewGrowing[T any](def T, xRange, yRange Range, increment int, opts ...Option) (*Growing[T], error) {
	if increment <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidGrowthIncrement, increment)
	}

	grid, err := NewFixed(def, xRange, yRange)
	if err != nil {
		return nil, err
	}

	o := growingOptions{growsOnRead: true, growsOnWrite: true}
	for _, opt := range opts {
		opt(&o)
	}

	return &Growing[T]{
		def:          def,
		increment:    increment,
		growsOnRead:  o.growsOnRead,
		growsOnWrite: o.growsOnWrite,
		counts:       o.counts,
		grid:         grid,
	}, nil
}

// NewGrowingFromArray infers the initial range from data, anchored at (0,0),
// and copies data into it
func NewGrowingFromArray[T any](def T, data [][]T, axes Axes, increment int, opts ...Option) (*Growing[T], error) {
	w, h, err := arrayDims(data, axes)
	if err != nil {
		return nil, err
	}
	if w == 0 || h == 0 {
		return nil, ErrEmptyArray
	}

	g, err := NewGrowing(def, Range{Min: 0, Max: w - 1}, Range{Min: 0, Max: h - 1}, increment, opts...)
	if err != nil {
		return nil, err
	}
	if err := g.AddGrid(0, 0, data, axes); err != nil {
		return nil, err
	}
	return g, nil
}

// Get returns the value at (x,y), growing first when reads may grow
func (g *Growing[T]) Get(x, y int) (T, error) {
	if g.growsOnRead {
		if err := g.growIfNeeded(x, y); err != nil {
			var zero T
			return zero, err
		}
	}
	return g.grid.Get(x, y)
}

// Set stores v at (x,y), growing first when writes may grow
func (g *Growing[T]) Set(x, y int, v T) error {
	if g.growsOnWrite {
		if err := g.growIfNeeded(x, y); err != nil {
			return err
		}
	}
	return g.grid.Set(x, y, v)
}

// GetPoint is Get for a Point
func (g *Growing[T]) GetPoint(p Point) (T, error) { return g.Get(p.X, p.Y) }

// SetPoint is Set for a Point
func (g *Growing[T]) SetPoint(p Point, v T) error { return g.Set(p.X, p.Y, v) }

// PlanGrowth computes the expansion an access at (x,y) would trigger without
// applying it. Each overshooting side is extended by the smallest multiple of
// the growth increment that covers the overshoot.
func (g *Growing[T]) PlanGrowth(x, y int) (Growth, error) {
	from := g.grid.Bounds()
	plan := Growth{From: from, To: from}

	var err error
	if x < from.MinX {
		if plan.Left, err = g.extension(from.MinX, x); err != nil {
			return Growth{}, err
		}
	}
	if x > from.MaxX {
		if plan.Right, err = g.extension(x, from.MaxX); err != nil {
			return Growth{}, err
		}
	}
	if y < from.MinY {
		if plan.Down, err = g.extension(from.MinY, y); err != nil {
			return Growth{}, err
		}
	}
	if y > from.MaxY {
		if plan.Up, err = g.extension(y, from.MaxY); err != nil {
			return Growth{}, err
		}
	}

	var okL, okR, okD, okU bool
	plan.To.MinX, okL = subChecked(from.MinX, plan.Left)
	plan.To.MaxX, okR = addChecked(from.MaxX, plan.Right)
	plan.To.MinY, okD = subChecked(from.MinY, plan.Down)
	plan.To.MaxY, okU = addChecked(from.MaxY, plan.Up)
	if !okL || !okR || !okD || !okU {
		return Growth{}, fmt.Errorf("%w: growing %s to reach (%d,%d)", ErrCoordinateOverflow, from, x, y)
	}
	return plan, nil
}

// extension rounds the distance far-near up to the growth increment
func (g *Growing[T]) extension(far, near int) (int, error) {
	overshoot, ok := subChecked(far, near)
	if !ok {
		return 0, fmt.Errorf("%w: distance from %d to %d", ErrCoordinateOverflow, near, far)
	}
	ext, ok := roundUpTo(overshoot, g.increment)
	if !ok {
		return 0, fmt.Errorf("%w: extension %d rounded to %d", ErrCoordinateOverflow, overshoot, g.increment)
	}
	return ext, nil
}

func (g *Growing[T]) growIfNeeded(x, y int) error {
	if g.grid.InBounds(x, y) {
		return nil
	}
	plan, err := g.PlanGrowth(x, y)
	if err != nil {
		return err
	}
	return g.grow(plan)
}

// grow performs one combined reallocation for all directions in plan
func (g *Growing[T]) grow(plan Growth) error {
	next, err := NewFixed(g.def,
		Range{Min: plan.To.MinX, Max: plan.To.MaxX},
		Range{Min: plan.To.MinY, Max: plan.To.MaxY})
	if err != nil {
		return err
	}
	next.copyFrom(g.grid)
	g.grid = next

	if plan.Left > 0 {
		g.counts.Left++
	}
	if plan.Right > 0 {
		g.counts.Right++
	}
	if plan.Down > 0 {
		g.counts.Down++
	}
	if plan.Up > 0 {
		g.counts.Up++
	}

	g.notify(GrowthEvent[T]{Grid: g, Up: plan.Up, Right: plan.Right, Down: plan.Down, Left: plan.Left})
	return nil
}

// Subscribe registers fn to be called synchronously after every growth.
// The returned func removes the registration.
func (g *Growing[T]) Subscribe(fn func(GrowthEvent[T])) (unsubscribe func()) {
	l := &listener[T]{fn: fn}
	g.listeners = append(g.listeners, l)
	return func() {
		for i, cur := range g.listeners {
			if cur == l {
				g.listeners = append(g.listeners[:i:i], g.listeners[i+1:]...)
				return
			}
		}
	}
}

func (g *Growing[T]) notify(ev GrowthEvent[T]) {
	// snapshot so listeners may unsubscribe while being notified
	ls := append([]*listener[T](nil), g.listeners...)
	for _, l := range ls {
		l.fn(ev)
	}
}

// AddGrid copies data into the current grid. It never grows: the target
// rectangle must already be in bounds.
func (g *Growing[T]) AddGrid(leftX, bottomY int, data [][]T, axes Axes) error {
	return g.grid.AddGrid(leftX, bottomY, data, axes)
}

// Default returns the fill value for new cells
func (g *Growing[T]) Default() T { return g.def }

// Increment returns the growth granularity
func (g *Growing[T]) Increment() int { return g.increment }

// GrowsOnRead reports whether reads outside the bounds grow the grid
func (g *Growing[T]) GrowsOnRead() bool { return g.growsOnRead }

// GrowsOnWrite reports whether writes outside the bounds grow the grid
func (g *Growing[T]) GrowsOnWrite() bool { return g.growsOnWrite }

// Growth returns the per-direction growth event counters
func (g *Growing[T]) Growth() GrowthCounts { return g.counts }

// GrowthTimesUp counts growth events toward +y
func (g *Growing[T]) GrowthTimesUp() uint { return g.counts.Up }

// GrowthTimesRight counts growth events toward +x
func (g *Growing[T]) GrowthTimesRight() uint { return g.counts.Right }

// GrowthTimesDown counts growth events toward -y
func (g *Growing[T]) GrowthTimesDown() uint { return g.counts.Down }

// GrowthTimesLeft counts growth events toward -x
func (g *Growing[T]) GrowthTimesLeft() uint { return g.counts.Left }

// GrowthTimes counts growth events over all directions
func (g *Growing[T]) GrowthTimes() uint { return g.counts.Total() }

// Bounds returns the current inclusive extent
func (g *Growing[T]) Bounds() Rect { return g.grid.Bounds() }

// MinX, MaxX, MinY and MaxY return the current inclusive bounds
func (g *Growing[T]) MinX() int { return g.grid.MinX() }
func (g *Growing[T]) MaxX() int { return g.grid.MaxX() }
func (g *Growing[T]) MinY() int { return g.grid.MinY() }
func (g *Growing[T]) MaxY() int { return g.grid.MaxY() }

// The backing grid is replaced wholesale, so the used extent is the allocated one.
func (g *Growing[T]) UsedMinX() int { return g.grid.MinX() }
func (g *Growing[T]) UsedMaxX() int { return g.grid.MaxX() }
func (g *Growing[T]) UsedMinY() int { return g.grid.MinY() }
func (g *Growing[T]) UsedMaxY() int { return g.grid.MaxY() }

// FullWidth and FullHeight return the number of columns and rows
func (g *Growing[T]) FullWidth() int  { return g.grid.Width() }
func (g *Growing[T]) FullHeight() int { return g.grid.Height() }
func (g *Growing[T]) UsedWidth() int  { return g.grid.Width() }
func (g *Growing[T]) UsedHeight() int { return g.grid.Height() }

// Corners: TopLeft is (MinX, MaxY), BottomRight is (MaxX, MinY)
func (g *Growing[T]) TopLeft() Point     { return g.grid.TopLeft() }
func (g *Growing[T]) TopRight() Point    { return g.grid.TopRight() }
func (g *Growing[T]) BottomLeft() Point  { return g.grid.BottomLeft() }
func (g *Growing[T]) BottomRight() Point { return g.grid.BottomRight() }

// Center returns the integer midpoint, floored
func (g *Growing[T]) Center() Point { return g.grid.Center() }

// Containment checks never grow the grid
func (g *Growing[T]) XInBound(x int) bool       { return g.grid.XInBound(x) }
func (g *Growing[T]) YInBound(y int) bool       { return g.grid.YInBound(y) }
func (g *Growing[T]) InBounds(x, y int) bool    { return g.grid.InBounds(x, y) }
func (g *Growing[T]) PointInBound(p Point) bool { return g.grid.PointInBound(p) }

// Points yields every in-bounds coordinate, x outer; the index iterators
// run ascending
func (g *Growing[T]) Points() iter.Seq[Point]      { return g.grid.Points() }
func (g *Growing[T]) ColumnIndexes() iter.Seq[int] { return g.grid.ColumnIndexes() }
func (g *Growing[T]) RowIndexes() iter.Seq[int]    { return g.grid.RowIndexes() }

// ToArray exports the current grid; index 0 on each axis is MinX / MinY
func (g *Growing[T]) ToArray(axes Axes) [][]T { return g.grid.ToArray(axes) }

// AreaSquareAround yields in-bounds points within Chebyshev distance r
func (g *Growing[T]) AreaSquareAround(center Point, r int) iter.Seq[Point] {
	return g.grid.AreaSquareAround(center, r)
}

// AreaAround yields in-bounds points within Manhattan distance r
func (g *Growing[T]) AreaAround(center Point, r int) iter.Seq[Point] {
	return g.grid.AreaAround(center, r)
}
