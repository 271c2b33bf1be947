package engine

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidGrowthIncrement = errors.New("growth increment must be positive")
	ErrInvalidRange           = errors.New("range min must not exceed max")
	ErrOutOfBounds            = errors.New("coordinate out of bounds")
	ErrCoordinateOverflow     = errors.New("coordinate arithmetic overflows int")
	ErrEmptyArray             = errors.New("dense array must have at least one cell")
	ErrRaggedArray            = errors.New("dense array rows must have equal length")
)

// Axes selects how a dense [][]T is interpreted
type Axes int

const (
	// AxesXY means data[x][y]
	AxesXY Axes = iota
	// AxesYX means data[y][x], the natural layout for text rows
	AxesYX
)

func (a Axes) String() string {
	switch a {
	case AxesXY:
		return "xy"
	case AxesYX:
		return "yx"
	default:
		return fmt.Sprintf("Axes(%d)", int(a))
	}
}

// ParseAxes accepts "xy" or "yx"
func ParseAxes(s string) (Axes, error) {
	switch s {
	case "xy", "XY":
		return AxesXY, nil
	case "yx", "YX", "":
		return AxesYX, nil
	}
	return 0, fmt.Errorf("unknown axes %q (want xy or yx)", s)
}

// Point represents x,y coordinates
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns p translated by q
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Range is an inclusive [Min, Max] interval on one axis
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// NewRange builds a Range, rejecting Min > Max
func NewRange(min, max int) (Range, error) {
	if min > max {
		return Range{}, fmt.Errorf("%w: [%d,%d]", ErrInvalidRange, min, max)
	}
	return Range{Min: min, Max: max}, nil
}

// Len returns the number of integers in the range
func (r Range) Len() int {
	return r.Max - r.Min + 1
}

// Contains reports whether v lies in the range
func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// Rect is an inclusive rectangle of coordinates
type Rect struct {
	MinX int `json:"min_x"`
	MaxX int `json:"max_x"`
	MinY int `json:"min_y"`
	MaxY int `json:"max_y"`
}

func (r Rect) Width() int  { return r.MaxX - r.MinX + 1 }
func (r Rect) Height() int { return r.MaxY - r.MinY + 1 }
func (r Rect) Area() int   { return r.Width() * r.Height() }

// Contains reports whether p lies inside r
func (r Rect) Contains(p Point) bool {
	return p.X >= r.MinX && p.X <= r.MaxX && p.Y >= r.MinY && p.Y <= r.MaxY
}

func (r Rect) String() string {
	return fmt.Sprintf("x[%d,%d] y[%d,%d]", r.MinX, r.MaxX, r.MinY, r.MaxY)
}

// GrowthCounts counts growth events per direction, not cells added.
// Up is +y, Down is -y.
type GrowthCounts struct {
	Up    uint `json:"up"`
	Right uint `json:"right"`
	Down  uint `json:"down"`
	Left  uint `json:"left"`
}

// Total returns the sum over all four directions
func (c GrowthCounts) Total() uint {
	return c.Up + c.Right + c.Down + c.Left
}

// Growth describes one planned or applied expansion
type Growth struct {
	Up    int  `json:"up"`
	Right int  `json:"right"`
	Down  int  `json:"down"`
	Left  int  `json:"left"`
	From  Rect `json:"from"`
	To    Rect `json:"to"`
}

// Needed reports whether any direction has a positive extension
func (g Growth) Needed() bool {
	return g.Up > 0 || g.Right > 0 || g.Down > 0 || g.Left > 0
}

// GrowthEvent is delivered to subscribers after the backing grid was replaced
type GrowthEvent[T any] struct {
	Grid  *Growing[T]
	Up    int
	Right int
	Down  int
	Left  int
}
