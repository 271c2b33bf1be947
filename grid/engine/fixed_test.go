package engine

import (
	"math"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(seq func(func(Point) bool)) []Point {
	var out []Point
	seq(func(p Point) bool {
		out = append(out, p)
		return true
	})
	return out
}

func TestNewFixed_DefaultFill(t *testing.T) {
	g, err := NewFixed('.', Range{Min: -2, Max: 1}, Range{Min: 3, Max: 4})
	require.NoError(t, err)

	assert.Equal(t, 4, g.Width())
	assert.Equal(t, 2, g.Height())
	for p := range g.Points() {
		v, err := g.Get(p.X, p.Y)
		require.NoError(t, err)
		assert.Equal(t, '.', v)
	}
}

func TestNewFixed_Overflow(t *testing.T) {
	_, err := NewFixed(0, Range{Min: math.MinInt, Max: math.MaxInt}, Range{Min: 0, Max: 0})
	assert.ErrorIs(t, err, ErrCoordinateOverflow)

	_, err = NewFixed(0, Range{Min: 0, Max: math.MaxInt / 2}, Range{Min: 0, Max: 4})
	assert.ErrorIs(t, err, ErrCoordinateOverflow)
}

func TestFixed_GetSetOutOfBounds(t *testing.T) {
	g, err := NewFixed(0, Range{Min: 0, Max: 2}, Range{Min: 0, Max: 2})
	require.NoError(t, err)

	_, err = g.Get(3, 0)
	assert.ErrorIs(t, err, ErrOutOfBounds)
	assert.ErrorIs(t, g.Set(0, -1, 1), ErrOutOfBounds)

	require.NoError(t, g.Set(2, 2, 8))
	v, err := g.Get(2, 2)
	require.NoError(t, err)
	assert.Equal(t, 8, v)
}

func TestFixed_Corners(t *testing.T) {
	g, err := NewFixed(0, Range{Min: -3, Max: 2}, Range{Min: -1, Max: 4})
	require.NoError(t, err)

	assert.Equal(t, Point{X: -3, Y: 4}, g.TopLeft())
	assert.Equal(t, Point{X: 2, Y: 4}, g.TopRight())
	assert.Equal(t, Point{X: -3, Y: -1}, g.BottomLeft())
	assert.Equal(t, Point{X: 2, Y: -1}, g.BottomRight())
	assert.Equal(t, Point{X: -1, Y: 1}, g.Center())
}

func TestFixed_PointsOrder(t *testing.T) {
	g, err := NewFixed(0, Range{Min: 0, Max: 1}, Range{Min: 5, Max: 6})
	require.NoError(t, err)

	want := []Point{{0, 5}, {0, 6}, {1, 5}, {1, 6}}
	if diff := cmp.Diff(want, collect(g.Points())); diff != "" {
		t.Errorf("Points mismatch (-want +got):\n%s", diff)
	}
}

func TestFixed_PointsStopsEarly(t *testing.T) {
	g, err := NewFixed(0, Range{Min: 0, Max: 9}, Range{Min: 0, Max: 9})
	require.NoError(t, err)

	n := 0
	for range g.Points() {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}

func TestFixed_AreaSquareAround(t *testing.T) {
	g, err := NewFixed(0, Range{Min: 0, Max: 4}, Range{Min: 0, Max: 4})
	require.NoError(t, err)

	tests := []struct {
		name   string
		center Point
		r      int
		want   int
	}{
		{"interior", Point{2, 2}, 1, 9},
		{"radius zero", Point{2, 2}, 0, 1},
		{"corner clipped", Point{0, 0}, 1, 4},
		{"whole grid", Point{2, 2}, 10, 25},
		{"negative radius", Point{2, 2}, -1, 0},
		{"center outside", Point{-5, -5}, 1, 0},
		{"huge radius", Point{2, 2}, math.MaxInt, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pts := collect(g.AreaSquareAround(tt.center, tt.r))
			assert.Len(t, pts, tt.want)
			for _, p := range pts {
				assert.True(t, g.PointInBound(p))
				assert.LessOrEqual(t, ChebyshevDistance(p, tt.center), tt.r)
			}
		})
	}
}

func TestFixed_AreaAround(t *testing.T) {
	g, err := NewFixed(0, Range{Min: 0, Max: 4}, Range{Min: 0, Max: 4})
	require.NoError(t, err)

	pts := collect(g.AreaAround(Point{2, 2}, 1))
	want := []Point{{1, 2}, {2, 1}, {2, 2}, {2, 3}, {3, 2}}
	if diff := cmp.Diff(want, pts); diff != "" {
		t.Errorf("AreaAround mismatch (-want +got):\n%s", diff)
	}

	pts = collect(g.AreaAround(Point{0, 0}, 2))
	assert.Len(t, pts, 6)
	assert.True(t, slices.Contains(pts, Point{0, 0}))
	for _, p := range pts {
		assert.LessOrEqual(t, ManhattanDistance(p, Point{0, 0}), 2)
	}

	assert.Empty(t, collect(g.AreaAround(Point{2, 2}, -3)))
}

func TestFixed_ColumnAndRowIndexes(t *testing.T) {
	g, err := NewFixed(0, Range{Min: -1, Max: 1}, Range{Min: 10, Max: 11})
	require.NoError(t, err)

	assert.Equal(t, []int{-1, 0, 1}, slices.Collect(g.ColumnIndexes()))
	assert.Equal(t, []int{10, 11}, slices.Collect(g.RowIndexes()))
}

func TestFixed_ToArrayAxes(t *testing.T) {
	g, err := NewFixed(0, Range{Min: 0, Max: 2}, Range{Min: 0, Max: 1})
	require.NoError(t, err)
	require.NoError(t, g.Set(2, 1, 9))
	require.NoError(t, g.Set(0, 0, 1))

	xy := g.ToArray(AxesXY)
	assert.Len(t, xy, 3)
	assert.Len(t, xy[0], 2)
	assert.Equal(t, 9, xy[2][1])
	assert.Equal(t, 1, xy[0][0])

	yx := g.ToArray(AxesYX)
	assert.Len(t, yx, 2)
	assert.Len(t, yx[0], 3)
	assert.Equal(t, 9, yx[1][2])
}

func TestFixed_AddGridAllOrNothing(t *testing.T) {
	g, err := NewFixed(0, Range{Min: 0, Max: 2}, Range{Min: 0, Max: 2})
	require.NoError(t, err)

	err = g.AddGrid(1, 1, [][]int{{1, 1, 1}, {1, 1, 1}}, AxesYX)
	assert.ErrorIs(t, err, ErrOutOfBounds)
	for p := range g.Points() {
		v, _ := g.Get(p.X, p.Y)
		assert.Zero(t, v, "cell %s written by failed AddGrid", p)
	}

	err = g.AddGrid(math.MaxInt, 0, [][]int{{1, 1}}, AxesYX)
	assert.ErrorIs(t, err, ErrCoordinateOverflow)

	require.NoError(t, g.AddGrid(0, 1, [][]int{{1, 2}, {3, 4}}, AxesYX))
	want := [][]int{
		{0, 0, 0},
		{1, 2, 0},
		{3, 4, 0},
	}
	if diff := cmp.Diff(want, g.ToArray(AxesYX)); diff != "" {
		t.Errorf("grid after AddGrid (-want +got):\n%s", diff)
	}
}

func TestFixed_CopyFromPreservesCoordinates(t *testing.T) {
	src, err := NewFixed(0, Range{Min: 0, Max: 1}, Range{Min: 0, Max: 1})
	require.NoError(t, err)
	require.NoError(t, src.Set(1, 0, 5))
	require.NoError(t, src.Set(0, 1, 6))

	dst, err := NewFixed(-1, Range{Min: -2, Max: 3}, Range{Min: -1, Max: 2})
	require.NoError(t, err)
	dst.copyFrom(src)

	v, _ := dst.Get(1, 0)
	assert.Equal(t, 5, v)
	v, _ = dst.Get(0, 1)
	assert.Equal(t, 6, v)
	v, _ = dst.Get(0, 0)
	assert.Equal(t, 0, v)
	v, _ = dst.Get(-2, -1)
	assert.Equal(t, -1, v)
}

func TestCheckedArithmetic(t *testing.T) {
	_, ok := addChecked(math.MaxInt, 1)
	assert.False(t, ok)
	_, ok = subChecked(math.MinInt, 1)
	assert.False(t, ok)
	v, ok := subChecked(-1, math.MinInt)
	assert.True(t, ok)
	assert.Equal(t, math.MaxInt, v)

	_, ok = mulChecked(math.MaxInt, 2)
	assert.False(t, ok)

	r, ok := roundUpTo(7, 3)
	assert.True(t, ok)
	assert.Equal(t, 9, r)
	r, ok = roundUpTo(6, 3)
	assert.True(t, ok)
	assert.Equal(t, 6, r)
	_, ok = roundUpTo(math.MaxInt, 2)
	assert.False(t, ok)

	_, ok = rangeLen(math.MinInt, math.MaxInt)
	assert.False(t, ok)
	n, ok := rangeLen(-3, 3)
	assert.True(t, ok)
	assert.Equal(t, 7, n)
}

func TestParseAxes(t *testing.T) {
	a, err := ParseAxes("xy")
	require.NoError(t, err)
	assert.Equal(t, AxesXY, a)

	a, err = ParseAxes("")
	require.NoError(t, err)
	assert.Equal(t, AxesYX, a)

	_, err = ParseAxes("zz")
	assert.Error(t, err)
}
