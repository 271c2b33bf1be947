package service

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/wricardo/growgrid/grid/engine"
)

const (
	// DefaultMaxCells caps the area a remote write may grow a grid to
	DefaultMaxCells = 1_000_000
	// MaxBulkWrites limits the number of writes executed by one BulkSet call
	MaxBulkWrites = 500
)

// GridConfig describes how a session's grid is created
type GridConfig struct {
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	Default         string            `json:"default"`
	XRange          [2]int            `json:"x_range"`
	YRange          [2]int            `json:"y_range"`
	GrowthIncrement int               `json:"growth_increment"`
	GrowsOnRead     *bool             `json:"grows_on_read,omitempty"`
	GrowsOnWrite    *bool             `json:"grows_on_write,omitempty"`
	Layout          []string          `json:"layout,omitempty"`
	MaxCells        int               `json:"max_cells,omitempty"`
	Legend          map[string]string `json:"legend,omitempty"`
}

// DefaultRune returns the fill character. Call only on a validated config.
func (c *GridConfig) DefaultRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Default)
	return r
}

func (c *GridConfig) ReadGrowth() bool  { return c.GrowsOnRead == nil || *c.GrowsOnRead }
func (c *GridConfig) WriteGrowth() bool { return c.GrowsOnWrite == nil || *c.GrowsOnWrite }

// CellLimit returns max_cells or DefaultMaxCells when unset
func (c *GridConfig) CellLimit() int {
	if c.MaxCells > 0 {
		return c.MaxCells
	}
	return DefaultMaxCells
}

// Ranges returns the initial x and y ranges, inferred from the layout when one is present
func (c *GridConfig) Ranges() (engine.Range, engine.Range) {
	if len(c.Layout) > 0 {
		w := utf8.RuneCountInString(c.Layout[0])
		return engine.Range{Min: 0, Max: w - 1}, engine.Range{Min: 0, Max: len(c.Layout) - 1}
	}
	return engine.Range{Min: c.XRange[0], Max: c.XRange[1]}, engine.Range{Min: c.YRange[0], Max: c.YRange[1]}
}

// LayoutRows converts the layout to a dense [y][x] array
func (c *GridConfig) LayoutRows() [][]rune {
	rows := make([][]rune, len(c.Layout))
	for i, row := range c.Layout {
		rows[i] = []rune(row)
	}
	return rows
}

// ValidateGridConfig checks a grid configuration for consistency
func ValidateGridConfig(config *GridConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}
	if utf8.RuneCountInString(config.Default) != 1 {
		return fmt.Errorf("config validation: default must be exactly one character, got %q", config.Default)
	}
	if config.GrowthIncrement < 1 {
		return fmt.Errorf("config validation: growth_increment must be at least 1, got %d", config.GrowthIncrement)
	}
	if config.MaxCells < 0 {
		return fmt.Errorf("config validation: max_cells must not be negative, got %d", config.MaxCells)
	}

	if len(config.Layout) > 0 {
		width := utf8.RuneCountInString(config.Layout[0])
		if width == 0 {
			return fmt.Errorf("config validation: layout row 1 is empty")
		}
		for i, row := range config.Layout {
			if n := utf8.RuneCountInString(row); n != width {
				return fmt.Errorf("config validation: layout row %d has %d characters, want %d", i+1, n, width)
			}
		}
	} else {
		if config.XRange[0] > config.XRange[1] {
			return fmt.Errorf("config validation: x_range min %d exceeds max %d", config.XRange[0], config.XRange[1])
		}
		if config.YRange[0] > config.YRange[1] {
			return fmt.Errorf("config validation: y_range min %d exceeds max %d", config.YRange[0], config.YRange[1])
		}
	}

	xr, yr := config.Ranges()
	limit := config.CellLimit()
	if !areaWithin(xr, yr, limit) {
		return fmt.Errorf("config validation: initial grid x[%d,%d] y[%d,%d] exceeds max_cells %d",
			xr.Min, xr.Max, yr.Min, yr.Max, limit)
	}

	for key := range config.Legend {
		if utf8.RuneCountInString(key) != 1 {
			return fmt.Errorf("config validation: legend key %q must be a single character", key)
		}
	}

	return nil
}

// areaWithin reports whether the rectangle spanned by xr and yr holds at most limit cells
func areaWithin(xr, yr engine.Range, limit int) bool {
	w := uint64(xr.Max-xr.Min) + 1
	h := uint64(yr.Max-yr.Min) + 1
	if w == 0 || h == 0 {
		return false
	}
	if w > math.MaxUint64/h {
		return false
	}
	return w*h <= uint64(limit)
}

// NewGridFromConfig builds a fresh growing grid from a validated config
func NewGridFromConfig(config *GridConfig, opts ...engine.Option) (*engine.Growing[rune], error) {
	opts = append([]engine.Option{
		engine.WithGrowsOnRead(config.ReadGrowth()),
		engine.WithGrowsOnWrite(config.WriteGrowth()),
	}, opts...)

	if len(config.Layout) > 0 {
		return engine.NewGrowingFromArray(config.DefaultRune(), config.LayoutRows(), engine.AxesYX, config.GrowthIncrement, opts...)
	}
	xr, yr := config.Ranges()
	return engine.NewGrowing(config.DefaultRune(), xr, yr, config.GrowthIncrement, opts...)
}
