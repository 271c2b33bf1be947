package service

import (
	"errors"
	"time"

	"github.com/wricardo/growgrid/grid/engine"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrConfigNotFound  = errors.New("configuration not found")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrInvalidValue    = errors.New("cell value must be exactly one character")
	ErrGridTooLarge    = errors.New("grid would exceed max_cells")
	ErrInvalidArea     = errors.New("invalid area query")
)

// SessionInfo summarizes a session for listing and lookup
type SessionInfo struct {
	ID             string              `json:"id"`
	ConfigName     string              `json:"config_name"`
	CreatedAt      time.Time           `json:"created_at"`
	LastAccessedAt time.Time           `json:"last_accessed_at"`
	Bounds         engine.Rect         `json:"bounds"`
	Growth         engine.GrowthCounts `json:"growth"`
	Cells          int                 `json:"cells"`
	GridConfig     *GridConfig         `json:"grid_config"`
}

// GridView is a full text rendering of a session's grid.
// Rows run from max_y down to min_y; each row runs from min_x to max_x.
type GridView struct {
	SessionID    string              `json:"session_id"`
	Bounds       engine.Rect         `json:"bounds"`
	Default      string              `json:"default"`
	Increment    int                 `json:"growth_increment"`
	GrowsOnRead  bool                `json:"grows_on_read"`
	GrowsOnWrite bool                `json:"grows_on_write"`
	Growth       engine.GrowthCounts `json:"growth"`
	Rows         []string            `json:"rows"`
}

// CellWrite is one requested write
type CellWrite struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Value string `json:"value"`
}

// CellValue is one cell and its content
type CellValue struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Value string `json:"value"`
}

// CellResult is returned by single-cell reads and writes
type CellResult struct {
	X      int            `json:"x"`
	Y      int            `json:"y"`
	Value  string         `json:"value"`
	Bounds engine.Rect    `json:"bounds"`
	Grown  []GrowthRecord `json:"grown,omitempty"`
}

// BulkSetResult contains the outcome of a batch of writes
type BulkSetResult struct {
	Requested      int            `json:"requested"`
	Applied        int            `json:"applied"`
	Success        bool           `json:"success"`
	Truncated      bool           `json:"truncated,omitempty"`
	Limit          int            `json:"limit,omitempty"`
	StoppedOnWrite int            `json:"stopped_on_write,omitempty"` // 1-based index of the failing write
	StoppedReason  string         `json:"stopped_reason,omitempty"`
	Bounds         engine.Rect    `json:"bounds"`
	Grown          []GrowthRecord `json:"grown,omitempty"`
}

// InsertResult describes a layout copied into the grid
type InsertResult struct {
	Origin engine.Point `json:"origin"`
	Width  int          `json:"width"`
	Height int          `json:"height"`
	Bounds engine.Rect  `json:"bounds"`
}

// AreaMetric selects the distance used by area queries
type AreaMetric string

const (
	AreaSquare    AreaMetric = "square"
	AreaManhattan AreaMetric = "manhattan"
)

// AreaOptions configures an area query
type AreaOptions struct {
	Center engine.Point `json:"center"`
	Radius int          `json:"radius"`
	Metric AreaMetric   `json:"metric"`
}

// AreaResult lists the in-bounds cells around a center
type AreaResult struct {
	Center engine.Point `json:"center"`
	Radius int          `json:"radius"`
	Metric AreaMetric   `json:"metric"`
	Cells  []CellValue  `json:"cells"`
}

// GrowthRecord is one growth event observed on a session's grid
type GrowthRecord struct {
	ID        string      `json:"id"`
	Seq       int         `json:"seq"`
	Up        int         `json:"up"`
	Right     int         `json:"right"`
	Down      int         `json:"down"`
	Left      int         `json:"left"`
	Bounds    engine.Rect `json:"bounds"`
	Timestamp time.Time   `json:"timestamp"`
}

// HistoryOptions configures growth history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated growth history
type HistoryResponse struct {
	Records     []GrowthRecord      `json:"records"`
	Total       int                 `json:"total"`
	Counts      engine.GrowthCounts `json:"counts"`
	Page        int                 `json:"page"`
	PageSize    int                 `json:"page_size"`
	TotalPages  int                 `json:"total_pages"`
	HasNext     bool                `json:"has_next"`
	HasPrevious bool                `json:"has_previous"`
}

// ConfigInfo provides information about a grid configuration
type ConfigInfo struct {
	Filename        string `json:"filename"`
	ConfigID        string `json:"config_id"` // The identifier to use for session creation
	Name            string `json:"name"`
	Description     string `json:"description"`
	Default         string `json:"default"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	GrowthIncrement int    `json:"growth_increment"`
	MaxCells        int    `json:"max_cells"`
}
