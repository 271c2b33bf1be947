package session

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/wricardo/growgrid/grid/engine"
	"github.com/wricardo/growgrid/grid/service"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session to storage
	Save(session *service.Session) error

	// Load retrieves a session from storage by ID
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// PersistedSessionData is the stored form of a session
type PersistedSessionData struct {
	ID             string                 `json:"id"`
	ConfigName     string                 `json:"config_name"`
	CreatedAt      time.Time              `json:"created_at"`
	LastAccessedAt time.Time              `json:"last_accessed_at"`
	Grid           PersistedGrid          `json:"grid"`
	History        []service.GrowthRecord `json:"history,omitempty"`
	GrowthSeq      int                    `json:"growth_seq,omitempty"`
}

// PersistedGrid captures a grid's bounds and contents.
// Rows[i] holds y = Bounds.MinY+i, each running from MinX to MaxX.
type PersistedGrid struct {
	Bounds engine.Rect         `json:"bounds"`
	Rows   []string            `json:"rows"`
	Growth engine.GrowthCounts `json:"growth"`
}

// snapshot converts a live session into its stored form
func snapshot(session *service.Session) PersistedSessionData {
	arr := session.Grid.ToArray(engine.AxesYX)
	rows := make([]string, len(arr))
	for i, row := range arr {
		rows[i] = string(row)
	}

	return PersistedSessionData{
		ID:             session.ID,
		ConfigName:     session.ConfigID,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		Grid: PersistedGrid{
			Bounds: session.Grid.Bounds(),
			Rows:   rows,
			Growth: session.Grid.Growth(),
		},
		History:   append([]service.GrowthRecord(nil), session.History...),
		GrowthSeq: session.LastSeq(),
	}
}

// restore rebuilds a session from data using the named config for the
// default value, increment and growth flags
func restore(data *PersistedSessionData, configs service.ConfigManager) (*service.Session, error) {
	config, err := configs.LoadConfig(data.ConfigName)
	if err != nil {
		return nil, fmt.Errorf("failed to load config '%s': %w", data.ConfigName, err)
	}

	b := data.Grid.Bounds
	if len(data.Grid.Rows) != b.Height() {
		return nil, fmt.Errorf("persisted grid has %d rows, bounds %s need %d", len(data.Grid.Rows), b, b.Height())
	}
	for i, row := range data.Grid.Rows {
		if n := utf8.RuneCountInString(row); n != b.Width() {
			return nil, fmt.Errorf("persisted grid row %d has %d cells, bounds %s need %d", i, n, b, b.Width())
		}
	}

	grid, err := engine.NewGrowing(config.DefaultRune(),
		engine.Range{Min: b.MinX, Max: b.MaxX},
		engine.Range{Min: b.MinY, Max: b.MaxY},
		config.GrowthIncrement,
		engine.WithGrowsOnRead(config.ReadGrowth()),
		engine.WithGrowsOnWrite(config.WriteGrowth()),
		engine.WithGrowthCounts(data.Grid.Growth),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create grid: %w", err)
	}

	cells := make([][]rune, len(data.Grid.Rows))
	for i, row := range data.Grid.Rows {
		cells[i] = []rune(row)
	}
	if err := grid.AddGrid(b.MinX, b.MinY, cells, engine.AxesYX); err != nil {
		return nil, fmt.Errorf("failed to restore cells: %w", err)
	}

	session := &service.Session{
		ID:             data.ID,
		ConfigID:       data.ConfigName,
		Config:         config,
		CreatedAt:      data.CreatedAt,
		LastAccessedAt: data.LastAccessedAt,
		History:        data.History,
		GrowthSeq:      data.GrowthSeq,
	}
	session.AttachGrid(grid)
	return session, nil
}
