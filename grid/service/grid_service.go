package service

import (
	"context"
)

// GridService defines all grid-related operations
type GridService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Cell Operations
	GetCell(ctx context.Context, sessionID string, x, y int) (*CellResult, error)
	SetCell(ctx context.Context, sessionID string, x, y int, value string) (*CellResult, error)
	BulkSet(ctx context.Context, sessionID string, writes []CellWrite) (*BulkSetResult, error)
	InsertLayout(ctx context.Context, sessionID string, leftX, bottomY int, rows []string) (*InsertResult, error)
	Reset(ctx context.Context, sessionID string) (*GridView, error)

	// Grid State
	GetArea(ctx context.Context, sessionID string, opts AreaOptions) (*AreaResult, error)
	GetGridView(ctx context.Context, sessionID string) (*GridView, error)
	GetGrowthHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*GridConfig, error)
	SaveConfig(ctx context.Context, configName string, config *GridConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, configID string, config *GridConfig) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id, configID string, config *GridConfig) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ConfigManager handles grid configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*GridConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *GridConfig
	DefaultID() string
	SaveConfig(name string, config *GridConfig) error
}
