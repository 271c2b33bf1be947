package service

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/wricardo/growgrid/grid/engine"
)

// gridServiceImpl implements the GridService interface.
// A single mutex serializes every access to every session's grid.
type gridServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.Mutex
}

// NewGridService creates a new grid service instance
func NewGridService(sessions SessionManager, configs ConfigManager) GridService {
	return &gridServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// CreateSession creates a new grid session
func (s *gridServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *GridConfig
	configID := configName
	if configName != "" {
		var err error
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			if errors.Is(err, ErrConfigNotFound) {
				available, listErr := s.configs.ListConfigs()
				if listErr == nil && len(available) > 0 {
					ids := make([]string, 0, len(available))
					for _, cfg := range available {
						ids = append(ids, cfg.ConfigID)
					}
					return nil, fmt.Errorf("%w: '%s'. Available configs: %v", ErrConfigNotFound, configName, ids)
				}
				return nil, fmt.Errorf("%w: '%s'. Use /api/configs to list available configurations", ErrConfigNotFound, configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
		configID = s.configs.DefaultID()
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", configID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	log.Printf("[CREATE] session=%s config=%s bounds=%s", sess.ID, configID, sess.Grid.Bounds())
	return sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *gridServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gridServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gridServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return wrapSessionErr(err)
	}
	return nil
}

// GetCell reads one cell. Reads outside the bounds grow the grid when the
// session's config allows it.
func (s *gridServiceImpl) GetCell(ctx context.Context, sessionID string, x, y int) (*CellResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	if err := checkGrowth(sess, x, y, sess.Grid.GrowsOnRead()); err != nil {
		return nil, err
	}

	seq := sess.LastSeq()
	v, err := sess.Grid.Get(x, y)
	if err != nil {
		return nil, err
	}

	grown := sess.GrowthSince(seq)
	if len(grown) > 0 {
		s.persist(sessionID, "read")
	}
	return &CellResult{X: x, Y: y, Value: string(v), Bounds: sess.Grid.Bounds(), Grown: grown}, nil
}

// SetCell writes one cell
func (s *gridServiceImpl) SetCell(ctx context.Context, sessionID string, x, y int, value string) (*CellResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	seq := sess.LastSeq()
	if err := writeCell(sess, x, y, value); err != nil {
		return nil, err
	}
	s.persist(sessionID, "set")

	grown := sess.GrowthSince(seq)
	log.Printf("[SET] session=%s (%d,%d)=%q grown=%d", sess.ID, x, y, value, len(grown))
	return &CellResult{X: x, Y: y, Value: value, Bounds: sess.Grid.Bounds(), Grown: grown}, nil
}

// BulkSet executes writes in order, stopping at the first failure
func (s *gridServiceImpl) BulkSet(ctx context.Context, sessionID string, writes []CellWrite) (*BulkSetResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	result := &BulkSetResult{
		Requested: len(writes),
		Success:   true,
	}

	// Limit writes to prevent abuse
	if len(writes) > MaxBulkWrites {
		result.Truncated = true
		result.Limit = MaxBulkWrites
		writes = writes[:MaxBulkWrites]
	}

	seq := sess.LastSeq()
	for i, w := range writes {
		if err := writeCell(sess, w.X, w.Y, w.Value); err != nil {
			result.Success = false
			result.StoppedOnWrite = i + 1
			result.StoppedReason = fmt.Sprintf("write %d at (%d,%d) failed: %v", i+1, w.X, w.Y, err)
			break
		}
		result.Applied++
	}

	result.Bounds = sess.Grid.Bounds()
	result.Grown = sess.GrowthSince(seq)
	if result.Applied > 0 {
		s.persist(sessionID, "bulk set")
	}

	log.Printf("[BULK] session=%s applied=%d/%d grown=%d", sess.ID, result.Applied, result.Requested, len(result.Grown))
	return result, nil
}

// InsertLayout copies rows into the grid with rows[0] at y=bottomY and the
// first character of each row at x=leftX. It never grows the grid.
func (s *gridServiceImpl) InsertLayout(ctx context.Context, sessionID string, leftX, bottomY int, rows []string) (*InsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	data := make([][]rune, len(rows))
	for i, row := range rows {
		data[i] = []rune(row)
	}
	if len(data) == 0 || len(data[0]) == 0 {
		return nil, engine.ErrEmptyArray
	}

	if err := sess.Grid.AddGrid(leftX, bottomY, data, engine.AxesYX); err != nil {
		return nil, err
	}
	s.persist(sessionID, "insert")

	return &InsertResult{
		Origin: engine.Point{X: leftX, Y: bottomY},
		Width:  len(data[0]),
		Height: len(data),
		Bounds: sess.Grid.Bounds(),
	}, nil
}

// Reset replaces the session's grid with a fresh one built from its config
func (s *gridServiceImpl) Reset(ctx context.Context, sessionID string) (*GridView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	if err := sess.ResetGrid(); err != nil {
		return nil, fmt.Errorf("failed to reset grid: %w", err)
	}
	s.persist(sessionID, "reset")

	return gridView(sess), nil
}

// GetArea lists in-bounds cells around a center, the center included.
// It never grows the grid; a negative radius yields no cells.
func (s *gridServiceImpl) GetArea(ctx context.Context, sessionID string, opts AreaOptions) (*AreaResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	if opts.Metric == "" {
		opts.Metric = AreaSquare
	}

	var points iter.Seq[engine.Point]
	switch opts.Metric {
	case AreaSquare:
		points = sess.Grid.AreaSquareAround(opts.Center, opts.Radius)
	case AreaManhattan:
		points = sess.Grid.AreaAround(opts.Center, opts.Radius)
	default:
		return nil, fmt.Errorf("%w: unknown metric %q", ErrInvalidArea, opts.Metric)
	}

	result := &AreaResult{
		Center: opts.Center,
		Radius: opts.Radius,
		Metric: opts.Metric,
		Cells:  []CellValue{},
	}
	for p := range points {
		v, err := sess.Grid.GetPoint(p)
		if err != nil {
			return nil, err
		}
		result.Cells = append(result.Cells, CellValue{X: p.X, Y: p.Y, Value: string(v)})
	}
	return result, nil
}

// GetGridView renders the whole grid
func (s *gridServiceImpl) GetGridView(ctx context.Context, sessionID string) (*GridView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return gridView(sess), nil
}

// GetGrowthHistory returns paginated growth records
func (s *gridServiceImpl) GetGrowthHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	history := sess.History
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	records := []GrowthRecord{}
	if opts.Page <= totalPages {
		start := (opts.Page - 1) * opts.Limit
		end := min(start+opts.Limit, total)
		if opts.Order == "desc" {
			// Most recent first
			for i := total - 1 - start; i >= total-end; i-- {
				records = append(records, history[i])
			}
		} else {
			records = append(records, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Records:     records,
		Total:       total,
		Counts:      sess.Grid.Growth(),
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListConfigs returns available grid configurations
func (s *gridServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific grid configuration
func (s *gridServiceImpl) LoadConfig(ctx context.Context, configName string) (*GridConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a grid configuration to disk
func (s *gridServiceImpl) SaveConfig(ctx context.Context, configName string, config *GridConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// session looks up a session and marks it accessed. Callers hold s.mu.
func (s *gridServiceImpl) session(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, wrapSessionErr(err)
	}
	if err := s.sessions.UpdateLastAccessed(sessionID); err != nil {
		log.Printf("Warning: Failed to update last access for session %s: %v", sessionID, err)
	}
	return sess, nil
}

func (s *gridServiceImpl) persist(sessionID, op string) {
	if err := s.sessions.Save(sessionID); err != nil {
		log.Printf("Warning: Failed to persist session %s after %s: %v", sessionID, op, err)
	}
}

func wrapSessionErr(err error) error {
	if errors.Is(err, ErrSessionNotFound) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrSessionNotFound, err)
}

// writeCell validates value, enforces the session's max_cells and writes
func writeCell(sess *Session, x, y int, value string) error {
	if utf8.RuneCountInString(value) != 1 || !utf8.ValidString(value) {
		return fmt.Errorf("%w: got %q", ErrInvalidValue, value)
	}
	if err := checkGrowth(sess, x, y, sess.Grid.GrowsOnWrite()); err != nil {
		return err
	}
	r, _ := utf8.DecodeRuneInString(value)
	return sess.Grid.Set(x, y, r)
}

// checkGrowth rejects accesses whose growth would push the grid past the
// config's cell limit. The grid is not modified.
func checkGrowth(sess *Session, x, y int, grows bool) error {
	if !grows {
		return nil
	}
	plan, err := sess.Grid.PlanGrowth(x, y)
	if err != nil {
		return err
	}
	if !plan.Needed() {
		return nil
	}
	limit := sess.Config.CellLimit()
	xr := engine.Range{Min: plan.To.MinX, Max: plan.To.MaxX}
	yr := engine.Range{Min: plan.To.MinY, Max: plan.To.MaxY}
	if !areaWithin(xr, yr, limit) {
		return fmt.Errorf("%w: reaching (%d,%d) needs %s, limit %d cells", ErrGridTooLarge, x, y, plan.To, limit)
	}
	return nil
}

func sessionInfo(sess *Session) *SessionInfo {
	b := sess.Grid.Bounds()
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     sess.ConfigID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		Bounds:         b,
		Growth:         sess.Grid.Growth(),
		Cells:          b.Area(),
		GridConfig:     sess.Config,
	}
}

func gridView(sess *Session) *GridView {
	g := sess.Grid
	return &GridView{
		SessionID:    sess.ID,
		Bounds:       g.Bounds(),
		Default:      string(g.Default()),
		Increment:    g.Increment(),
		GrowsOnRead:  g.GrowsOnRead(),
		GrowsOnWrite: g.GrowsOnWrite(),
		Growth:       g.Growth(),
		Rows:         RenderRows(g),
	}
}

// RenderRows renders the grid top row first
func RenderRows(g *engine.Growing[rune]) []string {
	arr := g.ToArray(engine.AxesYX)
	rows := make([]string, len(arr))
	var sb strings.Builder
	for i, row := range arr {
		sb.Reset()
		for _, r := range row {
			sb.WriteRune(r)
		}
		rows[len(arr)-1-i] = sb.String()
	}
	return rows
}
