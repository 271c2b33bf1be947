package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/growgrid/grid/engine"
	"github.com/wricardo/growgrid/grid/service"
	"github.com/wricardo/growgrid/transport/websocket"
)

// MockGridService implements service.GridService for testing
type MockGridService struct {
	// Session Management
	CreateSessionFunc func(ctx context.Context, configName string) (*service.SessionInfo, error)
	GetSessionFunc    func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc  func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc func(ctx context.Context, sessionID string) error

	// Cell Operations
	GetCellFunc      func(ctx context.Context, sessionID string, x, y int) (*service.CellResult, error)
	SetCellFunc      func(ctx context.Context, sessionID string, x, y int, value string) (*service.CellResult, error)
	BulkSetFunc      func(ctx context.Context, sessionID string, writes []service.CellWrite) (*service.BulkSetResult, error)
	InsertLayoutFunc func(ctx context.Context, sessionID string, leftX, bottomY int, rows []string) (*service.InsertResult, error)
	ResetFunc        func(ctx context.Context, sessionID string) (*service.GridView, error)

	// Grid State
	GetAreaFunc          func(ctx context.Context, sessionID string, opts service.AreaOptions) (*service.AreaResult, error)
	GetGridViewFunc      func(ctx context.Context, sessionID string) (*service.GridView, error)
	GetGrowthHistoryFunc func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error)

	// Configuration
	ListConfigsFunc func(ctx context.Context) ([]*service.ConfigInfo, error)
	LoadConfigFunc  func(ctx context.Context, configName string) (*service.GridConfig, error)
	SaveConfigFunc  func(ctx context.Context, configName string, config *service.GridConfig) error
}

var testBounds = engine.Rect{MinX: 0, MaxX: 4, MinY: 0, MaxY: 4}

func (m *MockGridService) CreateSession(ctx context.Context, configName string) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, configName)
	}
	return &service.SessionInfo{ID: "test", ConfigName: configName, CreatedAt: time.Now()}, nil
}

func (m *MockGridService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{ID: sessionID, ConfigName: "test-config", CreatedAt: time.Now()}, nil
}

func (m *MockGridService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGridService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

func (m *MockGridService) GetCell(ctx context.Context, sessionID string, x, y int) (*service.CellResult, error) {
	if m.GetCellFunc != nil {
		return m.GetCellFunc(ctx, sessionID, x, y)
	}
	return &service.CellResult{X: x, Y: y, Value: ".", Bounds: testBounds}, nil
}

func (m *MockGridService) SetCell(ctx context.Context, sessionID string, x, y int, value string) (*service.CellResult, error) {
	if m.SetCellFunc != nil {
		return m.SetCellFunc(ctx, sessionID, x, y, value)
	}
	return &service.CellResult{X: x, Y: y, Value: value, Bounds: testBounds}, nil
}

func (m *MockGridService) BulkSet(ctx context.Context, sessionID string, writes []service.CellWrite) (*service.BulkSetResult, error) {
	if m.BulkSetFunc != nil {
		return m.BulkSetFunc(ctx, sessionID, writes)
	}
	return &service.BulkSetResult{Requested: len(writes), Applied: len(writes), Success: true, Bounds: testBounds}, nil
}

func (m *MockGridService) InsertLayout(ctx context.Context, sessionID string, leftX, bottomY int, rows []string) (*service.InsertResult, error) {
	if m.InsertLayoutFunc != nil {
		return m.InsertLayoutFunc(ctx, sessionID, leftX, bottomY, rows)
	}
	return &service.InsertResult{Origin: engine.Point{X: leftX, Y: bottomY}, Height: len(rows), Bounds: testBounds}, nil
}

func (m *MockGridService) Reset(ctx context.Context, sessionID string) (*service.GridView, error) {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, sessionID)
	}
	return &service.GridView{SessionID: sessionID, Bounds: testBounds}, nil
}

func (m *MockGridService) GetArea(ctx context.Context, sessionID string, opts service.AreaOptions) (*service.AreaResult, error) {
	if m.GetAreaFunc != nil {
		return m.GetAreaFunc(ctx, sessionID, opts)
	}
	return &service.AreaResult{Center: opts.Center, Radius: opts.Radius, Metric: opts.Metric}, nil
}

func (m *MockGridService) GetGridView(ctx context.Context, sessionID string) (*service.GridView, error) {
	if m.GetGridViewFunc != nil {
		return m.GetGridViewFunc(ctx, sessionID)
	}
	return &service.GridView{SessionID: sessionID, Bounds: testBounds, Rows: []string{"....."}}, nil
}

func (m *MockGridService) GetGrowthHistory(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
	if m.GetGrowthHistoryFunc != nil {
		return m.GetGrowthHistoryFunc(ctx, sessionID, opts)
	}
	return &service.HistoryResponse{Records: []service.GrowthRecord{}, Page: opts.Page, PageSize: opts.Limit}, nil
}

func (m *MockGridService) ListConfigs(ctx context.Context) ([]*service.ConfigInfo, error) {
	if m.ListConfigsFunc != nil {
		return m.ListConfigsFunc(ctx)
	}
	return []*service.ConfigInfo{}, nil
}

func (m *MockGridService) LoadConfig(ctx context.Context, configName string) (*service.GridConfig, error) {
	if m.LoadConfigFunc != nil {
		return m.LoadConfigFunc(ctx, configName)
	}
	return &service.GridConfig{Name: configName, Default: ".", GrowthIncrement: 3}, nil
}

func (m *MockGridService) SaveConfig(ctx context.Context, configName string, config *service.GridConfig) error {
	if m.SaveConfigFunc != nil {
		return m.SaveConfigFunc(ctx, configName, config)
	}
	return nil
}

// Test helpers
func setupTestServer(mockService *MockGridService) *Server {
	hub := websocket.NewHub()
	go hub.Run()
	return NewServer(mockService, hub)
}

func makeRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
}

func serve(server *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

// Session Management Tests

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    map[string]string
		setupMock      func(*MockGridService)
		expectedStatus int
		wantConfig     string
	}{
		{
			name:           "default config",
			expectedStatus: http.StatusCreated,
			wantConfig:     "",
		},
		{
			name:           "config_id",
			requestBody:    map[string]string{"config_id": "centered"},
			expectedStatus: http.StatusCreated,
			wantConfig:     "centered",
		},
		{
			name:           "deprecated config_name",
			requestBody:    map[string]string{"config_name": "island"},
			expectedStatus: http.StatusCreated,
			wantConfig:     "island",
		},
		{
			name:        "unknown config",
			requestBody: map[string]string{"config_id": "nope"},
			setupMock: func(m *MockGridService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("%w: nope", service.ErrConfigNotFound)
				}
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "service error",
			setupMock: func(m *MockGridService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("service error")
				}
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGridService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			var body interface{}
			if tt.requestBody != nil {
				body = tt.requestBody
			}
			w := serve(setupTestServer(mockService), makeRequest("POST", "/api/sessions", body))

			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if w.Code == http.StatusCreated {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ConfigName != tt.wantConfig {
					t.Errorf("Expected config %q, got %q", tt.wantConfig, resp.ConfigName)
				}
			}
		})
	}
}

func TestListSessions(t *testing.T) {
	now := time.Now()
	mockService := &MockGridService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return []*service.SessionInfo{
				{ID: "old", CreatedAt: now.Add(-3 * time.Hour), LastAccessedAt: now.Add(-time.Minute)},
				{ID: "mid", CreatedAt: now.Add(-2 * time.Hour), LastAccessedAt: now.Add(-time.Hour)},
				{ID: "new", CreatedAt: now.Add(-1 * time.Hour), LastAccessedAt: now},
			}, nil
		},
	}
	server := setupTestServer(mockService)

	tests := []struct {
		query   string
		wantIDs []string
	}{
		{"", []string{"new", "old", "mid"}},
		{"?sort=created", []string{"new", "mid", "old"}},
		{"?sort=created&order=asc", []string{"old", "mid", "new"}},
		{"?sort=created&limit=2", []string{"new", "mid"}},
		{"?limit=abc", []string{"new", "old", "mid"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := serve(server, makeRequest("GET", "/api/sessions"+tt.query, nil))
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}

			var resp struct {
				Count    int                    `json:"count"`
				Total    int                    `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
			}
			parseResponse(t, w, &resp)

			if resp.Total != 3 {
				t.Errorf("Expected total 3, got %d", resp.Total)
			}
			if resp.Count != len(tt.wantIDs) {
				t.Errorf("Expected count %d, got %d", len(tt.wantIDs), resp.Count)
			}
			for i, id := range tt.wantIDs {
				if resp.Sessions[i].ID != id {
					t.Errorf("position %d: expected %s, got %s", i, id, resp.Sessions[i].ID)
				}
			}
		})
	}
}

func TestGetAndDeleteSession(t *testing.T) {
	mockService := &MockGridService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			if sessionID != "abcd" {
				return nil, service.ErrSessionNotFound
			}
			return &service.SessionInfo{ID: "abcd", Bounds: testBounds}, nil
		},
		DeleteSessionFunc: func(ctx context.Context, sessionID string) error {
			if sessionID != "abcd" {
				return service.ErrSessionNotFound
			}
			return nil
		},
	}
	server := setupTestServer(mockService)

	if w := serve(server, makeRequest("GET", "/api/sessions/abcd", nil)); w.Code != http.StatusOK {
		t.Errorf("GET existing: expected 200, got %d", w.Code)
	}
	if w := serve(server, makeRequest("GET", "/api/sessions/zzzz", nil)); w.Code != http.StatusNotFound {
		t.Errorf("GET missing: expected 404, got %d", w.Code)
	}
	if w := serve(server, makeRequest("DELETE", "/api/sessions/abcd", nil)); w.Code != http.StatusOK {
		t.Errorf("DELETE existing: expected 200, got %d", w.Code)
	}
	if w := serve(server, makeRequest("DELETE", "/api/sessions/zzzz", nil)); w.Code != http.StatusNotFound {
		t.Errorf("DELETE missing: expected 404, got %d", w.Code)
	}
}

// Cell Tests

func TestGetCell(t *testing.T) {
	var gotX, gotY int
	mockService := &MockGridService{
		GetCellFunc: func(ctx context.Context, sessionID string, x, y int) (*service.CellResult, error) {
			gotX, gotY = x, y
			return &service.CellResult{
				X: x, Y: y, Value: ".",
				Bounds: engine.Rect{MinX: -3, MaxX: 4, MinY: 0, MaxY: 4},
				Grown:  []service.GrowthRecord{{Seq: 1, Left: 3}},
			}, nil
		},
	}
	server := setupTestServer(mockService)

	w := serve(server, makeRequest("GET", "/api/sessions/abcd/cells/-2/3", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if gotX != -2 || gotY != 3 {
		t.Errorf("Expected (-2,3), got (%d,%d)", gotX, gotY)
	}

	var resp service.CellResult
	parseResponse(t, w, &resp)
	if len(resp.Grown) != 1 || resp.Grown[0].Left != 3 {
		t.Errorf("Expected one left growth record, got %+v", resp.Grown)
	}

	if w := serve(server, makeRequest("GET", "/api/sessions/abcd/cells/one/3", nil)); w.Code != http.StatusBadRequest {
		t.Errorf("bad coordinate: expected 400, got %d", w.Code)
	}
}

func TestSetCell(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		err            error
		expectedStatus int
	}{
		{"ok", map[string]string{"value": "#"}, nil, http.StatusOK},
		{"invalid value", map[string]string{"value": "ab"}, service.ErrInvalidValue, http.StatusBadRequest},
		{"growth disabled", map[string]string{"value": "#"}, engine.ErrOutOfBounds, http.StatusConflict},
		{"too large", map[string]string{"value": "#"}, service.ErrGridTooLarge, http.StatusRequestEntityTooLarge},
		{"overflow", map[string]string{"value": "#"}, engine.ErrCoordinateOverflow, http.StatusBadRequest},
		{"missing session", map[string]string{"value": "#"}, service.ErrSessionNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGridService{
				SetCellFunc: func(ctx context.Context, sessionID string, x, y int, value string) (*service.CellResult, error) {
					if tt.err != nil {
						return nil, fmt.Errorf("set (%d,%d): %w", x, y, tt.err)
					}
					return &service.CellResult{X: x, Y: y, Value: value, Bounds: testBounds}, nil
				},
			}

			w := serve(setupTestServer(mockService), makeRequest("PUT", "/api/sessions/abcd/cells/7/2", tt.body))
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest("PUT", "/api/sessions/abcd/cells/1/1", strings.NewReader("{"))
		w := serve(setupTestServer(&MockGridService{}), req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})
}

func TestBulkSet(t *testing.T) {
	var received []service.CellWrite
	mockService := &MockGridService{
		BulkSetFunc: func(ctx context.Context, sessionID string, writes []service.CellWrite) (*service.BulkSetResult, error) {
			received = writes
			return &service.BulkSetResult{
				Requested:      len(writes),
				Applied:        1,
				StoppedOnWrite: 2,
				StoppedReason:  "write 2 at (1,1) failed",
				Bounds:         testBounds,
			}, nil
		},
	}
	server := setupTestServer(mockService)

	body := map[string]interface{}{
		"writes": []service.CellWrite{{X: 0, Y: 0, Value: "a"}, {X: 1, Y: 1, Value: "bc"}},
	}
	w := serve(server, makeRequest("POST", "/api/sessions/abcd/bulk-set", body))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if len(received) != 2 || received[1].Value != "bc" {
		t.Errorf("writes not forwarded: %+v", received)
	}

	var resp service.BulkSetResult
	parseResponse(t, w, &resp)
	if resp.Applied != 1 || resp.StoppedOnWrite != 2 {
		t.Errorf("unexpected result %+v", resp)
	}

	empty := serve(server, makeRequest("POST", "/api/sessions/abcd/bulk-set", map[string]interface{}{"writes": []service.CellWrite{}}))
	if empty.Code != http.StatusBadRequest {
		t.Errorf("empty writes: expected 400, got %d", empty.Code)
	}
}

func TestInsertLayout(t *testing.T) {
	mockService := &MockGridService{
		InsertLayoutFunc: func(ctx context.Context, sessionID string, leftX, bottomY int, rows []string) (*service.InsertResult, error) {
			if leftX == 100 {
				return nil, engine.ErrOutOfBounds
			}
			if len(rows) == 0 {
				return nil, engine.ErrEmptyArray
			}
			return &service.InsertResult{Origin: engine.Point{X: leftX, Y: bottomY}, Width: len(rows[0]), Height: len(rows)}, nil
		},
	}
	server := setupTestServer(mockService)

	w := serve(server, makeRequest("POST", "/api/sessions/abcd/insert", map[string]interface{}{
		"left_x": 1, "bottom_y": 2, "rows": []string{"ab", "cd"},
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp service.InsertResult
	parseResponse(t, w, &resp)
	if resp.Origin != (engine.Point{X: 1, Y: 2}) || resp.Width != 2 || resp.Height != 2 {
		t.Errorf("unexpected result %+v", resp)
	}

	w = serve(server, makeRequest("POST", "/api/sessions/abcd/insert", map[string]interface{}{
		"left_x": 100, "bottom_y": 0, "rows": []string{"ab"},
	}))
	if w.Code != http.StatusConflict {
		t.Errorf("outside bounds: expected 409, got %d", w.Code)
	}

	w = serve(server, makeRequest("POST", "/api/sessions/abcd/insert", map[string]interface{}{"rows": []string{}}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty rows: expected 400, got %d", w.Code)
	}
}

func TestArea(t *testing.T) {
	var got service.AreaOptions
	mockService := &MockGridService{
		GetAreaFunc: func(ctx context.Context, sessionID string, opts service.AreaOptions) (*service.AreaResult, error) {
			got = opts
			if opts.Metric != "" && opts.Metric != service.AreaSquare && opts.Metric != service.AreaManhattan {
				return nil, service.ErrInvalidArea
			}
			return &service.AreaResult{Center: opts.Center, Radius: opts.Radius, Metric: opts.Metric}, nil
		},
	}
	server := setupTestServer(mockService)

	w := serve(server, makeRequest("GET", "/api/sessions/abcd/area?x=2&y=-1&radius=3&metric=manhattan", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	want := service.AreaOptions{Center: engine.Point{X: 2, Y: -1}, Radius: 3, Metric: service.AreaManhattan}
	if got != want {
		t.Errorf("Expected options %+v, got %+v", want, got)
	}

	for _, q := range []string{"?x=1&y=1", "?x=1&y=z&radius=1"} {
		if w := serve(server, makeRequest("GET", "/api/sessions/abcd/area"+q, nil)); w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", q, w.Code)
		}
	}

	if w := serve(server, makeRequest("GET", "/api/sessions/abcd/area?x=1&y=1&radius=1&metric=circle", nil)); w.Code != http.StatusBadRequest {
		t.Errorf("unknown metric: expected 400, got %d", w.Code)
	}
}

func TestGridAndReset(t *testing.T) {
	server := setupTestServer(&MockGridService{})

	w := serve(server, makeRequest("GET", "/api/sessions/abcd/grid", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("grid: expected 200, got %d", w.Code)
	}
	var view service.GridView
	parseResponse(t, w, &view)
	if view.SessionID != "abcd" || len(view.Rows) != 1 {
		t.Errorf("unexpected view %+v", view)
	}

	if w := serve(server, makeRequest("POST", "/api/sessions/abcd/reset", nil)); w.Code != http.StatusOK {
		t.Errorf("reset: expected 200, got %d", w.Code)
	}
}

func TestGrowthHistory(t *testing.T) {
	var got service.HistoryOptions
	mockService := &MockGridService{
		GetGrowthHistoryFunc: func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
			got = opts
			return &service.HistoryResponse{Page: opts.Page, PageSize: opts.Limit}, nil
		},
	}
	server := setupTestServer(mockService)

	tests := []struct {
		query string
		want  service.HistoryOptions
	}{
		{"", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
		{"?page=3&limit=5&order=asc", service.HistoryOptions{Page: 3, Limit: 5, Order: "asc"}},
		{"?page=-1&limit=x&order=sideways", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
	}

	for _, tt := range tests {
		w := serve(server, makeRequest("GET", "/api/sessions/abcd/growth"+tt.query, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%q: expected 200, got %d", tt.query, w.Code)
		}
		if got != tt.want {
			t.Errorf("%q: expected %+v, got %+v", tt.query, tt.want, got)
		}
	}
}

func TestGrowthChart(t *testing.T) {
	pages := 0
	mockService := &MockGridService{
		GetGrowthHistoryFunc: func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
			pages++
			rec := service.GrowthRecord{Seq: opts.Page, Right: 3, Bounds: engine.Rect{MinX: 0, MaxX: 7 + opts.Page, MinY: 0, MaxY: 4}}
			return &service.HistoryResponse{
				Records: []service.GrowthRecord{rec},
				Counts:  engine.GrowthCounts{Right: 2},
				HasNext: opts.Page < 2,
			}, nil
		},
	}

	w := serve(setupTestServer(mockService), makeRequest("GET", "/api/sessions/abcd/growth/chart", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Expected html content type, got %s", ct)
	}
	if pages != 2 {
		t.Errorf("Expected 2 history pages fetched, got %d", pages)
	}
	if !strings.Contains(w.Body.String(), "Growth events") {
		t.Error("chart title missing from page")
	}

	missing := &MockGridService{
		GetGrowthHistoryFunc: func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
			return nil, service.ErrSessionNotFound
		},
	}
	if w := serve(setupTestServer(missing), makeRequest("GET", "/api/sessions/zz/growth/chart", nil)); w.Code != http.StatusNotFound {
		t.Errorf("missing session: expected 404, got %d", w.Code)
	}
}

// Configuration Tests

func TestConfigs(t *testing.T) {
	var savedID string
	var saved *service.GridConfig
	mockService := &MockGridService{
		ListConfigsFunc: func(ctx context.Context) ([]*service.ConfigInfo, error) {
			return []*service.ConfigInfo{{ConfigID: "classic"}, {ConfigID: "island"}}, nil
		},
		LoadConfigFunc: func(ctx context.Context, configName string) (*service.GridConfig, error) {
			if configName != "classic" {
				return nil, service.ErrConfigNotFound
			}
			return &service.GridConfig{Name: "Classic", Default: "."}, nil
		},
		SaveConfigFunc: func(ctx context.Context, configName string, config *service.GridConfig) error {
			if config.GrowthIncrement <= 0 {
				return fmt.Errorf("%w: growth_increment must be positive", service.ErrInvalidConfig)
			}
			savedID, saved = configName, config
			return nil
		},
	}
	server := setupTestServer(mockService)

	w := serve(server, makeRequest("GET", "/api/configs", nil))
	var list []*service.ConfigInfo
	parseResponse(t, w, &list)
	if len(list) != 2 {
		t.Errorf("Expected 2 configs, got %d", len(list))
	}

	if w := serve(server, makeRequest("GET", "/api/configs/classic.json", nil)); w.Code != http.StatusOK {
		t.Errorf("get classic: expected 200, got %d", w.Code)
	}
	if w := serve(server, makeRequest("GET", "/api/configs/missing", nil)); w.Code != http.StatusNotFound {
		t.Errorf("get missing: expected 404, got %d", w.Code)
	}

	w = serve(server, makeRequest("POST", "/api/configs", map[string]interface{}{
		"config_id":        "wide",
		"name":             "Wide",
		"description":      "wide grid",
		"default":          "_",
		"x_range":          []int{-10, 10},
		"y_range":          []int{0, 2},
		"growth_increment": 4,
	}))
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if savedID != "wide" || saved.XRange != [2]int{-10, 10} || saved.GrowthIncrement != 4 {
		t.Errorf("config not forwarded: %s %+v", savedID, saved)
	}

	w = serve(server, makeRequest("POST", "/api/configs", map[string]interface{}{"name": "Bad"}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid config: expected 400, got %d", w.Code)
	}

	w = serve(server, makeRequest("POST", "/api/configs", map[string]interface{}{"description": "no name"}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("nameless config: expected 400, got %d", w.Code)
	}
}

func TestHealthAndWebSocketGuards(t *testing.T) {
	mockService := &MockGridService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			return nil, service.ErrSessionNotFound
		},
	}
	server := setupTestServer(mockService)

	w := serve(server, makeRequest("GET", "/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "healthy") {
		t.Errorf("health: got %d %s", w.Code, w.Body.String())
	}

	if w := serve(server, makeRequest("GET", "/ws", nil)); w.Code != http.StatusBadRequest {
		t.Errorf("ws without session: expected 400, got %d", w.Code)
	}
	if w := serve(server, makeRequest("GET", "/ws?session=nope", nil)); w.Code != http.StatusNotFound {
		t.Errorf("ws unknown session: expected 404, got %d", w.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrSessionNotFound, http.StatusNotFound},
		{service.ErrConfigNotFound, http.StatusNotFound},
		{engine.ErrOutOfBounds, http.StatusConflict},
		{service.ErrGridTooLarge, http.StatusRequestEntityTooLarge},
		{service.ErrInvalidValue, http.StatusBadRequest},
		{service.ErrInvalidArea, http.StatusBadRequest},
		{service.ErrInvalidConfig, http.StatusBadRequest},
		{engine.ErrCoordinateOverflow, http.StatusBadRequest},
		{engine.ErrRaggedArray, http.StatusBadRequest},
		{engine.ErrEmptyArray, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", engine.ErrOutOfBounds), http.StatusConflict},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
