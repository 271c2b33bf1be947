package main

import (
	"context"
	"math"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/wricardo/growgrid/grid/config"
	"github.com/wricardo/growgrid/grid/service"
	"github.com/wricardo/growgrid/grid/session"
)

func newTestService(t *testing.T) service.GridService {
	t.Helper()
	configs, err := config.NewManager(filepath.Join("..", "..", "configs"))
	if err != nil {
		t.Fatalf("Failed to load configs: %v", err)
	}
	return service.NewGridService(session.NewManager(), configs)
}

func TestSummarize(t *testing.T) {
	s := summarize([]float64{6, 2, 4})

	if s.Mean != 4 {
		t.Errorf("Expected mean 4, got %f", s.Mean)
	}
	if math.Abs(s.StdDev-2) > 1e-9 {
		t.Errorf("Expected stddev 2, got %f", s.StdDev)
	}
	if s.Median != 4 {
		t.Errorf("Expected median 4, got %f", s.Median)
	}
	if s.Min != 2 || s.Max != 6 {
		t.Errorf("Expected range [2, 6], got [%f, %f]", s.Min, s.Max)
	}
}

func TestSummarize_Degenerate(t *testing.T) {
	if s := summarize(nil); s != (Summary{}) {
		t.Errorf("Expected zero summary for no samples, got %+v", s)
	}

	s := summarize([]float64{7})
	if s.Mean != 7 || s.StdDev != 0 || s.Median != 7 {
		t.Errorf("Expected single sample summary, got %+v", s)
	}
}

func TestRunTrial_FixedGridNeverGrows(t *testing.T) {
	svc := newTestService(t)
	rng := rand.New(rand.NewPCG(1, 2))

	res, err := runTrial(context.Background(), svc, "fixed", 300, rng)
	if err != nil {
		t.Fatalf("runTrial failed: %v", err)
	}
	if res.Events != 0 {
		t.Errorf("Expected no growth, got %d events", res.Events)
	}
	if res.Area != 64 {
		t.Errorf("Expected area 64, got %d", res.Area)
	}
}

func TestRunTrial_GrowingGrid(t *testing.T) {
	svc := newTestService(t)
	rng := rand.New(rand.NewPCG(3, 4))

	res, err := runTrial(context.Background(), svc, "classic", 300, rng)
	if err != nil {
		t.Fatalf("runTrial failed: %v", err)
	}
	if res.Area < 25 {
		t.Errorf("Expected area of at least 25, got %d", res.Area)
	}
	if res.Blocked != 0 {
		t.Errorf("Expected no blocked writes on classic, got %d", res.Blocked)
	}

	sessions, err := svc.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("Expected trial session to be deleted, found %d", len(sessions))
	}
}

func TestAnalyzeConfig_Deterministic(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, err := analyzeConfig(ctx, svc, "centered", 4, 200, 42)
	if err != nil {
		t.Fatalf("analyzeConfig failed: %v", err)
	}
	b, err := analyzeConfig(ctx, svc, "centered", 4, 200, 42)
	if err != nil {
		t.Fatalf("analyzeConfig failed: %v", err)
	}

	if *a != *b {
		t.Errorf("Expected identical reports for the same seed:\n%+v\n%+v", a, b)
	}
	if a.Trials != 4 || a.ConfigID != "centered" {
		t.Errorf("Unexpected report header: %+v", a)
	}
	if a.Area.Min < 121 {
		t.Errorf("Expected areas of at least 11x11, got min %f", a.Area.Min)
	}
}

func TestAnalyzeConfig_UnknownConfig(t *testing.T) {
	svc := newTestService(t)
	rng := rand.New(rand.NewPCG(1, 1))
	if _, err := runTrial(context.Background(), svc, "missing", 10, rng); err == nil {
		t.Error("Expected error for unknown config")
	}
}
