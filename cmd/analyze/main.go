// Command analyze runs random-walk writers against every configuration in a
// directory and prints growth statistics per preset: final grid area, growth
// events and writes rejected by the bounds or max_cells limit.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"sort"

	"github.com/urfave/cli/v3"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/wricardo/growgrid/grid/config"
	"github.com/wricardo/growgrid/grid/engine"
	"github.com/wricardo/growgrid/grid/service"
	"github.com/wricardo/growgrid/grid/session"
)

// Summary holds descriptive statistics for one measured quantity
type Summary struct {
	Mean   float64
	StdDev float64
	Median float64
	Min    float64
	Max    float64
}

// TrialResult is the outcome of one random walk
type TrialResult struct {
	Area    int
	Events  uint
	Blocked int
}

// Report aggregates every trial run against a config
type Report struct {
	ConfigID string
	Trials   int
	Area     Summary
	Events   Summary
	Blocked  Summary
}

var directions = [4]engine.Point{{X: 0, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: -1}, {X: -1, Y: 0}}

func main() {
	cmd := &cli.Command{
		Name:  "analyze",
		Usage: "random-walk growth statistics for grid configs",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "directory of config JSON files"},
			&cli.IntFlag{Name: "trials", Value: 20, Usage: "walks per config"},
			&cli.IntFlag{Name: "steps", Value: 500, Usage: "writes per walk"},
			&cli.IntFlag{Name: "seed", Value: 1, Usage: "random seed"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return analyzeAll(ctx, cmd.String("config-dir"), cmd.Int("trials"), cmd.Int("steps"), uint64(cmd.Int("seed")))
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func analyzeAll(ctx context.Context, configDir string, trials, steps int, seed uint64) error {
	configs, err := config.NewManager(configDir)
	if err != nil {
		return err
	}
	svc := service.NewGridService(session.NewManager(), configs)

	infos, err := svc.ListConfigs(ctx)
	if err != nil {
		return err
	}

	for _, info := range infos {
		fmt.Printf("\n=== Analyzing %s ===\n", info.Filename)
		fmt.Printf("Name: %s\n", info.Name)
		fmt.Printf("Initial Size: %d x %d, increment %d, max cells %d\n", info.Width, info.Height, info.GrowthIncrement, info.MaxCells)

		report, err := analyzeConfig(ctx, svc, info.ConfigID, trials, steps, seed)
		if err != nil {
			fmt.Printf("Error analyzing: %v\n", err)
			continue
		}
		printReport(report)
	}
	return nil
}

// analyzeConfig runs trials random walks and summarizes them
func analyzeConfig(ctx context.Context, svc service.GridService, configID string, trials, steps int, seed uint64) (*Report, error) {
	rng := rand.New(rand.NewPCG(seed, uint64(len(configID))))

	areas := make([]float64, 0, trials)
	events := make([]float64, 0, trials)
	blocked := make([]float64, 0, trials)

	for i := 0; i < trials; i++ {
		res, err := runTrial(ctx, svc, configID, steps, rng)
		if err != nil {
			return nil, err
		}
		areas = append(areas, float64(res.Area))
		events = append(events, float64(res.Events))
		blocked = append(blocked, float64(res.Blocked))
	}

	return &Report{
		ConfigID: configID,
		Trials:   trials,
		Area:     summarize(areas),
		Events:   summarize(events),
		Blocked:  summarize(blocked),
	}, nil
}

// runTrial writes along a random walk that starts at the grid center. A
// rejected write leaves the walker where it was.
func runTrial(ctx context.Context, svc service.GridService, configID string, steps int, rng *rand.Rand) (TrialResult, error) {
	info, err := svc.CreateSession(ctx, configID)
	if err != nil {
		return TrialResult{}, err
	}
	defer svc.DeleteSession(ctx, info.ID)

	b := info.Bounds
	pos := engine.Point{X: b.MinX + b.Width()/2, Y: b.MinY + b.Height()/2}
	result := TrialResult{}

	for i := 0; i < steps; i++ {
		next := pos.Add(directions[rng.IntN(len(directions))])
		_, err := svc.SetCell(ctx, info.ID, next.X, next.Y, "*")
		switch {
		case err == nil:
			pos = next
		case errors.Is(err, engine.ErrOutOfBounds), errors.Is(err, service.ErrGridTooLarge):
			result.Blocked++
		default:
			return TrialResult{}, err
		}
	}

	final, err := svc.GetSession(ctx, info.ID)
	if err != nil {
		return TrialResult{}, err
	}
	result.Area = final.Bounds.Area()
	result.Events = final.Growth.Total()
	return result, nil
}

// summarize computes descriptive statistics; xs is sorted in place
func summarize(xs []float64) Summary {
	if len(xs) == 0 {
		return Summary{}
	}
	sort.Float64s(xs)
	mean, std := stat.MeanStdDev(xs, nil)
	if len(xs) == 1 {
		std = 0
	}
	return Summary{
		Mean:   mean,
		StdDev: std,
		Median: stat.Quantile(0.5, stat.Empirical, xs, nil),
		Min:    floats.Min(xs),
		Max:    floats.Max(xs),
	}
}

func printReport(r *Report) {
	fmt.Printf("Trials: %d\n", r.Trials)
	printSummary("Final Area", r.Area)
	printSummary("Growth Events", r.Events)
	printSummary("Blocked Writes", r.Blocked)

	if r.Events.Max == 0 {
		fmt.Printf("⚠️  No walk ever grew the grid\n")
	}
	if r.Blocked.Mean > 0 {
		fmt.Printf("⚠️  Walks hit the bounds or the cell limit %.1f times on average\n", r.Blocked.Mean)
	} else {
		fmt.Printf("✅ Every write was accepted\n")
	}
}

func printSummary(label string, s Summary) {
	fmt.Printf("%-15s mean %.1f ± %.1f  median %.1f  range [%.0f, %.0f]\n", label+":", s.Mean, s.StdDev, s.Median, s.Min, s.Max)
}
