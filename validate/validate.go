// Command validate checks grid configuration JSON files. By default it scans
// ../configs; pass a directory to scan another one. It checks:
//   - JSON structure, rejecting unknown fields
//   - The same rules the server applies when loading a config
//   - Legend coverage: every layout character and the default are described
//   - Regions: connected groups of non-default cells in the seeded layout
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/growgrid/grid/engine"
	"github.com/wricardo/growgrid/grid/service"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...interface{}) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single configuration JSON file
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var config service.GridConfig
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&config); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if err := service.ValidateGridConfig(&config); err != nil {
		result.fail("%v", err)
		return result
	}

	validateLegend(&config, &result)
	if !result.Valid {
		return result
	}

	grid, err := service.NewGridFromConfig(&config)
	if err != nil {
		result.fail("Failed to build grid: %v", err)
		return result
	}

	bounds := grid.Bounds()
	result.info("Name: %s", config.Name)
	result.info("Bounds: %s (%dx%d)", bounds, bounds.Width(), bounds.Height())
	result.info("Default: %q, increment: %d", config.Default, config.GrowthIncrement)
	result.info("Grows on read: %v, on write: %v", config.ReadGrowth(), config.WriteGrowth())
	result.info("Filled: %d of %d cells differ from the default", bounds.Area()-engine.CountValue(grid, grid.Default()), bounds.Area())
	result.info("Max cells: %d", config.CellLimit())
	result.info("Headroom: %d horizontal growth steps", horizontalHeadroom(bounds, config.GrowthIncrement, config.CellLimit()))

	if len(config.Layout) > 0 {
		regions := countRegions(grid)
		result.info("Regions: %d connected groups of non-default cells", regions)
	}

	return result
}

// validateLegend requires a legend entry for every layout character and the
// default, once a legend is given at all
func validateLegend(config *service.GridConfig, result *ValidationResult) {
	if len(config.Legend) == 0 {
		return
	}

	missing := map[string]bool{}
	if _, ok := config.Legend[config.Default]; !ok {
		missing[config.Default] = true
	}
	for _, row := range config.Layout {
		for _, c := range row {
			if _, ok := config.Legend[string(c)]; !ok {
				missing[string(c)] = true
			}
		}
	}

	keys := make([]string, 0, len(missing))
	for k := range missing {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		result.fail("Legend has no entry for %q", k)
	}
}

// horizontalHeadroom counts growth steps to one side before max cells is exceeded
func horizontalHeadroom(bounds engine.Rect, increment, limit int) int {
	maxWidth := limit / bounds.Height()
	if maxWidth <= bounds.Width() {
		return 0
	}
	return (maxWidth - bounds.Width()) / increment
}

// countRegions flood fills 4-connected groups of cells that differ from the default
func countRegions(grid *engine.Growing[rune]) int {
	def := grid.Default()
	visited := make(map[engine.Point]bool)
	regions := 0

	for start := range grid.Points() {
		if v, _ := grid.GetPoint(start); v == def || visited[start] {
			continue
		}
		regions++

		queue := []engine.Point{start}
		visited[start] = true
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]

			for next := range grid.AreaAround(current, 1) {
				if visited[next] {
					continue
				}
				if v, _ := grid.GetPoint(next); v == def {
					continue
				}
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return regions
}

// main validates every *.json file in the config directory, printing a
// concise report and exiting with non-zero status if any are invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(configDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No config files found in %s\n", configDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations have errors")
		os.Exit(1)
	}
}
