// Package config provides configuration management for growgrid presets.
//
// The config package handles:
//   - Loading grid presets from JSON files
//   - Preset validation
//   - Default preset selection
//   - Preset discovery and listing
//
// Configuration Format:
//
// Presets are stored as JSON files in the configs directory. Each preset
// defines:
//   - The default character every unwritten cell holds
//   - Either an initial x_range / y_range or a layout of text rows
//     (row i is y = i, column j is x = j)
//   - The growth increment and whether reads and writes may grow the grid
//   - max_cells, the area a remote access may grow a grid to
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gridConfig, err := manager.LoadConfig("classic")
//	defaultConfig := manager.GetDefault()
//	configs, err := manager.ListConfigs()
//
// The default preset is "classic" when present, otherwise the first valid
// preset in the directory, otherwise a built-in 5x5 grid.
package config
