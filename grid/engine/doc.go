// Package engine provides the growing grid: a two dimensional container
// addressable by any signed integer coordinate that expands on demand.
//
// The engine package implements:
//   - Fixed, a dense grid over an inclusive coordinate range
//   - Growing, a wrapper that replaces its Fixed grid with a larger one when
//     an access falls outside the current bounds
//   - Growth planning rounded up to a configurable increment
//   - Synchronous growth notifications
//   - Dense array import and export in either axis order
//
// Core Types:
//
// Growing owns exactly one Fixed grid at a time. When Get or Set targets a
// coordinate outside the bounds, Growing computes the extension needed on each
// of the four sides, allocates one larger Fixed grid, copies every old cell to
// the same absolute coordinate, swaps it in and notifies subscribers. Each side
// that grew bumps its counter in GrowthCounts by one.
//
// Usage:
//
//	g, err := engine.NewGrowing(0, engine.Range{Min: 0, Max: 4}, engine.Range{Min: 0, Max: 4}, 3)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	g.Subscribe(func(ev engine.GrowthEvent[int]) {
//		log.Printf("grew up=%d right=%d down=%d left=%d", ev.Up, ev.Right, ev.Down, ev.Left)
//	})
//
//	_ = g.Set(7, 2, 5) // right bound becomes 7
//	v, _ := g.Get(7, 2)
//
// Orientation:
//
// Up is +y and Down is -y. Dense arrays exported with AxesYX put MinY in row 0,
// which matches how text layouts are read.
//
// Concurrency:
//
// Neither Fixed nor Growing is safe for concurrent use. Share a grid across
// goroutines only behind a single mutex guarding every call.
package engine
