// Command walker drives a running grid server over its REST API. It writes a
// square spiral outward from the grid center, one cell per request or in
// bulk-set batches, and reports how the grid grew.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/growgrid/grid/engine"
	"github.com/wricardo/growgrid/grid/service"
)

const sessionFile = ".session"

// WalkOptions controls a single walk
type WalkOptions struct {
	Steps   int
	Batch   int
	Value   string
	Delay   time.Duration
	Verbose bool
}

// WalkSummary reports what a walk did to the grid
type WalkSummary struct {
	Writes       int
	GrowthEvents int
	Stopped      string
	Final        *service.SessionInfo
}

func main() {
	cmd := &cli.Command{
		Name:  "walker",
		Usage: "spiral writer for a grid server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "grid server URL"},
			&cli.StringFlag{Name: "config", Usage: "config ID for a new session"},
			&cli.StringFlag{Name: "continue", Usage: "resume an existing session by ID"},
			&cli.IntFlag{Name: "steps", Value: 500, Usage: "cells to write"},
			&cli.IntFlag{Name: "batch", Value: 1, Usage: "writes per bulk-set request (1 = single writes)"},
			&cli.StringFlag{Name: "value", Value: "*", Usage: "character to write"},
			&cli.DurationFlag{Name: "delay", Usage: "pause between requests"},
			&cli.BoolFlag{Name: "v", Usage: "verbose output"},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	log.Printf("Connecting to grid server at %s", cmd.String("url"))
	client := NewClient(cmd.String("url"))

	if _, err := openSession(ctx, client, cmd.String("continue"), cmd.String("config")); err != nil {
		return err
	}

	log.Printf("🔄 Resetting grid...")
	if _, err := client.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset grid: %w", err)
	}

	summary, err := walk(ctx, client, WalkOptions{
		Steps:   cmd.Int("steps"),
		Batch:   cmd.Int("batch"),
		Value:   cmd.String("value"),
		Delay:   cmd.Duration("delay"),
		Verbose: cmd.Bool("v"),
	})
	if err != nil {
		return err
	}

	g := summary.Final.Growth
	log.Printf("Writes=%d, Growth events=%d (up=%d right=%d down=%d left=%d)",
		summary.Writes, summary.GrowthEvents, g.Up, g.Right, g.Down, g.Left)
	log.Printf("Final bounds: %s, %d cells", summary.Final.Bounds, summary.Final.Cells)
	if summary.Stopped != "" {
		log.Printf("⚠️  Stopped early: %s", summary.Stopped)
	}
	log.Printf("Session: %s", client.SessionID())
	return nil
}

// openSession resumes an explicit or saved session, creating a new one when
// neither is usable
func openSession(ctx context.Context, client *Client, resumeID, configID string) (*service.SessionInfo, error) {
	savedID := resumeID
	if savedID == "" {
		if data, err := os.ReadFile(sessionFile); err == nil {
			savedID = string(bytes.TrimSpace(data))
		}
	}

	if savedID != "" {
		log.Printf("🔄 Resuming session: %s", savedID)
		info, err := client.UseSession(ctx, savedID)
		if err == nil {
			log.Printf("Session resumed - Bounds: %s, Cells: %d", info.Bounds, info.Cells)
			return info, nil
		}
		log.Printf("⚠️  Failed to resume session (may be expired): %v", err)
	}

	info, err := client.CreateSession(ctx, configID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	log.Printf("✨ Session created: %s (%s)", info.ID, info.ConfigName)

	if err := os.WriteFile(sessionFile, []byte(info.ID), 0644); err != nil {
		log.Printf("Warning: Failed to save session ID: %v", err)
	}
	return info, nil
}

// walk writes opts.Steps cells along a spiral from the current grid center.
// It stops early when the server rejects a write for bounds or size.
func walk(ctx context.Context, client *Client, opts WalkOptions) (*WalkSummary, error) {
	info, err := client.GetSession(ctx)
	if err != nil {
		return nil, err
	}

	b := info.Bounds
	spiral := NewSpiralStrategy(engine.Point{X: b.MinX + b.Width()/2, Y: b.MinY + b.Height()/2})
	batch := min(max(opts.Batch, 1), service.MaxBulkWrites)
	summary := &WalkSummary{}

	for summary.Writes < opts.Steps && summary.Stopped == "" {
		n := min(batch, opts.Steps-summary.Writes)

		if n == 1 {
			p := spiral.Next()
			result, err := client.SetCell(ctx, p.X, p.Y, opts.Value)
			var apiErr *APIError
			switch {
			case errors.As(err, &apiErr) && apiErr.Rejected():
				summary.Stopped = apiErr.Message
				continue
			case err != nil:
				return nil, err
			}
			summary.Writes++
			summary.GrowthEvents += len(result.Grown)
		} else {
			points := spiral.Batch(n)
			writes := make([]service.CellWrite, len(points))
			for i, p := range points {
				writes[i] = service.CellWrite{X: p.X, Y: p.Y, Value: opts.Value}
			}
			result, err := client.BulkSet(ctx, writes)
			if err != nil {
				return nil, err
			}
			summary.Writes += result.Applied
			summary.GrowthEvents += len(result.Grown)
			if !result.Success {
				summary.Stopped = result.StoppedReason
			}
		}

		if opts.Verbose && summary.Writes%50 == 0 {
			p := spiral.Position()
			log.Printf("Position: (%d,%d), Writes: %d, Growth events: %d", p.X, p.Y, summary.Writes, summary.GrowthEvents)
		}
		if opts.Delay > 0 {
			time.Sleep(opts.Delay)
		}
	}

	summary.Final, err = client.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	return summary, nil
}
