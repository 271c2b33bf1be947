package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/gorilla/mux"
	"github.com/wricardo/growgrid/grid/engine"
	"github.com/wricardo/growgrid/grid/service"
)

// handleGrowthChart renders an HTML page with two charts for a session:
// growth events per direction, and grid area after each recorded growth.
func (s *Server) handleGrowthChart(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	records, counts, err := s.allGrowth(r, sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Grid growth", Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: "Growth events", Subtitle: "session=" + sessionID}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis([]string{"Up", "Right", "Down", "Left"}).
		AddSeries("events", []opts.BarData{
			{Value: counts.Up},
			{Value: counts.Right},
			{Value: counts.Down},
			{Value: counts.Left},
		}, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))

	x := make([]string, 0, len(records))
	area := make([]opts.LineData, 0, len(records))
	for _, rec := range records {
		x = append(x, strconv.Itoa(rec.Seq))
		area = append(area, opts.LineData{Value: float64(rec.Bounds.Width()) * float64(rec.Bounds.Height())})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: "Cells after growth", Subtitle: fmt.Sprintf("records=%d", len(records))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "seq"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "cells"}),
	)
	line.SetXAxis(x).AddSeries("cells", area)

	page := components.NewPage()
	page.AddCharts(bar, line)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("render error: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// allGrowth walks every page of a session's growth history, oldest first
func (s *Server) allGrowth(r *http.Request, sessionID string) ([]service.GrowthRecord, engine.GrowthCounts, error) {
	var records []service.GrowthRecord
	opts := service.HistoryOptions{Page: 1, Limit: 100, Order: "asc"}
	for {
		page, err := s.service.GetGrowthHistory(r.Context(), sessionID, opts)
		if err != nil {
			return nil, engine.GrowthCounts{}, err
		}
		records = append(records, page.Records...)
		if !page.HasNext {
			return records, page.Counts, nil
		}
		opts.Page++
	}
}
