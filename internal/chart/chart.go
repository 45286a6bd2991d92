// Package chart renders projected series to PNG with go-chart.
package chart

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/bastiangx/bpedash/pkg/view"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNotEnoughData is returned when a series has fewer than two points, which
// go-chart cannot scale an axis for.
var ErrNotEnoughData = errors.New("not enough data points to chart")

const (
	width  = 960
	height = 360
)

// lineStyle returns a plain line without dots.
func lineStyle(hex string) gochart.Style {
	return gochart.Style{
		StrokeColor: drawing.ColorFromHex(strings.TrimPrefix(hex, "#")),
		StrokeWidth: 2,
	}
}

// Points collects the x/y values of one metric out of a series.
func Points(rows iter.Seq[view.SeriesRow], metric view.MetricInfo) (xs, ys []float64) {
	for row := range rows {
		v, ok := row.Values[metric.Name]
		if !ok {
			continue
		}
		xs = append(xs, float64(row.Step))
		ys = append(ys, v)
	}
	return xs, ys
}

// RenderSeries draws one metric of a training series as a line chart.
func RenderSeries(w io.Writer, rows iter.Seq[view.SeriesRow], metric view.MetricInfo) error {
	xs, ys := Points(rows, metric)
	if len(xs) < 2 {
		return ErrNotEnoughData
	}
	ch := gochart.Chart{
		Title:      metric.Name,
		Width:      width,
		Height:     height,
		Background: gochart.Style{Padding: gochart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      gochart.XAxis{Name: "Step"},
		YAxis:      gochart.YAxis{Name: metric.Name},
		Series: []gochart.Series{
			gochart.ContinuousSeries{Name: metric.Name, XValues: xs, YValues: ys, Style: lineStyle(metric.Color)},
		},
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}
	if err := ch.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render %s chart: %w", metric.Key, err)
	}
	return nil
}

// RenderGrowth draws token frequency over merge steps.
func RenderGrowth(w io.Writer, rows []view.GrowthRow) error {
	if len(rows) < 2 {
		return ErrNotEnoughData
	}
	xs := make([]float64, len(rows))
	ys := make([]float64, len(rows))
	for i, r := range rows {
		xs[i] = float64(r.Step)
		ys[i] = float64(r.Frequency)
	}
	ch := gochart.Chart{
		Title:  "Token Frequencies Over Time",
		Width:  width,
		Height: height,
		XAxis:  gochart.XAxis{Name: "Merge Steps"},
		YAxis:  gochart.YAxis{Name: "Frequency"},
		Series: []gochart.Series{
			gochart.ContinuousSeries{Name: "frequency", XValues: xs, YValues: ys, Style: lineStyle("#8884d8")},
		},
	}
	if err := ch.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render growth chart: %w", err)
	}
	return nil
}
