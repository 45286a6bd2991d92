package chart

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/bastiangx/bpedash/internal/utils"
	"github.com/bastiangx/bpedash/pkg/api"
	"github.com/bastiangx/bpedash/pkg/view"
)

// ErrNoGrowth is returned when the service has no consistent vocabulary growth yet.
var ErrNoGrowth = errors.New("no vocabulary growth available")

// Source fetches what the exports draw from.
type Source interface {
	TrainingProgress(ctx context.Context) (*api.ProgressState, error)
	TrainingStats(ctx context.Context) (*api.TrainingStats, error)
}

// ExportSeries fetches progress once and writes the metric curve to path.
// Nothing is written when the chart cannot be rendered.
func ExportSeries(ctx context.Context, src Source, metric view.MetricKey, path string) error {
	info, ok := view.LookupMetric(metric)
	if !ok {
		return fmt.Errorf("unknown metric %q", metric)
	}
	state, err := src.TrainingProgress(ctx)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := RenderSeries(&buf, view.BuildSeries(state.Metrics, info.Key), info); err != nil {
		return err
	}
	return writeFile(path, &buf)
}

// ExportGrowth fetches training stats once and writes merge frequency over
// merge steps to path.
func ExportGrowth(ctx context.Context, src Source, path string) error {
	ts, err := src.TrainingStats(ctx)
	if err != nil {
		return err
	}
	rows, ok := view.BuildGrowthSeries(ts.VocabGrowth)
	if !ok {
		return ErrNoGrowth
	}
	var buf bytes.Buffer
	if err := RenderGrowth(&buf, rows); err != nil {
		return err
	}
	return writeFile(path, &buf)
}

func writeFile(path string, buf *bytes.Buffer) error {
	f, err := utils.CreateOutputFile(path)
	if err != nil {
		return err
	}
	if _, err := buf.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
