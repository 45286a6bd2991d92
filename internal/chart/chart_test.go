package chart

import (
	"bytes"
	"testing"

	"github.com/bastiangx/bpedash/pkg/api"
	"github.com/bastiangx/bpedash/pkg/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestRenderSeries(t *testing.T) {
	info, _ := view.LookupMetric(view.CompressionRatios)
	m := &api.Metrics{CompressionRatios: []float64{1.0, 1.4, 1.9, 2.2}}

	xs, ys := Points(view.BuildSeries(m, info.Key), info)
	assert.Equal(t, []float64{0, 1, 2, 3}, xs)
	assert.Equal(t, m.CompressionRatios, ys)

	var buf bytes.Buffer
	require.NoError(t, RenderSeries(&buf, view.BuildSeries(m, info.Key), info))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestRenderSeriesNotEnoughData(t *testing.T) {
	info, _ := view.LookupMetric(view.VocabSizes)
	var buf bytes.Buffer

	err := RenderSeries(&buf, view.BuildSeries(&api.Metrics{VocabSizes: []float64{80}}, info.Key), info)
	assert.ErrorIs(t, err, ErrNotEnoughData)
	assert.ErrorIs(t, RenderSeries(&buf, view.BuildSeries(nil), info), ErrNotEnoughData)
	assert.Zero(t, buf.Len())
}

func TestRenderGrowth(t *testing.T) {
	rows, ok := view.BuildGrowthSeries(&api.VocabGrowth{
		MergeSteps:   []int{1, 2, 3},
		Frequencies:  []int{90, 70, 65},
		Tokens:       []string{"कर", "ना", "है"},
		Compositions: [][]string{{"क", "र"}, {"न", "ा"}, {"ह", "ै"}},
	})
	require.True(t, ok)

	var buf bytes.Buffer
	require.NoError(t, RenderGrowth(&buf, rows))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))

	assert.ErrorIs(t, RenderGrowth(&buf, rows[:1]), ErrNotEnoughData)
}
