package view

import "github.com/bastiangx/bpedash/pkg/api"

// MetricKey names a chartable metric array.
type MetricKey string

const (
	VocabSizes        MetricKey = "vocab_sizes"
	CompressionRatios MetricKey = "compression_ratios"
	MergeFrequencies  MetricKey = "merge_frequencies"
	UniqueTokens      MetricKey = "unique_tokens"
)

// DefaultMetric is selected when nothing else is asked for.
const DefaultMetric = CompressionRatios

// MetricInfo is the display config of a metric.
type MetricInfo struct {
	Key   MetricKey
	Name  string
	Color string
}

var metricCatalog = []MetricInfo{
	{VocabSizes, "Vocabulary Size", "#8884d8"},
	{CompressionRatios, "Compression Ratio", "#82ca9d"},
	{MergeFrequencies, "Merge Frequency", "#ffc658"},
	{UniqueTokens, "Unique Tokens", "#ff7300"},
}

// Metrics returns the chartable metrics in display order.
func Metrics() []MetricInfo {
	out := make([]MetricInfo, len(metricCatalog))
	copy(out, metricCatalog)
	return out
}

// LookupMetric finds the display config of key.
func LookupMetric(key MetricKey) (MetricInfo, bool) {
	for _, m := range metricCatalog {
		if m.Key == key {
			return m, true
		}
	}
	return MetricInfo{}, false
}

// values returns the array backing key.
func values(m *api.Metrics, key MetricKey) []float64 {
	switch key {
	case VocabSizes:
		return m.VocabSizes
	case CompressionRatios:
		return m.CompressionRatios
	case MergeFrequencies:
		return m.MergeFrequencies
	case UniqueTokens:
		return m.UniqueTokens
	}
	return nil
}
