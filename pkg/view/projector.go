/*
Package view projects tokenizer and training state into display-ready rows.

Everything here is a pure function of its inputs. Inputs arrive as parallel slices that
describe the same entity at the same index; every projection checks alignment before
zipping instead of trusting the upstream shape.
*/
package view

import (
	"iter"

	"github.com/bastiangx/bpedash/pkg/api"
)

// DefaultWindow is the size of the recent additions window.
const DefaultWindow = 10

// SeriesRow is one chart point: a step index and one value per selected metric,
// keyed by metric display name.
type SeriesRow struct {
	Step   int
	Values map[string]float64
}

// BuildSeries yields one row per training step for the selected metrics (all chartable
// metrics when keys is empty). The sequence is lazy and can be ranged over any number
// of times. Nil metrics yield nothing. Arrays of unequal length are cut to the shortest.
func BuildSeries(m *api.Metrics, keys ...MetricKey) iter.Seq[SeriesRow] {
	if m == nil {
		return func(func(SeriesRow) bool) {}
	}
	if len(keys) == 0 {
		for _, info := range metricCatalog {
			keys = append(keys, info.Key)
		}
	}

	type column struct {
		name string
		data []float64
	}
	var cols []column
	n := -1
	for _, key := range keys {
		info, ok := LookupMetric(key)
		if !ok {
			continue
		}
		data := values(m, key)
		cols = append(cols, column{info.Name, data})
		if n < 0 || len(data) < n {
			n = len(data)
		}
	}

	return func(yield func(SeriesRow) bool) {
		for i := 0; i < n; i++ {
			row := SeriesRow{Step: i, Values: make(map[string]float64, len(cols))}
			for _, c := range cols {
				row.Values[c.name] = c.data[i]
			}
			if !yield(row) {
				return
			}
		}
	}
}

// RecentAddition is one learned token with its parallel attributes.
type RecentAddition struct {
	Token       string
	Frequency   int
	Step        int
	Composition []string
}

// BuildRecentAdditions returns the last windowSize learned tokens in original order,
// fewer when the growth record is shorter. windowSize <= 0 means DefaultWindow.
func BuildRecentAdditions(g *api.VocabGrowth, windowSize int) []RecentAddition {
	if g == nil {
		return nil
	}
	if windowSize <= 0 {
		windowSize = DefaultWindow
	}
	n := min(len(g.Tokens), len(g.Frequencies), len(g.MergeSteps), len(g.Compositions))
	start := max(0, n-windowSize)

	out := make([]RecentAddition, 0, n-start)
	for i := start; i < n; i++ {
		out = append(out, RecentAddition{
			Token:       g.Tokens[i],
			Frequency:   g.Frequencies[i],
			Step:        g.MergeSteps[i],
			Composition: g.Compositions[i],
		})
	}
	return out
}

// ComparisonRow lines up one position of the four comparison sequences.
type ComparisonRow struct {
	Index    int
	Original string
	Encoded  string
	BPE      string
	ID       int
}

// BuildComparisonRows zips the four sequences by position. It returns ok=false, and no rows,
// unless all four have the same non-zero length.
func BuildComparisonRows(original, encoded, bpe []string, numbers []int) ([]ComparisonRow, bool) {
	n := len(original)
	if n == 0 || len(encoded) != n || len(bpe) != n || len(numbers) != n {
		return nil, false
	}
	rows := make([]ComparisonRow, n)
	for i := range n {
		rows[i] = ComparisonRow{
			Index:    i,
			Original: original[i],
			Encoded:  encoded[i],
			BPE:      bpe[i],
			ID:       numbers[i],
		}
	}
	return rows, true
}

// ComparisonFromResult builds the comparison table of a tokenize result.
func ComparisonFromResult(r *api.TokenizeResult) ([]ComparisonRow, bool) {
	if r == nil {
		return nil, false
	}
	return BuildComparisonRows(r.OriginalTokens, r.OriginalEncodedTokens, r.BPETokens, r.TokenNumbers)
}

// GrowthRow is one point of the vocabulary growth chart.
type GrowthRow struct {
	Step        int
	Frequency   int
	Token       string
	Composition string
}

// BuildGrowthSeries zips a growth record into chart rows. Misaligned records give ok=false.
func BuildGrowthSeries(g *api.VocabGrowth) ([]GrowthRow, bool) {
	if g == nil {
		return nil, false
	}
	n := len(g.MergeSteps)
	if len(g.Frequencies) != n || len(g.Tokens) != n || len(g.Compositions) != n {
		return nil, false
	}
	rows := make([]GrowthRow, n)
	for i := range n {
		rows[i] = GrowthRow{
			Step:        g.MergeSteps[i],
			Frequency:   g.Frequencies[i],
			Token:       g.Tokens[i],
			Composition: JoinComposition(g.Compositions[i]),
		}
	}
	return rows, true
}
