package render

import (
	"testing"

	"github.com/bastiangx/bpedash/pkg/api"
	"github.com/bastiangx/bpedash/pkg/index"
	"github.com/bastiangx/bpedash/pkg/tokenize"
	"github.com/bastiangx/bpedash/pkg/view"
	"github.com/stretchr/testify/assert"
)

func sampleResult() *api.TokenizeResult {
	return &api.TokenizeResult{
		Stats:                 &api.TokenStats{OriginalChars: 4, TokenCount: 2, UniqueTokens: 2, CompressionRatio: 2},
		TokenDetails:          []api.TokenDetail{{Token: "कर", Length: 2, Type: "compound"}, {Token: "ना", Length: 2, Type: "compound"}},
		TokenNumbers:          []int{300, 301},
		MergeHistory:          []api.Merge{{Pair: [2]string{"क", "र"}, NewToken: "कर", Frequency: 12}},
		OriginalTokens:        []string{"क", "र"},
		OriginalEncodedTokens: []string{"k", "r"},
		BPETokens:             []string{"कर", "ना"},
	}
}

func TestRequest(t *testing.T) {
	assert.Contains(t, Request(tokenize.RequestState{Phase: tokenize.Loading}, -1), "Tokenizing...")
	assert.Contains(t, Request(tokenize.RequestState{Phase: tokenize.Failed, Err: "model not loaded"}, -1), "model not loaded")

	out := Request(tokenize.RequestState{Phase: tokenize.Succeeded, Result: sampleResult()}, 0)
	assert.Contains(t, out, "Compression Ratio:")
	assert.Contains(t, out, "2.00:1")
	assert.Contains(t, out, "क + र → कर (12 times)")
	assert.Contains(t, out, "Unicode:")
	assert.Contains(t, out, "Token Comparison")
}

func TestResultSkipsMisalignedComparison(t *testing.T) {
	r := sampleResult()
	r.TokenNumbers = r.TokenNumbers[:1]
	out := Result(r, -1)
	assert.NotContains(t, out, "Token Comparison")
	assert.NotContains(t, out, "Unicode:")
}

func TestProgress(t *testing.T) {
	assert.Contains(t, Progress(nil, false, view.DefaultMetric, 5), "Waiting")

	p := &api.ProgressState{
		TargetVocabSize: api.Int(3),
		Steps:           api.StepsOf(api.Step{}),
		Metrics:         &api.Metrics{CompressionRatios: []float64{1.0, 1.5}},
	}
	out := Progress(p, true, view.CompressionRatios, 5)
	assert.Contains(t, out, "Training in Progress")
	assert.Contains(t, out, "Compression Ratio")
	assert.Contains(t, out, "1.500")
}

func TestSeriesTailWindow(t *testing.T) {
	info, _ := view.LookupMetric(view.VocabSizes)
	out := SeriesTail(&api.Metrics{VocabSizes: []float64{10, 20, 30, 40}}, info, 2)
	assert.NotContains(t, out, "20.000")
	assert.Contains(t, out, "30.000")
	assert.Contains(t, out, "40.000")
}

func TestMatches(t *testing.T) {
	assert.Contains(t, Matches("zz", nil), "No tokens found for prefix 'zz'")
	out := Matches("क", []index.Entry{{Token: "कर", Frequency: 1200, Learned: true}})
	assert.Contains(t, out, "1,200")
	assert.Contains(t, out, "learned")
}

func TestFind(t *testing.T) {
	ix := index.New()
	ix.AddGrowth(&api.VocabGrowth{Tokens: []string{"करना", "कर"}, Frequencies: []int{40, 5}})
	ix.AddResult(&api.TokenizeResult{TokenDetails: []api.TokenDetail{{Token: "है", Type: "compound"}}})

	out := Find(ix, "कर", 10)
	assert.Contains(t, out, "Found 2 tokens")
	assert.Contains(t, out, "Index: 3 tokens, 2 learned")

	out = Find(ix, "कना", 10)
	assert.Contains(t, out, "No tokens found")
	assert.Contains(t, out, "Did you mean")
}
