// Package render turns projected views into styled terminal text.
package render

import (
	"fmt"
	"strings"

	"github.com/bastiangx/bpedash/internal/utils"
	"github.com/bastiangx/bpedash/pkg/api"
	"github.com/bastiangx/bpedash/pkg/index"
	"github.com/bastiangx/bpedash/pkg/tokenize"
	"github.com/bastiangx/bpedash/pkg/view"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#797593", Dark: "#908caa"})
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#eb6f92"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ccfd8"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#f6c177"))
	chipInk     = lipgloss.Color("#1f1d2e")
)

// Chip renders a token on its class color.
func Chip(token, tokenType string, selected bool) string {
	st := lipgloss.NewStyle().
		Background(lipgloss.Color(view.ColorFor(tokenType))).
		Foreground(chipInk).
		Padding(0, 1)
	if selected {
		st = st.Underline(true).Bold(true)
	}
	return st.Render(token)
}

// Legend renders the token type legend on one line.
func Legend() string {
	parts := make([]string, 0, len(view.Legend()))
	for _, e := range view.Legend() {
		parts = append(parts, Chip(e.Label, e.Type, false))
	}
	return strings.Join(parts, " ")
}

// Request renders the tokenize request state: spinner text, error, or the full result.
func Request(st tokenize.RequestState, selected int) string {
	switch st.Phase {
	case tokenize.Idle:
		return labelStyle.Render("Enter text to tokenize.")
	case tokenize.Loading:
		return labelStyle.Render("Tokenizing...")
	case tokenize.Failed:
		return errorStyle.Render(st.Err)
	}
	return Result(st.Result, selected)
}

// Result renders statistics, token chips, merge history and the comparison table.
func Result(r *api.TokenizeResult, selected int) string {
	if r == nil {
		return ""
	}
	var b strings.Builder

	if r.Stats != nil {
		b.WriteString(titleStyle.Render("Token Statistics") + "\n")
		fmt.Fprintf(&b, "%s %d  %s %d  %s %d  %s %s\n",
			labelStyle.Render("Original Characters:"), r.Stats.OriginalChars,
			labelStyle.Render("Token Count:"), r.Stats.TokenCount,
			labelStyle.Render("Unique Tokens:"), r.Stats.UniqueTokens,
			labelStyle.Render("Compression Ratio:"), utils.FormatRatio(r.Stats.CompressionRatio))
	}

	if len(r.TokenDetails) > 0 {
		b.WriteString("\n" + titleStyle.Render("Tokens Analysis") + "\n")
		b.WriteString(Legend() + "\n")
		chips := make([]string, len(r.TokenDetails))
		for i, d := range r.TokenDetails {
			chips[i] = Chip(d.Token, d.Type, i == selected)
		}
		b.WriteString(strings.Join(chips, " ") + "\n")
		if selected >= 0 && selected < len(r.TokenDetails) {
			b.WriteString(Popup(view.TokenInfo(r.TokenDetails[selected])) + "\n")
		}
	}

	if len(r.MergeHistory) > 0 {
		b.WriteString("\n" + titleStyle.Render("Recent Merge Operations") + "\n")
		for _, m := range r.MergeHistory {
			b.WriteString("  " + view.FormatMerge(m) + "\n")
		}
	}

	if rows, ok := view.ComparisonFromResult(r); ok {
		b.WriteString("\n" + titleStyle.Render("Token Comparison") + "\n")
		b.WriteString(Comparison(rows))
	}
	return b.String()
}

// Popup renders the detail of a selected token.
func Popup(p view.TokenPopup) string {
	return fmt.Sprintf("%s %d  %s %s  %s %s",
		labelStyle.Render("Length:"), p.Length,
		labelStyle.Render("Type:"), p.Type,
		labelStyle.Render("Unicode:"), strings.Join(p.Codepoints, " "))
}

// Comparison renders an aligned comparison table.
func Comparison(rows []view.ComparisonRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%4s  %-12s %-12s %-12s %s\n", "#", "original", "encoded", "bpe", "id")
	for _, r := range rows {
		fmt.Fprintf(&b, "%4d  %-12s %-12s %-12s %d\n", r.Index, r.Original, r.Encoded, r.BPE, r.ID)
	}
	return b.String()
}

// Progress renders the training status, base vocabulary, summary and the tail of the
// selected metric series.
func Progress(p *api.ProgressState, ok bool, metric view.MetricKey, tail int) string {
	if !ok {
		return labelStyle.Render("Waiting for training progress...")
	}
	s := view.BuildSummary(p)
	var b strings.Builder

	b.WriteString(titleStyle.Render("Training Progress") + "\n")
	status := doneStyle.Render("● " + s.Status())
	if s.Training {
		status = activeStyle.Render("● " + s.Status())
	}
	fmt.Fprintf(&b, "%s  %d / %d\n", status, s.CurrentStep, s.TargetVocabSize)

	if p.BaseVocabStats != nil {
		bv := p.BaseVocabStats
		fmt.Fprintf(&b, "%s vyanjan %d  swar %d  matras %d  special %d  total %d\n",
			labelStyle.Render("Base Vocabulary:"), bv.Vyanjan, bv.Swar, bv.Matras, bv.Special, bv.Total)
	}
	if s.HasMetrics {
		fmt.Fprintf(&b, "%s %d  %s %d  %s %d\n",
			labelStyle.Render("Base:"), s.BaseVocab,
			labelStyle.Render("Learned Tokens:"), s.LearnedTokens,
			labelStyle.Render("Total Vocabulary:"), s.TotalVocab)
	}
	fmt.Fprintf(&b, "%s %d  %s %d  %s %d\n",
		labelStyle.Render("Initial Vocabulary:"), s.InitialVocabSize,
		labelStyle.Render("Target Vocabulary:"), s.TargetVocabSize,
		labelStyle.Render("Current Step:"), s.CurrentStep)

	if info, found := view.LookupMetric(metric); found && p.Metrics != nil {
		b.WriteString("\n" + titleStyle.Render(info.Name) + "\n")
		b.WriteString(SeriesTail(p.Metrics, info, tail))
	}
	return b.String()
}

// SeriesTail lists the last n points of one metric.
func SeriesTail(m *api.Metrics, info view.MetricInfo, n int) string {
	var rows []view.SeriesRow
	for row := range view.BuildSeries(m, info.Key) {
		rows = append(rows, row)
		if n > 0 && len(rows) > n {
			rows = rows[1:]
		}
	}
	if len(rows) == 0 {
		return labelStyle.Render("  no data yet") + "\n"
	}
	var b strings.Builder
	for _, row := range rows {
		fmt.Fprintf(&b, "  step %5d  %10.3f\n", row.Step, row.Values[info.Name])
	}
	return b.String()
}

// Growth renders the recent token additions.
func Growth(recent []view.RecentAddition) string {
	if len(recent) == 0 {
		return labelStyle.Render("No vocabulary growth recorded.")
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Recent Token Additions") + "\n")
	for _, r := range recent {
		fmt.Fprintf(&b, "  %-12s %s %-8s %s %-6d %s\n", r.Token,
			labelStyle.Render("freq"), utils.FormatWithCommas(r.Frequency),
			labelStyle.Render("step"), r.Step,
			view.JoinComposition(r.Composition))
	}
	return b.String()
}

// Matches renders token index search results.
func Matches(prefix string, entries []index.Entry) string {
	if len(entries) == 0 {
		return labelStyle.Render(fmt.Sprintf("No tokens found for prefix '%s'", prefix))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d tokens for prefix '%s':\n", len(entries), prefix)
	for i, e := range entries {
		learned := ""
		if e.Learned {
			learned = labelStyle.Render(" learned")
		}
		fmt.Fprintf(&b, "%2d. %s (freq: %8s, seen: %s)%s\n", i+1, Chip(e.Token, e.Type, false),
			utils.FormatWithCommas(e.Frequency), utils.FormatWithCommas(e.Seen), learned)
	}
	return b.String()
}

// Find searches ix by prefix, suggests the closest token when nothing matches
// and closes with the index counters.
func Find(ix *index.TokenIndex, prefix string, limit int) string {
	matches := ix.Search(prefix, limit)
	out := Matches(prefix, matches)
	if len(matches) == 0 {
		if e, corrected, ok := ix.Closest(prefix); ok && corrected {
			out += "\nDid you mean " + Chip(e.Token, e.Type, false) + "?"
		}
	}
	stats := ix.Stats()
	return strings.TrimRight(out, "\n") + "\n" + labelStyle.Render(fmt.Sprintf("Index: %s tokens, %s learned",
		utils.FormatWithCommas(stats["tokens"]), utils.FormatWithCommas(stats["learned"])))
}

// VocabStats renders /vocabulary-stats.
func VocabStats(v *api.VocabularyStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Vocabulary Size:"), utils.FormatWithCommas(v.VocabSize))
	for i, tc := range v.MostFrequentTokens {
		fmt.Fprintf(&b, "%2d. %-12s %s\n", i+1, tc.Token, utils.FormatWithCommas(tc.Count))
	}
	return b.String()
}
