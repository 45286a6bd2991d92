package view

import (
	"fmt"
	"strings"

	"github.com/bastiangx/bpedash/pkg/api"
)

// TokenPopup is the detail shown for a selected token.
type TokenPopup struct {
	Token      string
	Length     int
	Type       string
	Color      string
	Codepoints []string
}

// TokenInfo builds the popup of a token detail. Code points are lower-case hex.
func TokenInfo(d api.TokenDetail) TokenPopup {
	var cps []string
	for _, r := range d.Token {
		cps = append(cps, fmt.Sprintf("%x", r))
	}
	return TokenPopup{
		Token:      d.Token,
		Length:     d.Length,
		Type:       d.Type,
		Color:      ColorFor(d.Type),
		Codepoints: cps,
	}
}

// JoinComposition renders the parts a token was merged from, "a + b".
func JoinComposition(parts []string) string {
	return strings.Join(parts, " + ")
}

// FormatMerge renders a merge as "a + b → ab (n times)".
func FormatMerge(m api.Merge) string {
	return fmt.Sprintf("%s → %s (%d times)", JoinComposition(m.Pair[:]), m.NewToken, m.Frequency)
}
