package index

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/tchap/go-patricia/v2/patricia"
)

// Scoring weights of the subsequence matcher.
const (
	firstRuneBonus          = 15
	adjacentBonus           = 10
	separatorBonus          = 12
	leadingRunePenalty      = -3
	maxLeadingRunePenalty   = -9
	maxFrequencyBonus       = 30
	lengthMismatchPenalty   = 2
	minCorrectableRuneCount = 2
)

type match struct {
	entry   Entry
	score   int
	matched []int
}

// Closest returns the indexed token input most likely meant, matching input as an ordered
// subsequence of each candidate. Exact hits report corrected=false. Inputs under two runes
// and inputs matching nothing return ok=false.
func (ix *TokenIndex) Closest(input string) (best Entry, corrected, ok bool) {
	pattern := []rune(input)
	if len(pattern) < minCorrectableRuneCount {
		return Entry{}, false, false
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if item := ix.trie.Get(patricia.Prefix(input)); item != nil {
		return *item.(*Entry), false, true
	}

	var matches []match
	_ = ix.trie.Visit(func(p patricia.Prefix, item patricia.Item) error {
		e := item.(*Entry)
		candidate := []rune(e.Token)
		if len(pattern) > 1 && len(candidate) > 0 && !equalFold(pattern[0], candidate[0]) {
			return nil
		}
		m := match{entry: *e, matched: make([]int, 0, len(pattern))}
		if !scoreSubsequence(pattern, candidate, &m) {
			return nil
		}
		m.score += len(m.matched) - len(candidate)
		if w := e.Weight(); w > 0 {
			m.score += min(w/10, maxFrequencyBonus)
		}
		m.score -= abs(len(candidate)-len(pattern)) * lengthMismatchPenalty
		matches = append(matches, m)
		return nil
	})
	if len(matches) == 0 {
		return Entry{}, false, false
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].entry.Token < matches[j].entry.Token
	})
	return matches[0].entry, true, true
}

// scoreSubsequence walks candidate once, committing each pattern rune to its best-scoring
// position as soon as the following rune cannot improve on it. It reports whether all of
// pattern matched.
func scoreSubsequence(pattern, candidate []rune, m *match) bool {
	var last rune
	lastIndex := 0
	run := 0
	next := 0
	bestScore := -1
	bestIndex := -1

	for i, curr := range candidate {
		if equalFold(curr, pattern[next]) {
			score := 0
			if i == 0 {
				score += firstRuneBonus
			}
			if i > 0 && isSeparator(last) {
				score += separatorBonus
			}
			if len(m.matched) > 0 {
				bonus := 0
				if lastIndex == m.matched[len(m.matched)-1] {
					bonus = run*2 + adjacentBonus
					run = bonus
				} else {
					run = 0
				}
				score += bonus
			}
			if score > bestScore {
				bestScore = score
				bestIndex = i
			}

			var nextPattern, nextCandidate rune
			if next < len(pattern)-1 {
				nextPattern = pattern[next+1]
			}
			if i < len(candidate)-1 {
				nextCandidate = candidate[i+1]
			}
			if nextPattern == 0 || nextCandidate == 0 ||
				equalFold(nextPattern, nextCandidate) || !equalFold(nextCandidate, pattern[next]) {
				if len(m.matched) == 0 {
					bestScore += max(bestIndex*leadingRunePenalty, maxLeadingRunePenalty)
				}
				m.score += bestScore
				m.matched = append(m.matched, bestIndex)
				bestScore, bestIndex = -1, -1
				next++
			}
		}

		last = curr
		lastIndex = i
		if next >= len(pattern) {
			return true
		}
	}
	return next >= len(pattern)
}

func isSeparator(r rune) bool {
	return r == ' ' || r == '_' || r == '-' || r == '.' || r == '/' || r == '्'
}

func equalFold(a, b rune) bool {
	if a == b {
		return true
	}
	if a < utf8.RuneSelf && b < utf8.RuneSelf {
		if 'A' <= a && a <= 'Z' {
			a += 'a' - 'A'
		}
		if 'A' <= b && b <= 'Z' {
			b += 'a' - 'A'
		}
		return a == b
	}
	return strings.EqualFold(string(a), string(b))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
