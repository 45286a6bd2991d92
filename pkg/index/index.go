// Package index keeps a prefix-searchable set of tokens seen by the dashboard,
// fed from tokenize results and vocabulary growth records.
package index

import (
	"sort"
	"sync"

	"github.com/bastiangx/bpedash/pkg/api"
	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// Entry is one indexed token. Frequency is the merge frequency last reported
// by the service; Seen counts occurrences in tokenize results.
type Entry struct {
	Token     string
	Frequency int
	Seen      int
	Type      string
	Learned   bool
}

// Weight ranks entries in search and fuzzy matching.
func (e Entry) Weight() int {
	return e.Frequency + e.Seen
}

// TokenIndex is a patricia trie of tokens. Safe for concurrent use.
type TokenIndex struct {
	trie *patricia.Trie
	size int
	mu   sync.RWMutex
}

// New creates an empty index.
func New() *TokenIndex {
	return &TokenIndex{trie: patricia.NewTrie()}
}

// Add inserts token or folds the new observation into the existing entry.
// Seen counts add up, a positive Frequency replaces the stored one, a known
// type is kept and learned sticks once set.
func (ix *TokenIndex) Add(e Entry) {
	if e.Token == "" {
		return
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()

	key := patricia.Prefix(e.Token)
	if item := ix.trie.Get(key); item != nil {
		cur := item.(*Entry)
		cur.Seen += e.Seen
		if e.Frequency > 0 {
			cur.Frequency = e.Frequency
		}
		if cur.Type == "" {
			cur.Type = e.Type
		}
		cur.Learned = cur.Learned || e.Learned
		return
	}
	entry := e
	ix.trie.Insert(key, &entry)
	ix.size++
}

// AddResult indexes every BPE token of a tokenize result, one count per occurrence.
func (ix *TokenIndex) AddResult(r *api.TokenizeResult) {
	if r == nil {
		return
	}
	for _, d := range r.TokenDetails {
		ix.Add(Entry{Token: d.Token, Seen: 1, Type: d.Type})
	}
}

// AddGrowth indexes learned tokens with their merge frequency. The service
// reports absolute frequencies, so fetching the same growth twice is a no-op.
func (ix *TokenIndex) AddGrowth(g *api.VocabGrowth) {
	if g == nil {
		return
	}
	n := min(len(g.Tokens), len(g.Frequencies))
	for i := 0; i < n; i++ {
		ix.Add(Entry{Token: g.Tokens[i], Frequency: g.Frequencies[i], Learned: true})
	}
}

// Search returns up to limit tokens starting with prefix, heaviest first.
// An empty prefix matches everything; limit <= 0 means no limit.
func (ix *TokenIndex) Search(prefix string, limit int) []Entry {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var results []Entry
	err := ix.trie.VisitSubtree(patricia.Prefix(prefix), func(p patricia.Prefix, item patricia.Item) error {
		results = append(results, *item.(*Entry))
		return nil
	})
	if err != nil {
		log.Errorf("Error visiting token index: %v", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if wi, wj := results[i].Weight(), results[j].Weight(); wi != wj {
			return wi > wj
		}
		return results[i].Token < results[j].Token
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// Len is the number of distinct tokens.
func (ix *TokenIndex) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.size
}

// Stats counts distinct and learned tokens.
func (ix *TokenIndex) Stats() map[string]int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	learned := 0
	_ = ix.trie.Visit(func(p patricia.Prefix, item patricia.Item) error {
		if item.(*Entry).Learned {
			learned++
		}
		return nil
	})
	return map[string]int{
		"tokens":  ix.size,
		"learned": learned,
	}
}
