/*
Package api holds the wire types and HTTP client for the tokenizer-training service.

The service is external. bpedash only consumes its documented contracts:

	POST /tokenize          {"text": "..."}                         -> TokenizeResult
	POST /start-training    {"max_sentences": n, "vocab_size": n}   -> 2xx / non-2xx
	GET  /training-progress                                         -> ProgressState
	GET  /training-stats                                            -> {"vocab_growth": VocabGrowth}
	GET  /vocabulary-stats                                          -> VocabularyStats

Failed calls answer with a non-2xx status and a JSON body carrying a message under one of
the legacy fields "detail", "error" or "message".

# Progress payloads

ProgressState doubles as the poll response and as the partial payload of a push update.
Every top-level field is a pointer (or a nil-able slice pointer) so a decoded payload
remembers which fields were present. Merge copies only present fields, replacing them
wholesale:

	{"target_vocab_size": 500}        replaces target_vocab_size only
	{"steps": [...]}                  replaces the whole steps list
	{"metrics": {"vocab_sizes": [..]}} replaces metrics wholesale, other metric arrays drop

The same struct tags drive both JSON and MessagePack decoding. Steps decode leniently:
only their count matters, so an element that is not a step object is kept raw rather
than failing the whole payload.
*/
package api

import "encoding/json"

// TokenStats summarises one tokenize call.
type TokenStats struct {
	OriginalChars    int     `json:"original_chars"`
	TokenCount       int     `json:"token_count"`
	UniqueTokens     int     `json:"unique_tokens"`
	CompressionRatio float64 `json:"compression_ratio"`
}

// TokenDetail describes a single BPE token of a tokenize result.
type TokenDetail struct {
	Token  string `json:"token"`
	Length int    `json:"length"`
	Type   string `json:"type"`
}

// Merge is one learned merge operation.
type Merge struct {
	Pair      [2]string `json:"pair"`
	NewToken  string    `json:"new_token"`
	Frequency int       `json:"frequency"`
}

// TokenizeResult is the full response of POST /tokenize.
// It is replaced on every request, never patched.
type TokenizeResult struct {
	OriginalText          string        `json:"original_text,omitempty"`
	Stats                 *TokenStats   `json:"stats,omitempty"`
	TokenDetails          []TokenDetail `json:"token_details"`
	TokenNumbers          []int         `json:"token_numbers"`
	MergeHistory          []Merge       `json:"merge_history"`
	OriginalTokens        []string      `json:"original_tokens"`
	OriginalEncodedTokens []string      `json:"original_encoded_tokens"`
	BPETokens             []string      `json:"bpe_tokens"`
}

// TokenizeRequest is the body of POST /tokenize.
type TokenizeRequest struct {
	Text string `json:"text"`
}

// TrainingRequest is the body of POST /start-training.
type TrainingRequest struct {
	MaxSentences int `json:"max_sentences"`
	VocabSize    int `json:"vocab_size"`
}

// BaseVocabStats counts the base Devanagari alphabet by class.
type BaseVocabStats struct {
	Vyanjan int `json:"vyanjan"`
	Swar    int `json:"swar"`
	Matras  int `json:"matras"`
	Special int `json:"special"`
	Total   int `json:"total"`
}

// Step is one recorded training step.
type Step struct {
	Step             int       `json:"step"`
	Pair             [2]string `json:"pair"`
	NewToken         string    `json:"new_token"`
	Frequency        int       `json:"frequency"`
	VocabSize        int       `json:"vocab_size,omitempty"`
	LearnedVocabSize int       `json:"learned_vocab_size,omitempty"`
	CompressionRatio float64   `json:"compression_ratio,omitempty"`

	// Raw holds the original element when it did not fully decode as a step.
	Raw json.RawMessage `json:"-"`
}

// Metrics holds per-step training metrics, all indexed by training step.
type Metrics struct {
	VocabSizes        []float64 `json:"vocab_sizes"`
	CompressionRatios []float64 `json:"compression_ratios"`
	MergeFrequencies  []float64 `json:"merge_frequencies"`
	UniqueTokens      []float64 `json:"unique_tokens"`
	LearnedVocabSizes []float64 `json:"learned_vocab_sizes"`
}

// ProgressState is the training progress view model, and also the shape of
// any partial update merged into it.
type ProgressState struct {
	BaseVocabStats   *BaseVocabStats `json:"base_vocab_stats,omitempty"`
	InitialVocabSize *int            `json:"initial_vocab_size,omitempty"`
	TargetVocabSize  *int            `json:"target_vocab_size,omitempty"`
	Steps            *[]Step         `json:"steps,omitempty"`
	Metrics          *Metrics        `json:"metrics,omitempty"`
	Message          *string         `json:"message,omitempty"`
}

// VocabGrowth lists learned tokens in merge order. All slices are parallel.
type VocabGrowth struct {
	MergeSteps   []int      `json:"merge_steps"`
	Frequencies  []int      `json:"frequencies"`
	Tokens       []string   `json:"tokens"`
	Compositions [][]string `json:"compositions"`
}

// TrainingStats is the response of GET /training-stats.
type TrainingStats struct {
	VocabGrowth *VocabGrowth `json:"vocab_growth,omitempty"`
}

// TokenCount is a [token, count] pair as sent by /vocabulary-stats.
type TokenCount struct {
	Token string
	Count int
}

// VocabularyStats is the response of GET /vocabulary-stats.
type VocabularyStats struct {
	VocabSize          int            `json:"vocab_size"`
	MostFrequentTokens []TokenCount   `json:"most_frequent_tokens"`
	MostFrequentPairs  map[string]int `json:"most_frequent_pairs"`
}
