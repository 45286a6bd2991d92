package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/vmihailenco/msgpack/v5"
)

// Merge copies every field present in patch over s. Absent fields are left untouched.
// Present fields are cloned so s never aliases patch.
func (s *ProgressState) Merge(patch *ProgressState) {
	if patch == nil {
		return
	}
	if patch.BaseVocabStats != nil {
		stats := *patch.BaseVocabStats
		s.BaseVocabStats = &stats
	}
	if patch.InitialVocabSize != nil {
		s.InitialVocabSize = Int(*patch.InitialVocabSize)
	}
	if patch.TargetVocabSize != nil {
		s.TargetVocabSize = Int(*patch.TargetVocabSize)
	}
	if patch.Steps != nil {
		steps := slices.Clone(*patch.Steps)
		s.Steps = &steps
	}
	if patch.Metrics != nil {
		s.Metrics = patch.Metrics.Clone()
	}
	if patch.Message != nil {
		msg := *patch.Message
		s.Message = &msg
	}
}

// Clone returns a deep copy of s.
func (s *ProgressState) Clone() *ProgressState {
	if s == nil {
		return nil
	}
	out := &ProgressState{}
	out.Merge(s)
	return out
}

// StepCount is the number of recorded steps, 0 when steps are absent.
func (s *ProgressState) StepCount() int {
	if s == nil || s.Steps == nil {
		return 0
	}
	return len(*s.Steps)
}

// Target returns the target vocabulary size and whether it is known.
func (s *ProgressState) Target() (int, bool) {
	if s == nil || s.TargetVocabSize == nil {
		return 0, false
	}
	return *s.TargetVocabSize, true
}

// IsTraining reports steps.length < target_vocab_size.
// Both fields must be present; a state missing either is not training.
func (s *ProgressState) IsTraining() bool {
	target, ok := s.Target()
	if !ok || s.Steps == nil {
		return false
	}
	return len(*s.Steps) < target
}

// Clone returns a deep copy of m.
func (m *Metrics) Clone() *Metrics {
	if m == nil {
		return nil
	}
	return &Metrics{
		VocabSizes:        slices.Clone(m.VocabSizes),
		CompressionRatios: slices.Clone(m.CompressionRatios),
		MergeFrequencies:  slices.Clone(m.MergeFrequencies),
		UniqueTokens:      slices.Clone(m.UniqueTokens),
		LearnedVocabSizes: slices.Clone(m.LearnedVocabSizes),
	}
}

// Validate checks the invariants a tokenize result must hold to be applied.
func (r *TokenizeResult) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: empty tokenize result", ErrMalformedResponse)
	}
	if r.TokenNumbers != nil && len(r.TokenNumbers) != len(r.TokenDetails) {
		return fmt.Errorf("%w: %d token numbers for %d token details",
			ErrMalformedResponse, len(r.TokenNumbers), len(r.TokenDetails))
	}
	return nil
}

// UnmarshalJSON decodes a [token, count] pair.
func (tc *TokenCount) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("token count: expected 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &tc.Token); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &tc.Count)
}

// UnmarshalJSON decodes a step without ever failing on its shape. Fields that decode
// are kept; a non-object element or a mistyped field leaves the element in Raw.
func (s *Step) UnmarshalJSON(data []byte) error {
	type plain Step
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return err
		}
		p.Raw = slices.Clone(data)
	}
	*s = Step(p)
	return nil
}

// DecodeMsgpack applies the UnmarshalJSON rules to MessagePack steps.
func (s *Step) DecodeMsgpack(dec *msgpack.Decoder) error {
	v, err := dec.DecodeInterface()
	if err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		*s = Step{Raw: json.RawMessage("null")}
		return nil
	}
	return s.UnmarshalJSON(data)
}

// Int returns a pointer to v. Handy for building partial payloads.
func Int(v int) *int {
	return &v
}

// StepsOf returns a pointer to a steps slice. Handy for building partial payloads.
func StepsOf(steps ...Step) *[]Step {
	if steps == nil {
		steps = []Step{}
	}
	return &steps
}
