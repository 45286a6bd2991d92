package view

import "github.com/bastiangx/bpedash/pkg/api"

// Summary is the headline numbers of a training run.
type Summary struct {
	BaseVocab        int
	LearnedTokens    int
	TotalVocab       int
	InitialVocabSize int
	TargetVocabSize  int
	CurrentStep      int
	Training         bool
	HasMetrics       bool
}

// BuildSummary reads the headline numbers off p. Missing fields read as zero.
func BuildSummary(p *api.ProgressState) Summary {
	var s Summary
	if p == nil {
		return s
	}
	if p.BaseVocabStats != nil {
		s.BaseVocab = p.BaseVocabStats.Total
	}
	if p.InitialVocabSize != nil {
		s.InitialVocabSize = *p.InitialVocabSize
	}
	s.TargetVocabSize, _ = p.Target()
	s.CurrentStep = p.StepCount()
	s.Training = p.IsTraining()
	if p.Metrics != nil {
		s.HasMetrics = true
		s.LearnedTokens = int(last(p.Metrics.LearnedVocabSizes))
		s.TotalVocab = int(last(p.Metrics.VocabSizes))
	}
	return s
}

// Status is the one-line training status label.
func (s Summary) Status() string {
	if s.Training {
		return "Training in Progress"
	}
	return "Training Complete"
}

func last(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return xs[len(xs)-1]
}
