package tui

import (
	"context"
	"testing"
	"time"

	"github.com/bastiangx/bpedash/internal/cli"
	"github.com/bastiangx/bpedash/pkg/api"
	"github.com/bastiangx/bpedash/pkg/control"
	"github.com/bastiangx/bpedash/pkg/index"
	"github.com/bastiangx/bpedash/pkg/progress"
	"github.com/bastiangx/bpedash/pkg/tokenize"
	"github.com/bastiangx/bpedash/pkg/view"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	trainCalls []api.TrainingRequest
}

func (*stubService) Tokenize(ctx context.Context, text string) (*api.TokenizeResult, error) {
	return &api.TokenizeResult{
		OriginalText: text,
		TokenDetails: []api.TokenDetail{{Token: "क", Type: "consonant"}, {Token: "र", Type: "consonant"}},
	}, nil
}

func (s *stubService) StartTraining(ctx context.Context, req api.TrainingRequest) error {
	s.trainCalls = append(s.trainCalls, req)
	return nil
}

func (*stubService) TrainingProgress(ctx context.Context) (*api.ProgressState, error) {
	return &api.ProgressState{}, nil
}

func (*stubService) TrainingStats(ctx context.Context) (*api.TrainingStats, error) {
	return &api.TrainingStats{VocabGrowth: &api.VocabGrowth{
		MergeSteps: []int{1}, Frequencies: []int{5}, Tokens: []string{"कर"}, Compositions: [][]string{{"क", "र"}},
	}}, nil
}

func (*stubService) VocabularyStats(ctx context.Context) (*api.VocabularyStats, error) {
	return &api.VocabularyStats{}, nil
}

func newModel() (Model, *tokenize.Controller, *index.TokenIndex) {
	m, tokens, ix, _ := newModelWithService()
	return m, tokens, ix
}

func newModelWithService() (Model, *tokenize.Controller, *index.TokenIndex, *stubService) {
	svc := &stubService{}
	tokens := tokenize.NewController(svc)
	ix := index.New()
	opts := cli.Options{
		Metric:              view.VocabSizes,
		RecentWindow:        10,
		FindLimit:           5,
		DefaultMaxSentences: control.DefaultMaxSentences,
		DefaultVocabSize:    control.DefaultVocabSize,
	}
	m := New(context.Background(), svc, tokens, progress.NewSynchronizer(svc, nil, time.Hour),
		control.NewDispatcher(svc), ix, opts)
	return m, tokens, ix, svc
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func TestInitialMetricFromOptions(t *testing.T) {
	m, _, _ := newModel()
	assert.Equal(t, view.VocabSizes, view.Metrics()[m.metric].Key)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, view.CompressionRatios, view.Metrics()[m.metric].Key)
}

func TestSubmitAndSelect(t *testing.T) {
	m, tokens, ix := newModel()
	m.input.SetValue("कर")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	tokens.Wait()
	require.Equal(t, tokenize.Succeeded, tokens.State().Phase)

	m = update(t, m, changedMsg{})
	assert.Equal(t, 2, ix.Len(), "results are indexed on change")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})
	sel, ok := tokens.Selected()
	require.True(t, ok)
	assert.Equal(t, 0, sel)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlP})
	sel, _ = tokens.Selected()
	assert.Equal(t, 1, sel, "selection wraps around")

	assert.Contains(t, m.View(), "Unicode:")
}

func TestGrowthMsg(t *testing.T) {
	m, _, ix := newModel()
	msg := m.fetchGrowth()()
	m = update(t, m, msg)

	require.Len(t, m.growth, 1)
	assert.Equal(t, "कर", m.growth[0].Token)
	assert.Equal(t, 1, ix.Len())
	assert.Contains(t, m.View(), "Recent Token Additions")
}

func TestResultIndexedOnce(t *testing.T) {
	m, tokens, ix := newModel()
	m.input.SetValue("कर")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	tokens.Wait()

	for range 5 {
		m = update(t, m, changedMsg{})
	}
	got := ix.Search("क", 1)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Seen, "repeated change signals do not recount a result")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	tokens.Wait()
	m = update(t, m, changedMsg{})
	assert.Equal(t, 2, ix.Search("क", 1)[0].Seen, "a new result is counted")

	m.input.SetValue("क")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlF})
	assert.Contains(t, m.found, "Found 1 tokens for prefix 'क'")
	assert.Contains(t, m.View(), "Index: 2 tokens")
}

func TestTrainForm(t *testing.T) {
	m, _, _, svc := newModelWithService()

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	require.True(t, m.editing)
	assert.Equal(t, "10000", m.form.fields[0].Value())
	assert.Contains(t, m.View(), "Max Sentences")

	m.form.fields[0].SetValue("50")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.editing, "out-of-range input keeps the form open")
	assert.Contains(t, m.form.err, "max_sentences 50")

	m.form.fields[0].SetValue("500")
	m.form.fields[1].SetValue("2000")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	assert.False(t, m.editing)
	require.NotNil(t, cmd)
	assert.Equal(t, trainingDoneMsg{}, cmd())
	assert.Equal(t, []api.TrainingRequest{{MaxSentences: 500, VocabSize: 2000}}, svc.trainCalls)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.editing, "esc closes the form without quitting")
	assert.Len(t, svc.trainCalls, 1)
}
