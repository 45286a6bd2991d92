package tokenize

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bastiangx/bpedash/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedTokenizer blocks every call on a per-text gate so tests pick the resolution order.
type gatedTokenizer struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
	errs  map[string]error
	calls []string
}

func newGatedTokenizer() *gatedTokenizer {
	return &gatedTokenizer{gates: map[string]chan struct{}{}, errs: map[string]error{}}
}

func (g *gatedTokenizer) gate(text string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[text]
	if !ok {
		ch = make(chan struct{})
		g.gates[text] = ch
	}
	return ch
}

func (g *gatedTokenizer) release(text string) { close(g.gate(text)) }

func (g *gatedTokenizer) Tokenize(ctx context.Context, text string) (*api.TokenizeResult, error) {
	g.mu.Lock()
	g.calls = append(g.calls, text)
	err := g.errs[text]
	g.mu.Unlock()

	<-g.gate(text)
	if err != nil {
		return nil, err
	}
	return &api.TokenizeResult{
		OriginalText: text,
		TokenDetails: []api.TokenDetail{{Token: "क", Type: "consonant"}, {Token: "र", Type: "consonant"}},
	}, nil
}

func (g *gatedTokenizer) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func TestBlankSubmitIsNoop(t *testing.T) {
	fake := newGatedTokenizer()
	c := NewController(fake)

	for _, text := range []string{"", "   ", "\t\n "} {
		assert.False(t, c.CanSubmit(text))
		assert.False(t, c.Submit(context.Background(), text))
	}
	c.Wait()

	assert.Equal(t, 0, fake.Calls())
	assert.Equal(t, Idle, c.State().Phase)

	fake.release("कर")
	c.Submit(context.Background(), "कर")
	c.Wait()
	c.Select(1)
	before := c.State()

	assert.False(t, c.Submit(context.Background(), " \u00a0\t"))
	c.Wait()
	assert.Equal(t, before, c.State())
	sel, ok := c.Selected()
	assert.True(t, ok, "selection survives a blank submit")
	assert.Equal(t, 1, sel)
}

func TestLatestSubmissionWins(t *testing.T) {
	fake := newGatedTokenizer()
	c := NewController(fake)

	require.True(t, c.Submit(context.Background(), "first"))
	require.True(t, c.Submit(context.Background(), "second"))
	assert.Equal(t, Loading, c.State().Phase)
	assert.False(t, c.CanSubmit("third"))

	fake.release("second")
	require.Eventually(t, func() bool { return c.State().Phase == Succeeded }, time.Second, time.Millisecond)

	fake.release("first")
	c.Wait()

	st := c.State()
	assert.Equal(t, Succeeded, st.Phase)
	assert.Equal(t, "second", st.Text)
	assert.Equal(t, "second", st.Result.OriginalText)
}

func TestStaleResponseDiscardedWhileLatestPending(t *testing.T) {
	c := NewController(newGatedTokenizer())
	c.gen = 2
	c.state = RequestState{Phase: Loading, Text: "second"}

	applied := c.apply(1, "first", &api.TokenizeResult{OriginalText: "first"}, nil)
	assert.False(t, applied)
	assert.Equal(t, Loading, c.State().Phase)

	applied = c.apply(1, "first", nil, errors.New("boom"))
	assert.False(t, applied)
	assert.Equal(t, Loading, c.State().Phase)

	assert.True(t, c.apply(2, "second", &api.TokenizeResult{OriginalText: "second"}, nil))
	assert.Equal(t, "second", c.State().Result.OriginalText)
}

func TestFailureMessage(t *testing.T) {
	testCases := []struct {
		description string
		err         error
		want        string
	}{
		{"service detail", &api.RequestError{Status: 500, Message: "model not loaded"}, "model not loaded"},
		{"transport error", errors.New("dial tcp: refused"), api.DefaultTokenizeError},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			fake := newGatedTokenizer()
			fake.errs["text"] = tc.err
			fake.release("text")
			c := NewController(fake)

			c.Submit(context.Background(), "text")
			c.Wait()

			st := c.State()
			assert.Equal(t, Failed, st.Phase)
			assert.Equal(t, tc.want, st.Err)
			assert.Nil(t, st.Result)
		})
	}
}

func TestSelection(t *testing.T) {
	fake := newGatedTokenizer()
	fake.release("a")
	fake.release("b")
	c := NewController(fake)

	assert.False(t, c.Select(0), "nothing to select before a result")

	c.Submit(context.Background(), "a")
	c.Wait()

	assert.True(t, c.Select(1))
	sel, ok := c.Selected()
	assert.True(t, ok)
	assert.Equal(t, 1, sel)

	assert.True(t, c.Select(1), "reselecting toggles off")
	_, ok = c.Selected()
	assert.False(t, ok)

	assert.False(t, c.Select(2))
	assert.False(t, c.Select(-1))

	c.Select(0)
	c.Submit(context.Background(), "b")
	_, ok = c.Selected()
	assert.False(t, ok, "a new submission clears the selection")
	c.Wait()
}

func TestOnChangeFiresPerTransition(t *testing.T) {
	fake := newGatedTokenizer()
	fake.release("text")
	c := NewController(fake)

	var mu sync.Mutex
	var phases []Phase
	c.OnChange(func() {
		mu.Lock()
		phases = append(phases, c.State().Phase)
		mu.Unlock()
	})

	c.Submit(context.Background(), "text")
	c.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Phase{Loading, Succeeded}, phases)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "unknown", Phase(9).String())
}
