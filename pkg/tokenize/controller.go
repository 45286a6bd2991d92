// Package tokenize manages the on-demand tokenize request and its result.
package tokenize

import (
	"context"
	"strings"
	"sync"

	"github.com/bastiangx/bpedash/internal/logger"
	"github.com/bastiangx/bpedash/pkg/api"
	"github.com/charmbracelet/log"
)

// Phase is the lifecycle stage of the tokenize request.
type Phase int

const (
	Idle Phase = iota
	Loading
	Succeeded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// RequestState is the tagged request state. Result is set only when Phase is Succeeded,
// Err only when Phase is Failed.
type RequestState struct {
	Phase  Phase
	Text   string
	Result *api.TokenizeResult
	Err    string
}

// Tokenizer performs the tokenize call.
type Tokenizer interface {
	Tokenize(ctx context.Context, text string) (*api.TokenizeResult, error)
}

// Controller owns a single request slot. Each Submit supersedes the previous one:
// only the response of the latest submission is ever applied.
type Controller struct {
	client Tokenizer
	log    *log.Logger

	mu       sync.Mutex
	state    RequestState
	gen      uint64
	selected int
	onChange func()

	inflight sync.WaitGroup
}

// NewController creates a controller in the Idle state.
func NewController(client Tokenizer) *Controller {
	return &Controller{
		client:   client,
		log:      logger.New("tokenize"),
		selected: -1,
	}
}

// OnChange registers fn to be called after every state transition.
func (c *Controller) OnChange(fn func()) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// CanSubmit mirrors the submit button: text must be non-blank and no request in flight.
func (c *Controller) CanSubmit(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Phase != Loading
}

// Submit starts tokenizing text and returns without waiting for the response.
// Blank text is a no-op and reports false. Any previous result, error and token
// selection are dropped before the request is issued.
func (c *Controller) Submit(ctx context.Context, text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.state = RequestState{Phase: Loading, Text: text}
	c.selected = -1
	fn := c.onChange
	c.mu.Unlock()
	notify(fn)

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		result, err := c.client.Tokenize(ctx, text)
		c.apply(gen, text, result, err)
	}()
	return true
}

// Wait blocks until every submitted request has resolved, stale ones included.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

// apply settles request gen. Responses of superseded requests are discarded.
func (c *Controller) apply(gen uint64, text string, result *api.TokenizeResult, err error) bool {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		c.log.Debugf("discarding stale response #%d (latest #%d)", gen, c.gen)
		return false
	}
	if err != nil {
		c.state = RequestState{Phase: Failed, Text: text, Err: api.UserMessage(err, api.DefaultTokenizeError)}
	} else {
		c.state = RequestState{Phase: Succeeded, Text: text, Result: result}
	}
	c.selected = -1
	fn := c.onChange
	c.mu.Unlock()

	if err != nil {
		c.log.Errorf("Error tokenizing text: %v", err)
	}
	notify(fn)
	return true
}

// State returns the current request state.
func (c *Controller) State() RequestState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Select toggles the selected token. Selecting the selected index clears it.
// Indexes outside the current result are rejected.
func (c *Controller) Select(index int) bool {
	c.mu.Lock()
	if c.state.Phase != Succeeded || c.state.Result == nil ||
		index < 0 || index >= len(c.state.Result.TokenDetails) {
		c.mu.Unlock()
		return false
	}
	if c.selected == index {
		c.selected = -1
	} else {
		c.selected = index
	}
	fn := c.onChange
	c.mu.Unlock()
	notify(fn)
	return true
}

// Selected returns the selected token index, if any.
func (c *Controller) Selected() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected, c.selected >= 0
}

func notify(fn func()) {
	if fn != nil {
		fn()
	}
}
