/*
Package progress owns the canonical training progress view model.

A Synchronizer runs two producers for as long as it is started:

  - a poll loop that fetches /training-progress immediately and then on every interval tick;
  - a push loop that holds the websocket subscription and forwards training updates.

Both producers feed one entry point, Merge, which applies a shallow field-level merge under
a single lock. There is no sequencing between the two sources: whichever payload arrives last
wins for the fields it carries, so a late push can regress a field a fresher poll already set.

Failures never clear state. A failed poll is logged and retried on the next tick. A closed or
failed push channel is logged and not reopened; polling carries on alone.

Stop cancels both producers, waits for them to exit, and turns every later Merge into a no-op.
*/
package progress

import (
	"context"
	"sync"
	"time"

	"github.com/bastiangx/bpedash/internal/logger"
	"github.com/bastiangx/bpedash/pkg/api"
	"github.com/bastiangx/bpedash/pkg/push"
	"github.com/charmbracelet/log"
)

// DefaultInterval is the poll cadence used when none is given.
const DefaultInterval = 5 * time.Second

// Fetcher performs one poll.
type Fetcher interface {
	TrainingProgress(ctx context.Context) (*api.ProgressState, error)
}

// Subscriber runs one push subscription until ctx ends or the channel fails.
type Subscriber interface {
	Run(ctx context.Context, handle push.Handler) error
}

// Synchronizer merges polled and pushed progress into a single ProgressState.
type Synchronizer struct {
	fetcher  Fetcher
	push     Subscriber
	interval time.Duration
	log      *log.Logger

	mu       sync.Mutex
	state    *api.ProgressState
	merges   int
	started  bool
	stopped  bool
	cancel   context.CancelFunc
	onChange func()

	wg sync.WaitGroup
}

// NewSynchronizer creates a synchronizer. sub may be nil to run on polling alone.
func NewSynchronizer(fetcher Fetcher, sub Subscriber, interval time.Duration) *Synchronizer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Synchronizer{
		fetcher:  fetcher,
		push:     sub,
		interval: interval,
		log:      logger.New("progress"),
	}
}

// OnChange registers fn to be called after every applied merge.
// fn runs on the producer goroutine and must not block.
func (s *Synchronizer) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Start launches the poll and push producers. Calling it twice, or after Stop, does nothing.
func (s *Synchronizer) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped {
		return
	}
	s.started = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.pollLoop(ctx)
	if s.push != nil {
		s.wg.Add(1)
		go s.pushLoop(ctx)
	}
	s.log.Debugf("started: poll every %v, push=%t", s.interval, s.push != nil)
}

// Stop tears both producers down and blocks until they have exited. It is idempotent.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	s.log.Debug("stopped")
}

// Merge applies patch to the current state by shallow field replacement.
// The first observation creates the state. It reports whether patch was applied.
func (s *Synchronizer) Merge(patch *api.ProgressState) bool {
	if patch == nil {
		return false
	}
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		s.log.Debug("dropping update after stop")
		return false
	}
	if s.state == nil {
		s.state = &api.ProgressState{}
	}
	s.state.Merge(patch)
	s.merges++
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
	return true
}

// Snapshot returns a deep copy of the current state, and false before the first observation.
func (s *Synchronizer) Snapshot() (*api.ProgressState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil, false
	}
	return s.state.Clone(), true
}

// IsTraining recomputes steps.length < target_vocab_size on the current state.
func (s *Synchronizer) IsTraining() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsTraining()
}

// Merges counts applied merges. Useful to tell whether anything arrived yet.
func (s *Synchronizer) Merges() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.merges
}

func (s *Synchronizer) pollLoop(ctx context.Context) {
	defer s.wg.Done()

	s.poll(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

func (s *Synchronizer) poll(ctx context.Context) {
	state, err := s.fetcher.TrainingProgress(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.log.Warnf("poll failed, keeping last state: %v", err)
		return
	}
	s.Merge(state)
}

func (s *Synchronizer) pushLoop(ctx context.Context) {
	defer s.wg.Done()

	err := s.push.Run(ctx, func(patch *api.ProgressState) {
		s.Merge(patch)
	})
	if err != nil {
		s.log.Warnf("push channel down, continuing on polling only: %v", err)
	}
}
