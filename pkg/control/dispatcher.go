// Package control fires training commands at the service. It never reads training state;
// the progress synchronizer picks up the effects through its own channels.
package control

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bastiangx/bpedash/internal/logger"
	"github.com/bastiangx/bpedash/pkg/api"
	"github.com/charmbracelet/log"
)

// Client-side input bounds. The service stays authoritative.
const (
	MinMaxSentences = 100
	MaxMaxSentences = 100000
	MinVocabSize    = 1000
	MaxVocabSize    = 50000

	DefaultMaxSentences = 10000
	DefaultVocabSize    = 10000
)

// ErrOutOfRange is returned by Validate for parameters outside the input bounds.
var ErrOutOfRange = errors.New("training parameter out of range")

// Starter issues the start-training command.
type Starter interface {
	StartTraining(ctx context.Context, req api.TrainingRequest) error
}

// Dispatcher sends start-training commands and exposes only a busy flag.
type Dispatcher struct {
	client Starter
	log    *log.Logger

	mu        sync.Mutex
	busy      bool
	onStarted func()
}

// NewDispatcher creates an idle dispatcher.
func NewDispatcher(client Starter) *Dispatcher {
	return &Dispatcher{
		client: client,
		log:    logger.New("control"),
	}
}

// OnStarted registers fn to be called once per successful start.
func (d *Dispatcher) OnStarted(fn func()) {
	d.mu.Lock()
	d.onStarted = fn
	d.mu.Unlock()
}

// Busy reports whether a start command is in flight.
func (d *Dispatcher) Busy() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.busy
}

// Validate checks the parameters against the input bounds.
func Validate(maxSentences, vocabSize int) error {
	if maxSentences < MinMaxSentences || maxSentences > MaxMaxSentences {
		return fmt.Errorf("%w: max_sentences %d not in [%d,%d]",
			ErrOutOfRange, maxSentences, MinMaxSentences, MaxMaxSentences)
	}
	if vocabSize < MinVocabSize || vocabSize > MaxVocabSize {
		return fmt.Errorf("%w: vocab_size %d not in [%d,%d]",
			ErrOutOfRange, vocabSize, MinVocabSize, MaxVocabSize)
	}
	return nil
}

// Start sends the command and blocks until it resolves. Failures, out-of-range input and
// calls made while busy are only logged. The observer runs once per success.
func (d *Dispatcher) Start(ctx context.Context, maxSentences, vocabSize int) {
	if err := Validate(maxSentences, vocabSize); err != nil {
		d.log.Warnf("not starting training: %v", err)
		return
	}

	d.mu.Lock()
	if d.busy {
		d.mu.Unlock()
		d.log.Debug("start ignored, already starting")
		return
	}
	d.busy = true
	d.mu.Unlock()

	err := d.client.StartTraining(ctx, api.TrainingRequest{
		MaxSentences: maxSentences,
		VocabSize:    vocabSize,
	})

	d.mu.Lock()
	d.busy = false
	fn := d.onStarted
	d.mu.Unlock()

	if err != nil {
		d.log.Errorf("Error starting training: %v", err)
		return
	}
	d.log.Infof("training started: max_sentences=%d vocab_size=%d", maxSentences, vocabSize)
	if fn != nil {
		fn()
	}
}
