// Package cli handles cmd line input for driving the dashboard without the TUI, mostly for debugging.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bastiangx/bpedash/internal/logger"
	"github.com/bastiangx/bpedash/internal/render"
	"github.com/bastiangx/bpedash/pkg/api"
	"github.com/bastiangx/bpedash/pkg/control"
	"github.com/bastiangx/bpedash/pkg/index"
	"github.com/bastiangx/bpedash/pkg/progress"
	"github.com/bastiangx/bpedash/pkg/tokenize"
	"github.com/bastiangx/bpedash/pkg/view"
	"github.com/charmbracelet/log"
)

// StatsClient fetches the on-demand statistics endpoints.
type StatsClient interface {
	TrainingStats(ctx context.Context) (*api.TrainingStats, error)
	VocabularyStats(ctx context.Context) (*api.VocabularyStats, error)
}

// Options are the CLI defaults, usually taken from config.
type Options struct {
	Metric              view.MetricKey
	RecentWindow        int
	FindLimit           int
	DefaultMaxSentences int
	DefaultVocabSize    int
}

// InputHandler reads lines from in. Plain lines are tokenized, lines starting
// with ':' are commands.
type InputHandler struct {
	stats    StatsClient
	tokens   *tokenize.Controller
	progress *progress.Synchronizer
	control  *control.Dispatcher
	index    *index.TokenIndex
	opts     Options
	in       io.Reader
	out      *log.Logger
}

// NewInputHandler wires the handler to its components.
func NewInputHandler(stats StatsClient, tokens *tokenize.Controller, sync *progress.Synchronizer,
	ctrl *control.Dispatcher, ix *index.TokenIndex, opts Options, in io.Reader, out io.Writer) *InputHandler {
	if opts.Metric == "" {
		opts.Metric = view.DefaultMetric
	}
	return &InputHandler{
		stats:    stats,
		tokens:   tokens,
		progress: sync,
		control:  ctrl,
		index:    ix,
		opts:     opts,
		in:       in,
		out:      logger.Plain(out),
	}
}

// Start begins the interface loop. It returns nil on EOF or :quit.
func (h *InputHandler) Start(ctx context.Context) error {
	h.out.Print("bpedash CLI [BETA]")
	h.out.Print("type text and press Enter to tokenize, :help for commands")

	reader := bufio.NewReader(h.in)
	for {
		line, err := reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if line != "" {
			if quit := h.handleInput(ctx, line); quit {
				return nil
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

// handleInput runs one line and reports whether the loop should end.
func (h *InputHandler) handleInput(ctx context.Context, line string) bool {
	if !strings.HasPrefix(line, ":") {
		h.tokenize(ctx, line)
		return false
	}

	fields := strings.Fields(line[1:])
	if len(fields) == 0 {
		return false
	}
	cmd, args := fields[0], fields[1:]
	switch cmd {
	case "q", "quit", "exit":
		return true
	case "help":
		h.help()
	case "select":
		h.selectToken(args)
	case "train":
		h.train(ctx, args)
	case "progress":
		h.showProgress(args)
	case "growth":
		h.showGrowth(ctx)
	case "find":
		h.find(args)
	case "vocab":
		h.showVocab(ctx)
	default:
		log.Errorf("Unknown command: %s", cmd)
	}
	return false
}

func (h *InputHandler) help() {
	h.out.Print(":select N           toggle token N of the last result")
	h.out.Print(":train [max] [vocab] start a training run")
	h.out.Print(":progress [metric]  show training progress")
	h.out.Print(":growth             show recent vocabulary additions")
	h.out.Print(":find PREFIX        search seen tokens by prefix")
	h.out.Print(":vocab              show service vocabulary stats")
	h.out.Print(":quit")
}

// tokenize submits text and waits, since the CLI handles one line at a time.
func (h *InputHandler) tokenize(ctx context.Context, text string) {
	if !h.tokens.Submit(ctx, text) {
		return
	}
	h.tokens.Wait()
	st := h.tokens.State()
	if st.Phase == tokenize.Succeeded {
		h.index.AddResult(st.Result)
	}
	h.out.Print(render.Request(st, -1))
}

func (h *InputHandler) selectToken(args []string) {
	if len(args) != 1 {
		log.Error("usage: :select N")
		return
	}
	i, err := strconv.Atoi(args[0])
	if err != nil || !h.tokens.Select(i) {
		log.Errorf("No token at index %s", args[0])
		return
	}
	sel, ok := h.tokens.Selected()
	if !ok {
		sel = -1
	}
	h.out.Print(render.Request(h.tokens.State(), sel))
}

func (h *InputHandler) train(ctx context.Context, args []string) {
	maxSentences, vocabSize := h.opts.DefaultMaxSentences, h.opts.DefaultVocabSize
	var err error
	if len(args) > 0 {
		if maxSentences, err = strconv.Atoi(args[0]); err != nil {
			log.Errorf("Invalid max sentences: %s", args[0])
			return
		}
	}
	if len(args) > 1 {
		if vocabSize, err = strconv.Atoi(args[1]); err != nil {
			log.Errorf("Invalid vocab size: %s", args[1])
			return
		}
	}
	if err := control.Validate(maxSentences, vocabSize); err != nil {
		log.Error(err)
		return
	}
	h.out.Print("Starting Training...")
	h.control.Start(ctx, maxSentences, vocabSize)
}

func (h *InputHandler) showProgress(args []string) {
	metric := h.opts.Metric
	if len(args) > 0 {
		metric = view.MetricKey(args[0])
		if _, ok := view.LookupMetric(metric); !ok {
			log.Errorf("Unknown metric %q", args[0])
			return
		}
	}
	state, ok := h.progress.Snapshot()
	h.out.Print(render.Progress(state, ok, metric, h.opts.RecentWindow))
}

func (h *InputHandler) showGrowth(ctx context.Context) {
	stats, err := h.stats.TrainingStats(ctx)
	if err != nil {
		log.Errorf("Fetching training stats: %v", err)
		return
	}
	h.index.AddGrowth(stats.VocabGrowth)
	h.out.Print(render.Growth(view.BuildRecentAdditions(stats.VocabGrowth, h.opts.RecentWindow)))
}

func (h *InputHandler) find(args []string) {
	prefix := ""
	if len(args) > 0 {
		prefix = args[0]
	}
	h.out.Print(render.Find(h.index, prefix, h.opts.FindLimit))
}

func (h *InputHandler) showVocab(ctx context.Context) {
	stats, err := h.stats.VocabularyStats(ctx)
	if err != nil {
		log.Errorf("Fetching vocabulary stats: %v", err)
		return
	}
	h.out.Print(render.VocabStats(stats))
}

// String is used in debug logs.
func (o Options) String() string {
	return fmt.Sprintf("metric=%s window=%d find=%d", o.Metric, o.RecentWindow, o.FindLimit)
}
