// Package tui is the interactive terminal dashboard. Component callbacks are funneled
// into the bubbletea loop as messages so every view update runs on one goroutine.
package tui

import (
	"context"
	"strings"

	"github.com/bastiangx/bpedash/internal/cli"
	"github.com/bastiangx/bpedash/internal/render"
	"github.com/bastiangx/bpedash/pkg/api"
	"github.com/bastiangx/bpedash/pkg/control"
	"github.com/bastiangx/bpedash/pkg/index"
	"github.com/bastiangx/bpedash/pkg/progress"
	"github.com/bastiangx/bpedash/pkg/tokenize"
	"github.com/bastiangx/bpedash/pkg/view"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type changedMsg struct{}

type trainingDoneMsg struct{}

type growthMsg struct {
	recent []view.RecentAddition
	err    error
}

// Model is the dashboard state.
type Model struct {
	ctx      context.Context
	stats    cli.StatsClient
	tokens   *tokenize.Controller
	progress *progress.Synchronizer
	control  *control.Dispatcher
	index    *index.TokenIndex
	opts     cli.Options

	changes chan struct{}
	input   textinput.Model
	spin    spinner.Model
	metric  int
	growth  []view.RecentAddition
	found   string
	status  string
	width   int

	// indexed is the last result fed to the index; change signals repeat for
	// polls and selections, so each result is indexed once.
	indexed *api.TokenizeResult

	form    trainForm
	editing bool
}

var (
	paneStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6e6a86"))
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#eb6f92"))
)

// New builds the dashboard and subscribes it to component changes.
func New(ctx context.Context, stats cli.StatsClient, tokens *tokenize.Controller, sync *progress.Synchronizer,
	ctrl *control.Dispatcher, ix *index.TokenIndex, opts cli.Options) Model {
	in := textinput.New()
	in.Placeholder = "यहाँ हिंदी टेक्स्ट दर्ज करें..."
	in.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:      ctx,
		stats:    stats,
		tokens:   tokens,
		progress: sync,
		control:  ctrl,
		index:    ix,
		opts:     opts,
		changes:  make(chan struct{}, 1),
		input:    in,
		spin:     sp,
	}
	for i, info := range view.Metrics() {
		if info.Key == opts.Metric {
			m.metric = i
		}
	}

	signal := func() {
		select {
		case m.changes <- struct{}{}:
		default:
		}
	}
	tokens.OnChange(signal)
	sync.OnChange(signal)
	ctrl.OnStarted(signal)
	return m
}

func waitChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return changedMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick, waitChange(m.changes))
}

func (m Model) startTraining(maxSentences, vocabSize int) tea.Cmd {
	ctx, ctrl := m.ctx, m.control
	return func() tea.Msg {
		ctrl.Start(ctx, maxSentences, vocabSize)
		return trainingDoneMsg{}
	}
}

func (m Model) fetchGrowth() tea.Cmd {
	ctx, stats, ix, window := m.ctx, m.stats, m.index, m.opts.RecentWindow
	return func() tea.Msg {
		ts, err := stats.TrainingStats(ctx)
		if err != nil {
			return growthMsg{err: err}
		}
		ix.AddGrowth(ts.VocabGrowth)
		return growthMsg{recent: view.BuildRecentAdditions(ts.VocabGrowth, window)}
	}
}

// moveSelection shifts the token selection by delta, wrapping around.
func (m Model) moveSelection(delta int) {
	st := m.tokens.State()
	if st.Phase != tokenize.Succeeded || st.Result == nil || len(st.Result.TokenDetails) == 0 {
		return
	}
	n := len(st.Result.TokenDetails)
	cur, ok := m.tokens.Selected()
	if !ok {
		cur = -delta
		if delta < 0 {
			cur = 0
		}
	}
	m.tokens.Select(((cur+delta)%n + n) % n)
}

// updateForm handles keys while the training form is open.
func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.editing = false
		return m, nil
	case "tab", "down":
		m.form.cycle(1)
		return m, nil
	case "shift+tab", "up":
		m.form.cycle(-1)
		return m, nil
	case "enter":
		maxSentences, vocabSize, err := m.form.values()
		if err != nil {
			m.form.err = err.Error()
			return m, nil
		}
		if m.control.Busy() {
			return m, nil
		}
		m.editing = false
		m.status = "Starting Training..."
		return m, m.startTraining(maxSentences, vocabSize)
	}
	var cmd tea.Cmd
	m.form, cmd = m.form.update(msg)
	return m, cmd
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(20, msg.Width-8)

	case tea.KeyMsg:
		if m.editing {
			return m.updateForm(msg)
		}
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			text := m.input.Value()
			if m.tokens.CanSubmit(text) {
				m.tokens.Submit(m.ctx, text)
			}
			return m, nil
		case "tab":
			m.metric = (m.metric + 1) % len(view.Metrics())
			return m, nil
		case "ctrl+t":
			if m.control.Busy() {
				return m, nil
			}
			m.form = newTrainForm(m.opts.DefaultMaxSentences, m.opts.DefaultVocabSize)
			m.editing = true
			return m, textinput.Blink
		case "ctrl+g":
			return m, m.fetchGrowth()
		case "ctrl+f":
			m.found = render.Find(m.index, strings.TrimSpace(m.input.Value()), m.opts.FindLimit)
			return m, nil
		case "ctrl+n":
			m.moveSelection(1)
			return m, nil
		case "ctrl+p":
			m.moveSelection(-1)
			return m, nil
		}

	case changedMsg:
		if st := m.tokens.State(); st.Phase == tokenize.Succeeded && st.Result != m.indexed {
			m.index.AddResult(st.Result)
			m.indexed = st.Result
		}
		cmds = append(cmds, waitChange(m.changes))

	case trainingDoneMsg:
		m.status = ""

	case growthMsg:
		if msg.err != nil {
			m.status = "training stats unavailable"
		} else {
			m.growth = msg.recent
			m.status = ""
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	if m.editing {
		m.form, cmd = m.form.update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	var b strings.Builder

	st := m.tokens.State()
	sel, ok := m.tokens.Selected()
	if !ok {
		sel = -1
	}
	head := m.input.View()
	if st.Phase == tokenize.Loading {
		head += " " + m.spin.View()
	}
	left := head + "\n\n" + render.Request(st, sel)
	if m.found != "" {
		left += "\n" + m.found
	}
	b.WriteString(paneStyle.Render(left))
	b.WriteString("\n")

	state, has := m.progress.Snapshot()
	metric := view.Metrics()[m.metric].Key
	right := render.Progress(state, has, metric, m.opts.RecentWindow)
	if len(m.growth) > 0 {
		right += "\n" + render.Growth(m.growth)
	}
	b.WriteString(paneStyle.Render(right))
	b.WriteString("\n")

	if m.editing {
		b.WriteString(paneStyle.Render(m.form.View()))
		b.WriteString("\n")
	}

	status := m.status
	if m.control.Busy() {
		status = m.spin.View() + " Starting Training..."
	}
	if status != "" {
		b.WriteString(status + "\n")
	}
	help := "enter tokenize • tab metric • ctrl+n/p select token • ctrl+f find • ctrl+t train • ctrl+g growth • esc quit"
	if m.editing {
		help = "tab next field • enter start training • esc cancel"
	}
	b.WriteString(helpStyle.Render(help))
	return b.String()
}
