package tui

import (
	"strconv"
	"strings"

	"github.com/bastiangx/bpedash/pkg/control"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// trainForm collects the max-sentences and vocab-size parameters of a training run.
type trainForm struct {
	fields [2]textinput.Model
	focus  int
	err    string
}

func newTrainForm(maxSentences, vocabSize int) trainForm {
	var f trainForm
	labels := [2]string{"Max Sentences: ", "Vocab Size: "}
	values := [2]int{maxSentences, vocabSize}
	for i := range f.fields {
		in := textinput.New()
		in.Prompt = labels[i]
		in.CharLimit = 6
		in.SetValue(strconv.Itoa(values[i]))
		f.fields[i] = in
	}
	f.fields[0].Focus()
	return f
}

func (f *trainForm) cycle(delta int) {
	f.fields[f.focus].Blur()
	f.focus = (f.focus + delta + len(f.fields)) % len(f.fields)
	f.fields[f.focus].Focus()
}

// values parses and bounds-checks both fields.
func (f trainForm) values() (maxSentences, vocabSize int, err error) {
	if maxSentences, err = strconv.Atoi(strings.TrimSpace(f.fields[0].Value())); err != nil {
		return 0, 0, control.ErrOutOfRange
	}
	if vocabSize, err = strconv.Atoi(strings.TrimSpace(f.fields[1].Value())); err != nil {
		return 0, 0, control.ErrOutOfRange
	}
	return maxSentences, vocabSize, control.Validate(maxSentences, vocabSize)
}

func (f trainForm) update(msg tea.Msg) (trainForm, tea.Cmd) {
	var cmd tea.Cmd
	f.fields[f.focus], cmd = f.fields[f.focus].Update(msg)
	return f, cmd
}

func (f trainForm) View() string {
	s := f.fields[0].View() + "\n" + f.fields[1].View()
	if f.err != "" {
		s += "\n" + errStyle.Render(f.err)
	}
	return s
}
