package askcmder

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/synergyreader/synergy/pkg/answer"
	"github.com/synergyreader/synergy/pkg/cliui"
	"github.com/synergyreader/synergy/pkg/marker"
	"github.com/synergyreader/synergy/pkg/utils"
)

// chrome is the number of lines taken by the header and footer.
const chrome = 5

var (
	tuiTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	tuiMutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	tuiStatusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
)

type askKeyMap struct {
	Up   key.Binding
	Down key.Binding
	Top  key.Binding
	End  key.Binding
	Quit key.Binding
}

func (k askKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Up, k.Top, k.End, k.Quit}
}

func (k askKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func defaultKeyMap() askKeyMap {
	return askKeyMap{
		Up:   key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k", "up")),
		Down: key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "down")),
		Top:  key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		End:  key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
		Quit: key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type eventMsg struct {
	ev marker.Event
}

type streamDoneMsg struct{}

type streamErrMsg struct {
	err error
}

type askModel struct {
	src      answer.Source
	state    answer.State
	spinner  spinner.Model
	viewport viewport.Model
	keys     askKeyMap
	help     help.Model
	width    int
	height   int
	ready    bool
	rendered string
}

func newAskModel(src answer.Source, question string) askModel {
	return askModel{
		src:     src,
		state:   answer.New(question),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		keys:    defaultKeyMap(),
		help:    help.New(),
	}
}

// runTUI shows the answer stream in a full-screen view until the user quits.
func runTUI(ctx context.Context, src answer.Source, question string) (answer.State, error) {
	// Force TrueColor: lipgloss misdetects the profile inside the alt screen.
	renderer := lipgloss.NewRenderer(os.Stdout, termenv.WithProfile(termenv.TrueColor))
	renderer.SetColorProfile(termenv.TrueColor)
	lipgloss.SetDefaultRenderer(renderer)

	program := bubbletea.NewProgram(newAskModel(src, question),
		bubbletea.WithContext(ctx),
		bubbletea.WithAltScreen(),
	)

	final, err := program.Run()
	if err != nil {
		return answer.State{}, fmt.Errorf("running answer view: %w", err)
	}

	m, _ := final.(askModel)
	if !m.state.Done {
		m.state = answer.Finish(m.state)
	}
	return m.state, nil
}

func nextEvent(src answer.Source) bubbletea.Cmd {
	return func() bubbletea.Msg {
		ev, err := src.Next()
		switch {
		case err != nil:
			return streamErrMsg{err: err}
		case ev == nil:
			return streamDoneMsg{}
		}
		return eventMsg{ev: ev}
	}
}

func (m askModel) Init() bubbletea.Cmd {
	return bubbletea.Batch(m.spinner.Tick, nextEvent(m.src))
}

func (m askModel) Update(msg bubbletea.Msg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg := msg.(type) {
	case bubbletea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, max(msg.Height-chrome, 1))
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = max(msg.Height-chrome, 1)
		}
		m.rendered = ""
		m.refresh()
		return m, nil

	case bubbletea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, bubbletea.Quit
		case key.Matches(msg, m.keys.Top):
			m.viewport.GotoTop()
			return m, nil
		case key.Matches(msg, m.keys.End):
			m.viewport.GotoBottom()
			return m, nil
		}
		var cmd bubbletea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		if m.state.Done {
			return m, nil
		}
		var cmd bubbletea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case eventMsg:
		m.state = answer.Reduce(m.state, msg.ev)
		m.refresh()
		m.viewport.GotoBottom()
		return m, nextEvent(m.src)

	case streamDoneMsg:
		m.state = answer.Finish(m.state)
		m.refresh()
		return m, nil

	case streamErrMsg:
		m.state = answer.Reduce(m.state, marker.StreamError{Message: "answer stream interrupted: " + msg.err.Error()})
		m.state = answer.Finish(m.state)
		m.refresh()
		return m, nil
	}

	return m, nil
}

// refresh re-renders the viewport content. While streaming the text is only
// wrapped; the finished answer is rendered as markdown once.
func (m *askModel) refresh() {
	if !m.ready {
		return
	}

	width := max(m.width-2, 20)
	if !m.state.Done {
		m.viewport.SetContent(lipgloss.NewStyle().Width(width).Render(m.state.Text()))
		return
	}

	if m.rendered == "" {
		m.rendered = m.state.Answer()
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
		if err == nil {
			if out, err := r.Render(m.state.Answer()); err == nil {
				m.rendered = out
			}
		}
	}
	m.viewport.SetContent(m.rendered)
}

func (m askModel) status() string {
	if !m.state.Done {
		return m.spinner.View() + " " + tuiStatusStyle.Render(fmt.Sprintf("answering… %d tokens", m.state.Tokens))
	}

	parts := []string{cliui.Mark(nil) + " done"}
	if m.state.EntryID != nil {
		parts = append(parts, fmt.Sprintf("entry %d", *m.state.EntryID))
	}
	if cites := m.state.Citations(); len(cites) > 0 {
		parts = append(parts, "sources: "+strings.Join(cites, ", "))
	}
	if n := len(m.state.Errors); n > 0 {
		parts = append(parts, cliui.WarnStyle.Render(m.state.Errors[n-1]))
	}
	return tuiStatusStyle.Render(utils.Truncate(strings.Join(parts, "  ·  "), max(m.width-2, 20)))
}

func (m askModel) View() string {
	if !m.ready {
		return "\n  " + m.spinner.View() + " connecting…"
	}

	header := tuiTitleStyle.Render(utils.Truncate(m.state.Question, max(m.width-2, 20)))
	divider := tuiMutedStyle.Render(strings.Repeat("─", max(m.width, 1)))

	return strings.Join([]string{
		header,
		divider,
		m.viewport.View(),
		divider,
		m.status(),
		m.help.View(m.keys),
	}, "\n")
}
