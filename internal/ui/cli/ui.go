package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	coreapp "javakg/internal/core/app"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	phaseStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

type progressMsg coreapp.Progress

type runDoneMsg struct {
	result *coreapp.Result
	err    error
}

type model struct {
	title   string
	spinner spinner.Model
	bar     progress.Model

	phase string
	done  int
	total int

	finished bool
	quitting bool
	result   *coreapp.Result
	err      error
}

func initialModel(title string) model {
	return model{
		title:   title,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(phaseStyle)),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		phase:   coreapp.PhaseLocate,
	}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}
	case progressMsg:
		m.phase = msg.Phase
		if msg.Phase == coreapp.PhaseExtract {
			m.done = msg.Done
			m.total = msg.Total
		}
	case runDoneMsg:
		m.finished = true
		m.result = msg.result
		m.err = msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) percent() float64 {
	if m.total == 0 {
		return 0
	}
	return float64(m.done) / float64(m.total)
}

func (m model) View() string {
	header := titleStyle.Render("javakg") + " " + statusStyle.Render(m.title)
	switch {
	case m.finished && m.err != nil:
		return docStyle.Render(header + "\n" + errorStyle.Render("failed: "+m.err.Error()))
	case m.finished:
		return docStyle.Render(header + "\n" + phaseStyle.Render("done"))
	case m.quitting:
		return docStyle.Render(header + "\n" + warnStyle.Render("cancelling..."))
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(phaseStyle.Render(m.phase))
	b.WriteString("\n")
	b.WriteString(m.bar.ViewAs(m.percent()))
	b.WriteString(statusStyle.Render(fmt.Sprintf(" %d/%d files", m.done, m.total)))
	b.WriteString("\n\n")
	b.WriteString(statusStyle.Render("q to cancel"))
	return docStyle.Render(b.String())
}
