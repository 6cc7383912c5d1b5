package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	pathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type tuiModel struct {
	fatal error
	err   error
	cfg   *Config
	log   *zap.Logger

	jobs    chan convertJob
	pwReply chan passwordReply

	fileInput textinput.Model
	pwInput   textinput.Model
	bar       progress.Model

	version string
	input   string
	output  string
	pwURL   string
	result  string
	percent float64
	ready   bool
	state   tuiState
}

type convertJob struct {
	input  string
	output string
}

type passwordReply struct {
	password string
	ok       bool
}

type tuiState int

const (
	statePickFile tuiState = iota
	stateConverting
	statePassword
	stateShowResult
)

type engineReadyMsg struct {
	err     error
	version string
}

type progressMsg struct {
	percent float64
}

type passwordNeededMsg struct {
	url string
}

type convertDoneMsg struct {
	err     error
	output  string
	skipped bool
}

func newTUIModel(cfg *Config, log *zap.Logger) *tuiModel {
	fi := textinput.New()
	fi.Placeholder = "path/to/document.odt"
	fi.Prompt = "Document: "
	fi.Width = 60
	fi.Focus()

	pi := textinput.New()
	pi.Prompt = "Password: "
	pi.EchoMode = textinput.EchoPassword
	pi.EchoCharacter = '•'
	pi.Width = 40

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	return &tuiModel{
		cfg:       cfg,
		log:       log,
		jobs:      make(chan convertJob, 1),
		pwReply:   make(chan passwordReply, 1),
		fileInput: fi,
		pwInput:   pi,
		bar:       bar,
		state:     statePickFile,
	}
}

func (m *tuiModel) Init() tea.Cmd {
	return textinput.Blink
}

// startWorker runs the engine on its own locked OS thread. The model
// talks to it through the jobs and pwReply channels, the worker answers
// through send.
func (m *tuiModel) startWorker(send func(tea.Msg)) {
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		prompt := func(url string) (string, bool) {
			send(passwordNeededMsg{url: url})
			reply := <-m.pwReply
			return reply.password, reply.ok
		}
		report := func(pct int) {
			send(progressMsg{percent: float64(pct) / 100})
		}

		conv, err := newConverter(m.cfg, m.log, prompt, report)
		if err != nil {
			send(engineReadyMsg{err: err})
			return
		}
		defer conv.Close()

		version := ""
		if info, err := conv.office.VersionInfo(); err == nil {
			version = info.ProductName + " " + info.ProductVersion
		}
		send(engineReadyMsg{version: version})

		for job := range m.jobs {
			skipped, err := conv.convertFile(job.input, job.output)
			send(convertDoneMsg{output: job.output, skipped: skipped, err: err})
		}
	}()
}

// shutdown unblocks a worker waiting on a password and ends its job loop
// so the engine tears down before the program exits.
func (m *tuiModel) shutdown() {
	select {
	case m.pwReply <- passwordReply{}:
	default:
	}
	close(m.jobs)
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.shutdown()
			return m, tea.Quit

		case "q":
			// Quits outside the typing states, where q is just a letter.
			if m.state == stateConverting || m.state == stateShowResult || m.fatal != nil {
				m.shutdown()
				return m, tea.Quit
			}

		case "enter":
			switch m.state {
			case statePickFile:
				path := strings.TrimSpace(m.fileInput.Value())
				if path == "" || !m.ready {
					break
				}
				m.input = path
				m.output = replaceExt(path, m.cfg.Convert.Format)
				m.percent = 0
				m.state = stateConverting
				m.jobs <- convertJob{input: path, output: m.output}

			case statePassword:
				m.pwReply <- passwordReply{password: m.pwInput.Value(), ok: true}
				m.pwInput.Reset()
				m.state = stateConverting

			case stateShowResult:
				m.state = statePickFile
				m.result = ""
				m.err = nil
				m.fileInput.Reset()
				m.fileInput.Focus()
			}

		case "esc":
			if m.state == statePassword {
				m.pwReply <- passwordReply{}
				m.pwInput.Reset()
				m.state = stateConverting
			}
		}

	case engineReadyMsg:
		if msg.err != nil {
			m.fatal = msg.err
			return m, nil
		}
		m.ready = true
		m.version = msg.version

	case progressMsg:
		m.percent = msg.percent

	case passwordNeededMsg:
		m.pwURL = msg.url
		m.pwInput.Focus()
		m.state = statePassword

	case convertDoneMsg:
		m.err = msg.err
		if msg.skipped {
			m.result = "Already converted, input unchanged."
		} else {
			m.result = "Saved " + msg.output
		}
		m.state = stateShowResult
	}

	var cmd tea.Cmd
	switch m.state {
	case statePickFile:
		m.fileInput, cmd = m.fileInput.Update(msg)
	case statePassword:
		m.pwInput, cmd = m.pwInput.Update(msg)
	}
	return m, cmd
}

func (m *tuiModel) View() string {
	if m.fatal != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.fatal))
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("lokonvert"))
	if m.version != "" {
		b.WriteString(" ")
		b.WriteString(m.version)
	}
	b.WriteString("\n\n")

	switch m.state {
	case statePickFile:
		b.WriteString(fmt.Sprintf("Convert to %s:\n\n", m.cfg.Convert.Format))
		b.WriteString(m.fileInput.View())
		b.WriteString("\n\n")
		if m.ready {
			b.WriteString(helpStyle.Render("enter convert • ctrl+c quit"))
		} else {
			b.WriteString(helpStyle.Render("starting engine..."))
		}

	case stateConverting:
		b.WriteString(fmt.Sprintf("Converting %s\n\n", pathStyle.Render(m.input)))
		b.WriteString(m.bar.ViewAs(m.percent))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("q quit"))

	case statePassword:
		b.WriteString(fmt.Sprintf("Password required for %s\n\n", pathStyle.Render(m.pwURL)))
		b.WriteString(m.pwInput.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter submit • esc decline"))

	case stateShowResult:
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter convert another • q quit"))
	}

	return b.String()
}

func runInteractive(cfg *Config) error {
	// The terminal belongs to the TUI, so library logging stays quiet.
	m := newTUIModel(cfg, zap.NewNop())
	p := tea.NewProgram(m, tea.WithAltScreen())
	m.startWorker(p.Send)
	_, err := p.Run()
	return err
}
