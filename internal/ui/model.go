// Package ui is the Bubble Tea control panel: run parameters, a progress
// bar, and a scrolling run log. All state changes arrive as bus events
// forwarded by main; the panel itself only issues commands to the runner.
package ui

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"autoa/internal/config"
	"autoa/internal/domain"
	"autoa/internal/eventbus"
	"autoa/internal/worker"
)

const maxLogLines = 500

// Runner is the run-control slice the panel needs.
type Runner interface {
	Start(params worker.RunParams) error
	Pause()
	Resume()
	Cancel()
	Active() bool
	Paused() bool
}

// Screenshotter saves a diagnostic capture on demand.
type Screenshotter interface {
	Screenshot() (string, error)
}

// Field focus order.
const (
	focusCount = iota
	focusDelay
	focusMessage
	focusFields
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("76"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	logBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	helpBarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Model is the Bubble Tea model for the control panel.
type Model struct {
	bus      eventbus.EventBus
	cfg      *config.Config
	runner   Runner
	reporter Screenshotter

	inputs  [focusFields]textinput.Model
	focused int
	dryRun  bool

	progressBar progress.Model
	percent     float64
	step        string
	running     bool
	paused      bool

	checks   []domain.CheckResult
	logLines []string
	logView  viewport.Model

	width  int
	height int
	ready  bool
}

// NewModel builds the panel from config defaults.
func NewModel(bus eventbus.EventBus, cfg *config.Config, runner Runner, reporter Screenshotter) *Model {
	m := &Model{
		bus:         bus,
		cfg:         cfg,
		runner:      runner,
		reporter:    reporter,
		dryRun:      cfg.Run.DryRun,
		progressBar: progress.New(progress.WithDefaultGradient()),
		step:        "idle",
	}

	count := textinput.New()
	count.Placeholder = "contacts"
	count.SetValue(strconv.Itoa(cfg.Run.FriendLimit))
	count.CharLimit = 5
	count.Width = 8
	count.Focus()

	delay := textinput.New()
	delay.Placeholder = "seconds"
	delay.SetValue(strconv.FormatFloat(cfg.Run.DelaySeconds, 'f', -1, 64))
	delay.CharLimit = 6
	delay.Width = 8

	message := textinput.New()
	message.Placeholder = "message to send"
	message.SetValue(cfg.Run.Message)
	message.CharLimit = 500
	message.Width = 60

	m.inputs[focusCount] = count
	m.inputs[focusDelay] = delay
	m.inputs[focusMessage] = message
	return m
}

// Init starts the refresh ticker.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.tick())
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progressBar.Width = msg.Width - 8
		logHeight := msg.Height - 12
		if logHeight < 3 {
			logHeight = 3
		}
		if !m.ready {
			m.logView = viewport.New(msg.Width-4, logHeight)
			m.ready = true
		} else {
			m.logView.Width = msg.Width - 4
			m.logView.Height = logHeight
		}
		m.refreshLog()
		return m, nil

	case tickMsg:
		m.running = m.runner.Active()
		m.paused = m.runner.Paused()
		return m, m.tick()

	case EventMsg:
		return m, m.handleEvent(msg.Event)

	case progress.FrameMsg:
		bar, cmd := m.progressBar.Update(msg)
		m.progressBar = bar.(progress.Model)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, m.updateFocused(msg)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.runner.Cancel()
		return m, tea.Quit
	case "tab", "shift+tab":
		if msg.String() == "tab" {
			m.focused = (m.focused + 1) % focusFields
		} else {
			m.focused = (m.focused + focusFields - 1) % focusFields
		}
		for i := range m.inputs {
			if i == m.focused {
				m.inputs[i].Focus()
			} else {
				m.inputs[i].Blur()
			}
		}
		return m, nil
	case "ctrl+r":
		m.startRun()
		return m, nil
	case "ctrl+d":
		if !m.running {
			m.dryRun = !m.dryRun
		}
		return m, nil
	case "ctrl+p":
		if m.paused {
			m.runner.Resume()
		} else {
			m.runner.Pause()
		}
		return m, nil
	case "ctrl+x":
		m.runner.Cancel()
		return m, nil
	case "ctrl+s":
		go func() {
			if _, err := m.reporter.Screenshot(); err != nil {
				m.bus.Publish(eventbus.LogAppendedEvent{Line: fmt.Sprintf("screenshot: %v", err)})
			}
		}()
		return m, nil
	}
	return m, m.updateFocused(msg)
}

func (m *Model) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
	return cmd
}

func (m *Model) startRun() {
	if m.running {
		m.appendLog("a run is already active")
		return
	}
	limit, err := strconv.Atoi(strings.TrimSpace(m.inputs[focusCount].Value()))
	if err != nil || limit <= 0 {
		m.appendLog("contact count must be a positive number")
		return
	}
	delay, err := strconv.ParseFloat(strings.TrimSpace(m.inputs[focusDelay].Value()), 64)
	if err != nil || delay < 0 {
		m.appendLog("delay must be a non-negative number of seconds")
		return
	}

	params := worker.RunParams{
		Limit:        limit,
		Message:      m.inputs[focusMessage].Value(),
		DelaySeconds: delay,
		DryRun:       m.dryRun,
	}
	if err := m.runner.Start(params); err != nil {
		m.appendLog(fmt.Sprintf("start: %v", err))
		return
	}
	m.running = true
}

func (m *Model) handleEvent(e eventbus.DomainEvent) tea.Cmd {
	switch ev := e.(type) {
	case eventbus.LogAppendedEvent:
		m.appendLog(ev.Line)
	case eventbus.ProgressUpdatedEvent:
		m.percent = ev.Percent
		return m.progressBar.SetPercent(ev.Percent / 100)
	case eventbus.StepChangedEvent:
		m.step = ev.Label
	case eventbus.RunStartedEvent:
		m.running = true
		mode := "live"
		if ev.DryRun {
			mode = "dry-run"
		}
		m.appendLog("run started (" + mode + ")")
	case eventbus.RunFinishedEvent:
		m.running = false
		m.step = "idle"
		line := fmt.Sprintf("run %s: %d sent, %d failed", ev.Status,
			len(ev.Result.Processed), len(ev.Result.Failed))
		if ev.Reason != "" {
			line += " (" + ev.Reason + ")"
		}
		m.appendLog(line)
	case eventbus.SectionReportEvent:
		r := ev.Report
		m.appendLog(fmt.Sprintf("section %s: located=%t satisfied=%t clicks=%d",
			r.Name, r.Located, r.Satisfied, r.Clicks))
	case eventbus.ContactHandledEvent:
		verdict := "ok"
		if !ev.Success {
			verdict = "failed"
		}
		m.appendLog(fmt.Sprintf("contact %s: %s", ev.Name, verdict))
	case eventbus.ScreenshotSavedEvent:
		m.appendLog("screenshot saved: " + ev.Path)
	case eventbus.ChecksCompletedEvent:
		m.checks = ev.Results
	case eventbus.ErrorEvent:
		m.appendLog("error: " + ev.Message)
	default:
		log.Printf("ui: unhandled event %T", e)
	}
	return nil
}

func (m *Model) appendLog(line string) {
	m.logLines = append(m.logLines, time.Now().Format("15:04:05")+" "+line)
	if len(m.logLines) > maxLogLines {
		m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
	}
	m.refreshLog()
}

func (m *Model) refreshLog() {
	if !m.ready {
		return
	}
	m.logView.SetContent(strings.Join(m.logLines, "\n"))
	m.logView.GotoBottom()
}

// View renders the panel.
func (m *Model) View() string {
	if !m.ready {
		return "loading..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("autoa") + "  " + m.statusLine() + "\n\n")

	b.WriteString(labelStyle.Render("contacts ") + m.inputs[focusCount].View())
	b.WriteString("   " + labelStyle.Render("delay ") + m.inputs[focusDelay].View())
	b.WriteString("   " + m.modeBadge() + "\n")
	b.WriteString(labelStyle.Render("message  ") + m.inputs[focusMessage].View() + "\n\n")

	b.WriteString(m.progressBar.View() + "\n")
	b.WriteString(stepStyle.Render(m.step) + "\n")

	if len(m.checks) > 0 {
		b.WriteString(m.checksLine() + "\n")
	}

	b.WriteString(logBoxStyle.Render(m.logView.View()) + "\n")
	b.WriteString(helpBarStyle.Render(
		"tab fields · ctrl+r run · ctrl+d dry-run · ctrl+p pause · ctrl+x stop · ctrl+s screenshot · ctrl+c quit"))
	return b.String()
}

func (m *Model) statusLine() string {
	switch {
	case m.paused:
		return warnStyle.Render("paused")
	case m.running:
		return okStyle.Render("running")
	default:
		return labelStyle.Render("idle")
	}
}

func (m *Model) modeBadge() string {
	if m.dryRun {
		return okStyle.Render("[dry-run]")
	}
	return failStyle.Render("[LIVE]")
}

func (m *Model) checksLine() string {
	parts := make([]string, 0, len(m.checks))
	for _, c := range m.checks {
		mark := okStyle.Render("✓")
		if !c.OK {
			mark = failStyle.Render("✗")
		}
		parts = append(parts, fmt.Sprintf("%s %s", mark, c.Name))
	}
	return labelStyle.Render("checks: ") + strings.Join(parts, "  ")
}
