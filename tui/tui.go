// Package tui is the terminal front end: a bubbletea program that mirrors
// status updates and lets the user toggle recording from the keyboard.
package tui

import (
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"voiceclip/status"
)

// UpdateMsg carries one status update into the program.
type UpdateMsg status.Update

// DeviceMsg names the active microphone.
type DeviceMsg string

type tickMsg time.Time

// noticeTTL is how long a transient notice stays on screen.
const noticeTTL = 4 * time.Second

type keyMap struct {
	Toggle   key.Binding
	CopyLast key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Toggle:   key.NewBinding(key.WithKeys("r", " "), key.WithHelp("r", "record")),
	CopyLast: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy last")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// Options wires the program to the rest of the application.
type Options struct {
	Hotkey   string
	Version  string
	Toggle   func()
	CopyLast func()
	Quit     func()
	// Level reports the current input RMS level in [0,1].
	Level *Level
}

// Level is a lock-free holder for the latest input level. The audio
// callback stores; the render tick loads.
type Level struct{ bits atomic.Uint64 }

func (l *Level) Set(v float64) { l.bits.Store(math.Float64bits(v)) }

func (l *Level) Get() float64 {
	if l == nil {
		return 0
	}
	return math.Float64frombits(l.bits.Load())
}

type Model struct {
	opts Options

	state    status.State
	reason   status.Reason
	detail   string
	model    string
	language string
	device   string

	frame   int
	started time.Time
	elapsed time.Duration
	level   float64
	peak    float64

	notice   string
	noticeAt time.Time

	lastText string
	lastJob  string
	copied   bool
	count    int
	recorded time.Duration

	spinner       spinner.Model
	width, height int
}

func New(opts Options) Model {
	return Model{
		opts:    opts,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

// NewProgram builds the bubbletea program for the alternate screen.
func NewProgram(opts Options) *tea.Program {
	return tea.NewProgram(New(opts), tea.WithAltScreen())
}

func tick() tea.Cmd {
	return tea.Tick(60*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(), m.spinner.Tick)
}

func call(fn func()) tea.Cmd {
	if fn == nil {
		return nil
	}
	return func() tea.Msg {
		fn()
		return nil
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Sequence(call(m.opts.Quit), tea.Quit)
		case key.Matches(msg, keys.Toggle):
			return m, call(m.opts.Toggle)
		case key.Matches(msg, keys.CopyLast):
			return m, call(m.opts.CopyLast)
		}

	case tickMsg:
		m.frame++
		now := time.Time(msg)
		if m.state == status.Recording {
			m.elapsed = now.Sub(m.started)
			lv := m.opts.Level.Get()
			m.level = m.level*0.6 + lv*0.4
			m.peak = max(m.peak, lv)
		}
		if m.notice != "" && now.Sub(m.noticeAt) > noticeTTL {
			m.notice = ""
		}
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case DeviceMsg:
		m.device = string(msg)

	case UpdateMsg:
		m = m.apply(status.Update(msg))
	}
	return m, nil
}

func (m Model) apply(u status.Update) Model {
	if u.State == status.Recording && m.state != status.Recording {
		m.started = u.At
		if m.started.IsZero() {
			m.started = time.Now()
		}
		m.elapsed = 0
		m.level = 0
		m.peak = 0
	}
	if u.State != status.Recording {
		m.level = 0
	}
	m.state = u.State
	m.reason = u.Reason
	m.detail = u.Detail
	m.model = u.Model
	m.language = u.Language
	if u.Recorded > 0 {
		m.recorded = u.Recorded
	}
	if u.Notice != "" {
		m.notice = u.Notice
		m.noticeAt = time.Now()
	}
	if u.Job != "" && u.Text != "" && u.Job != m.lastJob {
		m.lastJob = u.Job
		m.lastText = u.Text
		m.copied = u.State != status.Error
		m.count++
	}
	return m
}

var (
	recStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	busyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	modeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	boldHelp    = helpStyle.Bold(true)
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
	textStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	copiedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

func (m Model) statusLine() string {
	switch m.state {
	case status.Recording:
		return recStyle.Render(fmt.Sprintf("● REC %.1fs", m.elapsed.Seconds()))
	case status.Transcribing:
		return busyStyle.Render(m.spinner.View() + " TRANSCRIBING")
	case status.Error:
		line := "✗ " + m.reason.Message()
		return errStyle.Render(line)
	}
	return dimStyle.Render("○ STANDBY")
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	const eyeWidth = eyeChars + 1
	eye := renderEye(m.frame, m.level, m.state)

	info := []string{m.statusLine()}
	if m.state == status.Recording && m.elapsed > time.Second && m.peak < 0.02 {
		info = append(info, noticeStyle.Render("  ⚠ no voice detected"))
	}
	if m.state == status.Error && m.detail != "" {
		info = append(info, dimStyle.Render(truncate(m.detail, eyeWidth-2)))
	}
	if m.notice != "" {
		info = append(info, noticeStyle.Render(m.notice))
	}

	mode := "model: " + m.model
	if m.language != "" {
		mode += " | lang: " + m.language
	}
	info = append(info, modeStyle.Render("["+mode+"]"))
	if m.device != "" {
		info = append(info, dimStyle.Render("mic: "+m.device))
	}

	info = append(info, "")
	if m.opts.Hotkey != "" {
		info = append(info, boldHelp.Render("hold "+m.opts.Hotkey)+helpStyle.Render(" to record"))
	}
	info = append(info, helpStyle.Render("r record · c copy last · q quit"))
	if m.opts.Version != "" {
		info = append(info, helpStyle.Render("voiceclip "+m.opts.Version))
	}

	left := eye + strings.Join(info, "\n")
	leftLines := strings.Split(left, "\n")
	padded := make([]string, m.height)
	for i := range padded {
		if i < len(leftLines) {
			padded[i] = leftLines[i]
		} else {
			padded[i] = strings.Repeat(" ", eyeWidth-1)
		}
	}
	eyePanel := lipgloss.NewStyle().
		Width(eyeWidth - 1).
		Height(m.height).
		Render(strings.Join(padded, "\n"))

	logWidth := max(m.width-eyeWidth, 20)
	logPanel := lipgloss.NewStyle().
		Width(logWidth).
		Height(m.height).
		PaddingLeft(1).
		Render(m.lastPanel(max(logWidth-2, 10)))

	return lipgloss.JoinHorizontal(lipgloss.Top, eyePanel, logPanel)
}

func (m Model) lastPanel(wrapWidth int) string {
	if m.lastText == "" {
		return dimStyle.Render("No transcriptions yet")
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Last transcription (#%d)", m.count)))
	b.WriteString("\n\n")
	lines := wrapText(m.lastText, wrapWidth)
	for i, line := range lines {
		b.WriteString(textStyle.Render(line))
		if i == len(lines)-1 && m.copied {
			b.WriteString(" " + copiedStyle.Render("[✓ copied]"))
		}
		b.WriteString("\n")
	}
	if m.recorded > 0 {
		b.WriteString("\n" + dimStyle.Render(fmt.Sprintf("audio %.1fs", m.recorded.Seconds())) + "\n")
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n < 2 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// wrapText breaks text on spaces into lines of at most width runes.
func wrapText(text string, width int) []string {
	if text == "" {
		return []string{""}
	}
	width = max(width, 1)

	var lines []string
	r := []rune(text)
	for len(r) > width {
		split := width
		for i := width; i > 0; i-- {
			if r[i] == ' ' {
				split = i
				break
			}
		}
		lines = append(lines, string(r[:split]))
		r = []rune(strings.TrimLeft(string(r[split:]), " "))
	}
	if len(r) > 0 {
		lines = append(lines, string(r))
	}
	return lines
}

// Indicator forwards status updates into a running program.
type Indicator struct {
	P *tea.Program
}

func (i Indicator) Show(u status.Update) {
	i.P.Send(UpdateMsg(u))
}
