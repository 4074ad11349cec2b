package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"voiceink/audio"
	"voiceink/log"
	"voiceink/session"
)

type sessionMsg struct{ ev session.Event }
type tickMsg time.Time

type tuiState int

const (
	tuiStateIdle tuiState = iota
	tuiStateRecording
)

const recentLimit = 5

type tuiModel struct {
	state       tuiState
	recordStart time.Time
	now         time.Time
	level       float64
	peak        float64
	wave        []float64
	waveform    *audio.Waveform

	// pending holds sessions whose pipeline is still running.
	pending map[string]bool
	status  session.StatusMessage
	recent  []string
	count   int

	modeLine   string
	deviceLine string
	helpLine   string
	width      int
	height     int
}

var (
	recStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	idleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	busyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	textStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
	levelStyles = map[session.Level]lipgloss.Style{
		session.LevelInfo:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		session.LevelWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		session.LevelError: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
	waveStyleRec  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	waveStyleIdle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

var waveBlocks = []rune("▁▂▃▄▅▆▇█")

func newTUIModel(a *app, device *audio.DeviceInfo) tuiModel {
	cfg := a.store.Snapshot()
	mode := fmt.Sprintf("[%s | %s", cfg.Transcription.Format, cfg.Transcription.Provider)
	if cfg.Transcription.Language != "" {
		mode += " (" + cfg.Transcription.Language + ")"
	}
	if cfg.PostProcess.Enabled {
		mode += " | post: " + cfg.PostProcess.Provider
	}
	mode += "]"
	return tuiModel{
		waveform:   a.waveform,
		pending:    make(map[string]bool),
		modeLine:   mode,
		deviceLine: deviceLineText(device),
		helpLine:   "hold " + cfg.Trigger.Key + " to record, q to quit",
		now:        time.Now(),
	}
}

func deviceLineText(dev *audio.DeviceInfo) string {
	name := "system default"
	suffix := ""
	if dev != nil {
		name = dev.Name
		if audio.IsBluetooth(dev.Name) {
			suffix = " (BT!)"
		}
	}
	return "mic: " + name + suffix
}

func tuiTick() tea.Cmd {
	return tea.Tick(60*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}

	case tickMsg:
		m.now = time.Time(msg)
		if m.state == tuiStateRecording && m.waveform != nil {
			m.wave = m.waveform.Snapshot()
		}
		return m, tuiTick()

	case sessionMsg:
		m = m.apply(msg.ev)
	}
	return m, nil
}

func (m tuiModel) apply(ev session.Event) tuiModel {
	switch ev := ev.(type) {
	case session.RecordingStarted:
		m.state = tuiStateRecording
		m.recordStart = ev.At
		m.level, m.peak = 0, 0
		m.wave = nil

	case session.RecordingEnded:
		m.state = tuiStateIdle
		m.level = 0
		if !ev.Cancelled {
			m.pending[ev.ID] = true
		}

	case session.AudioLevel:
		if m.state == tuiStateRecording {
			m.level = m.level*0.6 + ev.Level*0.4
			m.peak = max(m.peak, ev.Level)
		}

	case session.TranscriptionCompleted:
		delete(m.pending, ev.ID)
		m.count++
		m.recent = append([]string{ev.Text}, m.recent...)
		if len(m.recent) > recentLimit {
			m.recent = m.recent[:recentLimit]
		}

	case session.StatusMessage:
		if ev.Level == session.LevelError {
			delete(m.pending, ev.ID)
		}
		m.status = ev
	}
	return m
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	width := max(m.width-2, 20)

	var lines []string
	switch {
	case m.state == tuiStateRecording:
		lines = append(lines, recStyle.Render(fmt.Sprintf("● REC %.1fs", m.now.Sub(m.recordStart).Seconds())))
	case len(m.pending) > 0:
		lines = append(lines, busyStyle.Render(fmt.Sprintf("◌ 转写中 (%d)", len(m.pending))))
	default:
		lines = append(lines, idleStyle.Render("○ STANDBY"))
	}
	lines = append(lines, renderWave(m.wave, min(width, 64), m.state == tuiStateRecording))
	if m.state == tuiStateRecording && m.now.Sub(m.recordStart) > time.Second && m.peak < 0.02 {
		lines = append(lines, levelStyles[session.LevelWarn].Render("⚠ no voice detected"))
	}

	lines = append(lines, dimStyle.Render(m.modeLine), idleStyle.Render(m.deviceLine), "")

	if m.status.Text != "" {
		lines = append(lines, levelStyles[m.status.Level].Render(m.status.Text), "")
	}

	if len(m.recent) == 0 {
		lines = append(lines, idleStyle.Render("No transcriptions yet"))
	} else {
		lines = append(lines, titleStyle.Render(fmt.Sprintf("Last transcription (#%d)", m.count)))
		for _, l := range wrapText(m.recent[0], width) {
			lines = append(lines, textStyle.Render(l))
		}
		if len(m.recent) > 1 {
			lines = append(lines, "", titleStyle.Render("Earlier"))
			for _, t := range m.recent[1:] {
				lines = append(lines, dimStyle.Render(truncate(t, width)))
			}
		}
	}

	lines = append(lines, "", helpStyle.Render(m.helpLine), helpStyle.Render("voiceink "+version))

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		PaddingLeft(1).
		Render(strings.Join(lines, "\n"))
}

// renderWave draws the most recent width levels as block characters.
func renderWave(levels []float64, width int, recording bool) string {
	if len(levels) > width {
		levels = levels[len(levels)-width:]
	}
	var b strings.Builder
	for range width - len(levels) {
		b.WriteRune(waveBlocks[0])
	}
	top := len(waveBlocks) - 1
	for _, l := range levels {
		i := min(int(l*4*float64(top)), top)
		b.WriteRune(waveBlocks[max(i, 0)])
	}
	if recording {
		return waveStyleRec.Render(b.String())
	}
	return waveStyleIdle.Render(b.String())
}

// wrapText splits text into lines of at most width display cells,
// preferring to break at spaces. CJK text has no spaces and breaks anywhere.
func wrapText(text string, width int) []string {
	if text == "" {
		return []string{""}
	}
	width = max(width, 1)

	var lines []string
	var cur []rune
	curWidth := 0
	lastSpace := -1
	for _, r := range text {
		w := lipgloss.Width(string(r))
		if curWidth+w > width && len(cur) > 0 {
			if r == ' ' {
				lines = append(lines, string(cur))
				cur, curWidth, lastSpace = cur[:0], 0, -1
				continue
			}
			if lastSpace > 0 {
				lines = append(lines, string(cur[:lastSpace]))
				cur = append([]rune(nil), cur[lastSpace+1:]...)
			} else {
				lines = append(lines, string(cur))
				cur = cur[:0]
			}
			curWidth = lipgloss.Width(string(cur))
			lastSpace = -1
		}
		if r == ' ' {
			lastSpace = len(cur)
		}
		cur = append(cur, r)
		curWidth += w
	}
	if len(cur) > 0 {
		lines = append(lines, string(cur))
	}
	return lines
}

func truncate(text string, width int) string {
	lines := wrapText(text, width)
	if len(lines) == 1 {
		return lines[0]
	}
	r := []rune(lines[0])
	if len(r) > 1 {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}

// tuiSink runs the Bubble Tea program and feeds it controller events.
type tuiSink struct {
	program *tea.Program
	quit    context.CancelFunc
}

func newTUISink(a *app, device *audio.DeviceInfo, quit context.CancelFunc) *tuiSink {
	return &tuiSink{
		program: tea.NewProgram(newTUIModel(a, device), tea.WithAltScreen()),
		quit:    quit,
	}
}

func (s *tuiSink) Handle(ev session.Event) {
	s.program.Send(sessionMsg{ev: ev})
}

func (s *tuiSink) Run(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := s.program.Run(); err != nil {
			log.Errorf("TUI error: %v", err)
		}
		s.quit()
	}()
	select {
	case <-ctx.Done():
		s.program.Quit()
		<-done
	case <-done:
	}
}
