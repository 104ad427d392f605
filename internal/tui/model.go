// Package tui provides the Bubble Tea quiz interface.
package tui

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"movecount/internal/model"
	"movecount/internal/quiz"
	"movecount/internal/store"
)

// tickMsg carries the sequence of the tick chain that produced it, so
// chains armed before a restart are dropped instead of double-counting.
type tickMsg struct {
	seq int
}

var (
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	solvedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	historyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// Model implements the Bubble Tea quiz UI.
type Model struct {
	session *quiz.Session
	store   *store.Store

	width  int
	height int

	questions []model.QuestionType
	inputs    []textinput.Model
	focus     int

	tickSeq   int
	highlight int // index into questions, -1 when off
	saved     bool
	status    string

	lastScore    int
	hasLast      bool
	bestScore    int
	sessionCount int
}

// NewModel constructs a quiz TUI model. The session must already be
// started.
func NewModel(session *quiz.Session, st *store.Store) *Model {
	m := &Model{
		session:   session,
		store:     st,
		highlight: -1,
	}
	m.rebuildInputs()
	m.loadFooterStats()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.armTick()
}

// armTick schedules the next one-second tick stamped with the current
// chain sequence. Untimed sessions never tick.
func (m *Model) armTick() tea.Cmd {
	if m.session.Untimed() || m.session.State() != quiz.StateActive {
		return nil
	}
	seq := m.tickSeq
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{seq: seq}
	})
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if msg.seq != m.tickSeq {
			return m, nil
		}
		m.session.Tick()
		if m.session.State() == quiz.StateEnded {
			m.persistOnce()
			return m, nil
		}
		return m, m.armTick()
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.session.State() != quiz.StateEnded {
			m.session.Reveal()
			m.persistOnce()
		}
		return m, tea.Quit
	}

	if m.session.State() == quiz.StateEnded {
		return m.handleEndedKey(msg)
	}

	switch msg.String() {
	case "enter":
		return m, m.submit()
	case "tab", "down":
		m.moveFocus(1)
		return m, nil
	case "shift+tab", "up":
		m.moveFocus(-1)
		return m, nil
	case "ctrl+r":
		m.session.Reveal()
		m.persistOnce()
		return m, nil
	case "ctrl+n":
		return m, m.restart()
	case "ctrl+h":
		m.cycleHighlight()
		return m, nil
	}

	if m.focus >= 0 && m.focus < len(m.inputs) {
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleEndedKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "n", "enter", "ctrl+n":
		return m, m.restart()
	case "h", "ctrl+h":
		m.cycleHighlight()
		return m, nil
	}
	return m, nil
}

// submit grades every still-open question from the current input values.
// A blank or non-numeric field is graded as incorrect.
func (m *Model) submit() tea.Cmd {
	counts := make(map[model.QuestionType]int, len(m.questions))
	for i, qt := range m.questions {
		if m.session.Correct(qt) {
			continue
		}
		counts[qt] = parseCount(m.inputs[i].Value())
	}
	res, err := m.session.Submit(counts)
	if err != nil {
		m.status = warnStyle.Render(err.Error())
		if m.session.State() == quiz.StateEnded {
			m.persistOnce()
		}
		return nil
	}
	switch {
	case res.Ended:
		m.persistOnce()
		return nil
	case res.Advanced:
		m.status = solvedStyle.Render("Solved! Next position.")
		m.rebuildInputs()
		return nil
	case len(res.Incorrect) > 0:
		m.status = warnStyle.Render(fmt.Sprintf("%d wrong, try again", len(res.Incorrect)))
	default:
		m.status = ""
	}
	m.syncInputs()
	return nil
}

func (m *Model) restart() tea.Cmd {
	m.tickSeq++
	m.saved = false
	m.status = ""
	m.highlight = -1
	if err := m.session.Start(); err != nil {
		m.status = warnStyle.Render("failed to start session: " + err.Error())
		return nil
	}
	m.rebuildInputs()
	return m.armTick()
}

// rebuildInputs recreates one numeric field per active question in
// display order for the current puzzle.
func (m *Model) rebuildInputs() {
	m.questions = m.session.Questions()
	m.inputs = make([]textinput.Model, len(m.questions))
	for i := range m.questions {
		ti := textinput.New()
		ti.Placeholder = "?"
		ti.CharLimit = 3
		ti.Width = 4
		ti.Prompt = "> "
		m.inputs[i] = ti
	}
	m.focus = 0
	m.highlight = -1
	if len(m.inputs) > 0 {
		m.inputs[0].Focus()
	}
}

// syncInputs clears solved fields and moves focus to the first open one.
func (m *Model) syncInputs() {
	firstOpen := -1
	for i, qt := range m.questions {
		if m.session.Correct(qt) {
			m.inputs[i].Blur()
			continue
		}
		if firstOpen < 0 {
			firstOpen = i
		}
	}
	if firstOpen >= 0 {
		m.setFocus(firstOpen)
	}
}

func (m *Model) moveFocus(delta int) {
	if len(m.inputs) == 0 {
		return
	}
	next := m.focus
	for range m.inputs {
		next = (next + delta + len(m.inputs)) % len(m.inputs)
		if !m.session.Correct(m.questions[next]) {
			break
		}
	}
	m.setFocus(next)
}

func (m *Model) setFocus(i int) {
	for j := range m.inputs {
		m.inputs[j].Blur()
	}
	m.focus = i
	m.inputs[i].Focus()
}

// cycleHighlight steps through off, then each question's target squares.
func (m *Model) cycleHighlight() {
	if len(m.questions) == 0 {
		return
	}
	m.highlight++
	if m.highlight >= len(m.questions) {
		m.highlight = -1
	}
}

func (m *Model) persistOnce() {
	if m.saved || m.store == nil {
		return
	}
	m.saved = true
	stats, questions := m.session.Summary()
	if _, err := m.store.InsertSession(context.Background(), stats, questions); err != nil {
		logErrf("failed to save session: %v\n", err)
		return
	}
	m.lastScore = stats.Score
	m.hasLast = true
	m.sessionCount++
	if stats.Score > m.bestScore {
		m.bestScore = stats.Score
	}
}

func (m *Model) loadFooterStats() {
	if m.store == nil {
		return
	}
	sessions, err := m.store.ListSessions(context.Background(), model.StatsConfig{})
	if err != nil {
		logErrf("failed to load session stats: %v\n", err)
		return
	}
	m.sessionCount = len(sessions)
	for _, s := range sessions {
		if s.Score > m.bestScore {
			m.bestScore = s.Score
		}
	}
	if len(sessions) > 0 {
		m.lastScore = sessions[len(sessions)-1].Score
		m.hasLast = true
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	var content string
	switch m.session.State() {
	case quiz.StateEnded:
		content = m.viewEnded()
	case quiz.StateLoading:
		content = "Loading position..."
	default:
		content = m.viewActive()
	}
	footer := m.renderFooter()
	if m.width == 0 || m.height == 0 {
		if footer == "" {
			return content
		}
		return content + "\n" + footer
	}
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) viewActive() string {
	puzzle := m.session.Puzzle()
	if puzzle == nil {
		return "Loading position..."
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render(m.headerLine()))
	b.WriteString("\n\n")
	b.WriteString(m.renderPuzzleBoard(puzzle))
	b.WriteString("\n\n")
	if len(puzzle.History) > 0 {
		b.WriteString(historyStyle.Render("Play forward: " + strings.Join(puzzle.History, " ")))
		b.WriteString("\n\n")
	}
	for i, qt := range m.questions {
		label := quiz.QuestionLabel(qt, puzzle.WhiteToMove)
		if m.session.Correct(qt) {
			b.WriteString(solvedStyle.Render(fmt.Sprintf("%-16s %d ok", label, puzzle.Answers[qt].Count)))
		} else {
			b.WriteString(labelStyle.Render(fmt.Sprintf("%-16s", label)))
			b.WriteString(" " + m.inputs[i].View())
		}
		b.WriteByte('\n')
	}
	if m.status != "" {
		b.WriteByte('\n')
		b.WriteString(m.status)
	}
	return b.String()
}

func (m *Model) viewEnded() string {
	var b strings.Builder
	title := "Time's up!"
	if m.session.Revealed() {
		title = "Revealed."
	}
	b.WriteString(headerStyle.Render(title))
	b.WriteString(fmt.Sprintf("\n\nScore: %d   Puzzles solved: %d\n\n", m.session.Score(), m.session.PuzzlesSolved()))
	puzzle := m.session.Puzzle()
	if puzzle != nil {
		b.WriteString(m.renderPuzzleBoard(puzzle))
		b.WriteString("\n\nLast position answers:\n")
		for _, qt := range m.questions {
			record := puzzle.Answers[qt]
			label := quiz.QuestionLabel(qt, puzzle.WhiteToMove)
			b.WriteString(fmt.Sprintf("%-16s %d", label, record.Count))
			if len(record.Moves) > 0 {
				b.WriteString("  " + historyStyle.Render(strings.Join(record.Moves, " ")))
			}
			b.WriteByte('\n')
		}
	}
	b.WriteString(footerStyle.Render("\nn new session · h highlight · q quit"))
	return b.String()
}

// renderPuzzleBoard shows the preview position while solving. With a
// highlight active, or once ended, it shows the scored position instead
// so target squares line up with the counted moves.
func (m *Model) renderPuzzleBoard(puzzle *quiz.Puzzle) string {
	pos := puzzle.Preview
	var targets map[string]int
	if m.highlight >= 0 && m.highlight < len(m.questions) {
		record, err := m.session.Highlight(m.questions[m.highlight])
		if err == nil {
			pos = puzzle.Position
			squares := make([]string, len(record.Targets))
			for i, t := range record.Targets {
				squares[i] = t.Square
			}
			targets = targetCounts(squares)
		}
	} else if m.session.State() == quiz.StateEnded {
		pos = puzzle.Position
	}
	return renderBoard(pos, !puzzle.WhiteToMove, targets)
}

func (m *Model) headerLine() string {
	puzzle := m.session.Puzzle()
	side := "White"
	if puzzle != nil && !puzzle.WhiteToMove {
		side = "Black"
	}
	segments := []string{side + " to move", fmt.Sprintf("Score %d", m.session.Score())}
	if !m.session.Untimed() && m.session.Settings().ShowTimer {
		segments = append(segments, fmt.Sprintf("Time %ds", m.session.TimeRemaining()))
	}
	return strings.Join(segments, "   ")
}

func (m *Model) renderFooter() string {
	segments := []string{"enter submit · tab next · ctrl+h highlight · ctrl+r reveal · ctrl+n restart"}
	if m.hasLast {
		segments = append(segments, fmt.Sprintf("Last %d · Best %d over %d sessions", m.lastScore, m.bestScore, m.sessionCount))
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

// parseCount turns a field value into a count for grading. Anything that
// is not a non-negative integer maps to -1, which never matches a real
// count.
func parseCount(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return -1
	}
	return n
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
