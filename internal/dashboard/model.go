// Package dashboard provides the Bubble Tea progress viewer.
package dashboard

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/umeed/internal/model"
	"github.com/verte-zerg/umeed/internal/progress"
	"github.com/verte-zerg/umeed/internal/stats"
)

const (
	tabOverview = iota
	tabPhonics
	tabMistakes
)

const (
	plotHeight     = 8
	mistakeListLen = 10
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea dashboard.
type Model struct {
	reader      stats.Reader
	learnerID   string
	window      model.Window
	curveWindow int

	report stats.Report
	errMsg string

	tabs         []string
	activeTab    int
	viewports    []viewport.Model
	patternTable table.Model

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

// NewModel constructs a dashboard for one learner.
func NewModel(r stats.Reader, learnerID string, window model.Window, curveWindow int) *Model {
	if curveWindow < 1 {
		curveWindow = 1
	}
	m := &Model{
		reader:      r,
		learnerID:   learnerID,
		window:      window,
		curveWindow: curveWindow,
		tabs:        []string{"Overview", "Phonics", "Mistakes"},
	}
	m.filterInputs = []textinput.Model{
		newInput("Learner: "),
		newInput("Last sessions: "),
		newInput("Curve window: "),
	}
	m.patternTable = buildPatternTable(nil, 1)
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l", "tab":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "=":
			m.curveWindow = nextCurveWindow(m.curveWindow)
			m.renderTabContents()
			return m, nil
		case "-":
			m.curveWindow = prevCurveWindow(m.curveWindow)
			m.renderTabContents()
			return m, nil
		case "r":
			m.refreshReport()
			return m, nil
		case "/":
			return m.startFilter()
		case "g", "home":
			if m.activeTab == tabPhonics {
				m.patternTable.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabPhonics {
				m.patternTable.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		}
		var cmd tea.Cmd
		if m.activeTab == tabPhonics {
			m.patternTable, cmd = m.patternTable.Update(msg)
			return m, cmd
		}
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func newInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	headerHeight = max(1, lipgloss.Height(activeNavStyle.Render("X"))) + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = max(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	m.patternTable.SetWidth(m.width)
	m.patternTable.SetHeight(max(1, bodyHeight-1))
	for i := range m.filterInputs {
		m.filterInputs[i].Width = max(10, m.width-lipgloss.Width(m.filterInputs[i].Prompt)-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	m.activeTab = (m.activeTab + delta + count) % count
	if m.activeTab == tabPhonics {
		m.patternTable.Focus()
	} else {
		m.patternTable.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	last := "all"
	if m.window.Last > 0 {
		last = strconv.Itoa(m.window.Last)
	}
	summary := fmt.Sprintf("Learner: %s  state=%s  last=%s  window=%d",
		m.learnerID, m.report.State, last, m.curveWindow)
	return padLines(m.renderTabs(), m.width) + "\n" + headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	help := headerStyle.Render("Nav: left/right  Scroll: up/down  Window: -/=  Settings: /  Reload: r  Quit: q")
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		lines := []string{"Settings (enter to apply, esc to cancel)"}
		for _, input := range m.filterInputs {
			lines = append(lines, input.View())
		}
		if m.filterError != "" {
			lines = append(lines, errorStyle.Render(m.filterError))
		}
		return fitLines(strings.Join(lines, "\n"), m.width, height)
	}
	if m.activeTab == tabPhonics {
		if len(m.report.Patterns) == 0 {
			return fitLines("No phonics stats yet.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.patternTable.View()), m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.reader, m.learnerID, m.window)
	if err != nil {
		m.errMsg = err.Error()
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load progress.")
		}
		return
	}
	m.errMsg = ""
	m.report = report
	m.patternTable.SetRows(patternRows(report.Patterns))
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	if m.errMsg != "" {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.report, m.curveWindow, width))
	m.viewports[tabMistakes].SetContent(renderMistakes(m.report.Sessions, width))
}

func renderOverview(rep stats.Report, window, width int) string {
	if len(rep.Sessions) == 0 {
		return "No sessions found."
	}
	var cards []string
	cards = append(cards, metricCard("Sessions", strconv.Itoa(rep.TotalSessions)))
	for _, tr := range rep.Trends {
		values := progress.Values(rep.Sessions, tr.Metric)
		if len(values) == 0 {
			continue
		}
		value := stats.FormatMetric(tr.Metric, values[len(values)-1])
		cards = append(cards, metricCard(string(tr.Metric)+" ("+string(tr.Trend)+")", value))
	}
	var summary string
	if width < 80 {
		summary = strings.Join(cards, "\n")
	} else {
		summary = lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	}

	var buf bytes.Buffer
	if err := stats.RenderCurves(&buf, rep.Sessions, window, stats.PlotOptions{
		Width:  stats.PlotWidthFor(width),
		Height: plotHeight,
		Color:  true,
	}); err != nil {
		return summary + "\n\n" + fmt.Sprintf("Failed to render curves: %v", err)
	}
	if len(rep.Goals) > 0 {
		if err := stats.RenderGoals(&buf, rep.Goals); err != nil {
			return summary + "\n\n" + fmt.Sprintf("Failed to render goals: %v", err)
		}
	}
	return strings.TrimRight(summary+"\n\n"+buf.String(), "\n")
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderMistakes(sessions []model.SessionResult, width int) string {
	if len(sessions) == 0 {
		return "No sessions found."
	}
	var b strings.Builder
	latest := sessions[len(sessions)-1]
	fmt.Fprintf(&b, "Latest reading (%s)\n", latest.Timestamp.Local().Format("2006-01-02 15:04"))
	b.WriteString(renderPassage(latest.ReferenceText, latest.TranscriptText, width))
	b.WriteString("\n")
	b.WriteString(passageLegend())
	b.WriteString("\n\n")

	var buf bytes.Buffer
	if err := stats.RenderMistakes(&buf, sessions, mistakeListLen); err != nil {
		return b.String() + fmt.Sprintf("Failed to render mistakes: %v", err)
	}
	b.WriteString(buf.String())
	return strings.TrimRight(b.String(), "\n")
}

func buildPatternTable(rows []table.Row, height int) table.Model {
	columns := []table.Column{
		{Title: "Pattern", Width: 18},
		{Title: "Success", Width: 8},
		{Title: "Correct", Width: 7},
		{Title: "Attempts", Width: 8},
		{Title: "Status", Width: 10},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(height),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		BorderBottom(true).
		Bold(false)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#F0F0F0")).
		Background(lipgloss.Color("#3A3A3A"))
	t.SetStyles(styles)
	return t
}

func patternRows(patternStats []model.PhonicsPatternStat) []table.Row {
	ordered := append([]model.PhonicsPatternStat(nil), patternStats...)
	focus := progress.SelectFocus(ordered, 0)
	byName := make(map[string]model.PhonicsPatternStat, len(ordered))
	for _, s := range ordered {
		byName[s.Pattern] = s
	}
	rows := make([]table.Row, 0, len(focus))
	for _, name := range focus {
		s := byName[name]
		rows = append(rows, table.Row{
			s.Pattern,
			fmt.Sprintf("%.1f%%", s.SuccessRate()*100),
			strconv.Itoa(s.Correct),
			strconv.Itoa(s.Attempts),
			stats.PatternStatus(s),
		})
	}
	return rows
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.filterInputs[0].SetValue(m.learnerID)
	m.filterInputs[1].SetValue("")
	if m.window.Last > 0 {
		m.filterInputs[1].SetValue(strconv.Itoa(m.window.Last))
	}
	m.filterInputs[2].SetValue(strconv.Itoa(m.curveWindow))
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		if err := m.applyFilter(); err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		m.refreshReport()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex((m.filterIndex + 1) % len(m.filterInputs))
	case tea.KeyShiftTab:
		return m, m.setFilterIndex((m.filterIndex - 1 + len(m.filterInputs)) % len(m.filterInputs))
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	m.filterIndex = idx
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == idx {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) applyFilter() error {
	learner := strings.TrimSpace(m.filterInputs[0].Value())
	if learner == "" {
		return fmt.Errorf("learner is required")
	}
	last := 0
	if v := strings.TrimSpace(m.filterInputs[1].Value()); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("last sessions must be a non-negative number")
		}
		last = n
	}
	curve, err := strconv.Atoi(strings.TrimSpace(m.filterInputs[2].Value()))
	if err != nil || curve < 1 {
		return fmt.Errorf("curve window must be at least 1")
	}
	m.learnerID = learner
	m.window.Last = last
	m.curveWindow = curve
	return nil
}

func nextCurveWindow(n int) int {
	if n < 5 {
		return 5
	}
	return (n/5 + 1) * 5
}

func prevCurveWindow(n int) int {
	if n <= 5 {
		return 1
	}
	if n%5 == 0 {
		return n - 5
	}
	return (n / 5) * 5
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	if w := lipgloss.Width(line); w < width {
		return line + strings.Repeat(" ", width-w)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	runes := []rune(s)
	if width <= 0 || len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
