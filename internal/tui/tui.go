package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cityops/flood-commander/internal/locale"
	"github.com/cityops/flood-commander/internal/session"
	"github.com/cityops/flood-commander/internal/sim"
)

type screen int

const (
	screenMenu screen = iota
	screenLoading
	screenPlaying
	screenEnded
	screenTimeline
	screenFatal
)

type model struct {
	screen     screen
	lang       string
	controller *session.Controller
	client     *sim.Client

	scenarios   []sim.ScenarioSummary
	saves       []session.SaveInfo
	scenarioIdx int
	diffIdx     int
	saveIdx     int
	pickingSave bool

	nameInput textinput.Model
	actionIdx int
	zoneIdx   int // 0 selects all zones, 1.. a specific zone

	viewport viewport.Model
	width    int
	height   int

	inline  string // validation and transport messages shown in place
	loading bool
	err     error
}

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true).
			Underline(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true)

	dangerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	safeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#22C55E")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EEEEEE")).
			Background(lipgloss.Color("#5F5F87")).
			Bold(true).
			Padding(0, 1)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#3C3C3C")).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)
)

var difficulties = []sim.Difficulty{sim.DifficultyStandard, sim.DifficultyAIAssist, sim.DifficultyExpert}

// NewModel builds the program's root model.
func NewModel(ctrl *session.Controller, client *sim.Client, lang string) model {
	ti := textinput.New()
	ti.Placeholder = "Enter your name..."
	ti.Focus()
	ti.CharLimit = 40
	ti.Width = 30

	return model{
		screen:     screenLoading,
		lang:       lang,
		controller: ctrl,
		client:     client,
		nameInput:  ti,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadScenarios())
}

type scenariosMsg struct {
	scenarios []sim.ScenarioSummary
	saves     []session.SaveInfo
}

type sessionMsg struct {
	session *session.Session
}

type stepMsg struct {
	rec *sim.StepRecord
}

type inlineErrMsg struct {
	err error
}

type fatalErrMsg struct {
	err error
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = msg.Height - 6

	case scenariosMsg:
		m.scenarios = msg.scenarios
		m.saves = msg.saves
		m.screen = screenMenu
		m.loading = false

	case sessionMsg:
		m.loading = false
		m.inline = ""
		m.actionIdx = 0
		m.zoneIdx = 0
		if msg.session.Phase == session.PhaseEnded {
			m.screen = screenEnded
		} else {
			m.screen = screenPlaying
		}

	case stepMsg:
		m.loading = false
		m.inline = ""
		if s := m.controller.Session(); s != nil && s.Phase == session.PhaseEnded {
			m.screen = screenEnded
		}

	case inlineErrMsg:
		m.loading = false
		m.inline = msg.err.Error()

	case fatalErrMsg:
		m.loading = false
		m.err = msg.err
		m.screen = screenFatal
	}

	if m.screen == screenMenu && !m.pickingSave {
		m.nameInput, cmd = m.nameInput.Update(msg)
		return m, cmd
	}
	if m.screen == screenTimeline {
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch m.screen {
	case screenMenu:
		return m.handleMenuKey(msg)
	case screenPlaying:
		return m.handlePlayingKey(msg)
	case screenEnded:
		return m.handleEndedKey(msg)
	case screenTimeline:
		if msg.Type == tea.KeyEsc || msg.String() == "q" {
			if s := m.controller.Session(); s != nil && s.Phase == session.PhaseEnded {
				m.screen = screenEnded
			} else {
				m.screen = screenPlaying
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case screenFatal:
		if msg.Type == tea.KeyEsc || msg.String() == "q" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) handleMenuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.pickingSave {
		switch msg.String() {
		case "up", "k":
			if m.saveIdx > 0 {
				m.saveIdx--
			}
		case "down", "j":
			if m.saveIdx < len(m.saves)-1 {
				m.saveIdx++
			}
		case "esc":
			m.pickingSave = false
		case "enter":
			if len(m.saves) > 0 {
				m.loading = true
				m.pickingSave = false
				return m, m.resumeSession(m.saves[m.saveIdx].ID)
			}
		}
		return m, nil
	}

	switch msg.String() {
	case "up", "ctrl+k":
		if m.scenarioIdx > 0 {
			m.scenarioIdx--
		}
		return m, nil
	case "down", "ctrl+j":
		if m.scenarioIdx < len(m.scenarios)-1 {
			m.scenarioIdx++
		}
		return m, nil
	case "left", "ctrl+h":
		if m.diffIdx > 0 {
			m.diffIdx--
		}
		return m, nil
	case "right", "ctrl+l":
		if m.diffIdx < len(difficulties)-1 {
			m.diffIdx++
		}
		return m, nil
	case "ctrl+s":
		if len(m.saves) > 0 {
			m.pickingSave = true
			m.saveIdx = 0
		}
		return m, nil
	case "esc":
		return m, tea.Quit
	case "enter":
		if m.loading {
			return m, nil
		}
		if len(m.scenarios) == 0 {
			m.inline = "no scenarios available"
			return m, nil
		}
		m.loading = true
		m.inline = ""
		return m, m.startSession(
			m.scenarios[m.scenarioIdx].ID,
			difficulties[m.diffIdx],
			m.nameInput.Value(),
		)
	}
	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

func (m model) handlePlayingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.controller.Session()
	if s == nil {
		return m, nil
	}
	zones := zoneIDs(s)

	switch msg.String() {
	case "left", "h":
		if m.actionIdx > 0 {
			m.actionIdx--
		}
	case "right", "l":
		if m.actionIdx < len(sim.Actions)-1 {
			m.actionIdx++
		}
	case "tab", "z":
		m.zoneIdx = (m.zoneIdx + 1) % (len(zones) + 1)
	case "t":
		return m.openTimeline()
	case "esc":
		return m, tea.Quit
	case "enter", " ":
		if m.loading {
			return m, nil
		}
		m.loading = true
		m.inline = ""
		var zoneID *string
		if m.zoneIdx > 0 && m.zoneIdx <= len(zones) {
			z := zones[m.zoneIdx-1]
			zoneID = &z
		}
		return m, m.submitAction(sim.Actions[m.actionIdx], zoneID)
	}
	return m, nil
}

func (m model) handleEndedKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "r":
		if m.loading {
			return m, nil
		}
		m.loading = true
		m.inline = ""
		return m, m.retrySession()
	case "t":
		return m.openTimeline()
	case "n":
		m.screen = screenLoading
		m.inline = ""
		m.loading = true
		return m, m.loadScenarios()
	case "q", "esc":
		return m, tea.Quit
	}
	return m, nil
}

func (m model) openTimeline() (tea.Model, tea.Cmd) {
	s := m.controller.Session()
	if s == nil {
		return m, nil
	}
	if m.viewport.Width == 0 {
		m.viewport = viewport.New(m.width-4, m.height-6)
	}
	m.viewport.SetContent(m.renderTimeline(s))
	m.viewport.GotoTop()
	m.screen = screenTimeline
	return m, nil
}

func (m model) loadScenarios() tea.Cmd {
	return func() tea.Msg {
		scenarios, err := m.client.ListScenarios(context.Background())
		if err != nil {
			return fatalErrMsg{err}
		}
		saves, err := m.controller.Saves()
		if err != nil {
			saves = nil
		}
		return scenariosMsg{scenarios: scenarios, saves: saves}
	}
}

func (m model) startSession(scenarioID string, difficulty sim.Difficulty, name string) tea.Cmd {
	return func() tea.Msg {
		s, err := m.controller.StartSession(context.Background(), scenarioID, difficulty, name, m.lang)
		if err != nil {
			return inlineErrMsg{err}
		}
		return sessionMsg{s}
	}
}

func (m model) resumeSession(id string) tea.Cmd {
	return func() tea.Msg {
		s, err := m.controller.Resume(id)
		if err != nil {
			return inlineErrMsg{err}
		}
		return sessionMsg{s}
	}
}

func (m model) retrySession() tea.Cmd {
	return func() tea.Msg {
		s, err := m.controller.Retry(context.Background())
		if err != nil {
			return inlineErrMsg{err}
		}
		return sessionMsg{s}
	}
}

func (m model) submitAction(action sim.Action, zoneID *string) tea.Cmd {
	return func() tea.Msg {
		rec, err := m.controller.SubmitAction(context.Background(), action, zoneID)
		if err != nil {
			return inlineErrMsg{err}
		}
		return stepMsg{rec}
	}
}

func (m model) View() string {
	var body string
	switch m.screen {
	case screenLoading:
		body = "\n  Contacting simulation service...\n"
	case screenMenu:
		body = m.viewMenu()
	case screenPlaying:
		body = m.viewPlaying()
	case screenEnded:
		body = m.viewEnded()
	case screenTimeline:
		body = m.viewport.View() + "\n" + helpStyle.Render("esc: back")
	case screenFatal:
		body = fmt.Sprintf("\n  %s %v\n\n%s", dangerStyle.Render("Error:"), m.err, helpStyle.Render("q: quit"))
	}
	return "\n" + body + "\n"
}

func (m model) viewMenu() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.t("title")) + "\n\n")

	b.WriteString(labelStyle.Render(m.t("commanderName")) + "\n")
	b.WriteString(m.nameInput.View() + "\n\n")

	b.WriteString(labelStyle.Render("Scenario") + "\n")
	for i, sc := range m.scenarios {
		line := fmt.Sprintf("%s — %s", sc.Name.Get(m.lang), sc.Description.Get(m.lang))
		if i == m.scenarioIdx {
			b.WriteString(selectedStyle.Render("> "+line) + "\n")
		} else {
			b.WriteString(dimStyle.Render("  "+line) + "\n")
		}
	}

	b.WriteString("\n" + labelStyle.Render("Difficulty") + " ")
	for i, d := range difficulties {
		label := m.t(string(d))
		if i == m.diffIdx {
			b.WriteString(selectedStyle.Render(label) + " ")
		} else {
			b.WriteString(dimStyle.Render(label) + " ")
		}
	}
	b.WriteString("\n")

	if m.pickingSave {
		b.WriteString("\n" + labelStyle.Render("Resume a saved session") + "\n")
		for i, save := range m.saves {
			status := "in progress"
			if save.Ended {
				status = "ended"
			}
			line := fmt.Sprintf("%s · %s · %d steps · %s", save.CommanderName, save.ScenarioID, save.Steps, status)
			if i == m.saveIdx {
				b.WriteString(selectedStyle.Render("> "+line) + "\n")
			} else {
				b.WriteString(dimStyle.Render("  "+line) + "\n")
			}
		}
	}

	if m.inline != "" {
		b.WriteString("\n" + dangerStyle.Render(m.inline) + "\n")
	}
	if m.loading {
		b.WriteString("\n" + labelStyle.Render("Starting...") + "\n")
	}

	help := "enter: start · ↑/↓: scenario · ←/→: difficulty"
	if len(m.saves) > 0 {
		help += " · ctrl+s: resume save"
	}
	help += " · esc: quit"
	b.WriteString("\n" + helpStyle.Render(help))
	return b.String()
}

func (m model) viewPlaying() string {
	s := m.controller.Session()
	if s == nil {
		return "no session"
	}
	cur := s.Current()
	var b strings.Builder

	b.WriteString(m.renderHeader(s, cur) + "\n\n")
	b.WriteString(panelStyle.Render(m.renderZones(cur)) + "\n\n")
	b.WriteString(panelStyle.Render(m.renderActions(s, cur)) + "\n\n")
	b.WriteString(panelStyle.Render(m.renderAdvisor(cur)) + "\n")

	if len(cur.Events) > 0 {
		b.WriteString("\n")
		for _, e := range cur.Events {
			b.WriteString(warnStyle.Render("⚠ "+e) + "\n")
		}
	}
	if m.inline != "" {
		b.WriteString("\n" + dangerStyle.Render(m.inline) + "\n")
	}
	if m.loading {
		b.WriteString("\n" + labelStyle.Render("Simulating hour...") + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("←/→: action · tab: zone · enter: commit · t: timeline · esc: quit"))
	return b.String()
}

func (m model) renderHeader(s *session.Session, cur *sim.StepRecord) string {
	budget := fmt.Sprintf("$%.1f", cur.State.Budget)
	budgetRendered := safeStyle.Render(budget)
	if cur.State.Budget < 10 {
		budgetRendered = dangerStyle.Render(budget)
	}
	trust := fmt.Sprintf("%.0f%%", cur.State.Trust)
	trustRendered := safeStyle.Render(trust)
	if cur.State.Trust < 30 {
		trustRendered = dangerStyle.Render(trust)
	}
	return fmt.Sprintf("%s  %s %s/%d  %s %s  %s %s  %s %.1fmm  %s %.2f",
		titleStyle.Render(s.CommanderName),
		labelStyle.Render(m.t("step")), valueStyle.Render(fmt.Sprintf("%d", cur.T)), s.Scenario.DurationSteps,
		labelStyle.Render(m.t("budget")), budgetRendered,
		labelStyle.Render(m.t("trust")), trustRendered,
		labelStyle.Render(m.t("rain")), cur.Obs.Rain,
		labelStyle.Render(m.t("totalScore")), cur.Reward.Total,
	)
}

func (m model) renderZones(cur *sim.StepRecord) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.t("floodRisk")) + "\n")
	for _, zid := range sortedZoneIDs(cur.State.Zones) {
		z := cur.State.Zones[zid]
		bar := riskBar(z.Risk, 20)
		status := ""
		if z.Flooded {
			status = dangerStyle.Render(" FLOODED")
		}
		b.WriteString(fmt.Sprintf("%-14s %s %3.0f%%%s\n", m.t(zid), bar, z.Risk*100, status))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m model) renderActions(s *session.Session, cur *sim.StepRecord) string {
	zones := zoneIDs(s)
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.t("actions")) + "\n")

	b.WriteString(labelStyle.Render(m.t("targetZone") + ": "))
	for i := 0; i <= len(zones); i++ {
		label := m.t("anyZone")
		if i > 0 {
			label = m.t(zones[i-1])
		}
		if i == m.zoneIdx {
			b.WriteString(selectedStyle.Render(label) + " ")
		} else {
			b.WriteString(dimStyle.Render(label) + " ")
		}
	}
	b.WriteString("\n")

	var zoneID *string
	if m.zoneIdx > 0 && m.zoneIdx <= len(zones) {
		z := zones[m.zoneIdx-1]
		zoneID = &z
	}
	for i, action := range sim.Actions {
		cost := session.EffectiveCost(s.Scenario, action, zoneID)
		label := fmt.Sprintf("%s ($%.1f)", m.t(string(action)), cost)
		if action == sim.ActionFunding {
			label = fmt.Sprintf("%s (-%.0f %s)", m.t(string(action)), cost, m.t("trust"))
		}
		affordable := action == sim.ActionNone || action == sim.ActionFunding || cur.State.Budget >= cost
		switch {
		case i == m.actionIdx:
			b.WriteString(selectedStyle.Render(label) + " ")
		case !affordable:
			b.WriteString(dimStyle.Strikethrough(true).Render(label) + " ")
		default:
			b.WriteString(dimStyle.Render(label) + " ")
		}
	}
	return strings.TrimRight(b.String(), " ")
}

func (m model) renderAdvisor(cur *sim.StepRecord) string {
	rec := cur.Recommendation
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.t("aiAdvisor")) + "\n")
	target := ""
	if rec.ZoneID != nil {
		target = " @ " + m.t(*rec.ZoneID)
	}
	b.WriteString(fmt.Sprintf("%s %s%s  %s %.0f%%\n",
		labelStyle.Render(m.t("recommended")+":"),
		safeStyle.Render(strings.ToUpper(m.t(string(rec.Action)))),
		target,
		labelStyle.Render(m.t("confidence")+":"),
		rec.Confidence*100,
	))
	if reason := locale.ResolveReason(rec.Reason, m.lang); reason != "" {
		b.WriteString(labelStyle.Render(reason) + "\n")
	}
	for _, r := range rec.TopReasons {
		b.WriteString(dimStyle.Render("• "+r) + "\n")
	}

	b.WriteString(labelStyle.Render(m.t("forecastTitle") + ": "))
	for i, p := range cur.Forecast.ProbCritical {
		style := safeStyle
		if p > 0.6 {
			style = dangerStyle
		} else if p > 0.2 {
			style = warnStyle
		}
		b.WriteString(style.Render(fmt.Sprintf("+%dh %3.0f%%", i+1, p*100)) + "  ")
	}
	return strings.TrimRight(b.String(), " ")
}

func (m model) viewEnded() string {
	s := m.controller.Session()
	if s == nil || s.Summary == nil {
		return "no summary"
	}
	sum := s.Summary
	var b strings.Builder

	scoreStyle := safeStyle
	if sum.FinalScore < 40 {
		scoreStyle = dangerStyle
	} else if sum.FinalScore < 60 {
		scoreStyle = warnStyle
	}

	b.WriteString(titleStyle.Render(sum.EndingTitle) + "\n")
	b.WriteString(labelStyle.Render(sum.EndingDescription) + "\n\n")
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render(m.t("finalScore")+":"), scoreStyle.Render(fmt.Sprintf("%d / 100", sum.FinalScore))))
	b.WriteString(fmt.Sprintf("%s %.0f   %s $%.1f   %s %.0f%%\n",
		labelStyle.Render(m.t("totalDamage")+":"), sum.TotalDamage,
		labelStyle.Render(m.t("decisionCost")+":"), sum.TotalCost,
		labelStyle.Render(m.t("finalTrust")+":"), sum.FinalTrust,
	))
	b.WriteString(fmt.Sprintf("%s %.0f%% (%d/%d)   %s t=%d\n",
		labelStyle.Render(m.t("aiAdoption")+":"), sum.AIAdoptionRate*100, sum.MatchCount, sum.DecisionCount,
		labelStyle.Render(m.t("worstHour")+":"), sum.WorstHour,
	))

	b.WriteString("\n" + labelStyle.Render(m.t("floodedHours")+":") + "\n")
	for _, zid := range sortedKeys(sum.FloodedHoursByZone) {
		b.WriteString(fmt.Sprintf("  %-14s %d\n", m.t(zid), sum.FloodedHoursByZone[zid]))
	}

	if m.inline != "" {
		b.WriteString("\n" + dangerStyle.Render(m.inline) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("r: "+m.t("retrySame")+" · t: "+m.t("timeline")+" · n: "+m.t("newMission")+" · q: quit"))
	return b.String()
}

func (m model) renderTimeline(s *session.Session) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.t("timeline")) + "\n\n")
	for _, rec := range s.History {
		avgRisk := 0.0
		for _, z := range rec.State.Zones {
			avgRisk += z.Risk
		}
		if len(rec.State.Zones) > 0 {
			avgRisk /= float64(len(rec.State.Zones))
		}
		zone := "-"
		if rec.ZoneID != nil {
			zone = m.t(*rec.ZoneID)
		}
		risk := fmt.Sprintf("%3.0f%%", avgRisk*100)
		if avgRisk > 0.5 {
			risk = dangerStyle.Render(risk)
		} else {
			risk = safeStyle.Render(risk)
		}
		b.WriteString(fmt.Sprintf("t=%-3d %s  %-12s %-10s %5.1fmm %+7.2f  %s\n",
			rec.T, risk, m.t(string(rec.Action)), zone, rec.Obs.Rain, rec.Reward.Delta,
			labelStyle.Render(truncate(locale.ResolveReason(rec.Recommendation.Reason, m.lang), 48)),
		))
	}
	return b.String()
}

func (m model) t(key string) string {
	return locale.T(m.lang, key)
}

func riskBar(risk float64, width int) string {
	filled := int(risk * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	switch {
	case risk > 0.8:
		return dangerStyle.Render(bar)
	case risk > 0.5:
		return warnStyle.Render(bar)
	default:
		return safeStyle.Render(bar)
	}
}

func zoneIDs(s *session.Session) []string {
	if cur := s.Current(); cur != nil {
		return sortedZoneIDs(cur.State.Zones)
	}
	return nil
}

func sortedZoneIDs(zones map[string]sim.ZoneState) []string {
	ids := make([]string, 0, len(zones))
	for zid := range zones {
		ids = append(ids, zid)
	}
	sort.Strings(ids)
	return ids
}

func sortedKeys(counts map[string]int) []string {
	ids := make([]string, 0, len(counts))
	for zid := range counts {
		ids = append(ids, zid)
	}
	sort.Strings(ids)
	return ids
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

// Run starts the interactive program.
func Run(ctrl *session.Controller, client *sim.Client, lang string) error {
	p := tea.NewProgram(NewModel(ctrl, client, lang), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
