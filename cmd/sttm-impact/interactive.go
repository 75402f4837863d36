package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/unbound-force/sttm-impact/internal/report"
	"github.com/unbound-force/sttm-impact/internal/taxonomy"
)

// keyMap defines keybindings for the interactive TUI.
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Details  key.Binding
	Quit     key.Binding
	Help     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Details, k.Quit, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Details, k.Quit, k.Help},
	}
}

var defaultKeyMap = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("^/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("v/j", "down")),
	PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
	PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
	Details:  key.NewBinding(key.WithKeys("tab", "d"), key.WithHelp("tab", "details")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
}

// Styles for the TUI.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")).
			MarginBottom(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	tuiBorderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("63"))
)

// tierTitles names the action plan tiers.
var tierTitles = map[taxonomy.Priority]string{
	taxonomy.PriorityHighImpact:   "Priority 1: high impact",
	taxonomy.PriorityMediumImpact: "Priority 2: medium impact",
	taxonomy.PriorityLowImpact:    "Priority 3: low impact",
	taxonomy.PriorityNewCoverage:  "Priority 4: new test cases",
	taxonomy.PriorityCleanup:      "Priority 5: coverage gaps",
}

// analyzeModel is the Bubble Tea model for browsing the action plan.
type analyzeModel struct {
	report   *taxonomy.Report
	viewport viewport.Model
	help     help.Model
	keys     keyMap
	ready    bool
	details  bool
	content  string
}

func newAnalyzeModel(rpt *taxonomy.Report) analyzeModel {
	return analyzeModel{
		report:  rpt,
		help:    help.New(),
		keys:    defaultKeyMap,
		content: renderAnalyzeContent(rpt, false),
	}
}

// renderAnalyzeContent renders the action plan grouped by tier. With
// details set, each impacted test case is followed by its causing
// changes, step impacts and recommendations.
func renderAnalyzeContent(rpt *taxonomy.Report, details bool) string {
	s := report.DefaultStyles()
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(fmt.Sprintf(
		"STTM Impact: %d action(s), %d impacted test case(s), %d gap(s)",
		len(rpt.Plan.Items), rpt.Summary.ImpactedTestCases, len(rpt.Gaps))))
	sb.WriteString("\n\n")

	if len(rpt.Plan.Items) == 0 {
		sb.WriteString(statusStyle.Render("    No actions required."))
		sb.WriteString("\n")
		return sb.String()
	}

	assessments := make(map[string]taxonomy.ImpactAssessment, len(rpt.Assessments))
	for _, a := range rpt.Assessments {
		assessments[a.TestCaseID] = a
	}

	start := 0
	for start < len(rpt.Plan.Items) {
		tier := rpt.Plan.Items[start].Priority
		end := start
		for end < len(rpt.Plan.Items) && rpt.Plan.Items[end].Priority == tier {
			end++
		}
		items := rpt.Plan.Items[start:end]
		start = end

		sb.WriteString(s.PriorityStyle(tier).Render(fmt.Sprintf("=== %s (%d) ===", tierTitles[tier], len(items))))
		sb.WriteString("\n")
		sb.WriteString(tierTable(items, s).String())
		sb.WriteString("\n")

		if details {
			for _, it := range items {
				if a, ok := assessments[it.TestCaseID]; ok && it.Kind == taxonomy.ItemAssessment {
					writeAssessmentDetails(&sb, a)
				}
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func tierTable(items []taxonomy.ActionItem, s report.Styles) *table.Table {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		id := it.TestCaseID
		if id == "" {
			id = it.MappingID
		}
		score := ""
		if it.Kind == taxonomy.ItemAssessment {
			score = strconv.FormatFloat(it.Score, 'f', 1, 64)
		}
		title := it.Title
		if len([]rune(title)) > 40 {
			title = string([]rune(title)[:37]) + "..."
		}
		rows = append(rows, []string{it.Action, id, score, title})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tuiBorderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.TableHeader
			}
			if col == 2 && row >= 0 && row < len(items) && items[row].Kind == taxonomy.ItemAssessment {
				return s.LevelStyle(items[row].Level)
			}
			return s.TableCell
		}).
		Headers("ACTION", "ID", "SCORE", "TITLE").
		Rows(rows...)
}

func writeAssessmentDetails(sb *strings.Builder, a taxonomy.ImpactAssessment) {
	fmt.Fprintf(sb, "  %s %s\n", a.TestCaseID, statusStyle.Render(a.TestCaseName))
	for _, c := range a.CausingChanges {
		fmt.Fprintf(sb, "    change: %s (%s, tab %s)\n", c, c.Kind, c.Tab)
	}
	for _, si := range a.StepImpacts {
		step := strconv.Itoa(si.Step)
		if si.Pseudo {
			step += " (new)"
		}
		fmt.Fprintf(sb, "    step %s: %s %s\n", step, si.Action, si.MappingID)
	}
	for _, r := range a.Recommendations {
		fmt.Fprintf(sb, "    %s\n", statusStyle.Render(r))
	}
}

func (m analyzeModel) Init() tea.Cmd {
	return nil
}

func (m analyzeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		footerHeight := 2

		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-footerHeight)
			m.viewport.SetContent(m.content)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - footerHeight
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Details):
			m.details = !m.details
			m.content = renderAnalyzeContent(m.report, m.details)
			if m.ready {
				m.viewport.SetContent(m.content)
			}
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m analyzeModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	footer := statusStyle.Render(
		fmt.Sprintf(" %3.f%% ", m.viewport.ScrollPercent()*100)) +
		" " + m.help.View(m.keys)

	return m.viewport.View() + "\n" + footer
}

// runInteractiveAnalyze launches the Bubble Tea TUI for browsing the
// action plan.
func runInteractiveAnalyze(rpt *taxonomy.Report) error {
	model := newAnalyzeModel(rpt)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
