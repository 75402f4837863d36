package report

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/unbound-force/sttm-impact/internal/taxonomy"
)

// Styles defines the visual theme for terminal report output.
// Lipgloss automatically degrades to no-color when output is not a TTY.
type Styles struct {
	// Header is used for section headers (e.g. "=== Action Plan ===").
	Header lipgloss.Style

	// SubHeader is used for secondary information lines.
	SubHeader lipgloss.Style

	// High, Medium and Low color-code impact levels.
	High   lipgloss.Style
	Medium lipgloss.Style
	Low    lipgloss.Style

	// NewCoverage styles generated test cases.
	NewCoverage lipgloss.Style

	// TableHeader styles the header row of tables.
	TableHeader lipgloss.Style

	// TableCell styles regular table cells.
	TableCell lipgloss.Style

	// SummaryLabel styles summary line labels.
	SummaryLabel lipgloss.Style

	// SummaryValue styles summary line values.
	SummaryValue lipgloss.Style

	// Warning styles run warnings.
	Warning lipgloss.Style

	// Border is used for table borders.
	Border lipgloss.Style

	// Muted is used for de-emphasized text.
	Muted lipgloss.Style
}

// DefaultStyles returns the default color scheme for terminal reports.
func DefaultStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		SubHeader: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),

		High:        lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		Medium:      lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		Low:         lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		NewCoverage: lipgloss.NewStyle().Foreground(lipgloss.Color("40")),

		TableHeader: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		TableCell:   lipgloss.NewStyle().PaddingRight(1),

		SummaryLabel: lipgloss.NewStyle().Bold(true).Width(20),
		SummaryValue: lipgloss.NewStyle(),

		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("208")),

		Border: lipgloss.NewStyle().Foreground(lipgloss.Color("63")),

		Muted: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// LevelStyle returns the style for an impact level.
func (s Styles) LevelStyle(level taxonomy.ImpactLevel) lipgloss.Style {
	switch level {
	case taxonomy.High:
		return s.High
	case taxonomy.Medium:
		return s.Medium
	case taxonomy.Low:
		return s.Low
	default:
		return s.Muted
	}
}

// PriorityStyle returns the style for an action plan tier.
func (s Styles) PriorityStyle(p taxonomy.Priority) lipgloss.Style {
	switch p {
	case taxonomy.PriorityHighImpact:
		return s.High
	case taxonomy.PriorityMediumImpact:
		return s.Medium
	case taxonomy.PriorityLowImpact:
		return s.Low
	case taxonomy.PriorityNewCoverage:
		return s.NewCoverage
	default:
		return s.Muted
	}
}
