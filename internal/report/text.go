package report

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/unbound-force/sttm-impact/internal/taxonomy"
)

// Column budgets of the action plan table. With borders and cell
// padding the table stays within 76 columns.
const (
	maxIDWidth    = 12
	maxTitleWidth = 30
)

// WriteText writes the report as human-readable styled text to the
// writer. Output uses lipgloss for color and formatting when the output
// is a TTY; degrades gracefully for pipes and CI.
func WriteText(w io.Writer, rpt *taxonomy.Report) error {
	if rpt == nil {
		return errors.New("nil report")
	}
	s := DefaultStyles()

	fmt.Fprintln(w, s.Header.Render("=== STTM Impact Analysis ==="))
	writeSummary(w, rpt.Summary, s)

	fmt.Fprintln(w)
	fmt.Fprintln(w, s.Header.Render("=== Action Plan ==="))
	if len(rpt.Plan.Items) == 0 {
		fmt.Fprintln(w, s.Muted.Render("    No actions required."))
	} else {
		fmt.Fprintln(w, planTable(rpt.Plan.Items, s))
	}

	if len(rpt.Metadata.Warnings) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, s.Header.Render("=== Warnings ==="))
		for _, warning := range rpt.Metadata.Warnings {
			fmt.Fprintln(w, s.Warning.Render("    "+truncate(warning, 72)))
		}
	}

	fmt.Fprintf(w, "\n%s\n", s.Header.Render(fmt.Sprintf(
		"%d test case(s) impacted, %d gap(s), %d test case(s) generated",
		rpt.Summary.ImpactedTestCases, len(rpt.Gaps), len(rpt.Generated))))
	return nil
}

func writeSummary(w io.Writer, sum taxonomy.Summary, s Styles) {
	line := func(label, value string) {
		fmt.Fprintf(w, "%s%s\n", s.SummaryLabel.Render(label), s.SummaryValue.Render(value))
	}
	line("Test cases:", strconv.Itoa(sum.TotalTestCases))
	changes := strconv.Itoa(sum.TotalChanges)
	if sum.SkippedChanges > 0 {
		changes += fmt.Sprintf(" (%d skipped)", sum.SkippedChanges)
	}
	line("Mapping changes:", changes)

	var levels []string
	for _, lvl := range []taxonomy.ImpactLevel{taxonomy.High, taxonomy.Medium, taxonomy.Low} {
		levels = append(levels, s.LevelStyle(lvl).Render(fmt.Sprintf("%s: %d", lvl, sum.LevelCounts[lvl])))
	}
	line("Impact levels:", strings.Join(levels, ", "))

	var gaps []string
	for _, k := range []taxonomy.ChangeKind{taxonomy.Added, taxonomy.Deleted, taxonomy.Modified} {
		if n := sum.GapCounts[k]; n > 0 {
			gaps = append(gaps, fmt.Sprintf("%s: %d", k, n))
		}
	}
	if len(gaps) == 0 {
		gaps = append(gaps, "none")
	}
	line("Coverage gaps:", strings.Join(gaps, ", "))
	line("Generated:", strconv.Itoa(sum.GeneratedCount))
}

func planTable(items []taxonomy.ActionItem, s Styles) *table.Table {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		id := it.TestCaseID
		if id == "" {
			id = it.MappingID
		}
		score, level := "", ""
		if it.Kind == taxonomy.ItemAssessment {
			score = fmt.Sprintf("%.1f", it.Score)
			level = string(it.Level)
		}
		rows = append(rows, []string{
			strconv.Itoa(int(it.Priority)),
			it.Action,
			truncate(id, maxIDWidth),
			level,
			score,
			truncate(it.Title, maxTitleWidth),
		})
	}

	return table.New().
		Width(76).
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.Border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.TableHeader
			}
			if col == 0 && row >= 0 && row < len(items) {
				return s.PriorityStyle(items[row].Priority).PaddingRight(1)
			}
			return s.TableCell
		}).
		Headers("PRI", "ACTION", "ID", "LEVEL", "SCORE", "TITLE").
		Rows(rows...)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
