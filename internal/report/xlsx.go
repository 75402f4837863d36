package report

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/unbound-force/sttm-impact/internal/taxonomy"
)

// Sheet names of the spreadsheet report, in workbook order.
const (
	SheetSummary     = "Summary"
	SheetActionPlan  = "Action Plan"
	SheetAssessments = "Assessments"
	SheetGaps        = "Coverage Gaps"
	SheetGenerated   = "Generated Test Cases"
)

// WriteXLSX writes the report as an xlsx workbook with one sheet per
// section.
func WriteXLSX(w io.Writer, rpt *taxonomy.Report) error {
	if rpt == nil {
		return errors.New("nil report")
	}
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return err
	}

	sheets := []struct {
		name string
		rows [][]any
	}{
		{SheetSummary, summaryRows(rpt)},
		{SheetActionPlan, planRows(rpt.Plan)},
		{SheetAssessments, assessmentRows(rpt.Assessments)},
		{SheetGaps, gapRows(rpt.Gaps)},
		{SheetGenerated, generatedRows(rpt.Generated)},
	}
	for _, sh := range sheets {
		if sh.name != SheetSummary {
			if _, err := f.NewSheet(sh.name); err != nil {
				return err
			}
		}
		if err := writeRows(f, sh.name, sh.rows); err != nil {
			return fmt.Errorf("writing sheet %q: %w", sh.name, err)
		}
		if err := f.SetRowStyle(sh.name, 1, 1, bold); err != nil {
			return err
		}
	}
	return f.Write(w)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func summaryRows(rpt *taxonomy.Report) [][]any {
	s := rpt.Summary
	rows := [][]any{
		{"Metric", "Value"},
		{"Test cases", s.TotalTestCases},
		{"Mapping changes", s.TotalChanges},
		{"Skipped changes", s.SkippedChanges},
		{"Impacted test cases", s.ImpactedTestCases},
	}
	for _, lvl := range []taxonomy.ImpactLevel{taxonomy.High, taxonomy.Medium, taxonomy.Low} {
		rows = append(rows, []any{string(lvl) + " impact", s.LevelCounts[lvl]})
	}
	for _, k := range []taxonomy.ChangeKind{taxonomy.Added, taxonomy.Deleted, taxonomy.Modified} {
		rows = append(rows, []any{"Gaps (" + string(k) + ")", s.GapCounts[k]})
	}
	rows = append(rows,
		[]any{"Generated test cases", s.GeneratedCount},
		[]any{"Tool version", rpt.Metadata.ToolVersion},
		[]any{"Preset", rpt.Metadata.Preset},
	)
	for _, w := range rpt.Metadata.Warnings {
		rows = append(rows, []any{"Warning", w})
	}
	return rows
}

func planRows(p taxonomy.ActionPlan) [][]any {
	rows := [][]any{{"Priority", "Kind", "Action", "Test Case", "Mapping", "Level", "Score", "Title"}}
	for _, it := range p.Items {
		rows = append(rows, []any{
			int(it.Priority), string(it.Kind), it.Action,
			it.TestCaseID, it.MappingID, string(it.Level), it.Score, it.Title,
		})
	}
	return rows
}

func assessmentRows(as []taxonomy.ImpactAssessment) [][]any {
	rows := [][]any{{"Test Case", "Name", "Score", "Level", "Action", "Confidence", "Affected Steps", "Causing Changes", "Recommendations"}}
	for _, a := range as {
		steps := make([]string, len(a.AffectedSteps))
		for i, n := range a.AffectedSteps {
			steps[i] = strconv.Itoa(n)
		}
		causes := make([]string, len(a.CausingChanges))
		for i, c := range a.CausingChanges {
			causes[i] = fmt.Sprintf("%s (%s)", c, c.Kind)
		}
		rows = append(rows, []any{
			a.TestCaseID, a.TestCaseName, a.Impact.Score, string(a.Impact.Level),
			string(a.Action), a.Confidence,
			strings.Join(steps, ", "), strings.Join(causes, "\n"), strings.Join(a.Recommendations, "\n"),
		})
	}
	return rows
}

func gapRows(gaps []taxonomy.GapEntry) [][]any {
	rows := [][]any{{"Mapping", "Tab", "Source Field", "Target Field", "Kind"}}
	for _, g := range gaps {
		rows = append(rows, []any{g.Change.ID, g.Change.Tab, g.Change.SourceField, g.Change.TargetField, string(g.Kind)})
	}
	return rows
}

func generatedRows(gen []taxonomy.GeneratedTestCase) [][]any {
	rows := [][]any{{"Test Case", "Name", "Source Mapping", "Tab", "Step", "Description", "Expected Result"}}
	for _, g := range gen {
		for i, st := range g.TestCase.Steps {
			row := []any{"", "", "", "", st.Number, st.Description, st.ExpectedResult}
			if i == 0 {
				row[0], row[1], row[2], row[3] = g.TestCase.ID, g.TestCase.Name, g.SourceMappingID, g.Tab
			}
			rows = append(rows, row)
		}
	}
	return rows
}
