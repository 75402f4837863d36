package testplan

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/unbound-force/sttm-impact/internal/taxonomy"
)

// FormatXLSX names the spreadsheet export adapter.
const FormatXLSX = "qTest XLSX export"

// zipMagic starts every xlsx workbook.
var zipMagic = []byte("PK\x03\x04")

// headerScanRows bounds the search for the header row.
const headerScanRows = 10

type column int

const (
	colID column = iota
	colName
	colDescription
	colPrecondition
	colStepNumber
	colStepDescription
	colStepExpected
	numColumns
)

// columnAliases maps reduced header text to a column.
var columnAliases = map[string]column{
	"pid":                    colID,
	"id":                     colID,
	"testcaseid":             colID,
	"key":                    colID,
	"name":                   colName,
	"testcasename":           colName,
	"title":                  colName,
	"summary":                colName,
	"description":            colDescription,
	"testcasedescription":    colDescription,
	"precondition":           colPrecondition,
	"preconditions":          colPrecondition,
	"teststep":               colStepNumber,
	"stepnumber":             colStepNumber,
	"stepno":                 colStepNumber,
	"step":                   colStepNumber,
	"order":                  colStepNumber,
	"teststepdescription":    colStepDescription,
	"stepdescription":        colStepDescription,
	"stepaction":             colStepDescription,
	"action":                 colStepDescription,
	"teststepexpectedresult": colStepExpected,
	"expectedresult":         colStepExpected,
	"expected":               colStepExpected,
	"stepexpectedresult":     colStepExpected,
}

// XLSXAdapter handles spreadsheet exports with one header row and one
// row per step. A row with an ID starts a new test case; rows without
// one add steps to the case above.
type XLSXAdapter struct{}

// Name implements ingest.Adapter.
func (XLSXAdapter) Name() string { return FormatXLSX }

// Supports implements ingest.Adapter.
func (XLSXAdapter) Supports(raw []byte) bool {
	return bytes.HasPrefix(raw, zipMagic)
}

// Extract implements ingest.Adapter.
func (XLSXAdapter) Extract(raw []byte) (*taxonomy.TestPlan, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}

	header, cols, ok := findHeader(rows)
	if !ok {
		return nil, fmt.Errorf("sheet %q has no test case ID column", sheets[0])
	}

	var cases []taxonomy.TestCase
	for _, row := range rows[header+1:] {
		cell := func(c column) string {
			i := cols[c]
			if i < 0 || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		if id := cell(colID); id != "" {
			cases = append(cases, taxonomy.TestCase{
				ID:           id,
				Name:         cell(colName),
				Description:  cell(colDescription),
				Precondition: cell(colPrecondition),
			})
		}
		if len(cases) == 0 {
			continue
		}
		desc, expected := cell(colStepDescription), cell(colStepExpected)
		if desc == "" && expected == "" {
			continue
		}
		tc := &cases[len(cases)-1]
		step := taxonomy.TestStep{
			Number:         len(tc.Steps) + 1,
			Description:    desc,
			ExpectedResult: expected,
		}
		if n, err := strconv.Atoi(cell(colStepNumber)); err == nil && n > 0 {
			step.Number = n
		}
		tc.Steps = append(tc.Steps, step)
	}
	return finish(cases)
}

// findHeader returns the index of the first row naming an ID column and
// the cell index of every known column, -1 when absent.
func findHeader(rows [][]string) (int, [numColumns]int, bool) {
	var cols [numColumns]int
	for r := 0; r < len(rows) && r < headerScanRows; r++ {
		for i := range cols {
			cols[i] = -1
		}
		for i, h := range rows[r] {
			c, ok := columnAliases[headerKey(h)]
			if ok && cols[c] < 0 {
				cols[c] = i
			}
		}
		if cols[colID] >= 0 {
			return r, cols, true
		}
	}
	return 0, cols, false
}
