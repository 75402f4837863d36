// Package report provides output formatters for impact analysis
// reports in JSON, human-readable text and spreadsheet formats.
package report

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/unbound-force/sttm-impact/internal/taxonomy"
)

// WriteJSON writes the report as formatted JSON to the writer. The
// output conforms to Schema.
func WriteJSON(w io.Writer, rpt *taxonomy.Report) error {
	if rpt == nil {
		return errors.New("nil report")
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rpt)
}
