// Package scaffold writes a default sttm-impact configuration file to a
// target project directory.
package scaffold

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/unbound-force/sttm-impact/internal/config"
)

// Options configures the scaffold operation.
type Options struct {
	// TargetDir is the root directory to scaffold into.
	// Defaults to the current working directory.
	TargetDir string

	// Force overwrites an existing file when true.
	// When false, an existing file is skipped.
	Force bool

	// Preset selects the configuration written. Defaults to
	// "balanced".
	Preset string

	// Version is the tool version string to embed in the version
	// marker comment. Defaults to "dev".
	Version string

	// Stdout is the writer for summary output.
	// Defaults to os.Stdout.
	Stdout io.Writer
}

// Result reports what the scaffold operation did.
type Result struct {
	// Created lists files that were written for the first time.
	Created []string

	// Skipped lists files that already existed and were not
	// overwritten (Force was false).
	Skipped []string

	// Overwritten lists files that existed and were replaced
	// (Force was true).
	Overwritten []string
}

// versionMarker returns the version marker comment to prepend to the
// scaffolded file.
func versionMarker(version string) string {
	if version == "" {
		version = "dev"
	}
	return fmt.Sprintf("# scaffolded by sttm-impact %s\n", version)
}

const header = `#
# Impact analysis configuration. Every key is optional; omitted keys
# keep the values of the preset selected with --preset.
#
# matching:        thresholds in [0, 1] for tab names, field names and
#                  sample-data content, plus the fuzzy and keyword
#                  fallbacks of tab matching.
# impact_scoring:  base weight per change kind, multipliers per changed
#                  sub-field and per match confidence, and the HIGH and
#                  MEDIUM score thresholds.
# generation:      test case synthesis for uncovered additions; IDs
#                  continue the plan's numbering ("pattern") or are
#                  name-based UUIDs ("uuid").
# processing:      worker pool size for matching and scoring.
`

// Run writes config.DefaultFileName into the target directory, holding
// the selected preset. The file starts with the version marker:
//
//	# scaffolded by sttm-impact vX.Y.Z
//
// If the file already exists and opts.Force is false, it is skipped.
func Run(opts Options) (*Result, error) {
	if opts.TargetDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		opts.TargetDir = cwd
	}
	if opts.Preset == "" {
		opts.Preset = config.PresetBalanced
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	cfg, err := config.Preset(opts.Preset)
	if err != nil {
		return nil, err
	}
	body, err := config.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encoding configuration: %w", err)
	}

	result := &Result{}
	outPath := filepath.Join(opts.TargetDir, config.DefaultFileName)
	_, statErr := os.Stat(outPath)
	exists := statErr == nil

	if exists && !opts.Force {
		result.Skipped = append(result.Skipped, config.DefaultFileName)
		printSummary(opts.Stdout, result, opts.Preset)
		return result, nil
	}

	out := []byte(versionMarker(opts.Version) + header + "# preset: " + opts.Preset + "\n\n")
	out = append(out, body...)
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return nil, fmt.Errorf("creating %s: %w", config.DefaultFileName, err)
	}

	if exists {
		result.Overwritten = append(result.Overwritten, config.DefaultFileName)
	} else {
		result.Created = append(result.Created, config.DefaultFileName)
	}
	printSummary(opts.Stdout, result, opts.Preset)
	return result, nil
}

// printSummary writes a human-readable summary of the scaffold
// operation to w.
func printSummary(w io.Writer, r *Result, preset string) {
	fmt.Fprintf(w, "sttm-impact configuration initialized (preset %s):\n", preset)

	for _, f := range r.Created {
		fmt.Fprintf(w, "  created: %s\n", f)
	}
	for _, f := range r.Skipped {
		fmt.Fprintf(w, "  skipped: %s (already exists)\n", f)
	}
	for _, f := range r.Overwritten {
		fmt.Fprintf(w, "  overwritten: %s\n", f)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run sttm-impact analyze <diff> <plan> to use it.")

	if len(r.Skipped) > 0 {
		fmt.Fprintf(w, "%d file(s) skipped (use --force to overwrite).\n", len(r.Skipped))
	}
}
