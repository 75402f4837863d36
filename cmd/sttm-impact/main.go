package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/unbound-force/sttm-impact/internal/analysis"
	"github.com/unbound-force/sttm-impact/internal/config"
	"github.com/unbound-force/sttm-impact/internal/report"
	"github.com/unbound-force/sttm-impact/internal/scaffold"
	"github.com/unbound-force/sttm-impact/internal/sttm"
	"github.com/unbound-force/sttm-impact/internal/taxonomy"
	"github.com/unbound-force/sttm-impact/internal/testplan"
)

// logger is the application-wide structured logger (writes to stderr).
var logger = charmlog.NewWithOptions(os.Stderr, charmlog.Options{
	ReportTimestamp: false,
})

// Set by build flags.
var version = "dev"

// sampleSize is the number of test cases shown by parse --detect-id-pattern.
const sampleSize = 3

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "sttm-impact",
		Short: "STTM impact analysis for test plans",
		Long: `sttm-impact compares the changes of a source-to-target mapping
(STTM) difference document against an exported test plan. It scores
the impact on each test case, finds changes no test covers, drafts
test cases for uncovered additions and orders everything into an
action plan.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := charmlog.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", logLevel, err)
			}
			logger.SetLevel(level)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level: debug, info, warn, or error")

	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newParseCmd())
	root.AddCommand(newSchemaCmd())
	root.AddCommand(newInitCmd())
	return root
}

// analyzeParams holds the parsed flags for the analyze command.
type analyzeParams struct {
	diffPath    string
	planPath    string
	configPath  string
	preset      string
	format      string
	output      string
	workers     int
	interactive bool
	workDir     string
	stdout      io.Writer
	stderr      io.Writer
}

// runAnalyze is the extracted, testable body of the analyze command.
func runAnalyze(p analyzeParams) error {
	if p.format != "text" && p.format != "json" && p.format != "xlsx" {
		return fmt.Errorf("invalid format %q: must be 'text', 'json', or 'xlsx'", p.format)
	}
	if p.format == "xlsx" && p.output == "" && !p.interactive {
		return errors.New("xlsx output is binary: pass --output <file>")
	}
	if p.workers < 0 {
		return fmt.Errorf("invalid worker count %d", p.workers)
	}

	cfg, preset, err := loadConfig(p.configPath, p.preset, p.workDir)
	if err != nil {
		return err
	}
	if p.workers > 0 {
		cfg.Processing.MaxWorkers = p.workers
	}

	doc, err := sttm.Load(p.diffPath)
	if err != nil {
		return err
	}
	logger.Debug("loaded mapping differences", "format", doc.FormatVersion, "changes", len(doc.Changes()))

	tp, err := testplan.Load(p.planPath)
	if err != nil {
		return err
	}
	logger.Debug("loaded test plan", "test_cases", len(tp.TestCases), "id_pattern", tp.IDPattern)

	logger.Info("analyzing impact", "diff", p.diffPath, "plan", p.planPath, "preset", preset)
	rpt, err := analysis.Analyze(context.Background(), doc, tp, cfg, analysis.Options{
		Logger:  logger,
		Version: version,
		Preset:  preset,
	})
	if err != nil {
		return err
	}
	logger.Info("analysis complete",
		"impacted", rpt.Summary.ImpactedTestCases,
		"gaps", len(rpt.Gaps),
		"generated", len(rpt.Generated))

	if p.interactive {
		return runInteractiveAnalyze(rpt)
	}

	if p.output == "" {
		return writeReport(p.stdout, p.format, rpt)
	}
	f, err := os.Create(p.output)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := writeReport(f, p.format, rpt); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing output file: %w", err)
	}
	fmt.Fprintf(p.stderr, "report written to %s\n", p.output)
	return nil
}

// writeReport outputs the report in the requested format.
func writeReport(w io.Writer, format string, rpt *taxonomy.Report) error {
	switch format {
	case "json":
		return report.WriteJSON(w, rpt)
	case "xlsx":
		return report.WriteXLSX(w, rpt)
	default:
		return report.WriteText(w, rpt)
	}
}

// loadConfig resolves the analysis configuration. An explicit path wins,
// then config.DefaultFileName in dir, then the bare preset. File values
// are applied on top of the preset. The returned name describes the
// source for report metadata.
func loadConfig(path, preset, dir string) (config.Config, string, error) {
	if preset == "" {
		preset = config.PresetBalanced
	}
	base, err := config.Preset(preset)
	if err != nil {
		return config.Config{}, "", err
	}

	if path == "" {
		candidate := filepath.Join(dir, config.DefaultFileName)
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}
	if path == "" {
		return base, preset, nil
	}

	cfg, err := config.LoadOnto(path, base)
	if err != nil {
		return config.Config{}, "", err
	}
	logger.Debug("loaded configuration", "path", path, "preset", preset)
	return cfg, preset + " + " + filepath.Base(path), nil
}

func newAnalyzeCmd() *cobra.Command {
	var (
		configPath  string
		preset      string
		format      string
		output      string
		workers     int
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <sttm-diff> <test-plan>",
		Short: "Analyze the impact of mapping changes on a test plan",
		Long: `Analyze a mapping difference document (JSON) against an exported
test plan (qTest JSON or .xlsx). Reports the impacted test cases with
affected steps, coverage gaps, generated test cases for uncovered
additions and a prioritized action plan.

Configuration is read from --config, else from .sttm-impact.yaml in
the working directory, else from the --preset values.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			wd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting working directory: %w", err)
			}
			return runAnalyze(analyzeParams{
				diffPath:    args[0],
				planPath:    args[1],
				configPath:  configPath,
				preset:      preset,
				format:      format,
				output:      output,
				workers:     workers,
				interactive: interactive,
				workDir:     wd,
				stdout:      os.Stdout,
				stderr:      os.Stderr,
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "",
		"path to a YAML or JSON configuration file")
	cmd.Flags().StringVar(&preset, "preset", config.PresetBalanced,
		"configuration preset: balanced, lenient, or strict")
	cmd.Flags().StringVar(&format, "format", "text",
		"output format: text, json, or xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", "",
		"write the report to a file instead of stdout (required for xlsx)")
	cmd.Flags().IntVar(&workers, "workers", 0,
		"override processing.max_workers (0 = use configuration)")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false,
		"launch interactive TUI for browsing the action plan")

	return cmd
}

// parseParams holds the parsed flags for the parse command.
type parseParams struct {
	diffPath        string
	planPath        string
	detectIDPattern bool
	format          string
	stdout          io.Writer
}

// parseOutput is the JSON form of the parse command output.
type parseOutput struct {
	Mapping  *mappingInfo  `json:"mapping,omitempty"`
	TestPlan *testPlanInfo `json:"test_plan,omitempty"`
}

type mappingInfo struct {
	FormatVersion string `json:"format_version"`
	taxonomy.DocumentSummary
}

type testPlanInfo struct {
	taxonomy.PlanSummary
	IDPatternDescription string              `json:"id_pattern_description,omitempty"`
	Sample               []taxonomy.TestCase `json:"sample,omitempty"`
}

// runParse is the extracted, testable body of the parse command.
func runParse(p parseParams) error {
	if p.format != "text" && p.format != "json" {
		return fmt.Errorf("invalid format %q: must be 'text' or 'json'", p.format)
	}
	if p.diffPath == "" && p.planPath == "" {
		return errors.New("nothing to parse: pass --diff, --plan, or both")
	}

	var out parseOutput
	var doc *taxonomy.MappingDocument
	var tp *taxonomy.TestPlan
	if p.diffPath != "" {
		var err error
		if doc, err = sttm.Load(p.diffPath); err != nil {
			return err
		}
		out.Mapping = &mappingInfo{FormatVersion: doc.FormatVersion, DocumentSummary: doc.Summary()}
	}
	if p.planPath != "" {
		var err error
		if tp, err = testplan.Load(p.planPath); err != nil {
			return err
		}
		out.TestPlan = &testPlanInfo{PlanSummary: tp.Summary()}
		if p.detectIDPattern {
			out.TestPlan.IDPatternDescription = tp.IDPatternDescription
			out.TestPlan.Sample = testplan.Sample(tp, sampleSize)
		}
	}

	if p.format == "json" {
		enc := json.NewEncoder(p.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if doc != nil {
		fmt.Fprintf(p.stdout, "Mapping differences: %s\n", sttm.Describe(doc))
		for _, t := range doc.ChangedTabs() {
			fmt.Fprintf(p.stdout, "  %-24s %-20s %s\n", t.Name, t.Category, t.ChangeSummary())
		}
	}
	if tp != nil {
		fmt.Fprintf(p.stdout, "Test plan: %s\n", testplan.Describe(tp))
		if p.detectIDPattern {
			desc := tp.IDPatternDescription
			if desc == "" {
				desc = "no consistent ID pattern"
			}
			fmt.Fprintf(p.stdout, "  %s\n", desc)
			for _, tc := range testplan.Sample(tp, sampleSize) {
				fmt.Fprintf(p.stdout, "  %-12s %s (%d steps)\n", tc.ID, tc.Name, len(tc.Steps))
			}
		}
	}
	return nil
}

func newParseCmd() *cobra.Command {
	var (
		diffPath        string
		planPath        string
		detectIDPattern bool
		format          string
	)

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse input documents and print their summaries",
		Long: `Parse a mapping difference document, a test plan, or both, and
print what was recognized: format, tabs and change counts for the
mapping document; case and step counts and the detected ID pattern for
the test plan. Useful to check inputs before running analyze.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(parseParams{
				diffPath:        diffPath,
				planPath:        planPath,
				detectIDPattern: detectIDPattern,
				format:          format,
				stdout:          cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().StringVar(&diffPath, "diff", "",
		"path to the STTM difference document")
	cmd.Flags().StringVar(&planPath, "plan", "",
		"path to the test plan export")
	cmd.Flags().BoolVar(&detectIDPattern, "detect-id-pattern", false,
		"describe the test case ID pattern and show sample test cases")
	cmd.Flags().StringVar(&format, "format", "text",
		"output format: text or json")

	return cmd
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for analysis output",
		Long: `Print the JSON Schema (Draft 2020-12) that documents the
structure of sttm-impact analyze --format=json output. Useful for
validating output or generating client types.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), report.Schema)
			return err
		},
	}
}

func newInitCmd() *cobra.Command {
	var (
		force  bool
		preset string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: `Write .sttm-impact.yaml into the current directory, holding the
values of the selected preset with a comment per section. An existing
file is kept unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := scaffold.Run(scaffold.Options{
				Force:   force,
				Preset:  preset,
				Version: version,
				Stdout:  cmd.OutOrStdout(),
			})
			return err
		},
	}

	cmd.Flags().BoolVar(&force, "force", false,
		"overwrite an existing configuration file")
	cmd.Flags().StringVar(&preset, "preset", config.PresetBalanced,
		"configuration preset: balanced, lenient, or strict")

	return cmd
}
