package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"erlfix/internal/diag"
	"erlfix/internal/diagfmt"
	"erlfix/internal/driver"
)

// errDiagnosticsReported makes the process exit 1 without another message.
var errDiagnosticsReported = errors.New("")

var diagCmd = &cobra.Command{
	Use:     "diagnostics [flags] [paths...]",
	Aliases: []string{"diag"},
	Short:   "Report diagnostics for Erlang sources",
	Long:    `Run the lint rules and the configured type checker over .erl and .hrl files. Directories are searched recursively; _build, deps and hidden directories are skipped.`,
	RunE:    runDiagnose,
}

func init() {
	diagCmd.Flags().String("format", "pretty", "output format (pretty|json|short)")
	diagCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	diagCmd.Flags().Bool("suggest", false, "include fix suggestions in output")
	diagCmd.Flags().Bool("preview", false, "show the lines each fix would change")
	diagCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	diagCmd.Flags().Bool("warnings-as-errors", false, "exit with status 1 on warnings too")
	diagCmd.Flags().String("ui", "auto", "progress view (auto|on|off)")
}

type diagOptions struct {
	format           string
	withNotes        bool
	suggest          bool
	preview          bool
	fullPath         bool
	warningsAsErrors bool
	ui               uiMode
	maxDiagnostics   int
	color            bool
}

func readDiagOptions(cmd *cobra.Command) (diagOptions, error) {
	var o diagOptions
	var err error
	flags := cmd.Flags()
	if o.format, err = flags.GetString("format"); err != nil {
		return o, fmt.Errorf("failed to get format flag: %w", err)
	}
	switch o.format {
	case "pretty", "json", "short":
	default:
		return o, fmt.Errorf("unknown format: %s", o.format)
	}
	if o.withNotes, err = flags.GetBool("with-notes"); err != nil {
		return o, fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	if o.suggest, err = flags.GetBool("suggest"); err != nil {
		return o, fmt.Errorf("failed to get suggest flag: %w", err)
	}
	if o.preview, err = flags.GetBool("preview"); err != nil {
		return o, fmt.Errorf("failed to get preview flag: %w", err)
	}
	if o.fullPath, err = flags.GetBool("fullpath"); err != nil {
		return o, fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	if o.warningsAsErrors, err = flags.GetBool("warnings-as-errors"); err != nil {
		return o, fmt.Errorf("failed to get warnings-as-errors flag: %w", err)
	}
	uiValue, err := flags.GetString("ui")
	if err != nil {
		return o, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if o.ui, err = readUIMode(uiValue); err != nil {
		return o, err
	}
	if o.maxDiagnostics, err = cmd.Root().PersistentFlags().GetInt("max-diagnostics"); err != nil {
		return o, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if o.color, err = useColor(cmd); err != nil {
		return o, err
	}
	return o, nil
}

// runDiagnose analyzes the given paths (the working directory by default),
// prints the diagnostics and fails when any of them is an error.
func runDiagnose(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic()

	opts, err := readDiagOptions(cmd)
	if err != nil {
		return err
	}
	paths := args
	if len(paths) == 0 {
		paths = []string{"."}
	}

	cleanup, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	var res *driver.Result
	if opts.format == "pretty" && shouldUseTUI(opts.ui) {
		res, err = analyzeWithUI(cmd, paths)
	} else {
		var s *session
		s, err = newSession(cmd, nil)
		if err != nil {
			return err
		}
		defer s.close()
		res, err = s.driver.AnalyzePaths(cmd.Context(), paths)
		printTimings(s)
	}
	if err != nil {
		return fmt.Errorf("diagnosis failed: %w", err)
	}

	bag := diag.NewBag(opts.maxDiagnostics)
	all := res.Diagnostics()
	for _, d := range all {
		if !bag.Add(d) {
			break
		}
	}
	if dropped := len(all) - bag.Len(); dropped > 0 {
		fmt.Fprintf(os.Stderr, "%d more diagnostics not shown (--max-diagnostics=%d)\n", dropped, opts.maxDiagnostics)
	}

	pathMode := diagfmt.PathModeAuto
	if opts.fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}
	switch opts.format {
	case "pretty":
		diagfmt.Pretty(os.Stdout, bag, res.FileSet, diagfmt.PrettyOpts{
			Color:       opts.color,
			Context:     1,
			PathMode:    pathMode,
			Width:       terminalWidth(os.Stdout),
			ShowNotes:   opts.withNotes,
			ShowFixes:   opts.suggest || opts.preview,
			ShowPreview: opts.preview,
		})
	case "short":
		if out := diag.FormatShortDiagnostics(bag.Items(), res.FileSet, opts.withNotes); out != "" {
			fmt.Fprintln(os.Stdout, out)
		}
	case "json":
		err := diagfmt.JSON(os.Stdout, bag, res.FileSet, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         pathMode,
			IncludeNotes:     opts.withNotes,
			IncludeFixes:     opts.suggest || opts.preview,
			IncludePreviews:  opts.preview,
		})
		if err != nil {
			return fmt.Errorf("failed to format diagnostics: %w", err)
		}
	}

	failed := reportFileErrors(res)
	if failed || bag.HasErrors() || (opts.warningsAsErrors && bag.HasWarnings()) {
		return errDiagnosticsReported
	}
	return nil
}

// reportFileErrors prints parse and oracle failures to stderr. It reports
// whether any file could not be analyzed at all.
func reportFileErrors(res *driver.Result) bool {
	failed := false
	for _, f := range res.Files {
		if f.Err != nil {
			failed = true
			fmt.Fprintf(os.Stderr, "%s: %v\n", f.Path, f.Err)
		}
		if f.OracleErr != nil {
			fmt.Fprintf(os.Stderr, "%s: type checker: %v\n", f.Path, f.OracleErr)
		}
	}
	return failed
}
