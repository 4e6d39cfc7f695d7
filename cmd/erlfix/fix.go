package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"erlfix/internal/diagfmt"
	"erlfix/internal/fix"
	"erlfix/internal/source"
)

var fixCmd = &cobra.Command{
	Use:   "fix [flags] [paths...]",
	Short: "Apply available fixes to Erlang sources",
	Long:  "Run diagnostics, surface available fixes, and apply them according to the chosen strategy.",
	RunE:  runFix,
}

func init() {
	fixCmd.Flags().Bool("all", false, "apply all safe fixes")
	fixCmd.Flags().Bool("once", false, "apply the first available fix (default)")
	fixCmd.Flags().String("id", "", "apply fix with a specific identifier")
	fixCmd.Flags().Bool("diff", false, "print a unified diff instead of writing files")
}

func readApplyOptions(cmd *cobra.Command) (fix.ApplyOptions, error) {
	applyAll, err := cmd.Flags().GetBool("all")
	if err != nil {
		return fix.ApplyOptions{}, err
	}
	applyOnce, err := cmd.Flags().GetBool("once")
	if err != nil {
		return fix.ApplyOptions{}, err
	}
	targetID, err := cmd.Flags().GetString("id")
	if err != nil {
		return fix.ApplyOptions{}, err
	}
	dryRun, err := cmd.Flags().GetBool("diff")
	if err != nil {
		return fix.ApplyOptions{}, err
	}
	if targetID != "" && (applyAll || applyOnce) {
		return fix.ApplyOptions{}, fmt.Errorf("--id cannot be combined with --all or --once")
	}
	if applyAll && applyOnce {
		return fix.ApplyOptions{}, fmt.Errorf("--all and --once are mutually exclusive")
	}

	mode := fix.ApplyModeOnce
	if targetID != "" {
		mode = fix.ApplyModeID
	} else if applyAll {
		mode = fix.ApplyModeAll
	}
	return fix.ApplyOptions{Mode: mode, TargetID: targetID, DryRun: dryRun}, nil
}

func runFix(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic()

	opts, err := readApplyOptions(cmd)
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

	s, err := newSession(cmd, nil)
	if err != nil {
		return err
	}
	defer s.close()

	res, err := s.driver.AnalyzePaths(cmd.Context(), paths)
	if err != nil {
		return fmt.Errorf("fix: diagnose failed: %w", err)
	}
	printTimings(s)
	reportFileErrors(res)

	applied, applyErr := fix.Apply(res.FileSet, res.Diagnostics(), opts)
	if opts.DryRun && applied != nil {
		if err := writeFixDiff(os.Stdout, res.FileSet, applied); err != nil {
			return err
		}
	}
	return handleApplyResult(os.Stderr, applied, applyErr, opts.DryRun)
}

// writeFixDiff prints the pending changes of a dry run, one file at a time
// in path order.
func writeFixDiff(out io.Writer, fs *source.FileSet, res *fix.ApplyResult) error {
	ids := make([]source.FileID, 0, len(res.Contents))
	for id := range res.Contents {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return fs.Get(ids[i]).Path < fs.Get(ids[j]).Path
	})
	for _, id := range ids {
		f := fs.Get(id)
		path := f.FormatPath("relative", fs.BaseDir())
		if _, err := io.WriteString(out, diagfmt.UnifiedDiff(path, f.Content, res.Contents[id])); err != nil {
			return err
		}
	}
	return nil
}

func handleApplyResult(out io.Writer, res *fix.ApplyResult, applyErr error, dryRun bool) error {
	if res == nil {
		return applyErr
	}
	var printErr error

	verb := "Applied"
	if dryRun {
		verb = "Would apply"
	}
	if len(res.Applied) > 0 {
		_, printErr = fmt.Fprintf(out, "%s %d fix(es):\n", verb, len(res.Applied))
		if printErr != nil {
			return printErr
		}
		for _, item := range res.Applied {
			location := item.PrimaryPath
			if location == "" {
				location = "(unknown location)"
			}
			_, printErr = fmt.Fprintf(
				out,
				"  %s [%s] %s: %s (%d edits, %s)\n",
				item.Label,
				item.ID,
				item.Code.ID(),
				location,
				item.EditCount,
				item.Applicability.String(),
			)
			if printErr != nil {
				return printErr
			}
		}
	}

	if len(res.FileChanges) > 0 && !dryRun {
		_, printErr = fmt.Fprintln(out, "Updated files:")
		if printErr != nil {
			return printErr
		}
		for _, change := range res.FileChanges {
			_, printErr = fmt.Fprintf(out, "  %s (%d edits)\n", change.Path, change.EditCount)
			if printErr != nil {
				return printErr
			}
		}
	}

	if len(res.Skipped) > 0 {
		_, printErr = fmt.Fprintln(out, "Skipped fixes:")
		if printErr != nil {
			return printErr
		}
		for _, skip := range res.Skipped {
			id := skip.ID
			if id == "" {
				id = "(unnamed)"
			}
			if skip.Label != "" {
				_, printErr = fmt.Fprintf(out, "  %s [%s]: %s\n", skip.Label, id, skip.Reason)
			} else {
				_, printErr = fmt.Fprintf(out, "  [%s]: %s\n", id, skip.Reason)
			}
			if printErr != nil {
				return printErr
			}
		}
	}

	if applyErr != nil {
		if errors.Is(applyErr, fix.ErrNoFixes) && len(res.Applied) == 0 {
			_, printErr = fmt.Fprintln(out, "No applicable fixes found.")
			return printErr
		}
		return applyErr
	}
	return nil
}
