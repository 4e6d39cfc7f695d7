package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"erlfix/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "erlfix",
	Short: "Erlang diagnostics and quick fixes",
	Long:  `erlfix checks Erlang sources with a set of lint rules and an optional type checker, and applies the fixes it suggests`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cleanup, err := setupTracing(cmd)
		if err != nil {
			return err
		}
		traceCleanup = cleanup
		return nil
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		closeTracing()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// traceCleanup is set by PersistentPreRunE and run once on exit.
var traceCleanup func()

func closeTracing() {
	if traceCleanup != nil {
		traceCleanup()
		traceCleanup = nil
	}
}

// main registers subcommands and persistent flags, then executes the root command.
// If command execution returns an error, the process exits with status code 1.
func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(diagCmd)
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(lspCmd)
	rootCmd.AddCommand(codesCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	pf := rootCmd.PersistentFlags()
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("timings", false, "show timing information")
	pf.Int("max-diagnostics", 1000, "maximum number of diagnostics to show")
	pf.String("config", "", "path to .erlfix.toml (default: search upwards from the working directory)")
	pf.Bool("experimental", false, "run experimental diagnostics")
	pf.StringSlice("enable", nil, "enable diagnostics by code or name")
	pf.StringSlice("disable", nil, "disable diagnostics by code or name")
	pf.StringSlice("frontend", nil, "parse service command (overrides [frontend].command)")
	pf.StringSlice("oracle", nil, "type checker command (overrides [oracle].command)")
	pf.Bool("no-oracle-cache", false, "always run the type checker")
	pf.Int("jobs", 0, "max parallel workers (0=auto)")
	pf.String("metrics-addr", "", "serve Prometheus metrics on this address")

	pf.String("trace", "", "trace output file (\"-\" for stderr)")
	pf.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	pf.String("trace-mode", "ring", "trace storage (stream|ring|both)")
	pf.String("trace-format", "auto", "trace format (auto|text|ndjson)")
	pf.Int("trace-ring-size", 4096, "ring buffer capacity in events")
	pf.Duration("trace-heartbeat", 0, "emit heartbeat events at this interval (0=off)")

	pf.String("cpu-profile", "", "write a CPU profile to file")
	pf.String("mem-profile", "", "write a heap profile to file")
	pf.String("runtime-trace", "", "write a Go runtime trace to file")

	if err := rootCmd.Execute(); err != nil {
		closeTracing()
		if msg := err.Error(); msg != "" {
			fmt.Fprintln(os.Stderr, "erlfix:", msg)
		}
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits int
}

// terminalWidth returns the width of f, or 0 when it is not a terminal.
func terminalWidth(f *os.File) int {
	if !isTerminal(f) {
		return 0
	}
	w, _, err := term.GetSize(int(f.Fd())) //nolint:gosec // fd fits int
	if err != nil {
		return 0
	}
	return w
}

func useColor(cmd *cobra.Command) (bool, error) {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, err
	}
	switch mode {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto":
		return isTerminal(os.Stdout), nil
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}
}
