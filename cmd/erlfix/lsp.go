package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"erlfix/internal/lsp"
)

var lspCmd = &cobra.Command{
	Use:          "lsp",
	Short:        "Serve diagnostics and code actions over stdio",
	SilenceUsage: true,
	RunE:         runLSP,
}

func init() {
	lspCmd.Flags().Duration("debounce", lsp.DefaultDebounce, "delay between the last edit and re-analysis")
}

func runLSP(cmd *cobra.Command, _ []string) error {
	debounce, err := cmd.Flags().GetDuration("debounce")
	if err != nil {
		return err
	}
	s, err := newSession(cmd, nil)
	if err != nil {
		return err
	}
	defer s.close()

	server := lsp.NewServer(os.Stdin, os.Stdout, lsp.ServerOptions{
		Debounce: debounce,
		Analyze:  s.driver.AnalyzeSource,
		Metrics:  s.metrics,
	})
	if err := server.Run(cmd.Context()); err != nil {
		if errors.Is(err, lsp.ErrExit) {
			return nil
		}
		if errors.Is(err, lsp.ErrExitWithoutShutdown) {
			return fmt.Errorf("lsp exit without shutdown")
		}
		return err
	}
	return nil
}
