package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"erlfix/internal/driver"
	"erlfix/internal/ui"
)

type analyzeOutcome struct {
	result *driver.Result
	err    error
}

// analyzeWithUI runs AnalyzePaths in the background and renders its
// progress events until the driver is done.
func analyzeWithUI(cmd *cobra.Command, paths []string) (*driver.Result, error) {
	files, err := driver.Discover(paths)
	if err != nil {
		return nil, err
	}
	events := make(chan driver.Event, 256)
	s, err := newSession(cmd, driver.ChannelSink{Ch: events})
	if err != nil {
		return nil, err
	}
	defer s.close()

	outcomeCh := make(chan analyzeOutcome, 1)
	go func() {
		res, err := s.driver.AnalyzePaths(cmd.Context(), paths)
		outcomeCh <- analyzeOutcome{result: res, err: err}
		close(events)
	}()

	title := fmt.Sprintf("erlfix: %d files", len(files))
	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	printTimings(s)
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
