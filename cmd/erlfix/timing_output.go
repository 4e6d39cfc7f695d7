package main

import (
	"fmt"
	"os"
)

// printTimings writes the phase table to stderr when --timings is set.
func printTimings(s *session) {
	if s == nil || s.timer == nil {
		return
	}
	fmt.Fprint(os.Stderr, s.timer.Summary())
}
