// Package diagnostics runs the native rules over one file and turns their
// findings into suppressible, fixable diagnostics.
package diagnostics

import (
	"erlfix/internal/diag"
)

// Conditions gate when a rule runs at all.
type Conditions struct {
	// Experimental rules run only when experimental diagnostics are enabled
	// or the code is enabled explicitly.
	Experimental bool
	// IncludeGenerated allows the rule on files carrying the generated marker.
	IncludeGenerated bool
	// IncludeTests allows the rule on test suites and helpers.
	IncludeTests bool
	// DefaultDisabled rules run only when enabled explicitly.
	DefaultDisabled bool
}

// CheckFunc inspects the file of c and reports through c.
type CheckFunc func(c *Context)

type Descriptor struct {
	Code       diag.Code
	Conditions Conditions
	Check      CheckFunc
}

func (d Descriptor) Name() string {
	return d.Code.Name()
}
