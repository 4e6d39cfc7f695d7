package diagnostics

import (
	"fmt"
	"maps"

	"erlfix/internal/diag"
)

// Tables holds the atom sets rules look up. Built once, never mutated.
type Tables struct {
	// options that make the compiler demand specs for every function
	MissingSpecAll map[string]struct{}
	// options that demand specs for exported functions only
	MissingSpec map[string]struct{}
}

func NewTables() *Tables {
	return &Tables{
		MissingSpecAll: map[string]struct{}{
			"warn_missing_spec_all":   {},
			"nowarn_missing_spec_all": {},
		},
		MissingSpec: map[string]struct{}{
			"warn_missing_spec":   {},
			"nowarn_missing_spec": {},
		},
	}
}

// Config selects which rules run.
type Config struct {
	Experimental bool
	Enabled      map[diag.Code]bool
	Disabled     map[diag.Code]bool
	Tables       *Tables
}

// DefaultConfig runs every stable rule that is not disabled by default.
func DefaultConfig() Config {
	return Config{
		Enabled:  map[diag.Code]bool{},
		Disabled: map[diag.Code]bool{},
		Tables:   NewTables(),
	}
}

// Clone returns a config whose code sets can be changed independently.
func (c Config) Clone() Config {
	out := c
	out.Enabled = maps.Clone(c.Enabled)
	out.Disabled = maps.Clone(c.Disabled)
	if out.Enabled == nil {
		out.Enabled = map[diag.Code]bool{}
	}
	if out.Disabled == nil {
		out.Disabled = map[diag.Code]bool{}
	}
	if out.Tables == nil {
		out.Tables = NewTables()
	}
	return out
}

// Enable adds codes given by id ("W0012") or name ("compile_warn_missing_spec").
func (c *Config) Enable(codes ...string) error {
	return addCodes(c.Enabled, codes)
}

func (c *Config) Disable(codes ...string) error {
	return addCodes(c.Disabled, codes)
}

func addCodes(set map[diag.Code]bool, codes []string) error {
	for _, s := range codes {
		code, ok := diag.ParseCode(s)
		if !ok {
			return fmt.Errorf("unknown diagnostic code %q", s)
		}
		set[code] = true
	}
	return nil
}

// Applies reports whether d should run on a file with the given traits.
// Disabled wins over every other switch.
func (c Config) Applies(d Descriptor, generated, test bool) bool {
	if c.Disabled[d.Code] {
		return false
	}
	explicit := c.Enabled[d.Code]
	if d.Conditions.DefaultDisabled && !explicit {
		return false
	}
	if d.Conditions.Experimental && !c.Experimental && !explicit {
		return false
	}
	if generated && !d.Conditions.IncludeGenerated {
		return false
	}
	if test && !d.Conditions.IncludeTests {
		return false
	}
	return true
}
