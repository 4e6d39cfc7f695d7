package diag

import (
	"erlfix/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

// Category tags diagnostics so clients can group or filter them.
type Category uint8

const (
	CatSimplificationRule Category = 1 << iota
	CatExperimental
)

// Categories is a set of Category bits.
type Categories uint8

func (c Categories) Has(cat Category) bool {
	return c&Categories(cat) != 0
}

func (c Categories) With(cat Category) Categories {
	return c | Categories(cat)
}

// Names lists the set members in a stable order.
func (c Categories) Names() []string {
	var out []string
	if c.Has(CatSimplificationRule) {
		out = append(out, "simplification_rule")
	}
	if c.Has(CatExperimental) {
		out = append(out, "experimental")
	}
	return out
}

// Applicability describes how confidently a fix can be applied without review.
type Applicability uint8

const (
	FixSafe Applicability = iota
	FixManualReview
)

func (a Applicability) String() string {
	if a == FixSafe {
		return "safe"
	}
	return "manual review"
}

// Fix is a labeled rewrite. Trigger is the range a client cursor or selection
// must intersect for the fix to be offered.
type Fix struct {
	ID            string
	Label         string
	Applicability Applicability
	Change        SourceChange
	Trigger       source.Span
}

// NewFix builds a safe fix.
func NewFix(id, label string, change SourceChange, trigger source.Span) Fix {
	return Fix{ID: id, Label: label, Change: change, Trigger: trigger}
}

type Diagnostic struct {
	Severity   Severity
	Code       Code
	Message    string
	Primary    source.Span
	Categories Categories
	// FileScope marks diagnostics about the file as a whole; Primary is then empty at offset 0.
	FileScope bool
	Notes     []Note
	Fixes     []Fix
}

// AddFix appends a fix. It is the only mutation allowed after creation.
func (d *Diagnostic) AddFix(f Fix) {
	d.Fixes = append(d.Fixes, f)
}

// FixByID returns the first fix with the given identifier.
func (d *Diagnostic) FixByID(id string) (Fix, bool) {
	for _, f := range d.Fixes {
		if f.ID == id {
			return f, true
		}
	}
	return Fix{}, false
}
