package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"erlfix/internal/diag"
	"erlfix/internal/hir"
	"erlfix/internal/source"
)

// CheckFixInvariants runs a minimal set of invariants on emitted diagnostics:
// 1) every fix edit lies inside the content of an existing file
// 2) edits of one file are sorted and do not overlap
// 3) the trigger of every fix shares the file of its diagnostic
func CheckFixInvariants(fs *source.FileSet, diags []diag.Diagnostic) error {
	for i := range diags {
		d := &diags[i]
		for _, f := range d.Fixes {
			if f.Trigger.File != d.Primary.File {
				return fmt.Errorf("%s fix %q: trigger in file %d, diagnostic in %d", d.Code.ID(), f.ID, f.Trigger.File, d.Primary.File)
			}
			for _, file := range f.Change.Files() {
				sf := fs.Get(file)
				if sf == nil {
					return fmt.Errorf("%s fix %q: unknown file %d", d.Code.ID(), f.ID, file)
				}
				size, err := safecast.Conv[uint32](len(sf.Content))
				if err != nil {
					return fmt.Errorf("len content overflow: %w", err)
				}
				edits := f.Change.Edits(file)
				for j, e := range edits {
					if e.Span.Start > e.Span.End || e.Span.End > size {
						return fmt.Errorf("%s fix %q: edit %v outside content (len %d)", d.Code.ID(), f.ID, e.Span, size)
					}
					if j == 0 {
						continue
					}
					prev := edits[j-1].Span
					if e.Span.Start < prev.Start || (e.Span.Start < prev.End && !(e.Span.Empty() && e.Span.Start == prev.Start)) {
						return fmt.Errorf("%s fix %q: edits %v and %v overlap or are unsorted", d.Code.ID(), f.ID, prev, e.Span)
					}
				}
			}
		}
	}
	return nil
}

// CheckModuleSpans verifies that every form of m lies inside sf and that each
// clause is covered by its function.
func CheckModuleSpans(m *hir.Module, sf *source.File) error {
	if m == nil || sf == nil {
		return fmt.Errorf("nil module or file")
	}
	size, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	inside := func(what string, sp source.Span) error {
		if sp.File != sf.ID {
			return fmt.Errorf("%s span file mismatch: got=%d want=%d", what, sp.File, sf.ID)
		}
		if sp.Start > sp.End || sp.End > size {
			return fmt.Errorf("%s span %v outside content (len %d)", what, sp, size)
		}
		return nil
	}
	if m.Attribute != nil {
		if err := inside("module attribute", m.Attribute.Span); err != nil {
			return err
		}
	}
	for _, fn := range m.Functions {
		if err := inside(fn.Name.String(), fn.Span); err != nil {
			return err
		}
		for _, c := range fn.Clauses {
			if !fn.Span.ContainsSpan(c.Span) {
				return fmt.Errorf("clause %v of %s is outside function span %v", c.Span, fn.Name, fn.Span)
			}
		}
	}
	for _, spec := range m.Specs {
		if err := inside("spec "+spec.Name.String(), spec.Span); err != nil {
			return err
		}
	}
	return nil
}
