package diagnostics

import (
	"fmt"
	"path/filepath"
	"strings"

	"erlfix/internal/diag"
	"erlfix/internal/fix"
	"erlfix/internal/hir"
)

var moduleMismatch = Descriptor{
	Code: diag.ModuleMismatch,
	Conditions: Conditions{
		IncludeGenerated: true,
		IncludeTests:     true,
	},
	Check: checkModuleMismatch,
}

func checkModuleMismatch(c *Context) {
	attr := c.Module.Attribute
	if attr == nil {
		return
	}
	base := filepath.Base(c.Path())
	want := strings.TrimSuffix(base, filepath.Ext(base))
	if want == "" || attr.Name == want {
		return
	}
	if !c.Safe(attr.NameSpan) {
		return
	}
	diag.ReportError(c.Report, diag.ModuleMismatch, attr.NameSpan,
		fmt.Sprintf("Module name (%s) does not match file name (%s)", attr.Name, want)).
		WithFix(fix.ReplaceSpan("rename_module_to_match_filename", "Rename module to: "+want,
			attr.NameSpan, hir.QuoteAtom(want))).
		Emit()
}
