package diagnostics

import (
	"path/filepath"
	"strings"

	"erlfix/internal/diag"
	"erlfix/internal/fix"
	"erlfix/internal/hir"
)

var unspecificInclude = Descriptor{
	Code: diag.UnspecificInclude,
	Conditions: Conditions{
		IncludeGenerated: true,
		IncludeTests:     true,
	},
	Check: checkUnspecificInclude,
}

// checkUnspecificInclude flags `-include("x.hrl").` that only resolves
// through the include search path and points into another app.
func checkUnspecificInclude(c *Context) {
	files := c.DB.Files()
	for _, inc := range c.Module.Includes {
		if strings.Contains(inc.Path, "/") {
			continue
		}
		target, ok := c.DB.ResolveInclude(c.File, inc)
		if !ok || target == c.File {
			continue
		}
		tf := files.Get(target)
		if tf == nil || strings.Contains(filepath.ToSlash(tf.Path), "/src/") {
			continue
		}
		libPath, ok := c.DB.IncludeLibPath(target)
		if !ok {
			continue
		}
		if !c.Safe(inc.Span, inc.PathSpan) {
			continue
		}
		id, label := "replace_unspecific_include", "Replace include path with: "+libPath
		var fx diag.Fix
		if inc.Kind == hir.Include {
			fx = fix.ReplaceSpan(id, label, inc.Span, `-include_lib("`+libPath+`").`, fix.WithTrigger(inc.PathSpan))
		} else {
			fx = fix.ReplaceSpan(id, label, inc.PathSpan, `"`+libPath+`"`)
		}
		diag.ReportWeak(c.Report, diag.UnspecificInclude, inc.PathSpan, "Unspecific include.").
			WithFix(fx).
			Emit()
	}
}
