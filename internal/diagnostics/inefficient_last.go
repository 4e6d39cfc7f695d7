package diagnostics

import (
	"erlfix/internal/diag"
	"erlfix/internal/fix"
	"erlfix/internal/ssr"
)

var inefficientLast = Descriptor{
	Code: diag.InefficientLast,
	Conditions: Conditions{
		IncludeTests: true,
	},
	Check: checkInefficientLast,
}

type lastRewrite struct {
	pattern  *ssr.Pattern
	template string
	fixID    string
	category bool
}

var lastRewrites = []lastRewrite{
	{
		pattern:  ssr.MustParse("hd(lists:reverse(_@List))"),
		template: "lists:last(_@List)",
		fixID:    "list_head_reverse_to_last",
	},
	{
		pattern:  ssr.MustParse("[_@LastElem|_] = lists:reverse(_@List)"),
		template: "_@LastElem = lists:last(_@List)",
		fixID:    "unnecessary_reversal_to_find_last_element_of_list",
		category: true,
	},
}

const (
	inefficientLastMessage = "Unnecessary intermediate reverse list allocated."
	inefficientLastLabel   = "Rewrite to use lists:last/1"
)

func checkInefficientLast(c *Context) {
	for _, rw := range lastRewrites {
		m := ssr.NewMatcher(rw.pattern, c.Text)
		for _, r := range m.FindInModule(c.Module) {
			if !c.SafeNode(r.Ctx) || !c.Safe(r.Spans()...) {
				continue
			}
			text, err := ssr.Render(rw.template, r, c.Text)
			if err != nil {
				c.Reject(err)
				continue
			}
			b := diag.ReportWarning(c.Report, diag.InefficientLast, r.Span, inefficientLastMessage).
				WithFix(fix.ReplaceSpan(rw.fixID, inefficientLastLabel, r.Span, text))
			if rw.category {
				b.WithCategory(diag.CatSimplificationRule)
			}
			b.Emit()
		}
	}
}
