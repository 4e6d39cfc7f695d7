package assists

import (
	"fmt"

	"erlfix/internal/diag"
	"erlfix/internal/fix"
)

const exportTypeID = "export_type"

// exportType offers to export the type declared under the cursor. The entry
// joins the first -export_type list, or a new attribute goes after -module.
func exportType(ctx *Context) []diag.Fix {
	m := ctx.Module
	ta := m.TypeAt(ctx.Range.Start)
	if ta == nil || ta.Span.File != ctx.File.ID || m.TypeExported(ta.Name) {
		return nil
	}
	entry := ta.Name.String()
	label := fmt.Sprintf("Export the type `%s`", entry)

	for _, e := range m.Exports {
		if !e.Types || e.ListSpan.File != ctx.File.ID || e.ListSpan.Len() < 2 {
			continue
		}
		text := entry
		if len(e.Entries) > 0 {
			text = ", " + entry
		}
		return []diag.Fix{fix.InsertText(exportTypeID, label, ctx.File.ID, e.ListSpan.End-1, text, fix.WithTrigger(ta.Span))}
	}

	attr := fmt.Sprintf("-export_type([%s]).", entry)
	if mod := m.Attribute; mod != nil && mod.Span.File == ctx.File.ID {
		return []diag.Fix{fix.InsertText(exportTypeID, label, ctx.File.ID, mod.Span.End, "\n\n"+attr, fix.WithTrigger(ta.Span))}
	}
	return []diag.Fix{fix.InsertText(exportTypeID, label, ctx.File.ID, 0, attr+"\n\n", fix.WithTrigger(ta.Span))}
}
