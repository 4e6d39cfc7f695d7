package assists

import (
	"strings"

	"erlfix/internal/diag"
	"erlfix/internal/fix"
	"erlfix/internal/hir"
	"erlfix/internal/source"
)

const flipSepID = "flip_sep"

// flipSep swaps the two siblings around the `,` or `;` under the cursor:
// call arguments, list and tuple elements, body expressions, guards, case
// clauses, function clauses, spec signatures and export entries.
func flipSep(ctx *Context) []diag.Fix {
	f := ctx.File
	for _, group := range siblingGroups(ctx.Module, f.ID) {
		for i := 0; i+1 < len(group); i++ {
			a, b := trimSep(f, group[i]), trimSep(f, group[i+1])
			if a.End >= b.Start {
				continue
			}
			gap := f.Text(source.Span{File: f.ID, Start: a.End, End: b.Start})
			sep := strings.TrimSpace(gap)
			if sep != "," && sep != ";" {
				continue
			}
			at := a.End + uint32(strings.Index(gap, sep)) //nolint:gosec // gap is a slice of the file
			trigger := source.Span{File: f.ID, Start: at, End: at + 1}
			if ctx.Range.Start < trigger.Start || ctx.Range.End > trigger.End {
				continue
			}
			bld := fix.NewBuilder(f.ID).Replace(a, f.Text(b)).Replace(b, f.Text(a))
			fx, err := fix.FromBuilder(flipSepID, "Flip around separator", bld, trigger)
			if err != nil {
				return nil
			}
			return []diag.Fix{fx}
		}
	}
	return nil
}

// trimSep drops trailing blanks and a clause terminator so swapped siblings
// keep the separators where they were.
func trimSep(f *source.File, sp source.Span) source.Span {
	text := f.Text(sp)
	kept := strings.TrimRight(text, " \t\r\n")
	kept = strings.TrimSuffix(kept, ".")
	kept = strings.TrimSuffix(kept, ";")
	kept = strings.TrimSuffix(kept, ",")
	kept = strings.TrimRight(kept, " \t\r\n")
	sp.End -= uint32(len(text) - len(kept)) //nolint:gosec // kept is a prefix of text
	return sp
}

// siblingGroups lists, per syntactic list, the spans of its elements in
// source order. Elements coming from macro expansions or other files are left
// out; a group with a hole is still usable for the pairs around it.
func siblingGroups(m *hir.Module, file source.FileID) [][]source.Span {
	var raw [][]source.Span
	add := func(spans ...[]source.Span) { raw = append(raw, spans...) }

	for _, e := range m.Exports {
		spans := make([]source.Span, 0, len(e.Entries))
		for _, en := range e.Entries {
			spans = append(spans, en.Span)
		}
		add(spans)
	}
	seen := make(map[*hir.Body]bool)
	body := func(b *hir.Body) {
		if b != nil && !seen[b] {
			seen[b] = true
			add(bodyGroups(b)...)
		}
	}
	for _, fn := range m.Functions {
		spans := make([]source.Span, 0, len(fn.Clauses))
		for _, c := range fn.Clauses {
			spans = append(spans, c.Span)
			if c.Body == nil {
				continue
			}
			add(patSpans(c.Body, c.Args), exprSpans(c.Body, c.Exprs))
			add(guardSpans(c.Body, c.Guards)...)
			body(c.Body)
		}
		add(spans)
	}
	for _, s := range m.Specs {
		spans := make([]source.Span, 0, len(s.Sigs))
		for _, sig := range s.Sigs {
			spans = append(spans, sig.Span)
			if s.Body != nil {
				add(typeSpans(s.Body, sig.Args))
			}
		}
		add(spans)
		body(s.Body)
	}

	var groups [][]source.Span
	for _, spans := range raw {
		var g []source.Span
		for _, sp := range spans {
			if sp.File == file && !sp.Empty() {
				g = append(g, sp)
			}
		}
		if len(g) > 1 {
			groups = append(groups, g)
		}
	}
	return groups
}

// bodyGroups walks every node of b; arenas are 1-based.
func bodyGroups(b *hir.Body) [][]source.Span {
	var groups [][]source.Span
	add := func(spans ...[]source.Span) { groups = append(groups, spans...) }
	for i := 1; i <= b.NumExprs(); i++ {
		id := hir.ExprID(i) //nolint:gosec // bounded by NumExprs
		if b.InMacro(id.Any()) {
			continue
		}
		switch e := b.Expr(id).(type) {
		case hir.CallExpr:
			add(exprSpans(b, e.Args))
		case hir.ListExpr:
			add(exprSpans(b, e.Elems))
		case hir.TupleExpr:
			add(exprSpans(b, e.Elems))
		case hir.MacroCallExpr:
			add(exprSpans(b, e.Args))
		case hir.BlockExpr:
			add(exprSpans(b, e.Exprs))
		case hir.CaseExpr:
			clauses := make([]source.Span, 0, len(e.Clauses))
			for _, cr := range e.Clauses {
				sp := b.PatSpan(cr.Pat)
				if n := len(cr.Body); n > 0 {
					sp = sp.Cover(b.ExprSpan(cr.Body[n-1]))
				}
				clauses = append(clauses, sp)
				add(exprSpans(b, cr.Body))
				add(guardSpans(b, cr.Guards)...)
			}
			add(clauses)
		}
	}
	for i := 1; i <= b.NumPats(); i++ {
		id := hir.PatID(i) //nolint:gosec // bounded by NumPats
		if b.InMacro(id.Any()) {
			continue
		}
		switch p := b.Pat(id).(type) {
		case hir.ListPat:
			add(patSpans(b, p.Elems))
		case hir.TuplePat:
			add(patSpans(b, p.Elems))
		}
	}
	for i := 1; i <= b.NumTypes(); i++ {
		id := hir.TypeExprID(i) //nolint:gosec // bounded by NumTypes
		switch t := b.Type(id).(type) {
		case hir.CallType:
			add(typeSpans(b, t.Args))
		case hir.TupleType:
			add(typeSpans(b, t.Elems))
		}
	}
	return groups
}

func exprSpans(b *hir.Body, ids []hir.ExprID) []source.Span {
	out := make([]source.Span, 0, len(ids))
	for _, id := range ids {
		if !b.InMacro(id.Any()) {
			out = append(out, b.ExprSpan(id))
		}
	}
	return out
}

func patSpans(b *hir.Body, ids []hir.PatID) []source.Span {
	out := make([]source.Span, 0, len(ids))
	for _, id := range ids {
		if !b.InMacro(id.Any()) {
			out = append(out, b.PatSpan(id))
		}
	}
	return out
}

func typeSpans(b *hir.Body, ids []hir.TypeExprID) []source.Span {
	out := make([]source.Span, 0, len(ids))
	for _, id := range ids {
		out = append(out, b.TypeSpan(id))
	}
	return out
}

// guardSpans returns one group per guard sequence plus one for the `;`
// separated alternatives.
func guardSpans(b *hir.Body, guards [][]hir.ExprID) [][]source.Span {
	out := make([][]source.Span, 0, len(guards)+1)
	alts := make([]source.Span, 0, len(guards))
	for _, g := range guards {
		spans := exprSpans(b, g)
		out = append(out, spans)
		if len(spans) > 0 {
			alts = append(alts, spans[0].Cover(spans[len(spans)-1]))
		}
	}
	return append(out, alts)
}
