package diagfmt

import (
	"encoding/json"
	"io"

	"erlfix/internal/diag"
	"erlfix/internal/source"
)

// LocationJSON представляет местоположение в файле для JSON
type LocationJSON struct {
	File      string `json:"file"`
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`
	StartLine uint32 `json:"start_line,omitempty"`
	StartCol  uint32 `json:"start_col,omitempty"`
	EndLine   uint32 `json:"end_line,omitempty"`
	EndCol    uint32 `json:"end_col,omitempty"`
}

// NoteJSON представляет дополнительную заметку для JSON
type NoteJSON struct {
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
}

// FixEditJSON представляет одно редактирование для JSON
type FixEditJSON struct {
	Location    LocationJSON `json:"location"`
	NewText     string       `json:"new_text"`
	OldText     string       `json:"old_text,omitempty"`
	BeforeLines []string     `json:"before_lines,omitempty"`
	AfterLines  []string     `json:"after_lines,omitempty"`
}

// FixJSON представляет предложение по исправлению для JSON
type FixJSON struct {
	ID            string        `json:"id"`
	Label         string        `json:"label"`
	Applicability string        `json:"applicability"`
	Trigger       LocationJSON  `json:"trigger"`
	Edits         []FixEditJSON `json:"edits,omitempty"`
}

// DiagnosticJSON представляет диагностику в JSON формате
type DiagnosticJSON struct {
	Severity   string       `json:"severity"`
	Code       string       `json:"code"`
	Name       string       `json:"name"`
	Message    string       `json:"message"`
	Location   LocationJSON `json:"location"`
	FileScope  bool         `json:"file_scope,omitempty"`
	Categories []string     `json:"categories,omitempty"`
	Notes      []NoteJSON   `json:"notes,omitempty"`
	Fixes      []FixJSON    `json:"fixes,omitempty"`
}

// DiagnosticsOutput представляет корневую структуру JSON вывода
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
}

func applicabilityName(a diag.Applicability) string {
	if a == diag.FixSafe {
		return "safe"
	}
	return "manual_review"
}

// makeLocation создаёт LocationJSON из Span
func makeLocation(span source.Span, fs *source.FileSet, pathMode PathMode, includePositions bool) LocationJSON {
	f := fs.Get(span.File)
	if f == nil {
		return LocationJSON{StartByte: span.Start, EndByte: span.End}
	}
	loc := LocationJSON{
		File:      displayPath(fs, f, pathMode),
		StartByte: span.Start,
		EndByte:   span.End,
	}
	if includePositions {
		startPos, endPos := fs.Resolve(span)
		loc.StartLine = startPos.Line
		loc.StartCol = startPos.Col
		loc.EndLine = endPos.Line
		loc.EndCol = endPos.Col
	}
	return loc
}

// BuildDiagnosticsOutput формирует структуру JSON-вывода без сериализации.
func BuildDiagnosticsOutput(bag *diag.Bag, fs *source.FileSet, opts JSONOpts) DiagnosticsOutput {
	items := bag.Items()
	if opts.Max > 0 && opts.Max < len(items) {
		items = items[:opts.Max]
	}
	diagnostics := make([]DiagnosticJSON, 0, len(items))
	for i := range items {
		diagnostics = append(diagnostics, buildDiagnostic(&items[i], fs, opts))
	}
	return DiagnosticsOutput{
		Diagnostics: diagnostics,
		Count:       len(diagnostics),
	}
}

func buildDiagnostic(d *diag.Diagnostic, fs *source.FileSet, opts JSONOpts) DiagnosticJSON {
	out := DiagnosticJSON{
		Severity:   d.Severity.String(),
		Code:       d.Code.ID(),
		Name:       d.Code.Name(),
		Message:    d.Message,
		Location:   makeLocation(d.Primary, fs, opts.PathMode, opts.IncludePositions),
		FileScope:  d.FileScope,
		Categories: d.Categories.Names(),
	}
	if opts.IncludeNotes {
		for _, note := range d.Notes {
			out.Notes = append(out.Notes, NoteJSON{
				Message:  note.Msg,
				Location: makeLocation(note.Span, fs, opts.PathMode, opts.IncludePositions),
			})
		}
	}
	if !opts.IncludeFixes {
		return out
	}
	for _, fx := range d.Fixes {
		fixJSON := FixJSON{
			ID:            fx.ID,
			Label:         fx.Label,
			Applicability: applicabilityName(fx.Applicability),
			Trigger:       makeLocation(fx.Trigger, fs, opts.PathMode, opts.IncludePositions),
		}
		for _, edit := range fx.Change.AllEdits() {
			editJSON := FixEditJSON{
				Location: makeLocation(edit.Span, fs, opts.PathMode, opts.IncludePositions),
				NewText:  edit.NewText,
				OldText:  fs.Text(edit.Span),
			}
			if opts.IncludePreviews {
				if preview, err := buildFixEditPreview(fs, edit); err == nil {
					editJSON.BeforeLines = preview.before
					editJSON.AfterLines = preview.after
				}
			}
			fixJSON.Edits = append(fixJSON.Edits, editJSON)
		}
		out.Fixes = append(out.Fixes, fixJSON)
	}
	return out
}

// JSON форматирует диагностики в JSON формат.
// Выводит массив диагностик с полной информацией о местоположении, заметках и исправлениях.
func JSON(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(BuildDiagnosticsOutput(bag, fs, opts))
}
