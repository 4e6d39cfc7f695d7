package diag

import (
	"sync"

	"erlfix/internal/source"
)

// Reporter: минимальный контракт получения диагностик от правил.
// Реализации: BagReporter (кладёт в Bag), SliceReporter, DedupReporter.
type Reporter interface {
	Report(d Diagnostic)
}

// ReportBuilder accumulates diagnostic details before emitting to Reporter.
type ReportBuilder struct {
	reporter Reporter
	diag     Diagnostic
	emitted  bool
}

// NewReportBuilder constructs a builder bound to Reporter.
func NewReportBuilder(r Reporter, sev Severity, code Code, primary source.Span, msg string) *ReportBuilder {
	return &ReportBuilder{
		reporter: r,
		diag: Diagnostic{
			Severity: sev,
			Code:     code,
			Message:  msg,
			Primary:  primary,
		},
	}
}

// ReportError is a shortcut for SevError diagnostics.
func ReportError(r Reporter, code Code, primary source.Span, msg string) *ReportBuilder {
	return NewReportBuilder(r, SevError, code, primary, msg)
}

// ReportWarning is a shortcut for SevWarning diagnostics.
func ReportWarning(r Reporter, code Code, primary source.Span, msg string) *ReportBuilder {
	return NewReportBuilder(r, SevWarning, code, primary, msg)
}

// ReportWeak is a shortcut for SevWeakWarning diagnostics.
func ReportWeak(r Reporter, code Code, primary source.Span, msg string) *ReportBuilder {
	return NewReportBuilder(r, SevWeakWarning, code, primary, msg)
}

// WithNote appends a note to diagnostic.
func (b *ReportBuilder) WithNote(sp source.Span, msg string) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.diag.Notes = append(b.diag.Notes, Note{Span: sp, Msg: msg})
	return b
}

// WithCategory tags the diagnostic.
func (b *ReportBuilder) WithCategory(cat Category) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.diag.Categories = b.diag.Categories.With(cat)
	return b
}

// WholeFile marks the diagnostic as file scoped.
func (b *ReportBuilder) WholeFile() *ReportBuilder {
	if b == nil {
		return nil
	}
	b.diag.FileScope = true
	b.diag.Primary = source.Span{File: b.diag.Primary.File}
	return b
}

// WithFix appends a fix.
func (b *ReportBuilder) WithFix(fix Fix) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.diag.AddFix(fix)
	return b
}

// WithFixes appends fixes in order.
func (b *ReportBuilder) WithFixes(fixes ...Fix) *ReportBuilder {
	if b == nil {
		return nil
	}
	for _, f := range fixes {
		b.diag.AddFix(f)
	}
	return b
}

// Emit sends diagnostic to underlying reporter exactly once.
func (b *ReportBuilder) Emit() {
	if b == nil || b.emitted {
		return
	}
	if b.reporter != nil {
		b.reporter.Report(b.diag)
	}
	b.emitted = true
}

// Diagnostic returns accumulated diagnostic without emitting.
func (b *ReportBuilder) Diagnostic() Diagnostic {
	if b == nil {
		return Diagnostic{}
	}
	return b.diag
}

// BagReporter: адаптер, который пишет в *Bag.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(d Diagnostic) {
	if r.Bag == nil {
		return
	}
	r.Bag.Add(d)
}

// SliceReporter collects diagnostics in order. It is safe for concurrent use.
type SliceReporter struct {
	mu    sync.Mutex
	items []Diagnostic
}

func (r *SliceReporter) Report(d Diagnostic) {
	r.mu.Lock()
	r.items = append(r.items, d)
	r.mu.Unlock()
}

// Items returns the collected diagnostics.
func (r *SliceReporter) Items() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Diagnostic(nil), r.items...)
}
