package fix

import (
	"erlfix/internal/diag"
	"erlfix/internal/source"
)

// Option mutates fix during construction.
type Option func(*diag.Fix)

// WithApplicability overrides applicability metadata.
func WithApplicability(app diag.Applicability) Option {
	return func(f *diag.Fix) {
		f.Applicability = app
	}
}

// WithTrigger overrides the range that makes a client offer the fix.
func WithTrigger(span source.Span) Option {
	return func(f *diag.Fix) {
		f.Trigger = span
	}
}

func applyOptions(f diag.Fix, opts []Option) diag.Fix {
	for _, opt := range opts {
		if opt != nil {
			opt(&f)
		}
	}
	return f
}

// ReplaceSpan creates a fix that replaces the text covered by span.
// The trigger defaults to span.
func ReplaceSpan(id, label string, span source.Span, newText string, opts ...Option) diag.Fix {
	change := diag.SingleEdit(diag.TextEdit{Span: span, NewText: newText})
	return applyOptions(diag.NewFix(id, label, change, span), opts)
}

// InsertText creates a fix that inserts text at offset.
func InsertText(id, label string, file source.FileID, offset uint32, text string, opts ...Option) diag.Fix {
	at := source.Span{File: file, Start: offset, End: offset}
	return ReplaceSpan(id, label, at, text, opts...)
}

// DeleteSpan removes text covered by span.
func DeleteSpan(id, label string, span source.Span, opts ...Option) diag.Fix {
	return ReplaceSpan(id, label, span, "", opts...)
}

// WrapWith surrounds span with prefix and suffix insertions.
func WrapWith(id, label string, span source.Span, prefix, suffix string, opts ...Option) (diag.Fix, error) {
	b := NewBuilder(span.File).Insert(span.Start, prefix).Insert(span.End, suffix)
	return FromBuilder(id, label, b, span, opts...)
}

// FromBuilder finishes b and wraps the change into a fix.
func FromBuilder(id, label string, b *Builder, trigger source.Span, opts ...Option) (diag.Fix, error) {
	change, err := b.Finish()
	if err != nil {
		return diag.Fix{}, err
	}
	return applyOptions(diag.NewFix(id, label, change, trigger), opts), nil
}
