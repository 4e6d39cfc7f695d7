package hir

import "erlfix/internal/source"

// Comment is a `%` comment running to the end of the line. Span excludes the newline.
type Comment struct {
	Span source.Span
	Text string
}

// ScanComments finds every comment in Erlang text. It understands string and
// quoted atom literals and the `$%` character literal, so `%` inside them is
// not taken for a comment.
func ScanComments(file source.FileID, text []byte) []Comment {
	var out []Comment
	n := len(text)
	for i := 0; i < n; i++ {
		switch c := text[i]; c {
		case '"', '\'':
			i = skipQuoted(text, i+1, c)
		case '$':
			// $x, $\x, $\\
			if i+1 < n && text[i+1] == '\\' {
				i += 2
			} else {
				i++
			}
		case '%':
			start := i
			for i < n && text[i] != '\n' {
				i++
			}
			end := i
			if end > start && text[end-1] == '\r' {
				end--
			}
			out = append(out, Comment{
				Span: source.Span{File: file, Start: uint32(start), End: uint32(end)}, //nolint:gosec // file size fits uint32
				Text: string(text[start:end]),
			})
		}
	}
	return out
}

// skipQuoted returns the index of the closing quote (or the last byte).
func skipQuoted(text []byte, i int, quote byte) int {
	for ; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case quote:
			return i
		}
	}
	return len(text) - 1
}

// CommentsIn returns the comments intersecting [span.Start, span.End).
func CommentsIn(comments []Comment, span source.Span) []Comment {
	var out []Comment
	for _, c := range comments {
		if c.Span.File == span.File && c.Span.Start < span.End && span.Start < c.Span.End {
			out = append(out, c)
		}
	}
	return out
}
