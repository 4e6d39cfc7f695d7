package ssr

import (
	"fmt"
	"strings"

	"erlfix/internal/source"
)

// Render replaces every `_@Name` in template with the source text bound to
// Name. An unbound placeholder is an error.
func Render(template string, r Result, text func(source.Span) string) (string, error) {
	var sb strings.Builder
	for i := 0; i < len(template); {
		if !strings.HasPrefix(template[i:], "_@") {
			sb.WriteByte(template[i])
			i++
			continue
		}
		j := i + 2
		for j < len(template) && isIdentByte(template[j]) {
			j++
		}
		name := template[i+2 : j]
		b, ok := r.Bindings[name]
		if !ok {
			return "", fmt.Errorf("ssr: placeholder %q is not bound", name)
		}
		sb.WriteString(text(b.Span))
		i = j
	}
	return sb.String(), nil
}
