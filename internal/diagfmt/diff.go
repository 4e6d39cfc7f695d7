package diagfmt

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// diffContext is the number of unchanged lines around each hunk.
const diffContext = 3

type diffLine struct {
	op   diffmatchpatch.Operation
	text string
}

// UnifiedDiff renders the line difference between before and after in
// unified format. It returns "" when both are equal.
func UnifiedDiff(path string, before, after []byte) string {
	if string(before) == string(after) {
		return ""
	}
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(string(before), string(after))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var ops []diffLine
	for _, d := range diffs {
		for _, ln := range splitKeepNewline(d.Text) {
			ops = append(ops, diffLine{op: d.Type, text: ln})
		}
	}

	// номера строк перед каждой операцией
	oldAt := make([]int, len(ops)+1)
	newAt := make([]int, len(ops)+1)
	for i, op := range ops {
		oldAt[i+1], newAt[i+1] = oldAt[i], newAt[i]
		if op.op != diffmatchpatch.DiffInsert {
			oldAt[i+1]++
		}
		if op.op != diffmatchpatch.DiffDelete {
			newAt[i+1]++
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- a/%s\n+++ b/%s\n", path, path)
	for _, h := range hunks(ops) {
		oldCount := oldAt[h.end] - oldAt[h.start]
		newCount := newAt[h.end] - newAt[h.start]
		fmt.Fprintf(&sb, "@@ -%s +%s @@\n", hunkRange(oldAt[h.start], oldCount), hunkRange(newAt[h.start], newCount))
		for _, op := range ops[h.start:h.end] {
			switch op.op {
			case diffmatchpatch.DiffDelete:
				sb.WriteByte('-')
			case diffmatchpatch.DiffInsert:
				sb.WriteByte('+')
			default:
				sb.WriteByte(' ')
			}
			sb.WriteString(op.text)
			if !strings.HasSuffix(op.text, "\n") {
				sb.WriteString("\n\\ No newline at end of file\n")
			}
		}
	}
	return sb.String()
}

type hunk struct{ start, end int }

// hunks groups changed lines whose context windows touch.
func hunks(ops []diffLine) []hunk {
	var out []hunk
	for i := 0; i < len(ops); i++ {
		if ops[i].op == diffmatchpatch.DiffEqual {
			continue
		}
		start := max(i-diffContext, 0)
		end := i + 1
		j := end
		for j < len(ops) {
			if ops[j].op != diffmatchpatch.DiffEqual {
				j++
				end = j
				continue
			}
			k := j
			for k < len(ops) && ops[k].op == diffmatchpatch.DiffEqual {
				k++
			}
			if k == len(ops) || k-j > 2*diffContext {
				break
			}
			j = k
		}
		end = min(end+diffContext, len(ops))
		out = append(out, hunk{start: start, end: end})
		i = end - 1
	}
	return out
}

func hunkRange(before, count int) string {
	if count == 0 {
		return fmt.Sprintf("%d,0", before)
	}
	if count == 1 {
		return fmt.Sprintf("%d", before+1)
	}
	return fmt.Sprintf("%d,%d", before+1, count)
}

func splitKeepNewline(text string) []string {
	if text == "" {
		return nil
	}
	parts := strings.SplitAfter(text, "\n")
	if parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}
