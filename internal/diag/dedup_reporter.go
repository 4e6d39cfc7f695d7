package diag

import (
	"sync"

	"erlfix/internal/source"
)

type dedupKey struct {
	code Code
	span source.Span
}

// DedupReporter buffers diagnostics and collapses those with the same code
// and primary span, which happens when a traversal reaches one node through
// two paths. A duplicate contributes the fixes the first report lacks (by fix
// id); its message and notes are dropped. Flush forwards the survivors in the
// order they were first reported.
type DedupReporter struct {
	mu    sync.Mutex
	next  Reporter
	index map[dedupKey]int
	items []Diagnostic
	// collapsed counts reports merged into an earlier one
	collapsed int
}

func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{next: next, index: make(map[dedupKey]int)}
}

func (r *DedupReporter) Report(d Diagnostic) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := dedupKey{code: d.Code, span: d.Primary}
	i, dup := r.index[key]
	if !dup {
		r.index[key] = len(r.items)
		r.items = append(r.items, d)
		return
	}
	r.collapsed++
	first := &r.items[i]
	for _, fx := range d.Fixes {
		if !hasFix(first.Fixes, fx.ID) {
			first.Fixes = append(first.Fixes, fx)
		}
	}
}

func (r *DedupReporter) Collapsed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.collapsed
}

// Flush forwards the buffered diagnostics and empties the buffer.
func (r *DedupReporter) Flush() {
	if r == nil {
		return
	}
	r.mu.Lock()
	items := r.items
	r.items = nil
	clear(r.index)
	r.mu.Unlock()
	if r.next == nil {
		return
	}
	for _, d := range items {
		r.next.Report(d)
	}
}

func hasFix(fixes []Fix, id string) bool {
	for _, fx := range fixes {
		if fx.ID == id {
			return true
		}
	}
	return false
}
