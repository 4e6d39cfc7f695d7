package trace

import "time"

// Kind tells what an event marks.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
	KindHeartbeat // emitted whatever the level, see Config.Heartbeat
)

var kindNames = [...]string{KindSpanBegin: "begin", KindSpanEnd: "end", KindPoint: "point", KindHeartbeat: "heartbeat"}

func (k Kind) String() string { return lookup(kindNames[:], int(k)) }

// Scope is the granularity of an event. Levels admit scopes up to a bound,
// so coarser scopes have smaller values.
type Scope uint8

const (
	ScopeDriver Scope = iota + 1 // one CLI command or LSP request
	ScopeFile                    // analysis of one file
	ScopeRule                    // one diagnostic rule on one file
	ScopeNode                    // individual matches and rejected fixes
)

var scopeNames = [...]string{ScopeDriver: "driver", ScopeFile: "file", ScopeRule: "rule", ScopeNode: "node"}

func (s Scope) String() string { return lookup(scopeNames[:], int(s)) }

func lookup(names []string, i int) string {
	if i <= 0 || i >= len(names) {
		return "unknown"
	}
	return names[i]
}

// Event is one trace record. SpanID pairs a begin with its end; ParentID is
// 0 for root spans.
type Event struct {
	Time     time.Time
	Seq      uint64 // monotonic across the process
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64
	GID      uint64
	Name     string // e.g. "diagnostics", "src/foo.erl", "W0030"
	Detail   string
	Extra    map[string]string
}
