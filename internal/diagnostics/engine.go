package diagnostics

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"erlfix/internal/diag"
	"erlfix/internal/observ"
	"erlfix/internal/sema"
	"erlfix/internal/source"
	"erlfix/internal/trace"
)

const maxFailures = 64

// RuleFailure records a rule that panicked. Its output for that file is lost;
// the other rules are unaffected.
type RuleFailure struct {
	Code  diag.Code
	File  source.FileID
	Panic string
	Stack string
}

func (f RuleFailure) String() string {
	return fmt.Sprintf("%s on file %d: %s", f.Code.ID(), f.File, f.Panic)
}

type Engine struct {
	registry *Registry
	config   Config
	metrics  *observ.Metrics
	limit    int

	mu       sync.Mutex
	failures []RuleFailure
}

type EngineOption func(*Engine)

func WithRegistry(r *Registry) EngineOption {
	return func(e *Engine) { e.registry = r }
}

func WithMetrics(m *observ.Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithParallelism bounds how many rules of one file run at once.
func WithParallelism(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.limit = n
		}
	}
}

func NewEngine(cfg Config, opts ...EngineOption) *Engine {
	e := &Engine{
		registry: DefaultRegistry(),
		config:   cfg.Clone(),
		limit:    runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Config() Config {
	return e.config
}

// Active lists the rules that apply to file.
func (e *Engine) Active(db sema.DB, file source.FileID) []Descriptor {
	generated, test := db.IsGenerated(file), db.IsTest(file)
	var out []Descriptor
	for _, d := range e.registry.descriptors {
		if e.config.Applies(d, generated, test) {
			out = append(out, d)
		}
	}
	return out
}

// Run checks one file. Diagnostics covered by an ignore annotation are
// dropped; every other one gets an ignore fix appended. The result is sorted.
// The only error is the context's.
func (e *Engine) Run(ctx context.Context, db sema.DB, file source.FileID) ([]diag.Diagnostic, error) {
	m, ok := db.Module(file)
	if !ok || m == nil {
		return nil, nil
	}
	tr := trace.FromContext(ctx)
	parent := trace.ParentID(ctx)

	active := e.Active(db, file)
	results := make([][]diag.Diagnostic, len(active))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit)
	for i, d := range active {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c := &Context{
				Ctx:     gctx,
				DB:      db,
				File:    file,
				Module:  m,
				Tables:  e.config.Tables,
				code:    d.Code,
				tracer:  tr,
				metrics: e.metrics,
			}
			results[i] = e.runRule(d, c, parent)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []diag.Diagnostic
	for _, res := range results {
		out = append(out, res...)
	}
	out = Annotate(db, file, out, e.metrics)
	for _, d := range out {
		e.metrics.Reported(d.Code.ID())
	}
	diag.Sort(out)
	return out, nil
}

func (e *Engine) runRule(d Descriptor, c *Context, parent uint64) (out []diag.Diagnostic) {
	span := trace.Begin(c.tracer, trace.ScopeRule, d.Code.ID(), parent)
	c.span = span.ID()
	rep := &diag.SliceReporter{}
	dedup := diag.NewDedupReporter(rep)
	c.Report = dedup

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		msg := fmt.Sprint(r)
		e.recordFailure(RuleFailure{Code: d.Code, File: c.File, Panic: msg, Stack: string(debug.Stack())})
		e.metrics.RulePanic(d.Code.ID())
		trace.Point(c.tracer, trace.ScopeRule, "rule_panic", msg, span.ID(), map[string]string{"code": d.Code.ID()})
		span.End("panic")
		out = nil
	}()

	e.metrics.RuleRun(d.Code.ID())
	d.Check(c)
	dedup.Flush()
	out = rep.Items()
	if n := dedup.Collapsed(); n > 0 {
		span.WithExtra("duplicates", strconv.Itoa(n))
	}
	span.WithExtra("diagnostics", strconv.Itoa(len(out))).End("")
	return out
}

func (e *Engine) recordFailure(f RuleFailure) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures = append(e.failures, f)
	if len(e.failures) > maxFailures {
		e.failures = e.failures[len(e.failures)-maxFailures:]
	}
}

// LastFailures returns the most recent rule panics, oldest first.
func (e *Engine) LastFailures() []RuleFailure {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]RuleFailure(nil), e.failures...)
}

func (e *Engine) ResetFailures() {
	e.mu.Lock()
	e.failures = nil
	e.mu.Unlock()
}
