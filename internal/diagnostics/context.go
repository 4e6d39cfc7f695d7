package diagnostics

import (
	"context"
	"errors"

	"erlfix/internal/diag"
	"erlfix/internal/fold"
	"erlfix/internal/hir"
	"erlfix/internal/observ"
	"erlfix/internal/safety"
	"erlfix/internal/sema"
	"erlfix/internal/source"
	"erlfix/internal/trace"
)

// Context is what a rule sees while it checks one file. Each rule invocation
// gets its own Context and reporter.
type Context struct {
	Ctx    context.Context
	DB     sema.DB
	File   source.FileID
	Module *hir.Module
	Tables *Tables
	Report diag.Reporter

	code    diag.Code
	tracer  trace.Tracer
	span    uint64
	metrics *observ.Metrics
}

// Text returns the source text of span.
func (c *Context) Text(span source.Span) string {
	return c.DB.Files().Text(span)
}

// Path of the file being checked.
func (c *Context) Path() string {
	if f := c.DB.Files().Get(c.File); f != nil {
		return f.Path
	}
	return ""
}

// Safe runs the safety check on spans. A rejected match is recorded and the
// rule must drop the occurrence.
func (c *Context) Safe(spans ...source.Span) bool {
	if err := safety.CheckAll(c.DB, c.File, spans...); err != nil {
		c.reject(err)
		return false
	}
	return true
}

// SafeNode is Safe for a visited node; nodes from macro expansions are rejected.
func (c *Context) SafeNode(ctx fold.Ctx) bool {
	if err := safety.CheckNode(c.DB, c.File, ctx); err != nil {
		c.reject(err)
		return false
	}
	return true
}

// Reject records a match dropped by the rule itself.
func (c *Context) Reject(err error) {
	c.reject(err)
}

func (c *Context) reject(err error) {
	reason := "other"
	switch {
	case errors.Is(err, safety.ErrCrossFile):
		reason = "cross_file"
	case errors.Is(err, safety.ErrCommentInRange):
		reason = "comment"
	case errors.Is(err, safety.ErrInMacro):
		reason = "macro"
	}
	c.metrics.FixRejected(reason)
	trace.Point(c.tracer, trace.ScopeNode, "match_rejected", err.Error(), c.span,
		map[string]string{"code": c.code.ID(), "reason": reason})
}
