// Package trace records what the analysis pipeline is doing.
//
// It answers two questions a slow or stuck run raises: which file and which
// rule were active, and how long each took.
//
// # Usage
//
//	erlfix diagnostics --trace=- --trace-level=detail src/
//
// # Tracers
//
//   - Nop: zero-overhead no-op tracer when disabled
//   - StreamTracer: immediate write to a file or stderr
//   - RingTracer: circular buffer, dumped when a run crashes
//   - MultiTracer: stream and ring together
//
// # Levels and scopes
//
// LevelPhase shows ScopeDriver (a CLI command or an LSP request) and
// ScopeFile (analysis of one file). LevelDetail adds ScopeRule, one span per
// diagnostic rule. LevelDebug adds ScopeNode points such as fixes rejected by
// the safety check.
//
// Tracers travel through context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeFile, path, 0)
//	defer span.End("")
package trace
