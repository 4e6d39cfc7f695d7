// Package diag defines the core diagnostic model shared by all pipeline phases.
//
// # Purpose
//
//   - Provide deterministic, serialisable data structures that capture findings
//     produced by analysis rules and by the external type checker.
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to concrete storage or formatting layers.
//   - Model fix suggestions as structured edits that the driver or CLI can
//     materialise and optionally apply.
//
// # Scope
//
// Package diag does not perform any formatting, IO, CLI integration, or
// interactive behaviour. Rendering responsibilities live in internal/diagfmt,
// whereas orchestration and application of fixes lives in internal/fix and the
// driver layer.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Severity – tri-level enum (WeakWarning, Warning, Error) defined in severity.go.
//   - Code – compact numeric identifier (see codes.go) with stable string form.
//   - Message – human oriented text; keep it short and actionable.
//   - Primary span – the canonical source.Span pointing to the issue. File
//     scoped findings set FileScope and leave the span empty at offset 0.
//   - Categories – small tag set (simplification rule, experimental).
//   - Notes – optional secondary spans/messages for additional context.
//   - Fixes – optional Fix records describing how to address the problem.
//
// Notes should be used sparingly: each note must add new context (e.g. “value
// declared here”) rather than repeating the diagnostic message.
//
// # Fix suggestions
//
// Fix represents a possible automated correction. Each fix carries:
//
//   - ID – stable identifier used to address a fix in tests and in `fix --id`.
//   - Label – short text used in UI listings.
//   - Applicability – FixSafe fixes may be applied in bulk; FixManualReview
//     fixes (suppressions, renames) are only applied on request.
//   - Change – a SourceChange: per-file edits, sorted and non-overlapping.
//   - Trigger – the span a cursor or selection must intersect for a client to
//     offer the fix.
//
// SourceChange values are only produced by NewSourceChange, SingleEdit or
// Merge, all of which validate the edit set, so consumers never need to
// re-check for overlaps.
//
// # Emitting diagnostics
//
// Phases should use a diag.Reporter to decouple emission from storage. The
// rules, for example, construct a ReportBuilder via NewReportBuilder (or the
// helper functions ReportError/ReportWarning/ReportWeak) and chain WithFix /
// WithCategory before calling Emit.
//
// When no additional metadata is needed, phases may call Reporter.Report(...)
// directly. For convenience, diag.BagReporter aggregates diagnostics into a Bag,
// which supports sorting, deduplication, filtering, and transformation.
//
// # Consumers
//
//   - internal/diagfmt: renders Diagnostics into pretty/json formats.
//   - internal/fix: materialises Fix records and applies edits to source files.
//   - internal/driver: coordinates bag collection per file and transports
//     diagnostic data to the CLI and the language server.
//
// Keep the data model deterministic: any new fields should honour the package’s
// layering constraints and avoid side effects, so the CLI and future tooling can
// safely serialise diagnostics for caching and testing.
package diag
