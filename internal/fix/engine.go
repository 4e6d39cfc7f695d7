package fix

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"erlfix/internal/diag"
	"erlfix/internal/source"
)

// ErrNoFixes is returned when no fixes were applied.
var ErrNoFixes = errors.New("no applicable fixes found")

// ApplyMode determines selection strategy for fixes.
type ApplyMode uint8

const (
	// ApplyModeOnce applies the first safe fix (or the first fix at all).
	ApplyModeOnce ApplyMode = iota
	// ApplyModeAll applies every safe fix that does not conflict.
	ApplyModeAll
	// ApplyModeID applies every fix with the given identifier.
	ApplyModeID
)

// ApplyOptions configures how fixes are selected.
type ApplyOptions struct {
	Mode     ApplyMode
	TargetID string
	// DryRun keeps results in ApplyResult.Contents instead of writing files.
	DryRun bool
}

// AppliedFix records a successfully applied fix.
type AppliedFix struct {
	ID            string
	Label         string
	Code          diag.Code
	Message       string
	Applicability diag.Applicability
	PrimaryPath   string
	EditCount     int
}

// SkippedFix captures a skipped or failed fix with a reason.
type SkippedFix struct {
	ID     string
	Label  string
	Reason string
}

// FileChange summarises modifications performed on a file.
type FileChange struct {
	File      source.FileID
	Path      string
	EditCount int
}

// ApplyResult aggregates applied fixes, skipped ones, and file changes.
type ApplyResult struct {
	Applied     []AppliedFix
	Skipped     []SkippedFix
	FileChanges []FileChange
	// Contents holds the new content of every touched file.
	Contents map[source.FileID][]byte
}

type candidate struct {
	diag  diag.Diagnostic
	fix   diag.Fix
	order int
}

// Apply collects fixes from diagnostics, selects a subset according to opts, and applies them.
func Apply(fs *source.FileSet, diagnostics []diag.Diagnostic, opts ApplyOptions) (*ApplyResult, error) {
	result := &ApplyResult{
		Applied:     make([]AppliedFix, 0),
		Skipped:     make([]SkippedFix, 0),
		FileChanges: make([]FileChange, 0),
		Contents:    make(map[source.FileID][]byte),
	}
	if fs == nil {
		return result, fmt.Errorf("fix: FileSet is nil")
	}

	candidates, buildSkips := gatherCandidates(diagnostics)
	result.Skipped = append(result.Skipped, buildSkips...)

	if len(candidates) == 0 {
		return result, ErrNoFixes
	}

	sortCandidates(candidates)

	selected, selectionSkips := selectCandidates(candidates, opts)
	result.Skipped = append(result.Skipped, selectionSkips...)

	if len(selected) == 0 {
		return result, ErrNoFixes
	}

	err := applyCandidates(fs, selected, opts.DryRun, result)
	if err != nil {
		return result, err
	}
	if len(result.Applied) == 0 {
		return result, ErrNoFixes
	}
	return result, nil
}

// ApplyChange applies one source change to file contents held in memory.
// It is used by previews, tests and the language server.
func ApplyChange(content []byte, edits []diag.TextEdit) ([]byte, error) {
	out := append([]byte(nil), content...)
	for i := len(edits) - 1; i >= 0; i-- {
		e := edits[i]
		if e.Span.Start > e.Span.End || int(e.Span.End) > len(out) {
			return nil, fmt.Errorf("edit span %s out of range", e.Span)
		}
		if i+1 < len(edits) && e.Span.End > edits[i+1].Span.Start {
			return nil, fmt.Errorf("%w: %s", diag.ErrOverlappingEdits, e.Span)
		}
		suffix := append([]byte(nil), out[e.Span.End:]...)
		out = append(append(out[:e.Span.Start], e.NewText...), suffix...)
	}
	return out, nil
}

// gatherCandidates lists every fix with edits. Each candidate gets a
// monotonically increasing order used as a stable tie-break later.
func gatherCandidates(diagnostics []diag.Diagnostic) ([]candidate, []SkippedFix) {
	cands := make([]candidate, 0)
	skips := make([]SkippedFix, 0)

	order := 0
	for _, d := range diagnostics {
		for _, f := range d.Fixes {
			if f.Change.IsEmpty() {
				skips = append(skips, SkippedFix{
					ID:     f.ID,
					Label:  f.Label,
					Reason: "fix has no edits",
				})
				continue
			}
			cands = append(cands, candidate{
				diag:  d,
				fix:   f,
				order: order,
			})
			order++
		}
	}
	return cands, skips
}

// sortCandidates orders candidates by file, span start, span end, then
// insertion order, which keeps the rule's own fix order within a diagnostic.
func sortCandidates(candidates []candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		di, dj := candidates[i].diag, candidates[j].diag
		if di.Primary.File != dj.Primary.File {
			return di.Primary.File < dj.Primary.File
		}
		if di.Primary.Start != dj.Primary.Start {
			return di.Primary.Start < dj.Primary.Start
		}
		if di.Primary.End != dj.Primary.End {
			return di.Primary.End < dj.Primary.End
		}
		return candidates[i].order < candidates[j].order
	})
}

func selectCandidates(candidates []candidate, opts ApplyOptions) ([]candidate, []SkippedFix) {
	switch opts.Mode {
	case ApplyModeID:
		var selected []candidate
		for _, cand := range candidates {
			if cand.fix.ID == opts.TargetID {
				selected = append(selected, cand)
			}
		}
		if len(selected) == 0 {
			return nil, []SkippedFix{{
				ID:     opts.TargetID,
				Reason: "fix id not found",
			}}
		}
		return selected, nil
	case ApplyModeAll:
		selected := make([]candidate, 0, len(candidates))
		skipped := make([]SkippedFix, 0)
		for _, cand := range candidates {
			if cand.fix.Applicability == diag.FixSafe {
				selected = append(selected, cand)
				continue
			}
			skipped = append(skipped, SkippedFix{
				ID:     cand.fix.ID,
				Label:  cand.fix.Label,
				Reason: "fix requires manual review",
			})
		}
		return selected, skipped
	case ApplyModeOnce:
		for _, cand := range candidates {
			if cand.fix.Applicability == diag.FixSafe {
				return []candidate{cand}, nil
			}
		}
		return []candidate{candidates[0]}, nil
	default:
		return nil, nil
	}
}

func applyCandidates(fs *source.FileSet, selected []candidate, dryRun bool, result *ApplyResult) error {
	buffers := make(map[source.FileID][]byte)
	appliedEdits := make(map[source.FileID][]diag.TextEdit)
	fileEditCount := make(map[source.FileID]int)
	dirty := make([]source.FileID, 0)

	baseDir := fs.BaseDir()

	for _, cand := range selected {
		stagedBuffers := make(map[source.FileID][]byte)
		stagedApplied := make(map[source.FileID][]diag.TextEdit)
		totalEdits := 0
		var skipReason string

		for _, fileID := range cand.fix.Change.Files() {
			edits := cand.fix.Change.Edits(fileID)
			file := fs.Get(fileID)
			if file == nil {
				skipReason = fmt.Sprintf("unknown file %d", fileID)
				break
			}
			if !dryRun && file.Flags&source.FileVirtual != 0 {
				skipReason = "target file is virtual"
				break
			}
			if conflictsWithExisting(appliedEdits[fileID], edits) {
				skipReason = fmt.Sprintf("conflicts with previously applied edits in %s", file.FormatPath("auto", baseDir))
				break
			}

			working := buffers[fileID]
			if working == nil {
				working = append([]byte(nil), file.Content...)
			} else {
				working = append([]byte(nil), working...)
			}
			previous := appliedEdits[fileID]
			starts := make([]int, len(edits))
			ends := make([]int, len(edits))
			for i, edit := range edits {
				starts[i] = int(edit.Span.Start) + cumulativeDelta(previous, int(edit.Span.Start))
				ends[i] = int(edit.Span.End) + cumulativeDelta(previous, int(edit.Span.End))
				if starts[i] < 0 || ends[i] < starts[i] || ends[i] > len(working) {
					skipReason = "edit span out of range"
					break
				}
			}
			if skipReason != "" {
				break
			}
			// от конца к началу, чтобы смещения внутри одного fix не плыли
			for i := len(edits) - 1; i >= 0; i-- {
				suffix := append([]byte(nil), working[ends[i]:]...)
				working = append(append(working[:starts[i]], edits[i].NewText...), suffix...)
			}
			existing := append([]diag.TextEdit(nil), previous...)
			for _, edit := range edits {
				existing = insertEditSorted(existing, edit)
			}
			stagedBuffers[fileID] = working
			stagedApplied[fileID] = existing
			totalEdits += len(edits)
		}

		if skipReason != "" {
			result.Skipped = append(result.Skipped, SkippedFix{
				ID:     cand.fix.ID,
				Label:  cand.fix.Label,
				Reason: skipReason,
			})
			continue
		}

		for fileID, buf := range stagedBuffers {
			if _, seen := buffers[fileID]; !seen {
				dirty = append(dirty, fileID)
			}
			buffers[fileID] = buf
			appliedEdits[fileID] = stagedApplied[fileID]
			fileEditCount[fileID] += len(cand.fix.Change.Edits(fileID))
		}

		result.Applied = append(result.Applied, AppliedFix{
			ID:            cand.fix.ID,
			Label:         cand.fix.Label,
			Code:          cand.diag.Code,
			Message:       cand.diag.Message,
			Applicability: cand.fix.Applicability,
			PrimaryPath:   formatFilePath(fs, cand.diag.Primary.File),
			EditCount:     totalEdits,
		})
	}

	sort.Slice(dirty, func(i, j int) bool { return dirty[i] < dirty[j] })
	for _, fileID := range dirty {
		buf := buffers[fileID]
		file := fs.Get(fileID)
		result.Contents[fileID] = buf

		if !dryRun {
			mode := os.FileMode(0o644)
			if info, err := os.Stat(file.Path); err == nil {
				mode = info.Mode()
			}
			if err := os.WriteFile(file.Path, buf, mode); err != nil {
				return fmt.Errorf("write %s: %w", file.Path, err)
			}
		}

		result.FileChanges = append(result.FileChanges, FileChange{
			File:      fileID,
			Path:      file.FormatPath("relative", baseDir),
			EditCount: fileEditCount[fileID],
		})
	}

	sort.SliceStable(result.FileChanges, func(i, j int) bool {
		return result.FileChanges[i].Path < result.FileChanges[j].Path
	})
	return nil
}

func conflictsWithExisting(existing []diag.TextEdit, edits []diag.TextEdit) bool {
	for _, prev := range existing {
		for _, cand := range edits {
			if spansConflict(prev, cand) {
				return true
			}
		}
	}
	return false
}

// spansConflict reports whether two text edits' spans overlap.
// Spans are treated as half-open intervals [Start, End). Two zero-length edits
// (Start == End) never conflict. A zero-length edit conflicts with a non-zero
// span if its position is strictly inside that span. For two non-zero spans,
// any overlap yields a conflict.
func spansConflict(a, b diag.TextEdit) bool {
	aStart, aEnd := a.Span.Start, a.Span.End
	bStart, bEnd := b.Span.Start, b.Span.End

	if aStart == aEnd && bStart == bEnd {
		return false
	}
	if aStart == aEnd {
		return bStart < aStart && aStart < bEnd
	}
	if bStart == bEnd {
		return aStart < bStart && bStart < aEnd
	}
	return aStart < bEnd && bStart < aEnd
}

func cumulativeDelta(edits []diag.TextEdit, pos int) int {
	delta := 0
	for _, e := range edits {
		eStart := int(e.Span.Start)
		if eStart > pos {
			break
		}
		eEnd := int(e.Span.End)
		length := eEnd - eStart
		change := len(e.NewText) - length
		if eEnd <= pos {
			delta += change
		}
	}
	return delta
}

func insertEditSorted(edits []diag.TextEdit, edit diag.TextEdit) []diag.TextEdit {
	insertIdx := sort.Search(len(edits), func(i int) bool {
		if edits[i].Span.Start == edit.Span.Start {
			return edits[i].Span.End >= edit.Span.End
		}
		return edits[i].Span.Start > edit.Span.Start
	})
	edits = append(edits, diag.TextEdit{})
	copy(edits[insertIdx+1:], edits[insertIdx:])
	edits[insertIdx] = edit
	return edits
}

func formatFilePath(fs *source.FileSet, fileID source.FileID) string {
	if fs == nil {
		return ""
	}
	file := fs.Get(fileID)
	if file == nil {
		return ""
	}
	return file.FormatPath("auto", fs.BaseDir())
}
