// Package safety decides whether a matched occurrence may be rewritten.
// A rejected match produces neither a fix nor a diagnostic.
package safety

import (
	"errors"
	"fmt"

	"erlfix/internal/fold"
	"erlfix/internal/hir"
	"erlfix/internal/sema"
	"erlfix/internal/source"
)

var (
	ErrCrossFile      = errors.New("match resolves into another file")
	ErrCommentInRange = errors.New("range contains a comment")
	ErrInMacro        = errors.New("match comes from a macro expansion")
)

// Check verifies that span belongs to file and covers no comment.
func Check(db sema.DB, file source.FileID, span source.Span) error {
	if span.File != file {
		return fmt.Errorf("%w: %d != %d", ErrCrossFile, span.File, file)
	}
	if cs := hir.CommentsIn(db.Comments(file), span); len(cs) > 0 {
		return fmt.Errorf("%w: %q at %v", ErrCommentInRange, cs[0].Text, cs[0].Span)
	}
	return nil
}

// CheckNode additionally rejects nodes that were produced by macro expansion.
func CheckNode(db sema.DB, file source.FileID, ctx fold.Ctx) error {
	if ctx.InMacro {
		return ErrInMacro
	}
	return Check(db, file, ctx.Span())
}

// CheckAll checks every span; the first failure wins.
func CheckAll(db sema.DB, file source.FileID, spans ...source.Span) error {
	for _, sp := range spans {
		if err := Check(db, file, sp); err != nil {
			return err
		}
	}
	return nil
}
