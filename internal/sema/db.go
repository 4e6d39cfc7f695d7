// Package sema answers the semantic questions rules ask about a file: what
// kind of file it is, where its includes point, and how variables bind.
package sema

import (
	"path/filepath"
	"strings"

	"erlfix/internal/hir"
	"erlfix/internal/source"
)

type FileKind uint8

const (
	KindOther FileKind = iota
	KindModule
	KindHeader
	KindEscript
)

func (k FileKind) String() string {
	switch k {
	case KindModule:
		return "module"
	case KindHeader:
		return "header"
	case KindEscript:
		return "escript"
	}
	return "other"
}

// KindOf classifies a path by extension.
func KindOf(path string) FileKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".erl":
		return KindModule
	case ".hrl":
		return KindHeader
	case ".escript":
		return KindEscript
	}
	return KindOther
}

// DB is the read-only semantic view rules run against. Implementations must be
// safe for concurrent readers.
type DB interface {
	Files() *source.FileSet
	Module(file source.FileID) (*hir.Module, bool)
	Kind(file source.FileID) FileKind
	IsGenerated(file source.FileID) bool
	IsTest(file source.FileID) bool
	Comments(file source.FileID) []hir.Comment
	// ResolveInclude finds the file an include attribute of file refers to.
	ResolveInclude(file source.FileID, inc *hir.IncludeAttribute) (source.FileID, bool)
	// IncludeLibPath returns the app-qualified path ("app/include/x.hrl") of file.
	IncludeLibPath(file source.FileID) (string, bool)
}

// EnclosingFunction returns the function of file whose definition contains off.
func EnclosingFunction(db DB, file source.FileID, off uint32) *hir.FunctionDef {
	m, ok := db.Module(file)
	if !ok {
		return nil
	}
	return m.FunctionAt(off)
}
