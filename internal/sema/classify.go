package sema

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// GeneratedMarker in the head of a file marks it as generated.
const GeneratedMarker = "@" + "generated"

// generatedScanLimit bounds how much of a file is searched for the marker.
const generatedScanLimit = 2048

var (
	DefaultTestGlobs      = []string{"**/test/**", "**/*_SUITE.erl", "**/*_tests.erl"}
	DefaultGeneratedGlobs = []string{"**/_build/**"}
)

// Classifier decides whether a path is a test or a generated file.
type Classifier struct {
	TestGlobs      []string
	GeneratedGlobs []string
}

func DefaultClassifier() Classifier {
	return Classifier{
		TestGlobs:      DefaultTestGlobs,
		GeneratedGlobs: DefaultGeneratedGlobs,
	}
}

func (c Classifier) IsTest(path string) bool {
	return matchAny(c.TestGlobs, path)
}

func (c Classifier) IsGenerated(path string, content []byte) bool {
	if matchAny(c.GeneratedGlobs, path) {
		return true
	}
	head := content
	if len(head) > generatedScanLimit {
		head = head[:generatedScanLimit]
	}
	return bytes.Contains(head, []byte(GeneratedMarker))
}

func matchAny(patterns []string, path string) bool {
	path = strings.TrimPrefix(filepath.ToSlash(path), "/")
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}
