package driver

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// skippedDirs are never descended into when walking a directory.
var skippedDirs = map[string]struct{}{
	"_build":     {},
	"_checkouts": {},
	"deps":       {},
}

// IsErlangSource reports whether path names a module or a header.
func IsErlangSource(path string) bool {
	switch filepath.Ext(path) {
	case ".erl", ".hrl":
		return true
	}
	return false
}

// Discover expands paths into a sorted, duplicate-free list of Erlang files.
// Files named explicitly are kept whatever their extension.
func Discover(paths []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	add := func(p string) {
		abs, err := filepath.Abs(p)
		if err == nil {
			p = abs
		}
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %q: %w", root, err)
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				name := d.Name()
				if path != root && (strings.HasPrefix(name, ".") || isSkipped(name)) {
					return filepath.SkipDir
				}
				return nil
			}
			if IsErlangSource(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	// сортируем для детерминированного порядка
	sort.Strings(files)
	return files, nil
}

func isSkipped(name string) bool {
	_, ok := skippedDirs[name]
	return ok
}
