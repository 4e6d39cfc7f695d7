package lsp

import (
	"net/url"
	"path/filepath"
	"strings"
)

// uriToPath returns the absolute local path of a file: URI, or "" for any
// other scheme. Bare paths are accepted for clients that omit the scheme.
func uriToPath(uri string) string {
	if uri == "" {
		return ""
	}
	path := uri
	if strings.Contains(uri, "://") || strings.HasPrefix(uri, "file:") {
		u, err := url.Parse(uri)
		if err != nil || u.Scheme != "file" {
			return ""
		}
		// url.Parse already unescaped Path
		path = u.Path
		if isDrivePath(path) {
			path = path[1:]
		}
	} else if i := strings.IndexByte(uri, ':'); i > 1 && !strings.ContainsAny(uri[:i], `/\`) {
		// untitled:Untitled-1 and friends
		return ""
	}
	abs, err := filepath.Abs(filepath.FromSlash(path))
	if err != nil {
		return filepath.FromSlash(path)
	}
	return abs
}

// isDrivePath matches the `/C:/...` form Windows clients send.
func isDrivePath(p string) bool {
	return len(p) >= 3 && p[0] == '/' && p[2] == ':' &&
		(p[1] >= 'a' && p[1] <= 'z' || p[1] >= 'A' && p[1] <= 'Z')
}

func pathToURI(path string) string {
	if path == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	slashed := filepath.ToSlash(path)
	if !strings.HasPrefix(slashed, "/") {
		slashed = "/" + slashed
	}
	return (&url.URL{Scheme: "file", Path: slashed}).String()
}

// canonicalURI maps differently escaped spellings of one file to the same
// document key. Other schemes are kept verbatim.
func canonicalURI(uri string) string {
	if path := uriToPath(uri); path != "" {
		return pathToURI(path)
	}
	return uri
}
