package sema

import (
	"os"
	"path"
	"strings"
	"sync"

	"erlfix/internal/hir"
	"erlfix/internal/source"
)

// App is an OTP application: a name and its root directory.
type App struct {
	Name string
	Dir  string
}

// Snapshot is an in-memory DB. Files and modules are added before analysis
// starts; afterwards it is only read, except for the lazily built comment cache.
type Snapshot struct {
	fs         *source.FileSet
	classifier Classifier
	apps       []App
	modules    map[source.FileID]*hir.Module

	mu       sync.Mutex
	comments map[source.FileID][]hir.Comment
}

type Option func(*Snapshot)

func WithClassifier(c Classifier) Option {
	return func(s *Snapshot) { s.classifier = c }
}

// WithApps declares the project's applications. Without it the app of a file
// is inferred from its src/ or include/ parent directory.
func WithApps(apps ...App) Option {
	return func(s *Snapshot) {
		for _, a := range apps {
			a.Dir = strings.TrimSuffix(path.Clean(toSlash(a.Dir)), "/")
			s.apps = append(s.apps, a)
		}
	}
}

func NewSnapshot(fs *source.FileSet, opts ...Option) *Snapshot {
	s := &Snapshot{
		fs:         fs,
		classifier: DefaultClassifier(),
		modules:    make(map[source.FileID]*hir.Module),
		comments:   make(map[source.FileID][]hir.Comment),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetModule records the structural view of file.
func (s *Snapshot) SetModule(file source.FileID, m *hir.Module) {
	s.modules[file] = m
}

func (s *Snapshot) Files() *source.FileSet { return s.fs }

func (s *Snapshot) Module(file source.FileID) (*hir.Module, bool) {
	m, ok := s.modules[file]
	return m, ok && m != nil
}

func (s *Snapshot) Kind(file source.FileID) FileKind {
	f := s.fs.Get(file)
	if f == nil {
		return KindOther
	}
	return KindOf(f.Path)
}

func (s *Snapshot) IsGenerated(file source.FileID) bool {
	f := s.fs.Get(file)
	return f != nil && s.classifier.IsGenerated(f.Path, f.Content)
}

func (s *Snapshot) IsTest(file source.FileID) bool {
	f := s.fs.Get(file)
	return f != nil && s.classifier.IsTest(f.Path)
}

func (s *Snapshot) Comments(file source.FileID) []hir.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cs, ok := s.comments[file]; ok {
		return cs
	}
	f := s.fs.Get(file)
	if f == nil {
		return nil
	}
	cs := hir.ScanComments(file, f.Content)
	s.comments[file] = cs
	return cs
}

// ResolveInclude tries, in order: the including file's directory, the include/
// directory of its app, then the include/ directory of every known app. For
// include_lib the first path component names the app.
func (s *Snapshot) ResolveInclude(file source.FileID, inc *hir.IncludeAttribute) (source.FileID, bool) {
	for _, candidate := range s.includeCandidates(file, inc) {
		if id, ok := s.fs.GetLatest(candidate); ok {
			return id, true
		}
	}
	return 0, false
}

// IncludeCandidates lists on-disk paths an include may resolve to. Drivers use
// it to load headers before analysis.
func (s *Snapshot) IncludeCandidates(file source.FileID, inc *hir.IncludeAttribute) []string {
	return s.includeCandidates(file, inc)
}

// LoadIncludes loads the first existing candidate of every include of file
// that is not loaded yet. It mutates the FileSet and must not run concurrently
// with analysis.
func (s *Snapshot) LoadIncludes(file source.FileID) []source.FileID {
	m, ok := s.Module(file)
	if !ok {
		return nil
	}
	var loaded []source.FileID
	for _, inc := range m.Includes {
		if _, ok := s.ResolveInclude(file, inc); ok {
			continue
		}
		for _, candidate := range s.includeCandidates(file, inc) {
			if _, err := os.Stat(candidate); err != nil {
				continue
			}
			if id, err := s.fs.Load(candidate); err == nil {
				loaded = append(loaded, id)
				break
			}
		}
	}
	return loaded
}

func (s *Snapshot) includeCandidates(file source.FileID, inc *hir.IncludeAttribute) []string {
	f := s.fs.Get(file)
	if f == nil || inc == nil || inc.Path == "" {
		return nil
	}
	p := toSlash(inc.Path)
	if path.IsAbs(p) {
		return []string{path.Clean(p)}
	}
	var out []string
	if inc.Kind == hir.IncludeLib {
		appName, rest, ok := strings.Cut(p, "/")
		if ok {
			for _, app := range s.allApps() {
				if app.Name == appName {
					out = append(out, path.Join(app.Dir, rest))
				}
			}
		}
	}
	out = append(out, path.Join(path.Dir(toSlash(f.Path)), p))
	if app, ok := s.appOf(f.Path); ok {
		out = append(out, path.Join(app.Dir, "include", p))
	}
	for _, app := range s.allApps() {
		out = append(out, path.Join(app.Dir, "include", p))
	}
	return dedupStrings(out)
}

func (s *Snapshot) IncludeLibPath(file source.FileID) (string, bool) {
	f := s.fs.Get(file)
	if f == nil {
		return "", false
	}
	app, ok := s.appOf(f.Path)
	if !ok {
		return "", false
	}
	rel := strings.TrimPrefix(toSlash(f.Path), app.Dir+"/")
	if rel == toSlash(f.Path) {
		return "", false
	}
	return app.Name + "/" + rel, true
}

// appOf returns the declared app containing p, or infers one from the parent
// of a src/ or include/ directory.
func (s *Snapshot) appOf(p string) (App, bool) {
	p = toSlash(p)
	var best App
	for _, app := range s.apps {
		if strings.HasPrefix(p, app.Dir+"/") && len(app.Dir) > len(best.Dir) {
			best = app
		}
	}
	if best.Dir != "" {
		return best, true
	}
	return inferApp(p)
}

func inferApp(p string) (App, bool) {
	dir := path.Dir(p)
	for dir != "." && dir != "/" && dir != "" {
		switch path.Base(dir) {
		case "src", "include", "test":
			root := path.Dir(dir)
			name := path.Base(root)
			if name == "." || name == "/" {
				return App{}, false
			}
			// app-1.2.3 -> app
			if i := strings.IndexByte(name, '-'); i > 0 {
				name = name[:i]
			}
			return App{Name: name, Dir: root}, true
		}
		dir = path.Dir(dir)
	}
	return App{}, false
}

// allApps returns declared apps, or apps inferred from loaded files.
func (s *Snapshot) allApps() []App {
	if len(s.apps) > 0 {
		return s.apps
	}
	seen := make(map[string]bool)
	var out []App
	for i := 0; i < s.fs.Len(); i++ {
		f := s.fs.Get(source.FileID(i)) //nolint:gosec // bounded by Len
		if f == nil {
			continue
		}
		if app, ok := inferApp(toSlash(f.Path)); ok && !seen[app.Dir] {
			seen[app.Dir] = true
			out = append(out, app)
		}
	}
	return out
}

func toSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

func dedupStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
