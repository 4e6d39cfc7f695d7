package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"erlfix/internal/diagnostics"
	"erlfix/internal/sema"
)

var (
	// ErrUnknownKey indicates a key in .erlfix.toml that no section understands.
	ErrUnknownKey = errors.New("unknown key")
	// ErrAppDirMissing indicates a [[project.apps]] entry without dir.
	ErrAppDirMissing = errors.New("missing [[project.apps]].dir")
)

// Config is the decoded .erlfix.toml. Root is the directory holding it; for a
// project without a config file it is the start directory.
type Config struct {
	Path string `toml:"-"`
	Root string `toml:"-"`

	Diagnostics DiagnosticsSection `toml:"diagnostics"`
	Project     ProjectSection     `toml:"project"`
	Frontend    FrontendSection    `toml:"frontend"`
	Oracle      OracleSection      `toml:"oracle"`

	meta toml.MetaData
}

type DiagnosticsSection struct {
	Experimental bool     `toml:"experimental"`
	Enabled      []string `toml:"enabled"`
	Disabled     []string `toml:"disabled"`
}

type ProjectSection struct {
	Test      []string     `toml:"test"`
	Generated []string     `toml:"generated"`
	Apps      []AppSection `toml:"apps"`
}

// AppSection declares one application. Dir is relative to the project root.
type AppSection struct {
	Name string `toml:"name"`
	Dir  string `toml:"dir"`
}

// FrontendSection names the parse service: a command that gets the file path
// as its last argument and the content on stdin.
type FrontendSection struct {
	Command []string `toml:"command"`
}

type OracleSection struct {
	Command  []string `toml:"command"`
	Cache    bool     `toml:"cache"`
	CacheDir string   `toml:"cache_dir"`
	Stats    bool     `toml:"stats"`
}

// Default is the configuration of a project without .erlfix.toml.
func Default(root string) *Config {
	return &Config{Root: root, Oracle: OracleSection{Cache: true}}
}

// LoadConfig parses one .erlfix.toml.
func LoadConfig(path string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	cfg := Default(filepath.Dir(abs))
	cfg.Path = abs
	meta, err := toml.DecodeFile(abs, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", abs, err)
	}
	cfg.meta = meta
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("%s: %w: %s", abs, ErrUnknownKey, strings.Join(keys, ", "))
	}
	for i, app := range cfg.Project.Apps {
		if strings.TrimSpace(app.Dir) == "" {
			return nil, fmt.Errorf("%s: %w (entry %d)", abs, ErrAppDirMissing, i+1)
		}
	}
	if _, err := cfg.DiagnosticsConfig(); err != nil {
		return nil, fmt.Errorf("%s: %w", abs, err)
	}
	return cfg, nil
}

// Load finds .erlfix.toml above startDir. Without one, defaults rooted at
// startDir are returned and found is false.
func Load(startDir string) (cfg *Config, found bool, err error) {
	path, ok, err := FindConfig(startDir)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		root, err := filepath.Abs(startDir)
		if err != nil {
			return nil, false, fmt.Errorf("failed to resolve start directory: %w", err)
		}
		return Default(root), false, nil
	}
	cfg, err = LoadConfig(path)
	if err != nil {
		return nil, true, err
	}
	return cfg, true, nil
}

// IsDefined reports whether the file set key explicitly.
func (c *Config) IsDefined(key ...string) bool {
	return c.Path != "" && c.meta.IsDefined(key...)
}

// DiagnosticsConfig turns [diagnostics] into rule selection.
func (c *Config) DiagnosticsConfig() (diagnostics.Config, error) {
	out := diagnostics.DefaultConfig()
	out.Experimental = c.Diagnostics.Experimental
	if err := out.Enable(c.Diagnostics.Enabled...); err != nil {
		return diagnostics.Config{}, fmt.Errorf("[diagnostics].enabled: %w", err)
	}
	if err := out.Disable(c.Diagnostics.Disabled...); err != nil {
		return diagnostics.Config{}, fmt.Errorf("[diagnostics].disabled: %w", err)
	}
	return out, nil
}

// Classifier uses the configured globs; an absent key keeps the default list,
// an explicitly empty one turns the check off.
func (c *Config) Classifier() sema.Classifier {
	out := sema.DefaultClassifier()
	if c.IsDefined("project", "test") {
		out.TestGlobs = c.Project.Test
	}
	if c.IsDefined("project", "generated") {
		out.GeneratedGlobs = c.Project.Generated
	}
	return out
}

// Apps resolves [[project.apps]] against Root. An app without a name takes
// the base name of its directory.
func (c *Config) Apps() []sema.App {
	apps := make([]sema.App, 0, len(c.Project.Apps))
	for _, a := range c.Project.Apps {
		dir := filepath.FromSlash(a.Dir)
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(c.Root, dir)
		}
		name := a.Name
		if name == "" {
			name = filepath.Base(dir)
		}
		apps = append(apps, sema.App{Name: name, Dir: dir})
	}
	return apps
}

// SnapshotOptions configures a sema.Snapshot for this project.
func (c *Config) SnapshotOptions() []sema.Option {
	opts := []sema.Option{sema.WithClassifier(c.Classifier())}
	if apps := c.Apps(); len(apps) > 0 {
		opts = append(opts, sema.WithApps(apps...))
	}
	return opts
}
