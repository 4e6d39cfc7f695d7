package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"erlfix/internal/diagnostics"
	"erlfix/internal/driver"
	"erlfix/internal/frontend"
	"erlfix/internal/observ"
	"erlfix/internal/oracle"
	"erlfix/internal/project"
)

// session is everything a command needs to analyze files.
type session struct {
	cfg     *project.Config
	driver  *driver.Driver
	metrics *observ.Metrics
	timer   *observ.Timer
	server  *observ.MetricsServer
}

func (s *session) close() {
	if s.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.server.Close(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "metrics: %v\n", err)
	}
}

// loadProjectConfig reads --config or looks for .erlfix.toml above the
// working directory.
func loadProjectConfig(cmd *cobra.Command) (*project.Config, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, err
	}
	if path != "" {
		return project.LoadConfig(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, _, err := project.Load(wd)
	return cfg, err
}

// rulesConfig merges [diagnostics] with the command line flags.
func rulesConfig(cmd *cobra.Command, cfg *project.Config) (diagnostics.Config, error) {
	flags := cmd.Root().PersistentFlags()
	out, err := cfg.DiagnosticsConfig()
	if err != nil {
		return diagnostics.Config{}, err
	}
	if experimental, _ := flags.GetBool("experimental"); experimental {
		out.Experimental = true
	}
	enable, err := flags.GetStringSlice("enable")
	if err != nil {
		return diagnostics.Config{}, err
	}
	if err := out.Enable(enable...); err != nil {
		return diagnostics.Config{}, fmt.Errorf("--enable: %w", err)
	}
	disable, err := flags.GetStringSlice("disable")
	if err != nil {
		return diagnostics.Config{}, err
	}
	if err := out.Disable(disable...); err != nil {
		return diagnostics.Config{}, fmt.Errorf("--disable: %w", err)
	}
	return out, nil
}

// newOracle builds the type checker, wrapped in the disk cache unless
// caching is off. A project without an oracle command gets nil.
func newOracle(cmd *cobra.Command, cfg *project.Config) (oracle.Checker, error) {
	flags := cmd.Root().PersistentFlags()
	command, err := flags.GetStringSlice("oracle")
	if err != nil {
		return nil, err
	}
	if len(command) == 0 {
		command = cfg.Oracle.Command
	}
	if len(command) == 0 {
		return nil, nil
	}
	checker, err := oracle.NewCommandChecker(command, cfg.Root)
	if err != nil {
		return nil, err
	}
	noCache, _ := flags.GetBool("no-oracle-cache")
	if noCache || !cfg.Oracle.Cache {
		return checker, nil
	}
	dir := cfg.Oracle.CacheDir
	if dir == "" {
		if dir, err = oracle.DefaultCacheDir("erlfix"); err != nil {
			return nil, fmt.Errorf("oracle cache: %w", err)
		}
	}
	cache, err := oracle.OpenDiskCache(dir)
	if err != nil {
		return nil, fmt.Errorf("oracle cache: %w", err)
	}
	return &oracle.CachedChecker{Next: checker, Cache: cache}, nil
}

func newParser(cmd *cobra.Command, cfg *project.Config) (frontend.Parser, error) {
	command, err := cmd.Root().PersistentFlags().GetStringSlice("frontend")
	if err != nil {
		return nil, err
	}
	if len(command) == 0 {
		command = cfg.Frontend.Command
	}
	p, err := frontend.NewCommandParser(command, cfg.Root)
	if errors.Is(err, frontend.ErrNoCommand) {
		return nil, fmt.Errorf("no parse service: set [frontend].command in %s or pass --frontend", project.ConfigName)
	}
	return p, err
}

// newSession wires config, rules, parser, oracle and metrics into a driver.
func newSession(cmd *cobra.Command, progress driver.ProgressSink) (*session, error) {
	cfg, err := loadProjectConfig(cmd)
	if err != nil {
		return nil, err
	}
	rules, err := rulesConfig(cmd, cfg)
	if err != nil {
		return nil, err
	}
	parser, err := newParser(cmd, cfg)
	if err != nil {
		return nil, err
	}
	checker, err := newOracle(cmd, cfg)
	if err != nil {
		return nil, err
	}
	flags := cmd.Root().PersistentFlags()
	jobs, err := flags.GetInt("jobs")
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, metrics: observ.NewMetrics()}
	if timings, _ := flags.GetBool("timings"); timings {
		s.timer = observ.NewTimer()
	}
	if addr, _ := flags.GetString("metrics-addr"); addr != "" {
		s.server, err = observ.ServeMetrics(cmd.Context(), addr, s.metrics)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(os.Stderr, "metrics on http://%s/metrics\n", s.server.Addr())
	}

	engine := diagnostics.NewEngine(rules, diagnostics.WithMetrics(s.metrics), diagnostics.WithParallelism(jobs))
	s.driver = driver.New(driver.Options{
		Parser:      parser,
		Engine:      engine,
		Oracle:      checker,
		OracleStats: cfg.Oracle.Stats,
		Snapshot:    cfg.SnapshotOptions(),
		Jobs:        jobs,
		Metrics:     s.metrics,
		Timer:       s.timer,
		Progress:    progress,
	})
	return s, nil
}
