// Package driver runs the per-file analysis pipeline: parse, rules, oracle,
// merge and sort. Parsing and header loading mutate the FileSet and therefore
// run one file at a time; rule evaluation then runs in parallel.
package driver

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"erlfix/internal/diag"
	"erlfix/internal/diagnostics"
	"erlfix/internal/frontend"
	"erlfix/internal/observ"
	"erlfix/internal/oracle"
	"erlfix/internal/sema"
	"erlfix/internal/source"
	"erlfix/internal/trace"
)

// ErrNoParser is returned when the driver has no parse service to ask.
var ErrNoParser = errors.New("no parse service configured")

// Options configures a Driver. Only Parser is required.
type Options struct {
	Parser  frontend.Parser
	Engine  *diagnostics.Engine
	Oracle  oracle.Checker
	Adapter *oracle.Adapter
	// OracleStats adds the escape-hatch statistics to every file.
	OracleStats bool
	Snapshot    []sema.Option
	Jobs        int
	Metrics     *observ.Metrics
	Timer       *observ.Timer
	Progress    ProgressSink
}

type Driver struct {
	opts Options
}

func New(opts Options) *Driver {
	if opts.Engine == nil {
		opts.Engine = diagnostics.NewEngine(diagnostics.DefaultConfig(), diagnostics.WithMetrics(opts.Metrics))
	}
	if opts.Adapter == nil {
		opts.Adapter = oracle.NewAdapter()
	}
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.GOMAXPROCS(0)
	}
	return &Driver{opts: opts}
}

// Engine returns the rule engine the driver runs.
func (d *Driver) Engine() *diagnostics.Engine {
	return d.opts.Engine
}

// FileResult is the outcome for one analysed file. Err is set when the file
// could not be parsed; such a file has no diagnostics.
type FileResult struct {
	Path        string
	File        source.FileID
	Version     int32
	Diagnostics []diag.Diagnostic
	// OracleErr records a failed oracle run; rule diagnostics are still valid.
	OracleErr error
	Err       error
}

// Result holds everything one run produced. DB stays usable for fix
// application and code actions.
type Result struct {
	FileSet *source.FileSet
	DB      *sema.Snapshot
	Files   []FileResult
}

// Diagnostics merges the diagnostics of every file in canonical order.
func (r *Result) Diagnostics() []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, f := range r.Files {
		out = append(out, f.Diagnostics...)
	}
	diag.Sort(out)
	return out
}

// Failed lists the files that could not be parsed.
func (r *Result) Failed() []FileResult {
	var out []FileResult
	for _, f := range r.Files {
		if f.Err != nil {
			out = append(out, f)
		}
	}
	return out
}

// Source is one in-memory document handed to AnalyzeSource.
type Source struct {
	Path    string
	Content []byte
	Version int32
}

// AnalyzeSource checks one document without touching the disk, except for
// the headers it includes.
func (d *Driver) AnalyzeSource(ctx context.Context, src Source) (FileResult, *Result, error) {
	fs := source.NewFileSet()
	file := fs.AddRaw(src.Path, src.Content, source.FileVirtual)
	res, err := d.analyze(ctx, fs, []source.FileID{file}, map[source.FileID]int32{file: src.Version})
	if err != nil {
		return FileResult{}, nil, err
	}
	return res.Files[0], res, nil
}

// AnalyzePaths loads every .erl and .hrl file under paths and checks them.
func (d *Driver) AnalyzePaths(ctx context.Context, paths []string) (*Result, error) {
	files, err := Discover(paths)
	if err != nil {
		return nil, err
	}
	fs := source.NewFileSet()
	ids := make([]source.FileID, 0, len(files))
	loadIdx := d.begin("load")
	for _, path := range files {
		id, err := fs.Load(path)
		if err != nil {
			d.end(loadIdx, err.Error())
			return nil, err
		}
		ids = append(ids, id)
	}
	d.end(loadIdx, strconv.Itoa(len(ids))+" files")
	return d.analyze(ctx, fs, ids, nil)
}

func (d *Driver) begin(name string) int {
	if d.opts.Timer == nil {
		return -1
	}
	return d.opts.Timer.Begin(name)
}

func (d *Driver) end(idx int, note string) {
	if d.opts.Timer == nil || idx < 0 {
		return
	}
	d.opts.Timer.End(idx, note)
}

func (d *Driver) analyze(ctx context.Context, fs *source.FileSet, files []source.FileID, versions map[source.FileID]int32) (*Result, error) {
	if d.opts.Parser == nil {
		return nil, ErrNoParser
	}
	tr := trace.FromContext(ctx)
	ctx, run := trace.Start(ctx, trace.ScopeDriver, "analyze")
	defer run.End("")

	db := sema.NewSnapshot(fs, d.opts.Snapshot...)
	res := &Result{FileSet: fs, DB: db, Files: make([]FileResult, len(files))}
	for i, id := range files {
		res.Files[i] = FileResult{Path: fs.Get(id).Path, File: id, Version: versions[id]}
		emit(d.opts.Progress, res.Files[i].Path, StageParse, StatusQueued, nil, 0)
	}

	// parsing and include loading add files to fs, so they stay sequential
	parseIdx := d.begin("parse")
	parsed := 0
	for i := range res.Files {
		if err := ctx.Err(); err != nil {
			d.end(parseIdx, "canceled")
			return nil, err
		}
		fr := &res.Files[i]
		emit(d.opts.Progress, fr.Path, StageParse, StatusWorking, nil, 0)
		start := time.Now()
		m, err := d.opts.Parser.Parse(ctx, fs, fr.File)
		if err != nil {
			fr.Err = fmt.Errorf("parse %s: %w", fr.Path, err)
			trace.Point(tr, trace.ScopeFile, "parse_failed", err.Error(), run.ID(), map[string]string{"file": fr.Path})
			emit(d.opts.Progress, fr.Path, StageParse, StatusError, fr.Err, time.Since(start))
			continue
		}
		db.SetModule(fr.File, m)
		db.LoadIncludes(fr.File)
		parsed++
	}
	d.end(parseIdx, fmt.Sprintf("%d/%d files", parsed, len(res.Files)))

	analyzeIdx := d.begin("analyze")
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(d.opts.Jobs, max(len(res.Files), 1)))
	for i := range res.Files {
		if res.Files[i].Err != nil {
			continue
		}
		g.Go(func() error {
			return d.analyzeFile(gctx, db, &res.Files[i])
		})
	}
	err := g.Wait()
	d.end(analyzeIdx, "")
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (d *Driver) analyzeFile(ctx context.Context, db *sema.Snapshot, fr *FileResult) error {
	tr := trace.FromContext(ctx)
	ctx, span := trace.Start(ctx, trace.ScopeFile, fr.Path)
	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		d.opts.Metrics.ObserveFile(elapsed)
		span.WithExtra("diagnostics", strconv.Itoa(len(fr.Diagnostics))).End("")
	}()

	emit(d.opts.Progress, fr.Path, StageAnalyze, StatusWorking, nil, 0)
	diags, err := d.opts.Engine.Run(ctx, db, fr.File)
	if err != nil {
		emit(d.opts.Progress, fr.Path, StageAnalyze, StatusError, err, time.Since(start))
		return err
	}

	var checked []diag.Diagnostic
	if d.opts.Oracle != nil {
		emit(d.opts.Progress, fr.Path, StageOracle, StatusWorking, nil, 0)
		f := db.Files().Get(fr.File)
		ods, err := d.opts.Oracle.Check(ctx, f.Path, f.Content)
		switch {
		case err != nil && ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			fr.OracleErr = err
			trace.Point(tr, trace.ScopeFile, "oracle_failed", err.Error(), span.ID(), map[string]string{"file": fr.Path})
		default:
			checked = d.opts.Adapter.ConvertAll(db, fr.File, ods)
		}
	}
	if d.opts.OracleStats {
		checked = append(checked, oracle.Stats(db, fr.File)...)
	}
	for _, cd := range diagnostics.Annotate(db, fr.File, checked, d.opts.Metrics) {
		d.opts.Metrics.Reported(cd.Code.ID())
		diags = append(diags, cd)
	}

	diag.Sort(diags)
	fr.Diagnostics = diags
	emit(d.opts.Progress, fr.Path, StageAnalyze, StatusDone, nil, time.Since(start))
	return nil
}
