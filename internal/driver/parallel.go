package driver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/google/angle-sub000/internal/ir"
	"github.com/google/angle-sub000/internal/observ"
	"github.com/google/angle-sub000/internal/script"
	"github.com/google/angle-sub000/internal/trace"
	"github.com/google/angle-sub000/internal/version"
)

// Options configure BuildAll.
type Options struct {
	// Jobs bounds the number of scripts built at once; <= 0 uses GOMAXPROCS.
	Jobs int
	// Cache, if set, serves and stores build summaries.
	Cache *DiskCache
	// KeepIR keeps the built IR in the results. Cached results never have one.
	KeepIR bool
	// Observer receives the phase events of every script.
	Observer PhaseObserver
}

// Result is the outcome of building one script.
type Result struct {
	Path   string
	Stage  string
	Stats  ir.Stats
	IR     *ir.IR
	Cached bool
	Err    error
	Timing observ.Report
}

// ListScripts expands paths into the scripts to build: files are taken as given and directories
// are walked for *.irs.toml and *.irs.msgpack files. The result is sorted and deduplicated.
func ListScripts(paths []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	add := func(path string) {
		path = filepath.Clean(path)
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && script.IsScript(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	// Sorted for a deterministic order
	sort.Strings(files)
	return files, nil
}

// BuildAll builds the scripts in parallel. A script that fails to load or build records its
// error in its Result; the returned error is only set when ctx is canceled.
func BuildAll(ctx context.Context, paths []string, opts Options) ([]Result, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "build_all", trace.Parent(ctx))
	defer span.End(fmt.Sprintf("%d scripts", len(paths)))
	ctx = trace.WithParent(ctx, span.ID())

	// Each goroutine writes only its own index
	results := make([]Result, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))
	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = BuildScript(gctx, path, opts)
			if errors.Is(results[i].Err, context.Canceled) {
				return results[i].Err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// BuildScript loads, builds and validates one script.
func BuildScript(ctx context.Context, path string, opts Options) (res Result) {
	res = Result{Path: path}
	timer := observ.NewTimer()
	start := time.Now()
	defer func() {
		res.Timing = timer.Report()
		opts.Observer.emit(PhaseEvent{
			Path:    path,
			Name:    PhaseDone,
			Status:  PhaseEnd,
			Err:     res.Err,
			Elapsed: time.Since(start),
			Cached:  res.Cached,
		})
	}()

	phase := func(name string, fn func() error) error {
		opts.Observer.emit(PhaseEvent{Path: path, Name: name, Status: PhaseStart})
		idx := timer.Begin(name)
		err := fn()
		timer.End(idx, "")
		opts.Observer.emit(PhaseEvent{Path: path, Name: name, Status: PhaseEnd, Err: err, Elapsed: timer.Duration(idx)})
		return err
	}

	var (
		content []byte
		key     Digest
		s       *script.Script
	)
	err := phase(PhaseLoad, func() error {
		var err error
		content, err = os.ReadFile(path)
		if err != nil {
			return err
		}
		key = combineDigest(hashContent(content), fmt.Sprint(diskCacheSchemaVersion), version.String())

		if opts.Cache != nil && !opts.KeepIR {
			var payload DiskPayload
			if ok, err := opts.Cache.Get(key, &payload); err == nil && ok {
				res.Cached = true
				res.Stage = payload.Stage
				res.Stats = payload.Stats
				if payload.Err != "" {
					res.Err = errors.New(payload.Err)
				}
				return nil
			}
		}

		s, err = script.Decode(content, path)
		if err == nil {
			res.Stage = s.Shader.Stage
		}
		return err
	})
	if err != nil {
		res.Err = err
		return res
	}
	if res.Cached {
		return res
	}

	var built *ir.IR
	err = phase(PhaseBuild, func() error {
		var err error
		built, err = script.Build(ctx, s)
		return err
	})
	if err == nil {
		err = phase(PhaseValidate, func() error { return ir.Validate(built) })
	}
	if err != nil {
		res.Err = err
	} else {
		res.Stats = built.Stats()
		if opts.KeepIR {
			res.IR = built
		}
	}

	if opts.Cache != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		payload := &DiskPayload{Path: path, Stage: res.Stage, Stats: res.Stats}
		if err != nil {
			payload.Err = err.Error()
		}
		// Cache write failures are ignored.
		_ = opts.Cache.Put(key, payload)
	}
	return res
}
