// Package buildpipeline runs script builds for the CLI and reports their progress.
package buildpipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/angle-sub000/internal/driver"
	"github.com/google/angle-sub000/internal/observ"
)

// CompileRequest configures the shared build pipeline.
type CompileRequest struct {
	// Paths are script files or directories searched for scripts.
	Paths []string
	// BaseDir shortens the file names reported to Progress.
	BaseDir  string
	Jobs     int
	Cache    *driver.DiskCache
	KeepIR   bool
	Progress ProgressSink
}

// CompileResult captures the per-script results and stage timings.
type CompileResult struct {
	// Files are the display names of the scripts, in the order of Results.
	Files   []string
	Results []driver.Result
	Timings Timings
	// Report merges the phase timings of every script that was built.
	Report observ.Report
}

// Failed counts the scripts that did not build.
func (r CompileResult) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

// ListFiles returns the display names of the scripts req would build, so a progress view can
// be laid out before Compile starts.
func ListFiles(req *CompileRequest) ([]string, error) {
	if req == nil {
		return nil, fmt.Errorf("missing compile request")
	}
	paths, err := driver.ListScripts(req.Paths)
	if err != nil {
		return nil, err
	}
	files, _ := normalizeProgressFiles(paths, progressRootDir(req))
	return files, nil
}

// Compile builds every script under req.Paths. Per-script failures are reported in the
// results; the returned error covers bad requests, unreadable paths and cancellation.
func Compile(ctx context.Context, req *CompileRequest) (CompileResult, error) {
	var result CompileResult
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		return result, fmt.Errorf("missing compile request")
	}
	if len(req.Paths) == 0 {
		return result, fmt.Errorf("missing target path")
	}

	paths, err := driver.ListScripts(req.Paths)
	if err != nil {
		emitStage(req.Progress, StageLoad, StatusError, err, 0)
		return result, err
	}
	if len(paths) == 0 {
		return result, fmt.Errorf("no scripts found in %v", req.Paths)
	}
	files, names := normalizeProgressFiles(paths, progressRootDir(req))
	emitQueued(req.Progress, files)

	observer := &phaseObserver{sink: req.Progress, names: names}
	start := time.Now()
	emitStage(req.Progress, StageLoad, StatusWorking, nil, 0)
	results, err := driver.BuildAll(ctx, paths, driver.Options{
		Jobs:     req.Jobs,
		Cache:    req.Cache,
		KeepIR:   req.KeepIR,
		Observer: observer.OnPhase,
	})

	result.Results = results
	result.Files = make([]string, len(paths))
	for i, path := range paths {
		result.Files[i] = names[path]
	}
	for _, res := range results {
		result.Report = result.Report.Merge(res.Timing)
	}
	recordTimings(&result.Timings, result.Report)

	if err != nil {
		emitStage(req.Progress, StageBuild, StatusError, err, time.Since(start))
		return result, err
	}
	status := StatusDone
	if result.Failed() > 0 {
		status = StatusError
	}
	emitStage(req.Progress, StageValidate, status, nil, time.Since(start))
	return result, nil
}

type phaseObserver struct {
	sink  ProgressSink
	names map[string]string
}

// OnPhase turns the driver's phase events into per-file progress events.
func (p *phaseObserver) OnPhase(ev driver.PhaseEvent) {
	if p == nil || p.sink == nil {
		return
	}
	file := p.names[ev.Path]
	if file == "" {
		file = ev.Path
	}
	if ev.Name == driver.PhaseDone {
		status := StatusDone
		if ev.Err != nil {
			status = StatusError
		}
		p.sink.OnEvent(Event{File: file, Stage: StageValidate, Status: status, Err: ev.Err, Elapsed: ev.Elapsed, Cached: ev.Cached})
		return
	}
	if ev.Status == driver.PhaseStart {
		p.sink.OnEvent(Event{File: file, Stage: Stage(ev.Name), Status: StatusWorking})
	}
}

func recordTimings(timings *Timings, report observ.Report) {
	for _, phase := range report.Phases {
		timings.Add(Stage(phase.Name), durationFromMillis(phase.DurationMS))
	}
}

func durationFromMillis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

func emitQueued(sink ProgressSink, files []string) {
	if sink == nil {
		return
	}
	for _, file := range files {
		sink.OnEvent(Event{File: file, Stage: StageLoad, Status: StatusQueued})
	}
}

// emitStage reports a pipeline-wide event.
func emitStage(sink ProgressSink, stage Stage, status Status, err error, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{Stage: stage, Status: status, Err: err, Elapsed: elapsed})
}
