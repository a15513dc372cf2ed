package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/google/angle-sub000/internal/buildpipeline"
	"github.com/google/angle-sub000/internal/driver"
	"github.com/google/angle-sub000/internal/trace"
)

var buildCmd = &cobra.Command{
	Use:   "build [paths...]",
	Short: "Build scripts into IR",
	Long:  "Build *.irs.toml and *.irs.msgpack scripts, given as files or directories searched recursively, and print a summary of each.",
	RunE:  buildExecution,
}

var (
	statusOK     = color.New(color.FgGreen, color.Bold)
	statusCached = color.New(color.FgCyan)
	statusFailed = color.New(color.FgRed, color.Bold)
)

// buildFlags are the persistent flags shared by the commands that build scripts.
type buildFlags struct {
	quiet   bool
	timings bool
	jobs    int
	ui      autoSwitch
	cache   bool
}

func readBuildFlags(cmd *cobra.Command) (buildFlags, error) {
	var f buildFlags
	flags := cmd.Root().PersistentFlags()
	var err error
	if f.quiet, err = flags.GetBool("quiet"); err != nil {
		return f, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if f.timings, err = flags.GetBool("timings"); err != nil {
		return f, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if f.jobs, err = flags.GetInt("jobs"); err != nil {
		return f, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	uiValue, err := flags.GetString("ui")
	if err != nil {
		return f, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if f.ui, err = parseSwitch("ui", uiValue); err != nil {
		return f, err
	}
	cache, err := flags.GetBool("cache")
	if err != nil {
		return f, fmt.Errorf("failed to get cache flag: %w", err)
	}
	noCache, err := flags.GetBool("no-cache")
	if err != nil {
		return f, fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	f.cache = cache && !noCache
	return f, nil
}

func openCache(enabled bool, errOut io.Writer) *driver.DiskCache {
	if !enabled {
		return nil
	}
	cache, err := driver.OpenDiskCache("angleir")
	if err != nil {
		// Building without a cache is still correct.
		fmt.Fprintf(errOut, "warning: build cache disabled: %v\n", err)
		return nil
	}
	return cache
}

func buildExecution(cmd *cobra.Command, args []string) error {
	flags, err := readBuildFlags(cmd)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		args = []string{"."}
	}

	req := &buildpipeline.CompileRequest{
		Paths: args,
		Jobs:  flags.jobs,
		Cache: openCache(flags.cache, cmd.ErrOrStderr()),
	}
	if len(args) == 1 {
		if abs, err := filepath.Abs(args[0]); err == nil {
			req.BaseDir = abs
		}
	}

	files, err := buildpipeline.ListFiles(req)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	var res buildpipeline.CompileResult
	if useProgressView(flags.ui, flags.quiet, len(files)) {
		res, err = compileWithProgress(ctx, "angleir build", files, *req)
	} else {
		res, err = buildpipeline.Compile(ctx, req)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printBuildSummary(out, res, flags.quiet)
	if flags.timings {
		printStageTimings(out, res.Timings)
		fmt.Fprintf(out, "total %.1f ms over %d scripts\n", res.Report.TotalMS, len(res.Results))
	}
	if failed := res.Failed(); failed > 0 {
		dumpTraceRing(trace.FromContext(ctx), cmd.ErrOrStderr())
		return fmt.Errorf("%d of %d scripts failed", failed, len(res.Results))
	}
	return nil
}

// printBuildSummary prints one line per script. Quiet output lists failures only.
func printBuildSummary(out io.Writer, res buildpipeline.CompileResult, quiet bool) {
	for i, r := range res.Results {
		name := res.Files[i]
		switch {
		case r.Err != nil:
			fmt.Fprintf(out, "%s %s: %v\n", statusFailed.Sprint("error"), name, r.Err)
		case quiet:
		default:
			status := statusOK.Sprint("ok")
			if r.Cached {
				status = statusCached.Sprint("cached")
			}
			fmt.Fprintf(out, "%s %s [%s] %d functions, %d blocks, %d instructions, %d constants\n",
				status, name, r.Stage, r.Stats.Functions, r.Stats.Blocks, r.Stats.Instructions, r.Stats.Constants)
		}
	}
}

// buildSingle builds one script and keeps its IR.
func buildSingle(cmd *cobra.Command, path string) (driver.Result, error) {
	if _, err := os.Stat(path); err != nil {
		return driver.Result{}, err
	}
	res := driver.BuildScript(cmd.Context(), path, driver.Options{KeepIR: true})
	timings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return res, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if timings {
		fmt.Fprint(cmd.ErrOrStderr(), res.Timing.Summary())
	}
	if res.Err != nil {
		dumpTraceRing(trace.FromContext(cmd.Context()), cmd.ErrOrStderr())
		return res, fmt.Errorf("%s: %w", path, res.Err)
	}
	return res, nil
}
