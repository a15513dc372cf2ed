package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/google/angle-sub000/internal/trace"
)

type traceFlags struct {
	output    string
	level     trace.Level
	mode      trace.StorageMode
	ringSize  int
	heartbeat time.Duration
}

func readTraceFlags(cmd *cobra.Command) (traceFlags, error) {
	var f traceFlags
	flags := cmd.Root().PersistentFlags()
	var err error
	if f.output, err = flags.GetString("trace"); err != nil {
		return f, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelName, err := flags.GetString("trace-level")
	if err != nil {
		return f, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	if f.level, err = trace.ParseLevel(levelName); err != nil {
		return f, err
	}
	modeName, err := flags.GetString("trace-mode")
	if err != nil {
		return f, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	if f.mode, err = trace.ParseMode(modeName); err != nil {
		return f, err
	}
	if f.ringSize, err = flags.GetInt("trace-ring-size"); err != nil {
		return f, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	if f.heartbeat, err = flags.GetDuration("trace-heartbeat"); err != nil {
		return f, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}
	// A file given without a level traces script boundaries.
	if f.level == trace.LevelOff && f.output != "" {
		f.level = trace.LevelPhase
	}
	return f, nil
}

// newTracer builds the tracer the flags ask for. At the error level nothing is written while
// building; a ring keeps function-level events for the dump after a failure.
func (f traceFlags) newTracer() (trace.Tracer, error) {
	switch f.level {
	case trace.LevelOff:
		return trace.Nop, nil
	case trace.LevelError:
		return trace.NewRingTracer(f.ringSize, trace.LevelDetail), nil
	}
	return trace.New(trace.Config{
		Level:      f.level,
		Mode:       f.mode,
		OutputPath: f.output,
		RingSize:   f.ringSize,
	})
}

// setupTracing puts the tracer into the command context. The returned cleanup stops the
// heartbeat and closes the tracer.
func setupTracing(cmd *cobra.Command) (func(), error) {
	flags, err := readTraceFlags(cmd)
	if err != nil {
		return nil, err
	}
	tracer, err := flags.newTracer()
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	ctx := trace.WithTracer(cmd.Context(), tracer)
	cmd.SetContext(ctx)
	cmd.Root().SetContext(ctx)
	if tracer == trace.Nop {
		return func() {}, nil
	}

	heartbeat := trace.StartHeartbeat(tracer, flags.heartbeat)
	errOut := cmd.ErrOrStderr()
	return func() {
		heartbeat.Stop()
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(errOut, "trace: %v\n", err)
		}
	}, nil
}

// dumpTraceRing writes the events kept in memory after a failed build.
func dumpTraceRing(tracer trace.Tracer, w io.Writer) {
	var ring *trace.RingTracer
	switch t := tracer.(type) {
	case *trace.RingTracer:
		ring = t
	case *trace.MultiTracer:
		ring, _ = t.Ring()
	}
	if ring == nil {
		return
	}
	fmt.Fprintln(w, "trace: last events before the failure")
	if err := ring.Dump(w, trace.FormatText); err != nil {
		fmt.Fprintf(w, "trace: dump error: %v\n", err)
	}
}
