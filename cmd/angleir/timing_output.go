package main

import (
	"fmt"
	"io"
	"time"

	"github.com/google/angle-sub000/internal/buildpipeline"
)

// printStageTimings prints the time spent in each stage, summed over all scripts.
func printStageTimings(out io.Writer, timings buildpipeline.Timings) {
	if out == nil {
		return
	}
	labels := map[buildpipeline.Stage]string{
		buildpipeline.StageLoad:     "loaded",
		buildpipeline.StageBuild:    "built",
		buildpipeline.StageValidate: "validated",
	}
	for _, stage := range buildpipeline.Stages {
		if !timings.Has(stage) {
			continue
		}
		if _, err := fmt.Fprintf(out, "%s %.1f ms\n", labels[stage], toMillis(timings.Duration(stage))); err != nil {
			panic(err)
		}
	}
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
