package main

import (
	"context"
	"errors"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/google/angle-sub000/internal/buildpipeline"
	"github.com/google/angle-sub000/internal/ui"
)

// compileWithProgress runs Compile in the background while the progress view renders its
// events. A failing view does not stop the build; its error is joined to the build's.
func compileWithProgress(ctx context.Context, title string, files []string, req buildpipeline.CompileRequest) (buildpipeline.CompileResult, error) {
	events := make(chan buildpipeline.Event, 256)
	req.Progress = buildpipeline.ChannelSink{Ch: events}

	var (
		res      buildpipeline.CompileResult
		buildErr error
	)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		defer close(events)
		res, buildErr = buildpipeline.Compile(ctx, &req)
	}()

	_, viewErr := tea.NewProgram(ui.NewProgressModel(title, files, events), tea.WithOutput(os.Stdout)).Run()
	if viewErr != nil {
		// Keep the build from blocking on a full channel nobody reads.
		go func() {
			for range events {
			}
		}()
	}
	<-finished
	return res, errors.Join(buildErr, viewErr)
}
