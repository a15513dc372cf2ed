package buildpipeline

import "time"

// Stage is a step every script goes through.
type Stage string

const (
	// StageLoad reads and decodes a script, or serves it from the cache.
	StageLoad Stage = "load"
	// StageBuild replays the script through the IR builder.
	StageBuild Stage = "build"
	// StageValidate checks the finished IR.
	StageValidate Stage = "validate"
)

var stageOrder = [...]Stage{StageLoad, StageBuild, StageValidate}

// Stages lists the stages in pipeline order.
var Stages = stageOrder[:]

func stageIndex(stage Stage) int {
	for i, s := range stageOrder {
		if s == stage {
			return i
		}
	}
	return -1
}

// Status is where a script, or the whole pipeline, stands within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports progress for a file, or for the overall pipeline when File is empty. A file's
// last event is done or error at StageValidate, whichever stage actually failed; Err says why
// and Elapsed covers the whole script.
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
	Cached  bool
}

// ProgressSink consumes progress events. Compile calls it from several goroutines.
type ProgressSink interface {
	OnEvent(Event)
}

// Timings holds stage durations summed over all scripts. Durations of names that are not a
// Stage are dropped.
type Timings struct {
	durations [len(stageOrder)]time.Duration
	recorded  [len(stageOrder)]bool
}

func (t *Timings) Set(stage Stage, dur time.Duration) {
	if i := stageIndex(stage); t != nil && i >= 0 {
		t.durations[i] = dur
		t.recorded[i] = true
	}
}

func (t *Timings) Add(stage Stage, dur time.Duration) {
	if i := stageIndex(stage); t != nil && i >= 0 {
		t.durations[i] += dur
		t.recorded[i] = true
	}
}

// Has reports whether stage was recorded, even with a zero duration.
func (t Timings) Has(stage Stage) bool {
	i := stageIndex(stage)
	return i >= 0 && t.recorded[i]
}

func (t Timings) Duration(stage Stage) time.Duration {
	if i := stageIndex(stage); i >= 0 {
		return t.durations[i]
	}
	return 0
}

// Total sums every stage.
func (t Timings) Total() time.Duration {
	var total time.Duration
	for _, d := range t.durations {
		total += d
	}
	return total
}
