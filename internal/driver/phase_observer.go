package driver

import "time"

// PhaseStatus reports whether a phase started or finished.
type PhaseStatus int

const (
	// PhaseStart indicates that a build phase has begun.
	PhaseStart PhaseStatus = iota
	PhaseEnd
)

// Phase names, in the order a script goes through them. PhaseDone only ends: it carries the
// final error of the script, and comes last even when an earlier phase failed or the result
// was served from the cache.
const (
	PhaseLoad     = "load"
	PhaseBuild    = "build"
	PhaseValidate = "validate"
	PhaseDone     = "done"
)

// PhaseEvent describes a timing phase boundary of one script. The Elapsed of a PhaseDone event
// covers the whole script.
type PhaseEvent struct {
	Path    string
	Name    string
	Status  PhaseStatus
	Err     error
	Elapsed time.Duration
	Cached  bool
}

// PhaseObserver receives phase events emitted during BuildAll. It is called from the build
// goroutines and must be safe for concurrent use.
type PhaseObserver func(PhaseEvent)

func (o PhaseObserver) emit(evt PhaseEvent) {
	if o != nil {
		o(evt)
	}
}
