// Package trace records what the IR builder does while it runs.
//
// Events form spans (a script replay, one function body) and points (a folded if, a removed
// loop). They are written as they happen by a StreamTracer, kept in memory by a RingTracer for
// post-mortem dumps, or both.
//
// # Levels
//
//   - LevelOff: nothing
//   - LevelError: only dumps after a failed build
//   - LevelPhase: driver and per-script spans
//   - LevelDetail: function bodies and finish/fail
//   - LevelDebug: control-flow folding decisions
//
// # Context propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeScript, path, trace.Parent(ctx))
//	defer span.End("")
//	ctx = trace.WithParent(ctx, span.ID())
package trace
