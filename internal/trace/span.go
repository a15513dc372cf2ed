package trace

import (
	"context"
	"time"
)

// Span times one operation between a begin and an end event. A span of a scope the tracer
// does not record is inert.
type Span struct {
	tracer Tracer
	id     uint64
	parent uint64
	scope  Scope
	name   string
	start  time.Time
	attrs  []Attr
}

// Begin emits the begin event of a span under parent, which is 0 for a root span.
func Begin(t Tracer, scope Scope, name string, parent uint64) *Span {
	if !records(t, scope) {
		return &Span{}
	}
	s := &Span{
		tracer: t,
		id:     spanIDs.Add(1),
		parent: parent,
		scope:  scope,
		name:   name,
		start:  time.Now(),
	}
	emit(t, Event{Kind: KindBegin, Scope: scope, Span: s.id, Parent: parent, Name: name})
	return s
}

// WithExtra attaches an attribute to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil || s.tracer == nil {
		return s
	}
	s.attrs = append(s.attrs, Attr{Key: key, Value: value})
	return s
}

// End emits the end event and returns how long the span ran.
func (s *Span) End(detail string) time.Duration {
	if s == nil || s.tracer == nil {
		return 0
	}
	elapsed := time.Since(s.start)
	emit(s.tracer, Event{
		Kind:   KindEnd,
		Scope:  s.scope,
		Span:   s.id,
		Parent: s.parent,
		Name:   s.name,
		Detail: detail,
		Attrs:  s.attrs,
	})
	return elapsed
}

// ID is 0 for an inert span.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

// Point emits an instant event.
func Point(t Tracer, scope Scope, name, detail string) {
	if !records(t, scope) {
		return
	}
	emit(t, Event{Kind: KindPoint, Scope: scope, Name: name, Detail: detail})
}

type ctxKey struct{}

// state is what a context carries: the tracer and the span new spans nest under.
type state struct {
	tracer Tracer
	parent uint64
}

func stateOf(ctx context.Context) state {
	if ctx == nil {
		return state{}
	}
	st, _ := ctx.Value(ctxKey{}).(state)
	return st
}

func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	st := stateOf(ctx)
	st.tracer = t
	return context.WithValue(ctx, ctxKey{}, st)
}

// FromContext returns Nop when ctx carries no tracer.
func FromContext(ctx context.Context) Tracer {
	if t := stateOf(ctx).tracer; t != nil {
		return t
	}
	return Nop
}

// WithParent makes span the parent of the spans begun under the returned context.
func WithParent(ctx context.Context, span uint64) context.Context {
	st := stateOf(ctx)
	st.parent = span
	return context.WithValue(ctx, ctxKey{}, st)
}

// Parent returns the span set by WithParent, or 0.
func Parent(ctx context.Context) uint64 {
	return stateOf(ctx).parent
}
