package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestLevelRecordsScopes(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelError, ScopeDriver, false},
		{LevelPhase, ScopeDriver, true},
		{LevelPhase, ScopeScript, true},
		{LevelPhase, ScopeFunction, false},
		{LevelDetail, ScopeFunction, true},
		{LevelDetail, ScopeNode, false},
		{LevelDebug, ScopeNode, true},
		{LevelDebug, Scope(0), false},
	}
	for _, tt := range tests {
		if got := tt.level.Records(tt.scope); got != tt.want {
			t.Errorf("%s.Records(%s) = %v, want %v", tt.level, tt.scope, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"off", "error", "phase", "detail", "debug"} {
		l, err := ParseLevel(s)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", s, err)
		}
		if l.String() != s {
			t.Errorf("ParseLevel(%q) = %s", s, l)
		}
	}
	if l, err := ParseLevel("DEBUG"); err != nil || l != LevelDebug {
		t.Errorf("ParseLevel(DEBUG) = %v, %v", l, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Errorf("ParseLevel accepted an unknown level")
	}
	if _, err := ParseMode("disk"); err == nil {
		t.Errorf("ParseMode accepted an unknown mode")
	}
}

func TestStreamTracerText(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDebug, FormatText)

	span := Begin(tr, ScopeScript, "build", 0)
	Point(tr, ScopeNode, "fold-if", "true")
	span.WithExtra("functions", "2").WithExtra("blocks", "5").End("ok")

	out := buf.String()
	for _, want := range []string{"→ build", "• fold-if (true)", "← build (ok) {functions=2, blocks=5}"} {
		if !strings.Contains(out, want) {
			t.Errorf("trace output missing %q:\n%s", want, out)
		}
	}
}

func TestPointRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatNDJSON)
	Point(tr, ScopeNode, "fold-loop", "")
	if buf.Len() != 0 {
		t.Errorf("node event emitted at phase level: %s", buf.String())
	}
	Point(tr, ScopeDriver, "start", "")

	var ev jsonEvent
	if err := json.Unmarshal(buf.Bytes(), &ev); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if ev.Name != "start" || ev.Kind != "point" || ev.Scope != "driver" {
		t.Errorf("event = %+v", ev)
	}
}

func TestInertSpan(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatText)
	span := Begin(tr, ScopeFunction, "main", 0)
	if span.ID() != 0 {
		t.Errorf("unrecorded span has id %d", span.ID())
	}
	span.WithExtra("k", "v").End("")
	if buf.Len() != 0 {
		t.Errorf("unrecorded span wrote %q", buf.String())
	}
}

func TestRingTracerKeepsLastEvents(t *testing.T) {
	r := NewRingTracer(2, LevelDebug)
	for _, name := range []string{"a", "b", "c"} {
		Point(r, ScopeNode, name, "")
	}
	events := r.Snapshot()
	if len(events) != 2 || events[0].Name != "b" || events[1].Name != "c" {
		t.Fatalf("snapshot = %+v", events)
	}

	var buf bytes.Buffer
	if err := r.Dump(&buf, FormatText); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if got := strings.Count(buf.String(), "\n"); got != 2 {
		t.Errorf("dump has %d lines:\n%s", got, buf.String())
	}
}

func TestMultiTracerFansOut(t *testing.T) {
	var buf bytes.Buffer
	ring := NewRingTracer(8, LevelDebug)
	m := NewMultiTracer(LevelDebug, NewStreamTracer(&buf, LevelDebug, FormatText), ring)
	Point(m, ScopeFunction, "finish", "")

	if got, ok := m.Ring(); !ok || got != ring {
		t.Fatalf("Ring() did not find the ring tracer")
	}
	if len(ring.Snapshot()) != 1 || !strings.Contains(buf.String(), "finish") {
		t.Errorf("event not delivered to every tracer")
	}
}

func TestNew(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil || tr != Nop {
		t.Fatalf("New(off) = %v, %v", tr, err)
	}

	var buf bytes.Buffer
	tr, err = New(Config{Level: LevelPhase, Mode: ModeBoth, Output: &buf, RingSize: 4})
	if err != nil {
		t.Fatalf("New(both): %v", err)
	}
	Begin(tr, ScopeScript, "build", 0).End("")
	m, ok := tr.(*MultiTracer)
	if !ok {
		t.Fatalf("New(both) = %T", tr)
	}
	ring, _ := m.Ring()
	if len(ring.Snapshot()) != 2 || strings.Count(buf.String(), "build") != 2 {
		t.Errorf("both mode lost events: ring %d, stream %q", len(ring.Snapshot()), buf.String())
	}
}

func TestContextCarriesTracerAndParent(t *testing.T) {
	ctx := context.Background()
	if FromContext(ctx) != Nop || Parent(ctx) != 0 {
		t.Fatalf("empty context is not Nop with no parent")
	}
	r := NewRingTracer(8, LevelDebug)
	ctx = WithParent(WithTracer(ctx, r), 7)
	if FromContext(ctx) != r {
		t.Errorf("tracer lost")
	}
	ctx = WithTracer(ctx, nil)
	if FromContext(ctx) != Nop || Parent(ctx) != 7 {
		t.Errorf("WithTracer(nil) = %v, parent %d", FromContext(ctx), Parent(ctx))
	}
}

func TestHeartbeat(t *testing.T) {
	if StartHeartbeat(Nop, time.Millisecond) != nil {
		t.Errorf("heartbeat started on Nop")
	}
	r := NewRingTracer(64, LevelError)
	h := StartHeartbeat(r, time.Millisecond)
	deadline := time.Now().Add(5 * time.Second)
	for len(r.Snapshot()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	h.Stop()
	h.Stop()
	events := r.Snapshot()
	if len(events) == 0 || events[0].Kind != KindHeartbeat {
		t.Fatalf("no heartbeat recorded: %+v", events)
	}
}
