package driver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
)

const okScript = `
[shader]
stage = "fragment"

[[call]]
op = "declare_interface"
name = "color"
type = "vec4"
precision = "mediump"
decorations = ["out", "location=0"]

[[call]]
op = "function"
name = "main"

[[call]]
op = "begin_function"
func = "main"

[[call]]
op = "push_var"
var = "color"

[[call]]
op = "push_float"
value = 1.0

[[call]]
op = "construct"
type = "vec4"
count = 1

[[call]]
op = "store"

[[call]]
op = "end_statement"

[[call]]
op = "end_function"
`

// Pops from an empty stack inside main.
const badScript = `
[shader]
stage = "vertex"

[[call]]
op = "function"
name = "main"

[[call]]
op = "begin_function"
func = "main"

[[call]]
op = "add"
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestListScripts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.irs.toml"), okScript)
	writeFile(t, filepath.Join(dir, "nested", "b.irs.toml"), okScript)
	writeFile(t, filepath.Join(dir, "nested", "c.irs.msgpack"), "")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")
	single := filepath.Join(dir, "nested", "b.irs.toml")

	got, err := ListScripts([]string{dir, single})
	if err != nil {
		t.Fatalf("ListScripts: %v", err)
	}
	want := []string{
		filepath.Join(dir, "a.irs.toml"),
		filepath.Join(dir, "nested", "b.irs.toml"),
		filepath.Join(dir, "nested", "c.irs.msgpack"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListScripts = %v, want %v", got, want)
	}

	if _, err := ListScripts([]string{filepath.Join(dir, "missing")}); err == nil {
		t.Errorf("expected an error for a missing path")
	}
}

func TestBuildAll(t *testing.T) {
	dir := t.TempDir()
	okPath := filepath.Join(dir, "ok.irs.toml")
	badPath := filepath.Join(dir, "bad.irs.toml")
	writeFile(t, okPath, okScript)
	writeFile(t, badPath, badScript)

	var (
		mu     sync.Mutex
		events = map[string][]string{}
	)
	observer := func(evt PhaseEvent) {
		if evt.Status != PhaseEnd {
			return
		}
		mu.Lock()
		events[evt.Path] = append(events[evt.Path], evt.Name)
		mu.Unlock()
	}

	results, err := BuildAll(context.Background(), []string{okPath, badPath}, Options{Jobs: 2, KeepIR: true, Observer: observer})
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	ok := results[0]
	if ok.Err != nil {
		t.Fatalf("ok script: %v", ok.Err)
	}
	if ok.Stage != "fragment" || ok.IR == nil {
		t.Errorf("ok script: stage %q, ir %v", ok.Stage, ok.IR)
	}
	if ok.Stats.Functions != 1 || ok.Stats.Instructions == 0 {
		t.Errorf("ok script stats = %+v", ok.Stats)
	}
	if len(ok.Timing.Phases) != 3 {
		t.Errorf("ok script timed %d phases, want 3", len(ok.Timing.Phases))
	}

	bad := results[1]
	if bad.Err == nil {
		t.Fatalf("bad script built without error")
	}
	if bad.IR != nil {
		t.Errorf("bad script kept an IR")
	}

	wantOK := []string{PhaseLoad, PhaseBuild, PhaseValidate, PhaseDone}
	if !reflect.DeepEqual(events[okPath], wantOK) {
		t.Errorf("ok phases = %v, want %v", events[okPath], wantOK)
	}
	wantBad := []string{PhaseLoad, PhaseBuild, PhaseDone}
	if !reflect.DeepEqual(events[badPath], wantBad) {
		t.Errorf("bad phases = %v, want %v", events[badPath], wantBad)
	}
}

func TestBuildAllUsesCache(t *testing.T) {
	dir := t.TempDir()
	okPath := filepath.Join(dir, "ok.irs.toml")
	badPath := filepath.Join(dir, "bad.irs.toml")
	writeFile(t, okPath, okScript)
	writeFile(t, badPath, badScript)

	cache, err := NewDiskCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	paths := []string{okPath, badPath}

	first, err := BuildAll(context.Background(), paths, Options{Cache: cache})
	if err != nil {
		t.Fatal(err)
	}
	second, err := BuildAll(context.Background(), paths, Options{Cache: cache})
	if err != nil {
		t.Fatal(err)
	}

	for i := range paths {
		if first[i].Cached {
			t.Errorf("%s: first build served from cache", paths[i])
		}
		if !second[i].Cached {
			t.Errorf("%s: second build missed the cache", paths[i])
		}
		if first[i].Stats != second[i].Stats || first[i].Stage != second[i].Stage {
			t.Errorf("%s: cached %+v, built %+v", paths[i], second[i], first[i])
		}
	}
	if second[1].Err == nil || second[1].Err.Error() != first[1].Err.Error() {
		t.Errorf("cached error = %v, want %v", second[1].Err, first[1].Err)
	}

	// Editing the script changes its digest.
	writeFile(t, okPath, okScript+"\n")
	third, err := BuildAll(context.Background(), paths[:1], Options{Cache: cache})
	if err != nil {
		t.Fatal(err)
	}
	if third[0].Cached {
		t.Errorf("edited script served from cache")
	}
}

func TestBuildAllCanceled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ok.irs.toml")
	writeFile(t, path, okScript)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := BuildAll(ctx, []string{path}, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("BuildAll error = %v, want context.Canceled", err)
	}
}

func TestBuildScriptLoadError(t *testing.T) {
	res := BuildScript(context.Background(), filepath.Join(t.TempDir(), "missing.irs.toml"), Options{})
	if !errors.Is(res.Err, os.ErrNotExist) {
		t.Errorf("Err = %v, want os.ErrNotExist", res.Err)
	}
}
