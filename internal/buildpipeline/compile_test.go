package buildpipeline

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const vertexScript = `
[shader]
stage = "vertex"

[[call]]
op = "declare_builtin"
name = "gl_Position"
type = "vec4"
precision = "highp"

[[call]]
op = "function"
name = "main"

[[call]]
op = "begin_function"
func = "main"

[[call]]
op = "push_var"
var = "gl_Position"

[[call]]
op = "push_float"
value = 0.0

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

const brokenScript = `
[shader]
stage = "vertex"

[[call]]
op = "negate"
`

func writeScripts(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestCompileReportsProgress(t *testing.T) {
	dir := writeScripts(t, map[string]string{
		"a.irs.toml":          vertexScript,
		"sub/b.irs.toml":      vertexScript,
		"sub/broken.irs.toml": brokenScript,
	})
	sink := &CollectSink{}
	res, err := Compile(context.Background(), &CompileRequest{Paths: []string{dir}, Jobs: 2, Progress: sink})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	wantFiles := []string{"a.irs.toml", "sub/b.irs.toml", "sub/broken.irs.toml"}
	if !reflect.DeepEqual(res.Files, wantFiles) {
		t.Errorf("Files = %v, want %v", res.Files, wantFiles)
	}
	if res.Failed() != 1 {
		t.Errorf("Failed() = %d, want 1", res.Failed())
	}
	if !res.Timings.Has(StageBuild) || !res.Timings.Has(StageLoad) {
		t.Errorf("missing stage timings")
	}

	final := map[string]Status{}
	queued := 0
	for _, ev := range sink.Events() {
		if ev.File == "" {
			continue
		}
		if ev.Status == StatusQueued {
			queued++
		}
		final[ev.File] = ev.Status
	}
	if queued != 3 {
		t.Errorf("queued %d files, want 3", queued)
	}
	want := map[string]Status{
		"a.irs.toml":          StatusDone,
		"sub/b.irs.toml":      StatusDone,
		"sub/broken.irs.toml": StatusError,
	}
	if !reflect.DeepEqual(final, want) {
		t.Errorf("final statuses = %v, want %v", final, want)
	}
}

func TestCompileErrors(t *testing.T) {
	empty := t.TempDir()
	tests := []struct {
		name string
		req  *CompileRequest
	}{
		{"nil request", nil},
		{"no paths", &CompileRequest{}},
		{"missing path", &CompileRequest{Paths: []string{filepath.Join(empty, "nope")}}},
		{"no scripts", &CompileRequest{Paths: []string{empty}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Compile(context.Background(), tt.req); err == nil {
				t.Errorf("expected an error")
			}
		})
	}
}

func TestListFilesSingleScript(t *testing.T) {
	dir := writeScripts(t, map[string]string{"only.irs.toml": vertexScript})
	files, err := ListFiles(&CompileRequest{Paths: []string{filepath.Join(dir, "only.irs.toml")}})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(files, []string{"only.irs.toml"}) {
		t.Errorf("ListFiles = %v", files)
	}
}

func TestNormalizeProgressFiles(t *testing.T) {
	base := t.TempDir()
	files := []string{
		filepath.Join(base, "z.irs.toml"),
		filepath.Join(base, "a", "b.irs.toml"),
		filepath.Join(base, "a", "..", "z.irs.toml"),
		"",
	}
	got, names := normalizeProgressFiles(files, base)
	want := []string{"a/b.irs.toml", "z.irs.toml"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("normalized = %v, want %v", got, want)
	}
	if names[files[2]] != "z.irs.toml" {
		t.Errorf("name of %q = %q", files[2], names[files[2]])
	}
}

func TestTimings(t *testing.T) {
	var tm Timings
	if tm.Has(StageBuild) || tm.Duration(StageBuild) != 0 {
		t.Fatalf("zero Timings reports durations")
	}
	tm.Add(StageBuild, 2)
	tm.Add(StageBuild, 3)
	tm.Set(StageLoad, 1)
	if tm.Duration(StageBuild) != 5 {
		t.Errorf("Duration(build) = %v, want 5", tm.Duration(StageBuild))
	}
	if tm.Total() != 6 {
		t.Errorf("Total = %v, want 6", tm.Total())
	}
	tm.Add(Stage("done"), 100)
	if tm.Has(Stage("done")) || tm.Total() != 6 {
		t.Errorf("unknown stage recorded")
	}
	if !tm.Has(StageLoad) || tm.Has(StageValidate) {
		t.Errorf("Has = load %v, validate %v", tm.Has(StageLoad), tm.Has(StageValidate))
	}
}
