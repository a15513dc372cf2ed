package main

import (
	"bytes"
	"encoding/json"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/google/angle-sub000/internal/buildpipeline"
	"github.com/google/angle-sub000/internal/driver"
	"github.com/google/angle-sub000/internal/ir"
)

const testScript = `
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

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--color", "off", "--no-cache", "--ui", "off", "--trace-level", "off"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fill.irs.toml")
	if err := os.WriteFile(path, []byte(testScript), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "build", dir)
	if err != nil {
		t.Fatalf("build: %v\n%s", err, out)
	}
	if !strings.Contains(out, "ok fill.irs.toml [fragment] 1 functions") {
		t.Errorf("build output:\n%s", out)
	}

	out, err = runCLI(t, "check", path)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	if !strings.HasPrefix(out, "ok ") {
		t.Errorf("check output:\n%s", out)
	}

	out, err = runCLI(t, "dump", path)
	if err != nil {
		t.Fatalf("dump: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Fragment Shader") {
		t.Errorf("dump output:\n%s", out)
	}

	encoded := filepath.Join(dir, "fill.irs.msgpack")
	if out, err = runCLI(t, "encode", path); err != nil {
		t.Fatalf("encode: %v\n%s", err, out)
	}
	if _, err := os.Stat(encoded); err != nil {
		t.Fatalf("encode wrote nothing: %v", err)
	}
	out, err = runCLI(t, "dump", encoded)
	if err != nil {
		t.Fatalf("dump msgpack: %v\n%s", err, out)
	}
}

func TestBuildFailureIsAnError(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.irs.toml")
	if err := os.WriteFile(bad, []byte("[shader]\nstage = \"vertex\"\n\n[[call]]\nop = \"negate\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	out, err := runCLI(t, "build", bad)
	if err == nil {
		t.Fatalf("build of a broken script succeeded:\n%s", out)
	}
	if !strings.Contains(out, "error bad.irs.toml") {
		t.Errorf("build output:\n%s", out)
	}
	if _, err := runCLI(t, "check", bad); err == nil {
		t.Errorf("check of a broken script succeeded")
	}
}

func TestTraceRingDumpedOnFailure(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.irs.toml")
	if err := os.WriteFile(bad, []byte("[shader]\nstage = \"vertex\"\n\n[[call]]\nop = \"negate\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	out, err := runCLI(t, "--trace-level", "error", "build", bad)
	if err == nil {
		t.Fatalf("build of a broken script succeeded:\n%s", out)
	}
	for _, want := range []string{"trace: last events before the failure", "build_all"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestParseSwitch(t *testing.T) {
	tests := []struct {
		in      string
		want    autoSwitch
		wantErr bool
	}{
		{"", switchAuto, false},
		{"AUTO", switchAuto, false},
		{" on ", switchOn, false},
		{"off", switchOff, false},
		{"sometimes", switchAuto, true},
	}
	for _, tt := range tests {
		got, err := parseSwitch("ui", tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseSwitch(%q) = %v, %v", tt.in, got, err)
		}
	}
	if _, err := parseSwitch("color", "never"); err == nil || !strings.Contains(err.Error(), "--color") {
		t.Errorf("error does not name the flag: %v", err)
	}
	if !useProgressView(switchOn, true, 1) || useProgressView(switchOff, false, 10) || useProgressView(switchAuto, false, 1) {
		t.Errorf("useProgressView ignores the mode")
	}
}

func TestRenderVersionJSON(t *testing.T) {
	var buf bytes.Buffer
	info := versionInfo{Version: "1.2.3", GitCommit: "abc"}
	if err := renderVersionJSON(&buf, info, versionOptions{showHash: true, showDate: true}); err != nil {
		t.Fatal(err)
	}
	var payload map[string]string
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json %q: %v", buf.String(), err)
	}
	want := map[string]string{"tool": "angleir", "version": "1.2.3", "git_commit": "abc", "build_date": "unknown"}
	if !maps.Equal(payload, want) {
		t.Errorf("payload = %v, want %v", payload, want)
	}
}

func TestRenderVersionPretty(t *testing.T) {
	var buf bytes.Buffer
	info := versionInfo{Version: "1.2.3", GoVersion: runtime.Version(), CacheSchema: 1}
	renderVersionPretty(&buf, info, versionOptions{showRuntime: true})
	out := buf.String()
	for _, want := range []string{"angleir 1.2.3\n", "go:      " + runtime.Version(), "cache:   1"} {
		if !strings.Contains(out, want) {
			t.Errorf("pretty output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "commit") {
		t.Errorf("commit shown without --hash:\n%s", out)
	}
}

func TestPrintBuildSummaryQuiet(t *testing.T) {
	res := buildpipeline.CompileResult{
		Files: []string{"a.irs.toml", "b.irs.toml"},
		Results: []driver.Result{
			{Path: "a", Stage: "vertex", Stats: ir.Stats{Functions: 1}},
			{Path: "b", Err: os.ErrNotExist},
		},
	}
	var buf bytes.Buffer
	printBuildSummary(&buf, res, true)
	if got := buf.String(); strings.Contains(got, "a.irs.toml") || !strings.Contains(got, "b.irs.toml") {
		t.Errorf("quiet summary:\n%s", got)
	}
}

func TestPrintStageTimings(t *testing.T) {
	var timings buildpipeline.Timings
	timings.Set(buildpipeline.StageBuild, 1500*time.Microsecond)
	var buf bytes.Buffer
	printStageTimings(&buf, timings)
	if got := buf.String(); got != "built 1.5 ms\n" {
		t.Errorf("timings = %q", got)
	}
}

func TestMsgpackName(t *testing.T) {
	if got := msgpackName("dir/a.irs.toml"); got != "dir/a.irs.msgpack" {
		t.Errorf("msgpackName = %q", got)
	}
}
