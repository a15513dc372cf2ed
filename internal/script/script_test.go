package script

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/angle-sub000/internal/ir"
	"github.com/google/angle-sub000/internal/testkit"
)

const fragmentScript = `
[shader]
stage = "fragment"
early_fragment_tests = true

[options]
initialize_output_variables = true

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
value = 0.5

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

func mustDecode(t *testing.T, src string) *Script {
	t.Helper()
	s, err := DecodeTOML(strings.NewReader(src), "test.irs.toml")
	if err != nil {
		t.Fatalf("DecodeTOML: %v", err)
	}
	return s
}

func mainOps(t *testing.T, out *ir.IR) []*ir.Op {
	t.Helper()
	mainID, ok := out.Meta.MainFunction()
	if !ok {
		t.Fatalf("no main function")
	}
	var result []*ir.Op
	out.Entry(mainID).Walk(func(blk *ir.Block) {
		for i := range blk.Instrs {
			op, _ := blk.Instrs[i].Resolve(out.Meta)
			result = append(result, op)
		}
	})
	return result
}

func TestBuildFragmentScript(t *testing.T) {
	s := mustDecode(t, fragmentScript)
	out, err := Build(context.Background(), s)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := ir.Validate(out); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if err := testkit.CheckIR(out); err != nil {
		t.Fatalf("CheckIR: %v", err)
	}
	if !out.Meta.Shader.EarlyFragmentTests {
		t.Errorf("early_fragment_tests not applied")
	}
	if out.Meta.Shader.Type != ir.ShaderFragment {
		t.Errorf("stage = %v, want fragment", out.Meta.Shader.Type)
	}

	ops := mainOps(t, out)
	if len(ops) != 2 {
		t.Fatalf("main has %d ops, want store and return", len(ops))
	}
	if ops[0].Kind != ir.OpStore {
		t.Fatalf("first op = %v, want store", ops[0].Kind)
	}
	if _, ok := ops[0].Operands[1].ID.Constant(); !ok {
		t.Errorf("vec4(0.5) was not folded to a constant")
	}
	if stats := out.Stats(); stats.Functions != 1 {
		t.Errorf("functions = %d, want 1", stats.Functions)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr error
		wantMsg string
	}{
		{
			name:    "missing shader table",
			src:     "[options]\ninitialize_gl_position = true\n",
			wantErr: ErrShaderSectionMissing,
		},
		{
			name:    "missing stage",
			src:     "[shader]\nearly_fragment_tests = true\n",
			wantMsg: "missing [shader].stage",
		},
		{
			name:    "unknown key",
			src:     "[shader]\nstage = \"vertex\"\ncolour = 1\n",
			wantMsg: "unknown key",
		},
		{
			name:    "malformed",
			src:     "[shader\n",
			wantMsg: "failed to parse TOML",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeTOML(strings.NewReader(tt.src), "bad.irs.toml")
			if err == nil {
				t.Fatalf("expected an error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error %v is not %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
			if !strings.HasPrefix(err.Error(), "bad.irs.toml: ") {
				t.Errorf("error %q does not name the script", err)
			}
		})
	}
}

func TestMsgpackBuildsTheSameIR(t *testing.T) {
	s := mustDecode(t, fragmentScript)

	var buf bytes.Buffer
	if err := EncodeMsgpack(&buf, s); err != nil {
		t.Fatalf("EncodeMsgpack: %v", err)
	}
	decoded, err := DecodeMsgpack(&buf, "test.irs.msgpack")
	if err != nil {
		t.Fatalf("DecodeMsgpack: %v", err)
	}

	fromTOML, err := Build(context.Background(), s)
	if err != nil {
		t.Fatalf("Build(toml): %v", err)
	}
	fromMsgpack, err := Build(context.Background(), decoded)
	if err != nil {
		t.Fatalf("Build(msgpack): %v", err)
	}
	if got, want := ir.DumpString(fromMsgpack), ir.DumpString(fromTOML); got != want {
		t.Errorf("msgpack script built different IR:\n%s\nwant:\n%s", got, want)
	}
}

func TestReplayErrorNamesTheCall(t *testing.T) {
	tests := []struct {
		name    string
		calls   []Call
		index   int
		op      string
		wantMsg string
	}{
		{
			name: "stack underflow",
			calls: []Call{
				{Op: "function", Name: "main"},
				{Op: "begin_function", Func: "main"},
				{Op: "push_int", Value: int64(1)},
				{Op: "add"},
			},
			index:   3,
			op:      "add",
			wantMsg: "value stack underflow",
		},
		{
			name: "undeclared variable",
			calls: []Call{
				{Op: "function", Name: "main"},
				{Op: "begin_function", Func: "main"},
				{Op: "push_var", Var: "missing"},
			},
			index:   2,
			op:      "push_var",
			wantMsg: `undeclared variable "missing"`,
		},
		{
			name:    "unknown op",
			calls:   []Call{{Op: "jump"}},
			index:   0,
			op:      "jump",
			wantMsg: "unknown op",
		},
		{
			name: "int out of range",
			calls: []Call{
				{Op: "function", Name: "main"},
				{Op: "begin_function", Func: "main"},
				{Op: "push_int", Value: int64(1) << 40},
			},
			index:   2,
			op:      "push_int",
			wantMsg: "int constant",
		},
		{
			name: "function left open",
			calls: []Call{
				{Op: "function", Name: "main"},
				{Op: "begin_function", Func: "main"},
			},
			index:   -1,
			op:      "finish",
			wantMsg: "builder:",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Script{Shader: Shader{Stage: "vertex"}, Calls: tt.calls}
			out, err := Build(context.Background(), s)
			if err == nil {
				t.Fatalf("expected an error")
			}
			if out != nil {
				t.Errorf("failed build returned IR")
			}
			var callErr *CallError
			if !errors.As(err, &callErr) {
				t.Fatalf("error %v is not a *CallError", err)
			}
			if callErr.Index != tt.index || callErr.Op != tt.op {
				t.Errorf("error at call %d (%s), want %d (%s)", callErr.Index, callErr.Op, tt.index, tt.op)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestBuildHonorsCancellation(t *testing.T) {
	s := mustDecode(t, fragmentScript)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Build(ctx, s); !errors.Is(err, context.Canceled) {
		t.Errorf("Build on a canceled context = %v, want context.Canceled", err)
	}
}

func TestParseType(t *testing.T) {
	m := ir.New(ir.ShaderFragment).Meta
	types := newTypeTable(m)
	if err := types.declareStruct(Struct{
		Name:   "Light",
		Fields: []Field{{Name: "position", Type: "vec3"}, {Name: "intensity", Type: "float", Precision: "mediump"}},
	}); err != nil {
		t.Fatalf("declareStruct: %v", err)
	}

	tests := []struct {
		spelling string
		want     func() ir.TypeID
	}{
		{"float", func() ir.TypeID { return ir.TypeFloat }},
		{"vec4", func() ir.TypeID { return ir.TypeVec4 }},
		{"ivec2", func() ir.TypeID { return ir.TypeIVec2 }},
		{"mat3", func() ir.TypeID { return m.MatrixTypeID(3, 3) }},
		{"mat3x2", func() ir.TypeID { return m.MatrixTypeID(3, 2) }},
		{"float[]", func() ir.TypeID { return m.UnsizedArrayTypeID(ir.TypeFloat) }},
		{"float[2][3]", func() ir.TypeID { return m.ArrayTypeID(m.ArrayTypeID(ir.TypeFloat, 3), 2) }},
		{"Light[4]", func() ir.TypeID { return m.ArrayTypeID(types.structs["Light"], 4) }},
		{"isampler2DArray", func() ir.TypeID {
			return m.ImageTypeID(ir.ImageInt, ir.ImageType{Dimension: ir.Dim2D, IsSampled: true, IsArray: true})
		}},
		{"samplerCubeShadow", func() ir.TypeID {
			return m.ImageTypeID(ir.ImageFloat, ir.ImageType{Dimension: ir.DimCube, IsSampled: true, IsShadow: true})
		}},
		{"image2D", func() ir.TypeID { return m.ImageTypeID(ir.ImageFloat, ir.ImageType{Dimension: ir.Dim2D}) }},
		{"uimage3D", func() ir.TypeID { return m.ImageTypeID(ir.ImageUint, ir.ImageType{Dimension: ir.Dim3D}) }},
	}
	for _, tt := range tests {
		got, err := types.parse(tt.spelling)
		if err != nil {
			t.Errorf("parse(%q): %v", tt.spelling, err)
			continue
		}
		if want := tt.want(); got != want {
			t.Errorf("parse(%q) = t%d, want t%d", tt.spelling, got, want)
		}
	}

	for _, bad := range []string{"vec5", "mat1", "float[0]", "float[", "sampler4D", "Shadow"} {
		if _, err := types.parse(bad); err == nil {
			t.Errorf("parse(%q) succeeded", bad)
		}
	}
}

func TestParseDecorations(t *testing.T) {
	got, err := parseDecorations([]string{"flat", "location=3"})
	if err != nil {
		t.Fatalf("parseDecorations: %v", err)
	}
	want := ir.Decorations{{Kind: ir.DecorationFlat}, {Kind: ir.DecorationLocation, Value: 3}}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("parseDecorations = %v, want %v", got, want)
	}

	for _, bad := range [][]string{{"location"}, {"flat=1"}, {"bogus"}, {"binding=x"}} {
		if _, err := parseDecorations(bad); err == nil {
			t.Errorf("parseDecorations(%q) succeeded", bad)
		}
	}
}

func TestIdentifiersAreNormalized(t *testing.T) {
	decomposed := "cafe\u0301"
	composed := "caf\u00e9"
	s := &Script{
		Shader: Shader{Stage: "vertex"},
		Calls: []Call{
			{Op: "declare_interface", Name: decomposed, Type: "float", Precision: "highp", Decorations: []string{"out"}},
			{Op: "function", Name: "main"},
			{Op: "begin_function", Func: "main"},
			{Op: "push_var", Var: composed},
			{Op: "push_float", Value: 1.0},
			{Op: "store"},
			{Op: "end_statement"},
			{Op: "end_function"},
		},
	}

	var buf bytes.Buffer
	if err := EncodeMsgpack(&buf, s); err != nil {
		t.Fatalf("EncodeMsgpack: %v", err)
	}
	decoded, err := DecodeMsgpack(&buf, "nfc.irs.msgpack")
	if err != nil {
		t.Fatalf("DecodeMsgpack: %v", err)
	}
	out, err := Build(context.Background(), decoded)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	dump := ir.DumpString(out)
	if !strings.Contains(dump, composed) || strings.Contains(dump, decomposed) {
		t.Errorf("variable name was not normalized:\n%s", dump)
	}
}

func TestBuiltInCallsByName(t *testing.T) {
	src := `
[shader]
stage = "fragment"

[[call]]
op = "function"
name = "main"

[[call]]
op = "begin_function"
func = "main"

[[call]]
op = "declare_temp"
name = "x"
type = "float"
precision = "highp"

[[call]]
op = "push_var"
var = "x"

[[call]]
op = "push_float"
value = 2.0

[[call]]
op = "push_float"
value = 0.0

[[call]]
op = "push_float"
value = 1.0

[[call]]
op = "builtin"
fn = "clamp"

[[call]]
op = "unary"
fn = "Sqrt"

[[call]]
op = "store"

[[call]]
op = "end_statement"

[[call]]
op = "end_function"
`
	out, err := Build(context.Background(), mustDecode(t, src))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	var store *ir.Op
	for _, op := range mainOps(t, out) {
		if op.Kind == ir.OpStore {
			store = op
		}
	}
	if store == nil {
		t.Fatalf("no store in main")
	}
	c, ok := store.Operands[1].ID.Constant()
	if !ok {
		t.Fatalf("sqrt(clamp(2.0, 0.0, 1.0)) was not folded")
	}
	if got := out.Meta.Constant(c).AsFloat(); got != 1 {
		t.Errorf("sqrt(clamp(2.0, 0.0, 1.0)) = %v, want 1", got)
	}
}

func TestOpsAreSortedAndComplete(t *testing.T) {
	ops := Ops()
	for i := 1; i < len(ops); i++ {
		if ops[i-1] >= ops[i] {
			t.Fatalf("Ops not sorted at %q, %q", ops[i-1], ops[i])
		}
	}
	for _, want := range []string{"declare_temp", "begin_if", "end_ternary", "texture", "builtin", "clip_distance_sized"} {
		if _, ok := handlers[want]; !ok {
			t.Errorf("op %q is not handled", want)
		}
	}
}
