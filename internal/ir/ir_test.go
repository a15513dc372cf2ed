package ir

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func newFunc(r *IR, name string) FunctionID {
	id := r.AddFunction(NewFunction(name, nil, TypeVoid, PrecisionNone, nil))
	if name == "main" {
		r.Meta.SetMainFunction(id)
	}
	return id
}

func returnBlock(ops ...Op) *Block {
	b := NewBlock()
	for _, op := range ops {
		b.AddVoid(op)
	}
	b.Terminate(ReturnOp(nil))
	return b
}

func TestFunctionDeclOrder(t *testing.T) {
	r := New(ShaderFragment)
	leaf := newFunc(r, "leaf")
	mid := newFunc(r, "mid")
	unused := newFunc(r, "unused")
	main := newFunc(r, "main")

	r.SetFunctionEntry(leaf, returnBlock())
	r.SetFunctionEntry(mid, returnBlock(Op{Kind: OpCall, Function: leaf}))
	r.SetFunctionEntry(unused, returnBlock())
	r.SetFunctionEntry(main, returnBlock(Op{Kind: OpCall, Function: mid}, Op{Kind: OpCall, Function: leaf}))

	order := r.FunctionDeclOrder()
	want := []FunctionID{leaf, mid, main}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestFunctionDeclOrderRecursionPanics(t *testing.T) {
	r := New(ShaderVertex)
	a := newFunc(r, "a")
	main := newFunc(r, "main")
	r.SetFunctionEntry(a, returnBlock(Op{Kind: OpCall, Function: a}))
	r.SetFunctionEntry(main, returnBlock(Op{Kind: OpCall, Function: a}))

	defer func() {
		if recover() == nil {
			t.Fatalf("expected recursion panic")
		}
	}()
	r.FunctionDeclOrder()
}

func TestPrependToMain(t *testing.T) {
	r := New(ShaderVertex)
	main := newFunc(r, "main")
	body := returnBlock()
	r.SetFunctionEntry(main, body)

	init := NewBlock()
	init.Terminate(BranchOp(OpNextBlock))
	r.PrependToMain(init)

	if r.Entry(main) != init || init.Merge != body {
		t.Fatalf("prepended block must run before the original body")
	}
	if err := Validate(r); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestValidateReportsProblems(t *testing.T) {
	r := New(ShaderVertex)
	main := newFunc(r, "main")
	b := NewBlock()
	b.AddVoid(StoreOp(TypedID{ID: VariableRef(42), Type: TypeFloat}, FromConstant(ConstantFloatOne, TypeFloat)))
	r.SetFunctionEntry(main, b)

	err := Validate(r)
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	msg := err.Error()
	if !strings.Contains(msg, "unterminated block") {
		t.Errorf("missing unterminated error in %q", msg)
	}
	if !strings.Contains(msg, "variable v42 out of range") {
		t.Errorf("missing range error in %q", msg)
	}
}

func TestDumpLayout(t *testing.T) {
	color.NoColor = true
	r := New(ShaderFragment)
	v := r.Meta.DeclareVariable(VariableDecl{Name: InterfaceName("color"), Type: TypeVec4, Precision: PrecisionMedium, Scope: ScopeGlobal})
	main := newFunc(r, "main")

	entry := NewBlock()
	entry.AddVoid(StoreOp(FromVariable(r.Meta, v), FromConstant(r.Meta.ConstantNull(TypeVec4), TypeVec4)))
	entry.Terminate(IfOp(FromConstant(ConstantTrue, TypeBool)))
	entry.Block1 = returnBlock()
	entry.Block2 = NewBlock()
	entry.Block2.Terminate(MergeOp(nil))
	merge := returnBlock()
	entry.Merge = merge
	r.SetFunctionEntry(main, entry)

	out := DumpString(r)
	for _, want := range []string{
		"Fragment Shader",
		"Types:",
		"t9: Vector of t1[4]",
		"Constants:",
		"c3 (t1): 1",
		"Variables:",
		"'_ucolor'",
		"[mediump]",
		"Globals: v0",
		"f0: 'main'() -> t0",
		"Entry To Function:",
		"If True Block:",
		"If False Block:",
		"Merge Block:",
		"+-> ",
		"Store v0 c11",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
}

func TestBuiltInVariablesAndOpsAreDistinct(t *testing.T) {
	for _, tc := range []struct {
		name string
		tag  BuiltIn
		op   BuiltInOp
		str  string
	}{
		{"gl_NumSamples", BuiltInNumSamples, BuiltInOpNumSamples, "NumSamples"},
		{"gl_SamplePosition", BuiltInSamplePosition, BuiltInOpSamplePosition, "SamplePosition"},
	} {
		got, ok := ParseBuiltIn(tc.name)
		if !ok || got != tc.tag {
			t.Errorf("ParseBuiltIn(%q) = %v, %v; want %v", tc.name, got, ok, tc.tag)
		}
		if tc.tag.String() != tc.name {
			t.Errorf("BuiltIn %d String() = %q, want %q", tc.tag, tc.tag.String(), tc.name)
		}
		if tc.op.String() != tc.str {
			t.Errorf("BuiltInOp %d String() = %q, want %q", tc.op, tc.op.String(), tc.str)
		}
	}
}
