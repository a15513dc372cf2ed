package builder

import (
	"testing"

	"github.com/google/angle-sub000/internal/ir"
)

// beginMain declares main() and starts its body.
func beginMain(b *Builder) ir.FunctionID {
	id := b.NewFunction("main", nil, ir.TypeVoid, ir.PrecisionNone, nil)
	b.BeginFunction(id)
	return id
}

// ops collects the ops of a function body, in the order the blocks are walked.
func ops(b *Builder, entry *ir.Block) []*ir.Op {
	var result []*ir.Op
	entry.Walk(func(blk *ir.Block) {
		for i := range blk.Instrs {
			op, _ := blk.Instrs[i].Resolve(b.IR().Meta)
			result = append(result, op)
		}
	})
	return result
}

func storedConstants(b *Builder, entry *ir.Block) []ir.ConstantID {
	var result []ir.ConstantID
	for _, op := range ops(b, entry) {
		if op.Kind != ir.OpStore {
			continue
		}
		if c, ok := op.Operands[1].ID.Constant(); ok {
			result = append(result, c)
		}
	}
	return result
}

func TestPrecisionPropagation(t *testing.T) {
	tests := []struct {
		name     string
		typeID   ir.TypeID
		lhs, rhs ir.Precision
		want     ir.Precision
	}{
		{"mediump + highp float", ir.TypeFloat, ir.PrecisionMedium, ir.PrecisionHigh, ir.PrecisionHigh},
		{"lowp + mediump int", ir.TypeInt, ir.PrecisionLow, ir.PrecisionMedium, ir.PrecisionMedium},
		{"lowp + unqualified", ir.TypeFloat, ir.PrecisionLow, ir.PrecisionNone, ir.PrecisionLow},
	}
	for _, tt := range tests {
		b := New(ir.ShaderFragment, Options{})
		beginMain(b)
		x := b.DeclareTempVariable("x", tt.typeID, tt.lhs, nil)
		y := b.DeclareTempVariable("y", tt.typeID, tt.rhs, nil)

		b.PushVariable(x)
		b.PushVariable(y)
		b.Add()
		if got := b.top().Precision; got != tt.want {
			t.Errorf("%s: result precision %s, want %s", tt.name, got, tt.want)
		}
		b.EndStatementWithValue()
		b.EndFunction()
		b.Finish()
	}
}

func TestStackBalancedAfterFinish(t *testing.T) {
	b := New(ir.ShaderVertex, Options{})
	mainID := beginMain(b)
	x := b.DeclareTempVariable("x", ir.TypeFloat, ir.PrecisionHigh, nil)

	b.PushVariable(x)
	b.PushConstantFloat(1)
	b.Store()
	if b.Depth() != 1 {
		t.Fatalf("assignment leaves %d values, want the assigned pointer", b.Depth())
	}
	b.EndStatementWithValue()
	b.EndFunction()
	b.Finish()

	if b.Depth() != 0 || !b.functionCFG.IsEmpty() || !b.globalsCFG.IsEmpty() {
		t.Fatalf("builder not empty after finish")
	}
	entry := b.IR().Entry(mainID)
	if entry == nil {
		t.Fatalf("main has no body")
	}
	if op := entry.MergeChainTerminatingOp(); op.Kind != ir.OpReturn {
		t.Errorf("main ends in %s, want Return", op.Kind)
	}
	if len(entry.Variables) != 1 || entry.Variables[0] != x {
		t.Errorf("main declares %v, want [v%d]", entry.Variables, x)
	}
}

func TestGlobalInitializers(t *testing.T) {
	tests := []struct {
		name        string
		allowed     bool
		wantPrepend bool
	}{
		{"stored at the start of main", false, true},
		{"kept on the declaration", true, false},
	}
	for _, tt := range tests {
		b := New(ir.ShaderFragment, Options{InitializerAllowedOnNonConstGlobalVariables: tt.allowed})
		g := b.DeclareTempVariable("g", ir.TypeFloat, ir.PrecisionHigh, nil)
		b.PushConstantFloat(2)
		b.Initialize(g)

		mainID := beginMain(b)
		b.EndFunction()
		b.Finish()

		v := b.IR().Meta.Variable(g)
		if v.Scope != ir.ScopeGlobal {
			t.Errorf("%s: g declared %s", tt.name, v.Scope)
		}
		entry := b.IR().Entry(mainID)
		if !tt.wantPrepend {
			if !v.HasInitializer || v.Initializer != b.IR().Meta.ConstantFloat(2) {
				t.Errorf("%s: g has no constant initializer", tt.name)
			}
			if len(entry.Instrs) != 1 {
				t.Errorf("%s: main has %d instructions, want only its return", tt.name, len(entry.Instrs))
			}
			continue
		}
		if v.HasInitializer {
			t.Errorf("%s: g should not carry an initializer", tt.name)
		}
		if entry.Instrs[0].Op.Kind != ir.OpStore {
			t.Errorf("%s: main starts with %s, want Store", tt.name, entry.Instrs[0].Op.Kind)
		}
		if op := entry.TerminatingOp(); op.Kind != ir.OpNextBlock || entry.Merge == nil {
			t.Errorf("%s: initializers do not continue into main", tt.name)
		}
	}
}

func TestConstantIfKeepsTakenBranch(t *testing.T) {
	b := New(ir.ShaderFragment, Options{})
	mainID := beginMain(b)
	x := b.DeclareTempVariable("x", ir.TypeInt, ir.PrecisionHigh, nil)

	b.PushConstantBool(true)
	b.BeginIfTrueBlock()
	b.PushVariable(x)
	b.PushConstantInt(1)
	b.Store()
	b.EndStatementWithValue()
	b.EndIfTrueBlock()
	b.BeginIfFalseBlock()
	b.PushVariable(x)
	b.PushConstantInt(2)
	b.Store()
	b.EndStatementWithValue()
	b.EndIfFalseBlock()
	b.EndIf()
	b.EndFunction()
	b.Finish()

	m := b.IR().Meta
	stored := storedConstants(b, b.IR().Entry(mainID))
	if len(stored) != 1 || stored[0] != m.ConstantInt(1) {
		t.Fatalf("stores %v, want only x = 1", stored)
	}
	for _, op := range ops(b, b.IR().Entry(mainID)) {
		if op.Kind == ir.OpIf {
			t.Errorf("constant if left an If terminator")
		}
	}
}

func TestConstantTernaryAndShortCircuit(t *testing.T) {
	b := New(ir.ShaderFragment, Options{})
	beginMain(b)
	m := b.IR().Meta
	flag := b.DeclareTempVariable("flag", ir.TypeBool, ir.PrecisionNone, nil)

	// true ? 1.0 : 2.0
	b.PushConstantBool(true)
	b.BeginTernaryTrueExpression()
	b.PushConstantFloat(1)
	b.EndTernaryTrueExpression()
	b.BeginTernaryFalseExpression()
	b.PushConstantFloat(2)
	b.EndTernaryFalseExpression()
	b.EndTernary()
	if c, ok := b.top().ID.Constant(); !ok || c != m.ConstantFloat(1) {
		t.Errorf("true ? 1.0 : 2.0 gives %s, want the constant 1.0", b.top().ID)
	}
	if b.top().Type != ir.TypeFloat {
		t.Errorf("ternary type t%d, want float", b.top().Type)
	}
	b.EndStatementWithValue()

	// true || flag
	b.PushConstantBool(true)
	b.BeginShortCircuitOr()
	b.PushVariable(flag)
	b.EndShortCircuitOr()
	if c, ok := b.top().ID.Constant(); !ok || c != ir.ConstantTrue {
		t.Errorf("true || flag gives %s, want true", b.top().ID)
	}
	b.EndStatementWithValue()

	// false && flag
	b.PushConstantBool(false)
	b.BeginShortCircuitAnd()
	b.PushVariable(flag)
	b.EndShortCircuitAnd()
	if c, ok := b.top().ID.Constant(); !ok || c != ir.ConstantFalse {
		t.Errorf("false && flag gives %s, want false", b.top().ID)
	}
	b.EndStatementWithValue()

	b.EndFunction()
	b.Finish()
}

func TestTernaryPrecisionIsHigherOfBranches(t *testing.T) {
	b := New(ir.ShaderFragment, Options{})
	beginMain(b)
	cond := b.DeclareTempVariable("c", ir.TypeBool, ir.PrecisionNone, nil)
	low := b.DeclareTempVariable("lo", ir.TypeFloat, ir.PrecisionLow, nil)
	high := b.DeclareTempVariable("hi", ir.TypeFloat, ir.PrecisionHigh, nil)

	b.PushVariable(cond)
	b.BeginTernaryTrueExpression()
	b.PushVariable(low)
	b.EndTernaryTrueExpression()
	b.BeginTernaryFalseExpression()
	b.PushVariable(high)
	b.EndTernaryFalseExpression()
	b.EndTernary()

	result := *b.top()
	if result.Precision != ir.PrecisionHigh {
		t.Errorf("ternary precision %s, want highp", result.Precision)
	}
	reg := b.IR().Meta.Instruction(result.ID.Register())
	if reg.Op.Kind != ir.OpMergeInput || reg.Result.Precision != ir.PrecisionHigh {
		t.Errorf("merge input %s with precision %s", reg.Op.Kind, reg.Result.Precision)
	}
	b.EndStatementWithValue()
	b.EndFunction()
	b.Finish()
}

func TestZeroInitialization(t *testing.T) {
	unsizedFloats := func(b *Builder) ir.TypeID { return b.IR().Meta.UnsizedArrayTypeID(ir.TypeFloat) }
	output := ir.Decorations{{Kind: ir.DecorationOutput}}
	uniform := ir.Decorations{{Kind: ir.DecorationUniform}}

	tests := []struct {
		name    string
		stage   ir.ShaderType
		options Options
		declare func(b *Builder) ir.VariableID
		want    bool
	}{
		{"private global", ir.ShaderVertex, Options{InitializeUninitializedVariables: true},
			func(b *Builder) ir.VariableID { return b.DeclareTempVariable("t", ir.TypeFloat, ir.PrecisionHigh, nil) }, true},
		{"private without option", ir.ShaderVertex, Options{},
			func(b *Builder) ir.VariableID { return b.DeclareTempVariable("t", ir.TypeFloat, ir.PrecisionHigh, nil) }, false},
		{"uniform is not private", ir.ShaderVertex, Options{InitializeUninitializedVariables: true},
			func(b *Builder) ir.VariableID {
				return b.DeclareInterfaceVariable("u", ir.TypeVec4, ir.PrecisionHigh, uniform)
			}, false},
		{"output", ir.ShaderVertex, Options{InitializeOutputVariables: true},
			func(b *Builder) ir.VariableID {
				return b.DeclareInterfaceVariable("o", ir.TypeVec4, ir.PrecisionHigh, output)
			}, true},
		{"gl_FragColor", ir.ShaderFragment, Options{InitializeOutputVariables: true},
			func(b *Builder) ir.VariableID {
				return b.DeclareBuiltInVariable(ir.BuiltInFragColor, ir.TypeVec4, ir.PrecisionMedium, nil)
			}, true},
		{"gl_ClipDistance in vertex", ir.ShaderVertex, Options{InitializeOutputVariables: true},
			func(b *Builder) ir.VariableID {
				return b.DeclareBuiltInVariable(ir.BuiltInClipDistance, unsizedFloats(b), ir.PrecisionHigh, nil)
			}, true},
		{"gl_ClipDistance in fragment", ir.ShaderFragment, Options{InitializeOutputVariables: true},
			func(b *Builder) ir.VariableID {
				return b.DeclareBuiltInVariable(ir.BuiltInClipDistance, unsizedFloats(b), ir.PrecisionHigh, nil)
			}, false},
		{"gl_PrimitiveID outside geometry", ir.ShaderFragment, Options{InitializeOutputVariables: true},
			func(b *Builder) ir.VariableID {
				return b.DeclareBuiltInVariable(ir.BuiltInPrimitiveID, ir.TypeInt, ir.PrecisionHigh, nil)
			}, false},
		{"gl_Position", ir.ShaderVertex, Options{InitializeGLPosition: true},
			func(b *Builder) ir.VariableID {
				return b.DeclareBuiltInVariable(ir.BuiltInPosition, ir.TypeVec4, ir.PrecisionHigh, nil)
			}, true},
		{"out parameter", ir.ShaderVertex, Options{InitializeUninitializedVariables: true},
			func(b *Builder) ir.VariableID {
				return b.DeclareFunctionParam("p", ir.TypeFloat, ir.PrecisionHigh, nil, ir.ParamOut)
			}, true},
		{"in parameter", ir.ShaderVertex, Options{InitializeUninitializedVariables: true},
			func(b *Builder) ir.VariableID {
				return b.DeclareFunctionParam("p", ir.TypeFloat, ir.PrecisionHigh, nil, ir.ParamIn)
			}, false},
	}
	for _, tt := range tests {
		b := New(tt.stage, tt.options)
		id := tt.declare(b)
		if got := b.IR().Meta.NeedsZeroInit(id); got != tt.want {
			t.Errorf("%s: needs zero init = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestInitializeClearsPendingZeroInit(t *testing.T) {
	b := New(ir.ShaderFragment, Options{InitializeUninitializedVariables: true})
	beginMain(b)
	x := b.DeclareTempVariable("x", ir.TypeFloat, ir.PrecisionHigh, nil)
	y := b.DeclareTempVariable("y", ir.TypeFloat, ir.PrecisionHigh, nil)
	if !b.IR().Meta.NeedsZeroInit(x) {
		t.Fatalf("local x should need zero initialization")
	}

	b.PushVariable(y)
	b.Initialize(x)
	if b.IR().Meta.NeedsZeroInit(x) {
		t.Errorf("x is initialized but still pending zero initialization")
	}
	b.EndFunction()
	b.Finish()
}

func TestClipDistanceLateSizing(t *testing.T) {
	b := New(ir.ShaderVertex, Options{})
	m := b.IR().Meta
	clip := b.DeclareBuiltInVariable(ir.BuiltInClipDistance, m.UnsizedArrayTypeID(ir.TypeFloat), ir.PrecisionHigh, nil)
	beginMain(b)

	b.PushVariable(clip)
	b.ArrayLength()
	if !b.clipDistanceLength.declared {
		t.Fatalf("length() of unsized gl_ClipDistance did not declare a length variable")
	}
	if b.top().ID.IsConstant() || b.top().Type != ir.TypeInt {
		t.Errorf("length() of unsized gl_ClipDistance gives %s of t%d", b.top().ID, b.top().Type)
	}
	b.EndStatementWithValue()

	b.OnClipDistanceSized(clip, 4)
	sized := m.Type(m.Variable(clip).Type)
	if !sized.IsPointer() || m.Type(sized.Elem).Count != 4 || !m.Type(sized.Elem).IsArray() {
		t.Fatalf("gl_ClipDistance not resized to float[4]")
	}
	lengthVar := m.Variable(b.clipDistanceLength.id)
	if !lengthVar.HasInitializer || lengthVar.Initializer != m.ConstantInt(4) {
		t.Errorf("length variable not initialized to 4")
	}

	b.PushVariable(clip)
	b.ArrayLength()
	if c, ok := b.top().ID.Constant(); !ok || c != m.ConstantInt(4) {
		t.Errorf("length() of sized gl_ClipDistance gives %s, want 4", b.top().ID)
	}
	b.EndStatementWithValue()
	b.EndFunction()
	b.Finish()
}

func TestConstructTrimsExtraComponents(t *testing.T) {
	b := New(ir.ShaderFragment, Options{})
	beginMain(b)
	m := b.IR().Meta
	v := b.DeclareTempVariable("v", ir.TypeVec3, ir.PrecisionMedium, nil)

	// vec2(vec3(1, 2, 3))
	b.PushConstantFloat(1)
	b.PushConstantFloat(2)
	b.PushConstantFloat(3)
	b.Construct(ir.TypeVec3, 3)
	b.Construct(ir.TypeVec2, 1)
	want := m.ConstantComposite(ir.TypeVec2, []ir.ConstantID{m.ConstantFloat(1), m.ConstantFloat(2)})
	if c, ok := b.top().ID.Constant(); !ok || c != want {
		t.Errorf("vec2(vec3(1, 2, 3)) gives %s, want c%d", b.top().ID, want)
	}
	b.EndStatementWithValue()

	// vec2(v) selects v.xy.
	b.PushVariable(v)
	b.Construct(ir.TypeVec2, 1)
	result := *b.top()
	if result.Type != ir.TypeVec2 || result.Precision != ir.PrecisionMedium {
		t.Fatalf("vec2(v) is t%d %s", result.Type, result.Precision)
	}
	op := m.Instruction(result.ID.Register()).Op
	if op.Kind != ir.OpExtractVectorComponentMulti || len(op.Indices) != 2 {
		t.Errorf("vec2(v) is %s %v, want a two-component swizzle", op.Kind, op.Indices)
	}
	b.EndStatementWithValue()

	// vec3(v) forwards the loaded value.
	b.PushVariable(v)
	b.Construct(ir.TypeVec3, 1)
	if m.Instruction(b.top().ID.Register()).Op.Kind != ir.OpLoad {
		t.Errorf("vec3(v) should be the load of v")
	}
	b.EndStatementWithValue()

	b.EndFunction()
	b.Finish()
}

func TestCompoundAssignment(t *testing.T) {
	b := New(ir.ShaderFragment, Options{})
	mainID := beginMain(b)
	x := b.DeclareTempVariable("x", ir.TypeFloat, ir.PrecisionHigh, nil)

	b.PushVariable(x)
	b.PushConstantFloat(1)
	b.AddAssign()
	if b.Depth() != 1 {
		t.Fatalf("x += 1.0 leaves %d values", b.Depth())
	}
	if v, ok := b.top().ID.Variable(); !ok || v != x {
		t.Errorf("x += 1.0 should leave the pointer to x, got %s", b.top().ID)
	}
	b.EndStatementWithValue()
	b.EndFunction()
	b.Finish()

	var kinds []ir.OpKind
	for _, op := range ops(b, b.IR().Entry(mainID)) {
		kinds = append(kinds, op.Kind)
	}
	want := []ir.OpKind{ir.OpLoad, ir.OpBinary, ir.OpStore, ir.OpReturn}
	if len(kinds) != len(want) {
		t.Fatalf("ops %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("op %d is %s, want %s", i, kinds[i], want[i])
		}
	}
}

func TestBuiltInPointerArguments(t *testing.T) {
	b := New(ir.ShaderFragment, Options{})
	beginMain(b)
	m := b.IR().Meta
	x := b.DeclareTempVariable("x", ir.TypeUint, ir.PrecisionHigh, nil)
	y := b.DeclareTempVariable("y", ir.TypeUint, ir.PrecisionHigh, nil)
	carry := b.DeclareTempVariable("carry", ir.TypeUint, ir.PrecisionHigh, nil)

	b.PushVariable(x)
	b.PushVariable(y)
	b.PushVariable(carry)
	b.BuiltIn(ir.BuiltInUaddCarry, 3)

	op := m.Instruction(b.top().ID.Register()).Op
	if len(op.Operands) != 3 {
		t.Fatalf("uaddCarry has %d operands", len(op.Operands))
	}
	if !op.Operands[0].ID.IsRegister() || !op.Operands[1].ID.IsRegister() {
		t.Errorf("uaddCarry inputs should be loaded")
	}
	if v, ok := op.Operands[2].ID.Variable(); !ok || v != carry {
		t.Errorf("uaddCarry carry should stay a pointer to carry, got %s", op.Operands[2].ID)
	}
	b.EndStatementWithValue()
	b.EndFunction()
	b.Finish()
}

func TestTextureArgumentOrder(t *testing.T) {
	b := New(ir.ShaderFragment, Options{})
	beginMain(b)
	m := b.IR().Meta
	samplerType := m.ImageTypeID(ir.ImageFloat, ir.ImageType{Dimension: ir.Dim2D, IsSampled: true})
	s := b.DeclareInterfaceVariable("s", samplerType, ir.PrecisionMedium, ir.Decorations{{Kind: ir.DecorationUniform}})
	offsetType := ir.TypeIVec2

	// textureLodOffset(s, vec2(0.5), 1.0, ivec2(1))
	b.PushVariable(s)
	b.PushConstantFloat(0.5)
	b.Construct(ir.TypeVec2, 1)
	b.PushConstantFloat(1)
	b.PushConstantInt(1)
	b.Construct(offsetType, 1)
	b.Texture(ir.TextureLod, false, true)

	result := *b.top()
	if result.Type != ir.TypeVec4 || result.Precision != ir.PrecisionMedium {
		t.Errorf("texture result is t%d %s", result.Type, result.Precision)
	}
	op := m.Instruction(result.ID.Register()).Op
	if c, ok := op.Texture.Lod.ID.Constant(); !ok || c != m.ConstantFloat(1) {
		t.Errorf("lod is %s, want 1.0", op.Texture.Lod.ID)
	}
	if !op.Texture.HasOffset || op.Texture.Offset.Type != offsetType {
		t.Errorf("offset is missing or of the wrong type")
	}
	if op.Operands[1].Type != ir.TypeVec2 {
		t.Errorf("coordinate is t%d, want vec2", op.Operands[1].Type)
	}
	b.EndStatementWithValue()
	b.EndFunction()
	b.Finish()
}

func TestMissingReturnAndUnreachableFunctions(t *testing.T) {
	b := New(ir.ShaderFragment, Options{})
	m := b.IR().Meta

	f := b.NewFunction("f", nil, ir.TypeFloat, ir.PrecisionHigh, nil)
	b.BeginFunction(f)
	b.EndFunction()
	op := b.IR().Entry(f).TerminatingOp()
	if op.Kind != ir.OpReturn || len(op.Operands) != 1 {
		t.Fatalf("f ends in %s, want a Return with a value", op.Kind)
	}
	if c, ok := op.Operands[0].ID.Constant(); !ok || c != m.ConstantNull(ir.TypeFloat) {
		t.Errorf("f returns %s, want zero", op.Operands[0].ID)
	}

	mainID := beginMain(b)
	b.EndFunction()
	b.Finish()

	if b.IR().Entry(f) != nil {
		t.Errorf("f is never called but kept")
	}
	if b.IR().Entry(mainID) == nil {
		t.Errorf("main dropped")
	}
}

func TestFailAndTakeIR(t *testing.T) {
	b := New(ir.ShaderGeometry, Options{})
	beginMain(b)
	b.PushConstantBool(true)
	b.BeginIfTrueBlock()
	b.PushConstantInt(3)
	b.Fail()

	if b.Depth() != 0 || b.InFunction() || !b.functionCFG.IsEmpty() || !b.globalsCFG.IsEmpty() {
		t.Fatalf("fail left state behind")
	}
	if got := b.IR().Meta.Shader.Type; got != ir.ShaderGeometry {
		t.Errorf("fail reset the shader type to %s", got)
	}
	if len(b.IR().Entries) != 0 {
		t.Errorf("fail kept %d functions", len(b.IR().Entries))
	}

	mainID := beginMain(b)
	b.EndFunction()
	b.Finish()
	taken := b.TakeIR()
	if taken.Entry(mainID) == nil {
		t.Errorf("taken IR has no main")
	}
	if got := b.IR().Meta.Shader.Type; got != ir.ShaderVertex {
		t.Errorf("builder holds a %s shader after TakeIR, want vertex", got)
	}
}

func TestPanicsOnMisuse(t *testing.T) {
	tests := []struct {
		name string
		run  func(b *Builder)
	}{
		{"pop from empty stack", func(b *Builder) { b.EndStatementWithValue() }},
		{"finish without main", func(b *Builder) { b.Finish() }},
		{"end function outside function", func(b *Builder) { b.EndFunction() }},
		{"wrong built-in arity", func(b *Builder) { b.BuiltIn(ir.BuiltInClamp, 2) }},
		{"non-constant array size", func(b *Builder) {
			x := b.DeclareTempVariable("x", ir.TypeInt, ir.PrecisionHigh, nil)
			b.PushVariable(x)
			b.PopArraySize()
		}},
	}
	for _, tt := range tests {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("%s: expected a panic", tt.name)
				}
			}()
			tt.run(New(ir.ShaderFragment, Options{}))
		}()
	}
}
