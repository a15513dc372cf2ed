package builder

import (
	"fmt"

	"github.com/google/angle-sub000/internal/instruction"
	"github.com/google/angle-sub000/internal/ir"
	"github.com/google/angle-sub000/internal/trace"
)

// isPrivate reports whether a variable of this shape can be initialized by the shader itself.
// Uniforms, inputs, outputs, built-ins and the like cannot.
func (b *Builder) isPrivate(typeID ir.TypeID, decorations ir.Decorations, builtIn ir.BuiltIn) bool {
	t := b.meta().Type(typeID)
	if t.IsPointer() {
		panic(fmt.Errorf("builder: variable type t%d is already a pointer", typeID))
	}
	if t.IsImage() || t.IsUnsizedArray() || builtIn != ir.BuiltInNone {
		return false
	}
	for _, kind := range []ir.DecorationKind{
		ir.DecorationInput, ir.DecorationOutput, ir.DecorationInputOutput,
		ir.DecorationUniform, ir.DecorationBuffer, ir.DecorationShared,
	} {
		if decorations.Has(kind) {
			return false
		}
	}
	return true
}

// builtInIsOutput reports whether the built-in is written by the current shader stage.
func (b *Builder) builtInIsOutput(builtIn ir.BuiltIn) bool {
	stage := b.meta().Shader.Type
	switch builtIn {
	case ir.BuiltInFragColor, ir.BuiltInFragData, ir.BuiltInFragDepth,
		ir.BuiltInSecondaryFragColorEXT, ir.BuiltInSecondaryFragDataEXT, ir.BuiltInSampleMask,
		ir.BuiltInPosition, ir.BuiltInPointSize, ir.BuiltInPrimitiveShadingRateEXT,
		ir.BuiltInBoundingBoxOES, ir.BuiltInPerVertexOut:
		return true
	case ir.BuiltInPrimitiveID, ir.BuiltInLayerOut:
		// Inputs everywhere but in geometry shaders.
		return stage == ir.ShaderGeometry
	case ir.BuiltInClipDistance, ir.BuiltInCullDistance:
		return stage != ir.ShaderFragment
	case ir.BuiltInTessLevelOuter, ir.BuiltInTessLevelInner:
		return stage == ir.ShaderTessControl
	default:
		return false
	}
}

func (b *Builder) isOutput(decorations ir.Decorations, builtIn ir.BuiltIn) bool {
	return decorations.Has(ir.DecorationOutput) || b.builtInIsOutput(builtIn)
}

func (b *Builder) needsZeroInit(d ir.VariableDecl) bool {
	if d.Scope == ir.ScopeFunctionParam {
		return false
	}
	return (b.options.InitializeUninitializedVariables && b.isPrivate(d.Type, d.Decorations, d.BuiltIn)) ||
		(b.options.InitializeOutputVariables && b.isOutput(d.Decorations, d.BuiltIn)) ||
		(b.options.InitializeGLPosition && d.BuiltIn == ir.BuiltInPosition)
}

func (b *Builder) declareVariable(d ir.VariableDecl) ir.VariableID {
	zeroInit := b.needsZeroInit(d)
	id := b.meta().DeclareVariable(d)

	// Parameters are declared by their function, globals by the IR.
	if d.Scope == ir.ScopeLocal {
		b.functionCFG.AddVariable(id)
	}
	if zeroInit {
		b.meta().RequireZeroInit(id)
	}
	return id
}

// DeclareBuiltInVariable declares a built-in such as gl_Position. Built-ins are global and are
// named after their tag.
func (b *Builder) DeclareBuiltInVariable(builtIn ir.BuiltIn, typeID ir.TypeID, precision ir.Precision, decorations ir.Decorations) ir.VariableID {
	return b.declareVariable(ir.VariableDecl{
		Name:        ir.ExactName(""),
		Type:        typeID,
		Precision:   precision,
		Decorations: decorations,
		BuiltIn:     builtIn,
		Scope:       ir.ScopeGlobal,
	})
}

// DeclareInterfaceVariable declares a global whose name is part of the shader interface.
func (b *Builder) DeclareInterfaceVariable(name string, typeID ir.TypeID, precision ir.Precision, decorations ir.Decorations) ir.VariableID {
	return b.declareVariable(ir.VariableDecl{
		Name:        ir.InterfaceName(name),
		Type:        typeID,
		Precision:   precision,
		Decorations: decorations,
		Scope:       ir.ScopeGlobal,
	})
}

// DeclareTempVariable declares a variable whose name only needs to stay recognizable. It is
// local inside a function and global otherwise.
func (b *Builder) DeclareTempVariable(name string, typeID ir.TypeID, precision ir.Precision, decorations ir.Decorations) ir.VariableID {
	scope := ir.ScopeGlobal
	if b.inFunction {
		scope = ir.ScopeLocal
	}
	return b.declareVariable(ir.VariableDecl{
		Name:        ir.TempName(name),
		Type:        typeID,
		Precision:   precision,
		Decorations: decorations,
		Scope:       scope,
	})
}

// DeclareConstVariable declares a const variable. Its initializer must follow with Initialize.
func (b *Builder) DeclareConstVariable(typeID ir.TypeID, precision ir.Precision) ir.VariableID {
	return b.meta().DeclareConstVariable(ir.TempName(""), typeID, precision)
}

// MarkVariableInvariant handles a separate `invariant x;` declaration.
func (b *Builder) MarkVariableInvariant(id ir.VariableID) {
	b.meta().Variable(id).Decorations.AddInvariant()
}

// MarkVariablePrecise handles a separate `precise x;` declaration.
func (b *Builder) MarkVariablePrecise(id ir.VariableID) {
	b.meta().Variable(id).Decorations.AddPrecise()
}

// A function definition is built as:
//
//	DeclareFunctionParam...  NewFunction (or UpdateFunctionParamNames)  BeginFunction
//	<body>
//	EndFunction
//
// A prototype alone only calls NewFunction. When the definition follows a prototype, the
// function already exists and UpdateFunctionParamNames gives the parameters the names used by
// the definition.

// NewFunction declares a function. The function called "main" becomes the entry point.
func (b *Builder) NewFunction(name string, params []ir.FunctionParam, returnType ir.TypeID, returnPrecision ir.Precision, returnDecorations ir.Decorations) ir.FunctionID {
	id := b.ir.AddFunction(ir.NewFunction(name, params, returnType, returnPrecision, returnDecorations))
	if name == "main" {
		b.meta().SetMainFunction(id)
	}
	return id
}

// UpdateFunctionParamNames renames the parameters of a declared function and returns their
// variables.
func (b *Builder) UpdateFunctionParamNames(id ir.FunctionID, names []string) []ir.VariableID {
	params := b.meta().Function(id).Params
	if len(params) != len(names) {
		panic(fmt.Errorf("builder: f%d has %d parameters, got %d names", id, len(params), len(names)))
	}
	vars := make([]ir.VariableID, len(params))
	for i, p := range params {
		b.meta().Variable(p.Variable).Name = ir.TempName(names[i])
		vars[i] = p.Variable
	}
	return vars
}

// DeclareFunctionParam declares a parameter of the function about to be defined.
func (b *Builder) DeclareFunctionParam(name string, typeID ir.TypeID, precision ir.Precision, decorations ir.Decorations, direction ir.ParamDirection) ir.VariableID {
	id := b.declareVariable(ir.VariableDecl{
		Name:        ir.TempName(name),
		Type:        typeID,
		Precision:   precision,
		Decorations: decorations,
		Scope:       ir.ScopeFunctionParam,
	})
	if b.options.InitializeUninitializedVariables && direction == ir.ParamOut {
		b.meta().RequireZeroInit(id)
	}
	return id
}

// BeginFunction starts the body of a declared function.
func (b *Builder) BeginFunction(id ir.FunctionID) {
	if b.inFunction {
		panic(fmt.Errorf("builder: f%d begins inside f%d", id, b.function))
	}
	if !b.functionCFG.IsEmpty() {
		panic(fmt.Errorf("builder: f%d begins with leftover code", id))
	}
	b.function = id
	b.inFunction = true
	b.functionSpan = trace.Begin(b.tracer, trace.ScopeFunction, b.meta().Function(id).Name.Name, 0)
}

// EndFunction attaches the body to the function. A body that can fall off its end gets a
// return; for a non-void function it returns zero, which GLSL tolerates.
func (b *Builder) EndFunction() {
	if !b.inFunction {
		panic(fmt.Errorf("builder: end of function outside of a function"))
	}
	if !b.functionCFG.IsDeadCode() {
		returnType := b.meta().Function(b.function).ReturnType
		if returnType == ir.TypeVoid {
			b.BranchReturn()
		} else {
			b.push(ir.FromConstant(b.meta().ConstantNull(returnType), returnType))
			b.BranchReturnValue()
		}
	}

	b.ir.SetFunctionEntry(b.function, b.functionCFG.PopBlock())
	if !b.functionCFG.IsEmpty() {
		panic(fmt.Errorf("builder: f%d ends with %d open blocks", b.function, b.functionCFG.Depth()))
	}
	b.mustHaveEmptyStack("end of function")
	b.inFunction = false

	b.functionSpan.End("")
	b.functionSpan = nil
}

// FunctionParams lists the parameter variables of a function, in order.
func (b *Builder) FunctionParams(id ir.FunctionID) []ir.VariableID {
	params := b.meta().Function(id).Params
	vars := make([]ir.VariableID, len(params))
	for i, p := range params {
		vars[i] = p.Variable
	}
	return vars
}

// CallFunction calls a user function with the arguments on the stack. The arguments are not
// loaded: out and inout arguments are passed as pointers.
func (b *Builder) CallFunction(id ir.FunctionID) {
	n := len(b.meta().Function(id).Params)
	args := popN(n, b.pop)
	b.addInstruction(instruction.Call(b.meta(), id, args))
}
