// Package builder turns the depth-first stream of calls a GLSL parser makes while walking a
// shader into IR.
//
// Expressions are evaluated on a value stack: every call that visits an expression leaves its
// result on top of the stack, and the operators pop their operands from it. Statements and
// control flow are forwarded to a cfg.Builder, one for the function being built and one for the
// initializers of global variables, which end up at the start of main().
//
// The builder trusts its caller. Unbalanced calls or operands of the wrong shape are programming
// errors and panic.
package builder

import (
	"fmt"

	"github.com/google/angle-sub000/internal/cfg"
	"github.com/google/angle-sub000/internal/instruction"
	"github.com/google/angle-sub000/internal/ir"
	"github.com/google/angle-sub000/internal/trace"
)

// Options control the zero-initialization and initializer policies of declared variables.
type Options struct {
	// InitializeUninitializedVariables zero-initializes private variables and out parameters.
	InitializeUninitializedVariables bool
	// InitializeOutputVariables zero-initializes shader outputs.
	InitializeOutputVariables bool
	// InitializeGLPosition zero-initializes gl_Position.
	InitializeGLPosition bool
	// InitializerAllowedOnNonConstGlobalVariables lets a constant initializer of a non-const
	// global stay on the declaration instead of becoming a store at the start of main().
	InitializerAllowedOnNonConstGlobalVariables bool
}

// lengthVariable is the variable standing in for the length of gl_ClipDistance or
// gl_CullDistance before the array is sized.
type lengthVariable struct {
	id       ir.VariableID
	declared bool
}

// Builder builds the IR of one shader.
type Builder struct {
	ir      *ir.IR
	options Options

	function   ir.FunctionID
	inFunction bool

	functionCFG *cfg.Builder
	globalsCFG  *cfg.Builder

	values []ir.TypedID

	clipDistanceLength lengthVariable
	cullDistanceLength lengthVariable

	tracer       trace.Tracer
	functionSpan *trace.Span
}

func New(shaderType ir.ShaderType, options Options) *Builder {
	return &Builder{
		ir:          ir.New(shaderType),
		options:     options,
		functionCFG: cfg.New(),
		globalsCFG:  cfg.New(),
		values:      make([]ir.TypedID, 0, 16),
		tracer:      trace.Nop,
	}
}

// SetTracer routes function and control-flow events to t.
func (b *Builder) SetTracer(t trace.Tracer) {
	if t == nil {
		t = trace.Nop
	}
	b.tracer = t
	b.functionCFG.SetTracer(t)
	b.globalsCFG.SetTracer(t)
}

func (b *Builder) Options() Options { return b.options }

// IR gives direct access to the IR being built, for type lookups and the like.
func (b *Builder) IR() *ir.IR { return b.ir }

func (b *Builder) meta() *ir.Meta { return b.ir.Meta }

// TakeIR moves the IR out of the builder, leaving an empty vertex shader in its place.
func (b *Builder) TakeIR() *ir.IR {
	result := b.ir
	b.ir = ir.New(ir.ShaderVertex)
	b.resetLengthVariables()
	return result
}

// Depth is the number of values on the stack.
func (b *Builder) Depth() int {
	return len(b.values)
}

// InFunction reports whether a function body is being built.
func (b *Builder) InFunction() bool {
	return b.inFunction
}

// Finish completes the shader: the code initializing globals is moved to the start of main()
// and functions main() never calls are dropped.
func (b *Builder) Finish() {
	span := trace.Begin(b.tracer, trace.ScopeFunction, "finish", 0)
	mainID, ok := b.meta().MainFunction()
	if !ok {
		panic(fmt.Errorf("builder: finishing a shader without main()"))
	}
	if b.inFunction {
		panic(fmt.Errorf("builder: finishing inside function f%d", b.function))
	}
	b.mustHaveEmptyStack("end of shader")

	if !b.globalsCFG.IsEmpty() {
		b.globalsCFG.Terminate(ir.BranchOp(ir.OpNextBlock))
		b.ir.PrependToMain(b.globalsCFG.PopBlock())
	}

	reachable := make([]bool, len(b.ir.Entries))
	for _, id := range b.ir.FunctionDeclOrder() {
		reachable[id] = true
	}
	dropped := 0
	for id := range b.ir.Entries {
		if !reachable[id] {
			if b.ir.Entries[id] != nil {
				dropped++
			}
			b.ir.Entries[id] = nil
		}
	}
	if b.ir.Entries[mainID] == nil {
		panic(fmt.Errorf("builder: main() has no body"))
	}
	span.WithExtra("dropped", fmt.Sprint(dropped)).End("")
}

// Fail discards everything built so far. It is called when the shader turns out to be invalid
// halfway through.
func (b *Builder) Fail() {
	trace.Point(b.tracer, trace.ScopeFunction, "fail", "")
	b.functionCFG.Clear()
	b.globalsCFG.Clear()
	b.values = b.values[:0]
	b.inFunction = false
	b.functionSpan = nil
	b.ir = ir.New(b.meta().Shader.Type)
	b.resetLengthVariables()
}

func (b *Builder) resetLengthVariables() {
	b.clipDistanceLength = lengthVariable{}
	b.cullDistanceLength = lengthVariable{}
}

// scope is the CFG code currently goes to: the function being built, or the global initializers.
func (b *Builder) scope() *cfg.Builder {
	if b.inFunction {
		return b.functionCFG
	}
	return b.globalsCFG
}

func (b *Builder) mustHaveEmptyStack(what string) {
	if len(b.values) != 0 {
		panic(fmt.Errorf("builder: %d values left on the stack at %s", len(b.values), what))
	}
}

func (b *Builder) push(id ir.TypedID) {
	b.values = append(b.values, id)
}

func (b *Builder) pop() ir.TypedID {
	if len(b.values) == 0 {
		panic(fmt.Errorf("builder: value stack underflow"))
	}
	id := b.values[len(b.values)-1]
	b.values = b.values[:len(b.values)-1]
	return id
}

func (b *Builder) top() *ir.TypedID {
	if len(b.values) == 0 {
		panic(fmt.Errorf("builder: value stack is empty"))
	}
	return &b.values[len(b.values)-1]
}

// load pops a value, reading through it if it is a pointer.
func (b *Builder) load() ir.TypedID {
	b.addInstruction(instruction.Load(b.meta(), b.pop()))
	return b.pop()
}

// popN pops n values with take and returns them in the order they were pushed.
func popN(n int, take func() ir.TypedID) []ir.TypedID {
	args := make([]ir.TypedID, n)
	for i := n - 1; i >= 0; i-- {
		args[i] = take()
	}
	return args
}

// addInstruction places a constructor's result: instructions go to the current scope, and any
// value produced is pushed.
func (b *Builder) addInstruction(r instruction.Result) {
	switch r.Kind {
	case instruction.KindConstant, instruction.KindNoOp:
		b.push(r.ID())
	case instruction.KindVoid:
		b.scope().AddVoid(r.Void)
	case instruction.KindRegister:
		b.scope().AddRegister(r.Register.ID)
		b.push(r.ID())
	}
}
