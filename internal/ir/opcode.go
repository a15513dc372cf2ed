package ir

import "fmt"

// OpKind enumerates instruction opcodes.
type OpKind uint8

const (
	// OpMergeInput is the opcode of a merge block input register.
	OpMergeInput OpKind = iota

	// Branches. Exactly one of these terminates every block.

	// OpDiscard ends the invocation.
	OpDiscard
	// OpReturn returns from the function, with an optional value.
	OpReturn
	// OpBreak leaves the innermost loop or switch.
	OpBreak
	// OpContinue jumps to the loop's continue block.
	OpContinue
	// OpPassthrough falls through to the next switch case.
	OpPassthrough
	// OpNextBlock continues with the merge block.
	OpNextBlock
	// OpMerge ends an if/else branch, optionally passing a value to the merge block input.
	OpMerge
	// OpIf branches on a bool condition.
	OpIf
	// OpLoop starts a while/for loop.
	OpLoop
	// OpDoLoop starts a do/while loop.
	OpDoLoop
	// OpLoopIf ends a loop condition block.
	OpLoopIf
	// OpSwitch branches on a selector value.
	OpSwitch

	OpExtractVectorComponent
	OpExtractVectorComponentMulti
	OpExtractVectorComponentDynamic
	OpExtractMatrixColumn
	OpExtractStructField
	OpExtractArrayElement

	OpAccessVectorComponent
	OpAccessVectorComponentMulti
	OpAccessVectorComponentDynamic
	OpAccessMatrixColumn
	OpAccessStructField
	OpAccessArrayElement

	OpConstructScalarFromScalar
	OpConstructVectorFromScalar
	OpConstructMatrixFromScalar
	OpConstructMatrixFromMatrix
	OpConstructVectorFromMultiple
	OpConstructMatrixFromMultiple
	OpConstructStruct
	OpConstructArray

	OpLoad
	OpStore
	OpAlias
	OpCall
	OpUnary
	OpBinary
	OpBuiltIn
	OpTexture
)

var opKindNames = [...]string{
	OpMergeInput:                    "MergeInput",
	OpDiscard:                       "Discard",
	OpReturn:                        "Return",
	OpBreak:                         "Break",
	OpContinue:                      "Continue",
	OpPassthrough:                   "Passthrough",
	OpNextBlock:                     "NextBlock",
	OpMerge:                         "Merge",
	OpIf:                            "If",
	OpLoop:                          "Loop",
	OpDoLoop:                        "DoLoop",
	OpLoopIf:                        "LoopIf",
	OpSwitch:                        "Switch",
	OpExtractVectorComponent:        "ExtractVectorComponent",
	OpExtractVectorComponentMulti:   "ExtractVectorComponentMulti",
	OpExtractVectorComponentDynamic: "ExtractVectorComponentDynamic",
	OpExtractMatrixColumn:           "ExtractMatrixColumn",
	OpExtractStructField:            "ExtractStructField",
	OpExtractArrayElement:           "ExtractArrayElement",
	OpAccessVectorComponent:         "AccessVectorComponent",
	OpAccessVectorComponentMulti:    "AccessVectorComponentMulti",
	OpAccessVectorComponentDynamic:  "AccessVectorComponentDynamic",
	OpAccessMatrixColumn:            "AccessMatrixColumn",
	OpAccessStructField:             "AccessStructField",
	OpAccessArrayElement:            "AccessArrayElement",
	OpConstructScalarFromScalar:     "ConstructScalarFromScalar",
	OpConstructVectorFromScalar:     "ConstructVectorFromScalar",
	OpConstructMatrixFromScalar:     "ConstructMatrixFromScalar",
	OpConstructMatrixFromMatrix:     "ConstructMatrixFromMatrix",
	OpConstructVectorFromMultiple:   "ConstructVectorFromMultiple",
	OpConstructMatrixFromMultiple:   "ConstructMatrixFromMultiple",
	OpConstructStruct:               "ConstructStruct",
	OpConstructArray:                "ConstructArray",
	OpLoad:                          "Load",
	OpStore:                         "Store",
	OpAlias:                         "Alias",
	OpCall:                          "Call",
	OpUnary:                         "Unary",
	OpBinary:                        "Binary",
	OpBuiltIn:                       "BuiltIn",
	OpTexture:                       "Texture",
}

func (k OpKind) String() string {
	if int(k) < len(opKindNames) {
		return opKindNames[k]
	}
	return fmt.Sprintf("OpKind(%d)", k)
}

// IsBranch reports whether the opcode terminates a block.
func (k OpKind) IsBranch() bool {
	return k >= OpDiscard && k <= OpSwitch
}

// SwitchCase labels one case of a switch; IsDefault marks the default label.
type SwitchCase struct {
	Value     ConstantID
	IsDefault bool
}

// Op is an instruction opcode with its operands. Which fields are meaningful depends on Kind:
//
//   - Return, Merge: Operands holds the optional value.
//   - If, LoopIf: Operands[0] is the condition.
//   - Switch: Operands[0] is the selector, Cases the labels in source order.
//   - Extract*/Access*: Operands[0] is the base; dynamic variants add the index as Operands[1];
//     constant component and field indices go in Indices.
//   - Construct*, Call, BuiltIn: Operands are the arguments.
//   - Load, Alias: Operands[0]. Store: pointer then value.
//   - Unary, Binary: one or two operands plus the sub-opcode.
//   - Texture: sampler then coordinate, the rest in Texture.
type Op struct {
	Kind     OpKind
	Operands []TypedID
	Indices  []uint32
	Cases    []SwitchCase
	Function FunctionID
	Unary    UnaryOp
	Binary   BinaryOp
	BuiltIn  BuiltInOp
	Texture  TextureOp
}

func (op *Op) IsBranch() bool { return op.Kind.IsBranch() }

// BranchOp builds a branch that takes no operand.
func BranchOp(kind OpKind) Op { return Op{Kind: kind} }

func IfOp(cond TypedID) Op     { return Op{Kind: OpIf, Operands: []TypedID{cond}} }
func LoopIfOp(cond TypedID) Op { return Op{Kind: OpLoopIf, Operands: []TypedID{cond}} }
func SwitchOp(value TypedID) Op {
	return Op{Kind: OpSwitch, Operands: []TypedID{value}}
}

// MergeOp builds a Merge, passing value to the merge block when it is non-nil.
func MergeOp(value *TypedID) Op {
	if value == nil {
		return Op{Kind: OpMerge}
	}
	return Op{Kind: OpMerge, Operands: []TypedID{*value}}
}

// ReturnOp builds a Return, with a value when it is non-nil.
func ReturnOp(value *TypedID) Op {
	if value == nil {
		return Op{Kind: OpReturn}
	}
	return Op{Kind: OpReturn, Operands: []TypedID{*value}}
}

func StoreOp(pointer, value TypedID) Op {
	return Op{Kind: OpStore, Operands: []TypedID{pointer, value}}
}

func (op *Op) mustBe(kind OpKind) {
	if op.Kind != kind {
		panic(fmt.Errorf("ir: expected %s, got %s", kind, op.Kind))
	}
}

// IfCondition returns the condition of an If.
func (op *Op) IfCondition() TypedID {
	op.mustBe(OpIf)
	return op.Operands[0]
}

// LoopCondition returns the condition of a LoopIf.
func (op *Op) LoopCondition() TypedID {
	op.mustBe(OpLoopIf)
	return op.Operands[0]
}

// MergeParameter returns the value passed by a Merge, if any.
func (op *Op) MergeParameter() (TypedID, bool) {
	op.mustBe(OpMerge)
	if len(op.Operands) == 0 {
		return TypedID{}, false
	}
	return op.Operands[0], true
}

// SwitchValue returns the selector of a Switch.
func (op *Op) SwitchValue() TypedID {
	op.mustBe(OpSwitch)
	return op.Operands[0]
}

// AddSwitchCase appends a case label to a Switch.
func (op *Op) AddSwitchCase(c SwitchCase) {
	op.mustBe(OpSwitch)
	op.Cases = append(op.Cases, c)
}

// ForEachOperand calls fn for every value the op reads, including texture parameters.
func (op *Op) ForEachOperand(fn func(TypedID)) {
	for _, o := range op.Operands {
		fn(o)
	}
	if op.Kind == OpTexture {
		op.Texture.forEachParam(fn)
	}
}

// Instruction is an op producing a register.
type Instruction struct {
	Op     Op
	Result TypedRegister
}

// BlockInstr is an entry of a block: either a void op stored inline or a register whose op
// lives in the Meta instruction table.
type BlockInstr struct {
	IsRegister bool
	Register   RegisterID
	Op         Op
}

func VoidInstr(op Op) BlockInstr             { return BlockInstr{Op: op} }
func RegisterInstr(id RegisterID) BlockInstr { return BlockInstr{IsRegister: true, Register: id} }

// IsBranch reports whether the entry is a terminating op.
func (bi *BlockInstr) IsBranch() bool {
	return !bi.IsRegister && bi.Op.IsBranch()
}

// Resolve returns the op of the entry and, for registers, its result.
func (bi *BlockInstr) Resolve(m *Meta) (*Op, *TypedRegister) {
	if !bi.IsRegister {
		return &bi.Op, nil
	}
	inst := m.Instruction(bi.Register)
	return &inst.Op, &inst.Result
}
