package instruction

import (
	"fmt"

	"github.com/google/angle-sub000/internal/ir"
)

// Kind tells what a constructor produced.
type Kind uint8

const (
	// KindRegister is a new instruction with a result register.
	KindRegister Kind = iota
	// KindConstant is a folded constant; nothing is emitted.
	KindConstant
	// KindNoOp forwards an existing value; nothing is emitted.
	KindNoOp
	// KindVoid is an instruction without a result.
	KindVoid
)

func (k Kind) String() string {
	switch k {
	case KindRegister:
		return "register"
	case KindConstant:
		return "constant"
	case KindNoOp:
		return "no-op"
	case KindVoid:
		return "void"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Result is the outcome of an instruction constructor. Exactly one of the payload fields is
// meaningful, selected by Kind.
type Result struct {
	Kind     Kind
	Register ir.TypedRegister
	Constant ir.TypedConstant
	NoOp     ir.TypedID
	Void     ir.Op
}

func registerResult(m *ir.Meta, op ir.Op, typeID ir.TypeID, precision ir.Precision) Result {
	return Result{Kind: KindRegister, Register: m.NewRegister(op, typeID, precision)}
}

func constantResult(id ir.ConstantID, typeID ir.TypeID, precision ir.Precision) Result {
	return Result{Kind: KindConstant, Constant: ir.TypedConstant{ID: id, Type: typeID, Precision: precision}}
}

func noOpResult(id ir.TypedID) Result {
	return Result{Kind: KindNoOp, NoOp: id}
}

func voidResult(op ir.Op) Result {
	return Result{Kind: KindVoid, Void: op}
}

// HasValue reports whether the result can be referenced by later instructions.
func (r Result) HasValue() bool {
	return r.Kind != KindVoid
}

// ID returns the value produced by the constructor.
func (r Result) ID() ir.TypedID {
	switch r.Kind {
	case KindRegister:
		return ir.FromRegister(r.Register)
	case KindConstant:
		return ir.FromTypedConstant(r.Constant)
	case KindNoOp:
		return r.NoOp
	default:
		panic(fmt.Errorf("instruction: expected an instruction with a value, got %s", r.Kind))
	}
}

// OverrideResultID makes the result live in register id instead of a new one. Constants and
// forwarded values are turned into an Alias first.
func (r *Result) OverrideResultID(m *ir.Meta, id ir.TypedRegister) {
	switch r.Kind {
	case KindRegister:
		m.ReplaceInstruction(id.ID, r.Register.ID)
		r.Register = id
	case KindConstant, KindNoOp:
		alias := Alias(m, r.ID())
		alias.OverrideResultID(m, id)
		*r = alias
	default:
		panic(fmt.Errorf("instruction: cannot override the result id of a %s instruction", r.Kind))
	}
}

// AppendTo adds the result to the block and returns the id later instructions use to
// reference it. Constants and no-ops add nothing.
func (r Result) AppendTo(b *ir.Block) (ir.TypedID, bool) {
	switch r.Kind {
	case KindRegister:
		b.AddRegister(r.Register.ID)
	case KindVoid:
		b.AddVoid(r.Void)
		return ir.TypedID{}, false
	}
	return r.ID(), true
}

type (
	promoteUnary  func(m *ir.Meta, operand ir.TypeID) ir.TypeID
	promoteBinary func(m *ir.Meta, lhs, rhs ir.TypeID) ir.TypeID
	foldUnary     func(m *ir.Meta, c ir.ConstantID, result ir.TypeID) ir.ConstantID
	foldBinary    func(m *ir.Meta, lhs, rhs ir.ConstantID, result ir.TypeID) ir.ConstantID
)

// unaryOp is the shared shape of every single-operand constructor: promote the type, derive the
// precision, then fold if the operand is constant or emit otherwise.
func unaryOp(m *ir.Meta, operand ir.TypedID, promote promoteUnary, precision func(ir.Precision) ir.Precision,
	makeOp func(operand ir.TypedID, result ir.TypeID) ir.Op, fold foldUnary) Result {
	resultType := promote(m, operand.Type)
	resultPrecision := precision(operand.Precision)

	if c, ok := operand.ID.Constant(); ok {
		return constantResult(fold(m, c, resultType), resultType, resultPrecision)
	}
	return registerResult(m, makeOp(operand, resultType), resultType, resultPrecision)
}

func binaryOp(m *ir.Meta, lhs, rhs ir.TypedID, promote promoteBinary, precision func(lhs, rhs ir.Precision) ir.Precision,
	makeOp func(lhs, rhs ir.TypedID) ir.Op, fold foldBinary) Result {
	resultType := promote(m, lhs.Type, rhs.Type)
	resultPrecision := precision(lhs.Precision, rhs.Precision)

	lc, lok := lhs.ID.Constant()
	rc, rok := rhs.ID.Constant()
	if lok && rok {
		return constantResult(fold(m, lc, rc, resultType), resultType, resultPrecision)
	}
	return registerResult(m, makeOp(lhs, rhs), resultType, resultPrecision)
}

func cannotFold(what string) foldUnary {
	return func(*ir.Meta, ir.ConstantID, ir.TypeID) ir.ConstantID {
		panic(fmt.Errorf("instruction: operand of %s cannot be a constant", what))
	}
}
