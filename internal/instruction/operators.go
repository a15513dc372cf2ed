package instruction

import (
	"github.com/google/angle-sub000/internal/ir"
)

func unaryInstr(op ir.UnaryOp) func(ir.TypedID, ir.TypeID) ir.Op {
	return func(operand ir.TypedID, _ ir.TypeID) ir.Op {
		return ir.Op{Kind: ir.OpUnary, Unary: op, Operands: []ir.TypedID{operand}}
	}
}

func binaryInstr(op ir.BinaryOp) func(ir.TypedID, ir.TypedID) ir.Op {
	return func(lhs, rhs ir.TypedID) ir.Op {
		return ir.Op{Kind: ir.OpBinary, Binary: op, Operands: []ir.TypedID{lhs, rhs}}
	}
}

func Negate(m *ir.Meta, operand ir.TypedID) Result {
	return unaryOp(m, operand, sameAsOperand, samePrecision, unaryInstr(ir.UnaryNegate), foldNegate)
}

func BitwiseNot(m *ir.Meta, operand ir.TypedID) Result {
	return unaryOp(m, operand, sameAsOperand, samePrecision, unaryInstr(ir.UnaryBitwiseNot), foldBitwiseNot)
}

// LogicalNot of a LogicalNot forwards the original operand.
func LogicalNot(m *ir.Meta, operand ir.TypedID) Result {
	if operand.ID.IsRegister() {
		op := &m.Instruction(operand.ID.Register()).Op
		if op.Kind == ir.OpUnary && op.Unary == ir.UnaryLogicalNot {
			return noOpResult(op.Operands[0])
		}
	}
	return unaryOp(m, operand, boolResult, noPrecision, unaryInstr(ir.UnaryLogicalNot), foldLogicalNot)
}

// The increment and decrement operators take a pointer and produce the value.

func PrefixIncrement(m *ir.Meta, operand ir.TypedID) Result {
	return incDec(m, operand, ir.UnaryPrefixIncrement)
}

func PrefixDecrement(m *ir.Meta, operand ir.TypedID) Result {
	return incDec(m, operand, ir.UnaryPrefixDecrement)
}

func PostfixIncrement(m *ir.Meta, operand ir.TypedID) Result {
	return incDec(m, operand, ir.UnaryPostfixIncrement)
}

func PostfixDecrement(m *ir.Meta, operand ir.TypedID) Result {
	return incDec(m, operand, ir.UnaryPostfixDecrement)
}

func incDec(m *ir.Meta, operand ir.TypedID, op ir.UnaryOp) Result {
	return unaryOp(m, operand, dereference, samePrecision, unaryInstr(op), cannotFold(op.String()))
}

func arithmetic(m *ir.Meta, op ir.BinaryOp, lhs, rhs ir.TypedID, fold foldBinary) Result {
	return binaryOp(m, lhs, rhs, promoteScalar, HigherPrecision, binaryInstr(op), fold)
}

func Add(m *ir.Meta, lhs, rhs ir.TypedID) Result {
	return arithmetic(m, ir.BinaryAdd, lhs, rhs, foldAdd)
}

func Sub(m *ir.Meta, lhs, rhs ir.TypedID) Result {
	return arithmetic(m, ir.BinarySub, lhs, rhs, foldSub)
}

func Mul(m *ir.Meta, lhs, rhs ir.TypedID) Result {
	return arithmetic(m, ir.BinaryMul, lhs, rhs, foldMul)
}

func Div(m *ir.Meta, lhs, rhs ir.TypedID) Result {
	return arithmetic(m, ir.BinaryDiv, lhs, rhs, foldDiv)
}

func IMod(m *ir.Meta, lhs, rhs ir.TypedID) Result {
	return arithmetic(m, ir.BinaryIMod, lhs, rhs, foldIMod)
}

func BitwiseOr(m *ir.Meta, lhs, rhs ir.TypedID) Result {
	return arithmetic(m, ir.BinaryBitwiseOr, lhs, rhs, foldBitwiseOr)
}

func BitwiseXor(m *ir.Meta, lhs, rhs ir.TypedID) Result {
	return arithmetic(m, ir.BinaryBitwiseXor, lhs, rhs, foldBitwiseXor)
}

func BitwiseAnd(m *ir.Meta, lhs, rhs ir.TypedID) Result {
	return arithmetic(m, ir.BinaryBitwiseAnd, lhs, rhs, foldBitwiseAnd)
}

// timesScalar puts the scalar operand on the right.
func timesScalar(m *ir.Meta, op ir.BinaryOp, lhs, rhs ir.TypedID) Result {
	if m.Type(lhs.Type).IsScalar() {
		lhs, rhs = rhs, lhs
	}
	return binaryOp(m, lhs, rhs, sameAsLHS, HigherPrecision, binaryInstr(op), foldMul)
}

func VectorTimesScalar(m *ir.Meta, lhs, rhs ir.TypedID) Result {
	return timesScalar(m, ir.BinaryVectorTimesScalar, lhs, rhs)
}

func MatrixTimesScalar(m *ir.Meta, lhs, rhs ir.TypedID) Result {
	return timesScalar(m, ir.BinaryMatrixTimesScalar, lhs, rhs)
}

func VectorTimesMatrix(m *ir.Meta, lhs, rhs ir.TypedID) Result {
	return binaryOp(m, lhs, rhs, promoteVectorTimesMatrix, HigherPrecision,
		binaryInstr(ir.BinaryVectorTimesMatrix), foldVectorTimesMatrix)
}

func MatrixTimesVector(m *ir.Meta, lhs, rhs ir.TypedID) Result {
	return binaryOp(m, lhs, rhs, promoteMatrixTimesVector, HigherPrecision,
		binaryInstr(ir.BinaryMatrixTimesVector), foldMatrixTimesVector)
}

func MatrixTimesMatrix(m *ir.Meta, lhs, rhs ir.TypedID) Result {
	return binaryOp(m, lhs, rhs, promoteMatrixTimesMatrix, HigherPrecision,
		binaryInstr(ir.BinaryMatrixTimesMatrix), foldMatrixTimesMatrix)
}

// Shifts keep the type and precision of the shifted value.

func BitShiftLeft(m *ir.Meta, lhs, rhs ir.TypedID) Result {
	return binaryOp(m, lhs, rhs, sameAsLHS, lhsPrecision, binaryInstr(ir.BinaryBitShiftLeft), foldShift(true))
}

func BitShiftRight(m *ir.Meta, lhs, rhs ir.TypedID) Result {
	return binaryOp(m, lhs, rhs, sameAsLHS, lhsPrecision, binaryInstr(ir.BinaryBitShiftRight), foldShift(false))
}

func comparison(m *ir.Meta, op ir.BinaryOp, lhs, rhs ir.TypedID, fold foldBinary) Result {
	return binaryOp(m, lhs, rhs, boolResultBinary, noPrecisionBinary, binaryInstr(op), fold)
}

func LogicalXor(m *ir.Meta, lhs, rhs ir.TypedID) Result {
	return comparison(m, ir.BinaryLogicalXor, lhs, rhs, foldLogicalXor)
}

func Equal(m *ir.Meta, lhs, rhs ir.TypedID) Result {
	return comparison(m, ir.BinaryEqual, lhs, rhs, foldEqual)
}

func NotEqual(m *ir.Meta, lhs, rhs ir.TypedID) Result {
	return comparison(m, ir.BinaryNotEqual, lhs, rhs, foldNotEqual)
}

func LessThan(m *ir.Meta, lhs, rhs ir.TypedID) Result {
	return comparison(m, ir.BinaryLessThan, lhs, rhs, foldLessThan)
}

func GreaterThan(m *ir.Meta, lhs, rhs ir.TypedID) Result {
	return comparison(m, ir.BinaryGreaterThan, lhs, rhs, foldGreaterThan)
}

func LessThanEqual(m *ir.Meta, lhs, rhs ir.TypedID) Result {
	return comparison(m, ir.BinaryLessThanEqual, lhs, rhs, foldLessThanEqual)
}

func GreaterThanEqual(m *ir.Meta, lhs, rhs ir.TypedID) Result {
	return comparison(m, ir.BinaryGreaterThanEqual, lhs, rhs, foldGreaterThanEqual)
}

// BuiltInUnary creates a call to a built-in function taking one argument.
func BuiltInUnary(m *ir.Meta, op ir.UnaryOp, operand ir.TypedID) Result {
	return unaryOp(m, operand,
		func(m *ir.Meta, t ir.TypeID) ir.TypeID { return promoteBuiltInUnary(m, op, t) },
		func(p ir.Precision) ir.Precision { return builtInUnaryPrecision(op, p) },
		unaryInstr(op), foldBuiltInUnary(op))
}

// BuiltInBinary creates a call to a built-in function taking two arguments.
func BuiltInBinary(m *ir.Meta, op ir.BinaryOp, lhs, rhs ir.TypedID) Result {
	return binaryOp(m, lhs, rhs,
		func(m *ir.Meta, l, r ir.TypeID) ir.TypeID { return promoteBuiltInBinary(m, op, l, r) },
		func(l, r ir.Precision) ir.Precision { return builtInBinaryPrecision(op, l, r) },
		binaryInstr(op), foldBuiltInBinary(op))
}

// BuiltIn creates a call to any other built-in. Only the math built-ins are folded; the rest
// have side effects or depend on resources.
func BuiltIn(m *ir.Meta, op ir.BuiltInOp, operands []ir.TypedID) Result {
	types := make([]ir.TypeID, len(operands))
	for i, operand := range operands {
		types[i] = operand.Type
	}
	resultType := promoteBuiltIn(m, op, types)
	instr := ir.Op{Kind: ir.OpBuiltIn, BuiltIn: op, Operands: operands}
	if resultType == ir.TypeVoid {
		return voidResult(instr)
	}
	precision := builtInPrecision(op, operands)

	if op.MayConstFold() {
		constants := make([]ir.ConstantID, 0, len(operands))
		for _, operand := range operands {
			if c, ok := operand.ID.Constant(); ok {
				constants = append(constants, c)
			}
		}
		if len(constants) == len(operands) {
			return constantResult(foldBuiltIn(m, op, constants, resultType), resultType, precision)
		}
	}
	return registerResult(m, instr, resultType, precision)
}

// Texture samples sampler at coord; the variant and its extra parameters are in texOp.
func Texture(m *ir.Meta, texOp *ir.TextureOp, sampler, coord ir.TypedID) Result {
	resultType := promoteTexture(m, texOp, sampler.Type)
	op := ir.Op{Kind: ir.OpTexture, Operands: []ir.TypedID{sampler, coord}, Texture: *texOp}
	return registerResult(m, op, resultType, sampler.Precision)
}
