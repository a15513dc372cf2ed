package builder

import (
	"github.com/google/angle-sub000/internal/instruction"
	"github.com/google/angle-sub000/internal/ir"
)

type (
	unaryConstructor  func(m *ir.Meta, operand ir.TypedID) instruction.Result
	binaryConstructor func(m *ir.Meta, lhs, rhs ir.TypedID) instruction.Result
)

func (b *Builder) unary(build unaryConstructor) {
	operand := b.load()
	b.addInstruction(build(b.meta(), operand))
}

// unaryWithPointer is for operators that modify their operand, which therefore stays a pointer.
func (b *Builder) unaryWithPointer(build unaryConstructor) {
	operand := b.pop()
	b.addInstruction(build(b.meta(), operand))
}

func (b *Builder) binary(build binaryConstructor) {
	rhs := b.load()
	lhs := b.load()
	b.addInstruction(build(b.meta(), lhs, rhs))
}

// assignAndOp builds `x op= y` as `x = x op y`. The pointer to x stays on the stack as the value
// of the expression.
func (b *Builder) assignAndOp(build binaryConstructor) {
	rhs := b.pop()
	lhs := *b.top()
	b.push(lhs)
	b.push(rhs)
	b.binary(build)
	b.Store()
}

func (b *Builder) Negate()     { b.unary(instruction.Negate) }
func (b *Builder) LogicalNot() { b.unary(instruction.LogicalNot) }
func (b *Builder) BitwiseNot() { b.unary(instruction.BitwiseNot) }

func (b *Builder) PostfixIncrement() { b.unaryWithPointer(instruction.PostfixIncrement) }
func (b *Builder) PostfixDecrement() { b.unaryWithPointer(instruction.PostfixDecrement) }
func (b *Builder) PrefixIncrement()  { b.unaryWithPointer(instruction.PrefixIncrement) }
func (b *Builder) PrefixDecrement()  { b.unaryWithPointer(instruction.PrefixDecrement) }

func (b *Builder) Add()        { b.binary(instruction.Add) }
func (b *Builder) AddAssign()  { b.assignAndOp(instruction.Add) }
func (b *Builder) Sub()        { b.binary(instruction.Sub) }
func (b *Builder) SubAssign()  { b.assignAndOp(instruction.Sub) }
func (b *Builder) Mul()        { b.binary(instruction.Mul) }
func (b *Builder) MulAssign()  { b.assignAndOp(instruction.Mul) }
func (b *Builder) Div()        { b.binary(instruction.Div) }
func (b *Builder) DivAssign()  { b.assignAndOp(instruction.Div) }
func (b *Builder) IMod()       { b.binary(instruction.IMod) }
func (b *Builder) IModAssign() { b.assignAndOp(instruction.IMod) }

func (b *Builder) VectorTimesScalar()       { b.binary(instruction.VectorTimesScalar) }
func (b *Builder) VectorTimesScalarAssign() { b.assignAndOp(instruction.VectorTimesScalar) }
func (b *Builder) MatrixTimesScalar()       { b.binary(instruction.MatrixTimesScalar) }
func (b *Builder) MatrixTimesScalarAssign() { b.assignAndOp(instruction.MatrixTimesScalar) }
func (b *Builder) VectorTimesMatrix()       { b.binary(instruction.VectorTimesMatrix) }
func (b *Builder) VectorTimesMatrixAssign() { b.assignAndOp(instruction.VectorTimesMatrix) }
func (b *Builder) MatrixTimesVector()       { b.binary(instruction.MatrixTimesVector) }
func (b *Builder) MatrixTimesMatrix()       { b.binary(instruction.MatrixTimesMatrix) }
func (b *Builder) MatrixTimesMatrixAssign() { b.assignAndOp(instruction.MatrixTimesMatrix) }

func (b *Builder) LogicalXor()       { b.binary(instruction.LogicalXor) }
func (b *Builder) Equal()            { b.binary(instruction.Equal) }
func (b *Builder) NotEqual()         { b.binary(instruction.NotEqual) }
func (b *Builder) LessThan()         { b.binary(instruction.LessThan) }
func (b *Builder) GreaterThan()      { b.binary(instruction.GreaterThan) }
func (b *Builder) LessThanEqual()    { b.binary(instruction.LessThanEqual) }
func (b *Builder) GreaterThanEqual() { b.binary(instruction.GreaterThanEqual) }

func (b *Builder) BitShiftLeft()        { b.binary(instruction.BitShiftLeft) }
func (b *Builder) BitShiftLeftAssign()  { b.assignAndOp(instruction.BitShiftLeft) }
func (b *Builder) BitShiftRight()       { b.binary(instruction.BitShiftRight) }
func (b *Builder) BitShiftRightAssign() { b.assignAndOp(instruction.BitShiftRight) }
func (b *Builder) BitwiseOr()           { b.binary(instruction.BitwiseOr) }
func (b *Builder) BitwiseOrAssign()     { b.assignAndOp(instruction.BitwiseOr) }
func (b *Builder) BitwiseXor()          { b.binary(instruction.BitwiseXor) }
func (b *Builder) BitwiseXorAssign()    { b.assignAndOp(instruction.BitwiseXor) }
func (b *Builder) BitwiseAnd()          { b.binary(instruction.BitwiseAnd) }
func (b *Builder) BitwiseAndAssign()    { b.assignAndOp(instruction.BitwiseAnd) }
