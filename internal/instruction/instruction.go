// Package instruction creates IR instructions. Every constructor deduces the result type and
// precision from its operands and folds the operation into a constant when all operands are
// constant; the caller decides where the produced Result goes.
package instruction

import (
	"fmt"
	"slices"

	"github.com/google/angle-sub000/internal/ir"
)

// MergeInput creates the register a merge block receives from the Merge branches leading to it.
func MergeInput(m *ir.Meta, typeID ir.TypeID, precision ir.Precision) ir.TypedRegister {
	return m.NewRegister(ir.Op{Kind: ir.OpMergeInput}, typeID, precision)
}

func Call(m *ir.Meta, function ir.FunctionID, args []ir.TypedID) Result {
	op := ir.Op{Kind: ir.OpCall, Function: function, Operands: args}
	f := m.Function(function)
	if f.ReturnType == ir.TypeVoid {
		return voidResult(op)
	}
	return registerResult(m, op, f.ReturnType, f.ReturnPrecision)
}

// Branches.

func Discard() Result  { return voidResult(ir.BranchOp(ir.OpDiscard)) }
func Break() Result    { return voidResult(ir.BranchOp(ir.OpBreak)) }
func Continue() Result { return voidResult(ir.BranchOp(ir.OpContinue)) }

func Return(value *ir.TypedID) Result { return voidResult(ir.ReturnOp(value)) }
func Merge(value *ir.TypedID) Result  { return voidResult(ir.MergeOp(value)) }

// Load reads through a pointer. Loading a value that is not a pointer is a no-op, which lets
// callers load unconditionally.
func Load(m *ir.Meta, pointer ir.TypedID) Result {
	t := m.Type(pointer.Type)
	if !t.IsPointer() {
		return noOpResult(pointer)
	}
	op := ir.Op{Kind: ir.OpLoad, Operands: []ir.TypedID{pointer}}
	return registerResult(m, op, t.Elem, pointer.Precision)
}

func Store(pointer, value ir.TypedID) Result {
	return voidResult(ir.StoreOp(pointer, value))
}

// Alias copies a value into a new register.
func Alias(m *ir.Meta, id ir.TypedID) Result {
	op := ir.Op{Kind: ir.OpAlias, Operands: []ir.TypedID{id}}
	return registerResult(m, op, id.Type, id.Precision)
}

// swizzleSource returns the instruction that produced operand if it is a multi-component
// swizzle, so that a swizzle of a swizzle can select from the original vector.
func swizzleSource(m *ir.Meta, operand ir.TypedID) (*ir.Op, bool) {
	if !operand.ID.IsRegister() {
		return nil, false
	}
	op := &m.Instruction(operand.ID.Register()).Op
	switch op.Kind {
	case ir.OpExtractVectorComponentMulti, ir.OpAccessVectorComponentMulti:
		return op, true
	default:
		return nil, false
	}
}

func accessOrExtract(m *ir.Meta, result ir.TypeID, access, extract ir.OpKind) ir.OpKind {
	if m.Type(result).IsPointer() {
		return access
	}
	return extract
}

// VectorComponent selects one component of a vector, by value or by reference.
func VectorComponent(m *ir.Meta, operand ir.TypedID, component uint32) Result {
	if src, ok := swizzleSource(m, operand); ok {
		component = src.Indices[component]
		operand = src.Operands[0]
	}

	resultType := indexedType(m, operand.Type, 0)
	if c, ok := operand.ID.Constant(); ok {
		return constantResult(m.Constant(c).Elements[component], resultType, operand.Precision)
	}
	op := ir.Op{
		Kind:     accessOrExtract(m, resultType, ir.OpAccessVectorComponent, ir.OpExtractVectorComponent),
		Operands: []ir.TypedID{operand},
		Indices:  []uint32{component},
	}
	return registerResult(m, op, resultType, operand.Precision)
}

func vectorSizeThroughPointer(m *ir.Meta, typeID ir.TypeID) uint32 {
	t := m.Type(typeID)
	if t.IsPointer() {
		t = m.Type(t.Elem)
	}
	n, _ := t.VectorSize()
	return n
}

// VectorComponentMulti is a swizzle selecting more than one component.
func VectorComponentMulti(m *ir.Meta, operand ir.TypedID, components []uint32) Result {
	components = slices.Clone(components)
	if src, ok := swizzleSource(m, operand); ok {
		for i, c := range components {
			components[i] = src.Indices[c]
		}
		operand = src.Operands[0]
	}

	size := vectorSizeThroughPointer(m, operand.Type)
	identity := uint32(len(components)) == size
	for i, c := range components {
		identity = identity && c == uint32(i)
	}
	if identity {
		return noOpResult(operand)
	}

	resultType := indexedType(m, operand.Type, uint32(len(components)))
	if c, ok := operand.ID.Constant(); ok {
		elems := m.Constant(c).Elements
		picked := make([]ir.ConstantID, len(components))
		for i, comp := range components {
			picked[i] = elems[comp]
		}
		return constantResult(m.ConstantComposite(resultType, picked), resultType, operand.Precision)
	}
	op := ir.Op{
		Kind:     accessOrExtract(m, resultType, ir.OpAccessVectorComponentMulti, ir.OpExtractVectorComponentMulti),
		Operands: []ir.TypedID{operand},
		Indices:  components,
	}
	return registerResult(m, op, resultType, operand.Precision)
}

// Index selects an array element, matrix column or vector component by a (possibly dynamic)
// index.
func Index(m *ir.Meta, indexed, index ir.TypedID) Result {
	return binaryOp(m, indexed, index, promoteIndex, lhsPrecision,
		func(lhs, rhs ir.TypedID) ir.Op {
			t := m.Type(lhs.Type)
			isPointer := t.IsPointer()
			if isPointer {
				t = m.Type(t.Elem)
			}
			var kind ir.OpKind
			switch {
			case t.IsVector() && isPointer:
				kind = ir.OpAccessVectorComponentDynamic
			case t.IsVector():
				kind = ir.OpExtractVectorComponentDynamic
			case t.IsMatrix() && isPointer:
				kind = ir.OpAccessMatrixColumn
			case t.IsMatrix():
				kind = ir.OpExtractMatrixColumn
			case isPointer:
				kind = ir.OpAccessArrayElement
			default:
				kind = ir.OpExtractArrayElement
			}
			return ir.Op{Kind: kind, Operands: []ir.TypedID{lhs, rhs}}
		},
		func(m *ir.Meta, lhs, rhs ir.ConstantID, _ ir.TypeID) ir.ConstantID {
			return m.Constant(lhs).Elements[m.Constant(rhs).Index()]
		})
}

func StructField(m *ir.Meta, operand ir.TypedID, field uint32) Result {
	resultType := promoteStructField(m, operand.Type, field)
	st := m.Type(operand.Type)
	if st.IsPointer() {
		st = m.Type(st.Elem)
	}
	precision := st.StructField(field).Precision

	if c, ok := operand.ID.Constant(); ok {
		return constantResult(m.Constant(c).Elements[field], resultType, precision)
	}
	op := ir.Op{
		Kind:     accessOrExtract(m, resultType, ir.OpAccessStructField, ir.OpExtractStructField),
		Operands: []ir.TypedID{operand},
		Indices:  []uint32{field},
	}
	return registerResult(m, op, resultType, precision)
}

// Construct builds a value of typeID from args. Constructing a type from a value that already
// has it forwards the value.
func Construct(m *ir.Meta, typeID ir.TypeID, args []ir.TypedID) Result {
	if len(args) == 0 {
		panic(fmt.Errorf("instruction: constructor of t%d without arguments", typeID))
	}

	precision := ir.PrecisionNone
	switch m.Type(m.ScalarTypeOf(baseOfArrays(m, typeID))).Basic {
	case ir.BasicFloat, ir.BasicInt, ir.BasicUint:
		for _, arg := range args {
			precision = HigherPrecision(precision, arg.Precision)
		}
	}

	if len(args) == 1 && args[0].Type == typeID {
		return noOpResult(args[0])
	}

	constants := make([]ir.ConstantID, 0, len(args))
	for _, arg := range args {
		c, ok := arg.ID.Constant()
		if !ok {
			break
		}
		constants = append(constants, c)
	}
	if len(constants) == len(args) {
		return constantResult(foldConstruct(m, typeID, constants), typeID, precision)
	}

	op := ir.Op{Kind: constructKind(m, typeID, args), Operands: args}
	return registerResult(m, op, typeID, precision)
}

// baseOfArrays strips array layers so that the precision rule sees the element type.
func baseOfArrays(m *ir.Meta, typeID ir.TypeID) ir.TypeID {
	for {
		t := m.Type(typeID)
		if !t.IsArray() && !t.IsUnsizedArray() {
			return typeID
		}
		typeID = t.Elem
	}
}

func constructKind(m *ir.Meta, typeID ir.TypeID, args []ir.TypedID) ir.OpKind {
	t := m.Type(typeID)
	first := m.Type(args[0].Type)
	switch t.Kind {
	case ir.TypeKindScalar:
		return ir.OpConstructScalarFromScalar
	case ir.TypeKindVector:
		if len(args) == 1 && first.IsScalar() {
			return ir.OpConstructVectorFromScalar
		}
		return ir.OpConstructVectorFromMultiple
	case ir.TypeKindMatrix:
		switch {
		case len(args) == 1 && first.IsScalar():
			return ir.OpConstructMatrixFromScalar
		case len(args) == 1 && first.IsMatrix():
			return ir.OpConstructMatrixFromMatrix
		default:
			return ir.OpConstructMatrixFromMultiple
		}
	case ir.TypeKindStruct:
		return ir.OpConstructStruct
	case ir.TypeKindArray:
		return ir.OpConstructArray
	default:
		panic(fmt.Errorf("instruction: cannot construct a %s", t.Kind))
	}
}

// ArrayLength is .length() of an unsized array, only known at run time.
func ArrayLength(m *ir.Meta, operand ir.TypedID) Result {
	op := ir.Op{Kind: ir.OpUnary, Unary: ir.UnaryArrayLength, Operands: []ir.TypedID{operand}}
	return registerResult(m, op, ir.TypeInt, ir.PrecisionHigh)
}
