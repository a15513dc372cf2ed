package instruction

import (
	"fmt"
	"math"

	"github.com/google/angle-sub000/internal/ir"
)

// Constant folding. All arithmetic follows GLSL ES where it is defined and picks a fixed,
// non-trapping result where the language leaves it undefined (division by zero, shifts out of
// range, domain errors of math functions).

type scalarUnary func(m *ir.Meta, c *ir.Constant) ir.ConstantID
type scalarBinary func(m *ir.Meta, lhs, rhs *ir.Constant) ir.ConstantID

func elementTypeOf(m *ir.Meta, typeID ir.TypeID) ir.TypeID {
	if elem, ok := m.Type(typeID).ElementType(); ok {
		return elem
	}
	return typeID
}

// componentwiseUnary applies fn to every scalar of c, rebuilding composites with the result
// type's shape.
func componentwiseUnary(m *ir.Meta, id ir.ConstantID, resultType ir.TypeID, fn scalarUnary) ir.ConstantID {
	c := m.Constant(id)
	if !c.IsComposite() {
		return fn(m, c)
	}
	elemType := elementTypeOf(m, resultType)
	elems := make([]ir.ConstantID, len(c.Elements))
	for i, e := range c.Elements {
		elems[i] = componentwiseUnary(m, e, elemType, fn)
	}
	return m.ConstantComposite(resultType, elems)
}

// componentwiseBinary zips lhs and rhs, broadcasting whichever side is a scalar.
func componentwiseBinary(m *ir.Meta, lhs, rhs ir.ConstantID, resultType ir.TypeID, fn scalarBinary) ir.ConstantID {
	l := m.Constant(lhs)
	r := m.Constant(rhs)
	if !l.IsComposite() && !r.IsComposite() {
		return fn(m, l, r)
	}
	elemType := elementTypeOf(m, resultType)
	var elems []ir.ConstantID
	switch {
	case !r.IsComposite():
		elems = make([]ir.ConstantID, len(l.Elements))
		for i, e := range l.Elements {
			elems[i] = componentwiseBinary(m, e, rhs, elemType, fn)
		}
	case !l.IsComposite():
		elems = make([]ir.ConstantID, len(r.Elements))
		for i, e := range r.Elements {
			elems[i] = componentwiseBinary(m, lhs, e, elemType, fn)
		}
	default:
		elems = make([]ir.ConstantID, len(l.Elements))
		for i := range l.Elements {
			elems[i] = componentwiseBinary(m, l.Elements[i], r.Elements[i], elemType, fn)
		}
	}
	return m.ConstantComposite(resultType, elems)
}

func unsupportedConstant(what string, c *ir.Constant) ir.ConstantID {
	panic(fmt.Errorf("instruction: cannot fold %s of a %s constant", what, constantKindName(c.Kind)))
}

func constantKindName(k ir.ConstantKind) string {
	switch k {
	case ir.ConstFloat:
		return "float"
	case ir.ConstInt:
		return "int"
	case ir.ConstUint:
		return "uint"
	case ir.ConstBool:
		return "bool"
	case ir.ConstYuvCsc:
		return "yuvCscStandardEXT"
	default:
		return "composite"
	}
}

// numeric builds a scalar fold that dispatches on the kind of its operand. A nil function
// means the kind is not valid for the operation.
func numeric(what string, f func(float32) float32, i func(int32) int32, u func(uint32) uint32) scalarUnary {
	return func(m *ir.Meta, c *ir.Constant) ir.ConstantID {
		switch {
		case c.Kind == ir.ConstFloat && f != nil:
			return m.ConstantFloat(f(c.Float))
		case c.Kind == ir.ConstInt && i != nil:
			return m.ConstantInt(i(c.Int))
		case c.Kind == ir.ConstUint && u != nil:
			return m.ConstantUint(u(c.Uint))
		default:
			return unsupportedConstant(what, c)
		}
	}
}

func floatOnly(what string, f func(float32) float32) scalarUnary {
	return numeric(what, f, nil, nil)
}

func numericBinary(what string, f func(a, b float32) float32, i func(a, b int32) int32, u func(a, b uint32) uint32) scalarBinary {
	return func(m *ir.Meta, l, r *ir.Constant) ir.ConstantID {
		switch {
		case l.Kind == ir.ConstFloat && f != nil:
			return m.ConstantFloat(f(l.AsFloat(), r.AsFloat()))
		case l.Kind == ir.ConstInt && i != nil:
			return m.ConstantInt(i(l.AsInt(), r.AsInt()))
		case l.Kind == ir.ConstUint && u != nil:
			return m.ConstantUint(u(l.AsUint(), r.AsUint()))
		default:
			return unsupportedConstant(what, l)
		}
	}
}

func compareScalars(what string, f func(a, b float32) bool, i func(a, b int32) bool, u func(a, b uint32) bool) scalarBinary {
	return func(m *ir.Meta, l, r *ir.Constant) ir.ConstantID {
		switch l.Kind {
		case ir.ConstFloat:
			return m.ConstantBool(f(l.AsFloat(), r.AsFloat()))
		case ir.ConstInt:
			return m.ConstantBool(i(l.AsInt(), r.AsInt()))
		case ir.ConstUint:
			return m.ConstantBool(u(l.AsUint(), r.AsUint()))
		default:
			return unsupportedConstant(what, l)
		}
	}
}

// Conversions with the saturating behavior used when casting constants: NaN becomes zero and
// out-of-range values clamp.

func floatToInt(f float32) int32 {
	switch {
	case f != f:
		return 0
	case f >= 2147483648:
		return math.MaxInt32
	case f <= -2147483648:
		return math.MinInt32
	default:
		return int32(f)
	}
}

func floatToUint(f float32) uint32 {
	switch {
	case f != f:
		return 0
	case f < 0:
		return uint32(floatToInt(f))
	case f >= 4294967296:
		return math.MaxUint32
	default:
		return uint32(f)
	}
}

func boolToNumber(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// castScalar converts a scalar constant to another basic type, as constructors do.
func castScalar(m *ir.Meta, id ir.ConstantID, to ir.BasicType) ir.ConstantID {
	c := m.Constant(id)
	switch to {
	case ir.BasicFloat:
		switch c.Kind {
		case ir.ConstFloat:
			return id
		case ir.ConstInt:
			return m.ConstantFloat(float32(c.Int))
		case ir.ConstUint:
			return m.ConstantFloat(float32(c.Uint))
		case ir.ConstBool:
			return m.ConstantFloat(float32(boolToNumber(c.Bool)))
		}
	case ir.BasicInt:
		switch c.Kind {
		case ir.ConstFloat:
			return m.ConstantInt(floatToInt(c.Float))
		case ir.ConstInt:
			return id
		case ir.ConstUint:
			return m.ConstantInt(int32(c.Uint))
		case ir.ConstBool:
			return m.ConstantInt(int32(boolToNumber(c.Bool)))
		}
	case ir.BasicUint:
		switch c.Kind {
		case ir.ConstFloat:
			return m.ConstantUint(floatToUint(c.Float))
		case ir.ConstInt:
			return m.ConstantUint(uint32(c.Int))
		case ir.ConstUint:
			return id
		case ir.ConstBool:
			return m.ConstantUint(boolToNumber(c.Bool))
		}
	case ir.BasicBool:
		switch c.Kind {
		case ir.ConstFloat:
			return m.ConstantBool(c.Float != 0)
		case ir.ConstInt:
			return m.ConstantBool(c.Int != 0)
		case ir.ConstUint:
			return m.ConstantBool(c.Uint != 0)
		case ir.ConstBool:
			return id
		}
	}
	return unsupportedConstant("a cast to "+to.String(), c)
}

// flattenScalars lists the scalar components of constants in order.
func flattenScalars(m *ir.Meta, ids []ir.ConstantID) []ir.ConstantID {
	var out []ir.ConstantID
	var walk func(id ir.ConstantID)
	walk = func(id ir.ConstantID) {
		c := m.Constant(id)
		if !c.IsComposite() {
			out = append(out, id)
			return
		}
		for _, e := range c.Elements {
			walk(e)
		}
	}
	for _, id := range ids {
		walk(id)
	}
	return out
}

// foldConstruct evaluates a constructor whose arguments are all constant.
func foldConstruct(m *ir.Meta, typeID ir.TypeID, args []ir.ConstantID) ir.ConstantID {
	t := m.Type(typeID)
	if t.IsStruct() || t.IsArray() {
		return m.ConstantComposite(typeID, args)
	}
	if t.IsMatrix() && len(args) == 1 && m.Type(m.Constant(args[0]).Type).IsMatrix() {
		return foldMatrixFromMatrix(m, typeID, args[0])
	}

	basic := m.Type(m.ScalarTypeOf(typeID)).Basic
	components := flattenScalars(m, args)
	for i, c := range components {
		components[i] = castScalar(m, c, basic)
	}

	switch t.Kind {
	case ir.TypeKindScalar:
		return components[0]
	case ir.TypeKindVector:
		elems := make([]ir.ConstantID, t.Count)
		for i := range elems {
			if len(components) == 1 {
				elems[i] = components[0]
			} else {
				elems[i] = components[i]
			}
		}
		return m.ConstantComposite(typeID, elems)
	case ir.TypeKindMatrix:
		columnType := t.Elem
		rows, _ := m.Type(columnType).VectorSize()
		columns := make([]ir.ConstantID, t.Count)
		for c := range columns {
			column := make([]ir.ConstantID, rows)
			for r := range column {
				switch {
				case len(components) > 1:
					column[r] = components[uint32(c)*rows+uint32(r)]
				case uint32(c) == uint32(r):
					column[r] = components[0]
				default:
					column[r] = ir.ConstantFloatZero
				}
			}
			columns[c] = m.ConstantComposite(columnType, column)
		}
		return m.ConstantComposite(typeID, columns)
	default:
		panic(fmt.Errorf("instruction: cannot construct a %s constant", t.Kind))
	}
}

// foldMatrixFromMatrix copies the overlapping part of the source matrix and fills the rest from
// the identity matrix.
func foldMatrixFromMatrix(m *ir.Meta, typeID ir.TypeID, source ir.ConstantID) ir.ConstantID {
	src := matrixColumns(m, source)
	t := m.Type(typeID)
	rows, _ := m.Type(t.Elem).VectorSize()
	columns := make([][]float32, t.Count)
	for c := range columns {
		columns[c] = make([]float32, rows)
		for r := range columns[c] {
			switch {
			case c < len(src) && r < len(src[c]):
				columns[c][r] = src[c][r]
			case c == r:
				columns[c][r] = 1
			}
		}
	}
	return makeMatrix(m, typeID, columns)
}

// Operators.

func foldNegate(m *ir.Meta, c ir.ConstantID, result ir.TypeID) ir.ConstantID {
	return componentwiseUnary(m, c, result, numeric("negate",
		func(f float32) float32 { return -f },
		func(i int32) int32 { return -i },
		func(u uint32) uint32 { return -u }))
}

func foldBitwiseNot(m *ir.Meta, c ir.ConstantID, result ir.TypeID) ir.ConstantID {
	return componentwiseUnary(m, c, result, numeric("bitwise not", nil,
		func(i int32) int32 { return ^i },
		func(u uint32) uint32 { return ^u }))
}

func foldLogicalNot(m *ir.Meta, c ir.ConstantID, result ir.TypeID) ir.ConstantID {
	return componentwiseUnary(m, c, result, func(m *ir.Meta, c *ir.Constant) ir.ConstantID {
		return m.ConstantBool(!c.AsBool())
	})
}

func foldAdd(m *ir.Meta, l, r ir.ConstantID, result ir.TypeID) ir.ConstantID {
	return componentwiseBinary(m, l, r, result, numericBinary("add",
		func(a, b float32) float32 { return a + b },
		func(a, b int32) int32 { return a + b },
		func(a, b uint32) uint32 { return a + b }))
}

func foldSub(m *ir.Meta, l, r ir.ConstantID, result ir.TypeID) ir.ConstantID {
	return componentwiseBinary(m, l, r, result, numericBinary("sub",
		func(a, b float32) float32 { return a - b },
		func(a, b int32) int32 { return a - b },
		func(a, b uint32) uint32 { return a - b }))
}

func foldMul(m *ir.Meta, l, r ir.ConstantID, result ir.TypeID) ir.ConstantID {
	return componentwiseBinary(m, l, r, result, numericBinary("mul",
		func(a, b float32) float32 { return a * b },
		func(a, b int32) int32 { return a * b },
		func(a, b uint32) uint32 { return a * b }))
}

// Integer division by zero and MinInt32 / -1 saturate.
func foldDiv(m *ir.Meta, l, r ir.ConstantID, result ir.TypeID) ir.ConstantID {
	return componentwiseBinary(m, l, r, result, numericBinary("div",
		func(a, b float32) float32 { return a / b },
		func(a, b int32) int32 {
			if b == 0 || (a == math.MinInt32 && b == -1) {
				return math.MaxInt32
			}
			return a / b
		},
		func(a, b uint32) uint32 {
			if b == 0 {
				return math.MaxUint32
			}
			return a / b
		}))
}

// % with a negative operand or a zero divisor is undefined and folds to 0.
func foldIMod(m *ir.Meta, l, r ir.ConstantID, result ir.TypeID) ir.ConstantID {
	return componentwiseBinary(m, l, r, result, numericBinary("imod", nil,
		func(a, b int32) int32 {
			if a < 0 || b <= 0 {
				return 0
			}
			return a % b
		},
		func(a, b uint32) uint32 {
			if b == 0 {
				return 0
			}
			return a % b
		}))
}

func foldBitwise(what string, i func(a, b int32) int32, u func(a, b uint32) uint32) foldBinary {
	return func(m *ir.Meta, l, r ir.ConstantID, result ir.TypeID) ir.ConstantID {
		return componentwiseBinary(m, l, r, result, numericBinary(what, nil, i, u))
	}
}

var (
	foldBitwiseOr = foldBitwise("bitwise or",
		func(a, b int32) int32 { return a | b },
		func(a, b uint32) uint32 { return a | b })
	foldBitwiseXor = foldBitwise("bitwise xor",
		func(a, b int32) int32 { return a ^ b },
		func(a, b uint32) uint32 { return a ^ b })
	foldBitwiseAnd = foldBitwise("bitwise and",
		func(a, b int32) int32 { return a & b },
		func(a, b uint32) uint32 { return a & b })
)

// foldShift converts the shift amount to the type of the shifted value first; GLSL allows the two
// to differ in signedness. Shifting by 32 or more, or by a negative amount, folds to 0.
func foldShift(left bool) foldBinary {
	return func(m *ir.Meta, l, r ir.ConstantID, result ir.TypeID) ir.ConstantID {
		lhsType := m.Constant(l).Type
		if rhsType := m.Constant(r).Type; m.Type(rhsType).IsScalar() {
			r = foldConstruct(m, m.ScalarTypeOf(lhsType), []ir.ConstantID{r})
		} else {
			r = foldConstruct(m, lhsType, []ir.ConstantID{r})
		}
		return componentwiseBinary(m, l, r, result, numericBinary("shift", nil,
			func(a, b int32) int32 {
				if uint32(b) >= 32 {
					return 0
				}
				if left {
					return a << uint32(b)
				}
				return a >> uint32(b)
			},
			func(a, b uint32) uint32 {
				if b >= 32 {
					return 0
				}
				if left {
					return a << b
				}
				return a >> b
			}))
	}
}

func foldLogicalXor(m *ir.Meta, l, r ir.ConstantID, _ ir.TypeID) ir.ConstantID {
	return m.ConstantBool(m.Constant(l).AsBool() != m.Constant(r).AsBool())
}

// Constants are interned, so equality of whole values is equality of ids.
func foldEqual(m *ir.Meta, l, r ir.ConstantID, _ ir.TypeID) ir.ConstantID {
	return m.ConstantBool(l == r)
}

func foldNotEqual(m *ir.Meta, l, r ir.ConstantID, _ ir.TypeID) ir.ConstantID {
	return m.ConstantBool(l != r)
}

func foldCompare(what string, f func(a, b float32) bool, i func(a, b int32) bool, u func(a, b uint32) bool) foldBinary {
	cmp := compareScalars(what, f, i, u)
	return func(m *ir.Meta, l, r ir.ConstantID, _ ir.TypeID) ir.ConstantID {
		return cmp(m, m.Constant(l), m.Constant(r))
	}
}

var (
	foldLessThan = foldCompare("<",
		func(a, b float32) bool { return a < b },
		func(a, b int32) bool { return a < b },
		func(a, b uint32) bool { return a < b })
	foldGreaterThan = foldCompare(">",
		func(a, b float32) bool { return a > b },
		func(a, b int32) bool { return a > b },
		func(a, b uint32) bool { return a > b })
	foldLessThanEqual = foldCompare("<=",
		func(a, b float32) bool { return a <= b },
		func(a, b int32) bool { return a <= b },
		func(a, b uint32) bool { return a <= b })
	foldGreaterThanEqual = foldCompare(">=",
		func(a, b float32) bool { return a >= b },
		func(a, b int32) bool { return a >= b },
		func(a, b uint32) bool { return a >= b })
)
