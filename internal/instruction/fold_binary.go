package instruction

import (
	"fmt"
	"math"

	"github.com/google/angle-sub000/internal/ir"
)

// nanAwareMin and nanAwareMax return the operand that is a number when the other is NaN.
func nanAwareMin(a, b float32) float32 {
	switch {
	case a != a:
		return b
	case b != b:
		return a
	case b < a:
		return b
	default:
		return a
	}
}

func nanAwareMax(a, b float32) float32 {
	switch {
	case a != a:
		return b
	case b != b:
		return a
	case b > a:
		return b
	default:
		return a
	}
}

func floatPow(x, y float32) float32 {
	if x < 0 || (x == 0 && y <= 0) {
		return 0
	}
	return float32(math.Pow(float64(x), float64(y)))
}

func floatMod(x, y float32) float32 {
	return x - y*float32(math.Floor(float64(x/y)))
}

func floatStep(edge, x float32) float32 {
	if x < edge {
		return 0
	}
	return 1
}

func floatLdexp(m *ir.Meta, x, e *ir.Constant) ir.ConstantID {
	exp := e.AsInt()
	if exp < -126 || exp > 128 {
		return m.ConstantFloat(0)
	}
	return m.ConstantFloat(float32(math.Ldexp(float64(x.AsFloat()), int(exp))))
}

// compareVecScalars folds one component of lessThan and friends. Only equal and notEqual
// accept bools.
func compareVecScalars(op ir.BinaryOp) scalarBinary {
	var cmp scalarBinary
	switch op {
	case ir.BinaryLessThanVec:
		cmp = compareScalars(op.String(),
			func(a, b float32) bool { return a < b },
			func(a, b int32) bool { return a < b },
			func(a, b uint32) bool { return a < b })
	case ir.BinaryLessThanEqualVec:
		cmp = compareScalars(op.String(),
			func(a, b float32) bool { return a <= b },
			func(a, b int32) bool { return a <= b },
			func(a, b uint32) bool { return a <= b })
	case ir.BinaryGreaterThanVec:
		cmp = compareScalars(op.String(),
			func(a, b float32) bool { return a > b },
			func(a, b int32) bool { return a > b },
			func(a, b uint32) bool { return a > b })
	case ir.BinaryGreaterThanEqualVec:
		cmp = compareScalars(op.String(),
			func(a, b float32) bool { return a >= b },
			func(a, b int32) bool { return a >= b },
			func(a, b uint32) bool { return a >= b })
	case ir.BinaryEqualVec, ir.BinaryNotEqualVec:
		equal := op == ir.BinaryEqualVec
		return func(m *ir.Meta, l, r *ir.Constant) ir.ConstantID {
			var same bool
			switch l.Kind {
			case ir.ConstFloat:
				same = l.Float == r.AsFloat()
			case ir.ConstInt:
				same = l.Int == r.AsInt()
			case ir.ConstUint:
				same = l.Uint == r.AsUint()
			case ir.ConstBool:
				same = l.Bool == r.AsBool()
			default:
				return unsupportedConstant(op.String(), l)
			}
			return m.ConstantBool(same == equal)
		}
	}
	return cmp
}

func componentwiseBuiltIn(scalar scalarBinary) foldBinary {
	return func(m *ir.Meta, l, r ir.ConstantID, result ir.TypeID) ir.ConstantID {
		return componentwiseBinary(m, l, r, result, scalar)
	}
}

func floatBinary(what string, f func(a, b float32) float32) foldBinary {
	return componentwiseBuiltIn(numericBinary(what, f, nil, nil))
}

// foldBuiltInBinary returns the constant folder of a two-operand built-in.
func foldBuiltInBinary(op ir.BinaryOp) foldBinary {
	switch op {
	case ir.BinaryAtan:
		return floatBinary("atan", func(y, x float32) float32 {
			return float32(math.Atan2(float64(y), float64(x)))
		})
	case ir.BinaryPow:
		return floatBinary("pow", floatPow)
	case ir.BinaryMod:
		return floatBinary("mod", floatMod)
	case ir.BinaryMin:
		return componentwiseBuiltIn(numericBinary("min", nanAwareMin,
			func(a, b int32) int32 { return min(a, b) },
			func(a, b uint32) uint32 { return min(a, b) }))
	case ir.BinaryMax:
		return componentwiseBuiltIn(numericBinary("max", nanAwareMax,
			func(a, b int32) int32 { return max(a, b) },
			func(a, b uint32) uint32 { return max(a, b) }))
	case ir.BinaryStep:
		return floatBinary("step", floatStep)
	case ir.BinaryLdexp:
		return componentwiseBuiltIn(floatLdexp)
	case ir.BinaryMatrixCompMult:
		return foldMul
	case ir.BinaryDistance:
		return foldDistance
	case ir.BinaryDot:
		return foldDot
	case ir.BinaryCross:
		return foldCross
	case ir.BinaryReflect:
		return foldReflect
	case ir.BinaryOuterProduct:
		return foldOuterProduct
	case ir.BinaryLessThanVec, ir.BinaryLessThanEqualVec, ir.BinaryGreaterThanVec,
		ir.BinaryGreaterThanEqualVec, ir.BinaryEqualVec, ir.BinaryNotEqualVec:
		return componentwiseBuiltIn(compareVecScalars(op))
	case ir.BinaryInterpolateAtSample, ir.BinaryInterpolateAtOffset:
		return func(_ *ir.Meta, l, _ ir.ConstantID, _ ir.TypeID) ir.ConstantID { return l }
	default:
		return func(*ir.Meta, ir.ConstantID, ir.ConstantID, ir.TypeID) ir.ConstantID {
			panic(fmt.Errorf("instruction: operands of built-in %s cannot be constant", op))
		}
	}
}

func foldDistance(m *ir.Meta, l, r ir.ConstantID, _ ir.TypeID) ir.ConstantID {
	a, b := floats(m, l), floats(m, r)
	diff := make([]float32, len(a))
	for i := range a {
		diff[i] = b[i] - a[i]
	}
	return m.ConstantFloat(length(diff))
}

func foldCross(m *ir.Meta, l, r ir.ConstantID, result ir.TypeID) ir.ConstantID {
	a, b := floats(m, l), floats(m, r)
	return makeFloats(m, result, []float32{
		a[1]*b[2] - b[1]*a[2],
		a[2]*b[0] - b[2]*a[0],
		a[0]*b[1] - b[0]*a[1],
	})
}

// reflect(I, N) = I - 2 * dot(N, I) * N
func foldReflect(m *ir.Meta, l, r ir.ConstantID, result ir.TypeID) ir.ConstantID {
	i, n := floats(m, l), floats(m, r)
	d := dot(n, i)
	out := make([]float32, len(i))
	for k := range i {
		out[k] = i[k] - 2*d*n[k]
	}
	return makeFloats(m, result, out)
}

// outerProduct(c, r): column k is c * r[k].
func foldOuterProduct(m *ir.Meta, l, r ir.ConstantID, result ir.TypeID) ir.ConstantID {
	c, row := floats(m, l), floats(m, r)
	columns := make([][]float32, len(row))
	for k := range columns {
		columns[k] = make([]float32, len(c))
		for j := range c {
			columns[k][j] = c[j] * row[k]
		}
	}
	return makeMatrix(m, result, columns)
}
