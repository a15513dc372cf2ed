package instruction

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/google/angle-sub000/internal/ir"
)

func f32(f func(float64) float64) func(float32) float32 {
	return func(x float32) float32 { return float32(f(float64(x))) }
}

// guarded returns 0 where the input is outside the function's domain.
func guarded(inDomain func(float64) bool, f func(float64) float64) func(float32) float32 {
	return func(x float32) float32 {
		if !inDomain(float64(x)) {
			return 0
		}
		return float32(f(float64(x)))
	}
}

func floatSign(x float32) float32 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return x
	}
}

var floatUnaryFolds = map[ir.UnaryOp]func(float32) float32{
	ir.UnaryRadians: f32(func(x float64) float64 { return x * math.Pi / 180 }),
	ir.UnaryDegrees: f32(func(x float64) float64 { return x * 180 / math.Pi }),
	ir.UnarySin:     f32(math.Sin),
	ir.UnaryCos:     f32(math.Cos),
	ir.UnaryTan:     f32(math.Tan),
	ir.UnaryAsin:    guarded(func(x float64) bool { return math.Abs(x) <= 1 }, math.Asin),
	ir.UnaryAcos:    guarded(func(x float64) bool { return math.Abs(x) <= 1 }, math.Acos),
	ir.UnaryAtan:    f32(math.Atan),
	ir.UnarySinh:    f32(math.Sinh),
	ir.UnaryCosh:    f32(math.Cosh),
	ir.UnaryTanh:    f32(math.Tanh),
	ir.UnaryAsinh:   f32(math.Asinh),
	ir.UnaryAcosh:   guarded(func(x float64) bool { return x >= 1 }, math.Acosh),
	ir.UnaryAtanh:   guarded(func(x float64) bool { return math.Abs(x) < 1 }, math.Atanh),
	ir.UnaryExp:     f32(math.Exp),
	ir.UnaryLog:     guarded(func(x float64) bool { return x > 0 }, math.Log),
	ir.UnaryExp2:    f32(math.Exp2),
	ir.UnaryLog2:    guarded(func(x float64) bool { return x > 0 }, math.Log2),
	ir.UnarySqrt:    guarded(func(x float64) bool { return x >= 0 }, math.Sqrt),
	ir.UnaryInversesqrt: guarded(func(x float64) bool { return x > 0 },
		func(x float64) float64 { return 1 / math.Sqrt(x) }),
	ir.UnaryFloor:     f32(math.Floor),
	ir.UnaryTrunc:     f32(math.Trunc),
	ir.UnaryRound:     f32(math.Round),
	ir.UnaryRoundEven: f32(math.RoundToEven),
	ir.UnaryCeil:      f32(math.Ceil),
	ir.UnaryFract:     f32(func(x float64) float64 { return x - math.Floor(x) }),
	// Derivatives of constants are zero.
	ir.UnaryDFdx:   func(float32) float32 { return 0 },
	ir.UnaryDFdy:   func(float32) float32 { return 0 },
	ir.UnaryFwidth: func(float32) float32 { return 0 },
}

func intAbs(i int32) int32 {
	if i < 0 {
		return -i
	}
	return i
}

func intSign(i int32) int32 {
	switch {
	case i > 0:
		return 1
	case i < 0:
		return -1
	default:
		return 0
	}
}

func findLSB(v uint32) int32 {
	if v == 0 {
		return -1
	}
	return int32(bits.TrailingZeros32(v))
}

// findMSB of a negative int looks for the most significant 0 bit.
func findMSB(v uint32, signed bool) int32 {
	if signed && int32(v) < 0 {
		v = ^v
	}
	if v == 0 {
		return -1
	}
	return int32(31 - bits.LeadingZeros32(v))
}

// bitScan folds the bit counting built-ins, which take int or uint and always produce int.
func bitScan(what string, f func(v uint32, signed bool) int32) scalarUnary {
	return func(m *ir.Meta, c *ir.Constant) ir.ConstantID {
		switch c.Kind {
		case ir.ConstInt:
			return m.ConstantInt(f(uint32(c.Int), true))
		case ir.ConstUint:
			return m.ConstantInt(f(c.Uint, false))
		default:
			return unsupportedConstant(what, c)
		}
	}
}

func scalarFoldForUnary(op ir.UnaryOp) scalarUnary {
	if f, ok := floatUnaryFolds[op]; ok {
		return floatOnly(op.String(), f)
	}
	switch op {
	case ir.UnaryAbs:
		return numeric("abs", f32(math.Abs), intAbs, nil)
	case ir.UnarySign:
		return numeric("sign", floatSign, intSign, nil)
	case ir.UnaryBitfieldReverse:
		return numeric("bitfieldReverse", nil,
			func(i int32) int32 { return int32(bits.Reverse32(uint32(i))) },
			bits.Reverse32)
	case ir.UnaryNot:
		return func(m *ir.Meta, c *ir.Constant) ir.ConstantID { return m.ConstantBool(!c.AsBool()) }
	case ir.UnaryIsnan:
		return func(m *ir.Meta, c *ir.Constant) ir.ConstantID {
			f := c.AsFloat()
			return m.ConstantBool(f != f)
		}
	case ir.UnaryIsinf:
		return func(m *ir.Meta, c *ir.Constant) ir.ConstantID {
			return m.ConstantBool(math.IsInf(float64(c.AsFloat()), 0))
		}
	case ir.UnaryFloatBitsToInt:
		return func(m *ir.Meta, c *ir.Constant) ir.ConstantID {
			return m.ConstantInt(int32(math.Float32bits(c.AsFloat())))
		}
	case ir.UnaryFloatBitsToUint:
		return func(m *ir.Meta, c *ir.Constant) ir.ConstantID {
			return m.ConstantUint(math.Float32bits(c.AsFloat()))
		}
	case ir.UnaryIntBitsToFloat:
		return func(m *ir.Meta, c *ir.Constant) ir.ConstantID {
			return m.ConstantFloat(math.Float32frombits(uint32(c.AsInt())))
		}
	case ir.UnaryUintBitsToFloat:
		return func(m *ir.Meta, c *ir.Constant) ir.ConstantID {
			return m.ConstantFloat(math.Float32frombits(c.AsUint()))
		}
	case ir.UnaryBitCount:
		return bitScan("bitCount", func(v uint32, _ bool) int32 { return int32(bits.OnesCount32(v)) })
	case ir.UnaryFindLSB:
		return bitScan("findLSB", func(v uint32, _ bool) int32 { return findLSB(v) })
	case ir.UnaryFindMSB:
		return bitScan("findMSB", findMSB)
	}
	return nil
}

// foldBuiltInUnary returns the constant folder of a unary built-in.
func foldBuiltInUnary(op ir.UnaryOp) foldUnary {
	if scalar := scalarFoldForUnary(op); scalar != nil {
		return func(m *ir.Meta, c ir.ConstantID, result ir.TypeID) ir.ConstantID {
			return componentwiseUnary(m, c, result, scalar)
		}
	}
	switch op {
	case ir.UnaryPackSnorm2x16, ir.UnaryPackUnorm2x16, ir.UnaryPackHalf2x16, ir.UnaryPackUnorm4x8,
		ir.UnaryPackSnorm4x8:
		pack := packers[op]
		return func(m *ir.Meta, c ir.ConstantID, _ ir.TypeID) ir.ConstantID {
			return m.ConstantUint(pack(floats(m, c)))
		}
	case ir.UnaryUnpackSnorm2x16, ir.UnaryUnpackUnorm2x16, ir.UnaryUnpackHalf2x16,
		ir.UnaryUnpackUnorm4x8, ir.UnaryUnpackSnorm4x8:
		unpack := unpackers[op]
		return func(m *ir.Meta, c ir.ConstantID, result ir.TypeID) ir.ConstantID {
			return makeFloats(m, result, unpack(m.Constant(c).AsUint()))
		}
	case ir.UnaryLength:
		return foldLength
	case ir.UnaryNormalize:
		return foldNormalize
	case ir.UnaryTranspose:
		return foldTranspose
	case ir.UnaryDeterminant:
		return foldDeterminant
	case ir.UnaryInverse:
		return foldInverse
	case ir.UnaryAny:
		return foldReduceBool(false)
	case ir.UnaryAll:
		return foldReduceBool(true)
	case ir.UnaryInterpolateAtCentroid:
		return func(_ *ir.Meta, c ir.ConstantID, _ ir.TypeID) ir.ConstantID { return c }
	default:
		return cannotFold(fmt.Sprintf("built-in %s", op))
	}
}

func length(v []float32) float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return float32(math.Sqrt(sum))
}

func foldLength(m *ir.Meta, c ir.ConstantID, _ ir.TypeID) ir.ConstantID {
	return m.ConstantFloat(length(floats(m, c)))
}

func foldNormalize(m *ir.Meta, c ir.ConstantID, result ir.TypeID) ir.ConstantID {
	v := floats(m, c)
	l := length(v)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / l
	}
	return makeFloats(m, result, out)
}

// foldReduceBool folds all() when all is set and any() otherwise.
func foldReduceBool(all bool) foldUnary {
	return func(m *ir.Meta, c ir.ConstantID, _ ir.TypeID) ir.ConstantID {
		for _, e := range m.Constant(c).Elements {
			if (e == ir.ConstantTrue) != all {
				return m.ConstantBool(!all)
			}
		}
		return m.ConstantBool(all)
	}
}
