package instruction

import (
	"fmt"
	"math"

	"github.com/google/angle-sub000/internal/ir"
)

// componentAt returns component i of a vector constant, or the constant itself for a scalar so
// that scalar arguments broadcast.
func componentAt(m *ir.Meta, id ir.ConstantID, i int) *ir.Constant {
	return m.Constant(componentIDAt(m, id, i))
}

func componentIDAt(m *ir.Meta, id ir.ConstantID, i int) ir.ConstantID {
	if c := m.Constant(id); c.IsComposite() {
		return c.Elements[i]
	}
	return id
}

// mapComponents builds a scalar or vector of the result type from per-component values.
func mapComponents(m *ir.Meta, result ir.TypeID, fn func(i int) ir.ConstantID) ir.ConstantID {
	n, ok := m.Type(result).VectorSize()
	if !ok {
		return fn(0)
	}
	elems := make([]ir.ConstantID, n)
	for i := range elems {
		elems[i] = fn(i)
	}
	return m.ConstantComposite(result, elems)
}

// foldBuiltIn evaluates a built-in with constant operands; only ops for which MayConstFold
// holds get here.
func foldBuiltIn(m *ir.Meta, op ir.BuiltInOp, args []ir.ConstantID, result ir.TypeID) ir.ConstantID {
	switch op {
	case ir.BuiltInClamp:
		return mapComponents(m, result, func(i int) ir.ConstantID {
			return clampComponent(m, componentAt(m, args[0], i), componentAt(m, args[1], i), componentAt(m, args[2], i))
		})
	case ir.BuiltInMix:
		return mapComponents(m, result, func(i int) ir.ConstantID {
			x, y := componentIDAt(m, args[0], i), componentIDAt(m, args[1], i)
			a := componentAt(m, args[2], i)
			if a.Kind == ir.ConstBool {
				if a.Bool {
					return y
				}
				return x
			}
			t := a.AsFloat()
			return m.ConstantFloat(m.Constant(x).AsFloat()*(1-t) + m.Constant(y).AsFloat()*t)
		})
	case ir.BuiltInSmoothstep:
		return mapComponents(m, result, func(i int) ir.ConstantID {
			e0 := componentAt(m, args[0], i).AsFloat()
			e1 := componentAt(m, args[1], i).AsFloat()
			x := componentAt(m, args[2], i).AsFloat()
			if e0 >= e1 {
				return m.ConstantFloat(0)
			}
			t := clamp32((x-e0)/(e1-e0), 0, 1)
			return m.ConstantFloat(t * t * (3 - 2*t))
		})
	case ir.BuiltInFma:
		return mapComponents(m, result, func(i int) ir.ConstantID {
			a := componentAt(m, args[0], i).AsFloat()
			b := componentAt(m, args[1], i).AsFloat()
			c := componentAt(m, args[2], i).AsFloat()
			return m.ConstantFloat(a*b + c)
		})
	case ir.BuiltInFaceforward:
		n, i, nref := floats(m, args[0]), floats(m, args[1]), floats(m, args[2])
		if dot(nref, i) < 0 {
			return args[0]
		}
		out := make([]float32, len(n))
		for k := range n {
			out[k] = -n[k]
		}
		return makeFloats(m, result, out)
	case ir.BuiltInRefract:
		return foldRefract(m, args, result)
	case ir.BuiltInBitfieldExtract:
		offset := m.Constant(args[1]).AsInt()
		bits := m.Constant(args[2]).AsInt()
		return mapComponents(m, result, func(i int) ir.ConstantID {
			return bitfieldExtract(m, componentAt(m, args[0], i), offset, bits)
		})
	case ir.BuiltInBitfieldInsert:
		offset := m.Constant(args[2]).AsInt()
		bits := m.Constant(args[3]).AsInt()
		return mapComponents(m, result, func(i int) ir.ConstantID {
			return bitfieldInsert(m, componentAt(m, args[0], i), componentAt(m, args[1], i), offset, bits)
		})
	case ir.BuiltInRgb2Yuv:
		return yuvTransform(m, args, result, rgbToYuv)
	case ir.BuiltInYuv2Rgb:
		return yuvTransform(m, args, result, yuvToRgb)
	default:
		panic(fmt.Errorf("instruction: built-in %s cannot be constant folded", op))
	}
}

// clamp with min > max is undefined and folds to 0.
func clampComponent(m *ir.Meta, x, lo, hi *ir.Constant) ir.ConstantID {
	switch x.Kind {
	case ir.ConstFloat:
		l, h := lo.AsFloat(), hi.AsFloat()
		if l > h {
			return m.ConstantFloat(0)
		}
		return m.ConstantFloat(min(max(x.Float, l), h))
	case ir.ConstInt:
		l, h := lo.AsInt(), hi.AsInt()
		if l > h {
			return m.ConstantInt(0)
		}
		return m.ConstantInt(min(max(x.Int, l), h))
	case ir.ConstUint:
		l, h := lo.AsUint(), hi.AsUint()
		if l > h {
			return m.ConstantUint(0)
		}
		return m.ConstantUint(min(max(x.Uint, l), h))
	default:
		return unsupportedConstant("clamp", x)
	}
}

// refract(I, N, eta); total internal reflection gives a zero vector.
func foldRefract(m *ir.Meta, args []ir.ConstantID, result ir.TypeID) ir.ConstantID {
	i, n := floats(m, args[0]), floats(m, args[1])
	eta := m.Constant(args[2]).AsFloat()
	d := dot(n, i)
	k := 1 - eta*eta*(1-d*d)
	out := make([]float32, len(i))
	if k >= 0 {
		s := eta*d + float32(math.Sqrt(float64(k)))
		for j := range i {
			out[j] = eta*i[j] - s*n[j]
		}
	}
	return makeFloats(m, result, out)
}

func bitfieldValid(offset, bits int32) bool {
	return offset >= 0 && bits >= 0 && int64(offset)+int64(bits) <= 32
}

func bitfieldMask(bits int32) uint32 {
	if bits >= 32 {
		return math.MaxUint32
	}
	return uint32(1)<<uint32(bits) - 1
}

// bitfieldExtract zero-extends for uint and sign-extends for int. An empty or out-of-range field
// gives 0.
func bitfieldExtract(m *ir.Meta, value *ir.Constant, offset, bits int32) ir.ConstantID {
	var v uint32
	switch value.Kind {
	case ir.ConstInt:
		v = uint32(value.Int)
	case ir.ConstUint:
		v = value.Uint
	default:
		return unsupportedConstant("bitfieldExtract", value)
	}

	var extracted uint32
	if bits > 0 && bitfieldValid(offset, bits) {
		extracted = (v >> uint32(offset)) & bitfieldMask(bits)
	}
	if value.Kind == ir.ConstUint {
		return m.ConstantUint(extracted)
	}
	if bits > 0 && bits < 32 && bitfieldValid(offset, bits) && extracted&(1<<uint32(bits-1)) != 0 {
		extracted |= (uint32(1)<<uint32(32-bits) - 1) << uint32(bits)
	}
	return m.ConstantInt(int32(extracted))
}

func bitfieldInsert(m *ir.Meta, base, insert *ir.Constant, offset, bits int32) ir.ConstantID {
	var b, in uint32
	switch base.Kind {
	case ir.ConstInt:
		b, in = uint32(base.Int), uint32(insert.AsInt())
	case ir.ConstUint:
		b, in = base.Uint, insert.AsUint()
	default:
		return unsupportedConstant("bitfieldInsert", base)
	}

	var out uint32
	switch {
	case bits == 0:
		out = b
	case !bitfieldValid(offset, bits):
		out = 0
	case bits == 32:
		out = in
	default:
		mask := bitfieldMask(bits) << uint32(offset)
		out = b&^mask | (in<<uint32(offset))&mask
	}
	if base.Kind == ir.ConstUint {
		return m.ConstantUint(out)
	}
	return m.ConstantInt(int32(out))
}

// Color space conversion matrices, column-major 3x4: the fourth column is the offset.
var rgbToYuv = map[ir.YuvCscStandard][12]float32{
	ir.YuvItu601: {0.256782, -0.148219, 0.439220, 0.504143, -0.291001, -0.367798,
		0.097898, 0.439220, -0.071422, 0.062745, 0.501961, 0.501961},
	ir.YuvItu601FullRange: {0.298993, -0.168732, 0.500005, 0.587016, -0.331273, -0.418699,
		0.113991, 0.500005, -0.081306, 0.0, 0.501961, 0.501961},
	ir.YuvItu709: {0.182580, -0.100641, 0.439219, 0.614243, -0.338579, -0.398950,
		0.062000, 0.439219, -0.040269, 0.062745, 0.501961, 0.501961},
}

var yuvToRgb = map[ir.YuvCscStandard][12]float32{
	ir.YuvItu601: {1.164384, 1.164384, 1.164384, 0.0, -0.391721, 2.017232,
		1.596027, -0.812926, 0.0, -0.874202, 0.531626, -1.085631},
	ir.YuvItu601FullRange: {1.0, 1.0, 1.0, 0.0, -0.344100, 1.772,
		1.402, -0.714100, 0.0, -0.703749, 0.531175, -0.889475},
	ir.YuvItu709: {1.164384, 1.164384, 1.164384, 0.0, -0.213221, 2.112402,
		1.792741, -0.532882, 0.0, -0.972945, 0.301455, -1.133402},
}

func yuvTransform(m *ir.Meta, args []ir.ConstantID, result ir.TypeID, matrices map[ir.YuvCscStandard][12]float32) ir.ConstantID {
	c := floats(m, args[0])
	mat := matrices[m.Constant(args[1]).AsYuvCsc()]
	return makeFloats(m, result, []float32{
		c[0]*mat[0] + c[1]*mat[3] + c[2]*mat[6] + mat[9],
		c[0]*mat[1] + c[1]*mat[4] + c[2]*mat[7] + mat[10],
		c[0]*mat[2] + c[1]*mat[5] + c[2]*mat[8] + mat[11],
	})
}
