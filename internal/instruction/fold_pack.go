package instruction

import (
	"math"

	"github.com/google/angle-sub000/internal/ir"
)

func clamp32(x, lo, hi float32) float32 {
	return min(max(x, lo), hi)
}

func roundToInt(x float32) int32 {
	return floatToInt(float32(math.Round(float64(x))))
}

func snorm16(x float32) uint32 {
	return uint32(uint16(int16(roundToInt(clamp32(x, -1, 1) * 32767))))
}

func unorm16(x float32) uint32 {
	return uint32(uint16(roundToInt(clamp32(x, 0, 1) * 65535)))
}

func snorm8(x float32) uint32 {
	return uint32(uint8(int8(roundToInt(clamp32(x, -1, 1) * 127))))
}

func unorm8(x float32) uint32 {
	return uint32(uint8(roundToInt(clamp32(x, 0, 1) * 255)))
}

// floatToHalf converts to IEEE half precision with round-to-nearest-even. NaN maps to 0x7FFF and
// overflow to infinity.
func floatToHalf(f float32) uint32 {
	v := math.Float32bits(f)
	sign := (v & 0x80000000) >> 16
	abs := v & 0x7FFFFFFF
	switch {
	case abs > 0x7F800000:
		return 0x7FFF
	case abs > 0x47FFEFFF:
		return sign | 0x7C00
	case abs < 0x38800000:
		mantissa := (abs & 0x007FFFFF) | 0x00800000
		e := 113 - (abs >> 23)
		if e < 24 {
			abs = mantissa >> e
		} else {
			abs = 0
		}
		return sign | (abs+0x0FFF+((abs>>13)&1))>>13
	default:
		return sign | (abs+0xC8000000+0x0FFF+((abs>>13)&1))>>13
	}
}

// halfToFloat expands an IEEE half to a float, including denormals.
func halfToFloat(h uint32) float32 {
	exponent := h >> 10
	offset := uint32(1024)
	if exponent == 0 || exponent == 32 {
		offset = 0
	}
	offset += h & 0x3FF

	var mantissa uint32
	switch {
	case offset == 0:
		mantissa = 0
	case offset < 1024:
		m := offset << 13
		e := uint32(0x38800000)
		for m&0x00800000 == 0 {
			e -= 0x00800000
			m <<= 1
		}
		m &^= 0x00800000
		mantissa = m | e
	default:
		mantissa = 0x38000000 + ((offset - 1024) << 13)
	}

	var exp uint32
	switch {
	case exponent == 0:
		exp = 0
	case exponent < 31:
		exp = exponent << 23
	case exponent == 31:
		exp = 0x47800000
	case exponent == 32:
		exp = 0x80000000
	case exponent < 63:
		exp = 0x80000000 + ((exponent - 32) << 23)
	default:
		exp = 0xC7800000
	}
	return math.Float32frombits(mantissa + exp)
}

// packComponents stores the components in order from the least significant bits.
func packComponents(width uint, conv func(float32) uint32) func([]float32) uint32 {
	return func(v []float32) uint32 {
		var out uint32
		for i, x := range v {
			out |= conv(x) << (width * uint(i))
		}
		return out
	}
}

func unpackComponents(width uint, count int, conv func(uint32) float32) func(uint32) []float32 {
	mask := uint32(1)<<width - 1
	return func(v uint32) []float32 {
		out := make([]float32, count)
		for i := range out {
			out[i] = conv((v >> (width * uint(i))) & mask)
		}
		return out
	}
}

var packers = map[ir.UnaryOp]func([]float32) uint32{
	ir.UnaryPackSnorm2x16: packComponents(16, snorm16),
	ir.UnaryPackUnorm2x16: packComponents(16, unorm16),
	ir.UnaryPackHalf2x16:  packComponents(16, floatToHalf),
	ir.UnaryPackSnorm4x8:  packComponents(8, snorm8),
	ir.UnaryPackUnorm4x8:  packComponents(8, unorm8),
}

var unpackers = map[ir.UnaryOp]func(uint32) []float32{
	ir.UnaryUnpackSnorm2x16: unpackComponents(16, 2, func(v uint32) float32 {
		return clamp32(float32(int16(uint16(v)))/32767, -1, 1)
	}),
	ir.UnaryUnpackUnorm2x16: unpackComponents(16, 2, func(v uint32) float32 { return float32(v) / 65535 }),
	ir.UnaryUnpackHalf2x16:  unpackComponents(16, 2, halfToFloat),
	ir.UnaryUnpackSnorm4x8: unpackComponents(8, 4, func(v uint32) float32 {
		return clamp32(float32(int8(uint8(v)))/127, -1, 1)
	}),
	ir.UnaryUnpackUnorm4x8: unpackComponents(8, 4, func(v uint32) float32 { return float32(v) / 255 }),
}
