package builder

import (
	"fmt"

	"github.com/google/angle-sub000/internal/instruction"
	"github.com/google/angle-sub000/internal/ir"
)

// BuiltInUnary calls a one-argument built-in. The atomic counter built-ins take the counter
// itself rather than its value.
func (b *Builder) BuiltInUnary(op ir.UnaryOp) {
	build := func(m *ir.Meta, operand ir.TypedID) instruction.Result {
		return instruction.BuiltInUnary(m, op, operand)
	}
	switch op {
	case ir.UnaryArrayLength:
		b.ArrayLength()
	case ir.UnaryAtomicCounter, ir.UnaryAtomicCounterIncrement, ir.UnaryAtomicCounterDecrement,
		ir.UnaryPrefixIncrement, ir.UnaryPrefixDecrement, ir.UnaryPostfixIncrement, ir.UnaryPostfixDecrement:
		b.unaryWithPointer(build)
	default:
		b.unary(build)
	}
}

// BuiltInBinary calls a two-argument built-in. The atomic built-ins modify their first argument
// and modf/frexp write their second, which are kept as pointers.
func (b *Builder) BuiltInBinary(op ir.BinaryOp) {
	var lhs, rhs ir.TypedID
	switch op {
	case ir.BinaryAtomicAdd, ir.BinaryAtomicMin, ir.BinaryAtomicMax, ir.BinaryAtomicAnd,
		ir.BinaryAtomicOr, ir.BinaryAtomicXor, ir.BinaryAtomicExchange:
		rhs = b.load()
		lhs = b.pop()
	case ir.BinaryModf, ir.BinaryFrexp:
		rhs = b.pop()
		lhs = b.load()
	default:
		rhs = b.load()
		lhs = b.load()
	}
	b.addInstruction(instruction.BuiltInBinary(b.meta(), op, lhs, rhs))
}

// pointerArgs counts the leading and trailing arguments of a built-in that are written to.
type pointerArgs struct {
	first, last int
}

var builtInPointerArgs = map[ir.BuiltInOp]pointerArgs{
	ir.BuiltInUaddCarry:      {last: 1},
	ir.BuiltInUsubBorrow:     {last: 1},
	ir.BuiltInUmulExtended:   {last: 2},
	ir.BuiltInImulExtended:   {last: 2},
	ir.BuiltInAtomicCompSwap: {first: 1},
}

// builtInArgCounts is the argument count of built-ins with a fixed signature. The others take
// their count from the caller.
var builtInArgCounts = map[ir.BuiltInOp]int{
	ir.BuiltInClamp:                            3,
	ir.BuiltInMix:                              3,
	ir.BuiltInSmoothstep:                       3,
	ir.BuiltInFma:                              3,
	ir.BuiltInFaceforward:                      3,
	ir.BuiltInRefract:                          3,
	ir.BuiltInBitfieldExtract:                  3,
	ir.BuiltInBitfieldInsert:                   4,
	ir.BuiltInUaddCarry:                        3,
	ir.BuiltInUsubBorrow:                       3,
	ir.BuiltInUmulExtended:                     4,
	ir.BuiltInImulExtended:                     4,
	ir.BuiltInTextureQueryLod:                  2,
	ir.BuiltInTexelFetchOffset:                 4,
	ir.BuiltInRgb2Yuv:                          2,
	ir.BuiltInYuv2Rgb:                          2,
	ir.BuiltInAtomicCompSwap:                   3,
	ir.BuiltInImageStore:                       3,
	ir.BuiltInImageLoad:                        2,
	ir.BuiltInImageAtomicAdd:                   3,
	ir.BuiltInImageAtomicMin:                   3,
	ir.BuiltInImageAtomicMax:                   3,
	ir.BuiltInImageAtomicAnd:                   3,
	ir.BuiltInImageAtomicOr:                    3,
	ir.BuiltInImageAtomicXor:                   3,
	ir.BuiltInImageAtomicExchange:              3,
	ir.BuiltInImageAtomicCompSwap:              4,
	ir.BuiltInPixelLocalStoreANGLE:             2,
	ir.BuiltInMemoryBarrier:                    0,
	ir.BuiltInMemoryBarrierAtomicCounter:       0,
	ir.BuiltInMemoryBarrierBuffer:              0,
	ir.BuiltInMemoryBarrierImage:               0,
	ir.BuiltInBarrier:                          0,
	ir.BuiltInMemoryBarrierShared:              0,
	ir.BuiltInGroupMemoryBarrier:               0,
	ir.BuiltInEmitVertex:                       0,
	ir.BuiltInEndPrimitive:                     0,
	ir.BuiltInBeginInvocationInterlockNV:       0,
	ir.BuiltInEndInvocationInterlockNV:         0,
	ir.BuiltInBeginFragmentShaderOrderingINTEL: 0,
	ir.BuiltInBeginInvocationInterlockARB:      0,
	ir.BuiltInEndInvocationInterlockARB:        0,
	ir.BuiltInOpNumSamples:                     0,
	ir.BuiltInLoopForwardProgress:              0,
	ir.BuiltInSaturate:                         1,
	ir.BuiltInOpSamplePosition:                 1,
	ir.BuiltInInterpolateAtCenter:              1,
}

// BuiltInArgCount returns the argument count of a built-in with a fixed signature.
func BuiltInArgCount(op ir.BuiltInOp) (int, bool) {
	n, ok := builtInArgCounts[op]
	return n, ok
}

// BuiltIn calls a built-in with argCount arguments from the stack. textureSize and texelFetch
// have an optional argument, so the count is always given by the caller.
func (b *Builder) BuiltIn(op ir.BuiltInOp, argCount int) {
	if want, ok := builtInArgCounts[op]; ok && want != argCount {
		panic(fmt.Errorf("builder: %s takes %d arguments, got %d", op, want, argCount))
	}
	ptrs := builtInPointerArgs[op]
	loaded := argCount - ptrs.first - ptrs.last
	if loaded < 0 {
		panic(fmt.Errorf("builder: %s needs at least %d arguments", op, ptrs.first+ptrs.last))
	}

	args := make([]ir.TypedID, argCount)
	i := argCount - 1
	for range ptrs.last {
		args[i] = b.pop()
		i--
	}
	for range loaded {
		args[i] = b.load()
		i--
	}
	for range ptrs.first {
		args[i] = b.pop()
		i--
	}
	b.addInstruction(instruction.BuiltIn(b.meta(), op, args))
}

// Texture samples a texture. The stack holds the sampler, the coordinate and then the extra
// arguments of the variant in GLSL order: for example `textureGradOffset(s, P, dx, dy, offset)`
// is Texture(ir.TextureGrad, false, true).
func (b *Builder) Texture(kind ir.TextureKind, isProj, hasOffset bool) {
	texOp := ir.TextureOp{Kind: kind, IsProj: isProj, HasOffset: hasOffset}

	var params []*ir.TypedID
	offset := func() {
		if hasOffset {
			params = append(params, &texOp.Offset)
		}
	}
	switch kind {
	case ir.TextureImplicit, ir.TextureGather:
		offset()
	case ir.TextureCompare:
		params = append(params, &texOp.Compare)
		offset()
	case ir.TextureLod:
		params = append(params, &texOp.Lod)
		offset()
	case ir.TextureCompareLod:
		params = append(params, &texOp.Compare, &texOp.Lod)
		offset()
	case ir.TextureBias:
		offset()
		params = append(params, &texOp.Bias)
	case ir.TextureCompareBias:
		params = append(params, &texOp.Compare)
		offset()
		params = append(params, &texOp.Bias)
	case ir.TextureGrad:
		params = append(params, &texOp.Dx, &texOp.Dy)
		offset()
	case ir.TextureGatherComponent:
		offset()
		params = append(params, &texOp.Component)
	case ir.TextureGatherRef:
		params = append(params, &texOp.RefZ)
		offset()
	default:
		panic(fmt.Errorf("builder: unknown texture variant %s", kind))
	}

	for i := len(params) - 1; i >= 0; i-- {
		*params[i] = b.load()
	}
	coord := b.load()
	sampler := b.load()
	b.addInstruction(instruction.Texture(b.meta(), &texOp, sampler, coord))
}
