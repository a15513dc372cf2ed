package instruction

import (
	"fmt"

	"github.com/google/angle-sub000/internal/ir"
)

// HigherPrecision returns the higher of two precisions. PrecisionNone loses to anything.
func HigherPrecision(one, other ir.Precision) ir.Precision {
	switch {
	case one == ir.PrecisionHigh:
		return ir.PrecisionHigh
	case one == ir.PrecisionMedium && other == ir.PrecisionLow:
		return ir.PrecisionMedium
	case other == ir.PrecisionNone:
		return one
	default:
		return other
	}
}

func samePrecision(p ir.Precision) ir.Precision                 { return p }
func noPrecision(ir.Precision) ir.Precision                     { return ir.PrecisionNone }
func noPrecisionBinary(ir.Precision, ir.Precision) ir.Precision { return ir.PrecisionNone }
func lhsPrecision(lhs, _ ir.Precision) ir.Precision             { return lhs }

func builtInUnaryPrecision(op ir.UnaryOp, operand ir.Precision) ir.Precision {
	switch op {
	case ir.UnaryFloatBitsToInt, ir.UnaryFloatBitsToUint, ir.UnaryIntBitsToFloat,
		ir.UnaryUintBitsToFloat, ir.UnaryPackSnorm2x16, ir.UnaryPackHalf2x16,
		ir.UnaryPackUnorm2x16, ir.UnaryPackUnorm4x8, ir.UnaryPackSnorm4x8,
		ir.UnaryUnpackSnorm2x16, ir.UnaryUnpackUnorm2x16, ir.UnaryBitfieldReverse,
		ir.UnaryAtomicCounter, ir.UnaryAtomicCounterIncrement, ir.UnaryAtomicCounterDecrement,
		ir.UnaryImageSize:
		return ir.PrecisionHigh
	case ir.UnaryUnpackHalf2x16, ir.UnaryUnpackUnorm4x8, ir.UnaryUnpackSnorm4x8:
		return ir.PrecisionMedium
	case ir.UnaryBitCount, ir.UnaryFindLSB, ir.UnaryFindMSB:
		return ir.PrecisionLow
	case ir.UnaryIsnan, ir.UnaryIsinf, ir.UnaryAny, ir.UnaryAll, ir.UnaryNot:
		return ir.PrecisionNone
	default:
		return operand
	}
}

func builtInBinaryPrecision(op ir.BinaryOp, lhs, rhs ir.Precision) ir.Precision {
	switch op {
	case ir.BinaryFrexp, ir.BinaryLdexp, ir.BinaryAtomicAdd, ir.BinaryAtomicMin,
		ir.BinaryAtomicMax, ir.BinaryAtomicAnd, ir.BinaryAtomicOr, ir.BinaryAtomicXor,
		ir.BinaryAtomicExchange:
		return ir.PrecisionHigh
	case ir.BinaryInterpolateAtSample, ir.BinaryInterpolateAtOffset:
		return lhs
	case ir.BinaryLessThanVec, ir.BinaryLessThanEqualVec, ir.BinaryGreaterThanVec,
		ir.BinaryGreaterThanEqualVec, ir.BinaryEqualVec, ir.BinaryNotEqualVec:
		return ir.PrecisionNone
	default:
		return HigherPrecision(lhs, rhs)
	}
}

func builtInPrecision(op ir.BuiltInOp, operands []ir.TypedID) ir.Precision {
	switch op {
	case ir.BuiltInTextureSize, ir.BuiltInUaddCarry, ir.BuiltInUsubBorrow, ir.BuiltInAtomicCompSwap,
		ir.BuiltInImageAtomicAdd, ir.BuiltInImageAtomicMin, ir.BuiltInImageAtomicMax,
		ir.BuiltInImageAtomicAnd, ir.BuiltInImageAtomicOr, ir.BuiltInImageAtomicXor,
		ir.BuiltInImageAtomicExchange, ir.BuiltInImageAtomicCompSwap, ir.BuiltInOpNumSamples,
		ir.BuiltInOpSamplePosition:
		return ir.PrecisionHigh
	case ir.BuiltInBitfieldExtract, ir.BuiltInBitfieldInsert, ir.BuiltInInterpolateAtCenter,
		ir.BuiltInTextureQueryLod, ir.BuiltInTexelFetch, ir.BuiltInTexelFetchOffset,
		ir.BuiltInImageLoad, ir.BuiltInSubpassLoad:
		return operands[0].Precision
	case ir.BuiltInClamp, ir.BuiltInMix, ir.BuiltInSmoothstep, ir.BuiltInFma,
		ir.BuiltInFaceforward, ir.BuiltInRefract, ir.BuiltInRgb2Yuv, ir.BuiltInYuv2Rgb,
		ir.BuiltInSaturate:
		p := ir.PrecisionNone
		for _, operand := range operands {
			p = HigherPrecision(p, operand.Precision)
		}
		return p
	default:
		panic(fmt.Errorf("instruction: built-in %s has no result precision", op))
	}
}
