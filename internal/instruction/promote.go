package instruction

import (
	"fmt"

	"github.com/google/angle-sub000/internal/ir"
)

// Result type deduction.

// indexedType is the type of an element of typeID. A pointer operand gives a pointer result;
// vectorSize > 0 turns the element into a vector of that size (swizzles).
func indexedType(m *ir.Meta, typeID ir.TypeID, vectorSize uint32) ir.TypeID {
	t := m.Type(typeID)
	isPointer := t.IsPointer()
	elem := t.MustElementType()
	if isPointer {
		elem = m.Type(elem).MustElementType()
	}
	if vectorSize > 0 {
		elem = m.VectorTypeIDFromElement(elem, vectorSize)
	}
	if isPointer {
		elem = m.PointerTypeID(elem)
	}
	return elem
}

// promoteScalar picks the vector or matrix type when one side of a componentwise operation is a
// scalar.
func promoteScalar(m *ir.Meta, lhs, rhs ir.TypeID) ir.TypeID {
	if m.Type(lhs).IsScalar() {
		return rhs
	}
	return lhs
}

func sameAsOperand(_ *ir.Meta, operand ir.TypeID) ir.TypeID     { return operand }
func sameAsLHS(_ *ir.Meta, lhs, _ ir.TypeID) ir.TypeID          { return lhs }
func boolResult(*ir.Meta, ir.TypeID) ir.TypeID                  { return ir.TypeBool }
func boolResultBinary(*ir.Meta, ir.TypeID, ir.TypeID) ir.TypeID { return ir.TypeBool }

// dereference is used by ++ and -- which take a pointer and produce a value.
func dereference(m *ir.Meta, pointer ir.TypeID) ir.TypeID {
	return m.Type(pointer).MustElementType()
}

func promoteIndex(m *ir.Meta, indexed, _ ir.TypeID) ir.TypeID {
	return indexedType(m, indexed, 0)
}

func promoteStructField(m *ir.Meta, typeID ir.TypeID, field uint32) ir.TypeID {
	t := m.Type(typeID)
	isPointer := t.IsPointer()
	if isPointer {
		t = m.Type(t.Elem)
	}
	fieldType := t.StructField(field).Type
	if isPointer {
		fieldType = m.PointerTypeID(fieldType)
	}
	return fieldType
}

func promoteVectorTimesMatrix(m *ir.Meta, _, rhs ir.TypeID) ir.TypeID {
	columns, _ := m.Type(rhs).MatrixSize()
	return m.VectorTypeID(ir.BasicFloat, columns)
}

func promoteMatrixTimesVector(m *ir.Meta, lhs, _ ir.TypeID) ir.TypeID {
	return m.Type(lhs).MustElementType()
}

func promoteMatrixTimesMatrix(m *ir.Meta, lhs, rhs ir.TypeID) ir.TypeID {
	column := m.Type(lhs).MustElementType()
	rows, _ := m.Type(column).VectorSize()
	columns, _ := m.Type(rhs).MatrixSize()
	return m.MatrixTypeID(columns, rows)
}

// changeBasicType keeps the vector size of typeID but swaps its component type.
func changeBasicType(m *ir.Meta, typeID ir.TypeID, basic ir.BasicType) ir.TypeID {
	if n, ok := m.Type(typeID).VectorSize(); ok {
		return m.VectorTypeID(basic, n)
	}
	return m.BasicTypeID(basic)
}

func transposedType(m *ir.Meta, matrix ir.TypeID) ir.TypeID {
	t := m.Type(matrix)
	columns := t.Count
	rows, _ := m.Type(t.Elem).VectorSize()
	return m.MatrixTypeID(rows, columns)
}

// imageSizeType is int or ivecN by the number of dimensions of the image, as returned by
// imageSize and textureSize.
func imageSizeType(m *ir.Meta, image ir.TypeID) ir.TypeID {
	info := m.Type(image).Image
	var dimensions uint32
	switch info.Dimension {
	case ir.Dim3D:
		dimensions = 3
	case ir.DimBuffer:
		dimensions = 1
	default:
		dimensions = 2
		if info.IsArray {
			dimensions = 3
		}
	}
	if dimensions == 1 {
		return ir.TypeInt
	}
	return m.VectorTypeID(ir.BasicInt, dimensions)
}

// imageReadType is the gvec4 read from an image.
func imageReadType(m *ir.Meta, image ir.TypeID) ir.TypeID {
	switch m.Type(image).ImageBasic {
	case ir.ImageInt:
		return ir.TypeIVec4
	case ir.ImageUint:
		return ir.TypeUVec4
	default:
		return ir.TypeVec4
	}
}

func promoteBuiltInUnary(m *ir.Meta, op ir.UnaryOp, operand ir.TypeID) ir.TypeID {
	switch op {
	case ir.UnaryRadians, ir.UnaryDegrees, ir.UnarySin, ir.UnaryCos, ir.UnaryTan, ir.UnaryAsin,
		ir.UnaryAcos, ir.UnaryAtan, ir.UnarySinh, ir.UnaryCosh, ir.UnaryTanh, ir.UnaryAsinh,
		ir.UnaryAcosh, ir.UnaryAtanh, ir.UnaryExp, ir.UnaryLog, ir.UnaryExp2, ir.UnaryLog2,
		ir.UnarySqrt, ir.UnaryInversesqrt, ir.UnaryAbs, ir.UnarySign, ir.UnaryFloor, ir.UnaryTrunc,
		ir.UnaryRound, ir.UnaryRoundEven, ir.UnaryCeil, ir.UnaryFract, ir.UnaryNormalize,
		ir.UnaryInverse, ir.UnaryNot, ir.UnaryBitfieldReverse, ir.UnaryDFdx, ir.UnaryDFdy,
		ir.UnaryFwidth, ir.UnaryInterpolateAtCentroid:
		return operand
	case ir.UnaryFloatBitsToInt:
		return changeBasicType(m, operand, ir.BasicInt)
	case ir.UnaryFloatBitsToUint:
		return changeBasicType(m, operand, ir.BasicUint)
	case ir.UnaryIntBitsToFloat, ir.UnaryUintBitsToFloat:
		return changeBasicType(m, operand, ir.BasicFloat)
	case ir.UnaryPackUnorm2x16, ir.UnaryPackSnorm2x16, ir.UnaryPackHalf2x16, ir.UnaryPackUnorm4x8,
		ir.UnaryPackSnorm4x8:
		return ir.TypeUint
	case ir.UnaryUnpackSnorm2x16, ir.UnaryUnpackHalf2x16, ir.UnaryUnpackUnorm2x16:
		return ir.TypeVec2
	case ir.UnaryUnpackUnorm4x8, ir.UnaryUnpackSnorm4x8:
		return ir.TypeVec4
	case ir.UnaryLength, ir.UnaryDeterminant:
		return ir.TypeFloat
	case ir.UnaryTranspose:
		return transposedType(m, operand)
	case ir.UnaryIsnan, ir.UnaryIsinf:
		return changeBasicType(m, operand, ir.BasicBool)
	case ir.UnaryAny, ir.UnaryAll:
		return ir.TypeBool
	case ir.UnaryBitCount, ir.UnaryFindLSB, ir.UnaryFindMSB:
		return changeBasicType(m, operand, ir.BasicInt)
	case ir.UnaryAtomicCounter, ir.UnaryAtomicCounterIncrement, ir.UnaryAtomicCounterDecrement:
		return ir.TypeUint
	case ir.UnaryImageSize:
		return imageSizeType(m, operand)
	case ir.UnaryPixelLocalLoadANGLE:
		return imageReadType(m, operand)
	default:
		panic(fmt.Errorf("instruction: unary op %s is not a built-in", op))
	}
}

// outerProductType: outerProduct(vecM, vecN) is matNxM.
func outerProductType(m *ir.Meta, lhs, rhs ir.TypeID) ir.TypeID {
	columns, _ := m.Type(rhs).VectorSize()
	rows, _ := m.Type(lhs).VectorSize()
	return m.MatrixTypeID(columns, rows)
}

func promoteBuiltInBinary(m *ir.Meta, op ir.BinaryOp, lhs, rhs ir.TypeID) ir.TypeID {
	switch op {
	case ir.BinaryAtan, ir.BinaryPow, ir.BinaryMod, ir.BinaryMin, ir.BinaryMax, ir.BinaryModf,
		ir.BinaryFrexp, ir.BinaryLdexp, ir.BinaryCross, ir.BinaryReflect, ir.BinaryMatrixCompMult,
		ir.BinaryInterpolateAtSample, ir.BinaryInterpolateAtOffset:
		return lhs
	case ir.BinaryStep, ir.BinaryAtomicAdd, ir.BinaryAtomicMin, ir.BinaryAtomicMax,
		ir.BinaryAtomicAnd, ir.BinaryAtomicOr, ir.BinaryAtomicXor, ir.BinaryAtomicExchange:
		return rhs
	case ir.BinaryDistance, ir.BinaryDot:
		return ir.TypeFloat
	case ir.BinaryOuterProduct:
		return outerProductType(m, lhs, rhs)
	case ir.BinaryLessThanVec, ir.BinaryLessThanEqualVec, ir.BinaryGreaterThanVec,
		ir.BinaryGreaterThanEqualVec, ir.BinaryEqualVec, ir.BinaryNotEqualVec:
		return changeBasicType(m, lhs, ir.BasicBool)
	default:
		panic(fmt.Errorf("instruction: binary op %s is not a built-in", op))
	}
}

func promoteBuiltIn(m *ir.Meta, op ir.BuiltInOp, operands []ir.TypeID) ir.TypeID {
	switch op {
	case ir.BuiltInClamp, ir.BuiltInMix, ir.BuiltInFma, ir.BuiltInFaceforward, ir.BuiltInRefract,
		ir.BuiltInBitfieldExtract, ir.BuiltInBitfieldInsert, ir.BuiltInUaddCarry,
		ir.BuiltInUsubBorrow, ir.BuiltInInterpolateAtCenter, ir.BuiltInSaturate:
		return operands[0]
	case ir.BuiltInSmoothstep, ir.BuiltInAtomicCompSwap, ir.BuiltInImageAtomicAdd,
		ir.BuiltInImageAtomicMin, ir.BuiltInImageAtomicMax, ir.BuiltInImageAtomicAnd,
		ir.BuiltInImageAtomicOr, ir.BuiltInImageAtomicXor, ir.BuiltInImageAtomicExchange,
		ir.BuiltInImageAtomicCompSwap:
		return operands[len(operands)-1]
	case ir.BuiltInUmulExtended, ir.BuiltInImulExtended, ir.BuiltInImageStore,
		ir.BuiltInPixelLocalStoreANGLE, ir.BuiltInMemoryBarrier, ir.BuiltInMemoryBarrierAtomicCounter,
		ir.BuiltInMemoryBarrierBuffer, ir.BuiltInMemoryBarrierImage, ir.BuiltInBarrier,
		ir.BuiltInMemoryBarrierShared, ir.BuiltInGroupMemoryBarrier, ir.BuiltInEmitVertex,
		ir.BuiltInEndPrimitive, ir.BuiltInBeginInvocationInterlockNV,
		ir.BuiltInEndInvocationInterlockNV, ir.BuiltInBeginFragmentShaderOrderingINTEL,
		ir.BuiltInBeginInvocationInterlockARB, ir.BuiltInEndInvocationInterlockARB,
		ir.BuiltInLoopForwardProgress:
		return ir.TypeVoid
	case ir.BuiltInTextureSize:
		return imageSizeType(m, operands[0])
	case ir.BuiltInTextureQueryLod:
		return ir.TypeVec2
	case ir.BuiltInTexelFetch, ir.BuiltInTexelFetchOffset, ir.BuiltInImageLoad, ir.BuiltInSubpassLoad:
		return imageReadType(m, operands[0])
	case ir.BuiltInRgb2Yuv, ir.BuiltInYuv2Rgb:
		return ir.TypeVec3
	case ir.BuiltInOpNumSamples:
		return ir.TypeUint
	case ir.BuiltInOpSamplePosition:
		return ir.TypeVec2
	default:
		panic(fmt.Errorf("instruction: unknown built-in %s", op))
	}
}

// promoteTexture: sampling gives gvec4, except for shadow samplers which give float, or vec4
// for textureGather with a reference value.
func promoteTexture(m *ir.Meta, op *ir.TextureOp, sampler ir.TypeID) ir.TypeID {
	if op.Kind == ir.TextureGatherRef {
		return ir.TypeVec4
	}
	if m.Type(sampler).Image.IsShadow {
		return ir.TypeFloat
	}
	return imageReadType(m, sampler)
}
