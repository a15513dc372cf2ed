package ir

import "fmt"

// UnaryOp enumerates single-operand operators and built-ins.
type UnaryOp uint8

const (
	UnaryArrayLength UnaryOp = iota
	UnaryNegate
	UnaryLogicalNot
	UnaryBitwiseNot
	UnaryPrefixIncrement
	UnaryPrefixDecrement
	UnaryPostfixIncrement
	UnaryPostfixDecrement
	UnaryRadians
	UnaryDegrees
	UnarySin
	UnaryCos
	UnaryTan
	UnaryAsin
	UnaryAcos
	UnaryAtan
	UnarySinh
	UnaryCosh
	UnaryTanh
	UnaryAsinh
	UnaryAcosh
	UnaryAtanh
	UnaryExp
	UnaryLog
	UnaryExp2
	UnaryLog2
	UnarySqrt
	UnaryInversesqrt
	UnaryAbs
	UnarySign
	UnaryFloor
	UnaryTrunc
	UnaryRound
	UnaryRoundEven
	UnaryCeil
	UnaryFract
	UnaryIsnan
	UnaryIsinf
	UnaryFloatBitsToInt
	UnaryFloatBitsToUint
	UnaryIntBitsToFloat
	UnaryUintBitsToFloat
	UnaryPackSnorm2x16
	UnaryPackHalf2x16
	UnaryUnpackSnorm2x16
	UnaryUnpackHalf2x16
	UnaryPackUnorm2x16
	UnaryUnpackUnorm2x16
	UnaryPackUnorm4x8
	UnaryPackSnorm4x8
	UnaryUnpackUnorm4x8
	UnaryUnpackSnorm4x8
	UnaryLength
	UnaryNormalize
	UnaryTranspose
	UnaryDeterminant
	UnaryInverse
	UnaryAny
	UnaryAll
	UnaryNot
	UnaryBitfieldReverse
	UnaryBitCount
	UnaryFindLSB
	UnaryFindMSB
	UnaryDFdx
	UnaryDFdy
	UnaryFwidth
	UnaryInterpolateAtCentroid
	// The operand of the atomic counter ops is a pointer.
	UnaryAtomicCounter
	UnaryAtomicCounterIncrement
	UnaryAtomicCounterDecrement
	UnaryImageSize
	UnaryPixelLocalLoadANGLE
)

var unaryNames = [...]string{
	"ArrayLength", "Negate", "LogicalNot", "BitwiseNot", "PrefixIncrement", "PrefixDecrement",
	"PostfixIncrement", "PostfixDecrement", "Radians", "Degrees", "Sin", "Cos", "Tan", "Asin",
	"Acos", "Atan", "Sinh", "Cosh", "Tanh", "Asinh", "Acosh", "Atanh", "Exp", "Log", "Exp2",
	"Log2", "Sqrt", "Inversesqrt", "Abs", "Sign", "Floor", "Trunc", "Round", "RoundEven", "Ceil",
	"Fract", "Isnan", "Isinf", "FloatBitsToInt", "FloatBitsToUint", "IntBitsToFloat",
	"UintBitsToFloat", "PackSnorm2x16", "PackHalf2x16", "UnpackSnorm2x16", "UnpackHalf2x16",
	"PackUnorm2x16", "UnpackUnorm2x16", "PackUnorm4x8", "PackSnorm4x8", "UnpackUnorm4x8",
	"UnpackSnorm4x8", "Length", "Normalize", "Transpose", "Determinant", "Inverse", "Any", "All",
	"Not", "BitfieldReverse", "BitCount", "FindLSB", "FindMSB", "DFdx", "DFdy", "Fwidth",
	"InterpolateAtCentroid", "AtomicCounter", "AtomicCounterIncrement", "AtomicCounterDecrement",
	"ImageSize", "PixelLocalLoadANGLE",
}

func (op UnaryOp) String() string {
	if int(op) < len(unaryNames) {
		return unaryNames[op]
	}
	return fmt.Sprintf("UnaryOp(%d)", op)
}

// BinaryOp enumerates two-operand operators and built-ins.
type BinaryOp uint8

const (
	BinaryAdd BinaryOp = iota
	BinarySub
	BinaryMul
	BinaryVectorTimesScalar
	BinaryMatrixTimesScalar
	BinaryVectorTimesMatrix
	BinaryMatrixTimesVector
	BinaryMatrixTimesMatrix
	BinaryDiv
	BinaryIMod
	BinaryLogicalXor
	BinaryEqual
	BinaryNotEqual
	BinaryLessThan
	BinaryGreaterThan
	BinaryLessThanEqual
	BinaryGreaterThanEqual
	BinaryBitShiftLeft
	BinaryBitShiftRight
	BinaryBitwiseOr
	BinaryBitwiseXor
	BinaryBitwiseAnd
	BinaryAtan
	BinaryPow
	BinaryMod
	BinaryMin
	BinaryMax
	BinaryStep
	// The second operand of modf and frexp is a pointer.
	BinaryModf
	BinaryFrexp
	BinaryLdexp
	BinaryDistance
	BinaryDot
	BinaryCross
	BinaryReflect
	BinaryMatrixCompMult
	BinaryOuterProduct
	BinaryLessThanVec
	BinaryLessThanEqualVec
	BinaryGreaterThanVec
	BinaryGreaterThanEqualVec
	BinaryEqualVec
	BinaryNotEqualVec
	BinaryInterpolateAtSample
	BinaryInterpolateAtOffset
	// The first operand of the atomic ops is a pointer.
	BinaryAtomicAdd
	BinaryAtomicMin
	BinaryAtomicMax
	BinaryAtomicAnd
	BinaryAtomicOr
	BinaryAtomicXor
	BinaryAtomicExchange
)

var binaryNames = [...]string{
	"Add", "Sub", "Mul", "VectorTimesScalar", "MatrixTimesScalar", "VectorTimesMatrix",
	"MatrixTimesVector", "MatrixTimesMatrix", "Div", "IMod", "LogicalXor", "Equal", "NotEqual",
	"LessThan", "GreaterThan", "LessThanEqual", "GreaterThanEqual", "BitShiftLeft",
	"BitShiftRight", "BitwiseOr", "BitwiseXor", "BitwiseAnd", "Atan", "Pow", "Mod", "Min", "Max",
	"Step", "Modf", "Frexp", "Ldexp", "Distance", "Dot", "Cross", "Reflect", "MatrixCompMult",
	"OuterProduct", "LessThanVec", "LessThanEqualVec", "GreaterThanVec", "GreaterThanEqualVec",
	"EqualVec", "NotEqualVec", "InterpolateAtSample", "InterpolateAtOffset", "AtomicAdd",
	"AtomicMin", "AtomicMax", "AtomicAnd", "AtomicOr", "AtomicXor", "AtomicExchange",
}

func (op BinaryOp) String() string {
	if int(op) < len(binaryNames) {
		return binaryNames[op]
	}
	return fmt.Sprintf("BinaryOp(%d)", op)
}

// BuiltInOp enumerates built-ins taking zero or more than two operands, or with pointer
// operands that do not fit UnaryOp/BinaryOp.
type BuiltInOp uint8

const (
	BuiltInClamp BuiltInOp = iota
	BuiltInMix
	BuiltInSmoothstep
	BuiltInFma
	BuiltInFaceforward
	BuiltInRefract
	BuiltInBitfieldExtract
	BuiltInBitfieldInsert
	// The third operand is a pointer.
	BuiltInUaddCarry
	BuiltInUsubBorrow
	// The third and fourth operands are pointers.
	BuiltInUmulExtended
	BuiltInImulExtended
	BuiltInTextureSize
	BuiltInTextureQueryLod
	BuiltInTexelFetch
	BuiltInTexelFetchOffset
	BuiltInRgb2Yuv
	BuiltInYuv2Rgb
	BuiltInAtomicCompSwap
	BuiltInImageStore
	BuiltInImageLoad
	BuiltInImageAtomicAdd
	BuiltInImageAtomicMin
	BuiltInImageAtomicMax
	BuiltInImageAtomicAnd
	BuiltInImageAtomicOr
	BuiltInImageAtomicXor
	BuiltInImageAtomicExchange
	BuiltInImageAtomicCompSwap
	BuiltInPixelLocalStoreANGLE
	BuiltInMemoryBarrier
	BuiltInMemoryBarrierAtomicCounter
	BuiltInMemoryBarrierBuffer
	BuiltInMemoryBarrierImage
	BuiltInBarrier
	BuiltInMemoryBarrierShared
	BuiltInGroupMemoryBarrier
	BuiltInEmitVertex
	BuiltInEndPrimitive
	BuiltInSubpassLoad
	BuiltInBeginInvocationInterlockNV
	BuiltInEndInvocationInterlockNV
	BuiltInBeginFragmentShaderOrderingINTEL
	BuiltInBeginInvocationInterlockARB
	BuiltInEndInvocationInterlockARB
	BuiltInOpNumSamples
	BuiltInOpSamplePosition
	BuiltInInterpolateAtCenter
	BuiltInLoopForwardProgress
	BuiltInSaturate
)

var builtInOpNames = [...]string{
	"Clamp", "Mix", "Smoothstep", "Fma", "Faceforward", "Refract", "BitfieldExtract",
	"BitfieldInsert", "UaddCarry", "UsubBorrow", "UmulExtended", "ImulExtended", "TextureSize",
	"TextureQueryLod", "TexelFetch", "TexelFetchOffset", "Rgb2Yuv", "Yuv2Rgb", "AtomicCompSwap",
	"ImageStore", "ImageLoad", "ImageAtomicAdd", "ImageAtomicMin", "ImageAtomicMax",
	"ImageAtomicAnd", "ImageAtomicOr", "ImageAtomicXor", "ImageAtomicExchange",
	"ImageAtomicCompSwap", "PixelLocalStoreANGLE", "MemoryBarrier", "MemoryBarrierAtomicCounter",
	"MemoryBarrierBuffer", "MemoryBarrierImage", "Barrier", "MemoryBarrierShared",
	"GroupMemoryBarrier", "EmitVertex", "EndPrimitive", "SubpassLoad",
	"BeginInvocationInterlockNV", "EndInvocationInterlockNV", "BeginFragmentShaderOrderingINTEL",
	"BeginInvocationInterlockARB", "EndInvocationInterlockARB", "NumSamples", "SamplePosition",
	"InterpolateAtCenter", "LoopForwardProgress", "Saturate",
}

func (op BuiltInOp) String() string {
	if int(op) < len(builtInOpNames) {
		return builtInOpNames[op]
	}
	return fmt.Sprintf("BuiltInOp(%d)", op)
}

// MayConstFold reports whether the built-in is evaluated at build time when all of its
// operands are constant.
func (op BuiltInOp) MayConstFold() bool {
	switch op {
	case BuiltInClamp, BuiltInMix, BuiltInSmoothstep, BuiltInFma, BuiltInFaceforward,
		BuiltInRefract, BuiltInBitfieldExtract, BuiltInBitfieldInsert, BuiltInRgb2Yuv,
		BuiltInYuv2Rgb:
		return true
	default:
		return false
	}
}

// TextureKind enumerates the texture* sampling variants.
type TextureKind uint8

const (
	TextureImplicit TextureKind = iota
	TextureCompare
	TextureLod
	TextureCompareLod
	TextureBias
	TextureCompareBias
	TextureGrad
	TextureGather
	TextureGatherComponent
	TextureGatherRef
)

var textureKindNames = [...]string{
	"", "Compare", "Lod", "CompareLod", "Bias", "CompareBias", "Grad", "Gather",
	"GatherComponent", "GatherRef",
}

func (k TextureKind) String() string {
	if int(k) < len(textureKindNames) {
		return textureKindNames[k]
	}
	return fmt.Sprintf("TextureKind(%d)", k)
}

// TextureOp holds the parameters of a texture op beyond the sampler and coordinate.
type TextureOp struct {
	Kind   TextureKind
	IsProj bool

	Compare   TypedID
	Lod       TypedID
	Bias      TypedID
	Dx        TypedID
	Dy        TypedID
	Component TypedID
	RefZ      TypedID

	Offset    TypedID
	HasOffset bool
}

func (t *TextureOp) forEachParam(fn func(TypedID)) {
	switch t.Kind {
	case TextureCompare:
		fn(t.Compare)
	case TextureLod:
		fn(t.Lod)
	case TextureCompareLod:
		fn(t.Compare)
		fn(t.Lod)
	case TextureBias:
		fn(t.Bias)
	case TextureCompareBias:
		fn(t.Compare)
		fn(t.Bias)
	case TextureGrad:
		fn(t.Dx)
		fn(t.Dy)
	case TextureGatherComponent:
		fn(t.Component)
	case TextureGatherRef:
		fn(t.RefZ)
	}
	if t.HasOffset {
		fn(t.Offset)
	}
}
