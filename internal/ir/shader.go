package ir

import "fmt"

// ShaderType is the pipeline stage a shader is compiled for.
type ShaderType uint8

const (
	ShaderVertex ShaderType = iota
	ShaderTessControl
	ShaderTessEval
	ShaderGeometry
	ShaderFragment
	ShaderCompute
)

var shaderTypeNames = [...]string{
	ShaderVertex:      "vertex",
	ShaderTessControl: "tess_control",
	ShaderTessEval:    "tess_eval",
	ShaderGeometry:    "geometry",
	ShaderFragment:    "fragment",
	ShaderCompute:     "compute",
}

func (s ShaderType) String() string {
	if int(s) < len(shaderTypeNames) {
		return shaderTypeNames[s]
	}
	return fmt.Sprintf("ShaderType(%d)", s)
}

// ParseShaderType accepts the names produced by String.
func ParseShaderType(s string) (ShaderType, error) {
	for i, n := range shaderTypeNames {
		if n == s {
			return ShaderType(i), nil
		}
	}
	return ShaderVertex, fmt.Errorf("unknown shader type %q", s)
}

type GeometryPrimitive uint8

const (
	GeometryUndefined GeometryPrimitive = iota
	GeometryPoints
	GeometryLines
	GeometryLinesAdjacency
	GeometryTriangles
	GeometryTrianglesAdjacency
	GeometryLineStrip
	GeometryTriangleStrip
)

type TessellationPrimitive uint8

const (
	TessPrimitiveUndefined TessellationPrimitive = iota
	TessTriangles
	TessQuads
	TessIsolines
)

type TessellationSpacing uint8

const (
	TessSpacingUndefined TessellationSpacing = iota
	TessEqualSpacing
	TessFractionalEvenSpacing
	TessFractionalOddSpacing
)

type TessellationOrdering uint8

const (
	TessOrderingUndefined TessellationOrdering = iota
	TessCw
	TessCcw
)

// AdvancedBlendEquations is a set of KHR_blend_equation_advanced equations.
type AdvancedBlendEquations uint16

const (
	BlendMultiply AdvancedBlendEquations = 1 << iota
	BlendScreen
	BlendOverlay
	BlendDarken
	BlendLighten
	BlendColorDodge
	BlendColorBurn
	BlendHardLight
	BlendSoftLight
	BlendDifference
	BlendExclusion
	BlendHslHue
	BlendHslSaturation
	BlendHslColor
	BlendHslLuminosity

	BlendAll = BlendMultiply | BlendScreen | BlendOverlay | BlendDarken | BlendLighten |
		BlendColorDodge | BlendColorBurn | BlendHardLight | BlendSoftLight | BlendDifference |
		BlendExclusion | BlendHslHue | BlendHslSaturation | BlendHslColor | BlendHslLuminosity
)

// All reports whether every equation is enabled.
func (e AdvancedBlendEquations) All() bool { return e&BlendAll == BlendAll }

// ShaderMeta holds global, stage-specific properties of the shader. The builder only records
// them; generators consume them.
type ShaderMeta struct {
	Type                     ShaderType
	EarlyFragmentTests       bool
	AdvancedBlendEquations   AdvancedBlendEquations
	TCSVertices              uint32
	TESPrimitive             TessellationPrimitive
	TESVertexSpacing         TessellationSpacing
	TESOrdering              TessellationOrdering
	TESPointMode             bool
	GSPrimitiveIn            GeometryPrimitive
	GSPrimitiveOut           GeometryPrimitive
	GSInvocations            uint32
	GSMaxVertices            uint32
	PerVertexInIsRedeclared  bool
	PerVertexOutIsRedeclared bool
}
