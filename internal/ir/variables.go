package ir

import "fmt"

// NameSource tells how a name must be treated by generators.
type NameSource uint8

const (
	// NameShaderInterface names are part of the shader interface and are kept predictably.
	NameShaderInterface NameSource = iota
	// NameInternal names are output exactly.
	NameInternal
	// NameTemporary names may be disambiguated freely.
	NameTemporary
)

// Name is a symbol name together with its source.
type Name struct {
	Name   string
	Source NameSource
}

func TempName(name string) Name      { return Name{Name: name, Source: NameTemporary} }
func InterfaceName(name string) Name { return Name{Name: name, Source: NameShaderInterface} }
func ExactName(name string) Name     { return Name{Name: name, Source: NameInternal} }

// Format renders the name the way text generators would, given the id it belongs to.
func (n Name) Format(tempPrefix string, id uint32) string {
	switch n.Source {
	case NameShaderInterface:
		return UserSymbolPrefix + n.Name
	case NameTemporary:
		return fmt.Sprintf("%s%s_%d", tempPrefix, n.Name, id)
	default:
		return n.Name
	}
}

// VariableScope is where a variable is declared.
type VariableScope uint8

const (
	ScopeGlobal VariableScope = iota
	ScopeLocal
	ScopeFunctionParam
)

func (s VariableScope) String() string {
	switch s {
	case ScopeGlobal:
		return "global"
	case ScopeLocal:
		return "local"
	case ScopeFunctionParam:
		return "param"
	default:
		return fmt.Sprintf("VariableScope(%d)", s)
	}
}

// BuiltIn tags a variable as one of the GLSL built-in variables. BuiltInNone means the
// variable is user-declared.
type BuiltIn uint8

const (
	BuiltInNone BuiltIn = iota
	BuiltInInstanceID
	BuiltInVertexID
	BuiltInPosition
	BuiltInPointSize
	BuiltInBaseVertex
	BuiltInBaseInstance
	BuiltInDrawID
	BuiltInFragCoord
	BuiltInFrontFacing
	BuiltInPointCoord
	BuiltInHelperInvocation
	BuiltInFragColor
	BuiltInFragData
	BuiltInFragDepth
	BuiltInSecondaryFragColorEXT
	BuiltInSecondaryFragDataEXT
	BuiltInDepthRange
	BuiltInViewIDOVR
	BuiltInClipDistance
	BuiltInCullDistance
	BuiltInLastFragColor
	BuiltInLastFragData
	BuiltInLastFragDepthARM
	BuiltInLastFragStencilARM
	BuiltInShadingRateEXT
	BuiltInPrimitiveShadingRateEXT
	BuiltInSampleID
	BuiltInSamplePosition
	BuiltInSampleMaskIn
	BuiltInSampleMask
	BuiltInNumSamples
	BuiltInNumWorkGroups
	BuiltInWorkGroupSize
	BuiltInWorkGroupID
	BuiltInLocalInvocationID
	BuiltInGlobalInvocationID
	BuiltInLocalInvocationIndex
	BuiltInPerVertexIn
	BuiltInPerVertexOut
	BuiltInPrimitiveIDIn
	BuiltInInvocationID
	BuiltInPrimitiveID
	BuiltInLayerOut
	BuiltInLayerIn
	BuiltInPatchVerticesIn
	BuiltInTessLevelOuter
	BuiltInTessLevelInner
	BuiltInTessCoord
	BuiltInBoundingBoxOES
	BuiltInPixelLocalEXT
)

var builtInNames = [...]string{
	BuiltInNone:                    "",
	BuiltInInstanceID:              "gl_InstanceID",
	BuiltInVertexID:                "gl_VertexID",
	BuiltInPosition:                "gl_Position",
	BuiltInPointSize:               "gl_PointSize",
	BuiltInBaseVertex:              "gl_BaseVertex",
	BuiltInBaseInstance:            "gl_BaseInstance",
	BuiltInDrawID:                  "gl_DrawID",
	BuiltInFragCoord:               "gl_FragCoord",
	BuiltInFrontFacing:             "gl_FrontFacing",
	BuiltInPointCoord:              "gl_PointCoord",
	BuiltInHelperInvocation:        "gl_HelperInvocation",
	BuiltInFragColor:               "gl_FragColor",
	BuiltInFragData:                "gl_FragData",
	BuiltInFragDepth:               "gl_FragDepth",
	BuiltInSecondaryFragColorEXT:   "gl_SecondaryFragColorEXT",
	BuiltInSecondaryFragDataEXT:    "gl_SecondaryFragDataEXT",
	BuiltInDepthRange:              "gl_DepthRange",
	BuiltInViewIDOVR:               "gl_ViewID_OVR",
	BuiltInClipDistance:            "gl_ClipDistance",
	BuiltInCullDistance:            "gl_CullDistance",
	BuiltInLastFragColor:           "gl_LastFragColor",
	BuiltInLastFragData:            "gl_LastFragData",
	BuiltInLastFragDepthARM:        "gl_LastFragDepthARM",
	BuiltInLastFragStencilARM:      "gl_LastFragStencilARM",
	BuiltInShadingRateEXT:          "gl_ShadingRateEXT",
	BuiltInPrimitiveShadingRateEXT: "gl_PrimitiveShadingRateEXT",
	BuiltInSampleID:                "gl_SampleID",
	BuiltInSamplePosition:          "gl_SamplePosition",
	BuiltInSampleMaskIn:            "gl_SampleMaskIn",
	BuiltInSampleMask:              "gl_SampleMask",
	BuiltInNumSamples:              "gl_NumSamples",
	BuiltInNumWorkGroups:           "gl_NumWorkGroups",
	BuiltInWorkGroupSize:           "gl_WorkGroupSize",
	BuiltInWorkGroupID:             "gl_WorkGroupID",
	BuiltInLocalInvocationID:       "gl_LocalInvocationID",
	BuiltInGlobalInvocationID:      "gl_GlobalInvocationID",
	BuiltInLocalInvocationIndex:    "gl_LocalInvocationIndex",
	BuiltInPerVertexIn:             "gl_in",
	BuiltInPerVertexOut:            "gl_out",
	BuiltInPrimitiveIDIn:           "gl_PrimitiveIDIn",
	BuiltInInvocationID:            "gl_InvocationID",
	BuiltInPrimitiveID:             "gl_PrimitiveID",
	BuiltInLayerOut:                "gl_Layer",
	BuiltInLayerIn:                 "gl_Layer",
	BuiltInPatchVerticesIn:         "gl_PatchVerticesIn",
	BuiltInTessLevelOuter:          "gl_TessLevelOuter",
	BuiltInTessLevelInner:          "gl_TessLevelInner",
	BuiltInTessCoord:               "gl_TessCoord",
	BuiltInBoundingBoxOES:          "gl_BoundingBoxOES",
	BuiltInPixelLocalEXT:           "gl_PixelLocalEXT",
}

func (b BuiltIn) String() string {
	if int(b) < len(builtInNames) {
		return builtInNames[b]
	}
	return fmt.Sprintf("BuiltIn(%d)", b)
}

// ParseBuiltIn maps a gl_* name back to its tag. gl_Layer resolves to the output flavor.
func ParseBuiltIn(name string) (BuiltIn, bool) {
	for i, n := range builtInNames {
		if n != "" && n == name {
			return BuiltIn(i), true
		}
	}
	return BuiltInNone, false
}

// Variable is a declared variable. Type is always a pointer type.
type Variable struct {
	Name        Name
	Type        TypeID
	Precision   Precision
	Decorations Decorations
	BuiltIn     BuiltIn

	// Initializer is valid only if HasInitializer is set.
	Initializer    ConstantID
	HasInitializer bool

	Scope                VariableScope
	IsConst              bool
	IsStaticUse          bool
	IsDeadCodeEliminated bool
}

// ParamDirection is the qualifier of a function parameter.
type ParamDirection uint8

const (
	ParamIn ParamDirection = iota
	ParamOut
	ParamInOut
)

func (d ParamDirection) String() string {
	switch d {
	case ParamIn:
		return "in"
	case ParamOut:
		return "out"
	case ParamInOut:
		return "inout"
	default:
		return fmt.Sprintf("ParamDirection(%d)", d)
	}
}

// FunctionParam is a parameter of a function.
type FunctionParam struct {
	Variable  VariableID
	Direction ParamDirection
}

// Function is a declared function.
type Function struct {
	Name              Name
	Params            []FunctionParam
	ReturnType        TypeID
	ReturnPrecision   Precision
	ReturnDecorations Decorations
}

// NewFunction names main() exactly and every other function as a temporary.
func NewFunction(name string, params []FunctionParam, returnType TypeID, returnPrecision Precision, returnDecorations Decorations) Function {
	n := TempName(name)
	if name == "main" {
		n = ExactName(name)
	}
	return Function{
		Name:              n,
		Params:            params,
		ReturnType:        returnType,
		ReturnPrecision:   returnPrecision,
		ReturnDecorations: returnDecorations,
	}
}
