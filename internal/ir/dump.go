package ir

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	dumpSectionColor = color.New(color.FgCyan, color.Bold)
	dumpBlockColor   = color.New(color.FgYellow)
	dumpFuncColor    = color.New(color.FgGreen, color.Bold)
)

var shaderTypeTitles = [...]string{
	ShaderVertex:      "Vertex Shader",
	ShaderTessControl: "Tessellation Control Shader",
	ShaderTessEval:    "Tessellation Evaluation Shader",
	ShaderGeometry:    "Geometry Shader",
	ShaderFragment:    "Fragment Shader",
	ShaderCompute:     "Compute Shader",
}

// Dump writes a human readable listing of the IR: shader properties, types, constants,
// variables and the block tree of every function.
func Dump(w io.Writer, ir *IR) error {
	d := dumper{m: ir.Meta}
	d.sb.WriteString(dumpSectionColor.Sprint(shaderTypeTitles[ir.Meta.Shader.Type]))
	d.shaderProperties()
	d.types()
	d.constants()
	d.variables()
	d.functions(ir.Entries)
	d.sb.WriteByte('\n')
	_, err := io.WriteString(w, d.sb.String())
	return err
}

// DumpString is Dump into a string.
func DumpString(ir *IR) string {
	var sb strings.Builder
	_ = Dump(&sb, ir)
	return sb.String()
}

type dumper struct {
	m  *Meta
	sb strings.Builder
}

func (d *dumper) line(s string, indent int) {
	if s == "" {
		return
	}
	d.sb.WriteByte('\n')
	d.sb.WriteString(strings.Repeat("  ", min(indent, 2)))
	if indent > 2 {
		d.sb.WriteString(strings.Repeat("|   ", indent-2))
	}
	d.sb.WriteString(s)
}

func (d *dumper) section(title string) {
	d.sb.WriteString("\n\n")
	d.sb.WriteString(dumpSectionColor.Sprint(title))
}

func (d *dumper) shaderProperties() {
	s := &d.m.Shader
	switch s.Type {
	case ShaderFragment:
		if s.EarlyFragmentTests {
			d.line("[Early fragment tests]", 0)
		}
		d.line(blendEquationsString(s.AdvancedBlendEquations), 0)
	case ShaderTessControl:
		d.line(fmt.Sprintf("[Vertices: %d]", s.TCSVertices), 0)
	case ShaderTessEval:
		d.line(fmt.Sprintf("[Primitive: %s]", [...]string{"Undefined", "Triangles", "Quads", "Isolines"}[s.TESPrimitive]), 0)
		d.line(fmt.Sprintf("[Vertex Spacing: %s]", [...]string{"Undefined", "Equal", "Fractional Even", "Fractional Odd"}[s.TESVertexSpacing]), 0)
		d.line(fmt.Sprintf("[Ordering: %s]", [...]string{"Undefined", "CW", "CCW"}[s.TESOrdering]), 0)
		if s.TESPointMode {
			d.line("[Point Mode]", 0)
		}
	case ShaderGeometry:
		d.line(fmt.Sprintf("[Primitive In: %s]", geometryPrimitiveNames[s.GSPrimitiveIn]), 0)
		d.line(fmt.Sprintf("[Primitive Out: %s]", geometryPrimitiveNames[s.GSPrimitiveOut]), 0)
		d.line(fmt.Sprintf("[Invocations: %d]", s.GSInvocations), 0)
		d.line(fmt.Sprintf("[Max Vertices: %d]", s.GSMaxVertices), 0)
	}
}

var geometryPrimitiveNames = [...]string{
	"Undefined", "Points", "Lines", "Lines Adjacency", "Triangles", "Triangles Adjacency",
	"Line Strip", "Triangle Strip",
}

var blendEquationNames = [...]string{
	"Multiply", "Screen", "Overlay", "Darken", "Lighten", "Color Dodge", "Color Burn",
	"Hard Light", "Soft Light", "Difference", "Exclusion", "HSL Hue", "HSL Saturation",
	"HSL Color", "HSL Luminosity",
}

func blendEquationsString(e AdvancedBlendEquations) string {
	if e.All() {
		return "[Advanced Blend Equations: All]"
	}
	var names []string
	for i, n := range blendEquationNames {
		if e&(1<<i) != 0 {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return ""
	}
	return "[Advanced Blend Equations:\n    " + strings.Join(names, ",\n    ") + "]"
}

func typeRef(id TypeID) string { return fmt.Sprintf("t%d", id) }

func idString(t TypedID) string {
	if t.ID.Kind == IDConstant && t.Precision != PrecisionNone {
		return fmt.Sprintf("c%d[%s]", t.ID.Value, t.Precision)
	}
	return t.ID.String()
}

func idList(ids []TypedID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = idString(id)
	}
	return strings.Join(parts, ", ")
}

func indexList(indices []uint32) string {
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = fmt.Sprint(idx)
	}
	return strings.Join(parts, ", ")
}

func quotedName(n Name, tempPrefix string, id uint32) string {
	return "'" + n.Format(tempPrefix, id) + "'"
}

func imageTypeString(basic ImageBasicType, image ImageType) string {
	prefix := [...]string{"", "i", "u"}[basic]
	base := "image"
	if image.IsSampled {
		base = "sampler"
	}
	suffix := ""
	switch image.Dimension {
	case Dim2D:
		suffix = "2D"
	case Dim3D:
		suffix = "3D"
	case DimCube:
		suffix = "Cube"
	case DimRect:
		suffix = "Rect"
	case DimBuffer:
		suffix = "Buffer"
	case DimExternal:
		suffix = "ExternalOES"
	case DimExternalY2Y:
		suffix = "External2DY2YEXT"
	case DimVideo:
		suffix = "VideoWEBGL"
	case DimPixelLocal:
		base = "pixelLocalANGLE"
	case DimSubpass:
		base = "subpassInput"
	}
	if image.IsMS {
		suffix += "MS"
	}
	if image.IsArray {
		suffix += "Array"
	}
	if image.IsShadow {
		suffix += "Shadow"
	}
	return prefix + base + suffix
}

func decorationList(p Precision, decs Decorations) string {
	var parts []string
	if p != PrecisionNone {
		parts = append(parts, p.String())
	}
	for _, dec := range decs {
		parts = append(parts, dec.String())
	}
	return strings.Join(parts, ", ")
}

func withDecorations(s string, p Precision, decs Decorations) string {
	if list := decorationList(p, decs); list != "" {
		return s + " [" + list + "]"
	}
	return s
}

func (d *dumper) types() {
	d.section("Types:")
	for i := range d.m.types {
		t := &d.m.types[i]
		var s string
		switch t.Kind {
		case TypeKindScalar:
			s = t.Basic.String()
		case TypeKindVector:
			s = fmt.Sprintf("Vector of %s[%d]", typeRef(t.Elem), t.Count)
		case TypeKindMatrix:
			s = fmt.Sprintf("Matrix of %s[%d]", typeRef(t.Elem), t.Count)
		case TypeKindArray:
			s = fmt.Sprintf("Array of %s[%d]", typeRef(t.Elem), t.Count)
		case TypeKindUnsizedArray:
			s = "Unsized Array of " + typeRef(t.Elem)
		case TypeKindImage:
			s = imageTypeString(t.ImageBasic, t.Image)
		case TypeKindStruct:
			kind := "Struct"
			if t.Specialization == StructInterfaceBlock {
				kind = "Interface Block"
			}
			s = fmt.Sprintf("%s %s:", kind, quotedName(t.Name, TempStructPrefix, uint32(i)))
		case TypeKindPointer:
			s = "Pointer to " + typeRef(t.Elem)
		default:
			continue
		}
		d.line(fmt.Sprintf("t%d: %s", i, s), 1)
		for j := range t.Fields {
			f := &t.Fields[j]
			fs := fmt.Sprintf("%s: %s", quotedName(f.Name, TempStructFieldPrefix, uint32(j)), typeRef(f.Type))
			d.line(withDecorations(fs, f.Precision, f.Decorations), 2)
		}
	}
}

func (d *dumper) constants() {
	d.section("Constants:")
	for i := range d.m.constants {
		c := &d.m.constants[i]
		if c.IsDeadCodeEliminated {
			continue
		}
		d.line(fmt.Sprintf("c%d (%s): %s", i, typeRef(c.Type), c.String()), 1)
	}
}

func (d *dumper) variables() {
	d.section("Variables:")
	for i := range d.m.variables {
		v := &d.m.variables[i]
		if v.IsDeadCodeEliminated {
			continue
		}
		id := VariableID(i)
		init := ""
		switch {
		case v.HasInitializer:
			init = fmt.Sprintf("=c%d", v.Initializer)
		case d.m.NeedsZeroInit(id):
			init = "=TO_BE_ZERO_INIT"
		}
		builtIn := ""
		if v.BuiltIn != BuiltInNone {
			builtIn = " <" + v.BuiltIn.String() + ">"
		}
		s := fmt.Sprintf("v%d (%s): %s%s%s", i, typeRef(v.Type), quotedName(v.Name, TempVariablePrefix, uint32(i)), init, builtIn)
		d.line(withDecorations(s, v.Precision, v.Decorations), 1)
	}

	globals := make([]string, len(d.m.globalVariables))
	for i, id := range d.m.globalVariables {
		globals[i] = fmt.Sprintf("v%d", id)
	}
	d.sb.WriteString("\n\n")
	d.sb.WriteString(dumpSectionColor.Sprint("Globals:"))
	d.sb.WriteString(" " + strings.Join(globals, ", "))
}

func (d *dumper) functions(entries []*Block) {
	d.section("Functions:")
	for i, entry := range entries {
		if entry == nil {
			continue
		}
		id := FunctionID(i)
		d.sb.WriteByte('\n')
		d.line(dumpFuncColor.Sprint(d.prototype(id)), 1)
		d.block(entry, "Entry To Function:", false, 2)
	}
}

func (d *dumper) prototype(id FunctionID) string {
	f := d.m.Function(id)
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = fmt.Sprintf("%s v%d", p.Direction, p.Variable)
	}
	ret := withDecorations(typeRef(f.ReturnType), f.ReturnPrecision, f.ReturnDecorations)
	return fmt.Sprintf("f%d: %s(%s) -> %s", id, quotedName(f.Name, TempFunctionPrefix, uint32(id)), strings.Join(params, ", "), ret)
}

func (d *dumper) block(b *Block, kind string, isMerge bool, indent int) {
	header := strings.Repeat("_", len(kind))
	switch {
	case isMerge:
		d.line("|", indent)
		d.line("V"+header[:len(header)-1], indent)
	case indent > 2:
		d.line("|", indent-1)
		d.line("+-> "+header, indent-1)
	default:
		d.sb.WriteByte('\n')
		d.line(header, indent)
	}
	d.line(dumpBlockColor.Sprint(kind), indent)

	if b.Input != nil {
		d.line(withDecorations(fmt.Sprintf("Input: r%d (%s)", b.Input.ID, typeRef(b.Input.Type)), b.Input.Precision, nil), indent)
	}
	if len(b.Variables) > 0 {
		vars := make([]string, len(b.Variables))
		for i, id := range b.Variables {
			vars[i] = fmt.Sprintf("v%d", id)
		}
		d.line("Declare: "+strings.Join(vars, ", "), indent)
	}
	for i := range b.Instrs {
		d.instruction(&b.Instrs[i], indent)
	}

	if len(b.Instrs) > 0 && b.IsTerminated() {
		term := b.TerminatingOp()
		sub := indent + 1
		if b.LoopCondition != nil {
			d.block(b.LoopCondition, "Loop Condition:", false, sub)
		}
		if b.Block1 != nil {
			kind := "Loop Body:"
			if term.Kind == OpIf {
				kind = "If True Block:"
			}
			d.block(b.Block1, kind, false, sub)
		}
		if b.Block2 != nil {
			kind := "Loop Continue Block:"
			if term.Kind == OpIf {
				kind = "If False Block:"
			}
			d.block(b.Block2, kind, false, sub)
		}
		if term.Kind == OpSwitch {
			for i, c := range b.Cases {
				kind := "Default Case:"
				if i < len(term.Cases) && !term.Cases[i].IsDefault {
					kind = fmt.Sprintf("Case c%d:", term.Cases[i].Value)
				}
				d.block(c, kind, false, sub)
			}
		}
	}
	if b.Merge != nil {
		d.block(b.Merge, "Merge Block:", true, indent)
	}
}

func (d *dumper) instruction(bi *BlockInstr, indent int) {
	op, result := bi.Resolve(d.m)
	prefix, decs := "", ""
	if result != nil {
		prefix = fmt.Sprintf("r%d %6s = ", result.ID, "("+typeRef(result.Type)+")")
		decs = decorationList(result.Precision, nil)
	}
	s := fmt.Sprintf("%-15s%s", prefix, OpString(op))
	if decs != "" {
		s = fmt.Sprintf("%-60s [%s]", s, decs)
	}
	d.line(s, indent)
}

var binaryDumpNames = map[BinaryOp]string{
	BinaryAtan:                "Atan[binary]",
	BinaryLessThanVec:         "LessThan[built-in]",
	BinaryLessThanEqualVec:    "LessThanEqual[built-in]",
	BinaryGreaterThanVec:      "GreaterThan[built-in]",
	BinaryGreaterThanEqualVec: "GreaterThanEqual[built-in]",
	BinaryEqualVec:            "Equal[built-in]",
	BinaryNotEqualVec:         "NotEqual[built-in]",
}

// OpString renders an op the way it appears in the dump.
func OpString(op *Op) string {
	operand := func(i int) string { return idString(op.Operands[i]) }
	switch op.Kind {
	case OpCall:
		return fmt.Sprintf("Call f%d With (%s)", op.Function, idList(op.Operands))
	case OpReturn, OpMerge:
		if len(op.Operands) > 0 {
			return op.Kind.String() + " " + operand(0)
		}
		return op.Kind.String()
	case OpIf, OpLoopIf, OpSwitch, OpLoad, OpAlias, OpConstructScalarFromScalar,
		OpConstructVectorFromScalar, OpConstructMatrixFromScalar, OpConstructMatrixFromMatrix:
		return op.Kind.String() + " " + operand(0)
	case OpExtractVectorComponent, OpExtractStructField, OpAccessVectorComponent, OpAccessStructField:
		return fmt.Sprintf("%s %s %d", op.Kind, operand(0), op.Indices[0])
	case OpExtractVectorComponentMulti, OpAccessVectorComponentMulti:
		return fmt.Sprintf("%s %s (%s)", op.Kind, operand(0), indexList(op.Indices))
	case OpExtractVectorComponentDynamic, OpExtractMatrixColumn, OpExtractArrayElement,
		OpAccessVectorComponentDynamic, OpAccessMatrixColumn, OpAccessArrayElement, OpStore:
		return fmt.Sprintf("%s %s %s", op.Kind, operand(0), operand(1))
	case OpConstructVectorFromMultiple, OpConstructMatrixFromMultiple, OpConstructStruct, OpConstructArray:
		return fmt.Sprintf("%s (%s)", op.Kind, idList(op.Operands))
	case OpUnary:
		return fmt.Sprintf("%s %s", op.Unary, operand(0))
	case OpBinary:
		name, ok := binaryDumpNames[op.Binary]
		if !ok {
			name = op.Binary.String()
		}
		return fmt.Sprintf("%s %s %s", name, operand(0), operand(1))
	case OpBuiltIn:
		return fmt.Sprintf("%s (%s)", op.BuiltIn, idList(op.Operands))
	case OpTexture:
		return fmt.Sprintf("Texture%s sampler:%s coord:%s %s", op.Texture.Kind, operand(0), operand(1), textureParams(&op.Texture))
	default:
		return op.Kind.String()
	}
}

func textureParams(t *TextureOp) string {
	offset := ""
	if t.HasOffset {
		offset = " offset:" + idString(t.Offset)
	}
	switch t.Kind {
	case TextureImplicit:
		return fmt.Sprintf("is_proj:%t%s", t.IsProj, offset)
	case TextureCompare:
		return "compare:" + idString(t.Compare)
	case TextureLod:
		return fmt.Sprintf("is_proj:%t lod:%s%s", t.IsProj, idString(t.Lod), offset)
	case TextureCompareLod:
		return fmt.Sprintf("compare:%s lod:%s", idString(t.Compare), idString(t.Lod))
	case TextureBias:
		return fmt.Sprintf("is_proj:%t bias:%s%s", t.IsProj, idString(t.Bias), offset)
	case TextureCompareBias:
		return fmt.Sprintf("compare:%s bias:%s", idString(t.Compare), idString(t.Bias))
	case TextureGrad:
		return fmt.Sprintf("is_proj:%t dx:%s dy:%s%s", t.IsProj, idString(t.Dx), idString(t.Dy), offset)
	case TextureGather:
		return offset
	case TextureGatherComponent:
		return "component:" + idString(t.Component) + offset
	default:
		return "refz:" + idString(t.RefZ) + offset
	}
}
