package script

import (
	"context"
	"errors"
	"fmt"

	"fortio.org/safecast"

	"github.com/google/angle-sub000/internal/builder"
	"github.com/google/angle-sub000/internal/ir"
	"github.com/google/angle-sub000/internal/trace"
)

// CallError reports the call a build stopped at. Index is -1 when the error is not tied to a
// call, such as a failure while finishing the IR.
type CallError struct {
	Index int
	Op    string
	Err   error
}

func (e *CallError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("call %d (%s): %v", e.Index, e.Op, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

var ErrUnknownOp = errors.New("unknown op")

// Build replays s into a new builder and returns the finished IR. The tracer is taken from ctx.
//
// A builder call that panics does not escape: the builder is reset with Fail and the panic is
// returned as a *CallError.
func Build(ctx context.Context, s *Script) (*ir.IR, error) {
	stage, err := ir.ParseShaderType(s.Shader.Stage)
	if err != nil {
		return nil, err
	}
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeScript, "build", trace.Parent(ctx))
	defer span.End("")

	b := builder.New(stage, s.Options.Builder())
	b.SetTracer(tracer)
	if err := replay(ctx, b, s); err != nil {
		span.WithExtra("error", err.Error())
		return nil, err
	}
	return b.TakeIR(), nil
}

type replayer struct {
	b     *builder.Builder
	types *typeTable
	vars  map[string]ir.VariableID
	funcs map[string]ir.FunctionID
}

func replay(ctx context.Context, b *builder.Builder, s *Script) (err error) {
	r := &replayer{
		b:     b,
		types: newTypeTable(b.IR().Meta),
		vars:  make(map[string]ir.VariableID),
		funcs: make(map[string]ir.FunctionID),
	}

	index, op := -1, "shader"
	defer func() {
		if p := recover(); p != nil {
			err = &CallError{Index: index, Op: op, Err: panicError(p)}
		}
		if err != nil {
			b.Fail()
		}
	}()

	if err := r.applyShader(&s.Shader); err != nil {
		return &CallError{Index: index, Op: op, Err: err}
	}
	op = "struct"
	for _, st := range s.Structs {
		if err := r.types.declareStruct(st); err != nil {
			return &CallError{Index: index, Op: op, Err: err}
		}
	}
	for i := range s.Calls {
		if err := ctx.Err(); err != nil {
			return err
		}
		c := &s.Calls[i]
		index, op = i, c.Op
		handler, ok := handlers[c.Op]
		if !ok {
			return &CallError{Index: index, Op: op, Err: ErrUnknownOp}
		}
		if err := handler(r, c); err != nil {
			return &CallError{Index: index, Op: op, Err: err}
		}
	}
	index, op = -1, "finish"
	b.Finish()
	return nil
}

func panicError(p any) error {
	if err, ok := p.(error); ok {
		return err
	}
	return fmt.Errorf("%v", p)
}

func (r *replayer) applyShader(sh *Shader) error {
	b := r.b
	if sh.EarlyFragmentTests {
		b.SetEarlyFragmentTests(true)
	}
	if len(sh.AdvancedBlendEquations) > 0 {
		equations, err := parseBlendEquations(sh.AdvancedBlendEquations)
		if err != nil {
			return err
		}
		b.SetAdvancedBlendEquations(equations)
	}
	if sh.TCSVertices != 0 {
		b.SetTCSVertices(sh.TCSVertices)
	}
	if sh.TESPrimitive != "" {
		v, err := lookup(tessPrimitives, sh.TESPrimitive, "tessellation primitive")
		if err != nil {
			return err
		}
		b.SetTESPrimitive(v)
	}
	if sh.TESVertexSpacing != "" {
		v, err := lookup(tessSpacings, sh.TESVertexSpacing, "tessellation spacing")
		if err != nil {
			return err
		}
		b.SetTESVertexSpacing(v)
	}
	if sh.TESOrdering != "" {
		v, err := lookup(tessOrderings, sh.TESOrdering, "tessellation ordering")
		if err != nil {
			return err
		}
		b.SetTESOrdering(v)
	}
	if sh.TESPointMode {
		b.SetTESPointMode(true)
	}
	if sh.GSPrimitiveIn != "" {
		v, err := lookup(geometryPrimitives, sh.GSPrimitiveIn, "geometry primitive")
		if err != nil {
			return err
		}
		b.SetGSPrimitiveIn(v)
	}
	if sh.GSPrimitiveOut != "" {
		v, err := lookup(geometryPrimitives, sh.GSPrimitiveOut, "geometry primitive")
		if err != nil {
			return err
		}
		b.SetGSPrimitiveOut(v)
	}
	if sh.GSInvocations != 0 {
		b.SetGSInvocations(sh.GSInvocations)
	}
	if sh.GSMaxVertices != 0 {
		b.SetGSMaxVertices(sh.GSMaxVertices)
	}
	if sh.PerVertexInIsRedeclared {
		b.SetPerVertexInIsRedeclared()
	}
	if sh.PerVertexOutIsRedeclared {
		b.SetPerVertexOutIsRedeclared()
	}
	return nil
}

func (r *replayer) variable(name string) (ir.VariableID, error) {
	id, ok := r.vars[name]
	if !ok {
		return 0, fmt.Errorf("undeclared variable %q", name)
	}
	return id, nil
}

func (r *replayer) function(name string) (ir.FunctionID, error) {
	id, ok := r.funcs[name]
	if !ok {
		return 0, fmt.Errorf("undeclared function %q", name)
	}
	return id, nil
}

// bind makes a declared variable available to later calls under c.As, or c.Name without one.
func (r *replayer) bind(c *Call, id ir.VariableID) {
	name := c.As
	if name == "" {
		name = c.Name
	}
	if name != "" {
		r.vars[name] = id
	}
}

// typed resolves the type, precision and decorations fields shared by the declarations.
func (r *replayer) typed(typeName, precisionName string, decorationNames []string) (ir.TypeID, ir.Precision, ir.Decorations, error) {
	typeID, err := r.types.parse(typeName)
	if err != nil {
		return 0, 0, nil, err
	}
	precision, err := ir.ParsePrecision(precisionName)
	if err != nil {
		return 0, 0, nil, err
	}
	decorations, err := parseDecorations(decorationNames)
	if err != nil {
		return 0, 0, nil, err
	}
	return typeID, precision, decorations, nil
}

func parseDirection(s string) (ir.ParamDirection, error) {
	switch s {
	case "", "in":
		return ir.ParamIn, nil
	case "out":
		return ir.ParamOut, nil
	case "inout":
		return ir.ParamInOut, nil
	default:
		return 0, fmt.Errorf("unknown parameter direction %q", s)
	}
}

// Constant values arrive as int64/float64 from TOML and as any width from msgpack.

func integerValue(v any) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		return safecast.Conv[int64](x)
	case nil:
		return 0, errors.New("missing value")
	default:
		return 0, fmt.Errorf("value %v is not an integer", v)
	}
}

func floatValue(v any) (float32, error) {
	switch x := v.(type) {
	case float32:
		return x, nil
	case float64:
		return float32(x), nil
	default:
		n, err := integerValue(v)
		if err != nil {
			return 0, fmt.Errorf("value %v is not a number", v)
		}
		return float32(n), nil
	}
}

func boolValue(v any) (bool, error) {
	if x, ok := v.(bool); ok {
		return x, nil
	}
	return false, fmt.Errorf("value %v is not a bool", v)
}

func yuvValue(v any) (ir.YuvCscStandard, error) {
	if s, ok := v.(string); ok {
		return lookup(yuvStandards, s, "yuvCscStandardEXT value")
	}
	n, err := integerValue(v)
	if err != nil {
		return 0, err
	}
	u, err := safecast.Conv[uint8](n)
	if err != nil || ir.YuvCscStandard(u) > ir.YuvItu709 {
		return 0, fmt.Errorf("invalid yuvCscStandardEXT value %d", n)
	}
	return ir.YuvCscStandard(u), nil
}

func lookup[T any](table map[string]T, name, what string) (T, error) {
	v, ok := table[name]
	if !ok {
		var zero T
		return zero, fmt.Errorf("unknown %s %q", what, name)
	}
	return v, nil
}

var yuvStandards = map[string]ir.YuvCscStandard{
	"itu_601":            ir.YuvItu601,
	"itu_601_full_range": ir.YuvItu601FullRange,
	"itu_709":            ir.YuvItu709,
}

var tessPrimitives = map[string]ir.TessellationPrimitive{
	"triangles": ir.TessTriangles,
	"quads":     ir.TessQuads,
	"isolines":  ir.TessIsolines,
}

var tessSpacings = map[string]ir.TessellationSpacing{
	"equal_spacing":           ir.TessEqualSpacing,
	"fractional_even_spacing": ir.TessFractionalEvenSpacing,
	"fractional_odd_spacing":  ir.TessFractionalOddSpacing,
}

var tessOrderings = map[string]ir.TessellationOrdering{
	"cw":  ir.TessCw,
	"ccw": ir.TessCcw,
}

var geometryPrimitives = map[string]ir.GeometryPrimitive{
	"points":              ir.GeometryPoints,
	"lines":               ir.GeometryLines,
	"lines_adjacency":     ir.GeometryLinesAdjacency,
	"triangles":           ir.GeometryTriangles,
	"triangles_adjacency": ir.GeometryTrianglesAdjacency,
	"line_strip":          ir.GeometryLineStrip,
	"triangle_strip":      ir.GeometryTriangleStrip,
}

// blendEquations uses the layout qualifier names without their blend_support_ prefix.
var blendEquations = map[string]ir.AdvancedBlendEquations{
	"multiply":       ir.BlendMultiply,
	"screen":         ir.BlendScreen,
	"overlay":        ir.BlendOverlay,
	"darken":         ir.BlendDarken,
	"lighten":        ir.BlendLighten,
	"colordodge":     ir.BlendColorDodge,
	"colorburn":      ir.BlendColorBurn,
	"hardlight":      ir.BlendHardLight,
	"softlight":      ir.BlendSoftLight,
	"difference":     ir.BlendDifference,
	"exclusion":      ir.BlendExclusion,
	"hsl_hue":        ir.BlendHslHue,
	"hsl_saturation": ir.BlendHslSaturation,
	"hsl_color":      ir.BlendHslColor,
	"hsl_luminosity": ir.BlendHslLuminosity,
	"all_equations":  ir.BlendAll,
}

func parseBlendEquations(names []string) (ir.AdvancedBlendEquations, error) {
	var equations ir.AdvancedBlendEquations
	for _, name := range names {
		e, err := lookup(blendEquations, name, "blend equation")
		if err != nil {
			return 0, err
		}
		equations |= e
	}
	return equations, nil
}

func parseArgCount(c *Call) (int, error) {
	if c.Count < 0 {
		return 0, fmt.Errorf("negative argument count %d", c.Count)
	}
	return c.Count, nil
}
