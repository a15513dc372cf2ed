package script

import (
	"fmt"
	"sort"
	"strings"

	"fortio.org/safecast"

	"github.com/google/angle-sub000/internal/builder"
	"github.com/google/angle-sub000/internal/ir"
)

type handler func(r *replayer, c *Call) error

// handlers maps the op of a call to the builder call it replays.
var handlers = map[string]handler{
	"declare_builtin":   declareBuiltIn,
	"declare_interface": declareInterface,
	"declare_temp":      declareTemp,
	"declare_const":     declareConst,
	"mark_invariant":    withVariable((*builder.Builder).MarkVariableInvariant),
	"mark_precise":      withVariable((*builder.Builder).MarkVariablePrecise),
	"initialize":        withVariable((*builder.Builder).Initialize),
	"push_var":          withVariable((*builder.Builder).PushVariable),

	"function":           declareFunction,
	"update_param_names": updateParamNames,
	"begin_function":     withFunction((*builder.Builder).BeginFunction),
	"end_function":       simple((*builder.Builder).EndFunction),
	"call":               withFunction((*builder.Builder).CallFunction),

	"push_float":          pushFloat,
	"push_int":            pushInt,
	"push_uint":           pushUint,
	"push_bool":           pushBool,
	"push_yuv":            pushYuv,
	"pop_array_size":      popArraySize,
	"store":               simple((*builder.Builder).Store),
	"end_statement":       simple((*builder.Builder).EndStatementWithValue),
	"component":           component,
	"swizzle":             swizzle,
	"index":               simple((*builder.Builder).Index),
	"field":               field,
	"construct":           construct,
	"length":              simple((*builder.Builder).ArrayLength),
	"clip_distance_sized": clipCullSized((*builder.Builder).OnClipDistanceSized),
	"cull_distance_sized": clipCullSized((*builder.Builder).OnCullDistanceSized),

	"begin_if":             simple((*builder.Builder).BeginIfTrueBlock),
	"end_if_true":          simple((*builder.Builder).EndIfTrueBlock),
	"begin_else":           simple((*builder.Builder).BeginIfFalseBlock),
	"end_else":             simple((*builder.Builder).EndIfFalseBlock),
	"end_if":               simple((*builder.Builder).EndIf),
	"begin_ternary_true":   simple((*builder.Builder).BeginTernaryTrueExpression),
	"end_ternary_true":     endTernaryTrue,
	"begin_ternary_false":  simple((*builder.Builder).BeginTernaryFalseExpression),
	"end_ternary_false":    endTernaryFalse,
	"end_ternary":          endTernary,
	"begin_or":             simple((*builder.Builder).BeginShortCircuitOr),
	"end_or":               simple((*builder.Builder).EndShortCircuitOr),
	"begin_and":            simple((*builder.Builder).BeginShortCircuitAnd),
	"end_and":              simple((*builder.Builder).EndShortCircuitAnd),
	"begin_loop_condition": simple((*builder.Builder).BeginLoopCondition),
	"end_loop_condition":   simple((*builder.Builder).EndLoopCondition),
	"end_loop_continue":    simple((*builder.Builder).EndLoopContinue),
	"end_loop":             simple((*builder.Builder).EndLoop),
	"begin_do":             simple((*builder.Builder).BeginDoLoop),
	"begin_do_condition":   simple((*builder.Builder).BeginDoLoopCondition),
	"end_do":               simple((*builder.Builder).EndDoLoop),
	"begin_switch":         simple((*builder.Builder).BeginSwitch),
	"case":                 simple((*builder.Builder).BeginCase),
	"default":              simple((*builder.Builder).BeginDefault),
	"end_switch":           simple((*builder.Builder).EndSwitch),
	"discard":              simple((*builder.Builder).BranchDiscard),
	"return":               simple((*builder.Builder).BranchReturn),
	"return_value":         simple((*builder.Builder).BranchReturnValue),
	"break":                simple((*builder.Builder).BranchBreak),
	"continue":             simple((*builder.Builder).BranchContinue),

	"negate":                     simple((*builder.Builder).Negate),
	"logical_not":                simple((*builder.Builder).LogicalNot),
	"bitwise_not":                simple((*builder.Builder).BitwiseNot),
	"postfix_increment":          simple((*builder.Builder).PostfixIncrement),
	"postfix_decrement":          simple((*builder.Builder).PostfixDecrement),
	"prefix_increment":           simple((*builder.Builder).PrefixIncrement),
	"prefix_decrement":           simple((*builder.Builder).PrefixDecrement),
	"add":                        simple((*builder.Builder).Add),
	"add_assign":                 simple((*builder.Builder).AddAssign),
	"sub":                        simple((*builder.Builder).Sub),
	"sub_assign":                 simple((*builder.Builder).SubAssign),
	"mul":                        simple((*builder.Builder).Mul),
	"mul_assign":                 simple((*builder.Builder).MulAssign),
	"div":                        simple((*builder.Builder).Div),
	"div_assign":                 simple((*builder.Builder).DivAssign),
	"imod":                       simple((*builder.Builder).IMod),
	"imod_assign":                simple((*builder.Builder).IModAssign),
	"vector_times_scalar":        simple((*builder.Builder).VectorTimesScalar),
	"vector_times_scalar_assign": simple((*builder.Builder).VectorTimesScalarAssign),
	"matrix_times_scalar":        simple((*builder.Builder).MatrixTimesScalar),
	"matrix_times_scalar_assign": simple((*builder.Builder).MatrixTimesScalarAssign),
	"vector_times_matrix":        simple((*builder.Builder).VectorTimesMatrix),
	"vector_times_matrix_assign": simple((*builder.Builder).VectorTimesMatrixAssign),
	"matrix_times_vector":        simple((*builder.Builder).MatrixTimesVector),
	"matrix_times_matrix":        simple((*builder.Builder).MatrixTimesMatrix),
	"matrix_times_matrix_assign": simple((*builder.Builder).MatrixTimesMatrixAssign),
	"logical_xor":                simple((*builder.Builder).LogicalXor),
	"equal":                      simple((*builder.Builder).Equal),
	"not_equal":                  simple((*builder.Builder).NotEqual),
	"less_than":                  simple((*builder.Builder).LessThan),
	"greater_than":               simple((*builder.Builder).GreaterThan),
	"less_than_equal":            simple((*builder.Builder).LessThanEqual),
	"greater_than_equal":         simple((*builder.Builder).GreaterThanEqual),
	"bit_shift_left":             simple((*builder.Builder).BitShiftLeft),
	"bit_shift_left_assign":      simple((*builder.Builder).BitShiftLeftAssign),
	"bit_shift_right":            simple((*builder.Builder).BitShiftRight),
	"bit_shift_right_assign":     simple((*builder.Builder).BitShiftRightAssign),
	"bitwise_or":                 simple((*builder.Builder).BitwiseOr),
	"bitwise_or_assign":          simple((*builder.Builder).BitwiseOrAssign),
	"bitwise_xor":                simple((*builder.Builder).BitwiseXor),
	"bitwise_xor_assign":         simple((*builder.Builder).BitwiseXorAssign),
	"bitwise_and":                simple((*builder.Builder).BitwiseAnd),
	"bitwise_and_assign":         simple((*builder.Builder).BitwiseAndAssign),
	"unary":                      builtInUnary,
	"binary":                     builtInBinary,
	"builtin":                    builtIn,
	"texture":                    texture,
}

// Ops lists the known ops, sorted.
func Ops() []string {
	ops := make([]string, 0, len(handlers))
	for op := range handlers {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

func simple(f func(*builder.Builder)) handler {
	return func(r *replayer, _ *Call) error {
		f(r.b)
		return nil
	}
}

// The ternary ends leave a value unless the ternary has type void.

func endTernaryTrue(r *replayer, c *Call) error {
	if c.Void {
		r.b.EndTernaryTrueExpressionVoid()
	} else {
		r.b.EndTernaryTrueExpression()
	}
	return nil
}

func endTernaryFalse(r *replayer, c *Call) error {
	if c.Void {
		r.b.EndTernaryFalseExpressionVoid()
	} else {
		r.b.EndTernaryFalseExpression()
	}
	return nil
}

func endTernary(r *replayer, c *Call) error {
	if c.Void {
		r.b.EndTernaryVoid()
	} else {
		r.b.EndTernary()
	}
	return nil
}

func withVariable(f func(*builder.Builder, ir.VariableID)) handler {
	return func(r *replayer, c *Call) error {
		id, err := r.variable(c.Var)
		if err != nil {
			return err
		}
		f(r.b, id)
		return nil
	}
}

func withFunction(f func(*builder.Builder, ir.FunctionID)) handler {
	return func(r *replayer, c *Call) error {
		id, err := r.function(c.Func)
		if err != nil {
			return err
		}
		f(r.b, id)
		return nil
	}
}

func clipCullSized(f func(*builder.Builder, ir.VariableID, uint32)) handler {
	return func(r *replayer, c *Call) error {
		id, err := r.variable(c.Var)
		if err != nil {
			return err
		}
		f(r.b, id, c.Length)
		return nil
	}
}

func declareBuiltIn(r *replayer, c *Call) error {
	builtIn, ok := ir.ParseBuiltIn(c.Name)
	if !ok {
		return fmt.Errorf("unknown built-in variable %q", c.Name)
	}
	typeID, precision, decorations, err := r.typed(c.Type, c.Precision, c.Decorations)
	if err != nil {
		return err
	}
	r.bind(c, r.b.DeclareBuiltInVariable(builtIn, typeID, precision, decorations))
	return nil
}

func declareInterface(r *replayer, c *Call) error {
	typeID, precision, decorations, err := r.typed(c.Type, c.Precision, c.Decorations)
	if err != nil {
		return err
	}
	r.bind(c, r.b.DeclareInterfaceVariable(c.Name, typeID, precision, decorations))
	return nil
}

func declareTemp(r *replayer, c *Call) error {
	typeID, precision, decorations, err := r.typed(c.Type, c.Precision, c.Decorations)
	if err != nil {
		return err
	}
	r.bind(c, r.b.DeclareTempVariable(c.Name, typeID, precision, decorations))
	return nil
}

// declareConst binds the nameless const variable under As or Name.
func declareConst(r *replayer, c *Call) error {
	typeID, precision, _, err := r.typed(c.Type, c.Precision, nil)
	if err != nil {
		return err
	}
	r.bind(c, r.b.DeclareConstVariable(typeID, precision))
	return nil
}

// declareFunction declares the parameters and then the function itself.
func declareFunction(r *replayer, c *Call) error {
	params := make([]ir.FunctionParam, 0, len(c.Params))
	for _, p := range c.Params {
		typeID, precision, decorations, err := r.typed(p.Type, p.Precision, p.Decorations)
		if err != nil {
			return fmt.Errorf("parameter %q: %w", p.Name, err)
		}
		direction, err := parseDirection(p.Direction)
		if err != nil {
			return fmt.Errorf("parameter %q: %w", p.Name, err)
		}
		id := r.b.DeclareFunctionParam(p.Name, typeID, precision, decorations, direction)
		params = append(params, ir.FunctionParam{Variable: id, Direction: direction})
		if p.Name != "" {
			r.vars[p.Name] = id
		}
	}

	returnType := c.Type
	if returnType == "" {
		returnType = "void"
	}
	typeID, precision, decorations, err := r.typed(returnType, c.Precision, c.Decorations)
	if err != nil {
		return err
	}
	if _, dup := r.funcs[c.Name]; dup {
		return fmt.Errorf("function %q declared twice", c.Name)
	}
	r.funcs[c.Name] = r.b.NewFunction(c.Name, params, typeID, precision, decorations)
	return nil
}

// updateParamNames renames the parameters of a prototyped function for its definition.
func updateParamNames(r *replayer, c *Call) error {
	id, err := r.function(c.Func)
	if err != nil {
		return err
	}
	vars := r.b.UpdateFunctionParamNames(id, c.Names)
	for i, v := range vars {
		r.vars[c.Names[i]] = v
	}
	return nil
}

func pushFloat(r *replayer, c *Call) error {
	v, err := floatValue(c.Value)
	if err != nil {
		return err
	}
	r.b.PushConstantFloat(v)
	return nil
}

func pushInt(r *replayer, c *Call) error {
	n, err := integerValue(c.Value)
	if err != nil {
		return err
	}
	v, err := safecast.Conv[int32](n)
	if err != nil {
		return fmt.Errorf("int constant: %w", err)
	}
	r.b.PushConstantInt(v)
	return nil
}

func pushUint(r *replayer, c *Call) error {
	n, err := integerValue(c.Value)
	if err != nil {
		return err
	}
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		return fmt.Errorf("uint constant: %w", err)
	}
	r.b.PushConstantUint(v)
	return nil
}

func pushBool(r *replayer, c *Call) error {
	v, err := boolValue(c.Value)
	if err != nil {
		return err
	}
	r.b.PushConstantBool(v)
	return nil
}

func pushYuv(r *replayer, c *Call) error {
	v, err := yuvValue(c.Value)
	if err != nil {
		return err
	}
	r.b.PushConstantYuvCscStandard(v)
	return nil
}

// popArraySize consumes the constant size expression of an array declaration.
func popArraySize(r *replayer, _ *Call) error {
	r.b.PopArraySize()
	return nil
}

func component(r *replayer, c *Call) error {
	r.b.VectorComponent(c.Index)
	return nil
}

func swizzle(r *replayer, c *Call) error {
	if len(c.Components) == 0 {
		return fmt.Errorf("swizzle without components")
	}
	r.b.VectorComponentMulti(c.Components)
	return nil
}

func field(r *replayer, c *Call) error {
	r.b.StructField(c.Index)
	return nil
}

func construct(r *replayer, c *Call) error {
	typeID, err := r.types.parse(c.Type)
	if err != nil {
		return err
	}
	count, err := parseArgCount(c)
	if err != nil {
		return err
	}
	r.b.Construct(typeID, count)
	return nil
}

var (
	unaryOps   = opNames[ir.UnaryOp]()
	binaryOps  = opNames[ir.BinaryOp]()
	builtInOps = opNames[ir.BuiltInOp]()
)

// opNames indexes an op enum by the lower-cased names its String method produces.
func opNames[T interface {
	~uint8
	fmt.Stringer
}]() map[string]T {
	names := make(map[string]T)
	for op := T(0); ; op++ {
		name := op.String()
		if strings.HasSuffix(name, ")") {
			break
		}
		names[strings.ToLower(name)] = op
		if op == T(255) {
			break
		}
	}
	return names
}

func builtInUnary(r *replayer, c *Call) error {
	op, err := lookup(unaryOps, strings.ToLower(c.Fn), "unary built-in")
	if err != nil {
		return err
	}
	r.b.BuiltInUnary(op)
	return nil
}

func builtInBinary(r *replayer, c *Call) error {
	op, err := lookup(binaryOps, strings.ToLower(c.Fn), "binary built-in")
	if err != nil {
		return err
	}
	r.b.BuiltInBinary(op)
	return nil
}

// builtIn takes the argument count from the call, or from the signature when it is fixed.
func builtIn(r *replayer, c *Call) error {
	op, err := lookup(builtInOps, strings.ToLower(c.Fn), "built-in")
	if err != nil {
		return err
	}
	count, err := parseArgCount(c)
	if err != nil {
		return err
	}
	if fixed, ok := builder.BuiltInArgCount(op); ok && count == 0 {
		count = fixed
	}
	r.b.BuiltIn(op, count)
	return nil
}

var textureKinds = map[string]ir.TextureKind{
	"":                 ir.TextureImplicit,
	"implicit":         ir.TextureImplicit,
	"compare":          ir.TextureCompare,
	"lod":              ir.TextureLod,
	"compare_lod":      ir.TextureCompareLod,
	"bias":             ir.TextureBias,
	"compare_bias":     ir.TextureCompareBias,
	"grad":             ir.TextureGrad,
	"gather":           ir.TextureGather,
	"gather_component": ir.TextureGatherComponent,
	"gather_ref":       ir.TextureGatherRef,
}

func texture(r *replayer, c *Call) error {
	kind, err := lookup(textureKinds, c.Kind, "texture variant")
	if err != nil {
		return err
	}
	r.b.Texture(kind, c.Proj, c.Offset)
	return nil
}
