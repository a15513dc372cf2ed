package builder

import (
	"fmt"

	"fortio.org/safecast"

	"github.com/google/angle-sub000/internal/instruction"
	"github.com/google/angle-sub000/internal/ir"
)

// Store writes the value on top of the stack through the pointer under it. The pointer stays on
// the stack as the value of the assignment expression.
func (b *Builder) Store() {
	value := b.load()
	pointer := *b.top()
	b.addInstruction(instruction.Store(pointer, value))
}

// Initialize assigns the value on top of the stack to a variable being declared. A constant
// value becomes the variable's initializer where the declaration may carry one; anything else
// is stored by code.
func (b *Builder) Initialize(id ir.VariableID) {
	value := b.load()

	allowed := b.options.InitializerAllowedOnNonConstGlobalVariables ||
		b.inFunction ||
		b.meta().Variable(id).IsConst

	if c, ok := value.ID.Constant(); ok && allowed {
		b.meta().SetVariableInitializer(id, c)
		return
	}
	b.meta().OnVariableInitialized(id)
	b.scope().AddVoid(ir.StoreOp(ir.FromVariable(b.meta(), id), value))
}

func (b *Builder) pushConstant(c ir.ConstantID, typeID ir.TypeID) {
	b.push(ir.FromConstant(c, typeID))
}

func (b *Builder) PushConstantFloat(v float32) {
	b.pushConstant(b.meta().ConstantFloat(v), ir.TypeFloat)
}

func (b *Builder) PushConstantInt(v int32) {
	b.pushConstant(b.meta().ConstantInt(v), ir.TypeInt)
}

func (b *Builder) PushConstantUint(v uint32) {
	b.pushConstant(b.meta().ConstantUint(v), ir.TypeUint)
}

func (b *Builder) PushConstantBool(v bool) {
	b.pushConstant(b.meta().ConstantBool(v), ir.TypeBool)
}

func (b *Builder) PushConstantYuvCscStandard(v ir.YuvCscStandard) {
	b.pushConstant(b.meta().ConstantYuvCsc(v), ir.TypeYuvCscStandard)
}

// PushVariable pushes a reference to a variable. A const variable is replaced by its value,
// keeping the variable's precision.
func (b *Builder) PushVariable(id ir.VariableID) {
	m := b.meta()
	v := m.Variable(id)
	if !m.Type(v.Type).IsPointer() {
		panic(fmt.Errorf("builder: variable v%d is not behind a pointer", id))
	}

	if v.IsConst {
		if !v.HasInitializer {
			panic(fmt.Errorf("builder: const variable v%d used before its initializer", id))
		}
		c := m.Constant(v.Initializer)
		b.push(ir.TypedID{ID: ir.ConstantRef(v.Initializer), Type: c.Type, Precision: v.Precision})
		return
	}

	// Uses in dead code still count as static use.
	v.IsStaticUse = true
	b.push(ir.TypedID{ID: ir.VariableRef(id), Type: v.Type, Precision: v.Precision})
}

// PopArraySize takes the constant array size the parser evaluated.
func (b *Builder) PopArraySize() uint32 {
	id := b.pop()
	c, ok := id.ID.Constant()
	if !ok {
		panic(fmt.Errorf("builder: array size %s is not a constant", id.ID))
	}
	return b.meta().Constant(c).Index()
}

// EndStatementWithValue drops the unused value of an expression statement, or of the left side
// of a comma operator.
func (b *Builder) EndStatementWithValue() {
	b.pop()
}

// VectorComponent selects one component. The operand is not loaded, so a component of a
// variable stays assignable.
func (b *Builder) VectorComponent(component uint32) {
	operand := b.pop()
	b.addInstruction(instruction.VectorComponent(b.meta(), operand, component))
}

// VectorComponentMulti is a swizzle of several components.
func (b *Builder) VectorComponentMulti(components []uint32) {
	operand := b.pop()
	b.addInstruction(instruction.VectorComponentMulti(b.meta(), operand, components))
}

// Index indexes the array, vector or matrix under the index on the stack.
func (b *Builder) Index() {
	index := b.load()
	indexed := b.pop()
	b.addInstruction(instruction.Index(b.meta(), indexed, index))
}

func (b *Builder) StructField(field uint32) {
	operand := b.pop()
	b.addInstruction(instruction.StructField(b.meta(), operand, field))
}

// Construct builds a value of typeID from the top argCount values.
func (b *Builder) Construct(typeID ir.TypeID, argCount int) {
	args := popN(argCount, b.load)
	args = b.trimConstructorArgs(typeID, args)
	b.addInstruction(instruction.Construct(b.meta(), typeID, args))
}

// trimConstructorArgs drops the components of a scalar, vector or matrix constructor that go
// beyond the size of the constructed type. Matrix arguments are split into their columns first.
func (b *Builder) trimConstructorArgs(typeID ir.TypeID, args []ir.TypedID) []ir.TypedID {
	t := b.meta().Type(typeID)
	switch {
	case t.IsArray() || t.IsStruct():
		return args
	case t.IsMatrix() && len(args) == 1:
		return args
	}
	count := t.TotalComponentCount(b.meta())

	expanded := make([]ir.TypedID, 0, len(args))
	for _, arg := range args {
		columns, isMatrix := b.meta().Type(arg.Type).MatrixSize()
		if !isMatrix {
			expanded = append(expanded, arg)
			continue
		}
		for column := range columns {
			b.push(arg)
			b.pushConstant(b.meta().ConstantUint(column), ir.TypeUint)
			b.Index()
			expanded = append(expanded, b.load())
		}
	}

	trimmed := make([]ir.TypedID, 0, len(expanded))
	var total uint32
	for _, arg := range expanded {
		at := b.meta().Type(arg.Type)
		switch {
		case at.IsScalar():
			trimmed = append(trimmed, arg)
			total++
		case at.IsVector():
			size, _ := at.VectorSize()
			needed := count - total
			if needed >= size {
				trimmed = append(trimmed, arg)
				total += size
				break
			}
			b.push(arg)
			if needed == 1 {
				b.VectorComponent(0)
			} else {
				components := make([]uint32, needed)
				for i := range components {
					components[i] = uint32(i)
				}
				b.VectorComponentMulti(components)
			}
			trimmed = append(trimmed, b.load())
			total = count
		}
		if total >= count {
			break
		}
	}
	return trimmed
}

// ArrayLength evaluates `array.length()`. Sized arrays give a constant. The length of an unsized
// gl_ClipDistance or gl_CullDistance is read from a variable initialized once the array is sized.
func (b *Builder) ArrayLength() {
	operand := b.pop()
	m := b.meta()
	t := m.Type(operand.Type)

	var builtIn ir.BuiltIn
	if v, ok := operand.ID.Variable(); ok {
		builtIn = m.Variable(v).BuiltIn
	}

	switch {
	case t.IsPointer():
		pointee := m.Type(t.Elem)
		switch {
		case pointee.IsArray():
			b.pushArrayLength(pointee.Count)
		case builtIn == ir.BuiltInClipDistance:
			b.pushLengthVariable(&b.clipDistanceLength, "clip_distance_length")
		case builtIn == ir.BuiltInCullDistance:
			b.pushLengthVariable(&b.cullDistanceLength, "cull_distance_length")
		default:
			b.addInstruction(instruction.ArrayLength(m, operand))
		}
	case t.IsArray():
		b.pushArrayLength(t.Count)
	default:
		panic(fmt.Errorf("builder: length() of a %s", t.Kind))
	}
}

func (b *Builder) pushArrayLength(n uint32) {
	length, err := safecast.Conv[int32](n)
	if err != nil {
		panic(fmt.Errorf("builder: array length %d: %w", n, err))
	}
	b.PushConstantInt(length)
}

func (b *Builder) pushLengthVariable(length *lengthVariable, name string) {
	if !length.declared {
		length.id = b.declareVariable(ir.VariableDecl{
			Name:      ir.TempName(name),
			Type:      ir.TypeInt,
			Precision: ir.PrecisionLow,
			Scope:     ir.ScopeGlobal,
		})
		length.declared = true
	}
	b.PushVariable(length.id)
	b.push(b.load())
}

// OnClipDistanceSized gives gl_ClipDistance its size once the shader redeclares or indexes it
// with a constant.
func (b *Builder) OnClipDistanceSized(id ir.VariableID, length uint32) {
	b.onClipCullDistanceSized(id, length, b.clipDistanceLength)
}

func (b *Builder) OnCullDistanceSized(id ir.VariableID, length uint32) {
	b.onClipCullDistanceSized(id, length, b.cullDistanceLength)
}

func (b *Builder) onClipCullDistanceSized(id ir.VariableID, length uint32, lengthVar lengthVariable) {
	m := b.meta()
	v := m.Variable(id)
	pointer := m.Type(v.Type)
	if !pointer.IsPointer() {
		panic(fmt.Errorf("builder: variable v%d is not behind a pointer", id))
	}
	unsized := m.Type(pointer.Elem)
	if !unsized.IsUnsizedArray() {
		panic(fmt.Errorf("builder: v%d is already sized", id))
	}
	v.Type = m.PointerTypeID(m.ArrayTypeID(unsized.Elem, length))

	if lengthVar.declared {
		n, err := safecast.Conv[int32](length)
		if err != nil {
			panic(fmt.Errorf("builder: clip/cull distance length %d: %w", length, err))
		}
		m.SetVariableInitializer(lengthVar.id, m.ConstantInt(n))
	}
}
