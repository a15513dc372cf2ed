package ir

import (
	"fmt"
	"math"

	"fortio.org/safecast"
)

// Meta owns every type, constant, variable, function and register-producing instruction of a
// shader. Blocks only hold ids into these tables.
type Meta struct {
	types        []Type
	constants    []Constant
	variables    []Variable
	functions    []Function
	instructions []Instruction

	globalVariables []VariableID
	pendingZeroInit []VariableID

	mainFunction    FunctionID
	hasMainFunction bool

	typeIndex      map[typeKey]TypeID
	floatConstants map[uint32]ConstantID
	intConstants   map[int32]ConstantID
	uintConstants  map[uint32]ConstantID
	composites     map[string]ConstantID

	Shader ShaderMeta
}

// NewMeta returns a store seeded with the predefined types and constants.
func NewMeta(shaderType ShaderType) *Meta {
	m := &Meta{
		types:        make([]Type, 0, int(maxPredefinedType)+20),
		constants:    make([]Constant, 0, 200),
		variables:    make([]Variable, 0, 200),
		functions:    make([]Function, 0, 20),
		instructions: make([]Instruction, 0, 200),
		typeIndex:    make(map[typeKey]TypeID, 32),
		composites:   make(map[string]ConstantID, 32),
		Shader:       ShaderMeta{Type: shaderType},
	}

	for _, b := range []BasicType{BasicVoid, BasicFloat, BasicInt, BasicUint, BasicBool, BasicAtomicCounter, BasicYuvCscStandard} {
		m.addType(ScalarType(b))
	}
	for _, elem := range []TypeID{TypeFloat, TypeInt, TypeUint, TypeBool} {
		for n := uint32(2); n <= 4; n++ {
			m.addType(VectorType(elem, n))
		}
	}
	for cols := uint32(2); cols <= 4; cols++ {
		for rows := uint32(2); rows <= 4; rows++ {
			m.addType(MatrixType(TypeVec2+TypeID(rows-2), cols))
		}
	}

	m.addConstant(Constant{Type: TypeBool, Kind: ConstBool, Bool: false})
	m.addConstant(Constant{Type: TypeBool, Kind: ConstBool, Bool: true})
	m.addConstant(Constant{Type: TypeFloat, Kind: ConstFloat, Float: 0})
	m.addConstant(Constant{Type: TypeFloat, Kind: ConstFloat, Float: 1})
	m.addConstant(Constant{Type: TypeInt, Kind: ConstInt, Int: 0})
	m.addConstant(Constant{Type: TypeInt, Kind: ConstInt, Int: 1})
	m.addConstant(Constant{Type: TypeUint, Kind: ConstUint, Uint: 0})
	m.addConstant(Constant{Type: TypeUint, Kind: ConstUint, Uint: 1})
	m.addConstant(Constant{Type: TypeYuvCscStandard, Kind: ConstYuvCsc, Yuv: YuvItu601})
	m.addConstant(Constant{Type: TypeYuvCscStandard, Kind: ConstYuvCsc, Yuv: YuvItu601FullRange})
	m.addConstant(Constant{Type: TypeYuvCscStandard, Kind: ConstYuvCsc, Yuv: YuvItu709})

	m.floatConstants = map[uint32]ConstantID{
		math.Float32bits(0): ConstantFloatZero,
		math.Float32bits(1): ConstantFloatOne,
	}
	m.intConstants = map[int32]ConstantID{0: ConstantIntZero, 1: ConstantIntOne}
	m.uintConstants = map[uint32]ConstantID{0: ConstantUintZero, 1: ConstantUintOne}
	return m
}

func nextID(n int, what string) uint32 {
	id, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("len(%s) overflow: %w", what, err))
	}
	return id
}

func (m *Meta) addType(t Type) TypeID {
	id := TypeID(nextID(len(m.types), "types"))
	m.types = append(m.types, t)
	return id
}

func (m *Meta) addConstant(c Constant) ConstantID {
	id := ConstantID(nextID(len(m.constants), "constants"))
	m.constants = append(m.constants, c)
	return id
}

func (m *Meta) Types() []Type                 { return m.types }
func (m *Meta) Constants() []Constant         { return m.constants }
func (m *Meta) Variables() []Variable         { return m.variables }
func (m *Meta) Functions() []Function         { return m.functions }
func (m *Meta) Instructions() []Instruction   { return m.instructions }
func (m *Meta) GlobalVariables() []VariableID { return m.globalVariables }

// PendingZeroInit lists the variables that still need an explicit zero initialization.
func (m *Meta) PendingZeroInit() []VariableID { return m.pendingZeroInit }

func (m *Meta) Type(id TypeID) *Type                   { return &m.types[id] }
func (m *Meta) Constant(id ConstantID) *Constant       { return &m.constants[id] }
func (m *Meta) Variable(id VariableID) *Variable       { return &m.variables[id] }
func (m *Meta) Function(id FunctionID) *Function       { return &m.functions[id] }
func (m *Meta) Instruction(id RegisterID) *Instruction { return &m.instructions[id] }

// MainFunction returns the id of main(), if it was declared.
func (m *Meta) MainFunction() (FunctionID, bool) {
	return m.mainFunction, m.hasMainFunction
}

func (m *Meta) SetMainFunction(id FunctionID) {
	if m.hasMainFunction {
		panic(fmt.Errorf("ir: main() declared twice"))
	}
	m.mainFunction = id
	m.hasMainFunction = true
}

// BasicTypeID returns the predefined id of a scalar type.
func (m *Meta) BasicTypeID(b BasicType) TypeID {
	switch b {
	case BasicVoid:
		return TypeVoid
	case BasicFloat:
		return TypeFloat
	case BasicInt:
		return TypeInt
	case BasicUint:
		return TypeUint
	case BasicBool:
		return TypeBool
	case BasicAtomicCounter:
		return TypeAtomicCounter
	case BasicYuvCscStandard:
		return TypeYuvCscStandard
	default:
		panic(fmt.Errorf("ir: unknown basic type %d", b))
	}
}

// VectorTypeID returns the predefined id of a 2 to 4 component vector.
func (m *Meta) VectorTypeID(b BasicType, size uint32) TypeID {
	if size < 2 || size > 4 {
		panic(fmt.Errorf("ir: invalid vector size %d", size))
	}
	offset := TypeID(size - 2)
	switch b {
	case BasicFloat:
		return TypeVec2 + offset
	case BasicInt:
		return TypeIVec2 + offset
	case BasicUint:
		return TypeUVec2 + offset
	case BasicBool:
		return TypeBVec2 + offset
	default:
		panic(fmt.Errorf("ir: %s cannot be a vector component", b))
	}
}

// VectorTypeIDFromElement is VectorTypeID keyed by the scalar type id.
func (m *Meta) VectorTypeIDFromElement(elem TypeID, size uint32) TypeID {
	switch elem {
	case TypeFloat, TypeInt, TypeUint, TypeBool:
		return m.VectorTypeID(m.types[elem].Basic, size)
	default:
		panic(fmt.Errorf("ir: t%d cannot be a vector component", elem))
	}
}

// MatrixTypeID returns the predefined id of a float matrix.
func (m *Meta) MatrixTypeID(columns, rows uint32) TypeID {
	if columns < 2 || columns > 4 || rows < 2 || rows > 4 {
		panic(fmt.Errorf("ir: invalid matrix size %dx%d", columns, rows))
	}
	return TypeMat2 + TypeID((columns-2)*3+(rows-2))
}

func (m *Meta) internType(t Type) TypeID {
	key := typeKey{kind: t.Kind, elem: t.Elem, count: t.Count, imageBasic: t.ImageBasic, image: t.Image}
	if id, ok := m.typeIndex[key]; ok {
		return id
	}
	id := m.addType(t)
	m.typeIndex[key] = id
	return id
}

func (m *Meta) ImageTypeID(basic ImageBasicType, image ImageType) TypeID {
	return m.internType(Type{Kind: TypeKindImage, ImageBasic: basic, Image: image})
}

// StructTypeID always creates a new struct type; struct identity is by declaration.
func (m *Meta) StructTypeID(name Name, fields []Field, spec StructSpecialization) TypeID {
	return m.addType(Type{Kind: TypeKindStruct, Name: name, Fields: fields, Specialization: spec})
}

func (m *Meta) UnsizedArrayTypeID(elem TypeID) TypeID {
	return m.internType(Type{Kind: TypeKindUnsizedArray, Elem: elem})
}

func (m *Meta) ArrayTypeID(elem TypeID, size uint32) TypeID {
	return m.internType(Type{Kind: TypeKindArray, Elem: elem, Count: size})
}

func (m *Meta) PointerTypeID(pointee TypeID) TypeID {
	return m.internType(Type{Kind: TypeKindPointer, Elem: pointee})
}

// ConstantFloat interns a float constant by its bit pattern, so 0.0 and -0.0 stay distinct.
func (m *Meta) ConstantFloat(v float32) ConstantID {
	bits := math.Float32bits(v)
	if id, ok := m.floatConstants[bits]; ok {
		return id
	}
	id := m.addConstant(Constant{Type: TypeFloat, Kind: ConstFloat, Float: v})
	m.floatConstants[bits] = id
	return id
}

func (m *Meta) ConstantInt(v int32) ConstantID {
	if id, ok := m.intConstants[v]; ok {
		return id
	}
	id := m.addConstant(Constant{Type: TypeInt, Kind: ConstInt, Int: v})
	m.intConstants[v] = id
	return id
}

func (m *Meta) ConstantUint(v uint32) ConstantID {
	if id, ok := m.uintConstants[v]; ok {
		return id
	}
	id := m.addConstant(Constant{Type: TypeUint, Kind: ConstUint, Uint: v})
	m.uintConstants[v] = id
	return id
}

func (m *Meta) ConstantBool(v bool) ConstantID {
	if v {
		return ConstantTrue
	}
	return ConstantFalse
}

func (m *Meta) ConstantYuvCsc(v YuvCscStandard) ConstantID {
	switch v {
	case YuvItu601:
		return ConstantYuvCscItu601
	case YuvItu601FullRange:
		return ConstantYuvCscItu601FullRange
	default:
		return ConstantYuvCscItu709
	}
}

// ConstantComposite interns a vector, matrix, array or struct constant.
func (m *Meta) ConstantComposite(typeID TypeID, elements []ConstantID) ConstantID {
	key := compositeKey(typeID, elements)
	if id, ok := m.composites[key]; ok {
		return id
	}
	elems := make([]ConstantID, len(elements))
	copy(elems, elements)
	id := m.addConstant(Constant{Type: typeID, Kind: ConstComposite, Elements: elems})
	m.composites[key] = id
	return id
}

// ConstantScalarNull returns the zero value of a scalar type.
func (m *Meta) ConstantScalarNull(b BasicType) ConstantID {
	switch b {
	case BasicFloat:
		return ConstantFloatZero
	case BasicInt:
		return ConstantIntZero
	case BasicUint:
		return ConstantUintZero
	case BasicBool:
		return ConstantFalse
	case BasicYuvCscStandard:
		return ConstantYuvCscItu601
	default:
		panic(fmt.Errorf("ir: cannot create a null value of type %s", b))
	}
}

// ConstantNull returns the zero value of a type: 0 for numbers, false for bools, recursively
// for composites.
func (m *Meta) ConstantNull(typeID TypeID) ConstantID {
	t := m.Type(typeID)
	switch t.Kind {
	case TypeKindScalar:
		return m.ConstantScalarNull(t.Basic)
	case TypeKindVector, TypeKindMatrix, TypeKindArray:
		count := t.Count
		elem := m.ConstantNull(t.Elem)
		elems := make([]ConstantID, count)
		for i := range elems {
			elems[i] = elem
		}
		return m.ConstantComposite(typeID, elems)
	case TypeKindStruct:
		if t.Specialization != StructPlain {
			panic(fmt.Errorf("ir: cannot create a null value of interface block type"))
		}
		fieldTypes := make([]TypeID, len(t.Fields))
		for i := range t.Fields {
			fieldTypes[i] = t.Fields[i].Type
		}
		elems := make([]ConstantID, len(fieldTypes))
		for i, ft := range fieldTypes {
			elems[i] = m.ConstantNull(ft)
		}
		return m.ConstantComposite(typeID, elems)
	default:
		panic(fmt.Errorf("ir: cannot create a null value of %s type", t.Kind))
	}
}

// ScalarTypeOf strips vector and matrix layers: mat3 -> float, ivec2 -> int, uint -> uint.
func (m *Meta) ScalarTypeOf(typeID TypeID) TypeID {
	elem, ok := m.Type(typeID).ElementType()
	if !ok {
		elem = typeID
	}
	inner, ok := m.Type(elem).ElementType()
	if !ok {
		return elem
	}
	return inner
}

// AddVariable appends a fully formed variable without any scope bookkeeping.
func (m *Meta) AddVariable(v Variable) VariableID {
	id := VariableID(nextID(len(m.variables), "variables"))
	m.variables = append(m.variables, v)
	return id
}

// VariableDecl describes a variable about to be declared.
type VariableDecl struct {
	Name        Name
	Type        TypeID
	Precision   Precision
	Decorations Decorations
	BuiltIn     BuiltIn
	Scope       VariableScope
}

// DeclareVariable turns the declared type into a pointer and records globals.
func (m *Meta) DeclareVariable(d VariableDecl) VariableID {
	if m.Type(d.Type).IsPointer() {
		panic(fmt.Errorf("ir: variable %q declared with a pointer type", d.Name.Name))
	}
	id := m.AddVariable(Variable{
		Name:        d.Name,
		Type:        m.PointerTypeID(d.Type),
		Precision:   d.Precision,
		Decorations: d.Decorations,
		BuiltIn:     d.BuiltIn,
		Scope:       d.Scope,
	})
	if d.Scope == ScopeGlobal {
		m.globalVariables = append(m.globalVariables, id)
	}
	return id
}

// DeclareConstVariable declares a const variable. It belongs to no scope; uses are replaced by
// its initializer.
func (m *Meta) DeclareConstVariable(name Name, typeID TypeID, precision Precision) VariableID {
	if m.Type(typeID).IsPointer() {
		panic(fmt.Errorf("ir: const variable %q declared with a pointer type", name.Name))
	}
	return m.AddVariable(Variable{
		Name:      name,
		Type:      m.PointerTypeID(typeID),
		Precision: precision,
		Scope:     ScopeGlobal,
		IsConst:   true,
	})
}

func (m *Meta) SetVariableInitializer(id VariableID, c ConstantID) {
	v := m.Variable(id)
	if v.HasInitializer {
		panic(fmt.Errorf("ir: variable v%d initialized twice", id))
	}
	v.Initializer = c
	v.HasInitializer = true
}

// RequireZeroInit records that the variable must be zero-initialized by a later pass.
func (m *Meta) RequireZeroInit(id VariableID) {
	m.pendingZeroInit = append(m.pendingZeroInit, id)
}

// OnVariableInitialized drops the variable from the pending zero-initialization list.
func (m *Meta) OnVariableInitialized(id VariableID) {
	for i, v := range m.pendingZeroInit {
		if v == id {
			m.pendingZeroInit = append(m.pendingZeroInit[:i], m.pendingZeroInit[i+1:]...)
			return
		}
	}
}

func (m *Meta) NeedsZeroInit(id VariableID) bool {
	for _, v := range m.pendingZeroInit {
		if v == id {
			return true
		}
	}
	return false
}

func (m *Meta) AddFunction(f Function) FunctionID {
	id := FunctionID(nextID(len(m.functions), "functions"))
	m.functions = append(m.functions, f)
	return id
}

// NewRegister records an instruction and returns its result.
func (m *Meta) NewRegister(op Op, typeID TypeID, precision Precision) TypedRegister {
	id := RegisterID(nextID(len(m.instructions), "instructions"))
	r := TypedRegister{ID: id, Type: typeID, Precision: precision}
	m.instructions = append(m.instructions, Instruction{Op: op, Result: r})
	return r
}

// ReplaceInstruction moves the instruction producing replaceBy into the slot of target, so that
// target keeps its id but now holds the new op. replaceBy becomes dead; it is dropped when it is
// the last register.
func (m *Meta) ReplaceInstruction(target, replaceBy RegisterID) {
	m.instructions[target], m.instructions[replaceBy] = m.instructions[replaceBy], m.instructions[target]
	m.instructions[target].Result.ID = target
	if int(replaceBy)+1 == len(m.instructions) {
		m.instructions = m.instructions[:replaceBy]
	}
}
