package ir

import "fmt"

// TypeID identifies an interned type.
type TypeID uint32

// ConstantID identifies an interned constant.
type ConstantID uint32

// VariableID identifies a declared variable.
type VariableID uint32

// FunctionID identifies a declared function.
type FunctionID uint32

// RegisterID identifies the result of an instruction.
type RegisterID uint32

// Predefined types. Their ids are fixed so that common types never need a lookup.
const (
	TypeVoid TypeID = iota
	TypeFloat
	TypeInt
	TypeUint
	TypeBool
	TypeAtomicCounter
	TypeYuvCscStandard
	TypeVec2
	TypeVec3
	TypeVec4
	TypeIVec2
	TypeIVec3
	TypeIVec4
	TypeUVec2
	TypeUVec3
	TypeUVec4
	TypeBVec2
	TypeBVec3
	TypeBVec4
	TypeMat2
	TypeMat2x3
	TypeMat2x4
	TypeMat3x2
	TypeMat3
	TypeMat3x4
	TypeMat4x2
	TypeMat4x3
	TypeMat4
)

const maxPredefinedType = TypeMat4

// Predefined constants.
const (
	ConstantFalse ConstantID = iota
	ConstantTrue
	ConstantFloatZero
	ConstantFloatOne
	ConstantIntZero
	ConstantIntOne
	ConstantUintZero
	ConstantUintOne
	ConstantYuvCscItu601
	ConstantYuvCscItu601FullRange
	ConstantYuvCscItu709
)

const maxPredefinedConstant = ConstantYuvCscItu709

// Name prefixes used when temporary names are made unique.
const (
	UserSymbolPrefix      = "_u"
	TempVariablePrefix    = "t"
	TempFunctionPrefix    = "f"
	TempStructPrefix      = "s"
	TempStructFieldPrefix = "m"
)

// IDKind tells which table an ID refers to.
type IDKind uint8

const (
	IDRegister IDKind = iota
	IDConstant
	IDVariable
)

// ID is a reference to a register, a constant or a variable.
type ID struct {
	Kind  IDKind
	Value uint32
}

func RegisterRef(id RegisterID) ID { return ID{Kind: IDRegister, Value: uint32(id)} }
func ConstantRef(id ConstantID) ID { return ID{Kind: IDConstant, Value: uint32(id)} }
func VariableRef(id VariableID) ID { return ID{Kind: IDVariable, Value: uint32(id)} }

func (id ID) IsRegister() bool { return id.Kind == IDRegister }
func (id ID) IsConstant() bool { return id.Kind == IDConstant }
func (id ID) IsVariable() bool { return id.Kind == IDVariable }

// Register returns the register id, panicking if id is not a register.
func (id ID) Register() RegisterID {
	if id.Kind != IDRegister {
		panic(fmt.Errorf("ir: unexpected non-register id %s", id))
	}
	return RegisterID(id.Value)
}

// Constant returns the constant id if id refers to a constant.
func (id ID) Constant() (ConstantID, bool) {
	if id.Kind != IDConstant {
		return 0, false
	}
	return ConstantID(id.Value), true
}

// Variable returns the variable id if id refers to a variable.
func (id ID) Variable() (VariableID, bool) {
	if id.Kind != IDVariable {
		return 0, false
	}
	return VariableID(id.Value), true
}

func (id ID) String() string {
	switch id.Kind {
	case IDRegister:
		return fmt.Sprintf("r%d", id.Value)
	case IDConstant:
		return fmt.Sprintf("c%d", id.Value)
	case IDVariable:
		return fmt.Sprintf("v%d", id.Value)
	default:
		return fmt.Sprintf("ID(%d:%d)", id.Kind, id.Value)
	}
}

// TypedID is the universal value reference: an id plus its type and precision.
type TypedID struct {
	ID        ID
	Type      TypeID
	Precision Precision
}

// FromConstant references a constant; constants carry no precision.
func FromConstant(id ConstantID, typeID TypeID) TypedID {
	return TypedID{ID: ConstantRef(id), Type: typeID, Precision: PrecisionNone}
}

// FromTypedConstant references a constant that carries a precision.
func FromTypedConstant(c TypedConstant) TypedID {
	return TypedID{ID: ConstantRef(c.ID), Type: c.Type, Precision: c.Precision}
}

// FromRegister references the result of an instruction.
func FromRegister(r TypedRegister) TypedID {
	return TypedID{ID: RegisterRef(r.ID), Type: r.Type, Precision: r.Precision}
}

// FromVariable references a variable through its (pointer) type.
func FromVariable(m *Meta, id VariableID) TypedID {
	v := m.Variable(id)
	return TypedID{ID: VariableRef(id), Type: v.Type, Precision: v.Precision}
}

// AsRegister converts a register reference back to a TypedRegister.
func (t TypedID) AsRegister() TypedRegister {
	return TypedRegister{ID: t.ID.Register(), Type: t.Type, Precision: t.Precision}
}

// TypedConstant is a constant id with its type and precision.
type TypedConstant struct {
	ID        ConstantID
	Type      TypeID
	Precision Precision
}

// TypedRegister is a register id with its type and precision.
type TypedRegister struct {
	ID        RegisterID
	Type      TypeID
	Precision Precision
}
