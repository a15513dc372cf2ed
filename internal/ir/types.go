package ir

import "fmt"

// TypeKind enumerates the shapes a Type can take.
type TypeKind uint8

const (
	TypeKindScalar TypeKind = iota
	TypeKindImage
	TypeKindStruct
	TypeKindVector
	TypeKindMatrix
	TypeKindArray
	TypeKindUnsizedArray
	TypeKindPointer
	TypeKindDeadCodeEliminated
)

func (k TypeKind) String() string {
	switch k {
	case TypeKindScalar:
		return "scalar"
	case TypeKindImage:
		return "image"
	case TypeKindStruct:
		return "struct"
	case TypeKindVector:
		return "vector"
	case TypeKindMatrix:
		return "matrix"
	case TypeKindArray:
		return "array"
	case TypeKindUnsizedArray:
		return "unsized array"
	case TypeKindPointer:
		return "pointer"
	case TypeKindDeadCodeEliminated:
		return "eliminated"
	default:
		return fmt.Sprintf("TypeKind(%d)", k)
	}
}

// BasicType is the kind of a scalar type.
type BasicType uint8

const (
	BasicVoid BasicType = iota
	BasicFloat
	BasicInt
	BasicUint
	BasicBool
	BasicAtomicCounter
	BasicYuvCscStandard
)

func (b BasicType) String() string {
	switch b {
	case BasicVoid:
		return "void"
	case BasicFloat:
		return "float"
	case BasicInt:
		return "int"
	case BasicUint:
		return "uint"
	case BasicBool:
		return "bool"
	case BasicAtomicCounter:
		return "atomic_uint"
	case BasicYuvCscStandard:
		return "yuvCscStandardEXT"
	default:
		return fmt.Sprintf("BasicType(%d)", b)
	}
}

// ImageBasicType is the component type read from an image.
type ImageBasicType uint8

const (
	ImageFloat ImageBasicType = iota
	ImageInt
	ImageUint
)

// ImageDimension is the dimensionality of an image.
type ImageDimension uint8

const (
	Dim2D ImageDimension = iota
	Dim3D
	DimCube
	DimRect
	DimBuffer
	DimExternal
	DimExternalY2Y
	DimVideo
	DimPixelLocal
	DimSubpass
)

// ImageType holds the properties of an image or sampler type.
type ImageType struct {
	Dimension ImageDimension
	IsSampled bool
	IsArray   bool
	IsMS      bool
	IsShadow  bool
}

// StructSpecialization tells plain structs apart from interface blocks.
type StructSpecialization uint8

const (
	StructPlain StructSpecialization = iota
	StructInterfaceBlock
)

// Field is a member of a struct or interface block.
type Field struct {
	Name        Name
	Type        TypeID
	Precision   Precision
	Decorations Decorations
}

// Type describes a type. Which fields are meaningful depends on Kind.
type Type struct {
	Kind TypeKind

	// Scalar.
	Basic BasicType

	// Image.
	ImageBasic ImageBasicType
	Image      ImageType

	// Vector, Matrix, Array, UnsizedArray and Pointer. For matrices Elem is the column type.
	Elem TypeID
	// Vector size, matrix column count or array length.
	Count uint32

	// Struct.
	Name           Name
	Fields         []Field
	Specialization StructSpecialization
}

func ScalarType(b BasicType) Type { return Type{Kind: TypeKindScalar, Basic: b} }
func VectorType(elem TypeID, n uint32) Type {
	return Type{Kind: TypeKindVector, Elem: elem, Count: n}
}
func MatrixType(column TypeID, n uint32) Type {
	return Type{Kind: TypeKindMatrix, Elem: column, Count: n}
}

func (t *Type) IsScalar() bool       { return t.Kind == TypeKindScalar }
func (t *Type) IsVector() bool       { return t.Kind == TypeKindVector }
func (t *Type) IsMatrix() bool       { return t.Kind == TypeKindMatrix }
func (t *Type) IsImage() bool        { return t.Kind == TypeKindImage }
func (t *Type) IsArray() bool        { return t.Kind == TypeKindArray }
func (t *Type) IsUnsizedArray() bool { return t.Kind == TypeKindUnsizedArray }
func (t *Type) IsStruct() bool       { return t.Kind == TypeKindStruct }
func (t *Type) IsPointer() bool      { return t.Kind == TypeKindPointer }

// ScalarBasic returns the basic type of a scalar, panicking otherwise.
func (t *Type) ScalarBasic() BasicType {
	if t.Kind != TypeKindScalar {
		panic(fmt.Errorf("ir: expected scalar type, got %s", t.Kind))
	}
	return t.Basic
}

// VectorSize returns the component count of a vector type.
func (t *Type) VectorSize() (uint32, bool) {
	if t.Kind != TypeKindVector {
		return 0, false
	}
	return t.Count, true
}

// MatrixSize returns the column count of a matrix type.
func (t *Type) MatrixSize() (uint32, bool) {
	if t.Kind != TypeKindMatrix {
		return 0, false
	}
	return t.Count, true
}

// ElementType returns the element of a vector, matrix (its column), array or pointer.
func (t *Type) ElementType() (TypeID, bool) {
	switch t.Kind {
	case TypeKindVector, TypeKindMatrix, TypeKindArray, TypeKindUnsizedArray, TypeKindPointer:
		return t.Elem, true
	default:
		return 0, false
	}
}

// MustElementType is ElementType for callers that already checked the shape.
func (t *Type) MustElementType() TypeID {
	elem, ok := t.ElementType()
	if !ok {
		panic(fmt.Errorf("ir: %s type has no element type", t.Kind))
	}
	return elem
}

// StructField returns the field at index.
func (t *Type) StructField(index uint32) *Field {
	if t.Kind != TypeKindStruct {
		panic(fmt.Errorf("ir: expected struct type, got %s", t.Kind))
	}
	return &t.Fields[index]
}

// TotalComponentCount is the number of scalars in a scalar, vector or matrix.
func (t *Type) TotalComponentCount(m *Meta) uint32 {
	switch t.Kind {
	case TypeKindMatrix:
		rows, _ := m.Type(t.Elem).VectorSize()
		return t.Count * rows
	case TypeKindVector:
		return t.Count
	default:
		return 1
	}
}

type typeKey struct {
	kind       TypeKind
	elem       TypeID
	count      uint32
	imageBasic ImageBasicType
	image      ImageType
}
