package ir

import (
	"math"
	"testing"
)

func TestMetaPredefinedTypes(t *testing.T) {
	m := NewMeta(ShaderFragment)
	tests := []struct {
		id   TypeID
		kind TypeKind
		elem TypeID
		n    uint32
	}{
		{TypeVec3, TypeKindVector, TypeFloat, 3},
		{TypeIVec2, TypeKindVector, TypeInt, 2},
		{TypeUVec4, TypeKindVector, TypeUint, 4},
		{TypeBVec3, TypeKindVector, TypeBool, 3},
		{TypeMat2, TypeKindMatrix, TypeVec2, 2},
		{TypeMat2x3, TypeKindMatrix, TypeVec3, 2},
		{TypeMat3x2, TypeKindMatrix, TypeVec2, 3},
		{TypeMat4x3, TypeKindMatrix, TypeVec3, 4},
		{TypeMat4, TypeKindMatrix, TypeVec4, 4},
	}
	for _, tt := range tests {
		ty := m.Type(tt.id)
		if ty.Kind != tt.kind || ty.Elem != tt.elem || ty.Count != tt.n {
			t.Errorf("t%d: got %+v", tt.id, *ty)
		}
	}
	if got := m.MatrixTypeID(3, 4); got != TypeMat3x4 {
		t.Errorf("MatrixTypeID(3, 4) = t%d, want t%d", got, TypeMat3x4)
	}
	if got := m.VectorTypeID(BasicUint, 3); got != TypeUVec3 {
		t.Errorf("VectorTypeID(uint, 3) = t%d", got)
	}
	if got := m.VectorTypeIDFromElement(TypeBool, 2); got != TypeBVec2 {
		t.Errorf("VectorTypeIDFromElement(bool, 2) = t%d", got)
	}
	if len(m.Types()) != int(maxPredefinedType)+1 {
		t.Errorf("expected %d predefined types, got %d", maxPredefinedType+1, len(m.Types()))
	}
}

func TestMetaConstantInterning(t *testing.T) {
	m := NewMeta(ShaderVertex)
	if m.ConstantFloat(0) != ConstantFloatZero || m.ConstantFloat(1) != ConstantFloatOne {
		t.Fatalf("predefined float constants not reused")
	}
	if m.ConstantInt(1) != ConstantIntOne || m.ConstantUint(0) != ConstantUintZero {
		t.Fatalf("predefined integer constants not reused")
	}
	if m.ConstantBool(true) != ConstantTrue || m.ConstantYuvCsc(YuvItu709) != ConstantYuvCscItu709 {
		t.Fatalf("bool/yuv constants must be predefined")
	}

	a := m.ConstantFloat(2.5)
	if b := m.ConstantFloat(2.5); a != b {
		t.Errorf("float constant not interned: c%d vs c%d", a, b)
	}
	negZero := m.ConstantFloat(float32(math.Copysign(0, -1)))
	if negZero == ConstantFloatZero {
		t.Errorf("-0.0 must not share the id of 0.0")
	}

	v1 := m.ConstantComposite(TypeVec2, []ConstantID{a, ConstantFloatOne})
	v2 := m.ConstantComposite(TypeVec2, []ConstantID{a, ConstantFloatOne})
	if v1 != v2 {
		t.Errorf("composite constant not interned")
	}
	if v3 := m.ConstantComposite(TypeVec2, []ConstantID{ConstantFloatOne, a}); v3 == v1 {
		t.Errorf("different components must give different constants")
	}
}

func TestMetaConstantNull(t *testing.T) {
	m := NewMeta(ShaderVertex)
	arr := m.ArrayTypeID(TypeVec2, 3)
	null := m.Constant(m.ConstantNull(arr))
	if !null.IsComposite() || len(null.Elements) != 3 {
		t.Fatalf("expected 3-element composite, got %+v", null)
	}
	elem := m.Constant(null.Elements[0])
	if len(elem.Elements) != 2 || elem.Elements[0] != ConstantFloatZero {
		t.Fatalf("expected vec2(0.0), got %+v", elem)
	}

	s := m.StructTypeID(TempName("S"), []Field{{Name: TempName("a"), Type: TypeBool}, {Name: TempName("b"), Type: TypeUint}}, StructPlain)
	sn := m.Constant(m.ConstantNull(s))
	if sn.Elements[0] != ConstantFalse || sn.Elements[1] != ConstantUintZero {
		t.Errorf("unexpected struct null %+v", sn)
	}
}

func TestMetaConstantNullPanics(t *testing.T) {
	m := NewMeta(ShaderVertex)
	block := m.StructTypeID(InterfaceName("B"), []Field{{Name: InterfaceName("x"), Type: TypeFloat}}, StructInterfaceBlock)
	for _, id := range []TypeID{TypeVoid, TypeAtomicCounter, m.UnsizedArrayTypeID(TypeFloat), m.PointerTypeID(TypeFloat), block} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("expected panic for t%d", id)
				}
			}()
			m.ConstantNull(id)
		}()
	}
}

func TestMetaTypeInterning(t *testing.T) {
	m := NewMeta(ShaderVertex)
	if m.ArrayTypeID(TypeFloat, 4) != m.ArrayTypeID(TypeFloat, 4) {
		t.Errorf("array types must be interned")
	}
	if m.ArrayTypeID(TypeFloat, 4) == m.UnsizedArrayTypeID(TypeFloat) {
		t.Errorf("sized and unsized arrays must differ")
	}
	if m.PointerTypeID(TypeVec4) != m.PointerTypeID(TypeVec4) {
		t.Errorf("pointer types must be interned")
	}
	img := ImageType{Dimension: Dim2D, IsSampled: true}
	if m.ImageTypeID(ImageFloat, img) != m.ImageTypeID(ImageFloat, img) {
		t.Errorf("image types must be interned")
	}
	s1 := m.StructTypeID(TempName("S"), nil, StructPlain)
	s2 := m.StructTypeID(TempName("S"), nil, StructPlain)
	if s1 == s2 {
		t.Errorf("struct types must never be interned")
	}
	if got := m.ScalarTypeOf(TypeMat3); got != TypeFloat {
		t.Errorf("ScalarTypeOf(mat3) = t%d", got)
	}
	if got := m.ScalarTypeOf(TypeIVec2); got != TypeInt {
		t.Errorf("ScalarTypeOf(ivec2) = t%d", got)
	}
	if got := m.ScalarTypeOf(TypeUint); got != TypeUint {
		t.Errorf("ScalarTypeOf(uint) = t%d", got)
	}
}

func TestMetaDeclareVariable(t *testing.T) {
	m := NewMeta(ShaderVertex)
	g := m.DeclareVariable(VariableDecl{Name: InterfaceName("pos"), Type: TypeVec4, Precision: PrecisionHigh, Scope: ScopeGlobal})
	l := m.DeclareVariable(VariableDecl{Name: TempName("x"), Type: TypeFloat, Scope: ScopeLocal})
	c := m.DeclareConstVariable(TempName(""), TypeInt, PrecisionMedium)

	if ty := m.Type(m.Variable(g).Type); ty.Kind != TypeKindPointer || ty.Elem != TypeVec4 {
		t.Errorf("variable type must be a pointer to vec4, got %+v", ty)
	}
	globals := m.GlobalVariables()
	if len(globals) != 1 || globals[0] != g {
		t.Errorf("only the global must be recorded, got %v", globals)
	}
	if !m.Variable(c).IsConst {
		t.Errorf("const variable not marked const")
	}
	_ = l

	m.RequireZeroInit(l)
	if !m.NeedsZeroInit(l) {
		t.Fatalf("expected v%d to need zero init", l)
	}
	m.OnVariableInitialized(l)
	if m.NeedsZeroInit(l) || len(m.PendingZeroInit()) != 0 {
		t.Errorf("initialized variable still pending zero init")
	}

	m.SetVariableInitializer(c, ConstantIntOne)
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic on double initializer")
		}
	}()
	m.SetVariableInitializer(c, ConstantIntZero)
}
