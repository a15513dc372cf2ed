package ir

import "fmt"

// YuvCscStandard is a value of the yuvCscStandardEXT type.
type YuvCscStandard uint8

const (
	YuvItu601 YuvCscStandard = iota
	YuvItu601FullRange
	YuvItu709
)

func (y YuvCscStandard) String() string {
	switch y {
	case YuvItu601:
		return "itu_601"
	case YuvItu601FullRange:
		return "itu_601_full_range"
	case YuvItu709:
		return "itu_709"
	default:
		return fmt.Sprintf("YuvCscStandard(%d)", y)
	}
}

// ConstantKind tells which field of a Constant holds its value.
type ConstantKind uint8

const (
	ConstFloat ConstantKind = iota
	ConstInt
	ConstUint
	ConstBool
	ConstYuvCsc
	ConstComposite
)

// Constant is an immutable, value-interned compile-time value.
type Constant struct {
	Type TypeID
	Kind ConstantKind

	Float    float32
	Int      int32
	Uint     uint32
	Bool     bool
	Yuv      YuvCscStandard
	Elements []ConstantID

	IsDeadCodeEliminated bool
}

func (c *Constant) mustBe(kind ConstantKind, what string) {
	if c.Kind != kind {
		panic(fmt.Errorf("ir: expected %s constant", what))
	}
}

func (c *Constant) AsFloat() float32 {
	c.mustBe(ConstFloat, "a float")
	return c.Float
}

func (c *Constant) AsInt() int32 {
	c.mustBe(ConstInt, "an int")
	return c.Int
}

func (c *Constant) AsUint() uint32 {
	c.mustBe(ConstUint, "an unsigned int")
	return c.Uint
}

func (c *Constant) AsBool() bool {
	c.mustBe(ConstBool, "a bool")
	return c.Bool
}

func (c *Constant) AsYuvCsc() YuvCscStandard {
	c.mustBe(ConstYuvCsc, "a yuvCscStandardEXT")
	return c.Yuv
}

// Index reads an int or uint constant as an unsigned index.
func (c *Constant) Index() uint32 {
	switch c.Kind {
	case ConstInt:
		return uint32(c.Int)
	case ConstUint:
		return c.Uint
	default:
		panic(fmt.Errorf("ir: expected an index constant"))
	}
}

func (c *Constant) IsComposite() bool { return c.Kind == ConstComposite }

// CompositeElements returns the components of a composite constant.
func (c *Constant) CompositeElements() []ConstantID {
	c.mustBe(ConstComposite, "a composite")
	return c.Elements
}

func (c *Constant) String() string {
	switch c.Kind {
	case ConstFloat:
		return fmt.Sprintf("%v", c.Float)
	case ConstInt:
		return fmt.Sprintf("%d", c.Int)
	case ConstUint:
		return fmt.Sprintf("%du", c.Uint)
	case ConstBool:
		return fmt.Sprintf("%t", c.Bool)
	case ConstYuvCsc:
		return c.Yuv.String()
	default:
		s := "composite("
		for i, e := range c.Elements {
			if i > 0 {
				s += ", "
			}
			s += fmt.Sprintf("c%d", e)
		}
		return s + ")"
	}
}

func compositeKey(typeID TypeID, elements []ConstantID) string {
	buf := make([]byte, 0, 4*(len(elements)+1))
	put := func(v uint32) {
		buf = append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
	}
	put(uint32(typeID))
	for _, e := range elements {
		put(uint32(e))
	}
	return string(buf)
}
