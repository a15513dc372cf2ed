package script

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/angle-sub000/internal/ir"
)

var scalarTypes = map[string]ir.TypeID{
	"void":              ir.TypeVoid,
	"float":             ir.TypeFloat,
	"int":               ir.TypeInt,
	"uint":              ir.TypeUint,
	"bool":              ir.TypeBool,
	"atomic_uint":       ir.TypeAtomicCounter,
	"yuvCscStandardEXT": ir.TypeYuvCscStandard,
}

var vectorPrefixes = map[string]ir.BasicType{
	"vec":  ir.BasicFloat,
	"ivec": ir.BasicInt,
	"uvec": ir.BasicUint,
	"bvec": ir.BasicBool,
}

var imageDimensions = map[string]ir.ImageDimension{
	"2D":               ir.Dim2D,
	"3D":               ir.Dim3D,
	"Cube":             ir.DimCube,
	"2DRect":           ir.DimRect,
	"Buffer":           ir.DimBuffer,
	"ExternalOES":      ir.DimExternal,
	"External2DY2YEXT": ir.DimExternalY2Y,
	"VideoWEBGL":       ir.DimVideo,
}

// typeTable resolves type strings. Struct names come from the [[struct]] tables of the script.
type typeTable struct {
	meta    *ir.Meta
	structs map[string]ir.TypeID
}

func newTypeTable(m *ir.Meta) *typeTable {
	return &typeTable{meta: m, structs: make(map[string]ir.TypeID)}
}

func (t *typeTable) declareStruct(s Struct) error {
	if _, dup := t.structs[s.Name]; dup {
		return fmt.Errorf("struct %q declared twice", s.Name)
	}
	fields := make([]ir.Field, 0, len(s.Fields))
	for _, f := range s.Fields {
		typeID, err := t.parse(f.Type)
		if err != nil {
			return fmt.Errorf("struct %q field %q: %w", s.Name, f.Name, err)
		}
		precision, err := ir.ParsePrecision(f.Precision)
		if err != nil {
			return fmt.Errorf("struct %q field %q: %w", s.Name, f.Name, err)
		}
		decorations, err := parseDecorations(f.Decorations)
		if err != nil {
			return fmt.Errorf("struct %q field %q: %w", s.Name, f.Name, err)
		}
		fields = append(fields, ir.Field{
			Name:        ir.InterfaceName(f.Name),
			Type:        typeID,
			Precision:   precision,
			Decorations: decorations,
		})
	}
	spec := ir.StructPlain
	if s.Block {
		spec = ir.StructInterfaceBlock
	}
	t.structs[s.Name] = t.meta.StructTypeID(ir.InterfaceName(s.Name), fields, spec)
	return nil
}

// parse resolves a GLSL type spelling with optional array suffixes, such as "vec4",
// "mat3x2", "sampler2DShadow", "Light[4]" or "float[]". In "T[2][3]" the last suffix is the
// innermost array.
func (t *typeTable) parse(s string) (ir.TypeID, error) {
	s = strings.TrimSpace(s)
	base, suffixes, err := splitArraySuffixes(s)
	if err != nil {
		return 0, err
	}
	id, err := t.parseBase(base)
	if err != nil {
		return 0, err
	}
	for i := len(suffixes) - 1; i >= 0; i-- {
		if suffixes[i] == "" {
			id = t.meta.UnsizedArrayTypeID(id)
			continue
		}
		n, err := strconv.ParseUint(suffixes[i], 10, 32)
		if err != nil || n == 0 {
			return 0, fmt.Errorf("invalid array size %q in type %q", suffixes[i], s)
		}
		id = t.meta.ArrayTypeID(id, uint32(n))
	}
	return id, nil
}

func splitArraySuffixes(s string) (string, []string, error) {
	open := strings.IndexByte(s, '[')
	if open < 0 {
		return s, nil, nil
	}
	base, rest := s[:open], s[open:]
	var suffixes []string
	for rest != "" {
		if rest[0] != '[' {
			return "", nil, fmt.Errorf("malformed type %q", s)
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return "", nil, fmt.Errorf("malformed type %q", s)
		}
		suffixes = append(suffixes, strings.TrimSpace(rest[1:end]))
		rest = rest[end+1:]
	}
	return base, suffixes, nil
}

func (t *typeTable) parseBase(s string) (ir.TypeID, error) {
	if id, ok := scalarTypes[s]; ok {
		return id, nil
	}
	if id, ok := t.structs[s]; ok {
		return id, nil
	}
	for prefix, basic := range vectorPrefixes {
		if size, ok := strings.CutPrefix(s, prefix); ok {
			n, err := strconv.ParseUint(size, 10, 32)
			if err != nil || n < 2 || n > 4 {
				break
			}
			return t.meta.VectorTypeID(basic, uint32(n)), nil
		}
	}
	if size, ok := strings.CutPrefix(s, "mat"); ok {
		return parseMatrix(t.meta, size, s)
	}
	if id, ok := t.parseImage(s); ok {
		return id, nil
	}
	return 0, fmt.Errorf("unknown type %q", s)
}

// parseMatrix accepts "N" and "CxR".
func parseMatrix(m *ir.Meta, size, full string) (ir.TypeID, error) {
	cols, rows, square := strings.Cut(size, "x")
	if !square {
		rows = cols
	}
	c, err1 := strconv.ParseUint(cols, 10, 32)
	r, err2 := strconv.ParseUint(rows, 10, 32)
	if err1 != nil || err2 != nil || c < 2 || c > 4 || r < 2 || r > 4 {
		return 0, fmt.Errorf("unknown type %q", full)
	}
	return m.MatrixTypeID(uint32(c), uint32(r)), nil
}

// parseImage accepts the sampler and image type names, such as "usampler2DArray",
// "sampler2DMS", "samplerCubeShadow" and "image3D".
func (t *typeTable) parseImage(s string) (ir.TypeID, bool) {
	basic := ir.ImageFloat
	if len(s) > 1 && isImageKeyword(s[1:]) {
		switch s[0] {
		case 'i':
			basic, s = ir.ImageInt, s[1:]
		case 'u':
			basic, s = ir.ImageUint, s[1:]
		}
	}

	var image ir.ImageType
	switch {
	case strings.HasPrefix(s, "sampler"):
		image.IsSampled = true
		s = strings.TrimPrefix(s, "sampler")
	case strings.HasPrefix(s, "image"):
		s = strings.TrimPrefix(s, "image")
	case s == "subpassInput":
		image.Dimension = ir.DimSubpass
		return t.meta.ImageTypeID(basic, image), true
	default:
		return 0, false
	}

	if rest, ok := strings.CutSuffix(s, "Shadow"); ok {
		image.IsShadow, s = true, rest
	}
	if rest, ok := strings.CutSuffix(s, "Array"); ok {
		image.IsArray, s = true, rest
	}
	if rest, ok := strings.CutSuffix(s, "MS"); ok {
		image.IsMS, s = true, rest
	}
	dim, ok := imageDimensions[s]
	if !ok {
		return 0, false
	}
	image.Dimension = dim
	return t.meta.ImageTypeID(basic, image), true
}

func isImageKeyword(s string) bool {
	return strings.HasPrefix(s, "sampler") || strings.HasPrefix(s, "image") || s == "subpassInput"
}

// parseDecorations accepts the spellings of ir.Decoration.String: "flat", "location=3".
func parseDecorations(names []string) (ir.Decorations, error) {
	if len(names) == 0 {
		return nil, nil
	}
	decorations := make(ir.Decorations, 0, len(names))
	for _, name := range names {
		kindName, value, hasValue := strings.Cut(name, "=")
		kind, ok := ir.ParseDecorationKind(strings.TrimSpace(kindName))
		if !ok {
			return nil, fmt.Errorf("unknown decoration %q", name)
		}
		if kind.HasValue() != hasValue {
			return nil, fmt.Errorf("decoration %q: value mismatch", name)
		}
		d := ir.Decoration{Kind: kind}
		if hasValue {
			v, err := strconv.ParseUint(strings.TrimSpace(value), 10, 32)
			if err != nil {
				return nil, fmt.Errorf("decoration %q: %w", name, err)
			}
			d.Value = uint32(v)
		}
		decorations = append(decorations, d)
	}
	return decorations, nil
}
