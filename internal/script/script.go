// Package script is a serializable recording of the calls a GLSL parser makes into a
// builder.Builder. A script names its shader stage and builder options and then lists the calls
// in order. Variables and functions are referred to by the names they were declared with.
//
// Scripts are written by hand as TOML (*.irs.toml) or stored as msgpack (*.irs.msgpack).
package script

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/text/unicode/norm"

	"github.com/google/angle-sub000/internal/builder"
)

const (
	ExtTOML    = ".irs.toml"
	ExtMsgpack = ".irs.msgpack"
)

var (
	ErrShaderSectionMissing = errors.New("missing [shader]")
	ErrUnknownFormat        = errors.New("unknown script format")
)

// Script is a decoded builder-call script.
type Script struct {
	Shader  Shader   `toml:"shader" msgpack:"shader"`
	Options Options  `toml:"options" msgpack:"options"`
	Structs []Struct `toml:"struct" msgpack:"structs,omitempty"`
	Calls   []Call   `toml:"call" msgpack:"calls"`
}

// Shader holds the stage and the global layout qualifiers.
type Shader struct {
	Stage                    string   `toml:"stage" msgpack:"stage"`
	EarlyFragmentTests       bool     `toml:"early_fragment_tests" msgpack:"early_fragment_tests,omitempty"`
	AdvancedBlendEquations   []string `toml:"advanced_blend_equations" msgpack:"advanced_blend_equations,omitempty"`
	TCSVertices              uint32   `toml:"tcs_vertices" msgpack:"tcs_vertices,omitempty"`
	TESPrimitive             string   `toml:"tes_primitive" msgpack:"tes_primitive,omitempty"`
	TESVertexSpacing         string   `toml:"tes_vertex_spacing" msgpack:"tes_vertex_spacing,omitempty"`
	TESOrdering              string   `toml:"tes_ordering" msgpack:"tes_ordering,omitempty"`
	TESPointMode             bool     `toml:"tes_point_mode" msgpack:"tes_point_mode,omitempty"`
	GSPrimitiveIn            string   `toml:"gs_primitive_in" msgpack:"gs_primitive_in,omitempty"`
	GSPrimitiveOut           string   `toml:"gs_primitive_out" msgpack:"gs_primitive_out,omitempty"`
	GSInvocations            uint32   `toml:"gs_invocations" msgpack:"gs_invocations,omitempty"`
	GSMaxVertices            uint32   `toml:"gs_max_vertices" msgpack:"gs_max_vertices,omitempty"`
	PerVertexInIsRedeclared  bool     `toml:"per_vertex_in_redeclared" msgpack:"per_vertex_in_redeclared,omitempty"`
	PerVertexOutIsRedeclared bool     `toml:"per_vertex_out_redeclared" msgpack:"per_vertex_out_redeclared,omitempty"`
}

// Options mirrors builder.Options.
type Options struct {
	InitializeUninitializedVariables            bool `toml:"initialize_uninitialized_variables" msgpack:"initialize_uninitialized_variables,omitempty"`
	InitializeOutputVariables                   bool `toml:"initialize_output_variables" msgpack:"initialize_output_variables,omitempty"`
	InitializeGLPosition                        bool `toml:"initialize_gl_position" msgpack:"initialize_gl_position,omitempty"`
	InitializerAllowedOnNonConstGlobalVariables bool `toml:"initializer_allowed_on_non_const_globals" msgpack:"initializer_allowed_on_non_const_globals,omitempty"`
}

func (o Options) Builder() builder.Options {
	return builder.Options{
		InitializeUninitializedVariables:            o.InitializeUninitializedVariables,
		InitializeOutputVariables:                   o.InitializeOutputVariables,
		InitializeGLPosition:                        o.InitializeGLPosition,
		InitializerAllowedOnNonConstGlobalVariables: o.InitializerAllowedOnNonConstGlobalVariables,
	}
}

// Struct declares a struct or interface block type usable by name in later type strings.
type Struct struct {
	Name   string  `toml:"name" msgpack:"name"`
	Block  bool    `toml:"block" msgpack:"block,omitempty"`
	Fields []Field `toml:"field" msgpack:"fields"`
}

type Field struct {
	Name        string   `toml:"name" msgpack:"name"`
	Type        string   `toml:"type" msgpack:"type"`
	Precision   string   `toml:"precision" msgpack:"precision,omitempty"`
	Decorations []string `toml:"decorations" msgpack:"decorations,omitempty"`
}

// Param is a function parameter of a "function" call.
type Param struct {
	Name        string   `toml:"name" msgpack:"name"`
	Type        string   `toml:"type" msgpack:"type"`
	Precision   string   `toml:"precision" msgpack:"precision,omitempty"`
	Decorations []string `toml:"decorations" msgpack:"decorations,omitempty"`
	Direction   string   `toml:"direction" msgpack:"direction,omitempty"`
}

// Call is one builder call. Op selects the call and the other fields are its arguments; each op
// reads only the fields it needs.
type Call struct {
	Op string `toml:"op" msgpack:"op"`

	// Name is the declared name of a variable or function, or the gl_* name of a built-in
	// variable. As overrides the name the variable is referred to by in later calls.
	Name string `toml:"name" msgpack:"name,omitempty"`
	As   string `toml:"as" msgpack:"as,omitempty"`
	// Var and Func refer to a declared variable or function.
	Var  string `toml:"var" msgpack:"var,omitempty"`
	Func string `toml:"func" msgpack:"func,omitempty"`
	// Fn names the operator of "unary", "binary" and "builtin" calls, such as "Clamp".
	Fn string `toml:"fn" msgpack:"fn,omitempty"`

	Type        string   `toml:"type" msgpack:"type,omitempty"`
	Precision   string   `toml:"precision" msgpack:"precision,omitempty"`
	Decorations []string `toml:"decorations" msgpack:"decorations,omitempty"`
	Params      []Param  `toml:"params" msgpack:"params,omitempty"`
	Names       []string `toml:"names" msgpack:"names,omitempty"`

	Value      any      `toml:"value" msgpack:"value"`
	Count      int      `toml:"count" msgpack:"count,omitempty"`
	Index      uint32   `toml:"index" msgpack:"index,omitempty"`
	Components []uint32 `toml:"components" msgpack:"components,omitempty"`
	Length     uint32   `toml:"length" msgpack:"length,omitempty"`

	// Texture calls.
	Kind   string `toml:"kind" msgpack:"kind,omitempty"`
	Proj   bool   `toml:"proj" msgpack:"proj,omitempty"`
	Offset bool   `toml:"offset" msgpack:"offset,omitempty"`

	// Void selects the void flavor of the ternary calls.
	Void bool `toml:"void" msgpack:"void,omitempty"`
}

// Load decodes the script at path, picking the format from the file extension.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data, path)
}

// Decode decodes the contents of the script file at path.
func Decode(data []byte, path string) (*Script, error) {
	switch {
	case strings.HasSuffix(path, ExtTOML):
		return DecodeTOML(bytes.NewReader(data), path)
	case strings.HasSuffix(path, ExtMsgpack):
		return DecodeMsgpack(bytes.NewReader(data), path)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
}

// IsScript reports whether path has one of the script extensions.
func IsScript(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(base, ExtTOML) || strings.HasSuffix(base, ExtMsgpack)
}

// DecodeTOML decodes a TOML script. name is only used in error messages.
func DecodeTOML(r io.Reader, name string) (*Script, error) {
	var s Script
	meta, err := toml.NewDecoder(r).Decode(&s)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", name, err)
	}
	if !meta.IsDefined("shader") {
		return nil, fmt.Errorf("%s: %w", name, ErrShaderSectionMissing)
	}
	if !meta.IsDefined("shader", "stage") || strings.TrimSpace(s.Shader.Stage) == "" {
		return nil, fmt.Errorf("%s: missing [shader].stage", name)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %s", name, undecoded[0])
	}
	s.normalize()
	return &s, nil
}

// DecodeMsgpack decodes a script written by EncodeMsgpack.
func DecodeMsgpack(r io.Reader, name string) (*Script, error) {
	var s Script
	if err := msgpack.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("%s: failed to decode msgpack: %w", name, err)
	}
	if strings.TrimSpace(s.Shader.Stage) == "" {
		return nil, fmt.Errorf("%s: %w", name, ErrShaderSectionMissing)
	}
	s.normalize()
	return &s, nil
}

// EncodeMsgpack writes s in the binary script format.
func EncodeMsgpack(w io.Writer, s *Script) error {
	return msgpack.NewEncoder(w).Encode(s)
}

// normalize puts every identifier in NFC so that names spelled with different code point
// sequences refer to the same variable and reach the IR in one form.
func (s *Script) normalize() {
	nfc := norm.NFC.String
	for i := range s.Structs {
		st := &s.Structs[i]
		st.Name = nfc(st.Name)
		for j := range st.Fields {
			st.Fields[j].Name = nfc(st.Fields[j].Name)
			st.Fields[j].Type = nfc(st.Fields[j].Type)
		}
	}
	for i := range s.Calls {
		c := &s.Calls[i]
		c.Name = nfc(c.Name)
		c.As = nfc(c.As)
		c.Var = nfc(c.Var)
		c.Func = nfc(c.Func)
		c.Type = nfc(c.Type)
		for j := range c.Params {
			c.Params[j].Name = nfc(c.Params[j].Name)
			c.Params[j].Type = nfc(c.Params[j].Type)
		}
		for j := range c.Names {
			c.Names[j] = nfc(c.Names[j])
		}
	}
}
