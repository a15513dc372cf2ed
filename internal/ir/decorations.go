package ir

import (
	"fmt"
	"strings"
)

// DecorationKind enumerates variable and field decorations.
type DecorationKind uint8

const (
	DecorationInvariant DecorationKind = iota
	DecorationPrecise
	DecorationInterpolant
	DecorationSmooth
	DecorationFlat
	DecorationNoPerspective
	DecorationCentroid
	DecorationSample
	DecorationPatch
	DecorationShared
	DecorationReadOnly
	DecorationWriteOnly
	DecorationCoherent
	DecorationRestrict
	DecorationVolatile
	DecorationUniform
	DecorationBuffer
	DecorationPushConstant
	DecorationNonCoherent
	DecorationYUV
	DecorationInput
	DecorationOutput
	DecorationInputOutput
	DecorationLocation
	DecorationIndex
	DecorationInputAttachmentIndex
	DecorationSpecConst
	DecorationBlock
	DecorationBinding
	DecorationOffset
	DecorationMatrixPacking
	DecorationDepth
	DecorationImageInternalFormat
	DecorationNumViews
	DecorationRasterOrdered
)

var decorationNames = [...]string{
	DecorationInvariant:            "invariant",
	DecorationPrecise:              "precise",
	DecorationInterpolant:          "interpolant",
	DecorationSmooth:               "smooth",
	DecorationFlat:                 "flat",
	DecorationNoPerspective:        "noperspective",
	DecorationCentroid:             "centroid",
	DecorationSample:               "sample",
	DecorationPatch:                "patch",
	DecorationShared:               "shared",
	DecorationReadOnly:             "readonly",
	DecorationWriteOnly:            "writeonly",
	DecorationCoherent:             "coherent",
	DecorationRestrict:             "restrict",
	DecorationVolatile:             "volatile",
	DecorationUniform:              "uniform",
	DecorationBuffer:               "buffer",
	DecorationPushConstant:         "push_constant",
	DecorationNonCoherent:          "noncoherent",
	DecorationYUV:                  "yuv",
	DecorationInput:                "in",
	DecorationOutput:               "out",
	DecorationInputOutput:          "inout",
	DecorationLocation:             "location",
	DecorationIndex:                "index",
	DecorationInputAttachmentIndex: "input_attachment_index",
	DecorationSpecConst:            "constant_id",
	DecorationBlock:                "block",
	DecorationBinding:              "binding",
	DecorationOffset:               "offset",
	DecorationMatrixPacking:        "matrix_packing",
	DecorationDepth:                "depth",
	DecorationImageInternalFormat:  "format",
	DecorationNumViews:             "num_views",
	DecorationRasterOrdered:        "raster_ordered",
}

func (k DecorationKind) String() string {
	if int(k) < len(decorationNames) {
		return decorationNames[k]
	}
	return fmt.Sprintf("DecorationKind(%d)", k)
}

// ParseDecorationKind maps the spelling produced by String back to the kind.
func ParseDecorationKind(s string) (DecorationKind, bool) {
	for i, n := range decorationNames {
		if n == s {
			return DecorationKind(i), true
		}
	}
	return 0, false
}

// HasValue reports whether the decoration carries a payload.
func (k DecorationKind) HasValue() bool {
	switch k {
	case DecorationLocation, DecorationIndex, DecorationInputAttachmentIndex, DecorationSpecConst,
		DecorationBlock, DecorationBinding, DecorationOffset, DecorationMatrixPacking,
		DecorationDepth, DecorationImageInternalFormat, DecorationNumViews:
		return true
	default:
		return false
	}
}

// BlockStorage is the payload of DecorationBlock.
type BlockStorage uint32

const (
	BlockStorageShared BlockStorage = iota
	BlockStoragePacked
	BlockStorageStd140
	BlockStorageStd430
)

// MatrixPacking is the payload of DecorationMatrixPacking.
type MatrixPacking uint32

const (
	ColumnMajor MatrixPacking = iota
	RowMajor
)

// Depth is the payload of DecorationDepth.
type Depth uint32

const (
	DepthAny Depth = iota
	DepthGreater
	DepthLess
	DepthUnchanged
)

// ImageInternalFormat is the payload of DecorationImageInternalFormat.
type ImageInternalFormat uint32

const (
	FormatRGBA32F ImageInternalFormat = iota
	FormatRGBA16F
	FormatR32F
	FormatRGBA32UI
	FormatRGBA16UI
	FormatRGBA8UI
	FormatR32UI
	FormatRGBA32I
	FormatRGBA16I
	FormatRGBA8I
	FormatR32I
	FormatRGBA8
	FormatRGBA8SNORM
)

// Decoration is a single decoration; Value is the payload for kinds that have one.
type Decoration struct {
	Kind  DecorationKind
	Value uint32
}

func (d Decoration) String() string {
	if d.Kind.HasValue() {
		return fmt.Sprintf("%s=%d", d.Kind, d.Value)
	}
	return d.Kind.String()
}

// Decorations is an ordered set of decorations.
type Decorations []Decoration

// Has reports whether a decoration of the given kind is present.
func (d Decorations) Has(kind DecorationKind) bool {
	for _, dec := range d {
		if dec.Kind == kind {
			return true
		}
	}
	return false
}

// Get returns the payload of the first decoration of the given kind.
func (d Decorations) Get(kind DecorationKind) (uint32, bool) {
	for _, dec := range d {
		if dec.Kind == kind {
			return dec.Value, true
		}
	}
	return 0, false
}

func (d *Decorations) add(kind DecorationKind) {
	if !d.Has(kind) {
		*d = append(*d, Decoration{Kind: kind})
	}
}

func (d *Decorations) AddInvariant() { d.add(DecorationInvariant) }
func (d *Decorations) AddPrecise()   { d.add(DecorationPrecise) }

func (d Decorations) String() string {
	parts := make([]string, len(d))
	for i, dec := range d {
		parts[i] = dec.String()
	}
	return strings.Join(parts, " ")
}
