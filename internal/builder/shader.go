package builder

import "github.com/google/angle-sub000/internal/ir"

// Global layout qualifiers are only recorded; generators read them from ir.ShaderMeta.

func (b *Builder) SetEarlyFragmentTests(v bool) { b.meta().Shader.EarlyFragmentTests = v }

func (b *Builder) SetAdvancedBlendEquations(v ir.AdvancedBlendEquations) {
	b.meta().Shader.AdvancedBlendEquations = v
}

func (b *Builder) SetTCSVertices(v uint32)                      { b.meta().Shader.TCSVertices = v }
func (b *Builder) SetTESPrimitive(v ir.TessellationPrimitive)   { b.meta().Shader.TESPrimitive = v }
func (b *Builder) SetTESVertexSpacing(v ir.TessellationSpacing) { b.meta().Shader.TESVertexSpacing = v }
func (b *Builder) SetTESOrdering(v ir.TessellationOrdering)     { b.meta().Shader.TESOrdering = v }
func (b *Builder) SetTESPointMode(v bool)                       { b.meta().Shader.TESPointMode = v }
func (b *Builder) SetGSPrimitiveIn(v ir.GeometryPrimitive)      { b.meta().Shader.GSPrimitiveIn = v }
func (b *Builder) SetGSPrimitiveOut(v ir.GeometryPrimitive)     { b.meta().Shader.GSPrimitiveOut = v }
func (b *Builder) SetGSInvocations(v uint32)                    { b.meta().Shader.GSInvocations = v }
func (b *Builder) SetGSMaxVertices(v uint32)                    { b.meta().Shader.GSMaxVertices = v }

func (b *Builder) SetPerVertexInIsRedeclared()  { b.meta().Shader.PerVertexInIsRedeclared = true }
func (b *Builder) SetPerVertexOutIsRedeclared() { b.meta().Shader.PerVertexOutIsRedeclared = true }
