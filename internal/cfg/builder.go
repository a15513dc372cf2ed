// Package cfg assembles the control-flow graph of a function from a depth-first stream of
// begin/end calls.
//
// The builder keeps one current block and a stack of suspended blocks. A block that diverges
// (if, loop, switch) is terminated and pushed; the construct's sub-blocks are built as the new
// current block and popped when complete. When a construct ends, a fresh current block marked
// as a merge block continues the code after it. Popping a merge block walks the stack and
// chains every merge block to its predecessor, so a finished function is one block whose
// Merge links form the straight-line spine of the code.
//
// Constant conditions are folded while the graph is built: if/else with a constant condition
// is replaced by the taken branch, loops whose condition is constant false disappear, and
// switches with a constant selector keep only the cases that can run.
package cfg

import (
	"fmt"

	"github.com/google/angle-sub000/internal/ir"
	"github.com/google/angle-sub000/internal/trace"
)

// inProgress is a block being built.
type inProgress struct {
	block *ir.Block
	// isMerge marks a block continuing after a control-flow construct. When popped, it is chained
	// to the block before it.
	isMerge bool
	// dead is set once the block ends with a Discard, Return, Break or Continue. Anything added
	// after that is unreachable and dropped.
	dead bool
}

func newInProgress() inProgress {
	return inProgress{block: ir.NewBlock()}
}

func (p *inProgress) isReset() bool {
	return p.block.IsEmpty() && !p.isMerge && !p.dead
}

// splitMerge detaches the merge block of p, returning it as a merge block in progress.
func (p *inProgress) splitMerge() (inProgress, bool) {
	merge := p.block.Merge
	if merge == nil {
		return inProgress{}, false
	}
	p.block.Merge = nil
	return inProgress{block: merge, isMerge: true, dead: p.dead}, true
}

// Builder builds the CFG of one function, or of the global initializers.
type Builder struct {
	current inProgress
	stack   []inProgress
	tracer  trace.Tracer
}

func New() *Builder {
	return &Builder{current: newInProgress(), tracer: trace.Nop}
}

// SetTracer routes control-flow folding events to t.
func (b *Builder) SetTracer(t trace.Tracer) {
	if t == nil {
		t = trace.Nop
	}
	b.tracer = t
}

// Clear drops everything built so far.
func (b *Builder) Clear() {
	b.current = newInProgress()
	b.stack = b.stack[:0]
}

// IsEmpty reports whether nothing has been recorded and no construct is open.
func (b *Builder) IsEmpty() bool {
	return b.current.isReset() && len(b.stack) == 0
}

// Depth is the number of suspended blocks.
func (b *Builder) Depth() int {
	return len(b.stack)
}

// IsDeadCode reports whether instructions added now would be unreachable.
func (b *Builder) IsDeadCode() bool {
	return b.current.dead
}

func (b *Builder) isDeadInParent() bool {
	return b.top().dead
}

func (b *Builder) top() *inProgress {
	if len(b.stack) == 0 {
		panic(fmt.Errorf("cfg: no open control-flow construct"))
	}
	return &b.stack[len(b.stack)-1]
}

func (b *Builder) pop() inProgress {
	p := *b.top()
	b.stack[len(b.stack)-1] = inProgress{}
	b.stack = b.stack[:len(b.stack)-1]
	return p
}

func (b *Builder) mustBeReset(what string) {
	if !b.current.isReset() {
		panic(fmt.Errorf("cfg: %s with a non-empty current block", what))
	}
}

func (b *Builder) mustBeTerminated(what string) {
	if !b.current.block.IsTerminated() {
		panic(fmt.Errorf("cfg: %s with an unterminated current block", what))
	}
}

func (b *Builder) fold(name, detail string) {
	trace.Point(b.tracer, trace.ScopeNode, name, detail)
}

// PushBlock suspends the terminated current block and starts a new one.
func (b *Builder) PushBlock() {
	b.mustBeTerminated("push")
	b.stack = append(b.stack, b.current)
	b.current = newInProgress()
}

// PopBlock takes the terminated current block. If it is a merge block, it is chained to the
// suspended block before it, repeatedly, and the head of the chain is returned.
func (b *Builder) PopBlock() *ir.Block {
	b.mustBeTerminated("pop")
	result := b.current
	b.current = newInProgress()

	for result.isMerge {
		parent := b.pop()
		parent.block.SetMerge(result.block)
		result = parent
	}
	return result.block
}

// restore makes p the current block again after a fold. The merge chain hanging off p is split
// back onto the stack so that the builder sees unchained blocks only.
func (b *Builder) restore(p inProgress) {
	b.mustBeReset("restore")
	for {
		merge, ok := p.splitMerge()
		if !ok {
			break
		}
		b.stack = append(b.stack, p)
		p = merge
	}
	b.current = p
}

// Terminate ends the current block with op, unless it is dead code.
func (b *Builder) Terminate(op ir.Op) {
	if !b.current.dead {
		b.current.block.Terminate(op)
	}
}

func (b *Builder) AddVariable(id ir.VariableID) {
	if !b.current.dead {
		b.current.block.AddVariable(id)
	}
}

// AddVoid appends an op without a result. Discard, Return, Break and Continue end the block
// early and make the rest of it dead code.
func (b *Builder) AddVoid(op ir.Op) {
	if b.current.dead {
		return
	}
	switch op.Kind {
	case ir.OpDiscard, ir.OpReturn, ir.OpBreak, ir.OpContinue:
		b.current.dead = true
	}
	b.current.block.AddVoid(op)
}

func (b *Builder) AddRegister(id ir.RegisterID) {
	if !b.current.dead {
		b.current.block.AddRegister(id)
	}
}
