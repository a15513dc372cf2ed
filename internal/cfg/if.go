package cfg

import (
	"fmt"

	"github.com/google/angle-sub000/internal/ir"
)

// BeginIfTrueBlock ends the current block with If(condition) and starts the true block.
func (b *Builder) BeginIfTrueBlock(condition ir.TypedID) {
	b.Terminate(ir.IfOp(condition))
	b.PushBlock()
}

// EndIfTrueBlock closes the true block, passing mergeParam to the merge block if non-nil.
func (b *Builder) EndIfTrueBlock(mergeParam *ir.TypedID) {
	b.endIfBody(mergeParam, (*ir.Block).SetBlock1)
}

// BeginIfFalseBlock starts the false block. The true block is already attached.
func (b *Builder) BeginIfFalseBlock() {
	b.mustBeReset("else")
}

func (b *Builder) EndIfFalseBlock(mergeParam *ir.TypedID) {
	b.endIfBody(mergeParam, (*ir.Block).SetBlock2)
}

func (b *Builder) endIfBody(mergeParam *ir.TypedID, attach func(*ir.Block, *ir.Block)) {
	if !b.current.block.IsTerminated() {
		b.current.block.Terminate(ir.MergeOp(mergeParam))
	} else if b.current.block.TerminatingOp().Kind == ir.OpNextBlock {
		panic(fmt.Errorf("cfg: if branch ends in NextBlock"))
	}
	body := b.PopBlock()
	if !b.isDeadInParent() {
		attach(b.top().block, body)
	}
}

// isNoOpMerge reports whether an if branch is missing or does nothing but merge. Variables
// declared in such a branch are never used and can be dropped with it.
func isNoOpMerge(branch *ir.Block) bool {
	if branch == nil {
		return true
	}
	if len(branch.Instrs) != 1 {
		return false
	}
	op := branch.TerminatingOp()
	return op.Kind == ir.OpMerge && len(op.Operands) == 0
}

// EndIf closes the if and starts the block after it. input, if non-nil, is the merge input
// register receiving the value each branch merges with.
//
// If the condition is constant, the if is replaced by the taken branch. When that branch merges
// with a value, the value is returned and replaces input for the caller.
func (b *Builder) EndIf(input *ir.TypedID) (ir.TypedID, bool) {
	if b.isDeadInParent() {
		b.current = b.pop()
		return ir.TypedID{}, false
	}
	b.mustBeReset("end of if")

	header := b.pop()
	cond, isConstant := header.block.TerminatingOp().IfCondition().ID.Constant()

	switch {
	case isConstant:
		header.block.Unterminate()
		b.restore(header)
		trueBlock, falseBlock := b.current.block.Block1, b.current.block.Block2
		b.current.block.Block1, b.current.block.Block2 = nil, nil
		if cond == ir.ConstantTrue {
			b.fold("fold-if", "true")
			return b.inlineBranch(trueBlock)
		}
		b.fold("fold-if", "false")
		return b.inlineBranch(falseBlock)

	case isNoOpMerge(header.block.Block1) && isNoOpMerge(header.block.Block2):
		header.block.Unterminate()
		b.restore(header)
		b.current.block.Block1, b.current.block.Block2 = nil, nil
		b.fold("elide-if", "")
		return ir.TypedID{}, false

	default:
		b.stack = append(b.stack, header)
		b.current.isMerge = true
		if input != nil {
			r := input.AsRegister()
			b.current.block.Input = &r
		}
		return ir.TypedID{}, false
	}
}

// inlineBranch continues the current block with branch, in place of a folded if. The branch's
// Merge is dropped; its parameter, if any, is returned.
func (b *Builder) inlineBranch(branch *ir.Block) (ir.TypedID, bool) {
	if branch == nil {
		return ir.TypedID{}, false
	}

	b.current.block.Terminate(ir.BranchOp(ir.OpNextBlock))
	b.PushBlock()
	b.restore(inProgress{block: branch, isMerge: true, dead: b.isDeadInParent()})

	last := b.current.block.MergeChainLast()
	op := last.TerminatingOp()
	if op.Kind != ir.OpMerge {
		// The branch returned, broke out or discarded; nothing after the if runs.
		b.current.dead = true
		return ir.TypedID{}, false
	}
	param, ok := op.MergeParameter()
	last.Unterminate()
	return param, ok
}
