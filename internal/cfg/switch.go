package cfg

import (
	"fmt"

	"github.com/google/angle-sub000/internal/ir"
)

// BeginSwitch ends the current block with a Switch on value. Its cases are added by BeginCase
// and BeginDefault.
func (b *Builder) BeginSwitch(value ir.TypedID) {
	b.Terminate(ir.SwitchOp(value))
	b.PushBlock()
}

// BeginCase starts the block of `case value:`. The value must be a constant.
func (b *Builder) BeginCase(value ir.TypedID) {
	c, ok := value.ID.Constant()
	if !ok {
		panic(fmt.Errorf("cfg: switch case label %s is not a constant", value.ID))
	}
	b.beginCase(ir.SwitchCase{Value: c})
}

// BeginDefault starts the block of `default:`.
func (b *Builder) BeginDefault() {
	b.beginCase(ir.SwitchCase{IsDefault: true})
}

func (b *Builder) beginCase(c ir.SwitchCase) {
	if b.isDeadInParent() {
		return
	}
	b.endPreviousCase()
	b.top().block.TerminatingOp().AddSwitchCase(c)
}

// endPreviousCase attaches the block of the case before the one starting. A case that does
// not end in a branch falls through to the next one.
func (b *Builder) endPreviousCase() {
	if b.isDeadInParent() {
		return
	}
	if len(b.top().block.TerminatingOp().Cases) == 0 {
		return
	}

	if !b.current.block.IsTerminated() {
		b.current.block.Terminate(ir.BranchOp(ir.OpPassthrough))
	}
	caseBlock := b.PopBlock()
	if b.isDeadInParent() {
		return
	}
	// GLSL allows a variable declared in one case to be used in a later one, so it is declared
	// by the switch itself.
	sw := b.top().block
	sw.Variables = append(sw.Variables, caseBlock.Variables...)
	caseBlock.Variables = nil
	sw.Cases = append(sw.Cases, caseBlock)
}

// matchingCase finds the case a constant selector jumps to. found is false if the switch
// cannot run any case; index is -1 when the selector is not a constant.
func matchingCase(sw *ir.Block) (index int, found bool) {
	op := sw.TerminatingOp()
	if len(op.Cases) == 0 {
		return -1, false
	}
	selector, ok := op.SwitchValue().ID.Constant()
	if !ok {
		return -1, true
	}
	def := -1
	for i, c := range op.Cases {
		if !c.IsDefault && c.Value == selector {
			return i, true
		}
		if c.IsDefault && def < 0 {
			def = i
		}
	}
	return def, def >= 0
}

// EndSwitch closes the last case and starts the block after the switch.
//
// A switch without cases, or with a constant selector no case matches, is removed. With a
// constant selector that does match, only the matching case and the cases it falls through
// to are kept, chained one after the other.
func (b *Builder) EndSwitch() {
	b.endPreviousCase()

	if b.isDeadInParent() {
		b.current = b.pop()
		return
	}
	b.mustBeReset("end of switch")

	sw := b.pop()

	// Falling off the last case leaves the switch, which is a Break rather than a Passthrough.
	if n := len(sw.block.Cases); n > 0 {
		last := sw.block.Cases[n-1].MergeChainLast()
		if last.TerminatingOp().Kind == ir.OpPassthrough {
			last.Unterminate()
			last.Terminate(ir.BranchOp(ir.OpBreak))
		}
	}

	index, found := matchingCase(sw.block)
	if !found {
		sw.block.Cases = nil
		sw.block.Unterminate()
		b.restore(sw)
		b.fold("fold-switch", "removed")
		return
	}

	if index >= 0 {
		cases := sw.block.Cases
		matching := cases[index]
		chainLast := matching.MergeChainLast()
		for _, next := range cases[index+1:] {
			if chainLast.TerminatingOp().Kind != ir.OpPassthrough {
				break
			}
			chainLast.Unterminate()
			chainLast.Terminate(ir.BranchOp(ir.OpNextBlock))
			chainLast.SetMerge(next)
			chainLast = chainLast.MergeChainLast()
		}

		op := sw.block.TerminatingOp()
		label := op.Cases[index]
		selector := op.SwitchValue()
		sw.block.Unterminate()
		sw.block.Terminate(ir.Op{Kind: ir.OpSwitch, Operands: []ir.TypedID{selector}, Cases: []ir.SwitchCase{label}})
		sw.block.Cases = []*ir.Block{matching}
		b.fold("fold-switch", fmt.Sprintf("case %d", index))
	}

	b.stack = append(b.stack, sw)
	b.current.isMerge = true
}
