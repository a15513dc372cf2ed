package testkit

import (
	"errors"
	"fmt"

	"fortio.org/safecast"

	"github.com/google/angle-sub000/internal/ir"
)

// chainRole says how a merge chain hangs off its parent block, which decides the branches the
// chain may end in.
type chainRole uint8

const (
	roleEntry chainRole = iota
	roleIfBranch
	roleLoopCondition
	roleLoopBody
	roleLoopContinue
	roleCase
)

type walkContext struct {
	role      chainRole
	inLoop    bool
	breakable bool
}

type irChecker struct {
	ir        *ir.IR
	registers uint32
	seen      map[*ir.Block]struct{}
	defined   map[ir.RegisterID]struct{}
	errs      []error
	blockN    int
}

// CheckIR runs the structural invariants of finished IR that ir.Validate leaves out:
// 1) every block is reachable from exactly one parent, so the CFG is a tree of merge chains
// 2) every register appears in at most one block entry, under its own id
// 3) structured branches carry the sub-blocks they need (If, Loop, DoLoop, Switch, NextBlock)
// 4) Merge, LoopIf, Passthrough, Break and Continue only end chains where they can land
func CheckIR(out *ir.IR) error {
	if out == nil {
		return fmt.Errorf("nil ir")
	}
	n, err := safecast.Conv[uint32](len(out.Meta.Instructions()))
	if err != nil {
		return fmt.Errorf("instruction count overflow: %w", err)
	}
	c := &irChecker{
		ir:        out,
		registers: n,
		seen:      make(map[*ir.Block]struct{}),
		defined:   make(map[ir.RegisterID]struct{}),
	}
	for i, entry := range out.Entries {
		if entry == nil {
			continue
		}
		before := len(c.errs)
		c.walkChain(entry, walkContext{role: roleEntry})
		for j := before; j < len(c.errs); j++ {
			c.errs[j] = fmt.Errorf("function f%d: %w", i, c.errs[j])
		}
	}
	return errors.Join(c.errs...)
}

func (c *irChecker) fail(format string, args ...any) {
	c.errs = append(c.errs, fmt.Errorf(format, args...))
}

func (c *irChecker) walkChain(head *ir.Block, ctx walkContext) {
	for b := head; b != nil; b = b.Merge {
		what := fmt.Sprintf("block %d", c.blockN)
		c.blockN++
		if _, ok := c.seen[b]; ok {
			c.fail("%s: reachable from more than one parent", what)
			return
		}
		c.seen[b] = struct{}{}
		c.checkRegisters(b, what)
		if !b.IsTerminated() {
			// ir.Validate reports it.
			continue
		}
		c.checkTerminator(b, b.TerminatingOp(), ctx, what)
	}
}

func (c *irChecker) checkRegisters(b *ir.Block, what string) {
	for i := range b.Instrs {
		entry := &b.Instrs[i]
		if !entry.IsRegister {
			continue
		}
		id := entry.Register
		if uint32(id) >= c.registers {
			c.fail("%s: register r%d out of range", what, id)
			continue
		}
		if _, ok := c.defined[id]; ok {
			c.fail("%s: register r%d is in more than one block entry", what, id)
		}
		c.defined[id] = struct{}{}
		if got := c.ir.Meta.Instruction(id).Result.ID; got != id {
			c.fail("%s: register r%d holds the result of r%d", what, id, got)
		}
	}
}

func (c *irChecker) checkTerminator(b *ir.Block, op *ir.Op, ctx walkContext, what string) {
	structured := false
	switch op.Kind {
	case ir.OpMerge:
		if ctx.role != roleIfBranch {
			c.fail("%s: Merge outside of an if branch", what)
		}
	case ir.OpLoopIf:
		if ctx.role != roleLoopCondition {
			c.fail("%s: LoopIf outside of a loop condition", what)
		}
	case ir.OpPassthrough:
		if ctx.role != roleCase {
			c.fail("%s: Passthrough outside of a switch case", what)
		}
	case ir.OpBreak:
		if !ctx.breakable {
			c.fail("%s: Break outside of a loop or switch", what)
		}
	case ir.OpContinue:
		if !ctx.inLoop {
			c.fail("%s: Continue outside of a loop", what)
		}
	case ir.OpNextBlock:
		if b.Merge == nil {
			c.fail("%s: NextBlock without a merge block", what)
		}
	case ir.OpIf:
		structured = true
		if b.Block1 == nil && b.Block2 == nil {
			c.fail("%s: If without branches", what)
		}
		if b.LoopCondition != nil || len(b.Cases) > 0 {
			c.fail("%s: If with loop or switch sub-blocks", what)
		}
		branch := walkContext{role: roleIfBranch, inLoop: ctx.inLoop, breakable: ctx.breakable}
		if b.Block1 != nil {
			c.walkChain(b.Block1, branch)
		}
		if b.Block2 != nil {
			c.walkChain(b.Block2, branch)
		}
	case ir.OpLoop, ir.OpDoLoop:
		structured = true
		if b.LoopCondition == nil || b.Block1 == nil {
			c.fail("%s: %s without a condition or body", what, op.Kind)
			break
		}
		if op.Kind == ir.OpDoLoop && b.Block2 != nil {
			c.fail("%s: DoLoop with a continue block", what)
		}
		c.walkChain(b.LoopCondition, walkContext{role: roleLoopCondition})
		if last := b.LoopCondition.MergeChainLast(); last.IsTerminated() && last.TerminatingOp().Kind != ir.OpLoopIf {
			c.fail("%s: loop condition ends in %s", what, last.TerminatingOp().Kind)
		}
		c.walkChain(b.Block1, walkContext{role: roleLoopBody, inLoop: true, breakable: true})
		if b.Block2 != nil {
			c.walkChain(b.Block2, walkContext{role: roleLoopContinue, inLoop: true, breakable: true})
		}
	case ir.OpSwitch:
		structured = true
		if len(b.Cases) != len(op.Cases) {
			c.fail("%s: switch has %d case blocks for %d labels", what, len(b.Cases), len(op.Cases))
		}
		for _, cb := range b.Cases {
			c.walkChain(cb, walkContext{role: roleCase, inLoop: ctx.inLoop, breakable: true})
		}
	}
	if !structured && (b.Block1 != nil || b.Block2 != nil || b.LoopCondition != nil || len(b.Cases) > 0) {
		c.fail("%s: %s with sub-blocks", what, op.Kind)
	}
}
