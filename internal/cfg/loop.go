package cfg

import (
	"fmt"

	"github.com/google/angle-sub000/internal/ir"
)

// A while or for loop is built as:
//
//	BeginLoopCondition  <condition>  EndLoopCondition
//	[<continue expression>  EndLoopContinue]
//	<body>  EndLoop
//
// and a do-while loop as:
//
//	BeginDoLoop  <body>  BeginDoLoopCondition  <condition>  EndDoLoop

// BeginLoopCondition ends the current block with Loop and starts the condition block.
func (b *Builder) BeginLoopCondition() {
	b.Terminate(ir.BranchOp(ir.OpLoop))
	b.PushBlock()
}

func (b *Builder) endLoopCondition(condition ir.TypedID) {
	if b.current.dead {
		panic(fmt.Errorf("cfg: control flow in a loop condition"))
	}
	b.current.block.Terminate(ir.LoopIfOp(condition))
	condBlock := b.PopBlock()

	if !b.isDeadInParent() {
		// A variable declared in the condition, as in `while (bool v = f()) { use(v); }`, is
		// visible in the body, so it is declared by the loop itself.
		loop := b.top().block
		loop.Variables = append(loop.Variables, condBlock.Variables...)
		condBlock.Variables = nil
		loop.SetLoopCondition(condBlock)
	}
}

// EndLoopCondition closes the condition block. The continue expression, or else the body, is
// recorded next.
func (b *Builder) EndLoopCondition(condition ir.TypedID) {
	b.endLoopCondition(condition)
	b.mustBeReset("loop body")
}

// EndLoopContinue closes the continue expression of a for loop.
func (b *Builder) EndLoopContinue() {
	if b.current.dead {
		panic(fmt.Errorf("cfg: control flow in a loop continue expression"))
	}
	b.current.block.Terminate(ir.BranchOp(ir.OpContinue))
	cont := b.PopBlock()
	if !b.isDeadInParent() {
		b.top().block.SetBlock2(cont)
	}
}

// EndLoop closes the body and starts the block after the loop. A loop whose condition is
// constant false is removed.
func (b *Builder) EndLoop() {
	b.Terminate(ir.BranchOp(ir.OpContinue))
	body := b.PopBlock()

	if b.isDeadInParent() {
		b.current = b.pop()
		return
	}
	b.mustBeReset("end of loop")

	loop := b.pop()
	cond, isConstant := loop.block.LoopCondition.MergeChainTerminatingOp().LoopCondition().ID.Constant()
	if isConstant && cond == ir.ConstantFalse {
		loop.block.Unterminate()
		b.restore(loop)
		if b.current.block.Block1 != nil {
			panic(fmt.Errorf("cfg: loop body attached before the end of the loop"))
		}
		b.current.block.LoopCondition = nil
		b.current.block.Block2 = nil
		b.fold("fold-loop", "false")
		return
	}

	loop.block.SetBlock1(body)
	b.stack = append(b.stack, loop)
	b.current.isMerge = true
}

// BeginDoLoop ends the current block with DoLoop and starts the body.
func (b *Builder) BeginDoLoop() {
	b.Terminate(ir.BranchOp(ir.OpDoLoop))
	b.PushBlock()
}

// BeginDoLoopCondition closes the body of a do-loop and starts its condition block.
func (b *Builder) BeginDoLoopCondition() {
	if !b.current.block.IsTerminated() {
		b.current.block.Terminate(ir.BranchOp(ir.OpContinue))
	}
	body := b.PopBlock()
	if !b.isDeadInParent() {
		b.top().block.SetBlock1(body)
	}
	b.mustBeReset("do-loop condition")
}

// EndDoLoop closes the condition block and starts the block after the do-loop.
func (b *Builder) EndDoLoop(condition ir.TypedID) {
	b.endLoopCondition(condition)

	if b.isDeadInParent() {
		b.current = b.pop()
		return
	}
	b.mustBeReset("end of do-loop")
	b.current.isMerge = true
}
