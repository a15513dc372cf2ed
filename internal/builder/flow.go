package builder

import (
	"github.com/google/angle-sub000/internal/instruction"
	"github.com/google/angle-sub000/internal/ir"
)

// An if statement is built as:
//
//	<condition>  BeginIfTrueBlock  <true>  EndIfTrueBlock
//	[BeginIfFalseBlock  <false>  EndIfFalseBlock]
//	EndIf

func (b *Builder) BeginIfTrueBlock() {
	condition := b.load()
	b.scope().BeginIfTrueBlock(condition)
}

func (b *Builder) EndIfTrueBlock() {
	b.scope().EndIfTrueBlock(nil)
}

func (b *Builder) BeginIfFalseBlock() {
	b.scope().BeginIfFalseBlock()
}

func (b *Builder) EndIfFalseBlock() {
	b.scope().EndIfFalseBlock(nil)
}

func (b *Builder) EndIf() {
	b.scope().EndIf(nil)
}

// A ternary is built like an if, each branch merging with its value:
//
//	<condition>  BeginTernaryTrueExpression  <true>  EndTernaryTrueExpression
//	BeginTernaryFalseExpression  <false>  EndTernaryFalseExpression
//	EndTernary
//
// The result is the input register of the merge block, or the value of the taken branch when the
// condition is constant. Ternaries of type void use the Void variants, which leave no value.

func (b *Builder) BeginTernaryTrueExpression() {
	b.BeginIfTrueBlock()
}

func (b *Builder) EndTernaryTrueExpression() {
	value := b.load()
	b.scope().EndIfTrueBlock(&value)
	b.push(ir.FromRegister(instruction.MergeInput(b.meta(), value.Type, value.Precision)))
}

func (b *Builder) EndTernaryTrueExpressionVoid() {
	b.EndIfTrueBlock()
}

func (b *Builder) BeginTernaryFalseExpression() {
	b.BeginIfFalseBlock()
}

// EndTernaryFalseExpression merges with the false value. The result takes the higher precision
// of the two branches.
func (b *Builder) EndTernaryFalseExpression() {
	value := b.load()
	b.scope().EndIfFalseBlock(&value)

	result := b.top()
	result.Precision = instruction.HigherPrecision(result.Precision, value.Precision)
	b.meta().Instruction(result.ID.Register()).Result.Precision = result.Precision
}

func (b *Builder) EndTernaryFalseExpressionVoid() {
	b.EndIfFalseBlock()
}

func (b *Builder) EndTernary() {
	input := b.pop()
	result := input
	if folded, ok := b.scope().EndIf(&input); ok {
		result.ID = folded.ID
	}
	b.push(result)
}

func (b *Builder) EndTernaryVoid() {
	b.EndIf()
}

// `a || b` is built as `a ? true : b`:
//
//	<a>  BeginShortCircuitOr  <b>  EndShortCircuitOr
func (b *Builder) BeginShortCircuitOr() {
	b.BeginTernaryTrueExpression()
	b.PushConstantBool(true)
	b.EndTernaryTrueExpression()
	b.BeginTernaryFalseExpression()
}

func (b *Builder) EndShortCircuitOr() {
	b.EndTernaryFalseExpression()
	b.EndTernary()
}

// `a && b` is built as `a ? b : false`:
//
//	<a>  BeginShortCircuitAnd  <b>  EndShortCircuitAnd
func (b *Builder) BeginShortCircuitAnd() {
	b.BeginTernaryTrueExpression()
}

func (b *Builder) EndShortCircuitAnd() {
	b.EndTernaryTrueExpression()
	b.BeginTernaryFalseExpression()
	b.PushConstantBool(false)
	b.EndTernaryFalseExpression()
	b.EndTernary()
}

// Loops:
//
//	while: BeginLoopCondition <condition> EndLoopCondition <body> EndLoop
//	for:   <init> BeginLoopCondition <condition> EndLoopCondition <continue> EndLoopContinue <body> EndLoop
//	do:    BeginDoLoop <body> BeginDoLoopCondition <condition> EndDoLoop

func (b *Builder) BeginLoopCondition() {
	b.scope().BeginLoopCondition()
}

func (b *Builder) EndLoopCondition() {
	condition := b.load()
	b.scope().EndLoopCondition(condition)
}

func (b *Builder) EndLoopContinue() {
	b.scope().EndLoopContinue()
}

func (b *Builder) EndLoop() {
	b.scope().EndLoop()
}

func (b *Builder) BeginDoLoop() {
	b.scope().BeginDoLoop()
}

func (b *Builder) BeginDoLoopCondition() {
	b.scope().BeginDoLoopCondition()
}

func (b *Builder) EndDoLoop() {
	condition := b.load()
	b.scope().EndDoLoop(condition)
}

// A switch is built as:
//
//	<selector> BeginSwitch (<label> BeginCase | BeginDefault) <statements> ... EndSwitch

func (b *Builder) BeginSwitch() {
	value := b.load()
	b.scope().BeginSwitch(value)
}

func (b *Builder) BeginCase() {
	value := b.load()
	b.scope().BeginCase(value)
}

func (b *Builder) BeginDefault() {
	b.scope().BeginDefault()
}

func (b *Builder) EndSwitch() {
	b.scope().EndSwitch()
}

// Branches.

func (b *Builder) BranchDiscard() {
	b.addInstruction(instruction.Discard())
}

func (b *Builder) BranchReturn() {
	b.addInstruction(instruction.Return(nil))
}

func (b *Builder) BranchReturnValue() {
	value := b.load()
	b.addInstruction(instruction.Return(&value))
}

func (b *Builder) BranchBreak() {
	b.addInstruction(instruction.Break())
}

func (b *Builder) BranchContinue() {
	b.addInstruction(instruction.Continue())
}
