package ir

import "fmt"

// Block is a node of the structured control-flow graph. Every finished block ends in exactly
// one branch. Where that branch leads:
//
//   - Break: the Merge of the innermost loop or switch.
//   - Continue: Block2 of the innermost loop if it has a continue block, otherwise the block
//     evaluating the loop condition (or the body of a do-loop).
//   - Passthrough: the next case block of the innermost switch.
//   - NextBlock: this block's Merge.
//   - Merge: the Merge of the innermost control-flow structure.
//   - If: Block1 when true, Block2 when false, then Merge.
//   - Loop: LoopCondition, then Block1 while true, Block2 as the continue block, then Merge.
//   - DoLoop: like Loop but starts with Block1.
//   - Switch: the matching entry of Cases, else the default case, else Merge.
type Block struct {
	// Variables declared in the scope of this block.
	Variables []VariableID
	// Input is the merge input register, used to carry the value of ?: and short-circuit ops.
	Input *TypedRegister

	Instrs []BlockInstr

	Merge         *Block
	LoopCondition *Block
	Block1        *Block
	Block2        *Block
	Cases         []*Block
}

// NewBlock returns an empty block.
func NewBlock() *Block {
	return &Block{Instrs: make([]BlockInstr, 0, 8)}
}

// IsEmpty reports whether the block holds nothing at all.
func (b *Block) IsEmpty() bool {
	return len(b.Variables) == 0 && b.Input == nil && len(b.Instrs) == 0 && b.Merge == nil &&
		b.LoopCondition == nil && b.Block1 == nil && b.Block2 == nil && len(b.Cases) == 0
}

// SetMerge attaches the block that follows this one.
func (b *Block) SetMerge(m *Block) {
	if b.Merge != nil {
		panic(fmt.Errorf("ir: block already has a merge block"))
	}
	b.Merge = m
}

func (b *Block) SetBlock1(sub *Block) {
	if b.Block1 != nil {
		panic(fmt.Errorf("ir: block already has a first sub-block"))
	}
	b.Block1 = sub
}

func (b *Block) SetBlock2(sub *Block) {
	if b.Block2 != nil {
		panic(fmt.Errorf("ir: block already has a second sub-block"))
	}
	b.Block2 = sub
}

func (b *Block) SetLoopCondition(sub *Block) {
	if b.LoopCondition != nil {
		panic(fmt.Errorf("ir: block already has a loop condition"))
	}
	b.LoopCondition = sub
}

func (b *Block) AddVariable(id VariableID) {
	b.Variables = append(b.Variables, id)
}

// AddVoid appends an op that produces no register.
func (b *Block) AddVoid(op Op) {
	if b.IsTerminated() {
		panic(fmt.Errorf("ir: adding %s to a terminated block", op.Kind))
	}
	b.Instrs = append(b.Instrs, VoidInstr(op))
}

// AddRegister appends a reference to an instruction already registered in Meta.
func (b *Block) AddRegister(id RegisterID) {
	if b.IsTerminated() {
		panic(fmt.Errorf("ir: adding r%d to a terminated block", id))
	}
	b.Instrs = append(b.Instrs, RegisterInstr(id))
}

// IsTerminated reports whether the last entry is a branch.
func (b *Block) IsTerminated() bool {
	if len(b.Instrs) == 0 {
		return false
	}
	return b.Instrs[len(b.Instrs)-1].IsBranch()
}

func (b *Block) Terminate(op Op) {
	b.AddVoid(op)
}

// Unterminate drops the branch at the end of the block.
func (b *Block) Unterminate() {
	if !b.IsTerminated() {
		panic(fmt.Errorf("ir: unterminating a block without a branch"))
	}
	b.Instrs = b.Instrs[:len(b.Instrs)-1]
}

// TerminatingOp returns the branch at the end of the block.
func (b *Block) TerminatingOp() *Op {
	if !b.IsTerminated() {
		panic(fmt.Errorf("ir: expected terminated block"))
	}
	return &b.Instrs[len(b.Instrs)-1].Op
}

// MergeChainLast follows Merge links to the end of the chain.
func (b *Block) MergeChainLast() *Block {
	last := b
	for last.Merge != nil {
		last = last.Merge
	}
	return last
}

// MergeChainTerminatingOp is the branch ending the merge chain starting at b.
func (b *Block) MergeChainTerminatingOp() *Op {
	return b.MergeChainLast().TerminatingOp()
}

// ForEachSubBlock visits the loop condition, Block1, Block2 and the cases, but not Merge.
func (b *Block) ForEachSubBlock(fn func(*Block)) {
	if b.LoopCondition != nil {
		fn(b.LoopCondition)
	}
	if b.Block1 != nil {
		fn(b.Block1)
	}
	if b.Block2 != nil {
		fn(b.Block2)
	}
	for _, c := range b.Cases {
		fn(c)
	}
}

// Walk visits b, its sub-blocks and its merge chain, depth first.
func (b *Block) Walk(fn func(*Block)) {
	for cur := b; cur != nil; cur = cur.Merge {
		fn(cur)
		cur.ForEachSubBlock(func(sub *Block) { sub.Walk(fn) })
	}
}
