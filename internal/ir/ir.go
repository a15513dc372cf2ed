package ir

import "fmt"

// IR is a shader: the Meta store plus the entry block of every function. A nil entry means
// the function was declared but has no body in the final IR.
type IR struct {
	Meta    *Meta
	Entries []*Block
}

func New(shaderType ShaderType) *IR {
	return &IR{Meta: NewMeta(shaderType), Entries: make([]*Block, 0, 20)}
}

// AddFunction declares a function; its body is attached later with SetFunctionEntry.
func (ir *IR) AddFunction(f Function) FunctionID {
	id := ir.Meta.AddFunction(f)
	if int(id) != len(ir.Entries) {
		panic(fmt.Errorf("ir: function table out of sync with entries"))
	}
	ir.Entries = append(ir.Entries, nil)
	return id
}

func (ir *IR) SetFunctionEntry(id FunctionID, entry *Block) {
	if ir.Entries[id] != nil {
		panic(fmt.Errorf("ir: function f%d already has a body", id))
	}
	ir.Entries[id] = entry
}

// Entry returns the entry block of a function, or nil.
func (ir *IR) Entry(id FunctionID) *Block {
	return ir.Entries[id]
}

// PrependToMain runs entry before the body of main(). The merge chain of entry must end in
// NextBlock.
func (ir *IR) PrependToMain(entry *Block) {
	mainID, ok := ir.Meta.MainFunction()
	if !ok {
		panic(fmt.Errorf("ir: no main() to prepend to"))
	}
	last := entry.MergeChainLast()
	if op := last.TerminatingOp(); op.Kind != OpNextBlock {
		panic(fmt.Errorf("ir: prepended code ends in %s, expected NextBlock", op.Kind))
	}
	last.SetMerge(ir.Entries[mainID])
	ir.Entries[mainID] = entry
}

// Stats summarizes the size of the IR.
type Stats struct {
	Functions    int
	Blocks       int
	Instructions int
	Constants    int
	Variables    int
}

func (ir *IR) Stats() Stats {
	s := Stats{
		Constants: len(ir.Meta.constants),
		Variables: len(ir.Meta.variables),
	}
	for _, entry := range ir.Entries {
		if entry == nil {
			continue
		}
		s.Functions++
		entry.Walk(func(b *Block) {
			s.Blocks++
			s.Instructions += len(b.Instrs)
		})
	}
	return s
}
