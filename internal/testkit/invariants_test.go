package testkit

import (
	"strings"
	"testing"

	"github.com/google/angle-sub000/internal/ir"
)

func newIR(entry *ir.Block) *ir.IR {
	out := ir.New(ir.ShaderFragment)
	id := out.AddFunction(ir.NewFunction("main", nil, out.Meta.BasicTypeID(ir.BasicVoid), ir.PrecisionNone, nil))
	out.SetFunctionEntry(id, entry)
	return out
}

func terminated(kind ir.OpKind) *ir.Block {
	b := ir.NewBlock()
	b.Terminate(ir.BranchOp(kind))
	return b
}

func TestCheckIRAcceptsStructuredIf(t *testing.T) {
	entry := ir.NewBlock()
	entry.Terminate(ir.IfOp(ir.TypedID{}))
	entry.SetBlock1(terminated(ir.OpMerge))
	entry.SetMerge(terminated(ir.OpReturn))
	if err := CheckIR(newIR(entry)); err != nil {
		t.Fatalf("CheckIR: %v", err)
	}
}

func TestCheckIRRejects(t *testing.T) {
	tests := []struct {
		name  string
		entry func() *ir.Block
		want  string
	}{
		{
			name:  "break outside loop",
			entry: func() *ir.Block { return terminated(ir.OpBreak) },
			want:  "Break outside",
		},
		{
			name:  "merge at function level",
			entry: func() *ir.Block { return terminated(ir.OpMerge) },
			want:  "Merge outside",
		},
		{
			name:  "next block without merge",
			entry: func() *ir.Block { return terminated(ir.OpNextBlock) },
			want:  "NextBlock without",
		},
		{
			name: "if without branches",
			entry: func() *ir.Block {
				b := ir.NewBlock()
				b.Terminate(ir.IfOp(ir.TypedID{}))
				return b
			},
			want: "If without branches",
		},
		{
			name: "shared block",
			entry: func() *ir.Block {
				shared := terminated(ir.OpMerge)
				b := ir.NewBlock()
				b.Terminate(ir.IfOp(ir.TypedID{}))
				b.SetBlock1(shared)
				b.SetBlock2(shared)
				return b
			},
			want: "more than one parent",
		},
		{
			name: "loop condition without LoopIf",
			entry: func() *ir.Block {
				b := terminated(ir.OpLoop)
				b.SetLoopCondition(terminated(ir.OpNextBlock))
				b.SetBlock1(terminated(ir.OpContinue))
				return b
			},
			want: "loop condition ends in",
		},
		{
			name: "return with sub-blocks",
			entry: func() *ir.Block {
				b := terminated(ir.OpReturn)
				b.SetBlock1(terminated(ir.OpMerge))
				return b
			},
			want: "with sub-blocks",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckIR(newIR(tt.entry()))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("CheckIR = %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestCheckIRLoopContext(t *testing.T) {
	loop := terminated(ir.OpLoop)
	cond := ir.NewBlock()
	cond.Terminate(ir.LoopIfOp(ir.TypedID{}))
	loop.SetLoopCondition(cond)
	body := ir.NewBlock()
	body.Terminate(ir.IfOp(ir.TypedID{}))
	body.SetBlock1(terminated(ir.OpBreak))
	body.SetMerge(terminated(ir.OpContinue))
	loop.SetBlock1(body)
	loop.SetMerge(terminated(ir.OpReturn))

	if err := CheckIR(newIR(loop)); err != nil {
		t.Fatalf("CheckIR: %v", err)
	}
}
