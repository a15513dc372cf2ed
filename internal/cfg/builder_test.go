package cfg

import (
	"testing"

	"github.com/google/angle-sub000/internal/ir"
)

type fixture struct {
	t *testing.T
	m *ir.Meta
	b *Builder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{t: t, m: ir.NewMeta(ir.ShaderFragment), b: New()}
}

// reg records a new bool register in the current block.
func (f *fixture) reg() ir.TypedID {
	r := f.m.NewRegister(ir.Op{Kind: ir.OpLoad}, ir.TypeBool, ir.PrecisionNone)
	f.b.AddRegister(r.ID)
	return ir.FromRegister(r)
}

// finish returns from the function and takes its entry block.
func (f *fixture) finish() *ir.Block {
	f.t.Helper()
	f.b.AddVoid(ir.ReturnOp(nil))
	entry := f.b.PopBlock()
	if !f.b.IsEmpty() {
		f.t.Fatalf("builder not empty after popping the entry block (depth %d)", f.b.Depth())
	}
	return entry
}

func boolConst(v bool) ir.TypedID {
	if v {
		return ir.FromConstant(ir.ConstantTrue, ir.TypeBool)
	}
	return ir.FromConstant(ir.ConstantFalse, ir.TypeBool)
}

func registers(b *ir.Block) []ir.RegisterID {
	var out []ir.RegisterID
	for _, instr := range b.Instrs {
		if instr.IsRegister {
			out = append(out, instr.Register)
		}
	}
	return out
}

func assertRegisters(t *testing.T, b *ir.Block, want ...ir.TypedID) {
	t.Helper()
	got := registers(b)
	if len(got) != len(want) {
		t.Fatalf("block has registers %v, want %d of them", got, len(want))
	}
	for i, w := range want {
		if got[i] != w.ID.Register() {
			t.Errorf("register %d = r%d, want r%d", i, got[i], w.ID.Register())
		}
	}
}

func assertTerminator(t *testing.T, b *ir.Block, kind ir.OpKind) {
	t.Helper()
	if !b.IsTerminated() {
		t.Fatalf("block is not terminated")
	}
	if got := b.TerminatingOp().Kind; got != kind {
		t.Fatalf("terminator = %s, want %s", got, kind)
	}
}

func TestEmptyAndClear(t *testing.T) {
	f := newFixture(t)
	if !f.b.IsEmpty() {
		t.Fatalf("new builder is not empty")
	}
	f.reg()
	f.b.BeginIfTrueBlock(f.reg())
	if f.b.IsEmpty() {
		t.Fatalf("builder with an open if reports empty")
	}
	f.b.Clear()
	if !f.b.IsEmpty() {
		t.Fatalf("cleared builder is not empty")
	}
}

func TestIfTrueKeepsOnlyTrueBranch(t *testing.T) {
	f := newFixture(t)
	before := f.reg()
	f.b.BeginIfTrueBlock(boolConst(true))
	inTrue := f.reg()
	f.b.EndIfTrueBlock(nil)
	f.b.BeginIfFalseBlock()
	f.reg()
	f.b.EndIfFalseBlock(nil)
	if _, ok := f.b.EndIf(nil); ok {
		t.Fatalf("if without merge value returned one")
	}
	entry := f.finish()

	assertRegisters(t, entry, before)
	assertTerminator(t, entry, ir.OpNextBlock)
	if entry.Block1 != nil || entry.Block2 != nil {
		t.Fatalf("folded if kept its branches")
	}
	if entry.Merge == nil {
		t.Fatalf("true branch was not inlined")
	}
	assertRegisters(t, entry.Merge, inTrue)
	assertTerminator(t, entry.Merge, ir.OpReturn)
}

func TestIfFalseWithoutElseLeavesNoTrace(t *testing.T) {
	f := newFixture(t)
	before := f.reg()
	f.b.BeginIfTrueBlock(boolConst(false))
	f.reg()
	f.b.EndIfTrueBlock(nil)
	f.b.EndIf(nil)
	entry := f.finish()

	assertRegisters(t, entry, before)
	assertTerminator(t, entry, ir.OpReturn)
	if entry.Merge != nil || entry.Block1 != nil {
		t.Fatalf("if (false) left blocks behind")
	}
}

func TestEmptyIfIsElided(t *testing.T) {
	f := newFixture(t)
	cond := f.reg()
	f.b.BeginIfTrueBlock(cond)
	f.b.EndIfTrueBlock(nil)
	f.b.BeginIfFalseBlock()
	f.b.EndIfFalseBlock(nil)
	f.b.EndIf(nil)
	entry := f.finish()

	assertRegisters(t, entry, cond)
	assertTerminator(t, entry, ir.OpReturn)
}

func TestIfKeepsMergeInput(t *testing.T) {
	f := newFixture(t)
	cond := f.reg()
	f.b.BeginIfTrueBlock(cond)
	a := f.reg()
	f.b.EndIfTrueBlock(&a)
	f.b.BeginIfFalseBlock()
	c := f.reg()
	f.b.EndIfFalseBlock(&c)
	input := ir.FromRegister(f.m.NewRegister(ir.BranchOp(ir.OpMergeInput), ir.TypeBool, ir.PrecisionNone))
	if _, ok := f.b.EndIf(&input); ok {
		t.Fatalf("non-constant if returned a folded value")
	}
	entry := f.finish()

	assertTerminator(t, entry, ir.OpIf)
	assertTerminator(t, entry.Block1, ir.OpMerge)
	assertTerminator(t, entry.Block2, ir.OpMerge)
	if entry.Merge == nil || entry.Merge.Input == nil {
		t.Fatalf("merge block has no input")
	}
	if entry.Merge.Input.ID != input.ID.Register() {
		t.Errorf("merge input = r%d, want r%d", entry.Merge.Input.ID, input.ID.Register())
	}
}

func TestConstantTernaryReturnsBranchValue(t *testing.T) {
	f := newFixture(t)
	f.b.BeginIfTrueBlock(boolConst(false))
	a := f.reg()
	f.b.EndIfTrueBlock(&a)
	f.b.BeginIfFalseBlock()
	c := f.reg()
	f.b.EndIfFalseBlock(&c)
	input := ir.FromRegister(f.m.NewRegister(ir.BranchOp(ir.OpMergeInput), ir.TypeBool, ir.PrecisionNone))
	got, ok := f.b.EndIf(&input)
	if !ok {
		t.Fatalf("constant ternary did not return its value")
	}
	if got.ID != c.ID {
		t.Errorf("folded value = %s, want %s", got.ID, c.ID)
	}
	entry := f.finish()
	assertRegisters(t, entry.Merge, c)
}

func TestDeadCodeAfterReturn(t *testing.T) {
	f := newFixture(t)
	first := f.reg()
	f.b.AddVoid(ir.ReturnOp(nil))
	if !f.b.IsDeadCode() {
		t.Fatalf("block is not dead after return")
	}
	f.reg()
	f.b.AddVariable(0)
	f.b.BeginIfTrueBlock(f.reg())
	f.reg()
	f.b.EndIfTrueBlock(nil)
	f.b.EndIf(nil)
	f.b.AddVoid(ir.BranchOp(ir.OpDiscard))

	entry := f.b.PopBlock()
	if !f.b.IsEmpty() {
		t.Fatalf("builder not empty")
	}
	assertRegisters(t, entry, first)
	assertTerminator(t, entry, ir.OpReturn)
	if len(entry.Variables) != 0 || entry.Block1 != nil {
		t.Fatalf("dead code reached the block")
	}
}

func TestBreakInFoldedIfKillsRestOfBody(t *testing.T) {
	f := newFixture(t)
	f.b.BeginLoopCondition()
	cond := f.reg()
	f.b.EndLoopCondition(cond)

	f.b.BeginIfTrueBlock(boolConst(true))
	f.b.AddVoid(ir.BranchOp(ir.OpBreak))
	f.b.EndIfTrueBlock(nil)
	f.b.EndIf(nil)
	if !f.b.IsDeadCode() {
		t.Fatalf("code after an inlined break is not dead")
	}
	f.reg()
	f.b.EndLoop()
	entry := f.finish()

	assertTerminator(t, entry, ir.OpLoop)
	body := entry.Block1
	assertTerminator(t, body, ir.OpNextBlock)
	if body.Merge == nil {
		t.Fatalf("break was not inlined")
	}
	if len(body.Merge.Instrs) != 1 {
		t.Fatalf("body after break has %d entries, want 1", len(body.Merge.Instrs))
	}
	assertTerminator(t, body.Merge, ir.OpBreak)
}

func TestWhileFalseIsRemoved(t *testing.T) {
	f := newFixture(t)
	before := f.reg()
	f.b.BeginLoopCondition()
	f.b.EndLoopCondition(boolConst(false))
	f.reg()
	f.b.EndLoop()
	entry := f.finish()

	assertRegisters(t, entry, before)
	assertTerminator(t, entry, ir.OpReturn)
	if entry.LoopCondition != nil || entry.Block1 != nil || entry.Block2 != nil {
		t.Fatalf("while (false) left blocks behind")
	}
}

func TestForLoopStructure(t *testing.T) {
	f := newFixture(t)
	f.b.BeginLoopCondition()
	f.b.AddVariable(7)
	cond := f.reg()
	f.b.EndLoopCondition(cond)
	step := f.reg()
	f.b.EndLoopContinue()
	body := f.reg()
	f.b.EndLoop()
	after := f.reg()
	entry := f.finish()

	assertTerminator(t, entry, ir.OpLoop)
	if len(entry.Variables) != 1 || entry.Variables[0] != 7 {
		t.Errorf("condition variable not hoisted to the loop: %v", entry.Variables)
	}
	if len(entry.LoopCondition.Variables) != 0 {
		t.Errorf("condition block still declares %v", entry.LoopCondition.Variables)
	}
	assertRegisters(t, entry.LoopCondition, cond)
	assertTerminator(t, entry.LoopCondition, ir.OpLoopIf)
	assertRegisters(t, entry.Block2, step)
	assertTerminator(t, entry.Block2, ir.OpContinue)
	assertRegisters(t, entry.Block1, body)
	assertTerminator(t, entry.Block1, ir.OpContinue)
	assertRegisters(t, entry.Merge, after)
}

func TestDoLoopStructure(t *testing.T) {
	f := newFixture(t)
	f.b.BeginDoLoop()
	body := f.reg()
	f.b.BeginDoLoopCondition()
	cond := f.reg()
	f.b.EndDoLoop(cond)
	entry := f.finish()

	assertTerminator(t, entry, ir.OpDoLoop)
	assertRegisters(t, entry.Block1, body)
	assertTerminator(t, entry.Block1, ir.OpContinue)
	assertTerminator(t, entry.LoopCondition, ir.OpLoopIf)
	assertTerminator(t, entry.Merge, ir.OpReturn)
}

// buildSwitch records
//
//	switch (selector) {
//	case 1: a;
//	case 2: b;        // falls through
//	default: c; break;
//	case 3: d;
//	}
func buildSwitch(f *fixture, selector ir.TypedID) (a, b, c, d ir.TypedID) {
	intConst := func(v int32) ir.TypedID { return ir.FromConstant(f.m.ConstantInt(v), ir.TypeInt) }

	f.b.BeginSwitch(selector)
	f.b.BeginCase(intConst(1))
	a = f.reg()
	f.b.BeginCase(intConst(2))
	b = f.reg()
	f.b.BeginDefault()
	c = f.reg()
	f.b.AddVoid(ir.BranchOp(ir.OpBreak))
	f.b.BeginCase(intConst(3))
	d = f.reg()
	f.b.EndSwitch()
	return a, b, c, d
}

func TestSwitchStructure(t *testing.T) {
	f := newFixture(t)
	selector := f.reg()
	a, b, c, d := buildSwitch(f, selector)
	entry := f.finish()

	assertTerminator(t, entry, ir.OpSwitch)
	if got := len(entry.TerminatingOp().Cases); got != 4 {
		t.Fatalf("switch has %d labels, want 4", got)
	}
	if len(entry.Cases) != 4 {
		t.Fatalf("switch has %d case blocks, want 4", len(entry.Cases))
	}
	wantTerm := []ir.OpKind{ir.OpPassthrough, ir.OpPassthrough, ir.OpBreak, ir.OpBreak}
	wantReg := []ir.TypedID{a, b, c, d}
	for i, cb := range entry.Cases {
		assertRegisters(t, cb, wantReg[i])
		assertTerminator(t, cb, wantTerm[i])
	}
}

func TestConstantSwitchKeepsFallthroughChain(t *testing.T) {
	f := newFixture(t)
	two := ir.FromConstant(f.m.ConstantInt(2), ir.TypeInt)
	_, b, c, _ := buildSwitch(f, two)
	entry := f.finish()

	assertTerminator(t, entry, ir.OpSwitch)
	labels := entry.TerminatingOp().Cases
	if len(labels) != 1 || labels[0].IsDefault || labels[0].Value != f.m.ConstantInt(2) {
		t.Fatalf("switch labels = %+v, want only case 2", labels)
	}
	if len(entry.Cases) != 1 {
		t.Fatalf("switch has %d case blocks, want 1", len(entry.Cases))
	}
	matched := entry.Cases[0]
	assertRegisters(t, matched, b)
	assertTerminator(t, matched, ir.OpNextBlock)
	assertRegisters(t, matched.Merge, c)
	assertTerminator(t, matched.Merge, ir.OpBreak)
	if matched.Merge.Merge != nil {
		t.Fatalf("case after the break was chained")
	}
}

func TestConstantSwitchFallsBackToDefault(t *testing.T) {
	f := newFixture(t)
	_, _, c, _ := buildSwitch(f, ir.FromConstant(f.m.ConstantInt(42), ir.TypeInt))
	entry := f.finish()

	labels := entry.TerminatingOp().Cases
	if len(labels) != 1 || !labels[0].IsDefault {
		t.Fatalf("switch labels = %+v, want only default", labels)
	}
	assertRegisters(t, entry.Cases[0], c)
}

func TestConstantSwitchWithoutMatchIsRemoved(t *testing.T) {
	f := newFixture(t)
	intConst := func(v int32) ir.TypedID { return ir.FromConstant(f.m.ConstantInt(v), ir.TypeInt) }

	before := f.reg()
	f.b.BeginSwitch(intConst(5))
	f.b.BeginCase(intConst(1))
	f.b.AddVariable(3)
	f.reg()
	f.b.AddVoid(ir.BranchOp(ir.OpBreak))
	f.b.EndSwitch()
	entry := f.finish()

	assertRegisters(t, entry, before)
	assertTerminator(t, entry, ir.OpReturn)
	if len(entry.Cases) != 0 {
		t.Fatalf("removed switch kept %d cases", len(entry.Cases))
	}
	if len(entry.Variables) != 1 || entry.Variables[0] != 3 {
		t.Errorf("case variables = %v, want hoisted [3]", entry.Variables)
	}
}

func TestEmptySwitchIsRemoved(t *testing.T) {
	f := newFixture(t)
	before := f.reg()
	f.b.BeginSwitch(f.reg())
	f.b.EndSwitch()
	entry := f.finish()

	if got := registers(entry); len(got) != 2 || got[0] != before.ID.Register() {
		t.Fatalf("entry registers = %v", got)
	}
	assertTerminator(t, entry, ir.OpReturn)
}

func TestPushRequiresTerminatedBlock(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("pushing an unterminated block did not panic")
		}
	}()
	New().PushBlock()
}
