package ir

import (
	"errors"
	"fmt"
)

// Validate checks IR invariants.
// Returns error if any invariant is violated.
func Validate(ir *IR) error {
	if ir == nil {
		return nil
	}
	v := validator{
		ir:        ir,
		types:     len(ir.Meta.types),
		constants: len(ir.Meta.constants),
		variables: len(ir.Meta.variables),
		registers: len(ir.Meta.instructions),
	}

	var errs []error
	if err := v.validateMeta(); err != nil {
		errs = append(errs, err)
	}
	for i, entry := range ir.Entries {
		if entry == nil {
			continue
		}
		if err := v.validateFunctionBody(entry); err != nil {
			errs = append(errs, fmt.Errorf("function f%d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

type validator struct {
	ir        *IR
	types     int
	constants int
	variables int
	registers int
}

func (v *validator) checkType(id TypeID, what string) error {
	if int(id) >= v.types {
		return fmt.Errorf("%s: type t%d out of range", what, id)
	}
	return nil
}

func (v *validator) checkConstant(id ConstantID, what string) error {
	if int(id) >= v.constants {
		return fmt.Errorf("%s: constant c%d out of range", what, id)
	}
	return nil
}

func (v *validator) checkVariable(id VariableID, what string) error {
	if int(id) >= v.variables {
		return fmt.Errorf("%s: variable v%d out of range", what, id)
	}
	return nil
}

func (v *validator) checkTypedID(t TypedID, what string) error {
	var errs []error
	errs = append(errs, v.checkType(t.Type, what))
	switch t.ID.Kind {
	case IDRegister:
		if int(t.ID.Value) >= v.registers {
			errs = append(errs, fmt.Errorf("%s: register r%d out of range", what, t.ID.Value))
		}
	case IDConstant:
		errs = append(errs, v.checkConstant(ConstantID(t.ID.Value), what))
	case IDVariable:
		errs = append(errs, v.checkVariable(VariableID(t.ID.Value), what))
	}
	return errors.Join(errs...)
}

func (v *validator) validateMeta() error {
	m := v.ir.Meta
	var errs []error
	for i := range m.types {
		t := &m.types[i]
		what := fmt.Sprintf("t%d", i)
		if elem, ok := t.ElementType(); ok {
			errs = append(errs, v.checkType(elem, what))
			if t.Kind == TypeKindPointer && int(elem) < v.types && m.types[elem].Kind == TypeKindPointer {
				errs = append(errs, fmt.Errorf("%s: pointer to pointer", what))
			}
		}
		for j := range t.Fields {
			errs = append(errs, v.checkType(t.Fields[j].Type, fmt.Sprintf("%s field %d", what, j)))
		}
	}
	for i := range m.constants {
		c := &m.constants[i]
		what := fmt.Sprintf("c%d", i)
		errs = append(errs, v.checkType(c.Type, what))
		for _, e := range c.Elements {
			errs = append(errs, v.checkConstant(e, what))
		}
	}
	for i := range m.variables {
		vr := &m.variables[i]
		what := fmt.Sprintf("v%d", i)
		errs = append(errs, v.checkType(vr.Type, what))
		if int(vr.Type) < v.types && m.types[vr.Type].Kind != TypeKindPointer {
			errs = append(errs, fmt.Errorf("%s: variable type is not a pointer", what))
		}
		if vr.HasInitializer {
			errs = append(errs, v.checkConstant(vr.Initializer, what))
		}
	}
	for i := range m.functions {
		f := &m.functions[i]
		what := fmt.Sprintf("f%d", i)
		errs = append(errs, v.checkType(f.ReturnType, what))
		for _, p := range f.Params {
			errs = append(errs, v.checkVariable(p.Variable, what))
		}
	}
	for _, id := range m.globalVariables {
		errs = append(errs, v.checkVariable(id, "globals"))
	}
	for _, id := range m.pendingZeroInit {
		errs = append(errs, v.checkVariable(id, "zero-init list"))
	}
	return errors.Join(errs...)
}

func (v *validator) validateFunctionBody(entry *Block) error {
	var errs []error
	n := 0
	entry.Walk(func(b *Block) {
		what := fmt.Sprintf("block %d", n)
		n++
		if !b.IsTerminated() {
			errs = append(errs, fmt.Errorf("%s: unterminated block", what))
		}
		for _, id := range b.Variables {
			errs = append(errs, v.checkVariable(id, what))
		}
		if b.Input != nil {
			if int(b.Input.ID) >= v.registers {
				errs = append(errs, fmt.Errorf("%s: input r%d out of range", what, b.Input.ID))
			} else if v.ir.Meta.instructions[b.Input.ID].Op.Kind != OpMergeInput {
				errs = append(errs, fmt.Errorf("%s: input r%d is not a merge input", what, b.Input.ID))
			}
		}
		for i := range b.Instrs {
			errs = append(errs, v.validateInstr(&b.Instrs[i], fmt.Sprintf("%s instr %d", what, i)))
			if i+1 < len(b.Instrs) && b.Instrs[i].IsBranch() {
				errs = append(errs, fmt.Errorf("%s: branch in the middle of the block at %d", what, i))
			}
		}
	})
	return errors.Join(errs...)
}

func (v *validator) validateInstr(bi *BlockInstr, what string) error {
	if bi.IsRegister && int(bi.Register) >= v.registers {
		return fmt.Errorf("%s: register r%d out of range", what, bi.Register)
	}
	op, result := bi.Resolve(v.ir.Meta)
	var errs []error
	if result != nil {
		errs = append(errs, v.checkType(result.Type, what))
	}
	op.ForEachOperand(func(t TypedID) {
		errs = append(errs, v.checkTypedID(t, what))
	})
	if op.Kind == OpSwitch {
		defaults := 0
		for _, c := range op.Cases {
			if c.IsDefault {
				defaults++
				continue
			}
			errs = append(errs, v.checkConstant(c.Value, what))
		}
		if defaults > 1 {
			errs = append(errs, fmt.Errorf("%s: switch has %d default cases", what, defaults))
		}
	}
	if op.Kind == OpCall && int(op.Function) >= len(v.ir.Meta.functions) {
		errs = append(errs, fmt.Errorf("%s: function f%d out of range", what, op.Function))
	}
	return errors.Join(errs...)
}
