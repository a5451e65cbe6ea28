package cpu

import (
	"fmt"
	"strings"
)

// InstructionSet performs the T3 and later micro-operations of each
// instruction family on the state of its machine.
type InstructionSet struct {
	m *Machine
}

// Execute performs T-state t of an instruction. Memory cells written
// are added to changed. Fault is set, and no state is modified, if the
// opcode or T-state has no micro-operation.
func (is *InstructionSet) Execute(op Opcode, indirect bool, t int, changed Changes) (micro string, fault bool) {
	switch FamilyOf(op, indirect) {
	case FAMILY_REGISTER:
		return is.registerReference(t)
	case FAMILY_IO:
		return is.inputOutput(t)
	case FAMILY_MEMORY:
		if t == 3 {
			return is.effectiveAddress(indirect), false
		}
		return is.memoryReference(op, t, changed)
	default:
		return fmt.Sprintf("T%d: (unknown instruction family)", t), true
	}
}

// effectiveAddress resolves an indirect address at T3.
func (is *InstructionSet) effectiveAddress(indirect bool) (micro string) {
	m := is.m

	m.SC.Increment()

	if !indirect {
		return "T3: (direct address, no operation)"
	}

	m.AR.Load(uint32(m.Memory.Read(m.AR.Value())))

	return "T3: AR ← M[AR]"
}

// memoryReference performs T4 onwards of the memory-reference instructions.
func (is *InstructionSet) memoryReference(op Opcode, t int, changed Changes) (micro string, fault bool) {
	m := is.m

	readOperand := func() string {
		m.DR.Load(uint32(m.Memory.Read(m.AR.Value())))
		m.SC.Increment()
		return fmt.Sprintf("T%d: DR ← M[AR]", t)
	}

	write := func(value uint16) {
		m.Memory.Write(m.AR.Value(), value)
		changed.Add(MemoryTag(m.AR.Value()))
	}

	switch {
	case (op == OP_AND || op == OP_ADD || op == OP_LDA) && t == 4:
		micro = readOperand()
	case op == OP_AND && t == 5:
		m.AC.Load(uint32(m.AC.Value() & m.DR.Value()))
		m.finish()
		micro = "T5: AC ← AC ∧ DR"
	case op == OP_ADD && t == 5:
		sum := uint32(m.AC.Value()) + uint32(m.DR.Value())
		m.AC.Load(sum)
		m.E.Load(sum >> 16)
		m.finish()
		micro = "T5: AC ← AC + DR, E ← Cout"
	case op == OP_LDA && t == 5:
		m.AC.Load(uint32(m.DR.Value()))
		m.finish()
		micro = "T5: AC ← DR"
	case op == OP_STA && t == 4:
		write(m.AC.Value())
		m.finish()
		micro = "T4: M[AR] ← AC"
	case op == OP_BUN && t == 4:
		m.PC.Load(uint32(m.AR.Value()))
		m.finish()
		micro = "T4: PC ← AR"
	case op == OP_BSA && t == 4:
		write(m.PC.Value())
		m.AR.Increment()
		m.SC.Increment()
		micro = "T4: M[AR] ← PC, AR ← AR + 1"
	case op == OP_BSA && t == 5:
		m.PC.Load(uint32(m.AR.Value()))
		m.finish()
		micro = "T5: PC ← AR"
	case op == OP_ISZ && t == 4:
		micro = readOperand()
	case op == OP_ISZ && t == 5:
		m.DR.Increment()
		m.SC.Increment()
		micro = "T5: DR ← DR + 1"
	case op == OP_ISZ && t == 6:
		write(m.DR.Value())
		micro = "T6: M[AR] ← DR"
		if m.DR.Value() == 0 {
			m.PC.Increment()
			micro += ", if (DR = 0) then PC ← PC + 1"
		}
		m.finish()
	case op < OP_AND || op >= OP_REG:
		micro = fmt.Sprintf("T%d: (unknown memory-reference opcode %v)", t, op)
		fault = true
	default:
		micro = fmt.Sprintf("T%d: (no micro-operation for %v)", t, op)
		fault = true
	}

	return
}

// registerReference performs every selected register-reference operation
// at T3, in order.
func (is *InstructionSet) registerReference(t int) (micro string, fault bool) {
	m := is.m

	if t != 3 {
		return fmt.Sprintf("T%d: (no micro-operation for register-reference)", t), true
	}

	mask := Word(m.IR.Value()).Address()

	var parts []string
	for _, op := range RegisterOps {
		if (mask & op.Bit) == 0 {
			continue
		}
		parts = append(parts, op.Name)

		ac := uint32(m.AC.Value())
		e := uint32(m.E.Value())

		switch op.Name {
		case "CLA":
			m.AC.Clear()
		case "CLE":
			m.E.Clear()
		case "CMA":
			m.AC.Load(^ac)
		case "CME":
			m.E.Complement()
		case "CIR":
			m.E.Load(ac & 1)
			m.AC.Load((ac >> 1) | (e << 15))
		case "CIL":
			m.E.Load(ac >> 15)
			m.AC.Load((ac << 1) | e)
		case "INC":
			m.AC.Load(ac + 1)
		case "SPA":
			if (ac & 0x8000) == 0 {
				m.PC.Increment()
			}
		case "SNA":
			if (ac & 0x8000) != 0 {
				m.PC.Increment()
			}
		case "SZA":
			if ac == 0 {
				m.PC.Increment()
			}
		case "SZE":
			if e == 0 {
				m.PC.Increment()
			}
		case "HLT":
			m.S.Clear()
		}
	}

	m.finish()

	if len(parts) == 0 {
		return "T3: (no register-reference bit set)", false
	}

	return "T3: " + strings.Join(parts, ", "), false
}

// inputOutput decodes an input-output instruction at T3. There are no
// devices attached, so only the trace is produced.
func (is *InstructionSet) inputOutput(t int) (micro string, fault bool) {
	m := is.m

	if t != 3 {
		return fmt.Sprintf("T%d: (no micro-operation for input-output)", t), true
	}

	names := Word(m.IR.Value()).MicroOps()

	m.finish()

	if len(names) == 0 {
		return "T3: (no input-output bit set)", false
	}

	return "T3: " + strings.Join(names, ", ") + " (no device)", false
}
