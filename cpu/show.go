package cpu

import (
	"fmt"
	"strings"
)

// hexWidth returns the number of hex digits used to show a register.
func hexWidth(bits int) int {
	switch {
	case bits > 12:
		return 4
	case bits > 4:
		return 3
	default:
		return 1
	}
}

// ShowRegister formats a register or flag, by name, in hex and binary.
func (m *Machine) ShowRegister(name string) string {
	reg, ok := m.Cell(name)
	if !ok {
		return f("Unknown register: %v", name)
	}

	return fmt.Sprintf("%v = 0x%0*X (binary: %v)", reg.Name, hexWidth(reg.Bits), reg.Value(), reg.Binary())
}

// ShowMemory formats count words of memory starting at addr.
// A single word is shown in hex and binary, otherwise one
// 'address | value' line per word.
func (m *Machine) ShowMemory(addr uint16, count int) string {
	if count <= 1 {
		value := m.Memory.Peek(addr)
		return fmt.Sprintf("M[%03X] = 0x%04X (binary: %v)", addr&ADDRESS_MASK, value, binaryGroups(uint32(value), 16))
	}

	lines := make([]string, 0, count)
	for here, value := range m.Memory.Dump(addr, count) {
		lines = append(lines, fmt.Sprintf("0x%03X | 0x%04X", here, value))
	}

	return strings.Join(lines, "\n")
}

// ShowAll formats the primary registers and flags on one line.
func (m *Machine) ShowAll() string {
	return fmt.Sprintf("AC=0x%04X DR=0x%04X AR=0x%03X PC=0x%03X IR=0x%04X TR=0x%04X E=%d I=%d SC=%d",
		m.AC.Value(), m.DR.Value(), m.AR.Value(), m.PC.Value(), m.IR.Value(), m.TR.Value(),
		m.E.Value(), m.I.Value(), m.SC.Value())
}

// CPI returns the average cycles per completed instruction.
func (m *Machine) CPI() float64 {
	if m.Instructions == 0 {
		return 0.0
	}
	return float64(m.Cycles) / float64(m.Instructions)
}

// ShowProfiler formats the profiler counters.
func (m *Machine) ShowProfiler() string {
	lines := []string{
		fmt.Sprintf("Total cycles: %d", m.Cycles),
		fmt.Sprintf("Instructions executed: %d", m.Instructions),
		fmt.Sprintf("Average CPI: %.2f", m.CPI()),
		fmt.Sprintf("Memory reads: %d", m.Memory.Reads),
		fmt.Sprintf("Memory writes: %d", m.Memory.Writes),
	}
	return strings.Join(lines, "\n")
}

// String returns the current machine state.
func (m *Machine) String() string {
	return m.ShowAll()
}
