// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log"
	"os"
	"slices"
	"strings"

	"github.com/ezrec/mano/internal"
)

// MICRO_HALTED is the trace of a cycle with the machine halted.
const MICRO_HALTED = "CPU halted (HLT executed)"

// Changes is the set of state element names written during a step.
type Changes map[string]struct{}

// Add names to the set.
func (ch Changes) Add(names ...string) {
	for _, name := range names {
		ch[name] = struct{}{}
	}
}

// Has is true if name is in the set.
func (ch Changes) Has(name string) bool {
	_, ok := ch[name]
	return ok
}

// Sorted returns the names in the set, sorted.
func (ch Changes) Sorted() []string {
	names := make([]string, 0, len(ch))
	for name := range ch {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// String returns the comma separated names, or "None" if empty.
func (ch Changes) String() string {
	if len(ch) == 0 {
		return "None"
	}
	return strings.Join(ch.Sorted(), ", ")
}

// MemoryTag is the change set name of a memory cell.
func MemoryTag(addr uint16) string {
	return fmt.Sprintf("M[%03X]", addr&ADDRESS_MASK)
}

// Step is the result of a single T-state.
type Step struct {
	T       int     // T-state executed, -1 if halted.
	Micro   string  // Micro-operation trace.
	Changed Changes // Names of written registers, flags, and memory cells.
	Fault   bool    // Set if the T-state could not be decoded.
}

// Machine is the Basic Computer control unit, with its registers,
// flags and memory.
type Machine struct {
	Verbose bool // Set to enable verbose logging.

	AR Register // Address register.
	PC Register // Program counter.
	DR Register // Data register.
	AC Register // Accumulator.
	IR Register // Instruction register.
	TR Register // Temporary register.
	SC Register // Sequence counter.

	E Flag // Carry.
	I Flag // Indirect.
	S Flag // Start/stop.

	// Reserved interrupt and I/O flags. No device drives them.
	R   Flag
	IEN Flag
	FGI Flag
	FGO Flag

	Memory Memory

	Cycles       int // T-states clocked, including while halted.
	Instructions int // Instructions completed.

	iset InstructionSet
}

// NewMachine creates a machine with cleared state, in the running state.
func NewMachine() (m *Machine) {
	m = &Machine{
		AR:  NewRegister("AR", 12),
		PC:  NewRegister("PC", 12),
		DR:  NewRegister("DR", 16),
		AC:  NewRegister("AC", 16),
		IR:  NewRegister("IR", 16),
		TR:  NewRegister("TR", 16),
		SC:  NewRegister("SC", 4),
		E:   NewFlag("E"),
		I:   NewFlag("I"),
		S:   NewFlag("S"),
		R:   NewFlag("R"),
		IEN: NewFlag("IEN"),
		FGI: NewFlag("FGI"),
		FGO: NewFlag("FGO"),
	}
	m.iset = InstructionSet{m: m}
	m.S.Set()
	m.S.ResetMarker()

	return
}

// Registers returns an iterator over the registers, by name.
func (m *Machine) Registers() iter.Seq2[string, *Register] {
	return func(yield func(string, *Register) bool) {
		for _, reg := range []*Register{&m.AR, &m.PC, &m.DR, &m.AC, &m.IR, &m.TR, &m.SC} {
			if !yield(reg.Name, reg) {
				return
			}
		}
	}
}

// Flags returns an iterator over the flags, by name.
func (m *Machine) Flags() iter.Seq2[string, *Register] {
	return func(yield func(string, *Register) bool) {
		for _, fl := range []*Flag{&m.E, &m.I, &m.S, &m.R, &m.IEN, &m.FGI, &m.FGO} {
			if !yield(fl.Name, &fl.Register) {
				return
			}
		}
	}
}

// Cells returns an iterator over all registers and flags.
func (m *Machine) Cells() iter.Seq2[string, *Register] {
	return internal.Concat2(m.Registers(), m.Flags())
}

// Cell returns the register or flag with the name, ignoring case.
func (m *Machine) Cell(name string) (reg *Register, ok bool) {
	for cell_name, cell := range m.Cells() {
		if strings.EqualFold(cell_name, name) {
			return cell, true
		}
	}
	return
}

// Halted is true once HLT has cleared S.
func (m *Machine) Halted() bool {
	return !m.S.IsSet()
}

// finish completes the current instruction.
func (m *Machine) finish() {
	m.SC.Clear()
	m.Instructions++
}

// StepCycle executes a single T-state.
func (m *Machine) StepCycle() (step Step) {
	for _, cell := range m.Cells() {
		cell.ResetMarker()
	}

	step.Changed = Changes{}

	if m.Halted() {
		m.Cycles++
		step.T = -1
		step.Micro = MICRO_HALTED
		return
	}

	t := int(m.SC.Value())
	step.T = t

	switch t {
	case 0:
		m.AR.Load(uint32(m.PC.Value()))
		m.SC.Increment()
		step.Micro = "T0: AR ← PC"
	case 1:
		m.IR.Load(uint32(m.Memory.Read(m.AR.Value())))
		m.PC.Increment()
		m.SC.Increment()
		step.Micro = "T1: IR ← M[AR], PC ← PC + 1"
	case 2:
		word := Word(m.IR.Value())
		m.AR.Load(uint32(word.Address()))
		if word.Indirect() {
			m.I.Set()
		} else {
			m.I.Clear()
		}
		m.SC.Increment()
		step.Micro = "T2: AR ← IR(0-11), I ← IR(15)"
	default:
		word := Word(m.IR.Value())
		step.Micro, step.Fault = m.iset.Execute(word.Opcode(), m.I.IsSet(), t, step.Changed)
	}

	m.Cycles++

	for name, cell := range m.Cells() {
		if cell.Written() {
			step.Changed.Add(name)
		}
	}

	if m.Verbose {
		log.Printf("cpu: %v [%v]", step.Micro, step.Changed)
	}

	return
}

// StepInstruction executes T-states until the instruction completes or
// the machine halts. An undecodable T-state also ends the step.
func (m *Machine) StepInstruction() (step Step) {
	if m.Halted() {
		step = Step{T: -1, Micro: MICRO_HALTED, Changed: Changes{}}
		return
	}

	for {
		step = m.StepCycle()
		if step.Fault || m.SC.Value() == 0 || m.Halted() {
			return
		}
	}
}

// RunUntilHalt executes instructions until the machine halts.
//
// This may never return. Callers that need to stay responsive should
// call StepInstruction from their own loop.
func (m *Machine) RunUntilHalt() (step Step) {
	step = m.StepInstruction()
	for !m.Halted() && !step.Fault {
		step = m.StepInstruction()
	}

	return
}

// resetSequence prepares to fetch from the start address.
func (m *Machine) resetSequence(start uint16, ok bool) {
	if ok {
		m.PC.Load(uint32(start))
	}
	m.SC.Clear()
	m.S.Set()

	if m.Verbose {
		log.Printf("cpu: load, start %v PC=%03X", ok, m.PC.Value())
	}
}

// Load loads a program image and an optional data image into memory.
//
// Memory is not cleared, and the profiler counters are kept. PC is set
// to the lowest program address, if the program image had any records.
func (m *Machine) Load(program io.Reader, data io.Reader) (start uint16, ok bool, err error) {
	if program != nil {
		start, ok, err = m.Memory.LoadImage(program)
	}

	if data != nil {
		_, _, data_err := m.Memory.LoadImage(data)
		err = errors.Join(err, data_err)
	}

	m.resetSequence(start, ok)

	return
}

// LoadFiles loads the program and data image files. An empty data path
// is skipped. Missing files are reported, and leave memory untouched.
func (m *Machine) LoadFiles(programPath string, dataPath string) (start uint16, ok bool, err error) {
	start, ok, err = m.Memory.LoadFile(programPath)

	if len(dataPath) != 0 {
		_, _, data_err := m.Memory.LoadFile(dataPath)
		if data_err != nil && !errors.Is(data_err, os.ErrNotExist) {
			err = errors.Join(err, data_err)
		}
	}

	m.resetSequence(start, ok)

	return
}
