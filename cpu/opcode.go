package cpu

import (
	"fmt"
	"strings"
)

// Instruction word fields.
const (
	WORD_INDIRECT      = 0x8000 // Bit 15: indirect addressing.
	WORD_OPCODE_SHIFT  = 12     // Bits 14-12: opcode.
	WORD_OPCODE_MASK   = 0x7
	WORD_ADDRESS_MASK  = 0x0fff // Bits 11-0: address, or operation mask.
	WORD_REGISTER_BASE = 0x7000 // Register-reference instructions.
	WORD_IO_BASE       = 0xf000 // Input-output instructions.
)

// Opcode is the 3-bit operation code of an instruction word.
type Opcode int

//go:generate go tool stringer -linecomment -type=Opcode
const (
	OP_AND = Opcode(0) // AND
	OP_ADD = Opcode(1) // ADD
	OP_LDA = Opcode(2) // LDA
	OP_STA = Opcode(3) // STA
	OP_BUN = Opcode(4) // BUN
	OP_BSA = Opcode(5) // BSA
	OP_ISZ = Opcode(6) // ISZ
	OP_REG = Opcode(7) // REG
)

// Family is the instruction family selected by opcode and indirect bit.
type Family int

//go:generate go tool stringer -linecomment -type=Family
const (
	FAMILY_MEMORY   = Family(0) // memory
	FAMILY_REGISTER = Family(1) // register
	FAMILY_IO       = Family(2) // io
)

// FamilyOf returns the instruction family of an opcode.
func FamilyOf(op Opcode, indirect bool) Family {
	if op != OP_REG {
		return FAMILY_MEMORY
	}
	if indirect {
		return FAMILY_IO
	}
	return FAMILY_REGISTER
}

// MicroOp is a single bit of a register-reference or input-output
// instruction.
type MicroOp struct {
	Name string
	Bit  uint16
}

// Word returns the full instruction word for the operation.
func (mo MicroOp) Word(family Family) Word {
	base := uint16(WORD_REGISTER_BASE)
	if family == FAMILY_IO {
		base = WORD_IO_BASE
	}
	return Word(base | mo.Bit)
}

// Register-reference operations, in execution order.
var RegisterOps = []MicroOp{
	{"CLA", 1 << 11},
	{"CLE", 1 << 10},
	{"CMA", 1 << 9},
	{"CME", 1 << 8},
	{"CIR", 1 << 7},
	{"CIL", 1 << 6},
	{"INC", 1 << 5},
	{"SPA", 1 << 4},
	{"SNA", 1 << 3},
	{"SZA", 1 << 2},
	{"SZE", 1 << 1},
	{"HLT", 1 << 0},
}

// Input-output operations.
var IoOps = []MicroOp{
	{"INP", 1 << 11},
	{"OUT", 1 << 10},
	{"SKI", 1 << 9},
	{"SKO", 1 << 8},
	{"ION", 1 << 7},
	{"IOF", 1 << 6},
}

// Word is a 16-bit instruction word.
type Word uint16

// Indirect returns the I bit.
func (word Word) Indirect() bool {
	return (word & WORD_INDIRECT) != 0
}

// Opcode returns the operation code.
func (word Word) Opcode() Opcode {
	return Opcode((word >> WORD_OPCODE_SHIFT) & WORD_OPCODE_MASK)
}

// Address returns the address field, which is the operation mask for
// register-reference and input-output instructions.
func (word Word) Address() uint16 {
	return uint16(word) & WORD_ADDRESS_MASK
}

// Family returns the instruction family.
func (word Word) Family() Family {
	return FamilyOf(word.Opcode(), word.Indirect())
}

// MicroOps returns the names of the set operation bits for a
// register-reference or input-output word, in execution order.
func (word Word) MicroOps() (names []string) {
	var ops []MicroOp
	switch word.Family() {
	case FAMILY_REGISTER:
		ops = RegisterOps
	case FAMILY_IO:
		ops = IoOps
	default:
		return
	}

	for _, op := range ops {
		if (word.Address() & op.Bit) != 0 {
			names = append(names, op.Name)
		}
	}

	return
}

// String returns the symbolic form of the instruction word.
func (word Word) String() (out string) {
	switch word.Family() {
	case FAMILY_MEMORY:
		out = fmt.Sprintf("%v %03X", word.Opcode(), word.Address())
		if word.Indirect() {
			out += " I"
		}
	default:
		names := word.MicroOps()
		if len(names) == 0 {
			out = fmt.Sprintf("%v %03X", word.Family(), word.Address())
		} else {
			out = strings.Join(names, " ")
		}
	}

	return
}
