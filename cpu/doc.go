// Package cpu implements the control unit and assembler for the Basic Computer.
//
// The machine has a 4096 word, 16-bit memory, a single accumulator (AC) with
// a carry flag (E), and the AR, PC, DR, IR and TR registers. Instructions are
// executed one T-state at a time by a sequence counter (SC): T0 to T2 fetch
// and decode, T3 resolves indirect addresses or executes a register-reference
// instruction, and T4 onwards perform the memory-reference micro-operations.
//
// The assembler accepts the classic symbolic language (labels, ORG, END, HEX,
// DEC, memory-reference, register-reference and input-output mnemonics) and
// supports compile-time expression evaluation.
package cpu
