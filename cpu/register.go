package cpu

import (
	"fmt"
	"strings"
)

// Register is a fixed-width storage cell.
//
// Every write masks the value to the register width, and marks the
// register as written until the next ResetMarker.
type Register struct {
	Name string // Register name, as shown in change sets.
	Bits int    // Register width, 1 to 16 bits.

	value   uint16
	written bool
}

// NewRegister creates a zeroed register.
func NewRegister(name string, bits int) Register {
	return Register{Name: name, Bits: bits}
}

func (reg *Register) mask() uint32 {
	return (uint32(1) << reg.Bits) - 1
}

// Value returns the register contents.
func (reg *Register) Value() uint16 {
	return reg.value
}

// Written is true if the register was written since the last ResetMarker.
func (reg *Register) Written() bool {
	return reg.written
}

// Load stores the value, truncated to the register width.
func (reg *Register) Load(value uint32) {
	reg.value = uint16(value & reg.mask())
	reg.written = true
}

// Increment adds one, modulo the register width.
func (reg *Register) Increment() {
	reg.Load(uint32(reg.value) + 1)
}

// Clear zeros the register.
func (reg *Register) Clear() {
	reg.Load(0)
}

// ResetMarker clears the written marker.
func (reg *Register) ResetMarker() {
	reg.written = false
}

// String returns the register value in hex.
func (reg *Register) String() string {
	return fmt.Sprintf("0x%X", reg.value)
}

// Binary returns the register value in binary, in groups of four bits
// from the most significant end.
func (reg *Register) Binary() string {
	return binaryGroups(uint32(reg.value), reg.Bits)
}

// binaryGroups formats the low 'bits' of value as nibble-separated binary.
func binaryGroups(value uint32, bits int) string {
	digits := fmt.Sprintf("%0*b", bits, value)

	var sb strings.Builder
	lead := len(digits) % 4
	if lead == 0 {
		lead = 4
	}
	sb.WriteString(digits[:lead])
	for n := lead; n < len(digits); n += 4 {
		sb.WriteByte(' ')
		sb.WriteString(digits[n : n+4])
	}

	return sb.String()
}

// Flag is a 1-bit register.
type Flag struct {
	Register
}

// NewFlag creates a cleared flag.
func NewFlag(name string) Flag {
	return Flag{Register: NewRegister(name, 1)}
}

// Set sets the flag to 1.
func (fl *Flag) Set() {
	fl.Load(1)
}

// Complement inverts the flag.
func (fl *Flag) Complement() {
	fl.Load(uint32(fl.value ^ 1))
}

// IsSet is true if the flag is 1.
func (fl *Flag) IsSet() bool {
	return fl.value != 0
}
