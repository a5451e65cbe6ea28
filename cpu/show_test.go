package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShowRegister(t *testing.T) {
	assert := assert.New(t)

	m := NewMachine()
	m.AC.Load(0x00ff)
	m.PC.Load(0x123)
	m.SC.Load(3)
	m.E.Set()

	table := [](struct {
		name string
		text string
	}){
		{"AC", "AC = 0x00FF (binary: 0000 0000 1111 1111)"},
		{"ac", "AC = 0x00FF (binary: 0000 0000 1111 1111)"},
		{"PC", "PC = 0x123 (binary: 0001 0010 0011)"},
		{"SC", "SC = 0x3 (binary: 0011)"},
		{"E", "E = 0x1 (binary: 1)"},
		{"S", "S = 0x1 (binary: 1)"},
		{"TR", "TR = 0x0000 (binary: 0000 0000 0000 0000)"},
		{"XYZ", "Unknown register: XYZ"},
	}

	for _, entry := range table {
		assert.Equal(entry.text, m.ShowRegister(entry.name), entry.name)
	}
}

func TestShowMemory(t *testing.T) {
	assert := assert.New(t)

	m := NewMachine()
	m.Memory.Cell[0x000] = 0x1111
	m.Memory.Cell[0x100] = 0x2003
	m.Memory.Cell[0x101] = 0x7001
	m.Memory.Cell[0xfff] = 0xffff

	assert.Equal("M[100] = 0x2003 (binary: 0010 0000 0000 0011)", m.ShowMemory(0x100, 1))
	assert.Equal("M[100] = 0x2003 (binary: 0010 0000 0000 0011)", m.ShowMemory(0x100, 0))
	assert.Equal("0x100 | 0x2003\n0x101 | 0x7001\n0x102 | 0x0000", m.ShowMemory(0x100, 3))
	assert.Equal("0xFFF | 0xFFFF\n0x000 | 0x1111", m.ShowMemory(0xfff, 2))

	// Inspection does not count as memory traffic.
	assert.Equal(0, m.Memory.Reads)
	assert.Equal(0, m.Memory.Writes)
}

func TestShowAll(t *testing.T) {
	assert := assert.New(t)

	m := NewMachine()
	assert.Equal("AC=0x0000 DR=0x0000 AR=0x000 PC=0x000 IR=0x0000 TR=0x0000 E=0 I=0 SC=0", m.ShowAll())

	m.AC.Load(0xbeef)
	m.AR.Load(0xabc)
	m.E.Set()
	m.SC.Load(5)
	assert.Equal("AC=0xBEEF DR=0x0000 AR=0xABC PC=0x000 IR=0x0000 TR=0x0000 E=1 I=0 SC=5", m.String())
}

func TestShowProfiler(t *testing.T) {
	assert := assert.New(t)

	m := NewMachine()
	assert.Equal("Total cycles: 0\nInstructions executed: 0\nAverage CPI: 0.00\nMemory reads: 0\nMemory writes: 0", m.ShowProfiler())

	m.Cycles = 75
	m.Instructions = 13
	m.Memory.Reads = 22
	m.Memory.Writes = 5
	assert.Equal("Total cycles: 75\nInstructions executed: 13\nAverage CPI: 5.77\nMemory reads: 22\nMemory writes: 5", m.ShowProfiler())
}
