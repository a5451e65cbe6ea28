package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWordDecode(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		word     Word
		indirect bool
		opcode   Opcode
		address  uint16
		family   Family
		text     string
	}){
		{0x0123, false, OP_AND, 0x123, FAMILY_MEMORY, "AND 123"},
		{0x1004, false, OP_ADD, 0x004, FAMILY_MEMORY, "ADD 004"},
		{0x2003, false, OP_LDA, 0x003, FAMILY_MEMORY, "LDA 003"},
		{0xb456, true, OP_STA, 0x456, FAMILY_MEMORY, "STA 456 I"},
		{0xc000, true, OP_BUN, 0x000, FAMILY_MEMORY, "BUN 000 I"},
		{0x5fff, false, OP_BSA, 0xfff, FAMILY_MEMORY, "BSA FFF"},
		{0xe010, true, OP_ISZ, 0x010, FAMILY_MEMORY, "ISZ 010 I"},
		{0x7001, false, OP_REG, 0x001, FAMILY_REGISTER, "HLT"},
		{0x7801, false, OP_REG, 0x801, FAMILY_REGISTER, "CLA HLT"},
		{0x7000, false, OP_REG, 0x000, FAMILY_REGISTER, "register 000"},
		{0xf400, true, OP_REG, 0x400, FAMILY_IO, "OUT"},
		{0xf0c0, true, OP_REG, 0x0c0, FAMILY_IO, "ION IOF"},
		{0xf03f, true, OP_REG, 0x03f, FAMILY_IO, "io 03F"},
	}

	for _, entry := range table {
		name := entry.text
		assert.Equal(entry.indirect, entry.word.Indirect(), name)
		assert.Equal(entry.opcode, entry.word.Opcode(), name)
		assert.Equal(entry.address, entry.word.Address(), name)
		assert.Equal(entry.family, entry.word.Family(), name)
		assert.Equal(entry.text, entry.word.String(), name)
	}
}

func TestWordMicroOps(t *testing.T) {
	assert := assert.New(t)

	assert.Nil(Word(0x2003).MicroOps())
	assert.Nil(Word(0x7000).MicroOps())
	assert.Equal([]string{"CLA", "CMA", "INC"}, Word(0x7a20).MicroOps())
	assert.Equal([]string{"CLA", "CLE", "CMA", "CME", "CIR", "CIL", "INC", "SPA", "SNA", "SZA", "SZE", "HLT"}, Word(0x7fff).MicroOps())
	assert.Equal([]string{"INP", "OUT", "SKI", "SKO", "ION", "IOF"}, Word(0xffc0).MicroOps())
}

func TestMicroOpWord(t *testing.T) {
	assert := assert.New(t)

	for _, op := range RegisterOps {
		word := op.Word(FAMILY_REGISTER)
		assert.Equal(FAMILY_REGISTER, word.Family(), op.Name)
		assert.Equal([]string{op.Name}, word.MicroOps(), op.Name)
	}

	for _, op := range IoOps {
		word := op.Word(FAMILY_IO)
		assert.Equal(FAMILY_IO, word.Family(), op.Name)
		assert.Equal([]string{op.Name}, word.MicroOps(), op.Name)
	}

	assert.Equal(Word(0x7800), RegisterOps[0].Word(FAMILY_REGISTER))
	assert.Equal(Word(0xf800), IoOps[0].Word(FAMILY_IO))
}

func TestOpcodeString(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("AND", OP_AND.String())
	assert.Equal("ISZ", OP_ISZ.String())
	assert.Equal("REG", OP_REG.String())
	assert.Equal("Opcode(8)", Opcode(8).String())

	assert.Equal("memory", FAMILY_MEMORY.String())
	assert.Equal("io", FAMILY_IO.String())
	assert.Equal(FAMILY_MEMORY, FamilyOf(OP_LDA, true))
	assert.Equal(FAMILY_REGISTER, FamilyOf(OP_REG, false))
	assert.Equal(FAMILY_IO, FamilyOf(OP_REG, true))
}
