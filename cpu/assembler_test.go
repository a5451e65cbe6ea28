package cpu

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const addTwo = `/ Add two numbers
	ORG 100
	LDA A    / load first
	ADD B
	STA C
	HLT
A,	DEC 83
B,	DEC -23
C,	DEC 0
	END
`

func TestAssemblerEmpty(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader(""))
	assert.NoError(err)
	assert.Empty(prog.Statements)

	_, ok := prog.Start()
	assert.False(ok)

	assert.Equal("0x0", asm.Equate["LINENO"])
	assert.Equal("0x1000", asm.Equate["MEMORY_SIZE"])
}

func TestAssemblerProgram(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader(addTwo))
	if !assert.NoError(err) {
		return
	}

	expected := []Word{0x2104, 0x1105, 0x3106, 0x7001, 0x0053, 0xffe9, 0x0000}
	words := []Word{}
	addrs := []uint16{}
	for addr, word := range prog.Words() {
		addrs = append(addrs, addr)
		words = append(words, word)
	}
	assert.Equal(expected, words)
	assert.Equal([]uint16{0x100, 0x101, 0x102, 0x103, 0x104, 0x105, 0x106}, addrs)

	assert.Equal(map[string]uint16{"A": 0x104, "B": 0x105, "C": 0x106}, asm.Label)

	start, ok := prog.Start()
	assert.True(ok)
	assert.Equal(uint16(0x100), start)

	stmt, ok := prog.Debug(0x101)
	assert.True(ok)
	assert.Equal(4, stmt.LineNo)
	assert.Equal("ADD B", stmt.Text)
	assert.Equal("B", stmt.LinkLabel)
	assert.False(stmt.Data)

	stmt, ok = prog.Debug(0x105)
	assert.True(ok)
	assert.Equal([]string{"DEC", "-23"}, stmt.Words)
	assert.True(stmt.Data)

	_, ok = prog.Debug(0x200)
	assert.False(ok)

	var program, data bytes.Buffer
	err = prog.WriteImages(&program, &data)
	assert.NoError(err)
	assert.Equal(`100  2104   # LDA A
101  1105   # ADD B
102  3106   # STA C
103  7001   # HLT
`, program.String())
	assert.Equal(`104  0053   # A,	DEC 83
105  FFE9   # B,	DEC -23
106  0000   # C,	DEC 0
`, data.String())

	// Data may be discarded.
	program.Reset()
	err = prog.WriteImages(&program, nil)
	assert.NoError(err)
	assert.Equal(4, strings.Count(program.String(), "\n"))
}

func TestAssemblerImageRoundTrip(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader(addTwo))
	assert.NoError(err)

	var program, data bytes.Buffer
	assert.NoError(prog.WriteImages(&program, &data))

	m := NewMachine()
	start, ok, err := m.Load(&program, &data)
	assert.NoError(err)
	assert.True(ok)
	assert.Equal(uint16(0x100), start)

	for addr, word := range prog.Words() {
		assert.Equal(uint16(word), m.Memory.Peek(addr))
	}

	m.RunUntilHalt()
	assert.Equal(uint16(0x003c), m.Memory.Peek(0x106))
}

func TestAssemblerLabels(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		source string
		words  []Word
	}){
		// Labels take priority over hexadecimal operands.
		{"LDA A\nHLT\nA, HEX 5", []Word{0x2002, 0x7001, 0x0005}},
		// Otherwise hexadecimal operands are addresses.
		{"LDA 1F\nHLT", []Word{0x201f, 0x7001}},
		{"LDA PTR I\nPTR, HEX 0", []Word{0xa001, 0x0000}},
		{"bun top i\ntop, cla", []Word{0xc001, 0x7800}},
		{"BSA SUB\nSUB, HEX 0\nBUN SUB I", []Word{0x5001, 0x0000, 0xc001}},
		{"ORG FFF\nCLA\nHLT", []Word{0x7800, 0x7001}},
		{"INP\nOUT\nSKI\nSKO\nION\nIOF", []Word{0xf800, 0xf400, 0xf200, 0xf100, 0xf080, 0xf040}},
		{"HEX FFFF\nDEC -1\nDEC 32767\nDEC 0x10", []Word{0xffff, 0xffff, 0x7fff, 0x0010}},
		{"HLT\nEND\nCLA", []Word{0x7001}},
		{"HLT ; done\nCLA # clear\nINC / increment", []Word{0x7001, 0x7800, 0x7020}},
	}

	for _, entry := range table {
		asm := &Assembler{}
		prog, err := asm.Parse(strings.NewReader(entry.source))
		if !assert.NoError(err, entry.source) {
			continue
		}
		words := []Word{}
		for _, word := range prog.Words() {
			words = append(words, word)
		}
		assert.Equal(entry.words, words, entry.source)
	}

	// ORG FFF wraps the location counter.
	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader("ORG FFF\nCLA\nHLT"))
	assert.NoError(err)
	assert.Equal(uint16(0xfff), prog.Statements[0].Address)
	assert.Equal(uint16(0x000), prog.Statements[1].Address)
}

func TestAssemblerEquates(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		source string
		words  []Word
	}){
		{".equ N 5\nHEX $(N*2)", []Word{0x000a}},
		{".equ N 5\nHEX N", []Word{0x0005}},
		{"HEX $(MEMORY_SIZE-1)", []Word{0x0fff}},
		{"HEX $(LINENO)\nHEX $(LINENO)", []Word{0x0001, 0x0002}},
		{"A, HEX 0\nHEX 1\nLDA $(A+1)", []Word{0x0000, 0x0001, 0x2001}},
		{".equ W 3\n.equ V $(W+W)\nHEX V", []Word{0x0006}},
		{"ORG BASE\nLDA BASE", []Word{0x2100}},
	}

	for _, entry := range table {
		asm := &Assembler{}
		asm.Predefine("BASE", "100")
		prog, err := asm.Parse(strings.NewReader(entry.source))
		if !assert.NoError(err, entry.source) {
			continue
		}
		words := []Word{}
		for _, word := range prog.Words() {
			words = append(words, word)
		}
		assert.Equal(entry.words, words, entry.source)
	}
}

func TestAssemblerErrors(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		source string
		lineno int
		err    error
	}){
		{"FOO 1", 1, ErrInstructionInvalid},
		{"CLA\nLDA", 2, ErrOperandMissing},
		{"LDA X\nHLT", 1, ErrLabelMissing("X")},
		{"A, HEX 1\nA, HEX 2", 2, ErrLabelDuplicate},
		{"ORG", 1, ErrOrgSyntax},
		{"ORG 1 2", 1, ErrOrgSyntax},
		{"HEX ZZ", 1, ErrParseNumber("ZZ")},
		{"DEC 1A", 1, ErrParseNumber("1A")},
		{"HEX", 1, ErrOpcodeValueMissing},
		{"DEC 1 2", 1, ErrOpcodeExtraArgs},
		{"CLA 5", 1, ErrOpcodeExtraArgs},
		{"LDA A B\nA, HEX 0", 1, ErrOpcodeExtraArgs},
		{"END 1", 1, ErrOpcodeExtraArgs},
		{".equ N", 1, ErrEquateSyntax},
		{".equ 9N 1", 1, ErrEquateSyntax},
		{".equ N 1\n.equ N 2", 2, ErrEquateDuplicate},
		{"HEX $(nope)", 1, ErrParseExpression("nope")},
	}

	for _, entry := range table {
		asm := &Assembler{}
		_, err := asm.Parse(strings.NewReader(entry.source))
		if !assert.Error(err, entry.source) {
			continue
		}
		assert.True(errors.Is(err, entry.err), "%v: %v", entry.source, err)

		var syntax ErrSyntax
		if assert.True(errors.As(err, &syntax), entry.source) {
			assert.Equal(entry.lineno, syntax.LineNo, entry.source)
		}
	}

	asm := &Assembler{}
	_, err := asm.Parse(strings.NewReader("LDA X\nHLT"))
	var missing ErrLabelMissing
	assert.True(errors.As(err, &missing))
	assert.Equal(ErrLabelMissing("X"), missing)
	assert.Equal("line 1 'LDA X' label X missing", err.Error())
}

func TestAssemblerReuse(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	_, err := asm.Parse(strings.NewReader("A, HEX 1"))
	assert.NoError(err)

	// Labels do not leak between runs.
	prog, err := asm.Parse(strings.NewReader("A, HEX 2"))
	assert.NoError(err)
	assert.Len(prog.Statements, 1)
	assert.Equal(Word(2), prog.Statements[0].Word)
}
