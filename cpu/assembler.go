// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":      "0x0",
	"MEMORY_SIZE": fmt.Sprintf("%#x", MEMORY_SIZE),
}

// mriMap maps memory-reference mnemonics.
var mriMap = map[string]Opcode{
	"AND": OP_AND,
	"ADD": OP_ADD,
	"LDA": OP_LDA,
	"STA": OP_STA,
	"BUN": OP_BUN,
	"BSA": OP_BSA,
	"ISZ": OP_ISZ,
}

// microMap maps register-reference and input-output mnemonics to words.
var microMap = func() map[string]Word {
	words := make(map[string]Word, len(RegisterOps)+len(IoOps))
	for _, op := range RegisterOps {
		words[op.Name] = op.Word(FAMILY_REGISTER)
	}
	for _, op := range IoOps {
		words[op.Name] = op.Word(FAMILY_IO)
	}
	return words
}()

var (
	labelPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	evalPattern  = regexp.MustCompile(`\$\([^\$]*\)`)
)

// Assembler is a single pass assembler for the Basic Computer.
// Operands are resolved when linking, so labels may be used before
// they are defined.
type Assembler struct {
	Verbose   bool        // If set, verbosely logs the assembler actions.
	Statement []Statement // List of generated statements.

	predefine map[string]string // Predefines
	Label     map[string]uint16 // Map of labels to addresses.
	Equate    map[string]string // Map of equates.

	lc    uint16 // Location counter.
	ended bool   // END seen.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// valueOf returns the value of a hexadecimal word.
func (asm *Assembler) valueOf(word string) (value uint32, err error) {
	v64, err := parseHex(word)
	if err != nil {
		return
	}

	value = uint32(v64)

	return
}

// decimalOf returns the 16-bit two's complement of a decimal word.
func (asm *Assembler) decimalOf(word string) (value uint32, err error) {
	base := 10
	if strings.HasPrefix(word, "0x") || strings.HasPrefix(word, "0X") {
		base = 0
	}
	v64, err := strconv.ParseInt(word, base, 33)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	value = uint32(v64) & WORD_MASK

	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value uint32, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var value32 uint32
		value32, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates.
			continue
		}
		pred[key] = starlark.MakeInt(int(value32))
	}
	err = nil
	for key, addr := range asm.Label {
		pred[key] = starlark.MakeInt(int(addr))
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = ErrParseExpression(expr)
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = uint32(st_int64)
	return
}

// parseLine splits a line into words, defining any label and expanding
// expressions and equates.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%#x", lineno)

	// LABEL, ...
	if index := strings.IndexByte(line, ','); index >= 0 {
		label := strings.TrimSpace(line[:index])
		if labelPattern.MatchString(label) {
			_, ok := asm.Label[label]
			if ok {
				err = ErrLabelDuplicate
				return
			}
			asm.Label[label] = asm.lc
			line = line[index+1:]
		}
	}

	// Do $() evaluations
	line = evalPattern.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%#x", value)
	})
	if err != nil {
		return
	}

	words = strings.Fields(line)

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		if !labelPattern.MatchString(words[1]) {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	return
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	asm.Statement = asm.Statement[:0]
	asm.Label = make(map[string]uint16, 16)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}
	asm.lc = 0
	asm.ended = false

	for !asm.ended && scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		if index := strings.IndexAny(text, "/#;"); index >= 0 {
			text = text[:index]
		}
		line = strings.TrimSpace(text)

		var words []string
		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno, line)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	// Final linking of operands.
	for n := range asm.Statement {
		stmt := &asm.Statement[n]

		if len(stmt.LinkLabel) == 0 {
			continue
		}

		label := stmt.LinkLabel
		addr, ok := asm.Label[label]
		if !ok {
			value, value_err := asm.valueOf(label)
			if value_err != nil {
				lineno = stmt.LineNo
				line = stmt.Text
				err = ErrLabelMissing(label)
				return
			}
			addr = uint16(value)
		}
		stmt.Word |= Word(addr & ADDRESS_MASK)

		if asm.Verbose {
			log.Printf("%03X: link %v => %v", stmt.Address, label, stmt.Word)
		}
	}

	prog = &Program{
		Statements: slices.Clone(asm.Statement),
	}

	return
}

// emit appends an assembled word at the location counter.
func (asm *Assembler) emit(stmt Statement) {
	stmt.Address = asm.lc
	asm.Statement = append(asm.Statement, stmt)
	asm.lc = (asm.lc + 1) & ADDRESS_MASK
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int, text string) (err error) {
	// no-op
	if len(words) == 0 {
		return
	}

	stmt := Statement{LineNo: lineno, Text: text, Words: words}

	mnemonic := strings.ToUpper(words[0])
	args := words[1:]

	switch mnemonic {
	case "ORG":
		if len(args) != 1 {
			err = ErrOrgSyntax
			return
		}
		var value uint32
		value, err = asm.valueOf(args[0])
		if err != nil {
			return
		}
		asm.lc = uint16(value) & ADDRESS_MASK
		return
	case "END":
		if len(args) != 0 {
			err = ErrOpcodeExtraArgs
			return
		}
		asm.ended = true
		return
	case "HEX", "DEC":
		if len(args) == 0 {
			err = ErrOpcodeValueMissing
			return
		}
		if len(args) > 1 {
			err = ErrOpcodeExtraArgs
			return
		}
		var value uint32
		if mnemonic == "HEX" {
			value, err = asm.valueOf(args[0])
		} else {
			value, err = asm.decimalOf(args[0])
		}
		if err != nil {
			return
		}
		stmt.Word = Word(value & WORD_MASK)
		stmt.Data = true
		asm.emit(stmt)
		return
	}

	op, is_mri := mriMap[mnemonic]
	if is_mri {
		if len(args) == 0 {
			err = ErrOperandMissing
			return
		}
		if len(args) > 2 || (len(args) == 2 && strings.ToUpper(args[1]) != "I") {
			err = ErrOpcodeExtraArgs
			return
		}
		stmt.Word = Word(uint16(op) << WORD_OPCODE_SHIFT)
		if len(args) == 2 {
			stmt.Word |= WORD_INDIRECT
		}
		stmt.LinkLabel = args[0]
		asm.emit(stmt)
		return
	}

	word, is_micro := microMap[mnemonic]
	if is_micro {
		if len(args) != 0 {
			err = ErrOpcodeExtraArgs
			return
		}
		stmt.Word = word
		asm.emit(stmt)
		return
	}

	err = ErrInstructionInvalid
	return
}
