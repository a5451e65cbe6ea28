package cpu

import (
	"fmt"
	"io"
	"iter"
)

// Statement is a single assembled word with its source location.
type Statement struct {
	LineNo    int      // Source line number.
	Text      string   // Source line, without comments.
	Address   uint16   // Memory address of the word.
	Words     []string // Source words, after equate substitution.
	Word      Word     // Assembled word.
	Data      bool     // Set for HEX and DEC words.
	LinkLabel string   // Operand to resolve when linking.
}

// Program is an assembled program listing.
type Program struct {
	Statements []Statement
}

// Start returns the lowest address of an instruction.
func (prog *Program) Start() (start uint16, ok bool) {
	for _, stmt := range prog.Statements {
		if stmt.Data {
			continue
		}
		if !ok || stmt.Address < start {
			start = stmt.Address
			ok = true
		}
	}

	return
}

// Debug returns the statement assembled at addr.
func (prog *Program) Debug(addr uint16) (stmt Statement, ok bool) {
	addr &= ADDRESS_MASK
	for _, stmt = range prog.Statements {
		if stmt.Address == addr {
			ok = true
			return
		}
	}

	stmt = Statement{}
	return
}

// Words returns an iterator over the assembled words, by address.
func (prog *Program) Words() iter.Seq2[uint16, Word] {
	return func(yield func(addr uint16, word Word) bool) {
		for _, stmt := range prog.Statements {
			if !yield(stmt.Address, stmt.Word) {
				return
			}
		}
	}
}

// WriteImages writes the instructions to the program image, and the HEX
// and DEC words to the data image, as 'ADDR VALUE # source' records.
func (prog *Program) WriteImages(program io.Writer, data io.Writer) (err error) {
	for _, stmt := range prog.Statements {
		out := program
		if stmt.Data {
			out = data
		}
		if out == nil {
			continue
		}
		_, err = fmt.Fprintf(out, "%03X  %04X   # %v\n", stmt.Address, uint16(stmt.Word), stmt.Text)
		if err != nil {
			return
		}
	}

	return
}
