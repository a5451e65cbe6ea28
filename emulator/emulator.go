// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log"
	"maps"
	"os"

	"github.com/ezrec/mano/cpu"
)

var _emulator_defines = map[string]string{
	"ADDRESS_MASK":  fmt.Sprintf("%#x", cpu.ADDRESS_MASK),
	"WORD_MASK":     fmt.Sprintf("%#x", cpu.WORD_MASK),
	"WORD_INDIRECT": fmt.Sprintf("%#x", cpu.WORD_INDIRECT),
}

// Emulator state. Machine + program listing + loaded images.
type Emulator struct {
	Verbose      bool         // If set, enables verbose logging.
	*cpu.Machine              // Reference to the machine simulation.
	Program      *cpu.Program // Reference to the currently loaded program listing.

	programImage []byte
	dataImage    []byte
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Machine: cpu.NewMachine(),
		Program: &cpu.Program{},
	}

	return
}

// Defines returns an iterator over the equates predefined for assembly.
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return maps.All(_emulator_defines)
}

// Reset replaces the machine with a new one, and reloads the images.
func (emu *Emulator) Reset() (err error) {
	emu.Machine = cpu.NewMachine()
	emu.Machine.Verbose = emu.Verbose

	if emu.programImage == nil && emu.dataImage == nil {
		return
	}

	err = emu.load()

	return
}

// Clear drops the loaded images and listing, and resets the machine.
func (emu *Emulator) Clear() (err error) {
	emu.programImage = nil
	emu.dataImage = nil
	emu.Program = &cpu.Program{}

	err = emu.Reset()

	return
}

// load copies the stored images into memory.
func (emu *Emulator) load() (err error) {
	_, ok, err := emu.Machine.Load(bytes.NewReader(emu.programImage), bytes.NewReader(emu.dataImage))
	if err != nil {
		return
	}

	if !ok {
		err = ErrNoStart
	}

	return
}

// Assemble a source program, and load it.
func (emu *Emulator) Assemble(input io.Reader) (err error) {
	asm := &cpu.Assembler{Verbose: emu.Verbose}
	for equ, value := range emu.Defines() {
		asm.Predefine(equ, value)
	}

	prog, err := asm.Parse(input)
	if err != nil {
		return
	}

	err = emu.LoadProgram(prog)

	return
}

// LoadProgram loads an assembled program.
func (emu *Emulator) LoadProgram(prog *cpu.Program) (err error) {
	var program, data bytes.Buffer

	err = prog.WriteImages(&program, &data)
	if err != nil {
		return
	}

	err = emu.LoadImages(&program, &data)
	if err != nil {
		return
	}

	emu.Program = prog

	return
}

// LoadImages loads a program image and an optional data image.
// The images are kept, and reloaded by Reset.
func (emu *Emulator) LoadImages(program io.Reader, data io.Reader) (err error) {
	var program_image, data_image []byte

	if program != nil {
		program_image, err = io.ReadAll(program)
		if err != nil {
			return
		}
	}

	if data != nil {
		data_image, err = io.ReadAll(data)
		if err != nil {
			return
		}
	}

	emu.programImage = program_image
	emu.dataImage = data_image
	emu.Program = &cpu.Program{}

	if emu.Verbose {
		log.Printf("emulator: images %d, %d bytes", len(program_image), len(data_image))
	}

	err = emu.load()

	return
}

// LoadFiles loads the program and data image files. An empty or missing
// data file is skipped.
func (emu *Emulator) LoadFiles(programPath string, dataPath string) (err error) {
	program, err := os.ReadFile(programPath)
	if err != nil {
		err = &cpu.ErrImage{Path: programPath, Err: err}
		return
	}

	var data []byte
	if len(dataPath) != 0 {
		data, err = os.ReadFile(dataPath)
		if errors.Is(err, os.ErrNotExist) {
			err = nil
		}
		if err != nil {
			err = &cpu.ErrImage{Path: dataPath, Err: err}
			return
		}
	}

	err = emu.LoadImages(bytes.NewReader(program), bytes.NewReader(data))

	return
}

// Address returns the address of the instruction in hand.
func (emu *Emulator) Address() uint16 {
	addr := emu.Machine.PC.Value()
	if emu.Machine.SC.Value() > 1 {
		addr = (addr - 1) & cpu.ADDRESS_MASK
	}

	return addr
}

// LineNo returns the source line number of the instruction in hand,
// or 0 if there is no source listing.
func (emu *Emulator) LineNo() int {
	stmt, ok := emu.Program.Debug(emu.Address())
	if !ok {
		return 0
	}

	return stmt.LineNo
}

// runtime wraps a step fault in a runtime error.
func (emu *Emulator) runtime(lineno int, step cpu.Step) (err error) {
	if !step.Fault {
		return
	}

	err = &ErrRuntime{LineNo: lineno, Err: ErrFault(step.Micro)}

	return
}

// Tick performs a single T-state of the emulator.
func (emu *Emulator) Tick() (step cpu.Step, err error) {
	emu.Machine.Verbose = emu.Verbose

	lineno := emu.LineNo()
	step = emu.Machine.StepCycle()
	err = emu.runtime(lineno, step)

	return
}

// Step performs a single instruction of the emulator.
func (emu *Emulator) Step() (step cpu.Step, err error) {
	emu.Machine.Verbose = emu.Verbose

	lineno := emu.LineNo()
	step = emu.Machine.StepInstruction()
	err = emu.runtime(lineno, step)

	return
}

// Run executes instructions until the machine halts, the context is
// done, or limit instructions have executed. A limit of 0 is unbounded.
func (emu *Emulator) Run(ctx context.Context, limit int) (err error) {
	for count := 0; !emu.Halted(); count++ {
		if limit > 0 && count >= limit {
			err = &ErrRuntime{LineNo: emu.LineNo(), Err: ErrLimit}
			return
		}

		err = ctx.Err()
		if err != nil {
			return
		}

		_, err = emu.Step()
		if err != nil {
			return
		}
	}

	return
}
