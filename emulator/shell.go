package emulator

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/ezrec/mano/cpu"
)

// SHELL_LIMIT is the default number of instructions a 'run' command
// executes before giving up.
const SHELL_LIMIT = 100000

// SHELL_PROMPT is the interactive prompt.
const SHELL_PROMPT = "> "

var shellHelp = []string{
	"Commands:",
	"  next_cycle",
	"  fast_cycle N",
	"  next_inst",
	"  fast_inst N",
	"  run",
	"  show REG",
	"  show mem ADDR [COUNT]",
	"  show all",
	"  show profiler",
	"  load PROGRAM [DATA]",
	"  reset",
	"  exit / quit",
}

// Shell interprets interactive commands against an emulator.
type Shell struct {
	*Emulator
	Output io.Writer // Command output.
	Limit  int       // Instruction limit of 'run', 0 for unbounded.
}

// NewShell creates a shell writing to output.
func NewShell(emu *Emulator, output io.Writer) (sh *Shell) {
	sh = &Shell{
		Emulator: emu,
		Output:   output,
		Limit:    SHELL_LIMIT,
	}

	return
}

func (sh *Shell) println(lines ...string) {
	for _, line := range lines {
		fmt.Fprintln(sh.Output, line)
	}
}

// showCycle prints the state after a T-state.
func (sh *Shell) showCycle(step cpu.Step) {
	sh.println(
		fmt.Sprintf("Instruction in hand: 0x%04X", sh.Machine.IR.Value()),
		fmt.Sprintf("Micro-operation: %s", step.Micro),
		fmt.Sprintf("Changed: %v", step.Changed),
	)
}

// showInstruction prints the state after an instruction.
func (sh *Shell) showInstruction() {
	sh.println(
		fmt.Sprintf("Instruction executed: 0x%04X", sh.Machine.IR.Value()),
		fmt.Sprintf("PC = 0x%03X AC = 0x%04X", sh.Machine.PC.Value(), sh.Machine.AC.Value()),
	)
}

// count parses a repeat count argument.
func (sh *Shell) count(args []string, usage string) (n int, ok bool) {
	if len(args) != 1 {
		sh.println(usage)
		return
	}

	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		sh.println(f("N must be a positive integer"))
		return
	}

	ok = true
	return
}

// report prints a runtime error.
func (sh *Shell) report(err error) {
	if err == nil {
		return
	}
	sh.println(f("Error: %v", err))
}

// Exec executes a single command line. Quit is set by 'exit' or 'quit'.
func (sh *Shell) Exec(ctx context.Context, line string) (quit bool) {
	words := strings.Fields(line)
	if len(words) == 0 {
		return
	}

	cmd := strings.ToLower(words[0])
	args := words[1:]

	switch cmd {
	case "exit", "quit":
		quit = true
	case "help":
		sh.println(shellHelp...)
	case "next_cycle":
		step, err := sh.Tick()
		sh.showCycle(step)
		sh.report(err)
	case "fast_cycle":
		n, ok := sh.count(args, f("Usage: fast_cycle N"))
		if !ok {
			return
		}
		var step cpu.Step
		var err error
		for range n {
			step, err = sh.Tick()
			if err != nil || sh.Halted() {
				break
			}
		}
		sh.showCycle(step)
		sh.report(err)
	case "next_inst":
		_, err := sh.Step()
		sh.showInstruction()
		sh.report(err)
	case "fast_inst":
		n, ok := sh.count(args, f("Usage: fast_inst N"))
		if !ok {
			return
		}
		for range n {
			if sh.Halted() {
				break
			}
			_, err := sh.Step()
			sh.showInstruction()
			if err != nil {
				sh.report(err)
				break
			}
		}
	case "run":
		for count := 0; !sh.Halted(); count++ {
			if sh.Limit > 0 && count >= sh.Limit {
				sh.report(&ErrRuntime{LineNo: sh.LineNo(), Err: ErrLimit})
				break
			}
			if err := ctx.Err(); err != nil {
				sh.report(err)
				break
			}
			_, err := sh.Step()
			sh.showInstruction()
			if err != nil {
				sh.report(err)
				break
			}
		}
	case "show":
		sh.show(args)
	case "load":
		if len(args) < 1 || len(args) > 2 {
			sh.println(f("Usage: load PROGRAM [DATA]"))
			return
		}
		sh.load(args)
	case "reset":
		err := sh.Reset()
		sh.report(err)
		if err == nil {
			sh.println(f("Machine reset"))
		}
	default:
		sh.println(f("Unknown command. Type 'help' for commands."))
	}

	return
}

// show prints registers, memory, or the profiler.
func (sh *Shell) show(args []string) {
	if len(args) == 0 {
		sh.println(f("Usage: show [REG|mem|all|profiler] ..."))
		return
	}

	switch strings.ToLower(args[0]) {
	case "mem":
		if len(args) < 2 || len(args) > 3 {
			sh.println(f("Usage: show mem ADDR [COUNT]"))
			return
		}
		digits := args[1]
		if len(digits) > 2 && strings.EqualFold(digits[:2], "0x") {
			digits = digits[2:]
		}
		addr, err := strconv.ParseUint(digits, 16, 64)
		if err != nil {
			sh.println(f("Address must be hex"))
			return
		}
		count := 1
		if len(args) > 2 {
			count, err = strconv.Atoi(args[2])
			if err != nil {
				sh.println(f("COUNT must be an integer"))
				return
			}
		}
		sh.println(sh.ShowMemory(uint16(addr&cpu.ADDRESS_MASK), count))
	case "all":
		sh.println(sh.ShowAll())
	case "profiler":
		sh.println(sh.ShowProfiler())
	default:
		sh.println(sh.ShowRegister(args[0]))
	}
}

// load loads images, or assembles a '.asm' source file.
func (sh *Shell) load(args []string) {
	var err error

	if strings.HasSuffix(strings.ToLower(args[0]), ".asm") && len(args) == 1 {
		var inf *os.File
		inf, err = os.Open(args[0])
		if err == nil {
			defer inf.Close()
			err = sh.Clear()
		}
		if err == nil {
			err = sh.Assemble(inf)
		}
	} else {
		data := ""
		if len(args) > 1 {
			data = args[1]
		}
		err = sh.Clear()
		if err == nil {
			err = sh.LoadFiles(args[0], data)
		}
	}

	if err != nil {
		sh.report(err)
		return
	}

	sh.println(fmt.Sprintf("Loaded %v, PC = 0x%03X", strings.Join(args, " "), sh.Machine.PC.Value()))
}

// Serve reads commands, one per line, until end of input, a quit command,
// or the context is done.
func (sh *Shell) Serve(ctx context.Context, input io.Reader) (err error) {
	scanner := bufio.NewScanner(input)

	for {
		fmt.Fprint(sh.Output, SHELL_PROMPT)

		if !scanner.Scan() {
			fmt.Fprintln(sh.Output)
			err = scanner.Err()
			return
		}

		err = ctx.Err()
		if err != nil {
			return
		}

		if sh.Exec(ctx, scanner.Text()) {
			return
		}
	}
}

// ServeTerminal reads commands from a terminal, with line editing and
// history, until end of input or a quit command.
func (sh *Shell) ServeTerminal(ctx context.Context, fd int, rw io.ReadWriter) (err error) {
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return
	}
	defer term.Restore(fd, oldState)

	terminal := term.NewTerminal(rw, SHELL_PROMPT)

	output := sh.Output
	sh.Output = terminal
	defer func() { sh.Output = output }()

	for {
		var line string
		line, err = terminal.ReadLine()
		if errors.Is(err, io.EOF) {
			err = nil
			return
		}
		if err != nil {
			return
		}

		err = ctx.Err()
		if err != nil {
			return
		}

		if sh.Exec(ctx, line) {
			return
		}
	}
}
