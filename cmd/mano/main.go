// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"golang.org/x/term"

	"github.com/ezrec/mano/cpu"
	"github.com/ezrec/mano/emulator"
)

// saveImages writes the assembled program and data images.
func saveImages(prog *cpu.Program, programPath string, dataPath string) (err error) {
	var program, data io.Writer

	if len(programPath) != 0 {
		var ouf *os.File
		ouf, err = os.Create(programPath)
		if err != nil {
			return
		}
		defer ouf.Close()
		program = ouf
	}

	if len(dataPath) != 0 {
		var ouf *os.File
		ouf, err = os.Create(dataPath)
		if err != nil {
			return
		}
		defer ouf.Close()
		data = ouf
	}

	err = prog.WriteImages(program, data)

	return
}

func main() {
	var compile string
	var program string
	var data string
	var saveProgram string
	var saveData string
	var save bool
	var interactive bool
	var limit int
	var verbose bool

	flag.StringVar(&compile, "c", "", ".asm file to assemble")
	flag.StringVar(&program, "p", "", "program image to load")
	flag.StringVar(&data, "d", "", "data image to load")
	flag.StringVar(&saveProgram, "P", "", "save assembled program image")
	flag.StringVar(&saveData, "D", "", "save assembled data image")
	flag.BoolVar(&save, "s", false, "Save images, do not execute")
	flag.BoolVar(&interactive, "i", false, "Interactive shell")
	flag.IntVar(&limit, "n", 0, "Instruction limit, 0 for none")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	emu := emulator.NewEmulator()
	emu.Verbose = verbose

	switch {
	case len(compile) != 0:
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		err = emu.Assemble(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}

		err = saveImages(emu.Program, saveProgram, saveData)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
	case len(program) != 0:
		err := emu.LoadFiles(program, data)
		if err != nil {
			log.Fatalf("%v: %v", program, err)
		}
	case !interactive:
		log.Fatalf("%v: no program, use -c or -p", os.Args[0])
	}

	if save {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if interactive {
		sh := emulator.NewShell(emu, os.Stdout)
		if limit > 0 {
			sh.Limit = limit
		}

		var err error
		fd := int(os.Stdin.Fd())
		if term.IsTerminal(fd) {
			fmt.Println("Mano Basic Computer Simulator")
			fmt.Println("Type 'help' for list of commands.")
			tty := struct {
				io.Reader
				io.Writer
			}{os.Stdin, os.Stdout}
			err = sh.ServeTerminal(ctx, fd, tty)
		} else {
			err = sh.Serve(ctx, os.Stdin)
		}
		if err != nil {
			log.Fatal(err)
		}
		return
	}

	err := emu.Run(ctx, limit)

	fmt.Println(emu.ShowAll())
	fmt.Println(emu.ShowProfiler())

	if err != nil {
		log.Fatal(err)
	}
}
