// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"github.com/ezrec/sim86/cpu"
	"github.com/ezrec/sim86/emulator"
	"github.com/ezrec/sim86/io"
)

// presets collects repeated -set flags.
type presets []string

func (p *presets) String() string {
	return strings.Join(*p, ",")
}

func (p *presets) Set(value string) error {
	*p = append(*p, value)
	return nil
}

func main() {
	var exec bool
	var verbose bool
	var debug bool
	var compile bool
	var output string
	var memory string
	var sets presets

	flag.BoolVar(&exec, "exec", false, "Execute, and dump the final registers")
	flag.BoolVar(&exec, "e", false, "Shorthand for -exec")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.BoolVar(&debug, "d", false, "Dump decoded instruction records")
	flag.BoolVar(&compile, "c", false, "Input is assembly source to compile")
	flag.StringVar(&output, "o", "", "Binary output file")
	flag.StringVar(&memory, "m", "", "Memory dump file after execution ('-' for stdout)")
	flag.Var(&sets, "set", "Register preset, reg=expression (repeatable)")

	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatalf("%v: expected one input file, got: %v", os.Args[0], flag.Args())
	}
	name := flag.Arg(0)

	inf, err := os.Open(name)
	if err != nil {
		log.Fatalf("%v: %v", name, err)
	}
	defer inf.Close()

	emu := emulator.NewEmulator()
	emu.Verbose = verbose

	if compile {
		asm := &cpu.Assembler{Verbose: verbose}
		prog, err := asm.Parse(inf)
		if err != nil {
			log.Fatalf("%v: %v", name, err)
		}
		err = emu.LoadBytes(prog.Binary())
		if err != nil {
			log.Fatalf("%v: %v", name, err)
		}
	} else {
		info, err := inf.Stat()
		if err != nil {
			log.Fatalf("%v: %v", name, err)
		}
		err = emu.Load(inf, info.Size())
		if err != nil {
			log.Fatalf("%v: %v", name, err)
		}
	}

	if len(output) != 0 {
		err = os.WriteFile(output, emu.Buffer.Bytes(), 0o644)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
	}

	if debug {
		dumper := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true}
		for _, op := range emu.Program.Opcodes {
			dumper.Fdump(os.Stderr, op.Instruction)
		}
	}

	if !exec {
		prog, err := emu.Disassemble()
		if prog != nil {
			fmt.Print(prog.String())
		}
		if err != nil {
			log.Fatalf("%v: %v", name, err)
		}
		return
	}

	for _, set := range sets {
		err = emu.Preset(set)
		if err != nil {
			log.Fatalf("-set %v: %v", set, err)
		}
	}

	err = emu.Run()
	if err != nil {
		log.Fatalf("%v: %v", name, err)
	}

	fmt.Print(emu.String())

	switch memory {
	case "":
	case "-":
		err = io.DumpMemory(os.Stdout, emu.Cpu.Memory)
	default:
		err = io.DumpMemoryFile(memory, emu.Cpu.Memory)
	}
	if err != nil {
		log.Fatalf("%v: %v", memory, err)
	}
}
