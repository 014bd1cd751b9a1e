// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"errors"
	"fmt"
	stdio "io"
	"iter"
	"maps"

	"github.com/ezrec/sim86/cpu"
	"github.com/ezrec/sim86/internal"
	"github.com/ezrec/sim86/io"
	"github.com/ezrec/sim86/translate"
)

// Emulator state. CPU + instruction buffer.
type Emulator struct {
	Verbose  bool       // If set, enables verbose logging.
	*cpu.Cpu            // Reference to the CPU simulation.
	Buffer   *io.Buffer // Loaded instruction bytes.
	Program  *cpu.Program
}

// NewEmulator creates a new emulator with an empty buffer.
func NewEmulator() (emu *Emulator) {
	buffer := io.NewBuffer()
	emu = &Emulator{
		Cpu:     cpu.NewCpu(buffer),
		Buffer:  buffer,
		Program: &cpu.Program{},
	}

	return
}

// Load reads a program image of the given size.
func (emu *Emulator) Load(input stdio.Reader, size int64) (err error) {
	err = emu.Buffer.Load(input, size)
	if err != nil {
		return
	}

	err = emu.Reset()
	return
}

// LoadBytes loads a program image.
func (emu *Emulator) LoadBytes(code []byte) (err error) {
	emu.Buffer.LoadBytes(code)

	err = emu.Reset()
	return
}

// Reset the emulator state, and build the listing used for error reports.
// A listing that fails to decode part way is kept up to the failure.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Reset()

	emu.Buffer.Rewind()
	emu.Program, _ = cpu.Disassemble(emu.Buffer)
	emu.Buffer.Rewind()

	return
}

// Disassemble decodes the whole buffer.
func (emu *Emulator) Disassemble() (prog *cpu.Program, err error) {
	emu.Buffer.Rewind()
	defer emu.Buffer.Rewind()

	prog, err = cpu.Disassemble(emu.Buffer)
	if err != nil {
		err = &ErrRuntime{Offset: emu.Buffer.Offset(), Err: err}
	}

	return
}

// Ticks returns the total instructions executed since a reset.
func (emu *Emulator) Ticks() int {
	return emu.Cpu.Ticks
}

// Ip returns current instruction pointer.
func (emu *Emulator) Ip() int {
	return emu.Cpu.Ip()
}

// Tick performs a single instruction of the emulator.
func (emu *Emulator) Tick() (done bool, err error) {
	emu.Cpu.Verbose = emu.Verbose

	offset := emu.Ip()
	defer func() {
		if err != nil {
			runtime := &ErrRuntime{Offset: offset, Err: err}
			if dbg := emu.Program.Debug(offset); dbg.Opcode != nil {
				runtime.Text = dbg.Text
			}
			err = runtime
		}
	}()

	err = emu.Cpu.Tick()
	if errors.Is(err, cpu.ErrIpEmpty) {
		err = nil
		done = true
		return
	}
	if err != nil {
		return
	}

	done = emu.Cpu.Code.AtEnd()
	return
}

// Run executes until the instruction pointer reaches the end of the buffer.
func (emu *Emulator) Run() (err error) {
	for done := false; !done; {
		done, err = emu.Tick()
		if err != nil {
			return
		}
	}

	if emu.Verbose {
		translate.Logf("emulator: halted at ip 0x%04x after %d instructions", emu.Ip(), emu.Ticks())
	}

	return
}

// registerValues iterates over the word registers by name.
func (emu *Emulator) registerValues() iter.Seq2[string, int64] {
	return func(yield func(string, int64) bool) {
		for _, reg := range cpu.DumpOrder {
			if !yield(reg.String(), int64(emu.Cpu.Register[reg])) {
				return
			}
		}
	}
}

// flagValues iterates over the status flags by name.
func (emu *Emulator) flagValues() iter.Seq2[string, int64] {
	flags := map[string]int64{}
	for _, flag := range []cpu.CpuFlag{cpu.FLAG_ZERO, cpu.FLAG_SIGN} {
		var value int64
		if emu.Cpu.Flags&flag != 0 {
			value = 1
		}
		flags[flag.String()] = value
	}
	return maps.All(flags)
}

// Defines returns an iterator over the registers, flags and instruction
// pointer, by name.
func (emu *Emulator) Defines() iter.Seq2[string, int64] {
	return internal.IterSeq2Concat(
		emu.registerValues(),
		emu.flagValues(),
		maps.All(map[string]int64{"ip": int64(emu.Ip())}),
	)
}

// String returns the final register dump.
func (emu *Emulator) String() string {
	return fmt.Sprintf("Final registers:\n%v", emu.Cpu.String())
}
