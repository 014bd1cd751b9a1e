// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"errors"
	"fmt"
	"log"
)

const (
	MEMORY_SIZE = 64 * 1024 // Reach of a 16-bit effective address.
)

// CpuFlag is a status flag.
type CpuFlag uint8

const (
	FLAG_ZERO = CpuFlag(1 << 0) // Result was zero.
	FLAG_SIGN = CpuFlag(1 << 1) // Result had the sign bit set.
)

// String returns the set flags as letters.
func (fl CpuFlag) String() (text string) {
	if fl&FLAG_ZERO != 0 {
		text += "Z"
	}
	if fl&FLAG_SIGN != 0 {
		text += "S"
	}
	return
}

// Cursor is the instruction stream the CPU executes from.
type Cursor interface {
	ByteSource
	JumpBy(offset int) (err error)
	AtEnd() bool
}

// Cpu is the simulation context of the register file, flags and memory.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Register [8]int16 // Register file, in encoding order.
	Flags    CpuFlag  // Status flags.
	Memory   []byte   // Flat memory.
	Code     Cursor   // Instruction stream; its offset is the instruction pointer.

	Ticks int // Executed instruction counter.

	decoder Decoder
}

// NewCpu creates a CPU executing from code.
func NewCpu(code Cursor) (cpu *Cpu) {
	cpu = &Cpu{
		Memory: make([]byte, MEMORY_SIZE),
		Code:   code,
	}

	return
}

// Reset the CPU state.
// - Clears the registers, flags and memory.
// - Zeros the tick counter.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	clear(cpu.Register[:])
	clear(cpu.Memory)
	cpu.Flags = 0
	cpu.Ticks = 0
}

// Ip returns the instruction pointer.
func (cpu *Cpu) Ip() int {
	if cpu.Code == nil {
		return 0
	}
	return cpu.Code.Offset()
}

// Get returns the value of a byte or word register.
func (cpu *Cpu) Get(reg Register, size Size) int16 {
	if size == SIZE_WORD {
		return cpu.Register[reg&7]
	}

	word, high := reg.Half()
	value := uint16(cpu.Register[word])
	if high {
		value >>= 8
	}
	return int16(int8(value))
}

// Set assigns a byte or word register.
func (cpu *Cpu) Set(reg Register, size Size, value int16) {
	old := cpu.Register
	if size == SIZE_WORD {
		cpu.Register[reg&7] = value
	} else {
		word, high := reg.Half()
		current := uint16(cpu.Register[word])
		if high {
			current = (current & 0x00ff) | (uint16(value) << 8)
		} else {
			current = (current & 0xff00) | (uint16(value) & 0x00ff)
		}
		cpu.Register[word] = int16(current)
	}

	if cpu.Verbose {
		word, _ := reg.Half()
		if size == SIZE_WORD {
			word = reg
		}
		log.Printf("cpu: %v:%#x->%#x", word, uint16(old[word]), uint16(cpu.Register[word]))
	}
}

// ReadWord reads a little-endian word from memory.
func (cpu *Cpu) ReadWord(addr uint16) int16 {
	lo := uint16(cpu.Memory[addr])
	hi := uint16(cpu.Memory[addr+1])
	return int16(lo | (hi << 8))
}

// WriteWord writes a little-endian word to memory.
func (cpu *Cpu) WriteWord(addr uint16, value int16) {
	cpu.Memory[addr] = byte(uint16(value))
	cpu.Memory[addr+1] = byte(uint16(value) >> 8)
}

// EffectiveAddress computes the memory index of a memory operand.
func (cpu *Cpu) EffectiveAddress(op Operand) (addr uint16, err error) {
	disp, err := op.SignedDisplacement()
	if err != nil {
		return
	}

	switch op.Kind {
	case OPERAND_DIRECT:
		addr = uint16(disp)
	case OPERAND_MEMORY:
		sum := int(disp)
		for _, reg := range op.Address.Registers() {
			sum += int(cpu.Register[reg])
		}
		addr = uint16(sum)
	default:
		err = ErrOperandKind
	}

	return
}

// Value returns the value of an operand.
func (cpu *Cpu) Value(op Operand) (value int16, err error) {
	switch op.Kind {
	case OPERAND_REGISTER:
		value = cpu.Get(op.Register, op.Size)
	case OPERAND_MEMORY, OPERAND_DIRECT:
		var addr uint16
		addr, err = cpu.EffectiveAddress(op)
		if err != nil {
			return
		}
		if op.Size == SIZE_WORD {
			value = cpu.ReadWord(addr)
		} else {
			value = int16(int8(cpu.Memory[addr]))
		}
	case OPERAND_IMMEDIATE:
		value, err = op.SignedData()
	default:
		err = ErrOperandKind
	}

	return
}

// store writes a value to a register or memory operand.
func (cpu *Cpu) store(op Operand, value int16) (err error) {
	switch op.Kind {
	case OPERAND_REGISTER:
		cpu.Set(op.Register, op.Size, value)
	case OPERAND_MEMORY, OPERAND_DIRECT:
		var addr uint16
		addr, err = cpu.EffectiveAddress(op)
		if err != nil {
			return
		}
		if op.Size == SIZE_WORD {
			cpu.WriteWord(addr, value)
		} else {
			cpu.Memory[addr] = byte(value)
		}
		if cpu.Verbose {
			log.Printf("cpu: [%#x]:%#x", addr, uint16(value)&op.Size.Mask())
		}
	default:
		err = ErrOperandKind
	}

	return
}

// setFlags updates zero and sign from a result of the given size.
func (cpu *Cpu) setFlags(result uint16, size Size) {
	before := cpu.Flags

	cpu.Flags &^= FLAG_ZERO | FLAG_SIGN
	if result&size.Mask() == 0 {
		cpu.Flags |= FLAG_ZERO
	}
	if result&size.Sign() != 0 {
		cpu.Flags |= FLAG_SIGN
	}

	if cpu.Verbose && before != cpu.Flags {
		log.Printf("cpu: flags:%v->%v", before, cpu.Flags)
	}
}

// Tick decodes and executes the instruction at the instruction pointer.
func (cpu *Cpu) Tick() (err error) {
	if cpu.Code == nil || cpu.Code.AtEnd() {
		err = ErrIpEmpty
		return
	}

	cpu.decoder.Verbose = cpu.Verbose
	inst, err := cpu.decoder.Decode(cpu.Code)
	if err != nil {
		return
	}

	err = cpu.Execute(inst)
	return
}

// Execute applies a decoded instruction to the CPU state.
func (cpu *Cpu) Execute(inst Instruction) (err error) {
	defer func() {
		if err != nil {
			err = errors.Join(ErrExecute, err)
		}
	}()

	if cpu.Verbose {
		log.Printf("cpu: %04x: %v", inst.Offset, inst)
	}

	if inst.Op.IsJump() {
		err = cpu.jump(inst)
		if err == nil {
			cpu.Ticks++
		}
		return
	}

	dst, src := inst.Ordered()

	var value int16
	value, err = cpu.Value(src)
	if err != nil {
		return
	}

	var result uint16
	switch inst.Op {
	case OP_MOV:
		result = uint16(value)
	case OP_ADD, OP_SUB, OP_CMP:
		var input int16
		input, err = cpu.Value(dst)
		if err != nil {
			return
		}
		if inst.Op == OP_ADD {
			result = uint16(input) + uint16(value)
		} else {
			result = uint16(input) - uint16(value)
		}
	default:
		err = fmt.Errorf("%w: %v", ErrOpcodeInvalid, inst.Op)
		return
	}

	result &= dst.Size.Mask()

	if inst.Op != OP_CMP {
		err = cpu.store(dst, int16(result))
		if err != nil {
			return
		}
	}

	if inst.Op != OP_MOV {
		cpu.setFlags(result, dst.Size)
	}

	cpu.Ticks++
	return
}

// jump moves the instruction pointer if the jump's condition holds.
func (cpu *Cpu) jump(inst Instruction) (err error) {
	disp, err := inst.Target()
	if err != nil {
		return
	}

	var taken bool
	switch inst.Op {
	case OP_JE:
		taken = cpu.Flags&FLAG_ZERO != 0
	case OP_JNZ:
		taken = cpu.Flags&FLAG_ZERO == 0
	case OP_JS:
		taken = cpu.Flags&FLAG_SIGN != 0
	case OP_JNS:
		taken = cpu.Flags&FLAG_SIGN == 0
	case OP_JMP:
		taken = true
	}

	if !taken {
		return
	}

	if cpu.Code == nil {
		err = ErrIpEmpty
		return
	}

	before := cpu.Code.Offset()
	err = cpu.Code.JumpBy(int(disp))
	if err == nil && cpu.Verbose {
		log.Printf("cpu: ip:%#x->%#x", before, cpu.Code.Offset())
	}

	return
}

// String returns the register and flag dump.
func (cpu *Cpu) String() (text string) {
	for _, reg := range DumpOrder {
		value := cpu.Register[reg]
		text += fmt.Sprintf("      %v: 0x%04x (%d)\n", reg, uint16(value), value)
	}
	ip := cpu.Ip()
	text += fmt.Sprintf("      ip: 0x%04x (%d)\n", ip, ip)
	text += fmt.Sprintf("   flags: %v\n", cpu.Flags)

	return
}
