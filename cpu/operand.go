package cpu

import (
	"fmt"
)

// OperandKind is the variant of a decoded operand.
type OperandKind int

//go:generate go tool stringer -linecomment -type=OperandKind
const (
	OPERAND_UNUSED    = OperandKind(0) // unused
	OPERAND_REGISTER  = OperandKind(1) // register
	OPERAND_MEMORY    = OperandKind(2) // memory
	OPERAND_DIRECT    = OperandKind(3) // direct
	OPERAND_IMMEDIATE = OperandKind(4) // immediate
	OPERAND_JUMP      = OperandKind(5) // jump
)

// Size is the width of the data an operand accesses.
type Size int

const (
	SIZE_BYTE = Size(1)
	SIZE_WORD = Size(2)
)

func sizeOf(bits Bit) Size {
	if bits.Has(BIT_W) {
		return SIZE_WORD
	}
	return SIZE_BYTE
}

// String returns the size keyword.
func (size Size) String() string {
	if size == SIZE_WORD {
		return "word"
	}
	return "byte"
}

// Mask returns the value mask of the size.
func (size Size) Mask() uint16 {
	if size == SIZE_WORD {
		return 0xffff
	}
	return 0xff
}

// Sign returns the sign bit of the size.
func (size Size) Sign() uint16 {
	if size == SIZE_WORD {
		return 0x8000
	}
	return 0x80
}

const (
	filledDispLo = uint8(1 << 0)
	filledDispHi = uint8(1 << 1)
	filledDataLo = uint8(1 << 2)
	filledDataHi = uint8(1 << 3)
)

// Operand is a decoded instruction operand.
type Operand struct {
	Kind     OperandKind      // Operand variant.
	Size     Size             // Width of the accessed data.
	Register Register         // Register, for OPERAND_REGISTER.
	Address  EffectiveAddress // Base and index, for OPERAND_MEMORY.

	DispWidth int    // Displacement bytes encoded, 0 to 2.
	Disp      uint16 // Raw displacement magnitude.
	DataWidth int    // Immediate bytes encoded, 1 or 2.
	Data      uint16 // Raw immediate magnitude.

	filled uint8
}

// RegisterOperand creates a register operand.
func RegisterOperand(reg Register, size Size) Operand {
	return Operand{Kind: OPERAND_REGISTER, Register: reg, Size: size}
}

// MemoryOperand creates a base/index memory operand with a displacement.
func MemoryOperand(ea EffectiveAddress, size Size, disp int16, dispWidth int) Operand {
	return Operand{Kind: OPERAND_MEMORY, Address: ea, Size: size, Disp: uint16(disp), DispWidth: dispWidth, filled: filledDispLo | filledDispHi}
}

// DirectOperand creates a direct address memory operand.
func DirectOperand(addr uint16, size Size) Operand {
	return Operand{Kind: OPERAND_DIRECT, Size: size, Disp: addr, DispWidth: 2, filled: filledDispLo | filledDispHi}
}

// ImmediateOperand creates an immediate operand of the encoded width.
func ImmediateOperand(value int16, size Size, dataWidth int) Operand {
	return Operand{Kind: OPERAND_IMMEDIATE, Size: size, Data: uint16(value), DataWidth: dataWidth, filled: filledDataLo | filledDataHi}
}

// JumpOperand creates a relative jump operand.
func JumpOperand(disp int8) Operand {
	return Operand{Kind: OPERAND_JUMP, Disp: uint16(uint8(disp)), DispWidth: 1, filled: filledDispLo}
}

// IsMemory is true for base/index and direct memory operands.
func (op Operand) IsMemory() bool {
	return op.Kind == OPERAND_MEMORY || op.Kind == OPERAND_DIRECT
}

// hasDisp is true if the operand carries a displacement.
func (op Operand) hasDisp() bool {
	return op.IsMemory() || op.Kind == OPERAND_JUMP
}

// Need returns the count of displacement or immediate bytes that follow.
func (op Operand) Need() int {
	switch op.Kind {
	case OPERAND_MEMORY, OPERAND_DIRECT, OPERAND_JUMP:
		return op.DispWidth
	case OPERAND_IMMEDIATE:
		return op.DataWidth
	}
	return 0
}

// accepts returns true if the operand takes the trailing field.
func (op Operand) accepts(field Field) bool {
	switch field.Role {
	case ROLE_DISP:
		if !op.hasDisp() {
			return false
		}
		if field.High {
			return op.DispWidth == 2
		}
		return op.DispWidth >= 1
	case ROLE_DATA:
		if op.Kind != OPERAND_IMMEDIATE {
			return false
		}
		if field.High {
			return op.DataWidth == 2
		}
		return op.DataWidth >= 1
	}
	return false
}

// fill accumulates one trailing byte, low byte first.
func (op *Operand) fill(field Field, value uint8) (err error) {
	var flag uint8
	var target *uint16
	switch field.Role {
	case ROLE_DISP:
		flag, target = filledDispLo, &op.Disp
		if field.High {
			flag = filledDispHi
		}
	case ROLE_DATA:
		flag, target = filledDataLo, &op.Data
		if field.High {
			flag = filledDataHi
		}
	default:
		err = ErrFieldUsage
		return
	}

	if op.filled&flag != 0 {
		err = ErrFieldTwice
		return
	}
	op.filled |= flag

	if field.High {
		*target |= uint16(value) << 8
	} else {
		*target |= uint16(value)
	}

	return
}

// SignedDisplacement returns the displacement, sign extended from a byte.
func (op Operand) SignedDisplacement() (disp int16, err error) {
	if !op.hasDisp() {
		err = ErrOperandKind
		return
	}

	if op.DispWidth == 1 {
		disp = int16(int8(op.Disp))
	} else {
		disp = int16(op.Disp)
	}

	return
}

// SignedData returns the immediate value, sign extended from a byte.
func (op Operand) SignedData() (data int16, err error) {
	if op.Kind != OPERAND_IMMEDIATE {
		err = ErrOperandKind
		return
	}

	if op.DataWidth == 1 {
		data = int16(int8(op.Data))
	} else {
		data = int16(op.Data)
	}

	return
}

// String returns the assembly form of the operand.
func (op Operand) String() (text string) {
	switch op.Kind {
	case OPERAND_REGISTER:
		text = op.Register.Name(op.Size)
	case OPERAND_MEMORY:
		disp, _ := op.SignedDisplacement()
		if disp == 0 {
			text = fmt.Sprintf("[%v]", op.Address)
		} else {
			text = fmt.Sprintf("[%v%+d]", op.Address, disp)
		}
	case OPERAND_DIRECT:
		text = fmt.Sprintf("[%d]", op.Disp)
	case OPERAND_IMMEDIATE:
		data, _ := op.SignedData()
		text = fmt.Sprintf("%d", data)
	case OPERAND_JUMP:
		disp, _ := op.SignedDisplacement()
		text = fmt.Sprintf("$%+d", int(disp)+JUMP_SIZE)
	}
	return
}
