package cpu

import (
	"fmt"
)

const (
	JUMP_SIZE = 2 // Bytes in a short relative jump.
)

// Instruction is a fully decoded instruction.
type Instruction struct {
	Op       Operation  // Operation.
	Bits     Bit        // Accumulated single-bit modifiers.
	Operands [2]Operand // Register side slot, then the other slot.
	Offset   int        // Position of the first byte in the stream.
	Size     int        // Bytes consumed by the decode.
}

// Ordered returns the destination and source operands.
//
// With the direction bit set the register side is the destination. Without
// it, an immediate in the other slot is still the source.
func (inst Instruction) Ordered() (dst, src Operand) {
	if inst.Bits.Has(BIT_D) || inst.Operands[1].Kind == OPERAND_IMMEDIATE {
		return inst.Operands[0], inst.Operands[1]
	}
	return inst.Operands[1], inst.Operands[0]
}

// Target returns the signed relative displacement of a jump.
func (inst Instruction) Target() (disp int16, err error) {
	for _, op := range inst.Operands {
		if op.Kind == OPERAND_JUMP {
			return op.SignedDisplacement()
		}
	}

	err = ErrOperandKind
	return
}

// String returns the assembly text of the instruction.
func (inst Instruction) String() string {
	if inst.Op.IsJump() {
		for _, op := range inst.Operands {
			if op.Kind == OPERAND_JUMP {
				return fmt.Sprintf("%v %v", inst.Op, op)
			}
		}
	}

	dst, src := inst.Ordered()

	source := src.String()
	if src.Kind == OPERAND_IMMEDIATE && dst.IsMemory() {
		source = src.Size.String() + " " + source
	}

	return fmt.Sprintf("%v %v, %v", inst.Op, dst, source)
}
