package cpu

import (
	"fmt"
	"iter"
	"strings"
)

// Opcode is one line of an assembled or disassembled program.
type Opcode struct {
	LineNo      int         // Source line, zero when disassembled.
	Offset      int         // Position of the first byte.
	Text        string      // Assembly text.
	Bytes       []byte      // Encoded bytes.
	Instruction Instruction // Decoded form.
	LinkLabel   string      // Jump label awaiting linking.
}

// Program is an ordered listing of opcodes.
type Program struct {
	Opcodes []Opcode
}

type Debug struct {
	*Opcode
	Index int
}

// Debug finds the opcode covering a byte offset, and the offset's index
// within the opcode's bytes.
func (prog *Program) Debug(offset int) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if offset >= op.Offset && offset < op.Offset+len(op.Bytes) {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  offset - op.Offset,
			}
			break
		}
	}

	return
}

// Binary returns the encoded program.
func (prog *Program) Binary() (bins []byte) {
	for _, op := range prog.Opcodes {
		bins = append(bins, op.Bytes...)
	}

	return
}

// Instructions iterates over the decoded instructions by offset.
func (prog *Program) Instructions() iter.Seq2[int, Instruction] {
	return func(yield func(offset int, inst Instruction) bool) {
		for _, op := range prog.Opcodes {
			if !yield(op.Offset, op.Instruction) {
				return
			}
		}
	}
}

// String returns the listing as assembly text.
func (prog *Program) String() string {
	var text strings.Builder

	text.WriteString("bits 16\n")
	for _, op := range prog.Opcodes {
		fmt.Fprintf(&text, "%v\n", op.Instruction)
	}

	return text.String()
}

// Disassemble decodes every instruction remaining in the source.
// On error, the opcodes decoded so far are returned with it.
func Disassemble(src interface {
	ByteSource
	AtEnd() bool
}) (prog *Program, err error) {
	prog = &Program{}

	dec := &Decoder{}
	for !src.AtEnd() {
		var inst Instruction
		inst, err = dec.Decode(src)
		if err != nil {
			return
		}

		prog.Opcodes = append(prog.Opcodes, Opcode{
			Offset:      inst.Offset,
			Text:        inst.String(),
			Bytes:       dec.Bytes(),
			Instruction: inst,
		})
	}

	return
}
