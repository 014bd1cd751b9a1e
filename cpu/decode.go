package cpu

import (
	"errors"
	"slices"

	"github.com/ezrec/sim86/translate"
)

// DecodeState is the progress of a Decoder.
type DecodeState int

//go:generate go tool stringer -linecomment -type=DecodeState
const (
	STATE_BYTE1    = DecodeState(0) // awaiting-byte1
	STATE_BYTE2    = DecodeState(1) // awaiting-byte2
	STATE_TRAILING = DecodeState(2) // awaiting-trailing
	STATE_COMPLETE = DecodeState(3) // complete
)

// ByteSource supplies instruction bytes in stream order.
type ByteSource interface {
	NextByte() (value byte, err error)
	NextBytes(n int) (data []byte, err error)
	Offset() int
}

// Decoder decodes one instruction, a byte or a group of bytes at a time.
// The zero value is ready to accept the first byte.
type Decoder struct {
	Verbose bool        // Set to enable verbose logging.
	State   DecodeState // Current state.

	template *Template
	inst     Instruction
	need     int
	next     int
	raw      []byte
}

// Reset prepares the decoder for a new instruction.
func (dec *Decoder) Reset() {
	verbose := dec.Verbose
	*dec = Decoder{Verbose: verbose, raw: dec.raw[:0]}
}

// Want returns the count of bytes the next Step must be given.
func (dec *Decoder) Want() int {
	switch dec.State {
	case STATE_BYTE1, STATE_BYTE2:
		return 1
	case STATE_TRAILING:
		return dec.need
	}
	return 0
}

// Done returns true once the instruction is complete.
func (dec *Decoder) Done() bool {
	return dec.State == STATE_COMPLETE
}

// Template returns the template matched so far.
func (dec *Decoder) Template() *Template {
	return dec.template
}

// Bytes returns the bytes consumed so far.
func (dec *Decoder) Bytes() []byte {
	return slices.Clone(dec.raw)
}

// Instruction returns the decoded instruction.
func (dec *Decoder) Instruction() (inst Instruction, err error) {
	if !dec.Done() {
		err = ErrDecodeState
		return
	}

	inst = dec.inst
	return
}

// Step consumes exactly Want() bytes.
func (dec *Decoder) Step(data ...byte) (err error) {
	if len(data) != dec.Want() || dec.Done() {
		err = ErrDecodeState
		return
	}

	defer func() {
		if err != nil && len(dec.raw) > 0 {
			err = errors.Join(ErrOpcode(dec.raw[0]), err)
		}
	}()

	dec.raw = append(dec.raw, data...)
	dec.inst.Size += len(data)

	switch dec.State {
	case STATE_BYTE1:
		err = dec.stepFirst(data[0])
	case STATE_BYTE2:
		err = dec.stepSecond(data[0])
	case STATE_TRAILING:
		err = dec.stepTrailing(data)
	}
	if err != nil {
		return
	}

	if dec.Verbose {
		translate.Logf("decode: % 02x -> %v need %d", data, dec.State, dec.need)
	}

	return
}

// setOperand fills an operand slot exactly once.
func (dec *Decoder) setOperand(slot int, op Operand) (err error) {
	if dec.inst.Operands[slot].Kind != OPERAND_UNUSED {
		err = ErrFieldTwice
		return
	}

	dec.inst.Operands[slot] = op
	return
}

// finish computes the trailing byte count and the next state.
func (dec *Decoder) finish(next int) {
	dec.next = next
	dec.need = 0
	for _, op := range dec.inst.Operands {
		dec.need += op.Need()
	}

	if dec.need == 0 {
		dec.State = STATE_COMPLETE
	} else {
		dec.State = STATE_TRAILING
	}
}

// immediate creates an immediate operand for the accumulated bits.
func (dec *Decoder) immediate() Operand {
	size := sizeOf(dec.inst.Bits)
	width := int(size)
	if dec.inst.Bits.Has(BIT_S) {
		width = 1
	}
	return Operand{Kind: OPERAND_IMMEDIATE, Size: size, DataWidth: width}
}

func (dec *Decoder) stepFirst(b byte) (err error) {
	tmpl, err := Match(b)
	if err != nil {
		return
	}

	dec.template = tmpl
	dec.inst.Op = tmpl.Op

	var reg uint8
	var hasReg bool
	for _, field := range tmpl.Layouts[0] {
		var value uint8
		value, err = field.Extract(b)
		if err != nil {
			return
		}
		switch field.Role {
		case ROLE_LITERAL:
			// Dispatch only.
		case ROLE_BIT:
			if value != 0 {
				dec.inst.Bits |= field.Bit
			}
		case ROLE_REG:
			reg, hasReg = value, true
		default:
			err = ErrFieldUsage
			return
		}
	}

	size := sizeOf(dec.inst.Bits)
	acc := RegisterOperand(REG_A, size)

	switch tmpl.Form {
	case FORM_MODRM, FORM_RM_IMM:
		if hasReg {
			err = ErrFieldUsage
			return
		}
		dec.State = STATE_BYTE2
		return
	case FORM_REG_IMM:
		if !hasReg {
			err = ErrFieldUsage
			return
		}
		err = errors.Join(dec.setOperand(0, RegisterOperand(Register(reg), size)),
			dec.setOperand(1, dec.immediate()))
	case FORM_ACC_IMM:
		err = errors.Join(dec.setOperand(0, acc),
			dec.setOperand(1, dec.immediate()))
	case FORM_ACC_MEM:
		dec.inst.Bits |= BIT_D
		err = errors.Join(dec.setOperand(0, acc),
			dec.setOperand(1, Operand{Kind: OPERAND_DIRECT, Size: size, DispWidth: 2}))
	case FORM_MEM_ACC:
		err = errors.Join(dec.setOperand(0, acc),
			dec.setOperand(1, Operand{Kind: OPERAND_DIRECT, Size: size, DispWidth: 2}))
	case FORM_JUMP:
		err = dec.setOperand(0, Operand{Kind: OPERAND_JUMP, DispWidth: 1})
	default:
		err = ErrFieldUsage
	}
	if err != nil {
		return
	}

	dec.finish(1)
	return
}

func (dec *Decoder) stepSecond(b byte) (err error) {
	tmpl := dec.template
	if len(tmpl.Layouts) < 2 {
		err = ErrFieldUsage
		return
	}

	// A literal here selects a group member before anything else is
	// resolved, so the trailing byte count uses the member's layout.
	for _, field := range tmpl.Layouts[1] {
		if field.Role != ROLE_LITERAL {
			continue
		}
		var value uint8
		value, err = field.Extract(b)
		if err != nil {
			return
		}
		if tmpl.Variants != nil {
			variant, ok := tmpl.Variants[value]
			if !ok {
				err = ErrInstructionUndefined
				return
			}
			tmpl = variant
			dec.template = variant
			dec.inst.Op = variant.Op
		} else if value != field.Value {
			err = ErrInstructionUndefined
			return
		}
	}

	size := sizeOf(dec.inst.Bits)

	var mod, rm uint8
	var hasMod, hasRm, hasReg bool
	for _, field := range tmpl.Layouts[1] {
		var value uint8
		value, err = field.Extract(b)
		if err != nil {
			return
		}
		switch field.Role {
		case ROLE_LITERAL:
			// Handled above.
		case ROLE_MOD:
			mod, hasMod = value, true
		case ROLE_RM:
			rm, hasRm = value, true
		case ROLE_REG:
			hasReg = true
			err = dec.setOperand(0, RegisterOperand(Register(value), size))
		case ROLE_BIT:
			if value != 0 {
				dec.inst.Bits |= field.Bit
			}
		default:
			err = ErrFieldUsage
		}
		if err != nil {
			return
		}
	}

	if !hasMod || !hasRm {
		err = ErrFieldUsage
		return
	}

	other := resolveRM(mod, rm, sizeOf(dec.inst.Bits))

	switch tmpl.Form {
	case FORM_MODRM:
		if !hasReg {
			err = ErrFieldUsage
			return
		}
		err = dec.setOperand(1, other)
	case FORM_RM_IMM:
		if hasReg {
			err = ErrFieldUsage
			return
		}
		err = errors.Join(dec.setOperand(0, other),
			dec.setOperand(1, dec.immediate()))
	default:
		err = ErrFieldUsage
	}
	if err != nil {
		return
	}

	dec.finish(2)
	return
}

// resolveRM resolves the mod and rm fields to an operand.
func resolveRM(mod, rm uint8, size Size) (op Operand) {
	switch {
	case mod == 0b11:
		op = RegisterOperand(Register(rm), size)
	case mod == 0b00 && rm == 0b110:
		op = Operand{Kind: OPERAND_DIRECT, Size: size, DispWidth: 2}
	default:
		op = Operand{Kind: OPERAND_MEMORY, Size: size, Address: EffectiveAddress(rm), DispWidth: int(mod)}
	}
	return
}

func (dec *Decoder) stepTrailing(data []byte) (err error) {
	var n int
	for _, layout := range dec.template.Layouts[dec.next:] {
		for _, field := range layout {
			var target *Operand
			for slot := range dec.inst.Operands {
				if dec.inst.Operands[slot].accepts(field) {
					target = &dec.inst.Operands[slot]
					break
				}
			}
			if target == nil {
				continue
			}
			if n >= len(data) {
				err = ErrFieldUsage
				return
			}
			var value uint8
			value, err = field.Extract(data[n])
			if err != nil {
				return
			}
			n++
			err = target.fill(field, value)
			if err != nil {
				return
			}
		}
	}

	if n != len(data) {
		err = ErrFieldUsage
		return
	}

	dec.need = 0
	dec.State = STATE_COMPLETE
	return
}

// Decode pulls one complete instruction from the source.
func (dec *Decoder) Decode(src ByteSource) (inst Instruction, err error) {
	dec.Reset()
	offset := src.Offset()

	for !dec.Done() {
		var data []byte
		want := dec.Want()
		if want == 1 {
			var b byte
			b, err = src.NextByte()
			data = []byte{b}
		} else {
			data, err = src.NextBytes(want)
		}
		if err != nil {
			return
		}

		err = dec.Step(data...)
		if err != nil {
			return
		}
	}

	inst, err = dec.Instruction()
	inst.Offset = offset
	return
}

// Decode pulls one complete instruction from the source.
func Decode(src ByteSource) (inst Instruction, err error) {
	dec := &Decoder{}
	return dec.Decode(src)
}

// sliceSource reads instruction bytes from a slice.
type sliceSource struct {
	data   []byte
	offset int
}

func (src *sliceSource) NextBytes(n int) (data []byte, err error) {
	if n < 0 || src.offset+n > len(src.data) {
		err = ErrIpEmpty
		return
	}
	data = src.data[src.offset : src.offset+n]
	src.offset += n
	return
}

func (src *sliceSource) NextByte() (value byte, err error) {
	data, err := src.NextBytes(1)
	if err != nil {
		return
	}
	value = data[0]
	return
}

func (src *sliceSource) Offset() int {
	return src.offset
}

// DecodeBytes decodes the instruction at the start of code.
func DecodeBytes(code []byte) (inst Instruction, err error) {
	return Decode(&sliceSource{data: code})
}
