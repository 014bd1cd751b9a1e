package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeText(t *testing.T) {
	assert := assert.New(t)

	vectors := []struct {
		code []byte
		text string
	}{
		{[]byte{0x8a, 0x00}, "mov al, [bx + si]"},
		{[]byte{0x8a, 0x80, 0x87, 0x13}, "mov al, [bx + si+4999]"},
		{[]byte{0xba, 0x6c, 0x0f}, "mov dx, 3948"},
		{[]byte{0xc6, 0x03, 0x07}, "mov [bp + di], byte 7"},
		{[]byte{0x83, 0xc6, 0x02}, "add si, 2"},
		{[]byte{0x03, 0x18}, "add bx, [bx + si]"},
		{[]byte{0x89, 0xd9}, "mov cx, bx"},
		{[]byte{0x88, 0x6e, 0x00}, "mov [bp], ch"},
		{[]byte{0x8a, 0x40, 0xdb}, "mov al, [bx + si-37]"},
		{[]byte{0x8b, 0x2e, 0x05, 0x00}, "mov bp, [5]"},
		{[]byte{0xb5, 0xf4}, "mov ch, -12"},
		{[]byte{0xc7, 0x06, 0x10, 0x00, 0x2c, 0x01}, "mov [16], word 300"},
		{[]byte{0xa1, 0x10, 0x00}, "mov ax, [16]"},
		{[]byte{0xa3, 0x10, 0x00}, "mov [16], ax"},
		{[]byte{0x05, 0xe8, 0x03}, "add ax, 1000"},
		{[]byte{0x2c, 0x09}, "sub al, 9"},
		{[]byte{0x3c, 0xe2}, "cmp al, -30"},
		{[]byte{0x29, 0xd8}, "sub ax, bx"},
		{[]byte{0x3b, 0x46, 0x02}, "cmp ax, [bp+2]"},
		{[]byte{0x81, 0xec, 0xe8, 0x03}, "sub sp, 1000"},
		{[]byte{0x80, 0x3f, 0xff}, "cmp [bx], byte -1"},
		{[]byte{0x83, 0x46, 0x00, 0x05}, "add [bp], word 5"},
		{[]byte{0x74, 0x02}, "je $+4"},
		{[]byte{0x75, 0xfc}, "jnz $-2"},
		{[]byte{0x78, 0xfe}, "js $+0"},
		{[]byte{0x79, 0x00}, "jns $+2"},
		{[]byte{0xeb, 0xf4}, "jmp $-10"},
	}

	for _, entry := range vectors {
		inst, err := DecodeBytes(entry.code)
		assert.NoError(err, entry.text)
		if err != nil {
			continue
		}
		assert.Equal(entry.text, inst.String())
		assert.Equal(len(entry.code), inst.Size, entry.text)
		assert.Equal(0, inst.Offset, entry.text)
	}
}

func TestDecodeSignExtension(t *testing.T) {
	assert := assert.New(t)

	inst, err := DecodeBytes([]byte{0x8a, 0x40, 0xdb})
	assert.NoError(err)

	_, src := inst.Ordered()
	assert.Equal(OPERAND_MEMORY, src.Kind)
	assert.Equal(uint16(0xdb), src.Disp)

	disp, err := src.SignedDisplacement()
	assert.NoError(err)
	assert.Equal(int16(-37), disp)

	inst, err = DecodeBytes([]byte{0x83, 0xc0, 0xff})
	assert.NoError(err)
	_, src = inst.Ordered()
	data, err := src.SignedData()
	assert.NoError(err)
	assert.Equal(int16(-1), data)
	assert.Equal(SIZE_WORD, src.Size)
}

func TestDecodeStates(t *testing.T) {
	assert := assert.New(t)

	dec := &Decoder{}
	assert.Equal(STATE_BYTE1, dec.State)
	assert.Equal(1, dec.Want())

	_, err := dec.Instruction()
	assert.ErrorIs(err, ErrDecodeState)

	assert.NoError(dec.Step(0x8a))
	assert.Equal(STATE_BYTE2, dec.State)
	assert.Equal(OP_MOV, dec.Template().Op)

	assert.NoError(dec.Step(0x80))
	assert.Equal(STATE_TRAILING, dec.State)
	assert.Equal(2, dec.Want())

	err = dec.Step(0x87)
	assert.ErrorIs(err, ErrDecodeState)

	assert.NoError(dec.Step(0x87, 0x13))
	assert.Equal(STATE_COMPLETE, dec.State)
	assert.Equal(0, dec.Want())
	assert.True(dec.Done())
	assert.Equal([]byte{0x8a, 0x80, 0x87, 0x13}, dec.Bytes())

	inst, err := dec.Instruction()
	assert.NoError(err)
	assert.Equal(4, inst.Size)

	err = dec.Step()
	assert.ErrorIs(err, ErrDecodeState)

	dec.Reset()
	assert.Equal(STATE_BYTE1, dec.State)
	assert.Empty(dec.Bytes())

	// Short forms skip the second byte.
	assert.NoError(dec.Step(0xba))
	assert.Equal(STATE_TRAILING, dec.State)
	assert.Equal(2, dec.Want())

	// Register to register forms complete on the second byte.
	dec.Reset()
	assert.NoError(dec.Step(0x89))
	assert.NoError(dec.Step(0xd9))
	assert.Equal(STATE_COMPLETE, dec.State)

	// Group members replace the template before counting trailing bytes.
	dec.Reset()
	assert.NoError(dec.Step(0x81))
	assert.Equal(OP_NONE, dec.Template().Op)
	assert.NoError(dec.Step(0x3e))
	assert.Equal(OP_CMP, dec.Template().Op)
	assert.Equal(4, dec.Want())
}

func TestDecodeErrors(t *testing.T) {
	assert := assert.New(t)

	_, err := DecodeBytes([]byte{0x0f})
	assert.ErrorIs(err, ErrInstructionUndefined)
	assert.ErrorIs(err, ErrOpcode(0x0f))

	// reg field 001 is not a member of the immediate group.
	_, err = DecodeBytes([]byte{0x83, 0xc8, 0x01})
	assert.ErrorIs(err, ErrInstructionUndefined)
	assert.ErrorIs(err, ErrOpcode(0x83))

	// Truncated displacement.
	_, err = DecodeBytes([]byte{0x8a, 0x80, 0x87})
	assert.Error(err)

	_, err = DecodeBytes(nil)
	assert.Error(err)

	op := Operand{Kind: OPERAND_MEMORY, DispWidth: 1}
	assert.NoError(op.fill(fieldDispLo, 0x12))
	assert.ErrorIs(op.fill(fieldDispLo, 0x34), ErrFieldTwice)
	assert.ErrorIs(op.fill(fieldMod, 0), ErrFieldUsage)
	assert.Equal(uint16(0x12), op.Disp)

	reg := RegisterOperand(REG_B, SIZE_WORD)
	_, err = reg.SignedDisplacement()
	assert.ErrorIs(err, ErrOperandKind)
	_, err = reg.SignedData()
	assert.ErrorIs(err, ErrOperandKind)

	_, err = Instruction{Op: OP_MOV}.Target()
	assert.ErrorIs(err, ErrOperandKind)
}

func TestDecodeOperandNeed(t *testing.T) {
	assert := assert.New(t)

	vectors := []struct {
		op   Operand
		need int
	}{
		{RegisterOperand(REG_A, SIZE_WORD), 0},
		{MemoryOperand(EA_BX_SI, SIZE_BYTE, 0, 0), 0},
		{MemoryOperand(EA_BP, SIZE_BYTE, 4, 1), 1},
		{MemoryOperand(EA_DI, SIZE_WORD, 4999, 2), 2},
		{DirectOperand(16, SIZE_WORD), 2},
		{ImmediateOperand(5, SIZE_WORD, 1), 1},
		{ImmediateOperand(500, SIZE_WORD, 2), 2},
		{JumpOperand(-4), 1},
	}

	for _, entry := range vectors {
		assert.Equal(entry.need, entry.op.Need(), entry.op.String())
	}

	data := fieldDataHi
	assert.False(ImmediateOperand(5, SIZE_BYTE, 1).accepts(data))
	assert.True(ImmediateOperand(5, SIZE_WORD, 2).accepts(data))
	assert.False(RegisterOperand(REG_A, SIZE_WORD).accepts(fieldDispLo))
	assert.False(MemoryOperand(EA_BX, SIZE_WORD, 0, 0).accepts(fieldDispLo))
}
