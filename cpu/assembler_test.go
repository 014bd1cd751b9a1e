package cpu

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func assemble(t *testing.T, program []string) (prog *Program) {
	asm := &Assembler{}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(t, err)
	if err != nil {
		t.Fatal(err)
	}

	return
}

func TestAssembler(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	prog, err := asm.Parse(strings.NewReader(""))
	assert.NoError(err)
	assert.Equal(0, len(prog.Opcodes))
	assert.Equal("bits 16\n", prog.String())
}

func TestAssemblerEncoding(t *testing.T) {
	assert := assert.New(t)

	vectors := []struct {
		text string
		code []byte
	}{
		{"mov al, [bx + si]", []byte{0x8a, 0x00}},
		{"mov al, [bx + si+4999]", []byte{0x8a, 0x80, 0x87, 0x13}},
		{"mov dx, 3948", []byte{0xba, 0x6c, 0x0f}},
		{"mov [bp + di], byte 7", []byte{0xc6, 0x03, 0x07}},
		{"add si, 2", []byte{0x83, 0xc6, 0x02}},
		{"add bx, [bx + si]", []byte{0x03, 0x18}},
		{"mov cx, bx", []byte{0x89, 0xd9}},
		{"mov [bp], ch", []byte{0x88, 0x6e, 0x00}},
		{"mov al, [bx + si-37]", []byte{0x8a, 0x40, 0xdb}},
		{"mov bp, [5]", []byte{0x8b, 0x2e, 0x05, 0x00}},
		{"mov ch, -12", []byte{0xb5, 0xf4}},
		{"mov [16], word 300", []byte{0xc7, 0x06, 0x10, 0x00, 0x2c, 0x01}},
		{"mov ax, [16]", []byte{0xa1, 0x10, 0x00}},
		{"mov [16], ax", []byte{0xa3, 0x10, 0x00}},
		{"add ax, 1000", []byte{0x05, 0xe8, 0x03}},
		{"sub al, 9", []byte{0x2c, 0x09}},
		{"cmp al, -30", []byte{0x3c, 0xe2}},
		{"sub ax, bx", []byte{0x29, 0xd8}},
		{"cmp ax, [bp+2]", []byte{0x3b, 0x46, 0x02}},
		{"sub sp, 1000", []byte{0x81, 0xec, 0xe8, 0x03}},
		{"cmp [bx], byte -1", []byte{0x80, 0x3f, 0xff}},
		{"add [bp], word 5", []byte{0x83, 0x46, 0x00, 0x05}},
		{"je $+4", []byte{0x74, 0x02}},
		{"jnz $-2", []byte{0x75, 0xfc}},
		{"js $+0", []byte{0x78, 0xfe}},
		{"jns $+2", []byte{0x79, 0x00}},
		{"jmp $-10", []byte{0xeb, 0xf4}},
	}

	for _, entry := range vectors {
		prog := assemble(t, []string{entry.text})
		assert.Equal(entry.code, prog.Binary(), entry.text)
		if len(prog.Opcodes) != 1 {
			continue
		}
		op := prog.Opcodes[0]
		assert.Equal(1, op.LineNo)
		assert.Equal(entry.text, op.Instruction.String())
		assert.Equal(len(entry.code), op.Instruction.Size)
	}
}

func TestAssemblerAliases(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t, []string{
		"bits 16",
		"MOV AX, 1 ; comment",
		"jz $+2",
		"jne $+2",
		"mov word [bx], 5",
		"mov [bx + 0], byte 5",
		"mov [di - 3], word 0x10",
	})

	assert.Equal([]byte{
		0xb8, 0x01, 0x00,
		0x74, 0x00,
		0x75, 0x00,
		0xc7, 0x07, 0x05, 0x00,
		0xc6, 0x07, 0x05,
		0xc7, 0x45, 0xfd, 0x10, 0x00,
	}, prog.Binary())

	assert.Equal("bits 16\n"+
		"mov ax, 1\n"+
		"je $+2\n"+
		"jnz $+2\n"+
		"mov [bx], word 5\n"+
		"mov [bx], byte 5\n"+
		"mov [di-3], word 16\n", prog.String())
}

func TestAssemblerLabels(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t, []string{
		"  mov cx, 3",
		"top:",
		"  add ax, 2",
		"  sub cx, 1",
		"  jnz top",
		"  jmp done",
		"  mov ax, 0",
		"done: end: mov bx, ax",
	})

	assert.Equal([]byte{
		0xb9, 0x03, 0x00,
		0x83, 0xc0, 0x02,
		0x83, 0xe9, 0x01,
		0x75, 0xf8,
		0xeb, 0x03,
		0xb8, 0x00, 0x00,
		0x89, 0xc3,
	}, prog.Binary())

	assert.Equal("top", prog.Opcodes[3].LinkLabel)
	assert.Equal("jnz $-6", prog.Opcodes[3].Instruction.String())
	assert.Equal(9, prog.Opcodes[3].Instruction.Offset)
	assert.Equal(8, prog.Opcodes[6].LineNo)
}

func TestAssemblerEquates(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("BASE", "1000")

	program := []string{
		".equ COUNT 3",
		"mov cx, COUNT",
		"mov [BASE], cx",
		"start: mov dx, $(COUNT * 2 + BASE)",
		"mov si, $(start + 1)",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		return
	}

	assert.Equal("3", asm.Equate["COUNT"])
	assert.Equal(7, asm.Label["start"])

	expected := []string{
		"mov cx, 3",
		"mov [1000], cx",
		"mov dx, 1006",
		"mov si, 8",
	}
	for n, op := range prog.Opcodes {
		assert.Equal(expected[n], op.Instruction.String())
	}

	// Predefines survive a second parse, equates do not.
	prog, err = asm.Parse(strings.NewReader("mov ax, BASE"))
	assert.NoError(err)
	assert.Equal("mov ax, 1000", prog.Opcodes[0].Instruction.String())
	_, ok := asm.Equate["COUNT"]
	assert.False(ok)
}

func TestAssemblerErrors(t *testing.T) {
	assert := assert.New(t)

	vectors := []struct {
		program []string
		err     error
		lineno  int
	}{
		{[]string{"mov [bx], 5"}, ErrSizeAmbiguous, 1},
		{[]string{"mov al, 300"}, ErrValueRange, 1},
		{[]string{"mov al, bx"}, ErrSizeMismatch, 1},
		{[]string{"mov byte [bx], word 5"}, ErrSizeMismatch, 1},
		{[]string{"nop", "mov ax, 1"}, ErrOpcodeInvalid, 1},
		{[]string{"mov ax, 1", "mov ax"}, ErrOperandCount, 2},
		{[]string{"jmp"}, ErrOperandCount, 1},
		{[]string{"jmp ax"}, ErrOperandInvalid, 1},
		{[]string{"mov [bx + bp], ax"}, ErrRegisterInvalid, 1},
		{[]string{"mov [al], ax"}, ErrRegisterInvalid, 1},
		{[]string{"mov 5, ax"}, ErrOperandInvalid, 1},
		{[]string{"mov [1], [2]"}, ErrOperandInvalid, 1},
		{[]string{"a:", "a:"}, ErrLabelDuplicate, 2},
		{[]string{".equ A 1", ".equ A 2"}, ErrEquateDuplicate, 2},
		{[]string{".equ A"}, ErrEquateSyntax, 1},
		{[]string{"bits 32"}, ErrOperandInvalid, 1},
		{[]string{"jmp $+200"}, ErrTargetInvalid, 1},
		{[]string{"mov ax, $(1 +)"}, nil, 1},
	}

	for _, entry := range vectors {
		asm := &Assembler{}
		_, err := asm.Parse(strings.NewReader(strings.Join(entry.program, "\n")))
		assert.Error(err, entry.program)
		if entry.err != nil {
			assert.ErrorIs(err, entry.err, entry.program)
		}

		var syntax *ErrSyntax
		if assert.True(errors.As(err, &syntax), entry.program) {
			assert.Equal(entry.lineno, syntax.LineNo, entry.program)
		}
	}
}

func TestAssemblerLinkErrors(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	_, err := asm.Parse(strings.NewReader("mov ax, 1\njnz nowhere"))

	var missing ErrLabelMissing
	assert.True(errors.As(err, &missing))
	assert.Equal(ErrLabelMissing("nowhere"), missing)

	var syntax *ErrSyntax
	if assert.True(errors.As(err, &syntax)) {
		assert.Equal(2, syntax.LineNo)
	}

	program := []string{"top: mov ax, [1000]"}
	for range 43 {
		program = append(program, "mov ax, [1000]")
	}
	program = append(program, "jmp top")

	_, err = asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.ErrorIs(err, ErrTargetInvalid)
}
