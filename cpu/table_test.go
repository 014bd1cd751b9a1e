package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/sim86/internal"
)

func TestTableLayouts(t *testing.T) {
	assert := assert.New(t)

	for tmpl := range Templates() {
		assert.LessOrEqual(len(tmpl.Layouts), TEMPLATE_BYTES, tmpl.String())
		for _, layout := range tmpl.Layouts {
			assert.Equal(8, layout.Width(), tmpl.String())
		}
		field, err := tmpl.Literal()
		assert.NoError(err, tmpl.String())
		assert.Equal(ROLE_LITERAL, field.Role)
	}

	// 5 mov, 6 arithmetic, 1 group, 5 jumps, 3 group members.
	assert.Equal(20, internal.IterSeqCount(Templates()))
}

func TestTableDisjoint(t *testing.T) {
	assert := assert.New(t)

	matched := 0
	for b := range 256 {
		var found []*Template
		for _, tmpl := range table {
			ok, err := tmpl.Matches(byte(b))
			assert.NoError(err)
			if ok {
				found = append(found, tmpl)
			}
		}
		assert.LessOrEqual(len(found), 1, "0x%02x matches %v", b, found)
		if len(found) == 1 {
			matched++
		}
	}

	// mov: 4 + 2 + 16 + 2 + 2, arithmetic: 3 * (4 + 2), group: 4, jumps: 5
	assert.Equal(26+18+4+5, matched)
}

func TestTableMatch(t *testing.T) {
	assert := assert.New(t)

	vectors := []struct {
		b    byte
		op   Operation
		form Form
	}{
		{0x89, OP_MOV, FORM_MODRM},
		{0xc6, OP_MOV, FORM_RM_IMM},
		{0xb9, OP_MOV, FORM_REG_IMM},
		{0xa1, OP_MOV, FORM_ACC_MEM},
		{0xa2, OP_MOV, FORM_MEM_ACC},
		{0x03, OP_ADD, FORM_MODRM},
		{0x05, OP_ADD, FORM_ACC_IMM},
		{0x29, OP_SUB, FORM_MODRM},
		{0x2c, OP_SUB, FORM_ACC_IMM},
		{0x3b, OP_CMP, FORM_MODRM},
		{0x3d, OP_CMP, FORM_ACC_IMM},
		{0x83, OP_NONE, FORM_RM_IMM},
		{0x74, OP_JE, FORM_JUMP},
		{0x75, OP_JNZ, FORM_JUMP},
		{0x78, OP_JS, FORM_JUMP},
		{0x79, OP_JNS, FORM_JUMP},
		{0xeb, OP_JMP, FORM_JUMP},
	}

	for _, entry := range vectors {
		tmpl, err := Match(entry.b)
		assert.NoError(err, "0x%02x", entry.b)
		if err != nil {
			continue
		}
		assert.Equal(entry.op, tmpl.Op, "0x%02x", entry.b)
		assert.Equal(entry.form, tmpl.Form, "0x%02x", entry.b)
	}

	for _, b := range []byte{0x0f, 0x90, 0xcc, 0xf4, 0xff} {
		_, err := Match(b)
		assert.ErrorIs(err, ErrInstructionUndefined, "0x%02x", b)
	}
}

func TestTableVariants(t *testing.T) {
	assert := assert.New(t)

	tmpl, err := Match(0x81)
	assert.NoError(err)
	if err != nil {
		return
	}

	assert.Len(tmpl.Variants, 3)
	for key, op := range map[uint8]Operation{0b000: OP_ADD, 0b101: OP_SUB, 0b111: OP_CMP} {
		variant, ok := tmpl.Variants[key]
		assert.True(ok)
		if !ok {
			continue
		}
		assert.Equal(op, variant.Op)
		selector, ok := variant.selector()
		assert.True(ok)
		assert.Equal(key, selector)
		assert.True(variant.Has(ROLE_DATA))
	}
}

func TestTemplateString(t *testing.T) {
	assert := assert.New(t)

	tmpl := findTemplate(OP_MOV, FORM_MODRM)
	assert.NotNil(tmpl)
	assert.Equal("mov [100010 d w] [mod reg rm] [disp-lo] [disp-hi]", tmpl.String())

	tmpl = findTemplate(OP_JNZ, FORM_JUMP)
	assert.NotNil(tmpl)
	assert.Equal("jnz [01110101] [disp-lo]", tmpl.String())

	_, err := (&Template{}).Literal()
	assert.ErrorIs(err, ErrLiteralMissing)
}
