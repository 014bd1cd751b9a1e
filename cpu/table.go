package cpu

import (
	"fmt"
	"iter"
	"maps"
	"slices"

	"github.com/ezrec/sim86/internal"
)

// Operation is the decoded instruction mnemonic.
type Operation int

//go:generate go tool stringer -linecomment -type=Operation
const (
	OP_NONE = Operation(0) // ???
	OP_MOV  = Operation(1) // mov
	OP_ADD  = Operation(2) // add
	OP_SUB  = Operation(3) // sub
	OP_CMP  = Operation(4) // cmp
	OP_JE   = Operation(5) // je
	OP_JNZ  = Operation(6) // jnz
	OP_JS   = Operation(7) // js
	OP_JNS  = Operation(8) // jns
	OP_JMP  = Operation(9) // jmp
)

// IsJump returns true for the relative jump operations.
func (op Operation) IsJump() bool {
	return op >= OP_JE && op <= OP_JMP
}

// Form selects how a template's operands are built.
type Form int

const (
	FORM_MODRM   = Form(0) // reg and r/m operands from the second byte.
	FORM_RM_IMM  = Form(1) // r/m from the second byte, immediate source.
	FORM_REG_IMM = Form(2) // reg in the first byte, immediate source.
	FORM_ACC_IMM = Form(3) // accumulator destination, immediate source.
	FORM_ACC_MEM = Form(4) // accumulator destination, direct address source.
	FORM_MEM_ACC = Form(5) // direct address destination, accumulator source.
	FORM_JUMP    = Form(6) // signed 8-bit relative jump.
)

const (
	TEMPLATE_BYTES = 6 // Maximum bytes in a template.
)

// Template is the encoding of one instruction form.
type Template struct {
	Op       Operation          // Operation, OP_NONE for a group.
	Form     Form               // Operand construction.
	Layouts  []Layout           // Byte layouts, first byte first.
	Variants map[uint8]*Template // Group members, by second byte literal.
}

// newTemplate places the fields of each byte and validates the template.
func newTemplate(op Operation, form Form, bytes ...[]Field) *Template {
	if len(bytes) == 0 || len(bytes) > TEMPLATE_BYTES {
		panic(fmt.Sprintf("%v: template of %d bytes", op, len(bytes)))
	}

	tmpl := &Template{
		Op:      op,
		Form:    form,
		Layouts: make([]Layout, len(bytes)),
	}

	for n, fields := range bytes {
		tmpl.Layouts[n] = placeLayout(fields...)
	}

	if tmpl.Layouts[0][0].Role != ROLE_LITERAL {
		panic(fmt.Sprintf("%v: first byte does not start with a literal", op))
	}

	for _, field := range tmpl.Layouts[0][1:] {
		if field.Role == ROLE_LITERAL {
			panic(fmt.Sprintf("%v: first byte has multiple literals", op))
		}
	}

	return tmpl
}

// withVariants makes the template a group, keyed by its second byte literal.
func (tmpl *Template) withVariants(variants ...*Template) *Template {
	tmpl.Variants = make(map[uint8]*Template, len(variants))
	for _, variant := range variants {
		key, ok := variant.selector()
		if !ok {
			panic(fmt.Sprintf("%v: variant without selector", variant.Op))
		}
		tmpl.Variants[key] = variant
	}

	return tmpl
}

// selector returns the second byte literal value, if any.
func (tmpl *Template) selector() (value uint8, ok bool) {
	if len(tmpl.Layouts) < 2 {
		return
	}
	for _, field := range tmpl.Layouts[1] {
		if field.Role == ROLE_LITERAL {
			return field.Value, true
		}
	}
	return
}

// Literal returns the dispatch field of the first byte.
func (tmpl *Template) Literal() (field Field, err error) {
	if len(tmpl.Layouts) == 0 || len(tmpl.Layouts[0]) == 0 {
		err = ErrLiteralMissing
		return
	}

	field = tmpl.Layouts[0][0]
	if field.Role != ROLE_LITERAL {
		err = ErrLiteralMissing
	}

	return
}

// Matches returns true if the first byte carries the template's literal.
func (tmpl *Template) Matches(b byte) (ok bool, err error) {
	field, err := tmpl.Literal()
	if err != nil {
		return
	}

	value, err := field.Extract(b)
	if err != nil {
		return
	}

	ok = value == field.Value
	return
}

// Has returns true if any byte of the template has a field of the role.
func (tmpl *Template) Has(role FieldRole) bool {
	for _, layout := range tmpl.Layouts {
		if layout.Has(role) {
			return true
		}
	}
	return false
}

// String returns the template's bit layout.
func (tmpl *Template) String() (text string) {
	text = tmpl.Op.String()
	for _, layout := range tmpl.Layouts {
		text += " ["
		for n, field := range layout {
			if n > 0 {
				text += " "
			}
			text += field.String()
		}
		text += "]"
	}
	return
}

// arithmetic builds the register and accumulator forms of add, sub and cmp,
// which differ only in the three bits at 5..3 of the first byte.
func arithmetic(op Operation, code uint8) []*Template {
	return []*Template{
		newTemplate(op, FORM_MODRM,
			[]Field{literal(code<<1, 6), fieldD, fieldW},
			[]Field{fieldMod, fieldReg, fieldRm},
			[]Field{fieldDispLo},
			[]Field{fieldDispHi}),
		newTemplate(op, FORM_ACC_IMM,
			[]Field{literal((code<<2)|0b10, 7), fieldW},
			[]Field{fieldDataLo},
			[]Field{fieldDataHi}),
	}
}

// immediate builds a member of the immediate to register/memory group.
func immediate(op Operation, code uint8) *Template {
	return newTemplate(op, FORM_RM_IMM,
		[]Field{literal(0b100000, 6), fieldS, fieldW},
		[]Field{fieldMod, literal(code, 3), fieldRm},
		[]Field{fieldDispLo},
		[]Field{fieldDispHi},
		[]Field{fieldDataLo},
		[]Field{fieldDataHi})
}

// jump builds a short relative jump.
func jump(op Operation, code uint8) *Template {
	return newTemplate(op, FORM_JUMP,
		[]Field{literal(code, 8)},
		[]Field{fieldDispLo})
}

// table is the process-wide instruction table. It is never modified after
// initialization.
var table = slices.Concat(
	[]*Template{
		newTemplate(OP_MOV, FORM_MODRM,
			[]Field{literal(0b100010, 6), fieldD, fieldW},
			[]Field{fieldMod, fieldReg, fieldRm},
			[]Field{fieldDispLo},
			[]Field{fieldDispHi}),
		newTemplate(OP_MOV, FORM_RM_IMM,
			[]Field{literal(0b1100011, 7), fieldW},
			[]Field{fieldMod, literal(0b000, 3), fieldRm},
			[]Field{fieldDispLo},
			[]Field{fieldDispHi},
			[]Field{fieldDataLo},
			[]Field{fieldDataHi}),
		newTemplate(OP_MOV, FORM_REG_IMM,
			[]Field{literal(0b1011, 4), fieldW, fieldReg},
			[]Field{fieldDataLo},
			[]Field{fieldDataHi}),
		newTemplate(OP_MOV, FORM_ACC_MEM,
			[]Field{literal(0b1010000, 7), fieldW},
			[]Field{fieldDispLo},
			[]Field{fieldDispHi}),
		newTemplate(OP_MOV, FORM_MEM_ACC,
			[]Field{literal(0b1010001, 7), fieldW},
			[]Field{fieldDispLo},
			[]Field{fieldDispHi}),
	},
	arithmetic(OP_ADD, 0b000),
	arithmetic(OP_SUB, 0b101),
	arithmetic(OP_CMP, 0b111),
	[]*Template{
		newTemplate(OP_NONE, FORM_RM_IMM,
			[]Field{literal(0b100000, 6), fieldS, fieldW},
			[]Field{fieldMod, literal(0, 3), fieldRm},
			[]Field{fieldDispLo},
			[]Field{fieldDispHi},
			[]Field{fieldDataLo},
			[]Field{fieldDataHi}).withVariants(
			immediate(OP_ADD, 0b000),
			immediate(OP_SUB, 0b101),
			immediate(OP_CMP, 0b111),
		),
		jump(OP_JE, 0x74),
		jump(OP_JNZ, 0x75),
		jump(OP_JS, 0x78),
		jump(OP_JNS, 0x79),
		jump(OP_JMP, 0xeb),
	},
)

// Match finds the template whose first byte literal matches b.
func Match(b byte) (tmpl *Template, err error) {
	for _, candidate := range table {
		var ok bool
		ok, err = candidate.Matches(b)
		if err != nil {
			return
		}
		if ok {
			tmpl = candidate
			return
		}
	}

	err = ErrInstructionUndefined
	return
}

// Templates iterates over every template, including group members.
func Templates() iter.Seq[*Template] {
	seqs := []iter.Seq[*Template]{slices.Values(table)}
	for _, tmpl := range table {
		if tmpl.Variants != nil {
			keys := slices.Sorted(maps.Keys(tmpl.Variants))
			seqs = append(seqs, func(yield func(*Template) bool) {
				for _, key := range keys {
					if !yield(tmpl.Variants[key]) {
						return
					}
				}
			})
		}
	}

	return internal.IterSeqConcat(seqs...)
}
