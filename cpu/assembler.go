// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Assembler is a two pass assembler for the supported 8086 subset.
// It accepts the same syntax the disassembler emits.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string // Predefines
	Label     map[string]int    // Map of jump labels to byte offsets.
	Equate    map[string]string // Map of equates.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

var mnemonics = map[string]Operation{
	"mov": OP_MOV,
	"add": OP_ADD,
	"sub": OP_SUB,
	"cmp": OP_CMP,
	"je":  OP_JE,
	"jz":  OP_JE,
	"jnz": OP_JNZ,
	"jne": OP_JNZ,
	"js":  OP_JS,
	"jns": OP_JNS,
	"jmp": OP_JMP,
}

var (
	reParen = regexp.MustCompile(`\$\([^\$]*\)`)
	reLabel = regexp.MustCompile(`^[A-Za-z_.][A-Za-z0-9_.]*$`)
)

// valueOf returns the value of a number or an equate.
func (asm *Assembler) valueOf(word string) (value int64, err error) {
	if equate, ok := asm.Equate[word]; ok {
		word = equate
	}

	value, err = strconv.ParseInt(word, 0, 32)
	if err != nil {
		err = ErrParseNumber(word)
	}

	return
}

// parenEval does compile-time $(...) evaluations.
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	pred := make(map[string]int64, len(asm.Equate)+len(asm.Label))
	for key, str := range asm.Equate {
		v, _err := strconv.ParseInt(str, 0, 32)
		if _err != nil {
			// Ignore non-integer equates.
			continue
		}
		pred[key] = v
	}
	for key, offset := range asm.Label {
		pred[key] = int64(offset)
	}

	return Eval(expr, pred)
}

// currentOffset gets the offset of the next opcode.
func (asm *Assembler) currentOffset() int {
	if len(asm.Opcode) == 0 {
		return 0
	}

	last := asm.Opcode[len(asm.Opcode)-1]

	return last.Offset + len(last.Bytes)
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	asm.Label = make(map[string]int, 16)
	asm.Opcode = asm.Opcode[:0]
	asm.Equate = maps.Clone(asm.predefine)
	if asm.Equate == nil {
		asm.Equate = make(map[string]string)
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("asm: %v: %v", lineno, text)
		}

		line = strings.TrimSpace(strings.Split(text, ";")[0])

		var rest string
		rest, err = asm.parseLine(line)
		if err != nil {
			return
		}
		if len(rest) == 0 {
			continue
		}

		err = asm.parseInstruction(rest, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	line = ""
	lineno = 0

	// Final linking of jump labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		if len(op.LinkLabel) != 0 {
			lineno = op.LineNo
			line = op.Text
			offset, ok := asm.Label[op.LinkLabel]
			if !ok {
				err = ErrLabelMissing(op.LinkLabel)
				return
			}
			rel := offset - (op.Offset + JUMP_SIZE)
			if rel < -128 || rel > 127 {
				err = ErrTargetInvalid
				return
			}
			op.Bytes[1] = byte(int8(rel))
		}

		op.Instruction, err = DecodeBytes(op.Bytes)
		if err != nil {
			return
		}
		op.Instruction.Offset = op.Offset
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}

// parseLine evaluates expressions and consumes directives and labels,
// returning the instruction text left on the line.
func (asm *Assembler) parseLine(line string) (rest string, err error) {
	line = reParen.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%d", value)
	})
	if err != nil {
		return
	}

	words := strings.Fields(line)
	if len(words) == 0 {
		return
	}

	switch words[0] {
	case "bits":
		if len(words) != 2 || words[1] != "16" {
			err = ErrOperandInvalid
		}
		return
	case ".equ":
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		return
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		asm.Label[label] = asm.currentOffset()
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	rest = strings.Join(words, " ")
	return
}

// argument is a parsed operand, before its size is settled.
type argument struct {
	Operand
	value int64  // Immediate value, before truncation.
	sized bool   // Size given by a keyword or register.
	label string // Jump label to link.
}

// parseOperand parses one operand.
func (asm *Assembler) parseOperand(word string) (arg argument, err error) {
	word = strings.TrimSpace(word)

	keyword, after, found := strings.Cut(word, " ")
	keyword = strings.ToLower(keyword)
	if found && (keyword == "byte" || keyword == "word") {
		arg.sized = true
		arg.Size = SIZE_BYTE
		if keyword == "word" {
			arg.Size = SIZE_WORD
		}
		word = strings.TrimSpace(after)
	}

	if reg, size, ok := LookupRegister(strings.ToLower(word)); ok {
		if arg.sized && arg.Size != size {
			err = ErrSizeMismatch
			return
		}
		arg.Operand = RegisterOperand(reg, size)
		arg.sized = true
		return
	}

	if strings.HasPrefix(word, "[") && strings.HasSuffix(word, "]") {
		size := arg.Size
		arg.Operand, err = asm.parseMemory(word[1 : len(word)-1])
		arg.Size = size
		return
	}

	if strings.HasPrefix(word, "$") {
		var rel int64
		rel, err = asm.valueOf(strings.TrimSpace(word[1:]))
		if err != nil {
			return
		}
		rel -= JUMP_SIZE
		if rel < -128 || rel > 127 {
			err = ErrTargetInvalid
			return
		}
		arg.Operand = JumpOperand(int8(rel))
		return
	}

	value, err := asm.valueOf(word)
	if err == nil {
		arg.Operand = ImmediateOperand(int16(value), arg.Size, 0)
		arg.value = value
		return
	}

	if reLabel.MatchString(word) {
		err = nil
		arg.Operand = JumpOperand(0)
		arg.label = word
		return
	}

	return
}

// parseMemory parses the inside of a memory reference.
func (asm *Assembler) parseMemory(inner string) (op Operand, err error) {
	inner = strings.ReplaceAll(inner, "-", "+-")

	var regs []Register
	var disp int64
	for _, term := range strings.Split(inner, "+") {
		term = strings.ReplaceAll(term, " ", "")
		if len(term) == 0 {
			continue
		}
		if reg, size, ok := LookupRegister(strings.ToLower(term)); ok {
			if size != SIZE_WORD {
				err = ErrRegisterInvalid
				return
			}
			regs = append(regs, reg)
			continue
		}
		var value int64
		value, err = asm.valueOf(term)
		if err != nil {
			return
		}
		disp += value
	}

	if len(regs) == 0 {
		if disp < -32768 || disp > 0xffff {
			err = ErrValueRange
			return
		}
		op = DirectOperand(uint16(disp), 0)
		return
	}

	ea, ok := LookupEffectiveAddress(regs...)
	if !ok {
		err = ErrRegisterInvalid
		return
	}

	if disp < -32768 || disp > 32767 {
		err = ErrValueRange
		return
	}

	var width int
	switch {
	case disp == 0 && ea != EA_BP:
		width = 0
	case disp >= -128 && disp <= 127:
		width = 1
	default:
		width = 2
	}

	op = MemoryOperand(ea, 0, int16(disp), width)
	return
}

// parseInstruction assembles one instruction.
func (asm *Assembler) parseInstruction(text string, lineno int) (err error) {
	mnemonic, rest, _ := strings.Cut(text, " ")
	op, ok := mnemonics[strings.ToLower(mnemonic)]
	if !ok {
		err = ErrOpcodeInvalid
		return
	}

	var args []argument
	for _, word := range strings.Split(rest, ",") {
		if len(strings.TrimSpace(word)) == 0 {
			continue
		}
		var arg argument
		arg, err = asm.parseOperand(word)
		if err != nil {
			return
		}
		args = append(args, arg)
	}

	opcode := Opcode{
		LineNo: lineno,
		Offset: asm.currentOffset(),
		Text:   text,
	}

	if op.IsJump() {
		if len(args) != 1 {
			err = ErrOperandCount
			return
		}
		if args[0].Kind != OPERAND_JUMP {
			err = ErrOperandInvalid
			return
		}
		enc := &encoding{dispWidth: 1, disp: args[0].Disp}
		opcode.LinkLabel = args[0].label
		opcode.Bytes, err = enc.emit(findTemplate(op, FORM_JUMP))
	} else {
		if len(args) != 2 {
			err = ErrOperandCount
			return
		}
		opcode.Bytes, err = encode(op, args[0], args[1])
	}
	if err != nil {
		return
	}

	asm.Opcode = append(asm.Opcode, opcode)
	return
}

// findTemplate returns the concrete template for an operation and form.
func findTemplate(op Operation, form Form) *Template {
	for tmpl := range Templates() {
		if tmpl.Variants == nil && tmpl.Op == op && tmpl.Form == form {
			return tmpl
		}
	}
	return nil
}

// encoding holds the field values of one instruction.
type encoding struct {
	bits      Bit
	mod       uint8
	reg       uint8
	rm        uint8
	dispWidth int
	disp      uint16
	dataWidth int
	data      uint16
}

// setRM encodes a register or memory operand into mod and rm.
func (enc *encoding) setRM(op Operand) (err error) {
	switch op.Kind {
	case OPERAND_REGISTER:
		enc.mod, enc.rm = 0b11, uint8(op.Register)
	case OPERAND_DIRECT:
		enc.mod, enc.rm = 0b00, 0b110
		enc.dispWidth, enc.disp = 2, op.Disp
	case OPERAND_MEMORY:
		enc.mod, enc.rm = uint8(op.DispWidth), uint8(op.Address)
		enc.dispWidth, enc.disp = op.DispWidth, op.Disp
	default:
		err = ErrOperandInvalid
	}
	return
}

// emit produces the bytes of a template from the field values. Trailing
// displacement and data bytes are skipped as the decoder skips them.
func (enc *encoding) emit(tmpl *Template) (code []byte, err error) {
	if tmpl == nil {
		err = ErrOpcodeInvalid
		return
	}

	for _, layout := range tmpl.Layouts {
		var b byte
		skip := false
		for _, field := range layout {
			var value uint8
			switch field.Role {
			case ROLE_LITERAL:
				value = field.Value
			case ROLE_MOD:
				value = enc.mod
			case ROLE_REG:
				value = enc.reg
			case ROLE_RM:
				value = enc.rm
			case ROLE_BIT:
				if enc.bits.Has(field.Bit) {
					value = 1
				}
			case ROLE_DISP, ROLE_DATA:
				width, word := enc.dispWidth, enc.disp
				if field.Role == ROLE_DATA {
					width, word = enc.dataWidth, enc.data
				}
				if (field.High && width < 2) || width < 1 {
					skip = true
				}
				value = uint8(word)
				if field.High {
					value = uint8(word >> 8)
				}
			default:
				err = ErrFieldUsage
				return
			}
			b, err = field.Insert(b, value)
			if err != nil {
				return
			}
		}
		if !skip {
			code = append(code, b)
		}
	}

	return
}

// fits returns true if value is representable at size, signed or not.
func fits(value int64, size Size) bool {
	if size == SIZE_WORD {
		return value >= -32768 && value <= 0xffff
	}
	return value >= -128 && value <= 0xff
}

// encode chooses the shortest template for a two operand instruction.
func encode(op Operation, dst, src argument) (code []byte, err error) {
	enc := &encoding{}
	var form Form

	switch {
	case src.Kind == OPERAND_IMMEDIATE:
		var size Size
		switch {
		case dst.Kind == OPERAND_REGISTER:
			size = dst.Size
			if src.sized && src.Size != size {
				err = ErrSizeMismatch
				return
			}
		case dst.IsMemory() && src.sized:
			size = src.Size
			if dst.sized && dst.Size != size {
				err = ErrSizeMismatch
				return
			}
		case dst.IsMemory() && dst.sized:
			size = dst.Size
		case dst.IsMemory():
			err = ErrSizeAmbiguous
			return
		default:
			err = ErrOperandInvalid
			return
		}
		if !fits(src.value, size) {
			err = ErrValueRange
			return
		}
		if size == SIZE_WORD {
			enc.bits |= BIT_W
		}
		enc.dataWidth = int(size)
		enc.data = uint16(src.value) & size.Mask()

		short := size == SIZE_WORD && src.value >= -128 && src.value <= 127
		switch {
		case op == OP_MOV && dst.Kind == OPERAND_REGISTER:
			form = FORM_REG_IMM
			enc.reg = uint8(dst.Register)
		case op == OP_MOV:
			form = FORM_RM_IMM
			err = enc.setRM(dst.Operand)
		case short:
			form = FORM_RM_IMM
			enc.bits |= BIT_S
			enc.dataWidth = 1
			err = enc.setRM(dst.Operand)
		case dst.Kind == OPERAND_REGISTER && dst.Register == REG_A:
			form = FORM_ACC_IMM
		default:
			form = FORM_RM_IMM
			err = enc.setRM(dst.Operand)
		}
	case dst.Kind == OPERAND_REGISTER && src.Kind == OPERAND_REGISTER:
		if dst.Size != src.Size {
			err = ErrSizeMismatch
			return
		}
		form = FORM_MODRM
		if dst.Size == SIZE_WORD {
			enc.bits |= BIT_W
		}
		enc.reg = uint8(src.Register)
		err = enc.setRM(dst.Operand)
	case dst.Kind == OPERAND_REGISTER && src.IsMemory():
		if src.sized && src.Size != dst.Size {
			err = ErrSizeMismatch
			return
		}
		if dst.Size == SIZE_WORD {
			enc.bits |= BIT_W
		}
		if op == OP_MOV && dst.Register == REG_A && src.Kind == OPERAND_DIRECT {
			form = FORM_ACC_MEM
			enc.dispWidth, enc.disp = 2, src.Disp
			break
		}
		form = FORM_MODRM
		enc.bits |= BIT_D
		enc.reg = uint8(dst.Register)
		err = enc.setRM(src.Operand)
	case dst.IsMemory() && src.Kind == OPERAND_REGISTER:
		if dst.sized && src.Size != dst.Size {
			err = ErrSizeMismatch
			return
		}
		if src.Size == SIZE_WORD {
			enc.bits |= BIT_W
		}
		if op == OP_MOV && src.Register == REG_A && dst.Kind == OPERAND_DIRECT {
			form = FORM_MEM_ACC
			enc.dispWidth, enc.disp = 2, dst.Disp
			break
		}
		form = FORM_MODRM
		enc.reg = uint8(src.Register)
		err = enc.setRM(dst.Operand)
	default:
		err = ErrOperandInvalid
	}
	if err != nil {
		return
	}

	return enc.emit(findTemplate(op, form))
}
