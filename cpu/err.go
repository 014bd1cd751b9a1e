package cpu

import (
	"errors"

	"github.com/ezrec/sim86/translate"
)

var f = translate.From

var (
	// Lookup errors
	ErrInstructionUndefined = errors.New(f("instruction undefined"))
	ErrLiteralMissing       = errors.New(f("template literal missing"))

	// Field usage errors
	ErrFieldUsage    = errors.New(f("field used out of place"))
	ErrFieldTwice    = errors.New(f("field decoded twice"))
	ErrFieldUnplaced = errors.New(f("field has no shift"))
	ErrDecodeState   = errors.New(f("decoder fed wrong byte count"))

	// Operand errors
	ErrOperandKind = errors.New(f("operand kind invalid"))

	// Cpu errors
	ErrIpEmpty = errors.New(f("ip empty"))
	ErrExecute = errors.New(f("execute"))

	// Assembler errors
	ErrEquateSyntax    = errors.New(f(".equ syntax"))
	ErrEquateDuplicate = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate  = errors.New(f("label duplicated"))
	ErrOpcodeInvalid   = errors.New(f("opcode invalid"))
	ErrOperandCount    = errors.New(f("operand count"))
	ErrOperandInvalid  = errors.New(f("operand invalid"))
	ErrRegisterInvalid = errors.New(f("register invalid"))
	ErrSizeAmbiguous   = errors.New(f("operand size not specified"))
	ErrSizeMismatch    = errors.New(f("operand size mismatch"))
	ErrValueRange      = errors.New(f("value out of range"))
	ErrTargetInvalid   = errors.New(f("jump target out of range"))
)

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

// ErrOpcode records the leading byte of an instruction that failed to decode.
type ErrOpcode byte

func (eo ErrOpcode) Error() string {
	return f("bad opcode 0x%02x", byte(eo))
}

func (eo ErrOpcode) Is(err error) (ok bool) {
	_, ok = err.(ErrOpcode)
	return
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}
