package emulator

import (
	"errors"

	"github.com/ezrec/sim86/translate"
)

var f = translate.From

var (
	ErrPresetSyntax   = errors.New(f("preset must be register=expression"))
	ErrPresetRegister = errors.New(f("preset register unknown"))
	ErrPresetRange    = errors.New(f("preset value out of range"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	Offset int
	Text   string
	Err    error
}

func (err *ErrRuntime) Error() string {
	if len(err.Text) != 0 {
		return f("offset 0x%04x '%v' %v", err.Offset, err.Text, err.Err)
	}
	return f("offset 0x%04x %v", err.Offset, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
