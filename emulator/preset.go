// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"errors"
	"maps"
	"strings"

	"github.com/ezrec/sim86/cpu"
)

// Preset assigns a register from a `reg=expression` string. The expression
// is evaluated with the current registers, flags and ip predeclared.
func (emu *Emulator) Preset(assign string) (err error) {
	name, expr, ok := strings.Cut(assign, "=")
	if !ok {
		err = ErrPresetSyntax
		return
	}

	name = strings.ToLower(strings.TrimSpace(name))
	reg, size, ok := cpu.LookupRegister(name)
	if !ok {
		err = errors.Join(ErrPresetRegister, errors.New(name))
		return
	}

	value, err := cpu.Eval(strings.TrimSpace(expr), maps.Collect(emu.Defines()))
	if err != nil {
		return
	}

	limit := int64(0xffff)
	if size == cpu.SIZE_BYTE {
		limit = 0xff
	}
	if value < -(limit+1)/2 || value > limit {
		err = ErrPresetRange
		return
	}

	emu.Cpu.Set(reg, size, int16(value))

	return
}
