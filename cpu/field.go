package cpu

import (
	"fmt"
)

// FieldRole is the meaning of a bit field within an instruction byte.
type FieldRole int

//go:generate go tool stringer -linecomment -type=FieldRole
const (
	ROLE_LITERAL = FieldRole(0) // literal
	ROLE_MOD     = FieldRole(1) // mod
	ROLE_REG     = FieldRole(2) // reg
	ROLE_RM      = FieldRole(3) // rm
	ROLE_BIT     = FieldRole(4) // bit
	ROLE_DATA    = FieldRole(5) // data
	ROLE_DISP    = FieldRole(6) // disp
)

// Bit is a set of single-bit instruction modifiers.
type Bit uint8

const (
	BIT_W = Bit(1 << 0) // Word sized operation.
	BIT_S = Bit(1 << 1) // Sign extend the immediate.
	BIT_D = Bit(1 << 2) // Register field is the destination.
)

// Has returns true if all of the bits in mask are set.
func (b Bit) Has(mask Bit) bool {
	return b&mask == mask
}

// String returns the set bits as letters.
func (b Bit) String() (text string) {
	for _, bit := range []struct {
		Bit
		name string
	}{{BIT_W, "w"}, {BIT_S, "s"}, {BIT_D, "d"}} {
		if b.Has(bit.Bit) {
			text += bit.name
		}
	}
	return
}

// Field describes one bit field of an instruction byte.
type Field struct {
	Role  FieldRole // Meaning of the field.
	Bit   Bit       // Modifier set by a ROLE_BIT field.
	High  bool      // High order byte of a ROLE_DATA or ROLE_DISP field.
	Width uint8     // Width in bits.
	Value uint8     // Expected value of a ROLE_LITERAL field.

	shift  uint8
	placed bool
}

// literal creates a dispatch field of a fixed bit pattern.
func literal(value uint8, width uint8) Field {
	return Field{Role: ROLE_LITERAL, Width: width, Value: value}
}

var (
	fieldMod    = Field{Role: ROLE_MOD, Width: 2}
	fieldReg    = Field{Role: ROLE_REG, Width: 3}
	fieldRm     = Field{Role: ROLE_RM, Width: 3}
	fieldD      = Field{Role: ROLE_BIT, Bit: BIT_D, Width: 1}
	fieldS      = Field{Role: ROLE_BIT, Bit: BIT_S, Width: 1}
	fieldW      = Field{Role: ROLE_BIT, Bit: BIT_W, Width: 1}
	fieldDataLo = Field{Role: ROLE_DATA, Width: 8}
	fieldDataHi = Field{Role: ROLE_DATA, High: true, Width: 8}
	fieldDispLo = Field{Role: ROLE_DISP, Width: 8}
	fieldDispHi = Field{Role: ROLE_DISP, High: true, Width: 8}
)

// Shift returns the right shift of the field within its byte.
func (fd Field) Shift() (shift uint8, ok bool) {
	return fd.shift, fd.placed
}

// mask covers the low Width bits.
func (fd Field) mask() uint8 {
	return uint8((uint16(1) << fd.Width) - 1)
}

// Extract returns the right-aligned value of the field in a byte.
func (fd Field) Extract(b byte) (value uint8, err error) {
	if !fd.placed {
		err = ErrFieldUnplaced
		return
	}

	value = (b >> fd.shift) & fd.mask()
	return
}

// Insert returns the byte with the field replaced by value.
func (fd Field) Insert(b byte, value uint8) (out byte, err error) {
	if !fd.placed {
		err = ErrFieldUnplaced
		return
	}

	if value&^fd.mask() != 0 {
		err = ErrValueRange
		return
	}

	mask := fd.mask() << fd.shift
	out = (b &^ mask) | (value << fd.shift)
	return
}

// String returns a short description of the field.
func (fd Field) String() (text string) {
	switch fd.Role {
	case ROLE_LITERAL:
		text = fmt.Sprintf("%0*b", int(fd.Width), fd.Value)
	case ROLE_BIT:
		text = fd.Bit.String()
	case ROLE_DATA, ROLE_DISP:
		text = fd.Role.String() + "-lo"
		if fd.High {
			text = fd.Role.String() + "-hi"
		}
	default:
		text = fd.Role.String()
	}
	return
}

// Layout is the ordered set of fields of one instruction byte, most
// significant first.
type Layout []Field

// placeLayout computes the shift of each field, left to right.
// The widths must sum to exactly 8.
func placeLayout(fields ...Field) (layout Layout) {
	if len(fields) == 0 || len(fields) > 8 {
		panic(fmt.Sprintf("layout of %d fields", len(fields)))
	}

	layout = make(Layout, len(fields))
	remain := 8
	for n, field := range fields {
		remain -= int(field.Width)
		if field.Width == 0 || remain < 0 {
			panic(fmt.Sprintf("layout %v overflows a byte", fields))
		}
		field.shift = uint8(remain)
		field.placed = true
		layout[n] = field
	}

	if remain != 0 {
		panic(fmt.Sprintf("layout %v leaves %d bits unused", fields, remain))
	}

	return
}

// Has returns true if the layout contains a field of the role.
func (layout Layout) Has(role FieldRole) bool {
	for _, field := range layout {
		if field.Role == role {
			return true
		}
	}
	return false
}

// Width returns the sum of the field widths.
func (layout Layout) Width() (width int) {
	for _, field := range layout {
		width += int(field.Width)
	}
	return
}
