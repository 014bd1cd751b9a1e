package cpu

// Register is a general register, in reg/rm field encoding order.
type Register uint8

const (
	REG_A  = Register(0)
	REG_C  = Register(1)
	REG_D  = Register(2)
	REG_B  = Register(3)
	REG_SP = Register(4)
	REG_BP = Register(5)
	REG_SI = Register(6)
	REG_DI = Register(7)
)

// DumpOrder is the order registers are listed in a register dump.
var DumpOrder = [8]Register{REG_A, REG_B, REG_C, REG_D, REG_SP, REG_BP, REG_SI, REG_DI}

var wordNames = [8]string{"ax", "cx", "dx", "bx", "sp", "bp", "si", "di"}
var byteNames = [8]string{"al", "cl", "dl", "bl", "ah", "ch", "dh", "bh"}

// Name returns the register name for the access size.
func (reg Register) Name(size Size) string {
	if size == SIZE_BYTE {
		return byteNames[reg&7]
	}
	return wordNames[reg&7]
}

// String returns the word register name.
func (reg Register) String() string {
	return reg.Name(SIZE_WORD)
}

// Half returns the word register holding a byte register, and whether the
// byte register is the high half.
func (reg Register) Half() (word Register, high bool) {
	return reg & 3, reg >= 4
}

// LookupRegister finds a register by its name.
func LookupRegister(name string) (reg Register, size Size, ok bool) {
	for n := range 8 {
		if wordNames[n] == name {
			return Register(n), SIZE_WORD, true
		}
		if byteNames[n] == name {
			return Register(n), SIZE_BYTE, true
		}
	}
	return
}

// EffectiveAddress is a base/index register combination, in rm field
// encoding order.
type EffectiveAddress uint8

const (
	EA_BX_SI = EffectiveAddress(0)
	EA_BX_DI = EffectiveAddress(1)
	EA_BP_SI = EffectiveAddress(2)
	EA_BP_DI = EffectiveAddress(3)
	EA_SI    = EffectiveAddress(4)
	EA_DI    = EffectiveAddress(5)
	EA_BP    = EffectiveAddress(6)
	EA_BX    = EffectiveAddress(7)
)

var eaRegisters = [8][]Register{
	{REG_B, REG_SI},
	{REG_B, REG_DI},
	{REG_BP, REG_SI},
	{REG_BP, REG_DI},
	{REG_SI},
	{REG_DI},
	{REG_BP},
	{REG_B},
}

// Registers returns the registers summed by the effective address.
func (ea EffectiveAddress) Registers() []Register {
	return eaRegisters[ea&7]
}

// String returns the assembly form, such as "bx + si".
func (ea EffectiveAddress) String() (text string) {
	for n, reg := range ea.Registers() {
		if n > 0 {
			text += " + "
		}
		text += reg.String()
	}
	return
}

// LookupEffectiveAddress finds the combination of base and index registers.
// The order of the registers does not matter.
func LookupEffectiveAddress(regs ...Register) (ea EffectiveAddress, ok bool) {
	for n, combo := range eaRegisters {
		if len(combo) != len(regs) {
			continue
		}
		match := true
		for _, reg := range regs {
			found := false
			for _, want := range combo {
				if reg == want {
					found = true
				}
			}
			match = match && found
		}
		if match && (len(regs) < 2 || regs[0] != regs[1]) {
			return EffectiveAddress(n), true
		}
	}
	return
}
