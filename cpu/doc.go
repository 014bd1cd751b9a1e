// Package cpu implements the decoder, disassembler, assembler and simulator
// for a subset of the Intel 8086 instruction set.
//
// Instructions are described by a static table of byte templates made of
// bit fields. The Decoder matches the first byte against the table and then
// consumes the remaining bytes progressively: the mod/reg/rm byte, followed
// by any displacement and immediate bytes the resolved operands require.
//
// The Cpu holds eight 16-bit registers, the zero and sign flags, and a flat
// 64K memory. It executes mov, add, sub and cmp, and moves its instruction
// cursor for the short conditional jumps.
package cpu
