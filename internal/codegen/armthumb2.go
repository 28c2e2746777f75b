// Completion: 100% - Module complete
package codegen

import (
	"encoding/binary"
	"fmt"
)

// ARMThumb2 generates the AAPCS32 stub for processors running in
// Thumb-2 mode: a MOVW/MOVT pair loading errSlot into r0 (truncated to
// 32 bits, the pointer width on this target), followed by a 32-bit
// unconditional B.W into the trampoline.
type ARMThumb2 struct{}

const armThumb2StubLen = 12

// movWideThumb encodes the T3 MOVW or T1 MOVT 32-bit Thumb instruction
// loading imm16 into register rd. prefix is 0xF240 for MOVW, 0xF2C0 for
// MOVT.
func movWideThumb(prefix uint16, imm16 uint16, rd uint16) (hw1, hw2 uint16) {
	i := (imm16 >> 11) & 1
	imm4 := (imm16 >> 12) & 0xf
	imm3 := (imm16 >> 8) & 0x7
	imm8 := imm16 & 0xff

	hw1 = prefix | (i << 10) | imm4
	hw2 = (imm3 << 12) | (rd << 8) | imm8
	return hw1, hw2
}

// branchWideThumb encodes the T4 B.W instruction for a byte displacement
// off, which must be even and fit within the ±16MB T4 range.
func branchWideThumb(off int32) (hw1, hw2 uint16, ok bool) {
	if off%2 != 0 {
		return 0, 0, false
	}
	const limit = 1 << 24
	if off >= limit || off < -limit {
		return 0, 0, false
	}

	u := uint32(off)
	s := (u >> 24) & 1
	i1 := (u >> 23) & 1
	i2 := (u >> 22) & 1
	imm10 := uint16((u >> 12) & 0x3ff)
	imm11 := uint16((u >> 1) & 0x7ff)

	j1 := uint16((^i1)&1) ^ uint16(s)
	j2 := uint16((^i2)&1) ^ uint16(s)

	hw1 = (0b11110 << 11) | (uint16(s) << 10) | imm10
	hw2 = (1 << 15) | (j1 << 13) | (1 << 12) | (j2 << 11) | imm11
	return hw1, hw2, true
}

func (ARMThumb2) Generate(fnStart, trampoline, errSlot uintptr) ([]byte, error) {
	stub := make([]byte, armThumb2StubLen)

	imm32 := uint32(errSlot)
	const rd = 0 // r0, AAPCS32 first integer argument
	movwHw1, movwHw2 := movWideThumb(0xf240, uint16(imm32), rd)
	movtHw1, movtHw2 := movWideThumb(0xf2c0, uint16(imm32>>16), rd)

	binary.LittleEndian.PutUint16(stub[0:2], movwHw1)
	binary.LittleEndian.PutUint16(stub[2:4], movwHw2)
	binary.LittleEndian.PutUint16(stub[4:6], movtHw1)
	binary.LittleEndian.PutUint16(stub[6:8], movtHw2)

	disp := int64(trampoline) - int64(fnStart+armThumb2StubLen)
	if disp > (1<<24)-1 || disp < -(1<<24) {
		return nil, fmt.Errorf("trampoline displacement %d: %w", disp, ErrOffsetOutOfRange)
	}
	bHw1, bHw2, ok := branchWideThumb(int32(disp))
	if !ok {
		return nil, fmt.Errorf("trampoline displacement %d: %w", disp, ErrOffsetOutOfRange)
	}
	binary.LittleEndian.PutUint16(stub[8:10], bHw1)
	binary.LittleEndian.PutUint16(stub[10:12], bHw2)

	return stub, nil
}
