// Completion: 100% - Module complete
package codegen

import (
	"encoding/binary"
	"fmt"
)

// ARM64 generates the AAPCS64 stub: four MOVZ/MOVK instructions that
// assemble errSlot into x0 sixteen bits at a time, followed by an
// unconditional B into the trampoline.
type ARM64 struct{}

const arm64StubLen = 20

// movWide encodes a MOVZ (op=2) or MOVK (op=3) Xd, #imm16, LSL #(hw*16).
func movWide(op uint32, hw uint32, imm16 uint16, rd uint32) uint32 {
	const sf = uint32(1) << 31
	return sf | (op << 29) | (0b100101 << 23) | (hw << 21) | (uint32(imm16) << 5) | rd
}

func (ARM64) Generate(fnStart, trampoline, errSlot uintptr) ([]byte, error) {
	stub := make([]byte, arm64StubLen)

	const rd = 0 // x0, AAPCS64 first integer argument
	imm := uint64(errSlot)
	binary.LittleEndian.PutUint32(stub[0:4], movWide(2, 0, uint16(imm), rd))          // MOVZ x0, #imm[15:0]
	binary.LittleEndian.PutUint32(stub[4:8], movWide(3, 1, uint16(imm>>16), rd))      // MOVK x0, #imm[31:16], LSL #16
	binary.LittleEndian.PutUint32(stub[8:12], movWide(3, 2, uint16(imm>>32), rd))     // MOVK x0, #imm[47:32], LSL #32
	binary.LittleEndian.PutUint32(stub[12:16], movWide(3, 3, uint16(imm>>48), rd))    // MOVK x0, #imm[63:48], LSL #48

	disp := int64(trampoline) - int64(fnStart+16)
	if disp%4 != 0 {
		return nil, fmt.Errorf("trampoline displacement %d not word-aligned: %w", disp, ErrOffsetOutOfRange)
	}
	imm26 := disp / 4
	const imm26Max = 1 << 25
	if imm26 >= imm26Max || imm26 < -imm26Max {
		return nil, fmt.Errorf("trampoline displacement %d: %w", disp, ErrOffsetOutOfRange)
	}

	// B imm26: 000101 imm26
	word := uint32(0b000101<<26) | (uint32(imm26) & 0x03ffffff)
	binary.LittleEndian.PutUint32(stub[16:20], word)

	return stub, nil
}
