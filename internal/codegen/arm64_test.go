package codegen

import (
	"encoding/binary"
	"errors"
	"testing"
)

func TestARM64GenerateLength(t *testing.T) {
	stub, err := ARM64{}.Generate(0x1000, 0x2000, 0xdeadbeef)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(stub) != arm64StubLen {
		t.Fatalf("expected %d bytes, got %d", arm64StubLen, len(stub))
	}
}

func TestARM64GenerateLoadsErrSlotIntoX0(t *testing.T) {
	const errSlot = 0x1122334455667788
	stub, err := ARM64{}.Generate(0x1000, 0x1100, errSlot)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	var got uint64
	for i := 0; i < 4; i++ {
		word := binary.LittleEndian.Uint32(stub[i*4 : i*4+4])
		imm16 := (word >> 5) & 0xffff
		hw := (word >> 21) & 0x3
		got |= uint64(imm16) << (16 * hw)
	}
	if got != errSlot {
		t.Fatalf("decoded immediate = %#x, want %#x", got, errSlot)
	}
}

func TestARM64GenerateBranchTarget(t *testing.T) {
	const fnStart = 0x1000
	const trampoline = 0x1000 + 16 + 4*100
	stub, err := ARM64{}.Generate(fnStart, trampoline, 0)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	word := binary.LittleEndian.Uint32(stub[16:20])
	imm26 := int32(word & 0x03ffffff)
	if imm26&(1<<25) != 0 {
		imm26 |= ^int32(0x03ffffff)
	}
	gotTarget := int64(fnStart+16) + int64(imm26)*4
	if gotTarget != trampoline {
		t.Fatalf("branch target = %#x, want %#x", gotTarget, trampoline)
	}
}

func TestARM64GenerateUnalignedOffset(t *testing.T) {
	_, err := ARM64{}.Generate(0x1000, 0x1001, 0)
	if !errors.Is(err, ErrOffsetOutOfRange) {
		t.Fatalf("expected ErrOffsetOutOfRange for unaligned target, got %v", err)
	}
}
