// Completion: 100% - Module complete
package codegen

import (
	"encoding/binary"
	"fmt"
	"math"
)

// AMD64 generates the System V / Windows x64 stub: a 10-byte
// movabs rdi, imm64 (REX.W + 0xB8+7 + imm64) loading the error slot
// into the first integer argument register, followed by a 5-byte
// jmp rel32 into the trampoline.
type AMD64 struct{}

const amd64StubLen = 15

func (AMD64) Generate(fnStart, trampoline, errSlot uintptr) ([]byte, error) {
	stub := make([]byte, amd64StubLen)

	// movabs rdi, imm64
	stub[0] = 0x48 // REX.W
	stub[1] = 0xbf // B8+7 -> rdi
	binary.LittleEndian.PutUint64(stub[2:10], uint64(errSlot))

	disp := int64(trampoline) - int64(fnStart+amd64StubLen)
	if disp > math.MaxInt32 || disp < math.MinInt32 {
		return nil, fmt.Errorf("trampoline displacement %d: %w", disp, ErrOffsetOutOfRange)
	}

	// jmp rel32
	stub[10] = 0xe9
	binary.LittleEndian.PutUint32(stub[11:15], uint32(int32(disp)))

	return stub, nil
}
