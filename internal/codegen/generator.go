// Completion: 100% - Module complete
package codegen

import "fmt"

// Generator produces the machine code stub placed at a patched
// function's entry. Generate(fnStart, trampoline, errSlot) returns
// bytes that, once copied to fnStart, load errSlot into the platform's
// first-argument register and tail-branch to trampoline without
// setting up a return (spec.md §4.E).
type Generator interface {
	Generate(fnStart, trampoline, errSlot uintptr) ([]byte, error)
}

// ErrOffsetOutOfRange is returned (wrapped with detail) when a
// generator cannot encode the displacement between fnStart and
// trampoline within its instruction set's branch range.
var ErrOffsetOutOfRange = fmt.Errorf("relative branch offset out of range")

// ErrUnsupportedArch is returned by Fallback for every call.
var ErrUnsupportedArch = fmt.Errorf("no code generator for this architecture")

// ForArch selects the concrete Generator for a, defaulting to Fallback
// for anything unrecognized.
func ForArch(a Arch) Generator {
	switch a {
	case ArchX86_64:
		return AMD64{}
	case ArchARM64:
		return ARM64{}
	case ArchARMThumb2:
		return ARMThumb2{}
	default:
		return Fallback{}
	}
}
