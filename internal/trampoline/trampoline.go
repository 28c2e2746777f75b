// Completion: 100% - Module complete
// Package trampoline is the fixed landing point every architecture's
// codegen stub tail-jumps to. It is the Go analogue of the teacher's
// throw helper: spec.md's component F is entered by a jump, not a call,
// so it pushes no return address of its own; it reserves only the
// outgoing argument slot and calls raise, and the panic raised there
// unwinds as if it came from inside the patched function itself,
// through that function's real caller.
package trampoline

import (
	"reflect"
	"unsafe"
)

// trampolineEntry is implemented in architecture-specific assembly
// (throw_$GOARCH.s). A patched function's stub loads a *error into the
// platform calling convention's first integer argument register and
// jumps here directly, never pushing a return address of its own.
func trampolineEntry()

// Addr returns the address codegen.Generator.Generate should branch
// to.
func Addr() uintptr {
	return reflect.ValueOf(trampolineEntry).Pointer()
}

// raise is called by trampolineEntry with the pointer to the site's
// error slot. It dereferences and panics with the stored error, then
// never returns.
func raise(slot unsafe.Pointer) {
	errp := (*error)(slot)
	panic(*errp)
}
