// Completion: 100% - Module complete
// Package protect scopes the executable text segment between
// read+execute and read+write+execute, the way the teacher's
// hotreload_unix.go used a raw syscall.Syscall6(syscall.SYS_MMAP, ...)
// to get writable executable pages — here ported to
// golang.org/x/sys/unix.Mprotect over an *existing* mapping, since this
// module patches the function that is already there rather than
// allocating a fresh page for a replacement.
package protect

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// regionBytes views a live memory region as a []byte without copying,
// so unix.Mprotect can be handed the address range it actually expects
// to change permissions on (it operates on the slice's backing memory,
// not on its contents).
func regionBytes(region Region, size int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(region.Start)), size)
}

// Region is the page-aligned [start,end) bounding the Guard's
// mprotect calls. The Forcer builds one with PageAlign around the bytes
// a single patch or unpatch writes (the function start plus the stub
// length), on every Force and Unforce. It covers only those pages, not
// the whole executable mapping, and it is never derived from
// /proc/self/maps.
type Region struct {
	Start uintptr
	End   uintptr
}

// PageAlign grows [start,end) out to page boundaries using pageSize
// (typically unix.Getpagesize()).
func PageAlign(start, end uintptr, pageSize uintptr) Region {
	alignedStart := start &^ (pageSize - 1)
	alignedEnd := (end + pageSize - 1) &^ (pageSize - 1)
	return Region{Start: alignedStart, End: alignedEnd}
}

// Guard holds a region read+write+execute until Release restores it to
// read+execute. Acquire failure is meant to be fatal to the surrounding
// operation; Release failure is swallowed, since by the time Release
// runs the guarded operation has already succeeded or failed on its own
// terms (spec.md §4.D).
type Guard struct {
	region Region
}

// Acquire marks region RWX.
func Acquire(region Region) (*Guard, error) {
	size := int(region.End - region.Start)
	if err := unix.Mprotect(regionBytes(region, size), unix.PROT_READ|unix.PROT_WRITE|unix.PROT_EXEC); err != nil {
		return nil, fmt.Errorf("mprotect rwx %#x-%#x: %w", region.Start, region.End, err)
	}
	return &Guard{region: region}, nil
}

// Release restores region to read+execute. Errors are intentionally
// dropped; see the Guard doc comment.
func (g *Guard) Release() {
	size := int(g.region.End - g.region.Start)
	_ = unix.Mprotect(regionBytes(g.region, size), unix.PROT_READ|unix.PROT_EXEC)
}
