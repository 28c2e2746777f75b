// Completion: 100% - Module complete
// Package forcer patches a running Go program's own compiled functions
// in place so a registered throw site unconditionally raises its error
// the next time its enclosing function runs, without changing any call
// site's source. See SPEC_FULL.md for the full design this package
// implements.
package forcer

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/sphaerophoria/goforce/config"
	"github.com/sphaerophoria/goforce/internal/addrspace"
	"github.com/sphaerophoria/goforce/internal/codegen"
	"github.com/sphaerophoria/goforce/internal/diag"
	"github.com/sphaerophoria/goforce/internal/protect"
	"github.com/sphaerophoria/goforce/internal/symtab"
	"github.com/sphaerophoria/goforce/internal/trampoline"
)

// SiteInfo is the read-only external view of a registered throw site.
type SiteInfo struct {
	Addr    uintptr
	File    string
	Line    int
	Expr    string
	Patched bool
}

// patchedSite records what Force overwrote so Unforce can restore it.
type patchedSite struct {
	fnStart    uintptr
	savedBytes []byte
	errSlot    *error
}

// Forcer resolves registered throw sites against the running
// executable's own symbol table and address space, and flips their
// enclosing functions between original code and an unconditional-raise
// stub.
type Forcer struct {
	mu sync.Mutex

	symtab   *symtab.Table
	addrs    *addrspace.Resolver
	gen      codegen.Generator
	arch     codegen.Arch
	pageSize uintptr

	patched map[uintptr]*patchedSite
}

// NewForcer opens the running program's own ELF image and address
// space (configurable via GOFORCE_SELF_EXE / GOFORCE_MAPS_PATH for
// testing against a different image) and selects a code generator for
// the running architecture.
func NewForcer() (*Forcer, error) {
	cfg := config.FromEnv()
	diag.Verbose = cfg.Verbose

	tab, err := symtab.Open(cfg.SelfExe)
	if err != nil {
		return nil, wrap(ErrImageOpen, "open %s", cfg.SelfExe)
	}

	resolver, err := addrspace.New(cfg.MapsPath)
	if err != nil {
		return nil, wrap(ErrMapRead, "read %s", cfg.MapsPath)
	}

	arch := codegen.Detect()
	diag.Logf("detected architecture %s", arch)

	return &Forcer{
		symtab:   tab,
		addrs:    resolver,
		gen:      codegen.ForArch(arch),
		arch:     arch,
		pageSize: uintptr(unix.Getpagesize()),
		patched:  map[uintptr]*patchedSite{},
	}, nil
}

// ListSites reports every throw site registered so far, each annotated
// with whether it is currently patched.
func (f *Forcer) ListSites() []SiteInfo {
	f.mu.Lock()
	defer f.mu.Unlock()

	sites := Sites()
	out := make([]SiteInfo, 0, len(sites))
	for _, s := range sites {
		_, patched := f.patched[s.PC]
		out = append(out, SiteInfo{
			Addr:    s.PC,
			File:    s.File,
			Line:    s.Line,
			Expr:    s.Expr,
			Patched: patched,
		})
	}
	return out
}

// Force patches addr's enclosing function so every future call raises
// the site's originally registered error. addr must be the PC of a
// RegisterAndRaise call that has already run at least once.
func (f *Forcer) Force(addr uintptr) error {
	site, ok := siteByPC(addr)
	if !ok {
		return fmt.Errorf("%#x: %w", addr, ErrUnknownSite)
	}
	return f.force(site, site.err)
}

// ForceWith behaves like Force but raises err instead of the site's
// originally registered error. If err is nil, it rebuilds one via the
// site's reconstructor, failing with ErrNoReconstructor if there isn't
// one.
func (f *Forcer) ForceWith(addr uintptr, err error) error {
	site, ok := siteByPC(addr)
	if !ok {
		return fmt.Errorf("%#x: %w", addr, ErrUnknownSite)
	}

	if err == nil {
		if site.reconstruct == nil {
			return fmt.Errorf("%#x: %w", addr, ErrNoReconstructor)
		}
		err = site.reconstruct()
	}

	return f.force(site, err)
}

func (f *Forcer) force(site *Site, err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, already := f.patched[site.PC]; already {
		diag.Logf("site %#x already patched, re-arming with new error", site.PC)
		f.unforceLocked(site.PC)
	}

	fileOff := f.addrs.ToOffset(site.PC)
	fnFileStart, fnFileEnd, name, cfErr := f.symtab.ContainingFunction(fileOff)
	if cfErr != nil {
		return fmt.Errorf("%s: %w", cfErr.Error(), ErrUnknownSite)
	}
	fnStart := f.addrs.FromOffset(fnFileStart)
	fnEnd := f.addrs.FromOffset(fnFileEnd)
	diag.Logf("patching %s (%#x-%#x) for site %#x", name, fnStart, fnEnd, site.PC)

	errSlot := new(error)
	*errSlot = err

	stub, genErr := f.gen.Generate(fnStart, trampoline.Addr(), uintptr(unsafe.Pointer(errSlot)))
	if genErr != nil {
		switch {
		case errors.Is(genErr, codegen.ErrUnsupportedArch):
			return fmt.Errorf("%s: %w", genErr.Error(), ErrUnsupportedArch)
		case errors.Is(genErr, codegen.ErrOffsetOutOfRange):
			return fmt.Errorf("%s: %w", genErr.Error(), ErrOffsetOutOfRange)
		default:
			return genErr
		}
	}
	if fnEnd > fnStart && uintptr(len(stub)) > fnEnd-fnStart {
		return fmt.Errorf("stub is %d bytes, function is %d: %w", len(stub), fnEnd-fnStart, ErrStubTooLarge)
	}

	region := protect.PageAlign(fnStart, fnStart+uintptr(len(stub)), f.pageSize)
	guard, gerr := protect.Acquire(region)
	if gerr != nil {
		return fmt.Errorf("%s: %w", gerr.Error(), ErrProtectFailed)
	}
	defer guard.Release()

	fnBytes := unsafe.Slice((*byte)(unsafe.Pointer(fnStart)), len(stub))
	saved := make([]byte, len(stub))
	copy(saved, fnBytes)
	copy(fnBytes, stub)

	f.patched[site.PC] = &patchedSite{
		fnStart:    fnStart,
		savedBytes: saved,
		errSlot:    errSlot,
	}
	return nil
}

// Unforce restores addr's patched function to its original bytes. It is
// a no-op if addr is not currently patched.
func (f *Forcer) Unforce(addr uintptr) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unforceLocked(addr)
}

func (f *Forcer) unforceLocked(addr uintptr) {
	ps, ok := f.patched[addr]
	if !ok {
		return
	}

	region := protect.PageAlign(ps.fnStart, ps.fnStart+uintptr(len(ps.savedBytes)), f.pageSize)
	guard, err := protect.Acquire(region)
	if err != nil {
		diag.Logf("unforce %#x: %v", addr, err)
		return
	}
	defer guard.Release()

	fnBytes := unsafe.Slice((*byte)(unsafe.Pointer(ps.fnStart)), len(ps.savedBytes))
	copy(fnBytes, ps.savedBytes)
	delete(f.patched, addr)
}

// Close restores every site this Forcer has patched. Safe to call more
// than once.
func (f *Forcer) Close() error {
	f.mu.Lock()
	addrs := make([]uintptr, 0, len(f.patched))
	for addr := range f.patched {
		addrs = append(addrs, addr)
	}
	f.mu.Unlock()

	for _, addr := range addrs {
		f.Unforce(addr)
	}
	return nil
}
