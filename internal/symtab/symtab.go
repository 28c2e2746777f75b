// Completion: 100% - Module complete
// Package symtab resolves a file offset to the enclosing function's
// extents and name by reading the running program's own ELF symbol
// table, the same way the teacher's ExtractFunctionCode looked up one
// named function (see hotreload_unix.go in the retrieval pack this
// module was grown from), generalized to "find whichever function
// contains this offset" instead of "find the function with this name."
package symtab

import (
	"debug/elf"
	"fmt"
	"sort"
	"sync"
)

// funcSym is the subset of an ELF symbol this package needs, already
// converted to a file-position value (symbol value minus its section's
// address plus that section's file offset, matching spec's "value
// relative to start of file").
type funcSym struct {
	filePos uintptr
	name    string
}

// Table is a lazily-built, sorted index of STT_FUNC symbols in one ELF
// image. Safe for concurrent queries after the first call has returned
// (the one-shot load is guarded by sync.Once, per spec's "thread-safe
// for concurrent queries after first-query warm-up").
type Table struct {
	path string

	once syms
}

type syms struct {
	once sync.Once
	err  error
	list []funcSym
}

// Open prepares a Table over the ELF image at path. Only the ELF
// headers are read here; the symbol table is not read until the first
// ContainingFunction call.
func Open(path string) (*Table, error) {
	// Fail fast if the image can't even be opened, rather than
	// deferring every construction error to first use.
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	f.Close()
	return &Table{path: path}, nil
}

func (t *Table) load() {
	t.once.once.Do(func() {
		f, err := elf.Open(t.path)
		if err != nil {
			t.once.err = fmt.Errorf("open %s: %w", t.path, err)
			return
		}
		defer f.Close()

		symbols, err := f.Symbols()
		if err != nil {
			t.once.err = fmt.Errorf("read symbols from %s: %w", t.path, err)
			return
		}

		list := make([]funcSym, 0, len(symbols))
		for _, sym := range symbols {
			if elf.ST_TYPE(sym.Info) != elf.STT_FUNC {
				continue
			}
			if int(sym.Section) < 0 || int(sym.Section) >= len(f.Sections) {
				continue
			}
			section := f.Sections[sym.Section]
			list = append(list, funcSym{
				filePos: uintptr(sym.Value + section.Offset - section.Addr),
				name:    sym.Name,
			})
		}

		sort.Slice(list, func(i, j int) bool { return list[i].filePos < list[j].filePos })
		t.once.list = list
	})
}

// ContainingFunction returns the [start,end) file-offset extents and
// demangled name of the function containing fileOffset.
//
// end is the *next* symbol's file position, each symbol's position
// being computed from its own section (the next symbol's value is not
// combined with the current symbol's section). This is an
// approximation rather than a precise size: padding and alignment gaps
// between functions can make it an overestimate, and symbols from a
// different section can make it an underestimate. Callers that need an
// exact size should prefer a sized-symbol format; ELF function symbols
// as commonly emitted carry no reliable size here either, so this
// module keeps the approximation rather than trusting Size blindly.
func (t *Table) ContainingFunction(fileOffset uintptr) (start, end uintptr, name string, err error) {
	t.load()
	if t.once.err != nil {
		return 0, 0, "", t.once.err
	}

	start, end, rawName, ok := containingFunction(t.once.list, fileOffset)
	if !ok {
		return 0, 0, "", fmt.Errorf("offset %#x is not inside any known function", fileOffset)
	}
	return start, end, demangle(rawName), nil
}

// containingFunction is the pure selection logic behind
// ContainingFunction: list must already be sorted by filePos. It picks
// the symbol with the greatest filePos not exceeding fileOffset as the
// match, and the smallest filePos above fileOffset as its
// approximate end, falling back to the match's own filePos when there
// is no later symbol.
func containingFunction(list []funcSym, fileOffset uintptr) (start, end uintptr, name string, ok bool) {
	bestIdx := -1
	for i, sym := range list {
		if sym.filePos <= fileOffset && (bestIdx == -1 || sym.filePos > list[bestIdx].filePos) {
			bestIdx = i
		}
	}
	if bestIdx == -1 {
		return 0, 0, "", false
	}

	end = ^uintptr(0)
	for _, sym := range list {
		if sym.filePos > fileOffset && sym.filePos < end {
			end = sym.filePos
		}
	}
	if end == ^uintptr(0) {
		end = list[bestIdx].filePos
	}

	return list[bestIdx].filePos, end, list[bestIdx].name, true
}
