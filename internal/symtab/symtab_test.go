package symtab

import (
	"os"
	"path/filepath"
	"testing"
)

func TestContainingFunctionPicksEnclosingSymbol(t *testing.T) {
	list := []funcSym{
		{filePos: 0x100, name: "pkg.A"},
		{filePos: 0x200, name: "pkg.B"},
		{filePos: 0x300, name: "pkg.C"},
	}

	start, end, name, ok := containingFunction(list, 0x250)
	if !ok {
		t.Fatal("expected a match")
	}
	if start != 0x200 || end != 0x300 || name != "pkg.B" {
		t.Fatalf("got (%#x,%#x,%q), want (0x200,0x300,\"pkg.B\")", start, end, name)
	}
}

func TestContainingFunctionExactBoundary(t *testing.T) {
	list := []funcSym{
		{filePos: 0x100, name: "pkg.A"},
		{filePos: 0x200, name: "pkg.B"},
	}
	start, _, name, ok := containingFunction(list, 0x200)
	if !ok || start != 0x200 || name != "pkg.B" {
		t.Fatalf("exact-boundary offset should match the symbol starting there, got (%#x,%q,%v)", start, name, ok)
	}
}

func TestContainingFunctionLastSymbolHasNoEnd(t *testing.T) {
	list := []funcSym{
		{filePos: 0x100, name: "pkg.A"},
		{filePos: 0x200, name: "pkg.B"},
	}
	start, end, _, ok := containingFunction(list, 0x250)
	if !ok || start != 0x200 || end != 0x200 {
		t.Fatalf("expected degenerate [0x200,0x200) for the last symbol, got [%#x,%#x) ok=%v", start, end, ok)
	}
}

func TestContainingFunctionBeforeFirstSymbol(t *testing.T) {
	list := []funcSym{{filePos: 0x100, name: "pkg.A"}}
	if _, _, _, ok := containingFunction(list, 0x50); ok {
		t.Fatal("offset before every symbol should not match")
	}
}

func TestContainingFunctionEmptyTable(t *testing.T) {
	if _, _, _, ok := containingFunction(nil, 0x50); ok {
		t.Fatal("empty symbol list should never match")
	}
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Fatal("expected error opening a nonexistent image")
	}
}

func TestOpenRejectsNonELF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "not-an-elf")
	if err := os.WriteFile(path, []byte("not an elf image"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := Open(path); err == nil {
		t.Fatal("expected error opening a non-ELF file")
	}
}
