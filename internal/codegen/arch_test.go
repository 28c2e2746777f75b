package codegen

import "testing"

func TestArchString(t *testing.T) {
	cases := map[Arch]string{
		ArchX86_64:    "x86_64",
		ArchARM64:     "aarch64",
		ArchARMThumb2: "arm-thumb2",
		ArchUnknown:   "unknown",
	}
	for arch, want := range cases {
		if got := arch.String(); got != want {
			t.Errorf("%v.String() = %q, want %q", int(arch), got, want)
		}
	}
}

func TestDetectReturnsKnownArch(t *testing.T) {
	// Detect must resolve to one of the architectures this module knows
	// how to generate a stub for, on every platform the test suite runs
	// on (amd64 and arm64 CI runners).
	switch Detect() {
	case ArchX86_64, ArchARM64, ArchARMThumb2:
	default:
		t.Fatalf("Detect() returned unrecognized Arch %v", Detect())
	}
}
