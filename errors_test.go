package forcer

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfMatchesWrappedSentinels(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{ErrImageOpen, KindImageOpen},
		{ErrMapRead, KindMapRead},
		{ErrUnknownSite, KindUnknownSite},
		{ErrNoReconstructor, KindNoReconstructor},
		{ErrStubTooLarge, KindStubTooLarge},
		{ErrOffsetOutOfRange, KindOffsetOutOfRange},
		{ErrProtectFailed, KindProtectFailed},
		{ErrUnsupportedArch, KindUnsupportedArch},
	}
	for _, c := range cases {
		wrapped := fmt.Errorf("extra detail: %w", c.err)
		got, ok := KindOf(wrapped)
		if !ok {
			t.Errorf("KindOf(%v): not ok", wrapped)
			continue
		}
		if got != c.want {
			t.Errorf("KindOf(%v) = %v, want %v", wrapped, got, c.want)
		}
	}
}

func TestKindOfUnknownError(t *testing.T) {
	if _, ok := KindOf(errors.New("unrelated")); ok {
		t.Fatal("expected ok=false for an error this package did not produce")
	}
}

func TestKindStringCoversEveryKind(t *testing.T) {
	kinds := []Kind{
		KindImageOpen, KindMapRead, KindUnknownSite, KindNoReconstructor,
		KindStubTooLarge, KindOffsetOutOfRange, KindProtectFailed, KindUnsupportedArch,
	}
	for _, k := range kinds {
		if k.String() == "unknown" {
			t.Errorf("Kind(%d).String() should not fall back to \"unknown\"", int(k))
		}
	}
}

func TestWrapPreservesErrorsIs(t *testing.T) {
	err := wrap(ErrImageOpen, "open %s", "/bin/self")
	if !errors.Is(err, ErrImageOpen) {
		t.Fatalf("wrap result does not satisfy errors.Is against its sentinel: %v", err)
	}
}
