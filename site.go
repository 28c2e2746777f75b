// Completion: 100% - Module complete
package forcer

import (
	"runtime"
	"sync"
)

// Site is a throw site discovered by a RegisterAndRaise call: the
// program counter inside the enclosing function's compiled body where
// that call was made, plus enough to raise the same failure again
// without re-running the call site.
type Site struct {
	PC   uintptr
	File string
	Line int
	Expr string

	err         error
	reconstruct func() error
}

var (
	registryMu sync.Mutex
	registry   = map[uintptr]*Site{}
)

// RegisterAndRaise registers the call site's address the first time it
// runs and returns err unchanged, so a call site reads exactly as it
// would without fault injection:
//
//	if cfg == nil {
//	    return forcer.RegisterAndRaise(ErrNoConfig, func() error { return ErrNoConfig })
//	}
//
// Unlike a compile-time registry built from every throw macro
// expansion in the binary, a site here is only discoverable once this
// call has actually executed at least once; see SPEC_FULL.md's
// "Go-native realization of the data model".
//
// reconstruct may be nil; Forcer.Force then always raises err, and
// Forcer.ForceWith(addr, nil) fails with ErrNoReconstructor instead of
// rebuilding a fresh error value. reconstruct should be a plain,
// capture-free function value — this is a convention for call-site
// authors, not something this function can check: nothing short of
// inspecting a func value's unexported internal layout can tell a bare
// function literal apart from a closure over its enclosing scope.
func RegisterAndRaise(err error, reconstruct func() error) error {
	pc, file, line, ok := runtime.Caller(1)
	if !ok {
		return err
	}

	registryMu.Lock()
	if _, exists := registry[pc]; !exists {
		registry[pc] = &Site{
			PC:          pc,
			File:        file,
			Line:        line,
			Expr:        exprAt(pc),
			err:         err,
			reconstruct: reconstruct,
		}
	}
	registryMu.Unlock()

	return err
}

func exprAt(pc uintptr) string {
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return ""
	}
	return fn.Name()
}

// Sites returns a snapshot of every throw site registered so far.
func Sites() []*Site {
	registryMu.Lock()
	defer registryMu.Unlock()

	out := make([]*Site, 0, len(registry))
	for _, s := range registry {
		out = append(out, s)
	}
	return out
}

func siteByPC(pc uintptr) (*Site, bool) {
	registryMu.Lock()
	defer registryMu.Unlock()
	s, ok := registry[pc]
	return s, ok
}
