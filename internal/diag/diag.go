// Completion: 100% - Utility module complete
// Package diag is the ambient logging surface used across this module.
// It deliberately mirrors the teacher's VerboseMode-gated
// fmt.Fprintf(os.Stderr, ...) idiom rather than pulling in a logging
// framework: this library has no long-running process of its own to
// structure logs for, just a handful of narrated steps during patch
// and unpatch.
package diag

import (
	"fmt"
	"os"
)

// Verbose gates Logf. Set it once at Forcer construction time from
// config.Config.Verbose; it is intentionally a package variable rather
// than a per-call parameter so deeply nested helpers (symbol
// resolution, codegen) don't need a logger threaded through them.
var Verbose bool

// Logf writes a diagnostic line to stderr when Verbose is set.
func Logf(format string, args ...any) {
	if !Verbose {
		return
	}
	fmt.Fprintf(os.Stderr, "goforce: "+format+"\n", args...)
}
