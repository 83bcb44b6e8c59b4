// Package monitoring carries the diagnostic logging seam for gridprop.
// Library code never logs directly; it goes through Logf so embedding
// applications can redirect or silence diagnostics.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf and
// may be replaced by SetLogger. Conversion no-ops, degraded lookups and store
// notices are reported through it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
