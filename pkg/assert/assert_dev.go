//go:build !release

// Package assert checks internal invariants. A failed assertion means the store itself is broken,
// never that a caller passed bad input, so it panics instead of returning an error.
package assert

import "fmt"

func That(cond bool, format string, args ...any) { //nolint:goprintffuncname // it's ok
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}
