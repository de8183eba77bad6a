//go:build !unix

package poll

// FdSet is a 1024 descriptor bitmask for platforms without select(2).
// It is only used for bookkeeping, the readiness primitive always fails
// there.
type FdSet struct {
	Bits [16]int64
}
