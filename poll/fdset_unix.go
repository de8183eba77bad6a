//go:build unix

package poll

import "golang.org/x/sys/unix"

// FdSet is the bitmask understood by select(2).
type FdSet unix.FdSet

func (s *FdSet) sys() *unix.FdSet {
	return (*unix.FdSet)(s)
}
