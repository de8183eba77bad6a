package poll

import (
	"math/bits"
	"unsafe"
)

// MaxDescriptor is the exclusive upper bound of a watchable descriptor,
// the FD_SETSIZE of the platform readiness primitive.
const MaxDescriptor = int(unsafe.Sizeof(FdSet{})) * 8

const nfdbits = MaxDescriptor / len(FdSet{}.Bits)

// Set adds fd to the set.
func (s *FdSet) Set(fd int) {
	s.Bits[fd/nfdbits] |= 1 << uint(fd%nfdbits)
}

// Clear removes fd from the set.
func (s *FdSet) Clear(fd int) {
	s.Bits[fd/nfdbits] &^= 1 << uint(fd%nfdbits)
}

// IsSet reports whether fd is in the set.
func (s *FdSet) IsSet(fd int) bool {
	return s.Bits[fd/nfdbits]&(1<<uint(fd%nfdbits)) != 0
}

// Zero removes every descriptor.
func (s *FdSet) Zero() {
	*s = FdSet{}
}

// Count returns the number of descriptors in the set.
func (s *FdSet) Count() int {
	var n int
	for _, w := range s.Bits {
		n += onesCount(w)
	}
	return n
}

// highest returns the largest descriptor below limit that is in the set,
// or -1.
func (s *FdSet) highest(limit int) int {
	if limit > MaxDescriptor {
		limit = MaxDescriptor
	}
	for fd := limit - 1; fd >= 0; {
		if s.Bits[fd/nfdbits] == 0 {
			fd -= fd%nfdbits + 1
			continue
		}
		if s.IsSet(fd) {
			return fd
		}
		fd--
	}
	return -1
}

func onesCount[W ~int32 | ~int64](w W) int {
	if unsafe.Sizeof(w) == 4 {
		return bits.OnesCount32(uint32(w))
	}
	return bits.OnesCount64(uint64(w))
}
