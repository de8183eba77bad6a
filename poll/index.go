package poll

import "maps"

// descriptorIndex maps a watched descriptor to its slot in a watchSet's
// entries array.
type descriptorIndex struct {
	slots map[int]int
}

func newDescriptorIndex(size int) descriptorIndex {
	return descriptorIndex{slots: make(map[int]int, size)}
}

// insertIfAbsent records slot for fd unless fd is already indexed, and
// returns the slot fd ends up at.
func (x *descriptorIndex) insertIfAbsent(fd, slot int) int {
	if cur, ok := x.slots[fd]; ok {
		return cur
	}
	x.slots[fd] = slot
	return slot
}

func (x *descriptorIndex) lookup(fd int) (int, bool) {
	slot, ok := x.slots[fd]
	return slot, ok
}

func (x *descriptorIndex) remove(fd int) {
	delete(x.slots, fd)
}

func (x *descriptorIndex) rebind(fd, slot int) {
	x.slots[fd] = slot
}

func (x *descriptorIndex) len() int {
	return len(x.slots)
}

func (x *descriptorIndex) clone() descriptorIndex {
	return descriptorIndex{slots: maps.Clone(x.slots)}
}
