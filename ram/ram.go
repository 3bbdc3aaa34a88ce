// Package ram implements the DCPU-16's word-addressable memory: a fixed
// 65536-word store with half-open range views for bulk copy, the way
// original_source/src/emulator/ram.rs factors storage out of the CPU as its
// own indexable type.
package ram

// Size is the number of addressable words.
const Size = 0x10000

// RAM is a fixed 65536-word store. The zero value is ready to use. Callers
// address it with plain uint16s; all arithmetic wraps modulo 2^16, so no
// bounds check is ever visible at the API boundary.
type RAM struct {
	words [Size]uint16
}

// New returns a zeroed RAM.
func New() *RAM {
	return &RAM{}
}

// Word returns the value stored at addr.
func (r *RAM) Word(addr uint16) uint16 {
	return r.words[addr]
}

// SetWord stores v at addr.
func (r *RAM) SetWord(addr uint16, v uint16) {
	r.words[addr] = v
}

// Range returns a view of the half-open range [lo, hi). If hi < lo the
// range is empty, reflecting 16-bit wraparound rather than panicking.
func (r *RAM) Range(lo, hi uint16) []uint16 {
	if hi < lo {
		return nil
	}
	return r.words[lo:hi]
}

// From returns a view of the half-open range [lo, Size).
func (r *RAM) From(lo uint16) []uint16 {
	return r.words[lo:]
}

// To returns a view of the half-open range [0, hi).
func (r *RAM) To(hi uint16) []uint16 {
	return r.words[:hi]
}

// Load copies data into memory starting at addr. Any existing data is
// overwritten. If addr+len(data) overruns the address space, only the
// words that fit are copied.
func (r *RAM) Load(addr uint16, data []uint16) int {
	return copy(r.words[addr:], data)
}

// Read returns (at most) n words starting at addr. The returned slice may
// be shorter than n if addr+n exceeds the address space.
func (r *RAM) Read(addr uint16, n int) []uint16 {
	avail := Size - int(addr)
	if n > avail {
		n = avail
	}
	out := make([]uint16, n)
	copy(out, r.words[addr:])
	return out
}

// Ptr returns a host pointer to the word at addr. It exists so the CPU core
// can resolve an operand to a single host location (register, memory cell,
// or host-local literal buffer) the same way markcol-dcpu16's lea does,
// instead of threading separate read/write calls through every addressing
// mode.
func (r *RAM) Ptr(addr uint16) *uint16 {
	return &r.words[addr]
}
