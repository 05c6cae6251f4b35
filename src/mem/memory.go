// Package mem implements the interpreter's segmented 64-bit address space:
// a fixed stack region, a reserved hole and a bump/first-fit heap, with
// little-endian byte-level load/store and allocation bookkeeping.
package mem

import (
	"fmt"

	"swpp-interpreter/src/isa"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// allocation is one live heap allocation: base address and the bytes it
// owns.
type allocation struct {
	base uint64
	data []byte
}

// Memory is the interpreter's address space: a fixed-size stack array
// plus a list of live heap allocations kept sorted by base address.
type Memory struct {
	stack   [StackEnd]byte
	allocs  []allocation
	current uint64
	max     uint64
}

// ---------------------
// ----- Constants -----
// ---------------------

// StackEnd is the exclusive upper bound of the always-valid stack region
// [0, StackEnd). It is unrelated to reg.InitialSP, the seed value of the
// Sp register (§6, §9).
const StackEnd = 10_240

// HeapBase is the inclusive lower bound of the heap region [HeapBase,
// 2^64). Addresses in [StackEnd, HeapBase) fall in the reserved hole and
// are always fatal to access.
const HeapBase = 20_480

// -------------------
// ----- Functions -----
// -------------------

// New returns an empty Memory: a zeroed stack and no heap allocations.
func New() *Memory {
	return &Memory{}
}

// MaxAllocedSize returns the monotonic high-water mark of bytes
// simultaneously allocated on the heap, reported as "Max heap usage".
func (m *Memory) MaxAllocedSize() uint64 {
	return m.max
}

// InStack reports whether addr falls in the stack region.
func InStack(addr uint64) bool {
	return addr < StackEnd
}

// InHeap reports whether addr falls in the heap region.
func InHeap(addr uint64) bool {
	return addr >= HeapBase
}

// Malloc allocates size bytes at the lowest free heap base and returns its
// address. Size 0 and exhaustion of the 64-bit address space are errors.
func (m *Memory) Malloc(size uint64) (uint64, error) {
	if size == 0 {
		return 0, fmt.Errorf("malloc of size 0")
	}
	candidate := uint64(HeapBase)
	insertAt := len(m.allocs)
	for i, a := range m.allocs {
		if candidate+size >= candidate && candidate+size <= a.base {
			insertAt = i
			break
		}
		if end := a.base + uint64(len(a.data)); end > candidate {
			candidate = end
		}
	}
	if candidate+size < candidate {
		return 0, fmt.Errorf("malloc(%d) exhausts the address space", size)
	}

	m.allocs = append(m.allocs, allocation{})
	copy(m.allocs[insertAt+1:], m.allocs[insertAt:])
	m.allocs[insertAt] = allocation{base: candidate, data: make([]byte, size)}

	m.current += size
	if m.current > m.max {
		m.max = m.current
	}
	return candidate, nil
}

// Free releases the allocation based at addr. An addr that is not a live
// allocation base is an error.
func (m *Memory) Free(addr uint64) error {
	for i, a := range m.allocs {
		if a.base == addr {
			m.current -= uint64(len(a.data))
			m.allocs = append(m.allocs[:i], m.allocs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("free of unallocated address %d", addr)
}

// regionSlice returns a mutable view of the n bytes starting at addr,
// provided they lie entirely in the stack region or entirely within one
// live heap allocation. Any other span — the reserved hole, unmapped heap
// bytes, or a span crossing a region boundary — is an error (§4.3, §9).
func (m *Memory) regionSlice(addr, n uint64) ([]byte, error) {
	end := addr + n
	if end < addr {
		return nil, fmt.Errorf("address %d+%d overflows the address space", addr, n)
	}
	switch {
	case end <= StackEnd:
		return m.stack[addr:end], nil
	case addr < StackEnd:
		return nil, fmt.Errorf("access [%d,%d) crosses out of the stack region", addr, end)
	case addr < HeapBase:
		return nil, fmt.Errorf("access to reserved region at address %d", addr)
	default:
		for i := range m.allocs {
			a := &m.allocs[i]
			base := a.base
			size := uint64(len(a.data))
			if addr >= base && end <= base+size {
				off := addr - base
				return a.data[off : off+n], nil
			}
		}
		return nil, fmt.Errorf("unmapped heap access at address %d", addr)
	}
}

// Load reads width's worth of bytes at addr, little-endian. A width of
// isa.Size1 reads a single byte and masks it to one bit (§4.5).
func (m *Memory) Load(width isa.Size, addr uint64) (uint64, error) {
	n := uint64(width.Bytes())
	b, err := m.regionSlice(addr, n)
	if err != nil {
		return 0, err
	}
	var v uint64
	for i := uint64(0); i < n; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return width.Truncate(v), nil
}

// Store writes value, truncated to width, at addr, little-endian.
func (m *Memory) Store(width isa.Size, addr uint64, value uint64) error {
	n := uint64(width.Bytes())
	b, err := m.regionSlice(addr, n)
	if err != nil {
		return err
	}
	v := width.Truncate(value)
	for i := uint64(0); i < n; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return nil
}
