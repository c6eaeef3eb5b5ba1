package ecs

import (
	"encoding/binary"
	"math/bits"

	"github.com/cespare/xxhash/v2"
)

// Mask is a growable bit set where bit N means "has component type N".
// Bits are assigned per World by its ComponentRegistry.
type Mask []uint64

// Set enables the given bit, growing the mask as needed.
func (m *Mask) Set(bit int) {
	word := bit >> 6
	for len(*m) <= word {
		*m = append(*m, 0)
	}
	(*m)[word] |= uint64(1) << uint(bit&63)
}

// Unset disables the given bit and drops trailing empty words.
func (m *Mask) Unset(bit int) {
	word := bit >> 6
	if word >= len(*m) {
		return
	}
	(*m)[word] &^= uint64(1) << uint(bit&63)
	*m = m.trimmed()
}

// Has reports whether the given bit is set.
func (m Mask) Has(bit int) bool {
	word := bit >> 6
	if word >= len(m) {
		return false
	}
	return m[word]&(uint64(1)<<uint(bit&63)) != 0
}

// Contains reports whether every bit set in sub is also set in m,
// i.e. (m & sub) == sub.
func (m Mask) Contains(sub Mask) bool {
	for i, w := range sub {
		if w == 0 {
			continue
		}
		if i >= len(m) || m[i]&w != w {
			return false
		}
	}
	return true
}

// IsZero reports whether no bit is set.
func (m Mask) IsZero() bool {
	for _, w := range m {
		if w != 0 {
			return false
		}
	}
	return true
}

// Equal compares two masks ignoring trailing empty words.
func (m Mask) Equal(other Mask) bool {
	a, b := m.trimmed(), other.trimmed()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Count returns the number of set bits.
func (m Mask) Count() int {
	n := 0
	for _, w := range m {
		n += bits.OnesCount64(w)
	}
	return n
}

// Bits returns the set bit positions in ascending order.
func (m Mask) Bits() []int {
	out := make([]int, 0, m.Count())
	for i, w := range m {
		for w != 0 {
			tz := bits.TrailingZeros64(w)
			out = append(out, i*64+tz)
			w &^= uint64(1) << uint(tz)
		}
	}
	return out
}

// Clone returns a trimmed copy that does not share storage with m.
func (m Mask) Clone() Mask {
	t := m.trimmed()
	out := make(Mask, len(t))
	copy(out, t)
	return out
}

func (m Mask) trimmed() Mask {
	n := len(m)
	for n > 0 && m[n-1] == 0 {
		n--
	}
	return m[:n]
}

// hash is stable for masks that are Equal.
func (m Mask) hash() uint64 {
	var buf [8]byte
	d := xxhash.New()
	for _, w := range m.trimmed() {
		binary.LittleEndian.PutUint64(buf[:], w)
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}
