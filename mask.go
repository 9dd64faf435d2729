package evoke

import "math/bits"

// bitmask256 represents a set of up to 256 component indices. It is used to
// uniquely identify archetypes and to record declared component access. Each
// bit corresponds to a component index.
type bitmask256 [4]uint64

// set enables the bit corresponding to the given component index.
func (m *bitmask256) set(bit uint8) {
	i := bit >> 6 // (bit / 64) to find the uint64 index
	o := bit & 63 // (bit % 64) to find the bit offset
	m[i] |= uint64(1) << uint64(o)
}

// unset disables the bit corresponding to the given component index.
func (m *bitmask256) unset(bit uint8) {
	i := bit >> 6
	o := bit & 63
	m[i] &= ^(uint64(1) << uint64(o))
}

// containsBit checks if a specific bit is set in the mask.
func (m bitmask256) containsBit(bit uint8) bool {
	i := bit >> 6
	o := bit & 63
	return (m[i] & (uint64(1) << uint64(o))) != 0
}

// contains checks if all the bits set in `sub` are also set in `m`.
func (m bitmask256) contains(sub bitmask256) bool {
	return (m[0]&sub[0]) == sub[0] &&
		(m[1]&sub[1]) == sub[1] &&
		(m[2]&sub[2]) == sub[2] &&
		(m[3]&sub[3]) == sub[3]
}

// intersects checks if the two masks share any set bit.
func (m bitmask256) intersects(other bitmask256) bool {
	return (m[0]&other[0])|(m[1]&other[1])|(m[2]&other[2])|(m[3]&other[3]) != 0
}

// union returns the bitwise OR of the two masks.
func (m bitmask256) union(other bitmask256) bitmask256 {
	return bitmask256{m[0] | other[0], m[1] | other[1], m[2] | other[2], m[3] | other[3]}
}

// without returns a copy of the mask with the given bit cleared.
func (m bitmask256) without(bit uint8) bitmask256 {
	nm := m
	nm.unset(bit)
	return nm
}

// isZero reports whether no bit is set.
func (m bitmask256) isZero() bool {
	return m[0]|m[1]|m[2]|m[3] == 0
}

// count returns the number of set bits.
func (m bitmask256) count() int {
	return bits.OnesCount64(m[0]) + bits.OnesCount64(m[1]) +
		bits.OnesCount64(m[2]) + bits.OnesCount64(m[3])
}

// indices returns the set bits in ascending order.
func (m bitmask256) indices() []uint8 {
	out := make([]uint8, 0, m.count())
	for w := 0; w < 4; w++ {
		word := m[w]
		for word != 0 {
			o := uint8(bits.TrailingZeros64(word))
			out = append(out, uint8(w<<6)|o)
			word &= word - 1
		}
	}
	return out
}
