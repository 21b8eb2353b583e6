package permission

import "math/bits"

// Mask64 is a fixed 64-bit membership mask. Bits outside [0, 64) are ignored.
type Mask64 uint64

func bit(i int) Mask64 {
	if i < 0 || i >= 64 {
		return 0
	}
	return 1 << i
}

func (m Mask64) Has(i int) bool {
	b := bit(i)
	return b != 0 && m&b != 0
}

func (m *Mask64) Set(i int)   { *m |= bit(i) }
func (m *Mask64) Clear(i int) { *m &^= bit(i) }

// Len is the number of set bits.
func (m Mask64) Len() int { return bits.OnesCount64(uint64(m)) }

func (m Mask64) Raw() uint64 { return uint64(m) }
