// Package zobrist provides the 64-bit keys used to fingerprint board
// positions incrementally.
//
// Keys are generated deterministically from a fixed seed so that position
// hashes are stable across processes and test runs.
package zobrist

const (
	// Players is the number of sides.
	Players = 2
	// Cells is the number of addressable bitboard cells (7 columns x 7
	// rows; the top row is a sentinel and never holds a stone, but keeping
	// the addressing uniform keeps cell indices equal to bit indices).
	Cells = 49
)

// Keys holds one random key per (player, cell).
var Keys [Players][Cells]uint64

// fixed seed; change only if you want to invalidate every stored hash
const keySeed = 0x9e3779b97f4a7c15

func init() {
	s := uint64(keySeed)
	for p := 0; p < Players; p++ {
		for c := 0; c < Cells; c++ {
			// splitmix64: short period is irrelevant here, quality of
			// individual outputs is what matters for XOR hashing.
			s += 0x9e3779b97f4a7c15
			v := s
			v = (v ^ (v >> 30)) * 0xbf58476d1ce4e5b9
			v = (v ^ (v >> 27)) * 0x94d049bb133111eb
			v ^= v >> 31
			if v == 0 {
				v = keySeed // zero keys would make XOR toggling a no-op
			}
			Keys[p][c] = v
		}
	}
}

// Toggle XORs the key for (player, cell) into hash and returns the result.
// Call once to place a stone and once more to remove it.
func Toggle(hash uint64, player, cell int) uint64 {
	return hash ^ Keys[player][cell]
}
