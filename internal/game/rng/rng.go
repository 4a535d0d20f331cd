// Package rng provides the seeded pseudo-random source used by the game.
//
// A seed string is hashed with cyrb128 into a 128-bit state, and numbers are
// produced by the sfc32 generator, which advances that state in place. The
// same seed always yields the same state and the same sequence of numbers.
package rng

import "unicode/utf16"

// State is the 4x32-bit generator state. It is stored on the game document and
// advanced by every draw.
type State [4]uint32

// Hash derives a generator state from a seed string (cyrb128 over UTF-16 code units).
func Hash(seed string) State {
	h1, h2, h3, h4 := uint32(1779033703), uint32(3144134277), uint32(1013904242), uint32(2773480762)
	for _, k := range utf16.Encode([]rune(seed)) {
		c := uint32(k)
		h1 = h2 ^ ((h1 ^ c) * 597399067)
		h2 = h3 ^ ((h2 ^ c) * 2869860233)
		h3 = h4 ^ ((h3 ^ c) * 951274213)
		h4 = h1 ^ ((h4 ^ c) * 2716044179)
	}
	h1 = (h3 ^ (h1 >> 18)) * 597399067
	h2 = (h4 ^ (h2 >> 22)) * 2869860233
	h3 = (h1 ^ (h3 >> 17)) * 951274213
	h4 = (h2 ^ (h4 >> 19)) * 2716044179
	h1 ^= h2 ^ h3 ^ h4
	h2 ^= h1
	h3 ^= h1
	h4 ^= h1
	return State{h1, h2, h3, h4}
}

// Float64 advances the state one sfc32 step and returns a number in [0,1).
func (s *State) Float64() float64 {
	t := s[0] + s[1] + s[3]
	s[3]++
	s[0] = s[1] ^ (s[1] >> 9)
	s[1] = s[2] + (s[2] << 3)
	s[2] = (s[2] << 21) | (s[2] >> 11)
	s[2] += t
	return float64(t) / 4294967296
}

// Intn returns an index in [0, max], i.e. floor(Float64() * (max+1)).
func (s *State) Intn(max int) int {
	return int(s.Float64() * float64(max+1))
}
